package session

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"whatsfordinner/internal/models"
)

// Store persists session state. Load returns models.ErrNotFound for an
// unknown ID and models.ErrSessionExpired for one idle past its TTL.
type Store interface {
	Create(ctx context.Context, st *State) error
	Load(ctx context.Context, id string) (*State, error)
	Save(ctx context.Context, st *State) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-memory session store. Safe for concurrent access.
// It stores and returns copies, so no two callers share state.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*State
	ttl      time.Duration
	now      func() time.Time
	log      logrus.FieldLogger
}

// NewMemoryStore creates an empty store; ttl <= 0 disables expiry.
func NewMemoryStore(ttl time.Duration, log logrus.FieldLogger) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*State),
		ttl:      ttl,
		now:      time.Now,
		log:      log,
	}
}

// Create stores a new session.
func (s *MemoryStore) Create(ctx context.Context, st *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[st.ID] = st.Clone()
	s.log.WithField("session", st.ID).Debug("session created")
	return nil
}

// Load retrieves a session by ID.
func (s *MemoryStore) Load(ctx context.Context, id string) (*State, error) {
	s.mu.RLock()
	st, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, models.ErrNotFound
	}
	if st.Expired(s.now(), s.ttl) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		s.log.WithField("session", id).Debug("session expired")
		return nil, models.ErrSessionExpired
	}
	return st.Clone(), nil
}

// Save overwrites a session and refreshes its idle timer.
func (s *MemoryStore) Save(ctx context.Context, st *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[st.ID]; !ok {
		return models.ErrNotFound
	}
	st.LastSeenAt = s.now()
	s.sessions[st.ID] = st.Clone()
	return nil
}

// Delete removes a session by ID.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return models.ErrNotFound
	}
	delete(s.sessions, id)
	s.log.WithField("session", id).Debug("session deleted")
	return nil
}

// Count returns the number of stored sessions, expired ones included until
// they are next loaded.
func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions), nil
}
