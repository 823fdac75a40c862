package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"

	"whatsfordinner/internal/models"
	"whatsfordinner/internal/session"
)

// SessionRecord is one session row. Structured slots are stored as JSON
// text so the schema stays flat.
type SessionRecord struct {
	ID              string             `gorm:"primary_key;type:varchar(64)"`
	Page            string             `gorm:"type:varchar(32)"`
	InventoryJSON   string             `gorm:"type:text"`
	PreferencesJSON string             `gorm:"type:text"`
	RecipesJSON     string             `gorm:"type:text"`
	Selection       models.StringSlice `gorm:"type:text"`
	StartedAt       time.Time
	LastSeenAt      time.Time `gorm:"index"`
}

// TableName sets the table name for SessionRecord
func (SessionRecord) TableName() string {
	return "sessions"
}

// Compile-time interface check.
var _ session.Store = (*SessionStore)(nil)

// SessionStore implements session.Store on top of gorm.
type SessionStore struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
	log logrus.FieldLogger
}

// NewSessionStore wraps an open database; ttl <= 0 disables expiry.
func NewSessionStore(db *gorm.DB, ttl time.Duration, log logrus.FieldLogger) *SessionStore {
	return &SessionStore{db: db, ttl: ttl, now: time.Now, log: log}
}

// Create inserts a new session row.
func (s *SessionStore) Create(ctx context.Context, st *session.State) error {
	rec, err := toRecord(st)
	if err != nil {
		return err
	}
	if err := s.db.Create(rec).Error; err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// Load reads a session row back into State.
func (s *SessionStore) Load(ctx context.Context, id string) (*session.State, error) {
	var rec SessionRecord
	err := s.db.Where("id = ?", id).First(&rec).Error
	if gorm.IsRecordNotFoundError(err) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	st, err := fromRecord(&rec)
	if err != nil {
		return nil, err
	}
	if st.Expired(s.now(), s.ttl) {
		if err := s.db.Where("id = ?", id).Delete(&SessionRecord{}).Error; err != nil {
			s.log.WithError(err).WithField("session", id).Warn("failed to delete expired session")
		}
		return nil, models.ErrSessionExpired
	}
	return st, nil
}

// Save overwrites an existing session row and refreshes its idle timer.
func (s *SessionStore) Save(ctx context.Context, st *session.State) error {
	st.LastSeenAt = s.now()
	rec, err := toRecord(st)
	if err != nil {
		return err
	}

	res := s.db.Model(&SessionRecord{}).Where("id = ?", st.ID).Updates(map[string]interface{}{
		"page":             rec.Page,
		"inventory_json":   rec.InventoryJSON,
		"preferences_json": rec.PreferencesJSON,
		"recipes_json":     rec.RecipesJSON,
		"selection":        rec.Selection,
		"last_seen_at":     rec.LastSeenAt,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to save session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete removes a session row.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	res := s.db.Where("id = ?", id).Delete(&SessionRecord{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Count returns the number of stored sessions.
func (s *SessionStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.Model(&SessionRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}

// PurgeExpired deletes every session idle for longer than the TTL.
func (s *SessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	res := s.db.Where("last_seen_at < ?", s.now().Add(-s.ttl)).Delete(&SessionRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func toRecord(st *session.State) (*SessionRecord, error) {
	inventory, err := json.Marshal(st.Inventory)
	if err != nil {
		return nil, fmt.Errorf("failed to encode inventory: %w", err)
	}
	prefs, err := json.Marshal(st.Preferences)
	if err != nil {
		return nil, fmt.Errorf("failed to encode preferences: %w", err)
	}
	recipes, err := json.Marshal(st.Recipes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode recipes: %w", err)
	}

	return &SessionRecord{
		ID:              st.ID,
		Page:            string(st.Page),
		InventoryJSON:   string(inventory),
		PreferencesJSON: string(prefs),
		RecipesJSON:     string(recipes),
		Selection:       models.StringSlice(st.Selection),
		StartedAt:       st.StartedAt,
		LastSeenAt:      st.LastSeenAt,
	}, nil
}

func fromRecord(rec *SessionRecord) (*session.State, error) {
	st := &session.State{
		ID:         rec.ID,
		Page:       models.Page(rec.Page),
		Selection:  []string(rec.Selection),
		StartedAt:  rec.StartedAt,
		LastSeenAt: rec.LastSeenAt,
	}
	if err := decodeSlot(rec.InventoryJSON, &st.Inventory); err != nil {
		return nil, fmt.Errorf("failed to decode inventory of session %s: %w", rec.ID, err)
	}
	if err := decodeSlot(rec.PreferencesJSON, &st.Preferences); err != nil {
		return nil, fmt.Errorf("failed to decode preferences of session %s: %w", rec.ID, err)
	}
	if err := decodeSlot(rec.RecipesJSON, &st.Recipes); err != nil {
		return nil, fmt.Errorf("failed to decode recipes of session %s: %w", rec.ID, err)
	}
	st.EnsureDefaults()
	return st, nil
}

func decodeSlot(data string, dst interface{}) error {
	if data == "" {
		return nil
	}
	return json.Unmarshal([]byte(data), dst)
}
