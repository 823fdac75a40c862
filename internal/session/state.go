// Package session holds per-user assistant state and the stores that keep
// it between requests.
package session

import (
	"time"

	"github.com/google/uuid"

	"whatsfordinner/internal/models"
)

// State is everything one user's assistant session knows. Handlers receive
// a *State they exclusively own for the duration of one action.
type State struct {
	ID          string                    `json:"id"`
	Page        models.Page               `json:"page"`
	Inventory   models.Inventory          `json:"inventory"`
	Preferences models.Preferences        `json:"preferences"`
	Recipes     []models.RecipeSuggestion `json:"recipes"`
	// Selection is the ingredient list used for the last successful
	// generation; instructions reuse it.
	Selection  []string  `json:"selection"`
	StartedAt  time.Time `json:"started_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// NewID returns a fresh random session identifier.
func NewID() string {
	return uuid.NewString()
}

// New returns a session with every slot at its default.
func New(id string, now time.Time) *State {
	st := &State{ID: id, StartedAt: now, LastSeenAt: now}
	st.EnsureDefaults()
	return st
}

// EnsureDefaults initialises any slot that is still unset. Slots that
// already hold a value are left alone, so calling it again is a no-op.
func (s *State) EnsureDefaults() {
	if s.Page == "" {
		s.Page = models.PageHome
	}
	if s.Inventory.Items == nil {
		s.Inventory = models.NewInventory()
	}
	if s.Preferences.Tools == nil || !s.Preferences.Valid() {
		s.Preferences = models.DefaultPreferences()
	}
	if s.Recipes == nil {
		s.Recipes = []models.RecipeSuggestion{}
	}
	if s.Selection == nil {
		s.Selection = []string{}
	}
}

// Clone returns a deep copy so stores never hand out shared maps or slices.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	out.Inventory = s.Inventory.Clone()
	out.Preferences = s.Preferences.Clone()
	out.Recipes = models.CloneRecipes(s.Recipes)
	out.Selection = append([]string(nil), s.Selection...)
	if out.Selection == nil {
		out.Selection = []string{}
	}
	return &out
}

// Expired reports whether the session has been idle longer than ttl.
func (s *State) Expired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(s.LastSeenAt) > ttl
}
