// Package kitchen is the page controller: it applies user actions to a
// session and renders the resulting view.
package kitchen

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"whatsfordinner/internal/models"
	"whatsfordinner/internal/monitoring"
	"whatsfordinner/internal/session"
)

// RecipeSource produces recipe suggestions and directions. *agents.Chef
// is the production implementation.
type RecipeSource interface {
	SuggestRecipes(ctx context.Context, ingredients []string, prefs models.Preferences, creative bool) ([]models.RecipeSuggestion, error)
	Instructions(ctx context.Context, recipe string, ingredients []string, prefs models.Preferences) (string, error)
}

// Controller drives every session through the page state machine.
// Actions on one session run one at a time; different sessions run in
// parallel.
type Controller struct {
	store    session.Store
	chef     RecipeSource
	metrics  *monitoring.Metrics
	monitor  *monitoring.Monitor
	log      logrus.FieldLogger
	capacity int
	locks    *session.Locks
	now      func() time.Time
}

// NewController wires a controller; capacity <= 0 selects DefaultFridgeCapacity.
func NewController(store session.Store, chef RecipeSource, metrics *monitoring.Metrics, monitor *monitoring.Monitor, capacity int, log logrus.FieldLogger) *Controller {
	if capacity <= 0 {
		capacity = DefaultFridgeCapacity
	}
	return &Controller{
		store:    store,
		chef:     chef,
		metrics:  metrics,
		monitor:  monitor,
		log:      log,
		capacity: capacity,
		locks:    session.NewLocks(),
		now:      time.Now,
	}
}

// StartSession creates a session with default state and renders its home page.
func (c *Controller) StartSession(ctx context.Context) (*session.State, View, error) {
	st := session.New(session.NewID(), c.now())
	if err := c.store.Create(ctx, st); err != nil {
		return nil, View{}, err
	}
	c.refreshActiveSessions(ctx)
	c.log.WithField("session", st.ID).Info("session started")
	return st, c.Render(st), nil
}

// EndSession discards a session.
func (c *Controller) EndSession(ctx context.Context, id string) error {
	unlock := c.locks.Lock(id)
	defer unlock()

	if err := c.store.Delete(ctx, id); err != nil {
		return err
	}
	c.refreshActiveSessions(ctx)
	c.log.WithField("session", id).Info("session ended")
	return nil
}

// Dispatch applies one action to a session and renders the result.
//
// The action runs against a copy of the stored state, which is saved only
// if the action succeeds, so a failed action never changes the session.
// Whenever the session exists the returned view is valid, even alongside
// an error.
func (c *Controller) Dispatch(ctx context.Context, id string, a Action) (View, error) {
	unlock := c.locks.Lock(id)
	defer unlock()

	log := c.log.WithFields(logrus.Fields{"session": id, "action": a.Type})

	st, err := c.store.Load(ctx, id)
	if err != nil {
		c.metrics.RecordAction(string(a.Type), err)
		if models.ErrorKind(err) == "expired" {
			c.refreshActiveSessions(ctx)
		}
		return View{}, err
	}

	work := st.Clone()
	instructions, notice, err := c.apply(ctx, work, a)
	if err == nil {
		if err = c.store.Save(ctx, work); err == nil {
			st = work
		}
	}
	c.metrics.RecordAction(string(a.Type), err)

	view := c.Render(st)
	if err != nil {
		log.WithError(err).WithField("kind", models.ErrorKind(err)).Info("action rejected")
		return view, err
	}

	view.Instructions = instructions
	view.Notice = notice
	log.WithField("page", st.Page).Debug("action applied")
	return view, nil
}

// Snapshot loads a session without applying any action.
func (c *Controller) Snapshot(ctx context.Context, id string) (View, error) {
	return c.Dispatch(ctx, id, Action{Type: ActionView})
}

func (c *Controller) refreshActiveSessions(ctx context.Context) {
	n, err := c.store.Count(ctx)
	if err != nil {
		c.log.WithError(err).Warn("failed to count sessions")
		return
	}
	c.metrics.SetActiveSessions(n)
	c.monitor.RecordSessions(n)
}
