package desktop

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/DigitalTwin/internal/infrastructure/logging"
)

// Factory builds the controller for a user
type Factory func(userID string) *Controller

// SessionObserver is told how many desktop sessions exist
type SessionObserver interface {
	SetDesktopSessions(n int)
}

// Registry keeps one controller per user
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Controller // Protected by mu
	factory  Factory
	observer SessionObserver
	log      *logging.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(factory Factory, observer SessionObserver, log *logging.Logger) *Registry {
	if log == nil {
		log = logging.NewNop()
	}
	return &Registry{
		sessions: make(map[string]*Controller),
		factory:  factory,
		observer: observer,
		log:      log,
	}
}

// Acquire returns the user's controller, creating it on first use. A new
// controller loads the saved settings, records the session start with meta
// and then checks the policies. created reports whether that happened.
func (r *Registry) Acquire(ctx context.Context, userID string, meta map[string]interface{}) (c *Controller, created bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.sessions[userID]; ok {
		return existing, false, nil
	}

	c = r.factory(userID)
	if err := c.LoadSettings(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to start desktop session: %w", err)
	}
	c.StartSession(meta)
	c.CheckPolicies()

	r.sessions[userID] = c
	r.report()
	r.log.Info("Desktop session started", zap.String("user_id", userID), zap.String("desktop_id", c.ID()))
	return c, true, nil
}

// Get returns the user's controller if one exists
func (r *Registry) Get(userID string) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.sessions[userID]
	return c, ok
}

// Remove drops the user's controller
func (r *Registry) Remove(userID string) bool {
	r.mu.Lock()
	c, ok := r.sessions[userID]
	if ok {
		delete(r.sessions, userID)
		r.report()
	}
	r.mu.Unlock()

	if ok {
		c.Release()
		r.log.Info("Desktop session ended", zap.String("user_id", userID))
	}
	return ok
}

// Users lists the users with a live session, sorted
func (r *Registry) Users() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := make([]string, 0, len(r.sessions))
	for u := range r.sessions {
		users = append(users, u)
	}
	sort.Strings(users)
	return users
}

// Len returns the number of live sessions
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) report() {
	if r.observer != nil {
		r.observer.SetDesktopSessions(len(r.sessions))
	}
}
