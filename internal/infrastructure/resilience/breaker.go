package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned while the breaker refuses calls
var ErrOpen = errors.New("circuit breaker is open")

// State is the breaker position
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures a Breaker
type Settings struct {
	// Threshold is the number of consecutive failures that opens the breaker
	Threshold int
	// Cooldown is how long the breaker stays open before allowing a probe
	Cooldown time.Duration
	// Clock defaults to time.Now
	Clock func() time.Time
	// OnStateChange is called with the breaker lock released
	OnStateChange func(name string, from, to State)
}

// Breaker stops calling a failing dependency for a cooldown period. After
// the cooldown one probe call is let through; its result closes or reopens
// the breaker.
type Breaker struct {
	name     string
	settings Settings

	mu        sync.Mutex
	state     State     // Protected by mu
	failures  int       // consecutive; protected by mu
	openedAt  time.Time // Protected by mu
	probing   bool      // Protected by mu
	rejected  uint64    // Protected by mu
	succeeded uint64    // Protected by mu
	failed    uint64    // Protected by mu
}

// New creates a closed breaker
func New(name string, settings Settings) *Breaker {
	if settings.Threshold <= 0 {
		settings.Threshold = 5
	}
	if settings.Cooldown <= 0 {
		settings.Cooldown = 30 * time.Second
	}
	if settings.Clock == nil {
		settings.Clock = time.Now
	}
	return &Breaker{name: name, settings: settings}
}

// Name returns the breaker name
func (b *Breaker) Name() string { return b.name }

// State returns the current state, moving open to half-open once the
// cooldown has passed
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshLocked()
	return b.state
}

// Stats is a point-in-time view of the breaker counters
type Stats struct {
	State               string `json:"state"`
	ConsecutiveFailures int    `json:"consecutive_failures"`
	Succeeded           uint64 `json:"succeeded"`
	Failed              uint64 `json:"failed"`
	Rejected            uint64 `json:"rejected"`
}

// Stats returns the breaker counters
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshLocked()
	return Stats{
		State:               b.state.String(),
		ConsecutiveFailures: b.failures,
		Succeeded:           b.succeeded,
		Failed:              b.failed,
		Rejected:            b.rejected,
	}
}

// Do runs fn unless the breaker is open. A context cancellation is not
// counted as a dependency failure.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := b.acquire(); err != nil {
		return err
	}

	err := fn(ctx)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		b.release()
		return err
	}
	b.record(err == nil)
	return err
}

func (b *Breaker) acquire() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refreshLocked()
	switch b.state {
	case StateOpen:
		b.rejected++
		return ErrOpen
	case StateHalfOpen:
		if b.probing {
			b.rejected++
			return ErrOpen
		}
		b.probing = true
	}
	return nil
}

func (b *Breaker) release() {
	b.mu.Lock()
	b.probing = false
	b.mu.Unlock()
}

func (b *Breaker) record(ok bool) {
	b.mu.Lock()
	from := b.state
	b.probing = false

	if ok {
		b.succeeded++
		b.failures = 0
		b.state = StateClosed
	} else {
		b.failed++
		b.failures++
		if b.state == StateHalfOpen || b.failures >= b.settings.Threshold {
			b.state = StateOpen
			b.openedAt = b.settings.Clock()
		}
	}
	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
}

func (b *Breaker) refreshLocked() {
	if b.state == StateOpen && b.settings.Clock().Sub(b.openedAt) >= b.settings.Cooldown {
		b.state = StateHalfOpen
	}
}

func (b *Breaker) notify(from, to State) {
	if from != to && b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, from, to)
	}
}
