package activity

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/DigitalTwin/internal/infrastructure/logging"
	"github.com/GriffinCanCode/DigitalTwin/internal/shared/id"
	"github.com/GriffinCanCode/DigitalTwin/internal/shared/types"
)

const (
	// DefaultCapacity is the number of records kept per session
	DefaultCapacity = 100
	// DefaultActor is the name stamped on every record
	DefaultActor = "Alex Carter"
)

// Sink receives every record after it is stored
type Sink interface {
	Deliver(rec types.ActivityRecord) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(rec types.ActivityRecord) error

// Deliver calls f(rec)
func (f SinkFunc) Deliver(rec types.ActivityRecord) error {
	return f(rec)
}

// Config controls a Logger
type Config struct {
	Capacity int
	Actor    string
	// Clock defaults to time.Now
	Clock func() time.Time
	// SessionID defaults to id.NewActivitySessionID
	SessionID func() string
}

// DefaultConfig returns the standard logger configuration
func DefaultConfig() Config {
	return Config{
		Capacity:  DefaultCapacity,
		Actor:     DefaultActor,
		Clock:     time.Now,
		SessionID: id.NewActivitySessionID,
	}
}

// Logger is a bounded, append-only activity log
type Logger struct {
	mu    sync.Mutex
	ring  []types.ActivityRecord // Protected by mu
	head  int                    // index of the oldest record; protected by mu
	size  int                    // Protected by mu
	sinks []Sink                 // Protected by mu

	actor     string
	clock     func() time.Time
	sessionID func() string
	log       *logging.Logger
}

// NewLogger creates an empty logger. Zero-valued config fields fall back to
// DefaultConfig.
func NewLogger(cfg Config, log *logging.Logger, sinks ...Sink) *Logger {
	def := DefaultConfig()
	if cfg.Capacity <= 0 {
		cfg.Capacity = def.Capacity
	}
	if cfg.Actor == "" {
		cfg.Actor = def.Actor
	}
	if cfg.Clock == nil {
		cfg.Clock = def.Clock
	}
	if cfg.SessionID == nil {
		cfg.SessionID = def.SessionID
	}
	if log == nil {
		log = logging.NewNop()
	}

	return &Logger{
		ring:      make([]types.ActivityRecord, cfg.Capacity),
		sinks:     append([]Sink(nil), sinks...),
		actor:     cfg.Actor,
		clock:     cfg.Clock,
		sessionID: cfg.SessionID,
		log:       log,
	}
}

// AddSink registers a sink for subsequent records
func (l *Logger) AddSink(s Sink) {
	if s == nil {
		return
	}
	l.mu.Lock()
	l.sinks = append(l.sinks, s)
	l.mu.Unlock()
}

// Record appends a new entry and forwards it to the sinks. The details map
// is copied; later changes by the caller do not affect the stored record.
func (l *Logger) Record(action string, details map[string]interface{}) types.ActivityRecord {
	rec := types.ActivityRecord{
		Timestamp: l.clock(),
		Action:    action,
		Details:   types.CloneDetails(details),
		Actor:     l.actor,
		SessionID: l.sessionID(),
	}

	l.mu.Lock()
	capacity := len(l.ring)
	if l.size < capacity {
		l.ring[(l.head+l.size)%capacity] = rec
		l.size++
	} else {
		l.ring[l.head] = rec
		l.head = (l.head + 1) % capacity
	}
	sinks := l.sinks
	l.mu.Unlock()

	// Sinks run outside the lock so they may read the log
	for _, s := range sinks {
		l.deliver(s, rec.Clone())
	}

	return rec.Clone()
}

func (l *Logger) deliver(s Sink, rec types.ActivityRecord) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("Activity sink panicked",
				zap.String("action", rec.Action),
				zap.String("panic", fmt.Sprint(r)))
		}
	}()

	if err := s.Deliver(rec); err != nil {
		l.log.Warn("Activity sink failed",
			zap.String("action", rec.Action),
			zap.Error(err))
	}
}

// Records returns a copy of the log, oldest first
func (l *Logger) Records() []types.ActivityRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]types.ActivityRecord, l.size)
	for i := 0; i < l.size; i++ {
		out[i] = l.ring[(l.head+i)%len(l.ring)].Clone()
	}
	return out
}

// Last returns up to n of the newest records, oldest first
func (l *Logger) Last(n int) []types.ActivityRecord {
	all := l.Records()
	if n <= 0 || n >= len(all) {
		return all
	}
	return all[len(all)-n:]
}

// Len returns the number of stored records
func (l *Logger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size
}

// Capacity returns the maximum number of stored records
func (l *Logger) Capacity() int {
	return len(l.ring)
}

// Actor returns the name stamped on records
func (l *Logger) Actor() string {
	return l.actor
}
