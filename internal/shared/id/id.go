// Package id provides centralized ID generation for the backend.
//
// Activity labels use ULIDs: a millisecond timestamp followed by random
// entropy, so labels sort by creation time and rarely collide. They are
// diagnostic labels, not security tokens. Account rows use UUIDv4 and
// bearer tokens use 32 random bytes.
package id

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const (
	// ActivitySessionPrefix labels per-record session identifiers
	ActivitySessionPrefix = "session"
	// DesktopPrefix labels desktop controller instances
	DesktopPrefix = "desk"
	// RequestPrefix labels HTTP requests
	RequestPrefix = "req"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
	now       func() time.Time
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the shared generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator
func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// NewGeneratorWithEntropy creates a generator with custom entropy source.
// Useful for testing with deterministic entropy.
func NewGeneratorWithEntropy(entropy io.Reader, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{
		entropy: entropy,
		now:     now,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewActivitySessionID generates the label attached to one activity record
func NewActivitySessionID() string {
	return Default().GenerateWithPrefix(ActivitySessionPrefix)
}

// NewDesktopID generates an identifier for a desktop controller
func NewDesktopID() string {
	return Default().GenerateWithPrefix(DesktopPrefix)
}

// NewRequestID generates a request correlation identifier
func NewRequestID() string {
	return Default().GenerateWithPrefix(RequestPrefix)
}

// NewUserID generates an account identifier
func NewUserID() string {
	return uuid.New().String()
}

// NewToken generates an opaque bearer token
func NewToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read token entropy: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Timestamp extracts the timestamp from a ULID
func Timestamp(id string) (time.Time, error) {
	parsed, err := ulid.Parse(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
