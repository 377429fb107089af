package types

import "errors"

// Sentinel errors shared by storage and the services above it
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)
