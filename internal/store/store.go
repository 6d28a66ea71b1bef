package store

import (
	"context"
	"errors"
)

// Backend is a local key-value capability the Adapter can sit on.
// Implementations report failures honestly; the Adapter decides what callers see.
type Backend interface {
	// Open prepares the backend for use, creating its schema if needed.
	Open(ctx context.Context) error
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

var (
	// ErrNotFound is returned when a key is not found in the backend
	ErrNotFound = errors.New("key not found")

	// ErrUnsupported means the host has no usable storage of this kind
	ErrUnsupported = errors.New("storage not supported on this host")

	// ErrBlocked means another session holds the storage and open could not proceed
	ErrBlocked = errors.New("storage open blocked by another session")

	// ErrUpgrade wraps failures while creating or migrating the schema
	ErrUpgrade = errors.New("storage schema upgrade failed")
)

// AppName is the directory and keyring service name used by the backends
const AppName = "tasq"

// State is the resolved outcome of the one-time open
type State int

const (
	// StatePending means Open has not resolved yet
	StatePending State = iota
	// StateAvailable means the backend opened and is used for persistence
	StateAvailable
	// StateUnsupported means no backend exists on this host
	StateUnsupported
	// StateFailed means the backend exists but failed to open
	StateFailed
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateAvailable:
		return "available"
	case StateUnsupported:
		return "unsupported"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
