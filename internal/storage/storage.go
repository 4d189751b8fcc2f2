// Package storage defines the backend contract the constraint engine
// consumes. The engine is backend-agnostic: it sees only these
// operations and never a concrete database.
//
// Update and archive are optional. Backends advertise them by
// implementing the Updater and Archiver interfaces; callers check with
// a type assertion and degrade gracefully when the assertion fails.
// No runtime reflection beyond that single assertion.
package storage

import (
	"context"

	"github.com/cadencehq/constraints/internal/storage/sqlite"
	"github.com/cadencehq/constraints/internal/types"
)

// Backend is the required storage contract
type Backend interface {
	// QueryConstraints returns entries loosely matching the filter,
	// newest first
	QueryConstraints(ctx context.Context, filter types.QueryFilter) ([]*types.StoredEntry, error)

	// GetConstraint returns the entry for uid, or (nil, nil) when absent
	GetConstraint(ctx context.Context, uid string) (*types.StoredEntry, error)

	// UpsertConstraint persists a new record and returns its uid
	UpsertConstraint(ctx context.Context, rec *types.ConstraintRecord) (string, error)

	// Close releases backend resources
	Close() error
}

// Updater is the optional in-place update operation
type Updater interface {
	// UpdateConstraint replaces the stored record for uid.
	// Returns false when uid does not exist.
	UpdateConstraint(ctx context.Context, uid string, rec *types.ConstraintRecord) (bool, error)
}

// Archiver is the optional archive operation. Archiving transitions a
// record to declined with a reason; nothing is ever hard-deleted.
type Archiver interface {
	// ArchiveConstraint marks uid declined. Returns false when uid does
	// not exist. Archiving an already-archived record is a no-op that
	// still reports true.
	ArchiveConstraint(ctx context.Context, uid, reason string) (bool, error)
}

// Config holds database configuration
type Config struct {
	// Path is the SQLite database file path.
	// Special value ":memory:" creates an in-memory database (useful for tests)
	Path string
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Path: ".constraints/constraints.db",
	}
}

// NewStorage creates the default SQLite storage backend
func NewStorage(ctx context.Context, cfg *Config) (Backend, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Path == "" {
		cfg.Path = DefaultConfig().Path
	}
	return sqlite.New(cfg.Path)
}
