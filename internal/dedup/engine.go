package dedup

import (
	"fmt"

	"github.com/cadencehq/constraints/internal/storage"
)

// Engine bundles the equivalence finder, the dedupe sweeper, and the
// lifecycle ops behind one constructor for callers that want the whole
// surface
type Engine struct {
	*Finder
	*Sweeper
	*Lifecycle
}

// New creates an engine over the given backend.
// Returns an error if the backend is nil or the config is invalid.
func New(store storage.Backend, config Config) (*Engine, error) {
	finder, err := NewFinder(store, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create finder: %w", err)
	}
	sweeper, err := NewSweeper(store, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sweeper: %w", err)
	}
	lifecycle, err := NewLifecycle(store)
	if err != nil {
		return nil, fmt.Errorf("failed to create lifecycle ops: %w", err)
	}
	return &Engine{Finder: finder, Sweeper: sweeper, Lifecycle: lifecycle}, nil
}
