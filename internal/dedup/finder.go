package dedup

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/cadencehq/constraints/internal/identity"
	"github.com/cadencehq/constraints/internal/rank"
	"github.com/cadencehq/constraints/internal/storage"
	"github.com/cadencehq/constraints/internal/types"
)

// Finder locates the strongest existing match for a new constraint
// record, exact or near
type Finder struct {
	store  storage.Backend
	config Config
}

// NewFinder creates a finder over the given backend.
// Returns an error if the backend is nil or the config is invalid.
func NewFinder(store storage.Backend, config Config) (*Finder, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Finder{store: store, config: config}, nil
}

// FindEquivalent returns the best existing match for rec, or nil when
// the corpus holds nothing semantically equivalent.
//
// Candidates are queried loosely by name text and topics; when that
// yields nothing and a name was supplied, the text filter is dropped
// and the query broadened. Exact identity matches always win over near
// matches; among exact matches the best-ranked entry is returned, among
// near matches the highest-scoring one (rank breaks ties).
func (f *Finder) FindEquivalent(ctx context.Context, rec *types.ConstraintRecord, limit int) (*types.StoredEntry, error) {
	if rec == nil {
		return nil, fmt.Errorf("record cannot be nil")
	}
	if limit <= 0 {
		limit = f.config.MaxCandidates
	}

	key, id := identity.Build(rec)

	name := strings.TrimSpace(rec.Name)
	candidates, err := f.store.QueryConstraints(ctx, types.QueryFilter{
		Text:   name,
		Topics: rec.Topics,
		Limit:  limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}

	// Broaden: a renamed constraint will not match on text
	if len(candidates) == 0 && name != "" {
		candidates, err = f.store.QueryConstraints(ctx, types.QueryFilter{
			Topics: rec.Topics,
			Limit:  limit,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to query candidates (broadened): %w", err)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	hydrated := f.hydrate(ctx, candidates)

	var exact []*types.StoredEntry
	type scored struct {
		entry *types.StoredEntry
		score int
	}
	var near []scored

	for _, entry := range hydrated {
		candKey, candID := identity.Build(&entry.Record)
		if candKey == key {
			exact = append(exact, entry)
			continue
		}
		if s := identity.Score(id, candID); s >= identity.NearDuplicateThreshold {
			near = append(near, scored{entry: entry, score: s})
		}
	}

	if len(exact) > 0 {
		return rank.Best(exact), nil
	}

	var best *scored
	for i := range near {
		if best == nil || near[i].score > best.score {
			best = &near[i]
			continue
		}
		if near[i].score == best.score && rank.For(near[i].entry).Less(rank.For(best.entry)) {
			best = &near[i]
		}
	}
	if best != nil {
		return best.entry, nil
	}
	return nil, nil
}

// hydrate re-reads each candidate through GetConstraint so identity is
// always built from the full stored entry, not a possibly-partial query
// row. Failed or vanished candidates are skipped.
func (f *Finder) hydrate(ctx context.Context, candidates []*types.StoredEntry) []*types.StoredEntry {
	out := make([]*types.StoredEntry, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.config.HydrateConcurrency)
	var mu sync.Mutex

	for i, cand := range candidates {
		i, cand := i, cand
		g.Go(func() error {
			entry, err := f.store.GetConstraint(gctx, cand.UID)
			if err != nil {
				log.Printf("[DEDUP] Failed to hydrate candidate %s: %v (skipping)", cand.UID, err)
				return nil
			}
			mu.Lock()
			out[i] = entry
			mu.Unlock()
			return nil
		})
	}
	// Workers only record skips; Wait cannot fail
	_ = g.Wait()

	// Compact, preserving query order for determinism
	hydrated := make([]*types.StoredEntry, 0, len(out))
	for _, e := range out {
		if e != nil {
			hydrated = append(hydrated, e)
		}
	}
	return hydrated
}
