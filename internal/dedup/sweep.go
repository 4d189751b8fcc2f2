package dedup

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/cadencehq/constraints/internal/identity"
	"github.com/cadencehq/constraints/internal/rank"
	"github.com/cadencehq/constraints/internal/storage"
	"github.com/cadencehq/constraints/internal/types"
)

// Sweeper scans the corpus, groups entries by semantic identity, and
// collapses each duplicate group into one canonical record
type Sweeper struct {
	store   storage.Backend
	config  Config
	limiter *rate.Limiter
}

// NewSweeper creates a sweeper over the given backend.
// Returns an error if the backend is nil or the config is invalid.
func NewSweeper(store storage.Backend, config Config) (*Sweeper, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if config.ReadsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.ReadsPerSecond), 1)
	}
	return &Sweeper{store: store, config: config, limiter: limiter}, nil
}

// Group is one duplicate group found by a sweep
type Group struct {
	CanonicalUID  string   `json:"canonical_uid"`
	DuplicateUIDs []string `json:"duplicate_uids"`
}

// Report summarizes a dedupe sweep
type Report struct {
	Scanned            int     `json:"scanned"`
	DuplicateGroups    int     `json:"duplicate_groups"`
	DuplicatesFound    int     `json:"duplicates_found"`
	DuplicatesArchived int     `json:"duplicates_archived"`
	CanonicalUpdates   int     `json:"canonical_updates"`
	FailedArchives     int     `json:"failed_archives"`
	DryRun             bool    `json:"dry_run"`
	Groups             []Group `json:"groups"`
}

// Dedupe scans up to limit entries (all statuses), groups them by
// identity key, keeps the best-ranked member of each group as canonical,
// and archives the rest with reason "dedupe:canonical:<uid>". Archived
// uids are unioned into the canonical's lifecycle lineage.
//
// With dryRun the report is built but nothing is written. A failed
// archive or canonical update is counted and the sweep continues;
// partial progress is never rolled back.
func (s *Sweeper) Dedupe(ctx context.Context, limit int, dryRun bool) (*Report, error) {
	if limit <= 0 {
		limit = s.config.SweepLimit
	}

	entries, err := s.store.QueryConstraints(ctx, types.QueryFilter{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to scan corpus: %w", err)
	}

	hydrated := s.hydrateAll(ctx, entries)

	report := &Report{
		Scanned: len(hydrated),
		DryRun:  dryRun,
		Groups:  []Group{},
	}

	groups := make(map[string][]*types.StoredEntry)
	for _, entry := range hydrated {
		key, _ := identity.Build(&entry.Record)
		groups[key] = append(groups[key], entry)
	}

	// Deterministic group order: keyed maps iterate randomly
	keys := make([]string, 0, len(groups))
	for key, members := range groups {
		if len(members) > 1 {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	for _, key := range keys {
		members := groups[key]
		rank.Sort(members)

		canonical := members[0]
		duplicates := members[1:]

		group := Group{CanonicalUID: canonical.UID}
		for _, dup := range duplicates {
			group.DuplicateUIDs = append(group.DuplicateUIDs, dup.UID)
		}
		report.Groups = append(report.Groups, group)
		report.DuplicateGroups++
		report.DuplicatesFound += len(duplicates)

		if dryRun {
			continue
		}

		s.collapseGroup(ctx, canonical, duplicates, report)
	}

	log.Printf("[SWEEP] Scanned %d entries: %d duplicate groups, %d duplicates (%d archived, %d failed, dry_run=%t)",
		report.Scanned, report.DuplicateGroups, report.DuplicatesFound,
		report.DuplicatesArchived, report.FailedArchives, report.DryRun)

	return report, nil
}

// collapseGroup records lineage on the canonical and archives the
// duplicates. Each write failure is tallied independently so one bad
// record cannot abort the rest of the group or the sweep.
func (s *Sweeper) collapseGroup(ctx context.Context, canonical *types.StoredEntry, duplicates []*types.StoredEntry, report *Report) {
	dupUIDs := make([]string, 0, len(duplicates))
	for _, dup := range duplicates {
		dupUIDs = append(dupUIDs, dup.UID)
	}

	if updater, ok := s.store.(storage.Updater); ok {
		updated := canonical.Record.Clone()
		updated.Lifecycle.SupersedesUIDs = unionSorted(updated.Lifecycle.SupersedesUIDs, dupUIDs)

		applied, err := updater.UpdateConstraint(ctx, canonical.UID, &updated)
		if err != nil {
			log.Printf("[SWEEP] Failed to update canonical %s: %v", canonical.UID, err)
		} else if applied {
			report.CanonicalUpdates++
		}
	} else {
		log.Printf("[SWEEP] Backend does not support update; canonical %s keeps stale lineage", canonical.UID)
	}

	archiver, ok := s.store.(storage.Archiver)
	if !ok {
		log.Printf("[SWEEP] Backend does not support archive; leaving %d duplicates of %s in place",
			len(duplicates), canonical.UID)
		report.FailedArchives += len(duplicates)
		return
	}

	reason := "dedupe:canonical:" + canonical.UID
	for _, dup := range duplicates {
		archived, err := archiver.ArchiveConstraint(ctx, dup.UID, reason)
		if err != nil || !archived {
			if err != nil {
				log.Printf("[SWEEP] Failed to archive duplicate %s: %v", dup.UID, err)
			}
			report.FailedArchives++
			continue
		}
		report.DuplicatesArchived++
	}
}

// hydrateAll re-reads every scanned entry at a bounded concurrency,
// pacing reads when the sweeper is rate-limited
func (s *Sweeper) hydrateAll(ctx context.Context, entries []*types.StoredEntry) []*types.StoredEntry {
	out := make([]*types.StoredEntry, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.HydrateConcurrency)
	var mu sync.Mutex

	for i, e := range entries {
		i, e := i, e
		g.Go(func() error {
			if err := s.limiter.Wait(gctx); err != nil {
				return nil // canceled; remaining entries stay nil
			}
			entry, err := s.store.GetConstraint(gctx, e.UID)
			if err != nil {
				log.Printf("[SWEEP] Failed to hydrate %s: %v (skipping)", e.UID, err)
				return nil
			}
			mu.Lock()
			out[i] = entry
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	hydrated := make([]*types.StoredEntry, 0, len(out))
	for _, e := range out {
		if e != nil {
			hydrated = append(hydrated, e)
		}
	}
	return hydrated
}

// unionSorted merges two uid lists into a sorted set
func unionSorted(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, list := range [][]string{a, b} {
		for _, uid := range list {
			if uid == "" || seen[uid] {
				continue
			}
			seen[uid] = true
			out = append(out, uid)
		}
	}
	sort.Strings(out)
	return out
}
