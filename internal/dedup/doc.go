// Package dedup is the constraint deduplication and merge engine: it
// decides whether a newly produced constraint record is semantically
// the same as one already stored, periodically sweeps the corpus to
// collapse duplicates into one canonical record, and coordinates the
// supersede/archive lifecycle, all against an abstract storage backend.
//
// The engine consumes only the storage.Backend contract (plus the
// optional Updater and Archiver interfaces) and is otherwise isolated:
// it never generates content, only compares, ranks, merges, and
// archives. Pure helpers live in the identity, rank, and merge
// packages; this package owns everything that touches the backend.
//
// # Equivalence
//
// Finder.FindEquivalent queries the backend for plausible candidates
// (loose name/topic filter, broadened when the first pass is empty),
// hydrates each candidate, and partitions them by semantic identity:
// exact matches share the identity key, near matches score at or above
// identity.NearDuplicateThreshold. Exact matches win over near matches;
// ties break on the rank package's total order.
//
// # Sweep
//
// Sweeper.Dedupe groups the whole corpus by identity key, keeps the
// best-ranked member of each duplicate group as canonical, archives the
// rest with reason "dedupe:canonical:<uid>", and records the archived
// uids in the canonical's lifecycle lineage. A failed archive is
// counted and skipped, never fatal. Partial progress is not rolled
// back on cancellation; the sweep is idempotent at the record level
// and safe to re-run.
//
// The sweep takes no cross-process lock. Run it from a single scheduled
// worker: concurrent sweeps may pick different canonicals for the same
// group.
//
// Example usage:
//
//	engine, err := dedup.New(store, dedup.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//
//	match, err := engine.FindEquivalent(ctx, rec, 0)
//	if err != nil {
//	    return err
//	}
//	if match != nil {
//	    merged := merge.Records(match.Record, *rec)
//	    ops := merge.DiffOps(match.Record, merged)
//	    // audit ops, then persist merged via engine.Update
//	}
//
//	report, err := engine.Dedupe(ctx, 0, false)
package dedup
