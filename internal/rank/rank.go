// Package rank defines the strict total order used to pick the
// strongest entry among semantically equal candidates.
package rank

import (
	"sort"
	"strconv"
	"time"

	"github.com/cadencehq/constraints/internal/types"
)

// Key is the ranking tuple for a stored entry:
// (status rank, necessity rank, -updated_at, uid). Lower is stronger.
// Ties on the first three components break lexicographically by uid,
// which makes the order total and sorting deterministic.
type Key struct {
	StatusRank    int
	NecessityRank int
	UpdatedEpoch  float64
	UID           string
}

// For builds the ranking key for an entry. Unknown status or necessity
// ranks last (3); a missing or unparsable updated_at timestamp ranks as
// oldest (epoch 0).
func For(e *types.StoredEntry) Key {
	return Key{
		StatusRank:    e.Record.Status.Rank(),
		NecessityRank: e.Record.Necessity.Rank(),
		UpdatedEpoch:  parseEpoch(e.Metadata.UpdatedAt),
		UID:           e.UID,
	}
}

// Less reports whether k is a stronger candidate than o
func (k Key) Less(o Key) bool {
	if k.StatusRank != o.StatusRank {
		return k.StatusRank < o.StatusRank
	}
	if k.NecessityRank != o.NecessityRank {
		return k.NecessityRank < o.NecessityRank
	}
	if k.UpdatedEpoch != o.UpdatedEpoch {
		return k.UpdatedEpoch > o.UpdatedEpoch // newer wins
	}
	return k.UID < o.UID
}

// Sort orders entries strongest-first, in place
func Sort(entries []*types.StoredEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return For(entries[i]).Less(For(entries[j]))
	})
}

// Best returns the strongest entry, or nil for an empty slice
func Best(entries []*types.StoredEntry) *types.StoredEntry {
	var best *types.StoredEntry
	var bestKey Key
	for _, e := range entries {
		k := For(e)
		if best == nil || k.Less(bestKey) {
			best = e
			bestKey = k
		}
	}
	return best
}

// timestamp layouts accepted from backend metadata, most common first
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseEpoch converts an updated_at string to epoch seconds, 0 on failure
func parseEpoch(s string) float64 {
	if s == "" {
		return 0
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return float64(t.UnixNano()) / float64(time.Second)
		}
	}
	// Some backends store raw epoch seconds
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return 0
}
