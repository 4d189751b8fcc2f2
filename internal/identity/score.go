package identity

import "github.com/cadencehq/constraints/internal/normalize"

// NearDuplicateThreshold is the minimum similarity score at which two
// identities with different keys are treated as near-duplicates.
const NearDuplicateThreshold = 8

// Similarity weights. Windows and rule kind dominate because two
// records with the same rule shape over the same hours are almost
// always the same constraint regardless of how they were named.
const (
	weightRuleKind      = 3
	weightScope         = 2
	weightName          = 2
	weightTopicsExact   = 3
	weightTopicsOverlap = 1
	weightStageOverlap  = 1
	weightEventOverlap  = 1
	weightDayOverlap    = 1
	weightTimezone      = 1
	weightRecurrence    = 1
	weightWindowsExact  = 4
	weightWindowsShared = 2
)

// Score computes the weighted near-duplicate score between two
// identities. Symmetric and additive: Score(a, b) == Score(b, a).
func Score(a, b Identity) int {
	score := 0

	if a.RuleKind != "" && a.RuleKind == b.RuleKind {
		score += weightRuleKind
	}
	if a.Scope != "" && a.Scope == b.Scope {
		score += weightScope
	}
	if a.Name != "" && a.Name == b.Name {
		score += weightName
	}

	switch {
	case len(a.Topics) > 0 && setsEqual(a.Topics, b.Topics):
		score += weightTopicsExact
	case overlaps(a.Topics, b.Topics):
		score += weightTopicsOverlap
	}

	if overlaps(a.AppliesStages, b.AppliesStages) {
		score += weightStageOverlap
	}
	if overlaps(a.AppliesEventTypes, b.AppliesEventTypes) {
		score += weightEventOverlap
	}
	if overlaps(a.DaysOfWeek, b.DaysOfWeek) {
		score += weightDayOverlap
	}
	if a.Timezone != "" && a.Timezone == b.Timezone {
		score += weightTimezone
	}
	if a.Recurrence != "" && a.Recurrence == b.Recurrence {
		score += weightRecurrence
	}

	aw := windowKeySet(a)
	bw := windowKeySet(b)
	switch {
	case len(aw) > 0 && len(aw) == len(bw) && containsAll(aw, bw):
		score += weightWindowsExact
	case intersects(aw, bw):
		score += weightWindowsShared
	}

	return score
}

// windowKeySet builds the comparison key set for an identity's windows,
// normalizing times so "9:00" and "09:00" compare equal.
func windowKeySet(id Identity) map[string]bool {
	if len(id.Windows) == 0 {
		return nil
	}
	set := make(map[string]bool, len(id.Windows))
	for _, w := range id.Windows {
		set[normalize.WindowKey(w)] = true
	}
	return set
}

// setsEqual compares two sorted, deduplicated string slices
func setsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func overlaps(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, v := range a {
		set[v] = true
	}
	for _, v := range b {
		if set[v] {
			return true
		}
	}
	return false
}

func containsAll(set, other map[string]bool) bool {
	for k := range other {
		if !set[k] {
			return false
		}
	}
	return true
}

func intersects(a, b map[string]bool) bool {
	for k := range b {
		if a[k] {
			return true
		}
	}
	return false
}
