// Package merge combines two semantically-equivalent constraint records
// into one, field by field, and produces an auditable patch describing
// the change. All functions are pure and total.
package merge

import (
	"sort"
	"strings"

	"github.com/cadencehq/constraints/internal/normalize"
	"github.com/cadencehq/constraints/internal/types"
)

// Records merges incoming into current and returns the combined record.
// Deterministic and asymmetric: incoming may override current, but only
// where it carries real information. Neither argument is mutated.
//
// Field rules:
//   - text fields: incoming wins iff non-empty
//   - status/necessity: the more authoritative value wins; on equal
//     authority incoming wins
//   - confidence: max over present values
//   - set fields (topics, stages, event types, days, lineage): union
//   - scalar params: shallow merge, incoming non-null wins
//   - windows: union of normalized tuples if incoming supplied any
func Records(current, incoming types.ConstraintRecord) types.ConstraintRecord {
	out := current.Clone()

	mergeText(&out.Name, incoming.Name)
	mergeText(&out.Description, incoming.Description)
	mergeText(&out.Scope, incoming.Scope)
	mergeText(&out.Source, incoming.Source)
	mergeText(&out.Rationale, incoming.Rationale)

	if incoming.Status.Rank() <= current.Status.Rank() {
		out.Status = incoming.Status
	}
	if incoming.Necessity.Rank() <= current.Necessity.Rank() {
		out.Necessity = incoming.Necessity
	}

	if incoming.Confidence != nil {
		if out.Confidence == nil || *incoming.Confidence > *out.Confidence {
			v := *incoming.Confidence
			out.Confidence = &v
		}
	}

	out.Topics = unionSorted(current.Topics, incoming.Topics)
	out.AppliesStages = unionSorted(current.AppliesStages, incoming.AppliesStages)
	out.AppliesEventTypes = unionSorted(current.AppliesEventTypes, incoming.AppliesEventTypes)

	out.Lifecycle.SupersedesUIDs = unionSorted(current.Lifecycle.SupersedesUIDs, incoming.Lifecycle.SupersedesUIDs)
	if incoming.Lifecycle.TTLDays != nil {
		v := *incoming.Lifecycle.TTLDays
		out.Lifecycle.TTLDays = &v
	}

	mergeText(&out.Applicability.StartDate, incoming.Applicability.StartDate)
	mergeText(&out.Applicability.EndDate, incoming.Applicability.EndDate)
	mergeText(&out.Applicability.Timezone, incoming.Applicability.Timezone)
	mergeText(&out.Applicability.Recurrence, incoming.Applicability.Recurrence)
	out.Applicability.DaysOfWeek = unionSorted(current.Applicability.DaysOfWeek, incoming.Applicability.DaysOfWeek)

	mergeText(&out.Payload.RuleKind, incoming.Payload.RuleKind)
	out.Payload.ScalarParams = mergeScalarParams(current.Payload.ScalarParams, incoming.Payload.ScalarParams)
	if len(incoming.Payload.Windows) > 0 {
		out.Payload.Windows = unionWindows(current.Payload.Windows, incoming.Payload.Windows)
	}

	return out
}

// mergeText overwrites dst when incoming is non-empty after trimming
func mergeText(dst *string, incoming string) {
	if strings.TrimSpace(incoming) != "" {
		*dst = incoming
	}
}

// unionSorted returns the sorted set union of two string lists.
// nil in, nil out when both sides are empty.
func unionSorted(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, list := range [][]string{a, b} {
		for _, v := range list {
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func mergeScalarParams(current, incoming types.ScalarParams) types.ScalarParams {
	out := current
	if incoming.DurationMin != nil {
		v := *incoming.DurationMin
		out.DurationMin = &v
	}
	if incoming.DurationMax != nil {
		v := *incoming.DurationMax
		out.DurationMax = &v
	}
	if incoming.Contiguity != nil {
		v := *incoming.Contiguity
		out.Contiguity = &v
	}
	return out
}

// unionWindows unions two window lists on their normalized tuples.
// The union is keyed on WindowKey so "7:00" and "07:00" collapse; the
// first occurrence wins, so current's stored form survives when both
// sides carry the same window.
func unionWindows(current, incoming []types.Window) []types.Window {
	normCurrent := normalize.Windows(current)
	normIncoming := normalize.Windows(incoming)

	seen := make(map[string]bool, len(normCurrent)+len(normIncoming))
	var out []types.Window
	for _, list := range [][]types.Window{normCurrent, normIncoming} {
		for _, w := range list {
			key := normalize.WindowKey(w)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, w)
		}
	}
	return normalize.Windows(out)
}
