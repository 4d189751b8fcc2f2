// Package identity derives the canonical, order-independent semantic
// identity of a constraint record. The identity serves two roles: its
// serialized key is the equality class for exact-duplicate grouping,
// and the struct itself is the feature vector for near-duplicate
// scoring.
package identity

import (
	"encoding/json"
	"strings"

	"github.com/cadencehq/constraints/internal/normalize"
	"github.com/cadencehq/constraints/internal/types"
)

// Identity is the normalized projection of a constraint record.
// All set-valued fields are deduplicated and sorted, so permuting a
// record's lists never changes the identity.
type Identity struct {
	Name              string             `json:"name"`
	Scope             string             `json:"scope"`
	RuleKind          string             `json:"rule_kind"`
	Windows           []types.Window     `json:"windows"`
	ScalarParams      types.ScalarParams `json:"scalar_params"`
	DaysOfWeek        []string           `json:"days_of_week"`
	StartDate         string             `json:"start_date"`
	EndDate           string             `json:"end_date"`
	Timezone          string             `json:"timezone"`
	Recurrence        string             `json:"recurrence"`
	Topics            []string           `json:"topics"`
	AppliesStages     []string           `json:"applies_stages"`
	AppliesEventTypes []string           `json:"applies_event_types"`
}

// Build derives the identity of a record and its stable string key.
// Pure and deterministic: the same record always produces the same key,
// regardless of the order of its set-valued fields.
func Build(rec *types.ConstraintRecord) (string, Identity) {
	id := Identity{
		Name:              strings.ToLower(strings.TrimSpace(rec.Name)),
		Scope:             strings.ToLower(strings.TrimSpace(rec.Scope)),
		RuleKind:          strings.ToLower(strings.TrimSpace(rec.Payload.RuleKind)),
		Windows:           normalize.Windows(rec.Payload.Windows),
		ScalarParams:      rec.Payload.ScalarParams,
		DaysOfWeek:        normalize.UpperSet(rec.Applicability.DaysOfWeek),
		StartDate:         strings.TrimSpace(rec.Applicability.StartDate),
		EndDate:           strings.TrimSpace(rec.Applicability.EndDate),
		Timezone:          strings.TrimSpace(rec.Applicability.Timezone),
		Recurrence:        strings.TrimSpace(rec.Applicability.Recurrence),
		Topics:            normalize.StringSet(rec.Topics, true),
		AppliesStages:     normalize.StringSet(rec.AppliesStages, false),
		AppliesEventTypes: normalize.StringSet(rec.AppliesEventTypes, false),
	}
	return id.Key(), id
}

// Key serializes the identity to its canonical textual form.
// Struct field order is fixed and all sets are sorted, so the JSON
// encoding is stable and usable as a map key.
func (id Identity) Key() string {
	data, err := json.Marshal(id)
	if err != nil {
		// Identity contains only strings, ints, and slices thereof;
		// Marshal cannot fail on it. Guard anyway.
		return ""
	}
	return string(data)
}
