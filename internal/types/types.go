package types

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a constraint record
type Status string

const (
	StatusLocked   Status = "locked"
	StatusProposed Status = "proposed"
	StatusDeclined Status = "declined"
)

// IsValid checks if the status is a known value
func (s Status) IsValid() bool {
	switch s {
	case StatusLocked, StatusProposed, StatusDeclined:
		return true
	}
	return false
}

// Rank returns the authority rank of the status.
// Lower is more authoritative; unknown values rank last.
func (s Status) Rank() int {
	switch s {
	case StatusLocked:
		return 0
	case StatusProposed:
		return 1
	case StatusDeclined:
		return 2
	}
	return 3
}

// Necessity is the priority tier of a constraint (must > should > prefer)
type Necessity string

const (
	NecessityMust   Necessity = "must"
	NecessityShould Necessity = "should"
	NecessityPrefer Necessity = "prefer"
)

// IsValid checks if the necessity is a known value
func (n Necessity) IsValid() bool {
	switch n {
	case NecessityMust, NecessityShould, NecessityPrefer:
		return true
	}
	return false
}

// Rank returns the authority rank of the necessity.
// Lower is more authoritative; unknown values rank last.
func (n Necessity) Rank() int {
	switch n {
	case NecessityMust:
		return 0
	case NecessityShould:
		return 1
	case NecessityPrefer:
		return 2
	}
	return 3
}

// Window is a named local-time interval a constraint applies to
type Window struct {
	Kind           string `json:"kind,omitempty" yaml:"kind,omitempty"`
	StartTimeLocal string `json:"start_time_local,omitempty" yaml:"start_time_local,omitempty"`
	EndTimeLocal   string `json:"end_time_local,omitempty" yaml:"end_time_local,omitempty"`
}

// ScalarParams holds the scalar rule parameters.
// Pointer fields distinguish "unset" from zero values so merges can
// let incoming non-null values win.
type ScalarParams struct {
	DurationMin *int    `json:"duration_min,omitempty" yaml:"duration_min,omitempty"`
	DurationMax *int    `json:"duration_max,omitempty" yaml:"duration_max,omitempty"`
	Contiguity  *string `json:"contiguity,omitempty" yaml:"contiguity,omitempty"`
}

// IsZero reports whether no scalar parameter is set
func (p ScalarParams) IsZero() bool {
	return p.DurationMin == nil && p.DurationMax == nil && p.Contiguity == nil
}

// Payload holds the rule content of a constraint
type Payload struct {
	RuleKind     string       `json:"rule_kind,omitempty" yaml:"rule_kind,omitempty"`
	ScalarParams ScalarParams `json:"scalar_params,omitempty" yaml:"scalar_params,omitempty"`
	Windows      []Window     `json:"windows,omitempty" yaml:"windows,omitempty"`
}

// Applicability scopes a constraint in time
type Applicability struct {
	StartDate  string   `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate    string   `json:"end_date,omitempty" yaml:"end_date,omitempty"`
	Timezone   string   `json:"timezone,omitempty" yaml:"timezone,omitempty"`
	Recurrence string   `json:"recurrence,omitempty" yaml:"recurrence,omitempty"`
	DaysOfWeek []string `json:"days_of_week,omitempty" yaml:"days_of_week,omitempty"`
}

// Lifecycle tracks lineage and expiry of a constraint record
type Lifecycle struct {
	SupersedesUIDs []string `json:"supersedes_uids,omitempty" yaml:"supersedes_uids,omitempty"`
	TTLDays        *int     `json:"ttl_days,omitempty" yaml:"ttl_days,omitempty"`
}

// ConstraintRecord is a structured rule/preference with scope, time
// windows, and lifecycle metadata. It is produced by an external writer
// (LLM or tool) and only compared, ranked, merged, and archived here.
type ConstraintRecord struct {
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Scope       string    `json:"scope,omitempty" yaml:"scope,omitempty"`
	Source      string    `json:"source,omitempty" yaml:"source,omitempty"`
	Rationale   string    `json:"rationale,omitempty" yaml:"rationale,omitempty"`
	Status      Status    `json:"status" yaml:"status"`
	Necessity   Necessity `json:"necessity" yaml:"necessity"`
	Confidence  *float64  `json:"confidence,omitempty" yaml:"confidence,omitempty"`

	Topics            []string `json:"topics,omitempty" yaml:"topics,omitempty"`
	AppliesStages     []string `json:"applies_stages,omitempty" yaml:"applies_stages,omitempty"`
	AppliesEventTypes []string `json:"applies_event_types,omitempty" yaml:"applies_event_types,omitempty"`

	Lifecycle     Lifecycle     `json:"lifecycle,omitempty" yaml:"lifecycle,omitempty"`
	Applicability Applicability `json:"applicability,omitempty" yaml:"applicability,omitempty"`
	Payload       Payload       `json:"payload,omitempty" yaml:"payload,omitempty"`
}

// Validate checks if the record has valid field values.
// Validation happens at the backend boundary; the engine's pure
// functions tolerate anything and degrade to defaults instead.
func (r *ConstraintRecord) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if len(r.Name) > 500 {
		return fmt.Errorf("name must be 500 characters or less (got %d)", len(r.Name))
	}
	if r.Status != "" && !r.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", r.Status)
	}
	if r.Necessity != "" && !r.Necessity.IsValid() {
		return fmt.Errorf("invalid necessity: %s", r.Necessity)
	}
	if r.Confidence != nil && (*r.Confidence < 0.0 || *r.Confidence > 1.0) {
		return fmt.Errorf("confidence must be between 0.0 and 1.0 (got %.2f)", *r.Confidence)
	}
	if r.Lifecycle.TTLDays != nil && *r.Lifecycle.TTLDays < 0 {
		return fmt.Errorf("ttl_days cannot be negative (got %d)", *r.Lifecycle.TTLDays)
	}
	return nil
}

// Clone returns a deep copy of the record.
// Merge operations work on clones so callers' records are never mutated.
func (r ConstraintRecord) Clone() ConstraintRecord {
	out := r
	out.Topics = cloneStrings(r.Topics)
	out.AppliesStages = cloneStrings(r.AppliesStages)
	out.AppliesEventTypes = cloneStrings(r.AppliesEventTypes)
	out.Lifecycle.SupersedesUIDs = cloneStrings(r.Lifecycle.SupersedesUIDs)
	out.Lifecycle.TTLDays = cloneIntPtr(r.Lifecycle.TTLDays)
	out.Applicability.DaysOfWeek = cloneStrings(r.Applicability.DaysOfWeek)
	out.Confidence = cloneFloatPtr(r.Confidence)
	out.Payload.ScalarParams.DurationMin = cloneIntPtr(r.Payload.ScalarParams.DurationMin)
	out.Payload.ScalarParams.DurationMax = cloneIntPtr(r.Payload.ScalarParams.DurationMax)
	out.Payload.ScalarParams.Contiguity = cloneStringPtr(r.Payload.ScalarParams.Contiguity)
	if r.Payload.Windows != nil {
		out.Payload.Windows = make([]Window, len(r.Payload.Windows))
		copy(out.Payload.Windows, r.Payload.Windows)
	}
	return out
}

// Metadata is backend bookkeeping attached to a stored entry.
// UpdatedAt stays a string because backends may hold timestamps the
// engine cannot parse; ranking treats those as oldest rather than failing.
type Metadata struct {
	CreatedAt     string `json:"created_at,omitempty"`
	UpdatedAt     string `json:"updated_at,omitempty"`
	ArchiveReason string `json:"archive_reason,omitempty"`
}

// StoredEntry is a persisted constraint record with its uid and metadata
type StoredEntry struct {
	UID      string           `json:"uid"`
	Record   ConstraintRecord `json:"constraint_record"`
	Metadata Metadata         `json:"metadata"`
}

// Clone returns a deep copy of the entry
func (e *StoredEntry) Clone() *StoredEntry {
	out := *e
	out.Record = e.Record.Clone()
	return &out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneFloatPtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
