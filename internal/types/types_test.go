package types

import (
	"strings"
	"testing"
)

func TestStatusRank(t *testing.T) {
	tests := []struct {
		status Status
		want   int
	}{
		{StatusLocked, 0},
		{StatusProposed, 1},
		{StatusDeclined, 2},
		{Status("frozen"), 3},
		{Status(""), 3},
	}
	for _, tt := range tests {
		if got := tt.status.Rank(); got != tt.want {
			t.Errorf("Status(%q).Rank() = %d, want %d", tt.status, got, tt.want)
		}
	}
}

func TestNecessityRank(t *testing.T) {
	tests := []struct {
		necessity Necessity
		want      int
	}{
		{NecessityMust, 0},
		{NecessityShould, 1},
		{NecessityPrefer, 2},
		{Necessity("hopefully"), 3},
		{Necessity(""), 3},
	}
	for _, tt := range tests {
		if got := tt.necessity.Rank(); got != tt.want {
			t.Errorf("Necessity(%q).Rank() = %d, want %d", tt.necessity, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	conf := func(v float64) *float64 { return &v }
	ttl := func(v int) *int { return &v }

	tests := []struct {
		name    string
		rec     ConstraintRecord
		wantErr string
	}{
		{"valid minimal", ConstraintRecord{Name: "n"}, ""},
		{"valid full", ConstraintRecord{
			Name: "n", Status: StatusLocked, Necessity: NecessityMust,
			Confidence: conf(0.5), Lifecycle: Lifecycle{TTLDays: ttl(30)},
		}, ""},
		{"missing name", ConstraintRecord{}, "name is required"},
		{"blank name", ConstraintRecord{Name: "   "}, "name is required"},
		{"name too long", ConstraintRecord{Name: strings.Repeat("x", 501)}, "500 characters"},
		{"bad status", ConstraintRecord{Name: "n", Status: "frozen"}, "invalid status"},
		{"bad necessity", ConstraintRecord{Name: "n", Necessity: "hopefully"}, "invalid necessity"},
		{"confidence too low", ConstraintRecord{Name: "n", Confidence: conf(-0.1)}, "confidence"},
		{"confidence too high", ConstraintRecord{Name: "n", Confidence: conf(1.1)}, "confidence"},
		{"negative ttl", ConstraintRecord{Name: "n", Lifecycle: Lifecycle{TTLDays: ttl(-1)}}, "ttl_days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	conf := 0.5
	ttl := 30
	contig := "contiguous"
	rec := ConstraintRecord{
		Name:       "n",
		Confidence: &conf,
		Topics:     []string{"a", "b"},
		Lifecycle:  Lifecycle{SupersedesUIDs: []string{"c-1"}, TTLDays: &ttl},
		Applicability: Applicability{
			DaysOfWeek: []string{"MO"},
		},
		Payload: Payload{
			ScalarParams: ScalarParams{Contiguity: &contig},
			Windows:      []Window{{Kind: "blocked", StartTimeLocal: "07:00", EndTimeLocal: "10:00"}},
		},
	}

	clone := rec.Clone()
	clone.Topics[0] = "mutated"
	clone.Lifecycle.SupersedesUIDs[0] = "mutated"
	clone.Applicability.DaysOfWeek[0] = "mutated"
	clone.Payload.Windows[0].Kind = "mutated"
	*clone.Confidence = 0.9
	*clone.Lifecycle.TTLDays = 99
	*clone.Payload.ScalarParams.Contiguity = "mutated"

	if rec.Topics[0] != "a" || rec.Lifecycle.SupersedesUIDs[0] != "c-1" {
		t.Error("Clone() shares string slices with the original")
	}
	if rec.Applicability.DaysOfWeek[0] != "MO" {
		t.Error("Clone() shares days of week with the original")
	}
	if rec.Payload.Windows[0].Kind != "blocked" {
		t.Error("Clone() shares windows with the original")
	}
	if *rec.Confidence != 0.5 || *rec.Lifecycle.TTLDays != 30 || *rec.Payload.ScalarParams.Contiguity != "contiguous" {
		t.Error("Clone() shares pointer fields with the original")
	}
}

func TestScalarParamsIsZero(t *testing.T) {
	v := 1
	if !(ScalarParams{}).IsZero() {
		t.Error("empty params should be zero")
	}
	if (ScalarParams{DurationMin: &v}).IsZero() {
		t.Error("params with a value should not be zero")
	}
}
