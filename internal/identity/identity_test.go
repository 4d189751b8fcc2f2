package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencehq/constraints/internal/types"
)

func sampleRecord() *types.ConstraintRecord {
	return &types.ConstraintRecord{
		Name:              "No meetings before ten",
		Scope:             "Work",
		Status:            types.StatusProposed,
		Necessity:         types.NecessityShould,
		Topics:            []string{"calendar", "focus"},
		AppliesStages:     []string{"planning"},
		AppliesEventTypes: []string{"meeting"},
		Applicability: types.Applicability{
			Timezone:   "America/Los_Angeles",
			Recurrence: "weekly",
			DaysOfWeek: []string{"MON", "TUE", "WED"},
		},
		Payload: types.Payload{
			RuleKind: "time_window",
			Windows: []types.Window{
				{Kind: "blocked", StartTimeLocal: "00:00", EndTimeLocal: "10:00"},
			},
		},
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	rec := sampleRecord()

	key1, id1 := Build(rec)
	key2, id2 := Build(rec)

	require.NotEmpty(t, key1)
	assert.Equal(t, key1, key2)
	assert.Equal(t, id1, id2)
}

func TestBuildOrderInvariance(t *testing.T) {
	a := sampleRecord()
	b := sampleRecord()

	// Permute every set-valued field
	b.Topics = []string{"focus", "calendar"}
	b.AppliesStages = []string{"planning"}
	b.Applicability.DaysOfWeek = []string{"WED", "MON", "TUE"}

	keyA, _ := Build(a)
	keyB, _ := Build(b)
	assert.Equal(t, keyA, keyB, "permuting set-valued fields changed the identity")
}

func TestBuildNormalizesCase(t *testing.T) {
	a := sampleRecord()
	b := sampleRecord()
	b.Name = "NO MEETINGS BEFORE TEN "
	b.Scope = " work"
	b.Topics = []string{"Calendar", "FOCUS"}
	b.Applicability.DaysOfWeek = []string{"mon", "tue", "wed"}
	b.Payload.RuleKind = "TIME_WINDOW"

	keyA, _ := Build(a)
	keyB, _ := Build(b)
	assert.Equal(t, keyA, keyB)
}

func TestBuildDistinguishesDifferentRecords(t *testing.T) {
	a := sampleRecord()
	b := sampleRecord()
	b.Payload.Windows[0].EndTimeLocal = "11:00"

	keyA, _ := Build(a)
	keyB, _ := Build(b)
	assert.NotEqual(t, keyA, keyB)
}

func TestBuildDropsEmptySetMembers(t *testing.T) {
	a := sampleRecord()
	b := sampleRecord()
	b.Topics = append(b.Topics, "", "  ")

	keyA, _ := Build(a)
	keyB, _ := Build(b)
	assert.Equal(t, keyA, keyB)
}

func TestScoreSymmetry(t *testing.T) {
	_, a := Build(sampleRecord())

	other := sampleRecord()
	other.Name = "Different name entirely"
	other.Topics = []string{"calendar"}
	_, b := Build(other)

	assert.Equal(t, Score(a, b), Score(b, a))
}

func TestScoreNearDuplicate(t *testing.T) {
	// Same rule_kind, scope, and windows but a different name:
	// 3 (rule kind) + 2 (scope) + 4 (windows) = 9 >= threshold.
	left := &types.ConstraintRecord{
		Name:  "no early meetings",
		Scope: "work",
		Payload: types.Payload{
			RuleKind: "time_window",
			Windows: []types.Window{
				{Kind: "blocked", StartTimeLocal: "00:00", EndTimeLocal: "10:00"},
			},
		},
	}
	right := &types.ConstraintRecord{
		Name:  "protect the mornings",
		Scope: "work",
		Payload: types.Payload{
			RuleKind: "time_window",
			Windows: []types.Window{
				{Kind: "blocked", StartTimeLocal: "0:00", EndTimeLocal: "10:00"},
			},
		},
	}

	_, a := Build(left)
	_, b := Build(right)

	got := Score(a, b)
	assert.Equal(t, 9, got)
	assert.GreaterOrEqual(t, got, NearDuplicateThreshold)
}

func TestScoreEmptyFieldsDoNotMatch(t *testing.T) {
	// Two empty identities share nothing; empty strings and empty sets
	// must not count as matches.
	_, a := Build(&types.ConstraintRecord{Name: "a"})
	_, b := Build(&types.ConstraintRecord{Name: "b"})

	assert.Equal(t, 0, Score(a, b))
}

func TestScoreTopicWeights(t *testing.T) {
	base := sampleRecord()
	_, a := Build(base)

	exact := sampleRecord()
	exact.Name = "different"
	exact.Scope = ""
	exact.Payload = types.Payload{}
	exact.AppliesStages = nil
	exact.AppliesEventTypes = nil
	exact.Applicability = types.Applicability{}
	_, b := Build(exact)

	// Only topics (exact set) should match: +3
	assert.Equal(t, 3, Score(a, b))

	partialRec := sampleRecord()
	partialRec.Name = "different"
	partialRec.Scope = ""
	partialRec.Payload = types.Payload{}
	partialRec.AppliesStages = nil
	partialRec.AppliesEventTypes = nil
	partialRec.Applicability = types.Applicability{}
	partialRec.Topics = []string{"calendar", "unrelated"}
	_, partial := Build(partialRec)

	// Overlapping but not equal topic sets: +1
	assert.Equal(t, 1, Score(a, partial))
}

func TestScorePartialWindowOverlap(t *testing.T) {
	left := &types.ConstraintRecord{
		Payload: types.Payload{Windows: []types.Window{
			{Kind: "blocked", StartTimeLocal: "00:00", EndTimeLocal: "10:00"},
			{Kind: "blocked", StartTimeLocal: "18:00", EndTimeLocal: "20:00"},
		}},
	}
	right := &types.ConstraintRecord{
		Payload: types.Payload{Windows: []types.Window{
			{Kind: "blocked", StartTimeLocal: "00:00", EndTimeLocal: "10:00"},
		}},
	}

	_, a := Build(left)
	_, b := Build(right)

	// Shared window but different sets: +2, not +4
	assert.Equal(t, 2, Score(a, b))
}
