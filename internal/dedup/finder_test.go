package dedup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencehq/constraints/internal/storage/memory"
	"github.com/cadencehq/constraints/internal/types"
)

func focusRecord() *types.ConstraintRecord {
	return &types.ConstraintRecord{
		Name:        "Protect morning focus",
		Description: "No meetings before 10am",
		Scope:       "user",
		Status:      types.StatusProposed,
		Necessity:   types.NecessityShould,
		Topics:      []string{"calendar", "focus"},
		Payload: types.Payload{
			RuleKind: "time_window",
			Windows: []types.Window{
				{Kind: "blocked", StartTimeLocal: "07:00", EndTimeLocal: "10:00"},
			},
		},
	}
}

func newTestFinder(t *testing.T) (*Finder, *memory.MemoryStorage) {
	t.Helper()
	store := memory.New()
	finder, err := NewFinder(store, DefaultConfig())
	require.NoError(t, err)
	return finder, store
}

func TestNewFinderValidation(t *testing.T) {
	_, err := NewFinder(nil, DefaultConfig())
	assert.Error(t, err)

	bad := DefaultConfig()
	bad.MaxCandidates = 0
	_, err = NewFinder(memory.New(), bad)
	assert.Error(t, err)
}

func TestFindEquivalentNilRecord(t *testing.T) {
	finder, _ := newTestFinder(t)
	_, err := finder.FindEquivalent(context.Background(), nil, 0)
	assert.Error(t, err)
}

func TestFindEquivalentEmptyCorpus(t *testing.T) {
	finder, _ := newTestFinder(t)
	match, err := finder.FindEquivalent(context.Background(), focusRecord(), 0)
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestFindEquivalentExactMatch(t *testing.T) {
	finder, store := newTestFinder(t)
	ctx := context.Background()

	uid, err := store.UpsertConstraint(ctx, focusRecord())
	require.NoError(t, err)

	// Same semantics, reordered topics, different free text
	probe := focusRecord()
	probe.Topics = []string{"Focus", "calendar"}
	probe.Description = "Keep mornings meeting free"
	probe.Rationale = "deep work"

	match, err := finder.FindEquivalent(ctx, probe, 0)
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, uid, match.UID)
}

func TestFindEquivalentExactBeatsNear(t *testing.T) {
	finder, store := newTestFinder(t)
	ctx := context.Background()

	near := focusRecord()
	near.Name = "Morning focus guard"
	near.Status = types.StatusLocked
	_, err := store.UpsertConstraint(ctx, near)
	require.NoError(t, err)

	exactUID, err := store.UpsertConstraint(ctx, focusRecord())
	require.NoError(t, err)

	match, err := finder.FindEquivalent(ctx, focusRecord(), 0)
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, exactUID, match.UID, "an exact identity match wins even over a stronger-ranked near match")
}

func TestFindEquivalentNearMatch(t *testing.T) {
	finder, store := newTestFinder(t)
	ctx := context.Background()

	stored := focusRecord()
	stored.Payload.Windows = []types.Window{
		{Kind: "blocked", StartTimeLocal: "0:00", EndTimeLocal: "10:00"},
	}
	uid, err := store.UpsertConstraint(ctx, stored)
	require.NoError(t, err)

	// Different name and window spelling: not identical, but close
	probe := focusRecord()
	probe.Name = "Block early meetings"
	probe.Topics = nil
	probe.Payload.Windows = []types.Window{
		{Kind: "blocked", StartTimeLocal: "00:00", EndTimeLocal: "10:00"},
	}

	match, err := finder.FindEquivalent(ctx, probe, 0)
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, uid, match.UID)
}

func TestFindEquivalentBelowThreshold(t *testing.T) {
	finder, store := newTestFinder(t)
	ctx := context.Background()

	other := focusRecord()
	other.Name = "Lunch must be an hour"
	other.Scope = "team"
	other.Topics = []string{"calendar"}
	other.Payload = types.Payload{RuleKind: "duration"}
	_, err := store.UpsertConstraint(ctx, other)
	require.NoError(t, err)

	probe := focusRecord()
	match, err := finder.FindEquivalent(ctx, probe, 0)
	require.NoError(t, err)
	assert.Nil(t, match, "a weak overlap should not count as equivalent")
}

func TestFindEquivalentBroadensWhenTextMisses(t *testing.T) {
	finder, store := newTestFinder(t)
	ctx := context.Background()

	stored := focusRecord()
	stored.Name = "Guard mornings"
	uid, err := store.UpsertConstraint(ctx, stored)
	require.NoError(t, err)

	// Text query on the probe's name finds nothing; the topic-only
	// retry still has to surface the renamed record.
	probe := focusRecord()
	match, err := finder.FindEquivalent(ctx, probe, 0)
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, uid, match.UID)
}

func TestFindEquivalentPrefersStrongerRank(t *testing.T) {
	finder, store := newTestFinder(t)
	ctx := context.Background()

	weak := focusRecord()
	weak.Necessity = types.NecessityPrefer
	_, err := store.UpsertConstraint(ctx, weak)
	require.NoError(t, err)

	strong := focusRecord()
	strong.Status = types.StatusLocked
	strong.Necessity = types.NecessityMust
	strongUID, err := store.UpsertConstraint(ctx, strong)
	require.NoError(t, err)

	probe := focusRecord()
	probe.Necessity = types.NecessityMust
	match, err := finder.FindEquivalent(ctx, probe, 0)
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, strongUID, match.UID)
}
