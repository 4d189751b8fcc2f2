package merge

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wI2L/jsondiff"

	"github.com/cadencehq/constraints/internal/types"
)

func TestDiffOpsEqualRecords(t *testing.T) {
	rec := baseRecord()
	ops := DiffOps(rec, rec.Clone())
	assert.Empty(t, ops)
	assert.NotNil(t, ops, "equal records produce an empty slice, not nil")
}

func TestDiffOpsPathsRootedAtRecord(t *testing.T) {
	current := baseRecord()
	merged := Records(current, func() types.ConstraintRecord {
		r := baseRecord()
		r.Description = "Block meetings before ten"
		r.Topics = []string{"wellness"}
		return r
	}())

	ops := DiffOps(current, merged)
	require.NotEmpty(t, ops)
	for _, op := range ops {
		assert.True(t, strings.HasPrefix(op.Path, "/constraint_record/"),
			"path %q should be rooted under /constraint_record", op.Path)
	}
}

func TestDiffOpsDescriptionReplace(t *testing.T) {
	current := baseRecord()
	merged := current.Clone()
	merged.Description = "changed"

	ops := DiffOps(current, merged)
	require.Len(t, ops, 1)
	assert.Equal(t, "replace", ops[0].Op)
	assert.Equal(t, "/constraint_record/description", ops[0].Path)
	assert.Equal(t, "changed", ops[0].Value)
}

func TestDiffOpsFallbackOnCompareError(t *testing.T) {
	saved := compare
	compare = func(src, tgt interface{}, opts ...jsondiff.Option) (jsondiff.Patch, error) {
		return nil, fmt.Errorf("boom")
	}
	defer func() { compare = saved }()

	current := baseRecord()
	merged := current.Clone()
	merged.Description = "changed"

	ops := DiffOps(current, merged)
	require.Len(t, ops, 1)
	assert.Equal(t, "replace", ops[0].Op)
	assert.Equal(t, "/constraint_record", ops[0].Path)
	assert.Equal(t, merged, ops[0].Value)
}
