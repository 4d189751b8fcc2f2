package merge

import (
	"reflect"

	"github.com/wI2L/jsondiff"

	"github.com/cadencehq/constraints/internal/types"
)

// PatchOp is a single RFC 6902 patch operation
type PatchOp struct {
	Op    string `json:"op"`
	From  string `json:"from,omitempty"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// patchEnvelope wraps a record so patch paths start at /constraint_record,
// matching the shape of the stored entry the patch is audited against.
type patchEnvelope struct {
	ConstraintRecord types.ConstraintRecord `json:"constraint_record"`
}

// compare is swappable so tests can exercise the fallback path
var compare = jsondiff.Compare

// DiffOps computes the RFC 6902 patch that turns current into merged.
// Returns an empty slice when the records are structurally equal, and
// never fails: if patch generation errors, the result degrades to a
// single whole-record replace so the audit trail is coarse but usable.
func DiffOps(current, merged types.ConstraintRecord) []PatchOp {
	if reflect.DeepEqual(current, merged) {
		return []PatchOp{}
	}

	patch, err := compare(patchEnvelope{current}, patchEnvelope{merged})
	if err != nil {
		return []PatchOp{{
			Op:    "replace",
			Path:  "/constraint_record",
			Value: merged,
		}}
	}

	ops := make([]PatchOp, 0, len(patch))
	for _, op := range patch {
		ops = append(ops, PatchOp{
			Op:    op.Type,
			From:  op.From,
			Path:  op.Path,
			Value: op.Value,
		})
	}
	return ops
}
