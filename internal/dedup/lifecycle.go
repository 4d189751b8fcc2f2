package dedup

import (
	"context"
	"fmt"
	"log"

	"github.com/cadencehq/constraints/internal/storage"
	"github.com/cadencehq/constraints/internal/types"
)

// Structured reasons for degraded lifecycle results. Failure is
// communicated through these values, never through panics or errors
// for expected conditions.
const (
	ReasonNotFound           = "not_found"
	ReasonUnsupportedBackend = "unsupported_backend"
)

// UpdateResult reports the outcome of an update or archive operation
type UpdateResult struct {
	Updated bool   `json:"updated"`
	Reason  string `json:"reason,omitempty"`
}

// SupersedeResult reports the outcome of a supersede operation
type SupersedeResult struct {
	UID           string `json:"uid,omitempty"`
	Updated       bool   `json:"updated"`
	Reason        string `json:"reason,omitempty"`
	SupersededUID string `json:"superseded_uid,omitempty"`
	NewUID        string `json:"new_uid,omitempty"`
}

// Lifecycle composes the supersede/archive/update wrappers over the
// backend. Optional backend operations degrade to structured results
// rather than failing.
type Lifecycle struct {
	store storage.Backend
}

// NewLifecycle creates lifecycle ops over the given backend
func NewLifecycle(store storage.Backend) (*Lifecycle, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	return &Lifecycle{store: store}, nil
}

// Supersede replaces the record at uid with newRec, recording lineage:
// uid joins newRec's supersedes set, the new record is persisted, and
// the old record is archived with reason "superseded". When uid does
// not exist the result is {updated:false, reason:"not_found"} and
// nothing is written.
func (l *Lifecycle) Supersede(ctx context.Context, uid string, newRec *types.ConstraintRecord) (*SupersedeResult, error) {
	if newRec == nil {
		return nil, fmt.Errorf("new record cannot be nil")
	}

	current, err := l.store.GetConstraint(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", uid, err)
	}
	if current == nil {
		return &SupersedeResult{Updated: false, Reason: ReasonNotFound}, nil
	}

	rec := newRec.Clone()
	rec.Lifecycle.SupersedesUIDs = unionSorted(rec.Lifecycle.SupersedesUIDs, []string{uid})

	newUID, err := l.store.UpsertConstraint(ctx, &rec)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert replacement for %s: %w", uid, err)
	}

	archived := false
	if archiver, ok := l.store.(storage.Archiver); ok {
		archived, err = archiver.ArchiveConstraint(ctx, uid, "superseded")
		if err != nil {
			// The replacement exists; report the partial outcome
			log.Printf("[LIFECYCLE] Superseded %s with %s but archive failed: %v", uid, newUID, err)
			archived = false
		}
	} else {
		log.Printf("[LIFECYCLE] Backend does not support archive; %s stays active after supersede", uid)
	}

	return &SupersedeResult{
		UID:           newUID,
		Updated:       newUID != "" && archived,
		SupersededUID: uid,
		NewUID:        newUID,
	}, nil
}

// Archive marks uid declined with the given reason. Degrades to
// {updated:false, reason:"unsupported_backend"} when the backend has no
// archive operation, and {updated:false, reason:"not_found"} when uid
// is absent.
func (l *Lifecycle) Archive(ctx context.Context, uid, reason string) (*UpdateResult, error) {
	archiver, ok := l.store.(storage.Archiver)
	if !ok {
		return &UpdateResult{Updated: false, Reason: ReasonUnsupportedBackend}, nil
	}
	archived, err := archiver.ArchiveConstraint(ctx, uid, reason)
	if err != nil {
		return nil, fmt.Errorf("failed to archive %s: %w", uid, err)
	}
	if !archived {
		return &UpdateResult{Updated: false, Reason: ReasonNotFound}, nil
	}
	return &UpdateResult{Updated: true}, nil
}

// Update replaces the record stored at uid. Degrades the same way as
// Archive for missing backend support or an absent uid.
func (l *Lifecycle) Update(ctx context.Context, uid string, rec *types.ConstraintRecord) (*UpdateResult, error) {
	if rec == nil {
		return nil, fmt.Errorf("record cannot be nil")
	}
	updater, ok := l.store.(storage.Updater)
	if !ok {
		return &UpdateResult{Updated: false, Reason: ReasonUnsupportedBackend}, nil
	}
	updated, err := updater.UpdateConstraint(ctx, uid, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", uid, err)
	}
	if !updated {
		return &UpdateResult{Updated: false, Reason: ReasonNotFound}, nil
	}
	return &UpdateResult{Updated: true}, nil
}
