// Package memory implements the constraint storage backend in process
// memory. It supports all optional operations and is used by engine
// tests and the CLI's --backend=memory development mode.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cadencehq/constraints/internal/types"
)

// MemoryStorage is a map-backed storage backend safe for concurrent use
type MemoryStorage struct {
	mu      sync.RWMutex
	entries map[string]*types.StoredEntry
}

// New creates an empty in-memory backend
func New() *MemoryStorage {
	return &MemoryStorage{
		entries: make(map[string]*types.StoredEntry),
	}
}

// UpsertConstraint validates and stores a record, returning its uid
func (m *MemoryStorage) UpsertConstraint(ctx context.Context, rec *types.ConstraintRecord) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("record cannot be nil")
	}
	if err := rec.Validate(); err != nil {
		return "", err
	}

	uid := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)

	stored := rec.Clone()
	if stored.Status == "" {
		stored.Status = types.StatusProposed
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[uid] = &types.StoredEntry{
		UID:    uid,
		Record: stored,
		Metadata: types.Metadata{
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	return uid, nil
}

// GetConstraint returns a copy of the entry for uid, (nil, nil) when absent
func (m *MemoryStorage) GetConstraint(ctx context.Context, uid string) (*types.StoredEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[uid]
	if !ok {
		return nil, nil
	}
	return entry.Clone(), nil
}

// QueryConstraints returns entries loosely matching the filter, newest first
func (m *MemoryStorage) QueryConstraints(ctx context.Context, filter types.QueryFilter) ([]*types.StoredEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*types.StoredEntry
	for _, entry := range m.entries {
		if !matches(entry, filter) {
			continue
		}
		matched = append(matched, entry.Clone())
	}

	// Deterministic order: newest first, uid breaks ties
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Metadata.UpdatedAt != matched[j].Metadata.UpdatedAt {
			return matched[i].Metadata.UpdatedAt > matched[j].Metadata.UpdatedAt
		}
		return matched[i].UID < matched[j].UID
	})

	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// UpdateConstraint replaces the stored record for uid.
// Returns false when uid does not exist.
func (m *MemoryStorage) UpdateConstraint(ctx context.Context, uid string, rec *types.ConstraintRecord) (bool, error) {
	if rec == nil {
		return false, fmt.Errorf("record cannot be nil")
	}
	if err := rec.Validate(); err != nil {
		return false, err
	}

	stored := rec.Clone()
	if stored.Status == "" {
		stored.Status = types.StatusProposed
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[uid]
	if !ok {
		return false, nil
	}
	entry.Record = stored
	entry.Metadata.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	return true, nil
}

// ArchiveConstraint marks a record declined with a reason.
// Idempotent: archiving an already-declined record still reports true.
func (m *MemoryStorage) ArchiveConstraint(ctx context.Context, uid, reason string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[uid]
	if !ok {
		return false, nil
	}
	entry.Record.Status = types.StatusDeclined
	entry.Metadata.ArchiveReason = reason
	entry.Metadata.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	return true, nil
}

// Close is a no-op for the in-memory backend
func (m *MemoryStorage) Close() error {
	return nil
}

// Len returns the number of stored entries (test helper)
func (m *MemoryStorage) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func matches(entry *types.StoredEntry, filter types.QueryFilter) bool {
	if filter.Text != "" {
		name := strings.ToLower(entry.Record.Name)
		if !strings.Contains(name, strings.ToLower(filter.Text)) {
			return false
		}
	}
	if len(filter.Topics) > 0 && !topicOverlap(entry.Record.Topics, filter.Topics) {
		return false
	}
	if len(filter.Statuses) > 0 {
		found := false
		for _, st := range filter.Statuses {
			if entry.Record.Status == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func topicOverlap(have, want []string) bool {
	set := make(map[string]bool, len(have))
	for _, t := range have {
		set[strings.ToLower(strings.TrimSpace(t))] = true
	}
	for _, t := range want {
		if set[strings.ToLower(strings.TrimSpace(t))] {
			return true
		}
	}
	return false
}

