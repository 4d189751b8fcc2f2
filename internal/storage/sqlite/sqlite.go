// Package sqlite implements the constraint storage backend on SQLite.
// Records are stored as JSON alongside a few promoted columns (name,
// status, topics) that the loose candidate query filters on.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/cadencehq/constraints/internal/types"
)

// SQLiteStorage implements the storage backend, including the optional
// update and archive operations, using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// New creates a new SQLite storage backend
func New(path string) (*SQLiteStorage, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// WAL mode for better concurrency between the sweep worker and
	// interactive callers
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// UpsertConstraint validates and persists a record, returning its uid
func (s *SQLiteStorage) UpsertConstraint(ctx context.Context, rec *types.ConstraintRecord) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("record cannot be nil")
	}
	if err := rec.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}

	uid := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)

	// Default the status in the record itself so the stored JSON and the
	// status column never disagree
	stored := rec.Clone()
	if stored.Status == "" {
		stored.Status = types.StatusProposed
	}

	data, err := json.Marshal(&stored)
	if err != nil {
		return "", fmt.Errorf("failed to marshal record: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO constraints (uid, name, status, record, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, uid, stored.Name, string(stored.Status), string(data), now, now)
	if err != nil {
		return "", fmt.Errorf("failed to insert constraint: %w", err)
	}

	if err := replaceTopics(ctx, tx, uid, stored.Topics); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}
	return uid, nil
}

// GetConstraint retrieves an entry by uid, (nil, nil) when absent
func (s *SQLiteStorage) GetConstraint(ctx context.Context, uid string) (*types.StoredEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT uid, record, archive_reason, created_at, updated_at
		FROM constraints
		WHERE uid = ?
	`, uid)

	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get constraint: %w", err)
	}
	return entry, nil
}

// QueryConstraints finds entries loosely matching the filter, newest first
func (s *SQLiteStorage) QueryConstraints(ctx context.Context, filter types.QueryFilter) ([]*types.StoredEntry, error) {
	whereClauses := []string{}
	args := []interface{}{}

	if filter.Text != "" {
		whereClauses = append(whereClauses, "LOWER(name) LIKE ?")
		args = append(args, "%"+strings.ToLower(filter.Text)+"%")
	}

	// ANY-of topic semantics: the candidate query is deliberately loose,
	// the engine narrows by identity afterwards
	if len(filter.Topics) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.Topics)), ",")
		whereClauses = append(whereClauses, fmt.Sprintf(`
			EXISTS (
				SELECT 1 FROM constraint_topics t
				WHERE t.uid = constraints.uid AND t.topic IN (%s)
			)`, placeholders))
		for _, topic := range filter.Topics {
			args = append(args, strings.ToLower(strings.TrimSpace(topic)))
		}
	}

	if len(filter.Statuses) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.Statuses)), ",")
		whereClauses = append(whereClauses, fmt.Sprintf("status IN (%s)", placeholders))
		for _, st := range filter.Statuses {
			args = append(args, string(st))
		}
	}

	whereSQL := ""
	if len(whereClauses) > 0 {
		whereSQL = "WHERE " + strings.Join(whereClauses, " AND ")
	}

	limitSQL := ""
	if filter.Limit > 0 {
		limitSQL = fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	querySQL := fmt.Sprintf(`
		SELECT uid, record, archive_reason, created_at, updated_at
		FROM constraints
		%s
		ORDER BY updated_at DESC, uid ASC
		%s
	`, whereSQL, limitSQL)

	rows, err := s.db.QueryContext(ctx, querySQL, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query constraints: %w", err)
	}
	defer rows.Close()

	var entries []*types.StoredEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan constraint: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// UpdateConstraint replaces the stored record for uid.
// Returns false when uid does not exist.
func (s *SQLiteStorage) UpdateConstraint(ctx context.Context, uid string, rec *types.ConstraintRecord) (bool, error) {
	if rec == nil {
		return false, fmt.Errorf("record cannot be nil")
	}
	if err := rec.Validate(); err != nil {
		return false, fmt.Errorf("validation failed: %w", err)
	}

	stored := rec.Clone()
	if stored.Status == "" {
		stored.Status = types.StatusProposed
	}

	data, err := json.Marshal(&stored)
	if err != nil {
		return false, fmt.Errorf("failed to marshal record: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE constraints SET name = ?, status = ?, record = ?, updated_at = ?
		WHERE uid = ?
	`, stored.Name, string(stored.Status), string(data), now, uid)
	if err != nil {
		return false, fmt.Errorf("failed to update constraint: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	if err := replaceTopics(ctx, tx, uid, stored.Topics); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

// ArchiveConstraint marks a record declined with a reason. The record
// itself is rewritten so its status matches the column; nothing is
// deleted. Archiving an already-declined record is a harmless no-op.
func (s *SQLiteStorage) ArchiveConstraint(ctx context.Context, uid, reason string) (bool, error) {
	entry, err := s.GetConstraint(ctx, uid)
	if err != nil {
		return false, err
	}
	if entry == nil {
		return false, nil
	}

	entry.Record.Status = types.StatusDeclined
	data, err := json.Marshal(&entry.Record)
	if err != nil {
		return false, fmt.Errorf("failed to marshal record: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err = s.db.ExecContext(ctx, `
		UPDATE constraints SET status = ?, record = ?, archive_reason = ?, updated_at = ?
		WHERE uid = ?
	`, string(types.StatusDeclined), string(data), reason, now, uid)
	if err != nil {
		return false, fmt.Errorf("failed to archive constraint: %w", err)
	}
	return true, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// scanner abstracts sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scanner) (*types.StoredEntry, error) {
	var uid, record, createdAt, updatedAt string
	var archiveReason sql.NullString

	if err := row.Scan(&uid, &record, &archiveReason, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	entry := &types.StoredEntry{
		UID: uid,
		Metadata: types.Metadata{
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
		},
	}
	if archiveReason.Valid {
		entry.Metadata.ArchiveReason = archiveReason.String
	}
	if err := json.Unmarshal([]byte(record), &entry.Record); err != nil {
		return nil, fmt.Errorf("corrupt record for %s: %w", uid, err)
	}
	return entry, nil
}

func replaceTopics(ctx context.Context, tx *sql.Tx, uid string, topics []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM constraint_topics WHERE uid = ?`, uid); err != nil {
		return fmt.Errorf("failed to clear topics: %w", err)
	}
	seen := make(map[string]bool, len(topics))
	for _, topic := range topics {
		topic = strings.ToLower(strings.TrimSpace(topic))
		if topic == "" || seen[topic] {
			continue
		}
		seen[topic] = true
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO constraint_topics (uid, topic) VALUES (?, ?)
		`, uid, topic); err != nil {
			return fmt.Errorf("failed to insert topic: %w", err)
		}
	}
	return nil
}
