// scripts/archive-expired.go - Manual TTL expiry tool
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cadencehq/constraints/internal/storage"
	"github.com/cadencehq/constraints/internal/types"
)

func main() {
	ctx := context.Background()

	cfg := storage.DefaultConfig()

	// Allow override via environment variable
	if dbPath := os.Getenv("CONSTRAINTS_DB_PATH"); dbPath != "" {
		cfg.Path = dbPath
	}

	fmt.Printf("Connecting to database: %s\n", cfg.Path)

	store, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening storage: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	archiver, ok := store.(storage.Archiver)
	if !ok {
		fmt.Fprintln(os.Stderr, "Backend does not support archiving")
		os.Exit(1)
	}

	entries, err := store.QueryConstraints(ctx, types.QueryFilter{
		Statuses: []types.Status{types.StatusLocked, types.StatusProposed},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error querying constraints: %v\n", err)
		os.Exit(1)
	}

	now := time.Now().UTC()
	archived := 0
	for _, entry := range entries {
		if !expired(entry, now) {
			continue
		}
		ok, err := archiver.ArchiveConstraint(ctx, entry.UID, "ttl_expired")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error archiving %s: %v\n", entry.UID, err)
			continue
		}
		if ok {
			fmt.Printf("  archived %s (%s)\n", entry.UID, entry.Record.Name)
			archived++
		}
	}

	if archived > 0 {
		fmt.Printf("✓ Archived %d expired constraint(s)\n", archived)
	} else {
		fmt.Println("✓ No expired constraints found")
	}
}

// expired reports whether the record's ttl_days window has lapsed since
// creation. Records without a TTL or with an unparsable created_at never
// expire.
func expired(entry *types.StoredEntry, now time.Time) bool {
	ttl := entry.Record.Lifecycle.TTLDays
	if ttl == nil || *ttl <= 0 {
		return false
	}
	created, err := time.Parse(time.RFC3339Nano, entry.Metadata.CreatedAt)
	if err != nil {
		return false
	}
	return now.After(created.AddDate(0, 0, *ttl))
}
