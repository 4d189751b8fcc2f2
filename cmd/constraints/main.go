// Command constraints is the operational CLI for the constraint
// deduplication and merge engine: adding records through the
// find-equivalent/merge data flow, running dedupe sweeps, superseding
// and inspecting stored constraints.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cadencehq/constraints/internal/storage"
	"github.com/cadencehq/constraints/internal/storage/memory"
)

var (
	dbPath      string
	backendKind string

	// store is opened by the root PersistentPreRunE and shared by all
	// subcommands
	store storage.Backend
)

var rootCmd = &cobra.Command{
	Use:   "constraints",
	Short: "Constraint deduplication and merge engine",
	Long: `constraints manages a corpus of durable constraint records: structured
rules and preferences with scopes, time windows, and lifecycle metadata.

The engine decides whether a new record is semantically the same as one
already stored, merges equivalent records deterministically, produces
auditable diffs, and sweeps the corpus to collapse duplicates into one
canonical record while preserving lineage. Records are never deleted;
removal is a status transition to declined.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		store, err = openStore(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			_ = store.Close()
		}
	},
}

func openStore(ctx context.Context) (storage.Backend, error) {
	switch backendKind {
	case "memory":
		return memory.New(), nil
	case "sqlite", "":
		return storage.NewStorage(ctx, &storage.Config{Path: dbPath})
	default:
		return nil, fmt.Errorf("unknown backend %q (want sqlite or memory)", backendKind)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", storage.DefaultConfig().Path, "SQLite database path")
	rootCmd.PersistentFlags().StringVar(&backendKind, "backend", "sqlite", "Storage backend (sqlite or memory)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
