package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cadencehq/constraints/internal/dedup"
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Sweep the corpus and collapse duplicate constraints",
	Long: `Scan stored constraints, group them by semantic identity, and collapse
each duplicate group into one canonical record.

The best-ranked member of each group survives; the rest are archived
with reason "dedupe:canonical:<uid>" and their uids are recorded in the
canonical's lineage. Nothing is deleted. The sweep is idempotent and
safe to re-run; run it from a single scheduled worker.

Configuration is read from environment variables (CONSTRAINTS_DEDUP_*).

Examples:
  constraints dedupe                 # Sweep with defaults
  constraints dedupe --limit 1000    # Scan up to 1000 entries
  constraints dedupe --dry-run       # Preview groups without writing`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, err := dedup.ConfigFromEnv()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to load configuration: %v\n", err)
			fmt.Fprintf(os.Stderr, "Check CONSTRAINTS_DEDUP_* environment variables\n")
			os.Exit(1)
		}

		engine, err := dedup.New(store, cfg)
		if err != nil {
			return err
		}

		if dryRun {
			fmt.Printf("%s\n", color.YellowString("DRY RUN MODE - No constraints will be archived"))
		}
		fmt.Printf("Sweeping corpus (limit: %d)...\n\n", effectiveLimit(limit, cfg.SweepLimit))

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
		defer cancel()

		report, err := engine.Dedupe(ctx, limit, dryRun)
		if err != nil {
			return fmt.Errorf("sweep failed: %w", err)
		}

		for _, group := range report.Groups {
			fmt.Printf("  canonical %s\n", color.CyanString(group.CanonicalUID))
			for _, uid := range group.DuplicateUIDs {
				fmt.Printf("    duplicate %s\n", uid)
			}
		}
		if len(report.Groups) > 0 {
			fmt.Println()
		}

		green := color.New(color.FgGreen).SprintFunc()
		if dryRun {
			fmt.Printf("Scanned %d entries: %d groups, %d duplicates\n",
				report.Scanned, report.DuplicateGroups, report.DuplicatesFound)
			fmt.Printf("Run without --dry-run to archive duplicates\n")
			return nil
		}

		fmt.Printf("%s Sweep complete\n", green("✓"))
		fmt.Printf("  Scanned: %d\n", report.Scanned)
		fmt.Printf("  Duplicate groups: %d\n", report.DuplicateGroups)
		fmt.Printf("  Duplicates archived: %d/%d\n", report.DuplicatesArchived, report.DuplicatesFound)
		fmt.Printf("  Canonical updates: %d\n", report.CanonicalUpdates)
		if report.FailedArchives > 0 {
			fmt.Printf("  %s %d archive(s) failed; re-run to retry\n",
				color.YellowString("!"), report.FailedArchives)
		}
		return nil
	},
}

func effectiveLimit(limit, fallback int) int {
	if limit > 0 {
		return limit
	}
	return fallback
}

func init() {
	dedupeCmd.Flags().Bool("dry-run", false, "Preview duplicate groups without archiving")
	dedupeCmd.Flags().Int("limit", 0, "Maximum entries to scan (0 = configured default)")
	rootCmd.AddCommand(dedupeCmd)
}
