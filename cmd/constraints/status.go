package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cadencehq/constraints/internal/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show corpus counts by status",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		entries, err := store.QueryConstraints(cmd.Context(), types.QueryFilter{Limit: limit})
		if err != nil {
			return err
		}

		counts := map[types.Status]int{}
		for _, e := range entries {
			counts[e.Record.Status]++
		}

		fmt.Printf("Constraints (scanned %d):\n", len(entries))
		fmt.Printf("  %s locked:   %d\n", color.GreenString("●"), counts[types.StatusLocked])
		fmt.Printf("  %s proposed: %d\n", color.YellowString("●"), counts[types.StatusProposed])
		fmt.Printf("  %s declined: %d\n", color.RedString("●"), counts[types.StatusDeclined])
		return nil
	},
}

func init() {
	statusCmd.Flags().Int("limit", 5000, "Maximum entries to scan")
	rootCmd.AddCommand(statusCmd)
}
