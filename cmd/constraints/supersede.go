package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cadencehq/constraints/internal/dedup"
)

var supersedeCmd = &cobra.Command{
	Use:   "supersede <uid>",
	Short: "Replace a stored constraint with a new record, preserving lineage",
	Long: `Replace the constraint at <uid> with a new record read from a YAML
file. The old uid is recorded in the new record's supersedes set and the
old record is archived with reason "superseded".

Examples:
  constraints supersede 4f1c... -f revised.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		uid := args[0]
		file, _ := cmd.Flags().GetString("file")

		rec, err := loadRecord(file)
		if err != nil {
			return err
		}

		lifecycle, err := dedup.NewLifecycle(store)
		if err != nil {
			return err
		}

		result, err := lifecycle.Supersede(cmd.Context(), uid, rec)
		if err != nil {
			return fmt.Errorf("supersede failed: %w", err)
		}

		if result.Reason == dedup.ReasonNotFound {
			return fmt.Errorf("constraint %s not found", uid)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Superseded %s with %s\n", green("✓"), uid, color.CyanString(result.NewUID))
		if !result.Updated {
			fmt.Printf("%s New record created but old record was not archived; archive %s manually\n",
				color.YellowString("!"), uid)
		}
		return nil
	},
}

func init() {
	supersedeCmd.Flags().StringP("file", "f", "", "YAML file containing the replacement record")
	rootCmd.AddCommand(supersedeCmd)
}
