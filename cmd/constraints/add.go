package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cadencehq/constraints/internal/dedup"
	"github.com/cadencehq/constraints/internal/merge"
	"github.com/cadencehq/constraints/internal/types"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a constraint record, merging into an equivalent one if present",
	Long: `Read a constraint record from a YAML file and run it through the
deduplication data flow: look for a semantically equivalent stored
record; if one exists, merge the new record into it and persist the
result (printing the audit patch), otherwise insert it as new.

Example record file:

  name: no meetings before ten
  status: proposed
  necessity: should
  topics: [calendar, focus]
  payload:
    rule_kind: time_window
    windows:
      - kind: blocked
        start_time_local: "00:00"
        end_time_local: "10:00"

Examples:
  constraints add -f record.yaml
  constraints add -f record.yaml --force-insert   # Skip the equivalence check`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		forceInsert, _ := cmd.Flags().GetBool("force-insert")

		rec, err := loadRecord(file)
		if err != nil {
			return err
		}

		cfg, err := dedup.ConfigFromEnv()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		engine, err := dedup.New(store, cfg)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		green := color.New(color.FgGreen).SprintFunc()

		if !forceInsert {
			match, err := engine.FindEquivalent(ctx, rec, 0)
			if err != nil {
				return fmt.Errorf("equivalence check failed: %w", err)
			}
			if match != nil {
				merged := merge.Records(match.Record, *rec)
				ops := merge.DiffOps(match.Record, merged)

				result, err := engine.Update(ctx, match.UID, &merged)
				if err != nil {
					return fmt.Errorf("failed to persist merge into %s: %w", match.UID, err)
				}
				if !result.Updated {
					return fmt.Errorf("merge into %s not applied: %s", match.UID, result.Reason)
				}

				fmt.Printf("%s Merged into existing constraint %s\n", green("✓"), color.CyanString(match.UID))
				if len(ops) > 0 {
					patch, _ := json.MarshalIndent(ops, "", "  ")
					fmt.Printf("\nAudit patch:\n%s\n", string(patch))
				} else {
					fmt.Printf("No field changes; stored record already subsumes the new one\n")
				}
				return nil
			}
		}

		uid, err := store.UpsertConstraint(ctx, rec)
		if err != nil {
			return fmt.Errorf("failed to insert constraint: %w", err)
		}
		fmt.Printf("%s Inserted new constraint %s\n", green("✓"), color.CyanString(uid))
		return nil
	},
}

// loadRecord reads a ConstraintRecord from a YAML file
func loadRecord(path string) (*types.ConstraintRecord, error) {
	if path == "" {
		return nil, fmt.Errorf("record file is required (use -f)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var rec types.ConstraintRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if rec.Status == "" {
		rec.Status = types.StatusProposed
	}
	if err := rec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid record in %s: %w", path, err)
	}
	return &rec, nil
}

func init() {
	addCmd.Flags().StringP("file", "f", "", "YAML file containing the constraint record")
	addCmd.Flags().Bool("force-insert", false, "Insert without checking for an equivalent record")
	rootCmd.AddCommand(addCmd)
}
