package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	resetEntity  string
	resetConfirm bool
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete identity mapping entries for an entity type",
	Long: `Reset deletes every mapping entry for one entity type, so the next
migration run treats all of that type's source records as unmigrated and
inserts them again.

Destination rows are NOT deleted; remove or truncate them first, or the
re-run will produce duplicates.

Example:
  sheetmigrate reset --entity sheet --yes`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().StringVarP(&resetEntity, "entity", "e", "",
		"Entity type to reset (required)")
	resetCmd.MarkFlagRequired("entity")

	resetCmd.Flags().BoolVar(&resetConfirm, "yes", false,
		"Confirm the deletion")

	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	if !resetConfirm {
		return fmt.Errorf("reset deletes mapping entries for %q permanently; re-run with --yes to confirm", resetEntity)
	}

	ctx := context.Background()

	e, err := buildEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	deleted, err := e.mappings.DeleteAll(ctx, resetEntity)
	if err != nil {
		return err
	}

	cmd.Printf("Deleted %d mapping entries for entity type %q\n", deleted, resetEntity)
	return nil
}
