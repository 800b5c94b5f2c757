package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sheetwise/sheetmigrate/internal/migrate"
)

var dryrunEntities []string

var dryrunCmd = &cobra.Command{
	Use:   "dry-run",
	Short: "Simulate the migration without writing to the destination",
	Long: `Dry-run pages through the source collections and checks each record
against the identity mapping table, reporting how many records a real run
would migrate or skip, without performing any destination writes.

Example:
  sheetmigrate dry-run --config sheetmigrate.yaml`,
	RunE: runDryrun,
}

func init() {
	dryrunCmd.Flags().StringArrayVarP(&dryrunEntities, "entity", "e", nil,
		"Restrict the run to specific entity types (repeatable)")

	rootCmd.AddCommand(dryrunCmd)
}

func runDryrun(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	e, err := buildEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	driver, err := e.buildDriver()
	if err != nil {
		return err
	}

	stats, err := driver.Run(ctx, migrate.RunOptions{DryRun: true, Entities: dryrunEntities})
	if stats != nil {
		printRunStats(stats)
	}
	return err
}
