package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/sheetwise/sheetmigrate/internal/deptree"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the migration order and source record counts",
	Long: `Plan resolves the entity dependency graph, prints the order entity
types will be migrated in, and queries the source API for each collection's
record count (one cheap request per entity type).

Example:
  sheetmigrate plan --config sheetmigrate.yaml`,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
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

	order, err := driver.Order()
	if err != nil {
		return err
	}

	fmt.Printf("\n=== Migration Plan ===\n\n")
	fmt.Printf("Batch size: %d\n\n", e.cfg.Processing.BatchSize)

	fmt.Println("Dependency tree:")
	tree := deptree.Render(driver.DependencyGraph())
	for _, line := range strings.Split(strings.TrimRight(tree, "\n"), "\n") {
		fmt.Println("  " + line)
	}
	if deptree.HasRepeats(tree) {
		fmt.Println("  (* repeated dependency, expanded once)")
	}
	fmt.Println()

	fmt.Println("Migration order (dependencies first):")

	nameWidth := 0
	for _, entityType := range order {
		if w := runewidth.StringWidth(entityType); w > nameWidth {
			nameWidth = w
		}
	}

	total := 0
	for i, entityType := range order {
		count, err := e.client.CountAll(ctx, entityType)
		if err != nil {
			return fmt.Errorf("failed to count %s records: %w", entityType, err)
		}
		total += count
		fmt.Printf("  %2d. %s  %8d records\n",
			i+1, runewidth.FillRight(entityType, nameWidth), count)
	}

	fmt.Println()
	color.Green.Printf("  %d source records across %d entity types\n\n", total, len(order))

	return nil
}
