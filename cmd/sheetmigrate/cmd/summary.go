package cmd

import (
	"fmt"
	"time"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"

	"github.com/sheetwise/sheetmigrate/internal/migrate"
)

// printRunStats renders the per-entity counters as an aligned table.
func printRunStats(stats *migrate.RunStats) {
	title := "Migration Summary"
	if stats.DryRun {
		title = "Dry-Run Summary"
	}
	fmt.Printf("\n=== %s ===\n\n", title)

	nameWidth := len("entity")
	stats.Each(func(entityType string, _ *migrate.EntityStats) {
		if w := runewidth.StringWidth(entityType); w > nameWidth {
			nameWidth = w
		}
	})

	fmt.Printf("  %s  %10s  %10s  %10s  %10s\n",
		runewidth.FillRight("entity", nameWidth), "total", "migrated", "skipped", "failed")

	stats.Each(func(entityType string, st *migrate.EntityStats) {
		failed := fmt.Sprintf("%10d", st.Failed)
		if st.Failed > 0 {
			failed = color.Red.Sprintf("%10d", st.Failed)
		}
		fmt.Printf("  %s  %10d  %10d  %10d  %s\n",
			runewidth.FillRight(entityType, nameWidth),
			st.Total, st.Migrated, st.Skipped, failed)
	})

	totals := stats.Totals()
	fmt.Println()
	fmt.Printf("  Duration: %s\n", stats.Duration.Round(time.Millisecond))
	if totals.JunctionRows > 0 || totals.JunctionDropped > 0 {
		fmt.Printf("  Junction rows: %d (%d dropped as unresolved)\n",
			totals.JunctionRows, totals.JunctionDropped)
	}
	if totals.SecondPassFixed > 0 {
		fmt.Printf("  Second-pass references fixed: %d\n", totals.SecondPassFixed)
	}
	if totals.Failed > 0 {
		color.Yellow.Printf("  %d records failed; see logs for source IDs\n", totals.Failed)
	} else {
		color.Green.Println("  All records accounted for")
	}
	fmt.Println()
}
