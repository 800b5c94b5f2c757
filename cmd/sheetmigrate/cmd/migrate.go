package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sheetwise/sheetmigrate/internal/lock"
	"github.com/sheetwise/sheetmigrate/internal/migrate"
)

var (
	migrateEntities []string
	migrateForce    bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate source records into the destination database",
	Long: `Migrate pulls entity records page by page from the source API,
transforms them, inserts them into Postgres, and records the source to
destination identity mapping.

Entity types run in dependency order so foreign keys resolve against
already-migrated parents. Re-running is safe: records with an existing
mapping entry are skipped.

Example:
  sheetmigrate migrate --config sheetmigrate.yaml
  sheetmigrate migrate --entity sheet --entity question`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().StringArrayVarP(&migrateEntities, "entity", "e", nil,
		"Restrict the run to specific entity types (repeatable)")
	migrateCmd.Flags().BoolVar(&migrateForce, "force", false,
		"Run even if the migration lock cannot be acquired (use with caution)")

	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	// Setup context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	e, err := buildEnv(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	// Acquire advisory lock to prevent concurrent migration runs
	if !migrateForce {
		runLock := lock.NewAdvisoryLock(e.manager.DB, lock.RunLockName(e.cfg.Destination.Database))
		if err := runLock.AcquireOrFail(ctx); err != nil {
			if errors.Is(err, lock.ErrLockHeld) {
				return fmt.Errorf("a migration is already running against this destination (use --force to override)")
			}
			return fmt.Errorf("failed to acquire migration lock: %w", err)
		}
		defer runLock.Release(context.Background())
		e.log.Infow("Acquired migration lock")
	} else {
		e.log.Warnw("Skipping migration lock acquisition (--force flag used)")
	}

	driver, err := e.buildDriver()
	if err != nil {
		return err
	}

	stats, err := driver.Run(ctx, migrate.RunOptions{Entities: migrateEntities})
	if stats != nil {
		printRunStats(stats)
	}
	if err != nil {
		return err
	}

	// Nonzero failed counts are reported, not fatal: idempotency makes a
	// follow-up run safe once the failing records are addressed.
	if totals := stats.Totals(); totals.Failed > 0 {
		e.log.Warnw("Run completed with failed records; inspect logs and re-run",
			"failed", totals.Failed)
	}

	return nil
}
