package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sheetwise/sheetmigrate/internal/bubble"
	"github.com/sheetwise/sheetmigrate/internal/logger"
	"github.com/sheetwise/sheetmigrate/internal/mapping"
	"github.com/sheetwise/sheetmigrate/internal/sqlutil"
)

// PageIterator produces successive pages of source records.
// *bubble.Pager satisfies it.
type PageIterator interface {
	Next(ctx context.Context) ([]bubble.Record, error)
	Total() int
}

// Source is the subset of the Bubble client the engine depends on.
type Source interface {
	Iterate(entityType string, batchSize int) PageIterator
	CountAll(ctx context.Context, entityType string) (int, error)
}

// MappingStore is the subset of the identity mapping store the engine
// depends on. *mapping.Store satisfies it.
type MappingStore interface {
	IsMigrated(ctx context.Context, entityType, sourceID string) (bool, error)
	Record(ctx context.Context, q mapping.Querier, entityType, sourceID string, destinationID int64) error
	Resolve(ctx context.Context, entityType, sourceID string) (*int64, error)
	ResolveAll(ctx context.Context, entityType string, sourceIDs []string) ([]*int64, error)
}

// FKResolver is the resolution surface handed to transform functions.
type FKResolver interface {
	Resolve(ctx context.Context, entityType, sourceID string) (*int64, error)
	ResolveAll(ctx context.Context, entityType string, sourceIDs []string) ([]*int64, error)
}

// TransformFunc converts one source record into a destination row plus any
// junction intents carried by the record's embedded ID lists. Foreign-key
// fields are resolved through fk; an unresolved reference yields a NULL
// column, never an error.
type TransformFunc func(ctx context.Context, rec bubble.Record, fk FKResolver) (*Row, []Junction, error)

// SecondPassSpec declares a deferred foreign-key column that can only be
// resolved after the entity type's own pass has completed, such as a
// self-referencing "previous version" field.
type SecondPassSpec struct {
	Column      string // destination column to fill in
	SourceField string // source field holding the referenced source ID
	RefEntity   string // entity type of the referenced record
}

// EntityMigrator describes one entity type's migration: where its records
// come from, where they go, which entity types it depends on, and how a
// source record becomes a destination row.
type EntityMigrator struct {
	EntityType string   // source system type name
	Table      string   // destination table
	DependsOn  []string // entity types whose mappings this one resolves against
	Transform  TransformFunc
	SecondPass *SecondPassSpec
}

// Runner executes entity migrations record by record. All collaborators are
// injected; nothing is global.
type Runner struct {
	db        *sql.DB
	source    Source
	mappings  MappingStore
	logger    *logger.Logger
	batchSize int
	dryRun    bool
}

// NewRunner creates a Runner. In dry-run mode no destination writes are
// performed; records are still paged and checked against the mapping store
// so the reported counts match what a real run would do.
func NewRunner(db *sql.DB, source Source, mappings MappingStore, log *logger.Logger, batchSize int, dryRun bool) (*Runner, error) {
	if db == nil && !dryRun {
		return nil, fmt.Errorf("destination database is nil")
	}
	if source == nil {
		return nil, fmt.Errorf("source client is nil")
	}
	if mappings == nil {
		return nil, fmt.Errorf("mapping store is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Runner{
		db:        db,
		source:    source,
		mappings:  mappings,
		logger:    log,
		batchSize: batchSize,
		dryRun:    dryRun,
	}, nil
}

// RunEntity migrates one entity type end to end, accumulating counters into
// stats. Per-record failures are counted and logged, never propagated; only
// source-API terminal errors (setup-level conditions) abort the pass.
func (r *Runner) RunEntity(ctx context.Context, m *EntityMigrator, stats *EntityStats) error {
	log := r.logger.WithEntity(m.EntityType)
	log.Infow("Starting entity migration", "table", m.Table, "dry_run", r.dryRun)

	pager := r.source.Iterate(m.EntityType, r.batchSize)
	page := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		records, err := pager.Next(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch %s page %d: %w", m.EntityType, page, err)
		}
		if len(records) == 0 {
			break
		}
		page++
		stats.Total = pager.Total()

		for _, rec := range records {
			r.migrateRecord(ctx, m, rec, stats, log)
		}

		// Progress is reported per page; runs against thousands of
		// rate-limited source records take tens of minutes.
		log.WithPage(page).Infow("Progress",
			"processed", stats.Processed(),
			"total", stats.Total,
			"migrated", stats.Migrated,
			"skipped", stats.Skipped,
			"failed", stats.Failed,
		)
	}

	if m.SecondPass != nil && !r.dryRun {
		if err := r.runSecondPass(ctx, m, stats, log); err != nil {
			return err
		}
	}

	log.Infow("Entity migration complete",
		"migrated", stats.Migrated,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"junction_rows", stats.JunctionRows,
		"junction_dropped", stats.JunctionDropped,
	)
	return nil
}

// migrateRecord applies the per-record contract: idempotency check, dry-run
// shortcut, transform, transactional insert + mapping write, junction
// upserts. One record's failure never aborts the batch.
func (r *Runner) migrateRecord(ctx context.Context, m *EntityMigrator, rec bubble.Record, stats *EntityStats, log *logger.Logger) {
	sourceID := rec.ID()
	if sourceID == "" {
		stats.Failed++
		log.Warnw("Record has no source ID, cannot migrate")
		return
	}

	migrated, err := r.mappings.IsMigrated(ctx, m.EntityType, sourceID)
	if err != nil {
		stats.Failed++
		log.Errorw("Idempotency check failed", "source_id", sourceID, "error", err)
		return
	}
	if migrated {
		stats.Skipped++
		return
	}

	if r.dryRun {
		stats.Migrated++
		return
	}

	row, junctions, err := m.Transform(ctx, rec, r.mappings)
	if err != nil {
		stats.Failed++
		log.Warnw("Transform failed", "source_id", sourceID, "error", err)
		return
	}

	if err := r.insertRecord(ctx, m, sourceID, row, junctions, stats, log); err != nil {
		stats.Failed++
		if errors.Is(err, mapping.ErrDuplicateMapping) {
			// A duplicate here means the record was inserted twice in one
			// run: a migrator bug, not a transient condition.
			log.Errorw("Mapping invariant violated", "source_id", sourceID, "error", err)
		} else {
			log.Warnw("Insert failed", "source_id", sourceID, "error", err)
		}
		return
	}

	stats.Migrated++
}

// insertRecord performs the destination insert, the mapping write, and any
// junction upserts in a single transaction, so a crash can never leave an
// inserted row without its mapping entry.
func (r *Runner) insertRecord(ctx context.Context, m *EntityMigrator, sourceID string, row *Row, junctions []Junction, stats *EntityStats, log *logger.Logger) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				log.Errorw("Rollback failed", "source_id", sourceID, "error", rbErr)
			}
		}
	}()

	var destinationID int64
	if err := tx.QueryRowContext(ctx, row.insertSQL(m.Table), row.Values()...).Scan(&destinationID); err != nil {
		return fmt.Errorf("insert into %s: %w", m.Table, err)
	}

	if err := r.mappings.Record(ctx, tx, m.EntityType, sourceID, destinationID); err != nil {
		return err
	}

	for _, junction := range junctions {
		if err := r.upsertJunction(ctx, tx, destinationID, junction, stats, log); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	tx = nil
	return nil
}

// runSecondPass re-walks the entity's source records and fills in the
// deferred self-reference column now that every record of the type has a
// mapping. Unresolved references stay NULL with a warning.
func (r *Runner) runSecondPass(ctx context.Context, m *EntityMigrator, stats *EntityStats, log *logger.Logger) error {
	sp := m.SecondPass
	log.Infow("Starting second pass", "column", sp.Column)

	updateSQL := "UPDATE " + sqlutil.QuoteIdentifier(m.Table) +
		" SET " + sqlutil.QuoteIdentifier(sp.Column) + " = $1 WHERE id = $2"

	pager := r.source.Iterate(m.EntityType, r.batchSize)
	for {
		records, err := pager.Next(ctx)
		if err != nil {
			return fmt.Errorf("second pass fetch for %s: %w", m.EntityType, err)
		}
		if len(records) == 0 {
			return nil
		}

		for _, rec := range records {
			refSourceID := rec.String(sp.SourceField)
			if refSourceID == "" {
				continue
			}

			ownID, err := r.mappings.Resolve(ctx, m.EntityType, rec.ID())
			if err != nil {
				return err
			}
			if ownID == nil {
				// Record failed in the main pass; nothing to update.
				continue
			}

			refID, err := r.mappings.Resolve(ctx, sp.RefEntity, refSourceID)
			if err != nil {
				return err
			}
			if refID == nil {
				log.Warnw("Second pass reference unresolved",
					"source_id", rec.ID(),
					"field", sp.SourceField,
					"ref_source_id", refSourceID,
				)
				continue
			}

			if _, err := r.db.ExecContext(ctx, updateSQL, *refID, *ownID); err != nil {
				log.Warnw("Second pass update failed", "source_id", rec.ID(), "error", err)
				continue
			}
			stats.SecondPassFixed++
		}
	}
}
