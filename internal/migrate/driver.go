package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sheetwise/sheetmigrate/internal/bubble"
	"github.com/sheetwise/sheetmigrate/internal/graph"
	"github.com/sheetwise/sheetmigrate/internal/logger"
	"github.com/sheetwise/sheetmigrate/internal/verify"
)

// RunOptions controls one migration run.
type RunOptions struct {
	// DryRun pages and counts without performing destination writes.
	DryRun bool
	// Entities restricts the run to a subset of entity types (still executed
	// in dependency order). Foreign keys into excluded types resolve against
	// whatever mappings earlier runs left behind; unresolved ones stay NULL.
	Entities []string
}

// Driver orchestrates entity migrators in dependency order and aggregates
// per-entity stats. Entity types run strictly sequentially: later types'
// foreign-key resolution depends on earlier types having recorded mappings.
type Driver struct {
	db        *sql.DB
	source    Source
	mappings  MappingStore
	verifier  *verify.Verifier // nil disables post-entity verification
	logger    *logger.Logger
	batchSize int

	migrators map[string]*EntityMigrator
	graph     *graph.Graph
}

// NewDriver creates a Driver. The verifier may be nil to skip post-entity
// consistency checks.
func NewDriver(db *sql.DB, source Source, mappings MappingStore, verifier *verify.Verifier, log *logger.Logger, batchSize int) (*Driver, error) {
	if source == nil {
		return nil, fmt.Errorf("source client is nil")
	}
	if mappings == nil {
		return nil, fmt.Errorf("mapping store is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Driver{
		db:        db,
		source:    source,
		mappings:  mappings,
		verifier:  verifier,
		logger:    log,
		batchSize: batchSize,
		migrators: make(map[string]*EntityMigrator),
		graph:     graph.New(),
	}, nil
}

// Register adds an entity migrator and its declared dependencies to the
// driver. Registering the same entity type twice is a programming error.
func (d *Driver) Register(m *EntityMigrator) error {
	if m.EntityType == "" {
		return fmt.Errorf("migrator has no entity type")
	}
	if m.Transform == nil {
		return fmt.Errorf("migrator for %s has no transform", m.EntityType)
	}
	if _, exists := d.migrators[m.EntityType]; exists {
		return fmt.Errorf("migrator for %s already registered", m.EntityType)
	}

	d.migrators[m.EntityType] = m
	d.graph.AddNode(m.EntityType)
	for _, dep := range m.DependsOn {
		// A self-dependency (versioning) is handled by the second pass,
		// not the ordering graph.
		if dep == m.EntityType {
			continue
		}
		d.graph.AddDependency(m.EntityType, dep)
	}
	return nil
}

// DependencyGraph exposes the registered dependency graph so callers can
// render it (the plan command draws it as a tree).
func (d *Driver) DependencyGraph() *graph.Graph {
	return d.graph
}

// Order returns the registered entity types in migration order. Dependencies
// that have no registered migrator are a configuration error.
func (d *Driver) Order() ([]string, error) {
	for _, name := range d.graph.AllNodes() {
		if _, ok := d.migrators[name]; !ok {
			return nil, fmt.Errorf("entity type %s is depended on but has no registered migrator", name)
		}
	}
	order, err := d.graph.MigrationOrder()
	if err != nil {
		return nil, fmt.Errorf("failed to order entity types: %w", err)
	}
	return order, nil
}

// Run executes the migration. Per-record failures are counted, not
// propagated; an error return means an entity-type-level setup failure
// (source API unreachable, ordering impossible) and aborts the run.
func (d *Driver) Run(ctx context.Context, opts RunOptions) (*RunStats, error) {
	order, err := d.Order()
	if err != nil {
		return nil, err
	}

	selected := selectEntities(order, opts.Entities)
	if len(selected) == 0 {
		return nil, fmt.Errorf("no entity types selected")
	}

	runner, err := NewRunner(d.db, d.source, d.mappings, d.logger, d.batchSize, opts.DryRun)
	if err != nil {
		return nil, err
	}

	stats := NewRunStats()
	stats.StartedAt = time.Now()
	stats.DryRun = opts.DryRun

	d.logger.Infow("Starting migration run",
		"order", selected,
		"batch_size", d.batchSize,
		"dry_run", opts.DryRun,
	)

	for _, entityType := range selected {
		m := d.migrators[entityType]

		if err := runner.RunEntity(ctx, m, stats.Entity(entityType)); err != nil {
			return stats, fmt.Errorf("migration of %s aborted: %w", entityType, err)
		}

		if d.verifier != nil && !opts.DryRun {
			if _, err := d.verifier.Verify(ctx, entityType, m.Table); err != nil {
				return stats, fmt.Errorf("verification of %s failed: %w", entityType, err)
			}
		}
	}

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(stats.StartedAt)

	totals := stats.Totals()
	d.logger.Infow("Migration run complete",
		"duration", stats.Duration,
		"migrated", totals.Migrated,
		"skipped", totals.Skipped,
		"failed", totals.Failed,
	)

	return stats, nil
}

// selectEntities filters the ordered entity list down to the requested
// subset, preserving dependency order.
func selectEntities(order, requested []string) []string {
	if len(requested) == 0 {
		return order
	}
	want := make(map[string]bool, len(requested))
	for _, name := range requested {
		want[name] = true
	}
	var out []string
	for _, name := range order {
		if want[name] {
			out = append(out, name)
		}
	}
	return out
}

// ClientSource adapts *bubble.Client to the Source interface.
type ClientSource struct {
	Client *bubble.Client
}

// Iterate returns a page iterator over an entity type's collection.
func (s ClientSource) Iterate(entityType string, batchSize int) PageIterator {
	return s.Client.Iterate(entityType, batchSize)
}

// CountAll returns the logical total record count for an entity type.
func (s ClientSource) CountAll(ctx context.Context, entityType string) (int, error) {
	return s.Client.CountAll(ctx, entityType)
}
