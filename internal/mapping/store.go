// Package mapping provides the durable source-to-destination identity
// mapping store for sheetmigrate. The mapping table is the single source of
// truth both for idempotency ("has this source record been migrated?") and
// for foreign-key resolution during transform.
package mapping

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sheetwise/sheetmigrate/internal/logger"
)

// ErrDuplicateMapping is returned when a mapping for an (entity type,
// source ID) pair already exists. A duplicate indicates a migrator bug
// (double insert); overwriting would corrupt idempotency for all future
// runs, so the write fails loudly instead.
var ErrDuplicateMapping = errors.New("mapping already exists")

// TableName is the destination table holding mapping entries.
const TableName = "migration_mappings"

// uniqueViolation is the Postgres SQLSTATE for unique constraint violations.
const uniqueViolation = "23505"

// Querier is the subset of database operations the store needs. Both *sql.DB
// and *sql.Tx satisfy it, which lets Record join the transaction that
// performed the destination insert.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store reads and writes identity mapping entries. Entries are write-once:
// created immediately after a successful destination insert, never updated,
// and only deleted by an explicit per-entity reset.
type Store struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewStore creates a Store over the destination database.
func NewStore(db *sql.DB, log *logger.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}
	return &Store{db: db, logger: log}, nil
}

// EnsureSchema creates the mapping table and its uniqueness constraint if
// they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS `+TableName+` (
			id BIGSERIAL PRIMARY KEY,
			entity_type TEXT NOT NULL,
			source_id TEXT NOT NULL,
			destination_id BIGINT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			CONSTRAINT migration_mappings_entity_source_key UNIQUE (entity_type, source_id)
		)`)
	if err != nil {
		return fmt.Errorf("failed to create mapping table: %w", err)
	}
	return nil
}

// IsMigrated reports whether a mapping exists for the given source record.
func (s *Store) IsMigrated(ctx context.Context, entityType, sourceID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+TableName+` WHERE entity_type = $1 AND source_id = $2)`,
		entityType, sourceID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check mapping for %s %s: %w", entityType, sourceID, err)
	}
	return exists, nil
}

// Record writes a new mapping entry. It must be called exactly once per
// source record, immediately after the destination insert succeeds, on the
// same transaction as that insert. Returns ErrDuplicateMapping if an entry
// for (entityType, sourceID) already exists.
func (s *Store) Record(ctx context.Context, q Querier, entityType, sourceID string, destinationID int64) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO `+TableName+` (entity_type, source_id, destination_id) VALUES ($1, $2, $3)`,
		entityType, sourceID, destinationID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w for %s %s", ErrDuplicateMapping, entityType, sourceID)
		}
		return fmt.Errorf("failed to record mapping for %s %s: %w", entityType, sourceID, err)
	}
	return nil
}

// Resolve returns the destination ID mapped to a source ID, or nil when the
// source ID is empty or no mapping exists. A nil result is not an error: the
// source system permits dangling references, and callers leave the
// corresponding foreign-key column NULL.
func (s *Store) Resolve(ctx context.Context, entityType, sourceID string) (*int64, error) {
	if sourceID == "" {
		return nil, nil
	}

	var destinationID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT destination_id FROM `+TableName+` WHERE entity_type = $1 AND source_id = $2`,
		entityType, sourceID,
	).Scan(&destinationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s %s: %w", entityType, sourceID, err)
	}
	return &destinationID, nil
}

// ResolveAll resolves a list of source IDs, preserving input order and
// length. Unresolved entries are nil so callers can zip the result against
// the original list and drop the gaps positionally.
func (s *Store) ResolveAll(ctx context.Context, entityType string, sourceIDs []string) ([]*int64, error) {
	results := make([]*int64, len(sourceIDs))
	if len(sourceIDs) == 0 {
		return results, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT source_id, destination_id FROM `+TableName+` WHERE entity_type = $1 AND source_id = ANY($2)`,
		entityType, sourceIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s ids: %w", entityType, err)
	}
	defer rows.Close()

	bysource := make(map[string]int64, len(sourceIDs))
	for rows.Next() {
		var sourceID string
		var destinationID int64
		if err := rows.Scan(&sourceID, &destinationID); err != nil {
			return nil, fmt.Errorf("failed to scan mapping row: %w", err)
		}
		bysource[sourceID] = destinationID
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read mapping rows: %w", err)
	}

	for i, sourceID := range sourceIDs {
		if destinationID, ok := bysource[sourceID]; ok {
			id := destinationID
			results[i] = &id
		}
	}
	return results, nil
}

// Count returns the number of mapping entries for an entity type.
func (s *Store) Count(ctx context.Context, entityType string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+TableName+` WHERE entity_type = $1`,
		entityType,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count mappings for %s: %w", entityType, err)
	}
	return count, nil
}

// DeleteAll removes every mapping entry for an entity type. This is the
// explicit reset path; after it runs, a migration of that entity type starts
// from scratch and will re-insert destination rows.
func (s *Store) DeleteAll(ctx context.Context, entityType string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM `+TableName+` WHERE entity_type = $1`,
		entityType,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete mappings for %s: %w", entityType, err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read deleted row count: %w", err)
	}
	s.logger.Infow("Deleted mapping entries", "entity", entityType, "count", deleted)
	return deleted, nil
}
