package migrate

import (
	"context"
	"fmt"

	"github.com/sheetwise/sheetmigrate/internal/logger"
	"github.com/sheetwise/sheetmigrate/internal/mapping"
	"github.com/sheetwise/sheetmigrate/internal/sqlutil"
)

// Junction is the intent to populate a many-to-many table from an embedded
// list of source IDs on the owning record. Resolution is best-effort:
// entries whose FK target was never migrated or no longer exists are dropped
// with a warning, never failing the owning record.
type Junction struct {
	Table         string   // junction table
	OwnerColumn   string   // column holding the owning entity's destination ID
	RelatedColumn string   // column holding the related entity's destination ID
	RelatedEntity string   // entity type the source IDs refer to
	SourceIDs     []string // related source IDs in list order
	OrderColumn   string   // optional; when set, list position is written as 1-based order
}

// upsertJunction resolves a junction's source IDs and upserts the resolved
// pairs with conflict-ignore semantics, so re-runs neither duplicate rows
// nor error on existing ones.
func (r *Runner) upsertJunction(ctx context.Context, q mapping.Querier, ownerID int64, j Junction, stats *EntityStats, log *logger.Logger) error {
	if len(j.SourceIDs) == 0 {
		return nil
	}

	resolved, err := r.mappings.ResolveAll(ctx, j.RelatedEntity, j.SourceIDs)
	if err != nil {
		return err
	}

	insertSQL := junctionInsertSQL(j)

	for i, relatedID := range resolved {
		if relatedID == nil {
			stats.JunctionDropped++
			log.Warnw("Dropping unresolved junction entry",
				"junction", j.Table,
				"related_entity", j.RelatedEntity,
				"related_source_id", j.SourceIDs[i],
			)
			continue
		}

		args := []interface{}{ownerID, *relatedID}
		if j.OrderColumn != "" {
			args = append(args, i+1)
		}

		if _, err := q.ExecContext(ctx, insertSQL, args...); err != nil {
			return fmt.Errorf("upsert into %s: %w", j.Table, err)
		}
		stats.JunctionRows++
	}

	return nil
}

// junctionInsertSQL builds the conflict-ignoring insert for a junction.
func junctionInsertSQL(j Junction) string {
	columns := sqlutil.QuoteIdentifier(j.OwnerColumn) + ", " + sqlutil.QuoteIdentifier(j.RelatedColumn)
	n := 2
	if j.OrderColumn != "" {
		columns += ", " + sqlutil.QuoteIdentifier(j.OrderColumn)
		n = 3
	}
	return "INSERT INTO " + sqlutil.QuoteIdentifier(j.Table) +
		" (" + columns + ") VALUES (" + sqlutil.Placeholders(n) + ") ON CONFLICT DO NOTHING"
}
