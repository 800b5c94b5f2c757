package migrate

import (
	"context"
	"time"

	"github.com/sheetwise/sheetmigrate/internal/bubble"
)

// tagRecord is the typed shape of a source tag document.
type tagRecord struct {
	SourceID  string
	Name      string
	Color     *string
	CreatedAt time.Time
}

func decodeTag(rec bubble.Record) tagRecord {
	return tagRecord{
		SourceID:  rec.ID(),
		Name:      rec.String("name"),
		Color:     rec.NullString("color"),
		CreatedAt: rec.CreatedAt(),
	}
}

// NewTagMigrator migrates tags.
func NewTagMigrator() *EntityMigrator {
	return &EntityMigrator{
		EntityType: EntityTag,
		Table:      "tags",
		Transform: func(ctx context.Context, rec bubble.Record, fk FKResolver) (*Row, []Junction, error) {
			src := decodeTag(rec)

			row := NewRow().
				Set("source_id", src.SourceID).
				Set("name", src.Name).
				Set("color", src.Color).
				Set("source_created_at", nullTime(src.CreatedAt))

			return row, nil, nil
		},
	}
}
