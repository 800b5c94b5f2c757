package migrate

import (
	"context"
	"time"

	"github.com/sheetwise/sheetmigrate/internal/bubble"
)

// sheetRecord is the typed shape of a source sheet document.
type sheetRecord struct {
	SourceID    string
	Title       string
	Description *string
	IsPublished bool
	CreatedByID string   // source user ID
	TagIDs      []string // source tag IDs
	CreatedAt   time.Time
}

func decodeSheet(rec bubble.Record) sheetRecord {
	return sheetRecord{
		SourceID:    rec.ID(),
		Title:       rec.String("title"),
		Description: rec.NullString("description"),
		IsPublished: rec.Bool("is_published", false),
		CreatedByID: rec.String("created_by"),
		TagIDs:      rec.StringList("tags_list"),
		CreatedAt:   rec.CreatedAt(),
	}
}

// NewSheetMigrator migrates sheets. The "previous_sheet" self-reference
// (sheet versioning) cannot resolve until every sheet has a mapping, so it
// is filled in by a second pass after the main pass completes.
func NewSheetMigrator() *EntityMigrator {
	return &EntityMigrator{
		EntityType: EntitySheet,
		Table:      "sheets",
		DependsOn:  []string{EntityUser, EntityTag},
		SecondPass: &SecondPassSpec{
			Column:      "previous_sheet_id",
			SourceField: "previous_sheet",
			RefEntity:   EntitySheet,
		},
		Transform: func(ctx context.Context, rec bubble.Record, fk FKResolver) (*Row, []Junction, error) {
			src := decodeSheet(rec)

			createdBy, err := fk.Resolve(ctx, EntityUser, src.CreatedByID)
			if err != nil {
				return nil, nil, err
			}

			row := NewRow().
				Set("source_id", src.SourceID).
				Set("title", src.Title).
				Set("description", src.Description).
				Set("is_published", src.IsPublished).
				Set("created_by_id", nullID(createdBy)).
				Set("source_created_at", nullTime(src.CreatedAt))

			junctions := []Junction{{
				Table:         "sheet_tags",
				OwnerColumn:   "sheet_id",
				RelatedColumn: "tag_id",
				RelatedEntity: EntityTag,
				SourceIDs:     src.TagIDs,
			}}

			return row, junctions, nil
		},
	}
}
