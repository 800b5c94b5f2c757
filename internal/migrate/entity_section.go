package migrate

import (
	"context"
	"time"

	"github.com/sheetwise/sheetmigrate/internal/bubble"
)

// sectionRecord is the typed shape of a source section document.
type sectionRecord struct {
	SourceID    string
	SheetID     string // source sheet ID
	Title       string
	OrderNumber float64
	QuestionIDs []string // source question IDs, in display order
	CreatedAt   time.Time
}

func decodeSection(rec bubble.Record) sectionRecord {
	return sectionRecord{
		SourceID:    rec.ID(),
		SheetID:     rec.String("sheet"),
		Title:       rec.String("title"),
		OrderNumber: rec.Float("order_number"),
		QuestionIDs: rec.StringList("questions_list"),
		CreatedAt:   rec.CreatedAt(),
	}
}

// NewSectionMigrator migrates sections. A section carries its question
// membership as an embedded ordered ID list, so the junction preserves list
// position as order_number.
func NewSectionMigrator() *EntityMigrator {
	return &EntityMigrator{
		EntityType: EntitySection,
		Table:      "sections",
		DependsOn:  []string{EntitySheet, EntityQuestion},
		Transform: func(ctx context.Context, rec bubble.Record, fk FKResolver) (*Row, []Junction, error) {
			src := decodeSection(rec)

			sheetID, err := fk.Resolve(ctx, EntitySheet, src.SheetID)
			if err != nil {
				return nil, nil, err
			}

			row := NewRow().
				Set("source_id", src.SourceID).
				Set("sheet_id", nullID(sheetID)).
				Set("title", src.Title).
				Set("order_number", src.OrderNumber).
				Set("source_created_at", nullTime(src.CreatedAt))

			junctions := []Junction{{
				Table:         "section_questions",
				OwnerColumn:   "section_id",
				RelatedColumn: "question_id",
				RelatedEntity: EntityQuestion,
				SourceIDs:     src.QuestionIDs,
				OrderColumn:   "order_number",
			}}

			return row, junctions, nil
		},
	}
}
