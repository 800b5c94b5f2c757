package migrate

import (
	"context"
	"time"

	"github.com/sheetwise/sheetmigrate/internal/bubble"
)

// questionRecord is the typed shape of a source question document.
type questionRecord struct {
	SourceID     string
	SheetID      string // source sheet ID
	Text         string
	QuestionType *string
	IsRequired   bool
	OrderNumber  float64
	CreatedAt    time.Time
}

func decodeQuestion(rec bubble.Record) questionRecord {
	return questionRecord{
		SourceID:     rec.ID(),
		SheetID:      rec.String("sheet"),
		Text:         rec.String("text"),
		QuestionType: rec.NullString("question_type"),
		IsRequired:   rec.Bool("is_required", false),
		OrderNumber:  rec.Float("order_number"),
		CreatedAt:    rec.CreatedAt(),
	}
}

// NewQuestionMigrator migrates questions. Questions reference their sheet
// directly; sections pick them up later through their embedded question list.
func NewQuestionMigrator() *EntityMigrator {
	return &EntityMigrator{
		EntityType: EntityQuestion,
		Table:      "questions",
		DependsOn:  []string{EntitySheet},
		Transform: func(ctx context.Context, rec bubble.Record, fk FKResolver) (*Row, []Junction, error) {
			src := decodeQuestion(rec)

			sheetID, err := fk.Resolve(ctx, EntitySheet, src.SheetID)
			if err != nil {
				return nil, nil, err
			}

			row := NewRow().
				Set("source_id", src.SourceID).
				Set("sheet_id", nullID(sheetID)).
				Set("text", src.Text).
				Set("question_type", src.QuestionType).
				Set("is_required", src.IsRequired).
				Set("order_number", src.OrderNumber).
				Set("source_created_at", nullTime(src.CreatedAt))

			return row, nil, nil
		},
	}
}
