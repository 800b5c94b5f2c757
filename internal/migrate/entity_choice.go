package migrate

import (
	"context"
	"time"

	"github.com/sheetwise/sheetmigrate/internal/bubble"
)

// choiceRecord is the typed shape of a source choice document.
type choiceRecord struct {
	SourceID    string
	QuestionID  string // source question ID
	Label       string
	IsCorrect   bool
	OrderNumber float64
	CreatedAt   time.Time
}

func decodeChoice(rec bubble.Record) choiceRecord {
	return choiceRecord{
		SourceID:    rec.ID(),
		QuestionID:  rec.String("question"),
		Label:       rec.String("label"),
		IsCorrect:   rec.Bool("is_correct", false),
		OrderNumber: rec.Float("order_number"),
		CreatedAt:   rec.CreatedAt(),
	}
}

// NewChoiceMigrator migrates answer choices.
func NewChoiceMigrator() *EntityMigrator {
	return &EntityMigrator{
		EntityType: EntityChoice,
		Table:      "choices",
		DependsOn:  []string{EntityQuestion},
		Transform: func(ctx context.Context, rec bubble.Record, fk FKResolver) (*Row, []Junction, error) {
			src := decodeChoice(rec)

			questionID, err := fk.Resolve(ctx, EntityQuestion, src.QuestionID)
			if err != nil {
				return nil, nil, err
			}

			row := NewRow().
				Set("source_id", src.SourceID).
				Set("question_id", nullID(questionID)).
				Set("label", src.Label).
				Set("is_correct", src.IsCorrect).
				Set("order_number", src.OrderNumber).
				Set("source_created_at", nullTime(src.CreatedAt))

			return row, nil, nil
		},
	}
}
