package migrate

import (
	"context"
	"time"

	"github.com/sheetwise/sheetmigrate/internal/bubble"
)

// answerRecord is the typed shape of a source answer document. The choice
// reference is frequently dangling in source data (choices deleted after
// answers were given); it resolves best-effort to NULL.
type answerRecord struct {
	SourceID   string
	ResponseID string // source response ID
	QuestionID string // source question ID
	ChoiceID   string // source choice ID, may be dangling
	TextValue  *string
	CreatedAt  time.Time
}

func decodeAnswer(rec bubble.Record) answerRecord {
	return answerRecord{
		SourceID:   rec.ID(),
		ResponseID: rec.String("response"),
		QuestionID: rec.String("question"),
		ChoiceID:   rec.String("choice"),
		TextValue:  rec.NullString("text_value"),
		CreatedAt:  rec.CreatedAt(),
	}
}

// NewAnswerMigrator migrates answers, the leaf of the dependency graph.
func NewAnswerMigrator() *EntityMigrator {
	return &EntityMigrator{
		EntityType: EntityAnswer,
		Table:      "answers",
		DependsOn:  []string{EntityResponse, EntityQuestion, EntityChoice},
		Transform: func(ctx context.Context, rec bubble.Record, fk FKResolver) (*Row, []Junction, error) {
			src := decodeAnswer(rec)

			responseID, err := fk.Resolve(ctx, EntityResponse, src.ResponseID)
			if err != nil {
				return nil, nil, err
			}
			questionID, err := fk.Resolve(ctx, EntityQuestion, src.QuestionID)
			if err != nil {
				return nil, nil, err
			}
			choiceID, err := fk.Resolve(ctx, EntityChoice, src.ChoiceID)
			if err != nil {
				return nil, nil, err
			}

			row := NewRow().
				Set("source_id", src.SourceID).
				Set("response_id", nullID(responseID)).
				Set("question_id", nullID(questionID)).
				Set("choice_id", nullID(choiceID)).
				Set("text_value", src.TextValue).
				Set("source_created_at", nullTime(src.CreatedAt))

			return row, nil, nil
		},
	}
}
