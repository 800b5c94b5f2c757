package migrate

import (
	"context"
	"time"

	"github.com/sheetwise/sheetmigrate/internal/bubble"
)

// responseRecord is the typed shape of a source response document (one
// respondent's pass over a sheet).
type responseRecord struct {
	SourceID     string
	SheetID      string // source sheet ID
	RespondentID string // source user ID
	IsSubmitted  bool
	SubmittedAt  time.Time
	CreatedAt    time.Time
}

func decodeResponse(rec bubble.Record) responseRecord {
	return responseRecord{
		SourceID:     rec.ID(),
		SheetID:      rec.String("sheet"),
		RespondentID: rec.String("respondent"),
		IsSubmitted:  rec.Bool("is_submitted", false),
		SubmittedAt:  rec.Time("submitted_at"),
		CreatedAt:    rec.CreatedAt(),
	}
}

// NewResponseMigrator migrates responses.
func NewResponseMigrator() *EntityMigrator {
	return &EntityMigrator{
		EntityType: EntityResponse,
		Table:      "responses",
		DependsOn:  []string{EntitySheet, EntityUser},
		Transform: func(ctx context.Context, rec bubble.Record, fk FKResolver) (*Row, []Junction, error) {
			src := decodeResponse(rec)

			sheetID, err := fk.Resolve(ctx, EntitySheet, src.SheetID)
			if err != nil {
				return nil, nil, err
			}
			respondentID, err := fk.Resolve(ctx, EntityUser, src.RespondentID)
			if err != nil {
				return nil, nil, err
			}

			row := NewRow().
				Set("source_id", src.SourceID).
				Set("sheet_id", nullID(sheetID)).
				Set("respondent_id", nullID(respondentID)).
				Set("is_submitted", src.IsSubmitted).
				Set("submitted_at", nullTime(src.SubmittedAt)).
				Set("source_created_at", nullTime(src.CreatedAt))

			return row, nil, nil
		},
	}
}
