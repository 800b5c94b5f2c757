package migrate

import (
	"context"
	"time"

	"github.com/sheetwise/sheetmigrate/internal/bubble"
)

// userRecord is the typed shape of a source user document.
type userRecord struct {
	SourceID  string
	Email     string
	FullName  *string
	IsAdmin   bool
	CreatedAt time.Time
}

func decodeUser(rec bubble.Record) userRecord {
	return userRecord{
		SourceID:  rec.ID(),
		Email:     rec.String("email"),
		FullName:  rec.NullString("full_name"),
		IsAdmin:   rec.Bool("is_admin", false),
		CreatedAt: rec.CreatedAt(),
	}
}

// NewUserMigrator migrates user accounts. Users have no foreign keys and
// migrate first.
func NewUserMigrator() *EntityMigrator {
	return &EntityMigrator{
		EntityType: EntityUser,
		Table:      "users",
		Transform: func(ctx context.Context, rec bubble.Record, fk FKResolver) (*Row, []Junction, error) {
			src := decodeUser(rec)

			row := NewRow().
				Set("source_id", src.SourceID).
				Set("email", src.Email).
				Set("full_name", src.FullName).
				Set("is_admin", src.IsAdmin).
				Set("source_created_at", nullTime(src.CreatedAt))

			return row, nil, nil
		},
	}
}
