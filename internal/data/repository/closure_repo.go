package repository

import (
	"context"
	"fmt"
	"time"

	"field-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ClosureRepository interface {
	// ExistsForDate reports whether the date is closed for the given
	// field, either by an all-fields closure or a field-specific one.
	ExistsForDate(ctx context.Context, fieldID uuid.UUID, date time.Time) (bool, error)
}

type closureRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewClosureRepository(db database.Querier, log *zap.Logger) ClosureRepository {
	return &closureRepository{
		db:  db,
		log: log.With(zap.String("repository", "closure")),
	}
}

func (r *closureRepository) ExistsForDate(ctx context.Context, fieldID uuid.UUID, date time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM closures
			WHERE closure_date = $1 AND (field_id IS NULL OR field_id = $2)
		)
	`

	var exists bool
	err := r.db.QueryRow(ctx, query, date, fieldID).Scan(&exists)
	if err != nil {
		r.log.Error("Failed to check closures",
			zap.Error(err),
			zap.String("field_id", fieldID.String()),
			zap.Time("date", date),
		)
		return false, fmt.Errorf("check closures for field %s: %w", fieldID.String(), err)
	}

	return exists, nil
}
