package repository

import (
	"context"
	"fmt"

	"field-booking/internal/data/entity"
	"field-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type FieldRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Field, error)
	FindAllActive(ctx context.Context) ([]*entity.Field, error)
}

type fieldRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewFieldRepository(db database.Querier, log *zap.Logger) FieldRepository {
	return &fieldRepository{
		db:  db,
		log: log.With(zap.String("repository", "field")),
	}
}

func (r *fieldRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Field, error) {
	query := `
		SELECT id, name, location, price_per_hour, owner_id, active, created_at, updated_at
		FROM fields
		WHERE id = $1
	`

	var field entity.Field
	err := r.db.QueryRow(ctx, query, id).Scan(
		&field.ID,
		&field.Name,
		&field.Location,
		&field.PricePerHour,
		&field.OwnerID,
		&field.Active,
		&field.CreatedAt,
		&field.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find field by ID",
			zap.Error(err),
			zap.String("field_id", id.String()),
		)
		return nil, fmt.Errorf("find field by ID %s: %w", id.String(), err)
	}

	return &field, nil
}

func (r *fieldRepository) FindAllActive(ctx context.Context) ([]*entity.Field, error) {
	query := `
		SELECT id, name, location, price_per_hour, owner_id, active, created_at, updated_at
		FROM fields
		WHERE active = true
		ORDER BY name
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("Failed to find active fields", zap.Error(err))
		return nil, fmt.Errorf("find active fields: %w", err)
	}
	defer rows.Close()

	var fields []*entity.Field
	for rows.Next() {
		var field entity.Field
		err := rows.Scan(
			&field.ID,
			&field.Name,
			&field.Location,
			&field.PricePerHour,
			&field.OwnerID,
			&field.Active,
			&field.CreatedAt,
			&field.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan field row", zap.Error(err))
			return nil, fmt.Errorf("scan field row: %w", err)
		}
		fields = append(fields, &field)
	}

	return fields, nil
}
