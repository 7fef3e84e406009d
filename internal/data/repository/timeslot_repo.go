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

type TimeSlotRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.TimeSlot, error)
	FindByFieldID(ctx context.Context, fieldID uuid.UUID) ([]*entity.TimeSlot, error)
}

type timeSlotRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewTimeSlotRepository(db database.Querier, log *zap.Logger) TimeSlotRepository {
	return &timeSlotRepository{
		db:  db,
		log: log.With(zap.String("repository", "time_slot")),
	}
}

func (r *timeSlotRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.TimeSlot, error) {
	query := `
		SELECT id, field_id, date_from, date_to, day_of_week, start_time, end_time, price, available, created_at, updated_at
		FROM time_slots
		WHERE id = $1
	`

	var slot entity.TimeSlot
	err := r.db.QueryRow(ctx, query, id).Scan(
		&slot.ID,
		&slot.FieldID,
		&slot.DateFrom,
		&slot.DateTo,
		&slot.DayOfWeek,
		&slot.StartTime,
		&slot.EndTime,
		&slot.Price,
		&slot.Available,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find time slot by ID",
			zap.Error(err),
			zap.String("time_slot_id", id.String()),
		)
		return nil, fmt.Errorf("find time slot by ID %s: %w", id.String(), err)
	}

	return &slot, nil
}

func (r *timeSlotRepository) FindByFieldID(ctx context.Context, fieldID uuid.UUID) ([]*entity.TimeSlot, error) {
	query := `
		SELECT id, field_id, date_from, date_to, day_of_week, start_time, end_time, price, available, created_at, updated_at
		FROM time_slots
		WHERE field_id = $1
		ORDER BY start_time
	`

	rows, err := r.db.Query(ctx, query, fieldID)
	if err != nil {
		r.log.Error("Failed to find time slots by field ID",
			zap.Error(err),
			zap.String("field_id", fieldID.String()),
		)
		return nil, fmt.Errorf("find time slots by field ID %s: %w", fieldID.String(), err)
	}
	defer rows.Close()

	var slots []*entity.TimeSlot
	for rows.Next() {
		var slot entity.TimeSlot
		err := rows.Scan(
			&slot.ID,
			&slot.FieldID,
			&slot.DateFrom,
			&slot.DateTo,
			&slot.DayOfWeek,
			&slot.StartTime,
			&slot.EndTime,
			&slot.Price,
			&slot.Available,
			&slot.CreatedAt,
			&slot.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan time slot row", zap.Error(err))
			return nil, fmt.Errorf("scan time slot row: %w", err)
		}
		slots = append(slots, &slot)
	}

	return slots, nil
}
