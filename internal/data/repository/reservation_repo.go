package repository

import (
	"context"
	"fmt"
	"time"

	"field-booking/internal/data/entity"
	"field-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ReservationRepository interface {
	Create(ctx context.Context, reservation *entity.Reservation) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Reservation, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)

	// Business queries
	FindActiveBySlot(ctx context.Context, fieldID uuid.UUID, date time.Time, startTime string) (*entity.Reservation, error)
	CountActiveBySlot(ctx context.Context, fieldID uuid.UUID, date time.Time, startTime string) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ReservationStatus, paymentStatus entity.ReservationPaymentStatus) error
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, paymentStatus entity.ReservationPaymentStatus) error

	// Cancel flips a reservation to cancelled only if it is still in a
	// cancellable state, so concurrent cancellations apply once.
	Cancel(ctx context.Context, id uuid.UUID, paymentStatus entity.ReservationPaymentStatus) (bool, error)
}

type reservationRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewReservationRepository(db database.Querier, log *zap.Logger) ReservationRepository {
	return &reservationRepository{
		db:  db,
		log: log.With(zap.String("repository", "reservation")),
	}
}

const reservationColumns = `id, reference, user_id, field_id, time_slot_id, reservation_date, start_time, end_time, status, payment_status, total_price, promo_code_id, notes, created_at, updated_at`

func scanReservation(row pgx.Row) (*entity.Reservation, error) {
	var res entity.Reservation
	err := row.Scan(
		&res.ID,
		&res.Reference,
		&res.UserID,
		&res.FieldID,
		&res.TimeSlotID,
		&res.ReservationDate,
		&res.StartTime,
		&res.EndTime,
		&res.Status,
		&res.PaymentStatus,
		&res.TotalPrice,
		&res.PromoCodeID,
		&res.Notes,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *reservationRepository) Create(ctx context.Context, reservation *entity.Reservation) error {
	query := `
		INSERT INTO reservations (` + reservationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.Exec(ctx, query,
		reservation.ID,
		reservation.Reference,
		reservation.UserID,
		reservation.FieldID,
		reservation.TimeSlotID,
		reservation.ReservationDate,
		reservation.StartTime,
		reservation.EndTime,
		reservation.Status,
		reservation.PaymentStatus,
		reservation.TotalPrice,
		reservation.PromoCodeID,
		reservation.Notes,
		reservation.CreatedAt,
		reservation.UpdatedAt,
	)

	if err != nil {
		// Unique violations on the slot index are an expected race
		// outcome, not a storage fault.
		if !IsUniqueViolation(err) {
			r.log.Error("Failed to create reservation",
				zap.Error(err),
				zap.String("reference", reservation.Reference),
				zap.String("user_id", reservation.UserID.String()),
			)
		}
		return fmt.Errorf("create reservation %s: %w", reservation.Reference, err)
	}

	return nil
}

func (r *reservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	res, err := scanReservation(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find reservation by ID",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
		)
		return nil, fmt.Errorf("find reservation by ID %s: %w", id.String(), err)
	}

	return res, nil
}

func (r *reservationRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find reservations by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find reservations by user ID %s: %w", userID.String(), err)
	}
	defer rows.Close()

	var reservations []*entity.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			r.log.Error("Failed to scan reservation row", zap.Error(err))
			return nil, fmt.Errorf("scan reservation row: %w", err)
		}
		reservations = append(reservations, res)
	}

	return reservations, nil
}

func (r *reservationRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM reservations WHERE user_id = $1`

	var count int64
	err := r.db.QueryRow(ctx, query, userID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count reservations by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("count reservations by user ID %s: %w", userID.String(), err)
	}

	return count, nil
}

func (r *reservationRepository) FindActiveBySlot(ctx context.Context, fieldID uuid.UUID, date time.Time, startTime string) (*entity.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE field_id = $1 AND reservation_date = $2 AND start_time = $3 AND status <> 'cancelled'
		LIMIT 1
	`

	res, err := scanReservation(r.db.QueryRow(ctx, query, fieldID, date, startTime))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find active reservation for slot",
			zap.Error(err),
			zap.String("field_id", fieldID.String()),
			zap.Time("date", date),
			zap.String("start_time", startTime),
		)
		return nil, fmt.Errorf("find active reservation for field %s: %w", fieldID.String(), err)
	}

	return res, nil
}

func (r *reservationRepository) CountActiveBySlot(ctx context.Context, fieldID uuid.UUID, date time.Time, startTime string) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM reservations
		WHERE field_id = $1 AND reservation_date = $2 AND start_time = $3 AND status <> 'cancelled'
	`

	var count int64
	err := r.db.QueryRow(ctx, query, fieldID, date, startTime).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count active reservations for slot",
			zap.Error(err),
			zap.String("field_id", fieldID.String()),
		)
		return 0, fmt.Errorf("count active reservations for field %s: %w", fieldID.String(), err)
	}

	return count, nil
}

func (r *reservationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ReservationStatus, paymentStatus entity.ReservationPaymentStatus) error {
	query := `
		UPDATE reservations
		SET status = $2, payment_status = $3, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, id, status, paymentStatus)
	if err != nil {
		r.log.Error("Failed to update reservation status",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
			zap.String("status", string(status)),
			zap.String("payment_status", string(paymentStatus)),
		)
		return fmt.Errorf("update reservation %s status to %s: %w", id.String(), string(status), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("reservation %s not found", id.String())
	}

	return nil
}

func (r *reservationRepository) Cancel(ctx context.Context, id uuid.UUID, paymentStatus entity.ReservationPaymentStatus) (bool, error) {
	query := `
		UPDATE reservations
		SET status = 'cancelled', payment_status = $2, updated_at = NOW()
		WHERE id = $1 AND status NOT IN ('cancelled', 'completed')
	`

	result, err := r.db.Exec(ctx, query, id, paymentStatus)
	if err != nil {
		r.log.Error("Failed to cancel reservation",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
		)
		return false, fmt.Errorf("cancel reservation %s: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *reservationRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, paymentStatus entity.ReservationPaymentStatus) error {
	query := `UPDATE reservations SET payment_status = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id, paymentStatus)
	if err != nil {
		r.log.Error("Failed to update reservation payment status",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
			zap.String("payment_status", string(paymentStatus)),
		)
		return fmt.Errorf("update reservation %s payment status to %s: %w", id.String(), string(paymentStatus), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("reservation %s not found", id.String())
	}

	return nil
}
