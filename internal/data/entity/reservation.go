package entity

import (
	"time"

	"github.com/google/uuid"
)

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
	ReservationStatusCompleted ReservationStatus = "completed"
)

type ReservationPaymentStatus string

const (
	ReservationPaymentPending     ReservationPaymentStatus = "pending"
	ReservationPaymentPaid        ReservationPaymentStatus = "paid"
	ReservationPaymentRefunded    ReservationPaymentStatus = "refunded"
	ReservationPaymentFailed      ReservationPaymentStatus = "failed"
	ReservationPaymentPendingCash ReservationPaymentStatus = "pending_cash"
	ReservationPaymentCancelled   ReservationPaymentStatus = "cancelled"
)

type Reservation struct {
	Base
	Reference       string                   `db:"reference"`
	UserID          uuid.UUID                `db:"user_id"`
	FieldID         uuid.UUID                `db:"field_id"`
	TimeSlotID      uuid.UUID                `db:"time_slot_id"`
	ReservationDate time.Time                `db:"reservation_date"`
	StartTime       string                   `db:"start_time"` // "HH:MM"
	EndTime         string                   `db:"end_time"`   // "HH:MM"
	Status          ReservationStatus        `db:"status"`
	PaymentStatus   ReservationPaymentStatus `db:"payment_status"`
	TotalPrice      float64                  `db:"total_price"`
	PromoCodeID     *uuid.UUID               `db:"promo_code_id"`
	Notes           string                   `db:"notes"`
}

// StartInstant combines the reservation date and start time into one
// point in time, used for refund tier computation.
func (r *Reservation) StartInstant() time.Time {
	t, err := time.Parse("15:04", r.StartTime)
	if err != nil {
		return r.ReservationDate
	}
	d := r.ReservationDate
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), 0, 0, d.Location())
}

// IsTerminal reports whether no further status transitions are allowed.
func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationStatusCancelled || s == ReservationStatusCompleted
}

// CanTransitionTo encodes the legal reservation status transitions.
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	switch s {
	case ReservationStatusPending:
		return next == ReservationStatusConfirmed || next == ReservationStatusCancelled
	case ReservationStatusConfirmed:
		return next == ReservationStatusCancelled || next == ReservationStatusCompleted
	default:
		return false
	}
}

// ValidStatusPair rejects joint (status, payment_status) combinations
// that no legal transition can produce, e.g. completed+pending.
func ValidStatusPair(s ReservationStatus, p ReservationPaymentStatus) bool {
	switch s {
	case ReservationStatusPending:
		return p == ReservationPaymentPending || p == ReservationPaymentFailed
	case ReservationStatusConfirmed:
		return p == ReservationPaymentPaid || p == ReservationPaymentPendingCash ||
			p == ReservationPaymentPending || p == ReservationPaymentFailed
	case ReservationStatusCancelled:
		return p == ReservationPaymentRefunded || p == ReservationPaymentCancelled
	case ReservationStatusCompleted:
		return p == ReservationPaymentPaid || p == ReservationPaymentPendingCash
	default:
		return false
	}
}
