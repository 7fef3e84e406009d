package entity

import (
	"encoding/json"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodMTN    PaymentMethod = "mtn_momo"
	PaymentMethodOrange PaymentMethod = "orange_money"
	PaymentMethodCash   PaymentMethod = "cash"
)

// Payment rows are append-only: refunds are new rows with a negative
// amount linked to the original through RefundOf, never mutations of
// the original row.
type Payment struct {
	Base
	ReservationID uuid.UUID       `db:"reservation_id"`
	Amount        float64         `db:"amount"` // negative for refunds
	Method        PaymentMethod   `db:"method"`
	Status        PaymentStatus   `db:"status"`
	TransactionID *string         `db:"transaction_id"`
	Details       json.RawMessage `db:"details"` // channel-specific opaque payload
	RefundOf      *uuid.UUID      `db:"refund_of"`
}

// IsTerminal reports whether webhook events for this payment are no-ops.
func (s PaymentStatus) IsTerminal() bool {
	return s != PaymentStatusPending
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodMTN, PaymentMethodOrange, PaymentMethodCash:
		return true
	}
	return false
}
