package notify

import "time"

// Routing keys for post-commit events. Delivery is best-effort: the
// booking is already durable before any of these fire.
const (
	RouteReservationCreated   = "reservation.created"
	RouteReservationCancelled = "reservation.cancelled"
	RoutePaymentCompleted     = "payment.completed"
	RoutePaymentFailed        = "payment.failed"
)

type ReservationEvent struct {
	Event         string    `json:"event"`
	Version       int       `json:"version"`
	OccurredAt    time.Time `json:"occurred_at"`
	ReservationID string    `json:"reservation_id"`
	Reference     string    `json:"reference"`
	UserID        string    `json:"user_id"`
	FieldID       string    `json:"field_id"`
	TotalPrice    float64   `json:"total_price"`
	RefundAmount  float64   `json:"refund_amount,omitempty"`
}

type PaymentEvent struct {
	Event         string    `json:"event"`
	Version       int       `json:"version"`
	OccurredAt    time.Time `json:"occurred_at"`
	PaymentID     string    `json:"payment_id"`
	ReservationID string    `json:"reservation_id"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Method        string    `json:"method"`
	Amount        float64   `json:"amount"`
	Reason        string    `json:"reason,omitempty"`
}
