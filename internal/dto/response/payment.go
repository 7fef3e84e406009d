package response

import (
	"time"

	"field-booking/internal/data/entity"
)

type PaymentResponse struct {
	ID            string               `json:"id"`
	ReservationID string               `json:"reservation_id"`
	Amount        float64              `json:"amount"`
	Method        entity.PaymentMethod `json:"method"`
	Status        entity.PaymentStatus `json:"status"`
	TransactionID *string              `json:"transaction_id,omitempty"`
	RefundOf      *string              `json:"refund_of,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}

// PaymentInitiationResponse is the channel-specific payload returned
// right after a payment intent is created.
type PaymentInitiationResponse struct {
	Payment      PaymentResponse `json:"payment"`
	RedirectURL  string          `json:"redirect_url,omitempty"`
	Instructions string          `json:"instructions,omitempty"`
}

func PaymentToResponse(payment *entity.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:            payment.ID.String(),
		ReservationID: payment.ReservationID.String(),
		Amount:        payment.Amount,
		Method:        payment.Method,
		Status:        payment.Status,
		TransactionID: payment.TransactionID,
		CreatedAt:     payment.CreatedAt,
	}
	if payment.RefundOf != nil {
		refundOf := payment.RefundOf.String()
		resp.RefundOf = &refundOf
	}
	return resp
}
