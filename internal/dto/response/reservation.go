package response

import (
	"time"

	"field-booking/internal/data/entity"
)

type ReservationResponse struct {
	ID              string                          `json:"id"`
	Reference       string                          `json:"reference"`
	UserID          string                          `json:"user_id"`
	FieldID         string                          `json:"field_id"`
	FieldName       string                          `json:"field_name,omitempty"`
	TimeSlotID      string                          `json:"time_slot_id"`
	ReservationDate string                          `json:"reservation_date"`
	StartTime       string                          `json:"start_time"`
	EndTime         string                          `json:"end_time"`
	Status          entity.ReservationStatus        `json:"status"`
	PaymentStatus   entity.ReservationPaymentStatus `json:"payment_status"`
	TotalPrice      float64                         `json:"total_price"`
	PromoCode       string                          `json:"promo_code,omitempty"`
	Notes           string                          `json:"notes,omitempty"`
	Payment         *PaymentResponse                `json:"payment,omitempty"`
	CreatedAt       time.Time                       `json:"created_at"`
}

type CancellationResponse struct {
	ReservationID string                          `json:"reservation_id"`
	Status        entity.ReservationStatus        `json:"status"`
	PaymentStatus entity.ReservationPaymentStatus `json:"payment_status"`
	RefundAmount  float64                         `json:"refund_amount"`
	RefundPolicy  string                          `json:"refund_policy"`
}

type ReservationWithPaymentResponse struct {
	Reservation ReservationResponse        `json:"reservation"`
	Payment     *PaymentInitiationResponse `json:"payment,omitempty"`
}

// ReservationToResponse maps the entity; field name and payment are
// attached by the caller when loaded.
func ReservationToResponse(res *entity.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:              res.ID.String(),
		Reference:       res.Reference,
		UserID:          res.UserID.String(),
		FieldID:         res.FieldID.String(),
		TimeSlotID:      res.TimeSlotID.String(),
		ReservationDate: res.ReservationDate.Format("2006-01-02"),
		StartTime:       res.StartTime,
		EndTime:         res.EndTime,
		Status:          res.Status,
		PaymentStatus:   res.PaymentStatus,
		TotalPrice:      res.TotalPrice,
		Notes:           res.Notes,
		CreatedAt:       res.CreatedAt,
	}
}
