package request

type InitiatePaymentRequest struct {
	ReservationID string       `json:"reservation_id" validate:"required,uuid4"`
	PaymentMethod string       `json:"payment_method" validate:"required,oneof=card mtn_momo orange_money cash"`
	PaymentData   *PaymentData `json:"payment_data,omitempty"`
}
