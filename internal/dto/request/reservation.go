package request

// CreateReservationRequest is the single canonical booking body. The
// handler decodes exactly these snake_case fields; there are no
// fallback aliases.
type CreateReservationRequest struct {
	FieldID         string `json:"field_id" validate:"required,uuid4"`
	TimeSlotID      string `json:"time_slot_id" validate:"required,uuid4"`
	ReservationDate string `json:"reservation_date" validate:"required,datetime=2006-01-02"`
	// StartTime accepts "HH:MM" or the compact "HH:MM-HH:MM" range form.
	StartTime     string `json:"start_time" validate:"required"`
	PromoCode     string `json:"promo_code,omitempty"`
	WithEquipment bool   `json:"with_equipment,omitempty"`
	Notes         string `json:"notes,omitempty" validate:"max=500"`
}

type CreateReservationWithPaymentRequest struct {
	CreateReservationRequest
	PaymentMethod string       `json:"payment_method" validate:"required,oneof=card mtn_momo orange_money cash"`
	PaymentData   *PaymentData `json:"payment_data,omitempty"`
}

// PaymentData carries channel-specific initiation inputs.
type PaymentData struct {
	PhoneNumber string `json:"phone_number,omitempty"`
}
