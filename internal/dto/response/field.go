package response

import (
	"field-booking/internal/data/entity"
)

type FieldResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Location     string  `json:"location,omitempty"`
	PricePerHour float64 `json:"price_per_hour"`
}

// SlotAvailabilityResponse describes one slot of a field on a concrete
// date, with the price that would apply.
type SlotAvailabilityResponse struct {
	ID        string  `json:"id"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Price     float64 `json:"price"`
	Available bool    `json:"available"`
}

func FieldToResponse(field *entity.Field) FieldResponse {
	return FieldResponse{
		ID:           field.ID.String(),
		Name:         field.Name,
		Location:     field.Location,
		PricePerHour: field.PricePerHour,
	}
}
