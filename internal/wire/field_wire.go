package wire

import (
	"field-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireField(r chi.Router, fieldHandler *adaptor.FieldHandler) {
	// ==================== PUBLIC ROUTES ====================
	// GET /api/fields - Browse fields open for booking
	r.Get("/api/fields", fieldHandler.GetFields)

	// GET /api/fields/{id}/slots?date=YYYY-MM-DD - Slot availability for a date
	r.Get("/api/fields/{id}/slots", fieldHandler.GetFieldSlots)
}
