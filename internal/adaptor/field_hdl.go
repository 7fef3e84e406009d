package adaptor

import (
	"net/http"
	"time"

	"field-booking/internal/usecase"
	"field-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type FieldHandler struct {
	service usecase.AvailabilityService
	log     *zap.Logger
}

func NewFieldHandler(service usecase.AvailabilityService, log *zap.Logger) *FieldHandler {
	return &FieldHandler{
		service: service,
		log:     log.With(zap.String("handler", "field")),
	}
}

// GetFields handles GET /api/fields (public)
func (h *FieldHandler) GetFields(w http.ResponseWriter, r *http.Request) {
	fields, err := h.service.ListFields(r.Context())
	if err != nil {
		handleServiceError(w, h.log, err, "list fields")
		return
	}

	utils.ResponseSuccess(w, "success", fields)
}

// GetFieldSlots handles GET /api/fields/{id}/slots?date=YYYY-MM-DD (public)
func (h *FieldHandler) GetFieldSlots(w http.ResponseWriter, r *http.Request) {
	fieldID := chi.URLParam(r, "id")
	if fieldID == "" {
		utils.ResponseBadRequest(w, "Field ID is required", nil)
		return
	}

	date, err := time.Parse("2006-01-02", r.URL.Query().Get("date"))
	if err != nil {
		utils.ResponseBadRequest(w, "Query parameter date is required as YYYY-MM-DD", nil)
		return
	}

	slots, err := h.service.ListFieldSlots(r.Context(), fieldID, date)
	if err != nil {
		handleServiceError(w, h.log, err, "list field slots")
		return
	}

	utils.ResponseSuccess(w, "success", slots)
}
