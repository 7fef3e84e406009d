package adaptor

import (
	"errors"
	"net/http"

	"field-booking/internal/usecase"
	"field-booking/pkg/apperror"
	"field-booking/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Field       *FieldHandler
	Reservation *ReservationHandler
	Payment     *PaymentHandler
	Webhook     *WebhookHandler
}

func NewHandler(service *usecase.Service, cfg *utils.Config, log *zap.Logger) *Handler {
	return &Handler{
		Field:       NewFieldHandler(service.Availability, log),
		Reservation: NewReservationHandler(service.Reservation, log),
		Payment:     NewPaymentHandler(service.Payment, log),
		Webhook:     NewWebhookHandler(service.Reconcile, cfg.Payment, log),
	}
}

// handleServiceError maps a use case error to the HTTP envelope by its
// kind, so handlers never match on message text.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		log.Warn(operation+" failed - validation",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case apperror.KindNotFound:
		log.Warn(operation+" failed - not found",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseNotFound(w, err.Error())

	case apperror.KindAuthorization:
		log.Warn(operation+" failed - forbidden",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseForbidden(w, err.Error())

	case apperror.KindConflict:
		log.Warn(operation+" failed - conflict",
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseConflict(w, err.Error())

	case apperror.KindPayment:
		log.Warn(operation+" failed - payment",
			zap.Error(err),
			zap.String("operation", operation))
		var e *apperror.Error
		if errors.As(err, &e) && e.Code == usecase.ErrCodeUnreachable {
			utils.ResponseBadGateway(w, err.Error())
			return
		}
		utils.ResponseBadRequest(w, err.Error(), nil)

	default:
		log.Error("Failed to "+operation,
			zap.Error(err),
			zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
