package usecase

import (
	"field-booking/internal/data/entity"
	"field-booking/internal/data/repository"
	"field-booking/internal/notify"
	"field-booking/internal/payment"
	"field-booking/pkg/utils"

	"go.uber.org/zap"
)

// Service bundles the use cases behind one constructor so wiring stays
// in one place.
type Service struct {
	Availability AvailabilityService
	Pricing      PricingService
	Reservation  ReservationService
	Payment      PaymentService
	Reconcile    ReconcileService
}

func NewService(
	repo *repository.Repository,
	channels map[entity.PaymentMethod]payment.Initiator,
	cfg *utils.Config,
	publisher *notify.Publisher,
	log *zap.Logger,
) *Service {
	availability := NewAvailabilityService(repo, log)
	pricing := NewPricingService(repo, cfg.Pricing, log)
	orchestrator := newPaymentOrchestrator(channels, cfg.Payment.Currency, log)

	return &Service{
		Availability: availability,
		Pricing:      pricing,
		Reservation:  NewReservationService(repo, availability, pricing, orchestrator, publisher, log),
		Payment:      NewPaymentService(repo, orchestrator, publisher, log),
		Reconcile:    NewReconcileService(repo, publisher, log),
	}
}
