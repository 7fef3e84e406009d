package usecase

import (
	"context"
	"time"

	"field-booking/internal/data/entity"
	"field-booking/internal/data/repository"
	"field-booking/pkg/apperror"
	"field-booking/pkg/utils"

	"go.uber.org/zap"
)

// PromoValidation is the outcome of checking a promo code. Ordinary
// invalidity (inactive, expired, exhausted) is a result, not an error.
type PromoValidation struct {
	Valid  bool
	Reason string
	Promo  *entity.PromoCode
}

type PricingService interface {
	// ValidatePromo checks a code against its active flag, validity
	// window and usage ceiling. Only a missing code is an error.
	ValidatePromo(ctx context.Context, code string, now time.Time) (*PromoValidation, error)

	// ComputeTotal derives the booking price from the slot override or
	// the field hourly rate, plus the optional equipment fee, minus the
	// promo discount.
	ComputeTotal(field *entity.Field, slot *entity.TimeSlot, promo *entity.PromoCode, withEquipment bool) float64
}

type pricingService struct {
	repo    *repository.Repository
	pricing utils.PricingConfig
	log     *zap.Logger
}

func NewPricingService(repo *repository.Repository, pricing utils.PricingConfig, log *zap.Logger) PricingService {
	return &pricingService{
		repo:    repo,
		pricing: pricing,
		log:     log.With(zap.String("service", "pricing")),
	}
}

func (s *pricingService) ValidatePromo(ctx context.Context, code string, now time.Time) (*PromoValidation, error) {
	promo, err := s.repo.Promo.FindByCode(ctx, code)
	if err != nil {
		return nil, apperror.Internal("look up promo code", err)
	}
	if promo == nil {
		return nil, apperror.NotFound("promo code %s not found", code)
	}

	if !promo.Active {
		return &PromoValidation{Valid: false, Reason: "promo code is no longer active", Promo: promo}, nil
	}
	if now.Before(promo.ValidFrom) {
		return &PromoValidation{Valid: false, Reason: "promo code is not valid yet", Promo: promo}, nil
	}
	if now.After(promo.ValidUntil) {
		return &PromoValidation{Valid: false, Reason: "promo code has expired", Promo: promo}, nil
	}
	if promo.Exhausted() {
		return &PromoValidation{Valid: false, Reason: "promo code usage limit reached", Promo: promo}, nil
	}

	return &PromoValidation{Valid: true, Promo: promo}, nil
}

func (s *pricingService) ComputeTotal(field *entity.Field, slot *entity.TimeSlot, promo *entity.PromoCode, withEquipment bool) float64 {
	base := field.PricePerHour
	if slot.Price != nil {
		base = *slot.Price
	}

	// Bad pricing data should not block a booking. Charge the
	// configured fallback and flag the row for cleanup.
	if base <= 0 {
		s.log.Warn("Base price missing or non-positive, using fallback",
			zap.String("field_id", field.ID.String()),
			zap.String("time_slot_id", slot.ID.String()),
			zap.Float64("fallback_price", s.pricing.FallbackPrice),
		)
		base = s.pricing.FallbackPrice
	}

	total := base
	if withEquipment {
		total += s.pricing.EquipmentFee
	}

	if promo != nil {
		total = promo.ApplyDiscount(total)
	}

	return total
}
