package usecase

import (
	"context"
	"time"

	"field-booking/internal/data/entity"
	"field-booking/internal/data/repository"
	"field-booking/internal/dto/request"
	"field-booking/internal/dto/response"
	"field-booking/internal/notify"
	"field-booking/pkg/apperror"
	"field-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReservationService interface {
	// CreateReservation books a slot without taking payment. The slot
	// hold, promo consumption and reservation insert commit together.
	CreateReservation(ctx context.Context, userID string, req *request.CreateReservationRequest) (*response.ReservationResponse, error)

	// CreateReservationWithPayment additionally opens a payment intent
	// in the same transaction: if the provider refuses, nothing is kept.
	CreateReservationWithPayment(ctx context.Context, userID string, req *request.CreateReservationWithPaymentRequest) (*response.ReservationWithPaymentResponse, error)

	GetUserReservations(ctx context.Context, userID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReservationResponse], error)
	GetReservationByID(ctx context.Context, reservationID string) (*response.ReservationResponse, error)

	// CancelReservation applies the refund policy and records any refund
	// as a new negative payment row. Existing rows are never rewritten.
	CancelReservation(ctx context.Context, userID, role, reservationID string) (*response.CancellationResponse, error)
}

type reservationService struct {
	repo         *repository.Repository
	availability AvailabilityService
	pricing      PricingService
	orchestrator *paymentOrchestrator
	publisher    *notify.Publisher
	log          *zap.Logger
}

func NewReservationService(
	repo *repository.Repository,
	availability AvailabilityService,
	pricing PricingService,
	orchestrator *paymentOrchestrator,
	publisher *notify.Publisher,
	log *zap.Logger,
) ReservationService {
	return &reservationService{
		repo:         repo,
		availability: availability,
		pricing:      pricing,
		orchestrator: orchestrator,
		publisher:    publisher,
		log:          log.With(zap.String("service", "reservation")),
	}
}

// prepared carries the validated inputs from the read phase into the
// write transaction.
type prepared struct {
	check       *SlotCheck
	promo       *entity.PromoCode
	reservation *entity.Reservation
}

func (s *reservationService) prepare(ctx context.Context, userID string, req *request.CreateReservationRequest) (*prepared, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperror.Validation("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, apperror.Validation("invalid user ID format %s", userID)
	}
	fieldID, err := uuid.Parse(req.FieldID)
	if err != nil {
		return nil, apperror.Validation("invalid field ID format %s", req.FieldID)
	}
	slotID, err := uuid.Parse(req.TimeSlotID)
	if err != nil {
		return nil, apperror.Validation("invalid time slot ID format %s", req.TimeSlotID)
	}
	date, err := time.Parse("2006-01-02", req.ReservationDate)
	if err != nil {
		return nil, apperror.Validation("invalid reservation date %s, expected YYYY-MM-DD", req.ReservationDate)
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if date.Before(today) {
		return nil, apperror.Validation("cannot book a date in the past")
	}

	check, err := s.availability.CheckSlot(ctx, SlotRequest{
		FieldID:    fieldID,
		TimeSlotID: slotID,
		Date:       date,
		StartTime:  req.StartTime,
	})
	if err != nil {
		return nil, err
	}

	var promo *entity.PromoCode
	if req.PromoCode != "" {
		pv, err := s.pricing.ValidatePromo(ctx, req.PromoCode, now)
		if err != nil {
			return nil, err
		}
		if !pv.Valid {
			return nil, apperror.Validation("%s", pv.Reason)
		}
		promo = pv.Promo
	}

	total := s.pricing.ComputeTotal(check.Field, check.Slot, promo, req.WithEquipment)

	res := &entity.Reservation{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Reference:       utils.GenerateReference(),
		UserID:          userUUID,
		FieldID:         fieldID,
		TimeSlotID:      slotID,
		ReservationDate: date,
		StartTime:       check.StartTime,
		EndTime:         check.EndTime,
		Status:          entity.ReservationStatusPending,
		PaymentStatus:   entity.ReservationPaymentPending,
		TotalPrice:      total,
		Notes:           req.Notes,
	}
	if promo != nil {
		promoID := promo.ID
		res.PromoCodeID = &promoID
	}

	return &prepared{check: check, promo: promo, reservation: res}, nil
}

// persist runs the write phase. The promo usage guard and the partial
// unique slot index are the authoritative concurrency controls; losers
// roll back whole.
func (s *reservationService) persist(ctx context.Context, r *repository.Repository, p *prepared) error {
	if p.promo != nil {
		ok, err := r.Promo.ConsumeUsage(ctx, p.promo.ID)
		if err != nil {
			return apperror.Internal("consume promo usage", err)
		}
		if !ok {
			return apperror.Conflict("promo code usage limit reached")
		}
	}

	if err := r.Reservation.Create(ctx, p.reservation); err != nil {
		if repository.IsUniqueViolation(err) {
			return apperror.Conflict("this slot is already reserved")
		}
		return apperror.Internal("create reservation", err)
	}

	return nil
}

func (s *reservationService) publishCreated(res *entity.Reservation) {
	event := notify.ReservationEvent{
		Event:         notify.RouteReservationCreated,
		Version:       1,
		OccurredAt:    time.Now().UTC(),
		ReservationID: res.ID.String(),
		Reference:     res.Reference,
		UserID:        res.UserID.String(),
		FieldID:       res.FieldID.String(),
		TotalPrice:    res.TotalPrice,
	}
	go s.publisher.PublishJSON(context.Background(), notify.RouteReservationCreated, event)
}

func (s *reservationService) CreateReservation(ctx context.Context, userID string, req *request.CreateReservationRequest) (*response.ReservationResponse, error) {
	p, err := s.prepare(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	err = s.repo.Tx.RunInTx(ctx, func(r *repository.Repository) error {
		return s.persist(ctx, r, p)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Reservation created",
		zap.String("reservation_id", p.reservation.ID.String()),
		zap.String("reference", p.reservation.Reference),
		zap.Float64("total_price", p.reservation.TotalPrice),
	)
	s.publishCreated(p.reservation)

	resp := response.ReservationToResponse(p.reservation)
	resp.FieldName = p.check.Field.Name
	resp.PromoCode = req.PromoCode
	return &resp, nil
}

func (s *reservationService) CreateReservationWithPayment(ctx context.Context, userID string, req *request.CreateReservationWithPaymentRequest) (*response.ReservationWithPaymentResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperror.Validation("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	p, err := s.prepare(ctx, userID, &req.CreateReservationRequest)
	if err != nil {
		return nil, err
	}

	payer, err := s.repo.User.FindByID(ctx, p.reservation.UserID)
	if err != nil {
		return nil, apperror.Internal("look up payer", err)
	}

	phone := ""
	if req.PaymentData != nil {
		phone = req.PaymentData.PhoneNumber
	}

	var outcome *intentOutcome
	err = s.repo.Tx.RunInTx(ctx, func(r *repository.Repository) error {
		if err := s.persist(ctx, r, p); err != nil {
			return err
		}

		outcome, err = s.orchestrator.initiate(ctx, r, p.reservation, payer, entity.PaymentMethod(req.PaymentMethod), phone)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Reservation created with payment",
		zap.String("reservation_id", p.reservation.ID.String()),
		zap.String("reference", p.reservation.Reference),
		zap.String("payment_method", req.PaymentMethod),
	)
	s.publishCreated(p.reservation)

	resResp := response.ReservationToResponse(p.reservation)
	resResp.FieldName = p.check.Field.Name
	resResp.PromoCode = req.PromoCode

	return &response.ReservationWithPaymentResponse{
		Reservation: resResp,
		Payment: &response.PaymentInitiationResponse{
			Payment:      response.PaymentToResponse(outcome.Payment),
			RedirectURL:  outcome.Result.RedirectURL,
			Instructions: outcome.Result.Instructions,
		},
	}, nil
}

func (s *reservationService) GetUserReservations(ctx context.Context, userID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.ReservationResponse], error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, apperror.Validation("invalid user ID format %s", userID)
	}

	reservations, err := s.repo.Reservation.FindByUserID(ctx, userUUID, req.Limit(), req.Offset())
	if err != nil {
		return nil, apperror.Internal("list reservations", err)
	}
	total, err := s.repo.Reservation.CountByUserID(ctx, userUUID)
	if err != nil {
		return nil, apperror.Internal("count reservations", err)
	}

	items := make([]response.ReservationResponse, 0, len(reservations))
	for _, res := range reservations {
		item := response.ReservationToResponse(res)

		if pay, err := s.repo.Payment.FindLatestByReservationID(ctx, res.ID); err == nil && pay != nil {
			payResp := response.PaymentToResponse(pay)
			item.Payment = &payResp
		}

		items = append(items, item)
	}

	return response.NewPaginatedResponse(items, req.Page, req.Limit(), total), nil
}

func (s *reservationService) GetReservationByID(ctx context.Context, reservationID string) (*response.ReservationResponse, error) {
	id, err := uuid.Parse(reservationID)
	if err != nil {
		return nil, apperror.Validation("invalid reservation ID format %s", reservationID)
	}

	res, err := s.repo.Reservation.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal("look up reservation", err)
	}
	if res == nil {
		return nil, apperror.NotFound("reservation %s not found", reservationID)
	}

	resp := response.ReservationToResponse(res)

	if field, err := s.repo.Field.FindByID(ctx, res.FieldID); err == nil && field != nil {
		resp.FieldName = field.Name
	}
	if res.PromoCodeID != nil {
		if promo, err := s.repo.Promo.FindByID(ctx, *res.PromoCodeID); err == nil && promo != nil {
			resp.PromoCode = promo.Code
		}
	}
	if pay, err := s.repo.Payment.FindLatestByReservationID(ctx, res.ID); err == nil && pay != nil {
		payResp := response.PaymentToResponse(pay)
		resp.Payment = &payResp
	}

	return &resp, nil
}

func (s *reservationService) CancelReservation(ctx context.Context, userID, role, reservationID string) (*response.CancellationResponse, error) {
	id, err := uuid.Parse(reservationID)
	if err != nil {
		return nil, apperror.Validation("invalid reservation ID format %s", reservationID)
	}
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, apperror.Validation("invalid user ID format %s", userID)
	}

	now := time.Now()

	var (
		cancelled    *entity.Reservation
		refundAmount float64
		refundPolicy string
	)

	err = s.repo.Tx.RunInTx(ctx, func(r *repository.Repository) error {
		res, err := r.Reservation.FindByID(ctx, id)
		if err != nil {
			return apperror.Internal("look up reservation", err)
		}
		if res == nil {
			return apperror.NotFound("reservation %s not found", reservationID)
		}
		if role != "admin" && res.UserID != userUUID {
			return apperror.Authorization("reservation belongs to another user")
		}
		if res.Status.IsTerminal() {
			return apperror.Validation("reservation is already %s", string(res.Status))
		}

		refundAmount, refundPolicy = ComputeRefund(res.TotalPrice, res.StartInstant(), now)

		// Only money that actually arrived can be refunded.
		completed, err := r.Payment.FindCompletedByReservationID(ctx, res.ID)
		if err != nil {
			return apperror.Internal("look up completed payment", err)
		}

		newPaymentStatus := entity.ReservationPaymentCancelled
		if res.PaymentStatus == entity.ReservationPaymentPaid && completed != nil {
			newPaymentStatus = entity.ReservationPaymentRefunded
		} else {
			refundAmount = 0
			refundPolicy = "no completed payment, nothing to refund"
		}

		applied, err := r.Reservation.Cancel(ctx, res.ID, newPaymentStatus)
		if err != nil {
			return apperror.Internal("cancel reservation", err)
		}
		if !applied {
			return apperror.Validation("reservation is already cancelled or completed")
		}

		if completed != nil && refundAmount > 0 {
			refundID := completed.ID
			refund := &entity.Payment{
				Base: entity.Base{
					ID:        uuid.New(),
					CreatedAt: now,
					UpdatedAt: now,
				},
				ReservationID: res.ID,
				Amount:        -refundAmount,
				Method:        completed.Method,
				Status:        entity.PaymentStatusRefunded,
				RefundOf:      &refundID,
			}
			if err := r.Payment.Create(ctx, refund); err != nil {
				return apperror.Internal("create refund record", err)
			}
		}

		res.Status = entity.ReservationStatusCancelled
		res.PaymentStatus = newPaymentStatus
		cancelled = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Reservation cancelled",
		zap.String("reservation_id", cancelled.ID.String()),
		zap.Float64("refund_amount", refundAmount),
		zap.String("cancelled_by", userID),
	)

	event := notify.ReservationEvent{
		Event:         notify.RouteReservationCancelled,
		Version:       1,
		OccurredAt:    time.Now().UTC(),
		ReservationID: cancelled.ID.String(),
		Reference:     cancelled.Reference,
		UserID:        cancelled.UserID.String(),
		FieldID:       cancelled.FieldID.String(),
		TotalPrice:    cancelled.TotalPrice,
		RefundAmount:  refundAmount,
	}
	go s.publisher.PublishJSON(context.Background(), notify.RouteReservationCancelled, event)

	return &response.CancellationResponse{
		ReservationID: cancelled.ID.String(),
		Status:        cancelled.Status,
		PaymentStatus: cancelled.PaymentStatus,
		RefundAmount:  refundAmount,
		RefundPolicy:  refundPolicy,
	}, nil
}
