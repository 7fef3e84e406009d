package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"field-booking/internal/data/entity"
	"field-booking/internal/data/repository"
	"field-booking/internal/dto/request"
	"field-booking/internal/dto/response"
	"field-booking/internal/notify"
	"field-booking/internal/payment"
	"field-booking/pkg/apperror"
	"field-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrCodeUnreachable marks network-level provider failures, mapped to
// 502 at the boundary; provider-refused requests keep their own code.
const ErrCodeUnreachable = "provider_unreachable"

// paymentOrchestrator dispatches an intent to the channel adapter and
// records the resulting Payment row. It always runs on the repository
// of the surrounding transaction.
type paymentOrchestrator struct {
	channels map[entity.PaymentMethod]payment.Initiator
	currency string
	log      *zap.Logger
}

func newPaymentOrchestrator(channels map[entity.PaymentMethod]payment.Initiator, currency string, log *zap.Logger) *paymentOrchestrator {
	return &paymentOrchestrator{
		channels: channels,
		currency: currency,
		log:      log.With(zap.String("service", "payment_orchestrator")),
	}
}

type intentOutcome struct {
	Payment  *entity.Payment
	Result   *payment.Result
	Existing bool
}

func (o *paymentOrchestrator) initiate(
	ctx context.Context,
	repo *repository.Repository,
	res *entity.Reservation,
	payer *entity.User,
	method entity.PaymentMethod,
	phone string,
) (*intentOutcome, error) {
	if !method.Valid() {
		return nil, apperror.Validation("payment method %s is not supported", string(method))
	}

	// Retried initiations must not pile up intents: reuse the pending one.
	existing, err := repo.Payment.FindPendingByReservationID(ctx, res.ID)
	if err != nil {
		return nil, apperror.Internal("look up pending payment", err)
	}
	if existing != nil {
		var result payment.Result
		if len(existing.Details) > 0 {
			_ = json.Unmarshal(existing.Details, &result)
		}
		o.log.Info("Reusing pending payment intent",
			zap.String("payment_id", existing.ID.String()),
			zap.String("reservation_id", res.ID.String()),
		)
		return &intentOutcome{Payment: existing, Result: &result, Existing: true}, nil
	}

	initiator, ok := o.channels[method]
	if !ok {
		return nil, apperror.Validation("payment method %s is not configured", string(method))
	}

	intentReq := payment.IntentRequest{
		ReservationID: res.ID,
		Reference:     res.Reference,
		Amount:        res.TotalPrice,
		Currency:      o.currency,
	}
	if payer != nil {
		intentReq.PayerName = payer.Name
		intentReq.PayerEmail = payer.Email
		intentReq.PayerPhone = payer.Phone
	}
	if phone != "" {
		intentReq.PayerPhone = phone
	}

	result, err := initiator.Initiate(ctx, intentReq)
	if err != nil {
		var pe *payment.Error
		if errors.As(err, &pe) {
			return nil, apperror.Payment(pe.Code, "payment initiation refused: %s", pe.Message)
		}
		return nil, apperror.Payment(ErrCodeUnreachable, "payment provider unavailable: %v", err)
	}

	details, err := json.Marshal(result)
	if err != nil {
		return nil, apperror.Internal("marshal payment details", err)
	}

	now := time.Now()
	pay := &entity.Payment{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		ReservationID: res.ID,
		Amount:        res.TotalPrice,
		Method:        method,
		Status:        entity.PaymentStatusPending,
		TransactionID: &result.TransactionID,
		Details:       details,
	}

	if err := repo.Payment.Create(ctx, pay); err != nil {
		return nil, apperror.Internal("create payment intent", err)
	}

	// Cash occupies the slot immediately: the booking is confirmed and
	// the money is collected in person later.
	if method == entity.PaymentMethodCash {
		status := res.Status
		if status == entity.ReservationStatusPending {
			status = entity.ReservationStatusConfirmed
		}
		if err := repo.Reservation.UpdateStatus(ctx, res.ID, status, entity.ReservationPaymentPendingCash); err != nil {
			return nil, apperror.Internal("confirm cash reservation", err)
		}
		res.Status = status
		res.PaymentStatus = entity.ReservationPaymentPendingCash
	}

	o.log.Info("Payment intent created",
		zap.String("payment_id", pay.ID.String()),
		zap.String("reservation_id", res.ID.String()),
		zap.String("method", string(method)),
		zap.String("transaction_id", result.TransactionID),
	)

	return &intentOutcome{Payment: pay, Result: result}, nil
}

type PaymentService interface {
	InitiatePayment(ctx context.Context, userID string, req *request.InitiatePaymentRequest) (*response.PaymentInitiationResponse, error)
	GetPayment(ctx context.Context, userID, role, paymentID string) (*response.PaymentResponse, error)

	// ConfirmCashPayment lets the field's administrator mark a cash
	// intent as collected.
	ConfirmCashPayment(ctx context.Context, adminID, paymentID string) (*response.PaymentResponse, error)
}

type paymentService struct {
	repo         *repository.Repository
	orchestrator *paymentOrchestrator
	publisher    *notify.Publisher
	log          *zap.Logger
}

func NewPaymentService(repo *repository.Repository, orchestrator *paymentOrchestrator, publisher *notify.Publisher, log *zap.Logger) PaymentService {
	return &paymentService{
		repo:         repo,
		orchestrator: orchestrator,
		publisher:    publisher,
		log:          log.With(zap.String("service", "payment")),
	}
}

func (s *paymentService) InitiatePayment(ctx context.Context, userID string, req *request.InitiatePaymentRequest) (*response.PaymentInitiationResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, apperror.Validation("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, apperror.Validation("invalid user ID format %s", userID)
	}
	reservationID, err := uuid.Parse(req.ReservationID)
	if err != nil {
		return nil, apperror.Validation("invalid reservation ID format %s", req.ReservationID)
	}

	payer, err := s.repo.User.FindByID(ctx, userUUID)
	if err != nil {
		return nil, apperror.Internal("look up payer", err)
	}

	phone := ""
	if req.PaymentData != nil {
		phone = req.PaymentData.PhoneNumber
	}

	var outcome *intentOutcome
	err = s.repo.Tx.RunInTx(ctx, func(r *repository.Repository) error {
		res, err := r.Reservation.FindByID(ctx, reservationID)
		if err != nil {
			return apperror.Internal("look up reservation", err)
		}
		if res == nil {
			return apperror.NotFound("reservation %s not found", req.ReservationID)
		}
		if res.UserID != userUUID {
			return apperror.Authorization("reservation belongs to another user")
		}
		if res.Status.IsTerminal() {
			return apperror.Validation("cannot pay for a %s reservation", string(res.Status))
		}
		if res.PaymentStatus == entity.ReservationPaymentPaid {
			return apperror.Validation("reservation is already paid")
		}

		outcome, err = s.orchestrator.initiate(ctx, r, res, payer, entity.PaymentMethod(req.PaymentMethod), phone)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &response.PaymentInitiationResponse{
		Payment:      response.PaymentToResponse(outcome.Payment),
		RedirectURL:  outcome.Result.RedirectURL,
		Instructions: outcome.Result.Instructions,
	}, nil
}

func (s *paymentService) GetPayment(ctx context.Context, userID, role, paymentID string) (*response.PaymentResponse, error) {
	id, err := uuid.Parse(paymentID)
	if err != nil {
		return nil, apperror.Validation("invalid payment ID format %s", paymentID)
	}
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, apperror.Validation("invalid user ID format %s", userID)
	}

	pay, err := s.repo.Payment.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal("look up payment", err)
	}
	if pay == nil {
		return nil, apperror.NotFound("payment %s not found", paymentID)
	}

	if role != "admin" {
		res, err := s.repo.Reservation.FindByID(ctx, pay.ReservationID)
		if err != nil {
			return nil, apperror.Internal("look up reservation", err)
		}
		if res == nil || res.UserID != userUUID {
			return nil, apperror.Authorization("payment belongs to another user")
		}
	}

	resp := response.PaymentToResponse(pay)
	return &resp, nil
}

func (s *paymentService) ConfirmCashPayment(ctx context.Context, adminID, paymentID string) (*response.PaymentResponse, error) {
	id, err := uuid.Parse(paymentID)
	if err != nil {
		return nil, apperror.Validation("invalid payment ID format %s", paymentID)
	}
	adminUUID, err := uuid.Parse(adminID)
	if err != nil {
		return nil, apperror.Validation("invalid user ID format %s", adminID)
	}

	var confirmed *entity.Payment
	err = s.repo.Tx.RunInTx(ctx, func(r *repository.Repository) error {
		pay, err := r.Payment.FindByID(ctx, id)
		if err != nil {
			return apperror.Internal("look up payment", err)
		}
		if pay == nil {
			return apperror.NotFound("payment %s not found", paymentID)
		}
		if pay.Method != entity.PaymentMethodCash {
			return apperror.Validation("only cash payments can be confirmed manually")
		}

		res, err := r.Reservation.FindByID(ctx, pay.ReservationID)
		if err != nil {
			return apperror.Internal("look up reservation", err)
		}
		if res == nil {
			return apperror.NotFound("reservation %s not found", pay.ReservationID.String())
		}

		field, err := r.Field.FindByID(ctx, res.FieldID)
		if err != nil {
			return apperror.Internal("look up field", err)
		}
		if field == nil || field.OwnerID != adminUUID {
			return apperror.Authorization("only the field's administrator can confirm this payment")
		}

		applied, err := r.Payment.UpdateStatusIfPending(ctx, pay.ID, entity.PaymentStatusCompleted, nil)
		if err != nil {
			return apperror.Internal("confirm payment", err)
		}
		if !applied {
			return apperror.Validation("payment is already %s", string(pay.Status))
		}

		status := res.Status
		if status == entity.ReservationStatusPending {
			status = entity.ReservationStatusConfirmed
		}
		if err := r.Reservation.UpdateStatus(ctx, res.ID, status, entity.ReservationPaymentPaid); err != nil {
			return apperror.Internal("mark reservation paid", err)
		}

		pay.Status = entity.PaymentStatusCompleted
		confirmed = pay
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Cash payment confirmed",
		zap.String("payment_id", confirmed.ID.String()),
		zap.String("admin_id", adminID),
	)

	event := notify.PaymentEvent{
		Event:         notify.RoutePaymentCompleted,
		Version:       1,
		OccurredAt:    time.Now().UTC(),
		PaymentID:     confirmed.ID.String(),
		ReservationID: confirmed.ReservationID.String(),
		Method:        string(confirmed.Method),
		Amount:        confirmed.Amount,
	}
	if confirmed.TransactionID != nil {
		event.TransactionID = *confirmed.TransactionID
	}
	go s.publisher.PublishJSON(context.Background(), notify.RoutePaymentCompleted, event)

	resp := response.PaymentToResponse(confirmed)
	return &resp, nil
}
