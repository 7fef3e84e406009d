package usecase

import (
	"context"
	"encoding/json"
	"time"

	"field-booking/internal/data/entity"
	"field-booking/internal/data/repository"
	"field-booking/internal/notify"
	"field-booking/pkg/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProviderEvent is the channel-neutral form of a provider callback,
// produced by the per-channel webhook parsers.
type ProviderEvent struct {
	Channel       entity.PaymentMethod
	TransactionID string
	Succeeded     bool
	Reason        string
	Raw           json.RawMessage
}

type ReconcileService interface {
	// ProcessEvent applies a provider outcome to the matching payment
	// and its reservation. Replays of an already-settled transaction
	// are silent no-ops.
	ProcessEvent(ctx context.Context, event *ProviderEvent) error
}

type reconcileService struct {
	repo      *repository.Repository
	publisher *notify.Publisher
	log       *zap.Logger
}

func NewReconcileService(repo *repository.Repository, publisher *notify.Publisher, log *zap.Logger) ReconcileService {
	return &reconcileService{
		repo:      repo,
		publisher: publisher,
		log:       log.With(zap.String("service", "reconcile")),
	}
}

func (s *reconcileService) ProcessEvent(ctx context.Context, event *ProviderEvent) error {
	if event.TransactionID == "" {
		return apperror.Validation("provider event is missing a transaction ID")
	}

	var (
		applied bool
		settled *entity.Payment
	)

	err := s.repo.Tx.RunInTx(ctx, func(r *repository.Repository) error {
		pay, err := r.Payment.FindByTransactionID(ctx, event.TransactionID)
		if err != nil {
			return apperror.Internal("look up payment by transaction", err)
		}
		if pay == nil {
			return apperror.NotFound("no payment for transaction %s", event.TransactionID)
		}

		target := entity.PaymentStatusFailed
		if event.Succeeded {
			target = entity.PaymentStatusCompleted
		}

		// The guarded update is what makes replays idempotent: a second
		// delivery finds a non-pending row and changes nothing.
		applied, err = r.Payment.UpdateStatusIfPending(ctx, pay.ID, target, event.Raw)
		if err != nil {
			return apperror.Internal("settle payment", err)
		}
		if !applied {
			s.log.Info("Ignoring replayed provider event",
				zap.String("transaction_id", event.TransactionID),
				zap.String("payment_status", string(pay.Status)),
			)
			return nil
		}

		res, err := r.Reservation.FindByID(ctx, pay.ReservationID)
		if err != nil {
			return apperror.Internal("look up reservation", err)
		}
		if res == nil {
			return apperror.Internal("reservation missing for payment", nil)
		}

		if event.Succeeded {
			status := res.Status
			if status == entity.ReservationStatusPending {
				status = entity.ReservationStatusConfirmed
			}
			if !entity.ValidStatusPair(status, entity.ReservationPaymentPaid) {
				// The reservation died while the intent was in flight,
				// typically cancelled before the provider answered. The
				// charge stands as a completed payment; book a full
				// counter-entry instead of marking a dead reservation paid.
				if err := s.refundOrphanedCharge(ctx, r, res, pay); err != nil {
					return err
				}
			} else if err := r.Reservation.UpdateStatus(ctx, res.ID, status, entity.ReservationPaymentPaid); err != nil {
				return apperror.Internal("mark reservation paid", err)
			}
		} else {
			// A failed payment does not release the slot. The user can
			// retry another channel; cancellation stays an explicit act.
			if entity.ValidStatusPair(res.Status, entity.ReservationPaymentFailed) {
				if err := r.Reservation.UpdatePaymentStatus(ctx, res.ID, entity.ReservationPaymentFailed); err != nil {
					return apperror.Internal("mark reservation payment failed", err)
				}
			} else {
				s.log.Info("Ignoring failure event for a settled reservation",
					zap.String("reservation_id", res.ID.String()),
					zap.String("reservation_status", string(res.Status)),
				)
			}
		}

		pay.Status = target
		settled = pay
		return nil
	})
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}

	route := notify.RoutePaymentFailed
	if event.Succeeded {
		route = notify.RoutePaymentCompleted
	}

	s.log.Info("Provider event reconciled",
		zap.String("transaction_id", event.TransactionID),
		zap.String("channel", string(event.Channel)),
		zap.Bool("succeeded", event.Succeeded),
	)

	payEvent := notify.PaymentEvent{
		Event:         route,
		Version:       1,
		OccurredAt:    time.Now().UTC(),
		PaymentID:     settled.ID.String(),
		ReservationID: settled.ReservationID.String(),
		TransactionID: event.TransactionID,
		Method:        string(settled.Method),
		Amount:        settled.Amount,
		Reason:        event.Reason,
	}
	go s.publisher.PublishJSON(context.Background(), route, payEvent)

	return nil
}

// refundOrphanedCharge reverses a successful charge whose reservation is
// no longer payable. The completed payment row stays as the record of
// the charge; the refund is a new negative row linked via refund_of.
func (s *reconcileService) refundOrphanedCharge(ctx context.Context, r *repository.Repository, res *entity.Reservation, pay *entity.Payment) error {
	now := time.Now()
	refundID := pay.ID
	refund := &entity.Payment{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		ReservationID: res.ID,
		Amount:        -pay.Amount,
		Method:        pay.Method,
		Status:        entity.PaymentStatusRefunded,
		RefundOf:      &refundID,
	}
	if err := r.Payment.Create(ctx, refund); err != nil {
		return apperror.Internal("create refund for orphaned charge", err)
	}

	if err := r.Reservation.UpdatePaymentStatus(ctx, res.ID, entity.ReservationPaymentRefunded); err != nil {
		return apperror.Internal("mark orphaned charge refunded", err)
	}

	s.log.Warn("Charge arrived for a reservation that is no longer payable, refunding in full",
		zap.String("reservation_id", res.ID.String()),
		zap.String("reservation_status", string(res.Status)),
		zap.String("payment_id", pay.ID.String()),
		zap.Float64("amount", pay.Amount),
	)
	return nil
}
