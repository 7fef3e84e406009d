package usecase

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"field-booking/internal/data/entity"
	"field-booking/internal/dto/request"
	"field-booking/internal/payment"
	"field-booking/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) bookingRequest(startTime string) *request.CreateReservationRequest {
	return &request.CreateReservationRequest{
		FieldID:         e.field.ID.String(),
		TimeSlotID:      e.slot.ID.String(),
		ReservationDate: e.date.Format("2006-01-02"),
		StartTime:       startTime,
	}
}

func TestCreateReservation(t *testing.T) {
	ctx := context.Background()

	t.Run("books a free slot", func(t *testing.T) {
		env := newTestEnv(t)
		resp, err := env.svc.Reservation.CreateReservation(ctx, env.user.ID.String(), env.bookingRequest("10:00"))
		require.NoError(t, err)

		assert.Equal(t, entity.ReservationStatusPending, resp.Status)
		assert.Equal(t, entity.ReservationPaymentPending, resp.PaymentStatus)
		assert.Equal(t, 10000.0, resp.TotalPrice)
		assert.True(t, strings.HasPrefix(resp.Reference, "RES-"))

		stored := env.storedReservation(t, resp.ID)
		assert.Equal(t, env.user.ID, stored.UserID)
	})

	t.Run("applies and consumes a promo", func(t *testing.T) {
		env := newTestEnv(t)
		promo := env.addPromo(t, "SAVE10", entity.DiscountTypePercentage, 10, 100)

		req := env.bookingRequest("10:00")
		req.PromoCode = "SAVE10"
		resp, err := env.svc.Reservation.CreateReservation(ctx, env.user.ID.String(), req)
		require.NoError(t, err)

		assert.Equal(t, 9000.0, resp.TotalPrice)
		assert.Equal(t, 1, promo.UsageCount)
	})

	t.Run("rejects an expired promo", func(t *testing.T) {
		env := newTestEnv(t)
		promo := env.addPromo(t, "EXPIRED", entity.DiscountTypePercentage, 10, 100)
		promo.ValidUntil = time.Now().Add(-time.Hour)

		req := env.bookingRequest("10:00")
		req.PromoCode = "EXPIRED"
		_, err := env.svc.Reservation.CreateReservation(ctx, env.user.ID.String(), req)
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.KindValidation))
	})

	t.Run("second booking of the same slot conflicts", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.svc.Reservation.CreateReservation(ctx, env.user.ID.String(), env.bookingRequest("10:00"))
		require.NoError(t, err)

		_, err = env.svc.Reservation.CreateReservation(ctx, uuid.New().String(), env.bookingRequest("10:00"))
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.KindConflict))
	})

	t.Run("promo exhausted between check and consume conflicts", func(t *testing.T) {
		env := newTestEnv(t)
		env.addPromo(t, "LAST1", entity.DiscountTypePercentage, 10, 100)

		// The read-time check passes; the guarded update decides the
		// winner, the way concurrent bookings race on the last use.
		env.repo.Promo.(*fakePromoRepo).forceExhausted = true

		req := env.bookingRequest("10:00")
		req.PromoCode = "LAST1"
		_, err := env.svc.Reservation.CreateReservation(ctx, env.user.ID.String(), req)
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.KindConflict))
	})

	t.Run("rejects dates in the past", func(t *testing.T) {
		env := newTestEnv(t)
		req := env.bookingRequest("10:00")
		req.ReservationDate = time.Now().AddDate(0, 0, -1).Format("2006-01-02")
		_, err := env.svc.Reservation.CreateReservation(ctx, env.user.ID.String(), req)
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.KindValidation))
	})

	t.Run("rejects malformed bodies", func(t *testing.T) {
		env := newTestEnv(t)
		req := env.bookingRequest("10:00")
		req.FieldID = "not-a-uuid"
		_, err := env.svc.Reservation.CreateReservation(ctx, env.user.ID.String(), req)
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.KindValidation))
	})
}

func TestCreateReservationWithPayment(t *testing.T) {
	ctx := context.Background()

	withPayment := func(env *testEnv, method string) *request.CreateReservationWithPaymentRequest {
		return &request.CreateReservationWithPaymentRequest{
			CreateReservationRequest: *env.bookingRequest("10:00"),
			PaymentMethod:            method,
		}
	}

	t.Run("card booking opens a pending intent", func(t *testing.T) {
		env := newTestEnv(t)
		resp, err := env.svc.Reservation.CreateReservationWithPayment(ctx, env.user.ID.String(), withPayment(env, "card"))
		require.NoError(t, err)

		assert.Equal(t, entity.ReservationStatusPending, resp.Reservation.Status)
		assert.Equal(t, entity.ReservationPaymentPending, resp.Reservation.PaymentStatus)
		require.NotNil(t, resp.Payment)
		assert.Equal(t, entity.PaymentStatusPending, resp.Payment.Payment.Status)
		assert.NotEmpty(t, resp.Payment.RedirectURL)
		assert.Equal(t, 1, env.card.calls)
	})

	t.Run("cash booking confirms immediately without any provider call", func(t *testing.T) {
		env := newTestEnv(t)
		resp, err := env.svc.Reservation.CreateReservationWithPayment(ctx, env.user.ID.String(), withPayment(env, "cash"))
		require.NoError(t, err)

		assert.Equal(t, entity.ReservationStatusConfirmed, resp.Reservation.Status)
		assert.Equal(t, entity.ReservationPaymentPendingCash, resp.Reservation.PaymentStatus)
		require.NotNil(t, resp.Payment)
		assert.NotEmpty(t, resp.Payment.Instructions)
		require.NotNil(t, resp.Payment.Payment.TransactionID)
		assert.True(t, strings.HasPrefix(*resp.Payment.Payment.TransactionID, "CASH-"))
		assert.Equal(t, 0, env.card.calls)

		stored := env.storedReservation(t, resp.Reservation.ID)
		assert.Equal(t, entity.ReservationStatusConfirmed, stored.Status)
	})

	t.Run("provider refusal surfaces as a payment error", func(t *testing.T) {
		env := newTestEnv(t)
		env.card.err = &payment.Error{Code: "card_declined", Message: "insufficient funds"}

		_, err := env.svc.Reservation.CreateReservationWithPayment(ctx, env.user.ID.String(), withPayment(env, "card"))
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.KindPayment))
	})

	t.Run("unsupported method rejected before any write", func(t *testing.T) {
		env := newTestEnv(t)
		req := withPayment(env, "card")
		req.PaymentMethod = "bitcoin"
		_, err := env.svc.Reservation.CreateReservationWithPayment(ctx, env.user.ID.String(), req)
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.KindValidation))
	})
}

func TestCancelReservation(t *testing.T) {
	ctx := context.Background()

	// seedPaid books via the service, then settles the payment so the
	// reservation is confirmed and paid.
	seedPaid := func(t *testing.T, env *testEnv, hoursAhead float64) *entity.Reservation {
		t.Helper()
		resp, err := env.svc.Reservation.CreateReservationWithPayment(ctx, env.user.ID.String(), &request.CreateReservationWithPaymentRequest{
			CreateReservationRequest: *env.bookingRequest("10:00"),
			PaymentMethod:            "card",
		})
		require.NoError(t, err)

		res := env.storedReservation(t, resp.Reservation.ID)

		// Pin the start instant relative to now for the refund tier.
		start := time.Now().Add(time.Duration(hoursAhead * float64(time.Hour)))
		reservations := env.repo.Reservation.(*fakeReservationRepo)
		reservations.mu.Lock()
		stored := reservations.reservations[res.ID]
		stored.ReservationDate = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
		stored.StartTime = start.Format("15:04")
		reservations.mu.Unlock()

		require.NoError(t, env.svc.Reconcile.ProcessEvent(ctx, &ProviderEvent{
			Channel:       entity.PaymentMethodCard,
			TransactionID: *resp.Payment.Payment.TransactionID,
			Succeeded:     true,
		}))

		return env.storedReservation(t, res.ID.String())
	}

	t.Run("paid reservation 30h out refunds 75 percent", func(t *testing.T) {
		env := newTestEnv(t)
		res := seedPaid(t, env, 30)

		resp, err := env.svc.Reservation.CancelReservation(ctx, env.user.ID.String(), "customer", res.ID.String())
		require.NoError(t, err)

		assert.Equal(t, entity.ReservationStatusCancelled, resp.Status)
		assert.Equal(t, entity.ReservationPaymentRefunded, resp.PaymentStatus)
		assert.Equal(t, 7500.0, resp.RefundAmount)
		assert.Contains(t, resp.RefundPolicy, "75%")

		payments := env.paymentsFor(res.ID)
		require.Len(t, payments, 2)

		var original, refund *entity.Payment
		for _, p := range payments {
			if p.RefundOf != nil {
				refund = p
			} else {
				original = p
			}
		}
		require.NotNil(t, original)
		require.NotNil(t, refund)

		// Refunds are new rows; the settled payment stays as it was.
		assert.Equal(t, entity.PaymentStatusCompleted, original.Status)
		assert.Equal(t, 10000.0, original.Amount)
		assert.Equal(t, -7500.0, refund.Amount)
		assert.Equal(t, entity.PaymentStatusRefunded, refund.Status)
		assert.Equal(t, original.ID, *refund.RefundOf)
	})

	t.Run("last-minute cancellation refunds nothing", func(t *testing.T) {
		env := newTestEnv(t)
		res := seedPaid(t, env, 2)

		resp, err := env.svc.Reservation.CancelReservation(ctx, env.user.ID.String(), "customer", res.ID.String())
		require.NoError(t, err)

		assert.Equal(t, 0.0, resp.RefundAmount)
		assert.Len(t, env.paymentsFor(res.ID), 1)
	})

	t.Run("unpaid reservation cancels without a refund row", func(t *testing.T) {
		env := newTestEnv(t)
		resp, err := env.svc.Reservation.CreateReservation(ctx, env.user.ID.String(), env.bookingRequest("10:00"))
		require.NoError(t, err)

		cancel, err := env.svc.Reservation.CancelReservation(ctx, env.user.ID.String(), "customer", resp.ID)
		require.NoError(t, err)

		assert.Equal(t, entity.ReservationPaymentCancelled, cancel.PaymentStatus)
		assert.Equal(t, 0.0, cancel.RefundAmount)
		// The policy text must not advertise a refund tier when no money moved.
		assert.Equal(t, "no completed payment, nothing to refund", cancel.RefundPolicy)
		assert.Empty(t, env.paymentsFor(uuid.MustParse(resp.ID)))
	})

	t.Run("cancelling twice fails", func(t *testing.T) {
		env := newTestEnv(t)
		resp, err := env.svc.Reservation.CreateReservation(ctx, env.user.ID.String(), env.bookingRequest("10:00"))
		require.NoError(t, err)

		_, err = env.svc.Reservation.CancelReservation(ctx, env.user.ID.String(), "customer", resp.ID)
		require.NoError(t, err)

		_, err = env.svc.Reservation.CancelReservation(ctx, env.user.ID.String(), "customer", resp.ID)
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.KindValidation))
	})

	t.Run("another user cannot cancel", func(t *testing.T) {
		env := newTestEnv(t)
		resp, err := env.svc.Reservation.CreateReservation(ctx, env.user.ID.String(), env.bookingRequest("10:00"))
		require.NoError(t, err)

		_, err = env.svc.Reservation.CancelReservation(ctx, uuid.New().String(), "customer", resp.ID)
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.KindAuthorization))

		_, err = env.svc.Reservation.CancelReservation(ctx, env.owner.ID.String(), "admin", resp.ID)
		require.NoError(t, err)
	})
}

func TestGetUserReservations(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.svc.Reservation.CreateReservation(ctx, env.user.ID.String(), env.bookingRequest("10:00"))
	require.NoError(t, err)
	_, err = env.svc.Reservation.CreateReservation(ctx, env.user.ID.String(), env.bookingRequest("12:00"))
	require.NoError(t, err)

	page, err := env.svc.Reservation.GetUserReservations(ctx, env.user.ID.String(), &request.PaginatedRequest{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, int64(2), page.Pagination.Total)
}

func TestConcurrentBookings(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	const attempts = 8
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.svc.Reservation.CreateReservation(ctx, uuid.New().String(), env.bookingRequest("10:00"))
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		assert.True(t, apperror.Is(err, apperror.KindConflict), "loser got %v", err)
	}
	assert.Equal(t, 1, successes)
}

func TestConcurrentPromoRedemptions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	promo := env.addPromo(t, "LIMIT3", entity.DiscountTypePercentage, 10, 3)

	const attempts = 8
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Distinct dates so only the promo ceiling is contended.
			req := env.bookingRequest("10:00")
			req.ReservationDate = env.date.AddDate(0, 0, i).Format("2006-01-02")
			req.PromoCode = "LIMIT3"
			_, errs[i] = env.svc.Reservation.CreateReservation(ctx, env.user.ID.String(), req)
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		}
	}
	assert.Equal(t, 3, successes)
	assert.Equal(t, 3, promo.UsageCount)
}
