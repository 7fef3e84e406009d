package usecase

import (
	"context"
	"errors"
	"testing"

	"field-booking/internal/data/entity"
	"field-booking/internal/dto/request"
	"field-booking/internal/dto/response"
	"field-booking/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedReservation(t *testing.T, env *testEnv) *response.ReservationResponse {
	t.Helper()
	resp, err := env.svc.Reservation.CreateReservation(context.Background(), env.user.ID.String(), env.bookingRequest("10:00"))
	require.NoError(t, err)
	return resp
}

func TestInitiatePayment(t *testing.T) {
	ctx := context.Background()

	t.Run("opens a card intent", func(t *testing.T) {
		env := newTestEnv(t)
		res := seedReservation(t, env)

		resp, err := env.svc.Payment.InitiatePayment(ctx, env.user.ID.String(), &request.InitiatePaymentRequest{
			ReservationID: res.ID,
			PaymentMethod: "card",
		})
		require.NoError(t, err)

		assert.Equal(t, entity.PaymentStatusPending, resp.Payment.Status)
		assert.Equal(t, 10000.0, resp.Payment.Amount)
		assert.NotEmpty(t, resp.RedirectURL)
	})

	t.Run("retry reuses the pending intent", func(t *testing.T) {
		env := newTestEnv(t)
		res := seedReservation(t, env)

		req := &request.InitiatePaymentRequest{ReservationID: res.ID, PaymentMethod: "card"}
		first, err := env.svc.Payment.InitiatePayment(ctx, env.user.ID.String(), req)
		require.NoError(t, err)

		second, err := env.svc.Payment.InitiatePayment(ctx, env.user.ID.String(), req)
		require.NoError(t, err)

		assert.Equal(t, first.Payment.ID, second.Payment.ID)
		assert.Equal(t, 1, env.card.calls)
		assert.Len(t, env.paymentsFor(uuid.MustParse(res.ID)), 1)
	})

	t.Run("network failure maps to the unreachable code", func(t *testing.T) {
		env := newTestEnv(t)
		res := seedReservation(t, env)
		env.card.err = errors.New("dial tcp: connection refused")

		_, err := env.svc.Payment.InitiatePayment(ctx, env.user.ID.String(), &request.InitiatePaymentRequest{
			ReservationID: res.ID,
			PaymentMethod: "card",
		})
		require.Error(t, err)

		var appErr *apperror.Error
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, apperror.KindPayment, appErr.Kind)
		assert.Equal(t, ErrCodeUnreachable, appErr.Code)
	})

	t.Run("someone else's reservation is forbidden", func(t *testing.T) {
		env := newTestEnv(t)
		res := seedReservation(t, env)

		_, err := env.svc.Payment.InitiatePayment(ctx, uuid.New().String(), &request.InitiatePaymentRequest{
			ReservationID: res.ID,
			PaymentMethod: "card",
		})
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.KindAuthorization))
	})

	t.Run("cancelled reservation cannot be paid", func(t *testing.T) {
		env := newTestEnv(t)
		res := seedReservation(t, env)
		_, err := env.svc.Reservation.CancelReservation(ctx, env.user.ID.String(), "customer", res.ID)
		require.NoError(t, err)

		_, err = env.svc.Payment.InitiatePayment(ctx, env.user.ID.String(), &request.InitiatePaymentRequest{
			ReservationID: res.ID,
			PaymentMethod: "card",
		})
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.KindValidation))
	})
}

func TestConfirmCashPayment(t *testing.T) {
	ctx := context.Background()

	seedCash := func(t *testing.T, env *testEnv) (reservationID, paymentID string) {
		t.Helper()
		resp, err := env.svc.Reservation.CreateReservationWithPayment(ctx, env.user.ID.String(), &request.CreateReservationWithPaymentRequest{
			CreateReservationRequest: *env.bookingRequest("10:00"),
			PaymentMethod:            "cash",
		})
		require.NoError(t, err)
		return resp.Reservation.ID, resp.Payment.Payment.ID
	}

	t.Run("field owner confirms collection", func(t *testing.T) {
		env := newTestEnv(t)
		resID, payID := seedCash(t, env)

		resp, err := env.svc.Payment.ConfirmCashPayment(ctx, env.owner.ID.String(), payID)
		require.NoError(t, err)
		assert.Equal(t, entity.PaymentStatusCompleted, resp.Status)

		stored := env.storedReservation(t, resID)
		assert.Equal(t, entity.ReservationStatusConfirmed, stored.Status)
		assert.Equal(t, entity.ReservationPaymentPaid, stored.PaymentStatus)
	})

	t.Run("other admins cannot confirm", func(t *testing.T) {
		env := newTestEnv(t)
		_, payID := seedCash(t, env)

		otherAdmin := &entity.User{Base: entity.Base{ID: uuid.New()}, Role: "admin"}
		env.repo.User.(*fakeUserRepo).users[otherAdmin.ID] = otherAdmin

		_, err := env.svc.Payment.ConfirmCashPayment(ctx, otherAdmin.ID.String(), payID)
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.KindAuthorization))
	})

	t.Run("confirming twice fails", func(t *testing.T) {
		env := newTestEnv(t)
		_, payID := seedCash(t, env)

		_, err := env.svc.Payment.ConfirmCashPayment(ctx, env.owner.ID.String(), payID)
		require.NoError(t, err)

		_, err = env.svc.Payment.ConfirmCashPayment(ctx, env.owner.ID.String(), payID)
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.KindValidation))
	})

	t.Run("card payments cannot be cash-confirmed", func(t *testing.T) {
		env := newTestEnv(t)
		res := seedReservation(t, env)
		resp, err := env.svc.Payment.InitiatePayment(ctx, env.user.ID.String(), &request.InitiatePaymentRequest{
			ReservationID: res.ID,
			PaymentMethod: "card",
		})
		require.NoError(t, err)

		_, err = env.svc.Payment.ConfirmCashPayment(ctx, env.owner.ID.String(), resp.Payment.ID)
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.KindValidation))
	})
}

func TestGetPayment(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	res := seedReservation(t, env)

	resp, err := env.svc.Payment.InitiatePayment(ctx, env.user.ID.String(), &request.InitiatePaymentRequest{
		ReservationID: res.ID,
		PaymentMethod: "card",
	})
	require.NoError(t, err)

	t.Run("owner can read it", func(t *testing.T) {
		got, err := env.svc.Payment.GetPayment(ctx, env.user.ID.String(), "customer", resp.Payment.ID)
		require.NoError(t, err)
		assert.Equal(t, resp.Payment.ID, got.ID)
	})

	t.Run("admins can read any payment", func(t *testing.T) {
		_, err := env.svc.Payment.GetPayment(ctx, env.owner.ID.String(), "admin", resp.Payment.ID)
		require.NoError(t, err)
	})

	t.Run("strangers cannot", func(t *testing.T) {
		_, err := env.svc.Payment.GetPayment(ctx, uuid.New().String(), "customer", resp.Payment.ID)
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.KindAuthorization))
	})

	t.Run("unknown payment is not found", func(t *testing.T) {
		_, err := env.svc.Payment.GetPayment(ctx, env.user.ID.String(), "customer", uuid.New().String())
		require.Error(t, err)
		assert.True(t, apperror.Is(err, apperror.KindNotFound))
	})
}
