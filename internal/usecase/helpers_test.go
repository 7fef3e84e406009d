package usecase

import (
	"context"
	"testing"
	"time"

	"field-booking/internal/data/entity"
	"field-booking/internal/data/repository"
	"field-booking/internal/payment"
	"field-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// fakeChannel is a scriptable payment channel adapter.
type fakeChannel struct {
	method entity.PaymentMethod
	result *payment.Result
	err    error
	calls  int
}

func (c *fakeChannel) Channel() entity.PaymentMethod {
	return c.method
}

func (c *fakeChannel) Initiate(ctx context.Context, req payment.IntentRequest) (*payment.Result, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.result, nil
}

type testEnv struct {
	repo  *repository.Repository
	svc   *Service
	card  *fakeChannel
	user  *entity.User
	owner *entity.User
	field *entity.Field
	slot  *entity.TimeSlot
	date  time.Time
}

func testConfig() *utils.Config {
	return &utils.Config{
		Pricing: utils.PricingConfig{
			FallbackPrice: 5000,
			EquipmentFee:  1000,
		},
		Payment: utils.PaymentConfig{
			Currency: "XAF",
		},
	}
}

// newTestEnv seeds one active field with a slot bookable next week at
// 10:00, priced 10000 per hour.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := newFakeRepository()

	owner := &entity.User{
		Base: entity.Base{ID: uuid.New()},
		Name: "Owner",
		Role: "admin",
	}
	user := &entity.User{
		Base:  entity.Base{ID: uuid.New()},
		Name:  "Alice",
		Email: "alice@example.com",
		Phone: "237670000001",
		Role:  "customer",
	}
	users := repo.User.(*fakeUserRepo)
	users.users[owner.ID] = owner
	users.users[user.ID] = user

	field := &entity.Field{
		Base:         entity.Base{ID: uuid.New()},
		Name:         "Center Court",
		PricePerHour: 10000,
		OwnerID:      owner.ID,
		Active:       true,
	}
	repo.Field.(*fakeFieldRepo).fields[field.ID] = field

	date := time.Now().AddDate(0, 0, 7)
	date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	from := date.AddDate(0, 0, -1)
	to := date.AddDate(0, 0, 30)

	slot := &entity.TimeSlot{
		Base:      entity.Base{ID: uuid.New()},
		FieldID:   field.ID,
		DateFrom:  &from,
		DateTo:    &to,
		StartTime: "10:00",
		EndTime:   "11:00",
		Available: true,
	}
	repo.TimeSlot.(*fakeTimeSlotRepo).slots[slot.ID] = slot

	card := &fakeChannel{
		method: entity.PaymentMethodCard,
		result: &payment.Result{
			Success:       true,
			TransactionID: "sess_" + uuid.New().String(),
			Status:        "pending",
			RedirectURL:   "https://checkout.example.com/s/123",
		},
	}

	channels := map[entity.PaymentMethod]payment.Initiator{
		entity.PaymentMethodCash: payment.NewCashChannel(),
		entity.PaymentMethodCard: card,
	}

	svc := NewService(repo, channels, testConfig(), nil, zap.NewNop())

	return &testEnv{
		repo:  repo,
		svc:   svc,
		card:  card,
		user:  user,
		owner: owner,
		field: field,
		slot:  slot,
		date:  date,
	}
}

func (e *testEnv) addPromo(t *testing.T, code string, dtype entity.DiscountType, value float64, limit int) *entity.PromoCode {
	t.Helper()
	promo := &entity.PromoCode{
		Base:          entity.Base{ID: uuid.New()},
		Code:          code,
		DiscountType:  dtype,
		DiscountValue: value,
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidUntil:    time.Now().Add(30 * 24 * time.Hour),
		Active:        true,
		UsageLimit:    &limit,
	}
	e.repo.Promo.(*fakePromoRepo).promos[promo.ID] = promo
	return promo
}

func (e *testEnv) storedReservation(t *testing.T, id string) *entity.Reservation {
	t.Helper()
	res, err := e.repo.Reservation.FindByID(context.Background(), uuid.MustParse(id))
	if err != nil || res == nil {
		t.Fatalf("reservation %s not stored", id)
	}
	return res
}

func (e *testEnv) paymentsFor(reservationID uuid.UUID) []*entity.Payment {
	payments := e.repo.Payment.(*fakePaymentRepo)
	payments.mu.Lock()
	defer payments.mu.Unlock()
	var out []*entity.Payment
	for _, p := range payments.payments {
		if p.ReservationID == reservationID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out
}
