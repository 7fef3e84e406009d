package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"field-booking/internal/data/entity"
	"field-booking/internal/data/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// In-memory repository fakes. They implement just enough behavior for
// the services under test, including the guarded updates the real SQL
// performs.

type fakeFieldRepo struct {
	mu     sync.Mutex
	fields map[uuid.UUID]*entity.Field
}

func (f *fakeFieldRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Field, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields[id], nil
}

func (f *fakeFieldRepo) FindAllActive(ctx context.Context) ([]*entity.Field, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Field
	for _, fl := range f.fields {
		if fl.Active {
			out = append(out, fl)
		}
	}
	return out, nil
}

type fakeTimeSlotRepo struct {
	mu    sync.Mutex
	slots map[uuid.UUID]*entity.TimeSlot
}

func (f *fakeTimeSlotRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.TimeSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.slots[id], nil
}

func (f *fakeTimeSlotRepo) FindByFieldID(ctx context.Context, fieldID uuid.UUID) ([]*entity.TimeSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.TimeSlot
	for _, s := range f.slots {
		if s.FieldID == fieldID {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeClosureRepo struct {
	mu      sync.Mutex
	closure map[string]bool // "fieldID|date" or "all|date"
}

func closureKey(fieldID uuid.UUID, date time.Time) string {
	return fieldID.String() + "|" + date.Format("2006-01-02")
}

func (f *fakeClosureRepo) closeDate(fieldID uuid.UUID, date time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closure == nil {
		f.closure = map[string]bool{}
	}
	f.closure[closureKey(fieldID, date)] = true
}

func (f *fakeClosureRepo) ExistsForDate(ctx context.Context, fieldID uuid.UUID, date time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closure[closureKey(fieldID, date)] || f.closure[closureKey(uuid.Nil, date)], nil
}

type fakePromoRepo struct {
	mu     sync.Mutex
	promos map[uuid.UUID]*entity.PromoCode

	// forceExhausted makes ConsumeUsage lose, simulating another
	// booking taking the last use between check and consume.
	forceExhausted bool
}

func (f *fakePromoRepo) FindByCode(ctx context.Context, code string) (*entity.PromoCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.promos {
		if p.Code == code {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakePromoRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.PromoCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.promos[id], nil
}

func (f *fakePromoRepo) ConsumeUsage(ctx context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.forceExhausted {
		return false, nil
	}
	p, ok := f.promos[id]
	if !ok || !p.Active {
		return false, nil
	}
	if p.UsageLimit != nil && p.UsageCount >= *p.UsageLimit {
		return false, nil
	}
	p.UsageCount++
	return true, nil
}

type fakeReservationRepo struct {
	mu           sync.Mutex
	reservations map[uuid.UUID]*entity.Reservation
}

func slotTaken(reservations map[uuid.UUID]*entity.Reservation, res *entity.Reservation) bool {
	for _, r := range reservations {
		if r.ID == res.ID {
			continue
		}
		if r.FieldID == res.FieldID &&
			r.ReservationDate.Equal(res.ReservationDate) &&
			r.StartTime == res.StartTime &&
			r.Status != entity.ReservationStatusCancelled {
			return true
		}
	}
	return false
}

func (f *fakeReservationRepo) Create(ctx context.Context, res *entity.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reservations == nil {
		f.reservations = map[uuid.UUID]*entity.Reservation{}
	}
	if slotTaken(f.reservations, res) {
		// Same signal the partial unique index raises.
		return fmt.Errorf("create reservation %s: %w", res.Reference, &pgconn.PgError{Code: "23505"})
	}
	cp := *res
	f.reservations[res.ID] = &cp
	return nil
}

func (f *fakeReservationRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	if !ok {
		return nil, nil
	}
	cp := *res
	return &cp, nil
}

func (f *fakeReservationRepo) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Reservation
	for _, r := range f.reservations {
		if r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeReservationRepo) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, r := range f.reservations {
		if r.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeReservationRepo) FindActiveBySlot(ctx context.Context, fieldID uuid.UUID, date time.Time, startTime string) (*entity.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reservations {
		if r.FieldID == fieldID &&
			r.ReservationDate.Equal(date) &&
			r.StartTime == startTime &&
			r.Status != entity.ReservationStatusCancelled {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeReservationRepo) CountActiveBySlot(ctx context.Context, fieldID uuid.UUID, date time.Time, startTime string) (int64, error) {
	res, err := f.FindActiveBySlot(ctx, fieldID, date, startTime)
	if err != nil || res == nil {
		return 0, err
	}
	return 1, nil
}

func (f *fakeReservationRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.ReservationStatus, paymentStatus entity.ReservationPaymentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	if !ok {
		return fmt.Errorf("reservation %s not found", id.String())
	}
	res.Status = status
	res.PaymentStatus = paymentStatus
	return nil
}

func (f *fakeReservationRepo) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, paymentStatus entity.ReservationPaymentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	if !ok {
		return fmt.Errorf("reservation %s not found", id.String())
	}
	res.PaymentStatus = paymentStatus
	return nil
}

func (f *fakeReservationRepo) Cancel(ctx context.Context, id uuid.UUID, paymentStatus entity.ReservationPaymentStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res, ok := f.reservations[id]
	if !ok || res.Status.IsTerminal() {
		return false, nil
	}
	res.Status = entity.ReservationStatusCancelled
	res.PaymentStatus = paymentStatus
	return true, nil
}

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*entity.Payment
}

func (f *fakePaymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.payments == nil {
		f.payments = map[uuid.UUID]*entity.Payment{}
	}
	cp := *p
	f.payments[p.ID] = &cp
	return nil
}

func (f *fakePaymentRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakePaymentRepo) FindByTransactionID(ctx context.Context, transactionID string) (*entity.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if p.TransactionID != nil && *p.TransactionID == transactionID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakePaymentRepo) FindLatestByReservationID(ctx context.Context, reservationID uuid.UUID) (*entity.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *entity.Payment
	for _, p := range f.payments {
		if p.ReservationID != reservationID {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			latest = p
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f *fakePaymentRepo) FindPendingByReservationID(ctx context.Context, reservationID uuid.UUID) (*entity.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if p.ReservationID == reservationID && p.Status == entity.PaymentStatusPending && p.Amount > 0 {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakePaymentRepo) FindCompletedByReservationID(ctx context.Context, reservationID uuid.UUID) (*entity.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payments {
		if p.ReservationID == reservationID && p.Status == entity.PaymentStatusCompleted && p.Amount > 0 {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakePaymentRepo) UpdateStatusIfPending(ctx context.Context, id uuid.UUID, status entity.PaymentStatus, details json.RawMessage) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payments[id]
	if !ok || p.Status != entity.PaymentStatusPending {
		return false, nil
	}
	p.Status = status
	if details != nil {
		p.Details = details
	}
	return true, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*entity.User
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id], nil
}

type fakeSessionRepo struct{}

func (f *fakeSessionRepo) FindValidSession(ctx context.Context, token string) (*entity.Session, error) {
	return nil, nil
}

// fakeTxManager runs the function against the same repository. The fake
// repos apply writes immediately, so tests assert observable outcomes
// rather than rollback mechanics.
type fakeTxManager struct {
	repo *repository.Repository
}

func (m *fakeTxManager) RunInTx(ctx context.Context, fn func(r *repository.Repository) error) error {
	return fn(m.repo)
}

func newFakeRepository() *repository.Repository {
	repo := &repository.Repository{
		Field:       &fakeFieldRepo{fields: map[uuid.UUID]*entity.Field{}},
		TimeSlot:    &fakeTimeSlotRepo{slots: map[uuid.UUID]*entity.TimeSlot{}},
		Closure:     &fakeClosureRepo{closure: map[string]bool{}},
		Promo:       &fakePromoRepo{promos: map[uuid.UUID]*entity.PromoCode{}},
		Reservation: &fakeReservationRepo{reservations: map[uuid.UUID]*entity.Reservation{}},
		Payment:     &fakePaymentRepo{payments: map[uuid.UUID]*entity.Payment{}},
		User:        &fakeUserRepo{users: map[uuid.UUID]*entity.User{}},
		Session:     &fakeSessionRepo{},
	}
	repo.Tx = &fakeTxManager{repo: repo}
	return repo
}
