package repository

import (
	"context"
	"errors"
	"fmt"

	"field-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

type Repository struct {
	Field       FieldRepository
	TimeSlot    TimeSlotRepository
	Closure     ClosureRepository
	Promo       PromoRepository
	Reservation ReservationRepository
	Payment     PaymentRepository
	User        UserRepository
	Session     SessionRepository

	// Tx runs a function against a transaction-scoped Repository.
	Tx TxManager
}

// TxManager wraps one atomic unit of work. The Repository passed to fn
// is bound to the transaction; returning an error rolls everything back.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(r *Repository) error) error
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	repo := newWithQuerier(db, log)
	repo.Tx = &pgxTxManager{db: db, log: log.With(zap.String("repository", "tx"))}
	return repo
}

func newWithQuerier(q database.Querier, log *zap.Logger) *Repository {
	return &Repository{
		Field:       NewFieldRepository(q, log),
		TimeSlot:    NewTimeSlotRepository(q, log),
		Closure:     NewClosureRepository(q, log),
		Promo:       NewPromoRepository(q, log),
		Reservation: NewReservationRepository(q, log),
		Payment:     NewPaymentRepository(q, log),
		User:        NewUserRepository(q, log),
		Session:     NewSessionRepository(q, log),
	}
}

type pgxTxManager struct {
	db  database.PgxIface
	log *zap.Logger
}

func (m *pgxTxManager) RunInTx(ctx context.Context, fn func(r *Repository) error) error {
	tx, err := m.db.Begin(ctx)
	if err != nil {
		m.log.Error("Failed to begin transaction", zap.Error(err))
		return fmt.Errorf("begin transaction: %w", err)
	}

	txRepo := newWithQuerier(tx, m.log)
	txRepo.Tx = &nestedTxManager{repo: txRepo}

	if err := fn(txRepo); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			m.log.Error("Failed to rollback transaction", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		m.log.Error("Failed to commit transaction", zap.Error(err))
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// nestedTxManager reuses the surrounding transaction instead of opening
// a second one when a service composes transactional helpers.
type nestedTxManager struct {
	repo *Repository
}

func (m *nestedTxManager) RunInTx(ctx context.Context, fn func(r *Repository) error) error {
	return fn(m.repo)
}

// IsUniqueViolation reports whether err is a Postgres unique constraint
// violation. The partial unique index on reservations makes this the
// authoritative slot-conflict signal.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
