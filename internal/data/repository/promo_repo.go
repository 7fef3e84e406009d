package repository

import (
	"context"
	"fmt"

	"field-booking/internal/data/entity"
	"field-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type PromoRepository interface {
	FindByCode(ctx context.Context, code string) (*entity.PromoCode, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.PromoCode, error)

	// ConsumeUsage increments usage_count iff the code is still active
	// and under its usage_limit. Returns false when the guard fails,
	// which makes concurrent redemptions of a near-exhausted code safe.
	ConsumeUsage(ctx context.Context, id uuid.UUID) (bool, error)
}

type promoRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewPromoRepository(db database.Querier, log *zap.Logger) PromoRepository {
	return &promoRepository{
		db:  db,
		log: log.With(zap.String("repository", "promo")),
	}
}

const promoColumns = `id, code, discount_type, discount_value, valid_from, valid_until, active, usage_limit, usage_count, created_at, updated_at`

func (r *promoRepository) scanPromo(row pgx.Row) (*entity.PromoCode, error) {
	var promo entity.PromoCode
	err := row.Scan(
		&promo.ID,
		&promo.Code,
		&promo.DiscountType,
		&promo.DiscountValue,
		&promo.ValidFrom,
		&promo.ValidUntil,
		&promo.Active,
		&promo.UsageLimit,
		&promo.UsageCount,
		&promo.CreatedAt,
		&promo.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

func (r *promoRepository) FindByCode(ctx context.Context, code string) (*entity.PromoCode, error) {
	query := `SELECT ` + promoColumns + ` FROM promo_codes WHERE code = $1`

	promo, err := r.scanPromo(r.db.QueryRow(ctx, query, code))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find promo code",
			zap.Error(err),
			zap.String("code", code),
		)
		return nil, fmt.Errorf("find promo code %s: %w", code, err)
	}

	return promo, nil
}

func (r *promoRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.PromoCode, error) {
	query := `SELECT ` + promoColumns + ` FROM promo_codes WHERE id = $1`

	promo, err := r.scanPromo(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find promo code by ID",
			zap.Error(err),
			zap.String("promo_id", id.String()),
		)
		return nil, fmt.Errorf("find promo code by ID %s: %w", id.String(), err)
	}

	return promo, nil
}

func (r *promoRepository) ConsumeUsage(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE promo_codes
		SET usage_count = usage_count + 1, updated_at = NOW()
		WHERE id = $1
		  AND active = true
		  AND (usage_limit IS NULL OR usage_count < usage_limit)
	`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to consume promo usage",
			zap.Error(err),
			zap.String("promo_id", id.String()),
		)
		return false, fmt.Errorf("consume promo usage %s: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}
