package entity

import (
	"time"
)

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed_amount"
)

type PromoCode struct {
	Base
	Code          string       `db:"code"`
	DiscountType  DiscountType `db:"discount_type"`
	DiscountValue float64      `db:"discount_value"`
	ValidFrom     time.Time    `db:"valid_from"`
	ValidUntil    time.Time    `db:"valid_until"`
	Active        bool         `db:"active"`
	UsageLimit    *int         `db:"usage_limit"`
	UsageCount    int          `db:"usage_count"`
}

// Exhausted reports whether the code has reached its usage ceiling.
func (p *PromoCode) Exhausted() bool {
	return p.UsageLimit != nil && p.UsageCount >= *p.UsageLimit
}

// ApplyDiscount returns the amount after discount, floored at 0.
func (p *PromoCode) ApplyDiscount(base float64) float64 {
	var discounted float64
	switch p.DiscountType {
	case DiscountTypePercentage:
		discounted = base - base*p.DiscountValue/100
	case DiscountTypeFixed:
		discounted = base - p.DiscountValue
	default:
		return base
	}

	if discounted < 0 {
		return 0
	}
	return discounted
}
