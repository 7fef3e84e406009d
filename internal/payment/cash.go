package payment

import (
	"context"

	"field-booking/internal/data/entity"

	"github.com/google/uuid"
)

// CashChannel performs no external call. A cash intent always succeeds
// at initiation; an admin confirms the money later, on site.
type CashChannel struct{}

func NewCashChannel() *CashChannel {
	return &CashChannel{}
}

func (c *CashChannel) Channel() entity.PaymentMethod {
	return entity.PaymentMethodCash
}

func (c *CashChannel) Initiate(ctx context.Context, req IntentRequest) (*Result, error) {
	return &Result{
		Success:       true,
		TransactionID: "CASH-" + uuid.New().String(),
		Status:        "pending",
		Instructions:  "Pay in cash at the field reception before your reservation starts",
	}, nil
}
