// Package payment holds the channel adapters that talk to the external
// payment providers. Every adapter normalizes its provider's reply into
// the same Result shape so the orchestrating service never needs to know
// channel specifics.
package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"field-booking/internal/data/entity"

	"github.com/google/uuid"
)

// IntentRequest carries everything a channel needs to start a payment.
type IntentRequest struct {
	ReservationID uuid.UUID
	Reference     string
	Amount        float64
	Currency      string
	PayerName     string
	PayerEmail    string
	PayerPhone    string
}

// Result is the normalized outcome of a successful initiation.
type Result struct {
	Success       bool            `json:"success"`
	TransactionID string          `json:"transaction_id"`
	Status        string          `json:"status"`
	RedirectURL   string          `json:"redirect_url,omitempty"`
	Instructions  string          `json:"instructions,omitempty"`
	Raw           json.RawMessage `json:"raw,omitempty"`
}

// Error is a recognized provider-level failure: the provider answered,
// but refused the request. Network and decoding failures are returned
// as plain errors instead.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider error %s: %s", e.Code, e.Message)
}

// Initiator is implemented by every payment channel adapter.
type Initiator interface {
	Channel() entity.PaymentMethod
	Initiate(ctx context.Context, req IntentRequest) (*Result, error)
}

// providerErrorBody is the common error envelope the card and wallet
// providers use on non-2xx responses.
type providerErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func decodeProviderError(status int, body []byte) error {
	var pe providerErrorBody
	if err := json.Unmarshal(body, &pe); err == nil && pe.Code != "" {
		return &Error{Code: pe.Code, Message: pe.Message}
	}
	return fmt.Errorf("provider returned status %d: %s", status, string(body))
}
