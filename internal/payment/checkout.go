package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"field-booking/internal/data/entity"
	"field-booking/pkg/utils"

	"go.uber.org/zap"
)

// CheckoutClient creates hosted checkout sessions with the card
// provider. The caller is redirected to the returned URL and the final
// outcome arrives later on the webhook.
type CheckoutClient struct {
	cfg    utils.ChannelConfig
	client *http.Client
	log    *zap.Logger
}

func NewCheckoutClient(cfg utils.ChannelConfig, log *zap.Logger) *CheckoutClient {
	return &CheckoutClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log.With(zap.String("channel", "card")),
	}
}

func (c *CheckoutClient) Channel() entity.PaymentMethod {
	return entity.PaymentMethodCard
}

type checkoutSessionRequest struct {
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	Reference     string  `json:"reference"`
	CustomerEmail string  `json:"customer_email,omitempty"`
	CustomerName  string  `json:"customer_name,omitempty"`
	ReturnURL     string  `json:"return_url,omitempty"`
}

type checkoutSessionResponse struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"checkout_url"`
	Status      string `json:"status"`
}

func (c *CheckoutClient) Initiate(ctx context.Context, req IntentRequest) (*Result, error) {
	payload := checkoutSessionRequest{
		Amount:        req.Amount,
		Currency:      req.Currency,
		Reference:     req.Reference,
		CustomerEmail: req.PayerEmail,
		CustomerName:  req.PayerName,
		ReturnURL:     c.cfg.CallbackURL,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal checkout session request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build checkout session request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		c.log.Warn("Checkout session rejected",
			zap.Int("status", res.StatusCode),
			zap.String("reference", req.Reference),
		)
		return nil, decodeProviderError(res.StatusCode, raw)
	}

	var session checkoutSessionResponse
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("parse checkout session response: %w", err)
	}
	if session.ID == "" || session.CheckoutURL == "" {
		return nil, fmt.Errorf("checkout session response missing id or url")
	}

	c.log.Info("Checkout session created",
		zap.String("session_id", session.ID),
		zap.String("reference", req.Reference),
	)

	return &Result{
		Success:       true,
		TransactionID: session.ID,
		Status:        "pending",
		RedirectURL:   session.CheckoutURL,
		Raw:           raw,
	}, nil
}
