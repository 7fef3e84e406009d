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

// MomoClient pushes a payment request to the payer's MTN Mobile Money
// account. The payer approves on their phone; the final state arrives
// on the webhook.
type MomoClient struct {
	cfg    utils.ChannelConfig
	client *http.Client
	log    *zap.Logger
}

func NewMomoClient(cfg utils.ChannelConfig, log *zap.Logger) *MomoClient {
	return &MomoClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log.With(zap.String("channel", "mtn_momo")),
	}
}

func (c *MomoClient) Channel() entity.PaymentMethod {
	return entity.PaymentMethodMTN
}

type momoRequestToPay struct {
	Amount     float64 `json:"amount"`
	Currency   string  `json:"currency"`
	ExternalID string  `json:"external_id"`
	Payer      struct {
		PartyIDType string `json:"party_id_type"`
		PartyID     string `json:"party_id"`
	} `json:"payer"`
	PayerMessage string `json:"payer_message,omitempty"`
}

type momoRequestToPayResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Message       string `json:"message"`
}

func (c *MomoClient) Initiate(ctx context.Context, req IntentRequest) (*Result, error) {
	if req.PayerPhone == "" {
		return nil, &Error{Code: "missing_phone", Message: "payer phone number is required for mobile money"}
	}

	payload := momoRequestToPay{
		Amount:       req.Amount,
		Currency:     req.Currency,
		ExternalID:   req.Reference,
		PayerMessage: "Field reservation " + req.Reference,
	}
	payload.Payer.PartyIDType = "MSISDN"
	payload.Payer.PartyID = req.PayerPhone

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal requesttopay: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/collection/v1/requesttopay", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build requesttopay request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", c.cfg.APISecret)

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("requesttopay call: %w", err)
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		c.log.Warn("MoMo requesttopay rejected",
			zap.Int("status", res.StatusCode),
			zap.String("reference", req.Reference),
		)
		return nil, decodeProviderError(res.StatusCode, raw)
	}

	var rtpRes momoRequestToPayResponse
	if err := json.Unmarshal(raw, &rtpRes); err != nil {
		return nil, fmt.Errorf("parse requesttopay response: %w", err)
	}
	if rtpRes.TransactionID == "" {
		return nil, fmt.Errorf("requesttopay response missing transaction id")
	}

	c.log.Info("MoMo payment requested",
		zap.String("transaction_id", rtpRes.TransactionID),
		zap.String("reference", req.Reference),
	)

	instructions := rtpRes.Message
	if instructions == "" {
		instructions = "Approve the payment request sent to your MTN Mobile Money number"
	}

	return &Result{
		Success:       true,
		TransactionID: rtpRes.TransactionID,
		Status:        "pending",
		Instructions:  instructions,
		Raw:           raw,
	}, nil
}
