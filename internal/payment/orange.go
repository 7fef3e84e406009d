package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"field-booking/internal/data/entity"
	"field-booking/pkg/utils"

	"go.uber.org/zap"
)

// OrangeClient starts an Orange Money web payment. Orange expects
// form-encoded requests with basic auth, unlike the JSON providers.
type OrangeClient struct {
	cfg    utils.ChannelConfig
	client *http.Client
	log    *zap.Logger
}

func NewOrangeClient(cfg utils.ChannelConfig, log *zap.Logger) *OrangeClient {
	return &OrangeClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    log.With(zap.String("channel", "orange_money")),
	}
}

func (c *OrangeClient) Channel() entity.PaymentMethod {
	return entity.PaymentMethodOrange
}

type orangePaymentResponse struct {
	PayToken string `json:"pay_token"`
	TxnID    string `json:"txnid"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}

func (c *OrangeClient) Initiate(ctx context.Context, req IntentRequest) (*Result, error) {
	if req.PayerPhone == "" {
		return nil, &Error{Code: "missing_phone", Message: "payer phone number is required for mobile money"}
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatFloat(req.Amount, 'f', 0, 64))
	form.Set("currency", req.Currency)
	form.Set("order_id", req.Reference)
	form.Set("subscriber_msisdn", req.PayerPhone)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/omcoreapis/1.0.2/mp/pay", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build orange pay request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.SetBasicAuth(c.cfg.APIKey, c.cfg.APISecret)

	res, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("orange pay call: %w", err)
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		c.log.Warn("Orange pay rejected",
			zap.Int("status", res.StatusCode),
			zap.String("reference", req.Reference),
		)
		return nil, decodeProviderError(res.StatusCode, raw)
	}

	var payRes orangePaymentResponse
	if err := json.Unmarshal(raw, &payRes); err != nil {
		return nil, fmt.Errorf("parse orange pay response: %w", err)
	}
	if payRes.TxnID == "" {
		return nil, fmt.Errorf("orange pay response missing txnid")
	}

	c.log.Info("Orange Money payment requested",
		zap.String("transaction_id", payRes.TxnID),
		zap.String("reference", req.Reference),
	)

	instructions := payRes.Message
	if instructions == "" {
		instructions = "Dial #150# and confirm the pending Orange Money payment"
	}

	return &Result{
		Success:       true,
		TransactionID: payRes.TxnID,
		Status:        "pending",
		Instructions:  instructions,
		Raw:           raw,
	}, nil
}
