package adaptor

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"field-booking/internal/data/entity"
	"field-booking/internal/usecase"
	"field-booking/pkg/apperror"
	"field-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// WebhookHandler accepts provider callbacks, verifies their signature
// and translates the channel-specific payload into a ProviderEvent.
type WebhookHandler struct {
	service usecase.ReconcileService
	cfg     utils.PaymentConfig
	log     *zap.Logger
}

func NewWebhookHandler(service usecase.ReconcileService, cfg utils.PaymentConfig, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		cfg:     cfg,
		log:     log.With(zap.String("handler", "webhook")),
	}
}

// HandleWebhook handles POST /api/payments/webhook/{channel} (public,
// signature-verified). Once the payload is accepted the response is
// always 200 so providers stop retrying; unmatched transactions are
// only logged.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	channel := entity.PaymentMethod(chi.URLParam(r, "channel"))

	secret := h.webhookSecret(channel)
	if secret == "" {
		utils.ResponseNotFound(w, "Unknown payment channel")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		utils.ResponseBadRequest(w, "Unable to read request body", nil)
		return
	}

	if !verifySignature(body, r.Header.Get("X-Signature"), secret) {
		h.log.Warn("Webhook signature mismatch",
			zap.String("channel", string(channel)),
			zap.String("ip", r.RemoteAddr),
		)
		utils.ResponseUnauthorized(w, "Invalid webhook signature")
		return
	}

	event, err := parseProviderPayload(channel, body)
	if err != nil {
		h.log.Warn("Unparsable webhook payload",
			zap.String("channel", string(channel)),
			zap.Error(err),
		)
		utils.ResponseBadRequest(w, "Invalid webhook payload", nil)
		return
	}

	if err := h.service.ProcessEvent(r.Context(), event); err != nil {
		switch apperror.KindOf(err) {
		case apperror.KindNotFound:
			// The provider knows a transaction we do not. Acknowledge
			// anyway; retrying will not make it appear.
			h.log.Warn("Webhook for unknown transaction",
				zap.String("channel", string(channel)),
				zap.String("transaction_id", event.TransactionID),
			)
			utils.ResponseSuccess(w, "accepted", nil)
		case apperror.KindValidation:
			utils.ResponseBadRequest(w, err.Error(), nil)
		default:
			h.log.Error("Failed to process webhook", zap.Error(err))
			utils.ResponseInternalError(w, "Internal server error")
		}
		return
	}

	utils.ResponseSuccess(w, "accepted", nil)
}

func (h *WebhookHandler) webhookSecret(channel entity.PaymentMethod) string {
	switch channel {
	case entity.PaymentMethodCard:
		return h.cfg.Card.WebhookSecret
	case entity.PaymentMethodMTN:
		return h.cfg.MTN.WebhookSecret
	case entity.PaymentMethodOrange:
		return h.cfg.Orange.WebhookSecret
	default:
		return ""
	}
}

func verifySignature(body []byte, signature, secret string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

// Payload shapes differ per provider; each parser normalizes into the
// channel-neutral ProviderEvent.

type checkoutWebhook struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Reason    string `json:"reason"`
}

type momoWebhook struct {
	ReferenceID string `json:"referenceId"`
	Status      string `json:"status"`
	Reason      string `json:"reason"`
}

type orangeWebhook struct {
	PayToken string `json:"pay_token"`
	TxnID    string `json:"txnid"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}

func parseProviderPayload(channel entity.PaymentMethod, body []byte) (*usecase.ProviderEvent, error) {
	event := &usecase.ProviderEvent{Channel: channel, Raw: body}

	switch channel {
	case entity.PaymentMethodCard:
		var p checkoutWebhook
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, err
		}
		event.TransactionID = p.SessionID
		event.Succeeded = strings.EqualFold(p.Status, "completed")
		event.Reason = p.Reason

	case entity.PaymentMethodMTN:
		var p momoWebhook
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, err
		}
		event.TransactionID = p.ReferenceID
		event.Succeeded = strings.EqualFold(p.Status, "SUCCESSFUL")
		event.Reason = p.Reason

	case entity.PaymentMethodOrange:
		var p orangeWebhook
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, err
		}
		// Orange reports both identifiers; payments are stored under the
		// txnid returned at initiation.
		event.TransactionID = p.TxnID
		if event.TransactionID == "" {
			event.TransactionID = p.PayToken
		}
		event.Succeeded = strings.EqualFold(p.Status, "SUCCESS")
		event.Reason = p.Message
	}

	return event, nil
}
