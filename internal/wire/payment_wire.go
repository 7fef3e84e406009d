package wire

import (
	"field-booking/internal/adaptor"
	"field-booking/internal/data/repository"
	"field-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wirePayment(
	r chi.Router,
	paymentHandler *adaptor.PaymentHandler,
	webhookHandler *adaptor.WebhookHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))

		// POST /api/payments/initiate - Open a payment intent for a reservation
		r.Post("/api/payments/initiate", paymentHandler.InitiatePayment)

		// GET /api/payments/{id} - View a payment's status
		r.Get("/api/payments/{id}", paymentHandler.GetPayment)
	})

	// ==================== PUBLIC ROUTES ====================
	// POST /api/payments/webhook/{channel} - Provider callbacks, verified
	// by signature instead of a session.
	r.Post("/api/payments/webhook/{channel}", webhookHandler.HandleWebhook)

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/payments", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))
		r.Use(middleware.Admin(repo.User, log))

		// POST /api/admin/payments/{id}/confirm-cash - Record cash collected on site
		r.Post("/{id}/confirm-cash", paymentHandler.ConfirmCashPayment)
	})
}
