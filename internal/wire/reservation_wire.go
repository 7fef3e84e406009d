package wire

import (
	"field-booking/internal/adaptor"
	"field-booking/internal/data/repository"
	"field-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireReservation(
	r chi.Router,
	reservationHandler *adaptor.ReservationHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))

		// POST /api/reservations - Book a slot without paying yet
		r.Post("/api/reservations", reservationHandler.CreateReservation)

		// POST /api/reservations/with-payment - Book and open a payment intent atomically
		r.Post("/api/reservations/with-payment", reservationHandler.CreateReservationWithPayment)

		// POST /api/reservations/{id}/cancel - Cancel own reservation
		r.Post("/api/reservations/{id}/cancel", reservationHandler.CancelReservation)

		// GET /api/user/reservations - View own reservation history
		r.Get("/api/user/reservations", reservationHandler.GetUserReservations)
	})

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/reservations", func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.User, log))
		r.Use(middleware.Admin(repo.User, log))

		// GET /api/admin/reservations/{id} - View any reservation details
		r.Get("/{id}", reservationHandler.GetReservationByID)

		// PUT /api/admin/reservations/{id}/cancel - Cancel any reservation
		r.Put("/{id}/cancel", reservationHandler.AdminCancelReservation)
	})
}
