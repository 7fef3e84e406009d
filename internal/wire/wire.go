package wire

import (
	"net/http"

	"field-booking/internal/adaptor"
	"field-booking/internal/data/entity"
	"field-booking/internal/data/repository"
	"field-booking/internal/notify"
	"field-booking/internal/payment"
	"field-booking/internal/usecase"
	"field-booking/pkg/middleware"
	"field-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// App holds the wired application.
type App struct {
	Router    *chi.Mux
	Publisher *notify.Publisher
}

// Wiring initializes all dependencies.
func Wiring(repo *repository.Repository, config *utils.Config, logger *zap.Logger) *App {
	publisher := setupPublisher(config, logger)
	channels := setupChannels(config, logger)

	service := usecase.NewService(repo, channels, config, publisher, logger)
	handler := adaptor.NewHandler(service, config, logger)

	router := setupRouter(handler, repo, config, logger)

	return &App{
		Router:    router,
		Publisher: publisher,
	}
}

// setupChannels builds one adapter per enabled payment channel. Cash
// needs no configuration and is always present.
func setupChannels(config *utils.Config, logger *zap.Logger) map[entity.PaymentMethod]payment.Initiator {
	channels := map[entity.PaymentMethod]payment.Initiator{
		entity.PaymentMethodCash: payment.NewCashChannel(),
	}

	if config.Payment.Card.BaseURL != "" {
		channels[entity.PaymentMethodCard] = payment.NewCheckoutClient(config.Payment.Card, logger)
	}
	if config.Payment.MTN.BaseURL != "" {
		channels[entity.PaymentMethodMTN] = payment.NewMomoClient(config.Payment.MTN, logger)
	}
	if config.Payment.Orange.BaseURL != "" {
		channels[entity.PaymentMethodOrange] = payment.NewOrangeClient(config.Payment.Orange, logger)
	}

	return channels
}

// setupPublisher connects to the broker when enabled. A nil publisher
// is valid and silently drops events.
func setupPublisher(config *utils.Config, logger *zap.Logger) *notify.Publisher {
	if !config.AMQP.Enabled {
		return nil
	}

	publisher, err := notify.NewPublisher(config.AMQP.URL, config.AMQP.Exchange, logger)
	if err != nil {
		logger.Warn("Event publisher unavailable, events will be dropped", zap.Error(err))
		return nil
	}

	return publisher
}

// setupRouter configures the Chi router.
func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	wireField(r, handler.Field)
	wireReservation(r, handler.Reservation, repo, logger)
	wirePayment(r, handler.Payment, handler.Webhook, repo, logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
