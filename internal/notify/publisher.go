package notify

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher pushes domain events to the notification exchange. A nil
// *Publisher is valid and publishes nothing, so the broker stays
// optional in development.
type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	log      *zap.Logger
}

func NewPublisher(url, exchange string, log *zap.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{
		conn:     conn,
		ch:       ch,
		exchange: exchange,
		log:      log.With(zap.String("component", "notify")),
	}, nil
}

// PublishJSON sends one event. Errors are logged, never propagated:
// a committed booking must not look failed because a broker hiccupped.
func (p *Publisher) PublishJSON(ctx context.Context, key string, v any) {
	if p == nil {
		return
	}

	body, err := json.Marshal(v)
	if err != nil {
		p.log.Error("Failed to marshal event", zap.Error(err), zap.String("routing_key", key))
		return
	}

	err = p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		p.log.Error("Failed to publish event", zap.Error(err), zap.String("routing_key", key))
		return
	}

	p.log.Debug("Event published", zap.String("routing_key", key))
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
