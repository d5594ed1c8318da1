// Package events publishes borrowing lifecycle events to RabbitMQ.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	jsoniter "github.com/json-iterator/go"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/libshelf/library-service/internal/config"
	"github.com/libshelf/library-service/internal/messaging/payloads"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Publisher implements ports.BorrowingEventPublisher over a RabbitMQ queue.
type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	logger  *slog.Logger
}

// NewPublisher connects to RabbitMQ and declares the queue. Declaring is
// idempotent: an existing queue is reused.
func NewPublisher(cfg *config.Config, logger *slog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		return nil, fmt.Errorf("connecting to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("opening channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		cfg.RabbitMQ.QueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("declaring queue: %w", err)
	}

	logger.Info("RabbitMQ publisher ready", "queue", q.Name)
	return &Publisher{conn: conn, channel: ch, queue: q, logger: logger}, nil
}

func (p *Publisher) PublishBorrowingEvent(ctx context.Context, payload payloads.BorrowingEventPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling event payload: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.channel.PublishWithContext(
		publishCtx,
		"",           // exchange
		p.queue.Name, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("publishing event: %w", err)
	}

	p.logger.Debug("borrowing event published", "type", payload.Type, "borrowing_id", payload.BorrowingID)
	return nil
}

func (p *Publisher) Close() error {
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.logger.Error("error closing RabbitMQ channel", "error", err)
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("closing RabbitMQ connection: %w", err)
		}
	}
	return nil
}
