package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

type RabbitMQ struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *slog.Logger
}

type Config struct {
	URL      string
	Exchange string
	// Если задано, объявляем очередь и подписываем ее на все события
	QueueName string
}

func NewRabbitMQ(cfg Config, logger *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	if cfg.QueueName != "" {
		q, err := ch.QueueDeclare(
			cfg.QueueName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("declare queue: %w", err)
		}

		if err := ch.QueueBind(q.Name, "#", cfg.Exchange, false, nil); err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("bind queue: %w", err)
		}
	}

	logger.Info("connected to rabbitmq",
		"exchange", cfg.Exchange,
		"queue", cfg.QueueName,
	)

	return &RabbitMQ{
		conn:     conn,
		channel:  ch,
		exchange: cfg.Exchange,
		logger:   logger,
	}, nil
}

// Publish отправляет событие eventType с полезной нагрузкой payload
func (r *RabbitMQ) Publish(ctx context.Context, eventType string, payload any) error {
	msg, err := newPublishing(uuid.NewString(), eventType, payload, time.Now().UTC())
	if err != nil {
		return err
	}

	err = r.channel.PublishWithContext(
		ctx,
		r.exchange,
		eventType,
		false,
		false,
		msg,
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	r.logger.Debug("published event", "type", eventType, "id", msg.MessageId)

	return nil
}

func newPublishing(id, eventType string, payload any, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(Envelope{
		ID:         id,
		Type:       eventType,
		OccurredAt: now,
		Payload:    payload,
	})
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal message: %w", err)
	}

	return amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    id,
		Type:         eventType,
		Body:         body,
		Timestamp:    now,
	}, nil
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// Nop используется, когда брокер не настроен
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }

func (Nop) Close() error { return nil }
