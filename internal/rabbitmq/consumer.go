package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Domenick1991/skybook/internal/events"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Consumer reads BookingEvents from a durable queue with manual acks.
type Consumer struct {
	url    string
	queue  string
	logger *zap.Logger
}

func NewConsumer(url, queue string, logger *zap.Logger) *Consumer {
	return &Consumer{url: url, queue: queue, logger: logger.Named("rabbitmq")}
}

// Consume blocks until ctx is done or the delivery channel closes.
func (c *Consumer) Consume(ctx context.Context, handle func(context.Context, events.BookingEvent) error) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.logger.Warn("set qos failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("rabbitmq consume: %w", err)
	}
	return c.drain(ctx, msgs, handle)
}

func (c *Consumer) drain(ctx context.Context, msgs <-chan amqp.Delivery, handle func(context.Context, events.BookingEvent) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("rabbitmq delivery channel closed")
			}
			var event events.BookingEvent
			if err := json.Unmarshal(d.Body, &event); err != nil {
				c.logger.Warn("skipping undecodable message", zap.String("queue", c.queue), zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			if err := handle(ctx, event); err != nil {
				c.logger.Warn("handle event failed", zap.String("booking_id", event.BookingID), zap.Error(err))
				_ = d.Nack(false, true)
				continue
			}
			_ = d.Ack(false)
		}
	}
}
