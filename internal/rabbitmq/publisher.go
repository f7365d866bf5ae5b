package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Domenick1991/skybook/internal/events"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends events to durable queues on the default exchange. The
// topic passed to Publish is the queue name.
type Publisher struct {
	conn   *amqp.Connection
	ch     channel
	logger *zap.Logger

	mu       sync.Mutex
	declared map[string]bool
}

func NewPublisher(url string, logger *zap.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	return newPublisher(conn, ch, logger), nil
}

func newPublisher(conn *amqp.Connection, ch channel, logger *zap.Logger) *Publisher {
	return &Publisher{conn: conn, ch: ch, logger: logger.Named("rabbitmq"), declared: make(map[string]bool)}
}

func (p *Publisher) Publish(ctx context.Context, queue, key string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.declare(queue); err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    key,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	p.logger.Debug("published", zap.String("queue", queue), zap.String("key", key))
	return nil
}

func (p *Publisher) declare(queue string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.declared[queue] {
		return nil
	}
	if _, err := p.ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	p.declared[queue] = true
	return nil
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

var _ events.Publisher = (*Publisher)(nil)
