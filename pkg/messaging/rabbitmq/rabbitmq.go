package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/pulse-api/pkg/circuitbreaker"
	"github.com/jwalitptl/pulse-api/pkg/messaging"
)

type Config struct {
	URL           string
	QueueDurable  bool
	PrefetchCount int
}

// RabbitBroker publishes to named queues on the default exchange.
type RabbitBroker struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	mu      sync.Mutex
	durable bool
	cb      *circuitbreaker.CircuitBreaker
	logger  *zerolog.Logger
}

func NewRabbitBroker(cfg Config, logger *zerolog.Logger) (messaging.Broker, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rabbitmq url is required")
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if cfg.PrefetchCount > 0 {
		if err := ch.Qos(cfg.PrefetchCount, 0, false); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("failed to set qos: %w", err)
		}
	}

	return &RabbitBroker{
		conn:    conn,
		channel: ch,
		durable: cfg.QueueDurable,
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "rabbitmq-broker",
			MaxFailures: 5,
			Interval:    10 * time.Second,
			Timeout:     5 * time.Second,
		}),
		logger: logger,
	}, nil
}

func (r *RabbitBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("rabbitmq channel is required")
	}
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	return r.cb.Execute(func() error {
		r.mu.Lock()
		defer r.mu.Unlock()

		if _, err := r.declareQueue(channel); err != nil {
			return err
		}
		return r.channel.PublishWithContext(ctx, "", channel, false, false, amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    uuid.New().String(),
			DeliveryMode: r.deliveryMode(),
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
	})
}

func (r *RabbitBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	r.mu.Lock()
	if _, err := r.declareQueue(channel); err != nil {
		r.mu.Unlock()
		return nil, err
	}
	consumerTag := fmt.Sprintf("consumer-%s", uuid.New().String())
	deliveries, err := r.channel.Consume(channel, consumerTag, false, false, false, false, nil)
	r.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to consume %s: %w", channel, err)
	}

	out := make(chan []byte, 100)
	go func() {
		defer close(out)
		defer func() {
			_ = r.channel.Cancel(consumerTag, false)
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case delivery, ok := <-deliveries:
				if !ok {
					r.logger.Warn().Str("queue", channel).Msg("rabbitmq delivery channel closed")
					return
				}
				select {
				case out <- delivery.Body:
					_ = delivery.Ack(false)
				case <-ctx.Done():
					_ = delivery.Nack(false, true)
					return
				}
			}
		}
	}()

	return out, nil
}

func (r *RabbitBroker) Close() error {
	if r.channel != nil {
		_ = r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

func (r *RabbitBroker) declareQueue(name string) (amqp.Queue, error) {
	return r.channel.QueueDeclare(name, r.durable, false, false, false, nil)
}

func (r *RabbitBroker) deliveryMode() uint8 {
	if r.durable {
		return amqp.Persistent
	}
	return amqp.Transient
}
