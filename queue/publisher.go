// Package queue publishes booking lifecycle events to RabbitMQ.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"hotel-booking-engine/services"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const DefaultQueue = "booking.events"

// ErrBrokerUnavailable is returned while the circuit breaker is open.
var ErrBrokerUnavailable = errors.New("event broker unavailable")

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

type dialFunc func() (channel, error)

// session owns the connection behind a channel so both close together.
type session struct {
	*amqp.Channel
	conn *amqp.Connection
}

func (s *session) Close() error {
	_ = s.Channel.Close()
	return s.conn.Close()
}

func amqpDialer(url, queue string) dialFunc {
	return func() (channel, error) {
		conn, err := amqp.Dial(url)
		if err != nil {
			return nil, fmt.Errorf("dial: %w", err)
		}
		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("open channel: %w", err)
		}
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("declare queue %s: %w", queue, err)
		}
		return &session{Channel: ch, conn: conn}, nil
	}
}

// Publisher sends every event as a persistent JSON message to a durable
// queue through the default exchange. The connection is opened lazily and
// reopened after a failed publish.
type Publisher struct {
	queue   string
	log     *zap.Logger
	dial    dialFunc
	breaker *gobreaker.CircuitBreaker

	mu sync.Mutex
	ch channel
}

func NewPublisher(url, queue string, log *zap.Logger) *Publisher {
	if queue == "" {
		queue = DefaultQueue
	}
	return newPublisher(queue, log, amqpDialer(url, queue))
}

func newPublisher(queue string, log *zap.Logger, dial dialFunc) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Publisher{queue: queue, log: log, dial: dial}
	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "booking-events",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("event publisher circuit changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return p
}

func (p *Publisher) Publish(ctx context.Context, evt services.BookingEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Type:         evt.Type,
		MessageId:    evt.BookingID.String() + ":" + evt.Type + ":" + evt.OccurredAt.Format(time.RFC3339Nano),
		Timestamp:    evt.OccurredAt,
		Body:         body,
	}

	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.send(ctx, msg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrBrokerUnavailable, err)
	}
	return err
}

func (p *Publisher) send(ctx context.Context, msg amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil || p.ch.IsClosed() {
		ch, err := p.dial()
		if err != nil {
			return fmt.Errorf("connect broker: %w", err)
		}
		p.ch = ch
	}
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		_ = p.ch.Close()
		p.ch = nil
		return fmt.Errorf("publish to %s: %w", p.queue, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == nil {
		return nil
	}
	err := p.ch.Close()
	p.ch = nil
	return err
}
