// Package amqp publishes ledger events to a RabbitMQ topic exchange.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"financeflow/internal/core"
	"financeflow/internal/log"
	"financeflow/internal/ports"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	maxAttempts    = 3
	publishTimeout = 5 * time.Second
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

var _ ports.EventPublisher = (*Publisher)(nil)

// publishChannel is the part of *amqp091.Channel the publisher uses.
type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

type connectFunc func() (ch publishChannel, closeConn func() error, err error)

// Publisher sends events to a durable topic exchange. It reconnects on
// connection errors and stops trying for openTimeout after maxFailures
// consecutive failures.
type Publisher struct {
	url      string
	exchange string
	logger   *log.Logger
	connect  connectFunc
	backoff  func(attempt int) time.Duration

	mu           sync.Mutex
	ch           publishChannel
	closeConn    func() error
	state        int32
	failureCount int64
	lastFailure  time.Time
}

// NewPublisher dials url and declares the exchange.
func NewPublisher(url, exchange string, logger *log.Logger) (*Publisher, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	p := &Publisher{
		url:      url,
		exchange: exchange,
		logger:   logger.WithComponent(log.ComponentAMQP),
		backoff:  exponentialBackoff,
	}
	p.connect = func() (publishChannel, func() error, error) { return dial(p.url, p.exchange) }

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ensureChannel(); err != nil {
		return nil, err
	}
	return p, nil
}

func dial(url, exchange string) (publishChannel, func() error, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("declare exchange: %w", err)
	}

	return ch, conn.Close, nil
}

// Publish sends e to the exchange under its kind as routing key.
func (p *Publisher) Publish(ctx context.Context, e core.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := NewEventMessage(e)
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if p.isCircuitOpen() {
			if lastErr != nil {
				return fmt.Errorf("%w: %w", ErrCircuitOpen, lastErr)
			}
			return ErrCircuitOpen
		}
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(p.backoff(attempt - 1)):
			}
		}

		if err := p.ensureChannel(); err != nil {
			lastErr = err
			p.recordFailure()
			continue
		}

		pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		err := p.ch.PublishWithContext(pubCtx,
			p.exchange,       // exchange
			msg.RoutingKey(), // routing key
			false,            // mandatory
			false,            // immediate
			amqp091.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp091.Persistent,
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		cancel()
		if err == nil {
			p.recordSuccess()
			p.logger.DebugContext(ctx, "Published ledger event",
				"kind", msg.Kind,
				"message_id", msg.ID,
				"exchange", p.exchange)
			return nil
		}

		lastErr = err
		p.recordFailure()
		if !isConnectionError(err) {
			break
		}
		p.logger.WarnContext(ctx, "AMQP connection lost, reconnecting",
			log.FieldError, err,
			"attempt", attempt+1)
		p.dropChannel()
	}

	return fmt.Errorf("publish %s: %w", e.Kind, lastErr)
}

// ensureChannel connects if there is no open channel. p.mu must be held.
func (p *Publisher) ensureChannel() error {
	if p.ch != nil {
		return nil
	}
	ch, closeConn, err := p.connect()
	if err != nil {
		return err
	}
	p.ch, p.closeConn = ch, closeConn
	return nil
}

// dropChannel closes the current channel and connection. p.mu must be held.
func (p *Publisher) dropChannel() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.closeConn != nil {
		_ = p.closeConn()
		p.closeConn = nil
	}
}

// isCircuitOpen moves an expired open circuit to half-open. p.mu must be held.
func (p *Publisher) isCircuitOpen() bool {
	if p.state != StateOpen {
		return false
	}
	if time.Since(p.lastFailure) > openTimeout {
		p.state = StateHalfOpen
		return false
	}
	return true
}

func (p *Publisher) recordSuccess() {
	p.failureCount = 0
	p.state = StateClosed
}

func (p *Publisher) recordFailure() {
	p.failureCount++
	p.lastFailure = time.Now()
	if p.state == StateHalfOpen || p.failureCount >= maxFailures {
		p.state = StateOpen
	}
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dropChannel()
	return nil
}

func exponentialBackoff(attempt int) time.Duration {
	if attempt > 5 {
		return 30 * time.Second
	}
	return min(time.Second<<attempt, 30*time.Second)
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := err.Error()
	for _, s := range []string{"connection", "closed", "EOF", "broken pipe"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
