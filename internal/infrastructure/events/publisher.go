// Package events publishes loan lifecycle events to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"smart-loan-recovery/internal/domain/loan"

	"github.com/rabbitmq/amqp091-go"
)

const Exchange = "loan_events"

type Publisher interface {
	PublishLoanEvent(ctx context.Context, ev loan.Event) error
	Close()
}

// channel is the slice of *amqp091.Channel the publisher uses.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

// AMQPPublisher publishes JSON events on a durable topic exchange.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	ch       channel
	reopen   func() (channel, error)
	declared bool
	log      *slog.Logger
}

// LogPublisher is used when no broker is configured or reachable.
type LogPublisher struct{ log *slog.Logger }

func NewLogPublisher(log *slog.Logger) *LogPublisher { return &LogPublisher{log: log} }

func (p *LogPublisher) PublishLoanEvent(_ context.Context, ev loan.Event) error {
	p.log.Info("loan event", "kind", ev.Kind, "loan_id", ev.LoanID, "from", ev.From, "to", ev.To)
	return nil
}

func (p *LogPublisher) Close() {}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// New returns an AMQP publisher, or a LogPublisher when amqpURL is empty or the
// broker cannot be reached at startup.
func New(amqpURL string, log *slog.Logger) Publisher {
	if strings.TrimSpace(amqpURL) == "" {
		return NewLogPublisher(log)
	}
	p, err := Dial(amqpURL, log)
	if err != nil {
		log.Warn("rabbitmq unavailable, events will only be logged", "error", err)
		return NewLogPublisher(log)
	}
	return p
}

func Dial(amqpURL string, log *slog.Logger) (*AMQPPublisher, error) {
	clean, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}
	// bounded dial so startup does not hang
	conn, err := amqp091.DialConfig(clean, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}
	reopen := func() (channel, error) { return conn.Channel() }
	ch, err := reopen()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &AMQPPublisher{conn: conn, ch: ch, reopen: reopen, log: log}, nil
}

func (p *AMQPPublisher) publish(ctx context.Context, key string, body []byte) error {
	if !p.declared {
		if err := p.ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
			return err
		}
		p.declared = true
	}
	return p.ch.PublishWithContext(ctx, Exchange, key, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

// PublishLoanEvent routes by ev.Kind. A failed publish reopens the channel and retries once.
func (p *AMQPPublisher) PublishLoanEvent(ctx context.Context, ev loan.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.publish(ctx, ev.Kind, body)
	if err == nil || p.reopen == nil {
		return err
	}
	p.log.Warn("publish failed; reopening channel", "routing_key", ev.Kind, "error", err)
	ch, chErr := p.reopen()
	if chErr != nil {
		return errors.Join(err, chErr)
	}
	_ = p.ch.Close()
	p.ch, p.declared = ch, false
	return p.publish(ctx, ev.Kind, body)
}

func (p *AMQPPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
