package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"
)

// Consumer listens to the ticket.purchased queue and appends one
// structured audit line per purchase.
type Consumer struct {
	url   string
	audit *log.Logger
	file  io.Closer
}

// NewConsumer opens (or creates) dir/tickets.log as the audit sink.
func NewConsumer(url, dir string) (*Consumer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "tickets.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	c := newConsumer(url, f)
	c.file = f
	return c, nil
}

func newConsumer(url string, out io.Writer) *Consumer {
	audit := log.New()
	audit.SetOutput(out)
	audit.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339})
	return &Consumer{url: url, audit: audit}
}

// Run consumes until ctx is cancelled, reconnecting with exponential
// backoff whenever the broker connection is lost.
func (c *Consumer) Run(ctx context.Context) {
	defer func() {
		if c.file != nil {
			_ = c.file.Close()
		}
	}()
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			log.WithError(err).Warnf("ticket-consumer: failed to dial broker; retrying in %s", backoff)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return
		}
		log.WithError(err).Warn("ticket-consumer: consume loop ended; reconnecting")
		select {
		case <-ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.WithError(err).Warn("ticket-consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(TicketPurchasedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(TicketPurchasedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handle(d.Body); err != nil {
				log.WithError(err).Warn("ticket-consumer: handle message failed")
				_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handle(body []byte) error {
	var ev TicketPurchasedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.SessionID == "" || ev.UserID == "" {
		return errors.New("event without session or user")
	}
	c.audit.WithFields(log.Fields{
		"user_id":        ev.UserID,
		"session_id":     ev.SessionID,
		"transaction_id": ev.TransactionID,
		"room":           ev.RoomName,
		"movie":          ev.MovieName,
		"starts_at":      ev.StartsAt,
		"amount":         ev.Amount.String(),
		"superticket":    ev.Superticket,
		"purchased_at":   ev.PurchasedAt,
	}).Info("ticket purchased")
	return nil
}
