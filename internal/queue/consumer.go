package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"
)

// BillingConsumer appends every billing event to a log file, one line each.
type BillingConsumer struct {
	url     string
	queue   string
	logPath string
	log     *log.Logger
}

// NewBillingConsumer returns a consumer of queue that appends to logPath,
// or logs/billing.log when logPath is empty.
func NewBillingConsumer(url, queue, logPath string, logger *log.Logger) *BillingConsumer {
	if logPath == "" {
		logPath = filepath.Join("logs", "billing.log")
	}
	return &BillingConsumer{url: url, queue: queue, logPath: logPath, log: logger}
}

// Run connects, consumes and reconnects with backoff until ctx is done.
// Undecodable messages are rejected without requeue.
func (c *BillingConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warnf("billing-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warnf("billing-consumer: consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *BillingConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warnf("billing-consumer: set QoS failed: %v", err)
	}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
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
			if err := c.HandleMessage(d.Body); err != nil {
				c.log.Errorf("billing-consumer: handle message failed: %v", err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// HandleMessage decodes one event and appends it to the log file.
func (c *BillingConsumer) HandleMessage(body []byte) error {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" {
		return errors.New("event without type")
	}
	if err := os.MkdirAll(filepath.Dir(c.logPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(c.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatLine renders ev as a single newline-terminated line.
func FormatLine(ev Event) string {
	parts := []string{
		fmt.Sprintf("[%s] %s", ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type),
		fmt.Sprintf("reservation_id=%d", ev.ReservationID),
	}
	if ev.EditorID != 0 {
		parts = append(parts, fmt.Sprintf("editor_id=%d", ev.EditorID))
	}
	if ev.FestivalID != 0 {
		parts = append(parts, fmt.Sprintf("festival_id=%d", ev.FestivalID))
	}
	if ev.Tables != 0 {
		parts = append(parts, fmt.Sprintf("tables=%d", ev.Tables))
	}
	if ev.Status != "" {
		parts = append(parts, fmt.Sprintf("status=%s", ev.Status))
	}
	if ev.InvoiceID != 0 {
		parts = append(parts, fmt.Sprintf("invoice_id=%d", ev.InvoiceID))
	}
	if ev.InvoiceNumber != "" {
		parts = append(parts, fmt.Sprintf("invoice=%q", ev.InvoiceNumber))
	}
	if ev.AmountDueCents != 0 {
		parts = append(parts, fmt.Sprintf("amount=%d cents", ev.AmountDueCents))
	}
	return strings.Join(parts, " | ") + "\n"
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
