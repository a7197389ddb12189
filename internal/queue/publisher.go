package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends events to a durable queue on the default exchange.  It
// dials once per event; the volume is a handful of messages per booking.
// Errors are logged and returned so the caller may ignore them.
type Publisher struct {
	url   string
	queue string
	log   *log.Logger
}

// NewPublisher returns a Publisher for queue on the broker at url.
func NewPublisher(url, queue string, logger *log.Logger) *Publisher {
	return &Publisher{url: url, queue: queue, log: logger}
}

// Publish sends ev as a persistent JSON message.
func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		p.log.Errorf("rabbitmq: marshal %s failed: %v", ev.Type, err)
		return err
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(5 * time.Second)})
	if err != nil {
		p.log.Warnf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warnf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		p.log.Warnf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, publishing(ev, body)); err != nil {
		p.log.Warnf("rabbitmq: publish %s failed: %v", ev.Type, err)
		return err
	}
	return nil
}

func publishing(ev Event, body []byte) amqp.Publishing {
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         string(ev.Type),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
}

// Sender is anything that can deliver an event.
type Sender interface {
	Publish(ctx context.Context, ev Event) error
}

// ErrClosed is returned by Background.Publish after Close.
var ErrClosed = errors.New("queue: publisher closed")

// Background hands each event to its own goroutine so callers never wait
// on the broker.  The request context is detached; only its values are
// kept.  Close waits for events still in flight.
type Background struct {
	next    Sender
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewBackground wraps next.  Each delivery is bounded by timeout.
func NewBackground(next Sender, timeout time.Duration) *Background {
	return &Background{next: next, timeout: timeout}
}

// Publish schedules ev and returns at once.
func (b *Background) Publish(ctx context.Context, ev Event) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	b.wg.Add(1)
	b.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	go func() {
		defer b.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, b.timeout)
		defer cancel()
		_ = b.next.Publish(ctx, ev)
	}()
	return nil
}

// Close stops accepting events and waits for pending deliveries until ctx
// is done.
func (b *Background) Close(ctx context.Context) error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
