package events

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"Quill/internal/core/composer"

	"github.com/nats-io/nats.go"
)

// publisher is the part of *nats.Conn the publisher uses
type publisher interface {
	PublishMsg(msg *nats.Msg) error
}

// NatsPublisher forwards composer events to NATS so other processes see them.
// Subjects are the event name under an optional prefix, e.g. "quill.post.created".
type NatsPublisher struct {
	conn   publisher
	prefix string
	now    func() time.Time
}

// NewNatsPublisher publishes on nc under prefix
func NewNatsPublisher(nc *nats.Conn, prefix string) *NatsPublisher {
	return newNatsPublisher(nc, prefix)
}

func newNatsPublisher(conn publisher, prefix string) *NatsPublisher {
	return &NatsPublisher{
		conn:   conn,
		prefix: strings.TrimSuffix(prefix, "."),
		now:    time.Now,
	}
}

// Subject returns the NATS subject for event
func (p *NatsPublisher) Subject(event composer.Event) string {
	if p.prefix == "" {
		return string(event)
	}
	return p.prefix + "." + string(event)
}

// Broadcast publishes the event. Failures are logged, never returned.
func (p *NatsPublisher) Broadcast(event composer.Event) {
	if err := p.Publish(event); err != nil {
		slog.Error("[EVENTS] failed to publish to NATS", "event", event, "error", err)
	}
}

// Publish sends one event message
func (p *NatsPublisher) Publish(event composer.Event) error {
	data, err := encode(event, p.now())
	if err != nil {
		return fmt.Errorf("marshalling error: %w", err)
	}

	msg := &nats.Msg{
		Subject: p.Subject(event),
		Data:    data,
		Header:  nats.Header{},
	}
	msg.Header.Set("Content-Type", "application/json")

	slog.Debug("[EVENTS] publishing event", "subject", msg.Subject)
	return p.conn.PublishMsg(msg)
}
