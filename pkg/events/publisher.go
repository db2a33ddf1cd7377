// Package events emits document-change notifications for the external
// mailer ("File updated. Email sent to <user>"). Publishing is strictly
// best-effort: a broker outage must never affect a save.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	TypeDocumentUpdated  = "document.updated"
	TypeDocumentRestored = "document.restored"
	TypeDocumentDeleted  = "document.deleted"
)

// Event describes one document change for downstream consumers.
type Event struct {
	Type       string    `json:"type"`
	OwnerID    string    `json:"ownerId"`
	OwnerEmail string    `json:"ownerEmail,omitempty"`
	DocumentID string    `json:"documentId"`
	Title      string    `json:"title"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher delivers events. Implementations swallow their own failures.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) {}

// AMQPPublisher publishes events to a topic exchange, routed by event type.
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

// NewAMQPPublisher dials the broker and declares the exchange.
func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPPublisher{conn: conn, channel: channel, exchange: exchange}, nil
}

// Publish sends the event, logging and swallowing any failure.
func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) {
	body, err := json.Marshal(ev)
	if err != nil {
		slog.Warn("publish event: encode failed", "type", ev.Type, "err", err)
		return
	}
	err = p.channel.PublishWithContext(ctx, p.exchange, ev.Type, false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   ev.OccurredAt,
		Body:        body,
	})
	if err != nil {
		slog.Warn("publish event: broker publish failed", "type", ev.Type, "document", ev.DocumentID, "err", err)
	}
}

// Close releases the channel and connection.
func (p *AMQPPublisher) Close() {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
