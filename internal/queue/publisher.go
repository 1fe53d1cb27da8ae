// Package queue publishes domain events to a topic exchange. Consumers are
// out of process; publishing failures are logged, never surfaced to the
// request path.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/ipanov/UrbanAI-sub002/internal/log"
	"github.com/ipanov/UrbanAI-sub002/internal/metrics"
)

// Exchange is the topic exchange all service events flow through.
const Exchange = "urbanai.events"

// Routing keys.
const (
	KeyUserRegistered     = "user.registered"
	KeyIssueCreated       = "issue.created"
	KeyIssueStatusChanged = "issue.status_changed"
)

// Publisher emits events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, key string, event any, requestID string) error
	Close() error
}

// UserRegistered is emitted once per new account.
type UserRegistered struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	UserType string `json:"user_type"`
}

// IssueCreated is emitted after a successful issue insert.
type IssueCreated struct {
	IssueID    string `json:"issue_id"`
	Title      string `json:"title"`
	ReporterID string `json:"reporter_id"`
}

// IssueStatusChanged is emitted when an update moves an issue to a new status.
type IssueStatusChanged struct {
	IssueID   string `json:"issue_id"`
	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
	ChangedBy string `json:"changed_by"`
}

// NoopPublisher drops everything; used when no broker is configured.
type NoopPublisher struct{}

func NewNoop() *NoopPublisher { return &NoopPublisher{} }

func (*NoopPublisher) Publish(context.Context, string, any, string) error { return nil }
func (*NoopPublisher) Close() error                                       { return nil }

// RabbitPublisher publishes JSON messages to the topic exchange.
type RabbitPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewRabbit(url string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbit dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbit channel: %w", err)
	}
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &RabbitPublisher{conn: conn, ch: ch}, nil
}

func (p *RabbitPublisher) Publish(ctx context.Context, key string, event any, requestID string) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	err = p.ch.PublishWithContext(ctx, Exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Headers:      amqp.Table{"X-Request-ID": requestID},
		Body:         body,
	})
	if err != nil {
		metrics.EventsPublished.WithLabelValues(key, "error").Inc()
		log.From(ctx).Warn("event publish failed",
			zap.String("routing_key", key), zap.Error(err))
		return fmt.Errorf("publish %s: %w", key, err)
	}
	metrics.EventsPublished.WithLabelValues(key, "ok").Inc()
	return nil
}

func (p *RabbitPublisher) Close() error {
	if err := p.ch.Close(); err != nil {
		_ = p.conn.Close()
		return err
	}
	return p.conn.Close()
}
