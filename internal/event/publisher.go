package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher is what the service layer sees. Publishing happens after the
// domain write has committed and a failure is never propagated back into it.
type Publisher interface {
	Publish(ctx context.Context, evt NotificationEvent) error
}

// NotificationPublisher publishes notification events to RabbitMQ
type NotificationPublisher struct {
	conn              *RabbitMQConnection
	messagesPublished int64
	messagesFailed    int64
}

func NewNotificationPublisher(conn *RabbitMQConnection) *NotificationPublisher {
	return &NotificationPublisher{conn: conn}
}

// Publish publishes a notification event to the push_noti_events queue
func (p *NotificationPublisher) Publish(ctx context.Context, evt NotificationEvent) error {
	_, err := p.conn.Channel.QueueDeclare(
		NotificationQueue, // queue name
		true,              // durable
		false,             // delete when unused
		false,             // exclusive
		false,             // no-wait
		nil,               // arguments
	)
	if err != nil {
		p.messagesFailed++
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	body, err := json.Marshal(evt)
	if err != nil {
		p.messagesFailed++
		return fmt.Errorf("failed to marshal notification event: %w", err)
	}

	err = p.conn.Channel.PublishWithContext(
		ctx,
		"",                // exchange
		NotificationQueue, // routing key (queue name)
		false,             // mandatory
		false,             // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		p.messagesFailed++
		return fmt.Errorf("failed to publish notification event: %w", err)
	}

	p.messagesPublished++
	slog.Info("Notification event published",
		"queue", NotificationQueue,
		"event_type", evt.EventType,
		"recipient_id", evt.RecipientID,
	)
	return nil
}

// GetMetrics returns publisher counters
func (p *NotificationPublisher) GetMetrics() map[string]any {
	return map[string]any{
		"messages_published": p.messagesPublished,
		"messages_failed":    p.messagesFailed,
		"queue":              NotificationQueue,
	}
}
