package queue

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher publishes mail events. Publishing is best-effort: errors
// are logged and returned so callers can decide whether the containing
// request should still succeed.
type Publisher struct{ URL string }

func NewPublisher(url string) *Publisher { return &Publisher{URL: url} }

// PublishPasswordReset enqueues a persistent message on the durable
// mail queue.
func (p *Publisher) PublishPasswordReset(ctx context.Context, email, displayName, rawToken string, expiresAt time.Time) error {
	ev := PasswordResetMail{
		Email:       email,
		DisplayName: displayName,
		Token:       rawToken,
		ExpiresAt:   expiresAt.UTC().Format(time.RFC3339),
		RequestedAt: time.Now().UTC().Format(time.RFC3339),
	}

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(MailQueueName, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", MailQueueName, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
