package mailer

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultQueue is the broker queue the portal publishes to and the mailer
// worker consumes from.
const DefaultQueue = "portal.emails"

// Envelope kinds on the queue.
const (
	KindVerification = "verification"
	KindToken        = "token"
)

// Envelope is the message format on the email queue. Payload holds the
// kind-specific body.
type Envelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// QueueMailer publishes messages to a broker queue instead of sending them
// inline. The standalone mailer worker drains the queue, which keeps slow
// SMTP round trips out of the request path.
type QueueMailer struct {
	ch    *amqp.Channel
	queue string
}

// NewQueueMailer declares the durable queue on the given channel. The caller
// owns the connection lifecycle.
func NewQueueMailer(ch *amqp.Channel, queue string) (*QueueMailer, error) {
	if queue == "" {
		queue = DefaultQueue
	}
	_, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("mailer: declare queue %s: %w", queue, err)
	}
	return &QueueMailer{ch: ch, queue: queue}, nil
}

func (m *QueueMailer) SendVerification(ctx context.Context, msg VerificationEmail) error {
	return m.publish(ctx, KindVerification, msg)
}

func (m *QueueMailer) SendAPIToken(ctx context.Context, msg TokenEmail) error {
	return m.publish(ctx, KindToken, msg)
}

func (m *QueueMailer) publish(ctx context.Context, kind string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	body, err := json.Marshal(Envelope{Kind: kind, Payload: raw})
	if err != nil {
		return err
	}

	err = m.ch.PublishWithContext(ctx,
		"",      // default exchange
		m.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("%w: publish %s: %v", ErrDelivery, kind, err)
	}
	return nil
}

var _ Mailer = (*QueueMailer)(nil)
