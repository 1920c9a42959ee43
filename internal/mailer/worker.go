package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Worker drains the email queue and delivers each message through the
// configured sender. One worker goroutine is enough at portal volumes.
type Worker struct {
	ch     *amqp.Channel
	queue  string
	sender Mailer
	log    *slog.Logger
}

func NewWorker(ch *amqp.Channel, queue string, sender Mailer, log *slog.Logger) (*Worker, error) {
	if queue == "" {
		queue = DefaultQueue
	}
	_, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("mailer: declare queue %s: %w", queue, err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return nil, fmt.Errorf("mailer: set qos: %w", err)
	}
	return &Worker{ch: ch, queue: queue, sender: sender, log: log}, nil
}

// Run consumes until the context is cancelled or the delivery channel
// closes. Failed sends are requeued once; a redelivered failure is dropped
// so a permanently broken message cannot wedge the queue.
func (w *Worker) Run(ctx context.Context) error {
	deliveries, err := w.ch.Consume(
		w.queue,
		"",    // consumer tag
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		return fmt.Errorf("mailer: consume %s: %w", w.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("mailer: delivery channel closed")
			}
			w.handle(ctx, d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	var env Envelope
	if err := json.Unmarshal(d.Body, &env); err != nil {
		w.log.Error("dropping malformed envelope", "error", err)
		_ = d.Nack(false, false)
		return
	}

	if err := w.deliver(ctx, env); err != nil {
		requeue := !d.Redelivered
		w.log.Error("email delivery failed",
			"kind", env.Kind, "requeue", requeue, "error", err)
		_ = d.Nack(false, requeue)
		return
	}

	w.log.Info("email delivered", "kind", env.Kind)
	_ = d.Ack(false)
}

func (w *Worker) deliver(ctx context.Context, env Envelope) error {
	switch env.Kind {
	case KindVerification:
		var msg VerificationEmail
		if err := json.Unmarshal(env.Payload, &msg); err != nil {
			return err
		}
		return w.sender.SendVerification(ctx, msg)
	case KindToken:
		var msg TokenEmail
		if err := json.Unmarshal(env.Payload, &msg); err != nil {
			return err
		}
		return w.sender.SendAPIToken(ctx, msg)
	default:
		return fmt.Errorf("mailer: unknown envelope kind %q", env.Kind)
	}
}
