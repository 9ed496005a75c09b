package main

import (
	"context"
	"errors"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"perfeval/internal/domain/notifications"
)

type worker struct {
	mailer notifications.Mailer
	from   string
}

func (w worker) run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-deliveries:
			if !ok {
				slog.Warn("delivery channel closed")
				return
			}
			w.handle(ctx, msg)
		}
	}
}

// handle acks delivered mail and drops malformed payloads. A failed send is
// requeued once.
func (w worker) handle(ctx context.Context, msg amqp.Delivery) {
	mail, err := notifications.DecodeMessage(msg.Body)
	if err != nil {
		slog.Error("malformed mail message", "err", err)
		if err := msg.Nack(false, false); err != nil {
			slog.Warn("nack failed", "err", err)
		}
		return
	}

	if err := notifications.Deliver(ctx, w.mailer, w.from, mail); err != nil {
		slog.Error("send email failed", "type", mail.Type, "err", err)
		requeue := !msg.Redelivered && !errors.Is(err, notifications.ErrUnknownMessageType)
		if err := msg.Nack(false, requeue); err != nil {
			slog.Warn("nack failed", "err", err)
		}
		return
	}

	if err := msg.Ack(false); err != nil {
		slog.Warn("ack failed", "err", err)
		return
	}
	slog.Info("email sent", "type", mail.Type)
}
