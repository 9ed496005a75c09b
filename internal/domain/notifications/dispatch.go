package notifications

import (
	"context"
	"errors"

	"perfeval/internal/platform/jobs"
)

var ErrQueueFull = errors.New("notification queue full")

type Publisher interface {
	Publish(ctx context.Context, body []byte) error
}

// QueueDispatcher publishes messages for the mailer worker.
type QueueDispatcher struct {
	Publisher Publisher
}

func (d QueueDispatcher) Dispatch(ctx context.Context, msg MailMessage) error {
	body, err := msg.Encode()
	if err != nil {
		return err
	}
	return d.Publisher.Publish(ctx, body)
}

// JobDispatcher delivers messages on the in-process job queue when no broker
// is configured.
type JobDispatcher struct {
	Jobs   *jobs.Service
	Mailer Mailer
	From   string
}

func (d JobDispatcher) Dispatch(_ context.Context, msg MailMessage) error {
	queued := d.Jobs.Enqueue(jobTypeSendEmail, func(ctx context.Context) (any, error) {
		if err := Deliver(ctx, d.Mailer, d.From, msg); err != nil {
			return map[string]any{"type": msg.Type}, err
		}
		return map[string]any{"type": msg.Type}, nil
	})
	if !queued {
		return ErrQueueFull
	}
	return nil
}

// Deliver renders msg and sends it through mailer.
func Deliver(ctx context.Context, mailer Mailer, from string, msg MailMessage) error {
	subject, body, err := Render(msg)
	if err != nil {
		return err
	}
	return mailer.Send(ctx, from, msg.To, subject, body)
}
