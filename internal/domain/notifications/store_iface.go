package notifications

import "context"

type EmailLookup interface {
	UserEmail(ctx context.Context, userID string) (string, error)
}

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

// Dispatcher hands a message to whatever delivers it, usually asynchronously.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg MailMessage) error
}
