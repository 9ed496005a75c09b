package notifications

import (
	"context"
	"log/slog"
	"strings"
)

type Service struct {
	users      EmailLookup
	dispatcher Dispatcher
}

func New(users EmailLookup, dispatcher Dispatcher) *Service {
	return &Service{users: users, dispatcher: dispatcher}
}

// EvaluationReceived tells the evaluated user about a new evaluation.
// Failures are logged and never reach the caller.
func (s *Service) EvaluationReceived(ctx context.Context, evaluatedID string) {
	email, err := s.users.UserEmail(ctx, evaluatedID)
	if err != nil {
		slog.Warn("notification email lookup failed", "userId", evaluatedID, "err", err)
		return
	}
	if strings.TrimSpace(email) == "" {
		return
	}
	msg := MailMessage{Type: TypeEvaluationReceived, To: email}
	if err := s.dispatcher.Dispatch(ctx, msg); err != nil {
		slog.Warn("notification dispatch failed", "type", msg.Type, "err", err)
	}
}
