package notifications

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownMessageType = errors.New("unknown message type")

// MailMessage is the queue payload. Type selects the rendered template.
type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
}

func (m MailMessage) Encode() ([]byte, error) {
	return json.Marshal(m)
}

func DecodeMessage(body []byte) (MailMessage, error) {
	var msg MailMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return MailMessage{}, fmt.Errorf("decode mail message: %w", err)
	}
	if strings.TrimSpace(msg.To) == "" {
		return MailMessage{}, errors.New("decode mail message: missing recipient")
	}
	return msg, nil
}

// Render returns the subject and plain text body for msg.
func Render(msg MailMessage) (string, string, error) {
	switch msg.Type {
	case TypeEvaluationReceived:
		return "New evaluation received", "You received a new evaluation in the performance review system.", nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnknownMessageType, msg.Type)
	}
}
