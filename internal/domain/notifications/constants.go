package notifications

const (
	TypeEvaluationReceived = "evaluation_received"

	jobTypeSendEmail = "send_email"
)
