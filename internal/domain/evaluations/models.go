package evaluations

import "time"

type Evaluation struct {
	ID          string             `json:"id"`
	EvaluatorID string             `json:"evaluator_id"`
	EvaluatedID string             `json:"evaluated_id"`
	CycleID     string             `json:"cycle_id"`
	Answers     map[string]float64 `json:"answers"`
	Comment     string             `json:"comment"`
	CreatedAt   time.Time          `json:"created_at"`
}

type SubmitInput struct {
	EvaluatedID string
	Answers     map[string]float64
	Comment     string
}

// Options toggles the submission checks that are policy rather than data
// integrity.
type Options struct {
	AllowSelf  bool
	StrictKeys bool
}
