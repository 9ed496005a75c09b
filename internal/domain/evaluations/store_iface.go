package evaluations

import (
	"context"

	"perfeval/internal/domain/cycles"
)

type StoreAPI interface {
	Insert(ctx context.Context, e Evaluation) (string, error)
	ListByEvaluator(ctx context.Context, evaluatorID, cycleID string) ([]Evaluation, error)
}

// CycleSource yields the cycle that submissions attach to.
type CycleSource interface {
	ActiveCycle(ctx context.Context) (cycles.Cycle, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, actorID, action, detail string) error
}

type Notifier interface {
	EvaluationReceived(ctx context.Context, evaluatedID string)
}
