package cycles

import "context"

type StoreAPI interface {
	ListCycles(ctx context.Context, flaggedOnly bool) ([]Cycle, error)
	GetCycle(ctx context.Context, cycleID string) (Cycle, error)
	CreateCycle(ctx context.Context, draft Draft) (string, error)
	ReplaceCycle(ctx context.Context, cycleID string, draft Draft) error
	DeleteCycle(ctx context.Context, cycleID string) error
}
