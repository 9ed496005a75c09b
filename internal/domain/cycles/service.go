package cycles

import (
	"context"
	"time"

	"perfeval/internal/domain/auth"
)

type Service struct {
	store    StoreAPI
	Now      func() time.Time
	Location *time.Location
}

func NewService(store StoreAPI, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: store, Now: time.Now, Location: loc}
}

// Today is the current calendar day in the configured zone.
func (s *Service) Today() Date {
	return DateOf(s.Now().In(s.Location))
}

func (s *Service) CreateCycle(ctx context.Context, actor auth.UserContext, in Input) (string, error) {
	if err := auth.Authorize(actor.Role, auth.RoleAdmin); err != nil {
		return "", err
	}
	draft, err := validateInput(in)
	if err != nil {
		return "", err
	}
	return s.store.CreateCycle(ctx, draft)
}

// UpdateCycle rewrites the cycle and swaps its whole question set.
func (s *Service) UpdateCycle(ctx context.Context, actor auth.UserContext, cycleID string, in Input) error {
	if err := auth.Authorize(actor.Role, auth.RoleAdmin); err != nil {
		return err
	}
	draft, err := validateInput(in)
	if err != nil {
		return err
	}
	return s.store.ReplaceCycle(ctx, cycleID, draft)
}

func (s *Service) DeleteCycle(ctx context.Context, actor auth.UserContext, cycleID string) error {
	if err := auth.Authorize(actor.Role, auth.RoleAdmin); err != nil {
		return err
	}
	return s.store.DeleteCycle(ctx, cycleID)
}

func (s *Service) ListCycles(ctx context.Context) ([]Cycle, error) {
	cycles, err := s.store.ListCycles(ctx, false)
	if err != nil {
		return nil, err
	}
	today := s.Today()
	for i := range cycles {
		cycles[i].Status = StatusOn(today, cycles[i])
	}
	return cycles, nil
}

func (s *Service) GetCycle(ctx context.Context, cycleID string) (Cycle, error) {
	cycle, err := s.store.GetCycle(ctx, cycleID)
	if err != nil {
		return Cycle{}, err
	}
	cycle.Status = StatusOn(s.Today(), cycle)
	return cycle, nil
}

// ActiveCycle returns ErrNoActiveCycle when no cycle is current. The answer
// is recomputed from stored rows on every call.
func (s *Service) ActiveCycle(ctx context.Context) (Cycle, error) {
	candidates, err := s.store.ListCycles(ctx, true)
	if err != nil {
		return Cycle{}, err
	}
	today := s.Today()
	cycle, ok := SelectActive(today, candidates)
	if !ok {
		return Cycle{}, ErrNoActiveCycle
	}
	cycle.Status = StatusOn(today, cycle)
	return cycle, nil
}

func (s *Service) ListActiveQuestions(ctx context.Context) ([]Question, error) {
	cycle, err := s.ActiveCycle(ctx)
	if err != nil {
		return nil, err
	}
	if cycle.Questions == nil {
		return []Question{}, nil
	}
	return cycle.Questions, nil
}
