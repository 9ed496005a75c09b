package cycles

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"perfeval/internal/domain/auth"
	"perfeval/internal/platform/apperr"
)

// memoryStore keeps cycles in a map and mimics the transactional store:
// a write either fully applies or not at all.
type memoryStore struct {
	cycles map[string]Cycle
	seq    int
	clock  time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{cycles: map[string]Cycle{}, clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *memoryStore) ListCycles(_ context.Context, flaggedOnly bool) ([]Cycle, error) {
	out := []Cycle{}
	for _, c := range m.cycles {
		if flaggedOnly && !c.Active {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (m *memoryStore) GetCycle(_ context.Context, id string) (Cycle, error) {
	c, ok := m.cycles[id]
	if !ok {
		return Cycle{}, ErrCycleNotFound
	}
	return c, nil
}

func (m *memoryStore) CreateCycle(_ context.Context, d Draft) (string, error) {
	m.seq++
	m.clock = m.clock.Add(time.Minute)
	id := fmt.Sprintf("c%d", m.seq)
	active := true
	if d.Active != nil {
		active = *d.Active
	}
	c := Cycle{ID: id, Name: d.Name, StartDate: d.StartDate, EndDate: d.EndDate, Active: active, CreatedAt: m.clock}
	c.Questions = buildQuestions(id, d.Questions)
	m.cycles[id] = c
	return id, nil
}

func (m *memoryStore) ReplaceCycle(_ context.Context, id string, d Draft) error {
	c, ok := m.cycles[id]
	if !ok {
		return ErrCycleNotFound
	}
	c.Name, c.StartDate, c.EndDate = d.Name, d.StartDate, d.EndDate
	if d.Active != nil {
		c.Active = *d.Active
	}
	c.Questions = buildQuestions(id, d.Questions)
	m.cycles[id] = c
	return nil
}

func (m *memoryStore) DeleteCycle(_ context.Context, id string) error {
	if _, ok := m.cycles[id]; !ok {
		return ErrCycleNotFound
	}
	delete(m.cycles, id)
	return nil
}

func buildQuestions(cycleID string, texts []string) []Question {
	out := make([]Question, len(texts))
	for i, text := range texts {
		out[i] = Question{ID: fmt.Sprintf("%s-q%d", cycleID, i+1), CycleID: cycleID, Position: i + 1, Text: text}
	}
	return out
}

var admin = auth.UserContext{UserID: "admin", Role: auth.RoleAdmin}

func newTestService(store StoreAPI, today string) *Service {
	svc := NewService(store, time.UTC)
	now, _ := time.Parse(dateLayout, today)
	svc.Now = func() time.Time { return now.Add(12 * time.Hour) }
	return svc
}

func TestCreateCycleRequiresAdmin(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, "2024-02-10")
	in := Input{Name: "Q1", StartDate: "2024-02-01", EndDate: "2024-02-29", Questions: []string{"a"}}

	for _, role := range []auth.Role{auth.RoleDirector, auth.RoleIntern, "unknown"} {
		_, err := svc.CreateCycle(context.Background(), auth.UserContext{UserID: "u", Role: role}, in)
		if !errors.Is(err, apperr.ErrForbidden) {
			t.Fatalf("role %s: expected forbidden, got %v", role, err)
		}
	}
	if len(store.cycles) != 0 {
		t.Fatalf("expected no cycles written")
	}
}

func TestCreateCycleWithoutQuestionsLeavesNoTrace(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, "2024-02-10")

	before, _ := svc.ListCycles(context.Background())
	_, err := svc.CreateCycle(context.Background(), admin, Input{Name: "Q1", StartDate: "2024-02-01", EndDate: "2024-02-29"})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	after, _ := svc.ListCycles(context.Background())
	if len(before) != len(after) {
		t.Fatalf("expected cycle list unchanged, before=%d after=%d", len(before), len(after))
	}
}

func TestUpdateCycleReplacesQuestions(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, "2024-02-10")
	ctx := context.Background()

	id, err := svc.CreateCycle(ctx, admin, Input{Name: "Q1", StartDate: "2024-02-01", EndDate: "2024-02-29", Questions: []string{"Q1", "Q2"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.UpdateCycle(ctx, admin, id, Input{Name: "Q1", StartDate: "2024-02-01", EndDate: "2024-02-29", Questions: []string{"Q3"}}); err != nil {
		t.Fatalf("update: %v", err)
	}
	cycle, err := svc.GetCycle(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(cycle.Questions) != 1 || cycle.Questions[0].Text != "Q3" {
		t.Fatalf("expected only Q3, got %+v", cycle.Questions)
	}
	if cycle.Status != StatusActive {
		t.Fatalf("expected active status, got %s", cycle.Status)
	}
}

func TestActiveQuestionsFollowDeletion(t *testing.T) {
	store := newMemoryStore()
	svc := newTestService(store, "2024-02-10")
	ctx := context.Background()

	id, err := svc.CreateCycle(ctx, admin, Input{Name: "Q1", StartDate: "2024-02-01", EndDate: "2024-02-29", Questions: []string{"a", "b"}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	questions, err := svc.ListActiveQuestions(ctx)
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(questions) != 2 || questions[0].Position != 1 {
		t.Fatalf("unexpected questions: %+v", questions)
	}

	if err := svc.DeleteCycle(ctx, admin, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.ListActiveQuestions(ctx); !errors.Is(err, ErrNoActiveCycle) {
		t.Fatalf("expected no active cycle, got %v", err)
	}
	if !errors.Is(ErrNoActiveCycle, apperr.ErrNotFound) {
		t.Fatalf("expected no active cycle to be a not found error")
	}
}

func TestActiveCycleUsesConfiguredTimezone(t *testing.T) {
	store := newMemoryStore()
	loc := time.FixedZone("UTC-5", -5*3600)
	svc := NewService(store, loc)
	// 02:00 UTC on March 1 is still February 29 at UTC-5.
	svc.Now = func() time.Time { return time.Date(2024, 3, 1, 2, 0, 0, 0, time.UTC) }

	if _, err := svc.CreateCycle(context.Background(), admin, Input{Name: "Feb", StartDate: "2024-02-01", EndDate: "2024-02-29", Questions: []string{"a"}}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.ActiveCycle(context.Background()); err != nil {
		t.Fatalf("expected cycle to still be active in local zone: %v", err)
	}
}

func TestDeleteUnknownCycle(t *testing.T) {
	svc := newTestService(newMemoryStore(), "2024-02-10")
	if err := svc.DeleteCycle(context.Background(), admin, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
