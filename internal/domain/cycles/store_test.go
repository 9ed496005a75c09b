package cycles_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"perfeval/internal/domain/cycles"
	"perfeval/internal/platform/db"
	"perfeval/migrations"
)

func openStore(t *testing.T) (*cycles.Store, *pgxpool.Pool) {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := db.Migrate(ctx, pool, migrations.FS); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return cycles.NewStore(pool), pool
}

func draft(name string, questions ...string) cycles.Draft {
	return cycles.Draft{
		Name:      name,
		StartDate: cycles.NewDate(2024, time.January, 1),
		EndDate:   cycles.NewDate(2024, time.June, 30),
		Questions: questions,
	}
}

func countRows(t *testing.T, pool *pgxpool.Pool, query string, arg any) int {
	t.Helper()
	var n int
	if err := pool.QueryRow(context.Background(), query, arg).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestStoreReplaceCycleSwapsQuestions(t *testing.T) {
	store, pool := openStore(t)
	ctx := context.Background()

	id, err := store.CreateCycle(ctx, draft(fmt.Sprintf("replace-%d", time.Now().UnixNano()), "Q1", "Q2"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.ReplaceCycle(ctx, id, draft("replaced", "Q3")); err != nil {
		t.Fatalf("replace: %v", err)
	}

	cycle, err := store.GetCycle(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cycle.Name != "replaced" || !cycle.Active {
		t.Fatalf("unexpected cycle %+v", cycle)
	}
	if len(cycle.Questions) != 1 || cycle.Questions[0].Text != "Q3" || cycle.Questions[0].Position != 1 {
		t.Fatalf("expected only Q3 at position 1, got %+v", cycle.Questions)
	}
	if n := countRows(t, pool, "SELECT count(*) FROM questions WHERE cycle_id = $1", id); n != 1 {
		t.Fatalf("expected one question row, got %d", n)
	}

	if err := store.ReplaceCycle(ctx, "00000000-0000-0000-0000-000000000000", draft("ghost", "Q")); !errors.Is(err, cycles.ErrCycleNotFound) {
		t.Fatalf("expected ErrCycleNotFound, got %v", err)
	}
}

func TestStoreDeleteCycleRemovesQuestions(t *testing.T) {
	store, pool := openStore(t)
	ctx := context.Background()

	id, err := store.CreateCycle(ctx, draft(fmt.Sprintf("delete-%d", time.Now().UnixNano()), "Q1", "Q2"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.DeleteCycle(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if n := countRows(t, pool, "SELECT count(*) FROM questions WHERE cycle_id = $1", id); n != 0 {
		t.Fatalf("expected questions removed, got %d", n)
	}
	if _, err := store.GetCycle(ctx, id); !errors.Is(err, cycles.ErrCycleNotFound) {
		t.Fatalf("expected ErrCycleNotFound after delete, got %v", err)
	}
	if err := store.DeleteCycle(ctx, id); !errors.Is(err, cycles.ErrCycleNotFound) {
		t.Fatalf("expected ErrCycleNotFound on second delete, got %v", err)
	}
}

func TestStoreCreateCycleRollsBackOnQuestionFailure(t *testing.T) {
	store, pool := openStore(t)
	ctx := context.Background()

	name := fmt.Sprintf("rollback-%d", time.Now().UnixNano())
	if _, err := store.CreateCycle(ctx, draft(name, "Q1", "bad\x00text")); err == nil {
		t.Fatal("expected question insert to fail")
	}
	if n := countRows(t, pool, "SELECT count(*) FROM evaluation_cycles WHERE name = $1", name); n != 0 {
		t.Fatalf("expected no cycle row after rollback, got %d", n)
	}
}

func TestStoreReplaceCycleRollsBackOnQuestionFailure(t *testing.T) {
	store, pool := openStore(t)
	ctx := context.Background()

	name := fmt.Sprintf("keep-%d", time.Now().UnixNano())
	id, err := store.CreateCycle(ctx, draft(name, "Q1", "Q2"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.ReplaceCycle(ctx, id, draft("changed", "Q3", "bad\x00text")); err == nil {
		t.Fatal("expected replace to fail")
	}

	cycle, err := store.GetCycle(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cycle.Name != name || len(cycle.Questions) != 2 {
		t.Fatalf("expected original cycle untouched, got %+v", cycle)
	}
	if n := countRows(t, pool, "SELECT count(*) FROM questions WHERE cycle_id = $1", id); n != 2 {
		t.Fatalf("expected two question rows, got %d", n)
	}
}
