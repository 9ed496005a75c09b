package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerRunsQueuedJobs(t *testing.T) {
	svc := New(nil, 4)
	ctx, cancel := context.WithCancel(context.Background())
	svc.Start(ctx, 2)

	var ran atomic.Int32
	done := make(chan struct{}, 3)
	for i := 0; i < 3; i++ {
		ok := svc.Enqueue("notify", func(context.Context) (any, error) {
			ran.Add(1)
			done <- struct{}{}
			return nil, nil
		})
		if !ok {
			t.Fatal("expected job to be queued")
		}
	}

	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for jobs")
		}
	}
	cancel()
	svc.Wait()

	if ran.Load() != 3 {
		t.Fatalf("expected 3 runs, got %d", ran.Load())
	}
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	svc := New(nil, 1)
	noop := func(context.Context) (any, error) { return nil, nil }
	if !svc.Enqueue("a", noop) {
		t.Fatal("expected first job to be queued")
	}
	if svc.Enqueue("b", noop) {
		t.Fatal("expected second job to be dropped")
	}
}

func TestRunJobReturnsJobError(t *testing.T) {
	svc := New(nil, 1)
	boom := errors.New("smtp down")
	_, err := svc.runJob(context.Background(), job{Type: "notify", Run: func(context.Context) (any, error) {
		return nil, boom
	}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected job error, got %v", err)
	}
}
