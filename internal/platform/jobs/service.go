package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"perfeval/internal/platform/querier"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Service runs best-effort background work on a bounded in-process queue.
// When DB is set every run is recorded in job_runs.
type Service struct {
	DB      querier.Querier
	Timeout time.Duration

	queue chan job
	wg    sync.WaitGroup
}

type job struct {
	Type string
	Run  func(context.Context) (any, error)
}

func New(db querier.Querier, size int) *Service {
	if size <= 0 {
		size = 128
	}
	return &Service{
		DB:      db,
		Timeout: 30 * time.Second,
		queue:   make(chan job, size),
	}
}

// Start launches the given number of workers. They exit when ctx is done.
func (s *Service) Start(ctx context.Context, workers int) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx)
	}
}

// Wait blocks until every worker has returned.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Enqueue drops the job with a warning when the queue is full.
func (s *Service) Enqueue(jobType string, run func(context.Context) (any, error)) bool {
	select {
	case s.queue <- job{Type: jobType, Run: run}:
		return true
	default:
		slog.Warn("job queue full", "jobType", jobType)
		return false
	}
}

func (s *Service) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.Timeout)
			if _, err := s.runJob(runCtx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "err", err)
			}
			cancel()
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID := s.recordStart(ctx, j.Type)

	details, err := j.Run(ctx)
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
	}
	s.recordFinish(ctx, runID, status, details)
	return details, err
}

func (s *Service) recordStart(ctx context.Context, jobType string) string {
	if s.DB == nil {
		return ""
	}
	runID := ""
	if err := s.DB.QueryRow(ctx, `
    INSERT INTO job_runs (job_type, status)
    VALUES ($1,$2)
    RETURNING id
  `, jobType, StatusRunning).Scan(&runID); err != nil {
		slog.Warn("job run insert failed", "err", err)
	}
	return runID
}

func (s *Service) recordFinish(ctx context.Context, runID, status string, details any) {
	if s.DB == nil || runID == "" {
		return
	}
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		slog.Warn("job details marshal failed", "err", err)
		detailsJSON = []byte("{}")
	}
	if _, err := s.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id = $3
  `, status, detailsJSON, runID); err != nil {
		slog.Warn("job run update failed", "err", err)
	}
}
