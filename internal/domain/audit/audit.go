package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"perfeval/internal/platform/querier"
	"perfeval/internal/platform/requestctx"
)

const (
	ActionLogin            = "auth.login"
	ActionMFAEnable        = "auth.mfa.enable"
	ActionCycleCreate      = "cycle.create"
	ActionCycleUpdate      = "cycle.update"
	ActionCycleDelete      = "cycle.delete"
	ActionEvaluationSubmit = "evaluation.submit"
	ActionUserCreate       = "user.create"
	ActionUserUpdate       = "user.update"
	ActionUserDelete       = "user.delete"
	ActionDepartmentCreate = "department.create"
	ActionDepartmentUpdate = "department.update"
	ActionDepartmentDelete = "department.delete"
	ActionReportExport     = "report.export"
)

type Event struct {
	ID        string    `json:"id"`
	ActorID   string    `json:"actor_id"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail"`
	RequestID string    `json:"request_id"`
	IP        string    `json:"ip"`
	CreatedAt time.Time `json:"created_at"`
}

type Filter struct {
	Action  string
	ActorID string
}

// Service is an append-only sink. Writes run on a context detached from the
// caller so a finished request cannot cancel them.
type Service struct {
	DB      querier.Querier
	Timeout time.Duration
}

func New(db querier.Querier, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{DB: db, Timeout: timeout}
}

func (s *Service) Record(ctx context.Context, actorID, action, detail string) error {
	requestID := requestctx.GetRequestID(ctx)
	ip := requestctx.GetClientIP(ctx)

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.Timeout)
	defer cancel()

	_, err := s.DB.Exec(writeCtx, `
    INSERT INTO audit_logs (actor_user_id, action, detail, request_id, ip)
    VALUES ($1,$2,$3,$4,$5)
  `, nullIfEmpty(actorID), action, detail, requestID, ip)
	return err
}

func (s *Service) Count(ctx context.Context, filter Filter) (int, error) {
	query, args := buildBaseQuery("SELECT COUNT(1)", filter)
	var total int
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Service) List(ctx context.Context, filter Filter, limit, offset int) ([]Event, error) {
	query, args := buildBaseQuery("SELECT id, COALESCE(actor_user_id::text, ''), action, detail, request_id, ip, created_at", filter)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var evt Event
		if err := rows.Scan(&evt.ID, &evt.ActorID, &evt.Action, &evt.Detail, &evt.RequestID, &evt.IP, &evt.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func buildBaseQuery(selectClause string, filter Filter) (string, []any) {
	query := selectClause + " FROM audit_logs WHERE 1=1"
	var args []any
	if action := strings.TrimSpace(filter.Action); action != "" {
		args = append(args, action)
		query += fmt.Sprintf(" AND action = $%d", len(args))
	}
	if actor := strings.TrimSpace(filter.ActorID); actor != "" {
		args = append(args, actor)
		query += fmt.Sprintf(" AND actor_user_id = $%d", len(args))
	}
	return query, args
}

func nullIfEmpty(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
