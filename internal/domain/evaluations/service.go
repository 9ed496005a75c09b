package evaluations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"perfeval/internal/domain/audit"
	"perfeval/internal/domain/cycles"
	"perfeval/internal/platform/apperr"
)

type Service struct {
	store    StoreAPI
	cycles   CycleSource
	audit    AuditRecorder
	notifier Notifier
	opts     Options
}

// NewService wires the store and its collaborators. audit and notifier may
// be nil.
func NewService(store StoreAPI, cycleSource CycleSource, recorder AuditRecorder, notifier Notifier, opts Options) *Service {
	return &Service{store: store, cycles: cycleSource, audit: recorder, notifier: notifier, opts: opts}
}

// Submit stores one evaluation against the active cycle. The unique key on
// (evaluator, evaluated, cycle) turns a repeat into ErrDuplicate.
func (s *Service) Submit(ctx context.Context, evaluatorID string, in SubmitInput) (string, error) {
	in = normalizeInput(in)
	if err := validateInput(in); err != nil {
		return "", err
	}
	if !s.opts.AllowSelf && in.EvaluatedID == evaluatorID {
		return "", ErrSelfEvaluation
	}

	cycle, err := s.activeCycle(ctx)
	if err != nil {
		return "", err
	}
	if s.opts.StrictKeys {
		if err := checkAnswerKeys(in.Answers, cycle.Questions); err != nil {
			return "", err
		}
	}

	id, err := s.store.Insert(ctx, Evaluation{
		EvaluatorID: evaluatorID,
		EvaluatedID: in.EvaluatedID,
		CycleID:     cycle.ID,
		Answers:     in.Answers,
		Comment:     in.Comment,
	})
	if err != nil {
		return "", err
	}

	if s.audit != nil {
		detail := fmt.Sprintf("evaluation=%s evaluated=%s cycle=%s", id, in.EvaluatedID, cycle.ID)
		if err := s.audit.Record(ctx, evaluatorID, audit.ActionEvaluationSubmit, detail); err != nil {
			slog.Warn("audit evaluation.submit failed", "err", err)
		}
	}
	if s.notifier != nil {
		s.notifier.EvaluationReceived(ctx, in.EvaluatedID)
	}
	return id, nil
}

// ListByEvaluator returns the caller's submissions in the active cycle, or
// an empty list when no cycle is active.
func (s *Service) ListByEvaluator(ctx context.Context, evaluatorID string) ([]Evaluation, error) {
	cycle, err := s.activeCycle(ctx)
	if errors.Is(err, ErrNoActiveCycle) {
		return []Evaluation{}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.store.ListByEvaluator(ctx, evaluatorID, cycle.ID)
}

func (s *Service) activeCycle(ctx context.Context) (cycles.Cycle, error) {
	cycle, err := s.cycles.ActiveCycle(ctx)
	if errors.Is(err, cycles.ErrNoActiveCycle) {
		return cycles.Cycle{}, ErrNoActiveCycle
	}
	return cycle, err
}

func normalizeInput(in SubmitInput) SubmitInput {
	in.EvaluatedID = strings.TrimSpace(in.EvaluatedID)
	in.Comment = strings.TrimSpace(in.Comment)
	answers := make(map[string]float64, len(in.Answers))
	for key, value := range in.Answers {
		answers[strings.TrimSpace(key)] = value
	}
	in.Answers = answers
	return in
}

func validateInput(in SubmitInput) error {
	verr := &apperr.ValidationError{}
	if in.EvaluatedID == "" {
		verr.Add("evaluated_id", "evaluated_id is required")
	}
	if len(in.Answers) == 0 {
		verr.Add("answers", "at least one answer is required")
	}
	if _, ok := in.Answers[""]; ok {
		verr.Add("answers", "answer keys must not be blank")
	}
	return verr.OrNil()
}

// checkAnswerKeys accepts a question id or its 1-based position.
func checkAnswerKeys(answers map[string]float64, questions []cycles.Question) error {
	known := make(map[string]struct{}, len(questions)*2)
	for _, q := range questions {
		known[q.ID] = struct{}{}
		known[strconv.Itoa(q.Position)] = struct{}{}
	}
	for key := range answers {
		if _, ok := known[key]; !ok {
			return ErrUnknownQuestionKey
		}
	}
	return nil
}
