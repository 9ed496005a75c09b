package evaluations

import (
	"context"
	"encoding/json"

	"perfeval/internal/platform/querier"
)

const constraintCycleFK = "evaluations_cycle_id_fkey"

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) Insert(ctx context.Context, e Evaluation) (string, error) {
	answersJSON, err := json.Marshal(e.Answers)
	if err != nil {
		return "", err
	}
	var id string
	err = s.DB.QueryRow(ctx, `
    INSERT INTO evaluations (evaluator_id, evaluated_id, cycle_id, answers, comment)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id
  `, e.EvaluatorID, e.EvaluatedID, e.CycleID, answersJSON, e.Comment).Scan(&id)
	switch {
	case err == nil:
		return id, nil
	case querier.IsUniqueViolation(err):
		return "", ErrDuplicate
	case querier.IsForeignKeyViolation(err):
		// The cycle can disappear between selection and insert.
		if querier.ConstraintName(err) == constraintCycleFK {
			return "", ErrNoActiveCycle
		}
		return "", ErrEvaluatedNotFound
	}
	return "", err
}

func (s *Store) ListByEvaluator(ctx context.Context, evaluatorID, cycleID string) ([]Evaluation, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, evaluator_id, evaluated_id, cycle_id, answers, comment, created_at
    FROM evaluations
    WHERE evaluator_id = $1 AND cycle_id = $2
    ORDER BY created_at
  `, evaluatorID, cycleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Evaluation{}
	for rows.Next() {
		var e Evaluation
		var answersJSON []byte
		if err := rows.Scan(&e.ID, &e.EvaluatorID, &e.EvaluatedID, &e.CycleID, &answersJSON, &e.Comment, &e.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(answersJSON, &e.Answers); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
