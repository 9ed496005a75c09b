package reports

import (
	"context"
	"encoding/json"

	"perfeval/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) UserEvaluations(ctx context.Context, userID string) ([]EvaluationRow, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, cycle_id, answers, comment, created_at
    FROM evaluations
    WHERE evaluated_id = $1
    ORDER BY created_at, id
  `, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EvaluationRow
	for rows.Next() {
		var row EvaluationRow
		var answersJSON []byte
		if err := rows.Scan(&row.ID, &row.CycleID, &answersJSON, &row.Comment, &row.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(answersJSON, &row.Answers); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (s *Store) Departments(ctx context.Context) ([]DepartmentRef, error) {
	rows, err := s.DB.Query(ctx, "SELECT id, name FROM departments ORDER BY name, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DepartmentRef
	for rows.Next() {
		var dept DepartmentRef
		if err := rows.Scan(&dept.ID, &dept.Name); err != nil {
			return nil, err
		}
		out = append(out, dept)
	}
	return out, rows.Err()
}

func (s *Store) AreaSamples(ctx context.Context) ([]AreaSample, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT u.department_id, e.answers
    FROM evaluations e
    JOIN users u ON u.id = e.evaluated_id
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AreaSample
	for rows.Next() {
		var sample AreaSample
		var answersJSON []byte
		if err := rows.Scan(&sample.DepartmentID, &answersJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(answersJSON, &sample.Answers); err != nil {
			return nil, err
		}
		out = append(out, sample)
	}
	return out, rows.Err()
}
