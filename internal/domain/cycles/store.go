package cycles

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"perfeval/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) ListCycles(ctx context.Context, flaggedOnly bool) ([]Cycle, error) {
	query := `
    SELECT id, name, start_date, end_date, active, created_at
    FROM evaluation_cycles
  `
	if flaggedOnly {
		query += " WHERE active = true"
	}
	query += " ORDER BY start_date DESC, created_at DESC"

	rows, err := s.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cycles := []Cycle{}
	index := map[string]int{}
	for rows.Next() {
		cycle, err := scanCycle(rows)
		if err != nil {
			return nil, err
		}
		index[cycle.ID] = len(cycles)
		cycles = append(cycles, cycle)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cycles) == 0 {
		return cycles, nil
	}

	ids := make([]string, 0, len(cycles))
	for _, c := range cycles {
		ids = append(ids, c.ID)
	}
	questions, err := s.questions(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, q := range questions {
		i := index[q.CycleID]
		cycles[i].Questions = append(cycles[i].Questions, q)
	}
	return cycles, nil
}

func (s *Store) GetCycle(ctx context.Context, cycleID string) (Cycle, error) {
	cycle, err := scanCycle(s.DB.QueryRow(ctx, `
    SELECT id, name, start_date, end_date, active, created_at
    FROM evaluation_cycles
    WHERE id = $1
  `, cycleID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Cycle{}, ErrCycleNotFound
	}
	if err != nil {
		return Cycle{}, err
	}
	cycle.Questions, err = s.questions(ctx, []string{cycleID})
	if err != nil {
		return Cycle{}, err
	}
	return cycle, nil
}

func (s *Store) CreateCycle(ctx context.Context, draft Draft) (string, error) {
	active := true
	if draft.Active != nil {
		active = *draft.Active
	}
	var id string
	err := pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `
      INSERT INTO evaluation_cycles (name, start_date, end_date, active)
      VALUES ($1,$2,$3,$4)
      RETURNING id
    `, draft.Name, draft.StartDate.Time(), draft.EndDate.Time(), active).Scan(&id); err != nil {
			return err
		}
		return insertQuestions(ctx, tx, id, draft.Questions)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// ReplaceCycle updates the cycle row and swaps its questions inside one
// transaction; readers never see a partial question set.
func (s *Store) ReplaceCycle(ctx context.Context, cycleID string, draft Draft) error {
	return pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
      UPDATE evaluation_cycles
      SET name = $1, start_date = $2, end_date = $3, active = COALESCE($4, active)
      WHERE id = $5
    `, draft.Name, draft.StartDate.Time(), draft.EndDate.Time(), draft.Active, cycleID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrCycleNotFound
		}
		if _, err := tx.Exec(ctx, "DELETE FROM questions WHERE cycle_id = $1", cycleID); err != nil {
			return err
		}
		return insertQuestions(ctx, tx, cycleID, draft.Questions)
	})
}

func (s *Store) DeleteCycle(ctx context.Context, cycleID string) error {
	err := pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM questions WHERE cycle_id = $1", cycleID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, "DELETE FROM evaluation_cycles WHERE id = $1", cycleID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrCycleNotFound
		}
		return nil
	})
	if querier.IsForeignKeyViolation(err) {
		return ErrCycleInUse
	}
	return err
}

func (s *Store) questions(ctx context.Context, cycleIDs []string) ([]Question, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, cycle_id, position, text
    FROM questions
    WHERE cycle_id = ANY($1::uuid[])
    ORDER BY cycle_id, position
  `, cycleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Question{}
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.CycleID, &q.Position, &q.Text); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func insertQuestions(ctx context.Context, tx pgx.Tx, cycleID string, questions []string) error {
	for i, text := range questions {
		if _, err := tx.Exec(ctx, `
      INSERT INTO questions (cycle_id, position, text) VALUES ($1,$2,$3)
    `, cycleID, i+1, text); err != nil {
			return err
		}
	}
	return nil
}

func scanCycle(row pgx.Row) (Cycle, error) {
	var c Cycle
	var start, end time.Time
	if err := row.Scan(&c.ID, &c.Name, &start, &end, &c.Active, &c.CreatedAt); err != nil {
		return Cycle{}, err
	}
	c.StartDate = DateOf(start)
	c.EndDate = DateOf(end)
	return c, nil
}
