package directory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"perfeval/internal/domain/auth"
	"perfeval/internal/platform/querier"
)

// maxChainDepth bounds the supervisor walk so corrupt data cannot loop forever.
const maxChainDepth = 64

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const userColumns = `
    u.id, u.name, u.email, u.role, u.department_id, d.name, u.supervisor_id, u.mfa_enabled, u.created_at
  `

func scanUser(row pgx.Row) (User, error) {
	var u User
	var role string
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &role, &u.DepartmentID, &u.DepartmentName, &u.SupervisorID, &u.MFAEnabled, &u.CreatedAt); err != nil {
		return User{}, err
	}
	u.Role = auth.Role(role)
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT`+userColumns+`
    FROM users u
    LEFT JOIN departments d ON d.id = u.department_id
    ORDER BY u.name, u.email
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) GetUser(ctx context.Context, userID string) (User, error) {
	u, err := scanUser(s.DB.QueryRow(ctx, `
    SELECT`+userColumns+`
    FROM users u
    LEFT JOIN departments d ON d.id = u.department_id
    WHERE u.id = $1
  `, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

func (s *Store) UserEmail(ctx context.Context, userID string) (string, error) {
	var email string
	err := s.DB.QueryRow(ctx, "SELECT email FROM users WHERE id = $1", userID).Scan(&email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrUserNotFound
	}
	return email, err
}

func (s *Store) CreateUser(ctx context.Context, in UserInput, passwordHash string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (name, email, password_hash, role, department_id, supervisor_id)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id
  `, in.Name, in.Email, passwordHash, string(in.Role), in.DepartmentID, in.SupervisorID).Scan(&id)
	if err != nil {
		return "", mapWriteError(err)
	}
	return id, nil
}

func (s *Store) UpdateUser(ctx context.Context, userID string, in UserInput, passwordHash *string) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE users
    SET name = $1, email = $2, role = $3, department_id = $4, supervisor_id = $5,
        password_hash = COALESCE($6, password_hash)
    WHERE id = $7
  `, in.Name, in.Email, string(in.Role), in.DepartmentID, in.SupervisorID, passwordHash, userID)
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, userID string) error {
	return pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		var evaluations int
		if err := tx.QueryRow(ctx, `
      SELECT COUNT(1) FROM evaluations WHERE evaluator_id = $1 OR evaluated_id = $1
    `, userID).Scan(&evaluations); err != nil {
			return err
		}
		if evaluations > 0 {
			return ErrUserHasEvaluations
		}
		if _, err := tx.Exec(ctx, "UPDATE users SET supervisor_id = NULL WHERE supervisor_id = $1", userID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, "UPDATE departments SET director_id = NULL WHERE director_id = $1", userID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, "DELETE FROM users WHERE id = $1", userID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

// SupervisorChain returns userID followed by each supervisor above it.
func (s *Store) SupervisorChain(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    WITH RECURSIVE chain (id, supervisor_id, depth) AS (
      SELECT id, supervisor_id, 1 FROM users WHERE id = $1
      UNION ALL
      SELECT u.id, u.supervisor_id, c.depth + 1
      FROM users u
      JOIN chain c ON u.id = c.supervisor_id
      WHERE c.depth < $2
    )
    SELECT id FROM chain ORDER BY depth
  `, userID, maxChainDepth)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chain []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		chain = append(chain, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(chain) == 0 {
		return nil, ErrSupervisorNotFound
	}
	return chain, nil
}

func (s *Store) Subordinates(ctx context.Context, callerID string) ([]Subordinate, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT u.id, u.name, u.role, d.name
    FROM users u
    LEFT JOIN departments d ON d.id = u.department_id
    WHERE u.supervisor_id = $1
       OR (u.id = (SELECT supervisor_id FROM users WHERE id = $1) AND u.id <> $1)
    ORDER BY u.name
  `, callerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Subordinate{}
	for rows.Next() {
		var sub Subordinate
		var role string
		if err := rows.Scan(&sub.ID, &sub.Name, &role, &sub.Department); err != nil {
			return nil, err
		}
		sub.Role = auth.Role(role)
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *Store) ListDepartments(ctx context.Context) ([]Department, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT d.id, d.name, d.director_id, COUNT(u.id), d.created_at
    FROM departments d
    LEFT JOIN users u ON u.department_id = d.id
    GROUP BY d.id
    ORDER BY d.name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Department{}
	for rows.Next() {
		var dept Department
		if err := rows.Scan(&dept.ID, &dept.Name, &dept.DirectorID, &dept.Members, &dept.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, dept)
	}
	return out, rows.Err()
}

func (s *Store) CreateDepartment(ctx context.Context, in DepartmentInput) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO departments (name, director_id) VALUES ($1,$2) RETURNING id
  `, in.Name, in.DirectorID).Scan(&id)
	if err != nil {
		return "", mapWriteError(err)
	}
	return id, nil
}

func (s *Store) UpdateDepartment(ctx context.Context, departmentID string, in DepartmentInput) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE departments SET name = $1, director_id = $2 WHERE id = $3
  `, in.Name, in.DirectorID, departmentID)
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDepartmentNotFound
	}
	return nil
}

func (s *Store) DeleteDepartment(ctx context.Context, departmentID string) error {
	return pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "UPDATE users SET department_id = NULL WHERE department_id = $1", departmentID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, "DELETE FROM departments WHERE id = $1", departmentID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrDepartmentNotFound
		}
		return nil
	})
}

func mapWriteError(err error) error {
	switch {
	case querier.IsUniqueViolation(err):
		return ErrEmailTaken
	case querier.IsForeignKeyViolation(err):
		return ErrReferenceNotFound
	}
	return err
}
