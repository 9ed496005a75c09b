package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"perfeval/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

type AuthUser struct {
	ID           string
	Name         string
	Email        string
	Role         Role
	PasswordHash string
	MFAEnabled   bool
	MFASecretEnc []byte
}

const authUserColumns = "id, name, email, role, password_hash, mfa_enabled, mfa_secret_enc"

func scanAuthUser(row pgx.Row) (AuthUser, error) {
	var out AuthUser
	var role string
	err := row.Scan(&out.ID, &out.Name, &out.Email, &role, &out.PasswordHash, &out.MFAEnabled, &out.MFASecretEnc)
	if errors.Is(err, pgx.ErrNoRows) {
		return AuthUser{}, ErrUserNotFound
	}
	if err != nil {
		return AuthUser{}, err
	}
	out.Role = Role(role)
	return out, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (AuthUser, error) {
	return scanAuthUser(s.DB.QueryRow(ctx, "SELECT "+authUserColumns+" FROM users WHERE lower(email) = $1", strings.ToLower(strings.TrimSpace(email))))
}

func (s *Store) FindUserByID(ctx context.Context, userID string) (AuthUser, error) {
	return scanAuthUser(s.DB.QueryRow(ctx, "SELECT "+authUserColumns+" FROM users WHERE id = $1", userID))
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID)
	return err
}

func (s *Store) UpdateMFASecret(ctx context.Context, userID string, secretEnc []byte) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE users SET mfa_secret_enc = $1, mfa_enabled = false WHERE id = $2
  `, secretEnc, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *Store) SetMFAEnabled(ctx context.Context, userID string, enabled bool) error {
	tag, err := s.DB.Exec(ctx, "UPDATE users SET mfa_enabled = $1 WHERE id = $2", enabled, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
