package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"

	cryptoutil "perfeval/internal/platform/crypto"
)

const mfaIssuer = "Perfeval"

type Service struct {
	store  StoreAPI
	Secret string
	TTL    time.Duration
	Crypto *cryptoutil.Service
}

func NewService(store StoreAPI, secret string, ttl time.Duration, crypto *cryptoutil.Service) *Service {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{store: store, Secret: secret, TTL: ttl, Crypto: crypto}
}

type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      UserSummary `json:"user"`
}

type MFASetup struct {
	Secret string `json:"secret"`
	URL    string `json:"otpauth_url"`
}

// Login verifies credentials and, when enabled, the TOTP code, then issues a
// signed token carrying the user id and role.
func (s *Service) Login(ctx context.Context, email, password, mfaCode string) (LoginResult, error) {
	user, err := s.store.FindUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("find user: %w", err)
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	if user.MFAEnabled {
		if strings.TrimSpace(mfaCode) == "" {
			return LoginResult{}, ErrMFARequired
		}
		secret, err := s.Crypto.DecryptString(user.MFASecretEnc)
		if err != nil || secret == "" {
			return LoginResult{}, ErrMFAInvalid
		}
		if !totp.Validate(strings.TrimSpace(mfaCode), secret) {
			return LoginResult{}, ErrMFAInvalid
		}
	}

	expiresAt := time.Now().Add(s.TTL)
	token, err := GenerateToken(s.Secret, Claims{UserID: user.ID, Role: user.Role}, s.TTL)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue token: %w", err)
	}

	if err := s.store.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("update last_login failed", "userId", user.ID, "err", err)
	}

	return LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      UserSummary{ID: user.ID, Name: user.Name, Email: user.Email, Role: user.Role},
	}, nil
}

// SetupMFA generates a fresh TOTP secret and stores it disabled until the
// user confirms a code through EnableMFA.
func (s *Service) SetupMFA(ctx context.Context, userID string) (MFASetup, error) {
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return MFASetup{}, err
	}
	key, err := totp.Generate(totp.GenerateOpts{Issuer: mfaIssuer, AccountName: user.Email})
	if err != nil {
		return MFASetup{}, fmt.Errorf("generate totp: %w", err)
	}
	sealed, err := s.Crypto.EncryptString(key.Secret())
	if err != nil {
		return MFASetup{}, fmt.Errorf("seal totp secret: %w", err)
	}
	if err := s.store.UpdateMFASecret(ctx, userID, sealed); err != nil {
		return MFASetup{}, err
	}
	return MFASetup{Secret: key.Secret(), URL: key.URL()}, nil
}

func (s *Service) EnableMFA(ctx context.Context, userID, code string) error {
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if len(user.MFASecretEnc) == 0 {
		return ErrMFANotInitialized
	}
	secret, err := s.Crypto.DecryptString(user.MFASecretEnc)
	if err != nil {
		return fmt.Errorf("open totp secret: %w", err)
	}
	if !totp.Validate(strings.TrimSpace(code), secret) {
		return ErrMFAInvalid
	}
	return s.store.SetMFAEnabled(ctx, userID, true)
}
