package directory

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"perfeval/internal/domain/auth"
	"perfeval/internal/platform/apperr"
)

const minPasswordLength = 6

var fieldValidator = validator.New()

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.store.ListUsers(ctx)
}

func (s *Service) GetUser(ctx context.Context, userID string) (User, error) {
	return s.store.GetUser(ctx, userID)
}

func (s *Service) UserEmail(ctx context.Context, userID string) (string, error) {
	return s.store.UserEmail(ctx, userID)
}

// Subordinates lists the caller's direct reports plus the caller's own
// supervisor, which is visible as a peer unless it is the caller.
func (s *Service) Subordinates(ctx context.Context, callerID string) ([]Subordinate, error) {
	return s.store.Subordinates(ctx, callerID)
}

func (s *Service) CreateUser(ctx context.Context, in UserInput) (string, error) {
	in = normalizeUserInput(in)
	if err := validateUserInput(in, true); err != nil {
		return "", err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return s.store.CreateUser(ctx, in, hash)
}

// UpdateUser replaces the editable fields of a user. The password changes
// only when a new one is supplied.
func (s *Service) UpdateUser(ctx context.Context, userID string, in UserInput) error {
	in = normalizeUserInput(in)
	if err := validateUserInput(in, false); err != nil {
		return err
	}
	if in.SupervisorID != nil {
		if *in.SupervisorID == userID {
			return ErrSelfSupervision
		}
		chain, err := s.store.SupervisorChain(ctx, *in.SupervisorID)
		if err != nil {
			return err
		}
		if createsCycle(userID, chain) {
			return ErrReportingCycle
		}
	}

	var hash *string
	if in.Password != "" {
		hashed, err := auth.HashPassword(in.Password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		hash = &hashed
	}
	return s.store.UpdateUser(ctx, userID, in, hash)
}

// DeleteUser detaches subordinates and directed departments before removing
// the user. Users referenced by evaluations are kept.
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	return s.store.DeleteUser(ctx, userID)
}

func (s *Service) ListDepartments(ctx context.Context) ([]Department, error) {
	return s.store.ListDepartments(ctx)
}

func (s *Service) CreateDepartment(ctx context.Context, in DepartmentInput) (string, error) {
	in = normalizeDepartmentInput(in)
	if in.Name == "" {
		return "", apperr.Validation("name", "name is required")
	}
	return s.store.CreateDepartment(ctx, in)
}

func (s *Service) UpdateDepartment(ctx context.Context, departmentID string, in DepartmentInput) error {
	in = normalizeDepartmentInput(in)
	if in.Name == "" {
		return apperr.Validation("name", "name is required")
	}
	return s.store.UpdateDepartment(ctx, departmentID, in)
}

func (s *Service) DeleteDepartment(ctx context.Context, departmentID string) error {
	return s.store.DeleteDepartment(ctx, departmentID)
}

// createsCycle reports whether making chain[0] the supervisor of userID would
// close a loop. chain runs from the proposed supervisor upward.
func createsCycle(userID string, chain []string) bool {
	for _, id := range chain {
		if id == userID {
			return true
		}
	}
	return false
}

func normalizeUserInput(in UserInput) UserInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Role = auth.Role(strings.ToLower(strings.TrimSpace(string(in.Role))))
	in.DepartmentID = trimOptional(in.DepartmentID)
	in.SupervisorID = trimOptional(in.SupervisorID)
	return in
}

func normalizeDepartmentInput(in DepartmentInput) DepartmentInput {
	in.Name = strings.TrimSpace(in.Name)
	in.DirectorID = trimOptional(in.DirectorID)
	return in
}

func validateUserInput(in UserInput, creating bool) error {
	verr := &apperr.ValidationError{}
	if in.Name == "" {
		verr.Add("name", "name is required")
	}
	if in.Email == "" {
		verr.Add("email", "email is required")
	} else if err := fieldValidator.Var(in.Email, "email"); err != nil {
		verr.Add("email", "email is invalid")
	}
	if creating && len(in.Password) < minPasswordLength {
		verr.Add("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if !creating && in.Password != "" && len(in.Password) < minPasswordLength {
		verr.Add("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	if !in.Role.Valid() {
		verr.Add("role", "role must be one of "+strings.Join(auth.RoleNames(), ", "))
	}
	return verr.OrNil()
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
