package directory

import "context"

type StoreAPI interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, userID string) (User, error)
	CreateUser(ctx context.Context, in UserInput, passwordHash string) (string, error)
	UpdateUser(ctx context.Context, userID string, in UserInput, passwordHash *string) error
	DeleteUser(ctx context.Context, userID string) error
	SupervisorChain(ctx context.Context, userID string) ([]string, error)
	Subordinates(ctx context.Context, callerID string) ([]Subordinate, error)
	UserEmail(ctx context.Context, userID string) (string, error)

	ListDepartments(ctx context.Context) ([]Department, error)
	CreateDepartment(ctx context.Context, in DepartmentInput) (string, error)
	UpdateDepartment(ctx context.Context, departmentID string, in DepartmentInput) error
	DeleteDepartment(ctx context.Context, departmentID string) error
}
