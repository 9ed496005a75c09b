package directory

import (
	"time"

	"perfeval/internal/domain/auth"
)

type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Role           auth.Role `json:"role"`
	DepartmentID   *string   `json:"department_id"`
	DepartmentName *string   `json:"department_name"`
	SupervisorID   *string   `json:"supervisor_id"`
	MFAEnabled     bool      `json:"mfa_enabled"`
	CreatedAt      time.Time `json:"created_at"`
}

type UserInput struct {
	Name         string
	Email        string
	Password     string
	Role         auth.Role
	DepartmentID *string
	SupervisorID *string
}

type Department struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	DirectorID *string   `json:"director_id"`
	Members    int       `json:"members"`
	CreatedAt  time.Time `json:"created_at"`
}

type DepartmentInput struct {
	Name       string
	DirectorID *string
}

// Subordinate is a user the caller may evaluate.
type Subordinate struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Role       auth.Role `json:"role"`
	Department *string   `json:"department"`
}
