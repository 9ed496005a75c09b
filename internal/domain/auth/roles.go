package auth

import (
	"strings"

	"perfeval/internal/platform/apperr"
)

type Role string

// Roles ordered from most to least senior.
const (
	RoleAdmin       Role = "admin"
	RoleDirector    Role = "director"
	RoleManager     Role = "manager"
	RoleCoordinator Role = "coordinator"
	RoleAnalyst     Role = "analyst"
	RoleAssistant   Role = "assistant"
	RoleIntern      Role = "intern"
)

var Roles = []Role{
	RoleAdmin,
	RoleDirector,
	RoleManager,
	RoleCoordinator,
	RoleAnalyst,
	RoleAssistant,
	RoleIntern,
}

var ErrInsufficientRole = apperr.Forbidden("forbidden", "insufficient role")

// Rank is 0 for admin and grows with each less senior role; unknown roles
// rank below every known one.
func (r Role) Rank() int {
	for i, candidate := range Roles {
		if candidate == r {
			return i
		}
	}
	return len(Roles)
}

func (r Role) Valid() bool {
	return r.Rank() < len(Roles)
}

func ParseRole(value string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	return role, role.Valid()
}

func RoleNames() []string {
	out := make([]string, len(Roles))
	for i, role := range Roles {
		out[i] = string(role)
	}
	return out
}

// Authorize is the single access policy: role passes when it is at least as
// senior as required.
func Authorize(role, required Role) error {
	if !role.Valid() || role.Rank() > required.Rank() {
		return ErrInsufficientRole
	}
	return nil
}

// UserContext is the authenticated principal carried on a request.
type UserContext struct {
	UserID string
	Role   Role
}

func (u UserContext) Can(required Role) bool {
	return Authorize(u.Role, required) == nil
}
