package identity

import (
	"strings"

	"github.com/medico/backend/internal/domain/shared"
)

// Role is the kind of account. The zero value is not a valid role.
type Role int

const (
	RoleUnknown Role = iota
	RoleVendor
	RoleConsumer
)

// roleTables is the fixed mapping from role to the table holding its accounts
var roleTables = map[Role]string{
	RoleVendor:   "vendor",
	RoleConsumer: "consumer",
}

// ErrUnknownRole rejects a user type outside the lookup table
var ErrUnknownRole = shared.ErrInvalidInput.WithMessage("Unknown user type")

// ParseRole accepts "vendor" or "consumer" in any case
func ParseRole(s string) (Role, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for role, name := range roleTables {
		if name == s {
			return role, nil
		}
	}
	return RoleUnknown, ErrUnknownRole
}

// Table returns the table storing accounts of this role, or "" for an invalid role
func (r Role) Table() string {
	return roleTables[r]
}

// Valid reports whether r is in the lookup table
func (r Role) Valid() bool {
	_, ok := roleTables[r]
	return ok
}

func (r Role) String() string {
	if name, ok := roleTables[r]; ok {
		return name
	}
	return "unknown"
}

// Roles lists every valid role
func Roles() []Role {
	return []Role{RoleVendor, RoleConsumer}
}
