package models

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// Role is the single access tier a user holds. A user has exactly one role.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleTakmir Role = "takmir"
	RoleWarga  Role = "warga"
)

// Roles lists every valid role, highest privilege first.
var Roles = []Role{RoleAdmin, RoleTakmir, RoleWarga}

// ParseRole converts a backend role string into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleTakmir:
		return RoleTakmir, nil
	case RoleWarga:
		return RoleWarga, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

func (r Role) String() string {
	return string(r)
}

// Label is the human readable name shown in the UI.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleTakmir:
		return "Takmir"
	case RoleWarga:
		return "Warga"
	}
	return "-"
}

// HomePath is the dashboard shell a role lands on.
func (r Role) HomePath() string {
	switch r {
	case RoleAdmin:
		return "/admin"
	case RoleTakmir:
		return "/takmir"
	default:
		return "/dashboard/warga"
	}
}

// Satisfies is the one role check: an empty requirement admits any valid
// role, otherwise the roles must match exactly.
func (r Role) Satisfies(required Role) bool {
	if !r.Valid() {
		return false
	}
	return required == "" || r == required
}

// UnmarshalJSON accepts either a scalar role or a role array. Some backend
// endpoints return ["admin"], others "admin"; the first recognised entry wins.
// A null, unknown or empty role decodes to the zero Role so that one role-less
// account does not break a whole listing; callers that need an identity check
// Valid.
func (r *Role) UnmarshalJSON(data []byte) error {
	*r = ""
	if string(data) == "null" {
		return nil
	}

	var single string
	if err := sonic.Unmarshal(data, &single); err == nil {
		if role, err := ParseRole(single); err == nil {
			*r = role
		}
		return nil
	}

	var many []string
	if err := sonic.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("role must be a string or an array of strings: %w", err)
	}
	for _, s := range many {
		if role, err := ParseRole(s); err == nil {
			*r = role
			return nil
		}
	}
	return nil
}
