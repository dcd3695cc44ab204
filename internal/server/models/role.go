package models

// Role names a credential partition. The string value is both the table
// name and the role claim carried in issued tokens.
type Role string

const (
	RoleAdmins    Role = "admins"
	RoleUsers     Role = "users"
	RoleEmployees Role = "employees"
	RoleManagers  Role = "managers"
)

// roles is the fixed enumeration order. Identity resolution prefers the
// earliest partition when a username is (wrongly) present in several.
var roles = [...]Role{RoleAdmins, RoleUsers, RoleEmployees, RoleManagers}

// Roles returns every role in enumeration order.
func Roles() []Role {
	out := make([]Role, len(roles))
	copy(out, roles[:])
	return out
}

// ParseRole accepts exactly one of the four role names.
func ParseRole(s string) (Role, bool) {
	for _, r := range roles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// Ordinal is the position of r in the enumeration, or -1.
func (r Role) Ordinal() int {
	for i, known := range roles {
		if known == r {
			return i
		}
	}
	return -1
}

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	return r.Ordinal() >= 0
}

func (r Role) String() string {
	return string(r)
}
