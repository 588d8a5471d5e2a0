package user

type Role string

const (
	RoleGuest    Role = "guest"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	switch r {
	case RoleGuest, RoleOperator, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsPrivileged reports whether the role may see every booking and drive
// the booking lifecycle. Evaluated server-side only.
func (r Role) IsPrivileged() bool {
	return r == RoleOperator || r == RoleAdmin
}

func NewRole(s string) (Role, error) {
	role := Role(s)
	if !role.IsValid() {
		return "", ErrInvalidRole
	}
	return role, nil
}
