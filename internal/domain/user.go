package domain

// Role is the kind of actor calling into the core.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleDriver   Role = "driver"
	RoleAdmin    Role = "admin"
)

// ParseRole returns the role for s and whether it is known.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleCustomer, RoleDriver, RoleAdmin:
		return Role(s), true
	}
	return "", false
}

// Principal is the authenticated caller, supplied by the identity layer.
type Principal struct {
	UserID string
	Role   Role
}

// IsCustomer reports whether the principal acts as a customer.
func (p Principal) IsCustomer() bool { return p.Role == RoleCustomer }

// IsDriver reports whether the principal acts as a driver.
func (p Principal) IsDriver() bool { return p.Role == RoleDriver }
