package domain

// Role is the closed set of actor roles known to the system.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleCourier  Role = "COURIER"
	RoleCustomer Role = "CUSTOMER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCourier, RoleCustomer:
		return true
	}
	return false
}

// Actor is an already-authenticated caller. Authentication itself happens
// upstream; use cases only look at the id and role.
type Actor struct {
	ID   int64
	Role Role
}
