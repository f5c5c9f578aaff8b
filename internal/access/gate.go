package access

import "fmt"

// Role is a tenant-scoped role. Roles form a strict hierarchy:
// owner > admin > staff.
type Role string

const (
	RoleOwner Role = "owner"
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
)

// DefaultRequiredRole is the minimum role assumed when a page declares none.
const DefaultRequiredRole = RoleStaff

// ParseRole converts a raw role string into a Role.
// Unrecognized values are rejected, never treated as rank zero.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleOwner, RoleAdmin, RoleStaff:
		return Role(s), true
	}
	return "", false
}

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	_, ok := ParseRole(string(r))
	return ok
}

func (r Role) rank() int {
	switch r {
	case RoleOwner:
		return 3
	case RoleAdmin:
		return 2
	case RoleStaff:
		return 1
	}
	return 0
}

// AtLeast reports whether the role satisfies the required role.
// An unrecognized role on either side never admits anyone.
func (r Role) AtLeast(required Role) bool {
	return r.Valid() && required.Valid() && r.rank() >= required.rank()
}

// Context is the externally-resolved identity state for the current
// caller within the current tenant. It is supplied by the identity
// collaborator; the gate itself performs no I/O.
type Context struct {
	// Loading is true while identity resolution is still in flight.
	Loading bool
	// Authenticated is true when a signed-in identity is present.
	Authenticated bool
	// Role is the caller's resolved role in the current tenant,
	// empty when the caller has no tenant membership.
	Role Role
}

// Capability helpers derived from the role hierarchy.

func (c Context) IsOwner() bool { return c.Role == RoleOwner }
func (c Context) IsAdmin() bool { return c.Role == RoleOwner || c.Role == RoleAdmin }
func (c Context) IsStaff() bool { return c.Role.Valid() }

func (c Context) CanManageUsers() bool    { return c.IsOwner() }
func (c Context) CanManageProducts() bool { return c.IsAdmin() }
func (c Context) CanViewOrders() bool     { return c.IsStaff() }

// State is the outcome category of an authorization check.
type State int

const (
	StatePending State = iota
	StateDenied
	StateAdmitted
)

// Reason explains a denial.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonNotAuthenticated
	ReasonNoTenantAccess
	ReasonInsufficientRole
)

// Decision is the result of an authorization check. Denials carry a
// default human-readable message the caller can render as-is.
type Decision struct {
	State    State
	Reason   Reason
	Required Role // set for ReasonInsufficientRole
	Message  string
}

// Admitted reports whether protected content may render.
func (d Decision) Admitted() bool {
	return d.State == StateAdmitted
}

// WithMessage returns a copy of the decision with a caller-supplied
// fallback message. The decision itself is never changed by this.
func (d Decision) WithMessage(msg string) Decision {
	if msg != "" && d.State != StateAdmitted {
		d.Message = msg
	}
	return d
}

// Authorize decides whether a caller may access content guarded by the
// given minimum role. Checks run in order; the first match wins.
func Authorize(c Context, required Role) Decision {
	if required == "" {
		required = DefaultRequiredRole
	}

	if c.Loading {
		return Decision{State: StatePending, Message: "Loading..."}
	}

	if !c.Authenticated {
		return Decision{
			State:   StateDenied,
			Reason:  ReasonNotAuthenticated,
			Message: "You must be logged in",
		}
	}

	if !c.Role.Valid() {
		return Decision{
			State:   StateDenied,
			Reason:  ReasonNoTenantAccess,
			Message: "You do not have access to any tenant",
		}
	}

	if !c.Role.AtLeast(required) {
		return Decision{
			State:    StateDenied,
			Reason:   ReasonInsufficientRole,
			Required: required,
			Message:  fmt.Sprintf("You do not have permission to access this page. Required role: %s", required),
		}
	}

	return Decision{State: StateAdmitted}
}
