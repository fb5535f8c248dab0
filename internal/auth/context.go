package auth

// Role is a caller's role as established by the authentication layer.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleStateUser Role = "state_user"
)

// Context is the trusted caller identity the service layer operates on.
// It is produced by the HTTP auth middleware after token validation; the
// engine applies only tenant-scoping and enablement logic on top of it.
type Context struct {
	UserID   string
	Username string
	Role     Role
	// StateID is nil unless the caller is bound to a state. State users
	// without a binding are rejected before any storage access.
	StateID *string
}

// IsAdmin reports whether the caller has the admin role.
func (c *Context) IsAdmin() bool {
	return c.Role == RoleAdmin
}
