package shared

import "context"

// Role names recognised by store scoping.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleStaff   = "staff"
)

// Principal identifies the authenticated caller and their store assignment.
// Authentication itself happens outside this service; the auth middleware
// only verifies a token and places the principal here.
type Principal struct {
	UserID  int64
	Role    string
	StoreID int64
}

// Global reports whether the principal may see every store.
func (p Principal) Global() bool {
	return p.Role == RoleAdmin
}

// ScopeStore resolves the effective store filter for a query. Non-global
// principals are always pinned to their assigned store; a caller-supplied
// filter can never widen their scope.
func (p Principal) ScopeStore(requested *int64) *int64 {
	if !p.Global() {
		id := p.StoreID
		return &id
	}
	return requested
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context. The second
// return value is false when no auth middleware ran.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
