package auth

import (
	"context"

	"github.com/ilmhub/coinhub/internal/model"
)

type contextKey struct{}

type AuthContext struct {
	UserID    int64
	Role      model.Role
	SessionID int64
	// Session carries the unsealed upstream bearer token.
	Session model.Session
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func UserID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.UserID
}

// HasRole reports whether the request is authenticated with one of roles.
func HasRole(ctx context.Context, roles ...model.Role) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	for _, r := range roles {
		if ac.Role == r {
			return true
		}
	}
	return false
}

func IsAdmin(ctx context.Context) bool {
	return HasRole(ctx, model.RoleAdmin)
}

var panels = map[model.Role]string{
	model.RoleAdmin:   "/admin",
	model.RoleTeacher: "/teacher",
	model.RoleStudent: "/student",
}

// PanelFor returns the panel a role lands on after login, or "/" for an
// unknown role.
func PanelFor(role model.Role) string {
	if p, ok := panels[role]; ok {
		return p
	}
	return "/"
}
