package middleware

import (
	"context"
	"slices"

	"github.com/angelmondragon/tms-backend/pkg/enums"
	"github.com/google/uuid"
)

type contextKey string

const ctxIdentity contextKey = "identity"

// Identity is the authenticated caller as read from the access token.
type Identity struct {
	UserID      uuid.UUID
	Role        enums.Role
	Permissions []enums.Permission
	SessionID   string
}

// HasPermission reports whether the caller holds p.
func (i Identity) HasPermission(p enums.Permission) bool {
	return slices.Contains(i.Permissions, p)
}

// WithIdentity stores the caller on the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxIdentity, id)
}

// IdentityFromContext returns the caller and whether one was authenticated.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	id, ok := ctx.Value(ctxIdentity).(Identity)
	return id, ok
}

func UserIDFromContext(ctx context.Context) uuid.UUID {
	id, _ := IdentityFromContext(ctx)
	return id.UserID
}

func RoleFromContext(ctx context.Context) enums.Role {
	id, _ := IdentityFromContext(ctx)
	return id.Role
}

func SessionIDFromContext(ctx context.Context) string {
	id, _ := IdentityFromContext(ctx)
	return id.SessionID
}
