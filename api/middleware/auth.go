package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/tms-backend/api/responses"
	pkgauth "github.com/angelmondragon/tms-backend/pkg/auth"
	"github.com/angelmondragon/tms-backend/pkg/auth/session"
	"github.com/angelmondragon/tms-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/tms-backend/pkg/errors"
	"github.com/angelmondragon/tms-backend/pkg/logger"
)

const bearerPrefix = "bearer "

type authenticator struct {
	cfg      config.JWTConfig
	sessions session.AccessSessionChecker
}

// identify resolves the caller behind r. A nil sessions checker skips the
// revocation lookup.
func (a authenticator) identify(ctx context.Context, r *http.Request) (Identity, error) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(raw) >= len(bearerPrefix) && strings.EqualFold(raw[:len(bearerPrefix)], bearerPrefix) {
		raw = strings.TrimSpace(raw[len(bearerPrefix):])
	}
	if raw == "" {
		return Identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}

	claims, err := pkgauth.ParseAccessToken(a.cfg, raw)
	if err != nil {
		return Identity{}, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "invalid token")
	}

	if a.sessions != nil {
		live, err := a.sessions.Verify(ctx, claims.ID, claims.UserID)
		switch {
		case err != nil:
			return Identity{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
		case !live:
			return Identity{}, pkgerrors.New(pkgerrors.CodeForbidden, "session expired or revoked")
		}
	}

	return Identity{
		UserID:      claims.UserID,
		Role:        claims.Role,
		Permissions: claims.Permissions,
		SessionID:   claims.ID,
	}, nil
}

// Auth validates a bearer token and seeds the request context with the
// caller's identity. A missing token is 401; a token that fails validation or
// whose session is gone is 403.
func Auth(cfg config.JWTConfig, sessions session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	a := authenticator{cfg: cfg, sessions: sessions}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			id, err := a.identify(ctx, r)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			ctx = WithIdentity(ctx, id)
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"user_id":    id.UserID.String(),
					"actor_role": string(id.Role),
				})
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
