package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/tms-backend/pkg/auth"
	"github.com/angelmondragon/tms-backend/pkg/auth/session"
	"github.com/angelmondragon/tms-backend/pkg/config"
	"github.com/angelmondragon/tms-backend/pkg/enums"
	"github.com/google/uuid"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serve(handler http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	return resp
}

func TestAuthRejectsMissingToken(t *testing.T) {
	resp := serve(Auth(testJWT, stubSessionVerifier{ok: true}, nil)(okHandler()), "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	resp := serve(Auth(testJWT, stubSessionVerifier{ok: true}, nil)(okHandler()), "invalid")
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 1}
	token, err := auth.MintAccessToken(cfg, time.Now().Add(-time.Hour), auth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   enums.RoleDriver,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	resp := serve(Auth(cfg, stubSessionVerifier{ok: true}, nil)(okHandler()), token)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	token := mintTestToken(t, enums.RoleDriver)
	resp := serve(Auth(testJWT, stubSessionVerifier{ok: false}, nil)(okHandler()), token)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestAuthSessionBackendFailure(t *testing.T) {
	token := mintTestToken(t, enums.RoleDriver)
	resp := serve(Auth(testJWT, stubSessionVerifier{err: errors.New("redis down")}, nil)(okHandler()), token)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestAuthAllowsValidToken(t *testing.T) {
	token := mintTestToken(t, enums.RoleTransportManager, enums.PermissionReadJob)

	var captured Identity
	handler := Auth(testJWT, stubSessionVerifier{ok: true}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	resp := serve(handler, token)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.UserID == uuid.Nil {
		t.Fatal("expected user id in context")
	}
	if captured.Role != enums.RoleTransportManager {
		t.Fatalf("expected transport manager got %s", captured.Role)
	}
	if !captured.HasPermission(enums.PermissionReadJob) {
		t.Fatalf("expected READ_JOB in %v", captured.Permissions)
	}
	if captured.SessionID == "" {
		t.Fatal("expected session id in context")
	}
}

func TestRequireRoles(t *testing.T) {
	handler := RequireRoles(nil, enums.RoleAdministrator)(okHandler())

	cases := []struct {
		name string
		ctx  context.Context
		want int
	}{
		{name: "anonymous", ctx: context.Background(), want: http.StatusUnauthorized},
		{name: "driver", ctx: WithIdentity(context.Background(), Identity{UserID: uuid.New(), Role: enums.RoleDriver}), want: http.StatusForbidden},
		{name: "admin", ctx: WithIdentity(context.Background(), Identity{UserID: uuid.New(), Role: enums.RoleAdministrator}), want: http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(tc.ctx)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != tc.want {
			t.Fatalf("%s: expected %d got %d", tc.name, tc.want, resp.Code)
		}
	}
}

func TestRequirePermissionsNeedsSuperset(t *testing.T) {
	handler := RequirePermissions(nil, enums.PermissionReadJob, enums.PermissionReadTransportRequest)(okHandler())

	partial := WithIdentity(context.Background(), Identity{
		UserID:      uuid.New(),
		Role:        enums.RoleDriver,
		Permissions: []enums.Permission{enums.PermissionReadJob},
	})
	full := WithIdentity(context.Background(), Identity{
		UserID:      uuid.New(),
		Role:        enums.RoleDriver,
		Permissions: []enums.Permission{enums.PermissionReadTransportRequest, enums.PermissionReadJob, enums.PermissionManageRoles},
	})

	contexts := []context.Context{context.Background(), partial, full}
	wants := []int{http.StatusUnauthorized, http.StatusForbidden, http.StatusOK}
	for i, ctx := range contexts {
		req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		if resp.Code != wants[i] {
			t.Fatalf("case %d: expected %d got %d", i, wants[i], resp.Code)
		}
	}
}

func mintTestToken(t *testing.T, role enums.Role, perms ...enums.Permission) string {
	t.Helper()
	token, err := auth.MintAccessToken(testJWT, time.Now(), auth.AccessTokenPayload{
		UserID:      uuid.New(),
		Role:        role,
		Permissions: perms,
		JTI:         session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

type stubSessionVerifier struct {
	ok  bool
	err error
}

func (s stubSessionVerifier) Verify(ctx context.Context, accessID string, userID uuid.UUID) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.ok, nil
}
