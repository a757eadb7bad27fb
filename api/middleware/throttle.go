package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/tms-backend/api/responses"
	pkgerrors "github.com/angelmondragon/tms-backend/pkg/errors"
	"github.com/angelmondragon/tms-backend/pkg/logger"
)

// maxThrottleBody bounds how much of the body is buffered to find the email.
const maxThrottleBody = 16 << 10

type throttler interface {
	Throttle(ctx context.Context, scope, subject string, limit int64, window time.Duration) (bool, int64, error)
}

// ThrottleRule caps attempts on one sign-in endpoint per client address and
// per submitted email. A zero limit disables that dimension.
type ThrottleRule struct {
	Scope    string
	Window   time.Duration
	PerIP    int
	PerEmail int
}

func (r ThrottleRule) active() bool {
	return r.Window > 0 && (r.PerIP > 0 || r.PerEmail > 0)
}

// Throttle guards the sign-in endpoints. Emails are hashed before they reach
// Redis or the logs.
func Throttle(rule ThrottleRule, store throttler, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil || !rule.active() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if rule.PerIP > 0 {
				if ip := remoteIP(r); ip != "" {
					if !admit(ctx, w, logg, store, rule, "ip", ip, rule.PerIP) {
						return
					}
				}
			}

			if rule.PerEmail > 0 {
				body, err := io.ReadAll(io.LimitReader(r.Body, maxThrottleBody))
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable request body"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))
				if email := submittedEmail(body); email != "" {
					if !admit(ctx, w, logg, store, rule, "email", digest(email), rule.PerEmail) {
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// admit records one attempt and writes the error response when it is refused.
func admit(ctx context.Context, w http.ResponseWriter, logg *logger.Logger, store throttler, rule ThrottleRule, kind, subject string, limit int) bool {
	allowed, count, err := store.Throttle(ctx, rule.Scope, kind+":"+subject, int64(limit), rule.Window)
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "throttle check failed"))
		return false
	}
	if allowed {
		return true
	}
	if logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"throttle_scope": rule.Scope,
			"throttle_kind":  kind,
			"subject":        subject,
			"attempts":       count,
			"limit":          limit,
		}), "sign-in attempt throttled")
	}
	w.Header().Set("Retry-After", strconv.Itoa(int(rule.Window.Seconds())))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later"))
	return false
}

func remoteIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func submittedEmail(body []byte) string {
	var payload struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(payload.Email))
}

func digest(v string) string {
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:])
}
