package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/tms-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeThrottler struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newFakeThrottler() *fakeThrottler {
	return &fakeThrottler{counts: map[string]int64{}}
}

func (f *fakeThrottler) Throttle(_ context.Context, scope, subject string, limit int64, _ time.Duration) (bool, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, 0, f.err
	}
	key := scope + "/" + subject
	f.counts[key]++
	return f.counts[key] <= limit, f.counts[key], nil
}

func signIn(t *testing.T, h http.Handler, ip, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/auth/request-code", strings.NewReader(body))
	req.RemoteAddr = ip + ":40000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func okHandler(t *testing.T, wantBody string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, wantBody, string(body))
		w.WriteHeader(http.StatusOK)
	})
}

func TestThrottlePassesBodyThrough(t *testing.T) {
	body := `{"email":"driver@tms.test"}`
	h := Throttle(ThrottleRule{Scope: "request_code", Window: time.Minute, PerIP: 5, PerEmail: 5}, newFakeThrottler(), nil)(okHandler(t, body))

	rec := signIn(t, h, "10.0.0.1", body)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestThrottleBlocksPerEmailAcrossAddresses(t *testing.T) {
	store := newFakeThrottler()
	rule := ThrottleRule{Scope: "request_code", Window: time.Minute, PerEmail: 2}
	h := Throttle(rule, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	assert.Equal(t, http.StatusOK, signIn(t, h, "10.0.0.1", `{"email":"Driver@TMS.test"}`).Code)
	assert.Equal(t, http.StatusOK, signIn(t, h, "10.0.0.2", `{"email":"driver@tms.test"}`).Code)

	rec := signIn(t, h, "10.0.0.3", `{"email":" driver@tms.test "}`)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, string(pkgerrors.CodeRateLimit), payload.Error.Code)

	for key := range store.counts {
		assert.NotContains(t, key, "driver@tms.test")
	}

	assert.Equal(t, http.StatusOK, signIn(t, h, "10.0.0.3", `{"email":"agent@tms.test"}`).Code)
}

func TestThrottleBlocksPerIP(t *testing.T) {
	rule := ThrottleRule{Scope: "login", Window: time.Minute, PerIP: 1}
	h := Throttle(rule, newFakeThrottler(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	assert.Equal(t, http.StatusOK, signIn(t, h, "10.0.0.9", `{"email":"a@tms.test"}`).Code)
	assert.Equal(t, http.StatusTooManyRequests, signIn(t, h, "10.0.0.9", `{"email":"b@tms.test"}`).Code)
}

func TestThrottleStoreFailureIsDependencyError(t *testing.T) {
	store := newFakeThrottler()
	store.err = errors.New("redis down")
	h := Throttle(ThrottleRule{Scope: "login", Window: time.Minute, PerIP: 1}, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := signIn(t, h, "10.0.0.1", `{}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestThrottleDisabledWithoutStoreOrLimits(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	assert.NotNil(t, Throttle(ThrottleRule{Scope: "login", Window: time.Minute, PerIP: 1}, nil, nil)(next))
	assert.NotNil(t, Throttle(ThrottleRule{Scope: "login"}, newFakeThrottler(), nil)(next))
}

func TestRemoteIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "192.168.1.1:5000"
	assert.Equal(t, "192.168.1.1", remoteIP(req))

	req.Header.Set("X-Real-IP", "172.16.0.4")
	assert.Equal(t, "172.16.0.4", remoteIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", remoteIP(req))
}
