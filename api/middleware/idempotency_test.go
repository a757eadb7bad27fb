package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/tms-backend/pkg/errors"
	"github.com/angelmondragon/tms-backend/pkg/logger"
)

type memoryIdempotency struct {
	data   map[string]string
	setErr error
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{data: map[string]string{}}
}

func (m *memoryIdempotency) Get(_ context.Context, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryIdempotency) Set(_ context.Context, key string, value any, _ time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value.(string)
	return nil
}

func (m *memoryIdempotency) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value.(string)
	return true, nil
}

func (m *memoryIdempotency) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryIdempotency) IdempotencyKey(scope, id string) string {
	return "test:" + scope + ":" + id
}

// publishRoute mounts h behind the middleware at the publish route so chi
// fills in the route pattern.
func publishRoute(store *memoryIdempotency, h http.HandlerFunc) http.Handler {
	r := chi.NewRouter()
	r.With(Idempotency(store, time.Hour, logger.Nop())).Post("/plan/{id}/publish", h)
	return r
}

func post(t *testing.T, h http.Handler, key, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/plan/42/publish", strings.NewReader(body))
	if key != "" {
		req.Header.Set(idempotencyHeader, key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestIdempotencyWithoutHeaderRunsEveryTime(t *testing.T) {
	store := newMemoryIdempotency()
	calls := 0
	h := publishRoute(store, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})

	post(t, h, "", `{}`)
	post(t, h, "", `{}`)
	assert.Equal(t, 2, calls)
	assert.Empty(t, store.data)
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newMemoryIdempotency()
	calls := 0
	h := publishRoute(store, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"PUBLISHED"}`))
	})

	first := post(t, h, "publish-42", `{"note":"go"}`)
	require.Equal(t, http.StatusOK, first.Code)

	again := post(t, h, "publish-42", `{"note":"go"}`)
	assert.Equal(t, http.StatusOK, again.Code)
	assert.Equal(t, "application/json", again.Header().Get("Content-Type"))
	assert.Equal(t, "true", again.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, `{"status":"PUBLISHED"}`, again.Body.String())
	assert.Equal(t, 1, calls)
}

func TestIdempotencyRejectsDifferentBody(t *testing.T) {
	store := newMemoryIdempotency()
	h := publishRoute(store, func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	post(t, h, "k1", `{"note":"a"}`)
	rec := post(t, h, "k1", `{"note":"b"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeIdempotency), errorCode(t, rec))
}

func TestIdempotencyRejectsConcurrentDuplicate(t *testing.T) {
	store := newMemoryIdempotency()
	var nested *httptest.ResponseRecorder
	var h http.Handler
	h = publishRoute(store, func(w http.ResponseWriter, r *http.Request) {
		if nested == nil {
			nested = post(t, h, "k2", `{}`)
		}
		w.WriteHeader(http.StatusOK)
	})

	post(t, h, "k2", `{}`)
	require.NotNil(t, nested)
	assert.Equal(t, http.StatusConflict, nested.Code)
}

func TestIdempotencyReleasesKeyOnServerError(t *testing.T) {
	store := newMemoryIdempotency()
	status := http.StatusServiceUnavailable
	calls := 0
	h := publishRoute(store, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(status)
	})

	post(t, h, "retry-me", `{}`)
	assert.Empty(t, store.data)

	status = http.StatusOK
	assert.Equal(t, http.StatusOK, post(t, h, "retry-me", `{}`).Code)
	assert.Equal(t, 2, calls)
}

func TestIdempotencyValidatesKeyLength(t *testing.T) {
	store := newMemoryIdempotency()
	h := publishRoute(store, func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	rec := post(t, h, strings.Repeat("k", maxIdempotencyKeyLen+1), `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), errorCode(t, rec))
}

func TestIdempotencyStoreFailureStillServes(t *testing.T) {
	store := newMemoryIdempotency()
	store.setErr = errors.New("redis gone")
	h := publishRoute(store, func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusCreated) })

	assert.Equal(t, http.StatusCreated, post(t, h, "k3", `{}`).Code)
}

func TestIdempotencyReleasesKeyWhenResponseCannotBeStored(t *testing.T) {
	orig := encodeResponse
	encodeResponse = func(storedResponse) ([]byte, error) { return nil, errors.New("encode failed") }
	t.Cleanup(func() { encodeResponse = orig })

	store := newMemoryIdempotency()
	calls := 0
	h := publishRoute(store, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, post(t, h, "k4", `{}`).Code)
	assert.Empty(t, store.data)

	encodeResponse = orig
	assert.Equal(t, http.StatusOK, post(t, h, "k4", `{}`).Code)
	assert.Equal(t, 2, calls)
	assert.Len(t, store.data, 1)
}
