package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}

func (m *mockStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *mockStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) SessionKey(accessID string) string {
	return fmt.Sprintf("sess:%s", accessID)
}

func newTestManager() (*Manager, *mockStore) {
	store := newMockStore()
	return &Manager{store: store, keyer: store, ttl: time.Hour}, store
}

func TestManagerStartAndRevoke(t *testing.T) {
	manager, store := newTestManager()
	ctx := context.Background()
	userID := uuid.New()

	if err := manager.Start(ctx, "access-123", userID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if stored := store.data[store.SessionKey("access-123")]; stored != userID.String() {
		t.Fatalf("expected stored user %q, got %q", userID, stored)
	}

	ok, err := manager.Verify(ctx, "access-123", userID)
	if err != nil || !ok {
		t.Fatalf("expected active session, got ok=%v err=%v", ok, err)
	}
	if ok, _ := manager.Verify(ctx, "access-123", uuid.New()); ok {
		t.Fatal("session must not verify for another user")
	}
	if ok, _ := manager.Verify(ctx, "access-123", uuid.Nil); ok {
		t.Fatal("session must not verify for a nil user")
	}

	if err := manager.Revoke(ctx, "access-123"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ok, err = manager.Verify(ctx, "access-123", userID)
	if err != nil || ok {
		t.Fatalf("expected revoked session, got ok=%v err=%v", ok, err)
	}
}

func TestManagerRejectsBlankAccessID(t *testing.T) {
	manager, _ := newTestManager()
	ctx := context.Background()
	if err := manager.Start(ctx, " ", uuid.New()); err == nil {
		t.Fatal("expected start error")
	}
	if _, err := manager.Verify(ctx, "", uuid.New()); err == nil {
		t.Fatal("expected verify error")
	}
	if err := manager.Revoke(ctx, ""); err == nil {
		t.Fatal("expected revoke error")
	}
}

type brokenStore struct{ *mockStore }

func (brokenStore) Get(context.Context, string) (string, error) {
	return "", errors.New("connection refused")
}

func TestManagerVerifyPropagatesStoreErrors(t *testing.T) {
	store := brokenStore{newMockStore()}
	manager := &Manager{store: store, keyer: store, ttl: time.Hour}
	if _, err := manager.Verify(context.Background(), "access-1", uuid.New()); err == nil {
		t.Fatal("expected store error")
	}
}

func TestManagerOwner(t *testing.T) {
	manager, store := newTestManager()
	ctx := context.Background()
	userID := uuid.New()

	owner, err := manager.Owner(ctx, "missing")
	if err != nil || owner != uuid.Nil {
		t.Fatalf("expected nil owner for unknown session, got %s err=%v", owner, err)
	}

	if err := manager.Start(ctx, "access-9", userID); err != nil {
		t.Fatalf("start: %v", err)
	}
	owner, err = manager.Owner(ctx, " access-9 ")
	if err != nil || owner != userID {
		t.Fatalf("expected owner %s, got %s err=%v", userID, owner, err)
	}

	store.data[store.SessionKey("access-bad")] = "not-a-uuid"
	if _, err := manager.Owner(ctx, "access-bad"); err == nil {
		t.Fatal("expected malformed owner error")
	}
}
