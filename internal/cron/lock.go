package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// defaultLockTTL stays under the default five minute tick so a crashed
// leader never blocks the next cycle.
const defaultLockTTL = 4 * time.Minute

// Lock elects the single worker that runs a cycle.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type leaderStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	CompareAndDelete(ctx context.Context, key, value string) (bool, error)
}

// LockParams configures a RedisLock. Owner is written into the key's value
// so `redis-cli GET` shows which worker is leading.
type LockParams struct {
	Key   string
	Owner string
	TTL   time.Duration
}

// RedisLock holds Key with a per-acquisition token of the form
// "<owner>/<uuid>". Release deletes the key only while it still carries that
// token; a lease that expired and moved to another worker is left alone.
type RedisLock struct {
	store  leaderStore
	params LockParams
	held   string
}

func NewRedisLock(store leaderStore, params LockParams) (*RedisLock, error) {
	switch {
	case store == nil:
		return nil, errors.New("redis client required for lock")
	case params.Key == "":
		return nil, errors.New("lock key is required")
	}
	if params.Owner == "" {
		params.Owner = "worker"
	}
	if params.TTL <= 0 {
		params.TTL = defaultLockTTL
	}
	return &RedisLock{store: store, params: params}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	token := l.params.Owner + "/" + uuid.NewString()
	won, err := l.store.SetNX(ctx, l.params.Key, token, l.params.TTL)
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", l.params.Key, err)
	}
	if won {
		l.held = token
	}
	return won, nil
}

func (l *RedisLock) Release(ctx context.Context) error {
	token := l.held
	if token == "" {
		return nil
	}
	l.held = ""
	if _, err := l.store.CompareAndDelete(ctx, l.params.Key, token); err != nil {
		return fmt.Errorf("release %s: %w", l.params.Key, err)
	}
	return nil
}
