package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/aaracollective/storefront-backend/pkg/instance"
)

// LockName is the redis lock shared by every cron worker replica.
const LockName = "cron"

// Lock guarantees a single replica runs a tick.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLock is a SET NX lease tagged with an owner token. The lease expires
// on its own if a replica dies mid-tick.
type RedisLock struct {
	store lockStore
	key   string
	lease time.Duration
	token string
}

// NewRedisLock builds a lock on key. lease should exceed the longest expected tick.
func NewRedisLock(store lockStore, key string, lease time.Duration) (*RedisLock, error) {
	if store == nil {
		return nil, errors.New("redis store required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if lease <= 0 {
		return nil, errors.New("lock lease must be positive")
	}
	return &RedisLock{store: store, key: key, lease: lease}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	token := ownerToken()
	ok, err := l.store.SetNX(ctx, l.key, token, l.lease)
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", l.key, err)
	}
	if ok {
		l.token = token
	}
	return ok, nil
}

// Release deletes the key only while it still carries this replica's token.
func (l *RedisLock) Release(ctx context.Context) error {
	if l.token == "" {
		return nil
	}
	token := l.token
	l.token = ""

	current, err := l.store.Get(ctx, l.key)
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read lock owner: %w", err)
	}
	if current != token {
		return nil
	}
	if err := l.store.Del(ctx, l.key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	return nil
}

func ownerToken() string {
	return instance.ID() + "/" + uuid.NewString()
}
