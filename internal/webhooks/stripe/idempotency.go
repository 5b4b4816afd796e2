package stripewebhook

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Provider scopes dedupe keys for processor events.
const Provider = "stripe"

// EventStore is the redis surface the guard needs.
type EventStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	WebhookEventKey(provider, eventID string) string
}

// IdempotencyGuard remembers processed event ids so redeliveries are acknowledged without reprocessing.
type IdempotencyGuard struct {
	store EventStore
	ttl   time.Duration
}

func NewIdempotencyGuard(store EventStore, ttl time.Duration) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, errors.New("event store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &IdempotencyGuard{store: store, ttl: ttl}, nil
}

// CheckAndMark claims eventID and reports whether it had already been claimed.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, errors.New("event id is required")
	}
	set, err := g.store.SetNX(ctx, g.store.WebhookEventKey(Provider, eventID), "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set webhook event key: %w", err)
	}
	return !set, nil
}

// Delete forgets eventID so a redelivery after a failed attempt is processed again.
func (g *IdempotencyGuard) Delete(ctx context.Context, eventID string) error {
	if eventID == "" {
		return errors.New("event id is required")
	}
	return g.store.Del(ctx, g.store.WebhookEventKey(Provider, eventID))
}
