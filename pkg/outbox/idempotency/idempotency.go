package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/retailstock-backend/pkg/redis"
)

// Guard remembers which outbox events a publisher already handed to the broker.
// Keys follow `rs:idempotency:evt:published:<publisher>:<event_id>`.
//
// A publish that reached Kafka but whose outbox row was never marked (crash, rolled
// back batch) is claimed again on replay; the claim fails and the row is only marked.
type Guard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

func NewGuard(store redis.IdempotencyStore, ttl time.Duration) (*Guard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Guard{store: store, ttl: ttl}, nil
}

// Claim reports whether the caller should publish eventID. False means an earlier
// attempt by the same publisher already sent it.
func (g *Guard) Claim(ctx context.Context, publisher string, eventID uuid.UUID) (bool, error) {
	key, err := g.key(publisher, eventID)
	if err != nil {
		return false, err
	}
	won, err := g.store.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), g.ttl)
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", eventID, err)
	}
	return won, nil
}

// Release drops a claim after a failed publish so the retry can send again.
func (g *Guard) Release(ctx context.Context, publisher string, eventID uuid.UUID) error {
	key, err := g.key(publisher, eventID)
	if err != nil {
		return err
	}
	return g.store.Del(ctx, key)
}

func (g *Guard) key(publisher string, eventID uuid.UUID) (string, error) {
	if publisher == "" {
		return "", errors.New("publisher name is required")
	}
	if eventID == uuid.Nil {
		return "", errors.New("event id is required")
	}
	return g.store.IdempotencyKey("evt:published:"+publisher, eventID.String()), nil
}
