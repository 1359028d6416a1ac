package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	values     map[string]any
	ttls       map[string]time.Duration
	setNXError error
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]any{}, ttls: map[string]time.Duration{}}
}

func (f *fakeStore) Get(context.Context, string) (string, error) {
	return "", nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if f.setNXError != nil {
		return false, f.setNXError
	}
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value
	f.ttls[key] = ttl
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "rs:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func TestGuardClaimOnce(t *testing.T) {
	store := newFakeStore()
	guard, err := NewGuard(store, 24*time.Hour)
	require.NoError(t, err)

	eventID := uuid.New()
	won, err := guard.Claim(context.Background(), "outbox-publisher", eventID)
	require.NoError(t, err)
	assert.True(t, won)

	key := "rs:idempotency:evt:published:outbox-publisher:" + eventID.String()
	assert.Contains(t, store.values, key)
	assert.Equal(t, 24*time.Hour, store.ttls[key])

	won, err = guard.Claim(context.Background(), "outbox-publisher", eventID)
	require.NoError(t, err)
	assert.False(t, won)
}

func TestGuardClaimsArePerPublisher(t *testing.T) {
	guard, err := NewGuard(newFakeStore(), time.Hour)
	require.NoError(t, err)

	eventID := uuid.New()
	won, err := guard.Claim(context.Background(), "publisher-a", eventID)
	require.NoError(t, err)
	assert.True(t, won)

	won, err = guard.Claim(context.Background(), "publisher-b", eventID)
	require.NoError(t, err)
	assert.True(t, won)
}

func TestGuardReleaseAllowsRetry(t *testing.T) {
	guard, err := NewGuard(newFakeStore(), time.Hour)
	require.NoError(t, err)

	eventID := uuid.New()
	_, err = guard.Claim(context.Background(), "outbox-publisher", eventID)
	require.NoError(t, err)
	require.NoError(t, guard.Release(context.Background(), "outbox-publisher", eventID))

	won, err := guard.Claim(context.Background(), "outbox-publisher", eventID)
	require.NoError(t, err)
	assert.True(t, won)
}

func TestGuardClaimError(t *testing.T) {
	store := newFakeStore()
	store.setNXError = errors.New("boom")
	guard, err := NewGuard(store, time.Hour)
	require.NoError(t, err)

	_, err = guard.Claim(context.Background(), "outbox-publisher", uuid.New())
	assert.Error(t, err)
}

func TestGuardRejectsBadKeys(t *testing.T) {
	guard, err := NewGuard(newFakeStore(), time.Hour)
	require.NoError(t, err)

	_, err = guard.Claim(context.Background(), "", uuid.New())
	assert.Error(t, err)
	_, err = guard.Claim(context.Background(), "outbox-publisher", uuid.Nil)
	assert.Error(t, err)

	_, err = NewGuard(nil, time.Hour)
	assert.Error(t, err)
	_, err = NewGuard(newFakeStore(), -time.Second)
	assert.Error(t, err)
}
