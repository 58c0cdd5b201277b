package idempotency

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDeduper(t *testing.T, ttl time.Duration) (*RedisDeduper, *miniredis.Miniredis) {
	t.Helper()
	m, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)

	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisDeduper(client, ttl), m
}

func TestBeginCompleteReplay(t *testing.T) {
	d, _ := newDeduper(t, time.Minute)
	ctx := context.Background()
	owner := uuid.New()

	resp, err := d.Begin(ctx, owner, "k1")
	require.NoError(t, err)
	assert.Nil(t, resp, "first use reserves the key")

	_, err = d.Begin(ctx, owner, "k1")
	assert.ErrorIs(t, err, ErrInProgress)

	require.NoError(t, d.Complete(ctx, owner, "k1", Response{Status: 200, Body: []byte(`{"message":"Scheduled."}`)}))

	resp, err = d.Begin(ctx, owner, "k1")
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 200, resp.Status)
	assert.JSONEq(t, `{"message":"Scheduled."}`, string(resp.Body))
}

func TestKeysAreScopedPerOwner(t *testing.T) {
	d, m := newDeduper(t, time.Minute)
	ctx := context.Background()

	_, err := d.Begin(ctx, uuid.New(), "shared")
	require.NoError(t, err)

	resp, err := d.Begin(ctx, uuid.New(), "shared")
	require.NoError(t, err)
	assert.Nil(t, resp)
	assert.Len(t, m.Keys(), 2)
}

func TestAbortAllowsRetry(t *testing.T) {
	d, _ := newDeduper(t, time.Minute)
	ctx := context.Background()
	owner := uuid.New()

	_, err := d.Begin(ctx, owner, "k")
	require.NoError(t, err)
	require.NoError(t, d.Abort(ctx, owner, "k"))

	resp, err := d.Begin(ctx, owner, "k")
	require.NoError(t, err)
	assert.Nil(t, resp)
}

func TestRecordsExpire(t *testing.T) {
	d, m := newDeduper(t, time.Minute)
	ctx := context.Background()
	owner := uuid.New()

	_, err := d.Begin(ctx, owner, "k")
	require.NoError(t, err)
	require.NoError(t, d.Complete(ctx, owner, "k", Response{Status: 200}))

	m.FastForward(2 * time.Minute)

	resp, err := d.Begin(ctx, owner, "k")
	require.NoError(t, err)
	assert.Nil(t, resp)
}

func TestAbandonedReservationExpires(t *testing.T) {
	d, m := newDeduper(t, 24*time.Hour)
	ctx := context.Background()
	owner := uuid.New()

	_, err := d.Begin(ctx, owner, "crashed")
	require.NoError(t, err)
	assert.Equal(t, DefaultReservationTTL, m.TTL(d.key(owner, "crashed")))

	_, err = d.Begin(ctx, owner, "crashed")
	assert.ErrorIs(t, err, ErrInProgress)

	m.FastForward(DefaultReservationTTL + time.Second)

	resp, err := d.Begin(ctx, owner, "crashed")
	require.NoError(t, err)
	assert.Nil(t, resp, "the key is free again once the reservation lapses")
}

func TestCompleteRefreshesTTL(t *testing.T) {
	d, m := newDeduper(t, 24*time.Hour)
	d.WithReservationTTL(30 * time.Second)
	ctx := context.Background()
	owner := uuid.New()

	_, err := d.Begin(ctx, owner, "k")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, m.TTL(d.key(owner, "k")))

	require.NoError(t, d.Complete(ctx, owner, "k", Response{Status: 200, Body: []byte(`{}`)}))
	assert.Equal(t, 24*time.Hour, m.TTL(d.key(owner, "k")))

	m.FastForward(time.Hour)
	resp, err := d.Begin(ctx, owner, "k")
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 200, resp.Status)
}

func TestReservationNeverOutlivesRecord(t *testing.T) {
	d, _ := newDeduper(t, 10*time.Second)
	assert.Equal(t, 10*time.Second, d.reserve)
	d.WithReservationTTL(time.Hour)
	assert.Equal(t, 10*time.Second, d.reserve)
}

func TestConnect(t *testing.T) {
	m, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)

	client, err := Connect(context.Background(), "redis://"+m.Addr()+"/0")
	require.NoError(t, err)
	client.Close()

	_, err = Connect(context.Background(), "not a url")
	assert.Error(t, err)
}
