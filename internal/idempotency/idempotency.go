// Package idempotency replays command responses for repeated Idempotency-Key
// headers. Records live in Redis so every server instance sees them.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrInProgress means another request with the same key has not finished.
var ErrInProgress = errors.New("request with this idempotency key is in progress")

const (
	keyPrefix     = "clarity:idem"
	pendingMarker = "pending"

	// DefaultReservationTTL bounds how long an unfinished request holds its
	// key, so a crash between Begin and Complete does not block retries for
	// the whole record lifetime.
	DefaultReservationTTL = time.Minute
)

// Response is a finished response kept for replay.
type Response struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// RedisDeduper reserves idempotency keys per owner and stores the response
// produced under them.
type RedisDeduper struct {
	client  *redis.Client
	ttl     time.Duration
	reserve time.Duration
}

// NewRedisDeduper keeps completed responses for ttl. Reservations expire
// after DefaultReservationTTL, or ttl when that is shorter.
func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisDeduper{client: client, ttl: ttl, reserve: min(ttl, DefaultReservationTTL)}
}

// WithReservationTTL sets how long Begin holds a key before Complete or
// Abort. It never exceeds the record ttl.
func (r *RedisDeduper) WithReservationTTL(d time.Duration) *RedisDeduper {
	if d > 0 {
		r.reserve = min(r.ttl, d)
	}
	return r
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (r *RedisDeduper) key(ownerID uuid.UUID, key string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, ownerID, key)
}

// Begin reserves key for the owner. It returns the stored response when the
// key already completed, ErrInProgress when it is still reserved, and
// (nil, nil) when the caller now owns the key and must Complete or Abort it.
func (r *RedisDeduper) Begin(ctx context.Context, ownerID uuid.UUID, key string) (*Response, error) {
	k := r.key(ownerID, key)
	added, err := r.client.SetNX(ctx, k, pendingMarker, r.reserve).Result()
	if err != nil {
		return nil, fmt.Errorf("reserve idempotency key: %w", err)
	}
	if added {
		return nil, nil
	}

	stored, err := r.client.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) {
		// Expired or aborted between the two calls; try once more.
		return r.retry(ctx, k)
	}
	if err != nil {
		return nil, fmt.Errorf("read idempotency key: %w", err)
	}
	return decode(stored)
}

func (r *RedisDeduper) retry(ctx context.Context, k string) (*Response, error) {
	added, err := r.client.SetNX(ctx, k, pendingMarker, r.reserve).Result()
	if err != nil {
		return nil, fmt.Errorf("reserve idempotency key: %w", err)
	}
	if !added {
		return nil, ErrInProgress
	}
	return nil, nil
}

// Complete stores resp under a key reserved by Begin and extends the key to
// the full record ttl.
func (r *RedisDeduper) Complete(ctx context.Context, ownerID uuid.UUID, key string, resp Response) error {
	encoded, err := sonic.MarshalString(resp)
	if err != nil {
		return fmt.Errorf("encode idempotent response: %w", err)
	}
	if err := r.client.Set(ctx, r.key(ownerID, key), encoded, r.ttl).Err(); err != nil {
		return fmt.Errorf("store idempotent response: %w", err)
	}
	return nil
}

// Abort releases a reservation so the client may retry.
func (r *RedisDeduper) Abort(ctx context.Context, ownerID uuid.UUID, key string) error {
	return r.client.Del(ctx, r.key(ownerID, key)).Err()
}

func decode(stored string) (*Response, error) {
	if stored == pendingMarker {
		return nil, ErrInProgress
	}
	var resp Response
	if err := sonic.UnmarshalString(stored, &resp); err != nil {
		return nil, fmt.Errorf("decode idempotent response: %w", err)
	}
	return &resp, nil
}
