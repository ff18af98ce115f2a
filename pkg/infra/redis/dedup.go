package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Dedup is the enqueue deduplication registry. Each digest claims a key
// scoped to its run window and subject identifier before being published;
// a claim that fails means the digest was already enqueued by an earlier
// run of the same window.
type Dedup struct {
	client *redis.Client
}

// NewDedup connects to redis and verifies the connection.
func NewDedup(addr, password string, db int) (*Dedup, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Dedup{client: client}, nil
}

// Claim atomically claims a dedup key. Returns false when the key is
// already held.
func (d *Dedup) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := d.client.SetNX(ctx, key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim dedup key: %w", err)
	}
	return ok, nil
}

// Close closes the redis connection.
func (d *Dedup) Close() error {
	return d.client.Close()
}
