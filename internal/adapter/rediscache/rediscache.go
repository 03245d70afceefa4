package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oddsfair/slipexchange/internal/port"
)

var _ port.DepthCache = (*Cache)(nil)

// Cache keeps per-slip depth snapshots in Redis with a short TTL.
// A miss is not an error: callers rebuild from the book and set again.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(addr, password string, db int, ttl time.Duration) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Cache{client: rdb, ttl: ttl}
}

func key(slipID string) string { return "depth:" + slipID }

func (c *Cache) SetDepth(ctx context.Context, snapshot *port.DepthSnapshot) error {
	b, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key(snapshot.SlipID), b, c.ttl).Err()
}

func (c *Cache) GetDepth(ctx context.Context, slipID string) (*port.DepthSnapshot, error) {
	b, err := c.client.Get(ctx, key(slipID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap port.DepthSnapshot
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Cache) Invalidate(ctx context.Context, slipID string) error {
	return c.client.Del(ctx, key(slipID)).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}
