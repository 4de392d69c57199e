package scrape

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	imageCacheTTL    = 24 * time.Hour
	imageCachePrefix = "adcomb:image:"
)

// ImageCache remembers the image resolved for an article link.
type ImageCache interface {
	Get(ctx context.Context, link string) (string, bool, error)
	Set(ctx context.Context, link, imageURL string) error
}

// NewRedisClient connects to Redis and verifies the connection with a ping.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("Connected to Redis", "addr", addr)

	return client, nil
}

type RedisImageCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisImageCache(client *redis.Client) *RedisImageCache {
	return &RedisImageCache{client: client, ttl: imageCacheTTL}
}

func (c *RedisImageCache) Get(ctx context.Context, link string) (string, bool, error) {
	value, err := c.client.Get(ctx, imageKey(link)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read image cache: %w", err)
	}
	return value, true, nil
}

func (c *RedisImageCache) Set(ctx context.Context, link, imageURL string) error {
	if err := c.client.Set(ctx, imageKey(link), imageURL, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write image cache: %w", err)
	}
	return nil
}

// imageKey hashes the link so arbitrary URLs map to bounded keys.
func imageKey(link string) string {
	sum := sha256.Sum256([]byte(link))
	return imageCachePrefix + hex.EncodeToString(sum[:])
}

type NopImageCache struct{}

func (NopImageCache) Get(context.Context, string) (string, bool, error) { return "", false, nil }

func (NopImageCache) Set(context.Context, string, string) error { return nil }
