package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/urlclick/shortener/internal/model"
)

// keyPrefix namespaces redirect entries in the shared keyspace
const keyPrefix = "shorturl:"

// DefaultTTL bounds how stale a cached projection may be
const DefaultTTL = 300 * time.Second

// Config holds Redis settings
type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisCache stores transient ShortenedURL projections keyed by short
// code. It is an optimization only: every caller must tolerate a miss
// or an error and fall through to the repository.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates the cache client. Connectivity is not checked
// here; use Ping so the caller can decide to degrade instead of fail.
func NewRedisCache(cfg *Config) *RedisCache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisCache{client: client, ttl: ttl}
}

// Ping verifies connectivity
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Get returns the cached projection for a short code. A miss is
// (nil, nil); an error means the cache is unreachable or the entry is
// corrupt, and callers treat that as a miss too.
func (c *RedisCache) Get(ctx context.Context, shortCode string) (*model.CacheEntry, error) {
	val, err := c.client.Get(ctx, keyPrefix+shortCode).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var entry model.CacheEntry
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		return nil, fmt.Errorf("cache entry for %q: %w", shortCode, err)
	}
	return &entry, nil
}

// Set stores the projection with the configured TTL
func (c *RedisCache) Set(ctx context.Context, shortCode string, entry *model.CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cache set: %w", err)
	}

	if err := c.client.Set(ctx, keyPrefix+shortCode, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisCache) Close() error {
	return c.client.Close()
}
