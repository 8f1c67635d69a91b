package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Options configures a Redis connection
type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration // default: 24h
	Prefix   string        // prepended to every key (default: "relfinder")
}

// Client wraps Redis client with caching helpers
type Client struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration // Default TTL for cached items
	prefix string
}

// NewClient creates a Redis client and verifies connectivity
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis address missing")
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.Prefix == "" {
		opts.Prefix = "relfinder"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password, // Empty string if no password
		DB:       opts.DB,
	})

	// Fail fast on startup
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	logger := slog.Default().With("component", "redis")
	logger.Info("redis client connected", "addr", opts.Addr, "ttl", opts.TTL)

	return &Client{
		client: client,
		logger: logger,
		ttl:    opts.TTL,
		prefix: opts.Prefix,
	}, nil
}

// Close closes the Redis client connection
func (c *Client) Close() error {
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}
	c.logger.Info("redis client closed")
	return nil
}

// HealthCheck verifies Redis connectivity
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// Get retrieves a cached value by key and unmarshals into target
// Returns: true if found, false if miss (not an error)
func (c *Client) Get(ctx context.Context, key string, target interface{}) (bool, error) {
	val, err := c.client.Get(ctx, c.key(key)).Result()
	if err == redis.Nil {
		c.logger.Debug("cache miss", "key", key)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get failed for key %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(val), target); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached value for key %s: %w", key, err)
	}

	c.logger.Debug("cache hit", "key", key)
	return true, nil
}

// Set stores a JSON-encoded value with the default TTL
func (c *Client) Set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for key %s: %w", key, err)
	}

	if err := c.client.Set(ctx, c.key(key), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed for key %s: %w", key, err)
	}

	c.logger.Debug("cache set", "key", key, "ttl", c.ttl)
	return nil
}

// GetStrings fetches keys in one MGET. Missing keys are absent from the result.
func (c *Client) GetStrings(ctx context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}

	vals, err := c.client.MGet(ctx, full...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget failed for %d keys: %w", len(keys), err)
	}

	for i, v := range vals {
		if s, ok := v.(string); ok {
			out[keys[i]] = s
		}
	}

	c.logger.Debug("cache mget", "requested", len(keys), "hits", len(out))
	return out, nil
}

// SetStrings stores every value with the default TTL in one pipeline
func (c *Client) SetStrings(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	_, err := c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range values {
			pipe.Set(ctx, c.key(k), v, c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis pipeline set failed for %d keys: %w", len(values), err)
	}
	return nil
}

func (c *Client) key(k string) string {
	return c.prefix + ":" + k
}

// CacheKey generates a standardized cache key
// Format: "kind:iri", e.g. "label:http://example.org/acme"
func CacheKey(kind, iri string) string {
	return fmt.Sprintf("%s:%s", kind, iri)
}
