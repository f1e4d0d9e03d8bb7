package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client is a raw-JSON response cache for the read paths that tolerate
// staleness: catalog lookups and showtime listings. Cache failures are
// never surfaced; callers fall through to the source of truth.
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

type Config struct {
	Addr     string
	Password string
	TTL      time.Duration
	Enabled  bool
}

func NewClient(cfg Config) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb, ttl: cfg.TTL}, nil
}

func MovieKey(movieID string) string {
	return "catalog:movie:" + movieID
}

func MovieSearchKey(query string) string {
	return "catalog:search:" + query
}

func ShowtimesKey(movieID, from, to string) string {
	return "showtimes:" + movieID + ":" + from + ":" + to
}

// GetRaw returns the cached JSON payload for key, or an error on miss.
func (c *Client) GetRaw(ctx context.Context, key string) ([]byte, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("cache miss for %s", key)
		}
		return nil, fmt.Errorf("cache lookup error: %w", err)
	}
	return data, nil
}

// Set stores value as JSON under key with the configured TTL.
// Marshal or write failures are swallowed; the cache is best-effort.
func (c *Client) Set(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, key, data, c.ttl)
}

// Invalidate drops cached entries after a write, best-effort.
func (c *Client) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) > 0 {
		c.rdb.Del(ctx, keys...)
	}
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
