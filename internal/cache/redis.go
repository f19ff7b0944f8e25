// Package cache keeps news pages in Redis so repeated feed requests do not
// spend the news API quota.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sakif/editorialchain/internal/model"
	"github.com/sakif/editorialchain/internal/repository"
)

// DefaultTTL is used when NewNewsCache gets a non-positive ttl.
const DefaultTTL = 10 * time.Minute

var _ repository.NewsCache = (*NewsCache)(nil)

// NewsCache stores pages as JSON under "<prefix><query key>" with a TTL.
type NewsCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewNewsCache creates a Redis-backed news cache. Prefix may be empty.
func NewNewsCache(client *redis.Client, prefix string, ttl time.Duration) *NewsCache {
	if prefix == "" {
		prefix = "news:"
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &NewsCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *NewsCache) key(k string) string {
	return c.prefix + k
}

// Get returns (nil, false, nil) on a miss. A stored value that no longer
// decodes is deleted and reported as a miss.
func (c *NewsCache) Get(ctx context.Context, key string) (*model.NewsPage, bool, error) {
	b, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: getting %s: %w", key, err)
	}

	var page model.NewsPage
	if err := json.Unmarshal(b, &page); err != nil {
		_ = c.client.Del(ctx, c.key(key)).Err()
		return nil, false, nil
	}
	return &page, true, nil
}

func (c *NewsCache) Set(ctx context.Context, key string, page *model.NewsPage) error {
	b, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("cache: encoding %s: %w", key, err)
	}
	if err := c.client.Set(ctx, c.key(key), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: setting %s: %w", key, err)
	}
	return nil
}

// Ping checks the connection; server.go uses it to decide whether to
// enable the cache at startup.
func (c *NewsCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
