// Package cache provides a Dragonfly/Redis client wrapper plus the two hot
// paths built on it: short-lived study-plan caching and the 48-hour
// recently-correct question marks.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// recentCorrectTTL is how long a correctly-answered question stays marked.
const recentCorrectTTL = 48 * time.Hour

// Cache wraps a Redis/Dragonfly client.
type Cache struct {
	Client *redis.Client
}

// ParseURL validates a Redis connection URL.
func ParseURL(url string) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("cache URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid cache URL: %w", err)
	}
	return opts, nil
}

// New creates a new cache client.
func New(ctx context.Context, url string) (*Cache, error) {
	opts, err := ParseURL(url)
	if err != nil {
		return nil, err
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging cache: %w", err)
	}

	return &Cache{Client: client}, nil
}

// Close shuts down the cache client.
func (c *Cache) Close() error {
	return c.Client.Close()
}

// HealthCheck verifies the cache connection is alive.
func (c *Cache) HealthCheck(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

// MarkRecentCorrect flags a question the learner just answered correctly so
// the picker can skip it without touching the attempt log.
func (c *Cache) MarkRecentCorrect(ctx context.Context, learnerID, questionID string) error {
	key := recentKey(learnerID, questionID)
	if err := c.Client.Set(ctx, key, "1", recentCorrectTTL).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// IsRecentCorrect reports whether the question was answered correctly within
// the mark TTL. Errors read as "not marked"; the attempt log is the source
// of truth.
func (c *Cache) IsRecentCorrect(ctx context.Context, learnerID, questionID string) bool {
	n, err := c.Client.Exists(ctx, recentKey(learnerID, questionID)).Result()
	return err == nil && n > 0
}

func recentKey(learnerID, questionID string) string {
	return fmt.Sprintf("recent:%s:%s", learnerID, questionID)
}
