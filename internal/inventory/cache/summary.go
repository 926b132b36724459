// Package cache keeps recently computed dashboard summaries in Redis. A nil
// *SummaryCache is a cache that always misses.
package cache

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clinicstock/backend/pkg/config"
	"github.com/clinicstock/backend/pkg/logger"
)

const (
	keyPrefix     = "clinicstock:inventory:summary"
	generationKey = keyPrefix + ":generation"
)

// Connect opens a Redis client and checks it answers.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// SummaryCache stores summaries under a generation number. Invalidate bumps the
// generation, which orphans every stored entry until its TTL expires.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

// NewSummaryCache returns a cache over client. Entries live for ttl.
func NewSummaryCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *SummaryCache {
	return &SummaryCache{
		client: client,
		ttl:    ttl,
		logger: log.WithComponent("summary_cache"),
	}
}

func (c *SummaryCache) key(ctx context.Context, windowDays int) (string, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if err != nil && !stderrors.Is(err, redis.Nil) {
		return "", err
	}
	return fmt.Sprintf("%s:%d:%d", keyPrefix, gen, windowDays), nil
}

// Get loads the summary for windowDays into dest and reports whether it was found.
// Redis errors count as a miss.
func (c *SummaryCache) Get(ctx context.Context, windowDays int, dest interface{}) bool {
	if c == nil {
		return false
	}
	key, err := c.key(ctx, windowDays)
	if err != nil {
		c.logger.Warn().Err(err).Msg("summary cache unavailable")
		return false
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !stderrors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("key", key).Msg("summary cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("discarding undecodable summary")
		return false
	}
	return true
}

// Set stores summary for windowDays.
func (c *SummaryCache) Set(ctx context.Context, windowDays int, summary interface{}) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to encode summary")
		return
	}
	key, err := c.key(ctx, windowDays)
	if err != nil {
		c.logger.Warn().Err(err).Msg("summary cache unavailable")
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("summary cache write failed")
	}
}

// Invalidate drops every cached summary.
func (c *SummaryCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("summary cache invalidation failed")
	}
}
