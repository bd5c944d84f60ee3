package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"kukkee/internal/domain"
	"kukkee/pkg/redis"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CacheService keeps read-through copies of poll documents in Redis.
// A nil Redis client turns every method into a pass-through.
type CacheService struct {
	redis  *redis.Client
	logger *zap.Logger
	ttl    time.Duration
	group  singleflight.Group
}

// NewCacheService creates a new cache service
func NewCacheService(redisClient *redis.Client, ttl time.Duration, logger *zap.Logger) *CacheService {
	if ttl <= 0 {
		ttl = redis.TTLPoll
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{
		redis:  redisClient,
		logger: logger,
		ttl:    ttl,
	}
}

// Enabled reports whether a Redis backend is configured
func (c *CacheService) Enabled() bool {
	return c != nil && c.redis != nil
}

// GetPollWithCache retrieves a poll with the cache-aside pattern. Concurrent
// misses for the same poll share one fallback call. Every caller gets its own copy.
func (c *CacheService) GetPollWithCache(ctx context.Context, pollID string, dbFallback func(ctx context.Context, id string) (*domain.Poll, error)) (*domain.Poll, error) {
	if !c.Enabled() {
		return dbFallback(ctx, pollID)
	}

	cacheKey := c.redis.KeyBuilder.KeyPoll(pollID)

	cachedData, err := c.redis.Get(ctx, cacheKey)
	if err == nil && cachedData != "" {
		var poll domain.Poll
		if unmarshalErr := json.Unmarshal([]byte(cachedData), &poll); unmarshalErr == nil {
			c.logger.Debug("Poll cache hit", zap.String("poll_id", pollID))
			return &poll, nil
		} else {
			c.logger.Warn("Poll cache corrupted, falling back to store",
				zap.String("poll_id", pollID),
				zap.Error(unmarshalErr))
		}
	} else if err != nil && !errors.Is(err, redis.ErrMiss) {
		c.logger.Warn("Poll cache error, falling back to store",
			zap.String("poll_id", pollID),
			zap.Error(err))
	}

	c.logger.Debug("Poll cache miss", zap.String("poll_id", pollID))
	// The shared load outlives any single caller's cancellation.
	loadCtx := context.WithoutCancel(ctx)
	v, err, shared := c.group.Do(pollID, func() (interface{}, error) {
		poll, err := dbFallback(loadCtx, pollID)
		if err != nil {
			return nil, err
		}
		c.cachePoll(pollID, poll)
		return poll, nil
	})
	if err != nil {
		return nil, fmt.Errorf("store fallback failed: %w", err)
	}

	poll := v.(*domain.Poll)
	if shared {
		cp := poll.Clone()
		return &cp, nil
	}
	return poll, nil
}

// InvalidatePoll drops the cached document after a write
func (c *CacheService) InvalidatePoll(ctx context.Context, pollID string) {
	if !c.Enabled() {
		return
	}

	if err := c.redis.Delete(ctx, c.redis.KeyBuilder.KeyPoll(pollID)); err != nil {
		c.logger.Error("Failed to invalidate poll cache",
			zap.String("poll_id", pollID),
			zap.Error(err))
		return
	}
	c.logger.Debug("Poll cache invalidated", zap.String("poll_id", pollID))
}

// HealthCheck performs a health check on the cache system
func (c *CacheService) HealthCheck(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}

	start := time.Now()
	err := c.redis.Health(ctx)
	duration := time.Since(start)

	if err != nil {
		c.logger.Error("Cache health check failed",
			zap.Duration("duration", duration),
			zap.Error(err))
		return err
	}

	c.logger.Debug("Cache health check passed", zap.Duration("duration", duration))
	return nil
}

func (c *CacheService) cachePoll(pollID string, poll *domain.Poll) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := json.Marshal(poll)
	if err != nil {
		c.logger.Error("Failed to marshal poll for caching",
			zap.String("poll_id", pollID),
			zap.Error(err))
		return
	}

	if err := c.redis.Set(ctx, c.redis.KeyBuilder.KeyPoll(pollID), string(data), c.ttl); err != nil {
		c.logger.Error("Failed to cache poll",
			zap.String("poll_id", pollID),
			zap.Error(err))
	}
}
