package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/irfndi/wellcast-go/internal/models"
)

const forecastKeyPrefix = "forecast:latest:"

// ForecastCacheStats tracks cache performance
type ForecastCacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
	Errors int64 `json:"errors"`
}

// RedisForecastCache keeps each subject's latest forecast in Redis
type RedisForecastCache struct {
	client redis.Cmdable
	ttl    time.Duration
	mu     sync.Mutex
	stats  ForecastCacheStats
}

// NewRedisForecastCache creates a forecast cache. A non-positive ttl stores
// entries without expiry.
func NewRedisForecastCache(client redis.Cmdable, ttl time.Duration) *RedisForecastCache {
	return &RedisForecastCache{client: client, ttl: ttl}
}

func forecastKey(userID string) string {
	return forecastKeyPrefix + userID
}

// GetLatest returns the cached forecast for userID. A miss returns (nil, nil).
func (c *RedisForecastCache) GetLatest(ctx context.Context, userID string) (*models.BurnoutForecast, error) {
	data, err := c.client.Get(ctx, forecastKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.record(func(s *ForecastCacheStats) { s.Misses++ })
		return nil, nil
	}
	if err != nil {
		c.record(func(s *ForecastCacheStats) { s.Errors++ })
		return nil, fmt.Errorf("failed to read cached forecast: %w", err)
	}

	var forecast models.BurnoutForecast
	if err := json.Unmarshal(data, &forecast); err != nil {
		c.record(func(s *ForecastCacheStats) { s.Errors++ })
		return nil, fmt.Errorf("failed to decode cached forecast: %w", err)
	}

	c.record(func(s *ForecastCacheStats) { s.Hits++ })
	return &forecast, nil
}

// SetLatest stores forecast as its subject's latest
func (c *RedisForecastCache) SetLatest(ctx context.Context, forecast *models.BurnoutForecast) error {
	data, err := json.Marshal(forecast)
	if err != nil {
		return fmt.Errorf("failed to encode forecast: %w", err)
	}

	ttl := c.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := c.client.Set(ctx, forecastKey(forecast.UserID), data, ttl).Err(); err != nil {
		c.record(func(s *ForecastCacheStats) { s.Errors++ })
		return fmt.Errorf("failed to cache forecast: %w", err)
	}

	c.record(func(s *ForecastCacheStats) { s.Sets++ })
	return nil
}

// Invalidate drops the cached forecast for userID
func (c *RedisForecastCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, forecastKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached forecast: %w", err)
	}
	return nil
}

// Stats returns a snapshot of the cache counters
func (c *RedisForecastCache) Stats() ForecastCacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *RedisForecastCache) record(fn func(*ForecastCacheStats)) {
	c.mu.Lock()
	fn(&c.stats)
	c.mu.Unlock()
}
