package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/readshelf/library-api/internal/handler/dto"
	"github.com/readshelf/library-api/internal/service"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const statsSummaryKey = "library:stats:summary"

// StatsCache keeps the pre-computed catalog summary in Redis as a JSON blob
// under a single namespaced key.
type StatsCache struct {
	client *redis.Client
	logger *zap.Logger
}

func NewStatsCache(client *redis.Client, logger *zap.Logger) *StatsCache {
	return &StatsCache{
		client: client,
		logger: logger.Named("StatsCache"),
	}
}

var _ service.StatsCache = (*StatsCache)(nil)

// GetSummary returns the cached summary, or (nil, nil) on a miss. A blob that
// no longer unmarshals is treated as a miss.
func (c *StatsCache) GetSummary(ctx context.Context) (*dto.StatsSummaryResponse, error) {
	data, err := c.client.Get(ctx, statsSummaryKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read stats summary from redis: %w", err)
	}

	var summary dto.StatsSummaryResponse
	if err := json.Unmarshal([]byte(data), &summary); err != nil {
		c.logger.Warn("Discarding unreadable cached stats summary", zap.Error(err))
		return nil, nil
	}

	return &summary, nil
}

func (c *StatsCache) SetSummary(ctx context.Context, summary *dto.StatsSummaryResponse, ttl time.Duration) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal stats summary: %w", err)
	}

	if err := c.client.Set(ctx, statsSummaryKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store stats summary in redis: %w", err)
	}

	return nil
}
