package queries

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gilanghuda/weekly-report-backend/app/models"
	"github.com/redis/go-redis/v9"
)

const statsCacheKey = "weekly-reports:stats"

// StatsCache keeps the last stats payload in Redis. A nil Client disables it.
type StatsCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func (c *StatsCache) Get(ctx context.Context) (models.ReportStats, bool, error) {
	var stats models.ReportStats
	if c == nil || c.Client == nil {
		return stats, false, nil
	}
	raw, err := c.Client.Get(ctx, statsCacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return stats, false, nil
	}
	if err != nil {
		return stats, false, err
	}
	if err := json.Unmarshal(raw, &stats); err != nil {
		return stats, false, err
	}
	return stats, true, nil
}

func (c *StatsCache) Set(ctx context.Context, stats models.ReportStats) error {
	if c == nil || c.Client == nil {
		return nil
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, statsCacheKey, raw, c.TTL).Err()
}

func (c *StatsCache) Invalidate(ctx context.Context) error {
	if c == nil || c.Client == nil {
		return nil
	}
	return c.Client.Del(ctx, statsCacheKey).Err()
}
