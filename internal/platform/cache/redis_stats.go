package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"oj_account/internal/domain/model"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const statsKeyPrefix = "user_stats:"

// RedisStatsCache keeps JSON encoded stats summaries under user_stats:<id>.
type RedisStatsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStatsCache(rdb *redis.Client, ttl time.Duration) *RedisStatsCache {
	return &RedisStatsCache{rdb: rdb, ttl: ttl}
}

func StatsKey(userID int64) string {
	return statsKeyPrefix + strconv.FormatInt(userID, 10)
}

func (c *RedisStatsCache) Get(ctx context.Context, userID int64) (*model.StatsSummary, bool, error) {
	raw, err := c.rdb.Get(ctx, StatsKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get %s: %w", StatsKey(userID), err)
	}

	var summary model.StatsSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, false, fmt.Errorf("decode cached stats: %w", err)
	}
	return &summary, true, nil
}

func (c *RedisStatsCache) Set(ctx context.Context, userID int64, summary *model.StatsSummary) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	if err := c.rdb.Set(ctx, StatsKey(userID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", StatsKey(userID), err)
	}
	return nil
}

func (c *RedisStatsCache) Invalidate(ctx context.Context, userID int64) error {
	if err := c.rdb.Del(ctx, StatsKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", StatsKey(userID), err)
	}
	return nil
}
