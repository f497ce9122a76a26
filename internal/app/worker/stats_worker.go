package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"oj_account/internal/app/service"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	popTimeout   = 5 * time.Second
	retryBackoff = 5 * time.Second
)

// StatsWorker drops cached stats whenever the judge reports that a user's
// submission got a verdict. The judge LPUSHes the user id onto the queue.
type StatsWorker struct {
	rdb       *redis.Client
	queueName string
	cache     service.StatsCache
	logger    *slog.Logger
}

func NewStatsWorker(rdb *redis.Client, queueName string, cache service.StatsCache, logger *slog.Logger) *StatsWorker {
	return &StatsWorker{
		rdb:       rdb,
		queueName: queueName,
		cache:     cache,
		logger:    logger.With(slog.String("component", "stats_worker")),
	}
}

func (w *StatsWorker) Start(ctx context.Context) {
	w.logger.Info("Stats worker started", slog.String("queue", w.queueName))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Stats worker stopping...")
			return
		default:
		}

		// result is [queueName, value]
		result, err := w.rdb.BRPop(ctx, popTimeout, w.queueName).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			w.logger.Error("Failed to BRPop from Redis queue", slog.String("queue", w.queueName), slog.Any("err", err))
			select {
			case <-ctx.Done():
			case <-time.After(retryBackoff):
			}
			continue
		}
		if len(result) < 2 {
			continue
		}

		if err := w.handleEvent(ctx, result[1]); err != nil {
			w.logger.Warn("Dropping submission event", slog.String("payload", result[1]), slog.Any("err", err))
		}
	}
}

func (w *StatsWorker) handleEvent(ctx context.Context, payload string) error {
	userID, err := strconv.ParseInt(strings.TrimSpace(payload), 10, 64)
	if err != nil || userID <= 0 {
		return fmt.Errorf("invalid user id %q", payload)
	}
	if err := w.cache.Invalidate(ctx, userID); err != nil {
		return fmt.Errorf("invalidate stats of user %d: %w", userID, err)
	}
	w.logger.Debug("Invalidated cached stats", slog.Int64("user_id", userID))
	return nil
}
