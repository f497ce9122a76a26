package queue

import (
	"context"
	"fmt"
	"log/slog"
	"oj_account/internal/platform/config"
	"time"

	"github.com/redis/go-redis/v9"
)

var RDB *redis.Client

// ConnectRedis connects the shared client used by the stats cache and the
// submission events worker.
func ConnectRedis() error {
	client, err := NewClient(config.AppConfig.RedisAddr, config.AppConfig.RedisPassword, config.AppConfig.RedisDB)
	if err != nil {
		return err
	}
	RDB = client
	slog.Info("Successfully connected to Redis!", slog.String("addr", config.AppConfig.RedisAddr))
	return nil
}

func NewClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:            addr,
		Password:        password,
		DB:              db,
		PoolSize:        10,
		MinIdleConns:    2,
		ConnMaxLifetime: time.Hour,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", addr, err)
	}
	return client, nil
}

func CloseRedis() {
	if RDB != nil {
		if err := RDB.Close(); err != nil {
			slog.Error("Failed to close Redis connection", slog.Any("err", err))
			return
		}
		slog.Info("Redis connection closed.")
	}
}
