package database

import (
	"context"
	"fmt"

	"github.com/oaib/exam-backend/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// NewRedisClient creates and validates the Redis client backing the work queues.
func NewRedisClient(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	queues := []string{config.WorkerKey.TabSwitchQueue, config.WorkerKey.NotificationsQueue}
	for _, q := range queues {
		n, err := rdb.LLen(ctx, q).Result()
		if err != nil {
			return nil, fmt.Errorf("inspect queue %s: %w", q, err)
		}
		if n > 0 {
			log.Warn().Str("queue", q).Int64("pending", n).Msg("Queue has pending items from a previous run")
		}
	}

	log.Info().
		Str("addr", opt.Addr).
		Int("db", opt.DB).
		Msg("Redis connected")

	return rdb, nil
}
