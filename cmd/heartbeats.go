package cmd

import (
	"context"
	"log/slog"

	"artfactory/internal/adapters/out/heartbeat"
	"artfactory/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

// NewHeartbeatStore connects to Redis when REDIS_ADDR is set. Without it,
// heartbeats stay in process and every instance sees only its own workers, so
// the foreman of one instance would requeue the live items of another.
func NewHeartbeatStore(ctx context.Context, cfg Config, logger *slog.Logger) (ports.HeartbeatStore, func(), error) {
	if cfg.RedisAddr == "" {
		logger.WarnContext(ctx, "REDIS_ADDR is not set, heartbeats are kept in process: run a single instance only",
			"worker_count", cfg.WorkerCount)
		return heartbeat.NewMemoryStore(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return heartbeat.NewRedisStore(client, cfg.HeartbeatTTL()), func() { _ = client.Close() }, nil
}
