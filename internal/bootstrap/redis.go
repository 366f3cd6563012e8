package bootstrap

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonesrussell/partprice/internal/config"
	"github.com/jonesrussell/partprice/internal/events"
	"github.com/jonesrussell/partprice/internal/logger"
)

const redisPingTimeout = 3 * time.Second

// SetupEventPublisher returns nil when Redis is disabled or unreachable.
// Events are optional, so connection failures only disable them.
func SetupEventPublisher(ctx context.Context, cfg config.RedisConfig, log logger.Logger) (*events.Publisher, *redis.Client) {
	if !cfg.Enabled {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis not available, events disabled",
			logger.String("redis_address", cfg.Address),
			logger.Error(err),
		)
		_ = client.Close()
		return nil, nil
	}

	log.Info("Event publisher initialized",
		logger.String("redis_address", cfg.Address),
		logger.String("stream", cfg.Stream),
	)
	return events.NewPublisher(client, cfg.Stream, log), client
}
