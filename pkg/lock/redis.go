package lock

import (
	"context"

	"github.com/bsm/redislock"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/peoplehub/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewRedisClient returns nil when REDIS_ADDR is unset.
func NewRedisClient(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) *redis.Client {
	if !cfg.Redis.Enabled() {
		log.Info("redis disabled; using database row locks only")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warn("redis ping failed", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return client
}

type lockerParams struct {
	fx.In

	Cfg    config.Config
	Client *redis.Client `optional:"true"`
}

func newLocker(p lockerParams) Locker {
	if p.Client == nil {
		return NewNoopLocker()
	}
	return NewRedisLocker(redislock.New(p.Client), p.Cfg.Redis.LockTTL)
}

var Module = fx.Module("lock",
	fx.Provide(NewRedisClient),
	fx.Provide(newLocker),
)
