package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"choria/internal/shared/serverconfig"
)

// Open 连上后 PING 一次，地址为空时返回错误由调用方决定是否降级。
func Open(cfg serverconfig.RedisConfig, l *zap.Logger) (*goredis.Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis addr is empty")
	}
	if l == nil {
		l = zap.NewNop()
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	l.Info("open redis success", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return client, nil
}
