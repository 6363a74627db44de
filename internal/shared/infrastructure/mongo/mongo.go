package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"

	"choria/internal/shared/serverconfig"
)

const (
	appName        = "choria"
	defaultTimeout = 3 * time.Second
)

// Store 角色存档选 mongodb 时用到的连接和库。
type Store struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// Open 连上后先 ping 主节点，失败直接断开。
func Open(cfg serverconfig.MongoDBConfig, l *zap.Logger) (*Store, error) {
	if cfg.URI == "" || cfg.Database == "" {
		return nil, errors.New("mongodb uri and database are required")
	}
	if l == nil {
		l = zap.NewNop()
	}
	timeout := defaultTimeout
	if cfg.ConnectTimeoutS > 0 {
		timeout = time.Duration(cfg.ConnectTimeoutS) * time.Second
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName(appName).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	l.Info("open mongodb success", zap.String("database", cfg.Database), zap.Duration("timeout", timeout))
	return &Store{Client: client, DB: client.Database(cfg.Database)}, nil
}

func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.Client == nil {
		return nil
	}
	return s.Client.Disconnect(ctx)
}
