package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"choria/internal/account/app"
	"choria/internal/account/domain"
	accountrepo "choria/internal/account/infra/repo"
	"choria/internal/player/app/port"
	"choria/internal/player/dc"
	"choria/internal/player/infra/persistence/model"
	charmongo "choria/internal/player/infra/persistence/mongodb"
	charmysql "choria/internal/player/infra/persistence/mysql"
	"choria/internal/player/service"
	"choria/internal/server"
	"choria/internal/shared/config"
	"choria/internal/shared/gameconfig"
	"choria/internal/shared/infrastructure/db"
	sharedmongo "choria/internal/shared/infrastructure/mongo"
	sharedredis "choria/internal/shared/infrastructure/redis"
	"choria/internal/shared/logs"
	"choria/internal/shared/security"
	"choria/internal/shared/serverconfig"
	"choria/internal/shared/session"
	transporthttp "choria/internal/shared/transport/http"
	"choria/internal/shared/transport/ws"
	"choria/internal/shared/utils"
	"choria/modules/kit/logx"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	snowflakeNode   = 1
	shutdownTimeout = 10 * time.Second
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: %s -host [-config path]\n", os.Args[0])
	flag.PrintDefaults()
}

func main() {
	host := flag.Bool("host", false, "run the game server")
	configPath := flag.String("config", "", "config file, defaults to $CHORIA_CONFIG or configs/conf.yml")
	flag.Usage = usage
	flag.Parse()
	if !*host {
		flag.Usage()
		os.Exit(2)
	}

	watcher, err := serverconfig.Load(*configPath)
	if err != nil {
		panic(err)
	}
	cfg := serverconfig.Conf
	if err := logs.Init("server", cfg.Log); err != nil {
		panic(err)
	}
	defer logs.Sync()
	watcher.OnChange(func(v *viper.Viper) {
		level := serverconfig.LogLevelFrom(v)
		logs.SetLevel(level)
		logs.Info("log level reloaded", zap.String("level", level))
	})
	log := logx.NewZapLogger(logs.Logger())
	logs.Info("conf", zap.Any("server", cfg.Server), zap.String("driver", cfg.Persistence.Driver))

	gameDir, err := config.Resolve(cfg.Content.GameConfigDir)
	if err != nil {
		logs.Fatal("gameconfig dir not found", zap.Error(err))
	}
	tables, err := gameconfig.Load(gameDir)
	if err != nil {
		logs.Fatal("load gameconfig failed", zap.String("dir", gameDir), zap.Error(err))
	}
	if cfg.Content.MapDir, err = config.Resolve(cfg.Content.MapDir); err != nil {
		logs.Fatal("map dir not found", zap.Error(err))
	}

	ids, err := utils.NewSnowflake(snowflakeNode)
	if err != nil {
		logs.Fatal("init snowflake failed", zap.Error(err))
	}

	// 账号永远在 MySQL；角色存档按 persistence.driver 选
	models := []any{&domain.Account{}}
	if cfg.Persistence.Driver != serverconfig.DriverMongoDB {
		models = append(models, &model.Character{}, &model.InventoryItem{}, &model.SkillLevel{}, &model.ActionBar{})
	}
	gormDB, err := db.Open(cfg.MySQL, models...)
	if err != nil {
		logs.Fatal("open db failed", zap.Error(err))
	}
	defer func() {
		if err := db.Close(gormDB); err != nil {
			logs.Warn("close db failed", zap.Error(err))
		}
	}()

	var repo port.CharacterRepository
	switch cfg.Persistence.Driver {
	case serverconfig.DriverMongoDB:
		store, err := sharedmongo.Open(cfg.MongoDB, logs.Logger())
		if err != nil {
			logs.Fatal("open mongodb failed", zap.Error(err))
		}
		defer func() {
			if err := store.Close(context.Background()); err != nil {
				logs.Warn("close mongodb failed", zap.Error(err))
			}
		}()
		mrepo := charmongo.NewCharacterRepo(store.DB, ids)
		if err := mrepo.EnsureIndexes(context.Background()); err != nil {
			logs.Fatal("ensure mongodb indexes failed", zap.Error(err))
		}
		repo = mrepo
	default:
		repo = charmysql.NewCharacterRepo(gormDB)
	}

	// 没配 redis 时退回单进程在线标记
	var presence session.Presence
	if rdb, err := sharedredis.Open(cfg.Redis, logs.Logger()); err != nil {
		logs.Warn("redis unavailable, using local presence", zap.Error(err))
	} else {
		defer func() { _ = rdb.Close() }()
		presence = session.NewRedisPresence(rdb, uuid.NewString(), cfg.Redis.PresenceTTL)
	}

	writer := dc.NewWriter(repo)
	accounts := app.NewAccountService(accountrepo.NewAccountRepo(gormDB), security.HashPassword, security.CheckPassword, log)
	characters := service.NewCharacterService(repo, writer, tables, cfg.Server.SaveCount, log)

	wsServer := ws.NewServer(ids, log)
	c, err := server.NewContext(server.Options{
		Config:     cfg,
		Tables:     tables,
		Transport:  wsServer,
		Sessions:   session.NewManager(presence),
		Accounts:   accounts,
		Characters: characters,
		Log:        log,
	})
	if err != nil {
		logs.Fatal("init server failed", zap.Error(err))
	}
	srv := server.NewServer(c)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	if err := wsServer.Listen(addr, cfg.Server.Path); err != nil {
		logs.Fatal("listen websocket failed", zap.String("addr", addr), zap.Error(err))
	}

	var admin *transporthttp.Server
	if os.Getenv("JWT_SECRET") == "" {
		logs.Warn("JWT_SECRET not set, admin http disabled")
	} else {
		gin.SetMode(gin.ReleaseMode)
		engine := gin.New()
		engine.Use(gin.Recovery())
		srv.RegisterAdmin(engine)
		adminAddr := fmt.Sprintf("%s:%d", cfg.HTTPServer.Host, cfg.HTTPServer.Port)
		admin = transporthttp.NewHttpServer(adminAddr, engine, log)
		if err := admin.Start(); err != nil {
			logs.Fatal("listen admin http failed", zap.String("addr", adminAddr), zap.Error(err))
		}
	}

	go srv.RunConsole(ctx, os.Stdin)

	if err := srv.Run(ctx); err != nil {
		logs.Error("server exited", zap.Error(err))
	}

	// 停服后半段：管理接口、写库协程、传输层，最后是数据库
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if admin != nil {
		if err := admin.Shutdown(shutdownCtx); err != nil {
			logs.Warn("admin http shutdown failed", zap.Error(err))
		}
	}
	if err := writer.Close(shutdownCtx); err != nil {
		logs.Error("character writer close failed", zap.Int("pending", writer.Pending()), zap.Error(err))
	}
	if err := wsServer.Close(); err != nil {
		logs.Warn("websocket close failed", zap.Error(err))
	}
	logs.Info("shutdown complete")
}
