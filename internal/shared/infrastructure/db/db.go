package db

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"choria/internal/shared/logs"
	"choria/internal/shared/serverconfig"
)

const slowSQLThreshold = 200 * time.Millisecond

// Open 打开 MySQL。models 非空时顺带 AutoMigrate，启动阶段失败直接返回。
func Open(cfg serverconfig.MySQLConfig, models ...any) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		Logger: logs.NewGormLogger(logger.Warn, slowSQLThreshold),
		// 唯一索引冲突翻译成 gorm.ErrDuplicatedKey
		TranslateError: true,
	}

	charset := cfg.Charset
	if charset == "" {
		charset = "utf8mb4"
	}
	// username:password@tcp(host:port)/dbname?charset=utf8mb4&parseTime=True&loc=Local
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName, charset)
	db, err := gorm.Open(mysql.Open(dsn), gcfg)
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxConn > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxConn)
	}
	if cfg.MaxIdle > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdle)
	}

	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}

	logs.Info("open db success",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("db", cfg.DBName),
		zap.String("user", cfg.User),
	)
	return db, nil
}

// Close 停服时调用。
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
