package logs

import (
	"os"
	"strings"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"choria/internal/shared/serverconfig"
)

var (
	logger = zap.NewNop()
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// Init 控制台彩色输出；配置了 file_dir 时再 tee 一路 JSON 到 lumberjack 滚动文件。
func Init(appName string, cfg serverconfig.LogConfig) error {
	level.SetLevel(parseLevel(cfg.Level))

	encoderCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	consoleCfg := encoderCfg
	consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stderr), level),
	}

	// 文件里不要 ANSI 颜色
	if cfg.FileDir != "" {
		fileCfg := encoderCfg
		fileCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		fileWriter := &lumberjack.Logger{
			Filename:   cfg.FileDir,
			MaxSize:    max(1, cfg.MaxSize),
			MaxBackups: max(0, cfg.MaxBackups),
			MaxAge:     max(0, cfg.MaxAge),
			Compress:   cfg.Compress,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(fileWriter), level))
	}

	opts := []zap.Option{zap.AddCaller(), zap.AddCallerSkip(1)}
	if cfg.Dev {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.WarnLevel))
	}

	_ = logger.Sync()
	logger = zap.New(zapcore.NewTee(cores...), opts...).Named(appName)
	return nil
}

// Logger 给需要注入 *zap.Logger 的组件（logx 适配器、mongo）。
// 去掉 facade 的 caller skip，调用方直接用时行号准确。
func Logger() *zap.Logger {
	return logger.WithOptions(zap.AddCallerSkip(-1))
}

// SetLevel 配置热更新时调用。
func SetLevel(s string) {
	level.SetLevel(parseLevel(s))
}

func Sync() {
	_ = logger.Sync()
}

func parseLevel(s string) zapcore.Level {
	lvl := zapcore.InfoLevel
	if err := lvl.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

func Debug(msg string, fields ...zap.Field) { logger.Debug(msg, fields...) }

func Info(msg string, fields ...zap.Field) { logger.Info(msg, fields...) }

func Warn(msg string, fields ...zap.Field) { logger.Warn(msg, fields...) }

func Error(msg string, fields ...zap.Field) { logger.Error(msg, fields...) }

// Fatal 打印后 os.Exit(1)，只在启动阶段用。
func Fatal(msg string, fields ...zap.Field) { logger.Fatal(msg, fields...) }
