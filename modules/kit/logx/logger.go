package logx

import (
	"context"

	"go.uber.org/zap"
)

// Logger 结构化字段 + ctx 透传 trace。
type Logger interface {
	Info(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Debug(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	WithContext(ctx context.Context) Logger
}

// Nop 测试和未初始化时使用。
func Nop() Logger { return NewZapLogger(nil) }
