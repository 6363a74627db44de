package logx

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// BizLog 业务拒绝，例如账号已在线、角色名被占用。
type BizLog struct {
	Action  string
	Reason  string
	Message string
}

// SysLog 技术错误，例如存档失败、地图文件损坏。
type SysLog struct {
	Action string
	Err    error
}

func NewBizLog(action, reason, message string) BizLog {
	return BizLog{Action: action, Reason: reason, Message: message}
}

func NewSysLog(action string, err error) SysLog {
	return SysLog{Action: action, Err: err}
}

// ReportAccessWithLoggerContext 每个包一条访问日志。
// result 0 INFO，1~499 WARN，>=500 ERROR。
func ReportAccessWithLoggerContext(ctx context.Context, l Logger, action string, result int, fields ...zap.Field) {
	if l == nil {
		return
	}
	base := make([]zap.Field, 0, 3+len(fields))
	base = append(base,
		zap.String("log_type", "access"),
		zap.String("action", action),
		zap.Int("result", result),
	)
	base = append(base, fields...)
	withCtx := l.WithContext(ctx)
	switch {
	case result == 0:
		withCtx.Info("access", base...)
	case result >= 500:
		withCtx.Error("access", base...)
	default:
		withCtx.Warn("access", base...)
	}
}

func ReportBizWithLoggerContext(ctx context.Context, l Logger, biz BizLog, fields ...zap.Field) {
	if l == nil {
		return
	}
	action := biz.Action
	if action == "" {
		action = "biz_reject"
	}
	base := []zap.Field{
		zap.String("err_type", "biz"),
		zap.String("action", action),
	}
	if biz.Reason != "" {
		base = append(base, zap.String("reason", biz.Reason))
	}
	if biz.Message != "" {
		base = append(base, zap.String("biz_message", biz.Message))
	}
	base = append(base, fields...)

	msg := action
	switch {
	case biz.Reason != "" && biz.Message != "":
		msg = fmt.Sprintf("%s, reason:%s, msg:%s", action, biz.Reason, biz.Message)
	case biz.Reason != "":
		msg = fmt.Sprintf("%s, reason:%s", action, biz.Reason)
	case biz.Message != "":
		msg = fmt.Sprintf("%s, msg:%s", action, biz.Message)
	}
	l.WithContext(ctx).Info(msg, base...)
}

// ReportSysErrorWithLoggerContext ERROR 级别，带 cause 链和发生处的栈。
func ReportSysErrorWithLoggerContext(ctx context.Context, l Logger, sys SysLog, fields ...zap.Field) {
	if sys.Err == nil || l == nil {
		return
	}
	action := sys.Action
	if action == "" {
		action = "sys_error"
	}

	meta := BuildErrorLog(sys.Err)
	base := []zap.Field{
		zap.String("err_type", "sys"),
		zap.String("action", action),
	}
	if meta.Code != "" {
		base = append(base, zap.String("error_code", meta.Code))
	}
	if len(meta.CauseChain) != 0 {
		base = append(base, zap.Strings("cause_chain", meta.CauseChain))
	}
	if len(meta.Data) != 0 {
		base = append(base, zap.Any("error_data", meta.Data))
	}
	if meta.Origin != "" {
		base = append(base, zap.String("origin_caller", meta.Origin))
	}
	if meta.Stack != "" {
		base = append(base, zap.String("stack_origin", meta.Stack))
	}
	base = append(base, fields...)

	msg := fmt.Sprintf("%s, error:%s", action, meta.Error)
	if meta.Reason != "" {
		msg = fmt.Sprintf("%s, reason:%s, error:%s", action, meta.Reason, meta.Error)
	}
	l.WithContext(ctx).Error(msg, base...)
}
