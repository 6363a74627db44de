package transport

import (
	"context"
	"time"

	"choria/modules/kit/logx"
	"choria/modules/kit/tracex"

	"go.uber.org/zap"
)

// AccessLog 每个数据报一份，handler 通过 ctx 写结果。
type AccessLog struct {
	BizCode     BizCode
	ErrorReason string
	Account     int64
	startTime   time.Time
	action      string
}

type accessLogKey struct{}

// NewContext 以 background 为父 context。
func NewContext(action string, peer PeerID) context.Context {
	return NewContextWithParent(context.Background(), action, peer)
}

func NewContextWithParent(parent context.Context, action string, peer PeerID) context.Context {
	ctx := parent
	if ctx == nil {
		ctx = context.Background()
	}
	if action == "" {
		action = "unknown"
	}
	if traceID := tracex.NewTraceID(); traceID != "" {
		ctx = tracex.WithTraceID(ctx, traceID)
	}
	// HTTP 请求没有 peer
	if peer != 0 {
		ctx = tracex.WithPeerID(ctx, uint64(peer))
	}

	al := &AccessLog{
		BizCode:   OK,
		startTime: time.Now(),
		action:    action,
	}
	return context.WithValue(ctx, accessLogKey{}, al)
}

func FromContext(ctx context.Context) *AccessLog {
	if ctx == nil {
		return nil
	}
	al, _ := ctx.Value(accessLogKey{}).(*AccessLog)
	return al
}

func SetBizCode(ctx context.Context, code BizCode) {
	if al := FromContext(ctx); al != nil {
		al.BizCode = code
	}
}

func SetErrorReason(ctx context.Context, reason string) {
	if reason == "" {
		return
	}
	if al := FromContext(ctx); al != nil {
		al.ErrorReason = reason
	}
}

// SetAccount 登录之后的包带上账号。
func SetAccount(ctx context.Context, accountID int64) {
	if al := FromContext(ctx); al != nil {
		al.Account = accountID
	}
}

// WriteAccessLog 在 dispatch 里 defer 调用。
func WriteAccessLog(ctx context.Context, log logx.Logger) {
	al := FromContext(ctx)
	if al == nil || log == nil {
		return
	}

	fields := []zap.Field{
		zap.Duration("latency", time.Since(al.startTime)),
		zap.String("result_text", al.BizCode.String()),
	}
	if al.Account != 0 {
		fields = append(fields, zap.Int64("account_id", al.Account))
	}
	if al.BizCode != OK && al.ErrorReason != "" {
		fields = append(fields, zap.String("error_reason", al.ErrorReason))
	}
	if al.BizCode == Ignored {
		// 丢弃的包量大且无害，只在 debug 级别可见
		log.WithContext(ctx).Debug("access", append([]zap.Field{
			zap.String("log_type", "access"),
			zap.String("action", al.action),
			zap.Int("result", int(al.BizCode)),
		}, fields...)...)
		return
	}
	logx.ReportAccessWithLoggerContext(ctx, log, al.action, int(al.BizCode), fields...)
}
