package tracex

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type traceIDKey struct{}
type peerIDKey struct{}

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

func TraceIDFrom(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(traceIDKey{}).(string)
	return s, ok && s != ""
}

// WithPeerID 标记当前处理的连接，日志里按 peer 串起一条连接的所有包。
func WithPeerID(ctx context.Context, peerID uint64) context.Context {
	return context.WithValue(ctx, peerIDKey{}, peerID)
}

func PeerIDFrom(ctx context.Context) (uint64, bool) {
	v, ok := ctx.Value(peerIDKey{}).(uint64)
	return v, ok
}

// NewTraceID 32 位 hex。
func NewTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
