package transport

// BizCode 访问日志里的处理结果。
type BizCode int

const (
	OK BizCode = 0
	// Ignored 语义不合法的包，静默丢弃
	Ignored BizCode = 1
	// Rejected 业务拒绝，已经回了拒绝包
	Rejected BizCode = 2
	// Framing 包体越界，连接会被断开
	Framing     BizCode = 400
	SystemError BizCode = 500
)

func (c BizCode) String() string {
	switch c {
	case OK:
		return "ok"
	case Ignored:
		return "ignored"
	case Rejected:
		return "rejected"
	case Framing:
		return "framing"
	case SystemError:
		return "system_error"
	}
	return "unknown"
}
