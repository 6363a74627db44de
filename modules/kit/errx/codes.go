package errx

// 系统类错误码。账号、角色这类业务码由各自的包定义。
const (
	CodeInternal    Code = "INTERNAL_ERROR"
	CodeUnavailable Code = "SERVICE_UNAVAILABLE"
	CodeTimeout     Code = "TIMEOUT"
	// CodeFraming 包体越界、字符串缺少结尾，连接直接断开
	CodeFraming Code = "FRAMING_ERROR"
	// CodeInvalidParam 参数不合法，服务端静默忽略
	CodeInvalidParam Code = "INVALID_PARAM"
	CodeMaintenance  Code = "MAINTENANCE"
)

var (
	ErrInternal     = NewSys(CodeInternal, "internal error")
	ErrUnavailable  = NewSys(CodeUnavailable, "service unavailable")
	ErrTimeout      = NewSys(CodeTimeout, "timeout")
	ErrFraming      = NewSys(CodeFraming, "malformed packet")
	ErrInvalidParam = NewBiz(CodeInvalidParam, "invalid param")
	ErrMaintenance  = NewSys(CodeMaintenance, "server stopping")
)
