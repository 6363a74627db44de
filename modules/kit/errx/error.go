package errx

import (
	"errors"
	"fmt"
	"maps"
	"runtime"
	"slices"
)

// Code 错误码，日志与告警按它聚合。
type Code string

// Reason 细分原因，落在 data["reason"]。
type Reason interface {
	ReasonCode() string
}

const reasonKey = "reason"

// Error 统一错误模型。
// biz 错误是可预期的业务拒绝（账号已存在、角色名被占用），不带栈；
// sys 错误是依赖或内部故障，第一次挂 cause 时捕获一次栈。
type Error struct {
	code  Code
	msg   string
	sys   bool
	data  map[string]any
	cause error
	stack []uintptr
}

func NewBiz(code Code, msg string) *Error { return &Error{code: code, msg: msg} }

func NewSys(code Code, msg string) *Error { return &Error{code: code, msg: msg, sys: true} }

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	s := string(e.code)
	if e.msg != "" {
		s += ": " + e.msg
	}
	if e.cause != nil {
		s = fmt.Sprintf("%s: %v", s, e.cause)
	}
	return s
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is 只比较 code，msg/data/cause 不影响 errors.Is 的结果。
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e != nil && t != nil && e.code == t.code
}

func (e *Error) Code() Code {
	if e == nil {
		return ""
	}
	return e.code
}

func (e *Error) CodeText() string { return string(e.Code()) }

func (e *Error) Msg() string {
	if e == nil {
		return ""
	}
	return e.msg
}

// IsBiz 玩家操作被拒绝这一类，dispatcher 据此只回包不报警。
func (e *Error) IsBiz() bool { return e != nil && !e.sys }

// Data 返回拷贝。
func (e *Error) Data() map[string]any {
	if e == nil {
		return nil
	}
	return maps.Clone(e.data)
}

func (e *Error) Reason() string {
	if e == nil {
		return ""
	}
	s, _ := e.data[reasonKey].(string)
	return s
}

func (e *Error) Stack() []uintptr {
	if e == nil {
		return nil
	}
	return slices.Clone(e.stack)
}

func (e *Error) WithData(key string, value any) *Error {
	return e.WithDataMap(map[string]any{key: value})
}

func (e *Error) WithReason(reason Reason) *Error {
	code := ""
	if reason != nil {
		code = reason.ReasonCode()
	}
	return e.WithData(reasonKey, code)
}

func (e *Error) WithDataMap(data map[string]any) *Error {
	next := e.derive()
	if len(data) == 0 {
		return next
	}
	if next.data == nil {
		next.data = make(map[string]any, len(data))
	}
	maps.Copy(next.data, data)
	return next
}

func (e *Error) WithCause(cause error) *Error {
	next := e.derive()
	next.cause = cause
	// 链上已经有栈就不再重复捕获
	if next.sys && cause != nil && len(next.stack) == 0 && !hasStack(cause) {
		next.stack = captureStack(3)
	}
	return next
}

// derive 复制一份，哨兵错误本身永远不被修改。
func (e *Error) derive() *Error {
	next := *e
	next.data = maps.Clone(e.data)
	next.stack = slices.Clone(e.stack)
	return &next
}

// As 沿链取出第一个 *Error。
func As(err error) (*Error, bool) {
	var xe *Error
	if errors.As(err, &xe) && xe != nil {
		return xe, true
	}
	return nil, false
}

// CodeOf 没有 *Error 时归为 CodeInternal。
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	if xe, ok := As(err); ok {
		return xe.code
	}
	return CodeInternal
}

func captureStack(skip int) []uintptr {
	pcs := make([]uintptr, 64)
	n := runtime.Callers(skip, pcs)
	return pcs[:n:n]
}

func hasStack(err error) bool {
	for depth := 0; err != nil && depth < 32; depth++ {
		if sp, ok := err.(interface{ Stack() []uintptr }); ok && len(sp.Stack()) > 0 {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}
