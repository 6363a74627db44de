package app

import "choria/modules/kit/errx"

// Code 应用层错误码，和客户端收到的回包一一对应。
type Code = errx.Code

const (
	CodeInvalidCredentials Code = "ACCOUNT_INVALID_CREDENTIAL"
	CodeAccountExists      Code = "ACCOUNT_EXISTS"
	CodeAccountInUse       Code = "ACCOUNT_IN_USE"
	CodeInternalServer     Code = errx.CodeInternal
	CodeUnavailable        Code = errx.CodeUnavailable
)

type Error = errx.Error

// NewError 业务类错误，不捕获栈。
func NewError(code Code, msg string) *Error {
	return errx.NewBiz(code, msg)
}

// Wrap 系统类错误并挂载 cause。
func Wrap(code Code, msg string, cause error) *Error {
	return errx.NewSys(code, msg).WithCause(cause)
}

// 哨兵错误：禁止直接修改其 data/cause，通过 WithData/WithCause 派生。
var (
	ErrInvalidCredentials = errx.NewBiz(CodeInvalidCredentials, "用户名或密码错误")
	ErrAccountExists      = errx.NewBiz(CodeAccountExists, "账号已存在")
	ErrAccountInUse       = errx.NewBiz(CodeAccountInUse, "账号已在线")
	ErrInternalServer     = errx.ErrInternal
	ErrUnavailable        = errx.ErrUnavailable
)
