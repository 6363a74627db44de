package domain

import "choria/modules/kit/errx"

// Code 领域错误码。
//
// 约定：
// - 领域层只关心"是什么错"（code）以及业务上下文（data）
// - cause 仅用于溯源/日志，不参与对外语义
type Code = errx.Code

const (
	CodeAccountNotFound Code = "ACCOUNT_NOT_FOUND"
	CodeAccountExists   Code = "ACCOUNT_EXISTS"
	// CodeSystemUnavailable 复用 kit 的统一系统码
	CodeSystemUnavailable Code = errx.CodeUnavailable
)

type Error = errx.Error

func NewError(code Code, data map[string]any, cause error) *Error {
	base := newByCodeKind(code)
	if data != nil {
		base = base.WithDataMap(data)
	}
	if cause != nil {
		base = base.WithCause(cause)
	}
	return base
}

var (
	ErrAccountNotFound   = errx.NewBiz(CodeAccountNotFound, "")
	ErrAccountExists     = errx.NewBiz(CodeAccountExists, "")
	ErrSystemUnavailable = errx.ErrUnavailable
)

func newByCodeKind(code Code) *Error {
	switch code {
	case CodeSystemUnavailable:
		return errx.ErrUnavailable
	default:
		return errx.NewBiz(code, "")
	}
}
