package app

type Reason struct {
	Code    string
	Message string
}

func (r Reason) ReasonCode() string {
	return r.Code
}

func NewReason(c, m string) Reason {
	return Reason{
		Code:    c,
		Message: m,
	}
}

var (
	// 业务拒绝
	ReasonUserNotFound  = NewReason("USER_NOT_FOUND", "用户不存在")
	ReasonWrongPassword = NewReason("WRONG_PASSWORD", "密码错误")
	ReasonUserExist     = NewReason("USER_EXIST", "用户已存在")
)

var (
	// 技术错误，日志与排障用
	ReasonRepoUnavailable = NewReason("ACCOUNT_REPO_UNAVAILABLE", "账号存储不可用")
	ReasonHashFail        = NewReason("PASSWORD_HASH_FAIL", "密码哈希失败")
	ReasonCreateFail      = NewReason("ACCOUNT_CREATE_FAIL", "账号创建失败")
)
