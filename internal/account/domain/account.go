package domain

import "time"

const (
	// MaxUsernameLength 登录包里超过这个长度的用户名直接忽略
	MaxUsernameLength = 15
	MaxPasswordLength = 15
)

type Account struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement;comment:账号ID" json:"id"`
	Username  string    `gorm:"column:username;type:varchar(15);uniqueIndex;not null;comment:用户名" json:"username"`
	Password  string    `gorm:"column:password;type:varchar(255);not null;comment:bcrypt 哈希" json:"-"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;comment:创建时间" json:"created_at"`
}

func (Account) TableName() string {
	return "accounts"
}

// CheckPassword check 由调用方注入，测试里可以不走 bcrypt。
func (a Account) CheckPassword(pwd string, check func(hash, plain string) (bool, error)) (bool, error) {
	if pwd == "" {
		return false, nil
	}
	return check(a.Password, pwd)
}
