package app

import (
	"context"

	"choria/internal/account/domain"
)

type AccountRepo interface {
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	Create(ctx context.Context, a *domain.Account) error
}

// PwdHasher / PwdChecker 默认是 security 包里的 bcrypt。
type PwdHasher func(plain string) (string, error)

type PwdChecker func(hash, plain string) (bool, error)
