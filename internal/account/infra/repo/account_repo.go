package repo

import (
	"context"
	"errors"

	"choria/internal/account/domain"

	"gorm.io/gorm"
)

type AccountRepo struct {
	db *gorm.DB
}

func NewAccountRepo(db *gorm.DB) *AccountRepo {
	return &AccountRepo{
		db: db,
	}
}

func (r *AccountRepo) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	var acc domain.Account
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&acc).Error
	if err == nil {
		return &acc, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// 技术错误 → 业务错误
		return nil, domain.ErrAccountNotFound.WithData("username", username)
	}
	return nil, domain.ErrSystemUnavailable.WithData("username", username).WithCause(err)
}

func (r *AccountRepo) Create(ctx context.Context, acc *domain.Account) error {
	err := r.db.WithContext(ctx).Create(acc).Error
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrAccountExists.WithData("username", acc.Username)
	}
	return domain.ErrSystemUnavailable.WithData("username", acc.Username).WithCause(err)
}
