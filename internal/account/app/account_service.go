package app

import (
	"context"
	"errors"

	"choria/internal/account/domain"
	"choria/modules/kit/logx"

	"go.uber.org/zap"
)

type LoginReq struct {
	Username string
	Password string
	// Create 为 true 时先注册再登录
	Create bool
}

type AccountService struct {
	repo  AccountRepo
	hash  PwdHasher
	check PwdChecker
	log   logx.Logger
}

func NewAccountService(repo AccountRepo, hash PwdHasher, check PwdChecker, log logx.Logger) *AccountService {
	if log == nil {
		log = logx.Nop()
	}
	return &AccountService{repo: repo, hash: hash, check: check, log: log}
}

// Login 返回登录成功的账号。在线检查由 session 层负责。
func (s *AccountService) Login(ctx context.Context, req LoginReq) (*domain.Account, error) {
	if req.Create {
		if err := s.register(ctx, req); err != nil {
			return nil, err
		}
	}

	acc, err := s.repo.GetByUsername(ctx, req.Username)
	if err != nil {
		// 区分"用户不存在"（业务错误）和"数据库挂了"（技术错误）
		switch {
		case errors.Is(err, domain.ErrAccountNotFound):
			return nil, ErrInvalidCredentials.WithReason(ReasonUserNotFound)
		default:
			return nil, ErrUnavailable.WithReason(ReasonRepoUnavailable).WithCause(err)
		}
	}
	ok, err := acc.CheckPassword(req.Password, s.check)
	if err != nil {
		return nil, ErrInternalServer.WithData("account_id", acc.ID).WithCause(err)
	}
	if !ok {
		return nil, ErrInvalidCredentials.WithReason(ReasonWrongPassword)
	}
	s.log.WithContext(ctx).Debug("account login", zap.Int64("account_id", acc.ID))
	return acc, nil
}

func (s *AccountService) register(ctx context.Context, req LoginReq) error {
	existing, err := s.repo.GetByUsername(ctx, req.Username)
	switch {
	case err == nil && existing != nil:
		return ErrAccountExists.WithReason(ReasonUserExist)
	case err != nil && !errors.Is(err, domain.ErrAccountNotFound):
		return ErrUnavailable.WithReason(ReasonRepoUnavailable).WithCause(err)
	}

	hashed, err := s.hash(req.Password)
	if err != nil {
		return ErrInternalServer.WithReason(ReasonHashFail).WithCause(err)
	}
	acc := &domain.Account{Username: req.Username, Password: hashed}
	if err := s.repo.Create(ctx, acc); err != nil {
		// 并发注册撞唯一索引
		if errors.Is(err, domain.ErrAccountExists) {
			return ErrAccountExists.WithReason(ReasonUserExist)
		}
		return ErrUnavailable.WithReason(ReasonCreateFail).WithCause(err)
	}
	s.log.WithContext(ctx).Info("account created", zap.Int64("account_id", acc.ID), zap.String("username", acc.Username))
	return nil
}
