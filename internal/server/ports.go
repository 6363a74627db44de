package server

import (
	"context"

	"choria/internal/account/app"
	"choria/internal/account/domain"
	player "choria/internal/player/entity"
)

// AccountService 账号登录/注册，app.AccountService 实现。
type AccountService interface {
	Login(ctx context.Context, req app.LoginReq) (*domain.Account, error)
}

// CharacterService 角色选择与存档，service.CharacterService 实现。
type CharacterService interface {
	List(ctx context.Context, accountID int64) ([]player.Character, error)
	Create(ctx context.Context, accountID int64, name string, portraitID int) error
	Delete(ctx context.Context, accountID int64, index int) error
	Play(ctx context.Context, accountID int64, index int) (*player.State, error)
	// Save 异步
	Save(ctx context.Context, st *player.State) error
	// SaveNow 同步，停服用
	SaveNow(ctx context.Context, st *player.State) error
}
