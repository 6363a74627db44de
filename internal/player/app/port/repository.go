package port

import (
	"context"

	"choria/internal/player/entity"
)

// CharacterRepository 角色存档。Save 整体替换子表，必须在一个事务里完成。
type CharacterRepository interface {
	// ListByAccount 按创建顺序返回，下标就是客户端的角色槽位
	ListByAccount(ctx context.Context, accountID int64) ([]entity.Character, error)
	Load(ctx context.Context, characterID int64) (*entity.CharacterSnapshot, error)
	// Create 名字重复返回 entity.ErrNameInUse
	Create(ctx context.Context, snap *entity.CharacterSnapshot) (int64, error)
	Delete(ctx context.Context, accountID, characterID int64) error
	Save(ctx context.Context, snap *entity.CharacterSnapshot) error
}
