package mysql

import (
	"context"
	"errors"

	"choria/internal/player/entity"
	"choria/internal/player/errs"
	"choria/internal/player/infra/persistence/model"

	"gorm.io/gorm"
)

const (
	OpListByAccount = "repo.character.ListByAccount"
	OpLoad          = "repo.character.Load"
	OpCreate        = "repo.character.Create"
	OpDelete        = "repo.character.Delete"
	OpSave          = "repo.character.Save"
)

type CharacterRepo struct {
	db *gorm.DB
}

func NewCharacterRepo(db *gorm.DB) *CharacterRepo {
	return &CharacterRepo{db: db}
}

func (r *CharacterRepo) WithTx(tx *gorm.DB) *CharacterRepo {
	return &CharacterRepo{db: tx}
}

func (r *CharacterRepo) ListByAccount(ctx context.Context, accountID int64) ([]entity.Character, error) {
	var rows []model.Character
	err := r.db.WithContext(ctx).Where("account_id = ?", accountID).Order("id").Find(&rows).Error
	if err != nil {
		return nil, errs.Wrap(OpListByAccount, errs.KindInfra, err, map[string]any{"account_id": accountID})
	}
	out := make([]entity.Character, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.ToEntity())
	}
	return out, nil
}

func (r *CharacterRepo) Load(ctx context.Context, characterID int64) (*entity.CharacterSnapshot, error) {
	meta := map[string]any{"character_id": characterID}
	db := r.db.WithContext(ctx)

	var c model.Character
	err := db.Where("id = ?", characterID).First(&c).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, entity.ErrCharacterNotFound
	case err != nil:
		return nil, errs.Wrap(OpLoad, errs.KindInfra, err, meta)
	}

	var items []model.InventoryItem
	if err := db.Where("character_id = ?", characterID).Order("slot").Find(&items).Error; err != nil {
		return nil, errs.Wrap(OpLoad, errs.KindInfra, err, meta)
	}
	var skills []model.SkillLevel
	if err := db.Where("character_id = ?", characterID).Order("skill_id").Find(&skills).Error; err != nil {
		return nil, errs.Wrap(OpLoad, errs.KindInfra, err, meta)
	}
	var bar []model.ActionBar
	if err := db.Where("character_id = ?", characterID).Order("slot").Find(&bar).Error; err != nil {
		return nil, errs.Wrap(OpLoad, errs.KindInfra, err, meta)
	}
	return model.SnapshotFromRows(c, items, skills, bar), nil
}

func (r *CharacterRepo) Create(ctx context.Context, snap *entity.CharacterSnapshot) (int64, error) {
	if snap == nil {
		return 0, nil
	}
	meta := map[string]any{"account_id": snap.Character.AccountID, "name": snap.Character.Name}

	var id int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Character{}).Where("name = ?", snap.Character.Name).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return entity.ErrNameInUse
		}
		m := model.CharacterFromEntity(snap.Character)
		m.ID = 0
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		id = m.ID

		cp := *snap
		cp.Character.ID = id
		return r.WithTx(tx).replaceChildren(&cp)
	})
	switch {
	case err == nil:
		return id, nil
	case errors.Is(err, entity.ErrNameInUse), errors.Is(err, gorm.ErrDuplicatedKey):
		// 并发创建同名时 count 检查可能漏掉，唯一索引兜底
		return 0, entity.ErrNameInUse
	default:
		return 0, errs.Wrap(OpCreate, errs.KindInfra, err, meta)
	}
}

func (r *CharacterRepo) Delete(ctx context.Context, accountID, characterID int64) error {
	meta := map[string]any{"account_id": accountID, "character_id": characterID}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND account_id = ?", characterID, accountID).Delete(&model.Character{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return entity.ErrCharacterNotFound
		}
		return r.WithTx(tx).deleteChildren(characterID)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, entity.ErrCharacterNotFound):
		return err
	default:
		return errs.Wrap(OpDelete, errs.KindInfra, err, meta)
	}
}

// Save 主表整行保存，子表先删后插。
func (r *CharacterRepo) Save(ctx context.Context, snap *entity.CharacterSnapshot) error {
	if snap == nil {
		return nil
	}
	meta := map[string]any{"character_id": snap.Character.ID, "version": snap.Version}
	if snap.Character.ID == 0 {
		return errs.Wrap(OpSave, errs.KindInfra, entity.ErrCharacterNotFound, meta)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		m := model.CharacterFromEntity(snap.Character)
		res := tx.Model(&model.Character{}).Where("id = ?", m.ID).Select("*").Omit("id", "created_at").Updates(&m)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return entity.ErrCharacterNotFound
		}
		return r.WithTx(tx).replaceChildren(snap)
	})
	if err != nil {
		return errs.Wrap(OpSave, errs.KindInfra, err, meta)
	}
	return nil
}

func (r *CharacterRepo) deleteChildren(characterID int64) error {
	if err := r.db.Where("character_id = ?", characterID).Delete(&model.InventoryItem{}).Error; err != nil {
		return err
	}
	if err := r.db.Where("character_id = ?", characterID).Delete(&model.SkillLevel{}).Error; err != nil {
		return err
	}
	return r.db.Where("character_id = ?", characterID).Delete(&model.ActionBar{}).Error
}

func (r *CharacterRepo) replaceChildren(snap *entity.CharacterSnapshot) error {
	if err := r.deleteChildren(snap.Character.ID); err != nil {
		return err
	}
	items, skills, bar := model.ChildRows(snap)
	if len(items) > 0 {
		if err := r.db.Create(&items).Error; err != nil {
			return err
		}
	}
	if len(skills) > 0 {
		if err := r.db.Create(&skills).Error; err != nil {
			return err
		}
	}
	if len(bar) > 0 {
		if err := r.db.Create(&bar).Error; err != nil {
			return err
		}
	}
	return nil
}
