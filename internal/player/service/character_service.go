package service

import (
	"context"
	"errors"
	"unicode/utf8"

	"choria/internal/player/app/port"
	"choria/internal/player/dc"
	"choria/internal/player/entity"
	"choria/internal/player/errs"
	"choria/internal/shared/gameconfig"
	"choria/modules/kit/errx"
	"choria/modules/kit/logx"

	"go.uber.org/zap"
)

const (
	MaxNameLength    = 10
	DefaultSaveCount = 6

	starterMapID = 1
)

const (
	OpPlay   = "service.character.Play"
	OpSave   = "service.character.Save"
	OpCreate = "service.character.Create"
)

// 新角色的初始装备：格子 -> 物品 id
var starterItems = []entity.ItemRow{
	{Slot: entity.SlotBody, ItemID: 2, Count: 1},
	{Slot: entity.SlotHand1, ItemID: 1, Count: 1},
}

var ErrInvalidName = errx.ErrInvalidParam.WithData("field", "name")

// SnapshotQueue 异步存档队列，dc.Writer 实现。
type SnapshotQueue interface {
	NextVersion() uint64
	Enqueue(s *entity.CharacterSnapshot) error
	Flush(ctx context.Context) error
}

type CharacterService struct {
	repo      port.CharacterRepository
	queue     SnapshotQueue
	tables    *gameconfig.Tables
	saveCount int
	log       logx.Logger
}

func NewCharacterService(repo port.CharacterRepository, queue SnapshotQueue, t *gameconfig.Tables, saveCount int, log logx.Logger) *CharacterService {
	if saveCount <= 0 {
		saveCount = DefaultSaveCount
	}
	if log == nil {
		log = logx.Nop()
	}
	return &CharacterService{repo: repo, queue: queue, tables: t, saveCount: saveCount, log: log}
}

// List 先等异步存档落库，再读。
func (s *CharacterService) List(ctx context.Context, accountID int64) ([]entity.Character, error) {
	if err := s.queue.Flush(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListByAccount(ctx, accountID)
}

func (s *CharacterService) Create(ctx context.Context, accountID int64, name string, portraitID int) error {
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return ErrInvalidName
	}
	list, err := s.List(ctx, accountID)
	if err != nil {
		return err
	}
	if len(list) >= s.saveCount {
		return entity.ErrCharacterLimit.WithData("account_id", accountID)
	}

	snap := &entity.CharacterSnapshot{
		Character: entity.Character{
			AccountID:  accountID,
			Name:       name,
			PortraitID: portraitID,
			SpawnMapID: starterMapID,
		},
		Items:     append([]entity.ItemRow(nil), starterItems...),
		Skills:    []entity.SkillRow{{SkillID: 0, Level: 1}},
		ActionBar: []entity.ActionRow{{Slot: 0, ActionID: 0}},
	}
	id, err := s.repo.Create(ctx, snap)
	if err != nil {
		if errors.Is(err, entity.ErrNameInUse) {
			return err
		}
		return errs.Wrap(OpCreate, errs.KindDependency, err, map[string]any{"account_id": accountID})
	}
	s.log.WithContext(ctx).Info("character created",
		zap.Int64("account_id", accountID),
		zap.Int64("character_id", id),
		zap.String("name", name))
	return nil
}

// Delete index 是 List 里的下标。
func (s *CharacterService) Delete(ctx context.Context, accountID int64, index int) error {
	c, err := s.byIndex(ctx, accountID, index)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, accountID, c.ID); err != nil {
		return err
	}
	s.log.WithContext(ctx).Info("character deleted", zap.Int64("account_id", accountID), zap.Int64("character_id", c.ID))
	return nil
}

// Play 载入角色，计算属性并回满生命法力。
func (s *CharacterService) Play(ctx context.Context, accountID int64, index int) (*entity.State, error) {
	c, err := s.byIndex(ctx, accountID, index)
	if err != nil {
		return nil, err
	}
	snap, err := s.repo.Load(ctx, c.ID)
	if err != nil {
		if errors.Is(err, entity.ErrCharacterNotFound) {
			return nil, err
		}
		return nil, errs.Wrap(OpPlay, errs.KindDependency, err, map[string]any{"character_id": c.ID})
	}
	st := entity.Hydrate(snap, s.tables)
	st.CalculateStats(s.tables)
	st.Fighter.RestoreHealthMana()
	return st, nil
}

// Save 异步；writer 已关闭时退回同步写。
func (s *CharacterService) Save(ctx context.Context, st *entity.State) error {
	snap := st.Snapshot(s.queue.NextVersion())
	err := s.queue.Enqueue(snap)
	if errors.Is(err, dc.ErrClosed) {
		return s.saveSync(ctx, snap)
	}
	return err
}

// SaveNow 同步写库，停服时用。
func (s *CharacterService) SaveNow(ctx context.Context, st *entity.State) error {
	return s.saveSync(ctx, st.Snapshot(s.queue.NextVersion()))
}

func (s *CharacterService) saveSync(ctx context.Context, snap *entity.CharacterSnapshot) error {
	if err := s.repo.Save(ctx, snap); err != nil {
		return errs.Wrap(OpSave, errs.KindDependency, err, map[string]any{"character_id": snap.Character.ID})
	}
	return nil
}

func (s *CharacterService) byIndex(ctx context.Context, accountID int64, index int) (entity.Character, error) {
	list, err := s.List(ctx, accountID)
	if err != nil {
		return entity.Character{}, err
	}
	if index < 0 || index >= len(list) {
		return entity.Character{}, entity.ErrCharacterNotFound.WithData("index", index)
	}
	return list[index], nil
}
