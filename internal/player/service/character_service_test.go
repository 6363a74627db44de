package service

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"choria/internal/player/dc"
	"choria/internal/player/entity"
	"choria/internal/shared/gameconfig"
	"choria/modules/kit/errx"
)

type fakeCharacterRepo struct {
	nextID int64
	chars  map[int64]*entity.CharacterSnapshot
	saves  int
	err    error
}

func newFakeCharacterRepo() *fakeCharacterRepo {
	return &fakeCharacterRepo{chars: make(map[int64]*entity.CharacterSnapshot)}
}

func (r *fakeCharacterRepo) ListByAccount(ctx context.Context, accountID int64) ([]entity.Character, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []entity.Character
	for _, s := range r.chars {
		if s.Character.AccountID == accountID {
			out = append(out, s.Character)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeCharacterRepo) Load(ctx context.Context, id int64) (*entity.CharacterSnapshot, error) {
	s, ok := r.chars[id]
	if !ok {
		return nil, entity.ErrCharacterNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeCharacterRepo) Create(ctx context.Context, snap *entity.CharacterSnapshot) (int64, error) {
	for _, s := range r.chars {
		if s.Character.Name == snap.Character.Name {
			return 0, entity.ErrNameInUse
		}
	}
	r.nextID++
	cp := *snap
	cp.Character.ID = r.nextID
	r.chars[r.nextID] = &cp
	return r.nextID, nil
}

func (r *fakeCharacterRepo) Delete(ctx context.Context, accountID, id int64) error {
	s, ok := r.chars[id]
	if !ok || s.Character.AccountID != accountID {
		return entity.ErrCharacterNotFound
	}
	delete(r.chars, id)
	return nil
}

func (r *fakeCharacterRepo) Save(ctx context.Context, snap *entity.CharacterSnapshot) error {
	r.saves++
	cp := *snap
	r.chars[snap.Character.ID] = &cp
	return nil
}

// syncQueue 入队即写，测试里不起协程。
type syncQueue struct {
	repo    *fakeCharacterRepo
	version uint64
	flushes int
}

func (q *syncQueue) NextVersion() uint64 { q.version++; return q.version }

func (q *syncQueue) Enqueue(s *entity.CharacterSnapshot) error {
	return q.repo.Save(context.Background(), s)
}

func (q *syncQueue) Flush(ctx context.Context) error { q.flushes++; return nil }

func tables() *gameconfig.Tables {
	t := &gameconfig.Tables{
		Items: map[int]*gameconfig.Item{
			1: {ID: 1, Name: "Dagger", Type: gameconfig.ItemWeapon1Hand, Damage: 3, DamageRange: 1},
			2: {ID: 2, Name: "Shirt", Type: gameconfig.ItemBody, Defense: 1},
		},
		Skills: map[int]*gameconfig.Skill{
			0: {ID: 0, Type: gameconfig.SkillAttack, Effect: gameconfig.EffectWeaponMod, PowerBase: 1},
		},
		Levels: []*gameconfig.Level{{Level: 1, Health: 30, Mana: 10, SkillPoints: 2, NextLevel: 10}},
	}
	return t
}

func newTestService() (*CharacterService, *fakeCharacterRepo, *syncQueue) {
	repo := newFakeCharacterRepo()
	q := &syncQueue{repo: repo}
	return NewCharacterService(repo, q, tables(), 2, nil), repo, q
}

func TestCreate_新角色带初始装备(t *testing.T) {
	s, repo, _ := newTestService()
	ctx := context.Background()

	if err := s.Create(ctx, 9, "alice", 3); err != nil {
		t.Fatalf("Create err=%v", err)
	}
	snap := repo.chars[1]
	if snap == nil {
		t.Fatalf("期望写入角色 id=1")
	}
	if snap.Character.SpawnMapID != 1 || snap.Character.PortraitID != 3 || snap.Character.AccountID != 9 {
		t.Fatalf("角色字段不对: %+v", snap.Character)
	}
	if len(snap.Items) != 2 || snap.Items[0] != (entity.ItemRow{Slot: 1, ItemID: 2, Count: 1}) || snap.Items[1] != (entity.ItemRow{Slot: 3, ItemID: 1, Count: 1}) {
		t.Fatalf("初始物品不对: %+v", snap.Items)
	}
	if len(snap.Skills) != 1 || snap.Skills[0].Level != 1 || len(snap.ActionBar) != 1 || snap.ActionBar[0].ActionID != 0 {
		t.Fatalf("初始技能不对: %+v %+v", snap.Skills, snap.ActionBar)
	}
}

func TestCreate_名字与数量限制(t *testing.T) {
	s, _, _ := newTestService()
	ctx := context.Background()

	if err := s.Create(ctx, 1, "abcdefghijk", 1); !errors.Is(err, errx.ErrInvalidParam) {
		t.Fatalf("期望名字过长被拒绝，实际 %v", err)
	}
	if err := s.Create(ctx, 1, "", 1); !errors.Is(err, errx.ErrInvalidParam) {
		t.Fatalf("期望空名字被拒绝，实际 %v", err)
	}
	if err := s.Create(ctx, 1, "a", 1); err != nil {
		t.Fatalf("err=%v", err)
	}
	if err := s.Create(ctx, 2, "a", 1); !errors.Is(err, entity.ErrNameInUse) {
		t.Fatalf("期望 ErrNameInUse，实际 %v", err)
	}
	if err := s.Create(ctx, 1, "b", 1); err != nil {
		t.Fatalf("err=%v", err)
	}
	if err := s.Create(ctx, 1, "c", 1); !errors.Is(err, entity.ErrCharacterLimit) {
		t.Fatalf("期望达到 saveCount=2 后拒绝，实际 %v", err)
	}
}

func TestPlay_恢复属性(t *testing.T) {
	s, _, q := newTestService()
	ctx := context.Background()
	_ = s.Create(ctx, 1, "alice", 1)

	st, err := s.Play(ctx, 1, 0)
	if err != nil {
		t.Fatalf("Play err=%v", err)
	}
	if st.Inventory[entity.SlotHand1].ItemID() != 1 || st.Inventory[entity.SlotBody].ItemID() != 2 {
		t.Fatalf("装备没有恢复")
	}
	if st.Fighter.MaxHealth != 30 || st.Fighter.Health != 30 || st.Fighter.Mana != st.Fighter.MaxMana {
		t.Fatalf("期望回满 30 血，实际 %d/%d", st.Fighter.Health, st.Fighter.MaxHealth)
	}
	if q.flushes == 0 {
		t.Fatalf("期望读角色前先 Flush")
	}
	if _, err := s.Play(ctx, 1, 5); !errors.Is(err, entity.ErrCharacterNotFound) {
		t.Fatalf("期望越界下标 ErrCharacterNotFound，实际 %v", err)
	}
}

func TestDelete_ByIndex(t *testing.T) {
	s, repo, _ := newTestService()
	ctx := context.Background()
	_ = s.Create(ctx, 1, "a", 1)
	_ = s.Create(ctx, 1, "b", 1)

	if err := s.Delete(ctx, 1, 0); err != nil {
		t.Fatalf("Delete err=%v", err)
	}
	list, _ := s.List(ctx, 1)
	if len(list) != 1 || list[0].Name != "b" {
		t.Fatalf("期望只剩 b，实际 %+v", list)
	}
	if _, ok := repo.chars[1]; ok {
		t.Fatalf("期望 id=1 被删除")
	}
}

func TestSave_WriterClosedFallsBackToSync(t *testing.T) {
	repo := newFakeCharacterRepo()
	w := dc.NewWriter(repo)
	s := NewCharacterService(repo, w, tables(), 0, nil)
	ctx := context.Background()
	_ = s.Create(ctx, 1, "alice", 1)
	st, err := s.Play(ctx, 1, 0)
	if err != nil {
		t.Fatalf("Play err=%v", err)
	}

	closeCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := w.Close(closeCtx); err != nil {
		t.Fatalf("Close err=%v", err)
	}

	st.Gold = 99
	if err := s.Save(ctx, st); err != nil {
		t.Fatalf("Save err=%v", err)
	}
	if repo.chars[1].Character.Gold != 99 || repo.saves != 1 {
		t.Fatalf("期望同步写入 gold=99，实际 gold=%d saves=%d", repo.chars[1].Character.Gold, repo.saves)
	}
}
