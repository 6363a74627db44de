package dc

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"choria/internal/player/entity"
)

type fakeRepo struct {
	mu    sync.Mutex
	saves []*entity.CharacterSnapshot
	fail  int
	gate  chan struct{}
}

func (r *fakeRepo) ListByAccount(ctx context.Context, accountID int64) ([]entity.Character, error) {
	return nil, nil
}

func (r *fakeRepo) Load(ctx context.Context, characterID int64) (*entity.CharacterSnapshot, error) {
	return nil, entity.ErrCharacterNotFound
}

func (r *fakeRepo) Create(ctx context.Context, snap *entity.CharacterSnapshot) (int64, error) {
	return 0, nil
}

func (r *fakeRepo) Delete(ctx context.Context, accountID, characterID int64) error { return nil }

func (r *fakeRepo) Save(ctx context.Context, snap *entity.CharacterSnapshot) error {
	if r.gate != nil {
		<-r.gate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail > 0 {
		r.fail--
		return errors.New("db down")
	}
	r.saves = append(r.saves, snap)
	return nil
}

func (r *fakeRepo) saved() []*entity.CharacterSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*entity.CharacterSnapshot(nil), r.saves...)
}

func snap(id int64, version uint64, gold int) *entity.CharacterSnapshot {
	return &entity.CharacterSnapshot{Version: version, Character: entity.Character{ID: id, Gold: gold}}
}

func ctxTimeout(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestWriter_FlushWritesPending(t *testing.T) {
	repo := &fakeRepo{}
	w := NewWriter(repo)
	defer w.Close(ctxTimeout(t))

	if err := w.Enqueue(snap(1, w.NextVersion(), 10)); err != nil {
		t.Fatalf("Enqueue err=%v", err)
	}
	if err := w.Flush(ctxTimeout(t)); err != nil {
		t.Fatalf("Flush err=%v", err)
	}
	got := repo.saved()
	if len(got) != 1 || got[0].Character.Gold != 10 {
		t.Fatalf("期望写入一次 gold=10，实际 %+v", got)
	}
	if w.Pending() != 0 {
		t.Fatalf("期望 Flush 后没有待写快照，实际 %d", w.Pending())
	}
}

func TestWriter_同角色只保留最新版本(t *testing.T) {
	gate := make(chan struct{})
	repo := &fakeRepo{gate: gate}
	w := NewWriter(repo)

	// 先让 writer 卡在第一次写库上，后面两份在队列里合并
	_ = w.Enqueue(snap(1, 1, 1))
	time.Sleep(20 * time.Millisecond)
	_ = w.Enqueue(snap(1, 3, 3))
	_ = w.Enqueue(snap(1, 2, 2))
	close(gate)

	if err := w.Close(ctxTimeout(t)); err != nil {
		t.Fatalf("Close err=%v", err)
	}
	got := repo.saved()
	if len(got) != 2 {
		t.Fatalf("期望写两次（1 和合并后的 3），实际 %d", len(got))
	}
	if got[1].Version != 3 || got[1].Character.Gold != 3 {
		t.Fatalf("期望最后写入 version=3，实际 %+v", got[1])
	}
}

func TestWriter_写失败后重试(t *testing.T) {
	repo := &fakeRepo{fail: 2}
	w := NewWriter(repo)
	defer w.Close(ctxTimeout(t))

	_ = w.Enqueue(snap(7, w.NextVersion(), 70))
	if err := w.Flush(ctxTimeout(t)); err != nil {
		t.Fatalf("Flush err=%v", err)
	}
	got := repo.saved()
	if len(got) != 1 || got[0].Character.ID != 7 {
		t.Fatalf("期望重试后写入成功，实际 %+v", got)
	}
}

func TestWriter_Close后拒绝入队(t *testing.T) {
	repo := &fakeRepo{}
	w := NewWriter(repo)
	_ = w.Enqueue(snap(1, 1, 1))
	_ = w.Enqueue(snap(2, 2, 2))
	if err := w.Close(ctxTimeout(t)); err != nil {
		t.Fatalf("Close err=%v", err)
	}
	if len(repo.saved()) != 2 {
		t.Fatalf("期望 Close 前排队的都写完，实际 %d", len(repo.saved()))
	}
	if err := w.Enqueue(snap(3, 3, 3)); !errors.Is(err, ErrClosed) {
		t.Fatalf("期望 ErrClosed，实际 %v", err)
	}
	// 重复 Close 不 panic
	if err := w.Close(ctxTimeout(t)); err != nil {
		t.Fatalf("second Close err=%v", err)
	}
}

func TestWriter_FlushRespectsContext(t *testing.T) {
	gate := make(chan struct{})
	repo := &fakeRepo{gate: gate}
	w := NewWriter(repo)

	_ = w.Enqueue(snap(1, 1, 1))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := w.Flush(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("期望 DeadlineExceeded，实际 %v", err)
	}
	close(gate)
	_ = w.Close(ctxTimeout(t))
}
