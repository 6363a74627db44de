package dc

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"choria/internal/player/app/port"
	"choria/internal/player/entity"
	"choria/internal/shared/logs"

	"go.uber.org/zap"
)

const retryDelay = 200 * time.Millisecond

var ErrClosed = errors.New("dc: writer closed")

// Writer 角色存档的异步写库。
// tick 协程只负责拷贝快照并 Enqueue，真正的写库在单独的 writer 协程里按角色合并：
// 同一角色只保留 version 最大的一份，写失败整份重排，等新快照覆盖或重试成功。
type Writer struct {
	repo    port.CharacterRepository
	version atomic.Uint64

	mu      sync.Mutex
	pending map[int64]*entity.CharacterSnapshot
	// 已经取出、正在写的快照数
	inflight int
	waiters  []chan struct{}
	closed  bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

func NewWriter(repo port.CharacterRepository) *Writer {
	w := &Writer{
		repo:    repo,
		pending: make(map[int64]*entity.CharacterSnapshot),
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.writerLoop()
	return w
}

// NextVersion 单调递增，tick 协程拍快照时取。
func (w *Writer) NextVersion() uint64 {
	return w.version.Add(1)
}

// Enqueue 关闭后返回 ErrClosed，调用方应改为同步保存。
func (w *Writer) Enqueue(s *entity.CharacterSnapshot) error {
	if s == nil {
		return nil
	}
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	w.putLocked(s)
	w.mu.Unlock()
	w.notify()
	return nil
}

// Save 拍快照并入队。
func (w *Writer) Save(st *entity.State) error {
	return w.Enqueue(st.Snapshot(w.NextVersion()))
}

// Pending 还没写进库的角色数。
func (w *Writer) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending) + w.inflight
}

// Flush 阻塞到当前排队的快照都写完；读角色前调用，避免读到旧数据。
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	if len(w.pending) == 0 && w.inflight == 0 {
		w.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	w.waiters = append(w.waiters, ch)
	w.mu.Unlock()
	w.notify()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close 不再接收新快照，等 writer 把剩下的写完。
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.stop)
	}
	w.mu.Unlock()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Writer) putLocked(s *entity.CharacterSnapshot) {
	id := s.Character.ID
	if old, ok := w.pending[id]; !ok || old.Version < s.Version {
		w.pending[id] = s
	}
}

func (w *Writer) notify() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Writer) writerLoop() {
	defer close(w.done)

	for {
		select {
		case <-w.wake:
			w.consumePending()
		case <-w.stop:
			w.drain()
			return
		}
	}
}

// drain 关闭时调用，写失败继续重试，直到 Close 的 ctx 放弃等待。
func (w *Writer) drain() {
	for !w.consumePending() {
		time.Sleep(retryDelay)
	}
}

// consumePending 返回 true 表示队列已经清空。
func (w *Writer) consumePending() bool {
	for {
		s := w.popPending()
		if s == nil {
			w.releaseWaiters()
			return true
		}
		if err := w.repo.Save(context.Background(), s); err != nil {
			logs.Error("character save failed",
				zap.Int64("character_id", s.Character.ID),
				zap.Uint64("version", s.Version),
				zap.Error(err))
			// 写库失败时重排当前快照；若已有更新快照，会被更高 version 覆盖。
			w.requeue(s)
			select {
			case <-w.stop:
				return false
			case <-time.After(retryDelay):
			}
			continue
		}
		w.mu.Lock()
		w.inflight--
		w.mu.Unlock()
	}
}

func (w *Writer) popPending() *entity.CharacterSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	for id, s := range w.pending {
		delete(w.pending, id)
		w.inflight++
		return s
	}
	return nil
}

func (w *Writer) requeue(s *entity.CharacterSnapshot) {
	w.mu.Lock()
	w.inflight--
	w.putLocked(s)
	w.mu.Unlock()
}

func (w *Writer) releaseWaiters() {
	w.mu.Lock()
	if len(w.pending) > 0 || w.inflight > 0 {
		w.mu.Unlock()
		return
	}
	waiters := w.waiters
	w.waiters = nil
	w.mu.Unlock()
	for _, ch := range waiters {
		close(ch)
	}
}
