package server

import (
	"context"
	"sync/atomic"
	"time"

	"choria/internal/shared/protocol"
	"choria/internal/shared/transport"
	"choria/internal/world/entity"
	"choria/internal/world/registry"

	"go.uber.org/zap"
)

// Command 控制台和管理接口投给 tick 的指令。
type Command uint8

const (
	CommandStop Command = iota + 1
)

const (
	commandQueueSize      = 16
	snapshotPeriod        = time.Second
	presenceRefreshPeriod = 10 * time.Second
	stopSaveTimeout       = 10 * time.Second
)

// Snapshot 管理接口看到的在线概况，tick 每秒发布一次。
type Snapshot struct {
	Players int `json:"players"`
	Maps    int `json:"maps"`
	Battles int `json:"battles"`
}

type handlerFunc func(ctx context.Context, e *entity.Entity, r *protocol.Reader) error

// Server 单线程模拟：所有游戏状态只在 Run 所在的协程上读写。
type Server struct {
	c        *Context
	handlers map[protocol.Opcode]handlerFunc
	peers    map[transport.PeerID]registry.ID
	commands chan Command
	snapshot atomic.Pointer[Snapshot]

	snapshotAcc   time.Duration
	presenceAcc   time.Duration
	refreshing    atomic.Bool
	stopRequested bool
}

func NewServer(c *Context) *Server {
	s := &Server{
		c:        c,
		handlers: make(map[protocol.Opcode]handlerFunc),
		peers:    make(map[transport.PeerID]registry.ID),
		commands: make(chan Command, commandQueueSize),
	}
	s.routes()
	s.snapshot.Store(&Snapshot{})
	return s
}

func (s *Server) Context() *Context { return s.c }

// Submit 非阻塞投递，队列满时返回 false。
func (s *Server) Submit(cmd Command) bool {
	select {
	case s.commands <- cmd:
		return true
	default:
		return false
	}
}

// Snapshot 可以在任意协程调用。
func (s *Server) Snapshot() Snapshot {
	return *s.snapshot.Load()
}

// Run 阻塞到收到 CommandStop 或 ctx 结束，返回前已同步保存所有在线角色并断开连接。
func (s *Server) Run(ctx context.Context) error {
	tick := s.c.Config.Server.Tick()
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	s.c.Log.Info("server running", zap.Duration("tick", tick))
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			s.stop()
			return nil
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now
			if s.Tick(ctx, dt) {
				s.stop()
				return nil
			}
		}
	}
}

// Tick 推进一帧，返回 true 表示需要停服。
func (s *Server) Tick(ctx context.Context, dt time.Duration) bool {
	// 1. 网络事件
	for {
		ev, ok := s.c.Transport.Poll()
		if !ok {
			break
		}
		s.handleEvent(ev)
	}

	// 2. 控制台指令
	s.drainCommands()

	// 3. 世界
	s.c.Instances.Update(dt)
	s.c.Registry.Update()

	// 4. 玩家计时
	autoSave := s.c.Config.Persistence.AutoSavePeriod()
	s.c.Registry.Each(func(_ registry.ID, e *entity.Entity) bool {
		if !e.InWorld() || e.IsDeleted() {
			return true
		}
		ev := e.Player.Update(dt, autoSave)
		if ev.TeleportDone {
			s.finishTeleport(ctx, e)
		}
		if ev.AutoSave {
			s.save(ctx, e)
		}
		return true
	})

	s.refreshPresence(ctx, dt)
	s.publishSnapshot(dt)
	return s.stopRequested
}

func (s *Server) drainCommands() {
	for {
		select {
		case cmd := <-s.commands:
			switch cmd {
			case CommandStop:
				s.stopRequested = true
			default:
				s.c.Log.Warn("unknown command", zap.Uint8("command", uint8(cmd)))
			}
		default:
			return
		}
	}
}

// refreshPresence 续期放到单独协程，redis 慢的时候不拖住 tick。
func (s *Server) refreshPresence(ctx context.Context, dt time.Duration) {
	s.presenceAcc += dt
	if s.presenceAcc < presenceRefreshPeriod {
		return
	}
	s.presenceAcc = 0
	if !s.refreshing.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer s.refreshing.Store(false)
		if err := s.c.Sessions.RefreshAll(ctx); err != nil {
			s.c.Log.Warn("presence refresh failed", zap.Error(err))
		}
	}()
}

func (s *Server) publishSnapshot(dt time.Duration) {
	s.snapshotAcc += dt
	if s.snapshotAcc < snapshotPeriod {
		return
	}
	s.snapshotAcc = 0
	s.snapshot.Store(s.buildSnapshot())
}

func (s *Server) buildSnapshot() *Snapshot {
	snap := &Snapshot{
		Maps:    s.c.Instances.MapCount(),
		Battles: s.c.Instances.BattleCount(),
	}
	s.c.Registry.Each(func(_ registry.ID, e *entity.Entity) bool {
		if e.InWorld() && !e.IsDeleted() {
			snap.Players++
		}
		return true
	})
	return snap
}

// stop 停服前两步：同步存档，断开所有连接。
// 写库协程、传输层和数据库由 main 按顺序关闭。
func (s *Server) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), stopSaveTimeout)
	defer cancel()

	saved := 0
	s.c.Registry.Each(func(_ registry.ID, e *entity.Entity) bool {
		if !e.InWorld() || e.IsDeleted() {
			return true
		}
		if err := s.c.Characters.SaveNow(ctx, e.Player); err != nil {
			s.c.Log.Error("save on stop failed",
				zap.Int64("character_id", e.Player.ID), zap.Error(err))
			return true
		}
		saved++
		return true
	})

	for peer := range s.peers {
		if _, err := s.c.Sessions.Unbind(ctx, peer); err != nil {
			s.c.Log.Warn("release presence failed", zap.Uint64("peer", uint64(peer)), zap.Error(err))
		}
		s.c.Transport.Disconnect(peer)
	}
	s.c.Log.Info("server stopped", zap.Int("saved", saved), zap.Int("peers", len(s.peers)))
	s.peers = make(map[transport.PeerID]registry.ID)
	s.snapshot.Store(&Snapshot{})
}
