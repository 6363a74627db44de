package server

import (
	"context"
	"errors"
	"runtime/debug"

	"choria/internal/shared/protocol"
	"choria/internal/shared/transport"
	"choria/internal/world/battle"
	"choria/internal/world/entity"
	"choria/modules/kit/errx"
	"choria/modules/kit/logx"

	"go.uber.org/zap"
)

// ignore 语义不合法的包：不回包，只记访问日志。
func ignore(reason string) error {
	return errx.ErrInvalidParam.WithData("reason", reason)
}

func (s *Server) routes() {
	s.handlers[protocol.OpAccountLoginInfo] = s.handleLoginInfo
	s.handlers[protocol.OpCharactersRequest] = s.handleCharactersRequest
	s.handlers[protocol.OpCharactersPlay] = s.handleCharactersPlay
	s.handlers[protocol.OpCharactersDelete] = s.handleCharactersDelete
	s.handlers[protocol.OpCreateCharacterInfo] = s.handleCreateCharacter

	s.handlers[protocol.OpWorldMoveCommand] = inWorld(s.handleMove)
	s.handlers[protocol.OpWorldBusy] = inWorld(s.handleBusy)
	s.handlers[protocol.OpWorldAttackPlayer] = inWorld(s.handleAttackPlayer)
	s.handlers[protocol.OpWorldTeleport] = inWorld(s.handleTeleport)
	s.handlers[protocol.OpEventEnd] = inWorld(s.handleEventEnd)
	s.handlers[protocol.OpChatMessage] = inWorld(s.handleChat)

	s.handlers[protocol.OpBattleCommand] = inWorld(s.handleBattleCommand)
	s.handlers[protocol.OpBattleClientDone] = inWorld(s.handleBattleClientDone)

	s.handlers[protocol.OpInventoryMove] = inWorld(s.handleInventoryMove)
	s.handlers[protocol.OpInventoryUse] = inWorld(s.handleInventoryUse)
	s.handlers[protocol.OpInventorySplit] = inWorld(s.handleInventorySplit)
	s.handlers[protocol.OpVendorExchange] = inWorld(s.handleVendorExchange)
	s.handlers[protocol.OpTraderAccept] = inWorld(s.handleTraderAccept)
	s.handlers[protocol.OpBlacksmithUpgrade] = inWorld(s.handleBlacksmithUpgrade)
	s.handlers[protocol.OpSkillsSkillBar] = inWorld(s.handleSkillBar)
	s.handlers[protocol.OpSkillsSkillAdjust] = inWorld(s.handleSkillAdjust)

	s.handlers[protocol.OpTradeRequest] = inWorld(s.handleTradeRequest)
	s.handlers[protocol.OpTradeCancel] = inWorld(s.handleTradeCancel)
	s.handlers[protocol.OpTradeGold] = inWorld(s.handleTradeGold)
	s.handlers[protocol.OpTradeAccept] = inWorld(s.handleTradeAccept)
}

// inWorld 没选角色之前世界指令一律忽略。
func inWorld(h handlerFunc) handlerFunc {
	return func(ctx context.Context, e *entity.Entity, r *protocol.Reader) error {
		if !e.InWorld() {
			return ignore("not_in_world")
		}
		return h(ctx, e, r)
	}
}

func (s *Server) handleEvent(ev transport.Event) {
	switch ev.Type {
	case transport.EventConnect:
		s.connect(ev)
	case transport.EventDisconnect:
		s.disconnect(ev.Peer)
	case transport.EventReceive:
		s.dispatch(ev)
	}
}

func (s *Server) connect(ev transport.Event) {
	e := entity.NewConnection(ev.Peer)
	id, err := s.c.Registry.Register(e)
	if err != nil {
		s.c.Log.Warn("object pool exhausted, refusing peer",
			zap.Uint64("peer", uint64(ev.Peer)), zap.String("addr", ev.Addr), zap.Error(err))
		s.c.Transport.Disconnect(ev.Peer)
		return
	}
	s.peers[ev.Peer] = id
	s.c.Transport.Send(ev.Peer, protocol.NewPacket(protocol.OpVersion).WriteString(s.c.Config.Server.Version))
	s.c.Log.Info("peer connected",
		zap.Uint64("peer", uint64(ev.Peer)), zap.String("addr", ev.Addr), zap.Uint8("object_id", uint8(id)))
}

// disconnect 顺序：交易、战斗、存档、删除对象、释放在线标记。
func (s *Server) disconnect(peer transport.PeerID) {
	id, ok := s.peers[peer]
	if !ok {
		return
	}
	delete(s.peers, peer)
	ctx := transport.NewContext("DISCONNECT", peer)

	if e, ok := s.c.Registry.Lookup(id); ok {
		if e.InWorld() {
			s.c.Trades.Disconnect(e)
			s.leaveBattle(e)
			s.save(ctx, e)
		}
		s.c.Registry.Delete(id)
	}
	if _, err := s.c.Sessions.Unbind(ctx, peer); err != nil {
		s.c.Log.WithContext(ctx).Warn("release presence failed", zap.Error(err))
	}
	s.c.Log.WithContext(ctx).Info("peer disconnected", zap.Uint8("object_id", uint8(id)))
}

// leaveBattle 战斗里没人了就删掉。
func (s *Server) leaveBattle(e *entity.Entity) {
	if !e.Fighter.InBattle() {
		return
	}
	b, ok := s.c.Instances.Battle(battle.ID(e.Fighter.BattleID))
	if !ok {
		e.Fighter.LeaveBattle()
		return
	}
	if b.RemovePlayer(e.ID) == 0 {
		s.c.Instances.DeleteBattle(b.ID)
	}
}

func (s *Server) dispatch(ev transport.Event) {
	r := protocol.NewReader(ev.Data)
	op := r.Opcode()
	ctx := transport.NewContext(op.String(), ev.Peer)
	defer transport.WriteAccessLog(ctx, s.c.Log)

	if accountID, ok := s.c.Sessions.Account(ev.Peer); ok {
		transport.SetAccount(ctx, accountID)
	}
	if err := r.Err(); err != nil {
		s.report(ctx, ev.Peer, op.String(), err)
		return
	}
	id, ok := s.peers[ev.Peer]
	if !ok {
		transport.SetBizCode(ctx, transport.Ignored)
		return
	}
	e, ok := s.c.Registry.Lookup(id)
	h := s.handlers[op]
	if !ok || e.IsDeleted() || h == nil {
		transport.SetBizCode(ctx, transport.Ignored)
		transport.SetErrorReason(ctx, "no_handler")
		return
	}

	defer func() {
		if p := recover(); p != nil {
			transport.SetBizCode(ctx, transport.SystemError)
			transport.SetErrorReason(ctx, "panic")
			s.c.Log.WithContext(ctx).Error("handler panic, disconnecting",
				zap.String("opcode", op.String()),
				zap.Any("panic", p),
				zap.String("stack", string(debug.Stack())))
			s.c.Transport.Disconnect(ev.Peer)
		}
	}()
	s.report(ctx, ev.Peer, op.String(), h(ctx, e, r))
}

// report 把 handler 的错误归到访问日志的四类结果里。
func (s *Server) report(ctx context.Context, peer transport.PeerID, action string, err error) {
	if err == nil {
		return
	}
	if errors.Is(err, protocol.ErrFraming) {
		transport.SetBizCode(ctx, transport.Framing)
		transport.SetErrorReason(ctx, err.Error())
		s.c.Log.WithContext(ctx).Warn("malformed packet, disconnecting", zap.Error(err))
		s.c.Transport.Disconnect(peer)
		return
	}
	if xe, ok := errx.As(err); ok && xe.IsBiz() {
		transport.SetBizCode(ctx, transport.Ignored)
		reason := xe.Reason()
		if reason == "" {
			reason = xe.CodeText()
		}
		transport.SetErrorReason(ctx, reason)
		return
	}
	transport.SetBizCode(ctx, transport.SystemError)
	transport.SetErrorReason(ctx, string(errx.CodeOf(err)))
	logx.ReportSysErrorWithLoggerContext(ctx, s.c.Log, logx.NewSysLog(action, err))
}

// reject 业务拒绝并已回包，访问日志记 rejected。
func reject(ctx context.Context, reason string) {
	transport.SetBizCode(ctx, transport.Rejected)
	transport.SetErrorReason(ctx, reason)
}
