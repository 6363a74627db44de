package trade

import (
	player "choria/internal/player/entity"
	"choria/internal/shared/logs"
	"choria/internal/shared/protocol"
	"choria/internal/shared/transport"
	"choria/internal/world/entity"
	"choria/internal/world/registry"
	"choria/internal/world/worldmap"

	"go.uber.org/zap"
)

// RequestDistanceSq 发起交易时对方离自己的最大距离平方。
const RequestDistanceSq = 2 * 2

type Directory interface {
	Lookup(id registry.ID) (*entity.Entity, bool)
}

type Maps interface {
	GetMap(id int) (*worldmap.Map, error)
}

// Service 玩家之间的交易。双方都确认后才交换，任何一方改动都会清掉确认。
type Service struct {
	players Directory
	maps    Maps
	sender  transport.Sender
}

func NewService(players Directory, maps Maps, sender transport.Sender) *Service {
	return &Service{players: players, maps: maps, sender: sender}
}

// Partner 正在交易的对方，引用失效时返回 false。
func (s *Service) Partner(e *entity.Entity) (*entity.Entity, bool) {
	id, ok := e.Player.TradePartner()
	if !ok {
		return nil, false
	}
	p, ok := s.players.Lookup(id)
	if !ok || !p.InWorld() || p.IsDeleted() {
		return nil, false
	}
	return p, true
}

// Request 附近有人在等就直接开始，否则自己进入等待。
func (s *Service) Request(e *entity.Entity) {
	st := e.Player
	if st.Status != player.StatusWalk || !st.CanRequestTrade() {
		return
	}
	st.TradeRequestTime = 0

	var partner *entity.Entity
	if m, err := s.maps.GetMap(e.MapID); err == nil {
		if id, ok := m.ClosestPlayer(e, RequestDistanceSq, player.StatusWaitTrade); ok {
			partner, _ = s.players.Lookup(id)
		}
	}
	if partner == nil {
		st.ClearTrade()
		st.Status = player.StatusWaitTrade
		return
	}

	st.TradeGold = 0
	for _, pair := range [][2]*entity.Entity{{e, partner}, {partner, e}} {
		me, other := pair[0], pair[1]
		me.Player.SetTradePartner(other.ID)
		me.Player.TradeAccepted = false
		me.Player.Status = player.StatusTrade

		pkt := protocol.NewPacket(protocol.OpTradeRequest).
			WriteUint8(uint8(other.ID)).
			WriteInt32(int32(other.Player.TradeGold))
		writeBand(pkt, other.Player.Inventory.TradeBand())
		s.sender.Send(me.Peer, pkt)
	}
	logs.Debug("trade started", zap.Uint8("a", uint8(e.ID)), zap.Uint8("b", uint8(partner.ID)))
}

func writeBand(pkt *protocol.Packet, band [player.TradeSlots]player.Slot) {
	for _, slot := range band {
		writeSlot(pkt, slot)
	}
}

func writeSlot(pkt *protocol.Packet, slot player.Slot) {
	pkt.WriteInt32(int32(slot.ItemID()))
	if !slot.Empty() {
		pkt.WriteUint8(uint8(slot.Count))
	}
}

func (s *Service) resetAccepted(a, b *entity.Entity) {
	a.Player.TradeAccepted = false
	b.Player.TradeAccepted = false
}

// InventoryMoved 交易中挪动了交易栏，通知对方两格的新内容。
func (s *Service) InventoryMoved(e *entity.Entity, oldSlot, newSlot int) {
	if e.Player.Status != player.StatusTrade {
		return
	}
	if !player.IsTradeSlot(oldSlot) && !player.IsTradeSlot(newSlot) {
		return
	}
	partner, ok := s.Partner(e)
	if !ok {
		return
	}
	s.resetAccepted(e, partner)

	inv := &e.Player.Inventory
	pkt := protocol.NewPacket(protocol.OpTradeItem)
	writeSlot(pkt, inv[oldSlot])
	pkt.WriteUint8(uint8(oldSlot))
	writeSlot(pkt, inv[newSlot])
	pkt.WriteUint8(uint8(newSlot))
	s.sender.Send(partner.Peer, pkt)
}

// Gold 修改出价，夹到自己的金币内。
func (s *Service) Gold(e *entity.Entity, gold int) {
	st := e.Player
	if st.Status != player.StatusTrade && st.Status != player.StatusWaitTrade {
		return
	}
	st.TradeGold = min(max(gold, 0), st.Gold)
	partner, ok := s.Partner(e)
	if !ok {
		return
	}
	s.resetAccepted(e, partner)
	s.sender.Send(partner.Peer, protocol.NewPacket(protocol.OpTradeGold).WriteInt32(int32(st.TradeGold)))
}

// Accept 双方都确认时原子交换交易栏和金币。
func (s *Service) Accept(e *entity.Entity, accepted bool) {
	if e.Player.Status != player.StatusTrade {
		return
	}
	partner, ok := s.Partner(e)
	if !ok || partner.Player.Status != player.StatusTrade {
		return
	}
	e.Player.TradeAccepted = accepted
	if !e.Player.TradeAccepted || !partner.Player.TradeAccepted {
		s.sender.Send(partner.Peer, protocol.NewPacket(protocol.OpTradeAccept).WriteUint8(boolByte(accepted)))
		return
	}
	s.exchange(e, partner)
}

func boolByte(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}

func (s *Service) exchange(a, b *entity.Entity) {
	pa, pb := a.Player, b.Player
	bandA, bandB := pa.Inventory.TradeBand(), pb.Inventory.TradeBand()
	pa.Inventory.SetTradeBand(bandB)
	pb.Inventory.SetTradeBand(bandA)

	goldA, goldB := pa.TradeGold, pb.TradeGold
	pa.UpdateGold(goldB - goldA)
	pb.UpdateGold(goldA - goldB)

	for _, e := range []*entity.Entity{a, b} {
		st := e.Player
		pkt := protocol.NewPacket(protocol.OpTradeExchange).WriteInt32(int32(st.Gold))
		writeBand(pkt, st.Inventory.TradeBand())
		s.sender.Send(e.Peer, pkt)

		st.Status = player.StatusWalk
		st.ClearTrade()
		st.Inventory.MoveTradeToInventory()
	}
	logs.Info("trade exchanged",
		zap.Uint8("a", uint8(a.ID)), zap.Uint8("b", uint8(b.ID)),
		zap.Int("gold_a", goldA), zap.Int("gold_b", goldB))
}

// Cancel 自己回到行走状态，对方退回等待。
func (s *Service) Cancel(e *entity.Entity) {
	st := e.Player
	if st.Status != player.StatusTrade && st.Status != player.StatusWaitTrade {
		return
	}
	s.dropPartner(e)
	st.Status = player.StatusWalk
	st.ClearTrade()
	st.Inventory.MoveTradeToInventory()
}

// Disconnect 断线时只需要通知对方，自己的对象马上会被删除。
func (s *Service) Disconnect(e *entity.Entity) {
	if !e.InWorld() {
		return
	}
	s.dropPartner(e)
	e.Player.ClearTrade()
	e.Player.Inventory.MoveTradeToInventory()
}

func (s *Service) dropPartner(e *entity.Entity) {
	partner, ok := s.Partner(e)
	if !ok {
		return
	}
	pp := partner.Player
	if id, ok := pp.TradePartner(); !ok || id != e.ID {
		return
	}
	pp.ClearTrade()
	pp.Status = player.StatusWaitTrade
	s.sender.Send(partner.Peer, protocol.NewPacket(protocol.OpTradeCancel))
}
