package server

import (
	"context"

	player "choria/internal/player/entity"
	"choria/internal/shared/protocol"
	"choria/internal/world/battle"
	"choria/internal/world/entity"
	"choria/internal/world/worldmap"
)

const (
	// 遇怪时拉进战斗的队友范围和人数
	partyDistanceSq = 7 * 7
	maxPartyJoin    = 2
	// 1.5 格以内，网格距离平方取整
	attackDistanceSq = 2
	maxChatLength    = 100
)

func (s *Server) currentMap(e *entity.Entity) (*worldmap.Map, error) {
	if e.MapID == 0 {
		return nil, ignore("no_map")
	}
	return s.c.Instances.GetMap(e.MapID)
}

func (s *Server) handleMove(ctx context.Context, e *entity.Entity, r *protocol.Reader) error {
	dir := player.Direction(r.ReadUint8())
	if err := r.Err(); err != nil {
		return err
	}
	m, err := s.currentMap(e)
	if err != nil {
		return err
	}
	if !e.Move(dir, m) {
		return nil
	}

	st := e.Player
	tile := m.Tile(e.Position.X, e.Position.Y)
	switch tile.EventType {
	case worldmap.EventSpawn:
		st.SpawnMapID = e.MapID
		st.SpawnPoint = tile.EventData
		e.Fighter.RestoreHealthMana()
		s.sendHUD(e)
		s.save(ctx, e)
	case worldmap.EventMapChange:
		st.GenerateNextBattle(s.c.Rand)
		return s.spawn(e, tile.EventData, worldmap.EventMapChange, e.MapID)
	case worldmap.EventVendor:
		v := s.c.Tables.Vendor(tile.EventData)
		if v == nil {
			return nil
		}
		st.Status = player.StatusVendor
		st.Vendor = v
		s.sendEventStart(e, tile)
	case worldmap.EventTrader:
		t := s.c.Tables.Trader(tile.EventData)
		if t == nil {
			return nil
		}
		st.Status = player.StatusTrader
		st.Trader = t
		s.sendEventStart(e, tile)
	case worldmap.EventBlacksmith:
		st.Status = player.StatusBusy
		st.Blacksmith = true
		s.sendEventStart(e, tile)
	default:
		if st.NextBattle <= 0 {
			s.startEncounter(e, m, tile.Zone)
		}
	}
	return nil
}

// startEncounter 按区域刷怪，附近空闲的队友一起进战斗。
func (s *Server) startEncounter(e *entity.Entity, m *worldmap.Map, zoneID int) {
	zone := s.c.Tables.Zone(zoneID)
	if zone == nil {
		return
	}
	ids := zone.Roll(s.c.Rand)
	if len(ids) == 0 {
		return
	}

	b := s.c.Instances.CreateBattle()
	s.joinBattle(b, e, 0)
	joined := 0
	for _, id := range m.ClosePlayers(e, partyDistanceSq) {
		o, ok := s.c.Registry.Lookup(id)
		if !ok || o.Player.Status != player.StatusWalk || o.Invisible() {
			continue
		}
		s.sendPosition(o)
		s.joinBattle(b, o, 0)
		joined++
		if joined == maxPartyJoin {
			break
		}
	}
	for _, id := range ids {
		if cfg := s.c.Tables.Monster(id); cfg != nil {
			b.AddMonster(entity.NewMonster(cfg), 1)
		}
	}
	b.Start()
}

// joinBattle 进战斗前先结束交易，交易栏退回背包。
func (s *Server) joinBattle(b *battle.Battle, e *entity.Entity, side int) {
	s.c.Trades.Cancel(e)
	b.AddPlayer(e, side)
}

func (s *Server) handleEventEnd(_ context.Context, e *entity.Entity, _ *protocol.Reader) error {
	e.Player.ClearEvent()
	return nil
}

func (s *Server) handleBusy(_ context.Context, e *entity.Entity, r *protocol.Reader) error {
	busy := r.ReadBit()
	if err := r.Err(); err != nil {
		return err
	}
	st := e.Player
	switch {
	case busy && st.Status == player.StatusWalk:
		st.Status = player.StatusBusy
	case !busy && st.Status == player.StatusBusy:
		st.ClearEvent()
	}
	return nil
}

func (s *Server) handleAttackPlayer(_ context.Context, e *entity.Entity, _ *protocol.Reader) error {
	st := e.Player
	if !st.CanAttackPlayer() {
		return ignore("attack_cooldown")
	}
	m, err := s.currentMap(e)
	if err != nil {
		return err
	}
	if !m.Tile(e.Position.X, e.Position.Y).PVP {
		return ignore("not_pvp_tile")
	}
	st.AttackTime = 0

	for _, id := range m.ClosePlayers(e, attackDistanceSq) {
		victim, ok := s.c.Registry.Lookup(id)
		if !ok || victim.Player.Status != player.StatusWalk {
			continue
		}
		b := s.c.Instances.CreateBattle()
		s.joinBattle(b, e, 1)
		s.joinBattle(b, victim, 0)
		b.Start()
		break
	}
	return nil
}

// handleTeleport 再发一次取消。
func (s *Server) handleTeleport(_ context.Context, e *entity.Entity, _ *protocol.Reader) error {
	st := e.Player
	if st.Status != player.StatusWalk && st.Status != player.StatusTeleport {
		return ignore("busy")
	}
	st.StartTeleport()
	if st.Status == player.StatusTeleport {
		s.send(e, protocol.NewPacket(protocol.OpWorldTeleportStart).
			WriteFloat32(float32(player.TeleportTime.Seconds())))
	}
	return nil
}

// finishTeleport 倒计时结束：回满并传回复活点。
func (s *Server) finishTeleport(ctx context.Context, e *entity.Entity) {
	e.Fighter.RestoreHealthMana()
	if err := s.spawn(e, e.Player.SpawnMapID, worldmap.EventSpawn, e.Player.SpawnPoint); err != nil {
		s.report(ctx, e.Peer, protocol.OpWorldTeleport.String(), err)
		return
	}
	s.sendHUD(e)
	s.save(ctx, e)
}

func (s *Server) handleChat(_ context.Context, e *entity.Entity, r *protocol.Reader) error {
	msg := r.ReadString(maxWireString)
	if err := r.Err(); err != nil {
		return err
	}
	if len(msg) > maxChatLength {
		msg = msg[:maxChatLength]
	}
	m, err := s.currentMap(e)
	if err != nil {
		return err
	}
	m.SendToPlayers(protocol.NewPacket(protocol.OpChatMessage).
		WriteUint8(uint8(e.ID)).
		WriteString(msg), e.ID)
	return nil
}

func (s *Server) handleBattleCommand(_ context.Context, e *entity.Entity, r *protocol.Reader) error {
	actionSlot := int(r.ReadUint8())
	target := int(r.ReadUint8())
	if err := r.Err(); err != nil {
		return err
	}
	b, ok := s.battleOf(e)
	if !ok {
		return ignore("not_in_battle")
	}
	if !b.HandleCommand(e.ID, actionSlot, target) {
		return ignore("command_rejected")
	}
	return nil
}

// handleBattleClientDone 客户端看完结算，离开战斗；死亡的回复活点。
func (s *Server) handleBattleClientDone(ctx context.Context, e *entity.Entity, _ *protocol.Reader) error {
	b, ok := s.battleOf(e)
	if !ok {
		return ignore("not_in_battle")
	}
	if !b.Ended() {
		return ignore("battle_running")
	}
	if b.RemovePlayer(e.ID) == 0 {
		s.c.Instances.DeleteBattle(b.ID)
	}

	if !e.Fighter.Alive() {
		e.Fighter.RestoreHealthMana()
		if err := s.spawn(e, e.Player.SpawnMapID, worldmap.EventSpawn, e.Player.SpawnPoint); err != nil {
			return err
		}
		s.save(ctx, e)
	}
	s.sendHUD(e)
	return nil
}

func (s *Server) battleOf(e *entity.Entity) (*battle.Battle, bool) {
	if !e.Fighter.InBattle() {
		return nil, false
	}
	return s.c.Instances.Battle(battle.ID(e.Fighter.BattleID))
}
