package server

import (
	"context"

	player "choria/internal/player/entity"
	"choria/internal/shared/protocol"
	"choria/internal/world/entity"
	"choria/internal/world/worldmap"

	"go.uber.org/zap"
)

func (s *Server) send(e *entity.Entity, pkt *protocol.Packet) {
	s.c.Transport.Send(e.Peer, pkt)
}

func (s *Server) sendHUD(e *entity.Entity) {
	st, f := e.Player, e.Fighter
	s.send(e, protocol.NewPacket(protocol.OpWorldHUD).
		WriteInt32(int32(st.Experience)).
		WriteInt32(int32(st.Gold)).
		WriteInt32(int32(f.Health)).
		WriteInt32(int32(f.Mana)).
		WriteFloat32(f.HealthAccumulator).
		WriteFloat32(f.ManaAccumulator))
}

func (s *Server) sendPosition(e *entity.Entity) {
	s.send(e, protocol.NewPacket(protocol.OpWorldPosition).
		WriteUint8(uint8(e.Position.X)).
		WriteUint8(uint8(e.Position.Y)))
}

func (s *Server) sendCharacterList(e *entity.Entity, list []player.Character) {
	pkt := protocol.NewPacket(protocol.OpCharactersList).WriteUint8(uint8(len(list)))
	for _, c := range list {
		pkt.WriteString(c.Name).
			WriteInt32(int32(c.PortraitID)).
			WriteInt32(int32(c.Experience))
	}
	s.send(e, pkt)
}

// sendCharacterInfo 选角后的完整角色数据。
func (s *Server) sendCharacterInfo(e *entity.Entity) {
	st := e.Player
	pkt := protocol.NewPacket(protocol.OpWorldYourCharacterInfo).
		WriteUint8(uint8(e.ID)).
		WriteString(st.Name).
		WriteInt32(int32(st.PortraitID)).
		WriteInt32(int32(st.Experience)).
		WriteInt32(int32(st.Gold)).
		WriteInt32(int32(st.PlayTime)).
		WriteInt32(int32(st.Deaths)).
		WriteInt32(int32(st.MonsterKills)).
		WriteInt32(int32(st.PlayerKills)).
		WriteInt32(int32(st.Bounty))

	items := 0
	for _, slot := range st.Inventory {
		if !slot.Empty() {
			items++
		}
	}
	pkt.WriteUint8(uint8(items))
	for i, slot := range st.Inventory {
		if slot.Empty() {
			continue
		}
		pkt.WriteUint8(uint8(i)).
			WriteUint8(uint8(slot.Count)).
			WriteInt32(int32(slot.Item.ID))
	}

	skills := 0
	for _, level := range st.Skills {
		if level > 0 {
			skills++
		}
	}
	pkt.WriteUint8(uint8(skills))
	for id, level := range st.Skills {
		if level > 0 {
			pkt.WriteInt32(int32(level)).WriteUint8(uint8(id))
		}
	}

	for _, id := range st.ActionBar {
		pkt.WriteInt8(int8(id))
	}
	s.send(e, pkt)
}

func (s *Server) sendEventStart(e *entity.Entity, tile *worldmap.Tile) {
	s.send(e, protocol.NewPacket(protocol.OpEventStart).
		WriteUint8(uint8(tile.EventType)).
		WriteInt32(int32(tile.EventData)).
		WriteUint8(uint8(e.Position.X)).
		WriteUint8(uint8(e.Position.Y)))
}

func (s *Server) sendInventoryUpdate(e *entity.Entity, slot int) {
	it := e.Player.Inventory[slot]
	s.send(e, protocol.NewPacket(protocol.OpInventoryUpdate).
		WriteUint8(uint8(slot)).
		WriteUint8(uint8(it.Count)).
		WriteInt32(int32(it.ItemID())))
}

// save 异步存档，失败只记日志。
func (s *Server) save(ctx context.Context, e *entity.Entity) {
	if err := s.c.Characters.Save(ctx, e.Player); err != nil {
		s.c.Log.WithContext(ctx).Error("character save failed",
			zap.Int64("character_id", e.Player.ID), zap.Error(err))
	}
}

// spawn 进入 mapID 上 (typ, data) 标记的位置；换图时先离开旧图再发整张图的对象。
func (s *Server) spawn(e *entity.Entity, mapID int, typ worldmap.EventType, data int) error {
	next, err := s.c.Instances.GetMap(mapID)
	if err != nil {
		return err
	}
	var prev *worldmap.Map
	if e.MapID != 0 {
		prev, _ = s.c.Instances.GetMap(e.MapID)
	}
	if prev != nil && prev != next {
		prev.RemoveObject(e)
	}

	if ev, ok := next.IndexedEvent(typ, data); ok {
		e.Position = entity.Position{X: ev.X, Y: ev.Y}
		s.sendPosition(e)
	}
	e.Player.Status = player.StatusWalk

	if prev == next {
		return nil
	}
	next.AddObject(e)
	objs := make([]*entity.Entity, 0, len(next.Objects()))
	for _, id := range next.Objects() {
		if o, ok := s.c.Registry.Lookup(id); ok {
			objs = append(objs, o)
		}
	}
	pkt := protocol.NewPacket(protocol.OpWorldChangeMaps).
		WriteInt32(int32(mapID)).
		WriteInt32(int32(len(objs)))
	for _, o := range objs {
		worldmap.WriteObject(pkt, o)
	}
	s.send(e, pkt)
	return nil
}
