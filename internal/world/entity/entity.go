package entity

import (
	player "choria/internal/player/entity"
	"choria/internal/shared/transport"
	"choria/internal/world/fighter"
	"choria/internal/world/registry"
)

type Kind uint8

const (
	KindPlayer Kind = iota
	KindMonster
)

type Position struct {
	X, Y int
}

// Entity 注册表里的世界对象。Kind 决定 Player / Monster 哪个字段有效。
type Entity struct {
	ID       registry.ID
	Kind     Kind
	Peer     transport.PeerID
	Position Position
	// MapID 0 表示还没进地图
	MapID   int
	Deleted bool

	Fighter *fighter.Stats
	Player  *player.State
	Monster *Monster
}

// NewConnection 刚连上、还没选角色的玩家对象。
func NewConnection(peer transport.PeerID) *Entity {
	return &Entity{Kind: KindPlayer, Peer: peer}
}

// AttachCharacter 选角后挂上角色状态。
func (e *Entity) AttachCharacter(s *player.State) {
	e.Player = s
	e.Fighter = s.Fighter
}

// InWorld 已选角色。
func (e *Entity) InWorld() bool { return e.Kind == KindPlayer && e.Player != nil }

func (e *Entity) SetObjectID(id registry.ID) { e.ID = id }
func (e *Entity) MarkDeleted()               { e.Deleted = true }
func (e *Entity) IsDeleted() bool            { return e.Deleted }

// Walkable 地图的可走性判断。
type Walkable interface {
	CanMoveTo(x, y int) bool
}

// Step 方向对应的下一格。
func Step(p Position, dir player.Direction) Position {
	switch dir {
	case player.MoveLeft:
		p.X--
	case player.MoveUp:
		p.Y--
	case player.MoveRight:
		p.X++
	case player.MoveDown:
		p.Y++
	}
	return p
}

// Move 只有行走状态、冷却结束、目标可走时才移动。
func (e *Entity) Move(dir player.Direction, m Walkable) bool {
	if !e.InWorld() || dir > player.MoveDown || !e.Player.CanMove() {
		return false
	}
	next := Step(e.Position, dir)
	if !m.CanMoveTo(next.X, next.Y) {
		return false
	}
	e.Position = next
	e.Player.Moved()
	return true
}

// DistanceSq 网格距离平方。
func (e *Entity) DistanceSq(o *Entity) int {
	dx := e.Position.X - o.Position.X
	dy := e.Position.Y - o.Position.Y
	return dx*dx + dy*dy
}

// Invisible 线上 invisible 标志位。
func (e *Entity) Invisible() bool {
	return e.Player != nil && e.Player.IsInvisible()
}

// StatusByte 对象同步里的状态字节。
func (e *Entity) StatusByte() uint8 {
	if e.Player == nil {
		return 0
	}
	return uint8(e.Player.Status)
}
