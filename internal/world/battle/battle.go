package battle

import (
	"time"

	"choria/internal/shared/gameconfig"
	"choria/internal/shared/protocol"
	"choria/internal/shared/transport"
	"choria/internal/world/entity"
	"choria/internal/world/fighter"
	"choria/internal/world/registry"
)

type ID uint32

type State uint8

const (
	StateBattle State = iota
	StateEnd
)

const (
	Sides    = 2
	MaxSeats = 3
	MaxSlots = Sides * MaxSeats

	// 怪物在计时过半后决定行动
	monsterThinkPercent = 0.5
	loserGoldPercent    = 0.1
)

// Directory 按 id 找玩家对象。
type Directory interface {
	Lookup(id registry.ID) (*entity.Entity, bool)
}

type Deps struct {
	Players Directory
	Sender  transport.Sender
	Tables  *gameconfig.Tables
	Rand    fighter.Rand
}

// Combatant 名单里的一格。玩家只存 id，怪物归战斗所有。
type Combatant struct {
	Kind     entity.Kind
	PlayerID registry.ID
	Monster  *entity.Monster
}

type Battle struct {
	ID    ID
	State State

	slots        [MaxSlots]*Combatant
	seats        [Sides]int
	playerCount  int
	monsterCount int
	results      []Result

	deps Deps
}

func New(id ID, deps Deps) *Battle {
	return &Battle{ID: id, deps: deps}
}

func (b *Battle) PlayerCount() int  { return b.playerCount }
func (b *Battle) MonsterCount() int { return b.monsterCount }
func (b *Battle) Ended() bool       { return b.State == StateEnd }

// Slot 槽位上的参战者，空洞返回 nil。
func (b *Battle) Slot(slot int) *Combatant {
	if slot < 0 || slot >= MaxSlots {
		return nil
	}
	return b.slots[slot]
}

func (b *Battle) nextSlot(side int) int {
	if side < 0 || side >= Sides || b.seats[side] >= MaxSeats {
		return -1
	}
	slot := side + b.seats[side]*2
	b.seats[side]++
	return slot
}

// AddPlayer 按 side + seat*2 分配槽位，坐满返回 -1。
func (b *Battle) AddPlayer(e *entity.Entity, side int) int {
	if !e.InWorld() {
		return -1
	}
	slot := b.nextSlot(side)
	if slot < 0 {
		return -1
	}
	b.slots[slot] = &Combatant{Kind: entity.KindPlayer, PlayerID: e.ID}
	b.playerCount++
	return slot
}

func (b *Battle) AddMonster(m *entity.Monster, side int) int {
	slot := b.nextSlot(side)
	if slot < 0 {
		return -1
	}
	b.slots[slot] = &Combatant{Kind: entity.KindMonster, Monster: m}
	b.monsterCount++
	return slot
}

func (b *Battle) player(c *Combatant) *entity.Entity {
	if c == nil || c.Kind != entity.KindPlayer || b.deps.Players == nil {
		return nil
	}
	e, ok := b.deps.Players.Lookup(c.PlayerID)
	if !ok || !e.InWorld() {
		return nil
	}
	return e
}

func (b *Battle) fighter(slot int) *fighter.Stats {
	c := b.Slot(slot)
	if c == nil {
		return nil
	}
	if c.Kind == entity.KindMonster {
		return c.Monster.Fighter
	}
	if e := b.player(c); e != nil {
		return e.Fighter
	}
	return nil
}

func (b *Battle) slotOf(id registry.ID) int {
	for i, c := range b.slots {
		if c != nil && c.Kind == entity.KindPlayer && c.PlayerID == id {
			return i
		}
	}
	return -1
}

// aliveOnSide 指定阵营所有活着的槽位。
func (b *Battle) aliveOnSide(side int) []int {
	var out []int
	for i := side; i < MaxSlots; i += 2 {
		if f := b.fighter(i); f != nil && f.Alive() {
			out = append(out, i)
		}
	}
	return out
}

// Start 定下初始计时，玩家进入战斗状态，然后广播名单。
func (b *Battle) Start() {
	r := b.deps.Rand
	for i, c := range b.slots {
		if c == nil {
			continue
		}
		var f *fighter.Stats
		if c.Kind == entity.KindPlayer {
			e := b.player(c)
			if e == nil {
				continue
			}
			e.Player.StartBattle(uint32(b.ID), i)
			f = e.Fighter
		} else {
			f = c.Monster.Fighter
			f.JoinBattle(uint32(b.ID), i)
		}
		f.TurnTimer = time.Duration(r.Float64() * 0.5 * float64(f.TurnTimerMax))
	}
	b.broadcast(b.startPacket())
}

func (b *Battle) startPacket() *protocol.Packet {
	var present []int
	for i := range b.slots {
		if b.fighter(i) != nil {
			present = append(present, i)
		}
	}
	pkt := protocol.NewPacket(protocol.OpWorldStartBattle).WriteUint8(uint8(len(present)))
	for _, i := range present {
		c, f := b.slots[i], b.fighter(i)
		pkt.WriteBit(c.Kind == entity.KindMonster).WriteBit(i&1 == 1).WriteUint8(uint8(i))
		if c.Kind == entity.KindPlayer {
			pkt.WriteUint8(uint8(c.PlayerID)).
				WriteInt32(int32(f.Health)).
				WriteInt32(int32(f.MaxHealth)).
				WriteInt32(int32(f.Mana)).
				WriteInt32(int32(f.MaxMana)).
				WriteFloat32(seconds(f.TurnTimer)).
				WriteFloat32(seconds(f.TurnTimerMax))
			continue
		}
		pkt.WriteInt32(int32(c.Monster.Config.ID)).
			WriteInt32(int32(f.Health)).
			WriteInt32(int32(f.MaxHealth)).
			WriteFloat32(seconds(f.TurnTimerMax))
	}
	return pkt
}

func seconds(d time.Duration) float32 { return float32(d.Seconds()) }

// broadcast 发给名单里所有玩家。
func (b *Battle) broadcast(pkt *protocol.Packet) {
	b.sendWhere(pkt, func(int) bool { return true })
}

func (b *Battle) sendWhere(pkt *protocol.Packet, keep func(slot int) bool) {
	if b.deps.Sender == nil {
		return
	}
	for i, c := range b.slots {
		if !keep(i) {
			continue
		}
		if e := b.player(c); e != nil {
			b.deps.Sender.Send(e.Peer, pkt)
		}
	}
}

// Update 推进计时、跑怪物 AI、按槽位顺序结算到点的行动。
func (b *Battle) Update(dt time.Duration) {
	if b.State == StateEnd {
		return
	}
	for i := range b.slots {
		if f := b.fighter(i); f != nil && f.Alive() {
			f.AdvanceTimer(dt)
		}
	}
	for i, c := range b.slots {
		if c == nil || c.Kind != entity.KindMonster {
			continue
		}
		f := c.Monster.Fighter
		if !f.Alive() || f.HasAction() || f.TimerPercent() < monsterThinkPercent {
			continue
		}
		target := c.Monster.PickTarget(b.deps.Rand, b.aliveOnSide(1-(i&1)))
		if target >= 0 {
			f.QueueAction(0, target)
		}
	}
	for i := range b.slots {
		f := b.fighter(i)
		if f == nil || !f.Alive() || !f.TimerReady() || !f.HasAction() {
			continue
		}
		b.resolve(i)
		if b.State == StateEnd {
			return
		}
	}
}
