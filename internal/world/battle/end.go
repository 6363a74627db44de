package battle

import (
	player "choria/internal/player/entity"
	"choria/internal/shared/protocol"
	"choria/internal/world/entity"
	"choria/internal/world/registry"
)

type sideResult struct {
	dead       bool
	fighters   int
	players    int
	monsters   int
	experience int
	gold       int
}

// Result 单个玩家的结算，测试和日志用。
type Result struct {
	PlayerID   registry.ID
	Experience int
	Gold       int
	Items      []int
	LevelUp    bool
}

func (b *Battle) tally() [Sides]sideResult {
	var side [Sides]sideResult
	for s := range side {
		side[s].dead = true
	}
	for i, c := range b.slots {
		f := b.fighter(i)
		if f == nil {
			continue
		}
		s := &side[i&1]
		s.fighters++
		if f.Alive() {
			s.dead = false
		}
		if c.Kind == entity.KindMonster {
			s.monsters++
			s.experience += c.Monster.ExperienceGiven()
			s.gold += c.Monster.GoldGiven()
			continue
		}
		s.players++
		s.gold += int(float32(b.player(c).Player.Gold) * loserGoldPercent)
	}
	return side
}

// checkEnd 任一方全灭或没人时结算。
func (b *Battle) checkEnd() {
	if b.State == StateEnd {
		return
	}
	side := b.tally()
	if !side[0].dead && !side[1].dead {
		return
	}

	// 奖励按对方人数平分，非零时至少 1
	for s := 0; s < Sides; s++ {
		other := &side[1-s]
		if side[s].fighters == 0 {
			continue
		}
		if other.experience > 0 {
			other.experience = max(1, other.experience/side[s].fighters)
		}
		if other.gold > 0 {
			other.gold = max(1, other.gold/side[s].fighters)
		}
	}

	drops := b.rollDrops(side)

	var results []Result
	for i, c := range b.slots {
		e := b.player(c)
		if e == nil {
			continue
		}
		p := e.Player
		mine, theirs := side[i&1], side[1-(i&1)]
		res := Result{PlayerID: c.PlayerID}
		if mine.dead {
			res.Gold = -int(float32(p.Gold) * loserGoldPercent)
			p.Deaths++
		} else {
			res.Experience = theirs.experience
			res.Gold = theirs.gold
			p.PlayerKills += theirs.players
			p.MonsterKills += theirs.monsters
			if !e.Fighter.Alive() {
				e.Fighter.Health = 1
			}
			if i&1 == 0 {
				res.Items = drops[i/2]
			}
		}

		before := p.Level()
		p.UpdateExperience(res.Experience)
		p.UpdateGold(res.Gold)
		if b.deps.Tables != nil {
			p.CalculateStats(b.deps.Tables)
		}
		if p.Level() > before {
			e.Fighter.RestoreHealthMana()
			res.LevelUp = true
		}

		pkt := protocol.NewPacket(protocol.OpBattleEnd).
			WriteBit(side[0].dead).
			WriteBit(side[1].dead).
			WriteUint8(uint8(theirs.players)).
			WriteUint8(uint8(theirs.monsters)).
			WriteInt32(int32(res.Experience)).
			WriteInt32(int32(res.Gold)).
			WriteUint8(uint8(len(res.Items)))
		for _, id := range res.Items {
			pkt.WriteInt32(int32(id))
			if b.deps.Tables != nil {
				p.Inventory.AddItem(b.deps.Tables.Item(id), 1, player.NoSlot)
			}
		}
		if b.deps.Sender != nil {
			b.deps.Sender.Send(e.Peer, pkt)
		}
		results = append(results, res)
	}

	b.results = results
	b.State = StateEnd
}

// Results 结束时每个玩家的结算。
func (b *Battle) Results() []Result { return b.results }

// rollDrops 左方赢了打怪的仗时，每只怪掷一次掉落，从随机一个左方玩家开始轮流分。
func (b *Battle) rollDrops(side [Sides]sideResult) [MaxSeats][]int {
	var out [MaxSeats][]int
	if side[0].dead || b.deps.Tables == nil {
		return out
	}
	var items []int
	var receivers []int
	for i, c := range b.slots {
		if c == nil {
			continue
		}
		if c.Kind == entity.KindMonster {
			if id := c.Monster.Config.RollDrop(b.deps.Rand); id > 0 && b.deps.Tables.Item(id) != nil {
				items = append(items, id)
			}
		} else if i&1 == 0 && b.player(c) != nil {
			receivers = append(receivers, i)
		}
	}
	if len(items) == 0 || len(receivers) == 0 {
		return out
	}
	next := b.deps.Rand.IntN(len(receivers))
	for _, id := range items {
		seat := receivers[next] / 2
		out[seat] = append(out[seat], id)
		next = (next + 1) % len(receivers)
	}
	return out
}

// RemovePlayer 空出槽位，玩家回到行走状态，返回剩余玩家数。
// 剩 0 人时由调用方删除战斗。
func (b *Battle) RemovePlayer(id registry.ID) int {
	slot := b.slotOf(id)
	if slot < 0 {
		return b.playerCount
	}
	if e := b.player(b.slots[slot]); e != nil {
		e.Player.StopBattle(b.deps.Rand)
	}
	b.slots[slot] = nil
	b.playerCount--
	b.checkEnd()
	return b.playerCount
}
