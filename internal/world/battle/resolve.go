package battle

import (
	"choria/internal/shared/gameconfig"
	"choria/internal/shared/protocol"
	"choria/internal/world/entity"
	"choria/internal/world/fighter"
	"choria/internal/world/registry"
)

// skillFor 槽位当前要用的技能。怪物固定普攻。
func (b *Battle) skillFor(slot, actionSlot int) (*gameconfig.Skill, int, bool) {
	c := b.Slot(slot)
	if c == nil {
		return nil, 0, false
	}
	if c.Kind == entity.KindMonster {
		if b.deps.Tables == nil {
			return nil, 0, false
		}
		sk := b.deps.Tables.Skill(0)
		return sk, 1, sk != nil
	}
	e := b.player(c)
	if e == nil {
		return nil, 0, false
	}
	return e.Player.ActionSkill(b.deps.Tables, actionSlot)
}

// canUse 法力、药水等前置条件。
func (b *Battle) canUse(slot int, sk *gameconfig.Skill, level int) bool {
	f := b.fighter(slot)
	if f == nil {
		return false
	}
	switch sk.Type {
	case gameconfig.SkillPassive:
		return false
	case gameconfig.SkillSpell:
		return f.Mana >= sk.ManaCostAt(level)
	case gameconfig.SkillUsePotion:
		e := b.player(b.Slot(slot))
		kind, ok := sk.Potion()
		return e != nil && ok && e.Player.PotionForBattle(kind) != -1
	}
	return true
}

// HandleCommand 玩家提交行动。不合法的指令直接忽略。
func (b *Battle) HandleCommand(id registry.ID, actionSlot, target int) bool {
	if b.State == StateEnd {
		return false
	}
	slot := b.slotOf(id)
	f := b.fighter(slot)
	if f == nil || !f.Alive() || f.HasAction() {
		return false
	}
	if actionSlot < 0 || actionSlot >= fighter.ActionBarSize {
		return false
	}
	sk, level, ok := b.skillFor(slot, actionSlot)
	if !ok || !b.canUse(slot, sk, level) {
		return false
	}
	if sk.Type == gameconfig.SkillUsePotion {
		target = slot
	}
	tf := b.fighter(target)
	if tf == nil || !tf.Alive() {
		return false
	}
	sameSide := target&1 == slot&1
	if sk.TargetsAlly() != sameSide {
		return false
	}
	f.QueueAction(actionSlot, target)

	pkt := protocol.NewPacket(protocol.OpBattleCommand).
		WriteUint8(uint8(slot)).
		WriteUint8(uint8(actionSlot)).
		WriteUint8(uint8(target))
	b.sendWhere(pkt, func(s int) bool { return s != slot && s&1 == slot&1 })
	return true
}

// retarget 原目标已倒下时换一个。
func (b *Battle) retarget(slot, target int, ally bool) int {
	if tf := b.fighter(target); tf != nil && tf.Alive() {
		return target
	}
	if ally {
		return slot
	}
	alive := b.aliveOnSide(1 - (slot & 1))
	if len(alive) == 0 {
		return -1
	}
	return alive[b.deps.Rand.IntN(len(alive))]
}

func (b *Battle) resolve(slot int) {
	a := b.fighter(slot)
	act := a.Action
	a.TurnTimer = 0
	a.ClearAction()

	sk, level, ok := b.skillFor(slot, act.Slot)
	if !ok || !b.canUse(slot, sk, level) {
		return
	}
	target := b.retarget(slot, act.Target, sk.TargetsAlly())
	if target < 0 {
		return
	}
	t := b.fighter(target)
	r := b.deps.Rand

	damage := 0
	switch sk.Type {
	case gameconfig.SkillAttack:
		damage = a.GenerateDamage(r) - t.GenerateDefense(r)
	case gameconfig.SkillSpell:
		a.UpdateMana(-sk.ManaCostAt(level))
		power := sk.RollPower(r, level)
		switch sk.Effect {
		case gameconfig.EffectHeal:
			t.UpdateHealth(power)
		case gameconfig.EffectDamage:
			damage = power - t.GenerateDefense(r)
		}
	case gameconfig.SkillUsePotion:
		kind, _ := sk.Potion()
		e := b.player(b.Slot(slot))
		if invSlot, hp, mp, used := e.Player.UsePotionBattle(kind); used {
			a.UpdateHealth(hp)
			a.UpdateMana(mp)
			if b.deps.Sender != nil {
				b.deps.Sender.Send(e.Peer, protocol.NewPacket(protocol.OpInventoryUse).WriteUint8(uint8(invSlot)))
			}
		}
	}
	if damage < 0 {
		damage = 0
	}
	t.UpdateHealth(-damage)

	hp, mp := a.UpdateRegen()
	a.UpdateHealth(hp)
	a.UpdateMana(mp)

	pkt := protocol.NewPacket(protocol.OpBattleUpdate).
		WriteUint8(uint8(slot)).
		WriteUint8(uint8(target)).
		WriteInt32(int32(sk.ID)).
		WriteInt32(int32(damage))
	for _, f := range []*fighter.Stats{a, t} {
		pkt.WriteInt32(int32(f.Health)).
			WriteInt32(int32(f.Mana)).
			WriteFloat32(seconds(f.TurnTimer))
	}
	b.broadcast(pkt)

	b.checkEnd()
}
