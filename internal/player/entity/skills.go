package entity

import "choria/internal/shared/gameconfig"

// AdjustSkillLevel spend 用技能点升一级，否则花金币降一级。降到 0 时从快捷栏移除。
func (s *State) AdjustSkillLevel(t *gameconfig.Tables, skillID int, spend bool) bool {
	if skillID < 0 || skillID >= SkillCount {
		return false
	}
	sk := t.Skill(skillID)
	if sk == nil {
		return false
	}
	if spend {
		if sk.SkillCost > s.SkillPointsRemaining() || s.Skills[skillID] >= MaxSkillLevel {
			return false
		}
		s.Skills[skillID]++
	} else {
		cost := sk.SellCost(s.Level())
		if cost > s.Gold || s.Skills[skillID] <= 0 {
			return false
		}
		s.UpdateGold(-cost)
		s.Skills[skillID]--
		if s.Skills[skillID] == 0 {
			for i, id := range s.ActionBar {
				if id == skillID {
					s.ActionBar[i] = -1
					break
				}
			}
		}
	}
	s.SkillPointsUsed = s.calculateSkillPointsUsed(t)
	return true
}

// SetActionBar 只接受已学会的技能，-1 清空该格。
func (s *State) SetActionBar(t *gameconfig.Tables, slot, skillID int) bool {
	if slot < 0 || slot >= len(s.ActionBar) {
		return false
	}
	if skillID == -1 {
		s.ActionBar[slot] = -1
		return true
	}
	if s.skillOnBar(t, skillID) == nil {
		return false
	}
	s.ActionBar[slot] = skillID
	return true
}

// ActionSkill 快捷栏某格的技能和等级。
func (s *State) ActionSkill(t *gameconfig.Tables, slot int) (*gameconfig.Skill, int, bool) {
	if slot < 0 || slot >= len(s.ActionBar) {
		return nil, 0, false
	}
	id := s.ActionBar[slot]
	sk := s.skillOnBar(t, id)
	if sk == nil {
		return nil, 0, false
	}
	return sk, s.Skills[id], true
}

// PotionForBattle 本场还能喝且背包里有货时返回格子。
func (s *State) PotionForBattle(kind gameconfig.PotionKind) int {
	if s.PotionsLeft[kind] <= 0 {
		return NoSlot
	}
	return s.Inventory.FindPotion(kind)
}

// UsePotionBattle 战斗中喝药，返回恢复量。
func (s *State) UsePotionBattle(kind gameconfig.PotionKind) (slot, health, mana int, ok bool) {
	slot = s.PotionForBattle(kind)
	if slot == NoSlot {
		return NoSlot, 0, 0, false
	}
	item := s.Inventory[slot].Item
	s.PotionsLeft[kind]--
	s.Inventory.UpdateInventory(slot, -1)
	return slot, item.HealthRestore, item.ManaRestore, true
}

// UsePotionWorld 世界里喝药，只认装备格和背包。满血不喝红药，满蓝不喝蓝药，隐身药随时可喝。
func (s *State) UsePotionWorld(slot int) bool {
	if IsTradeSlot(slot) || !validSlot(slot) || s.Inventory[slot].Empty() {
		return false
	}
	item := s.Inventory[slot].Item
	f := s.Fighter
	needed := (item.IsHealthPotion() && f.Health < f.MaxHealth) ||
		(item.IsManaPotion() && f.Mana < f.MaxMana) ||
		item.IsInvisPotion()
	if !needed {
		return false
	}
	f.UpdateHealth(item.HealthRestore)
	f.UpdateMana(item.ManaRestore)
	if item.InvisPower > 0 {
		s.InvisPower = item.InvisPower
	}
	s.Inventory.UpdateInventory(slot, -1)
	return true
}
