package entity

import (
	"math"

	"choria/internal/shared/gameconfig"
)

// CalculateStats 按 等级 → 装备 → 技能 → 汇总 重新计算全部派生属性。
// 会把当前生命法力夹到新上限内；升级回满由调用方决定。
func (s *State) CalculateStats(t *gameconfig.Tables) {
	f := s.Fighter
	f.MaxHealth, f.MaxMana = 0, 0
	f.HealthRegen, f.ManaRegen = 0, 0
	f.MinDamage, f.MaxDamage = 0, 0
	f.MinDefense, f.MaxDefense = 0, 0
	s.WeaponDamageModifier = 1
	s.MinDamageBonus, s.MaxDamageBonus = 0, 0
	s.MinDefenseBonus, s.MaxDefenseBonus = 0, 0
	s.MaxPotions = [2]int{}

	s.calculateLevelStats(t)
	weaponMin, weaponMax, armorMin, armorMax := s.calculateGearStats()
	s.calculateSkillStats(t)

	f.Level = s.Level()
	f.Name = s.Name
	f.MinDamage = max(0, s.MinDamageBonus+int(math.Round(float64(float32(weaponMin)*s.WeaponDamageModifier))))
	f.MaxDamage = max(0, s.MaxDamageBonus+int(math.Round(float64(float32(weaponMax)*s.WeaponDamageModifier))))
	f.MinDefense = max(0, armorMin+s.MinDefenseBonus)
	f.MaxDefense = max(0, armorMax+s.MaxDefenseBonus)
	f.MaxHealth = max(0, f.MaxHealth)
	f.MaxMana = max(0, f.MaxMana)

	f.UpdateHealth(0)
	f.UpdateMana(0)
}

func (s *State) calculateLevelStats(t *gameconfig.Tables) {
	top := t.MaxLevel()
	if s.Experience > top.Experience {
		s.Experience = top.Experience
	}
	if s.Experience < 0 {
		s.Experience = 0
	}
	lv := t.FindLevel(s.Experience)
	s.LevelInfo = lv
	s.Fighter.MaxHealth = lv.Health
	s.Fighter.MaxMana = lv.Mana
	s.SkillPoints = lv.SkillPoints
	s.ExperienceNeeded = 0
	if lv.NextLevel > 0 {
		s.ExperienceNeeded = lv.Experience + lv.NextLevel - s.Experience
	}
	s.SkillPointsUsed = s.calculateSkillPointsUsed(t)
}

func (s *State) calculateGearStats() (weaponMin, weaponMax, armorMin, armorMax int) {
	if s.Inventory[SlotHand1].Empty() {
		weaponMin, weaponMax = 1, 1
	}
	f := s.Fighter
	for i := SlotHead; i < SlotBackpack; i++ {
		item := s.Inventory[i].Item
		if item == nil {
			continue
		}
		dmin, dmax := item.DamageSpan()
		weaponMin += dmin
		weaponMax += dmax
		amin, amax := item.DefenseSpan()
		armorMin += amin
		armorMax += amax
		f.MaxHealth += item.MaxHealth
		f.MaxMana += item.MaxMana
		f.HealthRegen += item.HealthRegen
		f.ManaRegen += item.ManaRegen
	}
	return weaponMin, weaponMax, armorMin, armorMax
}

// calculateSkillStats 只统计快捷栏上的技能。
func (s *State) calculateSkillStats(t *gameconfig.Tables) {
	f := s.Fighter
	for _, id := range s.ActionBar {
		sk := s.skillOnBar(t, id)
		if sk == nil {
			continue
		}
		level := s.Skills[id]
		switch sk.Effect {
		case gameconfig.EffectWeaponMod:
			_, hi := sk.PowerSpanFloat(level)
			s.WeaponDamageModifier = hi
		case gameconfig.EffectHealthPotion:
			lo, _ := sk.PowerSpan(level)
			s.MaxPotions[gameconfig.PotionHealth] = lo
		case gameconfig.EffectManaPotion:
			lo, _ := sk.PowerSpan(level)
			s.MaxPotions[gameconfig.PotionMana] = lo
		case gameconfig.EffectMaxHealth:
			_, hi := sk.PowerSpanRound(level)
			f.MaxHealth += hi
		case gameconfig.EffectMaxMana:
			_, hi := sk.PowerSpanRound(level)
			f.MaxMana += hi
		case gameconfig.EffectHealthRegen:
			_, hi := sk.PowerSpanFloat(level)
			f.HealthRegen += hi
		case gameconfig.EffectManaRegen:
			_, hi := sk.PowerSpanFloat(level)
			f.ManaRegen += hi
		case gameconfig.EffectDamageBonus:
			_, hi := sk.PowerSpan(level)
			s.MinDamageBonus += hi
			s.MaxDamageBonus += hi
		case gameconfig.EffectDefenseBonus:
			_, hi := sk.PowerSpan(level)
			s.MaxDefenseBonus += hi
		}
	}
}

func (s *State) skillOnBar(t *gameconfig.Tables, id int) *gameconfig.Skill {
	if id < 0 || id >= SkillCount || s.Skills[id] <= 0 {
		return nil
	}
	return t.Skill(id)
}

func (s *State) calculateSkillPointsUsed(t *gameconfig.Tables) int {
	used := 0
	for id, level := range s.Skills {
		if level <= 0 {
			continue
		}
		if sk := t.Skill(id); sk != nil {
			used += sk.SkillCost * level
		}
	}
	return used
}

func (s *State) SkillPointsRemaining() int { return s.SkillPoints - s.SkillPointsUsed }
