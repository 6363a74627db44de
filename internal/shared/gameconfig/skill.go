package gameconfig

import (
	"fmt"
	"math"

	"choria/internal/world/fighter"
)

type SkillType int

const (
	SkillAttack SkillType = iota
	SkillSpell
	SkillPassive
	SkillUsePotion
)

var skillTypeNames = map[string]SkillType{
	"attack":    SkillAttack,
	"spell":     SkillSpell,
	"passive":   SkillPassive,
	"usepotion": SkillUsePotion,
}

// Effect 技能在结算或属性计算里做什么。
type Effect string

const (
	EffectNone   Effect = ""
	EffectDamage Effect = "damage"
	EffectHeal   Effect = "heal"
	// USEPOTION 技能，等级决定每场战斗可喝几瓶
	EffectHealthPotion Effect = "health_potion"
	EffectManaPotion   Effect = "mana_potion"
	// 被动
	EffectWeaponMod    Effect = "weapon_mod"
	EffectMaxHealth    Effect = "max_health"
	EffectMaxMana      Effect = "max_mana"
	EffectHealthRegen  Effect = "health_regen"
	EffectManaRegen    Effect = "mana_regen"
	EffectDamageBonus  Effect = "damage_bonus"
	EffectDefenseBonus Effect = "defense_bonus"
)

var knownEffects = map[Effect]bool{
	EffectNone: true, EffectWeaponMod: true, EffectDamage: true, EffectHeal: true,
	EffectHealthPotion: true, EffectManaPotion: true, EffectMaxHealth: true, EffectMaxMana: true,
	EffectHealthRegen: true, EffectManaRegen: true, EffectDamageBonus: true,
	EffectDefenseBonus: true,
}

type Skill struct {
	ID             int     `mapstructure:"id"`
	TypeName       string  `mapstructure:"type"`
	Name           string  `mapstructure:"name"`
	Info           string  `mapstructure:"info"`
	Effect         Effect  `mapstructure:"effect"`
	SkillCost      int     `mapstructure:"skill_cost"`
	ManaCostBase   float32 `mapstructure:"mana_cost_base"`
	ManaCost       float32 `mapstructure:"mana_cost"`
	PowerBase      float32 `mapstructure:"power_base"`
	PowerRangeBase float32 `mapstructure:"power_range_base"`
	Power          float32 `mapstructure:"power"`
	PowerRange     float32 `mapstructure:"power_range"`

	Type SkillType `mapstructure:"-"`
}

func parseSkillType(s string) (SkillType, error) {
	t, ok := skillTypeNames[s]
	if !ok {
		return 0, fmt.Errorf("unknown skill type %q", s)
	}
	return t, nil
}

func levelStep(level int) float32 {
	if level < 1 {
		level = 1
	}
	return float32(level - 1)
}

func (s *Skill) ManaCostAt(level int) int {
	return int(s.ManaCostBase + s.ManaCost*levelStep(level))
}

// PowerSpan 截断取整。
func (s *Skill) PowerSpan(level int) (min, max int) {
	p := int(s.PowerBase + s.Power*levelStep(level))
	r := int(s.PowerRangeBase + s.PowerRange*levelStep(level))
	return p - r, p + r
}

// PowerSpanRound 四舍五入版本，被动加血上限这类用它。
func (s *Skill) PowerSpanRound(level int) (min, max int) {
	p := int(math.Round(float64(s.PowerBase + s.Power*levelStep(level))))
	r := int(math.Round(float64(s.PowerRangeBase + s.PowerRange*levelStep(level))))
	return p - r, p + r
}

func (s *Skill) PowerSpanFloat(level int) (min, max float32) {
	p := s.PowerBase + s.Power*levelStep(level)
	r := s.PowerRangeBase + s.PowerRange*levelStep(level)
	return p - r, p + r
}

func (s *Skill) RollPower(r fighter.Rand, level int) int {
	min, max := s.PowerSpanRound(level)
	return fighter.Range(r, min, max)
}

// SellCost 洗点花的金币。
func (s *Skill) SellCost(playerLevel int) int {
	return s.SkillCost * (11 + playerLevel)
}

// Potion 对 USEPOTION 技能给出药水种类。
func (s *Skill) Potion() (PotionKind, bool) {
	switch s.Effect {
	case EffectHealthPotion:
		return PotionHealth, true
	case EffectManaPotion:
		return PotionMana, true
	}
	return 0, false
}

// TargetsAlly 治疗类技能只能对同阵营使用。
func (s *Skill) TargetsAlly() bool {
	return s.Effect == EffectHeal || s.Type == SkillUsePotion
}
