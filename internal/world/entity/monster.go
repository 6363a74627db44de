package entity

import (
	"choria/internal/shared/gameconfig"
	"choria/internal/world/fighter"
)

// Monster 只存在于战斗名单里，不进注册表。
type Monster struct {
	Config  *gameconfig.Monster
	Fighter *fighter.Stats
}

func NewMonster(cfg *gameconfig.Monster) *Monster {
	f := fighter.New(cfg.Name)
	f.Level = cfg.Level
	f.MaxHealth = cfg.MaxHealth
	f.Health = cfg.MaxHealth
	f.MaxMana = cfg.MaxMana
	f.Mana = cfg.MaxMana
	f.MinDamage = max(0, cfg.Damage-cfg.DamageRange)
	f.MaxDamage = cfg.Damage + cfg.DamageRange
	f.MinDefense = max(0, cfg.Defense-cfg.DefenseRange)
	f.MaxDefense = cfg.Defense + cfg.DefenseRange
	f.TurnTimerMax = cfg.TurnTime()
	return &Monster{Config: cfg, Fighter: f}
}

func (m *Monster) ExperienceGiven() int { return m.Config.Experience }

func (m *Monster) GoldGiven() int { return m.Config.Gold }

// PickTarget 在存活的敌方槽位里随机挑一个，没有时返回 -1。
func (m *Monster) PickTarget(r fighter.Rand, alive []int) int {
	if len(alive) == 0 {
		return -1
	}
	return alive[r.IntN(len(alive))]
}
