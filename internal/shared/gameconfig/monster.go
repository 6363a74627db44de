package gameconfig

import (
	"time"

	"choria/internal/world/fighter"
)

type MonsterDrop struct {
	ItemID int `mapstructure:"item_id"`
	Odds   int `mapstructure:"odds"`
}

type Monster struct {
	ID           int    `mapstructure:"id"`
	Name         string `mapstructure:"name"`
	Level        int    `mapstructure:"level"`
	Portrait     string `mapstructure:"portrait"`
	MaxHealth    int    `mapstructure:"max_health"`
	MaxMana      int    `mapstructure:"max_mana"`
	Damage       int    `mapstructure:"damage"`
	DamageRange  int    `mapstructure:"damage_range"`
	Defense      int    `mapstructure:"defense"`
	DefenseRange int    `mapstructure:"defense_range"`
	Experience   int    `mapstructure:"experience"`
	Gold         int    `mapstructure:"gold"`
	AI           int    `mapstructure:"ai"`
	TurnMS       int    `mapstructure:"turn_ms"`
	// ItemID 为 0 的条目表示“不掉落”的权重
	Drops []MonsterDrop `mapstructure:"drops"`
}

func (m *Monster) TurnTime() time.Duration {
	if m.TurnMS <= 0 {
		return 3 * time.Second
	}
	return time.Duration(m.TurnMS) * time.Millisecond
}

// RollDrop 按累计权重抽一次，0 表示没掉。
func (m *Monster) RollDrop(r fighter.Rand) int {
	sum := 0
	for _, d := range m.Drops {
		sum += d.Odds
	}
	if sum <= 0 {
		return 0
	}
	roll := fighter.Range(r, 1, sum)
	acc := 0
	for _, d := range m.Drops {
		acc += d.Odds
		if roll <= acc {
			return d.ItemID
		}
	}
	return 0
}
