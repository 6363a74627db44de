package gameconfig

import "choria/internal/world/fighter"

type ZoneMonster struct {
	MonsterID int `mapstructure:"monster_id"`
	Odds      int `mapstructure:"odds"`
}

type Zone struct {
	ID       int           `mapstructure:"id"`
	MinCount int           `mapstructure:"min_count"`
	MaxCount int           `mapstructure:"max_count"`
	Monsters []ZoneMonster `mapstructure:"monsters"`
}

// Roll 决定遭遇几只、各是谁。
func (z *Zone) Roll(r fighter.Rand) []int {
	if z == nil || len(z.Monsters) == 0 {
		return nil
	}
	sum := 0
	for _, m := range z.Monsters {
		sum += m.Odds
	}
	if sum <= 0 {
		return nil
	}
	count := fighter.Range(r, z.MinCount, z.MaxCount)
	out := make([]int, 0, count)
	for i := 0; i < count; i++ {
		roll := fighter.Range(r, 1, sum)
		acc := 0
		for _, m := range z.Monsters {
			acc += m.Odds
			if roll <= acc {
				out = append(out, m.MonsterID)
				break
			}
		}
	}
	return out
}
