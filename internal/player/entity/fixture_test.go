package entity

import "choria/internal/shared/gameconfig"

// testTables 手写的小内容表，和 configs/gameconfig 无关。
func testTables() *gameconfig.Tables {
	items := map[int]*gameconfig.Item{
		1:  {ID: 1, Name: "Dagger", Type: gameconfig.ItemWeapon1Hand, Damage: 3, DamageRange: 1},
		2:  {ID: 2, Name: "Shirt", Type: gameconfig.ItemBody, Defense: 2, DefenseRange: 1, MaxHealth: 5},
		3:  {ID: 3, Name: "Red", Type: gameconfig.ItemPotion, HealthRestore: 10},
		4:  {ID: 4, Name: "Blue", Type: gameconfig.ItemPotion, ManaRestore: 6},
		5:  {ID: 5, Name: "Ghost", Type: gameconfig.ItemPotion, InvisPower: 7},
		6:  {ID: 6, Name: "Ring", Type: gameconfig.ItemRing, HealthRegen: 1},
		7:  {ID: 7, Name: "Shield", Type: gameconfig.ItemShield, Defense: 1},
		11: {ID: 11, Name: "Pelt", Type: gameconfig.ItemTrade},
	}
	skills := map[int]*gameconfig.Skill{
		0: {ID: 0, Type: gameconfig.SkillAttack, Effect: gameconfig.EffectWeaponMod, SkillCost: 1, PowerBase: 1, Power: 0.5},
		1: {ID: 1, Type: gameconfig.SkillUsePotion, Effect: gameconfig.EffectHealthPotion, SkillCost: 1, PowerBase: 2, Power: 1},
		4: {ID: 4, Type: gameconfig.SkillPassive, Effect: gameconfig.EffectMaxHealth, SkillCost: 2, PowerBase: 10, Power: 5},
		9: {ID: 9, Type: gameconfig.SkillPassive, Effect: gameconfig.EffectDamageBonus, SkillCost: 1, PowerBase: 2},
	}
	levels := []*gameconfig.Level{
		{Level: 1, Experience: 0, Health: 20, Mana: 10, SkillPoints: 4, NextLevel: 10},
		{Level: 2, Experience: 10, Health: 30, Mana: 14, SkillPoints: 6, NextLevel: 20},
		{Level: 3, Experience: 30, Health: 40, Mana: 18, SkillPoints: 8},
	}
	return &gameconfig.Tables{
		Items:   items,
		Skills:  skills,
		Levels:  levels,
		Traders: map[int]*gameconfig.Trader{1: {ID: 1, RewardItem: 6, Count: 1, Items: []gameconfig.TraderItem{{ItemID: 11, Count: 3}}}},
	}
}
