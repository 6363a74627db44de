package gameconfig

import "fmt"

type ItemType int

const (
	ItemHead ItemType = iota
	ItemBody
	ItemLegs
	ItemWeapon1Hand
	ItemWeapon2Hand
	ItemShield
	ItemRing
	ItemPotion
	ItemTrade
)

var itemTypeNames = map[string]ItemType{
	"head":        ItemHead,
	"body":        ItemBody,
	"legs":        ItemLegs,
	"weapon1hand": ItemWeapon1Hand,
	"weapon2hand": ItemWeapon2Hand,
	"shield":      ItemShield,
	"ring":        ItemRing,
	"potion":      ItemPotion,
	"trade":       ItemTrade,
}

func parseItemType(s string) (ItemType, error) {
	t, ok := itemTypeNames[s]
	if !ok {
		return 0, fmt.Errorf("unknown item type %q", s)
	}
	return t, nil
}

// PotionKind 战斗里 USEPOTION 技能区分红蓝药。
type PotionKind int

const (
	PotionHealth PotionKind = iota
	PotionMana
)

type Item struct {
	ID            int     `mapstructure:"id"`
	Name          string  `mapstructure:"name"`
	Level         int     `mapstructure:"level"`
	TypeName      string  `mapstructure:"type"`
	LevelRequired int     `mapstructure:"level_required"`
	Cost          int     `mapstructure:"cost"`
	Damage        int     `mapstructure:"damage"`
	DamageRange   int     `mapstructure:"damage_range"`
	Defense       int     `mapstructure:"defense"`
	DefenseRange  int     `mapstructure:"defense_range"`
	DamageType    int     `mapstructure:"damage_type"`
	HealthRestore int     `mapstructure:"health_restore"`
	ManaRestore   int     `mapstructure:"mana_restore"`
	MaxHealth     int     `mapstructure:"max_health"`
	MaxMana       int     `mapstructure:"max_mana"`
	HealthRegen   float32 `mapstructure:"health_regen"`
	ManaRegen     float32 `mapstructure:"mana_regen"`
	// InvisPower 隐身可走的步数，期间不遇怪
	InvisPower int `mapstructure:"invis_power"`
	// 铁匠升级，UpgradeID 为 0 表示不能升级
	UpgradeID   int `mapstructure:"upgrade_id"`
	UpgradeCost int `mapstructure:"upgrade_cost"`

	Type ItemType `mapstructure:"-"`
}

func (i *Item) DamageSpan() (min, max int) {
	return i.Damage - i.DamageRange, i.Damage + i.DamageRange
}

func (i *Item) DefenseSpan() (min, max int) {
	return i.Defense - i.DefenseRange, i.Defense + i.DefenseRange
}

func (i *Item) IsHealthPotion() bool { return i.Type == ItemPotion && i.HealthRestore > 0 }

func (i *Item) IsManaPotion() bool { return i.Type == ItemPotion && i.ManaRestore > 0 }

func (i *Item) IsInvisPotion() bool { return i.Type == ItemPotion && i.InvisPower > 0 }

func (i *Item) IsPotionKind(k PotionKind) bool {
	switch k {
	case PotionHealth:
		return i.IsHealthPotion()
	case PotionMana:
		return i.IsManaPotion()
	}
	return false
}

// IsEquipment 能穿戴到装备栏的类型。
func (i *Item) IsEquipment() bool {
	return i.Type <= ItemRing
}

// Price 买卖价。vendor 为 nil 时为 0，结果封顶 MaxGold。
func (i *Item) Price(v *Vendor, count int, buy bool) int {
	if v == nil {
		return 0
	}
	percent := v.SellPercent
	if buy {
		percent = v.BuyPercent
	}
	price := int(float32(i.Cost)*percent) * count
	if price < 0 {
		return 0
	}
	if price > MaxGold {
		return MaxGold
	}
	return price
}
