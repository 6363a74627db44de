package gameconfig

import (
	"testing"

	"choria/internal/world/fighter"
)

const contentDir = "../../../configs/gameconfig"

func mustLoad(t *testing.T) *Tables {
	t.Helper()
	tables, err := Load(contentDir)
	if err != nil {
		t.Fatalf("加载内容表失败: %v", err)
	}
	return tables
}

func TestLoad_ShippedContent(t *testing.T) {
	tables := mustLoad(t)
	dagger := tables.Item(1)
	if dagger == nil || dagger.Type != ItemWeapon1Hand {
		t.Fatalf("期望 1 号物品是单手武器，实际 %+v", dagger)
	}
	if min, max := dagger.DamageSpan(); min != 2 || max != 4 {
		t.Fatalf("期望伤害 2~4，实际 %d~%d", min, max)
	}
	if sk := tables.Skill(0); sk == nil || sk.Type != SkillAttack || sk.Effect != EffectWeaponMod {
		t.Fatalf("期望 0 号技能是普攻，实际 %+v", sk)
	}
	if tables.Levels[0].NextLevel != tables.Levels[1].Experience {
		t.Fatalf("NextLevel 应为到下一级的经验差")
	}
	if tables.MaxLevel().NextLevel != 0 {
		t.Fatalf("满级 NextLevel 应为 0")
	}
	if _, err := tables.MapPath("maps", 1); err != nil {
		t.Fatalf("1 号地图应存在: %v", err)
	}
	if _, err := tables.MapPath("maps", 99); err == nil {
		t.Fatalf("未知地图应报错")
	}
}

func TestLoad_MissingDir(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Fatalf("空目录应加载失败")
	}
}

func TestValidate_交叉引用(t *testing.T) {
	base := func() *Tables {
		return &Tables{
			Items:    map[int]*Item{1: {ID: 1}},
			Skills:   map[int]*Skill{},
			Levels:   []*Level{{Level: 1}},
			Monsters: map[int]*Monster{1: {ID: 1}},
			Zones:    map[int]*Zone{},
			Vendors:  map[int]*Vendor{},
			Traders:  map[int]*Trader{},
			Maps:     map[int]*MapInfo{},
		}
	}
	cases := map[string]func(*Tables){
		"vendor":  func(t *Tables) { t.Vendors[1] = &Vendor{ID: 1, Items: []int{2}} },
		"trader":  func(t *Tables) { t.Traders[1] = &Trader{ID: 1, RewardItem: 1, Items: []TraderItem{{ItemID: 5}}} },
		"reward":  func(t *Tables) { t.Traders[1] = &Trader{ID: 1, RewardItem: 3} },
		"drop":    func(t *Tables) { t.Monsters[1].Drops = []MonsterDrop{{ItemID: 9, Odds: 1}} },
		"zone":    func(t *Tables) { t.Zones[1] = &Zone{ID: 1, Monsters: []ZoneMonster{{MonsterID: 7}}} },
		"upgrade": func(t *Tables) { t.Items[1].UpgradeID = 4 },
		"levels":  func(t *Tables) { t.Levels = nil },
	}
	if err := base().Validate(); err != nil {
		t.Fatalf("基础表应合法: %v", err)
	}
	for name, mutate := range cases {
		tb := base()
		mutate(tb)
		if err := tb.Validate(); err == nil {
			t.Fatalf("%s: 期望校验失败", name)
		}
	}
}

func TestFindLevel(t *testing.T) {
	tables := &Tables{Levels: []*Level{{Level: 1, Experience: 0}, {Level: 2, Experience: 10}, {Level: 3, Experience: 40}}}
	cases := map[int]int{0: 1, 9: 1, 10: 2, 39: 2, 40: 3, 1000: 3}
	for xp, want := range cases {
		if got := tables.FindLevel(xp).Level; got != want {
			t.Fatalf("xp=%d 期望等级 %d，实际 %d", xp, want, got)
		}
	}
}

func TestItemPrice(t *testing.T) {
	it := &Item{Cost: 15}
	v := &Vendor{BuyPercent: 1.5, SellPercent: 0.5}
	if got := it.Price(v, 3, true); got != 66 {
		t.Fatalf("期望买价 int(22.5)*3=66，实际 %d", got)
	}
	if got := it.Price(v, 3, false); got != 21 {
		t.Fatalf("期望卖价 int(7.5)*3=21，实际 %d", got)
	}
	if it.Price(nil, 3, true) != 0 {
		t.Fatalf("没有商人价格应为 0")
	}
	big := &Item{Cost: MaxGold}
	if got := big.Price(v, 10, true); got != MaxGold {
		t.Fatalf("价格应封顶 %d，实际 %d", MaxGold, got)
	}
}

func TestSkillMath(t *testing.T) {
	sk := &Skill{ManaCostBase: 4, ManaCost: 1.5, PowerBase: 10, PowerRangeBase: 2.6, Power: 4, PowerRange: 1}
	if got := sk.ManaCostAt(0); got != 4 {
		t.Fatalf("等级 <1 按 1 算，期望 4，实际 %d", got)
	}
	if got := sk.ManaCostAt(3); got != 7 {
		t.Fatalf("期望 int(4+1.5*2)=7，实际 %d", got)
	}
	if min, max := sk.PowerSpan(2); min != 11 || max != 17 {
		t.Fatalf("期望 14±3，实际 %d~%d", min, max)
	}
	if min, max := sk.PowerSpanRound(1); min != 7 || max != 13 {
		t.Fatalf("期望 10±round(2.6)，实际 %d~%d", min, max)
	}
	sell := &Skill{SkillCost: 2}
	if sell.SellCost(4) != 30 {
		t.Fatalf("洗点价应为 cost*(11+level)")
	}
}

func TestZoneRoll_累计权重(t *testing.T) {
	z := &Zone{MinCount: 2, MaxCount: 2, Monsters: []ZoneMonster{{MonsterID: 1, Odds: 1}, {MonsterID: 5, Odds: 0}}}
	got := z.Roll(fighter.NewRand(7))
	if len(got) != 2 || got[0] != 1 || got[1] != 1 {
		t.Fatalf("权重 0 的怪不应出现，实际 %v", got)
	}
	var nilZone *Zone
	if nilZone.Roll(fighter.NewRand(1)) != nil {
		t.Fatalf("空区域不刷怪")
	}
	tables := &Tables{Zones: map[int]*Zone{0: z}}
	if tables.Zone(0) != nil {
		t.Fatalf("0 号区域不刷怪")
	}
}

func TestMonsterRollDrop(t *testing.T) {
	m := &Monster{}
	if m.RollDrop(fighter.NewRand(1)) != 0 {
		t.Fatalf("没有掉落表应返回 0")
	}
	m.Drops = []MonsterDrop{{ItemID: 0, Odds: 0}, {ItemID: 3, Odds: 5}}
	for i := 0; i < 20; i++ {
		if m.RollDrop(fighter.NewRand(uint64(i))) != 3 {
			t.Fatalf("唯一有权重的掉落应必出")
		}
	}
}
