package gameconfig

import (
	"fmt"
	"path/filepath"
	"sort"

	"choria/internal/shared/config"
)

// table 所有表文件的外形：{"title": "...", "list": [...]}
type table[T any] struct {
	Title string `mapstructure:"title"`
	List  []T    `mapstructure:"list"`
}

type MapInfo struct {
	ID   int    `mapstructure:"id"`
	Name string `mapstructure:"name"`
	File string `mapstructure:"file"`
}

// Tables 启动时加载一次，之后只读。
type Tables struct {
	Items    map[int]*Item
	Skills   map[int]*Skill
	Levels   []*Level
	Monsters map[int]*Monster
	Zones    map[int]*Zone
	Vendors  map[int]*Vendor
	Traders  map[int]*Trader
	Maps     map[int]*MapInfo
}

func Load(dir string) (*Tables, error) {
	var (
		items    table[Item]
		skills   table[Skill]
		levels   table[Level]
		monsters table[Monster]
		zones    table[Zone]
		vendors  table[Vendor]
		traders  table[Trader]
		maps     table[MapInfo]
	)
	files := []struct {
		name string
		out  any
	}{
		{"items.json", &items},
		{"skills.json", &skills},
		{"levels.json", &levels},
		{"monsters.json", &monsters},
		{"zones.json", &zones},
		{"vendors.json", &vendors},
		{"traders.json", &traders},
		{"maps.json", &maps},
	}
	for _, f := range files {
		if err := config.Load(filepath.Join(dir, f.name), f.out); err != nil {
			return nil, fmt.Errorf("gameconfig: %w", err)
		}
	}

	t := &Tables{
		Items:    make(map[int]*Item, len(items.List)),
		Skills:   make(map[int]*Skill, len(skills.List)),
		Monsters: make(map[int]*Monster, len(monsters.List)),
		Zones:    make(map[int]*Zone, len(zones.List)),
		Vendors:  make(map[int]*Vendor, len(vendors.List)),
		Traders:  make(map[int]*Trader, len(traders.List)),
		Maps:     make(map[int]*MapInfo, len(maps.List)),
	}
	for i := range items.List {
		it := &items.List[i]
		typ, err := parseItemType(it.TypeName)
		if err != nil {
			return nil, fmt.Errorf("gameconfig: item %d: %w", it.ID, err)
		}
		it.Type = typ
		t.Items[it.ID] = it
	}
	for i := range skills.List {
		sk := &skills.List[i]
		typ, err := parseSkillType(sk.TypeName)
		if err != nil {
			return nil, fmt.Errorf("gameconfig: skill %d: %w", sk.ID, err)
		}
		if !knownEffects[sk.Effect] {
			return nil, fmt.Errorf("gameconfig: skill %d: unknown effect %q", sk.ID, sk.Effect)
		}
		sk.Type = typ
		t.Skills[sk.ID] = sk
	}
	for i := range levels.List {
		t.Levels = append(t.Levels, &levels.List[i])
	}
	for i := range monsters.List {
		t.Monsters[monsters.List[i].ID] = &monsters.List[i]
	}
	for i := range zones.List {
		z := &zones.List[i]
		if z.MinCount <= 0 {
			z.MinCount = 1
		}
		if z.MaxCount <= 0 {
			z.MaxCount = 3
		}
		if z.MaxCount < z.MinCount {
			z.MaxCount = z.MinCount
		}
		t.Zones[z.ID] = z
	}
	for i := range vendors.List {
		t.Vendors[vendors.List[i].ID] = &vendors.List[i]
	}
	for i := range traders.List {
		t.Traders[traders.List[i].ID] = &traders.List[i]
	}
	for i := range maps.List {
		t.Maps[maps.List[i].ID] = &maps.List[i]
	}
	t.indexLevels()
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tables) indexLevels() {
	sort.Slice(t.Levels, func(i, j int) bool { return t.Levels[i].Level < t.Levels[j].Level })
	for i, lv := range t.Levels {
		lv.NextLevel = 0
		if i+1 < len(t.Levels) {
			lv.NextLevel = t.Levels[i+1].Experience - lv.Experience
		}
	}
}

// Validate 检查表之间的引用。
func (t *Tables) Validate() error {
	if len(t.Levels) == 0 {
		return fmt.Errorf("gameconfig: levels table is empty")
	}
	for _, v := range t.Vendors {
		for _, id := range v.Items {
			if t.Items[id] == nil {
				return fmt.Errorf("gameconfig: vendor %d sells unknown item %d", v.ID, id)
			}
		}
	}
	for _, tr := range t.Traders {
		if t.Items[tr.RewardItem] == nil {
			return fmt.Errorf("gameconfig: trader %d rewards unknown item %d", tr.ID, tr.RewardItem)
		}
		for _, ti := range tr.Items {
			if t.Items[ti.ItemID] == nil {
				return fmt.Errorf("gameconfig: trader %d wants unknown item %d", tr.ID, ti.ItemID)
			}
		}
	}
	for _, m := range t.Monsters {
		for _, d := range m.Drops {
			if d.ItemID != 0 && t.Items[d.ItemID] == nil {
				return fmt.Errorf("gameconfig: monster %d drops unknown item %d", m.ID, d.ItemID)
			}
		}
	}
	for _, z := range t.Zones {
		for _, zm := range z.Monsters {
			if t.Monsters[zm.MonsterID] == nil {
				return fmt.Errorf("gameconfig: zone %d spawns unknown monster %d", z.ID, zm.MonsterID)
			}
		}
	}
	for _, it := range t.Items {
		if it.UpgradeID != 0 && t.Items[it.UpgradeID] == nil {
			return fmt.Errorf("gameconfig: item %d upgrades to unknown item %d", it.ID, it.UpgradeID)
		}
	}
	return nil
}

func (t *Tables) Item(id int) *Item       { return t.Items[id] }
func (t *Tables) Skill(id int) *Skill     { return t.Skills[id] }
func (t *Tables) Monster(id int) *Monster { return t.Monsters[id] }
func (t *Tables) Vendor(id int) *Vendor   { return t.Vendors[id] }
func (t *Tables) Trader(id int) *Trader   { return t.Traders[id] }

// Zone 0 号区域不刷怪，返回 nil。
func (t *Tables) Zone(id int) *Zone {
	if id == 0 {
		return nil
	}
	return t.Zones[id]
}

// FindLevel 经验不低于该级门槛的最高等级。
func (t *Tables) FindLevel(experience int) *Level {
	found := t.Levels[0]
	for _, lv := range t.Levels {
		if lv.Experience > experience {
			break
		}
		found = lv
	}
	return found
}

func (t *Tables) MaxLevel() *Level { return t.Levels[len(t.Levels)-1] }

// MapPath 以 mapDir 为根的地图文件路径。
func (t *Tables) MapPath(mapDir string, id int) (string, error) {
	info := t.Maps[id]
	if info == nil {
		return "", fmt.Errorf("gameconfig: unknown map %d", id)
	}
	return filepath.Join(mapDir, info.File), nil
}
