package instance

import (
	"fmt"
	"sort"
	"time"

	"choria/internal/shared/gameconfig"
	"choria/internal/shared/logs"
	"choria/internal/shared/transport"
	"choria/internal/world/battle"
	"choria/internal/world/fighter"
	"choria/internal/world/worldmap"

	"go.uber.org/zap"
)

// Loader 按 id 读地图文件，测试里可换成内存地图。
type Loader func(id int) (*worldmap.Map, error)

// FileLoader 从 mapDir 下按内容表里的文件名加载。
func FileLoader(t *gameconfig.Tables, mapDir string) Loader {
	return func(id int) (*worldmap.Map, error) {
		path, err := t.MapPath(mapDir, id)
		if err != nil {
			return nil, err
		}
		return worldmap.Load(id, path)
	}
}

type Deps struct {
	Tables  *gameconfig.Tables
	Players battle.Directory
	Sender  transport.Sender
	Rand    fighter.Rand
	Loader  Loader
}

// Manager 持有所有地图和战斗。地图加载后常驻，战斗结束由调用方删除。
type Manager struct {
	deps    Deps
	maps    map[int]*worldmap.Map
	battles map[battle.ID]*battle.Battle
	nextID  battle.ID
}

func NewManager(deps Deps) *Manager {
	return &Manager{
		deps:    deps,
		maps:    make(map[int]*worldmap.Map),
		battles: make(map[battle.ID]*battle.Battle),
	}
}

// GetMap 第一次访问时加载并缓存。
func (m *Manager) GetMap(id int) (*worldmap.Map, error) {
	if wm, ok := m.maps[id]; ok {
		return wm, nil
	}
	if m.deps.Loader == nil {
		return nil, fmt.Errorf("instance: no map loader")
	}
	wm, err := m.deps.Loader(id)
	if err != nil {
		return nil, fmt.Errorf("instance: load map %d: %w", id, err)
	}
	wm.Bind(m.deps.Players, m.deps.Sender)
	m.maps[id] = wm
	logs.Info("map loaded", zap.Int("map_id", id), zap.Int("width", wm.Width), zap.Int("height", wm.Height))
	return wm, nil
}

// CreateBattle 新建一场空战斗，id 单调递增。
func (m *Manager) CreateBattle() *battle.Battle {
	m.nextID++
	b := battle.New(m.nextID, battle.Deps{
		Players: m.deps.Players,
		Sender:  m.deps.Sender,
		Tables:  m.deps.Tables,
		Rand:    m.deps.Rand,
	})
	m.battles[b.ID] = b
	return b
}

func (m *Manager) Battle(id battle.ID) (*battle.Battle, bool) {
	b, ok := m.battles[id]
	return b, ok
}

func (m *Manager) DeleteBattle(id battle.ID) {
	delete(m.battles, id)
}

// Update 先地图后战斗。战斗按 id 顺序推进，保证同一种子结果一致。
func (m *Manager) Update(dt time.Duration) {
	for _, id := range m.mapIDs() {
		m.maps[id].Update(dt)
	}
	ids := make([]battle.ID, 0, len(m.battles))
	for id := range m.battles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		m.battles[id].Update(dt)
	}
}

func (m *Manager) mapIDs() []int {
	ids := make([]int, 0, len(m.maps))
	for id := range m.maps {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (m *Manager) MapCount() int    { return len(m.maps) }
func (m *Manager) BattleCount() int { return len(m.battles) }
