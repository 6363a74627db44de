package instance

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"choria/internal/shared/gameconfig"
	"choria/internal/world/entity"
	"choria/internal/world/fighter"
	"choria/internal/world/registry"
	"choria/internal/world/worldmap"
)

func TestGetMap_懒加载并缓存(t *testing.T) {
	loads := 0
	m := NewManager(Deps{Loader: func(id int) (*worldmap.Map, error) {
		loads++
		return worldmap.New(id, 8, 8)
	}})
	a, err := m.GetMap(3)
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}
	b, _ := m.GetMap(3)
	if a != b || loads != 1 || m.MapCount() != 1 {
		t.Fatalf("同一 id 只加载一次，loads=%d", loads)
	}
}

func TestGetMap_错误包装(t *testing.T) {
	boom := errors.New("boom")
	m := NewManager(Deps{Loader: func(int) (*worldmap.Map, error) { return nil, boom }})
	if _, err := m.GetMap(1); !errors.Is(err, boom) {
		t.Fatalf("期望包装原始错误，实际 %v", err)
	}
	if m.MapCount() != 0 {
		t.Fatalf("失败不缓存")
	}
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	wm, _ := worldmap.New(2, 6, 7)
	f, err := os.Create(filepath.Join(dir, "forest.map"))
	if err != nil {
		t.Fatalf("创建文件失败: %v", err)
	}
	if err := wm.Encode(f); err != nil {
		t.Fatalf("写地图失败: %v", err)
	}
	f.Close()

	tables := &gameconfig.Tables{Maps: map[int]*gameconfig.MapInfo{2: {ID: 2, File: "forest.map"}}}
	m := NewManager(Deps{Tables: tables, Loader: FileLoader(tables, dir)})
	got, err := m.GetMap(2)
	if err != nil || got.Width != 6 || got.Height != 7 {
		t.Fatalf("期望 6x7，实际 %v %v", got, err)
	}
	if _, err := m.GetMap(9); err == nil {
		t.Fatalf("未知地图应报错")
	}
}

func TestBattles(t *testing.T) {
	reg := registry.New[*entity.Entity](8, nil)
	m := NewManager(Deps{Players: reg, Rand: fighter.NewRand(1), Tables: &gameconfig.Tables{}})
	a := m.CreateBattle()
	b := m.CreateBattle()
	if a.ID >= b.ID {
		t.Fatalf("战斗 id 应递增: %d %d", a.ID, b.ID)
	}
	if got, ok := m.Battle(b.ID); !ok || got != b {
		t.Fatalf("按 id 查不到战斗")
	}
	m.DeleteBattle(a.ID)
	if _, ok := m.Battle(a.ID); ok || m.BattleCount() != 1 {
		t.Fatalf("删除后不应再查到")
	}
	c := m.CreateBattle()
	if c.ID <= b.ID {
		t.Fatalf("删除后 id 不回退")
	}
	m.Update(50 * time.Millisecond)
}
