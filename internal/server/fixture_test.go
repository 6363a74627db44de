package server

import (
	"context"
	"testing"
	"time"
	"unicode/utf8"

	"choria/internal/account/app"
	"choria/internal/account/domain"
	player "choria/internal/player/entity"
	"choria/internal/shared/gameconfig"
	"choria/internal/shared/protocol"
	"choria/internal/shared/serverconfig"
	"choria/internal/shared/transport"
	"choria/internal/shared/transport/memory"
	"choria/internal/world/entity"
	"choria/internal/world/worldmap"
	"choria/modules/kit/errx"
)

const testTick = 50 * time.Millisecond

func testTables() *gameconfig.Tables {
	return &gameconfig.Tables{
		Items: map[int]*gameconfig.Item{
			1:  {ID: 1, Name: "Dagger", Type: gameconfig.ItemWeapon1Hand, Damage: 3, DamageRange: 1, Cost: 20, UpgradeID: 4, UpgradeCost: 15},
			2:  {ID: 2, Name: "Shirt", Type: gameconfig.ItemBody, Defense: 1, Cost: 10},
			3:  {ID: 3, Name: "Red", Type: gameconfig.ItemPotion, HealthRestore: 10, Cost: 10},
			4:  {ID: 4, Name: "Sword", Type: gameconfig.ItemWeapon1Hand, Damage: 6, DamageRange: 1, Cost: 60},
			11: {ID: 11, Name: "Pelt", Type: gameconfig.ItemTrade, Cost: 4},
		},
		Skills: map[int]*gameconfig.Skill{
			0: {ID: 0, Type: gameconfig.SkillAttack, Effect: gameconfig.EffectWeaponMod, SkillCost: 1, PowerBase: 1, Power: 0.5},
		},
		Levels: []*gameconfig.Level{
			{Level: 1, Experience: 0, Health: 30, Mana: 10, SkillPoints: 4, NextLevel: 10},
			{Level: 2, Experience: 10, Health: 40, Mana: 14, SkillPoints: 6},
		},
		Monsters: map[int]*gameconfig.Monster{
			1: {ID: 1, Name: "Rat", Level: 1, MaxHealth: 5, Damage: 1, Experience: 2, Gold: 3, TurnMS: 1000},
		},
		Zones: map[int]*gameconfig.Zone{
			1: {ID: 1, MinCount: 1, MaxCount: 1, Monsters: []gameconfig.ZoneMonster{{MonsterID: 1, Odds: 100}}},
		},
		Vendors: map[int]*gameconfig.Vendor{
			1: {ID: 1, Name: "Shop", BuyPercent: 1, SellPercent: 0.5, Items: []int{3, 2}},
		},
	}
}

// testMap 10x10 全空地：(2,2) 复活点 0，(3,2) 商人 1，(2,3) 铁匠，(5,5) 起是 1 号刷怪区。
func testMap(id int) (*worldmap.Map, error) {
	m, err := worldmap.New(id, 10, 10)
	if err != nil {
		return nil, err
	}
	m.SetTile(2, 2, worldmap.Tile{EventType: worldmap.EventSpawn, EventData: 0})
	m.SetTile(3, 2, worldmap.Tile{EventType: worldmap.EventVendor, EventData: 1})
	m.SetTile(2, 3, worldmap.Tile{EventType: worldmap.EventBlacksmith})
	for x := 5; x < 10; x++ {
		for y := 5; y < 10; y++ {
			m.SetTile(x, y, worldmap.Tile{Zone: 1, PVP: true})
		}
	}
	m.SetTile(1, 2, worldmap.Tile{Wall: true})
	return m, nil
}

type fakeUser struct {
	id       int64
	password string
}

type fakeAccounts struct {
	users  map[string]fakeUser
	nextID int64
}

func (f *fakeAccounts) Login(_ context.Context, req app.LoginReq) (*domain.Account, error) {
	u, ok := f.users[req.Username]
	if req.Create {
		if ok {
			return nil, app.ErrAccountExists
		}
		f.nextID++
		u = fakeUser{id: 100 + f.nextID, password: req.Password}
		f.users[req.Username] = u
		return &domain.Account{ID: u.id, Username: req.Username}, nil
	}
	if !ok || u.password != req.Password {
		return nil, app.ErrInvalidCredentials
	}
	return &domain.Account{ID: u.id, Username: req.Username}, nil
}

// fakeCharacters 内存版角色服务，kits 按角色名给出生状态加料。
type fakeCharacters struct {
	tables   *gameconfig.Tables
	chars    map[int64][]player.Character
	kits     map[string]func(*player.State)
	nextID   int64
	saved    []string
	savedNow []string
}

func newFakeCharacters(t *gameconfig.Tables) *fakeCharacters {
	return &fakeCharacters{
		tables: t,
		chars:  make(map[int64][]player.Character),
		kits:   make(map[string]func(*player.State)),
	}
}

func (f *fakeCharacters) add(accountID int64, name string, kit func(*player.State)) {
	f.nextID++
	f.chars[accountID] = append(f.chars[accountID], player.Character{
		ID: f.nextID, AccountID: accountID, Name: name, SpawnMapID: 1, Gold: 100,
	})
	if kit != nil {
		f.kits[name] = kit
	}
}

func (f *fakeCharacters) List(_ context.Context, accountID int64) ([]player.Character, error) {
	return append([]player.Character(nil), f.chars[accountID]...), nil
}

func (f *fakeCharacters) Create(_ context.Context, accountID int64, name string, portraitID int) error {
	if name == "" || utf8.RuneCountInString(name) > 10 {
		return errx.ErrInvalidParam
	}
	if len(f.chars[accountID]) >= 6 {
		return player.ErrCharacterLimit
	}
	for _, list := range f.chars {
		for _, c := range list {
			if c.Name == name {
				return player.ErrNameInUse
			}
		}
	}
	f.add(accountID, name, nil)
	list := f.chars[accountID]
	list[len(list)-1].PortraitID = portraitID
	return nil
}

func (f *fakeCharacters) Delete(_ context.Context, accountID int64, index int) error {
	list := f.chars[accountID]
	if index < 0 || index >= len(list) {
		return player.ErrCharacterNotFound
	}
	f.chars[accountID] = append(list[:index], list[index+1:]...)
	return nil
}

func (f *fakeCharacters) Play(_ context.Context, accountID int64, index int) (*player.State, error) {
	list := f.chars[accountID]
	if index < 0 || index >= len(list) {
		return nil, player.ErrCharacterNotFound
	}
	st := player.New(list[index])
	if kit := f.kits[st.Name]; kit != nil {
		kit(st)
	}
	st.CalculateStats(f.tables)
	st.Fighter.RestoreHealthMana()
	return st, nil
}

func (f *fakeCharacters) Save(_ context.Context, st *player.State) error {
	f.saved = append(f.saved, st.Name)
	return nil
}

func (f *fakeCharacters) SaveNow(_ context.Context, st *player.State) error {
	f.savedNow = append(f.savedNow, st.Name)
	return nil
}

type fixture struct {
	t        *testing.T
	tables   *gameconfig.Tables
	tr       *memory.Transport
	chars    *fakeCharacters
	accounts *fakeAccounts
	srv      *Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tables := testTables()
	f := &fixture{
		t:      t,
		tables: tables,
		tr:     memory.New(),
		chars:  newFakeCharacters(tables),
		accounts: &fakeAccounts{users: map[string]fakeUser{
			"alice": {id: 1, password: "pw"},
			"bob":   {id: 2, password: "pw"},
		}},
	}
	c, err := NewContext(Options{
		Config: serverconfig.Config{
			Server: serverconfig.ServerConfig{Version: "test-1", Seed: 7},
		},
		Tables:     tables,
		Transport:  f.tr,
		Accounts:   f.accounts,
		Characters: f.chars,
		Loader:     testMap,
	})
	if err != nil {
		t.Fatalf("NewContext 失败: %v", err)
	}
	f.srv = NewServer(c)
	return f
}

func (f *fixture) tick() bool {
	return f.srv.Tick(context.Background(), testTick)
}

func (f *fixture) advance(d time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += testTick {
		f.tick()
	}
}

func (f *fixture) deliver(peer transport.PeerID, pkt *protocol.Packet) {
	f.tr.Deliver(peer, pkt)
	f.tick()
}

func (f *fixture) connect() transport.PeerID {
	f.t.Helper()
	peer := f.tr.Connect("127.0.0.1:1")
	f.tick()
	pkts := f.tr.Received(peer)
	if len(pkts) == 0 || protocol.Opcode(pkts[0][0]) != protocol.OpVersion {
		f.t.Fatalf("连接后期望先收到 VERSION")
	}
	return peer
}

func (f *fixture) login(peer transport.PeerID, user, password string) protocol.Opcode {
	f.t.Helper()
	f.deliver(peer, protocol.NewPacket(protocol.OpAccountLoginInfo).
		WriteBit(false).
		WriteString(user).
		WriteString(password))
	pkts := f.tr.Received(peer)
	if len(pkts) != 1 {
		f.t.Fatalf("登录期望 1 个回包，实际 %d", len(pkts))
	}
	return protocol.Opcode(pkts[0][0])
}

// enter 连接、登录并进入第 0 个角色。
func (f *fixture) enter(user string) (transport.PeerID, *entity.Entity) {
	f.t.Helper()
	peer := f.connect()
	if op := f.login(peer, user, "pw"); op != protocol.OpAccountSuccess {
		f.t.Fatalf("%s 登录期望 ACCOUNT_SUCCESS，实际 %s", user, op)
	}
	f.deliver(peer, protocol.NewPacket(protocol.OpCharactersPlay).WriteUint8(0))
	e := f.entity(peer)
	if e == nil || !e.InWorld() {
		f.t.Fatalf("%s 应该已进入世界", user)
	}
	return peer, e
}

func (f *fixture) entity(peer transport.PeerID) *entity.Entity {
	id, ok := f.srv.peers[peer]
	if !ok {
		return nil
	}
	e, _ := f.srv.c.Registry.Lookup(id)
	return e
}

// take 取出发给 peer 的所有 op 包。
func take(pkts [][]byte, op protocol.Opcode) []*protocol.Reader {
	var out []*protocol.Reader
	for _, p := range pkts {
		r := protocol.NewReader(p)
		if r.Opcode() == op {
			out = append(out, r)
		}
	}
	return out
}
