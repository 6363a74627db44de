package worldmap

import (
	"fmt"
	"time"

	"choria/internal/shared/protocol"
	"choria/internal/shared/transport"
	"choria/internal/world/entity"
	"choria/internal/world/registry"
)

type EventType int

const (
	EventNone EventType = iota
	EventSpawn
	EventMapChange
	EventVendor
	EventTrader
	EventBlacksmith
)

const (
	MinSize = 5
	MaxSize = 255

	ObjectUpdatePeriod = 200 * time.Millisecond
)

type Tile struct {
	Texture   int
	Zone      int
	EventType EventType
	EventData int
	Wall      bool
	PVP       bool
}

type IndexedEvent struct {
	Type EventType
	Data int
	X, Y int
}

type eventKey struct {
	typ  EventType
	data int
}

// Directory 按 id 找对象，通常就是注册表。
type Directory interface {
	Lookup(id registry.ID) (*entity.Entity, bool)
}

type Map struct {
	ID     int
	Width  int
	Height int

	Textures      []string
	NoZoneTexture string

	tiles  []Tile
	events map[eventKey]*IndexedEvent

	residents []registry.ID
	dir       Directory
	sender    transport.Sender
	updateAcc time.Duration
}

// New 全空地、默认可 PvP 的地图。
func New(id, width, height int) (*Map, error) {
	if width < MinSize || width > MaxSize || height < MinSize || height > MaxSize {
		return nil, fmt.Errorf("worldmap: map %d size %dx%d out of range", id, width, height)
	}
	m := &Map{
		ID:     id,
		Width:  width,
		Height: height,
		tiles:  make([]Tile, width*height),
		events: make(map[eventKey]*IndexedEvent),
	}
	for i := range m.tiles {
		m.tiles[i].PVP = true
	}
	return m, nil
}

// Bind 挂上对象目录和发包器，之后才能广播。
func (m *Map) Bind(dir Directory, sender transport.Sender) {
	m.dir = dir
	m.sender = sender
}

func (m *Map) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.Width && y < m.Height
}

// Tile 越界返回 nil。
func (m *Map) Tile(x, y int) *Tile {
	if !m.InBounds(x, y) {
		return nil
	}
	return &m.tiles[x*m.Height+y]
}

// SetTile 同时维护事件索引。
func (m *Map) SetTile(x, y int, t Tile) {
	p := m.Tile(x, y)
	if p == nil {
		return
	}
	*p = t
	m.indexEvent(x, y, t)
}

func (m *Map) indexEvent(x, y int, t Tile) {
	switch t.EventType {
	case EventSpawn, EventMapChange, EventVendor, EventTrader, EventBlacksmith:
		m.events[eventKey{t.EventType, t.EventData}] = &IndexedEvent{Type: t.EventType, Data: t.EventData, X: x, Y: y}
	}
}

// CanMoveTo 唯一的可走判断。
func (m *Map) CanMoveTo(x, y int) bool {
	t := m.Tile(x, y)
	return t != nil && !t.Wall
}

func (m *Map) IndexedEvent(typ EventType, data int) (*IndexedEvent, bool) {
	ev, ok := m.events[eventKey{typ, data}]
	return ev, ok
}

// Objects 当前地图里的对象 id。
func (m *Map) Objects() []registry.ID {
	return append([]registry.ID(nil), m.residents...)
}

// AddObject 先通知已在地图里的人，再加入。
func (m *Map) AddObject(e *entity.Entity) {
	for _, id := range m.residents {
		if id == e.ID {
			return
		}
	}
	pkt := protocol.NewPacket(protocol.OpWorldCreateObject)
	WriteObject(pkt, e)
	m.Broadcast(pkt)
	m.residents = append(m.residents, e.ID)
	e.MapID = m.ID
}

func (m *Map) RemoveObject(e *entity.Entity) {
	for i, id := range m.residents {
		if id != e.ID {
			continue
		}
		m.residents = append(m.residents[:i], m.residents[i+1:]...)
		m.Broadcast(protocol.NewPacket(protocol.OpWorldDeleteObject).WriteUint8(uint8(e.ID)))
		return
	}
}

// WriteObject CREATEOBJECT 和 CHANGEMAPS 共用的对象描述。
func WriteObject(pkt *protocol.Packet, e *entity.Entity) {
	pkt.WriteUint8(uint8(e.ID)).
		WriteUint8(uint8(e.Position.X)).
		WriteUint8(uint8(e.Position.Y)).
		WriteUint8(uint8(e.Kind))
	if e.Kind == entity.KindPlayer && e.Player != nil {
		pkt.WriteString(e.Player.Name).
			WriteUint8(uint8(e.Player.PortraitID)).
			WriteBit(e.Invisible())
	}
}

// Update 每 200ms 广播一次所有对象的位置和状态。
func (m *Map) Update(dt time.Duration) {
	m.updateAcc += dt
	if m.updateAcc < ObjectUpdatePeriod {
		return
	}
	m.updateAcc = 0
	if m.dir == nil || len(m.residents) == 0 {
		return
	}
	objs := m.resolve()
	pkt := protocol.NewPacket(protocol.OpWorldObjectUpdates).WriteUint8(uint8(len(objs)))
	for _, e := range objs {
		pkt.WriteUint8(uint8(e.ID)).
			WriteUint8(e.StatusByte()).
			WriteUint8(uint8(e.Position.X)).
			WriteUint8(uint8(e.Position.Y)).
			WriteBit(e.Invisible())
	}
	m.Broadcast(pkt)
}

func (m *Map) resolve() []*entity.Entity {
	out := make([]*entity.Entity, 0, len(m.residents))
	for _, id := range m.residents {
		if e, ok := m.dir.Lookup(id); ok {
			out = append(out, e)
		}
	}
	return out
}

// SendToPlayers 发给地图内除 except 之外的所有玩家。
func (m *Map) SendToPlayers(pkt *protocol.Packet, except registry.ID) {
	m.send(pkt, func(e *entity.Entity) bool { return e.ID != except })
}

func (m *Map) Broadcast(pkt *protocol.Packet) {
	m.send(pkt, func(*entity.Entity) bool { return true })
}

func (m *Map) send(pkt *protocol.Packet, keep func(*entity.Entity) bool) {
	if m.dir == nil || m.sender == nil {
		return
	}
	for _, e := range m.resolve() {
		if e.Kind == entity.KindPlayer && keep(e) {
			m.sender.Send(e.Peer, pkt)
		}
	}
}
