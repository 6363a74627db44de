// Package memory 进程内传输，测试里代替 websocket。
package memory

import (
	"sync"

	"choria/internal/shared/protocol"
	"choria/internal/shared/transport"
)

type Transport struct {
	mu     sync.Mutex
	next   transport.PeerID
	events []transport.Event
	peers  map[transport.PeerID]*peer
	closed bool
}

type peer struct {
	addr  string
	inbox [][]byte
}

var _ transport.Transport = (*Transport)(nil)

func New() *Transport {
	return &Transport{peers: make(map[transport.PeerID]*peer)}
}

// Connect 模拟客户端接入，返回分配的 peer。
func (t *Transport) Connect(addr string) transport.PeerID {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	id := t.next
	t.peers[id] = &peer{addr: addr}
	t.events = append(t.events, transport.Event{Type: transport.EventConnect, Peer: id, Addr: addr})
	return id
}

// Deliver 模拟客户端发来一个数据报。
func (t *Transport) Deliver(id transport.PeerID, pkt *protocol.Packet) {
	t.DeliverRaw(id, append([]byte(nil), pkt.Bytes()...))
}

func (t *Transport) DeliverRaw(id transport.PeerID, data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.peers[id]
	if p == nil {
		return
	}
	t.events = append(t.events, transport.Event{Type: transport.EventReceive, Peer: id, Addr: p.addr, Data: data})
}

// Drop 模拟客户端主动断开。
func (t *Transport) Drop(id transport.PeerID) {
	t.Disconnect(id)
}

// Received 取走并清空发给该 peer 的数据报。
func (t *Transport) Received(id transport.PeerID) [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.peers[id]
	if p == nil {
		return nil
	}
	out := p.inbox
	p.inbox = nil
	return out
}

func (t *Transport) Connected(id transport.PeerID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.peers[id]
	return ok
}

func (t *Transport) Send(id transport.PeerID, pkt *protocol.Packet) {
	if pkt == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if p := t.peers[id]; p != nil {
		p.inbox = append(p.inbox, append([]byte(nil), pkt.Bytes()...))
	}
}

func (t *Transport) Poll() (transport.Event, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.events) == 0 {
		return transport.Event{}, false
	}
	ev := t.events[0]
	t.events = t.events[1:]
	return ev, true
}

func (t *Transport) Disconnect(id transport.PeerID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p := t.peers[id]
	if p == nil {
		return
	}
	delete(t.peers, id)
	if !t.closed {
		t.events = append(t.events, transport.Event{Type: transport.EventDisconnect, Peer: id, Addr: p.addr})
	}
}

func (t *Transport) PeerCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.peers)
}

func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.peers = make(map[transport.PeerID]*peer)
	t.events = nil
	return nil
}
