package transport

import (
	"choria/internal/shared/protocol"
)

// PeerID 传输层连接标识，进程内唯一，不复用。
type PeerID uint64

type EventType uint8

const (
	EventConnect EventType = iota + 1
	EventDisconnect
	EventReceive
)

func (t EventType) String() string {
	switch t {
	case EventConnect:
		return "connect"
	case EventDisconnect:
		return "disconnect"
	case EventReceive:
		return "receive"
	}
	return "unknown"
}

// Event 一条连接事件；Receive 时 Data 是一个完整数据报。
type Event struct {
	Type EventType
	Peer PeerID
	Addr string
	Data []byte
}

// Sender 单播发送，失败只记录日志，不回传给调用方。
type Sender interface {
	Send(peer PeerID, pkt *protocol.Packet)
}

// Transport 由 tick 线程非阻塞地 Poll；连接自己的 goroutine 只往队列里投事件。
type Transport interface {
	Sender
	// Poll 取一条待处理事件，没有事件时立即返回 false
	Poll() (Event, bool)
	Disconnect(peer PeerID)
	PeerCount() int
	Close() error
}
