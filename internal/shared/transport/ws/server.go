package ws

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"choria/internal/shared/protocol"
	"choria/internal/shared/transport"
	"choria/internal/shared/utils"
	"choria/modules/kit/logx"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	outChanSize    = 1000
	eventQueueSize = 4096
)

// Server gorilla websocket 适配：一条二进制消息就是一个数据报。
// 连接 goroutine 只往 events 投递，游戏状态全部在 tick 线程里改。
type Server struct {
	upgrader websocket.Upgrader
	ids      *utils.Snowflake
	events   chan transport.Event

	mu    sync.RWMutex
	peers map[transport.PeerID]*peerConn

	httpSrv *http.Server
	done    chan struct{}
	closed  atomic.Bool
	log     logx.Logger
}

var _ transport.Transport = (*Server)(nil)

func NewServer(ids *utils.Snowflake, l logx.Logger) *Server {
	if l == nil {
		l = logx.Nop()
	}
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 允许所有跨域请求
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		ids:    ids,
		events: make(chan transport.Event, eventQueueSize),
		peers:  make(map[transport.PeerID]*peerConn),
		done:   make(chan struct{}),
		log:    l,
	}
}

// Listen 绑定端口后在后台 serve，端口占用等错误同步返回。
func (s *Server) Listen(addr, path string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle(path, s)
	s.httpSrv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("websocket listener stopped", zap.Error(err))
		}
	}()
	s.log.Info("websocket listening", zap.String("addr", ln.Addr().String()), zap.String("path", path))
	return nil
}

func (s *Server) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	if s.closed.Load() {
		http.Error(resp, "server stopping", http.StatusServiceUnavailable)
		return
	}
	wsConn, err := s.upgrader.Upgrade(resp, req, nil)
	if err != nil {
		s.log.Error("websocket upgrade error", zap.Error(err))
		return
	}

	id := transport.PeerID(s.ids.NextID())
	pc := newPeerConn(id, wsConn, s)

	s.mu.Lock()
	s.peers[id] = pc
	s.mu.Unlock()

	s.log.Debug("websocket upgrade success", zap.Uint64("peer_id", uint64(id)), zap.String("addr", pc.addr))
	s.push(transport.Event{Type: transport.EventConnect, Peer: id, Addr: pc.addr})
	pc.run()
}

func (s *Server) Poll() (transport.Event, bool) {
	select {
	case ev := <-s.events:
		return ev, true
	default:
		return transport.Event{}, false
	}
}

func (s *Server) Send(peer transport.PeerID, pkt *protocol.Packet) {
	if pkt == nil {
		return
	}
	s.mu.RLock()
	pc := s.peers[peer]
	s.mu.RUnlock()
	if pc == nil {
		return
	}
	// 广播时同一个包会发给多个连接，写循环拿到的必须是副本
	pc.send(append([]byte(nil), pkt.Bytes()...))
}

func (s *Server) Disconnect(peer transport.PeerID) {
	s.mu.RLock()
	pc := s.peers[peer]
	s.mu.RUnlock()
	if pc != nil {
		pc.close()
	}
}

func (s *Server) PeerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.peers)
}

// Close 先停监听再断开所有连接，Disconnect 事件不再投递。
func (s *Server) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(s.done)

	var err error
	if s.httpSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err = s.httpSrv.Shutdown(ctx)
		cancel()
	}

	s.mu.Lock()
	peers := make([]*peerConn, 0, len(s.peers))
	for _, pc := range s.peers {
		peers = append(peers, pc)
	}
	s.mu.Unlock()
	for _, pc := range peers {
		pc.close()
	}
	return err
}

// remove 连接 goroutine 退出时调用，每条连接只触发一次。
func (s *Server) remove(pc *peerConn) {
	s.mu.Lock()
	delete(s.peers, pc.id)
	s.mu.Unlock()
	s.push(transport.Event{Type: transport.EventDisconnect, Peer: pc.id, Addr: pc.addr})
}

// push 队列满时阻塞对应连接的读循环，停服后直接丢弃。
func (s *Server) push(ev transport.Event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}
