package ws

import (
	"fmt"
	"sync"
	"time"

	"choria/internal/shared/transport"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type peerConn struct {
	id      transport.PeerID
	addr    string
	conn    *websocket.Conn
	srv     *Server
	outChan chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

func newPeerConn(id transport.PeerID, conn *websocket.Conn, srv *Server) *peerConn {
	return &peerConn{
		id:      id,
		addr:    conn.RemoteAddr().String(),
		conn:    conn,
		srv:     srv,
		outChan: make(chan []byte, outChanSize),
		done:    make(chan struct{}),
	}
}

func (c *peerConn) run() {
	go c.readMsgLoop()
	go c.writeMsgLoop()
}

func (c *peerConn) readMsgLoop() {
	defer func() {
		if err := recover(); err != nil {
			c.srv.log.Error("ws readMsgLoop panic", zap.String("err", fmt.Sprintf("%v", err)))
		}
		c.close()
		c.srv.remove(c)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.srv.log.Debug("ws read msg", zap.Uint64("peer_id", uint64(c.id)), zap.Error(err))
			}
			return
		}
		// 文本帧不是协议数据
		if mt != websocket.BinaryMessage {
			continue
		}
		c.srv.push(transport.Event{Type: transport.EventReceive, Peer: c.id, Addr: c.addr, Data: data})
	}
}

func (c *peerConn) writeMsgLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case msg := <-c.outChan:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
				c.srv.log.Debug("ws write msg", zap.Uint64("peer_id", uint64(c.id)), zap.Error(err))
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// send 不阻塞 tick；写队列满说明客户端跟不上，直接断开。
func (c *peerConn) send(data []byte) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.outChan <- data:
	default:
		c.srv.log.Warn("ws out queue full, dropping peer", zap.Uint64("peer_id", uint64(c.id)))
		c.close()
	}
}

func (c *peerConn) close() {
	c.closeOnce.Do(func() {
		_ = c.conn.Close()
		close(c.done)
	})
}
