package session

import (
	"context"
	"sync"
	"time"

	"choria/internal/shared/transport"
)

const presenceTimeout = 2 * time.Second

// Manager peer 与账号的双向绑定，登录成功时占用 presence，断线时释放。
type Manager struct {
	sync.RWMutex
	presence     Presence
	peer2account map[transport.PeerID]int64
	account2peer map[int64]transport.PeerID
}

func NewManager(p Presence) *Manager {
	if p == nil {
		p = NewLocalPresence()
	}
	return &Manager{
		presence:     p,
		peer2account: make(map[transport.PeerID]int64),
		account2peer: make(map[int64]transport.PeerID),
	}
}

// Bind 返回 false 表示账号已在线。同一个 peer 重复登录先释放旧账号。
func (m *Manager) Bind(ctx context.Context, peer transport.PeerID, accountID int64) (bool, error) {
	m.Lock()
	_, local := m.account2peer[accountID]
	m.Unlock()
	if local {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, presenceTimeout)
	defer cancel()
	ok, err := m.presence.Acquire(ctx, accountID)
	if err != nil || !ok {
		return false, err
	}

	m.Lock()
	old, had := m.peer2account[peer]
	m.peer2account[peer] = accountID
	m.account2peer[accountID] = peer
	if had && old != accountID {
		delete(m.account2peer, old)
	}
	m.Unlock()
	if had && old != accountID {
		_ = m.presence.Release(ctx, old)
	}
	return true, nil
}

// Unbind 断线清理，返回解绑前的账号。
func (m *Manager) Unbind(ctx context.Context, peer transport.PeerID) (int64, error) {
	m.Lock()
	accountID, ok := m.peer2account[peer]
	if ok {
		delete(m.peer2account, peer)
		if m.account2peer[accountID] == peer {
			delete(m.account2peer, accountID)
		}
	}
	m.Unlock()
	if !ok {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, presenceTimeout)
	defer cancel()
	return accountID, m.presence.Release(ctx, accountID)
}

func (m *Manager) Account(peer transport.PeerID) (int64, bool) {
	m.RLock()
	defer m.RUnlock()
	id, ok := m.peer2account[peer]
	return id, ok
}

func (m *Manager) Peer(accountID int64) (transport.PeerID, bool) {
	m.RLock()
	defer m.RUnlock()
	p, ok := m.account2peer[accountID]
	return p, ok
}

func (m *Manager) Online() int {
	m.RLock()
	defer m.RUnlock()
	return len(m.account2peer)
}

// RefreshAll 续期所有在线账号，返回第一个错误但不中断。
func (m *Manager) RefreshAll(ctx context.Context) error {
	m.RLock()
	ids := make([]int64, 0, len(m.account2peer))
	for id := range m.account2peer {
		ids = append(ids, id)
	}
	m.RUnlock()

	var first error
	for _, id := range ids {
		c, cancel := context.WithTimeout(ctx, presenceTimeout)
		if err := m.presence.Refresh(c, id); err != nil && first == nil {
			first = err
		}
		cancel()
	}
	return first
}
