package session

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Presence 账号在线标记。Acquire 返回 false 表示账号已在别处登录。
type Presence interface {
	Acquire(ctx context.Context, accountID int64) (bool, error)
	Release(ctx context.Context, accountID int64) error
	Refresh(ctx context.Context, accountID int64) error
}

const presenceKeyPrefix = "choria:online:"

func presenceKey(accountID int64) string {
	return presenceKeyPrefix + strconv.FormatInt(accountID, 10)
}

// RedisPresence SETNX + TTL，value 是本进程的 owner，进程崩溃后靠 TTL 自然过期。
type RedisPresence struct {
	client *goredis.Client
	owner  string
	ttl    time.Duration
}

// 只删除/续期自己持有的 key
var (
	releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)
	refreshScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)
)

func NewRedisPresence(client *goredis.Client, owner string, ttl time.Duration) *RedisPresence {
	if ttl <= 0 {
		ttl = 90 * time.Second
	}
	return &RedisPresence{client: client, owner: owner, ttl: ttl}
}

func (p *RedisPresence) TTL() time.Duration { return p.ttl }

func (p *RedisPresence) Acquire(ctx context.Context, accountID int64) (bool, error) {
	ok, err := p.client.SetNX(ctx, presenceKey(accountID), p.owner, p.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("presence acquire %d: %w", accountID, err)
	}
	return ok, nil
}

func (p *RedisPresence) Release(ctx context.Context, accountID int64) error {
	if err := releaseScript.Run(ctx, p.client, []string{presenceKey(accountID)}, p.owner).Err(); err != nil {
		return fmt.Errorf("presence release %d: %w", accountID, err)
	}
	return nil
}

func (p *RedisPresence) Refresh(ctx context.Context, accountID int64) error {
	err := refreshScript.Run(ctx, p.client, []string{presenceKey(accountID)}, p.owner, p.ttl.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("presence refresh %d: %w", accountID, err)
	}
	return nil
}

// LocalPresence 没配 redis 时的单进程实现。
type LocalPresence struct {
	mu     sync.Mutex
	online map[int64]struct{}
}

func NewLocalPresence() *LocalPresence {
	return &LocalPresence{online: make(map[int64]struct{})}
}

func (p *LocalPresence) Acquire(_ context.Context, accountID int64) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.online[accountID]; ok {
		return false, nil
	}
	p.online[accountID] = struct{}{}
	return true, nil
}

func (p *LocalPresence) Release(_ context.Context, accountID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.online, accountID)
	return nil
}

func (p *LocalPresence) Refresh(context.Context, int64) error { return nil }
