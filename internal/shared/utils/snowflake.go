package utils

import (
	"fmt"
	"sync"
	"time"
)

const (
	// 2026-01-01 00:00:00 UTC，毫秒
	snowflakeEpochMilli int64 = 1767225600000

	nodeBits uint8 = 10
	seqBits  uint8 = 12

	maxNodeID int64 = -1 ^ (-1 << nodeBits)
	maxSeq    int64 = -1 ^ (-1 << seqBits)
)

// Snowflake ID 生成器，连接 peer_id 和 mongo 角色主键都用它。进程重启后不会和旧 id 撞上。
type Snowflake struct {
	mu     sync.Mutex
	nodeID int64
	lastTS int64
	seq    int64
	now    func() time.Time
}

func NewSnowflake(nodeID int64) (*Snowflake, error) {
	if nodeID < 0 || nodeID > maxNodeID {
		return nil, fmt.Errorf("snowflake node id out of range: %d", nodeID)
	}
	return &Snowflake{nodeID: nodeID, now: time.Now}, nil
}

func (s *Snowflake) NextID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now().UnixMilli()
	// 时钟回拨不回退
	if ts < s.lastTS {
		ts = s.lastTS
	}
	if ts == s.lastTS {
		s.seq = (s.seq + 1) & maxSeq
		if s.seq == 0 {
			// 同一毫秒用完序号，借用下一毫秒
			ts++
		}
	} else {
		s.seq = 0
	}
	s.lastTS = ts
	return ((ts - snowflakeEpochMilli) << (nodeBits + seqBits)) | (s.nodeID << seqBits) | s.seq
}
