package protocol

import (
	"bytes"
	"encoding/binary"
	"math"

	"choria/modules/kit/errx"
)

// ErrFraming 包体越界、字符串没有结尾或超长。对该连接是致命错误。
var ErrFraming = errx.ErrFraming

// Reader 读游标。出错后保持第一个错误，后续读取都返回零值，
// handler 读完所有字段后检查一次 Err 即可。
type Reader struct {
	buf      []byte
	pos      int
	bitByte  byte
	bitIndex uint8
	err      error
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Opcode 读第一个字节。
func (r *Reader) Opcode() Opcode {
	return Opcode(r.ReadUint8())
}

func (r *Reader) Err() error { return r.err }

func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

func (r *Reader) ReadBit() bool {
	if r.err != nil {
		return false
	}
	if r.bitIndex == 0 {
		if r.pos >= len(r.buf) {
			r.fail("ReadBit", 1)
			return false
		}
		r.bitByte = r.buf[r.pos]
		r.pos++
	}
	v := r.bitByte>>r.bitIndex&1 == 1
	r.bitIndex = (r.bitIndex + 1) & 7
	return v
}

func (r *Reader) ReadUint8() uint8 {
	if !r.need("ReadUint8", 1) {
		return 0
	}
	v := r.buf[r.pos]
	r.pos++
	return v
}

func (r *Reader) ReadInt8() int8 {
	return int8(r.ReadUint8())
}

func (r *Reader) ReadInt32() int32 {
	return int32(r.readUint32("ReadInt32"))
}

func (r *Reader) ReadUint32() uint32 {
	return r.readUint32("ReadUint32")
}

func (r *Reader) ReadFloat32() float32 {
	return math.Float32frombits(r.readUint32("ReadFloat32"))
}

// ReadString max 是调用方允许的最大字节数（不含结尾 0）。
func (r *Reader) ReadString(max int) string {
	if r.err != nil {
		return ""
	}
	r.align()
	end := bytes.IndexByte(r.buf[r.pos:], 0)
	if end < 0 {
		r.fail("ReadString", r.Remaining()+1)
		return ""
	}
	if end > max {
		r.fail("ReadString", end)
		return ""
	}
	s := string(r.buf[r.pos : r.pos+end])
	r.pos += end + 1
	return s
}

func (r *Reader) readUint32(op string) uint32 {
	if !r.need(op, 4) {
		return 0
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v
}

func (r *Reader) need(op string, n int) bool {
	if r.err != nil {
		return false
	}
	r.align()
	if r.pos+n > len(r.buf) {
		r.fail(op, n)
		return false
	}
	return true
}

func (r *Reader) align() { r.bitIndex = 0 }

func (r *Reader) fail(op string, want int) {
	if r.err != nil {
		return
	}
	r.err = ErrFraming.WithDataMap(map[string]any{
		"op":     op,
		"offset": r.pos,
		"want":   want,
		"len":    len(r.buf),
	})
}
