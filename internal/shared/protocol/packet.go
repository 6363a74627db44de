package protocol

import (
	"encoding/binary"
	"math"
)

// Packet 写缓冲。第一个字节是 opcode，没有整体长度前缀，一个包就是传输层的一个报文。
//
// bit 按 LSB-first 顺序塞进当前的 bit 字节；任何非 bit 写入都会先对齐到下一个字节。
type Packet struct {
	buf      []byte
	bitByte  int
	bitIndex uint8
}

func NewPacket(op Opcode) *Packet {
	buf := make([]byte, 1, 64)
	buf[0] = byte(op)
	return &Packet{buf: buf}
}

func (p *Packet) Opcode() Opcode { return Opcode(p.buf[0]) }

// Bytes 返回底层切片，发送后不要再写。
func (p *Packet) Bytes() []byte { return p.buf }

func (p *Packet) Len() int { return len(p.buf) }

func (p *Packet) WriteBit(v bool) *Packet {
	if p.bitIndex == 0 {
		p.buf = append(p.buf, 0)
		p.bitByte = len(p.buf) - 1
	}
	if v {
		p.buf[p.bitByte] |= 1 << p.bitIndex
	}
	p.bitIndex = (p.bitIndex + 1) & 7
	return p
}

func (p *Packet) WriteUint8(v uint8) *Packet {
	p.align()
	p.buf = append(p.buf, v)
	return p
}

// WriteInt8 -1 之类的“空”标记按补码写成 0xFF。
func (p *Packet) WriteInt8(v int8) *Packet {
	return p.WriteUint8(uint8(v))
}

func (p *Packet) WriteInt32(v int32) *Packet {
	p.align()
	p.buf = binary.LittleEndian.AppendUint32(p.buf, uint32(v))
	return p
}

func (p *Packet) WriteUint32(v uint32) *Packet {
	p.align()
	p.buf = binary.LittleEndian.AppendUint32(p.buf, v)
	return p
}

func (p *Packet) WriteFloat32(v float32) *Packet {
	return p.WriteUint32(math.Float32bits(v))
}

// WriteString 原样写入再补一个 0 结尾。
func (p *Packet) WriteString(s string) *Packet {
	p.align()
	p.buf = append(p.buf, s...)
	p.buf = append(p.buf, 0)
	return p
}

func (p *Packet) align() { p.bitIndex = 0 }
