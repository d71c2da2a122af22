// Package dist encodes timer and break state for peers and applies what
// peers send back.
package dist

import (
	"encoding/binary"
	"errors"
)

// ErrShortBuffer is returned when a read runs past the end of the data.
var ErrShortBuffer = errors.New("packet too short")

// Buffer accumulates big-endian fields.
type Buffer struct {
	b []byte
}

func (p *Buffer) PackByte(v uint8) {
	p.b = append(p.b, v)
}

func (p *Buffer) PackBool(v bool) {
	if v {
		p.PackByte(1)
		return
	}

	p.PackByte(0)
}

func (p *Buffer) PackUshort(v uint16) {
	p.b = binary.BigEndian.AppendUint16(p.b, v)
}

func (p *Buffer) PackUlong(v uint32) {
	p.b = binary.BigEndian.AppendUint32(p.b, v)
}

// PackString writes a 16-bit length followed by the bytes of s.
func (p *Buffer) PackString(s string) {
	p.PackUshort(uint16(len(s)))
	p.b = append(p.b, s...)
}

// Reserve writes a placeholder ushort and returns its position for Poke.
func (p *Buffer) Reserve() int {
	pos := len(p.b)
	p.PackUshort(0)

	return pos
}

// Poke overwrites the ushort at pos.
func (p *Buffer) Poke(pos int, v uint16) {
	binary.BigEndian.PutUint16(p.b[pos:], v)
}

// CloseRecord fills the length reserved at pos with the number of bytes
// written after it.
func (p *Buffer) CloseRecord(pos int) {
	p.Poke(pos, uint16(len(p.b)-pos-2))
}

func (p *Buffer) Len() int {
	return len(p.b)
}

func (p *Buffer) Bytes() []byte {
	return p.b
}

// Reader consumes big-endian fields. The first short read makes every later
// read return zero and Err return ErrShortBuffer.
type Reader struct {
	b   []byte
	off int
	err error
}

func NewReader(b []byte) *Reader {
	return &Reader{b: b}
}

func (r *Reader) Err() error {
	return r.err
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	if r.err != nil {
		return 0
	}

	return len(r.b) - r.off
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}

	if n > len(r.b)-r.off {
		r.err = ErrShortBuffer
		return nil
	}

	b := r.b[r.off : r.off+n]
	r.off += n

	return b
}

func (r *Reader) Byte() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}

	return b[0]
}

func (r *Reader) Bool() bool {
	return r.Byte() != 0
}

func (r *Reader) Ushort() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}

	return binary.BigEndian.Uint16(b)
}

func (r *Reader) Ulong() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}

	return binary.BigEndian.Uint32(b)
}

// Str reads a string written by PackString.
func (r *Reader) Str() string {
	n := r.Ushort()

	return string(r.take(int(n)))
}

// Record reads a 16-bit length and returns a reader over that many bytes.
func (r *Reader) Record() *Reader {
	n := r.Ushort()
	b := r.take(int(n))

	if r.err != nil {
		return &Reader{err: r.err}
	}

	return &Reader{b: b}
}

// OptUshort reads a ushort if enough bytes are left and returns zero
// otherwise. Records from older peers may be shorter than the current
// layout.
func (r *Reader) OptUshort() uint16 {
	if r.Remaining() < 2 {
		return 0
	}

	return r.Ushort()
}

// OptUlong is the ulong counterpart of OptUshort.
func (r *Reader) OptUlong() uint32 {
	if r.Remaining() < 4 {
		return 0
	}

	return r.Ulong()
}

// OptByte is the byte counterpart of OptUshort.
func (r *Reader) OptByte() uint8 {
	if r.Remaining() < 1 {
		return 0
	}

	return r.Byte()
}
