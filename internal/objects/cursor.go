// Package objects decodes serialized engine objects whose layout depends on the
// engine version and the game variant.
//
// Reads go through Cursor, an immutable position in an object's bytes. Every read
// returns the value and the advanced cursor, so schema functions are pure transforms
// from one cursor to the next. A read past the end records ErrShortRead on the
// returned cursor; later reads return zero values and leave the cursor unchanged.
package objects

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"mhyunpack/internal/container"
	"mhyunpack/internal/game"
)

var (
	// ErrShortRead means a read ran past the end of the object data
	ErrShortRead = fmt.Errorf("%w: read past end of object data", container.ErrFormat)
	// ErrUnsupportedKind means no schema is registered for the declared type
	ErrUnsupportedKind = errors.New("unsupported object kind")
	// ErrUnsupportedVersion means no schema branch covers the version and variant
	ErrUnsupportedVersion = errors.New("unsupported version")
)

// Cursor is a read position over one object's bytes plus the session context
// that selects field layouts.
type Cursor struct {
	buf      []byte
	pos      int
	version  game.Version
	variant  game.Variant
	typeHash string
	err      error
}

// NewCursor starts at the beginning of buf
func NewCursor(buf []byte, version game.Version, variant game.Variant) Cursor {
	return Cursor{buf: buf, version: version, variant: variant}
}

// WithTypeHash attaches the serialized type hash some variant branches test
func (c Cursor) WithTypeHash(hash string) Cursor {
	c.typeHash = hash
	return c
}

func (c Cursor) Version() game.Version { return c.version }
func (c Cursor) Variant() game.Variant { return c.variant }
func (c Cursor) TypeHash() string      { return c.typeHash }
func (c Cursor) Pos() int              { return c.pos }
func (c Cursor) Len() int              { return len(c.buf) }
func (c Cursor) Remaining() int        { return len(c.buf) - c.pos }
func (c Cursor) Err() error            { return c.err }

// Seek moves to an absolute position
func (c Cursor) Seek(pos int) Cursor {
	if c.err != nil {
		return c
	}
	if pos < 0 || pos > len(c.buf) {
		c.err = fmt.Errorf("%w: seek to %d of %d", ErrShortRead, pos, len(c.buf))
		return c
	}
	c.pos = pos
	return c
}

// Skip advances n bytes
func (c Cursor) Skip(n int) Cursor {
	_, c = c.take(n)
	return c
}

// Align advances to the next multiple of n
func (c Cursor) Align(n int) Cursor {
	if rem := c.pos % n; rem != 0 {
		return c.Skip(n - rem)
	}
	return c
}

func (c Cursor) take(n int) ([]byte, Cursor) {
	if c.err != nil {
		return nil, c
	}
	if n < 0 || n > len(c.buf)-c.pos {
		c.err = fmt.Errorf("%w: need %d bytes at %d of %d", ErrShortRead, n, c.pos, len(c.buf))
		return nil, c
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, c
}

func (c Cursor) U8() (uint8, Cursor) {
	b, c := c.take(1)
	if b == nil {
		return 0, c
	}
	return b[0], c
}

func (c Cursor) I8() (int8, Cursor) {
	v, c := c.U8()
	return int8(v), c
}

func (c Cursor) Bool() (bool, Cursor) {
	v, c := c.U8()
	return v != 0, c
}

func (c Cursor) U16() (uint16, Cursor) {
	b, c := c.take(2)
	if b == nil {
		return 0, c
	}
	return binary.LittleEndian.Uint16(b), c
}

func (c Cursor) I16() (int16, Cursor) {
	v, c := c.U16()
	return int16(v), c
}

func (c Cursor) U32() (uint32, Cursor) {
	b, c := c.take(4)
	if b == nil {
		return 0, c
	}
	return binary.LittleEndian.Uint32(b), c
}

func (c Cursor) I32() (int32, Cursor) {
	v, c := c.U32()
	return int32(v), c
}

func (c Cursor) U64() (uint64, Cursor) {
	b, c := c.take(8)
	if b == nil {
		return 0, c
	}
	return binary.LittleEndian.Uint64(b), c
}

func (c Cursor) I64() (int64, Cursor) {
	v, c := c.U64()
	return int64(v), c
}

func (c Cursor) F32() (float32, Cursor) {
	v, c := c.U32()
	return math.Float32frombits(v), c
}

func (c Cursor) F64() (float64, Cursor) {
	v, c := c.U64()
	return math.Float64frombits(v), c
}

// count reads an i32 element count no larger than the bytes left
func (c Cursor) count(elemSize int) (int, Cursor) {
	n, c := c.I32()
	if c.err != nil {
		return 0, c
	}
	if n < 0 || int(n) > c.Remaining()/max(elemSize, 1) {
		c.err = fmt.Errorf("%w: %d elements at %d of %d", ErrShortRead, n, c.pos, len(c.buf))
		return 0, c
	}
	return int(n), c
}

// Bytes reads an i32 length followed by that many bytes
func (c Cursor) Bytes() ([]byte, Cursor) {
	n, c := c.count(1)
	b, c := c.take(n)
	if b == nil {
		return nil, c
	}
	return append([]byte(nil), b...), c
}

// AlignedString reads an i32 length and UTF-8 bytes, then aligns to 4
func (c Cursor) AlignedString() (string, Cursor) {
	n, c := c.count(1)
	b, c := c.take(n)
	return string(b), c.Align(4)
}

// Array reads an i32 count followed by that many elements
func Array[T any](c Cursor, read func(Cursor) (T, Cursor)) ([]T, Cursor) {
	n, c := c.count(1)
	if c.err != nil {
		return nil, c
	}
	out := make([]T, 0, n)
	for range n {
		var v T
		v, c = read(c)
		if c.err != nil {
			return nil, c
		}
		out = append(out, v)
	}
	return out, c
}

// Fixed reads exactly n elements without a count prefix
func Fixed[T any](c Cursor, n int, read func(Cursor) (T, Cursor)) ([]T, Cursor) {
	out := make([]T, n)
	for i := range out {
		out[i], c = read(c)
	}
	return out, c
}
