package container

import (
	"bytes"
	"encoding/binary"
	"math"
)

// maxVarintLen bounds the variable-width integers of the block-info table
const maxVarintLen = 5

// fieldReader walks a decoded table. The first failure sticks; later reads return zero.
type fieldReader struct {
	buf []byte
	pos int
	err error
}

func newFieldReader(buf []byte) *fieldReader {
	return &fieldReader{buf: buf}
}

func (r *fieldReader) fail(format string, args ...any) {
	if r.err == nil {
		r.err = formatErr(format, args...)
	}
}

func (r *fieldReader) take(n int, what string) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.pos+n > len(r.buf) {
		r.fail("%s: need %d bytes at %d, have %d", what, n, r.pos, len(r.buf)-r.pos)
		return nil
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *fieldReader) u8(what string) uint8 {
	if b := r.take(1, what); b != nil {
		return b[0]
	}
	return 0
}

func (r *fieldReader) bool(what string) bool { return r.u8(what) != 0 }

func (r *fieldReader) u32(what string) uint32 {
	if b := r.take(4, what); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (r *fieldReader) i32(what string) int32 { return int32(r.u32(what)) }

func (r *fieldReader) i64(what string) int64 {
	if b := r.take(8, what); b != nil {
		return int64(binary.LittleEndian.Uint64(b))
	}
	return 0
}

// uvarint reads an unsigned LEB128 value of at most five bytes
func (r *fieldReader) uvarint(what string) uint32 {
	if r.err != nil {
		return 0
	}
	v, n := binary.Uvarint(r.buf[r.pos:])
	switch {
	case n == 0:
		r.fail("%s: truncated varint at %d", what, r.pos)
		return 0
	case n < 0 || n > maxVarintLen || v > math.MaxUint32:
		r.fail("%s: varint overflow at %d", what, r.pos)
		return 0
	}
	r.pos += n
	return uint32(v)
}

// count reads a non-negative element count that must fit in the remaining bytes
func (r *fieldReader) count(what string) int {
	n := int(r.uvarint(what))
	if r.err == nil && n > len(r.buf)-r.pos {
		r.fail("%s: count %d exceeds table size", what, n)
		return 0
	}
	return n
}

func (r *fieldReader) str(what string) string {
	n := r.uvarint(what)
	return string(r.take(int(n), what))
}

func (r *fieldReader) align(n int) {
	if rem := r.pos % n; rem != 0 && r.err == nil {
		r.take(n-rem, "alignment")
	}
}

func (r *fieldReader) seek(pos int64, what string) {
	if r.err != nil {
		return
	}
	if pos < 0 || pos > int64(len(r.buf)) {
		r.fail("%s: offset %d outside table of %d bytes", what, pos, len(r.buf))
		return
	}
	r.pos = int(pos)
}

// relative reads an i64 offset measured from the position it was stored at
func (r *fieldReader) relative(what string) int64 {
	base := int64(r.pos)
	return base + r.i64(what)
}

func (r *fieldReader) cstring(what string) string {
	if r.err != nil {
		return ""
	}
	end := bytes.IndexByte(r.buf[r.pos:], 0)
	if end < 0 {
		r.fail("%s: unterminated string at %d", what, r.pos)
		return ""
	}
	s := string(r.buf[r.pos : r.pos+end])
	r.pos += end + 1
	return s
}

// appendString is the writer side of fieldReader.str
func appendString(b []byte, s string) []byte {
	b = binary.AppendUvarint(b, uint64(len(s)))
	return append(b, s...)
}
