package container

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mhyunpack/internal/codec"
	"mhyunpack/internal/scramble"
	"mhyunpack/internal/scramble/scrambletest"
)

type countingCipher struct {
	Cipher
	calls int
}

func (c *countingCipher) Descramble(buf []byte, l scramble.Layout, newEnvelope bool) error {
	c.calls++
	return c.Cipher.Descramble(buf, l, newEnvelope)
}

func TestSmallBlockRejectedBeforeCipher(t *testing.T) {
	w := &Writer{Cipher: scrambletest.Engine(), Generation: GenMhy0, Codec: codec.LZ4{}}
	table := encodeMhyTable(
		[]Entry{{Path: "a.txt", Offset: 0, Size: 5}},
		[]Block{{CompressedSize: 15, UncompressedSize: 5}},
	)
	info, err := w.mhyInfo(scramble.Mhy0, table)
	require.NoError(t, err)

	raw := append([]byte(SignatureMhy0), binary.LittleEndian.AppendUint32(nil, uint32(len(info)))...)
	raw = append(raw, info...)
	raw = append(raw, bytes.Repeat([]byte{0xaa}, 15)...)

	cipher := &countingCipher{Cipher: scrambletest.Engine()}
	_, err = Decode(bytes.NewReader(raw), "small.blk", Config{Cipher: cipher})
	require.ErrorIs(t, err, ErrFormat)

	var be *BlockError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 0, be.Index)
	// only the block-info table went through the cipher
	assert.Equal(t, 1, cipher.calls)
}

func TestEntryFailureKeepsSiblings(t *testing.T) {
	w := &Writer{Cipher: scrambletest.Engine(), Generation: GenMhy1, Codec: codec.LZ4{}}
	stream := []byte("hello, container")
	raw, err := w.packMhy(stream, []Entry{
		{Path: "good.txt", Offset: 0, Size: 5},
		{Path: "bad.txt", Offset: 10, Size: 50},
		{Path: "tail.txt", Offset: 7, Size: 9},
	})
	require.NoError(t, err)

	b, err := Decode(bytes.NewReader(raw), "partial.blk", Config{Cipher: scrambletest.Engine()})
	require.NoError(t, err)
	defer b.Close()

	require.Len(t, b.Files, 2)
	assert.Equal(t, "good.txt", b.Files[0].Path)
	assert.Equal(t, "tail.txt", b.Files[1].Path)
	got, err := b.Files[1].ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []byte("container"), got)

	require.Len(t, b.Failures, 1)
	assert.Equal(t, "bad.txt", b.Failures[0].Path)
	require.ErrorIs(t, b.Err(), ErrFormat)
}

func TestFieldReaderVarints(t *testing.T) {
	var buf []byte
	for _, v := range []uint64{0, 1, 127, 128, 300, 1 << 28, 1<<32 - 1} {
		buf = binary.AppendUvarint(buf, v)
	}
	r := newFieldReader(buf)
	for _, want := range []uint32{0, 1, 127, 128, 300, 1 << 28, 1<<32 - 1} {
		assert.Equal(t, want, r.uvarint("value"))
	}
	require.NoError(t, r.err)

	r = newFieldReader(binary.AppendUvarint(nil, 1<<35))
	r.uvarint("value")
	require.ErrorIs(t, r.err, ErrFormat)

	r = newFieldReader([]byte{0x80, 0x80})
	r.uvarint("value")
	require.ErrorIs(t, r.err, ErrFormat)
}

func TestFieldReaderStrings(t *testing.T) {
	buf := appendString(nil, "CAB-0001")
	buf = append(buf, "plain\x00"...)
	r := newFieldReader(buf)
	assert.Equal(t, "CAB-0001", r.str("path"))
	assert.Equal(t, "plain", r.cstring("path"))
	require.NoError(t, r.err)

	r = newFieldReader([]byte{10, 'a'})
	assert.Empty(t, r.str("path"))
	require.ErrorIs(t, r.err, ErrFormat)
}

func TestScratchIsCleared(t *testing.T) {
	p := getScratch(32)
	for i := range *p {
		(*p)[i] = 0xff
	}
	putScratch(p)
	q := getScratch(16)
	assert.Len(t, *q, 16)
	assert.Equal(t, make([]byte, 16), *q)
	putScratch(q)
}
