package container

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"mhyunpack/internal/codec"
	"mhyunpack/internal/scramble"
)

// Scrambler is the producer side of Cipher. *scramble.Engine implements it.
type Scrambler interface {
	Scramble(buf []byte, l scramble.Layout, newEnvelope bool) error
	EncryptBlock(buf, header []byte) error
}

// File is one payload to pack
type File struct {
	Path  string
	Data  []byte
	Flags uint32
}

// Writer packs files into a container, the inverse of Decode
type Writer struct {
	Cipher      Scrambler
	Generation  Generation
	NewEnvelope bool
	// Codec compresses every block; LZ4 when nil
	Codec codec.Codec
	// BlockSize is the uncompressed size of mhy blocks
	BlockSize int
	// BlockPow sets the Blb3 block size to 1<<BlockPow
	BlockPow uint8
	// HeaderKey is the plaintext Blb3 key
	HeaderKey []byte
}

const (
	defaultBlockSize = 128 << 10
	defaultBlockPow  = 17
	// mhy1 block-info must cover the keyed tail of its 28-byte entries
	minMhy1InfoSize = 52
)

var errWriter = errors.New("cannot write container")

// Write packs files into dst
func (w *Writer) Write(dst io.Writer, files []File) error {
	if w.Cipher == nil {
		return fmt.Errorf("%w: no cipher configured", errWriter)
	}
	if w.Codec == nil {
		w.Codec = codec.LZ4{}
	}

	var stream bytes.Buffer
	entries := make([]Entry, 0, len(files))
	for _, f := range files {
		entries = append(entries, Entry{Path: f.Path, Offset: int64(stream.Len()), Size: int64(len(f.Data)), Flags: f.Flags})
		stream.Write(f.Data)
	}

	var out []byte
	var err error
	if w.Generation == GenBlb3 {
		out, err = w.packBlb3(stream.Bytes(), entries)
	} else {
		out, err = w.packMhy(stream.Bytes(), entries)
	}
	if err != nil {
		return err
	}
	if _, err := dst.Write(out); err != nil {
		return ioErr("write container", err)
	}
	return nil
}

// prefix returns the scrambled header area that precedes an mhy payload
func (w *Writer) prefix(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i*37 + 11)
	}
	if w.NewEnvelope {
		copy(p[4:], scramble.EnvelopeSignature)
	}
	return p
}

func (w *Writer) packMhy(stream []byte, entries []Entry) ([]byte, error) {
	env := w.Generation.envelope()
	blockSize := w.BlockSize
	if blockSize <= 0 {
		blockSize = defaultBlockSize
	}

	var blocks []Block
	var payload bytes.Buffer
	for start := 0; start < len(stream); start += blockSize {
		chunk := stream[start:min(start+blockSize, len(stream))]
		comp, err := w.Codec.Compress(chunk)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", len(blocks), err)
		}
		dataAt := scramble.BlockLayout(env, 0).DataOffset
		buf := append(w.prefix(dataAt), comp...)
		if len(buf) < minBlockSize {
			return nil, fmt.Errorf("%w: block %d is %d bytes, below the %d byte minimum", errWriter, len(blocks), len(buf), minBlockSize)
		}
		if err := w.Cipher.Scramble(buf, scramble.BlockLayout(env, len(buf)), w.NewEnvelope); err != nil {
			return nil, fmt.Errorf("block %d: %w", len(blocks), err)
		}
		payload.Write(buf)
		blocks = append(blocks, Block{CompressedSize: uint32(len(buf)), UncompressedSize: uint32(len(chunk))})
	}

	table := encodeMhyTable(entries, blocks)
	info, err := w.mhyInfo(env, table)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, 8+len(info)+payload.Len())
	out = append(out, w.Generation.String()...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(info)))
	out = append(out, info...)
	return append(out, payload.Bytes()...), nil
}

func encodeMhyTable(entries []Entry, blocks []Block) []byte {
	var t []byte
	t = binary.AppendUvarint(t, uint64(len(entries)))
	for _, e := range entries {
		t = appendString(t, e.Path)
		if e.Flags != 0 {
			t = append(t, 1)
		} else {
			t = append(t, 0)
		}
		t = binary.AppendUvarint(t, uint64(e.Offset))
		t = binary.AppendUvarint(t, uint64(e.Size))
	}
	t = binary.AppendUvarint(t, uint64(len(blocks)))
	for _, b := range blocks {
		t = binary.AppendUvarint(t, uint64(b.CompressedSize))
		t = binary.AppendUvarint(t, uint64(b.UncompressedSize))
	}
	return t
}

// mhyInfo compresses and scrambles the block-info table. Tables too short for the
// header cipher are padded after the block list, which readers ignore.
func (w *Writer) mhyInfo(env scramble.Envelope, table []byte) ([]byte, error) {
	need := minMhy1InfoSize
	if env == scramble.Mhy0 {
		need = scramble.HeaderLayout(env, 0).BlockSize
	}
	dataAt := scramble.HeaderLayout(env, 0).DataOffset

	for range 64 {
		comp, err := w.Codec.Compress(table)
		if err != nil {
			return nil, fmt.Errorf("block info: %w", err)
		}
		info := w.prefix(dataAt)
		info = binary.AppendUvarint(info, uint64(len(table)))
		info = append(info, comp...)
		if len(info) < need {
			for i := range need - len(info) {
				table = append(table, byte(i*131+7))
			}
			continue
		}
		if err := w.Cipher.Scramble(info, scramble.HeaderLayout(env, len(info)), w.NewEnvelope); err != nil {
			return nil, fmt.Errorf("block info: %w", err)
		}
		return info, nil
	}
	return nil, fmt.Errorf("%w: block info stays below %d bytes", errWriter, need)
}

func (w *Writer) compressionKind() (Compression, error) {
	switch w.Codec.Name() {
	case codec.NameLZ4:
		return CompressionLZ4, nil
	case codec.NameLZMA:
		return CompressionLZMA, nil
	case codec.NameOodle:
		return CompressionOodle, nil
	}
	return 0, fmt.Errorf("%w: codec %s has no Blb3 compression kind", errWriter, w.Codec.Name())
}

func (w *Writer) packBlb3(stream []byte, entries []Entry) ([]byte, error) {
	if len(w.HeaderKey) != blbKeySize {
		return nil, fmt.Errorf("%w: header key must be %d bytes, got %d", errWriter, blbKeySize, len(w.HeaderKey))
	}
	kind, err := w.compressionKind()
	if err != nil {
		return nil, err
	}
	pow := w.BlockPow
	if pow == 0 {
		pow = defaultBlockPow
	}
	blockSize := 1 << pow

	var blocks []Block
	var payload bytes.Buffer
	lastSize := 0
	for start := 0; start < len(stream); start += blockSize {
		chunk := stream[start:min(start+blockSize, len(stream))]
		lastSize = len(chunk)
		buf, err := w.Codec.Compress(chunk)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", len(blocks), err)
		}
		// the first block always carries the header compression kind
		if len(blocks) > 0 && len(buf) >= len(chunk) {
			buf = append([]byte(nil), chunk...)
		}
		if len(buf) < minBlockSize {
			return nil, fmt.Errorf("%w: block %d is %d bytes, below the %d byte minimum", errWriter, len(blocks), len(buf), minBlockSize)
		}
		if err := w.Cipher.EncryptBlock(buf, w.HeaderKey); err != nil {
			return nil, fmt.Errorf("block %d: %w", len(blocks), err)
		}
		payload.Write(buf)
		blocks = append(blocks, Block{CompressedSize: uint32(len(buf)), UncompressedSize: uint32(len(chunk))})
	}

	table := encodeBlbTable(kind, pow, uint32(lastSize), blocks, entries)
	if err := w.Cipher.EncryptBlock(table, w.HeaderKey); err != nil {
		return nil, fmt.Errorf("Blb3 table: %w", err)
	}

	out := make([]byte, 0, 8+blbKeySize+len(table)+payload.Len())
	out = append(out, SignatureBlb3...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(table)))
	out = binary.LittleEndian.AppendUint32(out, blbVersion)
	out = append(out, w.HeaderKey...)
	out = append(out, table...)
	return append(out, payload.Bytes()...), nil
}

func encodeBlbTable(kind Compression, pow uint8, lastSize uint32, blocks []Block, entries []Entry) []byte {
	le := binary.LittleEndian
	var t []byte
	t = le.AppendUint32(t, 0) // table size, patched below
	t = le.AppendUint32(t, lastSize)
	t = le.AppendUint32(t, 0)
	t = le.AppendUint32(t, 0) // blob offset
	t = le.AppendUint32(t, 0) // blob size
	t = append(t, byte(kind), pow, 0, 0)
	t = le.AppendUint32(t, uint32(len(blocks)))
	t = le.AppendUint32(t, uint32(len(entries)))

	blocksRel := len(t)
	t = le.AppendUint64(t, 0)
	nodesRel := len(t)
	t = le.AppendUint64(t, 0)
	flagsRel := len(t)
	t = le.AppendUint64(t, 0)

	blocksAt := len(t)
	var cum uint32
	for _, b := range blocks {
		cum += b.CompressedSize
		t = le.AppendUint32(t, cum)
	}

	nodesAt := len(t)
	pathRel := make([]int, len(entries))
	for i, e := range entries {
		t = le.AppendUint32(t, uint32(int32(e.Offset)))
		t = le.AppendUint32(t, uint32(int32(e.Size)))
		pathRel[i] = len(t)
		t = le.AppendUint64(t, 0)
	}

	flagsAt := len(t)
	words := make([]uint32, max(1, (len(entries)+31)/32))
	for i, e := range entries {
		if e.Flags != 0 {
			words[i/32] |= 1 << (uint(i) & 31)
		}
	}
	for _, word := range words {
		t = le.AppendUint32(t, word)
	}

	for i, e := range entries {
		le.PutUint64(t[pathRel[i]:], uint64(int64(len(t)-pathRel[i])))
		t = append(t, e.Path...)
		t = append(t, 0)
	}

	le.PutUint64(t[blocksRel:], uint64(int64(blocksAt-blocksRel)))
	le.PutUint64(t[nodesRel:], uint64(int64(nodesAt-nodesRel)))
	le.PutUint64(t[flagsRel:], uint64(int64(flagsAt-flagsRel)))
	le.PutUint32(t[0:], uint32(len(t)))
	return t
}
