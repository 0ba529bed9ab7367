package container

import (
	"encoding/binary"
	"fmt"

	"mhyunpack/internal/codec"
)

// blbKeySize is the length of the plaintext header key that keys every Blb3 decrypt
const blbKeySize = 16

// blbVersion is the format word following the header size
const blbVersion = 5

type blbHeader struct {
	Version   uint32
	Key       []byte
	BlockPow  uint8
	Kind      Compression
	LastSize  uint32
	BlobOff   int32
	BlobSize  uint32
	TableSize uint32
}

func (d *Decoder) readBlbHeader() error {
	var fixed [8 + blbKeySize]byte
	if err := d.readFull(fixed[:], "Blb3 header"); err != nil {
		return err
	}
	d.header.CompressedBlockInfoSize = binary.LittleEndian.Uint32(fixed[0:4])
	d.blb = &blbHeader{
		Version: binary.LittleEndian.Uint32(fixed[4:8]),
		Key:     append([]byte(nil), fixed[8:]...),
	}
	d.header.Flags = d.blb.Version
	return nil
}

// decodeBlbInfo parses the decrypted Blb3 table. Offsets inside it are stored relative to
// the position of the offset field itself.
func (d *Decoder) decodeBlbInfo(raw []byte) error {
	if len(raw) < minBlockSize {
		return formatErr("Blb3 table of %d bytes", len(raw))
	}
	if err := d.cfg.Cipher.DecryptBlock(raw, d.blb.Key); err != nil {
		return cipherErr("Blb3 table", err)
	}

	r := newFieldReader(raw)
	h := d.blb
	h.TableSize = r.u32("table size")
	h.LastSize = r.u32("last block size")
	r.take(4, "reserved")
	h.BlobOff = r.i32("blob offset")
	h.BlobSize = r.u32("blob size")
	h.Kind = Compression(r.u8("compression"))
	h.BlockPow = r.u8("block size exponent")
	r.align(4)
	blockCount := r.i32("block count")
	nodeCount := r.i32("node count")
	blocksAt := r.relative("block table offset")
	nodesAt := r.relative("node table offset")
	flagsAt := r.relative("flag table offset")
	if r.err != nil {
		return r.err
	}
	if blockCount < 0 || nodeCount < 0 || h.BlockPow > 31 {
		return formatErr("Blb3 counts %d/%d, block exponent %d", blockCount, nodeCount, h.BlockPow)
	}
	d.header.UncompressedBlockInfoSize = h.TableSize

	blocks := make([]Block, 0, min(int(blockCount), len(raw)/4))
	r.seek(blocksAt, "block table")
	for i := range int(blockCount) {
		size := uint32(1) << h.BlockPow
		if i == int(blockCount)-1 {
			size = h.LastSize
		}
		blocks = append(blocks, Block{
			CompressedSize:   r.u32("cumulative block size"),
			UncompressedSize: size,
			Flags:            uint32(h.Kind),
		})
		if r.err != nil {
			return r.err
		}
	}
	// sizes are stored cumulatively; blocks after the first that did not shrink are stored raw
	for i := len(blocks) - 1; i > 0; i-- {
		if blocks[i].CompressedSize < blocks[i-1].CompressedSize {
			return formatErr("Blb3 block %d: cumulative size decreases", i)
		}
		blocks[i].CompressedSize -= blocks[i-1].CompressedSize
		if blocks[i].CompressedSize == blocks[i].UncompressedSize {
			blocks[i].Flags = uint32(CompressionNone)
		}
	}

	var flags [2]uint32
	r.seek(flagsAt, "flag table")
	flags[0] = r.u32("flag word")
	if nodeCount > 32 {
		flags[1] = r.u32("flag word")
	}

	entries := make([]Entry, 0, min(int(nodeCount), len(raw)/16))
	r.seek(nodesAt, "node table")
	for i := range int(nodeCount) {
		e := Entry{
			Offset: int64(r.i32("node offset")),
			Size:   int64(r.i32("node size")),
		}
		word := flags[0]
		if i >= 32 {
			word = flags[1]
		}
		if word&(1<<(uint(i)&31)) != 0 {
			e.Flags = 4
		}
		pathAt := r.relative("node path offset")
		next := r.pos
		r.seek(pathAt, "node path")
		e.Path = r.cstring("node path")
		r.seek(int64(next), "node table")
		if r.err != nil {
			return r.err
		}
		entries = append(entries, e)
	}

	d.entries, d.blocks = entries, blocks
	return nil
}

func (d *Decoder) decodeBlbBlock(b Block, src, dst []byte) error {
	if err := d.cfg.Cipher.DecryptBlock(src, d.blb.Key); err != nil {
		return cipherErr("Blb3 block", err)
	}

	kind := b.Compression()
	if kind == CompressionNone {
		if len(src) != len(dst) {
			return formatErr("stored block of %d bytes declares %d", len(src), len(dst))
		}
		copy(dst, src)
		return nil
	}

	name, err := codecName(kind)
	if err != nil {
		return err
	}
	c, ok := d.adapter.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", codec.ErrUnknownCodec, name)
	}
	n, err := c.Decompress(src, dst)
	if err != nil {
		return fmt.Errorf("%w: %w", codec.ErrDecompress, err)
	}
	if n != len(dst) {
		return fmt.Errorf("%w: %s wrote %d bytes, expected %d", codec.ErrSizeMismatch, name, n, len(dst))
	}
	return nil
}

func codecName(kind Compression) (string, error) {
	switch kind {
	case CompressionOodle:
		return codec.NameOodle, nil
	case CompressionLZMA:
		return codec.NameLZMA, nil
	case CompressionLZ4, CompressionLZ4HC:
		return codec.NameLZ4, nil
	}
	return "", formatErr("unknown compression kind %d", uint32(kind))
}
