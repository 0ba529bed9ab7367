package container

import (
	"fmt"
	"path"
	"strings"

	"mhyunpack/internal/scramble"
)

// Generation is the envelope layout selected by the leading signature
type Generation int

const (
	GenMhy0 Generation = iota
	GenMhy1
	GenBlb3
)

// Signature literals, four bytes each
const (
	SignatureMhy0 = "mhy0"
	SignatureMhy1 = "mhy1"
	SignatureBlb3 = "Blb\x03"
)

const signatureSize = 4

// mhyFlags is the archive flag word every mhy container reports
const mhyFlags = 0x43

// minBlockSize is the smallest storage block the cipher can process
const minBlockSize = 16

func (g Generation) String() string {
	switch g {
	case GenMhy0:
		return SignatureMhy0
	case GenMhy1:
		return SignatureMhy1
	case GenBlb3:
		return "Blb3"
	}
	return fmt.Sprintf("Generation(%d)", int(g))
}

// envelope maps mhy generations onto the cipher layouts
func (g Generation) envelope() scramble.Envelope {
	if g == GenMhy0 {
		return scramble.Mhy0
	}
	return scramble.Mhy1
}

// ParseSignature selects the generation for a raw 4-byte signature
func ParseSignature(sig []byte) (Generation, error) {
	switch string(sig) {
	case SignatureMhy0:
		return GenMhy0, nil
	case SignatureMhy1:
		return GenMhy1, nil
	case SignatureBlb3:
		return GenBlb3, nil
	}
	return 0, formatErr("unrecognized signature %q", sig)
}

// Header is the envelope metadata, immutable once the block-info table is decoded
type Header struct {
	Signature                 string
	Generation                Generation
	CompressedBlockInfoSize   uint32
	UncompressedBlockInfoSize uint32
	Flags                     uint32
}

// Compression is the per-block algorithm tag carried by Blb3 containers
type Compression uint32

const (
	CompressionNone Compression = iota
	CompressionOodle
	CompressionLZMA
	CompressionLZ4
	CompressionLZ4HC
)

// mhy blocks declare LZ4 in their flags even when the payload is Oodle
const compressionMask = 0x3f

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionOodle:
		return "oodle"
	case CompressionLZMA:
		return "lzma"
	case CompressionLZ4:
		return "lz4"
	case CompressionLZ4HC:
		return "lz4hc"
	}
	return fmt.Sprintf("Compression(%d)", uint32(c))
}

// Block is one physical storage block
type Block struct {
	CompressedSize   uint32
	UncompressedSize uint32
	Flags            uint32
}

func (b Block) Compression() Compression { return Compression(b.Flags & compressionMask) }

// Entry locates one logical file inside the reassembled block stream
type Entry struct {
	Path   string
	Offset int64
	Size   int64
	Flags  uint32
}

// FileName is the last element of the entry path
func (e Entry) FileName() string {
	return path.Base(strings.ReplaceAll(e.Path, "\\", "/"))
}

func (e Entry) String() string {
	return fmt.Sprintf("%s [offset=%d size=%d flags=%#x]", e.Path, e.Offset, e.Size, e.Flags)
}
