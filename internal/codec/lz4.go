package codec

import (
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// LZ4 is the raw LZ4 block format (no frame header)
type LZ4 struct{}

func (LZ4) Name() string { return NameLZ4 }

func (LZ4) Decompress(src, dst []byte) (int, error) {
	if len(dst) == 0 && (len(src) == 0 || (len(src) == 1 && src[0] == 0)) {
		return 0, nil
	}
	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		return 0, fmt.Errorf("lz4: %w", err)
	}
	return n, nil
}

// Compress always returns a decodable block: input the compressor gives up on
// is stored as a single literal run.
func (LZ4) Compress(src []byte) ([]byte, error) {
	if len(src) == 0 {
		return []byte{0}, nil
	}
	dst := make([]byte, lz4.CompressBlockBound(len(src)))
	n, err := lz4.CompressBlock(src, dst, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4: %w", err)
	}
	if n == 0 || n >= len(src)+1 {
		return LiteralBlock(src), nil
	}
	return dst[:n], nil
}

// LiteralBlock encodes src as one LZ4 sequence without a match
func LiteralBlock(src []byte) []byte {
	out := make([]byte, 0, len(src)+len(src)/255+2)
	n := len(src)
	if n < 15 {
		out = append(out, byte(n<<4))
	} else {
		out = append(out, 0xf0)
		rest := n - 15
		for rest >= 255 {
			out = append(out, 255)
			rest -= 255
		}
		out = append(out, byte(rest))
	}
	return append(out, src...)
}
