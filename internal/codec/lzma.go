package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ulikunitz/xz/lzma"
)

// lzmaPropsSize is the properties prefix of an engine LZMA block: one properties byte
// followed by the little endian dictionary size. The uncompressed size is not stored.
const lzmaPropsSize = 5

// LZMA decodes engine LZMA blocks
type LZMA struct{}

func (LZMA) Name() string { return NameLZMA }

func (LZMA) Decompress(src, dst []byte) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if len(src) < lzmaPropsSize {
		return 0, fmt.Errorf("lzma: block of %d bytes has no properties", len(src))
	}
	// Rebuild the classic 13-byte header so the stream reader knows where to stop.
	header := make([]byte, lzmaPropsSize+8)
	copy(header, src[:lzmaPropsSize])
	binary.LittleEndian.PutUint64(header[lzmaPropsSize:], uint64(len(dst)))

	r, err := lzma.NewReader(io.MultiReader(bytes.NewReader(header), bytes.NewReader(src[lzmaPropsSize:])))
	if err != nil {
		return 0, fmt.Errorf("lzma: %w", err)
	}
	n, err := io.ReadFull(r, dst)
	if err != nil {
		return n, fmt.Errorf("lzma: %w", err)
	}
	return n, nil
}

func (LZMA) Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	cfg := lzma.WriterConfig{SizeInHeader: true, Size: int64(len(src))}
	if len(src) == 0 {
		cfg = lzma.WriterConfig{}
	}
	w, err := cfg.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("lzma: %w", err)
	}
	if _, err := w.Write(src); err != nil {
		return nil, fmt.Errorf("lzma: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("lzma: %w", err)
	}
	out := buf.Bytes()
	if len(out) < lzmaPropsSize+8 {
		return nil, fmt.Errorf("lzma: short stream header")
	}
	// drop the size field, keeping properties and payload
	return append(out[:lzmaPropsSize:lzmaPropsSize], out[lzmaPropsSize+8:]...), nil
}
