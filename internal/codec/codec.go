// Package codec wraps the block compression algorithms found in containers
// and the learned fallback used when a container does not say which one it uses.
package codec

import "errors"

var (
	// ErrSizeMismatch means a codec produced a different length than the block declares
	ErrSizeMismatch = errors.New("decompressed size mismatch")
	// ErrDecompress means no codec could decode the input
	ErrDecompress = errors.New("decompression failed")
	// ErrUnknownCodec is returned by Lookup-based callers for unregistered names
	ErrUnknownCodec = errors.New("unknown codec")
)

// Codec is one block compression algorithm.
// Decompress writes into dst and returns the number of bytes the algorithm produced;
// callers compare it with len(dst).
type Codec interface {
	Name() string
	Decompress(src, dst []byte) (int, error)
	Compress(src []byte) ([]byte, error)
}

// Names of the built-in codecs
const (
	NameLZ4   = "lz4"
	NameLZMA  = "lzma"
	NameOodle = "oodle"
)
