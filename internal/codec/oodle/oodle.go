// Package oodle adapts the native Oodle library to codec.Codec.
// The library is loaded by go-oodle on first use; decode sessions only see the interface.
package oodle

import (
	"errors"
	"fmt"

	"github.com/new-world-tools/go-oodle"

	"mhyunpack/internal/codec"
)

// Codec decompresses Oodle (Kraken/Mermaid/Leviathan) blocks
type Codec struct{}

var _ codec.Codec = Codec{}

func (Codec) Name() string { return codec.NameOodle }

func (Codec) Decompress(src, dst []byte) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	out, err := oodle.Decompress(src, int64(len(dst)))
	if err != nil {
		return 0, fmt.Errorf("oodle: %w", err)
	}
	copy(dst, out)
	return len(out), nil
}

// Compress is not provided by the runtime decoder
func (Codec) Compress([]byte) ([]byte, error) {
	return nil, fmt.Errorf("oodle: compression %w", errors.ErrUnsupported)
}
