package codec

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// AttemptHook observes every decompression attempt; err is nil for the one that succeeded
type AttemptHook func(codec string, err error)

// Adapter decompresses blocks whose algorithm is not declared. It tries the codec that
// last succeeded first and the rest in registration order, remembering the winner.
// An Adapter belongs to one decode session and is not safe for concurrent use.
type Adapter struct {
	codecs    []Codec
	preferred int
	hook      AttemptHook
	log       zerolog.Logger
}

// NewAdapter registers codecs in fallback order; the first is preferred initially
func NewAdapter(codecs ...Codec) *Adapter {
	return &Adapter{codecs: codecs, log: zerolog.Nop()}
}

// SetLogger sets the session logger
func (a *Adapter) SetLogger(l zerolog.Logger) { a.log = l }

// SetHook installs an attempt observer
func (a *Adapter) SetHook(h AttemptHook) { a.hook = h }

// Preferred returns the name of the codec tried first, or "" when none are registered
func (a *Adapter) Preferred() string {
	if len(a.codecs) == 0 {
		return ""
	}
	return a.codecs[a.preferred].Name()
}

// Lookup finds a registered codec by name
func (a *Adapter) Lookup(name string) (Codec, bool) {
	for _, c := range a.codecs {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// Decompress allocates the output and calls DecompressInto
func (a *Adapter) Decompress(src []byte, expected int) ([]byte, error) {
	dst := make([]byte, expected)
	if err := a.DecompressInto(src, dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// DecompressInto fills dst exactly. A codec that decodes without error but to a different
// length ends the attempt with ErrSizeMismatch; the alternates are not tried in that case.
func (a *Adapter) DecompressInto(src, dst []byte) error {
	if len(a.codecs) == 0 {
		return fmt.Errorf("%w: no codecs registered", ErrDecompress)
	}
	var errs []error
	for _, idx := range a.order() {
		c := a.codecs[idx]
		n, err := c.Decompress(src, dst)
		if a.hook != nil {
			a.hook(c.Name(), err)
		}
		if err != nil {
			a.log.Debug().Str("codec", c.Name()).Err(err).Msg("decompression attempt failed")
			errs = append(errs, err)
			continue
		}
		if n != len(dst) {
			return fmt.Errorf("%w: %s wrote %d bytes, expected %d", ErrSizeMismatch, c.Name(), n, len(dst))
		}
		if idx != a.preferred {
			a.log.Info().Str("from", a.Preferred()).Str("to", c.Name()).Msg("switching preferred codec")
			a.preferred = idx
		}
		return nil
	}
	return fmt.Errorf("%w: %w", ErrDecompress, errors.Join(errs...))
}

func (a *Adapter) order() []int {
	out := make([]int, 0, len(a.codecs))
	out = append(out, a.preferred)
	for i := range a.codecs {
		if i != a.preferred {
			out = append(out, i)
		}
	}
	return out
}
