//go:build !(darwin || freebsd || linux)

package animcodec

import (
	"errors"
	"fmt"
)

// Native is unavailable on this platform
type Native struct{}

var _ Decoder = (*Native)(nil)

func LoadNative(path string) (*Native, error) {
	return nil, fmt.Errorf("load %s: %w", path, errors.ErrUnsupported)
}

func (*Native) DecompressTracks(Tracks) (Clip, error) {
	return Clip{}, errors.ErrUnsupported
}

func (*Native) Close() error { return nil }
