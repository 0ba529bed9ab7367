// Package animcodec is the byte-array boundary to the native animation track codec.
// Callers hand over the compressed track buffers of a clip and get back sampled
// values and times; nothing else of the codec is visible.
package animcodec

import (
	"errors"
	"fmt"
	"unsafe"
)

// ErrNoTracks is returned when neither transform nor scalar tracks are present
var ErrNoTracks = errors.New("animcodec: clip has no tracks")

// TransformStride is the number of floats written per transform track and frame:
// rotation quaternion, translation and scale.
const TransformStride = 10

// Tracks are the compressed buffers of one clip. Any of them may be nil.
type Tracks struct {
	Transform []byte
	Scalar    []byte
	Database  []byte
	BulkData  []byte
}

func (t Tracks) empty() bool { return len(t.Transform) == 0 && len(t.Scalar) == 0 }

// Clip is a decompressed clip. Values holds len(Times) frames of equal stride.
type Clip struct {
	Values []float32
	Times  []float32
}

// Stride is the number of floats per frame
func (c Clip) Stride() int {
	if len(c.Times) == 0 {
		return 0
	}
	return len(c.Values) / len(c.Times)
}

// Frame returns the values sampled at Times[i]
func (c Clip) Frame(i int) []float32 {
	s := c.Stride()
	if i < 0 || i >= len(c.Times) || s == 0 {
		return nil
	}
	return c.Values[i*s : (i+1)*s]
}

// Transform is one transform track sample
type Transform struct {
	Rotation    [4]float32
	Translation [3]float32
	Scale       [3]float32
}

// Transform reads transform track n of frame i
func (c Clip) Transform(i, n int) (Transform, bool) {
	f := c.Frame(i)
	off := n * TransformStride
	if n < 0 || off+TransformStride > len(f) {
		return Transform{}, false
	}
	var t Transform
	copy(t.Rotation[:], f[off:off+4])
	copy(t.Translation[:], f[off+4:off+7])
	copy(t.Scale[:], f[off+7:off+10])
	return t, true
}

// Decoder decompresses clip tracks
type Decoder interface {
	DecompressTracks(Tracks) (Clip, error)
}

// Aligned16 copies b into a buffer whose first byte sits on a 16-byte boundary.
// The native codec reads its inputs with aligned SIMD loads.
func Aligned16(b []byte) []byte {
	if b == nil {
		return nil
	}
	raw := make([]byte, len(b)+15)
	off := int((16 - uintptr(unsafe.Pointer(unsafe.SliceData(raw)))%16) % 16)
	out := raw[off : off+len(b) : off+len(b)]
	copy(out, b)
	return out
}

// Decompress validates t and runs it through d
func Decompress(d Decoder, t Tracks) (Clip, error) {
	if t.empty() {
		return Clip{}, ErrNoTracks
	}
	clip, err := d.DecompressTracks(t)
	if err != nil {
		return Clip{}, fmt.Errorf("decompress tracks: %w", err)
	}
	if len(clip.Times) > 0 && len(clip.Values)%len(clip.Times) != 0 {
		return Clip{}, fmt.Errorf("animcodec: %d values do not split into %d frames", len(clip.Values), len(clip.Times))
	}
	return clip, nil
}
