package animcodec

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

type fakeDecoder struct {
	got  Tracks
	clip Clip
	err  error
}

func (f *fakeDecoder) DecompressTracks(t Tracks) (Clip, error) {
	f.got = t
	return f.clip, f.err
}

func TestAligned16(t *testing.T) {
	require.Nil(t, Aligned16(nil))
	for n := range 40 {
		src := make([]byte, n)
		for i := range src {
			src[i] = byte(i + 1)
		}
		out := Aligned16(src)
		require.Equal(t, src, out)
		require.Equal(t, n, cap(out))
		if n > 0 {
			require.Zero(t, uintptr(unsafe.Pointer(&out[0]))%16)
		}
	}
}

func TestDecompress(t *testing.T) {
	values := make([]float32, 2*(TransformStride+1))
	for i := range values {
		values[i] = float32(i)
	}
	f := &fakeDecoder{clip: Clip{Values: values, Times: []float32{0, 0.5}}}
	clip, err := Decompress(f, Tracks{Transform: []byte{1}, Scalar: []byte{2}})
	require.NoError(t, err)
	require.Equal(t, []byte{1}, f.got.Transform)

	require.Equal(t, TransformStride+1, clip.Stride())
	require.Equal(t, float32(TransformStride+1), clip.Frame(1)[0])
	require.Nil(t, clip.Frame(2))

	tr, ok := clip.Transform(1, 0)
	require.True(t, ok)
	require.Equal(t, [4]float32{11, 12, 13, 14}, tr.Rotation)
	require.Equal(t, [3]float32{15, 16, 17}, tr.Translation)
	require.Equal(t, [3]float32{18, 19, 20}, tr.Scale)

	_, ok = clip.Transform(0, 1)
	require.False(t, ok)
}

func TestDecompressErrors(t *testing.T) {
	_, err := Decompress(&fakeDecoder{}, Tracks{Database: []byte{1}})
	require.ErrorIs(t, err, ErrNoTracks)

	boom := errors.New("boom")
	_, err = Decompress(&fakeDecoder{err: boom}, Tracks{Scalar: []byte{1}})
	require.ErrorIs(t, err, boom)

	_, err = Decompress(&fakeDecoder{clip: Clip{Values: make([]float32, 5), Times: make([]float32, 2)}}, Tracks{Scalar: []byte{1}})
	require.Error(t, err)
}
