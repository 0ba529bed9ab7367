package codec_test

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mhyunpack/internal/codec"
)

func sample(n int) []byte {
	r := rand.New(rand.NewSource(int64(n)))
	out := make([]byte, n)
	for i := range out {
		// half text-like runs, half noise
		if (i/512)%2 == 0 {
			out[i] = byte('a' + i%7)
		} else {
			out[i] = byte(r.Intn(256))
		}
	}
	return out
}

func TestRoundTrip(t *testing.T) {
	sizes := []int{0, 1, 64 << 10, 4<<20 + 17}
	for _, c := range []codec.Codec{codec.LZ4{}, codec.LZMA{}} {
		for _, n := range sizes {
			if c.Name() == codec.NameLZMA && n > 64<<10 {
				continue
			}
			src := sample(n)
			packed, err := c.Compress(src)
			require.NoError(t, err, "%s %d", c.Name(), n)

			dst := make([]byte, n)
			got, err := c.Decompress(packed, dst)
			require.NoError(t, err, "%s %d", c.Name(), n)
			assert.Equal(t, n, got)
			assert.True(t, bytes.Equal(src, dst), "%s %d", c.Name(), n)
		}
	}
}

func TestLZ4LiteralBlock(t *testing.T) {
	for _, n := range []int{5, 14, 15, 16, 270, 300} {
		src := sample(n)
		dst := make([]byte, n)
		got, err := codec.LZ4{}.Decompress(codec.LiteralBlock(src), dst)
		require.NoError(t, err)
		assert.Equal(t, n, got)
		assert.Equal(t, src, dst)
	}
	assert.Equal(t, []byte{0x50, 'h', 'e', 'l', 'l', 'o'}, codec.LiteralBlock([]byte("hello")))
}

type fakeCodec struct {
	name  string
	fail  bool
	short bool
	calls int
}

func (f *fakeCodec) Name() string { return f.name }

func (f *fakeCodec) Decompress(src, dst []byte) (int, error) {
	f.calls++
	if f.fail {
		return 0, errors.New(f.name + " cannot decode")
	}
	n := copy(dst, src)
	if f.short {
		return n - 1, nil
	}
	return n, nil
}

func (f *fakeCodec) Compress(src []byte) ([]byte, error) { return src, nil }

func TestAdapterRemembersWinner(t *testing.T) {
	first := &fakeCodec{name: "first", fail: true}
	second := &fakeCodec{name: "second"}
	a := codec.NewAdapter(first, second)

	var attempts []string
	a.SetHook(func(name string, err error) {
		if err != nil {
			name += "!"
		}
		attempts = append(attempts, name)
	})

	out, err := a.Decompress([]byte("abcd"), 4)
	require.NoError(t, err)
	assert.Equal(t, []byte("abcd"), out)
	assert.Equal(t, "second", a.Preferred())

	_, err = a.Decompress([]byte("efgh"), 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"first!", "second", "second"}, attempts)
	assert.Equal(t, 1, first.calls)
}

func TestAdapterAllFail(t *testing.T) {
	a := codec.NewAdapter(&fakeCodec{name: "x", fail: true}, &fakeCodec{name: "y", fail: true})
	_, err := a.Decompress([]byte("abcd"), 4)
	require.ErrorIs(t, err, codec.ErrDecompress)
	assert.Contains(t, err.Error(), "x cannot decode")
	assert.Contains(t, err.Error(), "y cannot decode")
}

func TestAdapterSizeMismatchIsFatal(t *testing.T) {
	short := &fakeCodec{name: "short", short: true}
	other := &fakeCodec{name: "other"}
	a := codec.NewAdapter(short, other)
	_, err := a.Decompress([]byte("abcd"), 4)
	require.ErrorIs(t, err, codec.ErrSizeMismatch)
	assert.Zero(t, other.calls)
}

func TestAdapterLookup(t *testing.T) {
	a := codec.NewAdapter(codec.LZ4{}, codec.LZMA{})
	c, ok := a.Lookup(codec.NameLZMA)
	require.True(t, ok)
	assert.Equal(t, codec.NameLZMA, c.Name())
	_, ok = a.Lookup("zstd")
	assert.False(t, ok)
}

func TestAdapterRealFallback(t *testing.T) {
	src := sample(4096)
	packed, err := codec.LZMA{}.Compress(src)
	require.NoError(t, err)

	a := codec.NewAdapter(codec.LZ4{}, codec.LZMA{})
	out, err := a.Decompress(packed, len(src))
	if errors.Is(err, codec.ErrSizeMismatch) {
		t.Skip("lz4 accepted the lzma stream")
	}
	require.NoError(t, err)
	assert.Equal(t, src, out)
	assert.Equal(t, codec.NameLZMA, a.Preferred())
}
