package filesystem

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"mhyunpack/internal/catalog"
	"mhyunpack/internal/container"
	"mhyunpack/internal/game"
	"mhyunpack/internal/objects"
	"mhyunpack/internal/scramble/scrambletest"
)

var version = game.Version{2019, 4, 30}

func writeContainer(t *testing.T, path string, files ...container.File) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	w := container.Writer{Cipher: scrambletest.Engine(), Generation: container.GenMhy1}
	require.NoError(t, w.Write(f, files))
}

// streamedTexture encodes a 2019.4 texture whose pixels live in a resource file
func streamedTexture(resource string, offset, size uint32) []byte {
	var b []byte
	u32 := func(v uint32) { b = binary.LittleEndian.AppendUint32(b, v) }
	str := func(s string) {
		u32(uint32(len(s)))
		b = append(b, s...)
		for len(b)%4 != 0 {
			b = append(b, 0)
		}
	}
	str("stone")
	u32(0)
	b = append(b, 0, 0, 0, 0) // downscale fallback, aligned
	u32(4)                    // width
	u32(4)                    // height
	u32(size)
	u32(uint32(objects.RGBA32))
	u32(1)                    // mip count
	b = append(b, 0, 0, 1, 0) // readable, ignore limit, streaming mips, aligned
	u32(0)                    // streaming priority
	u32(1)                    // image count
	u32(2)                    // dimension
	for range 6 {
		u32(0) // filter, aniso, bias, wrap u/v/w
	}
	u32(0) // lightmap format
	u32(1) // color space
	u32(0) // no inline data
	u32(offset)
	u32(size)
	str(resource)
	return b
}

func fixture(t *testing.T) (dir string, pixels []byte) {
	t.Helper()
	dir = t.TempDir()
	pixels = make([]byte, 64)
	for i := range pixels {
		pixels[i] = byte(i * 3)
	}
	writeContainer(t, filepath.Join(dir, "assets.blk"),
		container.File{Path: "CAB-1/CAB-1", Data: streamedTexture("archive:/CAB-2/CAB-2.resS", 16, 32)})
	writeContainer(t, filepath.Join(dir, "res.blk"),
		container.File{Path: "CAB-2/CAB-2.resS", Data: pixels})
	return dir, pixels
}

func newManager(t *testing.T, dir string) *Manager {
	t.Helper()
	m := NewManager(dir, container.Config{Cipher: scrambletest.Engine(), Variant: game.Unity}, version)
	require.NoError(t, m.Init())
	t.Cleanup(func() { m.Close() })
	return m
}

func TestDecodeListsEntries(t *testing.T) {
	dir, pixels := fixture(t)
	m := newManager(t, dir)

	entries, err := m.Decode("res.blk")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "CAB-2/CAB-2.resS", entries[0].Path)
	require.Equal(t, "CAB-2.resS", entries[0].FileName)
	require.EqualValues(t, len(pixels), entries[0].Size)
	require.Equal(t, []string{filepath.Join(dir, "res.blk")}, m.Mounted())

	again, err := m.Decode("res.blk")
	require.NoError(t, err)
	require.Equal(t, entries, again)
	require.Len(t, m.Mounted(), 1)

	require.True(t, m.Exists("cab-2.ress"))
	require.NoError(t, m.Unmount("res.blk"))
	require.Empty(t, m.Mounted())
}

func TestDecodeObjectResolvesStream(t *testing.T) {
	dir, pixels := fixture(t)
	m := newManager(t, dir)
	_, err := m.Mount("res.blk")
	require.NoError(t, err)

	obj, err := m.DecodeObject(ObjectRef{Container: "assets.blk", Entry: "CAB-1/CAB-1", Kind: objects.KindTexture2D})
	require.NoError(t, err)
	tex, ok := obj.(*objects.Texture2D)
	require.True(t, ok)
	require.Equal(t, "stone", tex.Name)
	require.True(t, tex.Streamed())

	data, err := m.TextureData(tex)
	require.NoError(t, err)
	require.Equal(t, pixels[16:48], data)
}

func TestCatalogMountsOnDemand(t *testing.T) {
	dir, pixels := fixture(t)
	cat, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer cat.Close()

	first := newManager(t, dir)
	first.SetCatalog(cat)
	_, err = first.Decode("res.blk")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	m := newManager(t, dir)
	m.SetCatalog(cat)
	require.Empty(t, m.Mounted())

	data, err := m.ResolveStream(objects.StreamingInfo{Offset: 0, Size: 8, Path: "archive:/CAB-2/CAB-2.resS"})
	require.NoError(t, err)
	require.Equal(t, pixels[:8], data)
	require.Len(t, m.Mounted(), 1)
}

func TestNotFoundAndBadRange(t *testing.T) {
	dir, _ := fixture(t)
	m := newManager(t, dir)

	_, err := m.Open("CAB-9")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = m.Mount("missing.blk")
	require.ErrorIs(t, err, container.ErrIO)

	_, err = m.DecodeObject(ObjectRef{Container: "res.blk", Entry: "CAB-2/CAB-2.resS", Offset: 60, Size: 8, Kind: objects.KindTexture2D})
	require.ErrorIs(t, err, container.ErrFormat)

	_, err = m.DecodeObject(ObjectRef{Container: "res.blk", Entry: "nope", Kind: objects.KindTexture2D})
	require.ErrorIs(t, err, ErrNotFound)
}
