package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"mhyunpack/internal/catalog"
	"mhyunpack/internal/container"
	"mhyunpack/internal/scramble/scrambletest"
)

func writeContainer(t *testing.T, path string, files ...container.File) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	w := container.Writer{Cipher: scrambletest.Engine(), Generation: container.GenMhy1, BlockSize: 256}
	require.NoError(t, w.Write(f, files))
}

func payload(tag string, n int) []byte {
	return []byte(strings.Repeat(tag+" payload line\n", n))
}

func config() container.Config {
	return container.Config{Cipher: scrambletest.Engine()}
}

func TestOutputPath(t *testing.T) {
	out := filepath.Join("out", "dir")
	tests := []struct {
		entry string
		want  string
		err   bool
	}{
		{"a.txt", filepath.Join(out, "a.txt"), false},
		{"CAB-1/CAB-1", filepath.Join(out, "CAB-1", "CAB-1"), false},
		{`assets\bin\data`, filepath.Join(out, "assets", "bin", "data"), false},
		{"/abs/file", filepath.Join(out, "abs", "file"), false},
		{"../evil", "", true},
		{"a/../../evil", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := OutputPath(out, tt.entry)
		if tt.err {
			require.ErrorIs(t, err, ErrUnsafePath, tt.entry)
			continue
		}
		require.NoError(t, err, tt.entry)
		require.Equal(t, tt.want, got)
	}
}

func TestFileWritesEntries(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.blk")
	writeContainer(t, src,
		container.File{Path: "x/one.txt", Data: payload("one", 40)},
		container.File{Path: "two.txt", Data: payload("two", 3)},
		container.File{Path: "../escape.txt", Data: payload("bad", 3)})

	out := filepath.Join(dir, "out")
	res := File(context.Background(), config(), src, out, Options{Workers: 2})
	require.NoError(t, res.Err)
	require.Equal(t, 3, res.Entries)
	require.Equal(t, 2, res.Written)
	require.Len(t, res.Failed, 1)
	require.ErrorIs(t, res.Failed[0], ErrUnsafePath)

	got, err := os.ReadFile(filepath.Join(out, "x", "one.txt"))
	require.NoError(t, err)
	require.Equal(t, payload("one", 40), got)
	_, err = os.Stat(filepath.Join(dir, "escape.txt"))
	require.True(t, os.IsNotExist(err))
}

func TestFileDecodeError(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.blk")
	require.NoError(t, os.WriteFile(src, []byte("mhy1 definitely not a container"), 0644))

	res := File(context.Background(), config(), src, filepath.Join(dir, "out"), Options{})
	require.ErrorIs(t, res.Err, container.ErrFormat)
	require.Zero(t, res.Written)
}

func TestBatch(t *testing.T) {
	in := filepath.Join(t.TempDir(), "in")
	writeContainer(t, filepath.Join(in, "a.blk"), container.File{Path: "a.txt", Data: payload("a", 10)})
	writeContainer(t, filepath.Join(in, "sub", "b.blk"), container.File{Path: "b.txt", Data: payload("b", 10)})
	require.NoError(t, os.WriteFile(filepath.Join(in, "notes.txt"), []byte("not a container"), 0644))

	found, err := FindContainers(in)
	require.NoError(t, err)
	require.Len(t, found, 2)

	cat, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer cat.Close()

	out := filepath.Join(t.TempDir(), "out")
	results, err := Batch(context.Background(), config(), in, out, Options{Workers: 4, Catalog: cat})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		require.NoError(t, r.Err)
		require.Equal(t, 1, r.Written)
	}

	got, err := os.ReadFile(filepath.Join(out, "sub", "b", "b.txt"))
	require.NoError(t, err)
	require.Equal(t, payload("b", 10), got)

	loc, ok, err := cat.Lookup("a.txt")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, filepath.Join(in, "a.blk"), loc.Container)
}

func TestBatchEmptyAndCancelled(t *testing.T) {
	empty := t.TempDir()
	_, err := Batch(context.Background(), config(), empty, t.TempDir(), Options{})
	require.Error(t, err)

	in := t.TempDir()
	writeContainer(t, filepath.Join(in, "a.blk"), container.File{Path: "a.txt", Data: payload("a", 10)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := Batch(ctx, config(), in, t.TempDir(), Options{})
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, results[0].Err, context.Canceled)
}
