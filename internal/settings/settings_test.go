package settings

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"mhyunpack/internal/codec"
	"mhyunpack/internal/container"
	"mhyunpack/internal/game"
	"mhyunpack/internal/scramble"
	"mhyunpack/internal/scramble/scrambletest"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, m.Load())

	cfg := m.GetConfig()
	require.Equal(t, "Unity", cfg.Game)
	require.Equal(t, "extracted", cfg.Output)
	require.EqualValues(t, container.DefaultSpillThreshold, cfg.SpillThreshold)
	require.Equal(t, []string{"lz4", "lzma"}, cfg.Codecs)
	require.Positive(t, cfg.Workers)
}

func TestLoadFileEnvAndFlags(t *testing.T) {
	path := writeFile(t, "mhyunpack.yaml", strings.Join([]string{
		"game: GI",
		"engine_version: 2017.4.30f1",
		"output: out",
		"workers: 3",
		"codecs: [lz4, oodle]",
	}, "\n"))
	t.Setenv("MHYUNPACK_OUTPUT", "from-env")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("game", "", "")
	fs.Int("workers", 0, "")
	require.NoError(t, fs.Parse([]string{"--game", "zzz"}))

	m := NewManager(path)
	require.NoError(t, m.BindFlags(fs))
	require.NoError(t, m.Load())

	cfg := m.GetConfig()
	require.Equal(t, "zzz", cfg.Game)
	require.Equal(t, "from-env", cfg.Output)
	require.Equal(t, 3, cfg.Workers)

	variant, err := cfg.Variant()
	require.NoError(t, err)
	require.Equal(t, game.ZZZ, variant)

	version, err := cfg.Version()
	require.NoError(t, err)
	require.True(t, version.AtLeast(2017, 4))

	codecs, err := cfg.CodecList()
	require.NoError(t, err)
	require.Len(t, codecs, 2)
	require.Equal(t, codec.NameOodle, codecs[1].Name())
}

func TestCodecListUnknown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Codecs = []string{"lz4", "zlib"}
	_, err := cfg.CodecList()
	require.ErrorIs(t, err, codec.ErrUnknownCodec)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "mhyunpack.yaml")
	m := NewManager(path)
	m.GetConfig().Game = "SR"
	m.GetConfig().Workers = 4
	require.NoError(t, m.Save())

	again := NewManager(path)
	require.NoError(t, again.Load())
	require.Equal(t, "SR", again.GetConfig().Game)
	require.Equal(t, 4, again.GetConfig().Workers)
}

func keysetYAML(k scramble.KeySet) string {
	var b strings.Builder
	for _, f := range []struct {
		name string
		data []byte
	}{
		{"sbox", k.SBox}, {"shift_row", k.ShiftRow}, {"key", k.Key}, {"mul", k.Mul},
		{"aes_sbox", k.AESSBox}, {"aes_shift", k.AESShift}, {"xor_key", k.XORKey},
	} {
		fmt.Fprintf(&b, "%s: \"%s\"\n", f.name, hex.EncodeToString(f.data))
	}
	return b.String()
}

func TestLoadKeySet(t *testing.T) {
	want := scrambletest.KeySet()
	path := writeFile(t, "keys.yaml", keysetYAML(want))

	got, err := LoadKeySet(path)
	require.NoError(t, err)
	require.Equal(t, scramble.MhySeed, got.RC4Seed)
	require.Equal(t, want.SBox, got.SBox)
	require.Equal(t, want.XORKey, got.XORKey)

	engine, err := LoadEngine(path)
	require.NoError(t, err)
	require.NotNil(t, engine)
}

func TestLoadKeySetInvalid(t *testing.T) {
	path := writeFile(t, "keys.yaml", "sbox: \"0011\"\n")
	_, err := LoadKeySet(path)
	require.ErrorIs(t, err, scramble.ErrKeySet)

	_, err = LoadKeySet("")
	require.ErrorIs(t, err, scramble.ErrKeySet)
}
