package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"mhyunpack/internal/container"
	"mhyunpack/internal/scramble/scrambletest"
)

func TestHexdump(t *testing.T) {
	var buf bytes.Buffer
	hexdump(&buf, []byte("mhy1\x00\x01ABCDEFGHIJKLMNOP"), 0)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	require.True(t, strings.HasPrefix(lines[2], "00000000  6D 68 79 31 00 01 41"))
	require.True(t, strings.HasSuffix(lines[2], "mhy1..ABCDEFGHIJ"))
	require.True(t, strings.HasPrefix(lines[3], "00000010  4B 4C"))
}

func TestAnalyze(t *testing.T) {
	dir := t.TempDir()
	k := scrambletest.KeySet()
	var ks strings.Builder
	for name, data := range map[string][]byte{
		"sbox": k.SBox, "shift_row": k.ShiftRow, "key": k.Key, "mul": k.Mul,
		"aes_sbox": k.AESSBox, "aes_shift": k.AESShift, "xor_key": k.XORKey,
	} {
		fmt.Fprintf(&ks, "%s: \"%s\"\n", name, hex.EncodeToString(data))
	}
	keys := filepath.Join(dir, "keys.yaml")
	require.NoError(t, os.WriteFile(keys, []byte(ks.String()), 0644))

	var raw bytes.Buffer
	w := container.Writer{Cipher: scrambletest.Engine(), Generation: container.GenMhy0}
	require.NoError(t, w.Write(&raw, []container.File{{Path: "a.txt", Data: []byte("hello")}}))
	path := filepath.Join(dir, "a.blk")
	require.NoError(t, os.WriteFile(path, raw.Bytes(), 0644))

	var out, logs bytes.Buffer
	require.NoError(t, analyze(&out, &logs, path, options{keyset: keys, bytes: 64, entry: "a.txt"}))
	s := out.String()
	require.Contains(t, s, "Envelope mhy0")
	require.Contains(t, s, "1 entries")
	require.Contains(t, s, "a.txt [offset=0 size=5")
	require.Contains(t, s, "hello")

	err := analyze(&out, &logs, path, options{keyset: keys, bytes: 64, entry: "b.txt"})
	require.Error(t, err)
}
