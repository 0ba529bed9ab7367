package scramble

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGFMul(t *testing.T) {
	// FIPS-197 section 4.2 examples
	require.Equal(t, byte(0xc1), gfMul(0x57, 0x83))
	require.Equal(t, byte(0xfe), gfMul(0x57, 0x13))
	require.Equal(t, byte(0), gfMul(0, 0x13))
	for a := 1; a < 256; a++ {
		for _, b := range []byte{1, 2, 3, 0x53, 0xff} {
			require.Equal(t, byte(a), gfDiv(gfMul(byte(a), b), b))
		}
	}
}

func TestRC4Inverse(t *testing.T) {
	data := []byte("the keystream is independent of the data it combines with")
	plain := append([]byte(nil), data...)
	key := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	op := []byte{0, 1, 2, 3, 4, 5, 6, 7}

	t1 := repeatKey(key)
	rc4(MhySeed, t1, data, func(i int) byte { return op[i%len(op)] }, false)
	require.NotEqual(t, plain, data)
	rc4(MhySeed, t1, data, func(i int) byte { return op[i%len(op)] }, true)
	require.Equal(t, plain, data)
}

func TestBlockCipherInverse(t *testing.T) {
	sbox := make([]byte, 256)
	shift := make([]byte, 16)
	for x := range 256 {
		sbox[x] = byte(x) ^ byte(x*7+3)
	}
	for i := range 16 {
		shift[i] = byte(15 - i)
	}
	c := newBlockCipher(sbox, shift)
	key := []byte("fedcba9876543210")
	block := []byte("sixteen byte blk")
	plain := append([]byte(nil), block...)

	c.encrypt(block, key)
	require.NotEqual(t, plain, block)
	require.NoError(t, c.decrypt(block, key))
	require.Equal(t, plain, block)
}

func TestXorEntriesStopsAtBlockEnd(t *testing.T) {
	buf := make([]byte, 64)
	for i := 4; i < 12; i++ {
		buf[i] = 0xff
	}
	xorEntries(buf, Layout{BlockSize: 0x21, EntrySize: 8}, 16)
	for i := 20; i < 0x21; i++ {
		require.Equal(t, byte(0xff), buf[i], "byte %d", i)
	}
	for i := 0x21; i < 64; i++ {
		require.Zero(t, buf[i], "byte %d", i)
	}
}
