package scramble

import "fmt"

// blockCipher is the modified AES-128 used by the Blb and WMV paths.
// It differs from the standard cipher in its key expansion, in SubBytes (state is xored
// with the substitution instead of replaced) and in the transposed round-key layout.
// Decryption runs the forward transform; the inverse exists only for repacking.
type blockCipher struct {
	sbox  []byte
	shift []byte
}

var shiftRowsTable = [16]byte{0, 5, 10, 15, 4, 9, 14, 3, 8, 13, 2, 7, 12, 1, 6, 11}

var powerSchedule = [10]byte{0x01, 0x02, 0x04, 0x08, 0x10, 0x20, 0x40, 0x80, 0x1b, 0x36}

func newBlockCipher(sbox, shift []byte) *blockCipher {
	return &blockCipher{sbox: sbox, shift: shift}
}

func (c *blockCipher) expand(key []byte) [176]byte {
	var keys [176]byte
	for i := range 16 {
		keys[i] = key[c.shift[i]]
	}

	s := c.sbox
	off := 0x1f
	for round := range 10 {
		a := s[keys[off-0x14]]
		b := s[keys[off-0x10]]
		cc := s[keys[off-0x18]] ^ keys[off-0x18] ^ powerSchedule[round] ^ keys[off-0x1f]
		d := s[keys[off-0x1c]]

		keys[off-0xf] = cc
		temp := a ^ keys[off-0x14] ^ keys[off-0x1b]
		keys[off-0xb] = temp
		a = b ^ keys[off-0x10] ^ keys[off-0x17]
		keys[off-7] = a
		b = d ^ keys[off-0x1c] ^ keys[off-0x13]
		keys[off-3] = b
		cc ^= keys[off-0x1e]
		keys[off-0xe] = cc
		temp ^= keys[off-0x1a]
		keys[off-10] = temp
		a ^= keys[off-0x16]
		keys[off-6] = a
		b ^= keys[off-0x12]
		keys[off-2] = b
		cc ^= keys[off-0x1d]
		keys[off-0xd] = cc
		temp ^= keys[off-0x19]
		keys[off-9] = temp
		a ^= keys[off-0x15]
		keys[off-5] = a
		b ^= keys[off-0x11]
		keys[off-1] = b
		keys[off-0xc] = cc ^ keys[off-0x1c]
		keys[off-8] = temp ^ keys[off-0x18]
		keys[off-4] = a ^ keys[off-0x14]
		keys[off] = b ^ keys[off-0x10]

		off += 0x10
	}
	return keys
}

// encrypt transforms the 16-byte block in place
func (c *blockCipher) encrypt(block, key []byte) {
	keys := c.expand(key)
	state := (*[16]byte)(block[:16])

	xorRoundKey(state, &keys, 0)
	for round := 1; round < 10; round++ {
		c.subBytes(state)
		shiftRows(state)
		mixColumns(state)
		xorRoundKey(state, &keys, round)
	}
	c.subBytes(state)
	shiftRows(state)
	xorRoundKey(state, &keys, 10)
}

// decrypt is the exact inverse of encrypt. It needs x ^ sbox[x] to be a permutation.
func (c *blockCipher) decrypt(block, key []byte) error {
	inv, err := c.inverseSub()
	if err != nil {
		return err
	}
	keys := c.expand(key)
	state := (*[16]byte)(block[:16])

	xorRoundKey(state, &keys, 10)
	invShiftRows(state)
	invSubBytes(state, inv)
	for round := 9; round >= 1; round-- {
		xorRoundKey(state, &keys, round)
		invMixColumns(state)
		invShiftRows(state)
		invSubBytes(state, inv)
	}
	xorRoundKey(state, &keys, 0)
	return nil
}

func (c *blockCipher) subBytes(state *[16]byte) {
	for i, b := range state {
		state[i] = b ^ c.sbox[b]
	}
}

func (c *blockCipher) inverseSub() (*[256]byte, error) {
	var inv [256]byte
	var seen [256]bool
	for x := range 256 {
		y := byte(x) ^ c.sbox[x]
		if seen[y] {
			return nil, fmt.Errorf("%w: aes sbox substitution is not a permutation", ErrNotInvertible)
		}
		seen[y] = true
		inv[y] = byte(x)
	}
	return &inv, nil
}

func invSubBytes(state *[16]byte, inv *[256]byte) {
	for i, b := range state {
		state[i] = inv[b]
	}
}

func xorRoundKey(state *[16]byte, keys *[176]byte, round int) {
	for i := range 4 {
		for j := range 4 {
			state[i*4+j] ^= keys[i+j*4+round*16]
		}
	}
}

func shiftRows(state *[16]byte) {
	temp := *state
	for i := range state {
		state[i] = temp[shiftRowsTable[i]]
	}
}

func invShiftRows(state *[16]byte) {
	temp := *state
	for i := range state {
		state[shiftRowsTable[i]] = temp[i]
	}
}

func mixColumns(state *[16]byte) {
	for off := 0; off < 16; off += 4 {
		a0, a1, a2, a3 := state[off], state[off+1], state[off+2], state[off+3]
		state[off] = gfMul(2, a0) ^ gfMul(3, a1) ^ a2 ^ a3
		state[off+1] = gfMul(2, a1) ^ gfMul(3, a2) ^ a3 ^ a0
		state[off+2] = gfMul(2, a2) ^ gfMul(3, a3) ^ a0 ^ a1
		state[off+3] = gfMul(2, a3) ^ gfMul(3, a0) ^ a1 ^ a2
	}
}

func invMixColumns(state *[16]byte) {
	for off := 0; off < 16; off += 4 {
		a0, a1, a2, a3 := state[off], state[off+1], state[off+2], state[off+3]
		state[off] = gfMul(14, a0) ^ gfMul(11, a1) ^ gfMul(13, a2) ^ gfMul(9, a3)
		state[off+1] = gfMul(9, a0) ^ gfMul(14, a1) ^ gfMul(11, a2) ^ gfMul(13, a3)
		state[off+2] = gfMul(13, a0) ^ gfMul(9, a1) ^ gfMul(14, a2) ^ gfMul(11, a3)
		state[off+3] = gfMul(11, a0) ^ gfMul(13, a1) ^ gfMul(9, a2) ^ gfMul(14, a3)
	}
}
