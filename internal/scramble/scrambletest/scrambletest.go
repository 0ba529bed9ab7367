// Package scrambletest provides synthetic cipher keysets for tests.
// The tables are bijective so every descramble path has a computable inverse.
package scrambletest

import "mhyunpack/internal/scramble"

// KeySet returns an invertible keyset including the Blb and WMV tables
func KeySet() scramble.KeySet {
	k := scramble.KeySet{
		RC4Seed:  append([]byte(nil), scramble.MhySeed...),
		SBox:     make([]byte, scramble.SBoxSize),
		ShiftRow: make([]byte, scramble.ShiftRowSize),
		Key:      []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77, 0x88},
		Mul:      []byte{1, 2, 3, 4, 5, 6, 7, 8},
		AESSBox:  make([]byte, scramble.AESSBoxSize),
		AESShift: make([]byte, scramble.AESShiftSize),
		XORKey:   []byte("wmv-test-xor-key-0123456789abcdef"),
	}
	for lane := range 4 {
		for x := range 256 {
			b := byte(x)
			rot := b<<(lane+1) | b>>(7-lane)
			k.SBox[lane<<8|x] = rot ^ 0x63
		}
	}
	// Row 0 reverses the first 14 bytes, row 1 is the identity and row 2 swaps pairs,
	// so every row also permutes the 12 and 14 byte chunks of short blocks.
	for j := range 16 {
		if j < 14 {
			k.ShiftRow[j] = byte(13 - j)
		} else {
			k.ShiftRow[j] = byte(j)
		}
		k.ShiftRow[16+j] = byte(j)
		k.ShiftRow[32+j] = byte(j ^ 1)
	}
	for x := range 256 {
		k.AESSBox[x] = byte(x) ^ byte(x*7+3)
	}
	for i := range 16 {
		k.AESShift[i] = byte((i*5 + 1) % 16)
	}
	return k
}

// Identity returns a keyset whose substitution/permutation network is the identity
func Identity() scramble.KeySet {
	k := KeySet()
	for lane := range 4 {
		for x := range 256 {
			k.SBox[lane<<8|x] = byte(x)
		}
	}
	for j := range 48 {
		k.ShiftRow[j] = byte(j % 16)
	}
	for i := range 8 {
		k.Key[i] = 0
		k.Mul[i] = 1
	}
	return k
}

// Engine builds an engine from KeySet and panics on error
func Engine() *scramble.Engine {
	e, err := scramble.NewEngine(KeySet())
	if err != nil {
		panic(err)
	}
	return e
}
