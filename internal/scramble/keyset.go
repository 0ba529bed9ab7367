package scramble

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Table sizes of the five required parameters and the optional Blb/WMV additions.
const (
	RC4SeedSize  = 256
	SBoxSize     = 4 * 256
	ShiftRowSize = 3 * 16
	KeySize      = 8
	MulSize      = 8
	AESSBoxSize  = 256
	AESShiftSize = 16
)

// ErrKeySet is returned when a keyset is missing a parameter or has a malformed one
var ErrKeySet = errors.New("invalid cipher keyset")

// KeySet holds the per-game cipher parameters.
// RC4Seed, SBox, ShiftRow, Key and Mul are required by every descramble path.
// AESSBox and AESShift are only needed by the Blb/WMV block cipher, XORKey only by WMV.
type KeySet struct {
	RC4Seed  []byte
	SBox     []byte
	ShiftRow []byte
	Key      []byte
	Mul      []byte

	AESSBox  []byte
	AESShift []byte
	XORKey   []byte
}

// MhySeed is the RC4 starting state shared by every mhy envelope
var MhySeed = []byte{
	41, 35, 190, 132, 225, 108, 214, 174, 82, 144, 73, 241, 241, 187, 233, 235,
	179, 166, 219, 60, 135, 12, 62, 153, 36, 94, 13, 28, 6, 183, 71, 222,
	179, 18, 77, 200, 67, 187, 139, 166, 31, 3, 90, 125, 9, 56, 37, 31,
	93, 212, 203, 252, 150, 245, 69, 59, 19, 13, 137, 10, 28, 219, 174, 50,
	32, 154, 80, 238, 64, 120, 54, 253, 18, 73, 50, 246, 158, 125, 73, 220,
	173, 79, 20, 242, 68, 64, 102, 208, 107, 196, 48, 183, 50, 59, 161, 34,
	246, 34, 145, 157, 225, 139, 31, 218, 176, 202, 153, 2, 185, 114, 157, 73,
	44, 128, 126, 197, 153, 213, 233, 128, 178, 234, 201, 204, 83, 191, 103, 214,
	191, 20, 214, 126, 45, 220, 142, 102, 131, 239, 87, 73, 97, 255, 105, 143,
	97, 205, 209, 30, 157, 156, 22, 114, 114, 230, 29, 240, 132, 79, 74, 119,
	2, 215, 232, 57, 44, 83, 203, 201, 18, 30, 51, 116, 158, 12, 244, 213,
	212, 159, 212, 164, 89, 126, 53, 207, 50, 34, 244, 204, 207, 211, 144, 45,
	72, 211, 143, 117, 230, 217, 29, 42, 229, 192, 247, 43, 120, 129, 135, 68,
	14, 95, 80, 0, 212, 97, 141, 190, 123, 5, 21, 7, 59, 51, 130, 31,
	24, 112, 146, 218, 100, 84, 206, 177, 133, 62, 105, 21, 248, 70, 106, 4,
	150, 115, 14, 217, 22, 47, 103, 104, 212, 247, 74, 74, 208, 87, 104, 118,
}

// Validate checks the five required parameters and any optional table that is set
func (k KeySet) Validate() error {
	required := []struct {
		name string
		data []byte
		size int
	}{
		{"rc4_seed", k.RC4Seed, RC4SeedSize},
		{"sbox", k.SBox, SBoxSize},
		{"shift_row", k.ShiftRow, ShiftRowSize},
		{"key", k.Key, KeySize},
		{"mul", k.Mul, MulSize},
	}
	for _, p := range required {
		if len(p.data) != p.size {
			return fmt.Errorf("%w: %s has %d bytes, want %d", ErrKeySet, p.name, len(p.data), p.size)
		}
	}
	if k.AESSBox != nil && len(k.AESSBox) != AESSBoxSize {
		return fmt.Errorf("%w: aes_sbox has %d bytes, want %d", ErrKeySet, len(k.AESSBox), AESSBoxSize)
	}
	if k.AESShift != nil && len(k.AESShift) != AESShiftSize {
		return fmt.Errorf("%w: aes_shift has %d bytes, want %d", ErrKeySet, len(k.AESShift), AESShiftSize)
	}
	for i, b := range k.AESShift {
		if b >= 16 {
			return fmt.Errorf("%w: aes_shift[%d] = %d out of range", ErrKeySet, i, b)
		}
	}
	if k.XORKey != nil && len(k.XORKey) < 16 {
		return fmt.Errorf("%w: xor_key has %d bytes, want at least 16", ErrKeySet, len(k.XORKey))
	}
	return nil
}

// WithDefaults fills an empty RC4 seed with MhySeed
func (k KeySet) WithDefaults() KeySet {
	if len(k.RC4Seed) == 0 {
		k.RC4Seed = append([]byte(nil), MhySeed...)
	}
	return k
}

// hasBlockCipher reports whether the Blb AES tables are present
func (k KeySet) hasBlockCipher() bool {
	return len(k.AESSBox) == AESSBoxSize && len(k.AESShift) == AESShiftSize
}

// KeySetFromHex builds a KeySet from hex strings keyed by the names used in keyset files
// (rc4_seed, sbox, shift_row, key, mul, aes_sbox, aes_shift, xor_key). Whitespace is ignored.
func KeySetFromHex(fields map[string]string) (KeySet, error) {
	var k KeySet
	targets := map[string]*[]byte{
		"rc4_seed":  &k.RC4Seed,
		"sbox":      &k.SBox,
		"shift_row": &k.ShiftRow,
		"key":       &k.Key,
		"mul":       &k.Mul,
		"aes_sbox":  &k.AESSBox,
		"aes_shift": &k.AESShift,
		"xor_key":   &k.XORKey,
	}
	for name, value := range fields {
		dst, ok := targets[strings.ToLower(name)]
		if !ok {
			return KeySet{}, fmt.Errorf("%w: unknown field %q", ErrKeySet, name)
		}
		cleaned := strings.Join(strings.Fields(value), "")
		data, err := hex.DecodeString(cleaned)
		if err != nil {
			return KeySet{}, fmt.Errorf("%w: field %s: %w", ErrKeySet, name, err)
		}
		*dst = data
	}
	return k, nil
}
