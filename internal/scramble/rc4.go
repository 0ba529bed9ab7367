package scramble

// Keystream combination operations, selected per byte by op % 3.
const (
	opXor = iota
	opSub
	opAdd
)

// rc4 applies the modified RC4 keystream to data in place.
// The state starts from seed instead of the identity permutation and every keystream
// byte is xored, subtracted or added according to sel(i), i being the PRGA index.
// inverse swaps subtract and add so the producer side can undo a pass.
func rc4(seed []byte, t *[256]byte, data []byte, sel func(i int) byte, inverse bool) {
	var s [256]byte
	copy(s[:], seed)

	j := 0
	for i := range 256 {
		j = (j + int(s[i]) + int(t[i])) & 0xff
		s[i], s[j] = s[j], s[i]
	}

	i, j := 0, 0
	for n := range data {
		i = (i + 1) & 0xff
		j = (j + int(s[i])) & 0xff
		s[i], s[j] = s[j], s[i]
		k := s[(int(s[j])+int(s[i]))&0xff]

		op := int(sel(i) % 3)
		if inverse && op != opXor {
			op = opSub + opAdd - op
		}
		switch op {
		case opXor:
			data[n] ^= k
		case opSub:
			data[n] -= k
		case opAdd:
			data[n] += k
		}
	}
}

// repeatKey expands key to the 256-byte schedule input
func repeatKey(key []byte) *[256]byte {
	var t [256]byte
	for i := range t {
		t[i] = key[i%len(key)]
	}
	return &t
}
