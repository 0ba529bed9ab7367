package scramble

import "fmt"

const spnRounds = 3

// DescrambleChunk runs the three-round substitution/permutation network over buf (at most 16 bytes)
func (e *Engine) DescrambleChunk(buf []byte) error {
	if len(buf) > 16 {
		return fmt.Errorf("%w: chunk of %d bytes exceeds 16", ErrShortBuffer, len(buf))
	}
	chunkRounds(&e.keys, buf)
	return nil
}

// ScrambleChunk is the inverse of DescrambleChunk
func (e *Engine) ScrambleChunk(buf []byte) error {
	if len(buf) > 16 {
		return fmt.Errorf("%w: chunk of %d bytes exceeds 16", ErrShortBuffer, len(buf))
	}
	return e.undoChunk(buf)
}

func chunkRounds(k *KeySet, buf []byte) {
	n := len(buf)
	if n == 0 {
		return
	}
	var vector [16]byte
	for i := range spnRounds {
		row := k.ShiftRow[(2-i)*16:]
		for j := range n {
			idx := j % 8
			src := buf[int(row[j])%n]
			vector[j] = k.Key[idx] ^ k.SBox[(j%4)<<8|int(gfMul(k.Mul[idx], src))]
		}
		copy(buf, vector[:n])
	}
}

// spnInverse holds the inverted substitution lanes
type spnInverse struct {
	sbox [4][256]byte
}

func newSPNInverse(k *KeySet) (*spnInverse, error) {
	inv := &spnInverse{}
	for lane := range 4 {
		var seen [256]bool
		for x := range 256 {
			y := k.SBox[lane<<8|x]
			if seen[y] {
				return nil, fmt.Errorf("%w: sbox lane %d is not a permutation", ErrNotInvertible, lane)
			}
			seen[y] = true
			inv.sbox[lane][y] = byte(x)
		}
	}
	for i, m := range k.Mul {
		if m == 0 {
			return nil, fmt.Errorf("%w: mul[%d] is zero", ErrNotInvertible, i)
		}
	}
	return inv, nil
}

func (e *Engine) undoChunk(buf []byte) error {
	n := len(buf)
	if n == 0 {
		return nil
	}
	inv, err := e.inverse()
	if err != nil {
		return err
	}
	k := &e.keys
	var prev [16]byte
	for i := spnRounds - 1; i >= 0; i-- {
		row := k.ShiftRow[(2-i)*16:]
		var seen [16]bool
		for j := range n {
			src := int(row[j]) % n
			if seen[src] {
				return fmt.Errorf("%w: shift row %d does not permute %d bytes", ErrNotInvertible, 2-i, n)
			}
			seen[src] = true
			idx := j % 8
			s := inv.sbox[j%4][buf[j]^k.Key[idx]]
			prev[src] = gfDiv(s, k.Mul[idx])
		}
		copy(buf, prev[:n])
	}
	return nil
}
