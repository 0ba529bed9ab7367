package scramble

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrCipherFault means a descrambled block did not carry the expected check signature
	ErrCipherFault = errors.New("cipher fault")
	// ErrShortBuffer means the buffer cannot hold the regions a descramble pass touches
	ErrShortBuffer = errors.New("buffer too short")
	// ErrNotInvertible is returned by the producer-side functions when the keyset tables
	// are not bijective and a scrambled form cannot be computed
	ErrNotInvertible = errors.New("keyset is not invertible")
)

// Engine applies one game's cipher parameters. It is immutable after NewEngine
// and safe for concurrent use by independent decode sessions.
type Engine struct {
	keys   KeySet
	cipher *blockCipher

	invOnce sync.Once
	inv     *spnInverse
	invErr  error
}

// NewEngine validates keys and installs them
func NewEngine(keys KeySet) (*Engine, error) {
	if err := keys.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{keys: cloneKeySet(keys)}
	if e.keys.hasBlockCipher() {
		e.cipher = newBlockCipher(e.keys.AESSBox, e.keys.AESShift)
	}
	return e, nil
}

// KeySet returns a copy of the installed parameters
func (e *Engine) KeySet() KeySet {
	return cloneKeySet(e.keys)
}

func (e *Engine) inverse() (*spnInverse, error) {
	e.invOnce.Do(func() {
		e.inv, e.invErr = newSPNInverse(&e.keys)
	})
	return e.inv, e.invErr
}

func (e *Engine) requireBlockCipher() error {
	if e.cipher == nil {
		return fmt.Errorf("%w: aes_sbox and aes_shift are required for block decryption", ErrKeySet)
	}
	return nil
}

func cloneKeySet(k KeySet) KeySet {
	clone := func(b []byte) []byte {
		if b == nil {
			return nil
		}
		return append([]byte(nil), b...)
	}
	return KeySet{
		RC4Seed:  clone(k.RC4Seed),
		SBox:     clone(k.SBox),
		ShiftRow: clone(k.ShiftRow),
		Key:      clone(k.Key),
		Mul:      clone(k.Mul),
		AESSBox:  clone(k.AESSBox),
		AESShift: clone(k.AESShift),
		XORKey:   clone(k.XORKey),
	}
}
