package scramble

import (
	"crypto/aes"
	"fmt"
)

// Envelope is the mhy container generation, selected by the file signature
type Envelope int

const (
	Mhy0 Envelope = iota
	Mhy1
)

func (e Envelope) String() string {
	switch e {
	case Mhy0:
		return "mhy0"
	case Mhy1:
		return "mhy1"
	}
	return fmt.Sprintf("Envelope(%d)", int(e))
}

// EnvelopeSignature is recovered at bytes 4..12 by the new-envelope descramble
const EnvelopeSignature = "mhynewec"

// Blocks at or below this length stop after the signature check on the new-envelope path.
const newEnvelopeShortBlock = 35

// Layout describes one descramble call: how many bytes are covered, the entry width
// and where the payload starts once descrambled.
type Layout struct {
	BlockSize  int
	EntrySize  int
	DataOffset int
}

// HeaderLayout returns the block-info layout of env for a buffer of n bytes
func HeaderLayout(env Envelope, n int) Layout {
	if env == Mhy0 {
		return Layout{BlockSize: 0x39, EntrySize: 0x1c, DataOffset: 32}
	}
	return Layout{BlockSize: min(n, 128), EntrySize: 28, DataOffset: 48}
}

// BlockLayout returns the storage block layout of env for a buffer of n bytes
func BlockLayout(env Envelope, n int) Layout {
	if env == Mhy0 {
		return Layout{BlockSize: min(n, 0x21), EntrySize: 8, DataOffset: 12}
	}
	return Layout{BlockSize: min(n, 128), EntrySize: 8, DataOffset: 28}
}

// Descramble reverses the mhy scrambling of buf in place.
// newEnvelope selects the AES/RC4 path that must recover EnvelopeSignature.
func (e *Engine) Descramble(buf []byte, l Layout, newEnvelope bool) error {
	if err := checkLayout(len(buf), l, newEnvelope); err != nil {
		return err
	}
	rounded := roundEntry(l.EntrySize)

	if newEnvelope {
		chunkRounds(&e.keys, buf[4:20])
		if sig := string(buf[4:12]); sig != EnvelopeSignature {
			return fmt.Errorf("%w: expected %s, got %q", ErrCipherFault, EnvelopeSignature, sig)
		}
		if l.BlockSize <= newEnvelopeShortBlock {
			return nil
		}
		chunkRounds(&e.keys, buf[20:36])
		data, err := ecb(buf[0:16], buf[20:36], true)
		if err != nil {
			return err
		}
		copy(buf[20:36], data)
		for i := range 4 {
			buf[i] ^= data[i]
		}
		e.mhyRC4(buf[20+rounded:l.BlockSize], buf[20:28], buf[28:36], false)
		return nil
	}

	chunk := min(len(buf)-4, 16)
	for i := 0; i < rounded; i += 16 {
		chunkRounds(&e.keys, buf[i+4:i+4+chunk])
	}
	for i := range 4 {
		buf[i] ^= buf[i+4]
	}
	xorEntries(buf, l, rounded)
	return nil
}

// Scramble is the producer-side inverse of Descramble.
// On the new-envelope path buf must already carry EnvelopeSignature at bytes 4..12.
func (e *Engine) Scramble(buf []byte, l Layout, newEnvelope bool) error {
	if err := checkLayout(len(buf), l, newEnvelope); err != nil {
		return err
	}
	rounded := roundEntry(l.EntrySize)

	if newEnvelope {
		if sig := string(buf[4:12]); sig != EnvelopeSignature {
			return fmt.Errorf("%w: plaintext must carry %s", ErrCipherFault, EnvelopeSignature)
		}
		if l.BlockSize > newEnvelopeShortBlock {
			e.mhyRC4(buf[20+rounded:l.BlockSize], buf[20:28], buf[28:36], true)
			for i := range 4 {
				buf[i] ^= buf[20+i]
			}
			data, err := ecb(buf[0:16], buf[20:36], false)
			if err != nil {
				return err
			}
			copy(buf[20:36], data)
			if err := e.undoChunk(buf[20:36]); err != nil {
				return err
			}
		}
		return e.undoChunk(buf[4:20])
	}

	xorEntries(buf, l, rounded)
	for i := range 4 {
		buf[i] ^= buf[i+4]
	}
	chunk := min(len(buf)-4, 16)
	for i := 0; i < rounded; i += 16 {
		if err := e.undoChunk(buf[i+4 : i+4+chunk]); err != nil {
			return err
		}
	}
	return nil
}

// xorEntries folds every entry after the first rounded one with the first entry,
// stopping once the last covered byte has been written. It is its own inverse.
func xorEntries(buf []byte, l Layout, rounded int) {
	for cur := rounded + 4; cur < l.BlockSize; cur += l.EntrySize {
		for i := range l.EntrySize {
			buf[i+cur] ^= buf[i+4]
			if i+cur >= l.BlockSize-1 {
				return
			}
		}
	}
}

func (e *Engine) mhyRC4(data, key, op []byte, inverse bool) {
	t := repeatKey(key)
	rc4(e.keys.RC4Seed, t, data, func(i int) byte { return op[i%len(op)] }, inverse)
}

// ecb runs one AES-128 block keyed by seed
func ecb(seed, block []byte, encrypt bool) ([]byte, error) {
	c, err := aes.NewCipher(seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create aes cipher: %w", err)
	}
	out := make([]byte, aes.BlockSize)
	if encrypt {
		c.Encrypt(out, block)
	} else {
		c.Decrypt(out, block)
	}
	return out, nil
}

func roundEntry(entrySize int) int {
	return (entrySize + 15) / 16 * 16
}

func checkLayout(n int, l Layout, newEnvelope bool) error {
	if l.BlockSize > n || l.EntrySize <= 0 {
		return fmt.Errorf("%w: %d bytes cannot hold a %d byte block", ErrShortBuffer, n, l.BlockSize)
	}
	rounded := roundEntry(l.EntrySize)
	if newEnvelope {
		if n < 20 {
			return fmt.Errorf("%w: %d bytes, need 20 for the signature chunk", ErrShortBuffer, n)
		}
		if l.BlockSize > newEnvelopeShortBlock && (n < 36 || l.BlockSize < 20+rounded) {
			return fmt.Errorf("%w: %d byte block cannot hold the keyed tail at %d", ErrShortBuffer, l.BlockSize, 20+rounded)
		}
		return nil
	}
	if n < 8 {
		return fmt.Errorf("%w: %d bytes, need at least 8", ErrShortBuffer, n)
	}
	chunk := min(n-4, 16)
	if rounded-16+4+chunk > n || 4+l.EntrySize > n {
		return fmt.Errorf("%w: %d bytes cannot hold %d chunked entry bytes", ErrShortBuffer, n, rounded)
	}
	return nil
}
