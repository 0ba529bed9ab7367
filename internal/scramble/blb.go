package scramble

import "fmt"

// blbWindow is the number of leading bytes the Blb cipher touches
const blbWindow = 128

// DecryptBlock reverses the Blb scrambling of buf in place using the 16-byte header key.
// Only the first 128 bytes are modified.
func (e *Engine) DecryptBlock(buf, header []byte) error {
	if err := e.checkBlock(buf, header); err != nil {
		return err
	}
	b := buf[:min(blbWindow, len(buf))]
	for i := range 16 {
		b[i] ^= header[i]
	}
	e.cipher.encrypt(b[:16], header)
	if len(b) > 16 {
		e.blbRC4(b, false)
	}
	chunkRounds(&e.keys, b[:16])
	return nil
}

// EncryptBlock is the producer-side inverse of DecryptBlock
func (e *Engine) EncryptBlock(buf, header []byte) error {
	if err := e.checkBlock(buf, header); err != nil {
		return err
	}
	b := buf[:min(blbWindow, len(buf))]
	if err := e.undoChunk(b[:16]); err != nil {
		return err
	}
	if len(b) > 16 {
		e.blbRC4(b, true)
	}
	if err := e.cipher.decrypt(b[:16], header); err != nil {
		return err
	}
	for i := range 16 {
		b[i] ^= header[i]
	}
	return nil
}

// DecryptWMV reverses the video container scrambling, keyed by the keyset's XOR key.
// Unlike DecryptBlock the keystream covers the whole buffer.
func (e *Engine) DecryptWMV(buf []byte) error {
	if err := e.requireBlockCipher(); err != nil {
		return err
	}
	xorKey := e.keys.XORKey
	if len(xorKey) < 16 {
		return fmt.Errorf("%w: xor_key is required for wmv decryption", ErrKeySet)
	}
	if len(buf) < 16 {
		return fmt.Errorf("%w: wmv buffer of %d bytes", ErrShortBuffer, len(buf))
	}
	for i, k := range xorKey {
		buf[i%16] ^= k
	}
	e.cipher.encrypt(buf[:16], xorKey[:16])
	if len(buf) > 16 {
		e.blbRC4(buf, false)
	}
	chunkRounds(&e.keys, buf[:16])
	return nil
}

// blbRC4 keys the stream with bytes 0..8 and picks operations from bytes 8..16
func (e *Engine) blbRC4(b []byte, inverse bool) {
	t := repeatKey(b[:8])
	rc4(e.keys.RC4Seed, t, b[16:], func(i int) byte { return b[i%8+8] }, inverse)
}

func (e *Engine) checkBlock(buf, header []byte) error {
	if err := e.requireBlockCipher(); err != nil {
		return err
	}
	if len(header) != 16 {
		return fmt.Errorf("%w: header key has %d bytes, want 16", ErrKeySet, len(header))
	}
	if len(buf) < 16 {
		return fmt.Errorf("%w: block of %d bytes", ErrShortBuffer, len(buf))
	}
	return nil
}
