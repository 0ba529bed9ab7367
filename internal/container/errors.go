package container

import (
	"errors"
	"fmt"

	"mhyunpack/internal/codec"
	"mhyunpack/internal/scramble"
)

var (
	// ErrFormat covers unrecognized signatures and corrupt structural fields
	ErrFormat = errors.New("invalid container format")
	// ErrIO is a read, write or temp file failure
	ErrIO = errors.New("container io failure")
	// ErrState is returned when decoder steps are called out of order
	ErrState = errors.New("decoder step out of order")

	// Re-exported so callers can classify without importing the lower layers
	ErrCipherFault  = scramble.ErrCipherFault
	ErrSizeMismatch = codec.ErrSizeMismatch
)

// BlockError locates a fatal failure in the storage block pipeline
type BlockError struct {
	Index int
	Err   error
}

func (e *BlockError) Error() string { return fmt.Sprintf("block %d: %v", e.Index, e.Err) }
func (e *BlockError) Unwrap() error { return e.Err }

// EntryError is a per-entry extraction failure; sibling entries are unaffected
type EntryError struct {
	Path string
	Err  error
}

func (e *EntryError) Error() string { return fmt.Sprintf("entry %q: %v", e.Path, e.Err) }
func (e *EntryError) Unwrap() error { return e.Err }

func formatErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...))
}

// cipherErr keeps the scramble cause while classifying it as a format problem
func cipherErr(what string, err error) error {
	return fmt.Errorf("%w: descramble %s: %w", ErrFormat, what, err)
}

func ioErr(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, what, err)
}
