package container

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// logical is the reassembled stream of decompressed blocks, held in memory
// or in a temp file once it reaches the spill threshold.
type logical struct {
	mem  []byte
	file *os.File
	size int64
}

func newLogical(total, threshold int64, tempDir string) (*logical, error) {
	if total < threshold {
		return &logical{mem: make([]byte, 0, total)}, nil
	}
	f, err := os.CreateTemp(tempDir, "mhyunpack-*.blocks")
	if err != nil {
		return nil, ioErr("create block spill file", err)
	}
	return &logical{file: f}, nil
}

func (l *logical) Write(p []byte) (int, error) {
	if l.file == nil {
		l.mem = append(l.mem, p...)
		l.size += int64(len(p))
		return len(p), nil
	}
	n, err := l.file.Write(p)
	l.size += int64(n)
	return n, err
}

func (l *logical) ReadAt(p []byte, off int64) (int, error) {
	if l.file != nil {
		return l.file.ReadAt(p, off)
	}
	if off >= int64(len(l.mem)) {
		return 0, io.EOF
	}
	n := copy(p, l.mem[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (l *logical) spilled() bool { return l.file != nil }

func (l *logical) Close() error {
	l.mem = nil
	if l.file == nil {
		return nil
	}
	name := l.file.Name()
	err := l.file.Close()
	if rmErr := os.Remove(name); rmErr != nil && err == nil {
		err = rmErr
	}
	l.file = nil
	return err
}

// StreamFile is one extracted entry. Small entries are held in memory, large ones in a
// temp file that Close removes. The caller owns every StreamFile returned by a decoder.
type StreamFile struct {
	Path     string
	FileName string
	Flags    uint32

	size    int64
	mem     []byte
	file    *os.File
	section *io.SectionReader
}

func newMemoryFile(e Entry, data []byte) *StreamFile {
	return &StreamFile{
		Path:     e.Path,
		FileName: e.FileName(),
		Flags:    e.Flags,
		size:     int64(len(data)),
		mem:      data,
		section:  io.NewSectionReader(bytes.NewReader(data), 0, int64(len(data))),
	}
}

func newSpilledFile(e Entry, src io.ReaderAt, tempDir string) (*StreamFile, error) {
	f, err := os.CreateTemp(tempDir, "mhyunpack-*-"+e.FileName())
	if err != nil {
		return nil, ioErr("create entry spill file", err)
	}
	if _, err := io.Copy(f, io.NewSectionReader(src, e.Offset, e.Size)); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, ioErr("write entry spill file", err)
	}
	return &StreamFile{
		Path:     e.Path,
		FileName: e.FileName(),
		Flags:    e.Flags,
		size:     e.Size,
		file:     f,
		section:  io.NewSectionReader(f, 0, e.Size),
	}, nil
}

// NewStreamFile wraps an in-memory payload, for callers that build entries themselves
func NewStreamFile(path string, data []byte) *StreamFile {
	return newMemoryFile(Entry{Path: path, Size: int64(len(data))}, data)
}

// Size returns the entry size in bytes
func (sf *StreamFile) Size() int64 { return sf.size }

// OnDisk reports whether the payload lives in a temp file
func (sf *StreamFile) OnDisk() bool { return sf.file != nil }

func (sf *StreamFile) Read(p []byte) (int, error) { return sf.section.Read(p) }

func (sf *StreamFile) ReadAt(p []byte, off int64) (int, error) { return sf.section.ReadAt(p, off) }

func (sf *StreamFile) Seek(offset int64, whence int) (int64, error) {
	return sf.section.Seek(offset, whence)
}

// ReadAll returns the whole payload regardless of the current position
func (sf *StreamFile) ReadAll() ([]byte, error) {
	if sf.mem != nil || sf.file == nil {
		return sf.mem, nil
	}
	data := make([]byte, sf.size)
	if _, err := sf.section.ReadAt(data, 0); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read %s: %w", sf.Path, err)
	}
	return data, nil
}

// Close releases the payload and removes its temp file
func (sf *StreamFile) Close() error {
	sf.mem = nil
	if sf.file == nil {
		return nil
	}
	name := sf.file.Name()
	err := sf.file.Close()
	if rmErr := os.Remove(name); rmErr != nil && err == nil {
		err = rmErr
	}
	sf.file = nil
	return err
}
