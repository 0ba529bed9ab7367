// Package container decodes mhy and Blb3 asset containers into their logical files.
//
// A Decoder walks a fixed sequence of steps: ReadHeader, DecodeBlockInfo,
// AssembleBlocks, ExtractFiles and Close. Decode and Open run the whole sequence.
// Storage blocks are processed strictly in order because every entry offset refers
// to the concatenation of all decompressed blocks before it.
package container

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mhyunpack/internal/codec"
	"mhyunpack/internal/game"
	"mhyunpack/internal/scramble"
)

// Cipher is the descrambling capability a decoder needs. *scramble.Engine implements it.
type Cipher interface {
	Descramble(buf []byte, l scramble.Layout, newEnvelope bool) error
	DecryptBlock(buf, header []byte) error
}

// Config configures one decode session
type Config struct {
	Cipher  Cipher
	Variant game.Variant
	// Codecs in fallback order; DefaultCodecs when empty
	Codecs      []codec.Codec
	AttemptHook codec.AttemptHook
	Logger      zerolog.Logger
	// Entries and block streams at or above this size are kept in temp files
	SpillThreshold int64
	TempDir        string
}

// DefaultSpillThreshold keeps everything addressable by a signed 32-bit size in memory
const DefaultSpillThreshold = math.MaxInt32

// maxBlockInfoSize bounds the decompressed block-info table
const maxBlockInfoSize = 64 << 20

// DefaultCodecs are the in-process codecs; native ones are appended by the caller
func DefaultCodecs() []codec.Codec {
	return []codec.Codec{codec.LZ4{}, codec.LZMA{}}
}

// State is the position of a Decoder in its step sequence
type State int

const (
	StateUnopened State = iota
	StateHeaderRead
	StateBlockInfoDecoded
	StateBlocksAssembled
	StateFilesExtracted
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateHeaderRead:
		return "header read"
	case StateBlockInfoDecoded:
		return "block info decoded"
	case StateBlocksAssembled:
		return "blocks assembled"
	case StateFilesExtracted:
		return "files extracted"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Decoder decodes one container. It is not safe for concurrent use; decode
// independent containers with independent decoders.
type Decoder struct {
	r       io.ReadSeeker
	path    string
	cfg     Config
	adapter *codec.Adapter
	log     zerolog.Logger
	session uuid.UUID

	state  State
	failed error

	header   Header
	blb      *blbHeader
	entries  []Entry
	blocks   []Block
	data     *logical
	files    []*StreamFile
	failures []*EntryError
}

// NewDecoder prepares a session reading the container at the current position of r
func NewDecoder(r io.ReadSeeker, path string, cfg Config) (*Decoder, error) {
	if cfg.Cipher == nil {
		return nil, fmt.Errorf("%w: no cipher configured", scramble.ErrKeySet)
	}
	if len(cfg.Codecs) == 0 {
		cfg.Codecs = DefaultCodecs()
	}
	if cfg.SpillThreshold <= 0 {
		cfg.SpillThreshold = DefaultSpillThreshold
	}

	session := uuid.New()
	log := cfg.Logger.With().Str("container", path).Str("session", session.String()).Logger()

	adapter := codec.NewAdapter(cfg.Codecs...)
	adapter.SetLogger(log)
	if cfg.AttemptHook != nil {
		adapter.SetHook(cfg.AttemptHook)
	}

	return &Decoder{
		r:       r,
		path:    path,
		cfg:     cfg,
		adapter: adapter,
		log:     log,
		session: session,
	}, nil
}

// State returns the last completed step
func (d *Decoder) State() State { return d.state }

// Session identifies this decode in logs
func (d *Decoder) Session() uuid.UUID { return d.session }

func (d *Decoder) expect(s State) error {
	if d.failed != nil {
		return d.failed
	}
	if d.state != s {
		return fmt.Errorf("%w: decoder is %s, want %s", ErrState, d.state, s)
	}
	return nil
}

// fail aborts the session: the error sticks and partial state is released
func (d *Decoder) fail(err error) error {
	d.failed = err
	d.entries = nil
	d.blocks = nil
	if d.data != nil {
		if cerr := d.data.Close(); cerr != nil {
			d.log.Warn().Err(cerr).Msg("failed to remove block spill file")
		}
		d.data = nil
	}
	d.log.Debug().Err(err).Msg("container decode aborted")
	return err
}

// ReadHeader reads the signature and the fixed header fields
func (d *Decoder) ReadHeader() (Header, error) {
	if err := d.expect(StateUnopened); err != nil {
		return Header{}, err
	}

	sig := make([]byte, signatureSize)
	if err := d.readFull(sig, "signature"); err != nil {
		return Header{}, d.fail(err)
	}
	gen, err := ParseSignature(sig)
	if err != nil {
		return Header{}, d.fail(err)
	}
	d.header = Header{Signature: string(sig), Generation: gen}

	if gen == GenBlb3 {
		if err := d.readBlbHeader(); err != nil {
			return Header{}, d.fail(err)
		}
	} else {
		var size [4]byte
		if err := d.readFull(size[:], "block info size"); err != nil {
			return Header{}, d.fail(err)
		}
		d.header.CompressedBlockInfoSize = binary.LittleEndian.Uint32(size[:])
		d.header.Flags = mhyFlags
	}

	d.log.Debug().Str("signature", gen.String()).
		Uint32("block_info_size", d.header.CompressedBlockInfoSize).
		Msg("parsed header")
	d.state = StateHeaderRead
	return d.header, nil
}

// DecodeBlockInfo reads, descrambles and decompresses the block-info table and
// parses the directory and storage block list from it.
func (d *Decoder) DecodeBlockInfo() ([]Entry, []Block, error) {
	if err := d.expect(StateHeaderRead); err != nil {
		return nil, nil, err
	}

	if d.header.CompressedBlockInfoSize > maxBlockInfoSize {
		return nil, nil, d.fail(formatErr("block info declares %d compressed bytes", d.header.CompressedBlockInfoSize))
	}
	raw := make([]byte, d.header.CompressedBlockInfoSize)
	if err := d.readFull(raw, "block info"); err != nil {
		return nil, nil, d.fail(err)
	}

	var err error
	if d.header.Generation == GenBlb3 {
		err = d.decodeBlbInfo(raw)
	} else {
		err = d.decodeMhyInfo(raw)
	}
	if err != nil {
		return nil, nil, d.fail(err)
	}

	d.log.Debug().Int("entries", len(d.entries)).Int("blocks", len(d.blocks)).Msg("decoded block info")
	d.state = StateBlockInfoDecoded
	return d.entries, d.blocks, nil
}

func (d *Decoder) newEnvelope() bool {
	return d.cfg.Variant.Traits().NewEnvelopeCipher
}

func (d *Decoder) decodeMhyInfo(raw []byte) error {
	layout := scramble.HeaderLayout(d.header.Generation.envelope(), len(raw))
	if len(raw) <= layout.DataOffset {
		return formatErr("block info of %d bytes has no payload", len(raw))
	}
	if err := d.cfg.Cipher.Descramble(raw, layout, d.newEnvelope()); err != nil {
		return cipherErr("block info", err)
	}

	fr := newFieldReader(raw[layout.DataOffset:])
	size := fr.uvarint("uncompressed block info size")
	if fr.err != nil {
		return fr.err
	}
	if size > maxBlockInfoSize {
		return formatErr("block info declares %d bytes", size)
	}
	d.header.UncompressedBlockInfoSize = size

	table := make([]byte, size)
	if err := d.adapter.DecompressInto(fr.buf[fr.pos:], table); err != nil {
		return fmt.Errorf("block info: %w", err)
	}
	entries, blocks, err := parseMhyTable(table)
	if err != nil {
		return err
	}
	d.entries, d.blocks = entries, blocks
	return nil
}

// parseMhyTable reads the directory then the storage block list.
// Bytes after the block list are ignored.
func parseMhyTable(table []byte) ([]Entry, []Block, error) {
	r := newFieldReader(table)

	n := r.count("directory count")
	entries := make([]Entry, 0, n)
	for range n {
		e := Entry{Path: r.str("entry path")}
		if r.bool("entry flag") {
			e.Flags = 4
		}
		e.Offset = int64(r.uvarint("entry offset"))
		e.Size = int64(r.uvarint("entry size"))
		entries = append(entries, e)
	}

	n = r.count("block count")
	blocks := make([]Block, 0, n)
	for range n {
		blocks = append(blocks, Block{
			CompressedSize:   r.uvarint("block compressed size"),
			UncompressedSize: r.uvarint("block uncompressed size"),
			Flags:            mhyFlags,
		})
	}
	if r.err != nil {
		return nil, nil, r.err
	}
	return entries, blocks, nil
}

// AssembleBlocks runs every storage block through the cipher and the codecs, in order,
// into the logical stream. Any failure aborts the container.
func (d *Decoder) AssembleBlocks() error {
	if err := d.expect(StateBlockInfoDecoded); err != nil {
		return err
	}

	var total int64
	for _, b := range d.blocks {
		total += int64(b.UncompressedSize)
	}
	data, err := newLogical(total, d.cfg.SpillThreshold, d.cfg.TempDir)
	if err != nil {
		return d.fail(err)
	}
	d.data = data
	if data.spilled() {
		d.log.Debug().Int64("size", total).Msg("block stream spilled to disk")
	}

	for i, b := range d.blocks {
		if err := d.assembleBlock(b); err != nil {
			return d.fail(&BlockError{Index: i, Err: err})
		}
	}
	if d.data.size != total {
		return d.fail(formatErr("block stream is %d bytes, blocks declare %d", d.data.size, total))
	}

	d.log.Debug().Int64("size", total).Str("codec", d.adapter.Preferred()).Msg("assembled blocks")
	d.state = StateBlocksAssembled
	return nil
}

func (d *Decoder) assembleBlock(b Block) error {
	if b.CompressedSize < minBlockSize {
		return formatErr("compressed size %d is below the %d byte minimum", b.CompressedSize, minBlockSize)
	}

	src := getScratch(int(b.CompressedSize))
	defer putScratch(src)
	if err := d.readFull(*src, "storage block"); err != nil {
		return err
	}
	dst := getScratch(int(b.UncompressedSize))
	defer putScratch(dst)

	var err error
	if d.header.Generation == GenBlb3 {
		err = d.decodeBlbBlock(b, *src, *dst)
	} else {
		err = d.decodeMhyBlock(*src, *dst)
	}
	if err != nil {
		return err
	}
	if _, err := d.data.Write(*dst); err != nil {
		return ioErr("write block stream", err)
	}
	return nil
}

func (d *Decoder) decodeMhyBlock(src, dst []byte) error {
	layout := scramble.BlockLayout(d.header.Generation.envelope(), len(src))
	if err := d.cfg.Cipher.Descramble(src, layout, d.newEnvelope()); err != nil {
		return cipherErr("storage block", err)
	}
	if layout.DataOffset >= len(src) {
		return formatErr("block of %d bytes has no payload", len(src))
	}
	return d.adapter.DecompressInto(src[layout.DataOffset:], dst)
}

// ExtractFiles slices every directory entry out of the logical stream.
// Entries that fail are reported through Failures; the rest are returned.
func (d *Decoder) ExtractFiles() ([]*StreamFile, error) {
	if err := d.expect(StateBlocksAssembled); err != nil {
		return nil, err
	}

	for _, e := range d.entries {
		sf, err := d.extract(e)
		if err != nil {
			d.log.Warn().Str("entry", e.Path).Err(err).Msg("failed to extract entry")
			d.failures = append(d.failures, &EntryError{Path: e.Path, Err: err})
			continue
		}
		d.files = append(d.files, sf)
	}

	d.log.Info().Int("files", len(d.files)).Int("failed", len(d.failures)).Msg("extracted container")
	d.state = StateFilesExtracted
	return d.files, nil
}

func (d *Decoder) extract(e Entry) (*StreamFile, error) {
	if e.Offset < 0 || e.Size < 0 || e.Offset+e.Size > d.data.size {
		return nil, formatErr("range [%d, %d) outside block stream of %d bytes", e.Offset, e.Offset+e.Size, d.data.size)
	}
	if e.Size >= d.cfg.SpillThreshold {
		return newSpilledFile(e, d.data, d.cfg.TempDir)
	}
	buf := make([]byte, e.Size)
	if _, err := d.data.ReadAt(buf, e.Offset); err != nil && !(errors.Is(err, io.EOF) && e.Size == 0) {
		return nil, ioErr("read block stream", err)
	}
	return newMemoryFile(e, buf), nil
}

// Failures lists entries that could not be extracted
func (d *Decoder) Failures() []*EntryError { return d.failures }

// Close releases the logical stream and its temp file. Extracted files stay open.
func (d *Decoder) Close() error {
	if d.state == StateClosed {
		return nil
	}
	d.state = StateClosed
	if d.data == nil {
		return nil
	}
	err := d.data.Close()
	d.data = nil
	if err != nil {
		return ioErr("remove block spill file", err)
	}
	return nil
}

func (d *Decoder) readFull(buf []byte, what string) error {
	if _, err := io.ReadFull(d.r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return formatErr("truncated %s", what)
		}
		return ioErr("read "+what, err)
	}
	return nil
}

// Bundle is the result of a complete decode
type Bundle struct {
	Path     string
	Session  uuid.UUID
	Header   Header
	Entries  []Entry
	Blocks   []Block
	Files    []*StreamFile
	Failures []*EntryError
	// Codec is the codec the session settled on
	Codec string
}

// Decode runs every step on r. On a fatal error it returns no bundle and no files.
func Decode(r io.ReadSeeker, path string, cfg Config) (*Bundle, error) {
	d, err := NewDecoder(r, path, cfg)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	header, err := d.ReadHeader()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	entries, blocks, err := d.DecodeBlockInfo()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := d.AssembleBlocks(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	files, err := d.ExtractFiles()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &Bundle{
		Path:     path,
		Session:  d.session,
		Header:   header,
		Entries:  entries,
		Blocks:   blocks,
		Files:    files,
		Failures: d.failures,
		Codec:    d.adapter.Preferred(),
	}, nil
}

// File finds an extracted file by its container path
func (b *Bundle) File(path string) (*StreamFile, bool) {
	for _, f := range b.Files {
		if f.Path == path {
			return f, true
		}
	}
	return nil, false
}

// Err joins the per-entry failures, nil when every entry extracted
func (b *Bundle) Err() error {
	errs := make([]error, len(b.Failures))
	for i, f := range b.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Close closes every extracted file
func (b *Bundle) Close() error {
	var errs []error
	for _, f := range b.Files {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
