package filesystem

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"mhyunpack/internal/catalog"
	"mhyunpack/internal/container"
	"mhyunpack/internal/game"
	"mhyunpack/internal/objects"
)

// ErrNotFound is returned when no mounted container holds a file
var ErrNotFound = errors.New("file not found")

// EntryInfo is one extracted entry as shown to a browsing layer
type EntryInfo struct {
	Container string
	Path      string
	FileName  string
	Size      int64
	Flags     uint32
	OnDisk    bool
}

// ObjectRef points at a serialized object inside a container entry
type ObjectRef struct {
	Container string
	Entry     string
	Offset    int64
	// Size of the object; zero means up to the end of the entry
	Size     int64
	Kind     objects.Kind
	TypeHash string
}

// Manager mounts decoded containers and resolves files and objects in them
type Manager struct {
	rootDir string
	cfg     container.Config
	version game.Version
	catalog *catalog.Catalog
	log     zerolog.Logger

	mu      sync.Mutex
	bundles map[string]*container.Bundle
	order   []string
}

// NewManager creates a new filesystem manager. Relative container paths resolve under rootDir.
func NewManager(rootDir string, cfg container.Config, version game.Version) *Manager {
	return &Manager{
		rootDir: rootDir,
		cfg:     cfg,
		version: version,
		log:     cfg.Logger,
		bundles: make(map[string]*container.Bundle),
	}
}

// SetCatalog enables name resolution for containers that are not mounted yet
func (m *Manager) SetCatalog(c *catalog.Catalog) { m.catalog = c }

// Init verifies the root directory
func (m *Manager) Init() error {
	if m.rootDir == "" {
		return nil
	}
	if _, err := os.Stat(m.rootDir); os.IsNotExist(err) {
		return fmt.Errorf("root directory does not exist: %s", m.rootDir)
	}
	m.log.Debug().Str("root", m.rootDir).Msg("filesystem initialized")
	return nil
}

// getFullPath constructs the full filesystem path for a container
func (m *Manager) getFullPath(name string) string {
	clean := strings.ReplaceAll(name, "\\", string(filepath.Separator))
	clean = strings.ReplaceAll(clean, "/", string(filepath.Separator))
	if filepath.IsAbs(clean) || m.rootDir == "" {
		return filepath.Clean(clean)
	}
	return filepath.Join(m.rootDir, clean)
}

// Mount decodes a container once and keeps its files open
func (m *Manager) Mount(name string) (*container.Bundle, error) {
	return m.mount(m.getFullPath(name))
}

func (m *Manager) mount(path string) (*container.Bundle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bundles[path]; ok {
		return b, nil
	}

	b, err := container.Open(path, m.cfg)
	if err != nil {
		return nil, err
	}
	if len(b.Failures) > 0 {
		m.log.Warn().Str("container", path).Int("failed", len(b.Failures)).Msg("mounted with failed entries")
	}
	if m.catalog != nil {
		fi, _ := os.Stat(path)
		if err := m.catalog.Record(b, fi); err != nil {
			m.log.Warn().Err(err).Str("container", path).Msg("failed to record container in catalog")
		}
	}

	m.bundles[path] = b
	m.order = append(m.order, path)
	m.log.Debug().Str("container", path).Int("files", len(b.Files)).Msg("mounted container")
	return b, nil
}

// Unmount closes a mounted container and removes its spilled files
func (m *Manager) Unmount(name string) error {
	path := m.getFullPath(name)

	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bundles[path]
	if !ok {
		return nil
	}
	delete(m.bundles, path)
	m.order = slices.DeleteFunc(m.order, func(p string) bool { return p == path })
	return b.Close()
}

// Mounted lists mounted container paths in mount order
func (m *Manager) Mounted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.order)
}

// Decode mounts a container and lists its entries
func (m *Manager) Decode(name string) ([]EntryInfo, error) {
	b, err := m.Mount(name)
	if err != nil {
		return nil, err
	}
	out := make([]EntryInfo, 0, len(b.Files))
	for _, f := range b.Files {
		out = append(out, EntryInfo{
			Container: b.Path,
			Path:      f.Path,
			FileName:  f.FileName,
			Size:      f.Size(),
			Flags:     f.Flags,
			OnDisk:    f.OnDisk(),
		})
	}
	return out, nil
}

// matches compares entry paths and bare file names case-insensitively
func matches(f *container.StreamFile, name string) bool {
	name = strings.ReplaceAll(name, "\\", "/")
	if strings.EqualFold(f.Path, name) {
		return true
	}
	return strings.EqualFold(f.FileName, name[strings.LastIndexByte(name, '/')+1:])
}

func (m *Manager) findMounted(name string) (*container.StreamFile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, path := range m.order {
		for _, f := range m.bundles[path].Files {
			if matches(f, name) {
				return f, true
			}
		}
	}
	return nil, false
}

// Open finds a file in mounted containers first, then in containers the catalog knows
func (m *Manager) Open(name string) (*container.StreamFile, error) {
	if f, ok := m.findMounted(name); ok {
		return f, nil
	}
	if m.catalog != nil {
		loc, ok, err := m.catalog.Lookup(name)
		if err != nil {
			return nil, err
		}
		if ok {
			b, err := m.mount(loc.Container)
			if err != nil {
				return nil, err
			}
			if f, ok := b.File(loc.Path); ok {
				return f, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Exists checks whether a file can be opened
func (m *Manager) Exists(name string) bool {
	_, err := m.Open(name)
	return err == nil
}

// ReadFile reads an entire file into memory
func (m *Manager) ReadFile(name string) ([]byte, error) {
	f, err := m.Open(name)
	if err != nil {
		return nil, err
	}
	return f.ReadAll()
}

func readRange(f *container.StreamFile, off, size int64) ([]byte, error) {
	if size == 0 {
		size = f.Size() - off
	}
	if off < 0 || size < 0 || off+size > f.Size() {
		return nil, fmt.Errorf("%w: range %d+%d outside %s (%d bytes)", container.ErrFormat, off, size, f.Path, f.Size())
	}
	buf := make([]byte, size)
	if _, err := f.ReadAt(buf, off); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: read %s: %w", container.ErrIO, f.Path, err)
	}
	return buf, nil
}

// DecodeObject reads the object ref points at with the session's version and variant
func (m *Manager) DecodeObject(ref ObjectRef) (any, error) {
	var f *container.StreamFile
	if ref.Container != "" {
		b, err := m.Mount(ref.Container)
		if err != nil {
			return nil, err
		}
		var ok bool
		if f, ok = b.File(ref.Entry); !ok {
			return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, ref.Entry, b.Path)
		}
	} else {
		var err error
		if f, err = m.Open(ref.Entry); err != nil {
			return nil, err
		}
	}

	data, err := readRange(f, ref.Offset, ref.Size)
	if err != nil {
		return nil, err
	}
	c := objects.NewCursor(data, m.version, m.cfg.Variant).WithTypeHash(ref.TypeHash)
	obj, err := objects.Decode(ref.Kind, c)
	if err != nil {
		return nil, fmt.Errorf("%s@%d: %w", f.Path, ref.Offset, err)
	}
	return obj, nil
}

// ResolveStream reads the pixel data a streamed texture points at
func (m *Manager) ResolveStream(si objects.StreamingInfo) ([]byte, error) {
	if si.Path == "" {
		return nil, fmt.Errorf("%w: empty streaming path", ErrNotFound)
	}
	f, err := m.Open(si.Path)
	if err != nil {
		return nil, err
	}
	if si.Size == 0 {
		return []byte{}, nil
	}
	return readRange(f, si.Offset, int64(si.Size))
}

// TextureData returns inline pixels or resolves the streaming resource
func (m *Manager) TextureData(t *objects.Texture2D) ([]byte, error) {
	if t.Streamed() {
		return m.ResolveStream(*t.StreamData)
	}
	return t.ImageData, nil
}

// GetRootDir returns the root directory
func (m *Manager) GetRootDir() string {
	return m.rootDir
}

// Close closes all mounted containers
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	for _, path := range m.order {
		if err := m.bundles[path].Close(); err != nil {
			m.log.Warn().Err(err).Str("container", path).Msg("error closing container")
			errs = append(errs, err)
		}
	}
	m.bundles = make(map[string]*container.Bundle)
	m.order = nil
	return errors.Join(errs...)
}

// Fresh reports whether the catalog already holds an up to date record for path
func (m *Manager) Fresh(name string, fi os.FileInfo) bool {
	if m.catalog == nil {
		return false
	}
	return m.catalog.Fresh(m.getFullPath(name), fi)
}
