//go:build darwin || freebsd || linux

package animcodec

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

// nativeClip mirrors the 32-byte result struct filled by the library
type nativeClip struct {
	Values      uintptr
	ValuesCount int32
	_           [4]byte
	Times       uintptr
	TimesCount  int32
	_           [4]byte
}

// Native calls the codec shared library through purego
type Native struct {
	mu         sync.Mutex
	handle     uintptr
	decompress func(transform, scalar, database, bulk uintptr, clip *nativeClip)
	dispose    func(clip *nativeClip)
}

var _ Decoder = (*Native)(nil)

// LoadNative opens the shared library at path and resolves its two entry points
func LoadNative(path string) (*Native, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	n := &Native{handle: handle}
	for name, fn := range map[string]any{
		"DecompressTracksZZZ": &n.decompress,
		"Dispose":             &n.dispose,
	} {
		sym, err := purego.Dlsym(handle, name)
		if err != nil {
			_ = purego.Dlclose(handle)
			return nil, fmt.Errorf("failed to resolve %s in %s: %w", name, path, err)
		}
		purego.RegisterFunc(fn, sym)
	}
	return n, nil
}

func bufPtr(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}

// DecompressTracks copies every buffer to aligned memory, decodes, then releases
// the native result after copying it out.
func (n *Native) DecompressTracks(t Tracks) (Clip, error) {
	transform := Aligned16(t.Transform)
	scalar := Aligned16(t.Scalar)
	database := Aligned16(t.Database)
	bulk := Aligned16(t.BulkData)

	n.mu.Lock()
	defer n.mu.Unlock()

	var out nativeClip
	n.decompress(bufPtr(transform), bufPtr(scalar), bufPtr(database), bufPtr(bulk), &out)
	runtime.KeepAlive(transform)
	runtime.KeepAlive(scalar)
	runtime.KeepAlive(database)
	runtime.KeepAlive(bulk)
	defer n.dispose(&out)

	if out.ValuesCount < 0 || out.TimesCount < 0 {
		return Clip{}, fmt.Errorf("animcodec: native returned %d values, %d times", out.ValuesCount, out.TimesCount)
	}
	return Clip{
		Values: copyFloats(out.Values, out.ValuesCount),
		Times:  copyFloats(out.Times, out.TimesCount),
	}, nil
}

func copyFloats(p uintptr, n int32) []float32 {
	if p == 0 || n == 0 {
		return []float32{}
	}
	src := unsafe.Slice((*float32)(unsafe.Pointer(p)), n)
	return append([]float32(nil), src...)
}

// Close unloads the library
func (n *Native) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.handle == 0 {
		return nil
	}
	err := purego.Dlclose(n.handle)
	n.handle = 0
	return err
}
