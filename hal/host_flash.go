//go:build !tinygo

package hal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

const (
	// DefaultFlashSize is used when a new flash file is created with size 0.
	DefaultFlashSize        = 64 * 1024
	hostFlashEraseBlockSize = 4096
)

var ErrFlashWriteRequiresErase = errors.New("flash write requires erase")

// FileFlash is a Flash backed by a host file. Erased bytes are 0xFF and
// writes may only clear bits, like NOR flash.
type FileFlash struct {
	mu    sync.Mutex
	f     *os.File
	size  uint32
	erase [hostFlashEraseBlockSize]byte
}

var _ Flash = (*FileFlash)(nil)

// OpenFlashFile opens (or creates) a flash image. A new or empty file is
// sized to size (DefaultFlashSize when 0) and erased; an existing file keeps
// its size.
func OpenFlashFile(path string, size uint32) (*FileFlash, error) {
	if size == 0 {
		size = DefaultFlashSize
	}
	if size%hostFlashEraseBlockSize != 0 {
		return nil, fmt.Errorf("flash size %d not a multiple of %d", size, hostFlashEraseBlockSize)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open flash %q: %w", path, err)
	}

	ff := newFileFlash(f, size)
	n, err := fileFlashSize(f, path)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if n > 0 {
		ff.size = n
		return ff, nil
	}

	if err := f.Truncate(int64(size)); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("size flash %q: %w", path, err)
	}
	if err := ff.Erase(0, size); err != nil {
		_ = f.Close()
		return nil, err
	}
	return ff, nil
}

// OpenFlashFileReadOnly opens an existing, non-empty flash image for
// reading. Writes and erases on the result fail.
func OpenFlashFileReadOnly(path string) (*FileFlash, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open flash %q: %w", path, err)
	}
	n, err := fileFlashSize(f, path)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if n == 0 {
		_ = f.Close()
		return nil, fmt.Errorf("open flash %q: empty image", path)
	}
	return newFileFlash(f, n), nil
}

func newFileFlash(f *os.File, size uint32) *FileFlash {
	ff := &FileFlash{f: f, size: size}
	for i := range ff.erase {
		ff.erase[i] = 0xFF
	}
	return ff
}

func fileFlashSize(f *os.File, path string) (uint32, error) {
	st, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat flash %q: %w", path, err)
	}
	if st.Size() > int64(^uint32(0)) {
		return 0, fmt.Errorf("flash %q too large: %d bytes", path, st.Size())
	}
	return uint32(st.Size()), nil
}

// Close releases the backing file.
func (f *FileFlash) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.f.Close()
}

func (f *FileFlash) SizeBytes() uint32       { return f.size }
func (f *FileFlash) EraseBlockBytes() uint32 { return hostFlashEraseBlockSize }

func (f *FileFlash) ReadAt(p []byte, off uint32) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if off >= f.size {
		return 0, fmt.Errorf("flash read at %d: %w", off, os.ErrInvalid)
	}
	if maxN := int(f.size - off); len(p) > maxN {
		p = p[:maxN]
	}
	n, err := f.f.ReadAt(p, int64(off))
	if errors.Is(err, io.EOF) && n == len(p) {
		err = nil
	}
	return n, err
}

func (f *FileFlash) WriteAt(p []byte, off uint32) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if off >= f.size {
		return 0, fmt.Errorf("flash write at %d: %w", off, os.ErrInvalid)
	}
	if maxN := int(f.size - off); len(p) > maxN {
		p = p[:maxN]
	}

	cur := make([]byte, len(p))
	if _, err := f.f.ReadAt(cur, int64(off)); err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("flash read before write at %d: %w", off, err)
	}
	for i := range p {
		if cur[i]&p[i] != p[i] {
			return 0, ErrFlashWriteRequiresErase
		}
	}
	return f.f.WriteAt(p, int64(off))
}

func (f *FileFlash) Erase(off, size uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if size == 0 {
		return nil
	}
	if off%hostFlashEraseBlockSize != 0 || size%hostFlashEraseBlockSize != 0 {
		return fmt.Errorf("flash erase off=%d size=%d: %w", off, size, os.ErrInvalid)
	}
	if off >= f.size || off+size > f.size {
		return fmt.Errorf("flash erase off=%d size=%d: %w", off, size, os.ErrInvalid)
	}

	for ; size > 0; size -= hostFlashEraseBlockSize {
		if _, err := f.f.WriteAt(f.erase[:], int64(off)); err != nil {
			return fmt.Errorf("flash erase block at %d: %w", off, err)
		}
		off += hostFlashEraseBlockSize
	}
	return nil
}
