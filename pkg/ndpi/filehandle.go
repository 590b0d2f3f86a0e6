package ndpi

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// FileHandle serializes random access to one underlying file. Every
// Read holds the lock across seek and read as one unit, so concurrent
// callers never observe another caller's seek landing between their
// own seek and read. All levels of one open slide share one handle.
type FileHandle struct {
	mu    sync.Mutex
	r     io.ReadSeeker
	reads atomic.Int64
}

// NewFileHandle wraps an existing reader. The caller retains ownership
// of the reader; Close is a no-op unless the reader is a closer.
func NewFileHandle(r io.ReadSeeker) *FileHandle {
	return &FileHandle{r: r}
}

// OpenFileHandle opens the file at path for reading.
func OpenFileHandle(path string) (*FileHandle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening slide: %w", err)
	}
	return NewFileHandle(f), nil
}

// Read returns exactly bytecount bytes starting at offset. A read that
// yields fewer bytes than requested is an I/O error, never an empty
// success.
func (h *FileHandle) Read(offset int64, bytecount int) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := h.r.Seek(offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking to offset %d: %w", offset, err)
	}
	data := make([]byte, bytecount)
	if _, err := io.ReadFull(h.r, data); err != nil {
		return nil, fmt.Errorf("reading %d bytes at offset %d: %w", bytecount, offset, err)
	}
	h.reads.Add(1)
	return data, nil
}

// ReadCount returns the number of completed reads. Tests use it to
// verify that adjacent tile requests share one reconstruction batch.
func (h *FileHandle) ReadCount() int64 {
	return h.reads.Load()
}

// Close closes the underlying reader if it owns a file descriptor.
func (h *FileHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
