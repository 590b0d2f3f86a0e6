package ndpi

import (
	"bytes"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileHandleRead(t *testing.T) {
	fh := NewFileHandle(bytes.NewReader([]byte{0, 1, 2, 3, 4, 5, 6, 7}))

	data, err := fh.Read(2, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 3, 4}, data)
	assert.Equal(t, int64(1), fh.ReadCount())
}

func TestFileHandleShortRead(t *testing.T) {
	fh := NewFileHandle(bytes.NewReader([]byte{0, 1, 2, 3}))

	// A read yielding fewer bytes than requested is an error, never an
	// empty success.
	_, err := fh.Read(2, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, int64(0), fh.ReadCount())
}

func TestFileHandleConcurrentReads(t *testing.T) {
	blob := make([]byte, 4096)
	for i := range blob {
		blob[i] = byte(i)
	}
	fh := NewFileHandle(bytes.NewReader(blob))

	// Every read must observe its own seek: no interleaving between
	// one caller's seek and read.
	const goroutines = 16
	const readsPerGoroutine = 50

	var wg sync.WaitGroup
	errs := make(chan error, goroutines)
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < readsPerGoroutine; i++ {
				offset := int64((g*64 + i) % (len(blob) - 8))
				data, err := fh.Read(offset, 8)
				if err != nil {
					errs <- err
					return
				}
				for j, b := range data {
					if b != byte(int(offset)+j) {
						errs <- assert.AnError
						return
					}
				}
			}
		}(g)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent read failed: %v", err)
	}
	assert.Equal(t, int64(goroutines*readsPerGoroutine), fh.ReadCount())
}
