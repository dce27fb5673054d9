package buffer

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// ShmPool is a memory-mapped region backed by a client-provided fd
// (wl_shm_pool), mapped shared and read-write. A client can resize
// the pool (grow the backing fd and remap) or shrink it out from under an
// in-flight read; rather than installing a SIGBUS handler for a shrink
// race, every Data call validates the requested range against the
// currently mapped size while holding the pool's lock, and returns an
// error instead of reading past the mapping.
type ShmPool struct {
	mu   sync.RWMutex
	fd   int
	data []byte
}

// NewShmPool maps size bytes of fd, which must outlive the pool (the
// caller owns closing it once every surface referencing the pool has
// released its buffers).
func NewShmPool(fd int, size int) (*ShmPool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("buffer: zero-sized shm pool")
	}

	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("buffer: mmap shm pool: %w", err)
	}

	return &ShmPool{fd: fd, data: data}, nil
}

// Size returns the currently mapped size.
func (p *ShmPool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.data)
}

// Data returns the byte range [offset, offset+length) of the pool's
// mapping. It returns an error instead of panicking or reading out of
// bounds if a concurrent Resize has shrunk the pool below the requested
// range, which happens when a client races a wl_shm_pool.resize against an
// in-flight wl_surface.commit referencing a buffer at a stale offset.
func (p *ShmPool) Data(offset, length int) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if offset < 0 || length < 0 || offset+length > len(p.data) {
		return nil, fmt.Errorf("buffer: shm read [%d:%d] out of bounds for pool of size %d", offset, offset+length, len(p.data))
	}
	return p.data[offset : offset+length], nil
}

// Resize remaps the pool to the new size. The fd must already have been
// grown (or shrunk) by the client to newSize bytes before this is called;
// wl_shm_pool.resize only ever grows a pool in practice, but this
// doesn't assume that.
func (p *ShmPool) Resize(newSize int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if newSize <= 0 {
		return fmt.Errorf("buffer: zero-sized shm pool resize")
	}

	if err := unix.Munmap(p.data); err != nil {
		return fmt.Errorf("buffer: munmap shm pool for resize: %w", err)
	}
	p.data = nil

	data, err := unix.Mmap(p.fd, 0, newSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("buffer: remap shm pool: %w", err)
	}
	p.data = data
	return nil
}

// Close unmaps the pool. It does not close the backing fd.
func (p *ShmPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.data == nil {
		return nil
	}
	err := unix.Munmap(p.data)
	p.data = nil
	if err != nil {
		return fmt.Errorf("buffer: munmap shm pool: %w", err)
	}
	return nil
}
