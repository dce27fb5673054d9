package buffer

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Kind distinguishes the two buffer transport mechanisms a client can use.
type Kind int

const (
	KindDmaBuf Kind = iota
	KindShm
)

// DmaBuf describes a single-plane dma-buf import (multi-plane formats are
// rejected at the handler level, mirroring the original compositor's
// num_planes != 1 check).
type DmaBuf struct {
	Fd       int
	Width    uint32
	Height   uint32
	Stride   uint32
	Format   uint32
	Modifier uint64
}

// Buffer is one imported client buffer, either GPU-resident (dma-buf) or
// host-resident (shm), tracked by the Registry under an opaque id matching
// the client's wl_buffer object id.
type Buffer struct {
	ID   uint32
	Kind Kind

	// ImportToken correlates an in-flight dma-buf import with the GPU's
	// async completion notification; it has no meaning on the wire and is
	// never exposed to the client, only to the video pipeline's import
	// callback. Unset for shm buffers, which import synchronously.
	ImportToken uuid.UUID

	DmaBuf DmaBuf

	ShmPool   *ShmPool
	ShmOffset int
	ShmLength int
}

// Registry tracks every buffer a client has imported but not yet released,
// keyed by wl_buffer object id. It is the Go analog of the original
// compositor's per-State dmabuf/shm handler pair, collapsed into one type
// since both buffer kinds share the same id-keyed lifecycle.
type Registry struct {
	mu      sync.Mutex
	buffers map[uint32]*Buffer
}

// NewRegistry returns an empty buffer registry.
func NewRegistry() *Registry {
	return &Registry{buffers: make(map[uint32]*Buffer)}
}

// ImportDmaBuf registers a dma-buf backed buffer. Only single-plane
// formats are supported; multi-plane dma-bufs must be rejected by the
// caller (the protocol dispatch layer) before this is reached, since the
// wp_linux_dmabuf protocol reports a per-plane failure, not a generic one.
func (r *Registry) ImportDmaBuf(id uint32, dma DmaBuf) *Buffer {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := &Buffer{ID: id, Kind: KindDmaBuf, DmaBuf: dma, ImportToken: uuid.New()}
	r.buffers[id] = b
	return b
}

// ImportShm registers an shm-pool backed buffer referencing a byte range
// of pool.
func (r *Registry) ImportShm(id uint32, pool *ShmPool, offset, length int) (*Buffer, error) {
	if _, err := pool.Data(offset, length); err != nil {
		return nil, fmt.Errorf("buffer: import shm buffer %d: %w", id, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	b := &Buffer{ID: id, Kind: KindShm, ShmPool: pool, ShmOffset: offset, ShmLength: length}
	r.buffers[id] = b
	return b, nil
}

// Get returns the buffer with the given id, or false if it isn't
// registered (already destroyed, or never imported).
func (r *Registry) Get(id uint32) (*Buffer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.buffers[id]
	return b, ok
}

// Remove unregisters a buffer, e.g. in response to a wl_buffer.destroy or
// when the video pipeline's dmabuf import notifier reports failure.
func (r *Registry) Remove(id uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.buffers, id)
}

// Count returns the number of buffers currently registered.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buffers)
}

// Contents returns the backing bytes for an shm buffer. It is an error to
// call this on a dma-buf backed Buffer.
func (b *Buffer) Contents() ([]byte, error) {
	if b.Kind != KindShm {
		return nil, fmt.Errorf("buffer: Contents called on a dma-buf buffer (id %d)", b.ID)
	}
	return b.ShmPool.Data(b.ShmOffset, b.ShmLength)
}
