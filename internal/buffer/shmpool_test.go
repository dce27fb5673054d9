package buffer

import (
	"testing"

	"golang.org/x/sys/unix"
)

func newTestShmFd(t *testing.T, size int) int {
	t.Helper()
	fd, err := unix.MemfdCreate("mm-test-shm", 0)
	if err != nil {
		t.Fatalf("memfd_create: %v", err)
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Close(fd)
		t.Fatalf("ftruncate: %v", err)
	}
	t.Cleanup(func() { unix.Close(fd) })
	return fd
}

func TestShmPoolDataWithinBounds(t *testing.T) {
	fd := newTestShmFd(t, 4096)
	pool, err := NewShmPool(fd, 4096)
	if err != nil {
		t.Fatalf("NewShmPool: %v", err)
	}
	defer pool.Close()

	data, err := pool.Data(0, 100)
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	if len(data) != 100 {
		t.Fatalf("got %d bytes, want 100", len(data))
	}
}

func TestShmPoolDataOutOfBoundsIsError(t *testing.T) {
	fd := newTestShmFd(t, 4096)
	pool, err := NewShmPool(fd, 4096)
	if err != nil {
		t.Fatalf("NewShmPool: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Data(4000, 1000); err == nil {
		t.Fatalf("expected an out-of-bounds read to error")
	}
}

func TestShmPoolResizeGrowsAvailableRange(t *testing.T) {
	fd := newTestShmFd(t, 4096)
	pool, err := NewShmPool(fd, 4096)
	if err != nil {
		t.Fatalf("NewShmPool: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Data(4000, 1000); err == nil {
		t.Fatalf("expected out-of-bounds read before resize to error")
	}

	if err := unix.Ftruncate(fd, 8192); err != nil {
		t.Fatalf("ftruncate: %v", err)
	}
	if err := pool.Resize(8192); err != nil {
		t.Fatalf("Resize: %v", err)
	}

	if _, err := pool.Data(4000, 1000); err != nil {
		t.Fatalf("expected in-bounds read after resize to succeed, got %v", err)
	}
}

func TestNewShmPoolRejectsZeroSize(t *testing.T) {
	fd := newTestShmFd(t, 4096)
	if _, err := NewShmPool(fd, 0); err == nil {
		t.Fatalf("expected zero-sized pool to error")
	}
}
