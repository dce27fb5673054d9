package seat

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// SealedFile is a memfd holding the XKB keymap string, sealed against
// further writes, shrinks, and grows once written. wl_keyboard.keymap
// hands the fd straight to the client, and a sealed memfd is the
// compositor's guarantee to the client that the keymap it mmaps will
// never change out from under it.
type SealedFile struct {
	fd   int
	size int
}

// NewSealedFile creates a sealed memfd named name containing contents.
func NewSealedFile(name string, contents []byte) (*SealedFile, error) {
	fd, err := unix.MemfdCreate(name, unix.MFD_CLOEXEC|unix.MFD_ALLOW_SEALING)
	if err != nil {
		return nil, fmt.Errorf("seat: memfd_create: %w", err)
	}

	if err := unix.Ftruncate(fd, int64(len(contents))); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("seat: ftruncate memfd: %w", err)
	}

	if _, err := unix.Write(fd, contents); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("seat: write memfd: %w", err)
	}

	const seals = unix.F_SEAL_SEAL | unix.F_SEAL_WRITE | unix.F_SEAL_SHRINK | unix.F_SEAL_GROW
	if _, err := unix.FcntlInt(uintptr(fd), unix.F_ADD_SEALS, seals); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("seat: fcntl add seals: %w", err)
	}

	return &SealedFile{fd: fd, size: len(contents)}, nil
}

// Fd returns the sealed memfd, owned by the caller to dup/send and close.
func (s *SealedFile) Fd() int {
	return s.fd
}

// Size returns the keymap's length in bytes.
func (s *SealedFile) Size() int {
	return s.size
}

// Close closes the compositor's copy of the fd. The client's dup'd copy
// (from sending it over the wire) is unaffected.
func (s *SealedFile) Close() error {
	return unix.Close(s.fd)
}
