package gpu

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"
)

// RenderNode is an open handle to a DRM render node device file
// (/dev/dri/renderD*), used to import dma-buf and syncobj handles shared
// with the compositor's GPU context.
type RenderNode struct {
	f *os.File
}

// OpenRenderNode resolves a DRM device number (as reported by the
// encode/compositor GPU's PCI device enumeration) to its render node path
// under /dev/dri and opens it read-write.
func OpenRenderNode(dev uint64) (*RenderNode, error) {
	entries, err := os.ReadDir("/dev/dri")
	if err != nil {
		return nil, fmt.Errorf("gpu: read /dev/dri: %w", err)
	}

	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "renderD") {
			continue
		}
		path := filepath.Join("/dev/dri", e.Name())

		var st unix.Stat_t
		if err := unix.Stat(path, &st); err != nil {
			continue
		}
		if st.Rdev != dev {
			continue
		}

		fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
		if err != nil {
			return nil, fmt.Errorf("gpu: open %s: %w", path, err)
		}
		return &RenderNode{f: os.NewFile(uintptr(fd), path)}, nil
	}

	return nil, fmt.Errorf("gpu: no render node found for device %d", dev)
}

// Fd returns the underlying file descriptor, for passing to ioctl-based
// dma-buf/syncobj import calls or to a Vulkan DRM modifier extension.
func (r *RenderNode) Fd() uintptr {
	return r.f.Fd()
}

// Close closes the render node handle.
func (r *RenderNode) Close() error {
	return r.f.Close()
}
