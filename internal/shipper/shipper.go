package shipper

import (
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/magicmirror/mm-server/internal/bufpool"
)

// Shipper implements session.StreamWriter: it assigns each frame a
// (streamSeq, seq) pair, splits it into MTU-sized (optionally FEC-protected)
// chunks, and ships them as one paced sendmmsg batch per frame. One Shipper
// is created per attachment, mirroring the one-Datagram-Shipper-per-
// attachment relationship in spec.md §2's flow diagram.
type Shipper struct {
	mu sync.Mutex

	fd         int
	remoteAddr *net.UDPAddr
	localAddr  *net.UDPAddr

	mtu      int
	fecRatio float32

	videoStreamSeq, videoSeq uint64
	audioStreamSeq, audioSeq uint64
}

// Config parameterizes a Shipper.
type Config struct {
	FD         int
	RemoteAddr *net.UDPAddr
	LocalAddr  *net.UDPAddr
	MTU        int
	FECRatio   float32
}

// New returns a Shipper sending over an already-bound and already
// SO_TXTIME-enabled socket fd.
func New(cfg Config) *Shipper {
	return &Shipper{
		fd:         cfg.FD,
		remoteAddr: cfg.RemoteAddr,
		localAddr:  cfg.LocalAddr,
		mtu:        cfg.MTU,
		fecRatio:   cfg.FECRatio,
	}
}

// WriteVideoFrame implements session.StreamWriter.
func (s *Shipper) WriteVideoFrame(pts uint64, frame []byte, hierarchicalLayer uint8, streamRestart bool) (streamSeq, seq uint64, err error) {
	s.mu.Lock()
	if streamRestart {
		s.videoStreamSeq++
		s.videoSeq = 0
	}
	s.videoSeq++
	streamSeq, seq = s.videoStreamSeq, s.videoSeq
	s.mu.Unlock()

	if err := s.ship(frame); err != nil {
		return 0, 0, err
	}
	return streamSeq, seq, nil
}

// WriteAudioFrame implements session.StreamWriter.
func (s *Shipper) WriteAudioFrame(pts uint64, frame []byte, streamRestart bool) (streamSeq, seq uint64, err error) {
	s.mu.Lock()
	if streamRestart {
		s.audioStreamSeq++
		s.audioSeq = 0
	}
	s.audioSeq++
	streamSeq, seq = s.audioStreamSeq, s.audioSeq
	s.mu.Unlock()

	if err := s.ship(frame); err != nil {
		return 0, 0, err
	}
	return streamSeq, seq, nil
}

// ship splits frame into chunks and sends them as one paced batch,
// spreading each chunk's TX-time evenly across frameInterval so the whole
// frame doesn't burst onto the wire in a single instant.
func (s *Shipper) ship(frame []byte) error {
	chunks := IterChunks(frame, s.mtu, s.fecRatio)
	if len(chunks) == 0 {
		return nil
	}

	batch := NewBatch()
	now := time.Now()
	step := frameInterval() / time.Duration(len(chunks))
	for i, c := range chunks {
		batch.Add(c.Data, s.remoteAddr, now.Add(step*time.Duration(i)))
	}

	err := batch.Send(s.fd, s.localAddr)
	for _, c := range chunks {
		bufpool.Put(c.Data)
	}
	if err != nil {
		return fmt.Errorf("shipper: ship frame: %w", err)
	}
	return nil
}

// frameInterval is the nominal spread window for pacing one frame's chunks.
// 16ms approximates a 60Hz cadence; actual pacing precision comes from the
// kernel's TX-time qdisc, not from this estimate being exact.
func frameInterval() time.Duration {
	return 16 * time.Millisecond
}

// NewSocket opens, binds, and SO_TXTIME-enables a UDP socket for shipping
// datagrams from localAddr.
func NewSocket(localAddr *net.UDPAddr) (int, error) {
	family := unix.AF_INET
	if localAddr.IP.To4() == nil {
		family = unix.AF_INET6
	}

	fd, err := unix.Socket(family, unix.SOCK_DGRAM, 0)
	if err != nil {
		return -1, fmt.Errorf("shipper: socket: %w", err)
	}

	sa, err := sockaddrFromUDPAddr(localAddr)
	if err != nil {
		unix.Close(fd)
		return -1, err
	}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("shipper: bind: %w", err)
	}
	if err := EnableTxTime(fd); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("shipper: enable SO_TXTIME: %w", err)
	}

	return fd, nil
}
