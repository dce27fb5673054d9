package session

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Waker is a cooperative wake signal backed by an eventfd: writers call Wake
// after enqueueing work so that a reader blocked in an epoll/select loop
// alongside other fds (the compositor's display socket, input devices) wakes
// up promptly instead of waiting for its next poll timeout.
type Waker struct {
	fd int
}

// NewWaker creates a nonblocking eventfd-backed waker.
func NewWaker() (*Waker, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, fmt.Errorf("eventfd: %w", err)
	}
	return &Waker{fd: fd}, nil
}

// FD returns the eventfd for registration with epoll.
func (w *Waker) FD() int { return w.fd }

// Wake signals the eventfd. Safe to call from any goroutine, any number of
// times; readers coalesce wakeups by design of eventfd semantics.
func (w *Waker) Wake() error {
	buf := [8]byte{0, 0, 0, 0, 0, 0, 0, 1}
	_, err := unix.Write(w.fd, buf[:])
	if err != nil && err != unix.EAGAIN {
		return fmt.Errorf("eventfd write: %w", err)
	}
	return nil
}

// Drain clears the eventfd's counter after a wakeup, so the next poll
// blocks again instead of spinning.
func (w *Waker) Drain() error {
	var buf [8]byte
	_, err := unix.Read(w.fd, buf[:])
	if err != nil && err != unix.EAGAIN {
		return fmt.Errorf("eventfd read: %w", err)
	}
	return nil
}

// Close releases the eventfd.
func (w *Waker) Close() error { return unix.Close(w.fd) }

// WakingSender wraps a channel send with a Waker notification, so a
// goroutine blocked on a select involving both the channel's reader loop and
// an epoll set wakes up either way. Mirrors the reference implementation's
// WakingSender<T>.
type WakingSender[T any] struct {
	waker *Waker
	ch    chan T
}

// NewWakingSender wraps ch, which must be buffered (capacity > 0): an
// unbuffered channel would make Send block under the session loop's lock and
// defeat the purpose of decoupling producers from the dispatch loop.
func NewWakingSender[T any](waker *Waker, ch chan T) *WakingSender[T] {
	if cap(ch) == 0 {
		panic("session: WakingSender requires a buffered channel")
	}
	return &WakingSender[T]{waker: waker, ch: ch}
}

// Send blocks until ch accepts msg, then wakes the reader.
func (s *WakingSender[T]) Send(msg T) error {
	s.ch <- msg
	return s.waker.Wake()
}

// TrySend attempts a non-blocking send, returning false if ch is full.
func (s *WakingSender[T]) TrySend(msg T) (bool, error) {
	select {
	case s.ch <- msg:
		return true, s.waker.Wake()
	default:
		return false, nil
	}
}

// WakingOneshot is a single-use variant of WakingSender for the
// attach-ready handshake: the control loop signals a single value back to
// the caller waiting for the attachment to be fully registered.
type WakingOneshot[T any] struct {
	waker *Waker
	ch    chan T
}

// NewWakingOneshot wraps a capacity-1 channel.
func NewWakingOneshot[T any](waker *Waker) *WakingOneshot[T] {
	return &WakingOneshot[T]{waker: waker, ch: make(chan T, 1)}
}

// Send delivers msg and wakes the receiver. Send must be called at most
// once.
func (o *WakingOneshot[T]) Send(msg T) error {
	o.ch <- msg
	return o.waker.Wake()
}

// Recv returns the channel for the caller to receive on.
func (o *WakingOneshot[T]) Recv() <-chan T { return o.ch }
