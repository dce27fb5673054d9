// Package compositor routes protocol object requests to handlers, tracks
// output and presentation-feedback state, and associates Xwayland windows
// with their wl_surface once Xwayland reports the mapping.
package compositor

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/magicmirror/mm-server/internal/buffer"
	"github.com/magicmirror/mm-server/internal/errors"
	"github.com/magicmirror/mm-server/internal/logger"
	"github.com/magicmirror/mm-server/internal/seat"
	"github.com/magicmirror/mm-server/internal/surface"
)

// ObjectKey identifies a single protocol object: its id plus the opcode of
// the request being dispatched to it. Requests are routed by (id, opcode)
// rather than by object type the way the teacher's command dispatcher
// routes AMF0 messages by command name, since every protocol object here
// shares one flat id namespace instead of a handful of named RPCs.
type ObjectKey struct {
	ObjectID uint32
	Opcode   uint16
}

// Handler processes one decoded request's argument bytes for a specific
// (object, opcode) pair.
type Handler func(args []byte) error

// Dispatcher routes requests to registered handlers, exactly the way the
// RTMP command dispatcher routes AMF0 commands to connect/publish/play
// handlers: unknown (object, opcode) pairs are logged and ignored rather
// than treated as fatal, since a client may legitimately be running ahead
// of a protocol extension this build doesn't implement every request of.
type Dispatcher struct {
	mu       sync.Mutex
	handlers map[ObjectKey]Handler

	Tree         *surface.Tree
	Seat         *seat.Seat
	Buffers      *buffer.Registry
	Outputs      *OutputSet
	Presentation *PresentationTracker
	XWayland     *XWaylandTracker
	log          *slog.Logger
}

// NewDispatcher wires up a dispatcher over a fresh surface tree, seat, and
// buffer registry for one session.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers:     make(map[ObjectKey]Handler),
		Tree:         surface.NewTree(),
		Seat:         seat.NewSeat(),
		Buffers:      buffer.NewRegistry(),
		Outputs:      NewOutputSet(),
		Presentation: NewPresentationTracker(),
		XWayland:     NewXWaylandTracker(),
		log:          logger.Logger().With("component", "compositor_dispatch"),
	}
}

// Register installs a handler for a specific (object, opcode) pair.
func (d *Dispatcher) Register(objectID uint32, opcode uint16, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[ObjectKey{ObjectID: objectID, Opcode: opcode}] = h
}

// Unregister removes every handler registered for objectID, e.g. when a
// wl_surface (or any other object) is destroyed.
func (d *Dispatcher) Unregister(objectID uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key := range d.handlers {
		if key.ObjectID == objectID {
			delete(d.handlers, key)
		}
	}
}

// Dispatch routes one request to its handler. A request with no
// registered handler is logged at warn level and treated as a no-op,
// since silently dropping unsupported optional requests is how Wayland
// extension negotiation degrades gracefully; a genuinely malformed
// request (opcode out of range for an object the client claims exists)
// should have already been rejected by the decoder as a
// ProtocolViolationError before it reaches here.
func (d *Dispatcher) Dispatch(objectID uint32, opcode uint16, args []byte) error {
	d.mu.Lock()
	h, ok := d.handlers[ObjectKey{ObjectID: objectID, Opcode: opcode}]
	d.mu.Unlock()

	if !ok {
		d.log.Warn("no handler registered", "object", objectID, "opcode", opcode)
		return nil
	}

	if err := h(args); err != nil {
		return fmt.Errorf("compositor: dispatch object %d opcode %d: %w", objectID, opcode, err)
	}
	return nil
}

// RequireSurface fetches a surface by id or returns a ProtocolViolationError,
// the standard way a handler should reject a request referencing an
// object the client never created.
func (d *Dispatcher) RequireSurface(id uint32) (*surface.Surface, error) {
	s, ok := d.Tree.Get(id)
	if !ok {
		return nil, errors.NewProtocolViolationError("compositor.require_surface", fmt.Errorf("unknown surface %d", id))
	}
	return s, nil
}
