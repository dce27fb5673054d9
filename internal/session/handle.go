package session

import (
	"sort"
	"sync"

	mmerrors "github.com/magicmirror/mm-server/internal/errors"
	"github.com/magicmirror/mm-server/internal/logger"
)

// StreamWriter hands an encoded frame to the datagram shipper and returns
// the (stream_seq, seq) pair it was assigned, so the caller can report that
// pair back to the attachment alongside the frame event.
type StreamWriter interface {
	WriteVideoFrame(pts uint64, frame []byte, hierarchicalLayer uint8, streamRestart bool) (streamSeq, seq uint64, err error)
	WriteAudioFrame(pts uint64, frame []byte, streamRestart bool) (streamSeq, seq uint64, err error)
}

// client is one attached endpoint: an events channel the control loop
// delivers SessionEvents to, and the StreamWriter that turns raw frames into
// shippable chunks for it.
type client struct {
	events chan SessionEvent
	writer StreamWriter
}

// Handle is the attachment registry for a session: every attached client is
// registered here, and Dispatch/DispatchVideoFrame/DispatchAudioFrame fan
// frames and lifecycle events out to all of them. Modeled on the reference
// implementation's SessionHandle, itself close in shape to a subscriber
// registry with snapshot-then-send fan-out.
type Handle struct {
	mu          sync.Mutex
	attachments map[uint64]client
	waker       *Waker
}

// NewHandle creates an empty attachment registry bound to waker, which is
// signaled by Wake so a poll loop elsewhere (e.g. the compositor's own
// event loop) can be woken cooperatively. The dispatch methods do not
// signal it.
func NewHandle(waker *Waker) *Handle {
	return &Handle{
		attachments: make(map[uint64]client),
		waker:       waker,
	}
}

// InsertClient registers a new attachment under id, replacing any existing
// registration with the same id.
func (h *Handle) InsertClient(id uint64, events chan SessionEvent, writer StreamWriter) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.attachments[id] = client{events: events, writer: writer}
}

// RemoveClient unregisters the attachment with the given id, if present.
func (h *Handle) RemoveClient(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.attachments, id)
}

// RemoveAll clears every attachment and returns the ones that were present,
// in ascending id order.
func (h *Handle) RemoveAll() []idClient {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := h.sortedClientsLocked()
	h.attachments = make(map[uint64]client)
	return out
}

// NumAttachments reports how many clients are currently attached.
func (h *Handle) NumAttachments() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.attachments)
}

// Dispatch sends event to every attached client's events channel on a
// best-effort basis: a full channel means the attachment is a slow client,
// and it is removed so it stops holding up the others. An events channel
// must stay open while attached, since a send on a closed channel panics.
func (h *Handle) Dispatch(event SessionEvent) {
	h.mu.Lock()
	clients := h.sortedClientsLocked()
	h.mu.Unlock()

	for _, ic := range clients {
		select {
		case ic.c.events <- event:
		default:
			logger.Warn("dropping session event for slow attachment, removing it", "attachment_id", ic.id, "event", event.Kind())
			h.RemoveClient(ic.id)
		}
	}
}

// DispatchVideoFrame writes frame through every attached client's
// StreamWriter and delivers the resulting VideoFrameEvent to that client's
// events channel. Each attachment gets an independent (stream_seq, seq) pair
// from its own writer; the same streamRestart value is passed to every
// writer. A write failure or a full events channel marks the attachment
// slow and it is removed.
func (h *Handle) DispatchVideoFrame(pts uint64, frame []byte, hierarchicalLayer uint8, streamRestart bool) {
	h.mu.Lock()
	clients := h.sortedClientsLocked()
	h.mu.Unlock()

	for _, ic := range clients {
		streamSeq, seq, err := ic.c.writer.WriteVideoFrame(pts, frame, hierarchicalLayer, streamRestart)
		if err != nil {
			logger.Error("write video frame failed, removing attachment", "attachment_id", ic.id, "err", mmerrors.NewAttachmentSendError("dispatch.video", err))
			h.RemoveClient(ic.id)
			continue
		}
		select {
		case ic.c.events <- VideoFrameEvent{StreamSeq: streamSeq, Seq: seq, Frame: frame}:
		default:
			logger.Warn("dropping video frame for slow attachment, removing it", "attachment_id", ic.id)
			h.RemoveClient(ic.id)
		}
	}
}

// DispatchAudioFrame is the audio analog of DispatchVideoFrame.
func (h *Handle) DispatchAudioFrame(pts uint64, frame []byte, streamRestart bool) {
	h.mu.Lock()
	clients := h.sortedClientsLocked()
	h.mu.Unlock()

	for _, ic := range clients {
		streamSeq, seq, err := ic.c.writer.WriteAudioFrame(pts, frame, streamRestart)
		if err != nil {
			logger.Error("write audio frame failed, removing attachment", "attachment_id", ic.id, "err", mmerrors.NewAttachmentSendError("dispatch.audio", err))
			h.RemoveClient(ic.id)
			continue
		}
		select {
		case ic.c.events <- AudioFrameEvent{StreamSeq: streamSeq, Seq: seq, Frame: frame}:
		default:
			logger.Warn("dropping audio frame for slow attachment, removing it", "attachment_id", ic.id)
			h.RemoveClient(ic.id)
		}
	}
}

// Wake signals the handle's waker without dispatching anything; used by the
// control loop when it mutates attachment-independent state that a poller
// still needs to notice.
func (h *Handle) Wake() error {
	if h.waker == nil {
		return nil
	}
	return h.waker.Wake()
}

// KickClients removes every attachment and sends each one a ShutdownEvent,
// best-effort.
func (h *Handle) KickClients() {
	for _, ic := range h.RemoveAll() {
		select {
		case ic.c.events <- ShutdownEvent{}:
		default:
		}
	}
}

type idClient struct {
	id uint64
	c  client
}

// sortedClientsLocked returns attachments ordered by id. Deterministic
// dispatch order matters for tests and for any invariant that assumes
// earlier-attached clients are serviced first; callers must hold h.mu.
func (h *Handle) sortedClientsLocked() []idClient {
	out := make([]idClient, 0, len(h.attachments))
	for id, c := range h.attachments {
		out = append(out, idClient{id: id, c: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}
