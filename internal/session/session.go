package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/magicmirror/mm-server/internal/logger"
)

// Session owns the control loop for one virtual display: it reads
// ControlMessages off controlCh (wrapped by a WakingSender on the producer
// side), applies display parameter changes and attach/detach requests
// through the attachment Handle, and logs seat input and video refresh
// requests without acting on them. The compositor and video pipeline live above this —
// Session only owns the sequencing, not the pixels.
type Session struct {
	ID        uint64
	ShortCode string
	AppID     string

	Handle *Handle
	Waker  *Waker

	log *slog.Logger

	mu     sync.Mutex
	params DisplayParams

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	controlCh chan ControlMessage

	nextAttachID uint64
}

// NewSession creates a session with the given initial display parameters.
// The control loop is not started until Run is called.
func NewSession(id uint64, shortCode, appID string, initial DisplayParams) (*Session, error) {
	waker, err := NewWaker()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		ID:        id,
		ShortCode: shortCode,
		AppID:     appID,
		Handle:    NewHandle(waker),
		Waker:     waker,
		log:       logger.WithSession(logger.Logger(), id, shortCode),
		params:    initial,
		ctx:       ctx,
		cancel:    cancel,
		controlCh: make(chan ControlMessage, 64),
	}, nil
}

// Sender returns a WakingSender bound to this session's control channel, for
// handing to whatever reads client input and calls into the session (the
// compositor's input dispatcher, the RPC layer handling Attach requests).
func (s *Session) Sender() *WakingSender[ControlMessage] {
	return NewWakingSender[ControlMessage](s.Waker, s.controlCh)
}

// DisplayParams returns the session's current display parameters.
func (s *Session) DisplayParams() DisplayParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// NextAttachmentID returns a fresh, monotonically increasing attachment id.
func (s *Session) NextAttachmentID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextAttachID++
	return s.nextAttachID
}

// Run starts the control loop goroutine and blocks the caller's goroutine
// group registration; the loop itself runs asynchronously until Stop is
// called or ctx is canceled externally.
func (s *Session) Run() {
	s.wg.Add(1)
	go s.controlLoop()
}

// Stop cancels the control loop, kicks every attachment, and waits for the
// loop goroutine to exit. Safe to call multiple times.
func (s *Session) Stop() error {
	s.cancel()
	s.wg.Wait()
	return nil
}

func (s *Session) controlLoop() {
	defer s.wg.Done()
	s.log.Debug("session control loop started")

	for {
		select {
		case <-s.ctx.Done():
			s.Handle.KickClients()
			s.log.Debug("session control loop stopped")
			return
		case msg := <-s.controlCh:
			s.handleControlMessage(msg)
		}
	}
}

func (s *Session) handleControlMessage(msg ControlMessage) {
	switch m := msg.(type) {
	case StopMessage:
		s.cancel()

	case AttachMessage:
		s.Handle.InsertClient(m.ID, m.Events, m.Writer)
		if m.Ready != nil {
			_ = m.Ready.Send(struct{}{})
		}

	case DetachMessage:
		s.Handle.RemoveClient(m.ID)

	case RefreshVideoMessage:
		// The request is only logged: Session records nothing and no
		// keyframe is forced.
		s.log.Debug("video refresh requested")

	case UpdateDisplayParamsMessage:
		s.applyDisplayParams(m.Params)

	case KeyboardInputMessage, PointerEnteredMessage, PointerLeftMessage,
		PointerMotionMessage, RelativePointerMotionMessage, PointerInputMessage,
		PointerAxisMessage, PointerAxisDiscreteMessage, GamepadAvailableMessage,
		GamepadUnavailableMessage, GamepadAxisMessage, GamepadTriggerMessage,
		GamepadInputMessage:
		// Seat input is only logged: Session holds no Seat and does not
		// pass these messages on to internal/seat.
		s.log.Debug("seat input received", "kind", m.Kind())

	default:
		s.log.Warn("unhandled control message", "kind", msg.Kind())
	}
}

func (s *Session) applyDisplayParams(next DisplayParams) {
	s.mu.Lock()
	prev := s.params
	s.params = next
	s.mu.Unlock()

	reattach := prev.RequiresReattach(next)
	if prev.Equal(next) {
		return
	}
	s.Handle.Dispatch(DisplayParamsChangedEvent{Params: next, Reattach: reattach})
	if reattach {
		s.Handle.KickClients()
	}
}
