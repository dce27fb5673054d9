package seat

import (
	"sync"

	"github.com/magicmirror/mm-server/internal/session"
)

// KeyState is an alias of session.KeyState, re-exported so callers of this
// package can name it without importing session.
type KeyState = session.KeyState

// Seat owns one session's keyboard, pointer, and gamepad input state.
// Dispatch applies an input ControlMessage to that state and returns any
// SessionEvent that should be fanned out to attachments as a result (a
// pointer lock confirmation, for instance). The session control loop does
// not call Dispatch; it only logs input messages.
type Seat struct {
	mu sync.Mutex

	Pointer  Pointer
	Gamepads *GamepadSet

	keymap *SealedFile

	pressedKeys map[uint32]bool
}

// NewSeat returns a Seat with no gamepads connected and an empty keymap.
func NewSeat() *Seat {
	return &Seat{
		Gamepads:    NewGamepadSet(),
		pressedKeys: make(map[uint32]bool),
	}
}

// SetKeymap installs the seat's XKB keymap as a sealed memfd, replacing
// (and closing) any previous one.
func (s *Seat) SetKeymap(keymap *SealedFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keymap != nil {
		_ = s.keymap.Close()
	}
	s.keymap = keymap
}

// Keymap returns the seat's current sealed keymap file, if one has been
// installed.
func (s *Seat) Keymap() (*SealedFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keymap, s.keymap != nil
}

// Dispatch applies one input ControlMessage to the seat's state. It
// returns a SessionEvent to fan out to attachments, or nil if the message
// requires no client-visible notification (most input messages don't;
// they're consumed by the compositor and reflected only in future frames).
func (s *Seat) Dispatch(msg session.ControlMessage) session.SessionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch m := msg.(type) {
	case session.KeyboardInputMessage:
		s.pressedKeys[m.KeyCode] = m.State == session.KeyPressed

	case session.PointerEnteredMessage:
		// Surface focus itself is tracked by the compositor's dispatch
		// layer (it knows which surface is under the cursor); Seat just
		// records that pointer focus exists at all.
		s.Pointer.hasFocus = true

	case session.PointerLeftMessage:
		s.Pointer.Leave()

	case session.PointerMotionMessage:
		s.Pointer.Motion(m.X, m.Y)

	case session.RelativePointerMotionMessage:
		s.Pointer.RelativeMotion(m.DX, m.DY)
		if locked, x, y := s.Pointer.Locked(); locked {
			return session.PointerLockedEvent{X: x, Y: y}
		}

	case session.PointerInputMessage:
		if m.State == session.KeyReleased {
			if s.Pointer.ReleaseIfOneshot() {
				return session.PointerReleasedEvent{}
			}
		}

	case session.GamepadAvailableMessage:
		s.Gamepads.Available(m.ID)

	case session.GamepadUnavailableMessage:
		s.Gamepads.Unavailable(m.ID)

	case session.GamepadAxisMessage:
		if g, ok := s.Gamepads.Get(m.ID); ok {
			g.SetAxis(m.AxisCode, m.Value)
		}

	case session.GamepadTriggerMessage:
		if g, ok := s.Gamepads.Get(m.ID); ok {
			g.SetTrigger(m.TriggerCode, m.Value)
		}

	case session.GamepadInputMessage:
		if g, ok := s.Gamepads.Get(m.ID); ok {
			g.SetButton(m.ButtonCode, m.State == session.KeyPressed)
		}
	}

	return nil
}

// KeyPressed reports whether a key is currently held down.
func (s *Seat) KeyPressed(code uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pressedKeys[code]
}
