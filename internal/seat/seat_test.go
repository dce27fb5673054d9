package seat

import (
	"testing"

	"github.com/magicmirror/mm-server/internal/session"
)

func TestDispatchKeyboardInputTracksPressedState(t *testing.T) {
	s := NewSeat()
	s.Dispatch(session.KeyboardInputMessage{KeyCode: 30, State: session.KeyPressed})
	if !s.KeyPressed(30) {
		t.Fatalf("expected key 30 to be pressed")
	}

	s.Dispatch(session.KeyboardInputMessage{KeyCode: 30, State: session.KeyReleased})
	if s.KeyPressed(30) {
		t.Fatalf("expected key 30 to be released")
	}
}

func TestDispatchGamepadLifecycle(t *testing.T) {
	s := NewSeat()
	s.Dispatch(session.GamepadAvailableMessage{ID: 1})
	if s.Gamepads.Count() != 1 {
		t.Fatalf("expected 1 gamepad connected")
	}

	s.Dispatch(session.GamepadAxisMessage{ID: 1, AxisCode: 0, Value: 0.75})
	g, ok := s.Gamepads.Get(1)
	if !ok {
		t.Fatalf("expected gamepad 1 to exist")
	}
	if g.Axis(0) != 0.75 {
		t.Fatalf("got %v want 0.75", g.Axis(0))
	}

	s.Dispatch(session.GamepadUnavailableMessage{ID: 1})
	if s.Gamepads.Count() != 0 {
		t.Fatalf("expected gamepad to be removed")
	}
}

func TestDispatchRelativeMotionWhileLockedReturnsLockedEvent(t *testing.T) {
	s := NewSeat()
	s.Pointer.Lock(LockPersistent)

	evt := s.Dispatch(session.RelativePointerMotionMessage{DX: 1, DY: 1})
	if _, ok := evt.(session.PointerLockedEvent); !ok {
		t.Fatalf("expected a PointerLockedEvent, got %T", evt)
	}
}

func TestDispatchPointerReleaseEndsOneshotLock(t *testing.T) {
	s := NewSeat()
	s.Pointer.Lock(LockOneshot)

	evt := s.Dispatch(session.PointerInputMessage{ButtonCode: 0x110, State: session.KeyReleased})
	if _, ok := evt.(session.PointerReleasedEvent); !ok {
		t.Fatalf("expected a PointerReleasedEvent, got %T", evt)
	}
}
