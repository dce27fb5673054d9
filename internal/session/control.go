// Package session implements the session control loop: per-session state,
// the attachment registry (Handle), display parameter transitions, and
// input/lifecycle message dispatch.
package session

import (
	"github.com/magicmirror/mm-server/pkg/pixelscale"
)

// DisplayParams describes the virtual display's resolution, refresh rate,
// and UI scale. It round-trips: constructing one from valid fields and
// reading them back is idempotent, and re-applying the same DisplayParams is
// a no-op (an UpdateDisplayParamsMessage carrying the current value
// dispatches nothing).
type DisplayParams struct {
	Width     uint32
	Height    uint32
	Framerate uint32
	UIScale   pixelscale.Ratio
}

// Equal reports whether two DisplayParams describe the same virtual display.
func (d DisplayParams) Equal(o DisplayParams) bool {
	return d == o
}

// RequiresReattach reports whether transitioning from d to next is a "hard"
// change that existing attachments cannot absorb in place (resolution or
// framerate changed) as opposed to a "live" change they can (UI scale only).
func (d DisplayParams) RequiresReattach(next DisplayParams) bool {
	return d.Width != next.Width || d.Height != next.Height || d.Framerate != next.Framerate
}

// VideoStreamParams describes the encoded video stream requested by an
// attaching client.
type VideoStreamParams struct {
	Width   uint32
	Height  uint32
	Codec   string
	Preset  uint8
	Profile string
}

// AudioStreamParams describes the encoded audio stream requested by an
// attaching client.
type AudioStreamParams struct {
	SampleRate uint32
	Channels   uint8
	Codec      string
}

// ControlMessage is the sum type of everything the session control loop can
// receive: lifecycle requests, attach/detach, and seat input. Callers switch
// on Kind() or on the concrete type.
type ControlMessage interface {
	Kind() string
}

// StopMessage asks the session to shut down.
type StopMessage struct{}

func (StopMessage) Kind() string { return "stop" }

// AttachMessage requests a new client attachment. Ready is signaled once the
// attachment has been registered and the first frame can be dispatched to
// it; it mirrors the reference implementation's oneshot ready-signal pattern
// (see WakingOneshot).
type AttachMessage struct {
	ID          uint64
	Events      chan SessionEvent
	VideoParams VideoStreamParams
	AudioParams AudioStreamParams
	Writer      StreamWriter
	Ready       *WakingOneshot[struct{}]
}

func (AttachMessage) Kind() string { return "attach" }

// DetachMessage removes an attachment by id.
type DetachMessage struct{ ID uint64 }

func (DetachMessage) Kind() string { return "detach" }

// RefreshVideoMessage requests an IDR-equivalent keyframe on the next frame.
type RefreshVideoMessage struct{}

func (RefreshVideoMessage) Kind() string { return "refresh_video" }

// UpdateDisplayParamsMessage requests a display parameter change.
type UpdateDisplayParamsMessage struct{ Params DisplayParams }

func (UpdateDisplayParamsMessage) Kind() string { return "update_display_params" }

// KeyState is the physical state of a key or button.
type KeyState uint8

const (
	KeyReleased KeyState = iota
	KeyPressed
)

// KeyboardInputMessage delivers a single key event.
type KeyboardInputMessage struct {
	KeyCode uint32
	State   KeyState
	Char    rune // 0 if the key has no textual representation
}

func (KeyboardInputMessage) Kind() string { return "keyboard_input" }

// PointerEnteredMessage indicates the pointer entered the session's surface.
type PointerEnteredMessage struct{}

func (PointerEnteredMessage) Kind() string { return "pointer_entered" }

// PointerLeftMessage indicates the pointer left the session's surface.
type PointerLeftMessage struct{}

func (PointerLeftMessage) Kind() string { return "pointer_left" }

// PointerMotionMessage is an absolute pointer position update, in surface-
// local coordinates.
type PointerMotionMessage struct{ X, Y float64 }

func (PointerMotionMessage) Kind() string { return "pointer_motion" }

// RelativePointerMotionMessage is a relative pointer delta, used while the
// pointer is locked.
type RelativePointerMotionMessage struct{ DX, DY float64 }

func (RelativePointerMotionMessage) Kind() string { return "relative_pointer_motion" }

// PointerInputMessage is a button press/release at a position.
type PointerInputMessage struct {
	X, Y       float64
	ButtonCode uint32
	State      KeyState
}

func (PointerInputMessage) Kind() string { return "pointer_input" }

// PointerAxisMessage is a smooth (trackpad-style) scroll event.
type PointerAxisMessage struct{ DX, DY float64 }

func (PointerAxisMessage) Kind() string { return "pointer_axis" }

// PointerAxisDiscreteMessage is a stepped (wheel-click) scroll event.
type PointerAxisDiscreteMessage struct{ DX, DY float64 }

func (PointerAxisDiscreteMessage) Kind() string { return "pointer_axis_discrete" }

// GamepadAvailableMessage announces a newly connected gamepad.
type GamepadAvailableMessage struct{ ID uint64 }

func (GamepadAvailableMessage) Kind() string { return "gamepad_available" }

// GamepadUnavailableMessage announces a disconnected gamepad.
type GamepadUnavailableMessage struct{ ID uint64 }

func (GamepadUnavailableMessage) Kind() string { return "gamepad_unavailable" }

// GamepadAxisMessage is an analog stick movement.
type GamepadAxisMessage struct {
	ID       uint64
	AxisCode uint32
	Value    float64
}

func (GamepadAxisMessage) Kind() string { return "gamepad_axis" }

// GamepadTriggerMessage is an analog trigger movement.
type GamepadTriggerMessage struct {
	ID          uint64
	TriggerCode uint32
	Value       float64
}

func (GamepadTriggerMessage) Kind() string { return "gamepad_trigger" }

// GamepadInputMessage is a gamepad button press/release.
type GamepadInputMessage struct {
	ID         uint64
	ButtonCode uint32
	State      KeyState
}

func (GamepadInputMessage) Kind() string { return "gamepad_input" }

// SessionEvent is the sum type of everything the session control loop
// dispatches out to attached clients.
type SessionEvent interface {
	Kind() string
}

// DisplayParamsChangedEvent notifies attachments of a display parameter
// change. Reattach is true if the change was "hard" (see
// DisplayParams.RequiresReattach) and the client must renegotiate its
// stream rather than adapt in place.
type DisplayParamsChangedEvent struct {
	Params    DisplayParams
	Reattach  bool
}

func (DisplayParamsChangedEvent) Kind() string { return "display_params_changed" }

// VideoFrameEvent carries one encoded video frame for dispatch.
type VideoFrameEvent struct {
	StreamSeq uint64
	Seq       uint64
	Frame     []byte
}

func (VideoFrameEvent) Kind() string { return "video_frame" }

// AudioFrameEvent carries one encoded audio frame for dispatch.
type AudioFrameEvent struct {
	StreamSeq uint64
	Seq       uint64
	Frame     []byte
}

func (AudioFrameEvent) Kind() string { return "audio_frame" }

// CursorUpdateEvent carries an updated cursor image and its hotspot.
type CursorUpdateEvent struct {
	Image    []byte
	Icon     string
	HotspotX int32
	HotspotY int32
}

func (CursorUpdateEvent) Kind() string { return "cursor_update" }

// PointerLockedEvent notifies the client that the pointer has been locked to
// the given surface-local position.
type PointerLockedEvent struct{ X, Y float64 }

func (PointerLockedEvent) Kind() string { return "pointer_locked" }

// PointerReleasedEvent notifies the client that a pointer lock ended.
type PointerReleasedEvent struct{}

func (PointerReleasedEvent) Kind() string { return "pointer_released" }

// ShutdownEvent notifies the client the session is ending.
type ShutdownEvent struct{}

func (ShutdownEvent) Kind() string { return "shutdown" }
