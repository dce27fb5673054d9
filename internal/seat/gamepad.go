package seat

// Gamepad tracks one connected wp_game_controller_v1 device's analog and
// digital input state, keyed by the client-visible gamepad id assigned
// when it was announced available.
type Gamepad struct {
	ID uint64

	axes     map[uint32]float64
	triggers map[uint32]float64
	buttons  map[uint32]bool
}

// NewGamepad returns an empty Gamepad with the given id.
func NewGamepad(id uint64) *Gamepad {
	return &Gamepad{
		ID:       id,
		axes:     make(map[uint32]float64),
		triggers: make(map[uint32]float64),
		buttons:  make(map[uint32]bool),
	}
}

// SetAxis records an analog stick axis value in [-1.0, 1.0].
func (g *Gamepad) SetAxis(code uint32, value float64) {
	g.axes[code] = value
}

// Axis returns the last reported value for an axis, 0 if never reported.
func (g *Gamepad) Axis(code uint32) float64 {
	return g.axes[code]
}

// SetTrigger records an analog trigger value in [0.0, 1.0].
func (g *Gamepad) SetTrigger(code uint32, value float64) {
	g.triggers[code] = value
}

// Trigger returns the last reported value for a trigger, 0 if never
// reported.
func (g *Gamepad) Trigger(code uint32) float64 {
	return g.triggers[code]
}

// SetButton records a digital button's pressed state.
func (g *Gamepad) SetButton(code uint32, pressed bool) {
	g.buttons[code] = pressed
}

// Button returns whether a button is currently pressed.
func (g *Gamepad) Button(code uint32) bool {
	return g.buttons[code]
}

// GamepadSet tracks every currently connected gamepad for a seat.
type GamepadSet struct {
	pads map[uint64]*Gamepad
}

// NewGamepadSet returns an empty set.
func NewGamepadSet() *GamepadSet {
	return &GamepadSet{pads: make(map[uint64]*Gamepad)}
}

// Available registers a newly connected gamepad.
func (s *GamepadSet) Available(id uint64) *Gamepad {
	g := NewGamepad(id)
	s.pads[id] = g
	return g
}

// Unavailable removes a disconnected gamepad.
func (s *GamepadSet) Unavailable(id uint64) {
	delete(s.pads, id)
}

// Get returns the gamepad with the given id, if connected.
func (s *GamepadSet) Get(id uint64) (*Gamepad, bool) {
	g, ok := s.pads[id]
	return g, ok
}

// Count returns the number of currently connected gamepads.
func (s *GamepadSet) Count() int {
	return len(s.pads)
}
