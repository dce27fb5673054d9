package seat

// LockMode describes why the pointer is currently locked to a position,
// mirroring the two pointer-constraints lifetimes a client can request.
type LockMode int

const (
	// LockNone means the pointer moves freely.
	LockNone LockMode = iota
	// LockOneshot is released by ReleaseIfOneshot, which the seat calls on
	// a pointer button release (wp_pointer_constraints'
	// zwp_locked_pointer_v1 "oneshot" lifetime).
	LockOneshot
	// LockPersistent stays locked until the client explicitly destroys
	// the lock object.
	LockPersistent
)

// Pointer tracks one seat's pointer focus, absolute position, and lock
// state. While locked, absolute motion is suppressed and only relative
// deltas are delivered to the focused surface.
type Pointer struct {
	focusedSurface uint32
	hasFocus       bool

	x, y float64

	lockMode LockMode
	lockX, lockY float64
}

// Enter sets the focused surface, mirroring PointerEnteredMessage.
func (p *Pointer) Enter(surfaceID uint32) {
	p.focusedSurface = surfaceID
	p.hasFocus = true
}

// Leave clears pointer focus, mirroring PointerLeftMessage.
func (p *Pointer) Leave() {
	p.hasFocus = false
}

// Focused returns the currently focused surface id, if any.
func (p *Pointer) Focused() (uint32, bool) {
	return p.focusedSurface, p.hasFocus
}

// Motion applies an absolute motion update. It is ignored while the
// pointer is locked, since locked clients only receive relative deltas.
func (p *Pointer) Motion(x, y float64) {
	if p.lockMode != LockNone {
		return
	}
	p.x, p.y = x, y
}

// RelativeMotion applies a relative delta while locked. It is a no-op
// when the pointer isn't locked, since unlocked clients track position
// via Motion instead.
func (p *Pointer) RelativeMotion(dx, dy float64) {
	if p.lockMode == LockNone {
		return
	}
	p.x += dx
	p.y += dy
}

// Position returns the pointer's current surface-local coordinates.
func (p *Pointer) Position() (float64, float64) {
	return p.x, p.y
}

// Lock locks the pointer to its current position with the given lifetime.
func (p *Pointer) Lock(mode LockMode) {
	p.lockMode = mode
	p.lockX, p.lockY = p.x, p.y
}

// Unlock releases any pointer lock.
func (p *Pointer) Unlock() {
	p.lockMode = LockNone
}

// Locked reports whether the pointer is currently locked, and if so, the
// position it's locked at.
func (p *Pointer) Locked() (bool, float64, float64) {
	return p.lockMode != LockNone, p.lockX, p.lockY
}

// ReleaseIfOneshot releases a oneshot lock once its single use is spent
// (called after the locked surface reports it's done with the gesture,
// e.g. on pointer button release). A persistent lock is unaffected.
func (p *Pointer) ReleaseIfOneshot() bool {
	if p.lockMode == LockOneshot {
		p.lockMode = LockNone
		return true
	}
	return false
}
