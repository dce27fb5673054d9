package surface

import (
	"fmt"
	"image"
)

// State is one surface's committed (or pending, before Commit) state:
// the attached buffer and its damage region, plus whichever role-specific
// state applies.
type State struct {
	BufferID  uint32
	BufferSet bool

	Damage []image.Rectangle

	Toplevel   ToplevelState
	Popup      PopupState
	SubSurface SubSurfaceState
}

// Surface is a single wl_surface: its role (assigned at most once), a
// pending state accumulating double-buffered protocol requests, and the
// current state as of the last commit.
type Surface struct {
	ID   uint32
	role Role

	pending State
	current State

	children []uint32 // subsurface ids, in stacking order
	destroyed bool
}

// NewSurface creates a surface with no role assigned yet.
func NewSurface(id uint32) *Surface {
	return &Surface{ID: id, role: RoleNone}
}

// Role returns the surface's current role.
func (s *Surface) Role() Role {
	return s.role
}

// AssignRole sets the surface's role. It is an error to assign a role to a
// surface that already has a different one; re-assigning the same role
// (e.g. re-creating an xdg_toplevel after destroying and re-attaching one)
// is allowed since the protocol permits that sequence.
func (s *Surface) AssignRole(role Role) error {
	if s.role != RoleNone && s.role != role {
		return fmt.Errorf("surface: surface %d already has role %s, cannot assign %s", s.ID, s.role, role)
	}
	s.role = role
	return nil
}

// AttachBuffer records a buffer attach request in the surface's pending
// state (wl_surface.attach). It takes effect on the next Commit.
func (s *Surface) AttachBuffer(bufferID uint32) {
	s.pending.BufferID = bufferID
	s.pending.BufferSet = true
}

// DetachBuffer records a null buffer attach (wl_surface.attach with a nil
// buffer), which hides the surface on the next commit.
func (s *Surface) DetachBuffer() {
	s.pending.BufferID = 0
	s.pending.BufferSet = false
}

// Damage accumulates a damaged region onto the pending state
// (wl_surface.damage / damage_buffer).
func (s *Surface) Damage(r image.Rectangle) {
	s.pending.Damage = append(s.pending.Damage, r)
}

// Current returns the surface's state as of the last Commit.
func (s *Surface) Current() State {
	return s.current
}

// HasBuffer reports whether the surface's current state has a buffer
// attached, i.e. whether it should be composited at all.
func (s *Surface) HasBuffer() bool {
	return s.current.BufferSet
}

// AddChild appends a subsurface id to the stacking order, bottom to top,
// mirroring wl_subsurface.place_above/place_below ordering semantics not
// modeled here directly (Tree handles the actual reordering calls).
func (s *Surface) AddChild(id uint32) {
	s.children = append(s.children, id)
}

// Children returns the subsurface ids attached to this surface, in
// current stacking order.
func (s *Surface) Children() []uint32 {
	return s.children
}

// Commit moves the pending state into current, clearing accumulated
// damage. It returns the damage that was just committed, for the
// compositor to union into the frame's dirty region.
func (s *Surface) Commit() []image.Rectangle {
	damage := s.pending.Damage
	s.pending.Damage = nil

	s.current.BufferID = s.pending.BufferID
	s.current.BufferSet = s.pending.BufferSet
	s.current.Toplevel = s.pending.Toplevel
	s.current.Popup = s.pending.Popup
	s.current.SubSurface = s.pending.SubSurface

	return damage
}

// Destroyed reports whether wl_surface.destroy has been processed for
// this surface.
func (s *Surface) Destroyed() bool {
	return s.destroyed
}

// MarkDestroyed flags the surface as gone. The Tree removes it from the
// id map but callers holding a *Surface across that point must check this
// before using it further.
func (s *Surface) MarkDestroyed() {
	s.destroyed = true
}
