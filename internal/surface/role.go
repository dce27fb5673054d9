package surface

// Role is the sum type of every role a surface can be assigned, mirroring
// the xdg-shell/cursor/subsurface protocol objects that confer a role.
// Once a surface's role is set it is immutable: a client that tries to
// assign a second, different role to the same wl_surface has violated the
// protocol.
type Role int

const (
	RoleNone Role = iota
	RoleToplevel
	RolePopup
	RoleXWayland
	RoleCursor
	RoleSubSurface
)

func (r Role) String() string {
	switch r {
	case RoleNone:
		return "none"
	case RoleToplevel:
		return "toplevel"
	case RolePopup:
		return "popup"
	case RoleXWayland:
		return "xwayland"
	case RoleCursor:
		return "cursor"
	case RoleSubSurface:
		return "subsurface"
	default:
		return "unknown"
	}
}

// ToplevelState holds the xdg_toplevel-specific committed state.
type ToplevelState struct {
	Title      string
	AppID      string
	MinSize    [2]uint32
	MaxSize    [2]uint32
	Maximized  bool
	Fullscreen bool
}

// PopupState holds the xdg_popup-specific committed state: the anchor
// rectangle relative to the parent surface, resolved by a positioner.
type PopupState struct {
	ParentID      uint32
	X, Y          int32
	Width, Height uint32
}

// SubSurfaceState holds the wl_subsurface-specific committed state.
type SubSurfaceState struct {
	ParentID uint32
	X, Y     int32
	Sync     bool
}
