package compositor

import "sync"

// XWindow is one Xwayland-backed window. Xwayland creates an X11 window and
// a wl_surface independently; the two are associated later, by serial, once
// Xwayland's window manager round-trip completes. A window can't be mapped
// into the surface tree until that association exists.
type XWindow struct {
	ID               uint32
	SurfaceID        uint32
	Mapped           bool
	OverrideRedirect bool
}

// XWaylandTracker holds X11 windows that exist but have no associated
// wl_surface yet, keyed by the association serial Xwayland reports through
// xwayland_shell's surface_associated request. Grounded on
// map_delayed_xwindows: a window whose map request raced ahead of its
// surface association is retried every time a new association lands,
// instead of being dropped.
type XWaylandTracker struct {
	mu         sync.Mutex
	windows    map[uint32]*XWindow // by X11 window id
	pendingMap map[uint64]uint32   // association serial -> X11 window id, for windows that tried to map before their surface existed
}

// NewXWaylandTracker returns an empty tracker.
func NewXWaylandTracker() *XWaylandTracker {
	return &XWaylandTracker{
		windows:    make(map[uint32]*XWindow),
		pendingMap: make(map[uint64]uint32),
	}
}

// NewWindow registers a newly created X11 window with no surface yet.
func (t *XWaylandTracker) NewWindow(id uint32, overrideRedirect bool) *XWindow {
	t.mu.Lock()
	defer t.mu.Unlock()
	w := &XWindow{ID: id, OverrideRedirect: overrideRedirect}
	t.windows[id] = w
	return w
}

// RequestMap records a map request for a window. If the window already has
// an associated surface it is mapped immediately and true is returned;
// otherwise the request waits for a matching AssociateSurface and false is
// returned.
func (t *XWaylandTracker) RequestMap(id uint32, serial uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.windows[id]
	if !ok {
		return false
	}
	if w.SurfaceID != 0 {
		w.Mapped = true
		return true
	}
	t.pendingMap[serial] = id
	return false
}

// AssociateSurface records that surface association serial now has a
// wl_surface. If a map request was waiting on this serial, the window is
// mapped and its id is returned.
func (t *XWaylandTracker) AssociateSurface(serial uint64, surfaceID uint32) (mappedWindow uint32, mapped bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	windowID, waiting := t.pendingMap[serial]
	if !waiting {
		return 0, false
	}
	delete(t.pendingMap, serial)

	w, ok := t.windows[windowID]
	if !ok {
		return 0, false
	}
	w.SurfaceID = surfaceID
	w.Mapped = true
	return windowID, true
}

// Unmap marks a window unmapped without destroying it. It applies to any
// tracked window, override-redirect or not.
func (t *XWaylandTracker) Unmap(id uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if w, ok := t.windows[id]; ok {
		w.Mapped = false
	}
}

// Destroy removes a window entirely.
func (t *XWaylandTracker) Destroy(id uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.windows, id)
}

// Get returns a tracked window by id.
func (t *XWaylandTracker) Get(id uint32) (*XWindow, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	w, ok := t.windows[id]
	return w, ok
}

// PendingCount reports how many map requests are still waiting on a
// surface association.
func (t *XWaylandTracker) PendingCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pendingMap)
}
