package surface

import (
	"fmt"
	"image"
	"sync"
)

// Tree owns every live surface for one session's compositor instance,
// keyed by protocol object id, plus the serial generator shared across
// surface/role/output events.
type Tree struct {
	mu       sync.Mutex
	surfaces map[uint32]*Surface
	serial   *Serial
}

// NewTree returns an empty surface tree with a fresh serial generator.
func NewTree() *Tree {
	return &Tree{
		surfaces: make(map[uint32]*Surface),
		serial:   NewSerial(),
	}
}

// Serial returns the tree's shared serial generator.
func (t *Tree) Serial() *Serial {
	return t.serial
}

// CreateSurface registers a new, role-less surface.
func (t *Tree) CreateSurface(id uint32) *Surface {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := NewSurface(id)
	t.surfaces[id] = s
	return s
}

// Get returns the surface with the given id, if it's still live.
func (t *Tree) Get(id uint32) (*Surface, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.surfaces[id]
	return s, ok
}

// Destroy removes a surface from the tree, and unlinks it from any parent
// it was a subsurface of.
func (t *Tree) Destroy(id uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.surfaces[id]; ok {
		s.MarkDestroyed()
	}
	delete(t.surfaces, id)

	for _, parent := range t.surfaces {
		parent.children = removeID(parent.children, id)
	}
}

func removeID(ids []uint32, id uint32) []uint32 {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Commit processes a wl_surface.commit for id and applies only that
// surface's own pending state; it does not walk to parents or children.
// For a synchronized subsurface (wl_subsurface with sync mode) the pending
// state is left in place and Commit returns nil; that state is applied
// only when CommitSubtree is called on an ancestor. Otherwise Commit
// returns the damage the surface just committed.
func (t *Tree) Commit(id uint32) ([]image.Rectangle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.surfaces[id]
	if !ok {
		return nil, fmt.Errorf("surface: commit on unknown surface %d", id)
	}

	if s.Role() == RoleSubSurface && s.pending.SubSurface.Sync {
		// A sync subsurface's commit is cached; it becomes visible only
		// when its ancestor chain up to the nearest desynchronized (or
		// toplevel) surface next commits. The video pipeline's damage
		// tracking only needs to see it at that point, so it stays in
		// the pending struct rather than being force-applied here.
		return nil, nil
	}

	return s.Commit(), nil
}

// CommitSubtree commits a surface and then every descendant subsurface, in
// stacking order, whether or not the descendant is synchronized, so that a
// chain of synchronized subsurfaces becomes visible together in one frame.
// Tree.Commit does not call it.
func (t *Tree) CommitSubtree(id uint32) []image.Rectangle {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.commitSubtreeLocked(id)
}

func (t *Tree) commitSubtreeLocked(id uint32) []image.Rectangle {
	s, ok := t.surfaces[id]
	if !ok {
		return nil
	}

	damage := s.Commit()
	for _, childID := range s.Children() {
		damage = append(damage, t.commitSubtreeLocked(childID)...)
	}
	return damage
}

// Count returns the number of live surfaces, for tests and diagnostics.
func (t *Tree) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.surfaces)
}
