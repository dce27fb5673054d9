package compositor

import "testing"

func TestRequestMapWaitsForSurfaceAssociation(t *testing.T) {
	tr := NewXWaylandTracker()
	tr.NewWindow(1, false)

	if tr.RequestMap(1, 42) {
		t.Fatalf("expected map request to wait on surface association")
	}
	if tr.PendingCount() != 1 {
		t.Fatalf("expected one pending map request")
	}

	windowID, mapped := tr.AssociateSurface(42, 99)
	if !mapped || windowID != 1 {
		t.Fatalf("expected association to map window 1, got id=%d mapped=%v", windowID, mapped)
	}

	w, ok := tr.Get(1)
	if !ok || !w.Mapped || w.SurfaceID != 99 {
		t.Fatalf("unexpected window state: %+v ok=%v", w, ok)
	}
	if tr.PendingCount() != 0 {
		t.Fatalf("expected no pending map requests after association")
	}
}

func TestRequestMapWithExistingSurfaceMapsImmediately(t *testing.T) {
	tr := NewXWaylandTracker()
	tr.NewWindow(1, false)
	tr.AssociateSurface(42, 99) // no pending request yet, should be a no-op

	w, _ := tr.Get(1)
	w.SurfaceID = 99

	if !tr.RequestMap(1, 7) {
		t.Fatalf("expected immediate map since surface already associated")
	}
	if tr.PendingCount() != 0 {
		t.Fatalf("expected no pending map request recorded")
	}
}

func TestUnmapAndDestroy(t *testing.T) {
	tr := NewXWaylandTracker()
	tr.NewWindow(1, false)
	tr.AssociateSurface(42, 99)
	tr.RequestMap(1, 42)

	tr.Unmap(1)
	w, _ := tr.Get(1)
	if w.Mapped {
		t.Fatalf("expected window to be unmapped")
	}

	tr.Destroy(1)
	if _, ok := tr.Get(1); ok {
		t.Fatalf("expected window to be removed")
	}
}

func TestAssociateSurfaceWithNoPendingRequestIsNoop(t *testing.T) {
	tr := NewXWaylandTracker()
	_, mapped := tr.AssociateSurface(1, 2)
	if mapped {
		t.Fatalf("expected no-op association to report not mapped")
	}
}
