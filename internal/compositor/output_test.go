package compositor

import (
	"testing"

	"github.com/magicmirror/mm-server/internal/session"
	"github.com/magicmirror/mm-server/pkg/pixelscale"
)

func TestGeometriesOneEntryPerBoundOutput(t *testing.T) {
	s := NewOutputSet()
	s.Add(&Output{ClientID: 1, Version: 4})
	s.Add(&Output{ClientID: 2, Version: 4})

	geoms := s.Geometries(session.DisplayParams{
		Width:     1920,
		Height:    1080,
		Framerate: 60,
		UIScale:   pixelscale.One,
	})
	if len(geoms) != 2 {
		t.Fatalf("got %d geometries, want 2", len(geoms))
	}
	if geoms[0].Width != 1920 || geoms[0].Height != 1080 {
		t.Fatalf("unexpected geometry %+v", geoms[0])
	}
	if geoms[0].RefreshMHz != 60000 {
		t.Fatalf("got refresh %d, want 60000", geoms[0].RefreshMHz)
	}
	if geoms[0].Scale != 1 {
		t.Fatalf("got scale %d, want 1", geoms[0].Scale)
	}
}

func TestGeometriesRoundsFractionalScaleUp(t *testing.T) {
	s := NewOutputSet()
	s.Add(&Output{ClientID: 1, Version: 4})

	geoms := s.Geometries(session.DisplayParams{
		Width:     1920,
		Height:    1080,
		Framerate: 60,
		UIScale:   pixelscale.New(3, 2), // 150%
	})
	if geoms[0].Scale != 2 {
		t.Fatalf("got scale %d, want 2 (ceil of 1.5)", geoms[0].Scale)
	}
}

func TestAddRemoveTracksCount(t *testing.T) {
	s := NewOutputSet()
	o := &Output{ClientID: 1}
	s.Add(o)
	if s.Count() != 1 {
		t.Fatalf("got count %d, want 1", s.Count())
	}
	s.Remove(o)
	if s.Count() != 0 {
		t.Fatalf("got count %d, want 0", s.Count())
	}
}
