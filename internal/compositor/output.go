package compositor

import (
	"sync"

	"github.com/magicmirror/mm-server/internal/session"
)

// Output is one wl_output global's client-facing state: the geometry,
// mode, and scale events a binding client receives, kept in sync with the
// session's DisplayParams.
type Output struct {
	ClientID uint32
	Version  uint32
}

// OutputGeometry is the set of events a single wl_output bind should
// receive to describe the current virtual display.
type OutputGeometry struct {
	Name        string
	Description string
	Width       int32
	Height      int32
	RefreshMHz  int32 // mode refresh in milli-Hz, matching wl_output.mode's units
	Scale       int32 // always an integer per protocol; fractional scale rounds up
}

// OutputSet tracks every wl_output proxy a dispatcher has handed out, so
// that a display parameter change can be broadcast to all of them at once
// via Geometries.
type OutputSet struct {
	mu      sync.Mutex
	outputs []*Output
}

// NewOutputSet returns an empty set.
func NewOutputSet() *OutputSet {
	return &OutputSet{}
}

// Add registers a newly bound wl_output proxy.
func (s *OutputSet) Add(o *Output) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputs = append(s.outputs, o)
}

// Remove unregisters a destroyed wl_output proxy.
func (s *OutputSet) Remove(o *Output) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.outputs {
		if existing == o {
			s.outputs = append(s.outputs[:i], s.outputs[i+1:]...)
			return
		}
	}
}

// Geometries returns the geometry every currently bound output should be
// sent, one entry per bound output; every entry is the same regardless of
// the output's bound version.
func (s *OutputSet) Geometries(params session.DisplayParams) []OutputGeometry {
	s.mu.Lock()
	defer s.mu.Unlock()

	// wl_output.scale is always an integer; a fractional UI scale (e.g.
	// 150%) is rounded up so clients never under-scale their buffers.
	scale := params.UIScale.Ceil(1)

	geoms := make([]OutputGeometry, len(s.outputs))
	for i := range s.outputs {
		geoms[i] = OutputGeometry{
			Name:        "MM",
			Description: "Magic Mirror Virtual Display",
			Width:       int32(params.Width),
			Height:      int32(params.Height),
			RefreshMHz:  int32(params.Framerate) * 1000,
			Scale:       int32(scale),
		}
	}
	return geoms
}

// Count returns how many wl_output proxies are currently bound.
func (s *OutputSet) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outputs)
}
