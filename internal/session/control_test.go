package session

import (
	"testing"

	"github.com/magicmirror/mm-server/pkg/pixelscale"
)

func TestDisplayParamsRoundTrip(t *testing.T) {
	d := DisplayParams{Width: 1920, Height: 1080, Framerate: 60, UIScale: pixelscale.One}
	if !d.Equal(d) {
		t.Fatalf("expected identical params to be equal")
	}
}

func TestRequiresReattachOnResolutionChange(t *testing.T) {
	d := DisplayParams{Width: 1920, Height: 1080, Framerate: 60, UIScale: pixelscale.One}
	next := d
	next.Width = 2560
	next.Height = 1440

	if !d.RequiresReattach(next) {
		t.Fatalf("resolution change must require reattach")
	}
}

func TestUIScaleOnlyChangeIsLive(t *testing.T) {
	d := DisplayParams{Width: 1920, Height: 1080, Framerate: 60, UIScale: pixelscale.One}
	next := d
	next.UIScale = pixelscale.Ratio{Numerator: 3, Denominator: 2}

	if d.RequiresReattach(next) {
		t.Fatalf("a UI scale only change should be a live transition, not a reattach")
	}
}

func TestFramerateChangeRequiresReattach(t *testing.T) {
	d := DisplayParams{Width: 1920, Height: 1080, Framerate: 60, UIScale: pixelscale.One}
	next := d
	next.Framerate = 30

	if !d.RequiresReattach(next) {
		t.Fatalf("framerate change must require reattach")
	}
}
