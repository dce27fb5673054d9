package video

import (
	"testing"

	"github.com/magicmirror/mm-server/internal/session"
)

func TestCascadingQPLayerProgression(t *testing.T) {
	qp := CascadingQP{Target: 22, Max: 51}
	want := []uint32{22, 27, 29, 31}
	for layer, w := range want {
		if got := qp.Layer(uint32(layer)); got != w {
			t.Fatalf("layer %d: got %d want %d", layer, got, w)
		}
	}
}

func TestCascadingQPClampedToMax(t *testing.T) {
	qp := CascadingQP{Target: 48, Max: 51}
	if got := qp.Layer(5); got != 51 {
		t.Fatalf("expected clamp to max 51, got %d", got)
	}
}

func TestLayeredVBRHalvesBitratePerLayer(t *testing.T) {
	vbr := LayeredVBR{
		Base:      VBRSettings{AverageBitrate: 8_000_000, PeakBitrate: 16_000_000, MinQP: 17, MaxQP: 30},
		NumLayers: 3,
	}
	l0 := vbr.Layer(0)
	l1 := vbr.Layer(1)
	if l0.AverageBitrate != 4_000_000 {
		t.Fatalf("layer 0 avg: got %d want 4000000", l0.AverageBitrate)
	}
	if l1.AverageBitrate != 2_000_000 {
		t.Fatalf("layer 1 avg: got %d want 2000000", l1.AverageBitrate)
	}
}

func TestLayeredVBRSingleLayerReturnsBase(t *testing.T) {
	base := VBRSettings{AverageBitrate: 5_000_000, PeakBitrate: 10_000_000, MinQP: 17, MaxQP: 30}
	vbr := LayeredVBR{Base: base, NumLayers: 1}
	if got := vbr.Layer(3); got != base {
		t.Fatalf("expected base settings unchanged for single-layer stream, got %+v", got)
	}
}

func TestSelectRateControlModePreset9UsesConstantQP(t *testing.T) {
	params := session.VideoStreamParams{Width: 1920, Height: 1080, Preset: 9}
	mode := SelectRateControlMode(params, EncodeCapabilities{SupportsConstantQP: true, SupportsVBR: true}, 17, 51, NewHierarchicalP(1, 0))
	if mode.Mode != ModeConstantQP {
		t.Fatalf("expected ModeConstantQP for preset 9, got %v", mode.Mode)
	}
	// target_qp = 40 - 2*9 = 22
	if mode.QP.Target != 22 {
		t.Fatalf("expected target qp 22, got %d", mode.QP.Target)
	}
}

func TestSelectRateControlModeLowPresetUsesVBRScaledByArea(t *testing.T) {
	params := session.VideoStreamParams{Width: 1920, Height: 1080, Preset: 3}
	mode := SelectRateControlMode(params, EncodeCapabilities{SupportsConstantQP: true, SupportsVBR: true}, 17, 51, NewHierarchicalP(1, 0))
	if mode.Mode != ModeVBR {
		t.Fatalf("expected ModeVBR for preset 3 at 1080p, got %v", mode.Mode)
	}
	// scale == 1.0 at baseline 1080p, so bitrate matches the table exactly.
	if mode.VBR.Base.AverageBitrate != 5_000_000 {
		t.Fatalf("expected average bitrate 5 Mbps at baseline, got %d", mode.VBR.Base.AverageBitrate)
	}
	if mode.VBR.Base.PeakBitrate != 15_000_000 {
		t.Fatalf("expected peak bitrate 15 Mbps at baseline, got %d", mode.VBR.Base.PeakBitrate)
	}
}

func TestSelectRateControlModeScalesBelowBaselineResolution(t *testing.T) {
	// Quarter the pixel area (half width, half height) halves the scale factor.
	params := session.VideoStreamParams{Width: 960, Height: 540, Preset: 3}
	mode := SelectRateControlMode(params, EncodeCapabilities{SupportsVBR: true}, 17, 51, NewHierarchicalP(1, 0))
	if mode.VBR.Base.AverageBitrate != 2_500_000 {
		t.Fatalf("expected average bitrate scaled to 2.5 Mbps at quarter area, got %d", mode.VBR.Base.AverageBitrate)
	}
}

func TestSelectRateControlModeFallsBackToDriverDefaults(t *testing.T) {
	params := session.VideoStreamParams{Width: 1920, Height: 1080, Preset: 3}
	mode := SelectRateControlMode(params, EncodeCapabilities{}, 17, 51, NewHierarchicalP(1, 0))
	if mode.Mode != ModeDefaults {
		t.Fatalf("expected ModeDefaults when no rate control mode is supported, got %v", mode.Mode)
	}
}

func TestHierarchicalPLayerAssignment(t *testing.T) {
	h := NewHierarchicalP(3, 0)
	// Period = 2^(3-1) = 4: frame 0 is layer 0, frame 2 is layer 1, frames 1,3 are layer 2.
	cases := map[uint64]uint32{0: 0, 1: 2, 2: 1, 3: 2, 4: 0}
	for frame, want := range cases {
		if got := h.LayerForFrame(frame); got != want {
			t.Fatalf("frame %d: got layer %d want %d", frame, got, want)
		}
	}
}

func TestHierarchicalPNeedsKeyframe(t *testing.T) {
	h := NewHierarchicalP(1, 30)
	if !h.NeedsKeyframe(0) {
		t.Fatalf("frame 0 must always need a keyframe")
	}
	if !h.NeedsKeyframe(30) {
		t.Fatalf("frame 30 should need a keyframe at gop size 30")
	}
	if h.NeedsKeyframe(15) {
		t.Fatalf("frame 15 should not need a keyframe at gop size 30")
	}
}
