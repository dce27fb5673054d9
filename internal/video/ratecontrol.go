package video

import (
	"math"

	"github.com/magicmirror/mm-server/internal/logger"
	"github.com/magicmirror/mm-server/internal/session"
)

// Bitrate is defined here in terms of 1080p, and scaled nonlinearly to the
// target resolution. Values are indexed by quality preset (0-9). Presets
// 7/8/9 are only used if constant-QP is unsupported by the encode queue.
var baselineAvgBitrateMbps = [10]float64{2.5, 3.0, 4.0, 5.0, 6.0, 8.0, 10.0, 12.0, 25.0, 50.0}
var baselinePeakBitrateMbps = [10]float64{5.0, 8.0, 10.0, 15.0, 20.0, 30.0, 40.0, 60.0, 80.0, 100.0}

const baselineDims = 1920.0 * 1080.0

// VBVSizeMs is the fixed VBV buffer size used for every layered-VBR stream.
const VBVSizeMs uint32 = 2500

// Mode identifies which rate control strategy is active.
type Mode int

const (
	ModeConstantQP Mode = iota
	ModeVBR
	ModeDefaults
)

// CascadingQP is a constant-QP mode where each temporal layer above the base
// gets a progressively higher (lower quality) QP.
type CascadingQP struct {
	Target uint32
	Max    uint32
}

// Layer returns the constant QP to use for the given temporal layer.
func (c CascadingQP) Layer(layer uint32) uint32 {
	return min32(layerQP(c.Target, layer), c.Max)
}

// VBRSettings is one temporal layer's VBR configuration.
type VBRSettings struct {
	AverageBitrate uint64
	PeakBitrate    uint64
	MaxQP          uint32
	MinQP          uint32
}

// LayeredVBR is a VBR mode where each temporal layer above the base gets a
// halved bitrate budget and a progressively higher max QP.
type LayeredVBR struct {
	VBVSizeMs uint32

	Base      VBRSettings
	NumLayers uint32
}

// Layer returns the VBR settings to use for the given temporal layer.
func (v LayeredVBR) Layer(layer uint32) VBRSettings {
	if v.NumLayers <= 1 {
		return v.Base
	}

	denominator := uint64(1) << (layer + 1)
	maxQP := clamp32(layerQP(v.Base.MaxQP, layer), v.Base.MinQP, v.Base.MaxQP)

	return VBRSettings{
		AverageBitrate: v.Base.AverageBitrate / denominator,
		PeakBitrate:    v.Base.PeakBitrate / denominator,
		MaxQP:          maxQP,
		MinQP:          v.Base.MinQP,
	}
}

// RateControlMode is the selected strategy plus its parameters, one of
// CascadingQP (when Mode == ModeConstantQP), LayeredVBR (when Mode ==
// ModeVBR), or neither (when Mode == ModeDefaults, meaning the encoder's
// built-in defaults are used because the device advertised no usable rate
// control mode).
type RateControlMode struct {
	Mode  Mode
	QP    CascadingQP
	VBR   LayeredVBR
}

// EncodeCapabilities reports which rate control strategies the GPU's video
// encode queue advertises support for.
type EncodeCapabilities struct {
	SupportsConstantQP bool
	SupportsVBR        bool
}

// SelectRateControlMode implements the exact preset-to-mode mapping used by
// the reference encoder: presets 7-9 prefer a very low constant QP, presets
// 0-6 prefer VBR scaled from a 1080p baseline by the square root of the
// target-to-baseline pixel area ratio, and either falls back to the other
// mode (or driver defaults) if the preferred one is unsupported.
func SelectRateControlMode(params session.VideoStreamParams, caps EncodeCapabilities, minQP, maxQP uint32, structure HierarchicalP) RateControlMode {
	if params.Preset > 9 {
		panic("video: preset must be in [0, 9]")
	}

	minQP = max32(17, minQP)
	targetQP := uint32(40) - 2*uint32(params.Preset) // 22..40

	switch {
	case params.Preset >= 7 && caps.SupportsConstantQP:
		return RateControlMode{
			Mode: ModeConstantQP,
			QP: CascadingQP{
				Target: clamp32(targetQP, minQP, maxQP),
				Max:    maxQP,
			},
		}

	case caps.SupportsVBR:
		scale := math.Sqrt(float64(params.Width*params.Height) / baselineDims)

		const mbps = 1_000_000.0
		avgBitrate := uint64(math.Round(baselineAvgBitrateMbps[params.Preset] * mbps * scale))
		peakBitrate := uint64(math.Round(baselinePeakBitrateMbps[params.Preset] * mbps * scale))

		return RateControlMode{
			Mode: ModeVBR,
			VBR: LayeredVBR{
				VBVSizeMs: VBVSizeMs,
				Base: VBRSettings{
					AverageBitrate: avgBitrate,
					PeakBitrate:    peakBitrate,
					MinQP:          minQP,
					MaxQP:          clamp32(targetQP, minQP, maxQP),
				},
				NumLayers: structure.Layers,
			},
		}

	case caps.SupportsConstantQP:
		return RateControlMode{
			Mode: ModeConstantQP,
			QP: CascadingQP{
				Target: clamp32(targetQP, minQP, maxQP),
				Max:    maxQP,
			},
		}

	default:
		logger.Warn("no rate control modes available, using driver defaults")
		return RateControlMode{Mode: ModeDefaults}
	}
}

// layerQP determines the constant QP for a layer given the target QP.
// Example: for a target QP of 22, the QP for each layer is 22, 27, 29, 31...
func layerQP(targetQP, layer uint32) uint32 {
	return targetQP + 3*min32(layer, 1) + 2*layer
}

func min32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

func clamp32(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
