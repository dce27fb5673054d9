package video

import (
	"fmt"
	"sync"

	"github.com/magicmirror/mm-server/internal/gpu"
	"github.com/magicmirror/mm-server/internal/session"
)

// Submission describes one queue submission in the composite/convert/encode
// graph: the command buffer to run, the timeline points it waits on before
// starting, and the timeline points it signals on completion.
type Submission struct {
	CommandBuffer uintptr // opaque vulkan.CommandBuffer handle, set by the caller
	Waits         []gpu.TimelinePoint
	Signals       []gpu.TimelinePoint
}

// SubmitGraph collects a sequence of Submissions before handing them to the
// GPU queue together, the same shape as the original compositor's
// SubmitBuilder: callers Add() each stage's work in order, then Submit()
// once to issue them all.
type SubmitGraph struct {
	submissions []Submission
}

// NewSubmitGraph returns an empty graph.
func NewSubmitGraph() *SubmitGraph {
	return &SubmitGraph{}
}

// Add appends one stage's submission to the graph and returns the graph for
// chaining (composite.Add(...).Add(...).Add(...)).
func (g *SubmitGraph) Add(s Submission) *SubmitGraph {
	g.submissions = append(g.submissions, s)
	return g
}

// Submissions returns the accumulated stages, in the order they were added.
// The video queue driver (not built here, since it requires the real
// vulkan-go submit-info marshaling) issues them as a single
// vkQueueSubmit2-equivalent batch.
func (g *SubmitGraph) Submissions() []Submission {
	return g.submissions
}

// FrameSource produces composited GPU frames ready for color conversion.
// The surface tree and seat damage tracking (internal/surface,
// internal/compositor) implement this by rendering the current surface
// stack into an offscreen image.
type FrameSource interface {
	// Composite builds the submission that renders the current frame into
	// dst, signaling completionPoint when the GPU finishes.
	Composite(dst uintptr, completionPoint gpu.TimelinePoint) (Submission, error)
}

// Pipeline sequences one session's video stream: for each frame it asks
// the FrameSource for the composite submission and stamps the frame with a
// Timebase-derived pts, a HierarchicalP layer assignment and a keyframe
// flag. It builds no convert or encode submissions.
type Pipeline struct {
	mu sync.Mutex

	params   session.VideoStreamParams
	timebase Timebase
	gop      HierarchicalP
	rc       RateControlMode

	frameIndex uint64
	nextPts    uint64

	source FrameSource
	timeline *gpu.TimelineSemaphore
}

// NewPipeline builds a Pipeline for the given stream parameters. caps
// reports which rate control modes the encode queue supports; minQP/maxQP
// bound the constant-QP and VBR max-QP ranges.
func NewPipeline(params session.VideoStreamParams, caps EncodeCapabilities, minQP, maxQP uint32, gopLayers, gopSize uint32, timebase Timebase, timeline *gpu.TimelineSemaphore, source FrameSource) *Pipeline {
	gop := NewHierarchicalP(gopLayers, gopSize)
	return &Pipeline{
		params:   params,
		timebase: timebase,
		gop:      gop,
		rc:       SelectRateControlMode(params, caps, minQP, maxQP, gop),
		source:   source,
		timeline: timeline,
	}
}

// RateControl returns the pipeline's currently selected rate control mode.
func (p *Pipeline) RateControl() RateControlMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rc
}

// Frame is one submitted frame's metadata: its index, pts, temporal layer,
// keyframe flag and the completion point its composite submission signals.
type Frame struct {
	Index      uint64
	PTS        uint64
	Layer      uint32
	NeedsIDR   bool
	Completion gpu.TimelinePoint
}

// SubmitFrame assigns the next frame in sequence its index, layer, keyframe
// flag and pts, and returns that metadata with a SubmitGraph holding only
// the FrameSource's composite submission, which signals the returned
// completion point; no convert or encode stage is added. convertDst is an
// opaque image handle owned by the caller, passed to FrameSource.Composite
// as the render target.
func (p *Pipeline) SubmitFrame(convertDst uintptr, signalBase uint64) (Frame, *SubmitGraph, error) {
	p.mu.Lock()
	index := p.frameIndex
	p.frameIndex++
	p.mu.Unlock()

	layer := p.gop.LayerForFrame(index)
	needsIDR := p.gop.NeedsKeyframe(index)
	pts := p.timebase.Now()

	completion := p.timeline.Point(signalBase)

	composite, err := p.source.Composite(convertDst, completion)
	if err != nil {
		return Frame{}, nil, fmt.Errorf("video: composite frame %d: %w", index, err)
	}

	graph := NewSubmitGraph().Add(composite)

	return Frame{
		Index:      index,
		PTS:        pts,
		Layer:      layer,
		NeedsIDR:   needsIDR,
		Completion: completion,
	}, graph, nil
}
