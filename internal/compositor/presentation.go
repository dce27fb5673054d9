package compositor

import (
	"sync"
	"time"
)

// PresentationFeedback is one outstanding wp_presentation_feedback request:
// a client asked to be told when a specific surface commit actually makes
// it to the screen (or, for us, into an encoded frame).
type PresentationFeedback struct {
	SurfaceID uint32
	CommitSeq uint64
}

// PresentationResult is what a feedback request resolves to: either the
// commit was presented at a specific time, with the refresh interval and a
// monotonically increasing sequence number client apps use to detect
// dropped frames, or it was discarded because a later commit on the same
// surface replaced it before it was ever presented.
type PresentationResult struct {
	Presented bool
	When      time.Time
	RefreshNS uint32
	Seq       uint64
}

// PresentationTracker queues feedback requests per surface and resolves
// them as frames are submitted to the video pipeline. Grounded on
// wp_presentation's feedback request: a client attaches a feedback object
// to a surface commit, and the compositor promises exactly one of
// "presented" or "discarded" for it.
type PresentationTracker struct {
	mu       sync.Mutex
	pending  map[uint32][]*pendingFeedback
	seq      uint64
	resolved map[uint64]func(PresentationResult)
}

type pendingFeedback struct {
	id      uint64
	commit  uint64
	resolve func(PresentationResult)
}

// NewPresentationTracker returns an empty tracker.
func NewPresentationTracker() *PresentationTracker {
	return &PresentationTracker{
		pending:  make(map[uint32][]*pendingFeedback),
		resolved: make(map[uint64]func(PresentationResult)),
	}
}

// Queue registers a feedback request for a surface's most recent commit.
// resolve is called exactly once: from Present, from Discard, or from a
// later Queue call whose commit supersedes this one before it is presented.
func (t *PresentationTracker) Queue(surfaceID uint32, commitSeq uint64, resolve func(PresentationResult)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	pf := &pendingFeedback{id: t.seq, commit: commitSeq, resolve: resolve}

	// Any feedback already queued for this surface against an older commit
	// will never be presented on its own: this commit supersedes it.
	// Feedback for the same (or a newer) commit stays queued.
	kept := make([]*pendingFeedback, 0, len(t.pending[surfaceID])+1)
	for _, old := range t.pending[surfaceID] {
		if old.commit < commitSeq {
			old.resolve(PresentationResult{Presented: false})
			continue
		}
		kept = append(kept, old)
	}
	t.pending[surfaceID] = append(kept, pf)
}

// Present resolves the surface's queued feedback whose commit is <=
// presentedCommit as actually presented, at the given time and refresh
// interval. It's called once per encoded frame, after the compositor knows
// which surface commits were included in that frame's composite pass.
func (t *PresentationTracker) Present(surfaceID uint32, presentedCommit uint64, when time.Time, refreshNS uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	seq := t.seq

	remaining := t.pending[surfaceID][:0]
	for _, pf := range t.pending[surfaceID] {
		if pf.commit <= presentedCommit {
			pf.resolve(PresentationResult{Presented: true, When: when, RefreshNS: refreshNS, Seq: seq})
			continue
		}
		remaining = append(remaining, pf)
	}
	t.pending[surfaceID] = remaining
}

// Discard resolves every feedback queued for a surface as discarded,
// without presenting it, e.g. when the surface is destroyed before its
// pending commit is ever composited.
func (t *PresentationTracker) Discard(surfaceID uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, pf := range t.pending[surfaceID] {
		pf.resolve(PresentationResult{Presented: false})
	}
	delete(t.pending, surfaceID)
}

// Pending reports how many feedback requests are still outstanding for a
// surface.
func (t *PresentationTracker) Pending(surfaceID uint32) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending[surfaceID])
}
