package compositor

import (
	"testing"
	"time"
)

func TestPresentResolvesQueuedFeedbackAsPresented(t *testing.T) {
	tr := NewPresentationTracker()

	var got PresentationResult
	tr.Queue(1, 5, func(r PresentationResult) { got = r })

	now := time.Unix(1000, 0)
	tr.Present(1, 5, now, 16666667)

	if !got.Presented {
		t.Fatalf("expected feedback to resolve as presented")
	}
	if !got.When.Equal(now) {
		t.Fatalf("got time %v want %v", got.When, now)
	}
	if tr.Pending(1) != 0 {
		t.Fatalf("expected no pending feedback after present")
	}
}

func TestQueueSupersedesOlderCommitAsDiscarded(t *testing.T) {
	tr := NewPresentationTracker()

	var first PresentationResult
	resolved := false
	tr.Queue(1, 1, func(r PresentationResult) { first = r; resolved = true })
	tr.Queue(1, 2, func(PresentationResult) {})

	if !resolved {
		t.Fatalf("expected older commit's feedback to resolve immediately")
	}
	if first.Presented {
		t.Fatalf("expected superseded commit to resolve as discarded, not presented")
	}
}

func TestDiscardResolvesAllPendingForSurface(t *testing.T) {
	tr := NewPresentationTracker()

	var results []PresentationResult
	tr.Queue(1, 1, func(r PresentationResult) { results = append(results, r) })
	tr.Discard(1)

	if len(results) != 1 || results[0].Presented {
		t.Fatalf("expected one discarded result, got %+v", results)
	}
	if tr.Pending(1) != 0 {
		t.Fatalf("expected pending count to be zero after discard")
	}
}

func TestPresentOnlyResolvesCommitsUpToPresentedCommit(t *testing.T) {
	tr := NewPresentationTracker()

	var later PresentationResult
	resolved := false
	tr.Queue(1, 10, func(r PresentationResult) { later = r; resolved = true })

	// Presenting an earlier commit than what's queued must leave the
	// pending feedback untouched.
	tr.Present(1, 5, time.Unix(0, 0), 0)
	if resolved {
		t.Fatalf("expected feedback for commit 10 to remain pending after presenting commit 5")
	}
	if tr.Pending(1) != 1 {
		t.Fatalf("expected feedback to remain queued")
	}
	_ = later
}
