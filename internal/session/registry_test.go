package session

import (
	"testing"
	"time"
)

type stopRecorder struct {
	stopped bool
	err     error
}

func (s *stopRecorder) Stop() error {
	s.stopped = true
	return s.err
}

func TestTickRemovesDefunctSessions(t *testing.T) {
	r := NewRegistry(nil)
	rec := &stopRecorder{}
	r.Insert(&Entry{ID: 1, ApplicationID: "app", Session: rec})
	r.MarkDefunct(1)

	r.Tick(time.Now())

	if _, ok := r.Get(1); ok {
		t.Fatalf("expected session removed")
	}
	if !rec.stopped {
		t.Fatalf("expected session stopped")
	}
}

func TestTickRemovesIdleTimedOutSessions(t *testing.T) {
	r := NewRegistry(map[string]time.Duration{"app": 10 * time.Minute})
	rec := &stopRecorder{}
	r.Insert(&Entry{ID: 1, ApplicationID: "app", Session: rec})

	now := time.Now()
	detachedAt := now.Add(-20 * time.Minute)
	r.MarkDetached(1, detachedAt)

	r.Tick(now)

	if _, ok := r.Get(1); ok {
		t.Fatalf("expected idle session removed")
	}
}

func TestTickKeepsRecentlyDetachedSessions(t *testing.T) {
	r := NewRegistry(map[string]time.Duration{"app": 10 * time.Minute})
	rec := &stopRecorder{}
	r.Insert(&Entry{ID: 1, ApplicationID: "app", Session: rec})

	now := time.Now()
	r.MarkDetached(1, now.Add(-2*time.Minute))

	r.Tick(now)

	if _, ok := r.Get(1); !ok {
		t.Fatalf("expected session still present before timeout elapses")
	}
	if rec.stopped {
		t.Fatalf("session should not have been stopped yet")
	}
}

func TestMarkAttachedClearsIdleClock(t *testing.T) {
	r := NewRegistry(map[string]time.Duration{"app": time.Minute})
	rec := &stopRecorder{}
	r.Insert(&Entry{ID: 1, ApplicationID: "app", Session: rec})

	now := time.Now()
	r.MarkDetached(1, now.Add(-5*time.Minute))
	r.MarkAttached(1)

	r.Tick(now)

	if _, ok := r.Get(1); !ok {
		t.Fatalf("expected session to survive after re-attachment cleared the idle clock")
	}
}

func TestTickWithNoTimeoutConfiguredNeverExpires(t *testing.T) {
	r := NewRegistry(nil)
	rec := &stopRecorder{}
	r.Insert(&Entry{ID: 1, ApplicationID: "app", Session: rec})

	now := time.Now()
	r.MarkDetached(1, now.Add(-24*time.Hour))
	r.Tick(now)

	if _, ok := r.Get(1); !ok {
		t.Fatalf("expected session without configured timeout to never expire")
	}
}
