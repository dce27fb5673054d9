package session

import (
	"fmt"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/magicmirror/mm-server/internal/logger"
)

// Stopper is implemented by a Session's control loop so the registry can ask
// it to stop during idle cleanup without importing the compositor/video
// packages that a full Session depends on.
type Stopper interface {
	Stop() error
}

// Entry is one tracked session in the registry.
type Entry struct {
	ID            uint64
	ShortCode     string
	ApplicationID string
	Defunct       bool
	DetachedSince *time.Time
	Session       Stopper
}

// Registry tracks every live session and runs idle cleanup. Modeled on the
// reference implementation's ServerState: a sequential numeric id plus a
// human-shareable short code, and a periodic Tick that reaps defunct or
// idle-timed-out sessions outside of any per-session lock.
type Registry struct {
	mu         sync.Mutex
	sessions   map[uint64]*Entry
	sessionSeq uint64
	timeouts   map[string]time.Duration // application id -> session_timeout
}

// NewRegistry creates an empty registry. timeouts maps application id to its
// configured idle session timeout; a missing or zero entry means no
// timeout.
func NewRegistry(timeouts map[string]time.Duration) *Registry {
	return &Registry{
		sessions: make(map[uint64]*Entry),
		timeouts: timeouts,
	}
}

// GenerateSessionID returns the next sequential id and a fresh six-digit
// human-shareable short code.
func (r *Registry) GenerateSessionID() (uint64, string, error) {
	r.mu.Lock()
	seq := r.sessionSeq
	r.sessionSeq++
	r.mu.Unlock()

	code, err := gonanoid.Generate("0123456789", 6)
	if err != nil {
		return 0, "", fmt.Errorf("generate short code: %w", err)
	}
	return seq, code, nil
}

// Insert registers a session in the registry.
func (r *Registry) Insert(e *Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[e.ID] = e
}

// Get returns the session with the given id, if present.
func (r *Registry) Get(id uint64) (*Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	return e, ok
}

// MarkDetached records that a session has no attached clients as of now,
// starting its idle timeout clock.
func (r *Registry) MarkDetached(id uint64, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[id]; ok {
		e.DetachedSince = &now
	}
}

// MarkAttached clears a session's idle timeout clock, e.g. on a new
// attachment.
func (r *Registry) MarkAttached(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[id]; ok {
		e.DetachedSince = nil
	}
}

// MarkDefunct flags a session for unconditional removal on the next Tick,
// regardless of attachment state.
func (r *Registry) MarkDefunct(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[id]; ok {
		e.Defunct = true
	}
}

// Count returns the number of currently registered sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Tick runs periodic cleanup: any session marked defunct, or detached longer
// than its application's configured session_timeout, is removed from the
// registry and stopped. Sessions are extracted under the lock but stopped
// after releasing it, so a slow or erroring Stop can't block new session
// creation; stop errors are logged, never propagated, matching the
// reference implementation's tick().
func (r *Registry) Tick(now time.Time) {
	var toStop []*Entry

	r.mu.Lock()
	for id, e := range r.sessions {
		remove := false
		if e.Defunct {
			logger.Info("cleaning up defunct session", "session_id", e.ID, "short_code", e.ShortCode)
			remove = true
		} else if e.DetachedSince != nil {
			if timeout, ok := r.timeouts[e.ApplicationID]; ok && timeout > 0 {
				if now.Sub(*e.DetachedSince) > timeout {
					logger.Info("cleaning up idle session", "session_id", e.ID, "short_code", e.ShortCode)
					remove = true
				}
			}
		}
		if remove {
			toStop = append(toStop, e)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, e := range toStop {
		if err := e.Session.Stop(); err != nil {
			logger.Error("session ended with error", "session_id", e.ID, "err", err)
		}
	}
}
