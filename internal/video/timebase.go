package video

import "time"

// Timebase converts wall-clock elapsed time since a fixed epoch into a tick
// count at a given rate (e.g. 90000 for a 90kHz presentation timestamp
// clock). Frame pts values are stamped from the same Timebase so they stay
// monotonic and comparable across the lifetime of a stream.
type Timebase struct {
	perSecond uint64
	epoch     time.Time
}

// NewTimebase returns a Timebase ticking at perSecond units per second,
// with elapsed time measured from epoch.
func NewTimebase(perSecond uint64, epoch time.Time) Timebase {
	return Timebase{perSecond: perSecond, epoch: epoch}
}

// Now returns the current tick count, i.e. time.Since(epoch) expressed in
// units of 1/perSecond seconds.
func (t Timebase) Now() uint64 {
	elapsed := time.Since(t.epoch)
	secs := uint64(elapsed / time.Second)
	fromSecs := secs * t.perSecond

	stepNanos := uint64(time.Second) / t.perSecond
	subsecNanos := uint64(elapsed%time.Second) / stepNanos

	return fromSecs + subsecNanos
}

// PerSecond returns the tick rate, e.g. for building a muxer-facing
// rational timebase (1/PerSecond).
func (t Timebase) PerSecond() uint64 {
	return t.perSecond
}
