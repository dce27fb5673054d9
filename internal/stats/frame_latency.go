// Package stats tracks per-attachment delivery metrics: video bitrate and
// end-to-end frame latency.
package stats

import (
	"sync"
	"time"
)

// frameKey identifies an in-flight frame by its video stream epoch and
// sequence number.
type frameKey struct {
	streamSeq uint64
	seq       uint64
}

type inFlightFrame struct {
	firstChunkRecvd time.Time
	lastChunkRecvd  time.Time
	len             int
}

// FrameLatencyTracker accumulates the time each video frame spends between
// its first chunk being handed to the shipper and the frame finishing
// dispatch, plus a rolling bitrate estimate.
//
// FrameFinished reports latency measured from firstChunkRecvd only.
// FrameChunkReceived updates lastChunkRecvd on every subsequent chunk of the
// same frame, but that field is never consulted when computing latency —
// this mirrors the reference client's stats collector exactly, including
// its apparent inconsistency, because downstream dashboards already assume
// this definition of "latency".
type FrameLatencyTracker struct {
	mu           sync.Mutex
	inFlight     map[frameKey]*inFlightFrame
	videoBytes   uint64
	lastSample   time.Time
	bitrateEwma  float64
	latencyEwma  time.Duration
	connRTT      time.Duration
}

// NewFrameLatencyTracker returns an empty tracker.
func NewFrameLatencyTracker() *FrameLatencyTracker {
	return &FrameLatencyTracker{
		inFlight: make(map[frameKey]*inFlightFrame),
	}
}

// FrameChunkReceived records a chunk of a (possibly already-seen) frame. The
// first call for a given key stamps firstChunkRecvd; every call stamps
// lastChunkRecvd and accumulates into the bitrate counter.
func (t *FrameLatencyTracker) FrameChunkReceived(streamSeq, seq uint64, chunkLen int, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := frameKey{streamSeq, seq}
	f, ok := t.inFlight[k]
	if !ok {
		f = &inFlightFrame{firstChunkRecvd: now, lastChunkRecvd: now}
		t.inFlight[k] = f
	}
	f.lastChunkRecvd = now
	t.videoBytes += uint64(chunkLen)
}

// FullFrameReceived marks a frame as fully reassembled. It updates the
// frame's length and lastChunkRecvd timestamp, but — deliberately — neither
// value feeds into the latency computed by FrameFinished.
func (t *FrameLatencyTracker) FullFrameReceived(streamSeq, seq uint64, frameLen int, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := frameKey{streamSeq, seq}
	f, ok := t.inFlight[k]
	if !ok {
		f = &inFlightFrame{firstChunkRecvd: now}
		t.inFlight[k] = f
	}
	f.len = frameLen
	f.lastChunkRecvd = now
}

// FrameFinished removes the frame from the in-flight set, folds its observed
// latency into the rolling average, and updates the bitrate estimate from
// elapsed time since the previous sample.
func (t *FrameLatencyTracker) FrameFinished(streamSeq, seq uint64, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := frameKey{streamSeq, seq}
	f, ok := t.inFlight[k]
	if !ok {
		return
	}
	delete(t.inFlight, k)

	if !t.lastSample.IsZero() {
		elapsed := now.Sub(t.lastSample).Seconds()
		if elapsed > 0 {
			sample := float64(t.videoBytes*8) / elapsed
			t.bitrateEwma = ewma(t.bitrateEwma, sample)
		}
	}
	t.videoBytes = 0
	t.lastSample = now

	latency := now.Sub(f.firstChunkRecvd)
	t.latencyEwma = ewmaDuration(t.latencyEwma, latency)
}

// FrameDiscarded drops an in-flight frame without folding it into latency or
// bitrate statistics (e.g. a frame dropped for being too stale to render).
func (t *FrameLatencyTracker) FrameDiscarded(streamSeq, seq uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.inFlight, frameKey{streamSeq, seq})
}

// SetConnectionRTT records the current measured round-trip time, added on
// top of frame latency when reporting VideoLatency.
func (t *FrameLatencyTracker) SetConnectionRTT(rtt time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connRTT = rtt
}

// VideoBitrate returns the smoothed bits-per-second estimate.
func (t *FrameLatencyTracker) VideoBitrate() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bitrateEwma
}

// VideoLatency returns the smoothed end-to-end latency, including the most
// recently observed connection RTT.
func (t *FrameLatencyTracker) VideoLatency() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latencyEwma + t.connRTT
}

func ewma(prev, sample float64) float64 {
	const alpha = 0.2
	if prev == 0 {
		return sample
	}
	return alpha*sample + (1-alpha)*prev
}

func ewmaDuration(prev, sample time.Duration) time.Duration {
	const alpha = 0.2
	if prev == 0 {
		return sample
	}
	return time.Duration(alpha*float64(sample) + (1-alpha)*float64(prev))
}
