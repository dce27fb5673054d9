package stats

import (
	"sync"
	"time"

	"github.com/magicmirror/mm-server/internal/logger"
)

// AttachmentStats tracks total bytes shipped to one attachment and logs a
// bitrate sample periodically.
type AttachmentStats struct {
	mu              sync.Mutex
	attachmentID    string
	start           time.Time
	totalTransfer   uint64
	windowTransfer  uint64
	lastLog         time.Time
	logEvery        time.Duration
}

// NewAttachmentStats starts a new counter for the given attachment.
func NewAttachmentStats(attachmentID string) *AttachmentStats {
	now := time.Now()
	return &AttachmentStats{
		attachmentID: attachmentID,
		start:        now,
		lastLog:      now,
		logEvery:     5 * time.Second,
	}
}

// RecordFrame accumulates the bytes of one shipped frame and, at most every
// logEvery interval, emits a bitrate log line.
func (s *AttachmentStats) RecordFrame(seq uint64, frameLen int, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.totalTransfer += uint64(frameLen)
	s.windowTransfer += uint64(frameLen)

	if now.Sub(s.lastLog) < s.logEvery {
		return
	}
	elapsed := now.Sub(s.lastLog).Seconds()
	bitrateMbps := 0.0
	if elapsed > 0 {
		bitrateMbps = float64(s.windowTransfer*8) / elapsed / 1_000_000
	}
	s.windowTransfer = 0
	logger.WithAttachment(logger.Logger(), s.attachmentID).Info(
		"attachment transfer stats",
		"seq", seq,
		"current_bitrate_mbps", bitrateMbps,
		"total_transfer_gb", float64(s.totalTransfer)/1e9,
	)
	s.lastLog = now
}

// TotalTransfer returns the cumulative bytes sent to this attachment.
func (s *AttachmentStats) TotalTransfer() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalTransfer
}
