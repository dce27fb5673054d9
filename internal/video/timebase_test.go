package video

import (
	"testing"
	"time"
)

func TestTimebaseNowAdvancesAtConfiguredRate(t *testing.T) {
	epoch := time.Now().Add(-1 * time.Second)
	tb := NewTimebase(90000, epoch)

	got := tb.Now()
	// roughly one second elapsed -> roughly 90000 ticks. Allow generous
	// slack since the test runner's scheduling isn't exact.
	if got < 85000 || got > 95000 {
		t.Fatalf("expected ~90000 ticks after 1s, got %d", got)
	}
}

func TestTimebasePerSecond(t *testing.T) {
	tb := NewTimebase(48000, time.Now())
	if tb.PerSecond() != 48000 {
		t.Fatalf("got %d want 48000", tb.PerSecond())
	}
}

func TestTimebaseZeroElapsedIsZero(t *testing.T) {
	tb := NewTimebase(90000, time.Now())
	if got := tb.Now(); got > 1000 {
		t.Fatalf("expected near-zero ticks immediately after epoch, got %d", got)
	}
}
