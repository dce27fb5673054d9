package surface

import "testing"

func TestSerialStartsAtOneThousand(t *testing.T) {
	s := NewSerial()
	if got := s.Next(); got != 1000 {
		t.Fatalf("got %d want 1000", got)
	}
	if got := s.Next(); got != 1001 {
		t.Fatalf("got %d want 1001", got)
	}
}

func TestSerialNeverReturnsZero(t *testing.T) {
	s := &Serial{}
	s.v.Store(^uint32(0)) // max uint32, next add wraps to 0

	got := s.Next()
	if got != ^uint32(0) {
		t.Fatalf("expected the wrap-causing call to return the old max value, got %d", got)
	}

	// The internal counter is now 0; the next call must skip it.
	got = s.Next()
	if got == 0 {
		t.Fatalf("serial must never return 0")
	}
	if got != 1000 {
		t.Fatalf("got %d want 1000 after wraparound", got)
	}
}
