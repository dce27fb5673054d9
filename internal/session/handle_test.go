package session

import (
	"testing"
)

type fakeWriter struct {
	seq uint64
}

func (w *fakeWriter) WriteVideoFrame(pts uint64, frame []byte, layer uint8, restart bool) (uint64, uint64, error) {
	w.seq++
	return 1, w.seq, nil
}

func (w *fakeWriter) WriteAudioFrame(pts uint64, frame []byte, restart bool) (uint64, uint64, error) {
	w.seq++
	return 2, w.seq, nil
}

func TestDispatchFansOutToAllAttachments(t *testing.T) {
	h := NewHandle(nil)

	ev1 := make(chan SessionEvent, 4)
	ev2 := make(chan SessionEvent, 4)
	h.InsertClient(1, ev1, &fakeWriter{})
	h.InsertClient(2, ev2, &fakeWriter{})

	h.Dispatch(PointerReleasedEvent{})

	for _, ch := range []chan SessionEvent{ev1, ev2} {
		select {
		case e := <-ch:
			if e.Kind() != "pointer_released" {
				t.Fatalf("unexpected event: %v", e.Kind())
			}
		default:
			t.Fatalf("expected event on channel")
		}
	}
}

func TestDispatchVideoFrameAssignsPerAttachmentSeq(t *testing.T) {
	h := NewHandle(nil)
	ev1 := make(chan SessionEvent, 4)
	ev2 := make(chan SessionEvent, 4)
	h.InsertClient(1, ev1, &fakeWriter{})
	h.InsertClient(2, ev2, &fakeWriter{})

	h.DispatchVideoFrame(100, []byte{1, 2, 3}, 0, false)

	e1 := (<-ev1).(VideoFrameEvent)
	e2 := (<-ev2).(VideoFrameEvent)
	if e1.Seq != 1 || e2.Seq != 1 {
		t.Fatalf("expected both attachments to see seq 1 independently, got %d and %d", e1.Seq, e2.Seq)
	}
}

func TestKickClientsRemovesAndShutsDown(t *testing.T) {
	h := NewHandle(nil)
	ev1 := make(chan SessionEvent, 1)
	h.InsertClient(1, ev1, &fakeWriter{})

	h.KickClients()

	if h.NumAttachments() != 0 {
		t.Fatalf("expected no attachments after kick")
	}
	select {
	case e := <-ev1:
		if e.Kind() != "shutdown" {
			t.Fatalf("expected shutdown event, got %v", e.Kind())
		}
	default:
		t.Fatalf("expected shutdown event delivered")
	}
}

func TestSlowAttachmentDoesNotBlockOthers(t *testing.T) {
	h := NewHandle(nil)
	full := make(chan SessionEvent) // unbuffered, never drained: always "full"
	ok := make(chan SessionEvent, 1)
	h.InsertClient(1, full, &fakeWriter{})
	h.InsertClient(2, ok, &fakeWriter{})

	h.Dispatch(PointerReleasedEvent{})

	select {
	case <-ok:
	default:
		t.Fatalf("expected the non-full attachment to still receive the event")
	}

	if h.NumAttachments() != 1 {
		t.Fatalf("expected the slow attachment to be removed, got %d attachments", h.NumAttachments())
	}
	if _, stillThere := h.attachments[1]; stillThere {
		t.Fatalf("expected attachment 1 (the slow one) to be removed")
	}
}
