package shipper

import "testing"

func TestWriteVideoFrameAssignsIncreasingSeq(t *testing.T) {
	s := &Shipper{mtu: 1200}

	_, seq1, err := s.WriteVideoFrame(0, nil, 0, true)
	if err != nil {
		t.Fatalf("WriteVideoFrame: %v", err)
	}
	_, seq2, err := s.WriteVideoFrame(1, nil, 0, false)
	if err != nil {
		t.Fatalf("WriteVideoFrame: %v", err)
	}

	if seq1 != 1 || seq2 != 2 {
		t.Fatalf("got seq %d, %d want 1, 2", seq1, seq2)
	}
}

func TestWriteVideoFrameRestartResetsSeqAndBumpsStreamSeq(t *testing.T) {
	s := &Shipper{mtu: 1200}

	streamSeq1, _, _ := s.WriteVideoFrame(0, nil, 0, true)
	s.WriteVideoFrame(1, nil, 0, false)
	streamSeq2, seq, _ := s.WriteVideoFrame(2, nil, 0, true)

	if streamSeq2 != streamSeq1+1 {
		t.Fatalf("got stream_seq %d, want %d", streamSeq2, streamSeq1+1)
	}
	if seq != 1 {
		t.Fatalf("got seq %d after restart, want 1", seq)
	}
}

func TestWriteAudioFrameIndependentFromVideo(t *testing.T) {
	s := &Shipper{mtu: 1200}

	s.WriteVideoFrame(0, nil, 0, true)
	s.WriteVideoFrame(1, nil, 0, false)
	_, audioSeq, _ := s.WriteAudioFrame(0, nil, true)

	if audioSeq != 1 {
		t.Fatalf("got audio seq %d, want 1 (independent of video seq)", audioSeq)
	}
}

func TestShipEmptyFrameIsNoop(t *testing.T) {
	s := &Shipper{mtu: 1200}
	if err := s.ship(nil); err != nil {
		t.Fatalf("ship(nil): %v", err)
	}
}
