package shipper

import (
	"bytes"
	"testing"
)

func TestIterChunksPlainSplitsAtMTU(t *testing.T) {
	frame := make([]byte, 3536)
	for i := range frame {
		frame[i] = 9
	}

	chunks := IterChunks(frame, 1200, 0.0)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}

	wantLens := []int{1200, 1200, 1136}
	for i, c := range chunks {
		if c.Index != uint32(i) {
			t.Fatalf("chunk %d: got index %d", i, c.Index)
		}
		if c.NumChunks != 3 {
			t.Fatalf("chunk %d: got num_chunks %d, want 3", i, c.NumChunks)
		}
		if len(c.Data) != wantLens[i] {
			t.Fatalf("chunk %d: got len %d, want %d", i, len(c.Data), wantLens[i])
		}
		if c.FecMetadata != nil {
			t.Fatalf("chunk %d: expected no FEC metadata", i)
		}
	}
}

func TestIterChunksFECAddsRepairSymbols(t *testing.T) {
	frame := make([]byte, 3536)
	for i := range frame {
		frame[i] = 9
	}

	chunks := IterChunks(frame, 1200, 0.15)
	if len(chunks) != 4 {
		t.Fatalf("got %d chunks, want 4 (3 data + 1 repair)", len(chunks))
	}

	for i, c := range chunks {
		if c.Index != uint32(i) {
			t.Fatalf("chunk %d: got index %d", i, c.Index)
		}
		if c.NumChunks != 4 {
			t.Fatalf("chunk %d: got num_chunks %d, want 4", i, c.NumChunks)
		}
		if len(c.Data) != 1200 {
			t.Fatalf("chunk %d: got len %d, want 1200", i, len(c.Data))
		}
		if c.FecMetadata == nil {
			t.Fatalf("chunk %d: expected FEC metadata", i)
		}
		if c.FecMetadata.Scheme != FecSchemeReedSolomon {
			t.Fatalf("chunk %d: got scheme %v, want ReedSolomon", i, c.FecMetadata.Scheme)
		}
		if len(c.FecMetadata.OTI) != 12 {
			t.Fatalf("chunk %d: got OTI length %d, want 12", i, len(c.FecMetadata.OTI))
		}
	}
}

func TestIterChunksPlainCopiesFromPooledBuffersIndependentOfSource(t *testing.T) {
	frame := make([]byte, 2400)
	for i := range frame {
		frame[i] = byte(i)
	}

	chunks := IterChunks(frame, 1200, 0.0)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}

	want0 := append([]byte(nil), frame[:1200]...)
	want1 := append([]byte(nil), frame[1200:]...)

	// Mutate the source buffer after chunking; a pooled copy must be
	// unaffected, unlike a slice aliasing frame directly.
	for i := range frame {
		frame[i] = 0
	}

	if !bytes.Equal(chunks[0].Data, want0) {
		t.Fatalf("chunk 0 data changed after mutating source frame")
	}
	if !bytes.Equal(chunks[1].Data, want1) {
		t.Fatalf("chunk 1 data changed after mutating source frame")
	}
}

func TestIterChunksEmptyBufferProducesNoChunks(t *testing.T) {
	chunks := IterChunks(nil, 1200, 0.0)
	if len(chunks) != 0 {
		t.Fatalf("got %d chunks, want 0", len(chunks))
	}
}
