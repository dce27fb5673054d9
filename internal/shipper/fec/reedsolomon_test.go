package fec

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte{9}, 3536)
	symbols, oti, err := Encode(data, 1200, 3, 1)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(symbols) != 4 {
		t.Fatalf("got %d symbols, want 4", len(symbols))
	}
	if len(oti) != otiSize {
		t.Fatalf("got OTI length %d, want %d", len(oti), otiSize)
	}

	// Drop the first data symbol; the parity symbol should cover for it.
	lossy := make([][]byte, len(symbols))
	copy(lossy, symbols)
	lossy[0] = nil

	got, err := Decode(lossy, oti)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("decoded data does not match original")
	}
}

func TestParseOTIRoundTrip(t *testing.T) {
	o := OTI{SymbolSize: 1200, DataShards: 3, ParityShards: 1, Length: 3536}
	got, err := ParseOTI(o.Serialize())
	if err != nil {
		t.Fatalf("ParseOTI: %v", err)
	}
	if got != o {
		t.Fatalf("got %+v want %+v", got, o)
	}
}

func TestParseOTIRejectsWrongLength(t *testing.T) {
	if _, err := ParseOTI([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected error for malformed OTI")
	}
}
