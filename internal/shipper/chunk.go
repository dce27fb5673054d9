// Package shipper splits encoded frames into MTU-sized datagram chunks,
// optionally protects them with forward error correction, and ships them
// out over a UDP socket with TX-time pacing.
package shipper

import (
	"math"

	"github.com/magicmirror/mm-server/internal/bufpool"
	"github.com/magicmirror/mm-server/internal/shipper/fec"
)

// FecScheme identifies which forward-error-correction scheme produced a
// chunk's parity data, if any.
type FecScheme int

const (
	FecSchemeNone FecScheme = iota
	FecSchemeReedSolomon
)

// FecMetadata rides alongside a FEC-protected chunk so the receiver can
// reconstruct the original payload from any sufficiently large subset of
// chunks.
type FecMetadata struct {
	Scheme    FecScheme
	PayloadID uint32 // which erasure-coded symbol this chunk carries
	OTI       []byte // 12-byte object transmission information: symbol size, k, m
}

// Chunk is one datagram-sized slice of a frame, ready to hand to the
// socket layer.
type Chunk struct {
	Index       uint32
	NumChunks   uint32
	Data        []byte
	FecMetadata *FecMetadata
}

// IterChunks splits buf into chunks of at most mtu bytes each. With
// fecRatio <= 0 it returns plain sequential slices; with fecRatio > 0 it
// erasure-codes buf into systematic (original-preserving) data symbols
// plus ceil(numDataChunks * fecRatio) repair symbols, each mtu bytes,
// carrying FecMetadata a receiver needs to recover missing data symbols.
//
// fecRatio == 0.15 on a 3536-byte frame with a 1200-byte MTU produces 4
// chunks (3 data + 1 repair); fecRatio == 0.0 produces the same frame's 3
// plain chunks split at 1200/1200/1136 bytes.
func IterChunks(buf []byte, mtu int, fecRatio float32) []Chunk {
	if fecRatio > 0 {
		return iterChunksFEC(buf, mtu, fecRatio)
	}
	return iterChunksPlain(buf, mtu)
}

// iterChunksPlain copies each slice out of buf into a pooled buffer rather
// than handing back a view into buf directly: buf is the video pipeline's
// readback buffer and may be reused for the next frame before the shipper
// has finished pacing this one's chunks onto the wire.
func iterChunksPlain(buf []byte, mtu int) []Chunk {
	numChunks := divCeil(len(buf), mtu)
	chunks := make([]Chunk, 0, numChunks)

	for i := 0; len(buf) > 0; i++ {
		n := mtu
		if len(buf) < n {
			n = len(buf)
		}
		data := bufpool.Get(n)
		copy(data, buf[:n])
		chunks = append(chunks, Chunk{
			Index:     uint32(i),
			NumChunks: uint32(numChunks),
			Data:      data,
		})
		buf = buf[n:]
	}
	return chunks
}

func iterChunksFEC(buf []byte, mtu int, ratio float32) []Chunk {
	numDataChunks := divCeil(len(buf), mtu)
	repairChunks := int(math.Ceil(float64(numDataChunks) * float64(ratio)))

	encoded, oti, err := fec.Encode(buf, mtu, numDataChunks, repairChunks)
	if err != nil {
		// Encode only fails on a malformed request (mtu <= 0, too many
		// shards for the field width); both are programmer errors, not a
		// condition a caller should be asked to branch on mid-frame.
		panic(err)
	}

	numChunks := len(encoded)
	chunks := make([]Chunk, numChunks)
	for i, symbol := range encoded {
		chunks[i] = Chunk{
			Index:     uint32(i),
			NumChunks: uint32(numChunks),
			Data:      symbol,
			FecMetadata: &FecMetadata{
				Scheme:    FecSchemeReedSolomon,
				PayloadID: uint32(i),
				OTI:       oti,
			},
		}
	}
	return chunks
}

func divCeil(a, b int) int {
	return (a + b - 1) / b
}
