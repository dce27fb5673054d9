// Package fec erasure-codes a buffer into a fixed number of data and
// parity symbols using github.com/klauspost/reedsolomon. This stands in
// for the RaptorQ fountain code the reference implementation uses: a
// systematic Reed-Solomon code can't absorb an arbitrary number of extra
// repair symbols the way a fountain code can, but for a fixed chunk-loss
// budget known ahead of time (the configured FEC ratio) it gives the
// receiver the same "any k of n symbols reconstructs the frame" property.
package fec

import (
	"encoding/binary"
	"fmt"

	"github.com/klauspost/reedsolomon"
)

// otiSize is the width of the object transmission information header
// attached to every FEC-protected chunk, matching the original protocol's
// 12-byte serialized RaptorQ config.
const otiSize = 12

// OTI (Object Transmission Information) tells a receiver everything it
// needs to reconstruct a frame from its encoded symbols: the padded
// symbol size, how many symbols carry original data versus parity, and
// the frame's true length before zero-padding.
type OTI struct {
	SymbolSize   uint16
	DataShards   uint16
	ParityShards uint16
	Length       uint32
}

// Serialize packs an OTI into its wire form.
func (o OTI) Serialize() []byte {
	b := make([]byte, otiSize)
	binary.BigEndian.PutUint16(b[0:2], o.SymbolSize)
	binary.BigEndian.PutUint16(b[2:4], o.DataShards)
	binary.BigEndian.PutUint16(b[4:6], o.ParityShards)
	binary.BigEndian.PutUint32(b[6:10], o.Length)
	// b[10:12] reserved, left zero.
	return b
}

// ParseOTI unpacks a wire-form OTI, as received alongside a chunk.
func ParseOTI(b []byte) (OTI, error) {
	if len(b) != otiSize {
		return OTI{}, fmt.Errorf("fec: OTI must be %d bytes, got %d", otiSize, len(b))
	}
	return OTI{
		SymbolSize:   binary.BigEndian.Uint16(b[0:2]),
		DataShards:   binary.BigEndian.Uint16(b[2:4]),
		ParityShards: binary.BigEndian.Uint16(b[4:6]),
		Length:       binary.BigEndian.Uint32(b[6:10]),
	}, nil
}

// Encode splits buf into numData symbols of mtu bytes (zero-padding the
// final one) and appends numParity parity symbols computed over them. It
// returns every symbol, data first then parity, plus the serialized OTI a
// receiver needs to invert the operation.
func Encode(buf []byte, mtu, numData, numParity int) (symbols [][]byte, oti []byte, err error) {
	if numParity == 0 {
		numParity = 1 // reedsolomon requires at least one parity shard
	}

	enc, err := reedsolomon.New(numData, numParity)
	if err != nil {
		return nil, nil, fmt.Errorf("fec: new encoder: %w", err)
	}

	shards := make([][]byte, numData+numParity)
	for i := 0; i < numData+numParity; i++ {
		shards[i] = make([]byte, mtu)
	}
	for i := 0; i < numData; i++ {
		start := i * mtu
		if start >= len(buf) {
			break
		}
		end := start + mtu
		if end > len(buf) {
			end = len(buf)
		}
		copy(shards[i], buf[start:end])
	}

	if err := enc.Encode(shards); err != nil {
		return nil, nil, fmt.Errorf("fec: encode: %w", err)
	}

	o := OTI{
		SymbolSize:   uint16(mtu),
		DataShards:   uint16(numData),
		ParityShards: uint16(numParity),
		Length:       uint32(len(buf)),
	}
	return shards, o.Serialize(), nil
}

// Decode reconstructs the original buffer from a set of symbols, some of
// which may be nil (lost in transit). It returns an error if too many
// symbols are missing to reconstruct.
func Decode(symbols [][]byte, oti []byte) ([]byte, error) {
	o, err := ParseOTI(oti)
	if err != nil {
		return nil, err
	}

	enc, err := reedsolomon.New(int(o.DataShards), int(o.ParityShards))
	if err != nil {
		return nil, fmt.Errorf("fec: new decoder: %w", err)
	}

	if err := enc.Reconstruct(symbols); err != nil {
		return nil, fmt.Errorf("fec: reconstruct: %w", err)
	}

	out := make([]byte, 0, int(o.DataShards)*int(o.SymbolSize))
	for i := 0; i < int(o.DataShards); i++ {
		out = append(out, symbols[i]...)
	}
	if uint32(len(out)) > o.Length {
		out = out[:o.Length]
	}
	return out, nil
}
