// Package pixelscale implements the fractional UI scale ratio used by
// DisplayParams.ui_scale.
package pixelscale

import (
	"fmt"
	"math/big"
)

// One is the identity ratio (1/1).
var One = Ratio{Numerator: 1, Denominator: 1}

// Ratio is a fractional scale factor, e.g. 3/2 for 150%.
type Ratio struct {
	Numerator   uint32
	Denominator uint32
}

// New constructs a Ratio from a numerator and denominator without reducing.
func New(numerator, denominator uint32) Ratio {
	return Ratio{Numerator: numerator, Denominator: denominator}
}

// IsFractional reports whether the ratio does not represent a whole number,
// i.e. numerator is not an exact multiple of denominator.
func (r Ratio) IsFractional() bool {
	return r.Numerator%r.Denominator != 0
}

// Reduce returns the ratio in lowest terms. Reducing is idempotent:
// Reduce(Reduce(r)) == Reduce(r).
func (r Ratio) Reduce() Ratio {
	if r.Numerator == 0 || r.Denominator == 0 {
		return r
	}
	g := new(big.Int).GCD(nil, nil, big.NewInt(int64(r.Numerator)), big.NewInt(int64(r.Denominator)))
	d := g.Uint64()
	if d <= 1 {
		return r
	}
	return Ratio{Numerator: r.Numerator / uint32(d), Denominator: r.Denominator / uint32(d)}
}

// Ceil scales v by this ratio and rounds up.
func (r Ratio) Ceil(v uint32) uint32 {
	if r.Denominator == 0 {
		return v
	}
	num := uint64(v) * uint64(r.Numerator)
	den := uint64(r.Denominator)
	return uint32((num + den - 1) / den)
}

// String formats the ratio to one decimal place, matching the wire protocol's
// display convention.
func (r Ratio) String() string {
	if r.Denominator == 0 {
		return "?"
	}
	return fmt.Sprintf("%.1f", float64(r.Numerator)/float64(r.Denominator))
}

// FromWire converts a raw (numerator, denominator) pair received over the
// wire into a Ratio. A zero numerator with any denominator (including zero)
// defaults to One; a zero denominator with a nonzero numerator also
// defaults to One; only both fields zero is a required-field validation
// error.
func FromWire(numerator, denominator uint32) (Ratio, error) {
	switch {
	case numerator == 0 && denominator == 0:
		return Ratio{}, fmt.Errorf("pixelscale: denominator is required")
	case numerator == 0 || denominator == 0:
		return One, nil
	default:
		return Ratio{Numerator: numerator, Denominator: denominator}, nil
	}
}
