// Package fixedpoint converts real-valued signals to and from signed
// two's-complement fixed-point codes and decomposes the codes into bitplanes
// for bit-serial compute.
package fixedpoint

import (
	"fmt"
	"math"
)

// maxTotalBits keeps codes exactly representable in an int64 and the bit
// weights exactly representable in a float64.
const maxTotalBits = 52

// Codec encodes signals as IntBits+FracBits wide two's-complement integers
// with scale 2^-FracBits. Values outside the representable range saturate to
// the range boundary, which models DAC/ADC clipping rather than failing.
type Codec struct {
	IntBits  int
	FracBits int
}

// NewCodec validates the bit widths and returns a codec.
func NewCodec(intBits, fracBits int) (Codec, error) {
	c := Codec{IntBits: intBits, FracBits: fracBits}
	if intBits < 1 {
		return Codec{}, fmt.Errorf("fixedpoint: int bits must be >= 1, got %d", intBits)
	}
	if fracBits < 0 {
		return Codec{}, fmt.Errorf("fixedpoint: frac bits must be >= 0, got %d", fracBits)
	}
	if c.TotalBits() > maxTotalBits {
		return Codec{}, fmt.Errorf(
			"fixedpoint: total bits must be <= %d, got %d", maxTotalBits, c.TotalBits())
	}
	return c, nil
}

// TotalBits returns the code width, IntBits+FracBits.
func (c Codec) TotalBits() int {
	return c.IntBits + c.FracBits
}

// LSB returns the real value of one code step, 2^-FracBits.
func (c Codec) LSB() float64 {
	return math.Exp2(-float64(c.FracBits))
}

// MinReal returns the smallest representable value, -2^(IntBits-1).
func (c Codec) MinReal() float64 {
	return -math.Exp2(float64(c.IntBits - 1))
}

// MaxReal returns the largest representable value,
// 2^(IntBits-1) - 2^-FracBits.
func (c Codec) MaxReal() float64 {
	return math.Exp2(float64(c.IntBits-1)) - c.LSB()
}

func (c Codec) minCode() int64 {
	return -(int64(1) << (c.TotalBits() - 1))
}

func (c Codec) maxCode() int64 {
	return (int64(1) << (c.TotalBits() - 1)) - 1
}

// Encode quantizes x to fixed-point codes, rounding to the nearest LSB and
// saturating out-of-range values.
func (c Codec) Encode(x []float64) []int64 {
	codes := make([]int64, len(x))
	lsb := c.LSB()
	// Saturation happens on the rounded float code. Converting an
	// out-of-range float64 to int64 is implementation-defined, so the
	// comparison must not go through int64 first. Codes fit in 52 bits,
	// so the float comparison is exact.
	minCode := float64(c.minCode())
	maxCode := float64(c.maxCode())
	for i, v := range x {
		code := math.Round(v / lsb)
		if code < minCode {
			code = minCode
		}
		if code > maxCode {
			code = maxCode
		}
		codes[i] = int64(code)
	}
	return codes
}

// Decode maps codes back to real values.
func (c Codec) Decode(codes []int64) []float64 {
	x := make([]float64, len(codes))
	lsb := c.LSB()
	for i, code := range codes {
		x[i] = float64(code) * lsb
	}
	return x
}

// Bitplanes decomposes codes into TotalBits planes ordered LSB to MSB. Each
// plane holds 0/1 values of the same length as codes. The planes are the
// two's-complement bits, so the MSB plane carries negative weight when
// reconstructing.
func (c Codec) Bitplanes(codes []int64) [][]float64 {
	total := c.TotalBits()
	mask := (uint64(1) << total) - 1

	planes := make([][]float64, total)
	for b := 0; b < total; b++ {
		planes[b] = make([]float64, len(codes))
	}
	for i, code := range codes {
		u := uint64(code) & mask
		for b := 0; b < total; b++ {
			planes[b][i] = float64((u >> b) & 1)
		}
	}
	return planes
}

// Weights returns the signed real-valued significance of each bitplane:
// 2^b * LSB for bits below the sign bit and -2^(TotalBits-1) * LSB for the
// sign bit. Summing plane values times weights reconstructs Decode's output.
func (c Codec) Weights() []float64 {
	total := c.TotalBits()
	lsb := c.LSB()
	w := make([]float64, total)
	for b := 0; b < total; b++ {
		w[b] = math.Exp2(float64(b)) * lsb
	}
	w[total-1] = -w[total-1]
	return w
}
