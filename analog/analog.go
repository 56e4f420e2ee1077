// Package analog provides the noise and distortion primitives shared by the
// CIM engines: additive Gaussian noise, uniform ADC quantization, linear
// line attenuation, leakage decay, and kT/C thermal noise.
package analog

import "math"

// Boltzmann is the Boltzmann constant in J/K.
const Boltzmann = 1.380649e-23

// autoRangeGuard keeps the auto-ranged quantizer full scale strictly positive
// for all-zero inputs.
const autoRangeGuard = 1e-12

// Source supplies unit-variance Gaussian draws. *math/rand.Rand satisfies
// it. Engines take a Source explicitly so that seeded runs consume draws in
// a reproducible order.
type Source interface {
	NormFloat64() float64
}

// AddGaussian adds zero-mean Gaussian noise with the given standard
// deviation to v in place. A sigma of zero consumes no draws.
func AddGaussian(src Source, sigma float64, v []float64) {
	if sigma <= 0 {
		return
	}
	for i := range v {
		v[i] += src.NormFloat64() * sigma
	}
}

// Ramp returns n scale factors falling linearly from 1 at index 0 to
// 1-alpha at index n-1. A single-element ramp is just {1}.
func Ramp(n int, alpha float64) []float64 {
	s := make([]float64, n)
	den := n - 1
	if den < 1 {
		den = 1
	}
	for i := range s {
		s[i] = 1.0 - alpha*float64(i)/float64(den)
	}
	return s
}

// AttenuateRamp scales v in place by a linear ramp from 1 down to 1-alpha
// across its indices, modeling IR drop along a line.
func AttenuateRamp(v []float64, alpha float64) {
	if alpha == 0 {
		return
	}
	den := len(v) - 1
	if den < 1 {
		den = 1
	}
	for i := range v {
		v[i] *= 1.0 - alpha*float64(i)/float64(den)
	}
}

// Decay scales v in place by (1-leak), modeling one step of exponential
// charge leakage.
func Decay(v []float64, leak float64) {
	if leak == 0 {
		return
	}
	f := 1.0 - leak
	for i := range v {
		v[i] *= f
	}
}

// ThermalSigma returns the kT/C voltage noise standard deviation
// sqrt(kB*T/C) for a capacitance in Farads and a temperature in Kelvin.
func ThermalSigma(capacitanceF, temperatureK float64) float64 {
	c := capacitanceF
	if c < 1e-30 {
		c = 1e-30
	}
	return math.Sqrt(Boltzmann * temperatureK / c)
}

// Quantizer models a uniform ADC with 2^Bits levels spanning [-fullScale,
// fullScale]. When Clip is positive the full scale is fixed; otherwise each
// call adapts it to the largest magnitude seen. Values are clipped, rounded
// to the nearest code, and mapped back to the numeric domain, so the step is
// 2*fullScale/(2^Bits - 1).
type Quantizer struct {
	Bits int
	Clip float64
}

// Apply quantizes v in place.
func (q Quantizer) Apply(v []float64) {
	vmax := q.fullScale(v)
	step := q.step(vmax)
	for i := range v {
		v[i] = requantize(v[i], vmax, step)
	}
}

// ApplyValue quantizes a single value. With auto ranging the full scale
// adapts to the value itself, matching Apply on a one-element slice.
func (q Quantizer) ApplyValue(x float64) float64 {
	vmax := q.Clip
	if vmax <= 0 {
		vmax = math.Abs(x) + autoRangeGuard
	}
	return requantize(x, vmax, q.step(vmax))
}

// Step returns the quantization step for the given signal, mainly for
// round-trip error bounds in tests.
func (q Quantizer) Step(v []float64) float64 {
	return q.step(q.fullScale(v))
}

func (q Quantizer) fullScale(v []float64) float64 {
	if q.Clip > 0 {
		return q.Clip
	}
	vmax := 0.0
	for _, x := range v {
		if a := math.Abs(x); a > vmax {
			vmax = a
		}
	}
	return vmax + autoRangeGuard
}

func (q Quantizer) step(vmax float64) float64 {
	levels := math.Exp2(float64(q.Bits))
	return 2 * vmax / (levels - 1)
}

func requantize(x, vmax, step float64) float64 {
	if x > vmax {
		x = vmax
	}
	if x < -vmax {
		x = -vmax
	}
	return math.Round((x+vmax)/step)*step - vmax
}
