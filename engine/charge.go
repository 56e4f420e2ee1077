package engine

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/sarchlab/cimhwt/analog"
	"github.com/sarchlab/cimhwt/fixedpoint"
	"github.com/sarchlab/cimhwt/walsh"
)

// ChargeSpec holds the immutable parameters of the bit-serial charge-sharing
// engine.
type ChargeSpec struct {
	N            int
	IntBits      int
	FracBits     int
	CapacitanceF float64
	TemperatureK float64
	WLAlpha      float64
	BLAlpha      float64
	LeakDecay    float64
}

// DefaultChargeSpec returns the charge engine defaults.
func DefaultChargeSpec() ChargeSpec {
	return ChargeSpec{
		N:            256,
		IntBits:      6,
		FracBits:     10,
		CapacitanceF: 1e-12,
		TemperatureK: 300.0,
	}
}

func (s ChargeSpec) validate() error {
	if err := walsh.CheckSize(s.N); err != nil {
		return err
	}
	if s.CapacitanceF <= 0 {
		return ParameterError{Param: "CapacitanceF", Reason: "must be > 0"}
	}
	if s.TemperatureK < 0 {
		return ParameterError{Param: "TemperatureK", Reason: "must be >= 0"}
	}
	if s.WLAlpha < 0 || s.WLAlpha > 1 {
		return ParameterError{Param: "WLAlpha", Reason: "must be in [0, 1]"}
	}
	if s.BLAlpha < 0 || s.BLAlpha > 1 {
		return ParameterError{Param: "BLAlpha", Reason: "must be in [0, 1]"}
	}
	if s.LeakDecay < 0 || s.LeakDecay > 1 {
		return ParameterError{Param: "LeakDecay", Reason: "must be in [0, 1]"}
	}
	return nil
}

// ChargeBuilder builds charge engines.
type ChargeBuilder struct {
	spec ChargeSpec
	src  analog.Source
}

// MakeChargeBuilder returns a builder with the default spec.
func MakeChargeBuilder() ChargeBuilder {
	return ChargeBuilder{spec: DefaultChargeSpec()}
}

// WithSpec sets the engine parameters.
func (b ChargeBuilder) WithSpec(spec ChargeSpec) ChargeBuilder {
	b.spec = spec
	return b
}

// WithSource sets the noise source.
func (b ChargeBuilder) WithSource(src analog.Source) ChargeBuilder {
	b.src = src
	return b
}

// Build validates the spec and creates the engine.
func (b ChargeBuilder) Build() (*ChargeEngine, error) {
	if err := b.spec.validate(); err != nil {
		return nil, err
	}
	codec, err := fixedpoint.NewCodec(b.spec.IntBits, b.spec.FracBits)
	if err != nil {
		return nil, ParameterError{Param: "IntBits/FracBits", Reason: err.Error()}
	}
	src := b.src
	if src == nil {
		src = rand.New(rand.NewSource(1))
	}
	return &ChargeEngine{spec: b.spec, codec: codec, src: src}, nil
}

// ChargeEngine encodes the input to fixed point, decomposes it into
// bitplanes, runs the ideal transform on every plane, and folds the weighted
// plane contributions into a charge-node accumulator one plane at a time.
// The readout after the last plane is the engine output.
type ChargeEngine struct {
	spec  ChargeSpec
	codec fixedpoint.Codec
	src   analog.Source
}

// Name returns "charge".
func (e *ChargeEngine) Name() string {
	return "charge"
}

// Spec returns the engine parameters.
func (e *ChargeEngine) Spec() ChargeSpec {
	return e.spec
}

// Apply transforms x through the bit-serial charge-sharing model.
func (e *ChargeEngine) Apply(x []float64) ([]float64, error) {
	if err := checkSignalLength(len(x), e.spec.N); err != nil {
		return nil, err
	}

	codes := e.codec.Encode(x)
	planes := e.codec.Bitplanes(codes)
	weights := e.codec.Weights()

	node := newChargeNode(e.spec, e.src)
	for b, plane := range planes {
		contrib, err := walsh.Transform(plane)
		if err != nil {
			return nil, err
		}
		floats.Scale(weights[b], contrib)
		node.step(contrib)
	}

	out := make([]float64, e.spec.N)
	copy(out, node.readout())
	return out, nil
}

// chargeNode is the per-position accumulator state of the charge-sharing
// array. One logical node exists per output position; the vector form
// updates all of them in the same order on every bitplane step: attenuate
// the stored charge by the WL/BL coefficients, add the new contribution, add
// kT/C thermal noise, then decay the total by (1-leak).
type chargeNode struct {
	acc   []float64
	scale []float64
	sigma float64
	leak  float64
	src   analog.Source
}

func newChargeNode(spec ChargeSpec, src analog.Source) *chargeNode {
	// BL attenuation ramps across positions; WL attenuation is a uniform
	// drop on the line driving every node.
	scale := analog.Ramp(spec.N, spec.BLAlpha)
	floats.Scale(1.0-spec.WLAlpha, scale)

	return &chargeNode{
		acc:   make([]float64, spec.N),
		scale: scale,
		sigma: analog.ThermalSigma(spec.CapacitanceF, spec.TemperatureK),
		leak:  spec.LeakDecay,
		src:   src,
	}
}

func (c *chargeNode) step(contrib []float64) {
	floats.Mul(c.acc, c.scale)
	floats.Add(c.acc, contrib)
	analog.AddGaussian(c.src, c.sigma, c.acc)
	analog.Decay(c.acc, c.leak)
}

func (c *chargeNode) readout() []float64 {
	return c.acc
}
