package engine

import (
	"math/rand"

	"github.com/sarchlab/cimhwt/analog"
	"github.com/sarchlab/cimhwt/walsh"
)

// XbarSpec holds the immutable parameters of the explicit crossbar engine.
// G0 is the unit conductance in Siemens, DACGain the row voltage per numeric
// unit, Rf the TIA feedback resistance in Ohms, and NoiseSigma the sense
// voltage noise in Volts. An ADCClip of zero selects per-sample auto
// ranging.
type XbarSpec struct {
	N          int
	G0         float64
	DACGain    float64
	Rf         float64
	ADCBits    int
	ADCClip    float64
	NoiseSigma float64
	WLAlpha    float64
	BLAlpha    float64
}

// DefaultXbarSpec returns the crossbar engine defaults.
func DefaultXbarSpec() XbarSpec {
	return XbarSpec{
		N:       256,
		G0:      10e-6,
		DACGain: 1.0,
		Rf:      100e3,
		ADCBits: 10,
	}
}

func (s XbarSpec) validate() error {
	if err := walsh.CheckSize(s.N); err != nil {
		return err
	}
	if s.G0 <= 0 {
		return ParameterError{Param: "G0", Reason: "must be > 0"}
	}
	if s.DACGain <= 0 {
		return ParameterError{Param: "DACGain", Reason: "must be > 0"}
	}
	if s.Rf <= 0 {
		return ParameterError{Param: "Rf", Reason: "must be > 0"}
	}
	if s.ADCBits <= 0 || s.ADCBits > 48 {
		return ParameterError{Param: "ADCBits", Reason: "must be in 1..48"}
	}
	if s.ADCClip < 0 {
		return ParameterError{Param: "ADCClip", Reason: "must be >= 0"}
	}
	if s.NoiseSigma < 0 {
		return ParameterError{Param: "NoiseSigma", Reason: "must be >= 0"}
	}
	if s.WLAlpha < 0 || s.WLAlpha > 1 {
		return ParameterError{Param: "WLAlpha", Reason: "must be in [0, 1]"}
	}
	if s.BLAlpha < 0 || s.BLAlpha > 1 {
		return ParameterError{Param: "BLAlpha", Reason: "must be in [0, 1]"}
	}
	return nil
}

// XbarBuilder builds crossbar engines.
type XbarBuilder struct {
	spec XbarSpec
	src  analog.Source
}

// MakeXbarBuilder returns a builder with the default spec.
func MakeXbarBuilder() XbarBuilder {
	return XbarBuilder{spec: DefaultXbarSpec()}
}

// WithSpec sets the engine parameters.
func (b XbarBuilder) WithSpec(spec XbarSpec) XbarBuilder {
	b.spec = spec
	return b
}

// WithSource sets the noise source.
func (b XbarBuilder) WithSource(src analog.Source) XbarBuilder {
	b.src = src
	return b
}

// Build validates the spec and creates the engine.
func (b XbarBuilder) Build() (*XbarEngine, error) {
	if err := b.spec.validate(); err != nil {
		return nil, err
	}
	src := b.src
	if src == nil {
		src = rand.New(rand.NewSource(1))
	}
	return &XbarEngine{spec: b.spec, src: src}, nil
}

// XbarEngine evaluates each butterfly pair as an explicit 2x2 crossbar: the
// two inputs become DAC row voltages, the sum and difference columns carry
// differential conductance currents, and each output goes through bitline
// attenuation, transimpedance sensing, sense noise, ADC quantization, and
// conversion back to the numeric domain. All pairs of a stage read that
// stage's pre-stage values.
type XbarEngine struct {
	spec XbarSpec
	src  analog.Source
}

// Name returns "xbar".
func (e *XbarEngine) Name() string {
	return "xbar"
}

// Spec returns the engine parameters.
func (e *XbarEngine) Spec() XbarSpec {
	return e.spec
}

// Apply transforms x through the crossbar signal path.
func (e *XbarEngine) Apply(x []float64) ([]float64, error) {
	if err := checkSignalLength(len(x), e.spec.N); err != nil {
		return nil, err
	}

	y := make([]float64, len(x))
	copy(y, x)

	s := e.spec
	q := analog.Quantizer{Bits: s.ADCBits, Clip: s.ADCClip}
	// Readback gain of the full path: DAC volts/unit, conductance, TIA.
	pathGain := s.Rf * s.G0 * s.DACGain

	err := walsh.TraversePairs(y, func(stage, block, lane int, a, b float64) (float64, float64) {
		v0 := s.DACGain * a
		v1 := s.DACGain * b * (1.0 - s.WLAlpha)

		iSum := s.G0 * (v0 + v1)
		iDiff := s.G0 * (v0 - v1)

		if half := 1 << stage; half > 1 {
			blScale := 1.0 - s.BLAlpha*float64(lane)/float64(half-1)
			iSum *= blScale
			iDiff *= blScale
		}

		vSum := iSum * s.Rf
		vDiff := iDiff * s.Rf
		if s.NoiseSigma > 0 {
			vSum += e.src.NormFloat64() * s.NoiseSigma
			vDiff += e.src.NormFloat64() * s.NoiseSigma
		}

		return q.ApplyValue(vSum) / pathGain, q.ApplyValue(vDiff) / pathGain
	})
	if err != nil {
		return nil, err
	}

	return y, nil
}
