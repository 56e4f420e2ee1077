package engine

import (
	"math/rand"

	"github.com/sarchlab/cimhwt/analog"
	"github.com/sarchlab/cimhwt/walsh"
)

// ADCSpec holds the immutable parameters of the behavioral ADC front-end
// engine. An ADCClip of zero selects per-stage auto ranging, where the ADC
// full scale adapts to the largest magnitude of each half-block.
type ADCSpec struct {
	N           int
	Gain        float64
	Offset      float64
	NoiseSigma  float64
	IRDropAlpha float64
	ADCBits     int
	ADCClip     float64
}

// DefaultADCSpec returns the ADC engine defaults.
func DefaultADCSpec() ADCSpec {
	return ADCSpec{
		N:       256,
		Gain:    1.0,
		ADCBits: 8,
	}
}

func (s ADCSpec) validate() error {
	if err := walsh.CheckSize(s.N); err != nil {
		return err
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
	if s.IRDropAlpha < 0 || s.IRDropAlpha > 1 {
		return ParameterError{Param: "IRDropAlpha", Reason: "must be in [0, 1]"}
	}
	return nil
}

// ADCBuilder builds ADC engines.
type ADCBuilder struct {
	spec ADCSpec
	src  analog.Source
}

// MakeADCBuilder returns a builder with the default spec.
func MakeADCBuilder() ADCBuilder {
	return ADCBuilder{spec: DefaultADCSpec()}
}

// WithSpec sets the engine parameters.
func (b ADCBuilder) WithSpec(spec ADCSpec) ADCBuilder {
	b.spec = spec
	return b
}

// WithSource sets the noise source.
func (b ADCBuilder) WithSource(src analog.Source) ADCBuilder {
	b.src = src
	return b
}

// Build validates the spec and creates the engine.
func (b ADCBuilder) Build() (*ADCEngine, error) {
	if err := b.spec.validate(); err != nil {
		return nil, err
	}
	src := b.src
	if src == nil {
		src = rand.New(rand.NewSource(1))
	}
	return &ADCEngine{spec: b.spec, src: src}, nil
}

// ADCEngine runs the butterfly network whole stage by whole stage. After
// each stage's ideal sums and differences it applies, in order, per-block
// IR-drop attenuation, a global affine distortion, additive Gaussian noise,
// and ADC quantization. Noise draws are consumed stage-major then
// position-major, so a seeded source reproduces outputs exactly.
type ADCEngine struct {
	spec ADCSpec
	src  analog.Source
}

// Name returns "adc".
func (e *ADCEngine) Name() string {
	return "adc"
}

// Spec returns the engine parameters.
func (e *ADCEngine) Spec() ADCSpec {
	return e.spec
}

// Apply transforms x through the ADC front-end model.
func (e *ADCEngine) Apply(x []float64) ([]float64, error) {
	if err := checkSignalLength(len(x), e.spec.N); err != nil {
		return nil, err
	}

	y := make([]float64, len(x))
	copy(y, x)

	q := analog.Quantizer{Bits: e.spec.ADCBits, Clip: e.spec.ADCClip}
	err := walsh.TraverseBlocks(y, func(stage, block int, half []float64) {
		analog.AttenuateRamp(half, e.spec.IRDropAlpha)
		for i := range half {
			half[i] = e.spec.Gain*half[i] + e.spec.Offset
		}
		analog.AddGaussian(e.src, e.spec.NoiseSigma, half)
		q.Apply(half)
	})
	if err != nil {
		return nil, err
	}

	return y, nil
}
