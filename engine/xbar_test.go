package engine

import (
	"math/rand"

	"github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cimhwt/walsh"
)

var _ = Describe("XbarEngine", func() {
	cleanSpec := func(n int) XbarSpec {
		return XbarSpec{
			N:       n,
			G0:      10e-6,
			DACGain: 1.0,
			Rf:      100e3,
			ADCBits: 24,
		}
	}

	It("should reject invalid sizes before computing", func() {
		_, err := MakeXbarBuilder().WithSpec(cleanSpec(7)).Build()
		Expect(err).To(BeAssignableToTypeOf(walsh.InvalidSizeError{}))
	})

	It("should reject out-of-domain parameters eagerly", func() {
		spec := cleanSpec(8)
		spec.G0 = 0
		_, err := MakeXbarBuilder().WithSpec(spec).Build()
		Expect(err).To(BeAssignableToTypeOf(ParameterError{}))

		spec = cleanSpec(8)
		spec.Rf = -1
		_, err = MakeXbarBuilder().WithSpec(spec).Build()
		Expect(err).To(BeAssignableToTypeOf(ParameterError{}))

		spec = cleanSpec(8)
		spec.WLAlpha = 2
		_, err = MakeXbarBuilder().WithSpec(spec).Build()
		Expect(err).To(BeAssignableToTypeOf(ParameterError{}))
	})

	It("should reduce to the ideal transform in the clean wide-ADC limit", func() {
		e, err := MakeXbarBuilder().WithSpec(cleanSpec(8)).Build()
		Expect(err).ToNot(HaveOccurred())

		x := []float64{0.3, -1.2, 0.9, 2.1, -0.4, 0.0, 1.5, -2.2}
		want, err := walsh.Transform(x)
		Expect(err).ToNot(HaveOccurred())

		got, err := e.Apply(x)
		Expect(err).ToNot(HaveOccurred())
		for i := range want {
			Expect(got[i]).To(BeNumerically("~", want[i], 1e-4))
		}
	})

	It("should reproduce the base-case butterfly", func() {
		e, err := MakeXbarBuilder().WithSpec(cleanSpec(2)).Build()
		Expect(err).ToNot(HaveOccurred())

		got, err := e.Apply([]float64{3, 1})
		Expect(err).ToNot(HaveOccurred())
		Expect(got[0]).To(BeNumerically("~", 4.0, 1e-4))
		Expect(got[1]).To(BeNumerically("~", 2.0, 1e-4))
	})

	It("should attenuate the second row through the wordline", func() {
		spec := cleanSpec(2)
		spec.WLAlpha = 0.5
		e, err := MakeXbarBuilder().WithSpec(spec).Build()
		Expect(err).ToNot(HaveOccurred())

		// With row 1 halved, [2, 2] behaves like [2, 1].
		got, err := e.Apply([]float64{2, 2})
		Expect(err).ToNot(HaveOccurred())
		Expect(got[0]).To(BeNumerically("~", 3.0, 1e-4))
		Expect(got[1]).To(BeNumerically("~", 1.0, 1e-4))
	})

	It("should not increase error when the sense ADC widens", func() {
		x := []float64{0.3, -1.2, 0.9, 2.1, -0.4, 0.0, 1.5, -2.2}
		want, err := walsh.Transform(x)
		Expect(err).ToNot(HaveOccurred())

		sqErrAtBits := func(bits int) float64 {
			spec := cleanSpec(8)
			spec.ADCBits = bits
			// A fixed full scale keeps the quantization step tied to the
			// bit width; auto ranging would hide it.
			spec.ADCClip = 16.0
			e, err := MakeXbarBuilder().WithSpec(spec).Build()
			Expect(err).ToNot(HaveOccurred())
			got, err := e.Apply(x)
			Expect(err).ToNot(HaveOccurred())

			var sum float64
			for i := range want {
				d := want[i] - got[i]
				sum += d * d
			}
			return sum
		}

		Expect(sqErrAtBits(12)).To(BeNumerically("<=", sqErrAtBits(8)))
		Expect(sqErrAtBits(8)).To(BeNumerically("<=", sqErrAtBits(4)))
	})

	It("should degrade as line attenuation grows", func() {
		x := []float64{0.3, -1.2, 0.9, 2.1, -0.4, 0.0, 1.5, -2.2}
		want, err := walsh.Transform(x)
		Expect(err).ToNot(HaveOccurred())

		sqErr := func(alpha float64) float64 {
			spec := cleanSpec(8)
			spec.WLAlpha = alpha
			spec.BLAlpha = alpha
			e, err := MakeXbarBuilder().WithSpec(spec).Build()
			Expect(err).ToNot(HaveOccurred())
			got, err := e.Apply(x)
			Expect(err).ToNot(HaveOccurred())

			var sum float64
			for i := range want {
				d := want[i] - got[i]
				sum += d * d
			}
			return sum
		}

		Expect(sqErr(0)).To(BeNumerically("<", sqErr(0.1)))
		Expect(sqErr(0.1)).To(BeNumerically("<", sqErr(0.3)))
	})

	It("should be bit-for-bit deterministic for a seed", func() {
		spec := cleanSpec(16)
		spec.NoiseSigma = 0.05
		spec.ADCBits = 10

		x := make([]float64, 16)
		rng := rand.New(rand.NewSource(11))
		for i := range x {
			x[i] = rng.NormFloat64()
		}

		run := func() []float64 {
			e, err := MakeXbarBuilder().
				WithSpec(spec).
				WithSource(rand.New(rand.NewSource(42))).
				Build()
			Expect(err).ToNot(HaveOccurred())
			y, err := e.Apply(x)
			Expect(err).ToNot(HaveOccurred())
			return y
		}

		Expect(run()).To(Equal(run()))
	})

	Context("with a mocked noise source", func() {
		var mockCtrl *gomock.Controller

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should draw twice per butterfly pair", func() {
			src := NewMockSource(mockCtrl)
			// N=4 has 4 pairs across 2 stages; sum and diff sense paths
			// each draw once: 8 draws.
			src.EXPECT().NormFloat64().Times(8).Return(0.0)

			spec := cleanSpec(4)
			spec.NoiseSigma = 0.01
			e, err := MakeXbarBuilder().WithSpec(spec).WithSource(src).Build()
			Expect(err).ToNot(HaveOccurred())

			got, err := e.Apply([]float64{1, 1, 1, 1})
			Expect(err).ToNot(HaveOccurred())
			Expect(got[0]).To(BeNumerically("~", 4.0, 1e-4))
		})

		It("should draw nothing when the sense path is noiseless", func() {
			src := NewMockSource(mockCtrl)

			e, err := MakeXbarBuilder().WithSpec(cleanSpec(4)).WithSource(src).Build()
			Expect(err).ToNot(HaveOccurred())
			_, err = e.Apply([]float64{1, 2, 3, 4})
			Expect(err).ToNot(HaveOccurred())
		})
	})
})
