package walsh_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cimhwt/walsh"
)

var _ = Describe("Transform", func() {
	It("should reject sizes that are not a power of two", func() {
		for _, n := range []int{0, 1, 3, 6, 12, 100} {
			_, err := walsh.Transform(make([]float64, n))
			Expect(err).To(HaveOccurred())
			Expect(err).To(BeAssignableToTypeOf(walsh.InvalidSizeError{}))
		}
	})

	It("should compute the base-case butterfly", func() {
		y, err := walsh.Transform([]float64{3.5, -1.25})
		Expect(err).ToNot(HaveOccurred())
		Expect(y).To(Equal([]float64{2.25, 4.75}))
	})

	It("should transform the all-ones vector to an impulse", func() {
		y, err := walsh.Transform([]float64{1, 1, 1, 1})
		Expect(err).ToNot(HaveOccurred())
		Expect(y).To(Equal([]float64{4, 0, 0, 0}))
	})

	It("should not modify the input", func() {
		x := []float64{1, 2, 3, 4}
		_, err := walsh.Transform(x)
		Expect(err).ToNot(HaveOccurred())
		Expect(x).To(Equal([]float64{1, 2, 3, 4}))
	})

	It("should be its own inverse up to a factor of N", func() {
		rng := rand.New(rand.NewSource(0))
		for _, n := range []int{2, 4, 8, 16, 32, 64} {
			x := make([]float64, n)
			for i := range x {
				x[i] = rng.NormFloat64()
			}

			y, err := walsh.Transform(x)
			Expect(err).ToNot(HaveOccurred())
			z, err := walsh.Transform(y)
			Expect(err).ToNot(HaveOccurred())

			for i := range x {
				Expect(z[i]).To(BeNumerically("~", float64(n)*x[i], 1e-9))
			}
		}
	})
})

var _ = Describe("NumStages", func() {
	It("should count log2(n) butterfly stages", func() {
		Expect(walsh.NumStages(2)).To(Equal(1))
		Expect(walsh.NumStages(4)).To(Equal(2))
		Expect(walsh.NumStages(256)).To(Equal(8))
	})
})

var _ = Describe("TraversePairs", func() {
	It("should reject invalid sizes", func() {
		err := walsh.TraversePairs(make([]float64, 5),
			func(stage, block, lane int, a, b float64) (float64, float64) {
				return a + b, a - b
			})
		Expect(err).To(BeAssignableToTypeOf(walsh.InvalidSizeError{}))
	})

	It("should match Transform when pairs are ideal", func() {
		rng := rand.New(rand.NewSource(1))
		x := make([]float64, 16)
		for i := range x {
			x[i] = rng.NormFloat64()
		}

		want, err := walsh.Transform(x)
		Expect(err).ToNot(HaveOccurred())

		got := make([]float64, len(x))
		copy(got, x)
		err = walsh.TraversePairs(got,
			func(stage, block, lane int, a, b float64) (float64, float64) {
				return a + b, a - b
			})
		Expect(err).ToNot(HaveOccurred())
		Expect(got).To(Equal(want))
	})

	It("should visit pairs stage-major with in-stage lanes", func() {
		data := []float64{0, 1, 2, 3}
		type visit struct{ stage, block, lane int }
		var visits []visit

		err := walsh.TraversePairs(data,
			func(stage, block, lane int, a, b float64) (float64, float64) {
				visits = append(visits, visit{stage, block, lane})
				return a + b, a - b
			})
		Expect(err).ToNot(HaveOccurred())
		Expect(visits).To(Equal([]visit{
			{0, 0, 0},
			{0, 2, 0},
			{1, 0, 0},
			{1, 0, 1},
		}))
	})
})

var _ = Describe("TraverseBlocks", func() {
	It("should match Transform when the block hook does nothing", func() {
		rng := rand.New(rand.NewSource(2))
		x := make([]float64, 32)
		for i := range x {
			x[i] = rng.NormFloat64()
		}

		want, err := walsh.Transform(x)
		Expect(err).ToNot(HaveOccurred())

		got := make([]float64, len(x))
		copy(got, x)
		err = walsh.TraverseBlocks(got, func(stage, block int, half []float64) {})
		Expect(err).ToNot(HaveOccurred())
		Expect(got).To(Equal(want))
	})

	It("should hand each stage half-blocks of width 1<<stage", func() {
		data := make([]float64, 8)
		widths := map[int][]int{}

		err := walsh.TraverseBlocks(data, func(stage, block int, half []float64) {
			widths[stage] = append(widths[stage], len(half))
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(widths[0]).To(Equal([]int{1, 1, 1, 1, 1, 1, 1, 1}))
		Expect(widths[1]).To(Equal([]int{2, 2, 2, 2}))
		Expect(widths[2]).To(Equal([]int{4, 4}))
	})
})
