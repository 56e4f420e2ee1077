package walsh

import "gonum.org/v1/gonum/mat"

// Matrix returns the Sylvester-type Hadamard matrix of order n with +1/-1
// entries. n must be a power of two and at least 2. Multiplying a signal by
// this matrix is equivalent to Transform, which the tests exploit as a
// cross-check of the butterfly network.
func Matrix(n int) (*mat.Dense, error) {
	if err := CheckSize(n); err != nil {
		return nil, err
	}

	h := mat.NewDense(1, 1, []float64{1})
	for m := 1; m < n; m *= 2 {
		next := mat.NewDense(2*m, 2*m, nil)
		for r := 0; r < m; r++ {
			for c := 0; c < m; c++ {
				v := h.At(r, c)
				next.Set(r, c, v)
				next.Set(r, c+m, v)
				next.Set(r+m, c, v)
				next.Set(r+m, c+m, -v)
			}
		}
		h = next
	}

	return h, nil
}
