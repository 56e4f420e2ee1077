// Package walsh implements the ideal fast Walsh-Hadamard transform and the
// butterfly-network traversal that the CIM engines share.
//
// The transform is unnormalized: applying it twice to a length-N signal
// yields N times the original signal. Stage 0 operates on blocks of two
// elements; each later stage doubles the block size. Within a block of width
// 2h, index i pairs with i+h and the pair (a, b) is replaced by (a+b, a-b).
package walsh

import "fmt"

// InvalidSizeError reports a signal length that cannot be transformed.
type InvalidSizeError struct {
	N int
}

func (e InvalidSizeError) Error() string {
	return fmt.Sprintf("signal length %d is not a power of two >= 2", e.N)
}

// CheckSize returns an InvalidSizeError unless n is a power of two and at
// least 2.
func CheckSize(n int) error {
	if n < 2 || n&(n-1) != 0 {
		return InvalidSizeError{N: n}
	}
	return nil
}

// NumStages returns log2(n), the number of butterfly stages for a length-n
// transform. It assumes n already passed CheckSize.
func NumStages(n int) int {
	stages := 0
	for h := 1; h < n; h *= 2 {
		stages++
	}
	return stages
}

// Transform returns the unnormalized Hadamard transform of x. The input is
// not modified.
func Transform(x []float64) ([]float64, error) {
	if err := CheckSize(len(x)); err != nil {
		return nil, err
	}

	y := make([]float64, len(x))
	copy(y, x)

	n := len(y)
	for h := 1; h < n; h *= 2 {
		for i := 0; i < n; i += 2 * h {
			for j := i; j < i+h; j++ {
				a, b := y[j], y[j+h]
				y[j], y[j+h] = a+b, a-b
			}
		}
	}

	return y, nil
}

// PairFunc maps one butterfly pair to its two outputs. The stage's half-width
// is 1<<stage; block is the index of the first element of the enclosing
// block, and lane is the pair's offset within the block, in [0, 1<<stage).
type PairFunc func(stage, block, lane int, a, b float64) (sum, diff float64)

// TraversePairs runs the butterfly network over data in place, one pair at a
// time. All pairs within a stage read from a snapshot taken before the stage
// starts, so pair outputs never feed other pairs of the same stage.
func TraversePairs(data []float64, visit PairFunc) error {
	if err := CheckSize(len(data)); err != nil {
		return err
	}

	n := len(data)
	snap := make([]float64, n)
	stage := 0
	for h := 1; h < n; h *= 2 {
		copy(snap, data)
		for i := 0; i < n; i += 2 * h {
			for j := 0; j < h; j++ {
				s, d := visit(stage, i, j, snap[i+j], snap[i+j+h])
				data[i+j], data[i+j+h] = s, d
			}
		}
		stage++
	}

	return nil
}

// BlockFunc post-processes one half-block of butterfly outputs in place.
// block is the index of the first element of the enclosing block; half holds
// either the sums or the differences of that block.
type BlockFunc func(stage, block int, half []float64)

// TraverseBlocks runs the butterfly network over data in place, whole stage
// by whole stage. After each block's ideal sums and differences are written,
// fn is invoked on the sum half and then on the difference half, letting the
// caller corrupt the block before the next stage consumes it.
func TraverseBlocks(data []float64, fn BlockFunc) error {
	if err := CheckSize(len(data)); err != nil {
		return err
	}

	n := len(data)
	stage := 0
	for h := 1; h < n; h *= 2 {
		for i := 0; i < n; i += 2 * h {
			for j := i; j < i+h; j++ {
				a, b := data[j], data[j+h]
				data[j], data[j+h] = a+b, a-b
			}
			fn(stage, i, data[i:i+h])
			fn(stage, i, data[i+h:i+2*h])
		}
		stage++
	}

	return nil
}
