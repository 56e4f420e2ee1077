// Package metrics scores an engine's output signal against the ideal
// transform and aggregates scores across repeated trials.
package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Score holds the error metrics of a single trial.
type Score struct {
	// RMSE is the root-mean-square error between ideal and actual.
	RMSE float64
	// PSNR is 20*log10(Peak/RMSE) in dB, +Inf when RMSE is zero.
	PSNR float64
	// Peak is the largest magnitude of the ideal signal.
	Peak float64
}

// Compare scores actual against ideal. The two signals must be non-empty and
// of equal length.
func Compare(ideal, actual []float64) (Score, error) {
	if len(ideal) == 0 {
		return Score{}, fmt.Errorf("metrics: empty signal")
	}
	if len(ideal) != len(actual) {
		return Score{}, fmt.Errorf(
			"metrics: signal length mismatch, ideal %d vs actual %d",
			len(ideal), len(actual))
	}

	var sum float64
	for i := range ideal {
		d := ideal[i] - actual[i]
		sum += d * d
	}
	rmse := math.Sqrt(sum / float64(len(ideal)))
	peak := floats.Norm(ideal, math.Inf(1))

	psnr := math.Inf(1)
	if rmse > 0 {
		psnr = 20 * math.Log10(peak/rmse)
	}

	return Score{RMSE: rmse, PSNR: psnr, Peak: peak}, nil
}

// Aggregate summarizes the scores of repeated independent trials.
//
// MeanPSNR averages only the trials with finite PSNR; trials with zero RMSE
// are counted in InfinitePSNR instead so a single perfect trial does not
// poison the mean. MeanPSNR is +Inf only when every trial was perfect.
type Aggregate struct {
	Trials       int
	MeanRMSE     float64
	MeanPSNR     float64
	InfinitePSNR int
}

// Reduce aggregates trial scores.
func Reduce(scores []Score) Aggregate {
	agg := Aggregate{Trials: len(scores)}
	if len(scores) == 0 {
		return agg
	}

	rmses := make([]float64, 0, len(scores))
	psnrs := make([]float64, 0, len(scores))
	for _, s := range scores {
		rmses = append(rmses, s.RMSE)
		if math.IsInf(s.PSNR, 1) {
			agg.InfinitePSNR++
			continue
		}
		psnrs = append(psnrs, s.PSNR)
	}

	agg.MeanRMSE = stat.Mean(rmses, nil)
	if len(psnrs) == 0 {
		agg.MeanPSNR = math.Inf(1)
	} else {
		agg.MeanPSNR = stat.Mean(psnrs, nil)
	}

	return agg
}
