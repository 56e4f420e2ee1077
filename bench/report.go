package bench

import (
	"fmt"
	"io"
	"math"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sarchlab/cimhwt/metrics"
)

// Report summarizes one benchmark run for display.
type Report struct {
	Engine    string
	Spec      Spec
	Aggregate metrics.Aggregate
	Scores    []metrics.Score
}

// MakeReport captures the state of a finished runner.
func MakeReport(r *Runner, agg metrics.Aggregate) Report {
	return Report{
		Engine:    r.target.Name(),
		Spec:      r.spec,
		Aggregate: agg,
		Scores:    r.Scores(),
	}
}

// WriteTo renders the aggregate summary and the per-trial scores as tables.
func (r Report) WriteTo(w io.Writer) {
	agg := table.NewWriter()
	agg.SetOutputMirror(w)
	agg.SetTitle("CIM Hadamard Benchmark")
	agg.AppendHeader(table.Row{"Engine", "N", "Trials", "Seed", "Mean RMSE", "Mean PSNR (dB)", "Inf PSNR"})
	agg.AppendRow(table.Row{
		r.Engine,
		r.Spec.Size,
		r.Aggregate.Trials,
		r.Spec.Seed,
		fmt.Sprintf("%.6g", r.Aggregate.MeanRMSE),
		formatPSNR(r.Aggregate.MeanPSNR),
		r.Aggregate.InfinitePSNR,
	})
	agg.Render()

	if len(r.Scores) <= 1 {
		return
	}

	trials := table.NewWriter()
	trials.SetOutputMirror(w)
	trials.SetTitle("Per-Trial Scores")
	trials.AppendHeader(table.Row{"Trial", "RMSE", "PSNR (dB)"})
	for i, s := range r.Scores {
		trials.AppendRow(table.Row{i + 1, fmt.Sprintf("%.6g", s.RMSE), formatPSNR(s.PSNR)})
	}
	trials.Render()
}

func formatPSNR(psnr float64) string {
	if math.IsInf(psnr, 1) {
		return "inf"
	}
	return fmt.Sprintf("%.3f", psnr)
}
