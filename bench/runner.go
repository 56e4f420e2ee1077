// Package bench drives repeated seeded trials of a CIM engine and aggregates
// the error metrics against the ideal transform.
package bench

import (
	"log/slog"
	"math/rand"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/cimhwt/engine"
	"github.com/sarchlab/cimhwt/metrics"
	"github.com/sarchlab/cimhwt/walsh"
)

// Spec configures a benchmark run. Every trial draws a fresh standard-normal
// input of length Size from the stream seeded with Seed.
type Spec struct {
	Size   int
	Trials int
	Seed   int64
}

func (s Spec) validate() error {
	if err := walsh.CheckSize(s.Size); err != nil {
		return err
	}
	if s.Trials <= 0 {
		return engine.ParameterError{Param: "Trials", Reason: "must be > 0"}
	}
	return nil
}

// Runner executes trials on an event engine, one trial per tick. Trials
// share no mutable state beyond the read-only Spec, so results match a plain
// sequential loop.
type Runner struct {
	*sim.TickingComponent

	spec   Spec
	target engine.Engine
	rng    *rand.Rand

	scores []metrics.Score
	failed error
}

// Builder builds Runners.
type Builder struct {
	simEngine sim.Engine
	freq      sim.Freq
	spec      Spec
	target    engine.Engine
}

// MakeBuilder returns a builder with a 1 GHz default frequency.
func MakeBuilder() Builder {
	return Builder{freq: 1 * sim.GHz}
}

// WithEngine sets the event engine that drives the run.
func (b Builder) WithEngine(e sim.Engine) Builder {
	b.simEngine = e
	return b
}

// WithFreq sets the tick frequency.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithSpec sets the run parameters.
func (b Builder) WithSpec(spec Spec) Builder {
	b.spec = spec
	return b
}

// WithTarget sets the CIM engine under test.
func (b Builder) WithTarget(target engine.Engine) Builder {
	b.target = target
	return b
}

// Build validates the spec and creates a runner.
func (b Builder) Build(name string) (*Runner, error) {
	if err := b.spec.validate(); err != nil {
		return nil, err
	}
	if b.target == nil {
		return nil, engine.ParameterError{Param: "Target", Reason: "must be set"}
	}

	r := &Runner{
		spec:   b.spec,
		target: b.target,
		rng:    rand.New(rand.NewSource(b.spec.Seed)),
		scores: make([]metrics.Score, 0, b.spec.Trials),
	}
	r.TickingComponent = sim.NewTickingComponent(name, b.simEngine, b.freq, r)
	return r, nil
}

// Tick runs one trial per cycle until all trials are scored or one fails.
func (r *Runner) Tick() (madeProgress bool) {
	if r.failed != nil || len(r.scores) >= r.spec.Trials {
		return false
	}

	if err := r.runTrial(); err != nil {
		// A failed trial contributes nothing; the whole run is aborted.
		r.failed = err
		return false
	}

	return true
}

func (r *Runner) runTrial() error {
	x := make([]float64, r.spec.Size)
	for i := range x {
		x[i] = r.rng.NormFloat64()
	}

	ideal, err := walsh.Transform(x)
	if err != nil {
		return err
	}

	actual, err := r.target.Apply(x)
	if err != nil {
		return err
	}

	score, err := metrics.Compare(ideal, actual)
	if err != nil {
		return err
	}

	r.scores = append(r.scores, score)
	slog.Debug("trial scored",
		"engine", r.target.Name(),
		"trial", len(r.scores),
		"rmse", score.RMSE,
		"psnr", score.PSNR,
	)
	return nil
}

// Run schedules the runner on its event engine, drives the engine to
// completion, and returns the aggregated metrics.
func (r *Runner) Run() (metrics.Aggregate, error) {
	r.Engine.Schedule(sim.MakeTickEvent(r, 0))
	r.Engine.Run()

	if r.failed != nil {
		return metrics.Aggregate{}, r.failed
	}
	return metrics.Reduce(r.scores), nil
}

// Scores returns the per-trial scores recorded so far.
func (r *Runner) Scores() []metrics.Score {
	return r.scores
}
