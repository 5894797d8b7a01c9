package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/emsim/internal/fdtd"
)

type Simulator struct {
	cfg       Config
	metrics   []Metric
	observers []Observer
}

func New(cfg Config) *Simulator {
	return &Simulator{
		cfg:       cfg,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Config() Config { return s.cfg }

// Run validates the configuration, then drives update, injection and
// boundary for every step, handing a copy of the field to sink after each.
// Cancellation and a closed sink end the run at a step boundary and are
// reported through Result.Stop, not as errors. sink may be nil.
func (s *Simulator) Run(ctx context.Context, sink Sink) (*Result, error) {
	if err := s.validateConfig(sink); err != nil {
		return nil, err
	}

	solver, err := fdtd.NewSolver(s.cfg.Params, s.cfg.Boundary)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Name:     s.cfg.Name,
		Params:   s.cfg.Params,
		Boundary: fdtd.BoundaryMode(solver.Boundary().Name()),
		Mode:     s.cfg.Mode,
		Metrics:  make(map[string]float64),
	}
	if result.Mode == "" {
		result.Mode = ModeSingle
	}

	completed := 0
	for {
		if err := ctx.Err(); err != nil {
			result.Stop = StopCanceled
			break
		}
		if sink != nil && !sink.Active() {
			result.Stop = StopSinkClosed
			break
		}

		if result.Runs > 0 {
			solver.Reset()
		}
		for _, m := range s.metrics {
			m.Reset()
		}
		result.Runs++

		stop, err := s.runOnce(ctx, solver, result, sink)
		if err != nil {
			return result, err
		}
		if stop != StopCompleted {
			result.Stop = stop
			break
		}

		completed++
		if result.Mode == ModeSingle {
			result.Stop = StopCompleted
			break
		}
		if s.cfg.MaxRuns > 0 && completed >= s.cfg.MaxRuns {
			result.Stop = StopMaxRuns
			break
		}
	}

	f := solver.Field()
	result.Final = f.Snapshot()
	result.FinalHy = f.HySnapshot()
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func (s *Simulator) runOnce(ctx context.Context, solver *fdtd.Solver, result *Result, sink Sink) (StopReason, error) {
	nt := s.cfg.Params.NT
	run := result.Runs - 1

	for solver.StepIndex() < nt {
		select {
		case <-ctx.Done():
			return StopCanceled, nil
		default:
		}
		if sink != nil && !sink.Active() {
			return StopSinkClosed, nil
		}

		step := solver.StepIndex()
		if err := solver.Step(); err != nil {
			return "", fmt.Errorf("run %d step %d: %w", run, step, err)
		}
		result.StepsTaken++

		f := solver.Field()
		frame := Frame{Run: run, Step: step, Ez: f.Snapshot(), Hy: f.HySnapshot()}

		for _, m := range s.metrics {
			m.Observe(frame)
		}
		for _, obs := range s.observers {
			obs.OnStep(frame)
		}
		if sink != nil {
			if err := sink.Frame(frame); err != nil {
				return "", fmt.Errorf("sink rejected run %d step %d: %w", run, step, err)
			}
		}
	}

	return StopCompleted, nil
}

func (s *Simulator) validateConfig(sink Sink) error {
	if err := s.cfg.Params.Validate(); err != nil {
		return err
	}
	switch s.cfg.Mode {
	case ModeSingle, "":
	case ModeRepeating:
		if sink == nil && s.cfg.MaxRuns <= 0 {
			return fmt.Errorf("%w: repeating mode without a sink needs max_runs > 0", fdtd.ErrInvalidParameter)
		}
	default:
		return fmt.Errorf("%w: unknown run mode %q", fdtd.ErrInvalidParameter, s.cfg.Mode)
	}
	if s.cfg.MaxRuns < 0 {
		return &fdtd.ParamError{Field: "max_runs", Value: s.cfg.MaxRuns, Reason: "must not be negative"}
	}
	return nil
}
