package fdtd

import (
	"context"
	"fmt"
	"iter"
)

// Solver composes engine, source and boundary around one Field.
type Solver struct {
	params   Params
	coeffs   Coefficients
	field    *Field
	engine   *Engine
	source   Source
	boundary Boundary
	step     int
	err      error
}

func NewSolver(p Params, mode BoundaryMode) (*Solver, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	c := p.Coefficients()
	b, err := NewBoundary(mode, c)
	if err != nil {
		return nil, err
	}
	return &Solver{
		params:   p,
		coeffs:   c,
		field:    NewField(p.NX),
		engine:   NewEngine(c),
		source:   NewGaussianPulse(p.Src, p.PulseCenter, p.PulseWidth),
		boundary: b,
	}, nil
}

func (s *Solver) Params() Params             { return s.params }
func (s *Solver) Coefficients() Coefficients { return s.coeffs }
func (s *Solver) Field() *Field              { return s.field }
func (s *Solver) Boundary() Boundary         { return s.boundary }

// StepIndex is the zero-based index of the next step to run.
func (s *Solver) StepIndex() int { return s.step }

// SetSource replaces the default Gaussian pulse.
func (s *Solver) SetSource(src Source) { s.source = src }

// Step runs update, injection and boundary for the current step index.
// The source cell is validated up front, so injection cannot fail halfway
// through a step for a solver built by NewSolver.
func (s *Solver) Step() error {
	s.engine.Advance(s.field)
	if err := s.source.Inject(s.field, s.step); err != nil {
		return err
	}
	s.boundary.Apply(s.field)
	s.step++
	return nil
}

// Reset zeroes the field and history and restarts the step count.
func (s *Solver) Reset() {
	s.field.Reset()
	s.step = 0
	s.err = nil
}

// Err returns the step error that ended the last Frames iteration early.
func (s *Solver) Err() error { return s.err }

// Frames lazily yields (step, Ez copy) for the remaining steps of the run.
// Iteration stops at a step boundary when ctx is done or the consumer
// breaks out of the loop. A failing step also ends it; check Err afterwards.
func (s *Solver) Frames(ctx context.Context) iter.Seq2[int, []float64] {
	return func(yield func(int, []float64) bool) {
		s.err = nil
		for s.step < s.params.NT {
			if ctx.Err() != nil {
				return
			}
			t := s.step
			if err := s.Step(); err != nil {
				s.err = fmt.Errorf("step %d: %w", t, err)
				return
			}
			if !yield(t, s.field.Snapshot()) {
				return
			}
		}
	}
}
