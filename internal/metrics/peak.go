package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/emsim/internal/sim"
)

// PeakField tracks the largest |Ez| over all frames of a run.
type PeakField struct {
	name string
	peak float64
	step int
}

func NewPeakField() *PeakField {
	return &PeakField{name: "peak_ez", step: -1}
}

func (p *PeakField) Name() string { return p.name }

func (p *PeakField) Observe(f sim.Frame) {
	if len(f.Ez) == 0 {
		return
	}
	if m := floats.Norm(f.Ez, math.Inf(1)); m > p.peak {
		p.peak = m
		p.step = f.Step
	}
}

func (p *PeakField) Value() float64 { return p.peak }

// Step is the step at which the peak was seen, or -1.
func (p *PeakField) Step() int { return p.step }

func (p *PeakField) Reset() {
	p.peak = 0
	p.step = -1
}

// EdgeResidual tracks the largest |Ez| at the two edge cells from a given
// step onwards. After the pulse has left the grid it separates an
// absorbing boundary (small) from a reflecting one (order one).
type EdgeResidual struct {
	name  string
	from  int
	width int
	max   float64
}

// NewEdgeResidual watches width cells at each edge for steps >= from.
func NewEdgeResidual(from, width int) *EdgeResidual {
	if width < 1 {
		width = 1
	}
	return &EdgeResidual{name: "edge_residual", from: from, width: width}
}

func (e *EdgeResidual) Name() string { return e.name }

func (e *EdgeResidual) Observe(f sim.Frame) {
	n := len(f.Ez)
	if f.Step < e.from || n == 0 {
		return
	}
	w := min(e.width, n)
	inf := math.Inf(1)
	e.max = math.Max(e.max, floats.Norm(f.Ez[:w], inf))
	e.max = math.Max(e.max, floats.Norm(f.Ez[n-w:], inf))
}

func (e *EdgeResidual) Value() float64 { return e.max }

func (e *EdgeResidual) Reset() { e.max = 0 }
