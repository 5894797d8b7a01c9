package fdtd

import "math"

// Source excites the field once per step, after the stencil update and
// before the boundary condition.
type Source interface {
	Inject(f *Field, step int) error
}

// GaussianPulse adds exp(-0.5*((t-Center)/Width)^2) to Ez[Cell].
type GaussianPulse struct {
	Cell   int
	Center float64
	Width  float64
}

func NewGaussianPulse(cell int, center, width float64) *GaussianPulse {
	return &GaussianPulse{Cell: cell, Center: center, Width: width}
}

func (g *GaussianPulse) Value(step int) float64 {
	x := (float64(step) - g.Center) / g.Width
	return math.Exp(-0.5 * x * x)
}

func (g *GaussianPulse) Inject(f *Field, step int) error {
	return f.AddEz(g.Cell, g.Value(step))
}
