package metrics

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/emsim/internal/sim"
)

// FieldEnergy reports the discrete electromagnetic energy of the most
// recent frame, 0.5*dx*(eps0*sum(Ez^2) + mu0*sum(Hy^2)).
type FieldEnergy struct {
	name    string
	eps0    float64
	mu0     float64
	dx      float64
	current float64
	peak    float64
	samples int
}

func NewFieldEnergy(eps0, mu0, dx float64) *FieldEnergy {
	return &FieldEnergy{
		name: "energy",
		eps0: eps0,
		mu0:  mu0,
		dx:   dx,
	}
}

func (e *FieldEnergy) Name() string { return e.name }

func (e *FieldEnergy) Observe(f sim.Frame) {
	ue := e.eps0 * floats.Dot(f.Ez, f.Ez)
	uh := 0.0
	if len(f.Hy) == len(f.Ez) {
		uh = e.mu0 * floats.Dot(f.Hy, f.Hy)
	}
	e.current = 0.5 * e.dx * (ue + uh)
	if e.current > e.peak {
		e.peak = e.current
	}
	e.samples++
}

func (e *FieldEnergy) Value() float64 { return e.current }

// Peak is the largest energy seen since the last reset.
func (e *FieldEnergy) Peak() float64 { return e.peak }

func (e *FieldEnergy) Reset() {
	e.current = 0
	e.peak = 0
	e.samples = 0
}
