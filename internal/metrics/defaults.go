package metrics

import (
	"github.com/san-kum/emsim/internal/fdtd"
	"github.com/san-kum/emsim/internal/sim"
)

// Default returns the metric set used by the CLI for one run.
func Default(p fdtd.Params) []sim.Metric {
	from := p.NT - p.NT/5
	return []sim.Metric{
		NewPeakField(),
		NewEdgeResidual(from, 5),
		NewFieldEnergy(p.Eps0, p.Mu0, p.Dx),
		NewStability(10.0),
	}
}
