package fdtd

import "math"

// Physical constants used by the reference configuration.
const (
	SpeedOfLight = 3.0e8
	Eps0         = 8.854e-12
	Mu0          = 1.256e-6
)

const (
	DefaultNX          = 200
	DefaultNT          = 2500
	DefaultDx          = 0.01
	DefaultCourant     = 0.5
	DefaultSource      = 50
	DefaultPulseCenter = 40.0
	DefaultPulseWidth  = 12.0
)

// Params is immutable for the duration of a run.
type Params struct {
	NX          int
	NT          int
	C           float64
	Dx          float64
	Dt          float64
	Eps0        float64
	Mu0         float64
	Src         int
	PulseCenter float64
	PulseWidth  float64
}

// DefaultParams returns the reference setup: 200 cells, dt = dx/(2c), a
// Gaussian pulse centred at step 40 injected at cell 50.
func DefaultParams() Params {
	return Params{
		NX:          DefaultNX,
		NT:          DefaultNT,
		C:           SpeedOfLight,
		Dx:          DefaultDx,
		Dt:          DefaultCourant * DefaultDx / SpeedOfLight,
		Eps0:        Eps0,
		Mu0:         Mu0,
		Src:         DefaultSource,
		PulseCenter: DefaultPulseCenter,
		PulseWidth:  DefaultPulseWidth,
	}
}

// Validate checks the parameters before any stepping happens. The Courant
// condition is deliberately not checked here; see Stable.
func (p Params) Validate() error {
	finite := []struct {
		name string
		v    float64
	}{
		{"c", p.C}, {"dx", p.Dx}, {"dt", p.Dt}, {"eps0", p.Eps0}, {"mu0", p.Mu0},
		{"pulse_center", p.PulseCenter}, {"pulse_width", p.PulseWidth},
	}
	for _, f := range finite {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return &ParamError{Field: f.name, Value: f.v, Reason: "must be finite"}
		}
	}

	switch {
	case p.NX <= 0:
		return &ParamError{Field: "nx", Value: p.NX, Reason: "must be positive"}
	case p.NT < 0:
		return &ParamError{Field: "nt", Value: p.NT, Reason: "must not be negative"}
	case p.Dx <= 0:
		return &ParamError{Field: "dx", Value: p.Dx, Reason: "must be positive"}
	case p.Dt <= 0:
		return &ParamError{Field: "dt", Value: p.Dt, Reason: "must be positive"}
	case p.C <= 0:
		return &ParamError{Field: "c", Value: p.C, Reason: "must be positive"}
	case p.Eps0 <= 0:
		return &ParamError{Field: "eps0", Value: p.Eps0, Reason: "must be positive"}
	case p.Mu0 <= 0:
		return &ParamError{Field: "mu0", Value: p.Mu0, Reason: "must be positive"}
	case p.PulseWidth <= 0:
		return &ParamError{Field: "pulse_width", Value: p.PulseWidth, Reason: "must be positive"}
	case p.Src < 0 || p.Src >= p.NX:
		return &ParamError{Field: "src", Value: p.Src, Reason: "must lie in [0, nx)"}
	}
	return nil
}

// CourantNumber returns c*dt/dx.
func (p Params) CourantNumber() float64 {
	return p.C * p.Dt / p.Dx
}

// Stable reports whether the time step satisfies dt <= dx/c.
func (p Params) Stable() bool {
	return p.C*p.Dt <= p.Dx
}

// Coefficients are derived once per run and read-only afterwards.
type Coefficients struct {
	CH    float64 // dt/(mu0*dx)
	CE    float64 // dt/(eps0*dx)
	Alpha float64 // (c*dt - dx)/(c*dt + dx)
}

func (p Params) Coefficients() Coefficients {
	cdt := p.C * p.Dt
	return Coefficients{
		CH:    p.Dt / (p.Mu0 * p.Dx),
		CE:    p.Dt / (p.Eps0 * p.Dx),
		Alpha: (cdt - p.Dx) / (cdt + p.Dx),
	}
}
