package fdtd

// Engine applies the leapfrog stencil.
type Engine struct {
	ch, ce float64
}

func NewEngine(c Coefficients) *Engine {
	return &Engine{ch: c.CH, ce: c.CE}
}

// UpdateH advances Hy[0..nx-2] from the spatial difference of Ez.
// Hy[nx-1] has no right neighbour and is left untouched.
func (e *Engine) UpdateH(f *Field) {
	ez, hy := f.Ez, f.Hy
	for i := 0; i < len(hy)-1; i++ {
		hy[i] += e.ch * (ez[i+1] - ez[i])
	}
}

// UpdateE advances Ez[1..nx-1] from the spatial difference of Hy.
// Ez[0] is left for the boundary condition.
func (e *Engine) UpdateE(f *Field) {
	ez, hy := f.Ez, f.Hy
	for i := 1; i < len(ez); i++ {
		ez[i] += e.ce * (hy[i] - hy[i-1])
	}
}

// Advance runs one full time step. Hy must be complete before Ez starts.
func (e *Engine) Advance(f *Field) {
	e.UpdateH(f)
	e.UpdateE(f)
}
