package fdtd

// Field owns the two staggered field arrays together with the boundary
// history used by the Mur condition. Ez[i] and Hy[i] are exported for the
// stencil loops; checked access goes through the accessor methods.
type Field struct {
	Ez []float64
	Hy []float64

	// Edge values one time step in the past.
	LeftPrev  float64
	RightPrev float64
}

func NewField(nx int) *Field {
	return &Field{
		Ez: make([]float64, nx),
		Hy: make([]float64, nx),
	}
}

func (f *Field) Len() int { return len(f.Ez) }

func (f *Field) EzAt(i int) (float64, error) {
	if i < 0 || i >= len(f.Ez) {
		return 0, outOfRange(i, len(f.Ez))
	}
	return f.Ez[i], nil
}

func (f *Field) HyAt(i int) (float64, error) {
	if i < 0 || i >= len(f.Hy) {
		return 0, outOfRange(i, len(f.Hy))
	}
	return f.Hy[i], nil
}

func (f *Field) SetEz(i int, v float64) error {
	if i < 0 || i >= len(f.Ez) {
		return outOfRange(i, len(f.Ez))
	}
	f.Ez[i] = v
	return nil
}

func (f *Field) SetHy(i int, v float64) error {
	if i < 0 || i >= len(f.Hy) {
		return outOfRange(i, len(f.Hy))
	}
	f.Hy[i] = v
	return nil
}

// AddEz adds v to Ez[i] without overwriting what is already there.
func (f *Field) AddEz(i int, v float64) error {
	if i < 0 || i >= len(f.Ez) {
		return outOfRange(i, len(f.Ez))
	}
	f.Ez[i] += v
	return nil
}

// Reset zeroes both arrays and the boundary history.
func (f *Field) Reset() {
	clear(f.Ez)
	clear(f.Hy)
	f.LeftPrev, f.RightPrev = 0, 0
}

// Snapshot returns a copy of Ez that stays valid after further steps.
func (f *Field) Snapshot() []float64 {
	return clone(f.Ez)
}

// HySnapshot returns a copy of Hy.
func (f *Field) HySnapshot() []float64 {
	return clone(f.Hy)
}

func clone(s []float64) []float64 {
	c := make([]float64, len(s))
	copy(c, s)
	return c
}
