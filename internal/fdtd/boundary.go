package fdtd

import "fmt"

type BoundaryMode string

const (
	BoundaryFixed BoundaryMode = "fixed"
	BoundaryMur   BoundaryMode = "mur"
)

// Boundary truncates the grid edges once per step, after injection.
type Boundary interface {
	Name() string
	Apply(f *Field)
}

// Fixed never touches the edges. Ez[0] and Hy[nx-1] are skipped by the
// stencil, so they keep their initial zero and reflect incoming waves.
type Fixed struct{}

func (Fixed) Name() string { return string(BoundaryFixed) }
func (Fixed) Apply(*Field) {}

// Mur is the first-order absorbing boundary. Each edge reads its neighbour
// and the edge value from the previous step, then records the current edge
// value as history before overwriting it.
type Mur struct {
	Alpha float64
}

func (m *Mur) Name() string { return string(BoundaryMur) }

func (m *Mur) Apply(f *Field) {
	ez := f.Ez
	n := len(ez) - 1
	if n < 1 {
		return
	}

	left := ez[1] + m.Alpha*(ez[1]-f.LeftPrev)
	f.LeftPrev = ez[0]
	ez[0] = left

	right := ez[n-1] + m.Alpha*(ez[n-1]-f.RightPrev)
	f.RightPrev = ez[n]
	ez[n] = right
}

func NewBoundary(mode BoundaryMode, c Coefficients) (Boundary, error) {
	switch mode {
	case BoundaryFixed, "":
		return Fixed{}, nil
	case BoundaryMur:
		return &Mur{Alpha: c.Alpha}, nil
	}
	return nil, fmt.Errorf("%w: unknown boundary %q", ErrInvalidParameter, mode)
}

// ParseBoundary accepts the mode names used in configs and on the CLI.
func ParseBoundary(s string) (BoundaryMode, error) {
	switch s {
	case "fixed", "pec", "":
		return BoundaryFixed, nil
	case "mur", "absorbing":
		return BoundaryMur, nil
	}
	return "", fmt.Errorf("%w: unknown boundary %q (want fixed or mur)", ErrInvalidParameter, s)
}
