// Package fdtd provides a one-dimensional finite-difference time-domain
// solver for the transverse electromagnetic mode.
//
// The electric field Ez and the magnetic field Hy live on a staggered Yee
// grid: Hy[i] sits half a cell to the right of Ez[i]. One time step is
//
//   - [Engine.Advance]: leapfrog update of Hy from the old Ez, then Ez from the new Hy
//   - [Source.Inject]: additive excitation at a fixed cell
//   - [Boundary.Apply]: edge treatment ([Fixed] wall or first-order [Mur])
//
// [Solver] composes the three around a zero-initialised [Field].
//
// # Example
//
//	p := fdtd.DefaultParams()
//	s, _ := fdtd.NewSolver(p, fdtd.BoundaryMur)
//	for step, ez := range s.Frames(ctx) {
//	    render(step, ez)
//	}
//
// # Stability
//
// The scheme is stable only when c*dt <= dx. Violating this is a caller
// precondition and is never reported as an error: unstable runs diverge
// (eventually to Inf/NaN) but do not fail or panic.
//
// # Thread Safety
//
// Solver and Field are NOT thread-safe. Independent solvers may run in
// parallel.
package fdtd
