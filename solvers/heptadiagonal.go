package solvers

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/jliuocean/oceanfv/grid"
)

// ErrNotConverged reports an elliptic solve that exhausted its iteration
// budget. The caller decides whether to retry, shrink the time step, or
// abort; the solution vector is not written back when this is returned.
type ErrNotConverged struct {
	Iterations int
	Residual   float64
}

func (e *ErrNotConverged) Error() string {
	return fmt.Sprintf("elliptic solver did not converge after %d iterations, relative residual %g",
		e.Iterations, e.Residual)
}

// HeptadiagonalIterativeSolver solves the implicit free-surface system
//
//	[ div(H grad) - 1/(g dt^2) ] eta = rhs
//
// assembled as a sparse matrix over the horizontal columns (row index
// i + Nx*j) and solved with Jacobi-preconditioned conjugate gradients. The
// full finite-volume stencil carries seven diagonals; the free-surface
// reduction has no vertical coupling, so its two vertical diagonals are
// empty and five remain populated.
//
// The matrix and preconditioner are cached and rebuilt only when the time
// step (or gravity) changes between calls, amortizing assembly across steps.
type HeptadiagonalIterativeSolver struct {
	G *grid.RectilinearGrid

	MaxIterations int     // iteration budget, default Nx*Ny
	Tolerance     float64 // relative residual target, default 1e-8

	// Rebuilds counts matrix assemblies, exposed for verifying the cache
	// policy.
	Rebuilds int

	matrix  *sparse.CSR
	diagInv []float64 // Jacobi preconditioner
	lastG   float64
	lastDt  float64
	built   bool

	r, z, p, q []float64 // CG scratch, sized to the column count
}

func NewHeptadiagonalIterativeSolver(g *grid.RectilinearGrid) *HeptadiagonalIterativeSolver {
	n := g.Columns()
	return &HeptadiagonalIterativeSolver{
		G:             g,
		MaxIterations: n,
		Tolerance:     1.e-8,
		r:             make([]float64, n),
		z:             make([]float64, n),
		p:             make([]float64, n),
		q:             make([]float64, n),
	}
}

// EnsureMatrix assembles the system matrix for the given gravity and time
// step if the cached one was built for different values.
func (s *HeptadiagonalIterativeSolver) EnsureMatrix(gravity, dt float64) error {
	if gravity <= 0 || dt <= 0 {
		return fmt.Errorf("implicit free surface needs positive gravity and time step, got g=%g, dt=%g", gravity, dt)
	}
	if s.built && gravity == s.lastG && dt == s.lastDt {
		return nil
	}
	s.assemble(gravity, dt)
	s.lastG, s.lastDt = gravity, dt
	s.built = true
	s.Rebuilds++
	logrus.WithFields(logrus.Fields{
		"dt":       dt,
		"columns":  s.G.Columns(),
		"rebuilds": s.Rebuilds,
	}).Debug("assembled implicit free-surface matrix")
	return nil
}

// assemble builds the negated system -A (positive definite) so conjugate
// gradients applies directly. Off-diagonal coefficients are vertically
// integrated face areas over face widths; the diagonal collects the
// connected coefficients plus Area/(g dt^2). Dry columns get identity rows.
func (s *HeptadiagonalIterativeSolver) assemble(gravity, dt float64) {
	var (
		g    = s.G
		n    = g.Columns()
		dok  = sparse.NewDOK(n, n)
		area = g.AreaXY()
	)
	s.diagInv = make([]float64, n)
	row := func(i, j int) int {
		return wrap(i, g.Nx) + g.Nx*wrap(j, g.Ny)
	}
	for c := 0; c < n; c++ {
		i, j := g.ColumnIJ(c)
		if g.ColumnDepth(i, j) <= 0 {
			dok.Set(c, c, 1)
			s.diagInv[c] = 1
			continue
		}
		diag := area / (gravity * dt * dt)
		if !g.PeripheralColumnFaceU(i, j) {
			ax := g.DepthFC(i, j) * g.Dy() / g.Dx()
			dok.Set(c, row(i-1, j), -ax)
			diag += ax
		}
		if !g.PeripheralColumnFaceU(i+1, j) {
			ax := g.DepthFC(i+1, j) * g.Dy() / g.Dx()
			dok.Set(c, row(i+1, j), -ax)
			diag += ax
		}
		if !g.PeripheralColumnFaceV(i, j) {
			ay := g.DepthCF(i, j) * g.Dx() / g.Dy()
			dok.Set(c, row(i, j-1), -ay)
			diag += ay
		}
		if !g.PeripheralColumnFaceV(i, j+1) {
			ay := g.DepthCF(i, j+1) * g.Dx() / g.Dy()
			dok.Set(c, row(i, j+1), -ay)
			diag += ay
		}
		dok.Set(c, c, diag)
		s.diagInv[c] = 1 / diag
	}
	s.matrix = dok.ToCSR()
}

func wrap(i, n int) int {
	i = i % n
	if i < 0 {
		i += n
	}
	return i
}

// SolveLinear runs preconditioned conjugate gradients on the cached matrix:
// (-A) x = rhs, starting from x as the initial guess. It returns the
// iteration count, or ErrNotConverged when the budget is exhausted (x is
// then left at the initial guess).
func (s *HeptadiagonalIterativeSolver) SolveLinear(x, rhs []float64) (iters int, err error) {
	var (
		n     = len(x)
		bnorm = floats.Norm(rhs, 2)
	)
	if !s.built {
		return 0, fmt.Errorf("solver matrix not assembled; call EnsureMatrix first")
	}
	if bnorm == 0 {
		for i := range x {
			x[i] = 0
		}
		return 0, nil
	}
	var (
		xw = make([]float64, n)
	)
	copy(xw, x)
	s.mulMatVec(s.q, xw)
	for i := 0; i < n; i++ {
		s.r[i] = rhs[i] - s.q[i]
		s.z[i] = s.diagInv[i] * s.r[i]
	}
	// a warm start may already satisfy the tolerance
	if floats.Norm(s.r, 2) <= s.Tolerance*bnorm {
		return 0, nil
	}
	copy(s.p, s.z)
	rz := floats.Dot(s.r, s.z)
	for iters = 1; iters <= s.MaxIterations; iters++ {
		s.mulMatVec(s.q, s.p)
		pq := floats.Dot(s.p, s.q)
		if pq == 0 {
			// search-direction breakdown with a residual still above the
			// tolerance
			return iters - 1, &ErrNotConverged{
				Iterations: iters - 1,
				Residual:   floats.Norm(s.r, 2) / bnorm,
			}
		}
		alpha := rz / pq
		floats.AddScaled(xw, alpha, s.p)
		floats.AddScaled(s.r, -alpha, s.q)
		if floats.Norm(s.r, 2) <= s.Tolerance*bnorm {
			copy(x, xw)
			return iters, nil
		}
		for i := 0; i < n; i++ {
			s.z[i] = s.diagInv[i] * s.r[i]
		}
		rzNew := floats.Dot(s.r, s.z)
		beta := rzNew / rz
		rz = rzNew
		for i := 0; i < n; i++ {
			s.p[i] = s.z[i] + beta*s.p[i]
		}
	}
	return s.MaxIterations, &ErrNotConverged{
		Iterations: s.MaxIterations,
		Residual:   floats.Norm(s.r, 2) / bnorm,
	}
}

// mulMatVec computes dst = matrix * x. MulMatRawVec accumulates, so dst is
// cleared first.
func (s *HeptadiagonalIterativeSolver) mulMatVec(dst, x []float64) {
	for i := range dst {
		dst[i] = 0
	}
	sparse.MulMatRawVec(s.matrix, x, dst)
}
