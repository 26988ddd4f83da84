package freesurface

import (
	"github.com/sirupsen/logrus"

	"github.com/jliuocean/oceanfv/field"
	"github.com/jliuocean/oceanfv/grid"
	"github.com/jliuocean/oceanfv/solvers"
)

// ImplicitFreeSurface advances the free surface with one elliptic solve per
// outer step,
//
//	[ div(H grad) - 1/(g dt^2) ] eta(n+1) = (div(Q*) - eta(n)/dt) / (g dt)
//
// where Q* is the vertically integrated transport after the explicit
// tendency update. On non-convergence the surface field is left untouched
// and the error propagates to the time stepper.
type ImplicitFreeSurface struct {
	G       *grid.RectilinearGrid
	Solver  *solvers.HeptadiagonalIterativeSolver
	Gravity float64

	rhs, x []float64
}

func NewImplicitFreeSurface(g *grid.RectilinearGrid, gravity float64) *ImplicitFreeSurface {
	return &ImplicitFreeSurface{
		G:       g,
		Solver:  solvers.NewHeptadiagonalIterativeSolver(g),
		Gravity: gravity,
		rhs:     make([]float64, g.Columns()),
		x:       make([]float64, g.Columns()),
	}
}

// Step solves for the new surface height given the transports U, V (depth
// integrals of the updated 3D velocity). The right-hand side is linearized
// per column as i + Nx*j; the solution is reshaped back into eta only when
// the iteration converges.
func (ifs *ImplicitFreeSurface) Step(eta, U, V *field.Field, dt float64) (iters int, err error) {
	var (
		g    = ifs.G
		area = g.AreaXY()
	)
	if err = ifs.Solver.EnsureMatrix(ifs.Gravity, dt); err != nil {
		return 0, err
	}
	flux := func(f *field.Field, peripheral bool, i, j int) float64 {
		if peripheral {
			return 0
		}
		return f.At2(i, j)
	}
	for c := 0; c < g.Columns(); c++ {
		i, j := g.ColumnIJ(c)
		if g.ColumnDepth(i, j) <= 0 {
			ifs.rhs[c] = 0
			ifs.x[c] = 0
			continue
		}
		divQ := (flux(U, g.PeripheralColumnFaceU(i+1, j), i+1, j)-flux(U, g.PeripheralColumnFaceU(i, j), i, j))*g.Dy() +
			(flux(V, g.PeripheralColumnFaceV(i, j+1), i, j+1)-flux(V, g.PeripheralColumnFaceV(i, j), i, j))*g.Dx()
		b := (divQ - area*eta.At2(i, j)/dt) / (ifs.Gravity * dt)
		ifs.rhs[c] = -b // the cached matrix holds the negated operator
		ifs.x[c] = eta.At2(i, j)
	}
	if iters, err = ifs.Solver.SolveLinear(ifs.x, ifs.rhs); err != nil {
		logrus.WithError(err).Error("implicit free-surface solve failed; surface left unchanged")
		return iters, err
	}
	for c := 0; c < g.Columns(); c++ {
		i, j := g.ColumnIJ(c)
		eta.Set2(i, j, ifs.x[c])
	}
	eta.FillHalos()
	return iters, nil
}
