// Package solvers holds the linear solvers backing the free-surface and
// vertically-implicit parts of the model: a batched Thomas-algorithm solver
// for per-column tridiagonal systems and a sparse iterative solver for the
// implicit free-surface elliptic system.
package solvers

import (
	"math"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/jliuocean/oceanfv/field"
	"github.com/jliuocean/oceanfv/grid"
	"github.com/jliuocean/oceanfv/utils"
)

// machEps is the distance from 1.0 to the next float64.
const machEps = 2.220446049250313e-16

// PivotFloor is the smallest pivot magnitude the forward sweep will divide
// by: ten times machine epsilon, below which diagonal dominance is lost.
const PivotFloor = 10 * machEps

// Coefficient supplies one diagonal of the batched system. A coefficient is
// either depth-only (broadcast over columns) or a full 3D field.
type Coefficient interface {
	CoefAt(i, j, k int) float64
}

// DepthCoefficient broadcasts one vertical profile across all columns.
type DepthCoefficient []float64

func (d DepthCoefficient) CoefAt(i, j, k int) float64 { return d[k] }

// FieldCoefficient wraps a 3D field as a per-cell coefficient.
type FieldCoefficient struct {
	F *field.Field
}

func (fc FieldCoefficient) CoefAt(i, j, k int) float64 { return fc.F.At(i, j, k) }

// BatchedTridiagonalSolver solves one tridiagonal system per horizontal
// column with a modified Thomas algorithm. The elimination multipliers live
// in a scratch buffer sized to the grid and owned by the solver, so a solver
// instance must not run two solves concurrently.
type BatchedTridiagonalSolver struct {
	G  *grid.RectilinearGrid
	pm *utils.PartitionMap

	scratch []float64 // forward-elimination multipliers, (i + Nx*j)*Nz + k

	// SkippedColumns counts columns whose forward sweep was cut short by a
	// near-zero pivot during the most recent Solve. Stale values are left in
	// place below the failure level; this is degraded accuracy, not an error.
	SkippedColumns int64
}

func NewBatchedTridiagonalSolver(g *grid.RectilinearGrid) *BatchedTridiagonalSolver {
	return &BatchedTridiagonalSolver{
		G:       g,
		pm:      utils.NewPartitionMap(utils.DefaultParallelDegree(), g.Columns()),
		scratch: make([]float64, g.Columns()*g.Nz),
	}
}

// Solve computes phi such that, independently for every column (i,j):
//
//	b[0]   phi[0]   + c[0]   phi[1]             = f[0]
//	a[k-1] phi[k-1] + b[k]   phi[k] + c[k] phi[k+1] = f[k]   k = 1..N-2
//	a[N-2] phi[N-2] + b[N-1] phi[N-1]           = f[N-1]
//
// a, b, c may each be depth-only or full 3D. a and c are addressed at the
// level of their upper neighbor: row k reads a.CoefAt(i,j,k-1) and
// c.CoefAt(i,j,k).
//
// If the running pivot loses diagonal dominance (|beta| < PivotFloor) the
// forward update for that level and all deeper sweep levels is skipped,
// leaving prior values of phi in place, and the column is counted in
// SkippedColumns.
func (s *BatchedTridiagonalSolver) Solve(phi *field.Field, a, b, c Coefficient, f *field.Field) {
	var (
		g       = s.G
		n       = g.Nz
		skipped int64
	)
	s.pm.RunParallel(func(cMin, cMax, bn int) {
		var nSkip int64
		for col := cMin; col < cMax; col++ {
			i, j := g.ColumnIJ(col)
			t := s.scratch[col*n : (col+1)*n]
			ok := true
			beta := b.CoefAt(i, j, 0)
			if math.Abs(beta) < PivotFloor {
				ok = false
			} else {
				phi.Set(i, j, 0, f.At(i, j, 0)/beta)
				for k := 1; k < n; k++ {
					t[k] = c.CoefAt(i, j, k-1) / beta
					beta = b.CoefAt(i, j, k) - a.CoefAt(i, j, k-1)*t[k]
					if math.Abs(beta) < PivotFloor {
						ok = false
						break
					}
					phi.Set(i, j, k, (f.At(i, j, k)-a.CoefAt(i, j, k-1)*phi.At(i, j, k-1))/beta)
				}
			}
			if !ok {
				nSkip++
			}
			// back substitution runs regardless; levels the sweep never
			// reached keep their prior (stale) values
			for k := n - 2; k >= 0; k-- {
				phi.Add(i, j, k, -t[k+1]*phi.At(i, j, k+1))
			}
		}
		if nSkip != 0 {
			atomic.AddInt64(&skipped, nSkip)
		}
	})
	s.SkippedColumns = skipped
	if skipped != 0 {
		logrus.WithFields(logrus.Fields{
			"columns": skipped,
			"total":   g.Columns(),
		}).Warn("tridiagonal solve lost diagonal dominance; stale values left in affected columns")
	}
}
