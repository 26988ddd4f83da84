package solvers

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/jliuocean/oceanfv/field"
	"github.com/jliuocean/oceanfv/grid"
)

func buildGrid(t *testing.T, nx, ny, nz int) *grid.RectilinearGrid {
	g, err := grid.NewRectilinearGrid(nx, ny, nz, float64(nx), float64(ny), float64(nz), grid.Periodic, grid.Periodic)
	require.NoError(t, err)
	return g
}

// denseSolve solves the same tridiagonal system with gonum's dense solver.
func denseSolve(n int, a, b, c, f []float64) []float64 {
	A := mat.NewDense(n, n, nil)
	for k := 0; k < n; k++ {
		A.Set(k, k, b[k])
		if k > 0 {
			A.Set(k, k-1, a[k-1])
		}
		if k < n-1 {
			A.Set(k, k+1, c[k])
		}
	}
	var x mat.VecDense
	if err := x.SolveVec(A, mat.NewVecDense(n, f)); err != nil {
		panic(err)
	}
	out := make([]float64, n)
	copy(out, x.RawVector().Data)
	return out
}

func TestBatchedTridiagonalSolver(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	{ // Depth-only coefficients match the dense direct solution in every column
		g := buildGrid(t, 8, 4, 16)
		n := g.Nz
		a := make(DepthCoefficient, n)
		b := make(DepthCoefficient, n)
		c := make(DepthCoefficient, n)
		for k := 0; k < n; k++ {
			a[k] = -1 + 0.1*rng.Float64()
			c[k] = -1 + 0.1*rng.Float64()
			b[k] = 3 + rng.Float64() // diagonally dominant
		}
		f := field.NewField(g, field.LocCCC)
		for j := 0; j < g.Ny; j++ {
			for i := 0; i < g.Nx; i++ {
				for k := 0; k < n; k++ {
					f.Set(i, j, k, rng.NormFloat64())
				}
			}
		}
		phi := field.NewField(g, field.LocCCC)
		s := NewBatchedTridiagonalSolver(g)
		s.Solve(phi, a, b, c, f)
		assert.Equal(t, int64(0), s.SkippedColumns)
		for j := 0; j < g.Ny; j++ {
			for i := 0; i < g.Nx; i++ {
				fcol := make([]float64, n)
				for k := 0; k < n; k++ {
					fcol[k] = f.At(i, j, k)
				}
				want := denseSolve(n, a, b, c, fcol)
				for k := 0; k < n; k++ {
					assert.InDelta(t, want[k], phi.At(i, j, k), 1.e-12)
				}
			}
		}
	}
	{ // Round trip with full 3D coefficients, column counts from 1 to thousands
		for _, dims := range [][3]int{{1, 1, 4}, {3, 2, 8}, {64, 32, 12}} {
			g := buildGrid(t, dims[0], dims[1], dims[2])
			n := g.Nz
			aF := field.NewField(g, field.LocCCC)
			bF := field.NewField(g, field.LocCCC)
			cF := field.NewField(g, field.LocCCC)
			phiStar := field.NewField(g, field.LocCCC)
			f := field.NewField(g, field.LocCCC)
			for j := 0; j < g.Ny; j++ {
				for i := 0; i < g.Nx; i++ {
					for k := 0; k < n; k++ {
						aF.Set(i, j, k, -0.5-0.3*rng.Float64())
						cF.Set(i, j, k, -0.5-0.3*rng.Float64())
						bF.Set(i, j, k, 2.5+rng.Float64())
						phiStar.Set(i, j, k, rng.NormFloat64())
					}
					for k := 0; k < n; k++ { // f = A phi*
						v := bF.At(i, j, k) * phiStar.At(i, j, k)
						if k > 0 {
							v += aF.At(i, j, k-1) * phiStar.At(i, j, k-1)
						}
						if k < n-1 {
							v += cF.At(i, j, k) * phiStar.At(i, j, k+1)
						}
						f.Set(i, j, k, v)
					}
				}
			}
			phi := field.NewField(g, field.LocCCC)
			s := NewBatchedTridiagonalSolver(g)
			s.Solve(phi,
				FieldCoefficient{aF}, FieldCoefficient{bF}, FieldCoefficient{cF}, f)
			assert.Equal(t, int64(0), s.SkippedColumns)
			for j := 0; j < g.Ny; j++ {
				for i := 0; i < g.Nx; i++ {
					for k := 0; k < n; k++ {
						assert.InDelta(t, phiStar.At(i, j, k), phi.At(i, j, k), 1.e-10)
					}
				}
			}
		}
	}
	{ // A lost pivot freezes the affected column and is counted, not raised
		g := buildGrid(t, 4, 1, 6)
		n := g.Nz
		aF := field.NewField(g, field.LocCCC)
		bF := field.NewField(g, field.LocCCC)
		cF := field.NewField(g, field.LocCCC)
		f := field.NewField(g, field.LocCCC)
		for i := 0; i < g.Nx; i++ {
			for k := 0; k < n; k++ {
				aF.Set(i, 0, k, -1)
				cF.Set(i, 0, k, -1)
				bF.Set(i, 0, k, 4)
				f.Set(i, 0, k, 1)
			}
		}
		// decouple level 3 of column i=2 and zero its diagonal: the pivot
		// there is exactly zero
		aF.Set(2, 0, 2, 0)
		cF.Set(2, 0, 2, 0)
		bF.Set(2, 0, 3, 0)
		phi := field.NewField(g, field.LocCCC)
		for i := 0; i < g.Nx; i++ {
			for k := 0; k < n; k++ {
				phi.Set(i, 0, k, 99) // sentinel detects stale values
			}
		}
		s := NewBatchedTridiagonalSolver(g)
		s.Solve(phi, FieldCoefficient{aF}, FieldCoefficient{bF}, FieldCoefficient{cF}, f)
		assert.Equal(t, int64(1), s.SkippedColumns)
		for i := 0; i < g.Nx; i++ {
			if i == 2 {
				continue
			}
			for k := 0; k < n; k++ {
				v := phi.At(i, 0, k)
				assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
				assert.NotEqual(t, 99., v)
			}
		}
		// the unstable column never touched the level of the lost pivot or
		// anything deeper
		assert.Equal(t, 99., phi.At(2, 0, 3))
		assert.Equal(t, 99., phi.At(2, 0, n-1))
	}
}
