package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jliuocean/oceanfv/freesurface"
	"github.com/jliuocean/oceanfv/grid"
)

func TestStepFirstStepIsForwardEulerThenBlends(t *testing.T) {
	g, err := grid.NewRectilinearGrid(8, 8, 4, 800, 800, 40, grid.Periodic, grid.Periodic)
	require.NoError(t, err)
	m := NewHydrostaticModel(g, NewImplicitSurface(g, 9.81), 9.81, 0, 0)
	var (
		dt = 2.
		ga = 1.e-3
		gb = 3.e-3
	)
	fill := func(v float64) {
		for k := 0; k < g.Nz; k++ {
			for j := 0; j < g.Ny; j++ {
				for i := 0; i < g.Nx; i++ {
					m.GU.Set(i, j, k, v)
				}
			}
		}
	}
	// the lagged slot starts with garbage that the first step must ignore
	for k := 0; k < g.Nz; k++ {
		for j := 0; j < g.Ny; j++ {
			for i := 0; i < g.Nx; i++ {
				m.GUprev.Set(i, j, k, 999)
			}
		}
	}
	fill(ga)
	require.NoError(t, m.Step(dt))
	assert.Equal(t, 1, m.Iteration())
	// a uniform tendency on a periodic grid leaves the surface flat, so no
	// pressure correction lands on u
	assert.InDelta(t, dt*ga, m.U.At(3, 3, 2), 1.e-9)

	fill(gb)
	require.NoError(t, m.Step(dt))
	want := dt*ga + dt*((1.5+DefaultChi)*gb-(0.5+DefaultChi)*ga)
	assert.InDelta(t, want, m.U.At(3, 3, 2), 1.e-9)
}

func TestStepImplicitSurfaceDampedOscillation(t *testing.T) {
	g, err := grid.NewRectilinearGrid(32, 1, 4, 1000, 100, 10, grid.Periodic, grid.Flat)
	require.NoError(t, err)
	s := NewImplicitSurface(g, 9.81)
	m := NewHydrostaticModel(g, s, 9.81, 0, 0)
	eta := m.FreeSurface.Eta()
	for i := 0; i < g.Nx; i++ {
		eta.Set2(i, 0, 0.1*math.Sin(2*math.Pi*g.XC(i)/g.Lx))
	}
	eta.FillHalos()
	var (
		vol0 = eta.SumInterior()
		amp0 = eta.MaxAbsInterior()
		dt   = 5.
	)
	for n := 0; n < 40; n++ {
		require.NoError(t, m.Step(dt))
		// Step hands its halo exchange to Advance, which consumes it
		assert.Nil(t, s.pending)
	}
	assert.InDelta(t, vol0, eta.SumInterior(), 1.e-5)
	// the backward-Euler surface damps the wave; it must not grow
	assert.Less(t, eta.MaxAbsInterior(), amp0*1.01)
}

func TestStepImplicitSurfacePropagatesSolverFailure(t *testing.T) {
	g, err := grid.NewRectilinearGrid(16, 16, 2, 160, 160, 10, grid.Periodic, grid.Periodic)
	require.NoError(t, err)
	s := NewImplicitSurface(g, 9.81)
	s.IFS.Solver.MaxIterations = 1
	s.IFS.Solver.Tolerance = 1.e-15
	m := NewHydrostaticModel(g, s, 9.81, 0, 0)
	eta := m.FreeSurface.Eta()
	for j := 0; j < g.Ny; j++ {
		for i := 0; i < g.Nx; i++ {
			eta.Set2(i, j, math.Sin(2*math.Pi*g.XC(i)/g.Lx)*math.Sin(2*math.Pi*g.YC(j)/g.Ly))
		}
	}
	eta.FillHalos()
	assert.Error(t, m.Step(300))
	assert.Equal(t, 0, m.Iteration())
}

func TestStepSplitExplicitGravityWaveRoundTrip(t *testing.T) {
	const (
		gravity = 9.81
		depth   = 10.
		length  = 1000.
	)
	g, err := grid.NewRectilinearGrid(64, 1, 4, length, 100, depth, grid.Periodic, grid.Flat)
	require.NoError(t, err)
	fs := NewSplitExplicitSurface(g, freesurface.NewAdamsBashforth3(0), gravity)
	m := NewHydrostaticModel(g, fs, gravity, 0, 0)
	var (
		c      = math.Sqrt(gravity * depth)
		period = length / c
		nsteps = 100
		dt     = period / float64(nsteps)
	)
	eta := m.FreeSurface.Eta()
	eta0 := make([]float64, g.Nx)
	for i := 0; i < g.Nx; i++ {
		eta0[i] = 0.05 * math.Sin(2*math.Pi*g.XC(i)/length)
		eta.Set2(i, 0, eta0[i])
	}
	eta.FillHalos()
	for s := 0; s < nsteps; s++ {
		require.NoError(t, m.Step(dt))
	}
	for i := 0; i < g.Nx; i++ {
		assert.InDelta(t, eta0[i], eta.At2(i, 0), 0.08*0.05, "i=%d", i)
	}
	// the corrected 3D velocity carries the averaged barotropic mode
	for i := 0; i < g.Nx; i++ {
		var s float64
		for k := 0; k < g.Nz; k++ {
			s += m.U.At(i, 0, k) * g.DzC(k)
		}
		assert.InDelta(t, fs.FS.State.UBar.At2(i, 0), s, 1.e-10)
	}
}
