package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jliuocean/oceanfv/field"
	"github.com/jliuocean/oceanfv/grid"
)

func TestVerticalDiffusionConservesAndSmooths(t *testing.T) {
	g, err := grid.NewRectilinearGrid(4, 4, 16, 400, 400, 32, grid.Periodic, grid.Periodic)
	require.NoError(t, err)
	d := NewVerticalDiffusion(g, 1.e-2, func(i, j, k int) bool { return !g.ImmersedCell(i, j, k) })
	phi := field.NewField(g, field.LocCCC)
	for k := 0; k < g.Nz; k++ {
		for j := 0; j < g.Ny; j++ {
			for i := 0; i < g.Nx; i++ {
				phi.Set(i, j, k, math.Sin(float64(k))+0.3*float64(i))
			}
		}
	}
	colInt := func(i, j int) (s float64) {
		for k := 0; k < g.Nz; k++ {
			s += phi.At(i, j, k) * g.DzC(k)
		}
		return
	}
	variance := func(i, j int) (v float64) {
		mean := colInt(i, j) / g.Lz
		for k := 0; k < g.Nz; k++ {
			dev := phi.At(i, j, k) - mean
			v += dev * dev * g.DzC(k)
		}
		return
	}
	var before, varBefore [16]float64
	for c := 0; c < g.Columns(); c++ {
		i, j := g.ColumnIJ(c)
		before[c] = colInt(i, j)
		varBefore[c] = variance(i, j)
	}
	d.Step(phi, 100)
	for c := 0; c < g.Columns(); c++ {
		i, j := g.ColumnIJ(c)
		assert.InDelta(t, before[c], colInt(i, j), 1.e-10, "column %d", c)
		assert.Less(t, variance(i, j), varBefore[c], "column %d", c)
	}
}

func TestVerticalDiffusionFlatProfileFixed(t *testing.T) {
	g, err := grid.NewRectilinearGrid(2, 2, 8, 200, 200, 16, grid.Periodic, grid.Periodic)
	require.NoError(t, err)
	d := NewVerticalDiffusion(g, 5, func(i, j, k int) bool { return !g.ImmersedCell(i, j, k) })
	phi := field.NewField(g, field.LocCCC)
	for k := 0; k < g.Nz; k++ {
		for j := 0; j < g.Ny; j++ {
			for i := 0; i < g.Nx; i++ {
				phi.Set(i, j, k, 3.5)
			}
		}
	}
	d.Step(phi, 10)
	for k := 0; k < g.Nz; k++ {
		assert.InDelta(t, 3.5, phi.At(1, 1, k), 1.e-12)
	}
}

func TestVerticalDiffusionHomogenizesAtLargeKappaDt(t *testing.T) {
	g, err := grid.NewRectilinearGrid(2, 1, 8, 200, 100, 8, grid.Periodic, grid.Periodic)
	require.NoError(t, err)
	d := NewVerticalDiffusion(g, 1.e6, func(i, j, k int) bool { return !g.ImmersedCell(i, j, k) })
	phi := field.NewField(g, field.LocCCC)
	var mean float64
	for k := 0; k < g.Nz; k++ {
		v := float64(k * k)
		mean += v * g.DzC(k) / g.Lz
		for i := 0; i < g.Nx; i++ {
			phi.Set(i, 0, k, v)
		}
	}
	d.Step(phi, 1)
	for k := 0; k < g.Nz; k++ {
		assert.InDelta(t, mean, phi.At(0, 0, k), 1.e-3)
	}
}

func TestVerticalDiffusionSkipsImmersedLevels(t *testing.T) {
	g, err := grid.NewRectilinearGrid(4, 1, 8, 400, 100, 16, grid.Periodic, grid.Periodic)
	require.NoError(t, err)
	// column i=1 is blocked over its lower half
	g.SetBottomHeight(func(x, y float64) float64 {
		if x > 100 && x < 200 {
			return -8
		}
		return -16
	})
	d := NewVerticalDiffusion(g, 1, func(i, j, k int) bool { return !g.ImmersedCell(i, j, k) })
	phi := field.NewField(g, field.LocCCC)
	for k := 0; k < g.Nz; k++ {
		for i := 0; i < g.Nx; i++ {
			if g.ImmersedCell(i, 0, k) {
				phi.Set(i, 0, k, -77) // sentinel below the bottom
			} else {
				phi.Set(i, 0, k, float64(k))
			}
		}
	}
	d.Step(phi, 2)
	for k := 0; k < 4; k++ {
		assert.Equal(t, -77., phi.At(1, 0, k))
	}
	// wet part of the blocked column still conserves its own integral
	var s float64
	for k := 4; k < 8; k++ {
		s += phi.At(1, 0, k) * g.DzC(k)
	}
	assert.InDelta(t, (4+5+6+7)*2., s, 1.e-10)
}
