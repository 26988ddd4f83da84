package freesurface

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jliuocean/oceanfv/field"
	"github.com/jliuocean/oceanfv/grid"
)

func TestCorrectBarotropicModePartialColumns(t *testing.T) {
	// bottom at -45 over half the channel with 10 m cells: the wet thickness
	// (50) differs from the still-water face depth (45), and the corrected
	// depth integral must still match the averaged transport exactly
	g, err := grid.NewRectilinearGrid(8, 1, 8, 800, 100, 80, grid.Periodic, grid.Flat)
	require.NoError(t, err)
	g.SetBottomHeight(func(x, y float64) float64 {
		if x < 400 {
			return -45
		}
		return -80
	})
	fs := NewSplitExplicit(g, NewForwardBackward(), 9.81)
	var (
		u = field.NewField(g, field.LocFCC)
		v = field.NewField(g, field.LocCFC)
	)
	for i := 0; i < g.Nx; i++ {
		fs.State.UBar.Set2(i, 0, 1)
		for k := 0; k < g.Nz; k++ {
			u.Set(i, 0, k, 0.3)
		}
	}
	fs.State.UBar.FillHalos()
	fs.CorrectBarotropicMode(u, v)
	for i := 0; i < g.Nx; i++ {
		var s, wet float64
		for k := 0; k < g.Nz; k++ {
			if g.PeripheralFaceU(i, 0, k) {
				// blocked levels are untouched
				assert.Equal(t, 0.3, u.At(i, 0, k), "i=%d k=%d", i, k)
				continue
			}
			s += u.At(i, 0, k) * g.DzC(k)
			wet += g.DzC(k)
		}
		assert.InDelta(t, 1., s, 1.e-12, "i=%d", i)
		assert.Equal(t, wet, fs.State.HFC.At2(i, 0), "i=%d", i)
	}
	// the corrector also commits the averaged transports as current state
	assert.Equal(t, 1., fs.State.U.At2(3, 0))
}
