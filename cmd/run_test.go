package cmd

import (
	"testing"

	"github.com/magiconair/properties/assert"

	"github.com/jliuocean/oceanfv/grid"
	"github.com/jliuocean/oceanfv/params"
)

func TestRunGravityWave(t *testing.T) {
	var (
		err error
	)
	fileInput := []byte(`
Title: Test Case
Nx: 32
Ny: 1
Nz: 2
Lx: 1000.
Ly: 100.
Lz: 10.
TopologyX: Periodic
TopologyY: Flat
Gravity: 9.81
Dt: 1.
FinalTime: 10.
FreeSurfaceSolver: SplitExplicit # Can be Implicit
Integrator: ForwardBackward
InitialAmplitude: 0.01
InitialModeX: 1
`)
	var input params.SimulationParameters
	if err = input.Parse(fileInput); err != nil {
		panic(err)
	}
	assert.Equal(t, input.FreeSurfaceSolver, "SplitExplicit")
	assert.Equal(t, input.FinalTime, 10.)
	Run(&input)
}

func TestParseTopology(t *testing.T) {
	assert.Equal(t, parseTopology("Periodic"), grid.Periodic)
	assert.Equal(t, parseTopology(""), grid.Periodic)
	assert.Equal(t, parseTopology("Bounded"), grid.Bounded)
	assert.Equal(t, parseTopology("Flat"), grid.Flat)
}
