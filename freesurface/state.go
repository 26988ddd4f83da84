package freesurface

import (
	"github.com/jliuocean/oceanfv/field"
	"github.com/jliuocean/oceanfv/grid"
)

// State holds the barotropic variables of the split-explicit free surface:
// the surface height and transports at the current and two lagged sub-step
// levels, their time-weighted running averages, the vertically integrated
// forcing, and the wet column thicknesses at the transport locations.
type State struct {
	Eta                  *field.Field // committed (averaged) surface height
	EtaM, EtaMm1, EtaMm2 *field.Field // sub-step levels m, m-1, m-2
	U, UMm1, UMm2        *field.Field // zonal transport and lags
	V, VMm1, VMm2        *field.Field // meridional transport and lags
	EtaBar, UBar, VBar   *field.Field // running averages over the sub-step window
	GU, GV               *field.Field // vertically integrated forcing
	HFC, HCF             *field.Field // wet column thicknesses at u- and v-faces
}

func NewState(g *grid.RectilinearGrid) *State {
	st := &State{
		Eta:    field.NewXYField(g, field.LocCCF),
		EtaM:   field.NewXYField(g, field.LocCCF),
		EtaMm1: field.NewXYField(g, field.LocCCF),
		EtaMm2: field.NewXYField(g, field.LocCCF),
		U:      field.NewXYField(g, field.LocFCC),
		UMm1:   field.NewXYField(g, field.LocFCC),
		UMm2:   field.NewXYField(g, field.LocFCC),
		V:      field.NewXYField(g, field.LocCFC),
		VMm1:   field.NewXYField(g, field.LocCFC),
		VMm2:   field.NewXYField(g, field.LocCFC),
		EtaBar: field.NewXYField(g, field.LocCCF),
		UBar:   field.NewXYField(g, field.LocFCC),
		VBar:   field.NewXYField(g, field.LocCFC),
		GU:     field.NewXYField(g, field.LocFCC),
		GV:     field.NewXYField(g, field.LocCFC),
		HFC:    field.NewXYField(g, field.LocFCC),
		HCF:    field.NewXYField(g, field.LocCFC),
	}
	// discrete wet thicknesses, so that depth integrals over a face's wet
	// levels divide out exactly even when the bottom sits between cell faces
	for j := 0; j < g.Ny; j++ {
		for i := 0; i <= g.Nx; i++ {
			st.HFC.Set2(i, j, g.WetDepthFC(i, j))
		}
	}
	for j := 0; j <= g.Ny; j++ {
		for i := 0; i < g.Nx; i++ {
			st.HCF.Set2(i, j, g.WetDepthCF(i, j))
		}
	}
	return st
}
