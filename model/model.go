// Package model holds the hydrostatic model state and the outer time step:
// explicit quasi-Adams-Bashforth tendencies, the free-surface advance,
// vertically-implicit diffusion and the hydrostatic pressure update.
package model

import (
	"github.com/jliuocean/oceanfv/field"
	"github.com/jliuocean/oceanfv/freesurface"
	"github.com/jliuocean/oceanfv/grid"
	"github.com/jliuocean/oceanfv/utils"
)

// FreeSurface is the strategy advancing the surface height over one outer
// step. Prepare receives the current and lagged 3D tendencies before the
// baroclinic velocity update; Advance runs after it and applies whatever
// barotropic correction the scheme requires to the 3D velocities. WaitFor
// registers an in-flight halo exchange that Advance completes before
// reading any halo data, so the exchange can overlap other work.
type FreeSurface interface {
	Eta() *field.Field
	Prepare(gu, guPrev, gv, gvPrev *field.Field, chi float64)
	WaitFor(e *field.Exchange)
	Advance(u, v *field.Field, dt float64) error
}

// HydrostaticModel owns the prognostic fields of a single simulation. The
// tendency fields GU, GV, GB are filled by the caller before each Step; the
// model rotates them into the lagged slots afterwards.
type HydrostaticModel struct {
	G           *grid.RectilinearGrid
	FreeSurface FreeSurface

	U, V *field.Field // horizontal velocity, u at (f,c,c), v at (c,f,c)
	B    *field.Field // buoyancy, (c,c,c)
	PHy  *field.Field // hydrostatic pressure perturbation, (c,c,c)

	GU, GV, GB             *field.Field
	GUprev, GVprev, GBprev *field.Field

	Gravity float64
	Chi     float64 // quasi-AB2 offset
	Nu      float64 // vertical viscosity
	Kappa   float64 // vertical tracer diffusivity

	uDiff, vDiff, bDiff *VerticalDiffusion

	pm, pmWide *utils.PartitionMap
	iteration  int
}

// NewHydrostaticModel allocates all prognostic and tendency fields on g.
func NewHydrostaticModel(g *grid.RectilinearGrid, fs FreeSurface, gravity, nu, kappa float64) *HydrostaticModel {
	m := &HydrostaticModel{
		G:           g,
		FreeSurface: fs,
		U:           field.NewField(g, field.LocFCC),
		V:           field.NewField(g, field.LocCFC),
		B:           field.NewField(g, field.LocCCC),
		PHy:         field.NewField(g, field.LocCCC),
		GU:          field.NewField(g, field.LocFCC),
		GV:          field.NewField(g, field.LocCFC),
		GB:          field.NewField(g, field.LocCCC),
		GUprev:      field.NewField(g, field.LocFCC),
		GVprev:      field.NewField(g, field.LocCFC),
		GBprev:      field.NewField(g, field.LocCCC),
		Gravity:     gravity,
		Chi:         DefaultChi,
		Nu:          nu,
		Kappa:       kappa,
		pm:          utils.NewPartitionMap(utils.DefaultParallelDegree(), g.Columns()),
		pmWide:      utils.NewPartitionMap(utils.DefaultParallelDegree(), (g.Nx+2*g.Hx)*(g.Ny+2*g.Hy)),
	}
	m.uDiff = NewVerticalDiffusion(g, nu, func(i, j, k int) bool { return !g.PeripheralFaceU(i, j, k) })
	m.vDiff = NewVerticalDiffusion(g, nu, func(i, j, k int) bool { return !g.PeripheralFaceV(i, j, k) })
	m.bDiff = NewVerticalDiffusion(g, kappa, func(i, j, k int) bool { return !g.ImmersedCell(i, j, k) })
	return m
}

// Iteration is the number of completed outer steps.
func (m *HydrostaticModel) Iteration() int { return m.iteration }

// SplitExplicitSurface advances the surface by barotropic sub-stepping and
// replaces the depth mean of the 3D velocities with the averaged transport.
type SplitExplicitSurface struct {
	FS *freesurface.SplitExplicitFreeSurface
}

func NewSplitExplicitSurface(g *grid.RectilinearGrid, integ freesurface.Integrator, gravity float64) *SplitExplicitSurface {
	return &SplitExplicitSurface{FS: freesurface.NewSplitExplicit(g, integ, gravity)}
}

func (s *SplitExplicitSurface) Eta() *field.Field { return s.FS.State.Eta }

func (s *SplitExplicitSurface) Prepare(gu, guPrev, gv, gvPrev *field.Field, chi float64) {
	s.FS.SetBarotropicTendencies(gu, guPrev, gv, gvPrev, chi)
}

func (s *SplitExplicitSurface) WaitFor(e *field.Exchange) { s.FS.WaitFor(e) }

func (s *SplitExplicitSurface) Advance(u, v *field.Field, dt float64) error {
	s.FS.Step(dt)
	s.FS.CorrectBarotropicMode(u, v)
	return nil
}

// ImplicitSurface advances the surface with one elliptic solve per outer
// step, then removes the implied surface-gradient acceleration from the 3D
// velocities as a fractional-step correction.
type ImplicitSurface struct {
	G       *grid.RectilinearGrid
	IFS     *freesurface.ImplicitFreeSurface
	Gravity float64

	eta, bU, bV *field.Field
	pending     *field.Exchange
}

func NewImplicitSurface(g *grid.RectilinearGrid, gravity float64) *ImplicitSurface {
	return &ImplicitSurface{
		G:       g,
		IFS:     freesurface.NewImplicitFreeSurface(g, gravity),
		Gravity: gravity,
		eta:     field.NewXYField(g, field.LocCCF),
		bU:      field.NewXYField(g, field.LocFCC),
		bV:      field.NewXYField(g, field.LocCFC),
	}
}

func (s *ImplicitSurface) Eta() *field.Field { return s.eta }

// Prepare is a no-op: the implicit scheme sees the surface gradient through
// the elliptic system, not through the explicit tendencies.
func (s *ImplicitSurface) Prepare(gu, guPrev, gv, gvPrev *field.Field, chi float64) {}

// WaitFor registers the halo exchange Advance must complete before it
// depth-integrates the transports.
func (s *ImplicitSurface) WaitFor(e *field.Exchange) { s.pending = e }

func (s *ImplicitSurface) Advance(u, v *field.Field, dt float64) error {
	s.pending.Wait()
	s.pending = nil
	var g = s.G
	s.bU.Zero()
	s.bV.Zero()
	for j := 0; j < g.Ny; j++ {
		for i := 0; i < g.Nx; i++ {
			for k := 0; k < g.Nz; k++ {
				if !g.PeripheralFaceU(i, j, k) {
					s.bU.Add2(i, j, u.At(i, j, k)*g.DzC(k))
				}
				if !g.PeripheralFaceV(i, j, k) {
					s.bV.Add2(i, j, v.At(i, j, k)*g.DzC(k))
				}
			}
		}
	}
	s.bU.FillHalos()
	s.bV.FillHalos()
	if _, err := s.IFS.Step(s.eta, s.bU, s.bV, dt); err != nil {
		return err
	}
	// fractional-step correction with the new surface
	for j := 0; j < g.Ny; j++ {
		for i := 0; i < g.Nx; i++ {
			for k := 0; k < g.Nz; k++ {
				if !g.PeripheralFaceU(i, j, k) {
					u.Add(i, j, k, -dt*s.Gravity*(s.eta.At2(i, j)-s.eta.At2(i-1, j))/g.Dx())
				}
				if !g.PeripheralFaceV(i, j, k) {
					v.Add(i, j, k, -dt*s.Gravity*(s.eta.At2(i, j)-s.eta.At2(i, j-1))/g.Dy())
				}
			}
		}
	}
	u.FillHalos()
	v.FillHalos()
	return nil
}
