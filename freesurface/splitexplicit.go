package freesurface

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/jliuocean/oceanfv/field"
	"github.com/jliuocean/oceanfv/grid"
	"github.com/jliuocean/oceanfv/utils"
)

// DefaultBarotropicCFL is the target Courant number for the computed
// sub-step size when no fixed sub-step count is configured.
const DefaultBarotropicCFL = 0.7

// SplitExplicitFreeSurface advances the barotropic mode through many small
// sub-steps inside one outer (baroclinic) step, then time-averages the
// sub-step trajectory. The averaged surface becomes the new free surface and
// the averaged transport corrects the 3D velocity (CorrectBarotropicMode).
//
// A Step is strictly sequential over its sub-steps; across columns within a
// sub-step all work is dispatched in parallel.
type SplitExplicitFreeSurface struct {
	G          *grid.RectilinearGrid
	State      *State
	Integrator Integrator
	Gravity    float64

	// FixedSubsteps pins the sub-step count; zero selects the count from
	// the barotropic gravity-wave CFL.
	FixedSubsteps int
	CFL           float64

	pm      *utils.PartitionMap
	pending *field.Exchange

	etaNew, uNew, vNew *field.Field // sub-step targets, rotated into the lags

	weights  []float64
	weightsN int
}

func NewSplitExplicit(g *grid.RectilinearGrid, integ Integrator, gravity float64) *SplitExplicitFreeSurface {
	return &SplitExplicitFreeSurface{
		G:          g,
		State:      NewState(g),
		Integrator: integ,
		Gravity:    gravity,
		CFL:        DefaultBarotropicCFL,
		pm:         utils.NewPartitionMap(utils.DefaultParallelDegree(), g.Columns()),
		etaNew:     field.NewXYField(g, field.LocCCF),
		uNew:       field.NewXYField(g, field.LocFCC),
		vNew:       field.NewXYField(g, field.LocCFC),
	}
}

// Nsubsteps is the sub-step count for an outer step of length dt: the fixed
// count if configured, otherwise the count keeping the sub-step gravity-wave
// Courant number at s.CFL over the full averaging window (twice the outer
// step). Never fewer than MinSubsteps.
func (s *SplitExplicitFreeSurface) Nsubsteps(dt float64) (n int) {
	if s.FixedSubsteps > 0 {
		n = s.FixedSubsteps
	} else {
		var (
			g    = s.G
			c    = math.Sqrt(s.Gravity * g.Lz) // fastest surface gravity wave
			dmin = g.Dx()
		)
		if g.TopoY != grid.Flat && g.Dy() < dmin {
			dmin = g.Dy()
		}
		dtau := s.CFL * dmin / c
		n = int(math.Ceil(2 * dt / dtau))
	}
	if n < MinSubsteps {
		n = MinSubsteps
	}
	return
}

// WaitFor registers an in-flight halo exchange that Step must complete
// before it reads any halo data.
func (s *SplitExplicitFreeSurface) WaitFor(e *field.Exchange) {
	s.pending = e
}

// SetBarotropicTendencies computes the vertically integrated forcing GU, GV
// from the current and previous 3D momentum tendencies with an
// Adams-Bashforth-2 blend, (1.5+chi)*G - (0.5+chi)*Gprev. Contributions at
// immersed or peripheral faces are exactly zero.
func (s *SplitExplicitFreeSurface) SetBarotropicTendencies(gu, guPrev, gv, gvPrev *field.Field, chi float64) {
	var (
		g  = s.G
		st = s.State
		w0 = 1.5 + chi
		w1 = -(0.5 + chi)
	)
	s.pm.RunParallel(func(cMin, cMax, bn int) {
		for col := cMin; col < cMax; col++ {
			i, j := g.ColumnIJ(col)
			var sumU, sumV float64
			for k := 0; k < g.Nz; k++ {
				dz := g.DzC(k)
				if !g.PeripheralFaceU(i, j, k) {
					sumU += (w0*gu.At(i, j, k) + w1*guPrev.At(i, j, k)) * dz
				}
				if !g.PeripheralFaceV(i, j, k) {
					sumV += (w0*gv.At(i, j, k) + w1*gvPrev.At(i, j, k)) * dz
				}
			}
			if g.PeripheralColumnFaceU(i, j) {
				sumU = 0
			}
			if g.PeripheralColumnFaceV(i, j) {
				sumV = 0
			}
			st.GU.Set2(i, j, sumU)
			st.GV.Set2(i, j, sumV)
		}
	})
	st.GU.FillHalos()
	st.GV.FillHalos()
}

// ComputeBarotropicMode sets the transports U, V to the depth integrals of
// the 3D velocity components.
func (s *SplitExplicitFreeSurface) ComputeBarotropicMode(u, v *field.Field) {
	var (
		g  = s.G
		st = s.State
	)
	s.pm.RunParallel(func(cMin, cMax, bn int) {
		for col := cMin; col < cMax; col++ {
			i, j := g.ColumnIJ(col)
			var sumU, sumV float64
			for k := 0; k < g.Nz; k++ {
				dz := g.DzC(k)
				if !g.PeripheralFaceU(i, j, k) {
					sumU += u.At(i, j, k) * dz
				}
				if !g.PeripheralFaceV(i, j, k) {
					sumV += v.At(i, j, k) * dz
				}
			}
			st.U.Set2(i, j, sumU)
			st.V.Set2(i, j, sumV)
		}
	})
	st.U.FillHalos()
	st.V.FillHalos()
}

// Step runs one outer free-surface step: seed the lagged levels from the
// previous averaged state, advance Nsubsteps(dt) barotropic sub-steps, then
// commit the time-averaged surface. Call CorrectBarotropicMode afterwards to
// push the averaged transport back into the 3D velocity.
func (s *SplitExplicitFreeSurface) Step(dt float64) {
	var (
		st = s.State
		n  = s.Nsubsteps(dt)
	)
	s.pending.Wait()
	s.pending = nil
	if s.weightsN != n {
		s.weights = AveragingWeights(n)
		s.weightsN = n
		logrus.WithFields(logrus.Fields{
			"substeps":   n,
			"integrator": s.Integrator.Kind.String(),
		}).Debug("barotropic sub-step window changed")
	}
	// sub-steps sweep the full averaging window of two outer steps
	dtau := 2 * dt / float64(n)

	st.Eta.FillHalos()
	st.EtaM.CopyFrom(st.Eta)
	st.EtaMm1.CopyFrom(st.Eta)
	st.EtaMm2.CopyFrom(st.Eta)
	st.UMm1.CopyFrom(st.U)
	st.UMm2.CopyFrom(st.U)
	st.VMm1.CopyFrom(st.V)
	st.VMm2.CopyFrom(st.V)
	st.EtaBar.Zero()
	st.UBar.Zero()
	st.VBar.Zero()

	for m := 0; m < n; m++ {
		s.substep(dtau, s.weights[m])
	}

	st.Eta.CopyFrom(st.EtaBar)
	st.Eta.FillHalos()
}

func (s *SplitExplicitFreeSurface) substep(dtau, wm float64) {
	var (
		g     = s.G
		st    = s.State
		integ = s.Integrator
		area  = g.AreaXY()
	)
	uStar := func(i, j int) float64 {
		if g.PeripheralColumnFaceU(i, j) {
			return 0
		}
		return integ.Alpha*st.U.At2(i, j) + integ.Theta*st.UMm1.At2(i, j) + integ.Beta*st.UMm2.At2(i, j)
	}
	vStar := func(i, j int) float64 {
		if g.PeripheralColumnFaceV(i, j) {
			return 0
		}
		return integ.Alpha*st.V.At2(i, j) + integ.Theta*st.VMm1.At2(i, j) + integ.Beta*st.VMm2.At2(i, j)
	}

	// advance the surface with the divergence of the extrapolated transport
	s.pm.RunParallel(func(cMin, cMax, bn int) {
		for col := cMin; col < cMax; col++ {
			i, j := g.ColumnIJ(col)
			div := (uStar(i+1, j)-uStar(i, j))*g.Dy() + (vStar(i, j+1)-vStar(i, j))*g.Dx()
			eta := st.EtaM.At2(i, j) - dtau*div/area
			s.etaNew.Set2(i, j, eta)
			st.EtaBar.Add2(i, j, wm*eta)
		}
	})
	s.etaNew.FillHalos()

	// advance the transport with the gradient of the extrapolated surface
	etaStar := func(i, j int) float64 {
		return integ.Delta*s.etaNew.At2(i, j) + integ.Mu*st.EtaM.At2(i, j) +
			integ.Gamma*st.EtaMm1.At2(i, j) + integ.Epsilon*st.EtaMm2.At2(i, j)
	}
	s.pm.RunParallel(func(cMin, cMax, bn int) {
		for col := cMin; col < cMax; col++ {
			i, j := g.ColumnIJ(col)
			var un, vn float64
			if !g.PeripheralColumnFaceU(i, j) {
				grad := (etaStar(i, j) - etaStar(i-1, j)) / g.Dx()
				un = st.U.At2(i, j) + dtau*(-s.Gravity*st.HFC.At2(i, j)*grad+st.GU.At2(i, j))
			}
			if !g.PeripheralColumnFaceV(i, j) {
				grad := (etaStar(i, j) - etaStar(i, j-1)) / g.Dy()
				vn = st.V.At2(i, j) + dtau*(-s.Gravity*st.HCF.At2(i, j)*grad+st.GV.At2(i, j))
			}
			s.uNew.Set2(i, j, un)
			s.vNew.Set2(i, j, vn)
			st.UBar.Add2(i, j, wm*un)
			st.VBar.Add2(i, j, wm*vn)
		}
	})
	s.uNew.FillHalos()
	s.vNew.FillHalos()

	// rotate the lagged levels; the oldest buffer becomes the next target
	st.EtaMm2, st.EtaMm1, st.EtaM, s.etaNew = st.EtaMm1, st.EtaM, s.etaNew, st.EtaMm2
	st.UMm2, st.UMm1, st.U, s.uNew = st.UMm1, st.U, s.uNew, st.UMm2
	st.VMm2, st.VMm1, st.V, s.vNew = st.VMm1, st.V, s.vNew, st.VMm2
}
