package model

import (
	"github.com/sirupsen/logrus"

	"github.com/jliuocean/oceanfv/field"
)

// DefaultChi is the quasi-Adams-Bashforth-2 offset. A small positive value
// damps the computational mode of the leapfrog-free AB2 blend.
const DefaultChi = 0.1

// Step advances the model by one outer step dt. The caller fills GU, GV, GB
// with the current explicit tendencies beforehand; the step blends them with
// the lagged tendencies as (1.5+chi) G(n) - (0.5+chi) G(n-1), advances the
// free surface, diffuses vertically and refreshes the hydrostatic pressure.
// The first step runs forward Euler since no lagged tendencies exist yet.
func (m *HydrostaticModel) Step(dt float64) error {
	chi := m.Chi
	if m.iteration == 0 {
		chi = -0.5
	}
	m.stepExplicit(dt, chi)

	// halo refresh overlaps the barotropic tendency integration; the
	// strategy completes the exchange before it reads any halo data
	ex := field.StartHaloExchange(m.U, m.V, m.B)
	m.FreeSurface.Prepare(m.GU, m.GUprev, m.GV, m.GVprev, chi)
	m.FreeSurface.WaitFor(ex)

	if err := m.FreeSurface.Advance(m.U, m.V, dt); err != nil {
		logrus.WithError(err).WithField("iteration", m.iteration).
			Error("free-surface advance failed; step aborted")
		return err
	}

	m.uDiff.Step(m.U, dt)
	m.vDiff.Step(m.V, dt)
	m.bDiff.Step(m.B, dt)
	field.StartHaloExchange(m.U, m.V, m.B).Wait()

	m.UpdateHydrostaticPressure()

	m.GU, m.GUprev = m.GUprev, m.GU
	m.GV, m.GVprev = m.GVprev, m.GV
	m.GB, m.GBprev = m.GBprev, m.GB
	m.iteration++
	return nil
}

// stepExplicit applies the blended tendencies to the interior, holding
// peripheral faces and immersed cells at exactly zero.
func (m *HydrostaticModel) stepExplicit(dt, chi float64) {
	var (
		g  = m.G
		ca = dt * (1.5 + chi)
		cb = dt * (0.5 + chi)
	)
	m.pm.RunParallel(func(cMin, cMax, bn int) {
		for c := cMin; c < cMax; c++ {
			i, j := g.ColumnIJ(c)
			for k := 0; k < g.Nz; k++ {
				if g.PeripheralFaceU(i, j, k) {
					m.U.Set(i, j, k, 0)
				} else {
					m.U.Add(i, j, k, ca*m.GU.At(i, j, k)-cb*m.GUprev.At(i, j, k))
				}
				if g.PeripheralFaceV(i, j, k) {
					m.V.Set(i, j, k, 0)
				} else {
					m.V.Add(i, j, k, ca*m.GV.At(i, j, k)-cb*m.GVprev.At(i, j, k))
				}
				if g.ImmersedCell(i, j, k) {
					m.B.Set(i, j, k, 0)
				} else {
					m.B.Add(i, j, k, ca*m.GB.At(i, j, k)-cb*m.GBprev.At(i, j, k))
				}
			}
		}
	})
}
