package model

// UpdateHydrostaticPressure recomputes the hydrostatic pressure perturbation
// by integrating interpolated buoyancy downward from the surface:
//
//	pHY'[Nz-1] = -bbar(Nz) DzF(Nz)
//	pHY'[k]    = pHY'[k+1] - bbar(k+1) DzF(k+1)
//
// where bbar(k) is buoyancy interpolated to face k. The recurrence is
// sequential in the vertical and parallel across columns. The horizontal
// region is widened by the halo on each side so that boundary-adjacent
// partial cells of an immersed bottom read a valid pressure without an
// extra halo pass.
func (m *HydrostaticModel) UpdateHydrostaticPressure() {
	var (
		g   = m.G
		nxw = g.Nx + 2*g.Hx
		top = g.Nz - 1
	)
	m.pmWide.RunParallel(func(cMin, cMax, bn int) {
		for c := cMin; c < cMax; c++ {
			var (
				j = c/nxw - g.Hy
				i = c%nxw - g.Hx
			)
			bbar := 0.5 * (m.B.At(i, j, top) + m.B.At(i, j, top+1))
			m.PHy.Set(i, j, top, -bbar*g.DzF(top+1))
			for k := top - 1; k >= 0; k-- {
				bbar = 0.5 * (m.B.At(i, j, k) + m.B.At(i, j, k+1))
				m.PHy.Set(i, j, k, m.PHy.At(i, j, k+1)-bbar*g.DzF(k+1))
			}
		}
	})
}
