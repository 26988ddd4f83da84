package freesurface

import "github.com/jliuocean/oceanfv/field"

// CorrectBarotropicMode replaces the depth-integrated component of the 3D
// velocity with the time-averaged barotropic transport: for every column the
// current barotropic component is summed with cell-thickness weights, and
// (UBar - U)/H is added at every wet level. H is the discrete wet thickness
// of the face (HFC, HCF), so the corrected depth integral equals the
// averaged transport exactly, including over columns whose bottom sits
// between cell faces.
func (s *SplitExplicitFreeSurface) CorrectBarotropicMode(u, v *field.Field) {
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
			if h := st.HFC.At2(i, j); h > 0 && !g.PeripheralColumnFaceU(i, j) {
				du := (st.UBar.At2(i, j) - sumU) / h
				for k := 0; k < g.Nz; k++ {
					if !g.PeripheralFaceU(i, j, k) {
						u.Add(i, j, k, du)
					}
				}
			}
			if h := st.HCF.At2(i, j); h > 0 && !g.PeripheralColumnFaceV(i, j) {
				dv := (st.VBar.At2(i, j) - sumV) / h
				for k := 0; k < g.Nz; k++ {
					if !g.PeripheralFaceV(i, j, k) {
						v.Add(i, j, k, dv)
					}
				}
			}
		}
	})
	u.FillHalos()
	v.FillHalos()
	// the instantaneous transports now match the averaged mode
	st.U.CopyFrom(st.UBar)
	st.V.CopyFrom(st.VBar)
	st.U.FillHalos()
	st.V.FillHalos()
}
