// Package field provides halo-padded 3D arrays addressed at staggered grid
// locations, with halo filling for periodic and bounded axis topologies and an
// asynchronous exchange handle modeled on distributed halo communication.
package field

import (
	"fmt"

	"github.com/jliuocean/oceanfv/grid"
)

// Location tags one axis of a staggered variable.
type Location uint8

const (
	Center Location = iota
	Face
)

// Loc is the full staggering of a field: velocity u lives at (Face, Center,
// Center), the free surface at (Center, Center, Face) on a single level.
type Loc struct {
	X, Y, Z Location
}

var (
	LocCCC = Loc{Center, Center, Center}
	LocFCC = Loc{Face, Center, Center}
	LocCFC = Loc{Center, Face, Center}
	LocCCF = Loc{Center, Center, Face}
)

// Field is a halo-padded array of values on a grid. Interior indices run
// 0..Nx-1 (faces may additionally address index Nx, which lands in the halo).
// A Field with NzData == 1 is a horizontal (barotropic) field: the free
// surface, vertically integrated transports, column depths.
type Field struct {
	G *grid.RectilinearGrid
	L Loc

	data       []float64
	sx, sy, sz int // allocated extents including halos
	NzData     int // vertical interior extent: grid Nz, or 1 for 2D fields
}

// NewField allocates a 3D field on g at location l, zero initialized.
func NewField(g *grid.RectilinearGrid, l Loc) *Field {
	return newField(g, l, g.Nz)
}

// NewXYField allocates a single-level horizontal field, used for the free
// surface and barotropic transports.
func NewXYField(g *grid.RectilinearGrid, l Loc) *Field {
	return newField(g, l, 1)
}

func newField(g *grid.RectilinearGrid, l Loc, nzData int) *Field {
	f := &Field{
		G:      g,
		L:      l,
		sx:     g.Nx + 2*g.Hx,
		sy:     g.Ny + 2*g.Hy,
		NzData: nzData,
	}
	f.sz = nzData + 2*g.Hz
	f.data = make([]float64, f.sx*f.sy*f.sz)
	return f
}

func (f *Field) ind(i, j, k int) int {
	var (
		ii = i + f.G.Hx
		jj = j + f.G.Hy
		kk = k + f.G.Hz
	)
	if ii < 0 || ii >= f.sx || jj < 0 || jj >= f.sy || kk < 0 || kk >= f.sz {
		panic(fmt.Sprintf("field index (%d,%d,%d) outside halo-padded extent (%d,%d,%d)",
			i, j, k, f.sx, f.sy, f.sz))
	}
	return ii + f.sx*(jj+f.sy*kk)
}

func (f *Field) At(i, j, k int) float64     { return f.data[f.ind(i, j, k)] }
func (f *Field) Set(i, j, k int, v float64) { f.data[f.ind(i, j, k)] = v }
func (f *Field) Add(i, j, k int, v float64) { f.data[f.ind(i, j, k)] += v }

// At2 and Set2 address single-level fields without a vertical index.
func (f *Field) At2(i, j int) float64     { return f.At(i, j, 0) }
func (f *Field) Set2(i, j int, v float64) { f.Set(i, j, 0, v) }
func (f *Field) Add2(i, j int, v float64) { f.Add(i, j, 0, v) }

// Zero resets every value including halos.
func (f *Field) Zero() {
	for i := range f.data {
		f.data[i] = 0
	}
}

// CopyFrom copies all values (halos included) from src, which must share the
// grid and vertical extent.
func (f *Field) CopyFrom(src *Field) {
	if len(src.data) != len(f.data) {
		panic(fmt.Sprintf("field copy extent mismatch: %d vs %d", len(src.data), len(f.data)))
	}
	copy(f.data, src.data)
}

// Swap exchanges the storage of two congruent fields. Lagged time levels are
// rotated by pointer swap rather than copying.
func (f *Field) Swap(o *Field) {
	if len(o.data) != len(f.data) {
		panic(fmt.Sprintf("field swap extent mismatch: %d vs %d", len(o.data), len(f.data)))
	}
	f.data, o.data = o.data, f.data
}

// SumInterior sums interior values (excluding halos), one vertical level for
// 2D fields.
func (f *Field) SumInterior() (sum float64) {
	for k := 0; k < f.NzData; k++ {
		for j := 0; j < f.G.Ny; j++ {
			for i := 0; i < f.G.Nx; i++ {
				sum += f.At(i, j, k)
			}
		}
	}
	return
}

// MaxAbsInterior returns the largest magnitude over the interior.
func (f *Field) MaxAbsInterior() (m float64) {
	for k := 0; k < f.NzData; k++ {
		for j := 0; j < f.G.Ny; j++ {
			for i := 0; i < f.G.Nx; i++ {
				v := f.At(i, j, k)
				if v < 0 {
					v = -v
				}
				if v > m {
					m = v
				}
			}
		}
	}
	return
}

// FillHalos makes halo values consistent with the axis topologies: periodic
// axes wrap, bounded and flat axes copy the nearest interior value
// (zero-gradient). Vertical halos always copy.
func (f *Field) FillHalos() {
	var (
		g  = f.G
		nz = f.NzData
	)
	// z halos: clamped copy of the nearest interior level
	for h := 1; h <= g.Hz; h++ {
		for j := 0; j < g.Ny; j++ {
			for i := 0; i < g.Nx; i++ {
				f.Set(i, j, -h, f.At(i, j, 0))
				f.Set(i, j, nz-1+h, f.At(i, j, nz-1))
			}
		}
	}
	// x halos
	for k := -g.Hz; k < nz+g.Hz; k++ {
		kc := clamp(k, 0, nz-1)
		for j := 0; j < g.Ny; j++ {
			for h := 1; h <= g.Hx; h++ {
				switch {
				case g.TopoX == grid.Periodic:
					f.Set(-h, j, k, f.At(g.Nx-h, j, kc))
					f.Set(g.Nx-1+h, j, k, f.At(h-1, j, kc))
				case f.L.X == Face:
					// no-penetration: normal faces on and beyond a closed
					// boundary carry no flow
					if h == 1 {
						f.Set(0, j, k, 0)
					}
					f.Set(-h, j, k, 0)
					f.Set(g.Nx-1+h, j, k, 0)
				default:
					f.Set(-h, j, k, f.At(0, j, kc))
					f.Set(g.Nx-1+h, j, k, f.At(g.Nx-1, j, kc))
				}
			}
		}
	}
	// y halos, including the x halo corners filled above
	for k := -g.Hz; k < nz+g.Hz; k++ {
		kc := clamp(k, 0, nz-1)
		for i := -g.Hx; i < g.Nx+g.Hx; i++ {
			for h := 1; h <= g.Hy; h++ {
				switch {
				case g.TopoY == grid.Periodic:
					f.Set(i, -h, k, f.At(i, g.Ny-h, kc))
					f.Set(i, g.Ny-1+h, k, f.At(i, h-1, kc))
				case f.L.Y == Face:
					if h == 1 {
						f.Set(i, 0, k, 0)
					}
					f.Set(i, -h, k, 0)
					f.Set(i, g.Ny-1+h, k, 0)
				default:
					f.Set(i, -h, k, f.At(i, 0, kc))
					f.Set(i, g.Ny-1+h, k, f.At(i, g.Ny-1, kc))
				}
			}
		}
	}
}

func clamp(k, lo, hi int) int {
	if k < lo {
		return lo
	}
	if k > hi {
		return hi
	}
	return k
}
