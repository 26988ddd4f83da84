package grid

import (
	"fmt"
	"math"
)

// Topology describes the connection rule applied along one axis.
type Topology uint8

const (
	Periodic Topology = iota
	Bounded
	Flat
)

var topologyNames = []string{"Periodic", "Bounded", "Flat"}

func (t Topology) String() string {
	if int(t) >= len(topologyNames) {
		return fmt.Sprintf("Topology(%d)", t)
	}
	return topologyNames[t]
}

// RectilinearGrid is an immutable structured grid: uniform spacing in x and y,
// uniform or stretched spacing in z. Cells are indexed 0..N-1 per axis, faces
// 0..N. Vertical face Nz is the still-water surface at z = 0, face 0 is the
// deepest face at z = -Lz.
//
// The grid also carries the immersed-boundary description: a bottom height per
// horizontal column. Columns with bottom height at the surface are permanently
// dry; cells whose center sits below the bottom are immersed.
type RectilinearGrid struct {
	Nx, Ny, Nz          int
	Hx, Hy, Hz          int // halo widths
	TopoX, TopoY, TopoZ Topology

	Lx, Ly, Lz float64
	dx, dy     float64

	zFaces  []float64 // length Nz+1, strictly increasing, zFaces[Nz] == 0
	zCenter []float64 // length Nz

	bottom []float64 // bottom height per column, index i + Nx*j, in [-Lz, 0]
}

// NewRectilinearGrid builds a flat-bottom grid with uniform vertical spacing.
func NewRectilinearGrid(nx, ny, nz int, lx, ly, lz float64, topoX, topoY Topology) (*RectilinearGrid, error) {
	zFaces := make([]float64, nz+1)
	for k := 0; k <= nz; k++ {
		zFaces[k] = -lz + lz*float64(k)/float64(nz)
	}
	zFaces[nz] = 0
	return NewStretchedGrid(nx, ny, nz, lx, ly, zFaces, topoX, topoY)
}

// NewStretchedGrid builds a grid from explicit vertical face positions.
// zFaces must have length nz+1, be strictly increasing, and end at z = 0.
func NewStretchedGrid(nx, ny, nz int, lx, ly float64, zFaces []float64, topoX, topoY Topology) (g *RectilinearGrid, err error) {
	if nx < 1 || ny < 1 || nz < 1 {
		return nil, fmt.Errorf("grid size must be positive in every direction, got (%d,%d,%d)", nx, ny, nz)
	}
	if lx <= 0 || ly <= 0 {
		return nil, fmt.Errorf("grid extent must be positive, got Lx=%g, Ly=%g", lx, ly)
	}
	if len(zFaces) != nz+1 {
		return nil, fmt.Errorf("need %d vertical face positions for Nz=%d, got %d", nz+1, nz, len(zFaces))
	}
	for k := 0; k < nz; k++ {
		if zFaces[k+1] <= zFaces[k] {
			return nil, fmt.Errorf("vertical face positions must be strictly increasing: zFaces[%d]=%g, zFaces[%d]=%g",
				k, zFaces[k], k+1, zFaces[k+1])
		}
	}
	if math.Abs(zFaces[nz]) > 1.e-14*math.Abs(zFaces[0]) {
		return nil, fmt.Errorf("top vertical face must sit at z=0, got %g", zFaces[nz])
	}
	if topoX == Flat && nx != 1 || topoY == Flat && ny != 1 {
		return nil, fmt.Errorf("a Flat axis must have a single point, got (%d,%d) for (%s,%s)",
			nx, ny, topoX, topoY)
	}
	g = &RectilinearGrid{
		Nx: nx, Ny: ny, Nz: nz,
		Hx: 1, Hy: 1, Hz: 1,
		TopoX: topoX, TopoY: topoY, TopoZ: Bounded,
		Lx: lx, Ly: ly, Lz: -zFaces[0],
		dx: lx / float64(nx), dy: ly / float64(ny),
	}
	g.zFaces = append([]float64{}, zFaces...)
	g.zCenter = make([]float64, nz)
	for k := 0; k < nz; k++ {
		g.zCenter[k] = 0.5 * (zFaces[k] + zFaces[k+1])
	}
	g.bottom = make([]float64, nx*ny)
	for c := range g.bottom {
		g.bottom[c] = zFaces[0]
	}
	return g, nil
}

// SetBottomHeight installs an immersed boundary from a bottom height function
// z_b(x, y) evaluated at column centers. Heights are clamped to [-Lz, 0].
func (g *RectilinearGrid) SetBottomHeight(zb func(x, y float64) float64) {
	for j := 0; j < g.Ny; j++ {
		for i := 0; i < g.Nx; i++ {
			h := zb(g.XC(i), g.YC(j))
			if h < -g.Lz {
				h = -g.Lz
			}
			if h > 0 {
				h = 0
			}
			g.bottom[i+g.Nx*j] = h
		}
	}
}

// Metric accessors. Horizontal spacings are uniform; vertical spacings come
// from the face positions.

func (g *RectilinearGrid) Dx() float64 { return g.dx }
func (g *RectilinearGrid) Dy() float64 { return g.dy }

// DzC is the thickness of cell k (between faces k and k+1).
func (g *RectilinearGrid) DzC(k int) float64 {
	k = g.clampK(k, g.Nz-1)
	return g.zFaces[k+1] - g.zFaces[k]
}

// DzF is the spacing across face k (between centers of cells k-1 and k);
// boundary faces use the half-cell distance to the adjacent center.
func (g *RectilinearGrid) DzF(k int) float64 {
	switch {
	case k <= 0:
		return g.zCenter[0] - g.zFaces[0]
	case k >= g.Nz:
		return g.zFaces[g.Nz] - g.zCenter[g.Nz-1]
	default:
		return g.zCenter[k] - g.zCenter[k-1]
	}
}

func (g *RectilinearGrid) clampK(k, max int) int {
	if k < 0 {
		return 0
	}
	if k > max {
		return max
	}
	return k
}

func (g *RectilinearGrid) XC(i int) float64 { return (float64(i) + 0.5) * g.dx }
func (g *RectilinearGrid) XF(i int) float64 { return float64(i) * g.dx }
func (g *RectilinearGrid) YC(j int) float64 { return (float64(j) + 0.5) * g.dy }
func (g *RectilinearGrid) YF(j int) float64 { return float64(j) * g.dy }
func (g *RectilinearGrid) ZC(k int) float64 { return g.zCenter[g.clampK(k, g.Nz-1)] }
func (g *RectilinearGrid) ZF(k int) float64 { return g.zFaces[g.clampK(k, g.Nz)] }

// AreaXY is the horizontal cell area, uniform over the grid.
func (g *RectilinearGrid) AreaXY() float64 { return g.dx * g.dy }

// Columns is the number of horizontal columns, the unit of parallel work.
func (g *RectilinearGrid) Columns() int { return g.Nx * g.Ny }

// ColumnIJ inverts the linear column index c = i + Nx*j.
func (g *RectilinearGrid) ColumnIJ(c int) (i, j int) {
	j = c / g.Nx
	i = c - g.Nx*j
	return
}

// BottomHeight is the immersed-boundary height for column (i, j). Indices
// outside the interior wrap or clamp per the axis topology so halo-adjacent
// lookups are well defined.
func (g *RectilinearGrid) BottomHeight(i, j int) float64 {
	i = wrapIndex(i, g.Nx, g.TopoX)
	j = wrapIndex(j, g.Ny, g.TopoY)
	return g.bottom[i+g.Nx*j]
}

func wrapIndex(i, n int, topo Topology) int {
	if topo == Periodic {
		i = i % n
		if i < 0 {
			i += n
		}
		return i
	}
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// ColumnDepth is the still-water depth of column (i, j): zero for a
// permanently dry column.
func (g *RectilinearGrid) ColumnDepth(i, j int) float64 {
	return -g.BottomHeight(i, j)
}

// DepthFC is the still-water depth at the u-face between columns (i-1,j) and
// (i,j). The minimum of the two adjacent columns keeps transports through
// partially blocked faces from reaching into topography.
func (g *RectilinearGrid) DepthFC(i, j int) float64 {
	return math.Min(g.ColumnDepth(i-1, j), g.ColumnDepth(i, j))
}

// DepthCF is the still-water depth at the v-face between columns (i,j-1) and
// (i,j).
func (g *RectilinearGrid) DepthCF(i, j int) float64 {
	return math.Min(g.ColumnDepth(i, j-1), g.ColumnDepth(i, j))
}

// WetDepthFC is the discrete wet thickness at the u-face (i,j): the sum of
// cell thicknesses over levels whose face can carry flux. It differs from
// DepthFC when the bottom height falls between cell faces; depth integrals
// over the face's wet levels sum to exactly this value.
func (g *RectilinearGrid) WetDepthFC(i, j int) (h float64) {
	for k := 0; k < g.Nz; k++ {
		if !g.PeripheralFaceU(i, j, k) {
			h += g.DzC(k)
		}
	}
	return
}

// WetDepthCF is the discrete wet thickness at the v-face (i,j).
func (g *RectilinearGrid) WetDepthCF(i, j int) (h float64) {
	for k := 0; k < g.Nz; k++ {
		if !g.PeripheralFaceV(i, j, k) {
			h += g.DzC(k)
		}
	}
	return
}

// ImmersedCell reports whether the center of cell (i,j,k) sits below the
// bottom height.
func (g *RectilinearGrid) ImmersedCell(i, j, k int) bool {
	if k < 0 || k >= g.Nz {
		return true
	}
	return g.zCenter[k] < g.BottomHeight(i, j)
}

// PeripheralFaceU reports whether u-face (i,j,k) can never carry flux: either
// it lies on a Bounded x boundary or one of the neighboring cells is immersed.
func (g *RectilinearGrid) PeripheralFaceU(i, j, k int) bool {
	if g.TopoX == Bounded && (i <= 0 || i >= g.Nx) {
		return true
	}
	if g.TopoX == Flat {
		return true
	}
	return g.ImmersedCell(i-1, j, k) || g.ImmersedCell(i, j, k)
}

// PeripheralFaceV is the v-face analogue of PeripheralFaceU.
func (g *RectilinearGrid) PeripheralFaceV(i, j, k int) bool {
	if g.TopoY == Bounded && (j <= 0 || j >= g.Ny) {
		return true
	}
	if g.TopoY == Flat {
		return true
	}
	return g.ImmersedCell(i, j-1, k) || g.ImmersedCell(i, j, k)
}

// PeripheralColumnFaceU collapses PeripheralFaceU over depth: true when the
// barotropic u-face (i,j) can never carry transport.
func (g *RectilinearGrid) PeripheralColumnFaceU(i, j int) bool {
	if g.TopoX == Bounded && (i <= 0 || i >= g.Nx) {
		return true
	}
	if g.TopoX == Flat {
		return true
	}
	return g.DepthFC(i, j) <= 0
}

// PeripheralColumnFaceV is the v analogue of PeripheralColumnFaceU.
func (g *RectilinearGrid) PeripheralColumnFaceV(i, j int) bool {
	if g.TopoY == Bounded && (j <= 0 || j >= g.Ny) {
		return true
	}
	if g.TopoY == Flat {
		return true
	}
	return g.DepthCF(i, j) <= 0
}
