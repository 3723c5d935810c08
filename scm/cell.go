// Package scm implements the Soil Contact Model deformable-terrain core:
// a per-step pipeline that turns the state of a multibody world into
// sinkage-dependent pressure/shear forces and an updated heightfield.
package scm

import "cogentcore.org/core/math32"

// CellIndex addresses one column of the sparse grid. World position of a
// cell is (i*Delta, j*Delta, z) in the terrain's reference frame.
type CellIndex struct {
	I, J int
}

// clampCoord constrains v to lie within the inclusive [lo, hi] range. Used
// to clamp out-of-range cell indices to the grid interior for base-height
// lookups, per the "out-of-range cell index" error-handling rule.
func clampCoord(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// worldXY returns the (x, y) plane coordinates of a cell center.
func (c CellIndex) worldXY(delta float32) (float32, float32) {
	return float32(c.I) * delta, float32(c.J) * delta
}

// neighbors4 returns the 4-connected (N/S/E/W) neighbor indices of c.
func (c CellIndex) neighbors4() [4]CellIndex {
	return [4]CellIndex{
		{c.I + 1, c.J},
		{c.I - 1, c.J},
		{c.I, c.J + 1},
		{c.I, c.J - 1},
	}
}

// Grid carries the immutable parameters shared by every node and the base
// heightfield sampled at Initialize time.
type Grid struct {
	Nx, Ny int     // half-extent in cells along each axis
	Delta  float32 // uniform spacing

	// base is the dense (2Nx+1)x(2Ny+1) initial heightfield, row-major
	// with row index (j+Ny) and column index (i+Nx).
	base []float32
}

func newGrid(nx, ny int, delta float32) *Grid {
	w := 2*nx + 1
	h := 2*ny + 1
	return &Grid{
		Nx:    nx,
		Ny:    ny,
		Delta: delta,
		base:  make([]float32, w*h),
	}
}

func (g *Grid) width() int  { return 2*g.Nx + 1 }
func (g *Grid) height() int { return 2*g.Ny + 1 }

// baseIndex clamps (i,j) to the grid interior and returns the flat index
// into g.base, plus the clamped indices actually used.
func (g *Grid) baseIndex(i, j int) (idx, ci, cj int) {
	ci = clampCoord(i, -g.Nx, g.Nx)
	cj = clampCoord(j, -g.Ny, g.Ny)
	return (cj+g.Ny)*g.width() + (ci + g.Nx), ci, cj
}

// BaseHeight returns the undeformed height at cell (i,j), clamping
// out-of-range indices to the grid interior.
func (g *Grid) BaseHeight(i, j int) float32 {
	idx, _, _ := g.baseIndex(i, j)
	return g.base[idx]
}

func (g *Grid) setBaseHeight(i, j int, z float32) {
	w := g.width()
	row := j + g.Ny
	col := i + g.Nx
	if row < 0 || row >= g.height() || col < 0 || col >= w {
		return
	}
	g.base[row*w+col] = z
}

// BaseNormal estimates the undeformed surface normal at cell (i,j) using a
// four-neighbor central finite difference on the base heightfield.
func (g *Grid) BaseNormal(i, j int) math32.Vector3 {
	d := g.Delta
	if d == 0 {
		d = 1
	}
	hL := g.BaseHeight(i-1, j)
	hR := g.BaseHeight(i+1, j)
	hD := g.BaseHeight(i, j-1)
	hU := g.BaseHeight(i, j+1)
	dzdx := (hR - hL) / (2 * d)
	dzdy := (hU - hD) / (2 * d)
	n := math32.Vec3(-dzdx, -dzdy, 1)
	return n.DivScalar(n.Length())
}

// InGrid reports whether (i,j) falls within the grid's declared extent
// (not whether a node record exists there).
func (g *Grid) InGrid(i, j int) bool {
	return i >= -g.Nx && i <= g.Nx && j >= -g.Ny && j <= g.Ny
}
