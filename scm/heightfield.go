package scm

import (
	"fmt"
	"image"
	"math"

	"cogentcore.org/core/math32"
)

// InitializeFlat builds a flat base heightfield over full extents (sx, sy),
// centered on the origin, at approximately the requested spacing delta.
// The actual spacing is sx/(2*Nx), so Nx*Delta is exactly sx/2 and the
// grid spans [-sx/2, sx/2] along x (likewise for y).
func InitializeFlat(sx, sy, delta float32) (*Grid, error) {
	if sx <= 0 || sy <= 0 || delta <= 0 {
		return nil, fmt.Errorf("scm: invalid flat terrain dimensions sx=%v sy=%v delta=%v", sx, sy, delta)
	}
	nx := int(math.Ceil(float64(sx / (2 * delta))))
	ny := int(math.Ceil(float64(sy / (2 * delta))))
	if nx < 1 {
		nx = 1
	}
	if ny < 1 {
		ny = 1
	}
	actualDelta := sx / float32(2*nx)
	g := newGrid(nx, ny, actualDelta)
	// base already zero-valued.
	return g, nil
}

// Heightmap is the decoded grayscale source for InitializeHeightmap. The
// core never decodes image bytes itself; the embedder is expected to hand
// over an already-decoded image.Image, most commonly via image/png or
// image/jpeg's stdlib decoders.
type Heightmap struct {
	Img image.Image
}

// grayAt bilinearly samples the heightmap's gray channel at fractional
// image coordinates (fx, fy), both in [0, width-1]x[0, height-1], image
// top-left origin.
func (h Heightmap) grayAt(fx, fy float64) float64 {
	b := h.Img.Bounds()
	w, ht := b.Dx(), b.Dy()
	if w == 0 || ht == 0 {
		return 0
	}
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	x1, y1 := x0+1, y0+1
	tx := fx - float64(x0)
	ty := fy - float64(y0)
	x0 = clampCoord(x0, 0, w-1)
	x1 = clampCoord(x1, 0, w-1)
	y0 = clampCoord(y0, 0, ht-1)
	y1 = clampCoord(y1, 0, ht-1)
	g00 := grayValue(h.Img, b.Min.X+x0, b.Min.Y+y0)
	g10 := grayValue(h.Img, b.Min.X+x1, b.Min.Y+y0)
	g01 := grayValue(h.Img, b.Min.X+x0, b.Min.Y+y1)
	g11 := grayValue(h.Img, b.Min.X+x1, b.Min.Y+y1)
	top := g00*(1-tx) + g10*tx
	bot := g01*(1-tx) + g11*tx
	return top*(1-ty) + bot*ty
}

func grayValue(img image.Image, x, y int) float64 {
	r, g, b, _ := img.At(x, y).RGBA()
	// standard luma weighting, 16-bit channel range.
	return (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 65535.0
}

// InitializeHeightmap builds a base heightfield by bilinearly sampling a
// decoded grayscale image and mapping gray values to [hMin, hMax]. Note
// the image's top-left origin versus the grid's bottom-left (y increases
// upward in the SCM frame): row 0 of the image maps to the maximum-J grid
// row.
func InitializeHeightmap(hm Heightmap, sx, sy, hMin, hMax, delta float32) (*Grid, error) {
	if hm.Img == nil {
		return nil, fmt.Errorf("scm: nil heightmap image")
	}
	g, err := InitializeFlat(sx, sy, delta)
	if err != nil {
		return nil, err
	}
	b := hm.Img.Bounds()
	w, ht := b.Dx(), b.Dy()
	if w < 2 || ht < 2 {
		return nil, fmt.Errorf("scm: heightmap image too small (%dx%d)", w, ht)
	}
	nx, ny := g.Nx, g.Ny
	gw := g.width()
	gh := g.height()
	for row := 0; row < gh; row++ {
		j := row - ny
		// grid y increases upward (bottom-left origin); image y increases
		// downward (top-left origin) -> flip.
		fy := (1 - float64(row)/float64(gh-1)) * float64(ht-1)
		for col := 0; col < gw; col++ {
			i := col - nx
			fx := float64(col) / float64(gw-1) * float64(w-1)
			v := hm.grayAt(fx, fy)
			z := hMin + float32(v)*(hMax-hMin)
			g.setBaseHeight(i, j, z)
		}
	}
	return g, nil
}

// MeshTriangle is one triangle of the terrain-initializing mesh, vertices
// in the SCM frame's (x, y, z).
type MeshTriangle = math32.Triangle

// InitializeMesh rasterizes a triangle mesh's (x,y) projection over the
// grid, last-write-wins on overlap. Cells whose center is never covered by
// any triangle retain zMin+zBase: the documented external-boundary
// policy.
func InitializeMesh(tris []MeshTriangle, zBase, delta float32) (*Grid, error) {
	if len(tris) == 0 {
		return nil, fmt.Errorf("scm: empty mesh")
	}
	minX, minY, minZ := tris[0].A.X, tris[0].A.Y, tris[0].A.Z
	maxX, maxY := minX, minY
	for _, t := range tris {
		for _, v := range [3]math32.Vector3{t.A, t.B, t.C} {
			if v.X < minX {
				minX = v.X
			}
			if v.X > maxX {
				maxX = v.X
			}
			if v.Y < minY {
				minY = v.Y
			}
			if v.Y > maxY {
				maxY = v.Y
			}
			if v.Z < minZ {
				minZ = v.Z
			}
		}
	}
	sx := maxX - minX
	sy := maxY - minY
	if sx <= 0 {
		sx = delta
	}
	if sy <= 0 {
		sy = delta
	}
	g, err := InitializeFlat(sx, sy, delta)
	if err != nil {
		return nil, err
	}
	floor := minZ + zBase
	for i := range g.base {
		g.base[i] = floor
	}
	for _, t := range tris {
		rasterizeTriangle(g, t)
	}
	return g, nil
}

// rasterizeTriangle sets the base height of every cell whose center passes
// a 2D barycentric inclusion test against tri's (x,y) projection, to the
// barycentrically interpolated z. Degenerate triangles (zero-area
// projection) are skipped.
func rasterizeTriangle(g *Grid, tri MeshTriangle) {
	minI := int(math.Floor(float64(min3(tri.A.X, tri.B.X, tri.C.X) / g.Delta)))
	maxI := int(math.Ceil(float64(max3(tri.A.X, tri.B.X, tri.C.X) / g.Delta)))
	minJ := int(math.Floor(float64(min3(tri.A.Y, tri.B.Y, tri.C.Y) / g.Delta)))
	maxJ := int(math.Ceil(float64(max3(tri.A.Y, tri.B.Y, tri.C.Y) / g.Delta)))
	minI = clampCoord(minI, -g.Nx, g.Nx)
	maxI = clampCoord(maxI, -g.Nx, g.Nx)
	minJ = clampCoord(minJ, -g.Ny, g.Ny)
	maxJ = clampCoord(maxJ, -g.Ny, g.Ny)
	for j := minJ; j <= maxJ; j++ {
		for i := minI; i <= maxI; i++ {
			x, y := CellIndex{i, j}.worldXY(g.Delta)
			p := math32.Vec3(x, y, 0)
			bc := math32.BarycoordFromPoint(p, flatten(tri.A), flatten(tri.B), flatten(tri.C))
			if bc.X < -1 {
				continue // degenerate projection, zero-denominator guard in BarycoordFromPoint
			}
			if bc.X < 0 || bc.Y < 0 || bc.Z < 0 {
				continue
			}
			z := bc.X*tri.A.Z + bc.Y*tri.B.Z + bc.Z*tri.C.Z
			g.setBaseHeight(i, j, z)
		}
	}
}

func flatten(v math32.Vector3) math32.Vector3 { return math32.Vec3(v.X, v.Y, 0) }

func min3(a, b, c float32) float32 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func max3(a, b, c float32) float32 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
