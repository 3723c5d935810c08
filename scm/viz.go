package scm

import "cogentcore.org/core/math32"

// Field selects which scalar the visualization bridge's false-color lookup
// reads.
type Field int

const (
	FieldHeight Field = iota
	FieldSigma
	FieldSinkage
	FieldErosion
)

// Colormap is the downward false-color lookup contract: implementations
// wrap a concrete palette (the demo uses cogentcore.org/core/colors/colormap).
type Colormap interface {
	Get(value, vmin, vmax float32) (r, g, b, a float32)
}

// VisualizationMesh is the downward triangle-mesh upload contract. The
// core never owns vertex/index buffers directly; it only pushes updates
// for the cells it touched this step.
type VisualizationMesh interface {
	// VertexIndexForCell maps a cell to a mesh vertex index. ok is false
	// for cells outside the mesh's covered range, which are skipped
	// silently.
	VertexIndexForCell(c CellIndex) (index int, ok bool)
	SetVertex(index int, pos math32.Vector3, normal math32.Vector3, r, g, b, a float32)
	Wireframe() bool
	// Flush hands the renderer the list of vertex indices touched this
	// step, avoiding a full-mesh upload.
	Flush(modifiedIndices []int)
}

// sixNeighborOffsets enumerates the six directions whose consecutive pairs
// bound a vertex's incident faces under a single-diagonal heightfield
// triangulation (each interior grid vertex touches exactly six triangles
// under this scheme).
var sixNeighborOffsets = [6]CellIndex{
	{1, 0}, {1, 1}, {0, 1}, {-1, 0}, {-1, -1}, {0, -1},
}

// UpdateVisualization pushes vertex/normal/color updates for every cell
// modified this step. field selects the false-color source; vmin/vmax
// bound the colormap's domain.
func (t *Terrain) UpdateVisualization(mesh VisualizationMesh, cmap Colormap, field Field, vmin, vmax float32) {
	if mesh == nil {
		return
	}
	cells := t.store.ModifiedCells()
	var touched []int
	for _, c := range cells {
		idx, ok := mesh.VertexIndexForCell(c)
		if !ok {
			continue
		}
		n, ok := t.store.Get(c)
		if !ok {
			continue
		}
		pos := t.frame.ToWorld(math32.Vec3(cellX(c, t.store.Grid()), cellY(c, t.store.Grid()), n.Level))

		var normal math32.Vector3
		if !mesh.Wireframe() {
			normal = t.smoothedNormal(c)
		}

		var r, g, b, a float32 = 1, 1, 1, 1
		if cmap != nil {
			r, g, b, a = cmap.Get(t.fieldValue(n, field), vmin, vmax)
		}

		mesh.SetVertex(idx, pos, normal, r, g, b, a)
		touched = append(touched, idx)
	}
	mesh.Flush(touched)
}

// PackedHeightUpdate is a bandwidth-conscious encoding of one step's
// modified-cell heights: the cell index plus its height-above-base delta
// packed to IEEE binary16, half the size of the float32 original. Intended
// for visualization bridges over a constrained transport (network
// co-simulation viewers, remote dashboards) where the full float32
// precision of GetModifiedNodes isn't needed just to redraw a vertex.
type PackedHeightUpdate struct {
	Cell  CellIndex
	Delta uint16
}

// PackModifiedHeights encodes the cells modified this step as
// height-above-base deltas in binary16, for the bandwidth-conscious
// visualization path. Use UnpackModifiedHeights on the receiving side to
// recover approximate float32 heights.
func (t *Terrain) PackModifiedHeights() []PackedHeightUpdate {
	cells := t.store.ModifiedCells()
	deltas := make([]float32, len(cells))
	for i, c := range cells {
		n, ok := t.store.Get(c)
		if !ok {
			continue
		}
		deltas[i] = n.Level - t.store.Grid().BaseHeight(c.I, c.J)
	}
	packed := make([]uint16, len(deltas))
	packHeightsFloat16(packed, deltas)
	out := make([]PackedHeightUpdate, len(cells))
	for i, c := range cells {
		out[i] = PackedHeightUpdate{Cell: c, Delta: packed[i]}
	}
	return out
}

// UnpackModifiedHeights recovers approximate absolute heights from a
// PackModifiedHeights payload, given the grid's base heightfield (the
// receiving side needs the same base to reconstruct absolute height from
// a height-above-base delta).
func UnpackModifiedHeights(grid *Grid, updates []PackedHeightUpdate) map[CellIndex]float32 {
	packed := make([]uint16, len(updates))
	for i, u := range updates {
		packed[i] = u.Delta
	}
	deltas := make([]float32, len(packed))
	unpackHeightsFloat16(deltas, packed)
	out := make(map[CellIndex]float32, len(updates))
	for i, u := range updates {
		out[u.Cell] = grid.BaseHeight(u.Cell.I, u.Cell.J) + deltas[i]
	}
	return out
}

func cellX(c CellIndex, g *Grid) float32 { x, _ := c.worldXY(g.Delta); return x }
func cellY(c CellIndex, g *Grid) float32 { _, y := c.worldXY(g.Delta); return y }

func (t *Terrain) fieldValue(n *Node, field Field) float32 {
	switch field {
	case FieldSigma:
		return n.Sigma
	case FieldSinkage:
		return n.Sinkage
	case FieldErosion:
		if n.Erosion {
			return 1
		}
		return 0
	default:
		return n.Level
	}
}

// smoothedNormal averages the up-to-six incident face normals around cell
// c, falling back to the undeformed normal when neighbors are missing.
func (t *Terrain) smoothedNormal(c CellIndex) math32.Vector3 {
	grid := t.store.Grid()
	center := math32.Vec3(cellX(c, grid), cellY(c, grid), t.store.Height(c.I, c.J))

	var sum math32.Vector3
	count := 0
	for k := 0; k < 6; k++ {
		a := CellIndex{c.I + sixNeighborOffsets[k].I, c.J + sixNeighborOffsets[k].J}
		b := CellIndex{c.I + sixNeighborOffsets[(k+1)%6].I, c.J + sixNeighborOffsets[(k+1)%6].J}
		if !grid.InGrid(a.I, a.J) || !grid.InGrid(b.I, b.J) {
			continue
		}
		pa := math32.Vec3(cellX(a, grid), cellY(a, grid), t.store.Height(a.I, a.J))
		pb := math32.Vec3(cellX(b, grid), cellY(b, grid), t.store.Height(b.I, b.J))
		faceNormal := pa.Sub(center).Cross(pb.Sub(center))
		if faceNormal.Length() < 1e-12 {
			continue
		}
		sum = sum.Add(faceNormal)
		count++
	}
	if count == 0 {
		if n, ok := t.store.Get(c); ok {
			return n.Normal
		}
		return math32.Vec3(0, 0, 1)
	}
	return sum.DivScalar(sum.Length())
}
