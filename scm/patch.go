package scm

import (
	"sort"

	"cogentcore.org/core/math32"
)

// Patch is a transient, one-per-step connected component of hit cells.
// All cells in a patch share the same Bekker shape factor (Oob).
type Patch struct {
	Cells  []CellIndex
	Area   float32
	Perim  float32
	Oob    float32 // perimeter/(2*area), the Bekker 1/b approximation
}

// segmentPatches 4-connected flood-fills the hit cells into patches, an
// explicit BFS over a hash set (contact patches have no directionality to
// exploit).
func segmentPatches(hits []rayHit, grid *Grid) []*Patch {
	if len(hits) == 0 {
		return nil
	}
	set := make(map[CellIndex]bool, len(hits))
	for _, h := range hits {
		set[h.cell] = true
	}
	visited := make(map[CellIndex]bool, len(hits))
	var patches []*Patch

	// Deterministic iteration: sort cells so patch membership order (and
	// hence hull computation) does not depend on map iteration order.
	cells := make([]CellIndex, 0, len(set))
	for c := range set {
		cells = append(cells, c)
	}
	sort.Slice(cells, func(a, b int) bool {
		if cells[a].J != cells[b].J {
			return cells[a].J < cells[b].J
		}
		return cells[a].I < cells[b].I
	})

	for _, start := range cells {
		if visited[start] {
			continue
		}
		queue := []CellIndex{start}
		visited[start] = true
		var members []CellIndex
		for len(queue) > 0 {
			c := queue[0]
			queue = queue[1:]
			members = append(members, c)
			for _, n := range c.neighbors4() {
				if set[n] && !visited[n] {
					visited[n] = true
					queue = append(queue, n)
				}
			}
		}
		patches = append(patches, buildPatch(members, grid))
	}
	return patches
}

// buildPatch computes the 2D convex hull of a patch's cell centers and its
// area, perimeter, and shape factor.
func buildPatch(members []CellIndex, grid *Grid) *Patch {
	pts := make([]math32.Vector2, len(members))
	for i, c := range members {
		x, y := c.worldXY(grid.Delta)
		pts[i] = math32.Vec2(x, y)
	}
	hull := convexHull2D(pts)
	area := polygonArea(hull)
	perim := polygonPerimeter(hull)
	oob := float32(0)
	if area > 1e-6 {
		oob = perim / (2 * area)
	}
	return &Patch{Cells: members, Area: area, Perim: perim, Oob: oob}
}

// convexHull2D computes the convex hull via the monotone-chain (Andrew's)
// algorithm, O(n log n).
func convexHull2D(pts []math32.Vector2) []math32.Vector2 {
	if len(pts) < 3 {
		return pts
	}
	sorted := append([]math32.Vector2(nil), pts...)
	sort.Slice(sorted, func(a, b int) bool {
		if sorted[a].X != sorted[b].X {
			return sorted[a].X < sorted[b].X
		}
		return sorted[a].Y < sorted[b].Y
	})

	cross := func(o, a, b math32.Vector2) float32 {
		return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
	}

	lower := make([]math32.Vector2, 0, len(sorted))
	for _, p := range sorted {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	upper := make([]math32.Vector2, 0, len(sorted))
	for i := len(sorted) - 1; i >= 0; i-- {
		p := sorted[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}
	lower = lower[:len(lower)-1]
	upper = upper[:len(upper)-1]
	return append(lower, upper...)
}

func polygonArea(hull []math32.Vector2) float32 {
	if len(hull) < 3 {
		return 0
	}
	var sum float32
	n := len(hull)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += hull[i].X*hull[j].Y - hull[j].X*hull[i].Y
	}
	if sum < 0 {
		sum = -sum
	}
	return sum / 2
}

func polygonPerimeter(hull []math32.Vector2) float32 {
	if len(hull) < 2 {
		return 0
	}
	var sum float32
	n := len(hull)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += hull[i].Sub(hull[j]).Length()
	}
	return sum
}
