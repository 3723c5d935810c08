package scm

import (
	"sync"

	"cogentcore.org/core/math32"
)

// rayHit is one cell's ray-query result, produced by a dispatcher worker.
type rayHit struct {
	cell        CellIndex
	contactable any
	worldPoint  math32.Vector3
}

// workerCellRange is the span of cells (within one domain's row) assigned
// to a single dispatcher worker.
type workerCellRange struct {
	domain *ActiveDomain
	row    rowSpan
	// cells, when non-nil, is an explicit candidate list produced by the
	// optional GPU bulk slab-rejection pre-filter (gpuFilterDomain); it
	// replaces row iteration for this range.
	cells []CellIndex
}

// dispatcher runs the parallel ray-cast region: a fixed goroutine pool
// parked on a sync.Cond, woken by a step counter, each processing a
// disjoint set of cell ranges into its own thread-local hit slice; the
// coordinator blocks on a pending count until every worker has reported
// back. No worker ever mutates shared grid state — that happens after the
// join, serially.
type dispatcher struct {
	mu      sync.Mutex
	cond    *sync.Cond
	step    int
	pending int
	ranges  [][]workerCellRange // per-worker assignment for the current step
	hits    [][]rayHit          // per-worker thread-local output

	workerCount int
	started     bool

	// per-step inputs, read-only during the parallel region.
	terrain *Terrain
}

func newDispatcher(workerCount int) *dispatcher {
	if workerCount < 1 {
		workerCount = 1
	}
	d := &dispatcher{workerCount: workerCount}
	d.cond = sync.NewCond(&d.mu)
	return d
}

func (d *dispatcher) start() {
	if d.started {
		return
	}
	d.started = true
	for i := 0; i < d.workerCount; i++ {
		go d.workerLoop(i)
	}
}

// workerLoop waits for a new step, processes the assigned ranges, reports
// completion, and repeats forever.
func (d *dispatcher) workerLoop(index int) {
	lastStep := 0
	d.mu.Lock()
	for {
		for d.step == lastStep {
			d.cond.Wait()
		}
		lastStep = d.step
		var ranges []workerCellRange
		if index < len(d.ranges) {
			ranges = d.ranges[index]
		}
		terrain := d.terrain
		d.mu.Unlock()

		out := processCellRanges(terrain, ranges)

		d.mu.Lock()
		if index < len(d.hits) {
			d.hits[index] = out
		}
		d.pending--
		if d.pending == 0 {
			d.cond.Broadcast()
		}
	}
}

// run distributes the active domains' candidate cells across workers in
// round-robin fashion, runs the parallel region, and returns the merged
// hit set. Merging happens here, serially, after the join; run itself does
// not touch the store. Node records for the hits are materialized later,
// serially, by the constitutive update.
func (d *dispatcher) run(t *Terrain, domains []*ActiveDomain) []rayHit {
	d.start()

	var flat []workerCellRange
	for _, dom := range domains {
		rows := dom.cells(t.store.Grid())
		if cells, ok := t.gpuFilterDomain(dom, rows); ok {
			if len(cells) > 0 {
				flat = append(flat, workerCellRange{domain: dom, cells: cells})
			}
			continue
		}
		for _, row := range rows {
			flat = append(flat, workerCellRange{domain: dom, row: row})
		}
	}

	buckets := make([][]workerCellRange, d.workerCount)
	for idx, r := range flat {
		w := idx % d.workerCount
		buckets[w] = append(buckets[w], r)
	}

	d.mu.Lock()
	d.terrain = t
	d.ranges = buckets
	d.hits = make([][]rayHit, d.workerCount)
	d.pending = d.workerCount
	d.step++
	d.cond.Broadcast()
	for d.pending > 0 {
		d.cond.Wait()
	}
	d.mu.Unlock()

	var merged []rayHit
	for _, h := range d.hits {
		merged = append(merged, h...)
	}
	return merged
}

// processCellRanges is the per-worker body: for every candidate cell it
// performs the fast OBB rejection, casts the vertical ray, and queries the
// collider. It reads the store and grid (read-only) and writes only to its
// own return slice — never to shared state.
func processCellRanges(t *Terrain, ranges []workerCellRange) []rayHit {
	var out []rayHit
	for _, r := range ranges {
		if r.cells != nil {
			for _, idx := range r.cells {
				if hit, ok := t.castOneCell(r.domain, idx); ok {
					out = append(out, hit)
				}
			}
			continue
		}
		for j := r.row.jLo; j <= r.row.jHi; j++ {
			for i := r.row.iLo; i <= r.row.iHi; i++ {
				if hit, ok := t.castOneCell(r.domain, CellIndex{i, j}); ok {
					out = append(out, hit)
				}
			}
		}
	}
	return out
}

// rayWorldPoints computes the vertical probe segment's endpoints in world
// space for cell idx, from the current height up test_up and down
// test_down.
func (t *Terrain) rayWorldPoints(idx CellIndex) (topWorld, botWorld math32.Vector3) {
	level := t.store.Height(idx.I, idx.J)
	x, y := idx.worldXY(t.store.Grid().Delta)
	topLocal := math32.Vec3(x, y, level+t.testUp)
	botLocal := math32.Vec3(x, y, level+t.testUp-t.testDown)
	return t.frame.ToWorld(topLocal), t.frame.ToWorld(botLocal)
}

// rayBodyFrame expresses the world-space probe segment in dom's body frame,
// the form the Kay-Kajiya slab test (ActiveDomain.rejectsRay) and its GPU
// batch counterpart (gpuSlabRejector.rejectBatch) both consume.
func (t *Terrain) rayBodyFrame(dom *ActiveDomain, topWorld, botWorld math32.Vector3) (originBody, dirBody math32.Vector3) {
	originBody = dom.Body.TransformDirectionParentToLocal(topWorld.Sub(dom.Body.GetPos()))
	dirBody = dom.Body.TransformDirectionParentToLocal(botWorld.Sub(topWorld))
	return originBody, dirBody
}

// castOneCell casts a single vertical probe ray for one cell against the
// active domain's fast rejection and the external collider.
func (t *Terrain) castOneCell(dom *ActiveDomain, idx CellIndex) (rayHit, bool) {
	if !t.store.Grid().InGrid(idx.I, idx.J) {
		return rayHit{}, false
	}
	if t.boundary != nil && !t.boundary.Contains(idx, t.store.Grid()) {
		return rayHit{}, false
	}
	topWorld, botWorld := t.rayWorldPoints(idx)

	if dom.Body != nil {
		originBody, dirBody := t.rayBodyFrame(dom, topWorld, botWorld)
		if dom.rejectsRay(originBody, dirBody) {
			return rayHit{}, false
		}
	}

	hit, contactable, world := t.collider.RayHit(topWorld, botWorld)
	if !hit {
		return rayHit{}, false
	}
	return rayHit{cell: idx, contactable: contactable, worldPoint: world}, true
}

// gpuFilterDomain runs the optional GPU bulk slab-rejection accelerator
// (scm/raycast_gpu.go, -tags opencl) over one domain's row-span candidate
// cells. ok is false when GPU rejection is unavailable (not enabled, or
// the stub build), or not applicable to this domain (the default domain
// has no body to express the slab test in, and is never worth batching);
// callers fall back to per-row CPU dispatch in that case. When ok is
// true, the returned cells are exactly the candidates the GPU pass did
// not reject, ready for castOneCell's per-cell query and its own
// (redundant but harmless) CPU slab check.
func (t *Terrain) gpuFilterDomain(dom *ActiveDomain, rows []rowSpan) ([]CellIndex, bool) {
	if t.gpuRejector == nil || dom.isDefault || dom.Body == nil {
		return nil, false
	}
	var cells []CellIndex
	var origins, dirs []math32.Vector3
	grid := t.store.Grid()
	for _, row := range rows {
		for j := row.jLo; j <= row.jHi; j++ {
			for i := row.iLo; i <= row.iHi; i++ {
				idx := CellIndex{i, j}
				if !grid.InGrid(i, j) {
					continue
				}
				if t.boundary != nil && !t.boundary.Contains(idx, grid) {
					continue
				}
				topWorld, botWorld := t.rayWorldPoints(idx)
				originBody, dirBody := t.rayBodyFrame(dom, topWorld, botWorld)
				cells = append(cells, idx)
				origins = append(origins, originBody)
				dirs = append(dirs, dirBody)
			}
		}
	}
	if len(cells) == 0 {
		return nil, true
	}
	rejects, err := t.gpuRejector.rejectBatch(dom.Box, origins, dirs)
	if err != nil {
		return nil, false
	}
	survivors := cells[:0]
	for i, idx := range cells {
		if !rejects[i] {
			survivors = append(survivors, idx)
		}
	}
	return survivors, true
}

// Boundary is a user-configured rectangular rejection region. An inverted
// AABB is treated as "no boundary".
type Boundary struct {
	MinX, MinY, MaxX, MaxY float32
}

// Contains reports whether cell idx's center lies within the boundary.
func (b *Boundary) Contains(idx CellIndex, g *Grid) bool {
	if b.MinX > b.MaxX || b.MinY > b.MaxY {
		return true // inverted AABB silently ignored
	}
	x, y := idx.worldXY(g.Delta)
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}
