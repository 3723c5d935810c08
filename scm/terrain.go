package scm

import "cogentcore.org/core/math32"

const (
	defaultTestUp   = 0.1
	defaultTestDown = 0.5
)

// Terrain is the SCM deformable-terrain core: the orchestrator that wires
// the active-domain resolution, ray-casting, segmentation, constitutive
// update, force distribution, bulldozing, and visualization stages into
// the per-step pipeline. One Terrain is created per deformable patch of
// ground; the host integrator invokes Step exactly once per integrator
// step, at the step boundary.
type Terrain struct {
	store    *Store
	frame    Frame
	collider Collider

	boundary *Boundary
	testUp   float32
	testDown float32

	soil       SoilParameters
	soilCB     SoilCallback
	bulldozing BulldozingParameters
	bulldozingEnabled bool

	domains       []*ActiveDomain
	defaultDomain *ActiveDomain

	dt       float32
	cosim    bool
	loadSink LoadSink

	dispatcher *dispatcher
	timers     StageTimers
	counters   Counters

	// gpuRejector is the optional OpenCL bulk slab-rejection accelerator
	// (-tags opencl); nil unless EnableGPUSlabRejection succeeds, in which
	// case gpuFilterDomain pre-filters candidate cells ahead of the
	// per-cell CPU ray query.
	gpuRejector *gpuSlabRejector

	bodyForces    map[*RigidBodyContactable]*ForceAccumulator
	nodeForces    map[*FEANode]math32.Vector3
	surfaceForces map[*SurfaceContactable]*ForceAccumulator
	lastHitCells  map[CellIndex]bool

	lastPatches []*Patch
}

// NewTerrain constructs a Terrain over an already-initialized grid (one of
// InitializeFlat/InitializeHeightmap/InitializeMesh). workerCount sizes the
// ray-cast dispatcher's goroutine pool; thread-count is taken from the
// host integrator.
func NewTerrain(grid *Grid, collider Collider, frame Frame, workerCount int) (*Terrain, error) {
	if collider == nil {
		return nil, ErrNoCollider
	}
	if frame == nil {
		return nil, ErrNoFrame
	}
	t := &Terrain{
		store:      NewStore(grid),
		frame:      frame,
		collider:   collider,
		testUp:     defaultTestUp,
		testDown:   defaultTestDown,
		soil:       DefaultSoilParameters(),
		bulldozing: DefaultBulldozingParameters(),
		dispatcher: newDispatcher(workerCount),
	}
	t.defaultDomain = &ActiveDomain{isDefault: true}
	return t, nil
}

// Store exposes the grid/node store for read-only queries.
func (t *Terrain) Store() *Store { return t.store }

// SetSoilParameters sets the global Bekker/Janosi-Hanamoto/Krenn-Hirzinger
// defaults.
func (t *Terrain) SetSoilParameters(p SoilParameters) { t.soil = p }

// RegisterSoilParametersCallback installs a location-dependent soil
// override.
func (t *Terrain) RegisterSoilParametersCallback(cb SoilCallback) { t.soilCB = cb }

// EnableBulldozing toggles the bulldozing stage.
func (t *Terrain) EnableBulldozing(enabled bool) { t.bulldozingEnabled = enabled }

// SetBulldozingParameters configures the bulldozing stage.
func (t *Terrain) SetBulldozingParameters(p BulldozingParameters) { t.bulldozing = p }

// SetReferenceFrame installs the SCM frame.
func (t *Terrain) SetReferenceFrame(f Frame) { t.frame = f }

// SetBoundary installs a rectangular ray-cast rejection region. An
// inverted AABB is silently ignored, handled in Boundary.Contains.
func (t *Terrain) SetBoundary(b Boundary) { t.boundary = &b }

// SetTestHeight sets the upward ray-cast offset above the current height;
// the downward probe distance is fixed at its default.
func (t *Terrain) SetTestHeight(offset float32) { t.testUp = offset }

// AddActiveDomain registers a body-attached tracking box. If none is ever
// added, Step uses the default domain, which ray-casts every grid cell.
func (t *Terrain) AddActiveDomain(body Body, center, halfDims math32.Vector3) *ActiveDomain {
	d := &ActiveDomain{
		Body: body,
		Box: OrientedBox{
			Center: center,
			HalfX:  math32.Vec3(halfDims.X, 0, 0),
			HalfY:  math32.Vec3(0, halfDims.Y, 0),
			HalfZ:  math32.Vec3(0, 0, halfDims.Z),
		},
	}
	t.domains = append(t.domains, d)
	return d
}

// EnableGPUSlabRejection builds an OpenCL-backed bulk slab-rejection
// accelerator for the ray-cast dispatcher's active-domain pre-filter, and
// installs it if successful. capacity bounds the largest single-domain
// candidate batch the GPU buffers can hold. Without -tags opencl this
// always returns an error (GPU rejection stays disabled; the dispatcher
// keeps using the per-cell CPU slab test).
func (t *Terrain) EnableGPUSlabRejection(capacity int) error {
	r, err := newGPUSlabRejector(capacity)
	if err != nil {
		return err
	}
	t.gpuRejector = r
	return nil
}

// DisableGPUSlabRejection releases the GPU accelerator, if installed, and
// reverts the dispatcher to the per-cell CPU slab test.
func (t *Terrain) DisableGPUSlabRejection() {
	if t.gpuRejector != nil {
		t.gpuRejector.Close()
		t.gpuRejector = nil
	}
}

// GPUDeviceName reports the OpenCL device backing the slab-rejection
// accelerator, for a diagnostics overlay; ok is false when no accelerator
// is installed.
func (t *Terrain) GPUDeviceName() (name string, ok bool) {
	if t.gpuRejector == nil {
		return "", false
	}
	return t.gpuRejector.DeviceName(), true
}

// SetCosimulationMode toggles load suppression: when true, accumulated
// loads are not submitted to the host integrator, only exposed via
// GetContactForceBody/GetContactForceNode.
func (t *Terrain) SetCosimulationMode(enabled bool) { t.cosim = enabled }

// SetLoadSink installs the downward load-submission contract, unused in
// co-simulation mode.
func (t *Terrain) SetLoadSink(sink LoadSink) { t.loadSink = sink }

// activeDomains returns the domains to ray-cast this step: user domains,
// or the default domain when none were added. The default domain's box
// center is set from the collider's world AABB, but its cell range is the
// whole grid: the AABB does not limit which cells are cast.
func (t *Terrain) activeDomains() []*ActiveDomain {
	if len(t.domains) == 0 {
		box := t.collider.WorldAABB()
		t.defaultDomain.Box = OrientedBox{Center: box.Center()}
		return []*ActiveDomain{t.defaultDomain}
	}
	return t.domains
}

// Step runs one full pipeline pass: active-domain resolution -> ray cast ->
// patch segmentation -> constitutive update -> force distribution ->
// bulldozing -> visualization bookkeeping. dt is the host integrator's
// step size, used by the shear-displacement integration and the
// bulldozing flow-rate terms.
func (t *Terrain) Step(dt float32) {
	t.dt = dt
	t.store.BeginStep()
	t.counters = Counters{}

	domains := t.activeDomains()

	func() {
		defer t.timers.scoped(StageActiveDomain)()
		for _, d := range domains {
			d.refresh(t.frame, t.store.Grid())
		}
	}()

	var hits []rayHit
	func() {
		defer t.timers.scoped(StageRayCast)()
		hits = t.dispatcher.run(t, domains)
	}()
	t.counters.RayCasts = countCandidates(domains, t.store.Grid())
	t.counters.RayHits = len(hits)

	var patches []*Patch
	func() {
		defer t.timers.scoped(StageSegmentation)()
		patches = segmentPatches(hits, t.store.Grid())
	}()
	t.counters.ContactPatches = len(patches)
	t.lastPatches = patches

	hitByCell := make(map[CellIndex]rayHit, len(hits))
	for _, h := range hits {
		hitByCell[h.cell] = h
	}
	oobByCell := make(map[CellIndex]float32, len(hits))
	for _, p := range patches {
		for _, c := range p.Cells {
			oobByCell[c] = p.Oob
		}
	}

	var forces []CellForce
	t.lastHitCells = make(map[CellIndex]bool, len(hits))
	func() {
		defer t.timers.scoped(StageConstitutive)()
		for _, p := range patches {
			for _, c := range p.Cells {
				h := hitByCell[c]
				if cf, ok := t.applyConstitutive(h, oobByCell[c]); ok {
					forces = append(forces, cf)
					t.lastHitCells[c] = true
				}
			}
		}
	}()

	func() {
		defer t.timers.scoped(StageForceDistribution)()
		t.distributeForces(forces)
	}()

	if t.bulldozingEnabled && len(patches) > 0 {
		var boundary, domain []CellIndex
		func() {
			defer t.timers.scoped(StageBulldozeRaise)()
			boundary = t.raiseBoundaries(patches)
		}()
		func() {
			defer t.timers.scoped(StageBulldozeDilate)()
			domain = t.dilateErosionDomain(boundary)
		}()
		func() {
			defer t.timers.scoped(StageBulldozeSmooth)()
			t.smoothErosionDomain(domain)
		}()
	}

	erosionNodes := 0
	t.store.All(func(n *Node) {
		if n.Erosion {
			erosionNodes++
		}
	})
	t.counters.ErosionNodes = erosionNodes
}

// RunVisualization times and runs the visualization bridge; kept separate
// from Step because the visualization mesh is a downward dependency the
// embedder may choose to update on a different cadence than the physics
// step.
func (t *Terrain) RunVisualization(mesh VisualizationMesh, cmap Colormap, field Field, vmin, vmax float32) {
	defer t.timers.scoped(StageVisualization)()
	t.UpdateVisualization(mesh, cmap, field, vmin, vmax)
}

// Timers returns the last step's per-stage durations.
func (t *Terrain) Timers() *StageTimers { return &t.timers }

// Counters returns the last step's observability counters.
func (t *Terrain) Counters() Counters { return t.counters }

// GetNumRayHits, GetNumContactPatches mirror the named queries used by
// embedder test scenarios.
func (t *Terrain) GetNumRayHits() int       { return t.counters.RayHits }
func (t *Terrain) GetNumContactPatches() int { return t.counters.ContactPatches }

func countCandidates(domains []*ActiveDomain, grid *Grid) int {
	n := 0
	for _, d := range domains {
		for _, row := range d.cells(grid) {
			n += (row.iHi - row.iLo + 1) * (row.jHi - row.jLo + 1)
		}
	}
	return n
}

// snapToCell resolves the (i, j) cell nearest a local-frame coordinate,
// rounding to the nearest cell center rather than truncating toward zero
// so a query slightly past a boundary lands in the far cell instead of
// biasing back toward the origin.
func snapToCell(local math32.Vector3, delta float32) (int, int) {
	i := int(math32.Round(local.X / delta))
	j := int(math32.Round(local.Y / delta))
	return i, j
}

// GetHeight returns the current height at a world-space location, along
// the SCM frame's local vertical.
func (t *Terrain) GetHeight(worldLoc math32.Vector3) float32 {
	local := t.frame.ToLocal(worldLoc)
	i, j := snapToCell(local, t.store.Grid().Delta)
	return t.store.Height(i, j)
}

// GetNormal returns the surface normal (world frame) at a world-space
// location: the node's stored normal if materialized, else the base
// finite-difference estimate.
func (t *Terrain) GetNormal(worldLoc math32.Vector3) math32.Vector3 {
	local := t.frame.ToLocal(worldLoc)
	grid := t.store.Grid()
	i, j := snapToCell(local, grid.Delta)
	if n, ok := t.store.Get(CellIndex{i, j}); ok {
		return t.frame.ToWorldDir(n.Normal)
	}
	return t.frame.ToWorldDir(grid.BaseNormal(i, j))
}

// GetInitHeight/GetInitNormal mirror GetHeight/GetNormal for the
// undeformed state.
func (t *Terrain) GetInitHeight(worldLoc math32.Vector3) float32 {
	local := t.frame.ToLocal(worldLoc)
	grid := t.store.Grid()
	i, j := snapToCell(local, grid.Delta)
	if n, ok := t.store.Get(CellIndex{i, j}); ok {
		return n.LevelInitial
	}
	return grid.BaseHeight(i, j)
}

func (t *Terrain) GetInitNormal(worldLoc math32.Vector3) math32.Vector3 {
	local := t.frame.ToLocal(worldLoc)
	grid := t.store.Grid()
	i, j := snapToCell(local, grid.Delta)
	return t.frame.ToWorldDir(grid.BaseNormal(i, j))
}

// GetNodeInfo returns the full node record at a world-space location, if
// one has been materialized.
func (t *Terrain) GetNodeInfo(worldLoc math32.Vector3) (*Node, bool) {
	local := t.frame.ToLocal(worldLoc)
	i, j := snapToCell(local, t.store.Grid().Delta)
	return t.store.Get(CellIndex{i, j})
}
