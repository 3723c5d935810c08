package scm

import "cogentcore.org/core/math32"

const infHit = float32(1e30) // +infinity sentinel for hit_level

// SoilOverride carries the eight scalars a per-location soil callback may
// substitute for the global defaults, shadowing them for one node only.
type SoilOverride struct {
	Kphi, Kc, N, C, PhiDeg, J, K, R float32
}

// Node is the persistent per-cell record. It is created lazily on first ray
// hit or first bulldozing touch and never destroyed; the grid grows
// monotonically.
type Node struct {
	Index CellIndex

	LevelInitial float32 // undeformed height at creation; may drift upward via bulldozing
	Level        float32 // current height
	HitLevel     float32 // ray intersection height this step; infHit if no hit this step

	Normal math32.Vector3 // undeformed surface normal at creation, SCM-frame unit vector

	Sinkage         float32
	SinkageElastic  float32
	SinkagePlastic  float32
	Sigma           float32
	SigmaYield      float32
	Kshear          float32
	Tau             float32

	// Bulldozing state.
	Erosion          bool
	MassRemainder    float32
	StepPlasticFlow  float32

	// Cached per-location soil override: refreshed only when LevelInitial
	// drifts since the last cache fill, not on every step.
	soilOverride       *SoilOverride
	soilOverrideAsOfLI float32
}

// newNode creates a node seeded from the base heightfield at (i,j).
func newNode(g *Grid, idx CellIndex) *Node {
	h := g.BaseHeight(idx.I, idx.J)
	return &Node{
		Index:        idx,
		LevelInitial: h,
		Level:        h,
		HitLevel:     infHit,
		Normal:       g.BaseNormal(idx.I, idx.J),
	}
}

// Store is the sparse mapping from cell index to node record. Missing
// lookups fall through to the base heightfield; there is no dense
// backing array.
type Store struct {
	grid  *Grid
	nodes map[CellIndex]*Node

	// modified accumulates the cells touched this step (by contact or
	// bulldozing); its previous contents are reset and it is cleared at the
	// start of the next step.
	modified map[CellIndex]struct{}
}

// NewStore constructs an empty node store over grid.
func NewStore(grid *Grid) *Store {
	return &Store{
		grid:     grid,
		nodes:    make(map[CellIndex]*Node),
		modified: make(map[CellIndex]struct{}),
	}
}

// Grid returns the backing grid parameters.
func (s *Store) Grid() *Grid { return s.grid }

// Get returns the node at idx if one has been materialized.
func (s *Store) Get(idx CellIndex) (*Node, bool) {
	n, ok := s.nodes[idx]
	return n, ok
}

// GetOrCreate returns the existing node at idx, or materializes a fresh one
// from the base heightfield. It does not add idx to the modified-cell list;
// callers that change the node call MarkModified themselves.
func (s *Store) GetOrCreate(idx CellIndex) *Node {
	if n, ok := s.nodes[idx]; ok {
		return n
	}
	n := newNode(s.grid, idx)
	s.nodes[idx] = n
	return n
}

// Height returns the current height at (i,j): the node's level if
// materialized, else the base heightfield value.
func (s *Store) Height(i, j int) float32 {
	if n, ok := s.nodes[CellIndex{i, j}]; ok {
		return n.Level
	}
	return s.grid.BaseHeight(i, j)
}

// MarkModified records idx in the current step's modified-cell list.
func (s *Store) MarkModified(idx CellIndex) {
	s.modified[idx] = struct{}{}
}

// BeginStep resets the transient per-step fields (sigma, hit_level,
// sinkage_elastic, step_plastic_flow, erosion) on every node touched during
// the previous step, then clears the modified-cell list. Called once at the
// start of each step, before the ray-cast pass populates new hits.
func (s *Store) BeginStep() {
	for idx := range s.modified {
		if n, ok := s.nodes[idx]; ok {
			n.Sigma = 0
			n.HitLevel = infHit
			n.SinkageElastic = 0
			n.StepPlasticFlow = 0
			n.Erosion = false
		}
	}
	clear(s.modified)
}

// ModifiedCells returns the cell indices touched so far this step. The
// returned slice is a snapshot; iteration order is not guaranteed stable
// across calls (Go map iteration order is randomized) which is why the
// bulldozing stage iterates its own deterministically-ordered list rather
// than ranging over this map directly.
func (s *Store) ModifiedCells() []CellIndex {
	out := make([]CellIndex, 0, len(s.modified))
	for idx := range s.modified {
		out = append(out, idx)
	}
	return out
}

// Len reports the number of materialized node records.
func (s *Store) Len() int { return len(s.nodes) }

// All calls fn for every materialized node. Order is unspecified.
func (s *Store) All(fn func(*Node)) {
	for _, n := range s.nodes {
		fn(n)
	}
}
