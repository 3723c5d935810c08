package scm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBulldozingTestTerrain(t *testing.T) *Terrain {
	t.Helper()
	g, err := InitializeFlat(4, 4, 0.5)
	require.NoError(t, err)
	col := &planeCollider{planeZ: -0.05}
	tr, err := NewTerrain(g, col, identityTestFrame{}, 1)
	require.NoError(t, err)
	tr.dt = 1.0 / 60
	tr.lastHitCells = make(map[CellIndex]bool)
	return tr
}

func TestAddMaterialToNodeClampsAtHitLevel(t *testing.T) {
	tr := newBulldozingTestTerrain(t)
	n := tr.store.GetOrCreate(CellIndex{0, 0})
	n.Level = 0
	n.HitLevel = 0.1

	tr.addMaterialToNode(n, 0.3)
	assert.InDelta(t, float32(0.1), n.Level, 1e-5)
	assert.InDelta(t, float32(0.2), n.MassRemainder, 1e-5)
}

func TestAddMaterialToNodeUnclampedWhenNotInContact(t *testing.T) {
	tr := newBulldozingTestTerrain(t)
	n := tr.store.GetOrCreate(CellIndex{0, 0})
	n.Level = 0
	n.HitLevel = infHit

	tr.addMaterialToNode(n, 0.3)
	assert.InDelta(t, float32(0.3), n.Level, 1e-5)
	assert.Equal(t, float32(0), n.MassRemainder)
}

func TestRemoveMaterialFromNodeDrainsRemainderFirst(t *testing.T) {
	tr := newBulldozingTestTerrain(t)
	n := tr.store.GetOrCreate(CellIndex{0, 0})
	n.Level = 1
	n.MassRemainder = 0.5

	tr.removeMaterialFromNode(n, 0.2)
	assert.Equal(t, float32(0.3), n.MassRemainder)
	assert.Equal(t, float32(1), n.Level)

	tr.removeMaterialFromNode(n, 0.8)
	assert.Equal(t, float32(0), n.MassRemainder)
	assert.InDelta(t, float32(0.5), n.Level, 1e-5)
}

func TestRaiseBoundariesSpreadsFlowAcrossNeighbors(t *testing.T) {
	tr := newBulldozingTestTerrain(t)
	cell := CellIndex{0, 0}
	n := tr.store.GetOrCreate(cell)
	n.StepPlasticFlow = 1.0 // q = 1 * dt

	patch := &Patch{Cells: []CellIndex{cell}}
	tr.lastHitCells[cell] = true

	boundary := tr.raiseBoundaries([]*Patch{patch})
	assert.Len(t, boundary, 4) // the cell's 4 orthogonal neighbors
	for _, c := range boundary {
		bn, ok := tr.store.Get(c)
		require.True(t, ok)
		assert.True(t, bn.Erosion)
		assert.Greater(t, bn.Level, float32(0))
	}
}

func TestRaiseBoundariesSkipsPatchesWithNoPlasticFlow(t *testing.T) {
	tr := newBulldozingTestTerrain(t)
	cell := CellIndex{0, 0}
	tr.store.GetOrCreate(cell) // StepPlasticFlow defaults to 0
	patch := &Patch{Cells: []CellIndex{cell}}

	boundary := tr.raiseBoundaries([]*Patch{patch})
	assert.Empty(t, boundary)
}

func TestDilateErosionDomainExpandsFromBoundaryAndSkipsContactedCells(t *testing.T) {
	tr := newBulldozingTestTerrain(t)
	tr.bulldozing.Propagations = 2
	boundary := []CellIndex{{0, 0}}
	tr.lastHitCells[CellIndex{1, 0}] = true // this neighbor is excluded

	domain := tr.dilateErosionDomain(boundary)
	assert.Contains(t, domain, CellIndex{0, 0})
	assert.Contains(t, domain, CellIndex{-1, 0})
	assert.NotContains(t, domain, CellIndex{1, 0})
}

func TestEqualizeMassTransfersHalfTheDifferenceOverFour(t *testing.T) {
	tr := newBulldozingTestTerrain(t)
	a := &Node{MassRemainder: 1.0}
	b := &Node{MassRemainder: 0.0}
	tr.equalizeMass(a, b)
	assert.InDelta(t, float32(0.875), a.MassRemainder, 1e-5)
	assert.InDelta(t, float32(0.125), b.MassRemainder, 1e-5)
}

func TestLimitSlopeTransfersExcessAboveAngle(t *testing.T) {
	tr := newBulldozingTestTerrain(t)
	tr.bulldozing.ErosionAngleDeg = 0 // tan(0) == 0, any positive dy is excess
	a := &Node{Level: 1, HitLevel: infHit}
	b := &Node{Level: 0, HitLevel: infHit}
	tr.limitSlope(a, b, tr.store.Grid().Delta, tr.bulldozing.slopeTan())
	assert.Less(t, a.Level, float32(1))
	assert.Greater(t, b.Level, float32(0))
}
