package scm

import (
	"testing"

	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLoadSink struct {
	bodyForce  math32.Vector3
	bodyTorque math32.Vector3
	nodeForce  map[*FEANode]math32.Vector3
}

func newRecordingLoadSink() *recordingLoadSink {
	return &recordingLoadSink{nodeForce: make(map[*FEANode]math32.Vector3)}
}

func (s *recordingLoadSink) ApplyBodyLoad(body Body, force, torque math32.Vector3) {
	s.bodyForce = s.bodyForce.Add(force)
	s.bodyTorque = s.bodyTorque.Add(torque)
}

func (s *recordingLoadSink) ApplyNodeLoad(node *FEANode, force math32.Vector3) {
	s.nodeForce[node] = s.nodeForce[node].Add(force)
}

func newForceTestTerrain(t *testing.T) *Terrain {
	t.Helper()
	g, err := InitializeFlat(4, 4, 0.5)
	require.NoError(t, err)
	col := &planeCollider{planeZ: -0.05}
	tr, err := NewTerrain(g, col, identityTestFrame{}, 1)
	require.NoError(t, err)
	return tr
}

func TestDistributeForcesAccumulatesPerRigidBody(t *testing.T) {
	tr := newForceTestTerrain(t)
	sink := newRecordingLoadSink()
	tr.SetLoadSink(sink)

	rb := &RigidBodyContactable{Body: fixedTestBody{}, COM: math32.Vector3{}}
	c := &Contactable{Kind: KindRigidBody, RigidBody: rb}

	forces := []CellForce{
		{WorldPoint: math32.Vec3(1, 0, 0), Fn: math32.Vec3(0, 0, 10), Ft: math32.Vector3{}, Contactable: c},
		{WorldPoint: math32.Vec3(-1, 0, 0), Fn: math32.Vec3(0, 0, 10), Ft: math32.Vector3{}, Contactable: c},
	}
	tr.distributeForces(forces)

	fr, tq := tr.GetContactForceBody(rb)
	assert.InDelta(t, float32(20), fr.Z, 1e-4)
	// Opposite-side torques from symmetric contact points should cancel.
	assert.InDelta(t, float32(0), tq.Length(), 1e-3)
	assert.InDelta(t, float32(20), sink.bodyForce.Z, 1e-4)
}

func TestDistributeForcesCosimulationSuppressesSubmission(t *testing.T) {
	tr := newForceTestTerrain(t)
	sink := newRecordingLoadSink()
	tr.SetLoadSink(sink)
	tr.SetCosimulationMode(true)

	rb := &RigidBodyContactable{Body: fixedTestBody{}}
	c := &Contactable{Kind: KindRigidBody, RigidBody: rb}
	forces := []CellForce{{Fn: math32.Vec3(0, 0, 5), Contactable: c}}
	tr.distributeForces(forces)

	// Accumulator is still queryable...
	fr, _ := tr.GetContactForceBody(rb)
	assert.InDelta(t, float32(5), fr.Z, 1e-4)
	// ...but nothing was pushed to the sink.
	assert.Equal(t, float32(0), sink.bodyForce.Z)
}

func TestDistributeForcesDistributesToFEANodesByBarycentricWeight(t *testing.T) {
	tr := newForceTestTerrain(t)
	sink := newRecordingLoadSink()
	tr.SetLoadSink(sink)

	n0, n1, n2 := &FEANode{ID: 0}, &FEANode{ID: 1}, &FEANode{ID: 2}
	tri := &FEATriangleContactable{
		Nodes: [3]*FEANode{n0, n1, n2},
		ComputeUVfromP: func(world math32.Vector3) (float32, float32) {
			return 0.5, 0.5 // w0=0, w1=0.5, w2=0.5
		},
	}
	c := &Contactable{Kind: KindFEATriangle, Triangle: tri}
	forces := []CellForce{{Fn: math32.Vec3(0, 0, 10), Contactable: c}}
	tr.distributeForces(forces)

	assert.InDelta(t, float32(0), tr.GetContactForceNode(n0).Z, 1e-4)
	assert.InDelta(t, float32(5), tr.GetContactForceNode(n1).Z, 1e-4)
	assert.InDelta(t, float32(5), tr.GetContactForceNode(n2).Z, 1e-4)
	assert.InDelta(t, float32(5), sink.nodeForce[n1].Z, 1e-4)
}

func TestDistributeForcesAccumulatesSurfaceForceQueryableViaGetter(t *testing.T) {
	tr := newForceTestTerrain(t)
	surf := &SurfaceContactable{AttachU: 0.5, AttachV: 0.5}
	c := &Contactable{Kind: KindSurface, Surface: surf}

	forces := []CellForce{
		{Fn: math32.Vec3(0, 0, 4), Contactable: c},
		{Fn: math32.Vec3(0, 0, 6), Contactable: c},
	}
	tr.distributeForces(forces)

	assert.InDelta(t, float32(10), tr.GetContactForceSurface(surf).Z, 1e-4)

	other := &SurfaceContactable{}
	assert.Equal(t, math32.Vector3{}, tr.GetContactForceSurface(other),
		"an untouched surface must read back zero, not panic on a missing map entry")
}

func TestDistributeForcesResetsAccumulatorsEachCall(t *testing.T) {
	tr := newForceTestTerrain(t)
	rb := &RigidBodyContactable{Body: fixedTestBody{}}
	c := &Contactable{Kind: KindRigidBody, RigidBody: rb}

	tr.distributeForces([]CellForce{{Fn: math32.Vec3(0, 0, 10), Contactable: c}})
	fr1, _ := tr.GetContactForceBody(rb)
	assert.InDelta(t, float32(10), fr1.Z, 1e-4)

	// A step with no hits on this body must not carry over the old force.
	tr.distributeForces(nil)
	fr2, _ := tr.GetContactForceBody(rb)
	assert.Equal(t, float32(0), fr2.Z)
}
