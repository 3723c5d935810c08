package scm

import "cogentcore.org/core/math32"

// Contactable is an explicit tagged variant of the three object kinds the
// terrain can push forces into: a small closed set of cases instead of a
// deep inheritance chain.
type Contactable struct {
	Kind ContactableKind

	RigidBody *RigidBodyContactable
	Triangle  *FEATriangleContactable
	Surface   *SurfaceContactable

	Override *ContactableOverride
}

// ContactableKind tags which of Contactable's payload fields is populated.
type ContactableKind int

const (
	KindRigidBody ContactableKind = iota
	KindFEATriangle
	KindSurface
)

// RigidBodyContactable carries the minimal capability set for a rigid
// body: its center of mass and a force/torque accumulator.
type RigidBodyContactable struct {
	Body Body
	COM  math32.Vector3

	forceAccum  math32.Vector3
	torqueAccum math32.Vector3
}

// FEANode is one vertex of an FEATriangleContactable.
type FEANode struct {
	ID       int
	Position math32.Vector3

	forceAccum math32.Vector3
}

// FEATriangleContactable carries the three FEA node accessors a triangle
// exposes, plus its UV solver.
type FEATriangleContactable struct {
	Nodes        [3]*FEANode
	ComputeUVfromP func(world math32.Vector3) (u, v float32)
}

// SurfaceContactable is the generic loadable-surface case. The terrain
// only accumulates the total force on it (see accumulateSurface); AttachU
// and AttachV are carried but not read, no torque is computed, and the
// force is not submitted to a LoadSink.
type SurfaceContactable struct {
	AttachU, AttachV float32

	forceAccum math32.Vector3
}

// barycentric computes the barycentric weights of worldPoint on the
// triangle defined by the node positions, via the UV solver plus the
// standard w = 1-u-v completion.
func (f *FEATriangleContactable) barycentric(worldPoint math32.Vector3) (w0, w1, w2 float32) {
	u, v := f.ComputeUVfromP(worldPoint)
	return 1 - u - v, u, v
}
