package scm

import "cogentcore.org/core/math32"

// ForceAccumulator collects the per-step load submitted to one contactable
// and, in co-simulation mode, is exposed for external query instead of
// being submitted to the body/nodes.
type ForceAccumulator struct {
	Force, Torque math32.Vector3
}

// distributeForces accumulates per-cell forces by contactable identity,
// then submits (or, in co-simulation mode, retains) the rigid-body and
// FEA-node loads; loadable-surface loads are only retained. This stage
// is entirely serial — no parallel region — and its result must be
// invariant under the hit map's iteration order: per-cell force depends
// only on that cell and its patch's shape factor, and per-body
// accumulation is a commutative sum.
func (t *Terrain) distributeForces(forces []CellForce) {
	t.bodyForces = make(map[*RigidBodyContactable]*ForceAccumulator)
	t.nodeForces = make(map[*FEANode]math32.Vector3)
	t.surfaceForces = make(map[*SurfaceContactable]*ForceAccumulator)

	for _, cf := range forces {
		c, ok := cf.Contactable.(*Contactable)
		if !ok || c == nil {
			continue
		}
		switch c.Kind {
		case KindRigidBody:
			t.accumulateRigidBody(c.RigidBody, cf)
		case KindFEATriangle:
			t.accumulateTriangle(c.Triangle, cf)
		case KindSurface:
			t.accumulateSurface(c.Surface, cf)
		}
	}

	if t.cosim {
		return
	}
	for rb, acc := range t.bodyForces {
		if rb.Body == nil {
			continue
		}
		t.submitBodyLoad(rb, acc)
	}
	for node, f := range t.nodeForces {
		t.submitNodeLoad(node, f)
	}
}

func (t *Terrain) accumulateRigidBody(rb *RigidBodyContactable, cf CellForce) {
	if rb == nil {
		return
	}
	total := cf.Fn.Add(cf.Ft)
	acc, ok := t.bodyForces[rb]
	if !ok {
		acc = &ForceAccumulator{}
		t.bodyForces[rb] = acc
	}
	r := cf.WorldPoint.Sub(rb.COM)
	acc.Force = acc.Force.Add(total)
	acc.Torque = acc.Torque.Add(r.Cross(total))
}

func (t *Terrain) accumulateTriangle(tri *FEATriangleContactable, cf CellForce) {
	if tri == nil || tri.ComputeUVfromP == nil {
		return
	}
	w0, w1, w2 := tri.barycentric(cf.WorldPoint)
	total := cf.Fn.Add(cf.Ft)
	weights := [3]float32{w0, w1, w2}
	for i, node := range tri.Nodes {
		if node == nil {
			continue
		}
		t.nodeForces[node] = t.nodeForces[node].Add(total.MulScalar(weights[i]))
	}
}

// accumulateSurface sums the cell force into the surface's accumulator,
// readable through GetContactForceSurface. The force is not applied at
// AttachU/AttachV or anywhere else on the surface: LoadSink has no surface
// method, so surface loads are never submitted, in either mode.
func (t *Terrain) accumulateSurface(s *SurfaceContactable, cf CellForce) {
	if s == nil {
		return
	}
	total := cf.Fn.Add(cf.Ft)
	if acc, ok := t.surfaceForces[s]; ok {
		acc.Force = acc.Force.Add(total)
	} else {
		t.surfaceForces[s] = &ForceAccumulator{Force: total}
	}
}

// submitBodyLoad pushes the accumulated force/torque onto the body via the
// minimal LoadSink interface (the out-of-scope integrator's contract).
func (t *Terrain) submitBodyLoad(rb *RigidBodyContactable, acc *ForceAccumulator) {
	if t.loadSink != nil {
		t.loadSink.ApplyBodyLoad(rb.Body, acc.Force, acc.Torque)
	}
}

func (t *Terrain) submitNodeLoad(node *FEANode, f math32.Vector3) {
	if t.loadSink != nil {
		t.loadSink.ApplyNodeLoad(node, f)
	}
}

// LoadSink is the downward contract for submitting accumulated loads to
// the host integrator, skipped entirely in co-simulation mode.
type LoadSink interface {
	ApplyBodyLoad(body Body, force, torque math32.Vector3)
	ApplyNodeLoad(node *FEANode, force math32.Vector3)
}

// GetContactForceBody returns the accumulated force and torque on rb for
// the last completed step, available in both normal and co-simulation
// mode.
func (t *Terrain) GetContactForceBody(rb *RigidBodyContactable) (math32.Vector3, math32.Vector3) {
	if acc, ok := t.bodyForces[rb]; ok {
		return acc.Force, acc.Torque
	}
	return math32.Vector3{}, math32.Vector3{}
}

// GetContactForceNode returns the accumulated force on an FEA node for the
// last completed step.
func (t *Terrain) GetContactForceNode(node *FEANode) math32.Vector3 {
	return t.nodeForces[node]
}

// GetContactForceSurface returns the accumulated force on a loadable
// surface for the last completed step, available in both normal and
// co-simulation mode.
func (t *Terrain) GetContactForceSurface(s *SurfaceContactable) math32.Vector3 {
	if acc, ok := t.surfaceForces[s]; ok {
		return acc.Force
	}
	return math32.Vector3{}
}
