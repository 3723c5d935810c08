package main

import (
	"cogentcore.org/core/math32"

	"scmterrain/scm"
)

// identityFrame is the SCM reference frame for the demo: world space and
// terrain-local space coincide, so every transform is the identity.
type identityFrame struct{}

func (identityFrame) ToLocal(world math32.Vector3) math32.Vector3    { return world }
func (identityFrame) ToWorld(local math32.Vector3) math32.Vector3    { return local }
func (identityFrame) ToWorldDir(dir math32.Vector3) math32.Vector3   { return dir }

// probeBody is a stand-in for the out-of-scope multibody integrator: one
// spherical rigid body whose position is driven directly by keyboard
// input rather than a physics solver. It implements scm.Body so the
// terrain can query its velocity at the contact point.
type probeBody struct {
	pos      math32.Vector3
	vel      math32.Vector3
	radius   float32
	lastForce, lastTorque math32.Vector3
}

func newProbeBody() *probeBody {
	return &probeBody{pos: math32.Vec3(0, 0, probeRadius*3), radius: probeRadius}
}

func (b *probeBody) FrameRefToAbs(local math32.Vector3) math32.Vector3 {
	return b.pos.Add(local)
}

func (b *probeBody) TransformDirectionParentToLocal(worldDir math32.Vector3) math32.Vector3 {
	return worldDir // demo body carries no rotation
}

func (b *probeBody) GetContactPointSpeed(worldPoint math32.Vector3) math32.Vector3 {
	return b.vel
}

func (b *probeBody) GetPos() math32.Vector3 { return b.pos }

// probeWorld is the demo's Collider + LoadSink: a single sphere tested
// against the terrain's vertical probe rays, standing in for the
// out-of-scope collision/multibody system.
type probeWorld struct {
	body      *probeBody
	contactable *scm.Contactable
}

func newProbeWorld() *probeWorld {
	b := newProbeBody()
	return &probeWorld{
		body: b,
		contactable: &scm.Contactable{
			Kind:      scm.KindRigidBody,
			RigidBody: &scm.RigidBodyContactable{Body: b, COM: b.pos},
		},
	}
}

// RayHit intersects the vertical probe ray [from,to] against the probe
// sphere's lower hemisphere, the demo's minimal stand-in for a real
// collision-detection backend.
func (pw *probeWorld) RayHit(from, to math32.Vector3) (bool, any, math32.Vector3) {
	pw.contactable.RigidBody.COM = pw.body.pos
	c := pw.body.pos
	r := pw.body.radius

	// Vertical ray: x,y fixed, z from from.Z down to to.Z.
	dx := from.X - c.X
	dy := from.Y - c.Y
	horiz2 := dx*dx + dy*dy
	if horiz2 > r*r {
		return false, nil, math32.Vector3{}
	}
	dz := math32.Sqrt(r*r - horiz2)
	contactZ := c.Z - dz // lower hemisphere surface

	lo, hi := to.Z, from.Z
	if lo > hi {
		lo, hi = hi, lo
	}
	if contactZ < lo || contactZ > hi {
		return false, nil, math32.Vector3{}
	}
	return true, pw.contactable, math32.Vec3(from.X, from.Y, contactZ)
}

func (pw *probeWorld) WorldAABB() math32.Box3 {
	r := pw.body.radius
	half := math32.Vec3(r, r, r)
	var box math32.Box3
	box.SetFromCenterAndSize(pw.body.pos, half.MulScalar(2))
	return box
}

func (pw *probeWorld) ApplyBodyLoad(body scm.Body, force, torque math32.Vector3) {
	pw.body.lastForce = force
	pw.body.lastTorque = torque
}

func (pw *probeWorld) ApplyNodeLoad(node *scm.FEANode, force math32.Vector3) {}
