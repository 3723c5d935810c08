package scm

import (
	"math"

	"cogentcore.org/core/math32"
)

// CellForce is the normal+tangential force computed for one contact cell,
// in world-frame, along with enough context to distribute it.
type CellForce struct {
	Cell        CellIndex
	Node        *Node
	WorldPoint  math32.Vector3
	Normal      math32.Vector3 // world-frame unit normal N
	Tangent     math32.Vector3 // world-frame unit tangent That
	Fn          math32.Vector3
	Ft          math32.Vector3
	Contactable any
}

// applyConstitutive runs the Bekker/Janosi-Hanamoto/Krenn-Hirzinger update
// for one ray hit, mutating the node's elastic-plastic state and returning
// the resulting cell force. ok is false when the elastic-trial pressure was
// negative: the cell is clamped to zero, not marked modified, and
// excluded from force distribution.
func (t *Terrain) applyConstitutive(hit rayHit, oob float32) (CellForce, bool) {
	n := t.store.GetOrCreate(hit.cell)
	n.HitLevel = t.frame.ToLocal(hit.worldPoint).Z

	soil := t.paramsAt(n)

	ca := n.Normal.Z
	if ca == 0 {
		ca = 1e-6
	}
	s := ca * (n.LevelInitial - n.HitLevel)

	sigma := soil.K * (s - n.SinkagePlastic)
	if sigma < 0 {
		return CellForce{}, false
	}

	t.store.MarkModified(hit.cell)

	worldN := t.frame.ToWorldDir(n.Normal)
	var v math32.Vector3
	if body := contactableBody(hit.contactable); body != nil {
		v = body.GetContactPointSpeed(hit.worldPoint)
	}
	vn := v.Dot(worldN)
	tangentRaw := v.Sub(worldN.MulScalar(vn))
	tHat := negNormalizeOrZero(tangentRaw)

	n.Sinkage = s
	n.Level = n.HitLevel
	n.Kshear += v.Dot(tHat.MulScalar(-1)) * t.dt

	if sigma > n.SigmaYield {
		bekker := (oob*soil.Kc + soil.Kphi) * powf(s, soil.N)
		sigma = bekker
		n.SigmaYield = bekker
		oldPlastic := n.SinkagePlastic
		n.SinkagePlastic = s - sigma/soil.K
		n.StepPlasticFlow = 0
		if t.dt > 0 {
			n.StepPlasticFlow = (n.SinkagePlastic - oldPlastic) / t.dt
		}
	}

	n.SinkageElastic = n.Sinkage - n.SinkagePlastic

	sigma += -vn * soil.R

	tauMax := soil.C + sigma*soil.mu()
	tau := tauMax * (1 - expf(-n.Kshear/soil.J))
	n.Sigma = sigma
	n.Tau = tau

	if ov := contactableOverride(hit.contactable); ov != nil && ov.Alpha > 0 {
		tauMaxObj := ov.C + sigma*ov.Mu
		tauObj := tauMaxObj * (1 - expf(-n.Kshear/ov.J))
		tau = (1-ov.Alpha)*tau + ov.Alpha*tauObj
	}

	n.Level = n.LevelInitial - n.Sinkage/ca

	area := t.store.Grid().Delta * t.store.Grid().Delta
	return CellForce{
		Cell:        hit.cell,
		Node:        n,
		WorldPoint:  hit.worldPoint,
		Normal:      worldN,
		Tangent:     tHat,
		Fn:          worldN.MulScalar(area * sigma),
		Ft:          tHat.MulScalar(area * tau),
		Contactable: hit.contactable,
	}, true
}

func contactableOverride(c any) *ContactableOverride {
	if v, ok := c.(*Contactable); ok {
		return v.Override
	}
	return nil
}

// contactableBody returns the rigid body backing c, if c is a rigid-body
// contactable; nil for FEA triangles and loadable surfaces, which have no
// single rigid-body velocity.
func contactableBody(c any) Body {
	if v, ok := c.(*Contactable); ok && v.Kind == KindRigidBody && v.RigidBody != nil {
		return v.RigidBody.Body
	}
	return nil
}

// negNormalizeOrZero returns -normalize(v), or the zero vector if v is
// (numerically) zero, avoiding a NaN tangent when velocity has no
// in-plane component.
func negNormalizeOrZero(v math32.Vector3) math32.Vector3 {
	l := v.Length()
	if l < 1e-9 {
		return math32.Vector3{}
	}
	return v.MulScalar(-1 / l)
}

func powf(base, exp float32) float32 {
	if base <= 0 {
		return 0
	}
	return float32(math.Pow(float64(base), float64(exp)))
}

func expf(x float32) float32 {
	return float32(math.Exp(float64(x)))
}
