package scm

import "cogentcore.org/core/math32"

// Body is the minimal capability set the active-domain resolver and force
// distributor need from a rigid body.
type Body interface {
	FrameRefToAbs(local math32.Vector3) math32.Vector3
	TransformDirectionParentToLocal(worldDir math32.Vector3) math32.Vector3
	GetContactPointSpeed(worldPoint math32.Vector3) math32.Vector3
	GetPos() math32.Vector3
}

// OrientedBox is a body-attached box used to restrict which cells are
// ray-tested each step.
type OrientedBox struct {
	Center math32.Vector3 // in body frame
	HalfX  math32.Vector3 // half-dimensions, body-frame axes already scaled
	HalfY  math32.Vector3
	HalfZ  math32.Vector3
}

// corners returns the 8 box corners in the body frame.
func (b OrientedBox) corners() [8]math32.Vector3 {
	var cs [8]math32.Vector3
	signs := [8][3]float32{
		{-1, -1, -1}, {-1, -1, 1}, {-1, 1, -1}, {-1, 1, 1},
		{1, -1, -1}, {1, -1, 1}, {1, 1, -1}, {1, 1, 1},
	}
	for k, s := range signs {
		cs[k] = b.Center.
			Add(b.HalfX.MulScalar(s[0])).
			Add(b.HalfY.MulScalar(s[1])).
			Add(b.HalfZ.MulScalar(s[2]))
	}
	return cs
}

// ActiveDomain is one monitored body's persistent tracking state.
type ActiveDomain struct {
	Body Body
	Box  OrientedBox

	// cells covered this step, cached.
	minI, maxI, minJ, maxJ int
	isDefault              bool

	// invNormal is the componentwise inverse of the SCM +z direction
	// expressed in the body frame, recomputed by refresh each step, with
	// zero components clamped to a large sentinel to avoid
	// division-by-zero. rejectsRay does not read it: it inverts the ray
	// direction it is given.
	invNormal math32.Vector3
}

const slabSentinel = 1e30

func safeInv(v float32) float32 {
	if v == 0 {
		return slabSentinel
	}
	return 1 / v
}

// refresh projects the box's 8 corners into the SCM frame, takes the (x,y)
// bounding rectangle, and snaps it to the integer cell range.
func (d *ActiveDomain) refresh(frame Frame, grid *Grid) {
	if d.isDefault {
		return
	}
	corners := d.Box.corners()
	var minX, minY, maxX, maxY float32
	for k, c := range corners {
		world := d.Body.FrameRefToAbs(c)
		local := frame.ToLocal(world)
		if k == 0 {
			minX, maxX = local.X, local.X
			minY, maxY = local.Y, local.Y
			continue
		}
		if local.X < minX {
			minX = local.X
		}
		if local.X > maxX {
			maxX = local.X
		}
		if local.Y < minY {
			minY = local.Y
		}
		if local.Y > maxY {
			maxY = local.Y
		}
	}
	d.minI = clampCoord(int(minX/grid.Delta), -grid.Nx, grid.Nx)
	d.maxI = clampCoord(int(maxX/grid.Delta)+1, -grid.Nx, grid.Nx)
	d.minJ = clampCoord(int(minY/grid.Delta), -grid.Ny, grid.Ny)
	d.maxJ = clampCoord(int(maxY/grid.Delta)+1, -grid.Ny, grid.Ny)

	upLocal := math32.Vec3(0, 0, 1)
	upWorld := frame.ToWorldDir(upLocal)
	upBody := d.Body.TransformDirectionParentToLocal(upWorld)
	d.invNormal = math32.Vec3(safeInv(upBody.X), safeInv(upBody.Y), safeInv(upBody.Z))
}

// cells enumerates the candidate cell range covered this step. The rows
// are returned as contiguous spans so the ray-cast dispatcher can hand a
// worker a compact per-row range instead of materializing every index.
func (d *ActiveDomain) cells(grid *Grid) []rowSpan {
	if d.isDefault {
		return []rowSpan{{jLo: -grid.Ny, jHi: grid.Ny, iLo: -grid.Nx, iHi: grid.Nx}}
	}
	if d.minI > d.maxI || d.minJ > d.maxJ {
		return nil
	}
	rows := make([]rowSpan, 0, d.maxJ-d.minJ+1)
	for j := d.minJ; j <= d.maxJ; j++ {
		rows = append(rows, rowSpan{jLo: j, jHi: j, iLo: d.minI, iHi: d.maxI})
	}
	return rows
}

// rowSpan is one contiguous range of candidate cells: either a single row
// (jLo==jHi) for a bounded domain, or the full grid rectangle for the
// default domain.
type rowSpan struct {
	jLo, jHi int
	iLo, iHi int
}

// rejectsRay performs the standard Kay-Kajiya slab test of a vertical
// SCM-frame ray against the domain's oriented box, in the body frame. It
// is a fast rejection only; default domains skip it entirely.
func (d *ActiveDomain) rejectsRay(rayOriginBody, rayDirBody math32.Vector3) bool {
	if d.isDefault {
		return false
	}
	tmin := float32(-slabSentinel)
	tmax := float32(slabSentinel)
	for axis := 0; axis < 3; axis++ {
		var o, dir, half, center float32
		switch axis {
		case 0:
			o, dir, half, center = rayOriginBody.X, rayDirBody.X, d.Box.HalfX.X, d.Box.Center.X
		case 1:
			o, dir, half, center = rayOriginBody.Y, rayDirBody.Y, d.Box.HalfY.Y, d.Box.Center.Y
		default:
			o, dir, half, center = rayOriginBody.Z, rayDirBody.Z, d.Box.HalfZ.Z, d.Box.Center.Z
		}
		invD := safeInv(dir)
		t1 := (center - half - o) * invD
		t2 := (center + half - o) * invD
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return true
		}
	}
	return false
}

// Frame is the user-supplied rigid frame the SCM deformation occurs
// relative to. ToLocal/ToWorld transform points; ToWorldDir
// transforms directions only (no translation).
type Frame interface {
	ToLocal(world math32.Vector3) math32.Vector3
	ToWorld(local math32.Vector3) math32.Vector3
	ToWorldDir(localDir math32.Vector3) math32.Vector3
}

// Collider is the external collision service's ray-query contract.
// Implementations must be safely callable concurrently from multiple
// goroutines: it is invoked from inside the ray-cast dispatcher's parallel
// region.
type Collider interface {
	RayHit(from, to math32.Vector3) (hit bool, contactable any, worldPoint math32.Vector3)
	// WorldAABB is consulted only for the default active domain's box
	// center; it does not limit the cells that domain covers.
	WorldAABB() math32.Box3
}
