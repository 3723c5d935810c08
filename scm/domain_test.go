package scm

import (
	"testing"

	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type identityTestFrame struct{}

func (identityTestFrame) ToLocal(w math32.Vector3) math32.Vector3    { return w }
func (identityTestFrame) ToWorld(l math32.Vector3) math32.Vector3    { return l }
func (identityTestFrame) ToWorldDir(d math32.Vector3) math32.Vector3 { return d }

type fixedTestBody struct {
	pos math32.Vector3
}

func (b fixedTestBody) FrameRefToAbs(local math32.Vector3) math32.Vector3 {
	return local.Add(b.pos)
}
func (fixedTestBody) TransformDirectionParentToLocal(worldDir math32.Vector3) math32.Vector3 {
	return worldDir
}
func (fixedTestBody) GetContactPointSpeed(math32.Vector3) math32.Vector3 { return math32.Vector3{} }
func (b fixedTestBody) GetPos() math32.Vector3                          { return b.pos }

func TestActiveDomainRefreshSnapsToCellRange(t *testing.T) {
	g, err := InitializeFlat(10, 10, 0.5)
	require.NoError(t, err)

	d := &ActiveDomain{
		Body: fixedTestBody{pos: math32.Vec3(0, 0, 0)},
		Box: OrientedBox{
			Center: math32.Vector3{},
			HalfX:  math32.Vec3(1, 0, 0),
			HalfY:  math32.Vec3(0, 1, 0),
			HalfZ:  math32.Vec3(0, 0, 1),
		},
	}
	d.refresh(identityTestFrame{}, g)
	assert.LessOrEqual(t, d.minI, 0)
	assert.GreaterOrEqual(t, d.maxI, 0)
	assert.LessOrEqual(t, d.minJ, 0)
	assert.GreaterOrEqual(t, d.maxJ, 0)

	spans := d.cells(g)
	require.NotEmpty(t, spans)
	for _, s := range spans {
		assert.Equal(t, s.jLo, s.jHi)
	}
}

func TestDefaultActiveDomainCoversWholeGridAndNeverRejects(t *testing.T) {
	g, err := InitializeFlat(4, 4, 0.5)
	require.NoError(t, err)

	d := &ActiveDomain{isDefault: true}
	d.refresh(identityTestFrame{}, g) // no-op for default domains

	spans := d.cells(g)
	require.Len(t, spans, 1)
	assert.Equal(t, -g.Nx, spans[0].iLo)
	assert.Equal(t, g.Nx, spans[0].iHi)

	assert.False(t, d.rejectsRay(math32.Vec3(1000, 1000, 1000), math32.Vec3(0, 0, -1)))
}

func TestActiveDomainRejectsRayOutsideBox(t *testing.T) {
	d := &ActiveDomain{
		Box: OrientedBox{
			Center: math32.Vector3{},
			HalfX:  math32.Vec3(0.5, 0, 0),
			HalfY:  math32.Vec3(0, 0.5, 0),
			HalfZ:  math32.Vec3(0, 0, 0.5),
		},
	}
	// a ray far outside the box's x/y extent should be rejected.
	assert.True(t, d.rejectsRay(math32.Vec3(100, 100, 10), math32.Vec3(0, 0, -1)))
	// a ray through the box center should not be rejected.
	assert.False(t, d.rejectsRay(math32.Vec3(0, 0, 10), math32.Vec3(0, 0, -1)))
}
