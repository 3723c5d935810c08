package scm

import (
	"image"
	"image/color"
	"testing"

	"cogentcore.org/core/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeHeightmapMapsGrayRange(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x * 64)})
		}
	}
	g, err := InitializeHeightmap(Heightmap{Img: img}, 2, 2, 0, 10, 0.5)
	require.NoError(t, err)

	// Left edge of the image (gray 0) maps toward hMin, right edge (gray
	// near 255) maps toward hMax.
	left := g.BaseHeight(-g.Nx, 0)
	right := g.BaseHeight(g.Nx, 0)
	assert.Less(t, left, right)
}

func TestInitializeHeightmapRejectsNilImage(t *testing.T) {
	_, err := InitializeHeightmap(Heightmap{}, 2, 2, 0, 10, 0.5)
	assert.Error(t, err)
}

func TestInitializeMeshLastWriteWins(t *testing.T) {
	tris := []MeshTriangle{
		{A: math32.Vec3(-1, -1, 0), B: math32.Vec3(1, -1, 0), C: math32.Vec3(-1, 1, 0)},
		{A: math32.Vec3(-1, 1, 0), B: math32.Vec3(1, -1, 0), C: math32.Vec3(1, 1, 2)},
		// same footprint as the first triangle, one unit higher, written last
		{A: math32.Vec3(-1, -1, 1), B: math32.Vec3(1, -1, 1), C: math32.Vec3(-1, 1, 1)},
	}
	g, err := InitializeMesh(tris, 0, 0.2)
	require.NoError(t, err)
	// Cell (-1,-1) lies inside both the first and the third triangle; the
	// third one is rasterized last, so its height (1) wins over the first
	// triangle's height and the floor (both 0).
	h := g.BaseHeight(-1, -1)
	assert.InDelta(t, float32(1), h, 1e-4)
}
