package main

import (
	"cogentcore.org/core/math32"

	"scmterrain/scm"
)

// pixelMesh is the demo's VisualizationMesh: rather than a real 3D
// triangle mesh, it projects the heightfield straight down into a
// w*h RGBA pixel buffer that render.go bulk-uploads with
// ebiten's Image.WritePixels.
type pixelMesh struct {
	nx, ny int
	pixels []byte // w*h*4, RGBA
}

func newPixelMesh(nx, ny int) *pixelMesh {
	return &pixelMesh{nx: nx, ny: ny, pixels: make([]byte, w*h*4)}
}

// VertexIndexForCell maps a cell to a pixel index, centered on the
// image. Cells outside the image bounds are reported absent.
func (m *pixelMesh) VertexIndexForCell(c scm.CellIndex) (int, bool) {
	px := c.I + w/2
	py := h/2 - c.J
	if px < 0 || px >= w || py < 0 || py >= h {
		return 0, false
	}
	return py*w + px, true
}

// SetVertex writes one pixel's color, modulated by the surface normal's
// vertical component for simple top-down diffuse shading.
func (m *pixelMesh) SetVertex(index int, pos, normal math32.Vector3, r, g, b, a float32) {
	shade := normal.Z
	if shade < 0.3 {
		shade = 0.3
	}
	base := index * 4
	if base < 0 || base+4 > len(m.pixels) {
		return
	}
	m.pixels[base+0] = clampByte(r * shade * 255)
	m.pixels[base+1] = clampByte(g * shade * 255)
	m.pixels[base+2] = clampByte(b * shade * 255)
	m.pixels[base+3] = clampByte(a * 255)
}

func (m *pixelMesh) Wireframe() bool { return false }

func (m *pixelMesh) Flush(modifiedIndices []int) {}

func clampByte(v float32) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
