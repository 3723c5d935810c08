//go:build !opencl

package scm

import (
	"errors"

	"cogentcore.org/core/math32"
)

// gpuSlabRejector is the no-op stand-in used when the module is built
// without -tags opencl; every dispatcher falls back to the CPU slab test
// in ActiveDomain.rejectsRay.
type gpuSlabRejector struct{}

func newGPUSlabRejector(capacity int) (*gpuSlabRejector, error) {
	return nil, errors.New("scm: OpenCL support not enabled; rebuild with -tags opencl")
}

func (g *gpuSlabRejector) rejectBatch(box OrientedBox, origins, dirs []math32.Vector3) ([]bool, error) {
	return nil, errors.New("scm: OpenCL support not enabled")
}

func (g *gpuSlabRejector) Close() {}

func (g *gpuSlabRejector) DeviceName() string { return "" }
