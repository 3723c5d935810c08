//go:build opencl

package scm

import (
	"errors"
	"fmt"
	"unsafe"

	"cogentcore.org/core/math32"
	"github.com/jgillich/go-opencl/cl"
)

// gpuSlabRejector runs the Kay-Kajiya slab test for a batch of cells
// against one oriented box on an OpenCL device, the bulk-throughput
// analog of ActiveDomain.rejectsRay. It is an optional accelerator for
// domains covering enough candidate cells that per-cell CPU dispatch
// dominates the ray-cast stage; small domains are cheaper to reject on
// the CPU and should not route through this path.
type gpuSlabRejector struct {
	context    *cl.Context
	queue      *cl.CommandQueue
	program    *cl.Program
	kernel     *cl.Kernel
	originBuf  *cl.MemObject
	dirBuf     *cl.MemObject
	rejectBuf  *cl.MemObject
	capacity   int
	deviceName string
}

const slabKernelSource = `__kernel void slab_reject(
    const int count,
    const float cx, const float cy, const float cz,
    const float hx, const float hy, const float hz,
    __global const float* origin, // 3 floats per cell
    __global const float* dir,    // 3 floats per cell
    __global int* reject)
{
    int i = get_global_id(0);
    if (i >= count) {
        return;
    }
    float ox = origin[i*3+0], oy = origin[i*3+1], oz = origin[i*3+2];
    float dx = dir[i*3+0], dy = dir[i*3+1], dz = dir[i*3+2];
    float tmin = -1e30f, tmax = 1e30f;
    float o[3] = {ox, oy, oz};
    float d[3] = {dx, dy, dz};
    float c[3] = {cx, cy, cz};
    float h[3] = {hx, hy, hz};
    int rejected = 0;
    for (int axis = 0; axis < 3; axis++) {
        float invd = (d[axis] == 0.0f) ? 1e30f : 1.0f / d[axis];
        float t1 = (c[axis] - h[axis] - o[axis]) * invd;
        float t2 = (c[axis] + h[axis] - o[axis]) * invd;
        if (t1 > t2) { float tmp = t1; t1 = t2; t2 = tmp; }
        if (t1 > tmin) tmin = t1;
        if (t2 < tmax) tmax = t2;
        if (tmin > tmax) { rejected = 1; break; }
    }
    reject[i] = rejected;
}`

// newGPUSlabRejector builds an OpenCL context over the first available
// GPU device, falling back to CPU if none is present.
func newGPUSlabRejector(capacity int) (*gpuSlabRejector, error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		return nil, fmt.Errorf("querying OpenCL platforms: %w", err)
	}
	if len(platforms) == 0 {
		return nil, errors.New("no OpenCL platforms available")
	}
	var device *cl.Device
	for _, p := range platforms {
		if devices, derr := p.GetDevices(cl.DeviceTypeGPU); derr == nil && len(devices) > 0 {
			device = devices[0]
			break
		}
	}
	if device == nil {
		for _, p := range platforms {
			if devices, derr := p.GetDevices(cl.DeviceTypeCPU); derr == nil && len(devices) > 0 {
				device = devices[0]
				break
			}
		}
	}
	if device == nil {
		return nil, errors.New("no suitable OpenCL devices found")
	}

	context, err := cl.CreateContext([]*cl.Device{device})
	if err != nil {
		return nil, fmt.Errorf("creating OpenCL context: %w", err)
	}
	queue, err := context.CreateCommandQueue(device, 0)
	if err != nil {
		context.Release()
		return nil, fmt.Errorf("creating OpenCL command queue: %w", err)
	}
	program, err := context.CreateProgramWithSource([]string{slabKernelSource})
	if err != nil {
		queue.Release()
		context.Release()
		return nil, fmt.Errorf("creating OpenCL program: %w", err)
	}
	if err := program.BuildProgram([]*cl.Device{device}, ""); err != nil {
		program.Release()
		queue.Release()
		context.Release()
		return nil, fmt.Errorf("building OpenCL program: %w", err)
	}
	kernel, err := program.CreateKernel("slab_reject")
	if err != nil {
		program.Release()
		queue.Release()
		context.Release()
		return nil, fmt.Errorf("creating OpenCL kernel: %w", err)
	}

	floatSize := int(unsafe.Sizeof(float32(0)))
	originBuf, err := context.CreateEmptyBuffer(cl.MemReadOnly, capacity*3*floatSize)
	if err != nil {
		kernel.Release()
		program.Release()
		queue.Release()
		context.Release()
		return nil, fmt.Errorf("allocating origin buffer: %w", err)
	}
	dirBuf, err := context.CreateEmptyBuffer(cl.MemReadOnly, capacity*3*floatSize)
	if err != nil {
		originBuf.Release()
		kernel.Release()
		program.Release()
		queue.Release()
		context.Release()
		return nil, fmt.Errorf("allocating direction buffer: %w", err)
	}
	rejectBuf, err := context.CreateEmptyBuffer(cl.MemWriteOnly, capacity*int(unsafe.Sizeof(int32(0))))
	if err != nil {
		dirBuf.Release()
		originBuf.Release()
		kernel.Release()
		program.Release()
		queue.Release()
		context.Release()
		return nil, fmt.Errorf("allocating reject buffer: %w", err)
	}

	return &gpuSlabRejector{
		context:    context,
		queue:      queue,
		program:    program,
		kernel:     kernel,
		originBuf:  originBuf,
		dirBuf:     dirBuf,
		rejectBuf:  rejectBuf,
		capacity:   capacity,
		deviceName: device.Name(),
	}, nil
}

// rejectBatch evaluates the slab test for every (origin[i], dir[i]) pair
// against box in one device dispatch, returning a per-cell reject flag.
func (g *gpuSlabRejector) rejectBatch(box OrientedBox, origins, dirs []math32.Vector3) ([]bool, error) {
	n := len(origins)
	if n == 0 {
		return nil, nil
	}
	if n > g.capacity {
		return nil, fmt.Errorf("batch of %d exceeds rejector capacity %d", n, g.capacity)
	}
	flatOrigin := make([]float32, n*3)
	flatDir := make([]float32, n*3)
	for i := range origins {
		flatOrigin[i*3], flatOrigin[i*3+1], flatOrigin[i*3+2] = origins[i].X, origins[i].Y, origins[i].Z
		flatDir[i*3], flatDir[i*3+1], flatDir[i*3+2] = dirs[i].X, dirs[i].Y, dirs[i].Z
	}
	if _, err := g.queue.EnqueueWriteBufferFloat32(g.originBuf, false, 0, flatOrigin, nil); err != nil {
		return nil, fmt.Errorf("writing origin buffer: %w", err)
	}
	if _, err := g.queue.EnqueueWriteBufferFloat32(g.dirBuf, false, 0, flatDir, nil); err != nil {
		return nil, fmt.Errorf("writing direction buffer: %w", err)
	}
	if err := g.kernel.SetArgs(
		int32(n),
		box.Center.X, box.Center.Y, box.Center.Z,
		box.HalfX.X, box.HalfY.Y, box.HalfZ.Z,
		g.originBuf, g.dirBuf, g.rejectBuf,
	); err != nil {
		return nil, fmt.Errorf("setting kernel arguments: %w", err)
	}
	if _, err := g.queue.EnqueueNDRangeKernel(g.kernel, nil, []int{n}, nil, nil); err != nil {
		return nil, fmt.Errorf("enqueueing kernel: %w", err)
	}
	out := make([]int32, n)
	byteLen := n * int(unsafe.Sizeof(int32(0)))
	if _, err := g.queue.EnqueueReadBuffer(g.rejectBuf, true, 0, byteLen, unsafe.Pointer(&out[0]), nil); err != nil {
		return nil, fmt.Errorf("reading reject buffer: %w", err)
	}
	rejects := make([]bool, n)
	for i, v := range out {
		rejects[i] = v != 0
	}
	return rejects, nil
}

func (g *gpuSlabRejector) Close() {
	if g.rejectBuf != nil {
		g.rejectBuf.Release()
	}
	if g.dirBuf != nil {
		g.dirBuf.Release()
	}
	if g.originBuf != nil {
		g.originBuf.Release()
	}
	if g.kernel != nil {
		g.kernel.Release()
	}
	if g.program != nil {
		g.program.Release()
	}
	if g.queue != nil {
		g.queue.Release()
	}
	if g.context != nil {
		g.context.Release()
	}
}

func (g *gpuSlabRejector) DeviceName() string { return g.deviceName }
