//go:build windows

package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"
)

// maxWorkgroupsPerDim is the WebGPU limit on dispatch size per dimension.
const maxWorkgroupsPerDim = 65535

// gpuContext owns the WebGPU device and its compiled pipelines.
type gpuContext struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	// Shader and pipeline cache
	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline
	mu        sync.RWMutex
}

// newContext acquires an adapter, a device and its queue.
func newContext() (ctx *gpuContext, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			ctx = nil
			err = fmt.Errorf("%w: native library not available: %v", ErrUnavailable, r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		instance.Release()
		return nil, fmt.Errorf("%w: failed to request adapter: %w", ErrUnavailable, err)
	}

	device, err := adapter.RequestDevice(nil)
	if err != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: failed to request device: %w", ErrUnavailable, err)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: failed to get queue", ErrUnavailable)
	}

	return &gpuContext{
		instance:  instance,
		adapter:   adapter,
		device:    device,
		queue:     queue,
		shaders:   make(map[string]*wgpu.ShaderModule),
		pipelines: make(map[string]*wgpu.ComputePipeline),
	}, nil
}

// release frees all cached pipelines and the device.
func (c *gpuContext) release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for name, p := range c.pipelines {
		p.Release()
		delete(c.pipelines, name)
	}
	for name, s := range c.shaders {
		s.Release()
		delete(c.shaders, name)
	}
	c.queue.Release()
	c.device.Release()
	c.adapter.Release()
	c.instance.Release()
}

// pipeline returns the cached ComputePipeline for a kernel, compiling its
// shader on first use.
func (c *gpuContext) pipeline(name string) (*wgpu.ComputePipeline, error) {
	c.mu.RLock()
	p, ok := c.pipelines[name]
	c.mu.RUnlock()
	if ok {
		return p, nil
	}

	code, ok := shaderSources[name]
	if !ok {
		return nil, fmt.Errorf("no shader for kernel %q", name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.pipelines[name]; ok {
		return p, nil
	}
	shader := c.device.CreateShaderModuleWGSL(code)
	// Create compute pipeline with auto layout (nil layout)
	p = c.device.CreateComputePipelineSimple(nil, shader, "main")
	c.shaders[name] = shader
	c.pipelines[name] = p
	return p, nil
}

// createBuffer creates a GPU buffer and uploads initial data.
func (c *gpuContext) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))

	buffer := c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mappedSlice, data)
	buffer.Unmap()

	return buffer
}

// readBuffer reads data back from a GPU buffer to CPU memory.
// Uses a staging buffer since storage buffers can't be mapped directly.
func (c *gpuContext) readBuffer(src *wgpu.Buffer, size uint64) ([]byte, error) {
	staging := c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer staging.Release()

	encoder := c.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, 0, staging, 0, size)
	c.queue.Submit(encoder.Finish(nil))

	if err := staging.MapAsync(c.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("failed to map staging buffer: %w", err)
	}

	mappedPtr := staging.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mappedSlice)
	staging.Unmap()

	return result, nil
}

// run executes one kernel. Inputs bind to 0..k-1, the output to k and the
// uniform parameters to k+1.
func (c *gpuContext) run(d dispatch) ([]float32, error) {
	pipeline, err := c.pipeline(d.kernel)
	if err != nil {
		return nil, err
	}

	entries := make([]wgpu.BindGroupEntry, 0, len(d.inputs)+2)
	for i, in := range d.inputs {
		buf := c.createBuffer(encodeFloats(in), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
		defer buf.Release()
		//nolint:gosec // G115: binding indices are small
		entries = append(entries, wgpu.BufferBindingEntry(uint32(i), buf, 0, uint64(len(in)*4)))
	}

	//nolint:gosec // G115: output length is non-negative
	outSize := uint64(d.outLen * 4)
	out := c.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  outSize,
	})
	defer out.Release()

	params := encodeParams(uint32(d.threads), d.params) //nolint:gosec // G115
	paramBuf := c.createBuffer(params, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
	defer paramBuf.Release()

	k := uint32(len(d.inputs)) //nolint:gosec // G115
	entries = append(entries,
		wgpu.BufferBindingEntry(k, out, 0, outSize),
		wgpu.BufferBindingEntry(k+1, paramBuf, 0, uint64(len(params))),
	)

	bindGroup := c.device.CreateBindGroupSimple(pipeline.GetBindGroupLayout(0), entries)
	defer bindGroup.Release()

	encoder := c.device.CreateCommandEncoder(nil)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	x, y := workgroups(d.threads)
	pass.DispatchWorkgroups(x, y, 1)
	pass.End()
	c.queue.Submit(encoder.Finish(nil))

	raw, err := c.readBuffer(out, outSize)
	if err != nil {
		return nil, err
	}
	return decodeFloats(raw), nil
}

// workgroups splits a thread count into a 2D dispatch within the
// per-dimension limit.
func workgroups(threads int) (uint32, uint32) {
	groups := (threads + workgroupSize - 1) / workgroupSize
	if groups <= maxWorkgroupsPerDim {
		return uint32(groups), 1 //nolint:gosec // G115: bounded above
	}
	rows := (groups + maxWorkgroupsPerDim - 1) / maxWorkgroupsPerDim
	return maxWorkgroupsPerDim, uint32(rows) //nolint:gosec // G115
}

// encodeParams lays out a uniform Params struct: the thread count followed
// by the kernel's fields, padded to 16 bytes.
func encodeParams(size uint32, fields []uint32) []byte {
	n := (1 + len(fields)) * 4
	buf := make([]byte, (n+15)&^15)
	binary.LittleEndian.PutUint32(buf[0:4], size)
	for i, f := range fields {
		binary.LittleEndian.PutUint32(buf[4+4*i:], f)
	}
	return buf
}

func encodeFloats(data []float32) []byte {
	buf := make([]byte, len(data)*4)
	for i, v := range data {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeFloats(buf []byte) []float32 {
	out := make([]float32, len(buf)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return out
}
