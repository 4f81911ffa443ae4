// Package gpu runs the culling, pyramid and light assignment kernels on a headless WebGPU device.
package gpu

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// Device is a headless compute device. Every method is safe for concurrent use, but dispatches
// are only recorded between BeginComputeFrame and EndComputeFrame.
type Device interface {
	// Device returns the underlying wgpu device.
	Device() *wgpu.Device

	// Queue returns the device queue.
	Queue() *wgpu.Queue

	// RegisterKernel compiles a kernel into a compute pipeline with an inferred layout.
	// The kernel is first checked offline; a failed check is logged and creation still proceeds,
	// so the driver's own validation has the final word.
	//
	// Parameters:
	//   - k: the kernel
	//
	// Returns:
	//   - *wgpu.ComputePipeline: the pipeline
	//   - error: error if the driver rejects the module or pipeline
	RegisterKernel(k Kernel) (*wgpu.ComputePipeline, error)

	// CreateBuffer allocates a buffer of at least size bytes, rounded up to a multiple of 4.
	//
	// Parameters:
	//   - label: debug label
	//   - size: size in bytes
	//   - usage: usage flags
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer
	//   - error: error if allocation failed
	CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (*wgpu.Buffer, error)

	// WriteBuffer queues a write of data at offset.
	//
	// Parameters:
	//   - buf: the destination buffer (needs CopyDst)
	//   - offset: byte offset
	//   - data: the bytes to write
	WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte)

	// BindGroup binds buffers to group 0 of p, binding i taking buffers[i].
	//
	// Parameters:
	//   - label: debug label
	//   - p: the pipeline whose layout is used
	//   - buffers: one buffer per binding, in binding order
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group
	//   - error: error if the buffers do not match the layout
	BindGroup(label string, p *wgpu.ComputePipeline, buffers ...*wgpu.Buffer) (*wgpu.BindGroup, error)

	// BeginComputeFrame creates a single command encoder for batching all compute dispatches
	// of a frame into one submission.
	//
	// Returns:
	//   - error: an error if the command encoder could not be created
	BeginComputeFrame() error

	// DispatchCompute encodes a compute pass within the current frame.
	//
	// Parameters:
	//   - p: the pipeline
	//   - bg: the bind group for group 0
	//   - groups: workgroup counts in x, y and z
	//
	// Returns:
	//   - error: ErrNoFrame outside a frame
	DispatchCompute(p *wgpu.ComputePipeline, bg *wgpu.BindGroup, groups [3]uint32) error

	// CopyBuffer encodes a copy within the current frame.
	//
	// Parameters:
	//   - src, dst: the buffers (CopySrc and CopyDst)
	//   - size: bytes to copy from offset 0
	//
	// Returns:
	//   - error: ErrNoFrame outside a frame
	CopyBuffer(src, dst *wgpu.Buffer, size uint64) error

	// EndComputeFrame finishes the encoder and submits it.
	//
	// Returns:
	//   - error: error if the command buffer could not be finished
	EndComputeFrame() error

	// ReadBuffer maps buf, waits for the device and returns a copy of its first size bytes.
	//
	// Parameters:
	//   - buf: a MapRead buffer
	//   - size: bytes to read
	//
	// Returns:
	//   - []byte: the data
	//   - error: ErrMapFailed if mapping failed
	ReadBuffer(buf *wgpu.Buffer, size uint64) ([]byte, error)

	// Release frees the device and everything it created.
	Release()
}

type deviceImpl struct {
	mu     sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter

	forceFallbackAdapter bool
	label                string

	computeFrameEncoder *wgpu.CommandEncoder
}

var _ Device = &deviceImpl{}

// NewDevice acquires an adapter and a device with default limits. No surface is created.
//
// Parameters:
//   - options: functional options to configure the device
//
// Returns:
//   - Device: the device
//   - error: ErrNoDevice wrapped with the driver error
func NewDevice(options ...DeviceBuilderOption) (Device, error) {
	d := &deviceImpl{label: "Compute Device"}
	for _, option := range options {
		option(d)
	}

	runtime.LockOSThread()
	d.instance = wgpu.CreateInstance(nil)
	a, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: d.forceFallbackAdapter,
	})
	if err != nil {
		d.instance.Release()
		return nil, fmt.Errorf("gpu: request adapter: %v: %w", err, ErrNoDevice)
	}
	d.adapter = a

	dev, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: d.label,
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		a.Release()
		d.instance.Release()
		return nil, fmt.Errorf("gpu: request device: %v: %w", err, ErrNoDevice)
	}
	d.device = dev
	d.queue = dev.GetQueue()

	common.Logger().Info("gpu device ready", "label", d.label, "fallback", d.forceFallbackAdapter)
	return d, nil
}

func (d *deviceImpl) Device() *wgpu.Device {
	return d.device
}

func (d *deviceImpl) Queue() *wgpu.Queue {
	return d.queue
}

func (d *deviceImpl) RegisterKernel(k Kernel) (*wgpu.ComputePipeline, error) {
	source := k.Source()
	if err := Preflight(k); err != nil {
		common.Logger().Warn("kernel preflight failed", "kernel", k.Name, "err", err)
	}

	module, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: k.Name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: source,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: %s: shader module: %w", k.Name, err)
	}
	defer module.Release()

	created, err := d.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label: k.Name + " Compute Pipeline",
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: k.EntryPoint,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: %s: compute pipeline: %w", k.Name, err)
	}
	return created, nil
}

func (d *deviceImpl) CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             AlignSize(size),
		Usage:            usage,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: buffer %q: %w", label, err)
	}
	return buf, nil
}

func (d *deviceImpl) WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte) {
	if len(data) == 0 {
		return
	}
	d.queue.WriteBuffer(buf, offset, data)
}

func (d *deviceImpl) BindGroup(label string, p *wgpu.ComputePipeline, buffers ...*wgpu.Buffer) (*wgpu.BindGroup, error) {
	entries := make([]wgpu.BindGroupEntry, len(buffers))
	for i, buf := range buffers {
		entries[i] = wgpu.BindGroupEntry{
			Binding: uint32(i),
			Buffer:  buf,
			Offset:  0,
			Size:    wgpu.WholeSize,
		}
	}
	layout := p.GetBindGroupLayout(0)
	defer layout.Release()
	bg, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   label,
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: bind group %q: %w", label, err)
	}
	return bg, nil
}

func (d *deviceImpl) BeginComputeFrame() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	d.computeFrameEncoder = encoder
	return nil
}

func (d *deviceImpl) DispatchCompute(p *wgpu.ComputePipeline, bg *wgpu.BindGroup, groups [3]uint32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.computeFrameEncoder == nil {
		return ErrNoFrame
	}
	if groups[0] == 0 || groups[1] == 0 || groups[2] == 0 {
		return nil
	}
	pass := d.computeFrameEncoder.BeginComputePass(nil)
	pass.SetPipeline(p)
	pass.SetBindGroup(0, bg, nil)
	pass.DispatchWorkgroups(groups[0], groups[1], groups[2])
	pass.End()
	return nil
}

func (d *deviceImpl) CopyBuffer(src, dst *wgpu.Buffer, size uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.computeFrameEncoder == nil {
		return ErrNoFrame
	}
	d.computeFrameEncoder.CopyBufferToBuffer(src, 0, dst, 0, AlignSize(size))
	return nil
}

func (d *deviceImpl) EndComputeFrame() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.computeFrameEncoder == nil {
		return ErrNoFrame
	}
	commandBuffer, err := d.computeFrameEncoder.Finish(nil)
	d.computeFrameEncoder.Release()
	d.computeFrameEncoder = nil
	if err != nil {
		return fmt.Errorf("gpu: finish compute frame: %w", err)
	}

	d.queue.Submit(commandBuffer)
	commandBuffer.Release()
	return nil
}

func (d *deviceImpl) ReadBuffer(buf *wgpu.Buffer, size uint64) ([]byte, error) {
	size = min(AlignSize(size), buf.GetSize())
	var status wgpu.BufferMapAsyncStatus
	mapped := false
	buf.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		status = s
		mapped = s == wgpu.BufferMapAsyncStatusSuccess
	})
	d.device.Poll(true, nil)
	if !mapped {
		return nil, fmt.Errorf("gpu: map status %d: %w", status, ErrMapFailed)
	}

	// Unmap invalidates the mapped range, so the data is copied out first.
	data := buf.GetMappedRange(0, uint(size))
	out := make([]byte, len(data))
	copy(out, data)
	buf.Unmap()
	return out, nil
}

func (d *deviceImpl) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.computeFrameEncoder != nil {
		d.computeFrameEncoder.Release()
		d.computeFrameEncoder = nil
	}
	if d.device != nil {
		d.device.Release()
	}
	if d.adapter != nil {
		d.adapter.Release()
	}
	if d.instance != nil {
		d.instance.Release()
	}
	d.queue, d.device, d.adapter, d.instance = nil, nil, nil, nil
}
