package gpu

import (
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/oxy-vis/engine/pyramid"
	"github.com/cogentcore/webgpu/wgpu"
)

// reduceParamsSize is the byte size of the ReduceInfo uniform.
const reduceParamsSize = 32

// PyramidPass reduces a level 0 depth buffer to a full pyramid on the device.
// Every level gets its own uniform and bind group so all reductions fit in one submission.
type PyramidPass struct {
	dev      Device
	pipeline *wgpu.ComputePipeline

	width, height int
	layout        []LevelRange
	texels        int
	buf, read     *wgpu.Buffer
	params        []*wgpu.Buffer
	groups        []*wgpu.BindGroup
}

// NewPyramidPass compiles the reduce kernel. Buffers are allocated on the first Build.
//
// Parameters:
//   - dev: the device
//
// Returns:
//   - *PyramidPass: the pass
//   - error: a device error
func NewPyramidPass(dev Device) (*PyramidPass, error) {
	p, err := dev.RegisterKernel(DepthReduceKernel)
	if err != nil {
		return nil, err
	}
	return &PyramidPass{dev: dev, pipeline: p}, nil
}

// reduceParams packs the ReduceInfo uniform for the step from src to dst.
func reduceParams(src, dst LevelRange) []byte {
	buf := make([]byte, reduceParamsSize)
	for i, v := range []int{src.Width, src.Height, src.Offset, dst.Width, dst.Height, dst.Offset} {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(v))
	}
	return buf
}

func (p *PyramidPass) allocate(width, height int) error {
	if p.buf != nil && width == p.width && height == p.height {
		return nil
	}
	p.releaseBuffers()
	p.width, p.height = width, height
	p.layout, p.texels = PyramidLayout(width, height)

	var err error
	if p.buf, err = p.dev.CreateBuffer("Pyramid", uint64(p.texels*4), storageUsage); err != nil {
		return err
	}
	if p.read, err = p.dev.CreateBuffer("Pyramid Readback", uint64(p.texels*4), readbackUsage); err != nil {
		return err
	}
	for i := 1; i < len(p.layout); i++ {
		params, err := p.dev.CreateBuffer("Pyramid Reduce Params", reduceParamsSize, uniformUsage)
		if err != nil {
			return err
		}
		p.dev.WriteBuffer(params, 0, reduceParams(p.layout[i-1], p.layout[i]))
		bg, err := p.dev.BindGroup("Pyramid Reduce Bind Group", p.pipeline, params, p.buf)
		if err != nil {
			params.Release()
			return err
		}
		p.params = append(p.params, params)
		p.groups = append(p.groups, bg)
	}
	return nil
}

// Build uploads level0, reduces it to 1x1 and reads the chain back.
//
// Parameters:
//   - level0: full resolution linear depth
//
// Returns:
//   - *pyramid.Pyramid: a newly allocated pyramid
//   - error: a device error
func (p *PyramidPass) Build(level0 pyramid.Level) (*pyramid.Pyramid, error) {
	if err := p.allocate(level0.Width, level0.Height); err != nil {
		return nil, err
	}
	data := make([]byte, level0.Width*level0.Height*4)
	for i, v := range level0.Data[:level0.Width*level0.Height] {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	p.dev.WriteBuffer(p.buf, 0, data)

	if err := p.dev.BeginComputeFrame(); err != nil {
		return nil, err
	}
	for i, bg := range p.groups {
		dst := p.layout[i+1]
		if err := p.dev.DispatchCompute(p.pipeline, bg, DepthReduceKernel.Workgroups(uint32(dst.Width), uint32(dst.Height), 1)); err != nil {
			return nil, err
		}
	}
	if err := p.dev.CopyBuffer(p.buf, p.read, uint64(p.texels*4)); err != nil {
		return nil, err
	}
	if err := p.dev.EndComputeFrame(); err != nil {
		return nil, err
	}

	raw, err := p.dev.ReadBuffer(p.read, uint64(p.texels*4))
	if err != nil {
		return nil, err
	}
	return UnpackPyramid(raw, p.layout)
}

func (p *PyramidPass) releaseBuffers() {
	for _, bg := range p.groups {
		bg.Release()
	}
	for _, b := range p.params {
		b.Release()
	}
	p.groups, p.params = nil, nil
	if p.buf != nil {
		p.buf.Release()
		p.buf = nil
	}
	if p.read != nil {
		p.read.Release()
		p.read = nil
	}
}

// Release frees every resource the pass owns.
func (p *PyramidPass) Release() {
	p.releaseBuffers()
	if p.pipeline != nil {
		p.pipeline.Release()
	}
}
