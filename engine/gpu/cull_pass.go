package gpu

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/camera"
	"github.com/Carmen-Shannon/oxy-vis/engine/culler"
	"github.com/Carmen-Shannon/oxy-vis/engine/pyramid"
	"github.com/Carmen-Shannon/oxy-vis/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	storageUsage  = wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc
	uniformUsage  = wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
	readbackUsage = wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst
)

// CullPass runs the two culling phases on the device. Visibility bits stay resident between calls.
type CullPass struct {
	dev      Device
	scene    scene.Scene
	pipeline *wgpu.ComputePipeline

	lodBase  float32
	lodStep  float32
	capacity int
	prims    int

	frameBuf, infoBuf                 *wgpu.Buffer
	primBuf, instBuf, matBuf, visBuf  *wgpu.Buffer
	drawBuf, countBuf                 *wgpu.Buffer
	pyramidBuf, levelBuf              *wgpu.Buffer
	drawRead, countRead, visRead      *wgpu.Buffer
	pyramidTexels, pyramidLevelsAlloc int

	bindGroup *wgpu.BindGroup
}

// NewCullPass uploads the scene tables of scn and compiles the cull kernel.
// Defaults to the culler's LOD parameters and a capacity equal to the primitive count.
//
// Parameters:
//   - dev: the device
//   - scn: the scene
//   - options: functional options to configure the pass
//
// Returns:
//   - *CullPass: the pass
//   - error: culler.ErrCapacityTooSmall, or a device error
func NewCullPass(dev Device, scn scene.Scene, options ...CullPassBuilderOption) (*CullPass, error) {
	c := &CullPass{
		dev:     dev,
		scene:   scn,
		lodBase: culler.DefaultLODBase,
		lodStep: culler.DefaultLODStep,
		prims:   scn.PrimitiveCount(),
	}
	for _, option := range options {
		option(c)
	}
	if c.capacity == 0 {
		c.capacity = c.prims
	}
	if c.capacity < c.prims {
		return nil, fmt.Errorf("gpu: capacity %d for %d primitives: %w", c.capacity, c.prims, culler.ErrCapacityTooSmall)
	}

	var err error
	if c.pipeline, err = dev.RegisterKernel(DrawCullKernel); err != nil {
		return nil, err
	}

	snap := scn.Snapshot()
	prims, insts, mats := scene.MarshalTables(snap)
	words := (c.prims + 31) / 32
	allocs := []struct {
		dst   **wgpu.Buffer
		label string
		size  uint64
		usage wgpu.BufferUsage
	}{
		{&c.frameBuf, "Cull Frame Constants", 288, uniformUsage},
		{&c.infoBuf, "Cull Info", 128, uniformUsage},
		{&c.primBuf, "Cull Primitives", uint64(len(prims)), storageUsage},
		{&c.instBuf, "Cull Instances", uint64(len(insts)), storageUsage},
		{&c.matBuf, "Cull Materials", uint64(len(mats)), storageUsage},
		{&c.visBuf, "Cull Visibility", uint64(words * 4), storageUsage},
		{&c.drawBuf, "Cull Draws", uint64(c.capacity * culler.DrawCommandSize), storageUsage},
		{&c.countBuf, "Cull Count", culler.DrawCountSize, storageUsage},
		{&c.drawRead, "Cull Draws Readback", uint64(c.capacity * culler.DrawCommandSize), readbackUsage},
		{&c.countRead, "Cull Count Readback", culler.DrawCountSize, readbackUsage},
		{&c.visRead, "Cull Visibility Readback", uint64(words * 4), readbackUsage},
	}
	for _, a := range allocs {
		if *a.dst, err = dev.CreateBuffer(a.label, a.size, a.usage); err != nil {
			c.Release()
			return nil, err
		}
	}
	dev.WriteBuffer(c.primBuf, 0, prims)
	dev.WriteBuffer(c.matBuf, 0, mats)
	dev.WriteBuffer(c.visBuf, 0, make([]byte, AlignSize(uint64(words*4))))

	if err := c.ensurePyramid(1, 1); err != nil {
		c.Release()
		return nil, err
	}
	common.Logger().Debug("gpu cull pass created", "primitives", c.prims, "capacity", c.capacity)
	return c, nil
}

// ensurePyramid grows the pyramid buffers to hold a width x height chain and rebinds.
func (c *CullPass) ensurePyramid(width, height int) error {
	layout, texels := PyramidLayout(width, height)
	if c.bindGroup != nil && texels <= c.pyramidTexels && len(layout) <= c.pyramidLevelsAlloc {
		return nil
	}
	for _, b := range []*wgpu.Buffer{c.pyramidBuf, c.levelBuf} {
		if b != nil {
			b.Release()
		}
	}
	if c.bindGroup != nil {
		c.bindGroup.Release()
		c.bindGroup = nil
	}

	var err error
	if c.pyramidBuf, err = c.dev.CreateBuffer("Cull Pyramid", uint64(texels*4), storageUsage); err != nil {
		return err
	}
	if c.levelBuf, err = c.dev.CreateBuffer("Cull Pyramid Levels", uint64(len(layout)*levelEntrySize), storageUsage); err != nil {
		return err
	}
	c.pyramidTexels, c.pyramidLevelsAlloc = texels, len(layout)

	c.bindGroup, err = c.dev.BindGroup("Cull Bind Group", c.pipeline,
		c.frameBuf, c.infoBuf, c.primBuf, c.instBuf, c.matBuf, c.visBuf,
		c.drawBuf, c.countBuf, c.pyramidBuf, c.levelBuf)
	return err
}

// Cull runs one phase. The late phase tests occlusion when pyr is non-nil.
//
// Parameters:
//   - phase: the phase to run
//   - fc: the frame constants
//   - pyr: the depth pyramid for the late phase, or nil
//
// Returns:
//   - []culler.DrawCommand: the emitted commands, at most the capacity
//   - culler.DrawCount: the phase summary
//   - error: a device error
func (c *CullPass) Cull(phase culler.Phase, fc camera.FrameConstants, pyr *pyramid.Pyramid) ([]culler.DrawCommand, culler.DrawCount, error) {
	levels := 0
	if phase == culler.PhaseLate && pyr != nil && pyr.Levels() > 0 {
		if err := c.ensurePyramid(pyr.Width(), pyr.Height()); err != nil {
			return nil, culler.DrawCount{}, err
		}
		data, layout := PackPyramid(pyr)
		c.dev.WriteBuffer(c.pyramidBuf, 0, data)
		c.dev.WriteBuffer(c.levelBuf, 0, PackLevelTable(layout))
		levels = pyr.Levels()
	}

	_, insts, _ := scene.MarshalTables(c.scene.Snapshot())
	c.dev.WriteBuffer(c.instBuf, 0, insts)
	gfc := fc.GPU()
	c.dev.WriteBuffer(c.frameBuf, 0, gfc.Marshal())
	var width, height int
	if pyr != nil {
		width, height = pyr.Width(), pyr.Height()
	}
	info := culler.NewCullInfo(fc.Frustum, c.lodBase, c.lodStep, width, height, levels, phase, c.prims, c.capacity)
	c.dev.WriteBuffer(c.infoBuf, 0, info.Marshal())
	c.dev.WriteBuffer(c.countBuf, 0, make([]byte, culler.DrawCountSize))

	if err := c.dev.BeginComputeFrame(); err != nil {
		return nil, culler.DrawCount{}, err
	}
	if err := c.dev.DispatchCompute(c.pipeline, c.bindGroup, DrawCullKernel.Workgroups(uint32(c.prims), 1, 1)); err != nil {
		return nil, culler.DrawCount{}, err
	}
	if err := c.dev.CopyBuffer(c.countBuf, c.countRead, culler.DrawCountSize); err != nil {
		return nil, culler.DrawCount{}, err
	}
	if err := c.dev.CopyBuffer(c.drawBuf, c.drawRead, uint64(c.capacity*culler.DrawCommandSize)); err != nil {
		return nil, culler.DrawCount{}, err
	}
	if err := c.dev.EndComputeFrame(); err != nil {
		return nil, culler.DrawCount{}, err
	}

	raw, err := c.dev.ReadBuffer(c.countRead, culler.DrawCountSize)
	if err != nil {
		return nil, culler.DrawCount{}, err
	}
	count := culler.UnmarshalDrawCount(raw)
	if int(count.CommandCount) > c.capacity {
		common.Logger().Warn("draw region overflow", "phase", phase.String(), "dropped", int(count.CommandCount)-c.capacity)
		count.CommandCount = uint32(c.capacity)
	}
	raw, err = c.dev.ReadBuffer(c.drawRead, uint64(count.CommandCount)*culler.DrawCommandSize)
	if err != nil {
		return nil, culler.DrawCount{}, err
	}
	draws := culler.UnmarshalDrawCommands(raw)
	return draws[:min(len(draws), int(count.CommandCount))], count, nil
}

// Visibility reads the resident visibility bits back.
//
// Returns:
//   - []uint32: one bit per primitive, 32 per word
//   - error: a device error
func (c *CullPass) Visibility() ([]uint32, error) {
	size := uint64((c.prims + 31) / 32 * 4)
	if err := c.dev.BeginComputeFrame(); err != nil {
		return nil, err
	}
	if err := c.dev.CopyBuffer(c.visBuf, c.visRead, size); err != nil {
		return nil, err
	}
	if err := c.dev.EndComputeFrame(); err != nil {
		return nil, err
	}
	raw, err := c.dev.ReadBuffer(c.visRead, size)
	if err != nil {
		return nil, err
	}
	words := unpackWords(raw)
	return words[:min(len(words), (c.prims+31)/32)], nil
}

// LoadVisibility replaces the resident visibility bits, for example with a CPU culler's state.
//
// Parameters:
//   - words: one bit per primitive, 32 per word
func (c *CullPass) LoadVisibility(words []uint32) {
	c.dev.WriteBuffer(c.visBuf, 0, packWords(words))
}

// Release frees every buffer the pass owns.
func (c *CullPass) Release() {
	if c.bindGroup != nil {
		c.bindGroup.Release()
	}
	for _, b := range []*wgpu.Buffer{
		c.frameBuf, c.infoBuf, c.primBuf, c.instBuf, c.matBuf, c.visBuf,
		c.drawBuf, c.countBuf, c.pyramidBuf, c.levelBuf, c.drawRead, c.countRead, c.visRead,
	} {
		if b != nil {
			b.Release()
		}
	}
	if c.pipeline != nil {
		c.pipeline.Release()
	}
}
