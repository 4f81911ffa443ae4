package gpu

import (
	"math"

	"github.com/Carmen-Shannon/oxy-vis/engine/camera"
	"github.com/Carmen-Shannon/oxy-vis/engine/cluster"
	"github.com/Carmen-Shannon/oxy-vis/engine/light"
	"github.com/cogentcore/webgpu/wgpu"
)

// LightPass builds the cluster grid and assigns lights to clusters on the device.
type LightPass struct {
	dev         Device
	build       *wgpu.ComputePipeline
	assign      *wgpu.ComputePipeline
	sx, sy, sz  int
	count       int
	frameBuf    *wgpu.Buffer
	infoBuf     *wgpu.Buffer
	clusterBuf  *wgpu.Buffer
	lightBuf    *wgpu.Buffer
	maskBuf     *wgpu.Buffer
	clusterRead *wgpu.Buffer
	maskRead    *wgpu.Buffer
	buildGroup  *wgpu.BindGroup
	assignGroup *wgpu.BindGroup
}

// NewLightPass compiles both kernels and allocates buffers for an sx x sy x sz grid.
//
// Parameters:
//   - dev: the device
//   - sx, sy, sz: clusters along each axis
//
// Returns:
//   - *LightPass: the pass
//   - error: cluster.ErrInvalidSubdivision or a device error
func NewLightPass(dev Device, sx, sy, sz int) (*LightPass, error) {
	if _, err := cluster.NewGrid(sx, sy, sz); err != nil {
		return nil, err
	}
	l := &LightPass{dev: dev, sx: sx, sy: sy, sz: sz, count: sx * sy * sz}

	var err error
	if l.build, err = dev.RegisterKernel(ClusterBuildKernel); err != nil {
		return nil, err
	}
	if l.assign, err = dev.RegisterKernel(LightAssignKernel); err != nil {
		l.Release()
		return nil, err
	}
	allocs := []struct {
		dst   **wgpu.Buffer
		label string
		size  uint64
		usage wgpu.BufferUsage
	}{
		{&l.frameBuf, "Cluster Frame Constants", 288, uniformUsage},
		{&l.infoBuf, "Cluster Info", 32, uniformUsage},
		{&l.clusterBuf, "Clusters", uint64(l.count * cluster.GPUClusterSize), storageUsage},
		{&l.lightBuf, "View Lights", uint64(light.MaxPointLights * 16), storageUsage},
		{&l.maskBuf, "Light Masks", uint64(l.count * cluster.LightMaskSize), storageUsage},
		{&l.clusterRead, "Clusters Readback", uint64(l.count * cluster.GPUClusterSize), readbackUsage},
		{&l.maskRead, "Light Masks Readback", uint64(l.count * cluster.LightMaskSize), readbackUsage},
	}
	for _, a := range allocs {
		if *a.dst, err = dev.CreateBuffer(a.label, a.size, a.usage); err != nil {
			l.Release()
			return nil, err
		}
	}
	if l.buildGroup, err = dev.BindGroup("Cluster Build Bind Group", l.build, l.frameBuf, l.infoBuf, l.clusterBuf); err != nil {
		l.Release()
		return nil, err
	}
	if l.assignGroup, err = dev.BindGroup("Light Assign Bind Group", l.assign, l.infoBuf, l.clusterBuf, l.lightBuf, l.maskBuf); err != nil {
		l.Release()
		return nil, err
	}
	return l, nil
}

// clusterInfo packs the grid uniform for a camera without a CPU-built grid.
func clusterInfo(fc camera.FrameConstants, sx, sy, sz, lightCount int) cluster.GPUClusterInfo {
	info := cluster.GPUClusterInfo{
		CountX:     uint32(sx),
		CountY:     uint32(sy),
		CountZ:     uint32(sz),
		LightCount: uint32(min(lightCount, cluster.MaskWords*32)),
		Width:      fc.Width,
		Height:     fc.Height,
	}
	if fc.Near > 0 && fc.Far > fc.Near {
		logRatio := math.Log(float64(fc.Far) / float64(fc.Near))
		info.Scale = float32(float64(sz) / logRatio)
		info.Bias = float32(float64(sz) * math.Log(float64(fc.Near)) / logRatio)
	}
	return info
}

// Run builds the clusters for fc and assigns lights. Lights beyond the mask width are ignored.
//
// Parameters:
//   - fc: the frame constants
//   - lights: view-space lights
//
// Returns:
//   - []cluster.Cluster: the cluster table, x fastest
//   - []cluster.LightMask: one mask per cluster
//   - error: a device error
func (l *LightPass) Run(fc camera.FrameConstants, lights []light.ViewLight) ([]cluster.Cluster, []cluster.LightMask, error) {
	n := min(len(lights), light.MaxPointLights, cluster.MaskWords*32)
	gfc := fc.GPU()
	l.dev.WriteBuffer(l.frameBuf, 0, gfc.Marshal())
	info := clusterInfo(fc, l.sx, l.sy, l.sz, n)
	l.dev.WriteBuffer(l.infoBuf, 0, info.Marshal())
	l.dev.WriteBuffer(l.lightBuf, 0, light.MarshalViewLights(lights[:n]))

	clusterBytes := uint64(l.count * cluster.GPUClusterSize)
	maskBytes := uint64(l.count * cluster.LightMaskSize)
	if err := l.dev.BeginComputeFrame(); err != nil {
		return nil, nil, err
	}
	if err := l.dev.DispatchCompute(l.build, l.buildGroup, ClusterBuildKernel.Workgroups(uint32(l.count), 1, 1)); err != nil {
		return nil, nil, err
	}
	if err := l.dev.DispatchCompute(l.assign, l.assignGroup, [3]uint32{uint32(l.count), 1, 1}); err != nil {
		return nil, nil, err
	}
	if err := l.dev.CopyBuffer(l.clusterBuf, l.clusterRead, clusterBytes); err != nil {
		return nil, nil, err
	}
	if err := l.dev.CopyBuffer(l.maskBuf, l.maskRead, maskBytes); err != nil {
		return nil, nil, err
	}
	if err := l.dev.EndComputeFrame(); err != nil {
		return nil, nil, err
	}

	raw, err := l.dev.ReadBuffer(l.clusterRead, clusterBytes)
	if err != nil {
		return nil, nil, err
	}
	clusters := cluster.UnmarshalClusters(raw)
	raw, err = l.dev.ReadBuffer(l.maskRead, maskBytes)
	if err != nil {
		return nil, nil, err
	}
	return clusters[:l.count], cluster.UnmarshalLightMasks(raw)[:l.count], nil
}

// Release frees every resource the pass owns.
func (l *LightPass) Release() {
	for _, bg := range []*wgpu.BindGroup{l.buildGroup, l.assignGroup} {
		if bg != nil {
			bg.Release()
		}
	}
	for _, b := range []*wgpu.Buffer{l.frameBuf, l.infoBuf, l.clusterBuf, l.lightBuf, l.maskBuf, l.clusterRead, l.maskRead} {
		if b != nil {
			b.Release()
		}
	}
	for _, p := range []*wgpu.ComputePipeline{l.build, l.assign} {
		if p != nil {
			p.Release()
		}
	}
}
