package gpu

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-vis/engine/camera"
	"github.com/Carmen-Shannon/oxy-vis/engine/cluster"
	"github.com/Carmen-Shannon/oxy-vis/engine/culler"
	"github.com/Carmen-Shannon/oxy-vis/engine/light"
	"github.com/Carmen-Shannon/oxy-vis/engine/scene"
	"github.com/gogpu/naga"
)

//go:embed assets/draw_cull.wgsl
var drawCullSource string

//go:embed assets/depth_reduce.wgsl
var depthReduceSource string

//go:embed assets/cluster_build.wgsl
var clusterBuildSource string

//go:embed assets/light_assign.wgsl
var lightAssignSource string

// Kernel is a compute entry point together with the shared struct sources it needs.
type Kernel struct {
	Name       string
	EntryPoint string
	// Includes are WGSL struct sources prepended to Body in order.
	Includes []string
	Body     string
	// WorkgroupSize is the size declared by the entry point.
	WorkgroupSize [3]uint32
}

// Source returns the complete WGSL module.
//
// Returns:
//   - string: includes followed by the body
func (k Kernel) Source() string {
	var sb strings.Builder
	for _, inc := range k.Includes {
		sb.WriteString(inc)
		sb.WriteString("\n")
	}
	sb.WriteString(k.Body)
	return sb.String()
}

// Workgroups returns the dispatch size that covers an nx x ny x nz invocation grid.
//
// Parameters:
//   - nx, ny, nz: invocation counts
//
// Returns:
//   - [3]uint32: workgroup counts
func (k Kernel) Workgroups(nx, ny, nz uint32) [3]uint32 {
	return [3]uint32{
		WorkgroupCount(nx, k.WorkgroupSize[0]),
		WorkgroupCount(ny, k.WorkgroupSize[1]),
		WorkgroupCount(nz, k.WorkgroupSize[2]),
	}
}

// Lanes sharing one cluster in the light assignment kernel.
const assignLanes = 4

var (
	// DrawCullKernel tests one primitive per invocation and appends draw commands.
	DrawCullKernel = Kernel{
		Name:          "draw_cull",
		EntryPoint:    "cull_main",
		Includes:      []string{camera.GPUFrameConstantsSource, scene.GPUSceneSource, culler.GPUCullSource},
		Body:          drawCullSource,
		WorkgroupSize: [3]uint32{64, 1, 1},
	}

	// DepthReduceKernel writes one pyramid level from the previous one.
	DepthReduceKernel = Kernel{
		Name:          "depth_reduce",
		EntryPoint:    "reduce_main",
		Body:          depthReduceSource,
		WorkgroupSize: [3]uint32{8, 8, 1},
	}

	// ClusterBuildKernel computes one cluster AABB per invocation.
	ClusterBuildKernel = Kernel{
		Name:          "cluster_build",
		EntryPoint:    "cluster_main",
		Includes:      []string{camera.GPUFrameConstantsSource, cluster.GPUClusterSource},
		Body:          clusterBuildSource,
		WorkgroupSize: [3]uint32{64, 1, 1},
	}

	// LightAssignKernel runs one workgroup per cluster, the lanes splitting the light list.
	LightAssignKernel = Kernel{
		Name:          "light_assign",
		EntryPoint:    "assign_main",
		Includes:      []string{light.GPULightSource, cluster.GPUClusterSource},
		Body:          lightAssignSource,
		WorkgroupSize: [3]uint32{assignLanes, 1, 1},
	}
)

// Kernels lists every kernel the package dispatches.
func Kernels() []Kernel {
	return []Kernel{DrawCullKernel, DepthReduceKernel, ClusterBuildKernel, LightAssignKernel}
}

// Preflight compiles the kernel offline so WGSL errors surface with a readable message
// before the driver sees the module.
//
// Parameters:
//   - k: the kernel
//
// Returns:
//   - error: ErrShaderCompile wrapped with the compiler message
func Preflight(k Kernel) error {
	if _, err := naga.Compile(k.Source()); err != nil {
		return fmt.Errorf("gpu: %s: %v: %w", k.Name, err, ErrShaderCompile)
	}
	return nil
}

// WorkgroupCount returns ceil(n / size). A zero size is treated as one.
//
// Parameters:
//   - n: invocations needed
//   - size: invocations per workgroup
//
// Returns:
//   - uint32: workgroups to dispatch
func WorkgroupCount(n, size uint32) uint32 {
	size = max(size, 1)
	return (n + size - 1) / size
}

// AlignSize rounds a buffer size up to a multiple of 4, with a floor of 16 bytes so
// empty tables still produce a bindable buffer.
//
// Parameters:
//   - size: requested size in bytes
//
// Returns:
//   - uint64: the allocation size
func AlignSize(size uint64) uint64 {
	return max((size+3)&^3, 16)
}
