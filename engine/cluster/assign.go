package cluster

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/compute"
	"github.com/Carmen-Shannon/oxy-vis/engine/light"
	"github.com/go-gl/mathgl/mgl32"
)

// DefaultGroupLanes is the default number of lanes cooperating on one cluster.
const DefaultGroupLanes = 4

// clusterBatch is the number of consecutive clusters one lane group serves before its barrier.
const clusterBatch = 32

// Assigner computes the light mask of every cluster.
type Assigner interface {
	// Assign tests every view-space light against every cluster of grid.
	// Lights beyond MaskWords*32 are ignored. The returned slice is owned by the assigner
	// and overwritten by the next call.
	//
	// Parameters:
	//   - grid: a built cluster grid
	//   - lights: point lights in view space
	//
	// Returns:
	//   - []LightMask: one mask per cluster, indexed like the grid
	Assign(grid *Grid, lights []light.ViewLight) []LightMask

	// Lanes returns the number of lanes per cluster group.
	Lanes() int
}

type assignerImpl struct {
	lanes      int
	dispatcher compute.Dispatcher
	masks      []LightMask
	acc        []accumulator
}

// accumulator is the shared light bitmask of one cluster's lane group.
type accumulator [MaskWords]atomic.Uint32

var _ Assigner = &assignerImpl{}

// NewAssigner creates an Assigner.
// Defaults to DefaultGroupLanes lanes and the process-wide compute dispatcher.
//
// Parameters:
//   - options: functional options to configure the assigner
//
// Returns:
//   - Assigner: the new assigner
func NewAssigner(options ...AssignerBuilderOption) Assigner {
	a := &assignerImpl{lanes: DefaultGroupLanes}
	for _, option := range options {
		option(a)
	}
	if a.dispatcher == nil {
		a.dispatcher = compute.Default()
	}
	return a
}

func (a *assignerImpl) Lanes() int {
	return a.lanes
}

func (a *assignerImpl) Assign(grid *Grid, lights []light.ViewLight) []LightMask {
	n := grid.Len()
	if cap(a.masks) < n {
		a.masks = make([]LightMask, n)
		a.acc = make([]accumulator, n)
	}
	a.masks = a.masks[:n]
	a.acc = a.acc[:n]
	lights = lights[:min(len(lights), MaskWords*32)]
	clusters := grid.Clusters()
	lanes := min(a.lanes, max(len(lights), 1))
	batches := (n + clusterBatch - 1) / clusterBatch

	// One lane group per batch; every cluster in the batch keeps its own accumulator.
	a.dispatcher.Dispatch("cluster.assign", batches, func(b int) {
		first := b * clusterBatch
		last := min(first+clusterBatch, n)
		for i := first; i < last; i++ {
			for w := range a.acc[i] {
				a.acc[i][w].Store(0)
			}
		}

		var wg sync.WaitGroup
		for lane := 1; lane < lanes; lane++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := first; i < last; i++ {
					assignLane(&a.acc[i], clusters[i].AABB, lights, lane, lanes)
				}
			}()
		}
		for i := first; i < last; i++ {
			assignLane(&a.acc[i], clusters[i].AABB, lights, 0, lanes)
		}
		wg.Wait()

		for i := first; i < last; i++ {
			var mask LightMask
			for w := range a.acc[i] {
				mask[w] = a.acc[i][w].Load()
			}
			a.masks[i] = mask
		}
	})
	return a.masks
}

// assignLane tests lights lane, lane+stride, ... and ORs hits into the group accumulator.
func assignLane(acc *accumulator, box common.AABB, lights []light.ViewLight, lane, stride int) {
	for j := lane; j < len(lights); j += stride {
		if SphereIntersectsAABB(lights[j].Position, lights[j].Radius, box) {
			acc[j/32].Or(1 << (uint(j) % 32))
		}
	}
}

// SphereIntersectsAABB reports whether a sphere touches a box, by comparing the squared distance
// from the center to the closest point of the box with the squared radius.
//
// Parameters:
//   - center: sphere center
//   - radius: sphere radius
//   - box: the box, in the same space as center
//
// Returns:
//   - bool: true on overlap or contact
func SphereIntersectsAABB(center mgl32.Vec3, radius float32, box common.AABB) bool {
	d := box.ClosestPoint(center).Sub(center)
	return d.Dot(d) <= radius*radius
}
