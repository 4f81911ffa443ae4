// Package culler implements two-phase hierarchical occlusion culling.
//
// The early phase re-draws primitives that were visible last frame, tested against the frustum only.
// After those draws are rasterized and the depth pyramid is rebuilt, the late phase tests every
// primitive against the frustum and the pyramid, draws only the primitives that became visible,
// and records the new visibility for the next frame.
package culler

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/camera"
	"github.com/Carmen-Shannon/oxy-vis/engine/compute"
	"github.com/Carmen-Shannon/oxy-vis/engine/pyramid"
	"github.com/Carmen-Shannon/oxy-vis/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

// Default LOD selection parameters.
const (
	DefaultLODBase float32 = 20
	DefaultLODStep float32 = 5
)

// Culler runs the per-primitive visibility test and fills the indirect draw buffer.
// Cull calls for one frame must be made in phase order from a single goroutine.
type Culler interface {
	// Cull runs one phase over every primitive and returns its draw count.
	// The early phase takes a fresh scene snapshot which the following late phase reuses.
	//
	// Parameters:
	//   - phase: PhaseEarly or PhaseLate
	//   - fc: the frame constants
	//   - pyr: the depth pyramid for the late phase; nil disables occlusion culling
	//
	// Returns:
	//   - DrawCount: the number of commands written and primitives tested
	Cull(phase Phase, fc camera.FrameConstants, pyr *pyramid.Pyramid) DrawCount

	// Draws returns a copy of the commands written by the last run of phase.
	//
	// Parameters:
	//   - phase: the phase
	//
	// Returns:
	//   - []DrawCommand: the commands, in unspecified order
	Draws(phase Phase) []DrawCommand

	// Count returns the draw count of the last run of phase.
	Count(phase Phase) DrawCount

	// Stats returns the counters of the last run of phase.
	Stats(phase Phase) Stats

	// Visibility returns the persistent visibility bits.
	Visibility() *Visibility

	// Reset clears every visibility bit, so the next late phase draws everything visible.
	Reset()

	// Capacity returns the number of commands each draw region can hold.
	Capacity() int

	// SetCapacity re-allocates the draw buffer. Recorded draws are discarded.
	//
	// Parameters:
	//   - n: commands per region; 0 selects the primitive count
	//
	// Returns:
	//   - error: ErrCapacityTooSmall if n is below the primitive count
	SetCapacity(n int) error
}

type cullerImpl struct {
	mu sync.Mutex

	scene      scene.Scene
	dispatcher compute.Dispatcher
	lodBase    float32
	lodStep    float32
	capacity   int

	visibility *Visibility
	draws      *DrawBuffer
	counts     [2]DrawCount
	stats      [2]Stats

	frame    scene.Snapshot
	hasFrame bool
}

var _ Culler = &cullerImpl{}

// NewCuller creates a Culler for scn. The scene's primitive count is fixed for the culler's lifetime.
// Defaults to DefaultLODBase, DefaultLODStep, a capacity equal to the primitive count and the
// process-wide dispatcher.
//
// Parameters:
//   - scn: the scene to cull
//   - options: functional options to configure the culler
//
// Returns:
//   - Culler: the new culler
//   - error: ErrCapacityTooSmall or ErrInvalidLODParams, wrapped
func NewCuller(scn scene.Scene, options ...CullerBuilderOption) (Culler, error) {
	c := &cullerImpl{
		scene:   scn,
		lodBase: DefaultLODBase,
		lodStep: DefaultLODStep,
	}
	for _, option := range options {
		option(c)
	}
	if c.dispatcher == nil {
		c.dispatcher = compute.Default()
	}
	if !(c.lodBase > 0) || !(c.lodStep > 1) {
		return nil, fmt.Errorf("culler: lod base %v step %v: %w", c.lodBase, c.lodStep, ErrInvalidLODParams)
	}
	count := scn.PrimitiveCount()
	c.visibility = NewVisibility(count)
	if err := c.setCapacity(c.capacity); err != nil {
		return nil, err
	}
	common.Logger().Debug("culler created",
		"scene", scn.Name(),
		"primitives", count,
		"capacity", c.capacity,
		"lod_base", c.lodBase,
		"lod_step", c.lodStep,
	)
	return c, nil
}

func (c *cullerImpl) Cull(phase Phase, fc camera.FrameConstants, pyr *pyramid.Pyramid) DrawCount {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !phase.valid() {
		return DrawCount{}
	}

	if phase == PhaseEarly || !c.hasFrame {
		c.frame = c.scene.Snapshot()
		c.hasFrame = phase == PhaseEarly
	} else {
		c.hasFrame = false
	}
	snap := c.frame

	c.draws.Reset(phase)
	var counters statCounters
	occlusion := phase == PhaseLate && pyr != nil && pyr.Levels() > 0
	label := "culler." + phase.String()

	c.dispatcher.Dispatch(label, len(snap.Primitives), func(i int) {
		if phase == PhaseEarly && !c.visibility.Get(i) {
			return
		}
		counters.tested.Add(1)

		prim := &snap.Primitives[i]
		inst := &snap.Instances[prim.Instance]
		world := common.TransformPoint(inst.Transform, prim.Bounds.Center)
		radius := max(prim.Bounds.Radius, 0) * common.MaxScale(inst.Transform)

		visible := fc.Frustum.IntersectsSphere(world, radius)
		if !visible {
			counters.frustumCulled.Add(1)
		} else if occlusion && radius > 0 && occluded(fc, pyr, world, radius) {
			counters.occlusionCulled.Add(1)
			visible = false
		}

		if phase == PhaseLate {
			wasVisible := c.visibility.Get(i)
			c.visibility.Set(i, visible)
			if wasVisible {
				return
			}
		}
		if !visible {
			return
		}

		dist := max(world.Sub(fc.Position).Len()-radius, 0)
		lod := prim.LODs[SelectLOD(dist, c.lodBase, c.lodStep, len(prim.LODs))]
		mat := snap.Materials[prim.Material]
		ok := c.draws.Append(phase, DrawCommand{
			IndexCount:    lod.IndexCount,
			InstanceCount: 1,
			FirstIndex:    lod.FirstIndex,
			VertexOffset:  prim.VertexOffset,
			FirstInstance: prim.Instance,
			AlbedoMap:     mat.AlbedoMap,
			SpecularMap:   mat.SpecularMap,
			NormalMap:     mat.NormalMap,
		})
		if ok {
			counters.drawn.Add(1)
		} else {
			counters.dropped.Add(1)
		}
	})

	stats := counters.snapshot()
	count := DrawCount{
		CommandCount:   uint32(c.draws.Len(phase)),
		PrimitiveCount: stats.Tested,
	}
	c.stats[phase] = stats
	c.counts[phase] = count
	if stats.Dropped > 0 {
		common.Logger().Warn("draw region overflow", "phase", phase.String(), "dropped", stats.Dropped)
	}
	return count
}

// occluded reports whether the sphere lies strictly behind the pyramid depth under its screen footprint.
func occluded(fc camera.FrameConstants, pyr *pyramid.Pyramid, world mgl32.Vec3, radius float32) bool {
	center := common.TransformPoint(fc.View, world)
	nearest := -center[2] - radius
	if nearest <= fc.Near {
		return false
	}
	rect, ok := ProjectSphere(center, radius, fc.Proj, fc.Width, fc.Height)
	if !ok {
		return false
	}
	return nearest > pyr.SampleFootprint(rect.MinX, rect.MinY, rect.MaxX, rect.MaxY)
}

func (c *cullerImpl) Draws(phase Phase) []DrawCommand {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !phase.valid() {
		return nil
	}
	return c.draws.Commands(phase)
}

func (c *cullerImpl) Count(phase Phase) DrawCount {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !phase.valid() {
		return DrawCount{}
	}
	return c.counts[phase]
}

func (c *cullerImpl) Stats(phase Phase) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !phase.valid() {
		return Stats{}
	}
	return c.stats[phase]
}

func (c *cullerImpl) Visibility() *Visibility {
	return c.visibility
}

func (c *cullerImpl) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visibility.Reset()
	c.hasFrame = false
}

func (c *cullerImpl) Capacity() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capacity
}

func (c *cullerImpl) SetCapacity(n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setCapacity(n)
}

func (c *cullerImpl) setCapacity(n int) error {
	count := c.visibility.Len()
	if n == 0 {
		n = count
	}
	if n < count {
		return fmt.Errorf("culler: capacity %d for %d primitives: %w", n, count, ErrCapacityTooSmall)
	}
	c.capacity = n
	c.draws = NewDrawBuffer(n)
	c.counts = [2]DrawCount{}
	c.stats = [2]Stats{}
	return nil
}
