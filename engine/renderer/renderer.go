// Package renderer orchestrates the per-frame visibility pipeline: early cull, early raster,
// pyramid rebuild, late cull, late raster, optional final pyramid, cluster build and light assignment.
package renderer

import (
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/camera"
	"github.com/Carmen-Shannon/oxy-vis/engine/cluster"
	"github.com/Carmen-Shannon/oxy-vis/engine/compute"
	"github.com/Carmen-Shannon/oxy-vis/engine/culler"
	"github.com/Carmen-Shannon/oxy-vis/engine/light"
	"github.com/Carmen-Shannon/oxy-vis/engine/pyramid"
	"github.com/Carmen-Shannon/oxy-vis/engine/scene"
)

// PassTimings holds the wall time of each pass of one frame.
type PassTimings struct {
	CullEarly    time.Duration
	RasterEarly  time.Duration
	Pyramid      time.Duration
	CullLate     time.Duration
	RasterLate   time.Duration
	FinalPyramid time.Duration
	Clusters     time.Duration
	Lights       time.Duration
}

// FrameStats summarizes one frame.
type FrameStats struct {
	Frame       uint64
	Early       culler.Stats
	Late        culler.Stats
	Visible     int
	Lights      int
	LitClusters int
	Passes      PassTimings
	Total       time.Duration
}

// FrameOutput is everything a frame publishes to the shading stage.
// Slices and the grid are owned by the renderer and valid until the next RenderFrame call.
type FrameOutput struct {
	Early      []culler.DrawCommand
	EarlyCount culler.DrawCount
	Late       []culler.DrawCommand
	LateCount  culler.DrawCount
	LightMasks []cluster.LightMask
	Grid       *cluster.Grid
	Pyramid    *pyramid.Pyramid
	Stats      FrameStats
}

// Renderer runs the visibility pipeline for one scene.
type Renderer interface {
	// RenderFrame runs every pass for the camera in fc and publishes the result.
	// If the rasterizer fails the frame is abandoned; visibility bits keep the state of the last
	// completed late phase.
	//
	// Parameters:
	//   - fc: the frame constants
	//
	// Returns:
	//   - FrameOutput: the published frame
	//   - error: ErrInvalidFrame or a wrapped rasterizer error
	RenderFrame(fc camera.FrameConstants) (FrameOutput, error)

	// Settings returns the active configuration.
	Settings() Settings

	// Culler returns the culler holding the persistent visibility state.
	Culler() culler.Culler

	// Frames returns the number of completed frames.
	Frames() uint64

	// Close releases the compute pool if the renderer created it.
	Close()
}

type rendererImpl struct {
	mu sync.Mutex

	settings   Settings
	scene      scene.Scene
	rasterizer Rasterizer

	dispatcher    compute.Dispatcher
	ownDispatcher bool

	culler   culler.Culler
	pyramids pyramid.Builder
	grid     *cluster.Grid
	assigner cluster.Assigner

	viewLights []light.ViewLight
	frames     uint64
}

var _ Renderer = &rendererImpl{}

// NewRenderer wires the pipeline components for scn. The rasterizer is called between the phases.
// Defaults to DefaultSettings and a dedicated compute pool sized by Settings.Workers.
//
// Parameters:
//   - scn: the scene to render
//   - rast: the rasterizer that produces depth
//   - options: functional options to configure the renderer
//
// Returns:
//   - Renderer: the renderer
//   - error: ErrInvalidSettings or a component construction error, wrapped
func NewRenderer(scn scene.Scene, rast Rasterizer, options ...RendererBuilderOption) (Renderer, error) {
	r := &rendererImpl{
		settings:   DefaultSettings(),
		scene:      scn,
		rasterizer: rast,
	}
	for _, option := range options {
		option(r)
	}
	if err := r.settings.Validate(); err != nil {
		return nil, err
	}
	if r.dispatcher == nil {
		var opts []compute.DispatcherBuilderOption
		if r.settings.Workers > 0 {
			opts = append(opts, compute.WithWorkers(r.settings.Workers))
		}
		r.dispatcher = compute.NewDispatcher(opts...)
		r.ownDispatcher = true
	}

	var err error
	r.culler, err = culler.NewCuller(scn,
		culler.WithDispatcher(r.dispatcher),
		culler.WithLODBase(r.settings.LODBase),
		culler.WithLODStep(r.settings.LODStep),
		culler.WithCapacity(r.settings.DrawCapacity),
	)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("renderer: %w", err)
	}
	r.grid, err = cluster.NewGrid(r.settings.ClusterX, r.settings.ClusterY, r.settings.ClusterZ,
		cluster.WithGridDispatcher(r.dispatcher))
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("renderer: %w", err)
	}
	r.pyramids = pyramid.NewBuilder(pyramid.WithDispatcher(r.dispatcher))
	r.assigner = cluster.NewAssigner(
		cluster.WithGroupLanes(r.settings.GroupLanes),
		cluster.WithDispatcher(r.dispatcher),
	)

	common.Logger().Debug("renderer created",
		"scene", scn.Name(),
		"workers", r.dispatcher.Workers(),
		"clusters", r.grid.Len(),
		"capacity", r.culler.Capacity(),
		"final_pyramid", r.settings.FinalPyramid,
	)
	return r, nil
}

func (r *rendererImpl) RenderFrame(fc camera.FrameConstants) (FrameOutput, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !(fc.Near > 0) || !(fc.Far > fc.Near) || fc.Width == 0 || fc.Height == 0 {
		return FrameOutput{}, fmt.Errorf("renderer: near %v far %v size %dx%d: %w", fc.Near, fc.Far, fc.Width, fc.Height, ErrInvalidFrame)
	}

	start := time.Now()
	var passes PassTimings
	lap := func(d *time.Duration) {
		now := time.Now()
		*d = now.Sub(start)
		start = now
	}
	frameStart := start

	if fs, ok := r.rasterizer.(FrameStarter); ok {
		if err := fs.BeginFrame(fc); err != nil {
			return FrameOutput{}, fmt.Errorf("renderer: begin frame: %w", err)
		}
	}

	earlyCount := r.culler.Cull(culler.PhaseEarly, fc, nil)
	early := r.culler.Draws(culler.PhaseEarly)
	lap(&passes.CullEarly)

	if err := r.rasterizer.Rasterize(culler.PhaseEarly, early); err != nil {
		return FrameOutput{}, fmt.Errorf("renderer: rasterize early: %w", err)
	}
	lap(&passes.RasterEarly)

	pyr := r.pyramids.BuildFromTarget(r.rasterizer.DepthTarget(), fc.Near, fc.Far)
	lap(&passes.Pyramid)

	// The late phase rewrites the visibility bits; they are rolled back if the frame is abandoned.
	committed := r.culler.Visibility().Words()
	lateCount := r.culler.Cull(culler.PhaseLate, fc, pyr)
	late := r.culler.Draws(culler.PhaseLate)
	lap(&passes.CullLate)

	if err := r.rasterizer.Rasterize(culler.PhaseLate, late); err != nil {
		r.culler.Visibility().Load(committed)
		return FrameOutput{}, fmt.Errorf("renderer: rasterize late: %w", err)
	}
	lap(&passes.RasterLate)

	if r.settings.FinalPyramid {
		pyr = r.pyramids.BuildFromTarget(r.rasterizer.DepthTarget(), fc.Near, fc.Far)
		lap(&passes.FinalPyramid)
	}

	r.grid.Build(fc)
	lap(&passes.Clusters)

	r.viewLights = light.ToView(fc.View, r.scene.PointLights(), r.viewLights)
	masks := r.assigner.Assign(r.grid, r.viewLights)
	lap(&passes.Lights)

	lit := 0
	for i := range masks {
		if masks[i].Count() > 0 {
			lit++
		}
	}

	r.frames++
	stats := FrameStats{
		Frame:       r.frames,
		Early:       r.culler.Stats(culler.PhaseEarly),
		Late:        r.culler.Stats(culler.PhaseLate),
		Visible:     r.culler.Visibility().Count(),
		Lights:      len(r.viewLights),
		LitClusters: lit,
		Passes:      passes,
		Total:       time.Since(frameStart),
	}
	common.Logger().Debug("frame rendered",
		"frame", stats.Frame,
		"early", earlyCount.CommandCount,
		"late", lateCount.CommandCount,
		"frustum_culled", stats.Late.FrustumCulled,
		"occlusion_culled", stats.Late.OcclusionCulled,
		"lit_clusters", lit,
	)

	return FrameOutput{
		Early:      early,
		EarlyCount: earlyCount,
		Late:       late,
		LateCount:  lateCount,
		LightMasks: masks,
		Grid:       r.grid,
		Pyramid:    pyr,
		Stats:      stats,
	}, nil
}

func (r *rendererImpl) Settings() Settings {
	return r.settings
}

func (r *rendererImpl) Culler() culler.Culler {
	return r.culler
}

func (r *rendererImpl) Frames() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

func (r *rendererImpl) Close() {
	if r.ownDispatcher && r.dispatcher != nil {
		r.dispatcher.Close()
	}
}
