// Package raster provides a software depth-only rasterizer that stands in for real geometry.
// Each drawn primitive is replaced by a screen-aligned square inscribed in the projection of its
// bounding sphere, written at the depth of the sphere's far side. The result never claims more
// occlusion than the real mesh could produce, which makes it safe input for the depth pyramid.
package raster

import (
	"fmt"
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/camera"
	"github.com/Carmen-Shannon/oxy-vis/engine/culler"
	"github.com/Carmen-Shannon/oxy-vis/engine/pyramid"
	"github.com/Carmen-Shannon/oxy-vis/engine/scene"
)

// inscribed is the half-extent of a square inscribed in a unit circle.
const inscribed = 1 / math.Sqrt2

type drawKey struct {
	instance     uint32
	vertexOffset int32
	firstIndex   uint32
}

// Stats counts the work done since the last BeginFrame.
type Stats struct {
	Draws   int
	Skipped int
	Pixels  int
}

// Proxy is a depth-only sphere rasterizer.
type Proxy struct {
	mu sync.Mutex

	scene   scene.Scene
	samples int
	lookup  map[drawKey]int

	target pyramid.DepthTarget
	frame  camera.FrameConstants
	snap   scene.Snapshot
	stats  Stats
}

// NewProxy creates a proxy rasterizer for scn with a width x height target.
// Defaults to one sample per pixel.
//
// Parameters:
//   - scn: the scene whose primitives are drawn
//   - width, height: target size in pixels
//   - options: functional options to configure the rasterizer
//
// Returns:
//   - *Proxy: the rasterizer with a cleared target
func NewProxy(scn scene.Scene, width, height int, options ...ProxyBuilderOption) *Proxy {
	p := &Proxy{scene: scn, samples: 1}
	for _, option := range options {
		option(p)
	}
	p.target = pyramid.NewDepthTarget(width, height, p.samples)

	snap := scn.Snapshot()
	p.lookup = make(map[drawKey]int, len(snap.Primitives))
	for i, prim := range snap.Primitives {
		for _, lod := range prim.LODs {
			key := drawKey{instance: prim.Instance, vertexOffset: prim.VertexOffset, firstIndex: lod.FirstIndex}
			if _, exists := p.lookup[key]; !exists {
				p.lookup[key] = i
			}
		}
	}
	return p
}

// BeginFrame clears the depth target and captures the camera and instance transforms for the frame.
// The target is resized if fc's screen size differs from it.
//
// Parameters:
//   - fc: the frame constants
//
// Returns:
//   - error: always nil
func (p *Proxy) BeginFrame(fc camera.FrameConstants) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if int(fc.Width) != p.target.Width || int(fc.Height) != p.target.Height {
		p.target = pyramid.NewDepthTarget(int(fc.Width), int(fc.Height), p.samples)
	} else {
		p.target.Clear()
	}
	p.frame = fc
	p.snap = p.scene.Snapshot()
	p.stats = Stats{}
	return nil
}

// Rasterize draws every command into the depth target with a less-than depth test.
//
// Parameters:
//   - phase: the phase the draws belong to
//   - draws: the commands to draw
//
// Returns:
//   - error: error if a command refers to an unknown primitive
func (p *Proxy) Rasterize(phase culler.Phase, draws []culler.DrawCommand) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, d := range draws {
		idx, ok := p.lookup[drawKey{instance: d.FirstInstance, vertexOffset: d.VertexOffset, firstIndex: d.FirstIndex}]
		if !ok || int(d.FirstInstance) >= len(p.snap.Instances) {
			return fmt.Errorf("raster: %s draw: instance %d first index %d: no matching primitive", phase, d.FirstInstance, d.FirstIndex)
		}
		prim := p.snap.Primitives[idx]
		sphere := prim.Bounds.Transform(p.snap.Instances[d.FirstInstance].Transform)
		p.drawSphere(sphere)
	}
	return nil
}

// DepthTarget returns the depth target. It is owned by the rasterizer and reused every frame.
func (p *Proxy) DepthTarget() pyramid.DepthTarget {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.target
}

// Stats returns the counters of the current frame.
func (p *Proxy) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

func (p *Proxy) drawSphere(s common.Sphere) {
	fc := p.frame
	center := common.TransformPoint(fc.View, s.Center)
	depth := -center[2]
	if depth-s.Radius <= fc.Near || depth+s.Radius >= fc.Far || s.Radius <= 0 {
		p.stats.Skipped++
		return
	}
	rect, ok := culler.ProjectSphere(center, s.Radius, fc.Proj, fc.Width, fc.Height)
	if !ok {
		p.stats.Skipped++
		return
	}

	cx, cy := (rect.MinX+rect.MaxX)/2, (rect.MinY+rect.MaxY)/2
	hw, hh := rect.Width()/2*inscribed, rect.Height()/2*inscribed
	// Pixel centers inside the square are covered.
	x0 := max(int(math.Ceil(float64(cx-hw-0.5))), 0)
	x1 := min(int(math.Floor(float64(cx+hw-0.5))), p.target.Width-1)
	y0 := max(int(math.Ceil(float64(cy-hh-0.5))), 0)
	y1 := min(int(math.Floor(float64(cy+hh-0.5))), p.target.Height-1)
	if x0 > x1 || y0 > y1 {
		p.stats.Skipped++
		return
	}

	z := common.DeviceDepth(depth+s.Radius, fc.Near, fc.Far)
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			for smp := 0; smp < p.target.Samples; smp++ {
				i := p.target.Index(x, y, smp)
				if z < p.target.Depth[i] {
					p.target.Depth[i] = z
				}
			}
			p.stats.Pixels++
		}
	}
	p.stats.Draws++
}
