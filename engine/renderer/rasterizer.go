package renderer

import (
	"github.com/Carmen-Shannon/oxy-vis/engine/camera"
	"github.com/Carmen-Shannon/oxy-vis/engine/culler"
	"github.com/Carmen-Shannon/oxy-vis/engine/pyramid"
)

// Rasterizer draws culled commands into a depth target. It is called once per phase, and the
// renderer reads the depth target after each call, so every call acts as a fence.
type Rasterizer interface {
	// Rasterize draws the commands of one phase. An error abandons the frame.
	//
	// Parameters:
	//   - phase: the phase the commands belong to
	//   - draws: the commands to draw
	//
	// Returns:
	//   - error: error if drawing failed
	Rasterize(phase culler.Phase, draws []culler.DrawCommand) error

	// DepthTarget returns the depth written so far this frame.
	//
	// Returns:
	//   - pyramid.DepthTarget: the multisampled device depth
	DepthTarget() pyramid.DepthTarget
}

// FrameStarter is implemented by rasterizers that need to clear state before the early phase.
type FrameStarter interface {
	// BeginFrame prepares the rasterizer for a new frame.
	//
	// Parameters:
	//   - fc: the frame constants
	//
	// Returns:
	//   - error: error if the frame cannot start
	BeginFrame(fc camera.FrameConstants) error
}
