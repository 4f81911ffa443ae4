package camera

import (
	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/go-gl/mathgl/mgl32"
)

// FrameConstants is the per-frame camera and projection state shared read-only by all passes.
// View space is right-handed with the camera looking down -Z, and projected depth is in [0, 1].
type FrameConstants struct {
	View     mgl32.Mat4
	Proj     mgl32.Mat4
	ViewProj mgl32.Mat4
	InvProj  mgl32.Mat4

	// Position is the world-space camera position.
	Position mgl32.Vec3

	Near   float32
	Far    float32
	Fov    float32
	Aspect float32

	// Width and Height are the render target size in pixels.
	Width  uint32
	Height uint32

	// Frustum holds the world-space planes extracted from ViewProj.
	Frustum common.Frustum
}

// NewLookAtFrameConstants builds frame constants for a camera at eye facing target.
// The aspect ratio is taken from width/height.
//
// Parameters:
//   - eye: camera position
//   - target: point the camera faces
//   - fov: vertical field of view in radians
//   - near, far: clip plane distances
//   - width, height: render target size in pixels
//
// Returns:
//   - FrameConstants: the frame snapshot
func NewLookAtFrameConstants(eye, target mgl32.Vec3, fov, near, far float32, width, height uint32) FrameConstants {
	aspect := float32(width) / float32(max(height, 1))
	view := mgl32.LookAtV(eye, target, worldUp)
	proj := common.Perspective(fov, aspect, near, far)
	return newFrameConstants(view, proj, proj.Inv(), eye, fov, aspect, near, far, width, height)
}

func newFrameConstants(view, proj, invProj mgl32.Mat4, pos mgl32.Vec3, fov, aspect, near, far float32, width, height uint32) FrameConstants {
	viewProj := proj.Mul4(view)
	return FrameConstants{
		View:     view,
		Proj:     proj,
		ViewProj: viewProj,
		InvProj:  invProj,
		Position: pos,
		Near:     near,
		Far:      far,
		Fov:      fov,
		Aspect:   aspect,
		Width:    width,
		Height:   height,
		Frustum:  common.ExtractFrustumFromMatrix(viewProj),
	}
}

// ToView transforms a world-space point into view space.
//
// Parameters:
//   - p: world-space point
//
// Returns:
//   - mgl32.Vec3: view-space point (visible points have negative z)
func (fc FrameConstants) ToView(p mgl32.Vec3) mgl32.Vec3 {
	return common.TransformPoint(fc.View, p)
}

// GPU returns the GPU-aligned uniform for these constants.
//
// Returns:
//   - GPUFrameConstants: the uniform struct ready to Marshal
func (fc FrameConstants) GPU() GPUFrameConstants {
	return GPUFrameConstants{
		View:     fc.View,
		Proj:     fc.Proj,
		ViewProj: fc.ViewProj,
		InvProj:  fc.InvProj,
		Position: fc.Position,
		Near:     fc.Near,
		Far:      fc.Far,
		Fov:      fc.Fov,
		Width:    fc.Width,
		Height:   fc.Height,
	}
}
