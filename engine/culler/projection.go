package culler

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// ScreenRect is an axis-aligned rectangle in pixel coordinates, origin at the top-left corner.
type ScreenRect struct {
	MinX, MinY, MaxX, MaxY float32
}

// Width returns the horizontal extent.
func (r ScreenRect) Width() float32 { return r.MaxX - r.MinX }

// Height returns the vertical extent.
func (r ScreenRect) Height() float32 { return r.MaxY - r.MinY }

// ProjectSphere computes the exact screen bounds of a view-space sphere under a symmetric perspective
// projection. Each axis is handled in its own plane: the tangent lines from the eye to the circle make
// angles theta +- asin(r/L) with the view axis, and their tangents scaled by the projection give NDC.
// The sphere must lie entirely in front of the camera (depth - radius > 0).
//
// Parameters:
//   - center: sphere center in view space (camera looks down -Z)
//   - radius: sphere radius
//   - proj: the projection matrix; only the [0] and [5] terms are used
//   - width, height: render target size in pixels
//
// Returns:
//   - ScreenRect: the bounds in pixels
//   - bool: false if the sphere reaches the camera plane and cannot be projected
func ProjectSphere(center mgl32.Vec3, radius float32, proj mgl32.Mat4, width, height uint32) (ScreenRect, bool) {
	depth := -center[2]
	if depth-radius <= 0 {
		return ScreenRect{}, false
	}
	minX, maxX := tangentBounds(center[0], depth, radius)
	minY, maxY := tangentBounds(center[1], depth, radius)

	ndcMinX, ndcMaxX := proj[0]*minX, proj[0]*maxX
	ndcMinY, ndcMaxY := proj[5]*minY, proj[5]*maxY

	w, h := float32(width), float32(height)
	return ScreenRect{
		MinX: (ndcMinX*0.5 + 0.5) * w,
		MaxX: (ndcMaxX*0.5 + 0.5) * w,
		MinY: (0.5 - ndcMaxY*0.5) * h,
		MaxY: (0.5 - ndcMinY*0.5) * h,
	}, true
}

// tangentBounds returns tan(theta - alpha) and tan(theta + alpha) for a circle at lateral offset c
// and forward depth d.
func tangentBounds(c, d, r float32) (float32, float32) {
	l := math.Hypot(float64(c), float64(d))
	theta := math.Atan2(float64(c), float64(d))
	alpha := math.Asin(min(float64(r)/l, 1))
	return float32(math.Tan(theta - alpha)), float32(math.Tan(theta + alpha))
}
