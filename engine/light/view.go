package light

import (
	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/go-gl/mathgl/mgl32"
)

// ViewLight is a point light moved into view space for cluster assignment.
type ViewLight struct {
	Position mgl32.Vec3
	Radius   float32
}

// ToView transforms point lights into view space. The view matrix is rigid, so radii are unchanged.
// out is reused when it has enough capacity.
//
// Parameters:
//   - view: the frame's view matrix
//   - lights: world-space point lights
//   - out: optional destination slice
//
// Returns:
//   - []ViewLight: one entry per input light, in the same order
func ToView(view mgl32.Mat4, lights []PointLight, out []ViewLight) []ViewLight {
	out = out[:0]
	for _, l := range lights {
		out = append(out, ViewLight{
			Position: common.TransformPoint(view, l.Position),
			Radius:   l.Radius,
		})
	}
	return out
}
