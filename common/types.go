// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Sphere is a bounding sphere.
type Sphere struct {
	// Center is the sphere center.
	Center mgl32.Vec3
	// Radius is the sphere radius. Values <= 0 describe a point.
	Radius float32
}

// Transform returns the sphere moved by the affine transform m.
// The radius is scaled by the largest axis scale of m so the result still encloses the original volume.
//
// Parameters:
//   - m: the affine transform
//
// Returns:
//   - Sphere: the transformed sphere
func (s Sphere) Transform(m mgl32.Mat4) Sphere {
	return Sphere{
		Center: TransformPoint(m, s.Center),
		Radius: max(s.Radius, 0) * MaxScale(m),
	}
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// EmptyAABB returns a box that any Extend call will replace.
//
// Returns:
//   - AABB: an inverted, infinitely small box
func EmptyAABB() AABB {
	inf := float32(math.Inf(1))
	return AABB{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// Extend grows the box to include p.
//
// Parameters:
//   - p: the point to include
func (b *AABB) Extend(p mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		b.Min[i] = min(b.Min[i], p[i])
		b.Max[i] = max(b.Max[i], p[i])
	}
}

// ClosestPoint clamps p into the box.
//
// Parameters:
//   - p: the point to clamp
//
// Returns:
//   - mgl32.Vec3: the point of the box nearest to p
func (b AABB) ClosestPoint(p mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{
		Clamp(p[0], b.Min[0], b.Max[0]),
		Clamp(p[1], b.Min[1], b.Max[1]),
		Clamp(p[2], b.Min[2], b.Max[2]),
	}
}

// BoundingSphere returns the sphere centered on the box with radius equal to half its diagonal.
//
// Returns:
//   - Sphere: the enclosing sphere
func (b AABB) BoundingSphere() Sphere {
	center := b.Min.Add(b.Max).Mul(0.5)
	return Sphere{Center: center, Radius: b.Max.Sub(center).Len()}
}
