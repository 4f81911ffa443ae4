package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Perspective creates a right-handed perspective projection matrix.
// Clip-space depth follows the WebGPU convention: the near plane maps to 0 and the far plane to 1.
// The matrix is column-major and layout-compatible with GPU uniform buffers.
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near clipping plane distance (must be > 0)
//   - far: far clipping plane distance (must be > near)
//
// Returns:
//   - mgl32.Mat4: the projection matrix
func Perspective(fovY, aspect, near, far float32) mgl32.Mat4 {
	f := 1.0 / float32(math.Tan(float64(fovY)/2.0))

	var out mgl32.Mat4
	out[0] = f / aspect
	out[5] = f
	out[10] = far / (near - far)
	out[11] = -1.0
	out[14] = (near * far) / (near - far)
	return out
}

// BuildModelMatrix constructs a 4x4 model matrix from position, Euler rotation, and scale.
// The rotation order is Y * X * Z (yaw-pitch-roll). All matrices are column-major.
//
// Parameters:
//   - pos: translation in world space
//   - rot: rotation angles in radians around the X, Y and Z axes
//   - scale: scale factors along each axis
//
// Returns:
//   - mgl32.Mat4: the composed model matrix
func BuildModelMatrix(pos, rot, scale mgl32.Vec3) mgl32.Mat4 {
	cx := float32(math.Cos(float64(rot[0])))
	sx := float32(math.Sin(float64(rot[0])))
	cy := float32(math.Cos(float64(rot[1])))
	sy := float32(math.Sin(float64(rot[1])))
	cz := float32(math.Cos(float64(rot[2])))
	sz := float32(math.Sin(float64(rot[2])))

	var out mgl32.Mat4
	// R = Ry * Rx * Rz, column-major
	out[0] = (cy*cz + sy*sx*sz) * scale[0]
	out[1] = (cx * sz) * scale[0]
	out[2] = (-sy*cz + cy*sx*sz) * scale[0]

	out[4] = (cy*-sz + sy*sx*cz) * scale[1]
	out[5] = (cx * cz) * scale[1]
	out[6] = (sy*sz + cy*sx*cz) * scale[1]

	out[8] = (sy * cx) * scale[2]
	out[9] = (-sx) * scale[2]
	out[10] = (cy * cx) * scale[2]

	out[12] = pos[0]
	out[13] = pos[1]
	out[14] = pos[2]
	out[15] = 1
	return out
}

// MaxScale returns the largest per-axis scale factor encoded in the upper 3x3 block of m.
// Bounding radii are multiplied by this value so non-uniform scale stays conservative.
//
// Parameters:
//   - m: an affine transform
//
// Returns:
//   - float32: the maximum column length of the linear part
func MaxScale(m mgl32.Mat4) float32 {
	sx := m.Col(0).Vec3().Len()
	sy := m.Col(1).Vec3().Len()
	sz := m.Col(2).Vec3().Len()
	return max(sx, sy, sz)
}

// TransformPoint applies the affine transform m to point p (w = 1).
//
// Parameters:
//   - m: the transform
//   - p: the point
//
// Returns:
//   - mgl32.Vec3: the transformed point
func TransformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

// NormalMatrix returns the inverse-transpose of m, used to transform normals.
// A singular matrix yields the zero matrix, matching mgl32.Mat4.Inv.
//
// Parameters:
//   - m: the model transform
//
// Returns:
//   - mgl32.Mat4: the normal matrix
func NormalMatrix(m mgl32.Mat4) mgl32.Mat4 {
	return m.Inv().Transpose()
}

// LinearizeDepth converts a [0, 1] device depth written with Perspective back into
// positive view-space distance.
//
// Parameters:
//   - z: device depth in [0, 1]
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - float32: view-space depth in [near, far]
func LinearizeDepth(z, near, far float32) float32 {
	return near * far / (far - z*(far-near))
}

// DeviceDepth is the inverse of LinearizeDepth.
//
// Parameters:
//   - d: positive view-space depth
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - float32: device depth in [0, 1] for d in [near, far]
func DeviceDepth(d, near, far float32) float32 {
	return (far - near*far/d) / (far - near)
}

// PrevPow2 returns the largest power of two that is <= v. Zero maps to zero.
//
// Parameters:
//   - v: the input value
//
// Returns:
//   - uint32: the previous power of two
func PrevPow2(v uint32) uint32 {
	if v == 0 {
		return 0
	}
	p := uint32(1)
	for p <= v>>1 {
		p <<= 1
	}
	return p
}

// CeilLog2 returns ceil(log2(v)) for v >= 1 and 0 for anything smaller.
//
// Parameters:
//   - v: the input value
//
// Returns:
//   - int: the smallest n with 2^n >= v
func CeilLog2(v float32) int {
	if !(v > 1) {
		return 0
	}
	if math.IsInf(float64(v), 1) {
		return 64
	}
	return int(math.Ceil(math.Log2(float64(v))))
}
