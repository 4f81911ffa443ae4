package scene

import (
	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/go-gl/mathgl/mgl32"
)

// MaxLODs is the maximum number of detail levels a primitive may carry.
const MaxLODs = 8

// LOD is one index range of a primitive. Lower indices are more detailed.
type LOD struct {
	FirstIndex uint32
	IndexCount uint32
}

// Primitive is a drawable mesh range with a bounding sphere and a LOD table.
// Primitives are immutable after scene load and refer to their instance and material by index.
type Primitive struct {
	// Bounds is the bounding sphere in object space.
	Bounds common.Sphere
	// VertexOffset is added to every index before fetching vertices.
	VertexOffset int32
	// LODs lists 1..MaxLODs index ranges, most detailed first.
	LODs []LOD
	// Instance is the index of the owning instance in the scene's instance table.
	Instance uint32
	// Material is the index of the primitive's entry in the material table.
	Material uint32
}

// Material holds indices into a fixed texture descriptor table.
type Material struct {
	AlbedoMap   uint32
	SpecularMap uint32
	NormalMap   uint32
}

// Instance is a placement of one or more primitives in the world.
type Instance struct {
	// Transform maps object space to world space.
	Transform mgl32.Mat4
	// Normal is the inverse-transpose of Transform.
	Normal mgl32.Mat4
}

// NewInstance creates an instance and derives its normal matrix.
//
// Parameters:
//   - transform: object-to-world transform
//
// Returns:
//   - Instance: the new instance
func NewInstance(transform mgl32.Mat4) Instance {
	return Instance{
		Transform: transform,
		Normal:    common.NormalMatrix(transform),
	}
}

// MaxScale returns the largest per-axis scale of the instance transform.
//
// Returns:
//   - float32: the maximum scale factor
func (i Instance) MaxScale() float32 {
	return common.MaxScale(i.Transform)
}
