package scene

import (
	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/go-gl/mathgl/mgl32"
)

// GridLayout describes a synthetic scene of unit spheres placed on a regular grid.
// It is used by benchmarks and command line tools that need a scene without assets.
type GridLayout struct {
	// CountX, CountY and CountZ are the number of instances along each axis.
	CountX, CountY, CountZ int
	// Spacing is the distance between neighbouring instance centers.
	Spacing float32
	// Origin is the center of the first instance.
	Origin mgl32.Vec3
	// Radius is the object-space bounding radius of every primitive.
	Radius float32
	// LODCount is the number of LODs per primitive, clamped to [1, MaxLODs].
	LODCount int
	// IndexCount is the index count of LOD 0; each further LOD halves it.
	IndexCount uint32
}

// DefaultGridLayout returns a 16x4x16 layout of unit spheres spaced 4 units apart.
//
// Returns:
//   - GridLayout: the default layout
func DefaultGridLayout() GridLayout {
	return GridLayout{
		CountX:     16,
		CountY:     4,
		CountZ:     16,
		Spacing:    4,
		Origin:     mgl32.Vec3{-30, -6, -2},
		Radius:     1,
		LODCount:   4,
		IndexCount: 3072,
	}
}

// Build produces one instance and one primitive per grid cell. LOD index ranges are packed
// back to back in a shared index buffer, and every primitive shares the same mesh.
//
// Returns:
//   - []Primitive: the primitive table
//   - []Instance: the instance table
func (g GridLayout) Build() ([]Primitive, []Instance) {
	lodCount := common.Clamp(g.LODCount, 1, MaxLODs)
	lods := make([]LOD, lodCount)
	var first uint32
	count := max(g.IndexCount, 3)
	for i := range lods {
		lods[i] = LOD{FirstIndex: first, IndexCount: count}
		first += count
		count = max(count/2, 3)
	}

	n := max(g.CountX, 0) * max(g.CountY, 0) * max(g.CountZ, 0)
	primitives := make([]Primitive, 0, n)
	instances := make([]Instance, 0, n)
	for z := 0; z < g.CountZ; z++ {
		for y := 0; y < g.CountY; y++ {
			for x := 0; x < g.CountX; x++ {
				pos := g.Origin.Add(mgl32.Vec3{float32(x), float32(y), -float32(z)}.Mul(g.Spacing))
				idx := uint32(len(instances))
				instances = append(instances, NewInstance(mgl32.Translate3D(pos[0], pos[1], pos[2])))
				primitives = append(primitives, Primitive{
					Bounds:   common.Sphere{Radius: g.Radius},
					LODs:     lods,
					Instance: idx,
				})
			}
		}
	}
	return primitives, instances
}

// NewGridScene builds a Scene from a GridLayout.
//
// Parameters:
//   - name: the scene name
//   - layout: the grid layout
//   - options: additional options, applied after the grid tables
//
// Returns:
//   - Scene: the scene
//   - error: validation error, if any
func NewGridScene(name string, layout GridLayout, options ...SceneBuilderOption) (Scene, error) {
	primitives, instances := layout.Build()
	opts := append([]SceneBuilderOption{WithPrimitives(primitives...), WithInstances(instances...)}, options...)
	return NewScene(name, opts...)
}
