package loader

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// NoTexture marks a material slot without a texture.
const NoTexture = ^uint32(0)

// ErrNoPosition is returned when a mesh primitive lacks a POSITION attribute.
var ErrNoPosition = errors.New("primitive has no POSITION attribute")

// Model is the culling view of a glTF document: one primitive per mesh primitive per node,
// with index ranges laid out back to back in a shared index buffer.
type Model struct {
	Name       string
	Primitives []scene.Primitive
	Instances  []scene.Instance
	Materials  []scene.Material

	// IndexCount and VertexCount size the shared buffers the draw commands refer to.
	IndexCount  uint32
	VertexCount uint32
}

// meshRange is the geometry of one mesh primitive, shared by every node that uses the mesh.
type meshRange struct {
	bounds       common.Sphere
	firstIndex   uint32
	indexCount   uint32
	vertexOffset int32
	material     int
}

// FromDocument converts a decoded glTF document. Node hierarchies are flattened to world transforms,
// and bounds come from the POSITION accessor's min/max, reading vertex data only when those are absent.
//
// Parameters:
//   - name: the model name
//   - doc: the decoded document
//   - lodChain: LODs to synthesize per primitive by halving the index count, clamped to [1, scene.MaxLODs]
//
// Returns:
//   - *Model: the model
//   - error: ErrNoPosition or an accessor read error, wrapped
func FromDocument(name string, doc *gltf.Document, lodChain int) (*Model, error) {
	m := &Model{Name: name}

	for _, gm := range doc.Materials {
		m.Materials = append(m.Materials, convertMaterial(gm))
	}
	defaultMaterial := -1

	ranges := make([][]meshRange, len(doc.Meshes))
	for mi, mesh := range doc.Meshes {
		for pi, prim := range mesh.Primitives {
			r, err := m.layoutPrimitive(doc, prim)
			if err != nil {
				return nil, fmt.Errorf("loader: %s: mesh %d primitive %d: %w", name, mi, pi, err)
			}
			if r.material < 0 || r.material >= len(m.Materials) {
				if defaultMaterial < 0 {
					defaultMaterial = len(m.Materials)
					m.Materials = append(m.Materials, scene.Material{AlbedoMap: NoTexture, SpecularMap: NoTexture, NormalMap: NoTexture})
				}
				r.material = defaultMaterial
			}
			ranges[mi] = append(ranges[mi], r)
		}
	}

	lodChain = common.Clamp(lodChain, 1, scene.MaxLODs)
	var visit func(node int, parent mgl32.Mat4, depth int)
	visit = func(node int, parent mgl32.Mat4, depth int) {
		if node < 0 || node >= len(doc.Nodes) || depth > len(doc.Nodes) {
			return
		}
		n := doc.Nodes[node]
		world := parent.Mul4(nodeTransform(n))
		if n.Mesh != nil && *n.Mesh >= 0 && *n.Mesh < len(ranges) && len(ranges[*n.Mesh]) > 0 {
			inst := uint32(len(m.Instances))
			m.Instances = append(m.Instances, scene.NewInstance(world))
			for _, r := range ranges[*n.Mesh] {
				m.Primitives = append(m.Primitives, scene.Primitive{
					Bounds:       r.bounds,
					VertexOffset: r.vertexOffset,
					LODs:         lodRanges(r.firstIndex, r.indexCount, lodChain),
					Instance:     inst,
					Material:     uint32(r.material),
				})
			}
		}
		for _, child := range n.Children {
			visit(child, world, depth+1)
		}
	}
	for _, root := range rootNodes(doc) {
		visit(root, mgl32.Ident4(), 0)
	}

	common.Logger().Debug("gltf model converted",
		"name", name,
		"primitives", len(m.Primitives),
		"instances", len(m.Instances),
		"materials", len(m.Materials),
		"indices", m.IndexCount,
	)
	return m, nil
}

// Scene builds a scene from the model's tables.
//
// Parameters:
//   - options: additional scene options such as lights, applied after the model tables
//
// Returns:
//   - scene.Scene: the scene
//   - error: a scene validation error
func (m *Model) Scene(options ...scene.SceneBuilderOption) (scene.Scene, error) {
	opts := append([]scene.SceneBuilderOption{
		scene.WithPrimitives(m.Primitives...),
		scene.WithInstances(m.Instances...),
		scene.WithMaterials(m.Materials...),
	}, options...)
	return scene.NewScene(m.Name, opts...)
}

func (m *Model) layoutPrimitive(doc *gltf.Document, prim *gltf.Primitive) (meshRange, error) {
	posIdx, ok := prim.Attributes["POSITION"]
	if !ok || posIdx < 0 || posIdx >= len(doc.Accessors) {
		return meshRange{}, ErrNoPosition
	}
	pos := doc.Accessors[posIdx]

	box, ok := accessorBounds(pos.Min, pos.Max)
	if !ok {
		positions, err := modeler.ReadPosition(doc, pos, nil)
		if err != nil {
			return meshRange{}, fmt.Errorf("positions: %w", err)
		}
		box = common.EmptyAABB()
		for _, p := range positions {
			box.Extend(mgl32.Vec3(p))
		}
	}

	indexCount := uint32(pos.Count)
	if prim.Indices != nil && *prim.Indices >= 0 && *prim.Indices < len(doc.Accessors) {
		indexCount = uint32(doc.Accessors[*prim.Indices].Count)
	}
	r := meshRange{
		firstIndex:   m.IndexCount,
		indexCount:   indexCount,
		vertexOffset: int32(m.VertexCount),
		material:     -1,
	}
	if pos.Count > 0 {
		r.bounds = box.BoundingSphere()
	}
	if prim.Material != nil {
		r.material = *prim.Material
	}
	m.IndexCount += indexCount
	m.VertexCount += uint32(pos.Count)
	return r, nil
}

// lodRanges synthesizes a LOD chain over one index range, each level drawing half the triangles of the previous.
func lodRanges(first, count uint32, n int) []scene.LOD {
	lods := make([]scene.LOD, 0, n)
	for i := 0; i < n; i++ {
		lods = append(lods, scene.LOD{FirstIndex: first, IndexCount: count})
		next := count / 2 / 3 * 3
		if next < 3 {
			break
		}
		count = next
	}
	return lods
}

func convertMaterial(gm *gltf.Material) scene.Material {
	out := scene.Material{AlbedoMap: NoTexture, SpecularMap: NoTexture, NormalMap: NoTexture}
	if gm == nil {
		return out
	}
	if pbr := gm.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorTexture != nil {
			out.AlbedoMap = uint32(pbr.BaseColorTexture.Index)
		}
		if pbr.MetallicRoughnessTexture != nil {
			out.SpecularMap = uint32(pbr.MetallicRoughnessTexture.Index)
		}
	}
	if gm.NormalTexture != nil && gm.NormalTexture.Index != nil {
		out.NormalMap = uint32(*gm.NormalTexture.Index)
	}
	return out
}

// rootNodes returns the default scene's nodes, or every parentless node when no scene is set.
func rootNodes(doc *gltf.Document) []int {
	if doc.Scene != nil && *doc.Scene >= 0 && *doc.Scene < len(doc.Scenes) {
		return doc.Scenes[*doc.Scene].Nodes
	}
	if len(doc.Scenes) == 1 {
		return doc.Scenes[0].Nodes
	}
	hasParent := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !hasParent[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

// nodeTransform returns the node's local matrix, composing TRS when no matrix is given.
func nodeTransform(n *gltf.Node) mgl32.Mat4 {
	if m := toMat4(n.MatrixOrDefault()); m != mgl32.Ident4() {
		return m
	}
	t := toVec3(n.TranslationOrDefault())
	r := n.RotationOrDefault()
	s := toVec3(n.ScaleOrDefault())
	rot := mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}.Normalize()
	return mgl32.Translate3D(t[0], t[1], t[2]).Mul4(rot.Mat4()).Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
}

func toMat4[T float32 | float64](m [16]T) mgl32.Mat4 {
	var out mgl32.Mat4
	for i := range m {
		out[i] = float32(m[i])
	}
	return out
}

func toVec3[T float32 | float64](v [3]T) mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}

func accessorBounds[T float32 | float64](lo, hi []T) (common.AABB, bool) {
	if len(lo) < 3 || len(hi) < 3 {
		return common.AABB{}, false
	}
	return common.AABB{
		Min: mgl32.Vec3{float32(lo[0]), float32(lo[1]), float32(lo[2])},
		Max: mgl32.Vec3{float32(hi[0]), float32(hi[1]), float32(hi[2])},
	}, true
}
