package loader

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
)

func ptr(i int) *int { return &i }

func boxAccessor(count int) *gltf.Accessor {
	a := &gltf.Accessor{Count: count, Type: gltf.AccessorVec3, ComponentType: gltf.ComponentFloat}
	a.Min = append(a.Min, -1, -1, -1)
	a.Max = append(a.Max, 1, 1, 1)
	return a
}

// testDocument holds a cube mesh used by two nodes and an unindexed triangle on a child node.
func testDocument() *gltf.Document {
	parent := &gltf.Node{Mesh: ptr(0), Children: []int{1}}
	parent.Translation[0] = 2
	child := &gltf.Node{Mesh: ptr(1)}
	child.Translation[1] = 3
	scaled := &gltf.Node{Mesh: ptr(0)}
	scaled.Matrix[0], scaled.Matrix[5], scaled.Matrix[10], scaled.Matrix[15] = 2, 2, 2, 1
	scaled.Matrix[14] = -10

	return &gltf.Document{
		Accessors: []*gltf.Accessor{
			boxAccessor(24),
			{Count: 36, Type: gltf.AccessorScalar, ComponentType: gltf.ComponentUshort},
			boxAccessor(3),
		},
		Meshes: []*gltf.Mesh{
			{Name: "cube", Primitives: []*gltf.Primitive{{Attributes: map[string]int{"POSITION": 0}, Indices: ptr(1), Material: ptr(0)}}},
			{Name: "tri", Primitives: []*gltf.Primitive{{Attributes: map[string]int{"POSITION": 2}}}},
		},
		Materials: []*gltf.Material{{
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{BaseColorTexture: &gltf.TextureInfo{Index: 2}},
			NormalTexture:        &gltf.NormalTexture{Index: ptr(5)},
		}},
		Nodes:  []*gltf.Node{parent, child, scaled},
		Scenes: []*gltf.Scene{{Nodes: []int{0, 2}}},
		Scene:  ptr(0),
	}
}

func TestFromDocument(t *testing.T) {
	m, err := FromDocument("test", testDocument(), 4)
	if err != nil {
		t.Fatal(err)
	}
	if m.IndexCount != 39 || m.VertexCount != 27 {
		t.Errorf("buffer sizes: %d indices %d vertices", m.IndexCount, m.VertexCount)
	}
	if len(m.Instances) != 3 || len(m.Primitives) != 3 {
		t.Fatalf("got %d instances %d primitives", len(m.Instances), len(m.Primitives))
	}

	wantPos := []mgl32.Vec3{{2, 0, 0}, {2, 3, 0}, {0, 0, -10}}
	for i, want := range wantPos {
		if got := m.Instances[i].Transform.Col(3).Vec3(); !got.ApproxEqual(want) {
			t.Errorf("instance %d at %v, want %v", i, got, want)
		}
	}

	cube := m.Primitives[0]
	if len(cube.LODs) != 4 || cube.LODs[1].IndexCount != 18 || cube.LODs[3].IndexCount != 3 || cube.LODs[3].FirstIndex != 0 {
		t.Errorf("unexpected cube LODs %+v", cube.LODs)
	}
	if math.Abs(float64(cube.Bounds.Radius)-math.Sqrt(3)) > 1e-5 || cube.Bounds.Center != (mgl32.Vec3{}) {
		t.Errorf("unexpected cube bounds %+v", cube.Bounds)
	}

	tri := m.Primitives[1]
	if tri.Instance != 1 || tri.VertexOffset != 24 || len(tri.LODs) != 1 || tri.LODs[0] != (scene.LOD{FirstIndex: 36, IndexCount: 3}) {
		t.Errorf("unexpected triangle primitive %+v", tri)
	}
	if m.Primitives[2].Instance != 2 || m.Primitives[2].LODs[0].FirstIndex != 0 {
		t.Errorf("shared mesh should reuse the cube range: %+v", m.Primitives[2])
	}

	if len(m.Materials) != 2 {
		t.Fatalf("expected a default material to be appended, got %d", len(m.Materials))
	}
	if want := (scene.Material{AlbedoMap: 2, SpecularMap: NoTexture, NormalMap: 5}); m.Materials[0] != want {
		t.Errorf("material 0 = %+v, want %+v", m.Materials[0], want)
	}
	if tri.Material != 1 || m.Materials[1].AlbedoMap != NoTexture {
		t.Errorf("triangle should use the default material")
	}

	s, err := m.Scene()
	if err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	world := snap.Primitives[2].Bounds.Transform(snap.Instances[2].Transform)
	if math.Abs(float64(world.Radius)-2*math.Sqrt(3)) > 1e-4 {
		t.Errorf("scaled instance radius %v", world.Radius)
	}
}

func TestFromDocumentErrors(t *testing.T) {
	doc := testDocument()
	doc.Meshes[1].Primitives[0].Attributes = map[string]int{"NORMAL": 0}
	if _, err := FromDocument("bad", doc, 1); !errors.Is(err, ErrNoPosition) {
		t.Errorf("expected ErrNoPosition, got %v", err)
	}
}

func TestRootNodesWithoutScene(t *testing.T) {
	doc := testDocument()
	doc.Scene = nil
	doc.Scenes = nil
	roots := rootNodes(doc)
	if len(roots) != 2 || roots[0] != 0 || roots[1] != 2 {
		t.Errorf("expected parentless nodes [0 2], got %v", roots)
	}
}

func TestLODRanges(t *testing.T) {
	tests := []struct {
		count uint32
		n     int
		want  []uint32
	}{
		{36, 4, []uint32{36, 18, 9, 3}},
		{36, 1, []uint32{36}},
		{3, 4, []uint32{3}},
		{3000, 8, []uint32{3000, 1500, 750, 375, 186, 93, 45, 21}},
	}
	for _, tc := range tests {
		lods := lodRanges(10, tc.count, tc.n)
		if len(lods) != len(tc.want) {
			t.Errorf("lodRanges(%d, %d): got %+v", tc.count, tc.n, lods)
			continue
		}
		for i, w := range tc.want {
			if lods[i].IndexCount != w || lods[i].FirstIndex != 10 {
				t.Errorf("lodRanges(%d, %d)[%d] = %+v, want count %d", tc.count, tc.n, i, lods[i], w)
			}
		}
	}
}

func TestNodeTransformTRS(t *testing.T) {
	n := &gltf.Node{}
	n.Translation[2] = -5
	n.Scale[0], n.Scale[1], n.Scale[2] = 3, 3, 3
	// 90 degrees about Y.
	n.Rotation[1], n.Rotation[3] = math.Sqrt2/2, math.Sqrt2/2

	got := common.TransformPoint(nodeTransform(n), mgl32.Vec3{1, 0, 0})
	if want := (mgl32.Vec3{0, 0, -8}); !got.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestLoader(t *testing.T) {
	cached := &Model{Name: "cached"}
	l := NewLoader(BackendTypeGLTF, WithModel("cached", cached), WithLODChain(2))
	if l.Get("cached") != cached || len(l.Models()) != 1 {
		t.Fatal("pre-populated model missing from the cache")
	}
	if _, err := l.Load("model.obj"); err == nil {
		t.Error("expected an error for an unsupported extension")
	}

	const doc = `{
		"asset": {"version": "2.0"},
		"accessors": [{"count": 3, "componentType": 5126, "type": "VEC3", "min": [0, 0, 0], "max": [2, 2, 0]}],
		"meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}],
		"nodes": [{"mesh": 0, "translation": [0, 0, -4]}],
		"scenes": [{"nodes": [0]}],
		"scene": 0
	}`
	m, err := l.LoadReader("tri", strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Primitives) != 1 || m.Primitives[0].Bounds.Center != (mgl32.Vec3{1, 1, 0}) {
		t.Errorf("unexpected model %+v", m)
	}
	if again, _ := l.LoadReader("tri", strings.NewReader("")); again != m {
		t.Error("second load should come from the cache")
	}
}
