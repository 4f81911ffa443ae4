package cluster

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/camera"
	"github.com/Carmen-Shannon/oxy-vis/engine/compute"
	"github.com/Carmen-Shannon/oxy-vis/engine/light"
	"github.com/go-gl/mathgl/mgl32"
)

func newTestDispatcher(t testing.TB) compute.Dispatcher {
	d := compute.NewDispatcher(compute.WithWorkers(4), compute.WithWorkgroupSize(16))
	t.Cleanup(d.Close)
	return d
}

func builtGrid(t testing.TB, sx, sy, sz int) (*Grid, camera.FrameConstants) {
	t.Helper()
	g, err := NewGrid(sx, sy, sz, WithGridDispatcher(newTestDispatcher(t)))
	if err != nil {
		t.Fatal(err)
	}
	fc := camera.NewLookAtFrameConstants(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}, math.Pi/3, 0.1, 50, 1280, 720)
	g.Build(fc)
	return g, fc
}

func TestNewGridInvalid(t *testing.T) {
	for _, dims := range [][3]int{{0, 1, 1}, {1, 0, 1}, {1, 1, 0}, {-3, 2, 2}} {
		if _, err := NewGrid(dims[0], dims[1], dims[2]); !errors.Is(err, ErrInvalidSubdivision) {
			t.Errorf("%v: expected ErrInvalidSubdivision, got %v", dims, err)
		}
	}
}

func TestIndexCoordsRoundTrip(t *testing.T) {
	g, err := NewGrid(3, 4, 5)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < g.Len(); i++ {
		x, y, z := g.Coords(i)
		if g.Index(x, y, z) != i {
			t.Fatalf("index %d -> (%d,%d,%d) -> %d", i, x, y, z, g.Index(x, y, z))
		}
	}
	if g.Index(1, 0, 0) != 1 || g.Index(0, 1, 0) != 3 || g.Index(0, 0, 1) != 12 {
		t.Error("expected x-major ordering")
	}
}

func TestSlicesTileDepth(t *testing.T) {
	g, fc := builtGrid(t, DefaultX, DefaultY, DefaultZ)
	if g.SliceDepth(0) != fc.Near || g.SliceDepth(DefaultZ) != fc.Far {
		t.Fatalf("slice ends %v..%v, expected %v..%v", g.SliceDepth(0), g.SliceDepth(DefaultZ), fc.Near, fc.Far)
	}
	for z := 0; z < DefaultZ; z++ {
		c := g.Cluster(g.Index(5, 7, z))
		if c.Near >= c.Far {
			t.Fatalf("slice %d is empty: %v..%v", z, c.Near, c.Far)
		}
		if z+1 < DefaultZ {
			next := g.Cluster(g.Index(5, 7, z+1))
			if c.Far != next.Near {
				t.Fatalf("gap between slice %d and %d: %v vs %v", z, z+1, c.Far, next.Near)
			}
		}
		if c.AABB.Max[2] != -c.Near || c.AABB.Min[2] != -c.Far {
			t.Errorf("slice %d z bounds %v..%v, expected %v..%v", z, c.AABB.Min[2], c.AABB.Max[2], -c.Far, -c.Near)
		}
	}

	// Ratio between consecutive slices is constant.
	want := math.Pow(float64(fc.Far/fc.Near), 1.0/DefaultZ)
	for z := 1; z < DefaultZ; z++ {
		got := float64(g.SliceDepth(z+1) / g.SliceDepth(z))
		if math.Abs(got-want) > 1e-4 {
			t.Errorf("slice %d ratio %v, expected %v", z, got, want)
		}
	}
}

func TestClustersTileScreen(t *testing.T) {
	g, _ := builtGrid(t, 4, 3, 2)
	// Neighbouring clusters share their boundary planes at the same depth.
	for y := 0; y < 3; y++ {
		for x := 0; x+1 < 4; x++ {
			a := g.Cluster(g.Index(x, y, 0))
			b := g.Cluster(g.Index(x+1, y, 0))
			if math.Abs(float64(a.AABB.Max[0]-b.AABB.Min[0])) > 1e-5 && a.AABB.Max[0] < b.AABB.Min[0] {
				t.Errorf("gap in x between (%d,%d) and (%d,%d)", x, y, x+1, y)
			}
		}
	}
	// Left column is left of center, right column right of it.
	if g.Cluster(g.Index(0, 1, 1)).AABB.Max[0] > 0 || g.Cluster(g.Index(3, 1, 1)).AABB.Min[0] < 0 {
		t.Error("x tiles mirrored")
	}
	// Top row (y=0) is above the view axis.
	if g.Cluster(g.Index(1, 0, 1)).AABB.Min[1] < 0 {
		t.Error("y tiles mirrored")
	}
}

func TestLookup(t *testing.T) {
	g, fc := builtGrid(t, DefaultX, DefaultY, DefaultZ)
	tests := []struct {
		name       string
		px, py, d  float32
		wx, wy, wz int
	}{
		{"top left near", 0, 0, fc.Near, 0, 0, 0},
		{"bottom right far", 1279, 719, fc.Far * 0.999, 11, 11, 23},
		{"clamped beyond far", 640, 360, 1000, 6, 6, 23},
		{"clamped before near", -5, 2000, 0.01, 0, 11, 0},
		{"mid slice", 200, 100, g.SliceDepth(10) * 1.01, 1, 1, 10},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got, want := g.Lookup(tc.px, tc.py, tc.d), g.Index(tc.wx, tc.wy, tc.wz); got != want {
				x, y, z := g.Coords(got)
				t.Errorf("expected (%d,%d,%d), got (%d,%d,%d)", tc.wx, tc.wy, tc.wz, x, y, z)
			}
		})
	}
}

func TestSphereIntersectsAABB(t *testing.T) {
	box := common.AABB{Min: mgl32.Vec3{-2, -2, 8}, Max: mgl32.Vec3{2, 2, 12}}
	tests := []struct {
		name   string
		center mgl32.Vec3
		radius float32
		want   bool
	}{
		{"center inside", mgl32.Vec3{0, 0, 10}, 5, true},
		{"far away", mgl32.Vec3{100, 100, 100}, 1, false},
		{"touching face", mgl32.Vec3{4, 0, 10}, 2, true},
		{"near corner miss", mgl32.Vec3{3, 3, 13}, 1.7, false},
		{"near corner hit", mgl32.Vec3{3, 3, 13}, 1.8, true},
		{"zero radius inside", mgl32.Vec3{1, 1, 9}, 0, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := SphereIntersectsAABB(tc.center, tc.radius, box); got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestAssignMatchesBruteForce(t *testing.T) {
	g, fc := builtGrid(t, 8, 6, 10)
	var lights []light.PointLight
	for i := 0; i < 300; i++ {
		f := float32(i)
		lights = append(lights, light.NewPointLight(
			mgl32.Vec3{float32(math.Sin(float64(f))) * 20, float32(math.Cos(float64(f)*0.7)) * 10, -f * 0.15},
			mgl32.Vec3{1, 1, 1},
			light.WithRadius(1+float32(i%5)),
		))
	}
	view := light.ToView(fc.View, lights, nil)

	for _, lanes := range []int{1, 3, 4, 32} {
		a := NewAssigner(WithGroupLanes(lanes), WithDispatcher(newTestDispatcher(t)))
		masks := a.Assign(g, view)
		if len(masks) != g.Len() {
			t.Fatalf("expected %d masks, got %d", g.Len(), len(masks))
		}
		for i, c := range g.Clusters() {
			var want LightMask
			for j := 0; j < MaskWords*32; j++ {
				if SphereIntersectsAABB(view[j].Position, view[j].Radius, c.AABB) {
					want.Set(j)
				}
			}
			if masks[i] != want {
				t.Fatalf("lanes=%d cluster %d: expected %v, got %v", lanes, i, want, masks[i])
			}
		}
	}
}

func TestAssignReuseAcrossFrames(t *testing.T) {
	// 105 clusters leaves a partial final batch.
	g, fc := builtGrid(t, 5, 3, 7)
	a := NewAssigner(WithGroupLanes(3), WithDispatcher(newTestDispatcher(t)))

	near := light.ToView(fc.View, []light.PointLight{
		light.NewPointLight(mgl32.Vec3{0, 0, -2}, mgl32.Vec3{1, 1, 1}, light.WithRadius(200)),
	}, nil)
	masks := a.Assign(g, near)
	for i := range masks {
		if !masks[i].Has(0) {
			t.Fatalf("cluster %d misses the light covering the whole grid", i)
		}
	}

	far := light.ToView(fc.View, []light.PointLight{
		light.NewPointLight(mgl32.Vec3{0, 0, 500}, mgl32.Vec3{1, 1, 1}, light.WithRadius(1)),
	}, nil)
	masks = a.Assign(g, far)
	for i := range masks {
		if masks[i].Count() != 0 {
			t.Fatalf("cluster %d kept bits from the previous call: %v", i, masks[i])
		}
	}
}

func TestAssignSingleCluster(t *testing.T) {
	g, err := NewGrid(1, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	g.clusters[0] = Cluster{AABB: common.AABB{Min: mgl32.Vec3{-2, -2, 8}, Max: mgl32.Vec3{2, 2, 12}}}
	lights := []light.ViewLight{
		{Position: mgl32.Vec3{0, 0, 10}, Radius: 5},
		{Position: mgl32.Vec3{100, 100, 100}, Radius: 1},
	}
	masks := NewAssigner().Assign(g, lights)
	if !masks[0].Has(0) || masks[0].Has(1) {
		t.Errorf("unexpected mask %v", masks[0])
	}
	if masks := NewAssigner().Assign(g, nil); masks[0].Count() != 0 {
		t.Errorf("no lights should give an empty mask, got %v", masks[0])
	}
}

func TestLightMask(t *testing.T) {
	var m LightMask
	for _, i := range []int{0, 31, 32, 100, 255, 256, -1} {
		m.Set(i)
	}
	if m.Count() != 5 {
		t.Errorf("expected 5 bits, got %d", m.Count())
	}
	var got []int
	m.Each(func(i int) { got = append(got, i) })
	if !slices.Equal(got, []int{0, 31, 32, 100, 255}) {
		t.Errorf("unexpected iteration %v", got)
	}
	if m.Has(256) || m.Has(-1) || !m.Has(100) {
		t.Error("Has out of range handling")
	}
}

func TestGPUClusterLayouts(t *testing.T) {
	g, _ := builtGrid(t, 2, 2, 2)
	data := MarshalClusters(g.Clusters())
	if len(data) != g.Len()*GPUClusterSize {
		t.Fatalf("unexpected size %d", len(data))
	}
	if back := UnmarshalClusters(data); !slices.Equal(back, g.Clusters()) {
		t.Error("cluster decode mismatch")
	}
	info := NewGPUClusterInfo(g, 1000)
	if info.LightCount != 256 || len(info.Marshal()) != 32 {
		t.Errorf("unexpected info %+v", info)
	}
}

func BenchmarkAssign(b *testing.B) {
	g, fc := builtGrid(b, DefaultX, DefaultY, DefaultZ)
	var lights []light.PointLight
	for i := 0; i < 256; i++ {
		f := float64(i)
		lights = append(lights, light.NewPointLight(mgl32.Vec3{float32(math.Sin(f)) * 20, 0, -float32(f) * 0.2}, mgl32.Vec3{2, 2, 2}))
	}
	view := light.ToView(fc.View, lights, nil)
	a := NewAssigner(WithDispatcher(newTestDispatcher(b)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		a.Assign(g, view)
	}
}
