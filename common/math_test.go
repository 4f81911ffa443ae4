package common

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func approx(a, b, eps float32) bool {
	return float32(math.Abs(float64(a-b))) <= eps
}

func TestPerspectiveDepthRange(t *testing.T) {
	near, far := float32(0.1), float32(50)
	proj := Perspective(math.Pi/4, 16.0/9.0, near, far)

	for _, tc := range []struct {
		name  string
		viewZ float32
		want  float32
	}{
		{"near plane", -near, 0},
		{"far plane", -far, 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clip := proj.Mul4x1(mgl32.Vec4{0, 0, tc.viewZ, 1})
			if got := clip[2] / clip[3]; !approx(got, tc.want, 1e-5) {
				t.Errorf("ndc z: expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestLinearizeDepthRoundTrip(t *testing.T) {
	near, far := float32(0.5), float32(200)
	for _, d := range []float32{0.5, 1, 7.25, 50, 199.9, 200} {
		z := DeviceDepth(d, near, far)
		if z < 0 || z > 1 {
			t.Fatalf("device depth for %v out of range: %v", d, z)
		}
		if got := LinearizeDepth(z, near, far); !approx(got, d, d*1e-4) {
			t.Errorf("LinearizeDepth(DeviceDepth(%v)) = %v", d, got)
		}
	}
}

func TestMaxScale(t *testing.T) {
	m := BuildModelMatrix(mgl32.Vec3{3, 4, 5}, mgl32.Vec3{0.3, 1.2, -0.4}, mgl32.Vec3{1, 2.5, 0.5})
	if got := MaxScale(m); !approx(got, 2.5, 1e-5) {
		t.Errorf("MaxScale: expected 2.5, got %v", got)
	}
	if got := MaxScale(mgl32.Ident4()); got != 1 {
		t.Errorf("MaxScale(identity): expected 1, got %v", got)
	}
}

func TestPrevPow2(t *testing.T) {
	tests := []struct{ in, want uint32 }{
		{0, 0}, {1, 1}, {2, 2}, {3, 2}, {1023, 512}, {1024, 1024}, {1920, 1024},
	}
	for _, tc := range tests {
		if got := PrevPow2(tc.in); got != tc.want {
			t.Errorf("PrevPow2(%d): expected %d, got %d", tc.in, tc.want, got)
		}
	}
}

func TestCeilLog2(t *testing.T) {
	tests := []struct {
		in   float32
		want int
	}{
		{0, 0}, {0.5, 0}, {1, 0}, {1.01, 1}, {2, 1}, {3, 2}, {64, 6}, {65, 7},
		{float32(math.NaN()), 0},
	}
	for _, tc := range tests {
		if got := CeilLog2(tc.in); got != tc.want {
			t.Errorf("CeilLog2(%v): expected %d, got %d", tc.in, tc.want, got)
		}
	}
}

func TestAABBClosestPointAndSphere(t *testing.T) {
	b := EmptyAABB()
	b.Extend(mgl32.Vec3{-2, -2, 8})
	b.Extend(mgl32.Vec3{2, 2, 12})

	if got := b.ClosestPoint(mgl32.Vec3{0, 0, 10}); got != (mgl32.Vec3{0, 0, 10}) {
		t.Errorf("inside point should clamp to itself, got %v", got)
	}
	if got := b.ClosestPoint(mgl32.Vec3{100, -100, 0}); got != (mgl32.Vec3{2, -2, 8}) {
		t.Errorf("outside point clamp: got %v", got)
	}

	s := b.BoundingSphere()
	if s.Center != (mgl32.Vec3{0, 0, 10}) {
		t.Errorf("sphere center: got %v", s.Center)
	}
	if !approx(s.Radius, float32(math.Sqrt(12)), 1e-5) {
		t.Errorf("sphere radius: got %v", s.Radius)
	}
}

func TestSphereTransformScalesRadius(t *testing.T) {
	s := Sphere{Center: mgl32.Vec3{1, 0, 0}, Radius: 2}
	m := mgl32.Translate3D(0, 5, 0).Mul4(mgl32.Scale3D(3, 1, 1))
	got := s.Transform(m)
	if got.Center != (mgl32.Vec3{3, 5, 0}) {
		t.Errorf("center: got %v", got.Center)
	}
	if got.Radius != 6 {
		t.Errorf("radius: expected 6, got %v", got.Radius)
	}
}

func TestClampAndCoalesce(t *testing.T) {
	if got := Clamp(5, 0, 3); got != 3 {
		t.Errorf("Clamp high: got %d", got)
	}
	if got := Clamp(-1.5, -1, 1); got != -1 {
		t.Errorf("Clamp low: got %v", got)
	}
	if got := Coalesce(0, 0, 7, 9); got != 7 {
		t.Errorf("Coalesce: got %d", got)
	}
	if got := Coalesce("", ""); got != "" {
		t.Errorf("Coalesce empty: got %q", got)
	}
}
