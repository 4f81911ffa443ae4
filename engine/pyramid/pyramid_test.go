package pyramid

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/compute"
)

func newTestBuilder(t testing.TB) Builder {
	d := compute.NewDispatcher(compute.WithWorkers(4), compute.WithWorkgroupSize(16))
	t.Cleanup(d.Close)
	return NewBuilder(WithDispatcher(d))
}

func mustBuild(t testing.TB, b Builder, level0 Level) *Pyramid {
	t.Helper()
	p, err := b.Build(level0)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func randomLevel(w, h int, seed int64) Level {
	r := rand.New(rand.NewSource(seed))
	l := NewLevel(w, h)
	for i := range l.Data {
		l.Data[i] = 0.1 + r.Float32()*50
	}
	return l
}

func TestLevelCount(t *testing.T) {
	tests := []struct {
		w, h int
		want int
	}{
		{1, 1, 1},
		{2, 2, 2},
		{3, 3, 3},
		{4, 1, 3},
		{1920, 1080, 12},
		{0, 10, 0},
	}
	for _, tc := range tests {
		if got := LevelCount(tc.w, tc.h); got != tc.want {
			t.Errorf("LevelCount(%d, %d): expected %d, got %d", tc.w, tc.h, tc.want, got)
		}
	}
}

func TestBuildMonotonic(t *testing.T) {
	b := newTestBuilder(t)
	for _, size := range [][2]int{{64, 64}, {37, 23}, {1, 9}, {5, 1}} {
		base := randomLevel(size[0], size[1], int64(size[0]*100+size[1]))
		p := mustBuild(t, b, base)

		last := p.Level(p.Levels() - 1)
		if last.Width != 1 || last.Height != 1 {
			t.Fatalf("%v: last level is %dx%d", size, last.Width, last.Height)
		}
		for n := 1; n < p.Levels(); n++ {
			src, dst := p.Level(n-1), p.Level(n)
			if dst.Width != (src.Width+1)/2 || dst.Height != (src.Height+1)/2 {
				t.Fatalf("%v: level %d is %dx%d from %dx%d", size, n, dst.Width, dst.Height, src.Width, src.Height)
			}
			for y := 0; y < src.Height; y++ {
				for x := 0; x < src.Width; x++ {
					if parent := dst.At(x/2, y/2); parent < src.At(x, y) {
						t.Fatalf("%v: level %d texel (%d,%d)=%v below child %v", size, n, x/2, y/2, parent, src.At(x, y))
					}
				}
			}
		}

		var want float32
		for _, v := range base.Data {
			want = max(want, v)
		}
		if got := last.At(0, 0); got != want {
			t.Errorf("%v: top level %v, expected global max %v", size, got, want)
		}
	}
}

func TestBuildConstantRoundTrip(t *testing.T) {
	b := newTestBuilder(t)
	base := NewLevel(31, 17)
	base.Fill(7.25)
	p := mustBuild(t, b, base)
	for n := 0; n < p.Levels(); n++ {
		l := p.Level(n)
		for _, v := range l.Data {
			if v != 7.25 {
				t.Fatalf("level %d holds %v", n, v)
			}
		}
	}
}

func TestBuildAlternatesStorage(t *testing.T) {
	b := newTestBuilder(t)
	a := NewLevel(8, 8)
	a.Fill(1)
	c := NewLevel(8, 8)
	c.Fill(2)

	first := mustBuild(t, b, a)
	second := mustBuild(t, b, c)
	if first == second {
		t.Fatal("consecutive builds share storage")
	}
	if got := first.At(0, 3, 3); got != 1 {
		t.Errorf("previous pyramid overwritten: got %v", got)
	}
	if b.Builds() != 2 {
		t.Errorf("expected 2 builds, got %d", b.Builds())
	}
}

func TestBuildRejectsShortLevel(t *testing.T) {
	b := newTestBuilder(t)
	good := NewLevel(8, 8)
	good.Fill(3)
	first := mustBuild(t, b, good)

	tests := []struct {
		name  string
		level Level
	}{
		{"short data", Level{Width: 8, Height: 8, Data: make([]float32, 63)}},
		{"nil data", Level{Width: 4, Height: 2}},
		{"negative size", Level{Width: -1, Height: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if p, err := b.Build(tt.level); !errors.Is(err, ErrShortLevel) || p != nil {
				t.Errorf("expected ErrShortLevel and no pyramid, got %v, %v", p, err)
			}
		})
	}
	if b.Builds() != 1 {
		t.Errorf("rejected levels were counted as builds: %d", b.Builds())
	}
	if got := first.At(0, 7, 7); got != 3 {
		t.Errorf("rejected level disturbed the previous pyramid: %v", got)
	}
}

func TestFromLevels(t *testing.T) {
	b := newTestBuilder(t)
	built := mustBuild(t, b, randomLevel(5, 3, 7))
	levels := make([]Level, built.Levels())
	for i := range levels {
		levels[i] = built.Level(i)
	}
	p, err := FromLevels(levels)
	if err != nil {
		t.Fatal(err)
	}
	if p.Levels() != 4 || p.At(3, 0, 0) != built.At(3, 0, 0) {
		t.Errorf("wrapped pyramid differs from the built one")
	}

	tests := []struct {
		name   string
		levels []Level
	}{
		{"empty", nil},
		{"missing level", levels[:3]},
		{"wrong size", []Level{NewLevel(4, 4), NewLevel(3, 2), NewLevel(1, 1), NewLevel(1, 1)}},
		{"short data", []Level{{Width: 2, Height: 1, Data: []float32{1}}, NewLevel(1, 1)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := FromLevels(tc.levels); !errors.Is(err, ErrLevelChain) {
				t.Errorf("expected ErrLevelChain, got %v", err)
			}
		})
	}
}

func TestResolveTakesFarthestSample(t *testing.T) {
	const near, far = 0.1, 50
	target := NewDepthTarget(2, 1, 4)
	for s, z := range []float32{0.2, 0.9, 0.5, 0.1} {
		target.Depth[target.Index(0, 0, s)] = z
	}

	l := Resolve(target, near, far)
	want := common.LinearizeDepth(0.9, near, far)
	if got := l.At(0, 0); math.Abs(float64(got-want)) > 1e-5 {
		t.Errorf("expected %v, got %v", want, got)
	}
	if got := l.At(1, 0); math.Abs(float64(got-far)) > 1e-3 {
		t.Errorf("cleared pixel: expected far %v, got %v", float32(far), got)
	}

	b := newTestBuilder(t)
	p := b.BuildFromTarget(target, near, far)
	if got := p.At(0, 0, 0); got != l.At(0, 0) {
		t.Errorf("BuildFromTarget level 0 differs: %v vs %v", got, l.At(0, 0))
	}
}

func TestSampleFootprint(t *testing.T) {
	b := newTestBuilder(t)
	base := NewLevel(16, 16)
	base.Fill(10)
	base.Set(12, 12, 40)
	p := mustBuild(t, b, base)

	tests := []struct {
		name                   string
		minX, minY, maxX, maxY float32
		want                   float32
	}{
		{"single pixel away from spike", 1, 1, 1, 1, 10},
		{"single pixel on spike", 12, 12, 12.5, 12.5, 40},
		{"neighbour of spike at level 0", 11, 11, 11.5, 11.5, 40},
		{"large rect covering spike", 8, 8, 15, 15, 40},
		{"full screen", 0, 0, 16, 16, 40},
		{"off screen left", -30, 2, -29, 3, 10},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := p.SampleFootprint(tc.minX, tc.minY, tc.maxX, tc.maxY); got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}

	empty := mustBuild(t, b, NewLevel(0, 0))
	if got := empty.SampleFootprint(0, 0, 1, 1); !math.IsInf(float64(got), 1) {
		t.Errorf("empty pyramid: expected +Inf, got %v", got)
	}
}

func TestLevelImageRoundTrip(t *testing.T) {
	const near, far = 1, 101
	l := NewLevel(3, 2)
	copy(l.Data, []float32{1, 26, 51, 76, 101, 200})
	back := FromImage(l.Image(near, far), near, far)
	want := []float32{1, 26, 51, 76, 101, 101}
	for i := range want {
		if math.Abs(float64(back.Data[i]-want[i])) > 0.01 {
			t.Errorf("texel %d: expected %v, got %v", i, want[i], back.Data[i])
		}
	}
}

func BenchmarkBuild1080p(b *testing.B) {
	builder := newTestBuilder(b)
	base := randomLevel(1920, 1080, 1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mustBuild(b, builder, base)
	}
}
