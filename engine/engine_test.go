package engine

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-vis/engine/camera"
	"github.com/Carmen-Shannon/oxy-vis/engine/compute"
	"github.com/Carmen-Shannon/oxy-vis/engine/profiler"
	"github.com/Carmen-Shannon/oxy-vis/engine/raster"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer"
	"github.com/Carmen-Shannon/oxy-vis/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
)

func newTestPipeline(t *testing.T) (camera.Camera, renderer.Renderer) {
	t.Helper()
	layout := scene.DefaultGridLayout()
	layout.CountX, layout.CountY, layout.CountZ = 4, 2, 4
	s, err := scene.NewGridScene("grid", layout)
	if err != nil {
		t.Fatal(err)
	}
	d := compute.NewDispatcher(compute.WithWorkers(2))
	t.Cleanup(d.Close)
	r, err := renderer.NewRenderer(s, raster.NewProxy(s, 64, 48),
		renderer.WithDispatcher(d), renderer.WithClusterGrid(4, 4, 4))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(r.Close)

	ctrl := camera.NewFlyController(camera.WithPosition(mgl32.Vec3{-40, 0, 0}))
	return camera.NewCamera(camera.WithController(ctrl)), r
}

func TestNewEngineRequiresPipeline(t *testing.T) {
	cam, r := newTestPipeline(t)
	if _, err := NewEngine(WithRenderer(r)); !errors.Is(err, ErrNoCamera) {
		t.Errorf("expected ErrNoCamera, got %v", err)
	}
	if _, err := NewEngine(WithCamera(cam)); !errors.Is(err, ErrNoRenderer) {
		t.Errorf("expected ErrNoRenderer, got %v", err)
	}
}

func TestRunHeadlessStopsAfterMaxFrames(t *testing.T) {
	cam, r := newTestPipeline(t)
	var published atomic.Int32
	e, err := NewEngine(
		WithCamera(cam),
		WithRenderer(r),
		WithResolution(64, 48),
		WithMaxFrames(5),
		WithTickRate(500),
	)
	if err != nil {
		t.Fatal(err)
	}
	e.SetFrameCallback(func(out renderer.FrameOutput) {
		published.Add(1)
		if out.Pyramid == nil || out.Pyramid.Width() != 64 || out.Pyramid.Height() != 48 {
			t.Errorf("pyramid does not match the target size")
		}
	})

	if err := e.Run(); err != nil {
		t.Fatal(err)
	}
	if e.Frames() != 5 || published.Load() != 5 {
		t.Errorf("expected 5 frames, got %d (%d published)", e.Frames(), published.Load())
	}
	stats, ok := e.LastStats()
	if !ok || stats.Frame != 5 {
		t.Errorf("unexpected last stats %+v", stats)
	}
	if got := cam.Aspect(); got != float32(64)/48 {
		t.Errorf("camera aspect %v", got)
	}
}

func TestRunRecoversRenderPanic(t *testing.T) {
	cam, r := newTestPipeline(t)
	e, err := NewEngine(WithCamera(cam), WithRenderer(r), WithResolution(32, 32))
	if err != nil {
		t.Fatal(err)
	}
	e.SetFrameCallback(func(renderer.FrameOutput) { panic("boom") })

	err = e.Run()
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected the recovered panic, got %v", err)
	}
}

func TestRunInputMovesCamera(t *testing.T) {
	cam, r := newTestPipeline(t)
	in := camera.NewFlyInput(camera.FlyBindings{Forward: 1})
	in.KeyDown(1)

	e, err := NewEngine(WithCamera(cam), WithRenderer(r), WithInput(in), WithResolution(64, 48), WithTickRate(1000), WithRenderFrameLimit(200))
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() { done <- e.Run() }()
	time.Sleep(50 * time.Millisecond)
	e.Quit()
	e.Quit()
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	// The default controller looks down +X.
	if x := cam.Controller().Position()[0]; !(x > -40) {
		t.Errorf("expected the camera to move forward, x = %v", x)
	}
}

type fakeWindow struct {
	mu       sync.Mutex
	update   func()
	resize   func(int, int)
	titles   []string
	closed   bool
	width    int
	height   int
	resizeAt int
}

func (w *fakeWindow) SetUpdateCallback(cb func())         { w.update = cb }
func (w *fakeWindow) SetResizeCallback(cb func(int, int)) { w.resize = cb }
func (w *fakeWindow) Width() int                          { return w.width }
func (w *fakeWindow) Height() int                         { return w.height }

func (w *fakeWindow) SetTitle(title string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.titles = append(w.titles, title)
}

func (w *fakeWindow) Close() error {
	w.closed = true
	return nil
}

func (w *fakeWindow) ProcessMessages() {
	for i := 0; !w.closed; i++ {
		if i == w.resizeAt && w.resize != nil {
			w.resize(0, 0)
			w.resize(120, 60)
		}
		w.update()
		time.Sleep(time.Millisecond)
	}
}

func TestRunWithWindow(t *testing.T) {
	cam, r := newTestPipeline(t)
	w := &fakeWindow{width: 80, height: 40, resizeAt: 3}
	p := profiler.NewProfiler(profiler.WithInterval(time.Nanosecond))

	e, err := NewEngine(
		WithCamera(cam),
		WithRenderer(r),
		WithWindow(w, "test"),
		WithProfiler(p),
		WithProfiling(true),
		WithMaxFrames(20),
		WithRenderFrameLimit(500),
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Run(); err != nil {
		t.Fatal(err)
	}
	if !w.closed {
		t.Error("engine should close the window when it stops")
	}
	if got := cam.Aspect(); got != 2 {
		t.Errorf("expected the resize to reach the camera, aspect %v", got)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.titles) == 0 || !strings.HasPrefix(w.titles[0], "test | ") {
		t.Errorf("expected statistics in the title, got %q", w.titles)
	}
}
