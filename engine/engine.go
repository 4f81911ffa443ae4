// Package engine drives a camera through the visibility pipeline on a fixed-rate tick loop and an
// uncapped (or frame-limited) render loop, optionally inside a window.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/camera"
	"github.com/Carmen-Shannon/oxy-vis/engine/profiler"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer"
)

var (
	// ErrNoRenderer is returned by NewEngine when no renderer was supplied.
	ErrNoRenderer = errors.New("engine requires a renderer")
	// ErrNoCamera is returned by NewEngine when no camera was supplied.
	ErrNoCamera = errors.New("engine requires a camera")
)

// Window is the part of window.Window the engine uses. The message loop runs on the calling thread.
type Window interface {
	SetUpdateCallback(callback func())
	SetResizeCallback(callback func(width, height int))
	SetTitle(title string)
	ProcessMessages()
	Width() int
	Height() int
}

// engine implements the Engine interface.
// Coordinates the tick, render, and window threads.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window Window
	title  string

	camera   camera.Camera
	renderer renderer.Renderer
	input    *camera.FlyInput

	// size packs the target width and height so the render loop reads both atomically.
	size atomic.Uint64

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool
	pendingTitle     atomic.Pointer[string]

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	frameCallback  func(out renderer.FrameOutput)

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	maxFrames        uint64        // 0 = run until Quit

	frames    atomic.Uint64
	failures  atomic.Uint64
	lastStats atomic.Pointer[renderer.FrameStats]

	errMu sync.Mutex
	err   error
}

// Engine runs the visibility pipeline for a moving camera.
type Engine interface {
	// Window returns the window the engine drives, or nil when headless.
	//
	// Returns:
	//   - Window: the window instance or nil
	Window() Window

	// Camera returns the camera whose frame constants feed each frame.
	//
	// Returns:
	//   - camera.Camera: the camera
	Camera() camera.Camera

	// Renderer returns the visibility pipeline.
	//
	// Returns:
	//   - renderer.Renderer: the renderer
	Renderer() renderer.Renderer

	// EnableProfiler enables per-interval statistics output to the log.
	EnableProfiler()

	// DisableProfiler disables statistics output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in ticks per second.
	// Input is applied to the camera at this rate.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick after input is applied.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetFrameCallback registers the function called with every published frame.
	// The output is only valid for the duration of the call.
	//
	// Parameters:
	//   - callback: function receiving the frame output
	SetFrameCallback(callback func(out renderer.FrameOutput))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Resize changes the render target size and the camera aspect.
	//
	// Parameters:
	//   - width: target width in pixels
	//   - height: target height in pixels
	Resize(width, height int)

	// Frames returns the number of frames published since Run started.
	//
	// Returns:
	//   - uint64: published frames
	Frames() uint64

	// LastStats returns the statistics of the most recent frame.
	//
	// Returns:
	//   - renderer.FrameStats: the statistics
	//   - bool: false until the first frame is published
	LastStats() (renderer.FrameStats, bool)

	// Run starts the tick and render loops and blocks until the window closes, Quit is called,
	// or the frame limit set with WithMaxFrames is reached.
	//
	// Returns:
	//   - error: the panic recovered from the render loop, if any
	Run() error

	// Quit signals all engine goroutines to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// A camera and a renderer are required; the window and input are optional.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
//   - error: ErrNoCamera or ErrNoRenderer
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		profiler:        profiler.NewProfiler(),
		engineTickRate:  time.Second / 60,
		title:           "oxy-vis",
	}
	e.setSize(1280, 720)

	for _, opt := range options {
		opt(e)
	}
	if e.camera == nil {
		return nil, ErrNoCamera
	}
	if e.renderer == nil {
		return nil, ErrNoRenderer
	}

	if e.window != nil {
		e.Resize(e.window.Width(), e.window.Height())
		e.window.SetResizeCallback(e.Resize)
		e.window.SetUpdateCallback(e.updateWindow)
	} else {
		w, h := e.getSize()
		e.camera.SetAspect(float32(w) / float32(h))
	}
	return e, nil
}

func (e *engine) Window() Window {
	return e.window
}

func (e *engine) Camera() camera.Camera {
	return e.camera
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Run() error {
	e.running.Store(true)
	e.handle()
	if e.window != nil {
		e.window.ProcessMessages()
		e.signalQuit()
	}
	e.wg.Wait()
	e.running.Store(false)

	e.errMu.Lock()
	defer e.errMu.Unlock()
	return e.err
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// handle launches the engine, render, and quit goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(3)
	go e.handleEngine()
	go e.handleRender()
	go e.handleQuit()
}

// handleEngine runs the fixed-rate tick loop in its own goroutine.
// Applies accumulated input to the camera controller, then fires the tick callback.
// Listens for dynamic rate changes via tickRateChannel and exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if e.input != nil {
				if ctrl := e.camera.Controller(); ctrl != nil {
					ctrl.MoveByDelta(e.input.Delta(dt))
				}
			}
			e.camera.Update()

			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender runs the render loop in its own goroutine. Each iteration snapshots the camera
// into frame constants and runs one frame of the visibility pipeline.
// A failed frame is logged and skipped; the renderer keeps the visibility state of the last good frame.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	// Recover from panics inside the render goroutine to avoid crashing the whole process.
	defer func() {
		if r := recover(); r != nil {
			common.Logger().Error("render goroutine recovered from panic", "panic", r)
			e.errMu.Lock()
			e.err = fmt.Errorf("engine: render loop panic: %v", r)
			e.errMu.Unlock()
			e.signalQuit()
		}
	}()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}
		frameStart := time.Now()

		w, h := e.getSize()
		fc := e.camera.FrameConstants(w, h)
		out, err := e.renderer.RenderFrame(fc)
		if err != nil {
			if n := e.failures.Add(1); n == 1 || n%100 == 0 {
				common.Logger().Warn("frame abandoned", "error", err, "failures", n)
			}
		} else {
			stats := out.Stats
			e.lastStats.Store(&stats)
			if e.frameCallback != nil {
				e.frameCallback(out)
			}
			if e.profilingEnabled.Load() && e.profiler.Tick(stats) {
				title := fmt.Sprintf("%s | %.0f fps | %d visible | %d occluded",
					e.title, e.profiler.Last().FPS, stats.Visible, e.profiler.Last().OcclusionCulled)
				e.pendingTitle.Store(&title)
			}
			if n := e.frames.Add(1); e.maxFrames > 0 && n >= e.maxFrames {
				e.signalQuit()
				return
			}
		}

		// Frame rate limiting
		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - time.Since(frameStart); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

// handleQuit blocks until the quit channel is closed, then decrements the WaitGroup.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
}

// updateWindow runs on the window thread once per message loop iteration.
func (e *engine) updateWindow() {
	select {
	case <-e.quitChannel:
		if closer, ok := e.window.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
		return
	default:
	}
	if title := e.pendingTitle.Swap(nil); title != nil {
		e.window.SetTitle(*title)
	}
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	if e.running.Load() {
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		e.engineTickRate = newRate
	}
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetFrameCallback(callback func(out renderer.FrameOutput)) {
	e.frameCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

func (e *engine) Resize(width, height int) {
	if width <= 0 || height <= 0 {
		// Minimized windows report a zero framebuffer; keep the previous target.
		return
	}
	e.setSize(uint32(width), uint32(height))
	e.camera.SetAspect(float32(width) / float32(height))
}

func (e *engine) Frames() uint64 {
	return e.frames.Load()
}

func (e *engine) LastStats() (renderer.FrameStats, bool) {
	s := e.lastStats.Load()
	if s == nil {
		return renderer.FrameStats{}, false
	}
	return *s, true
}

func (e *engine) setSize(width, height uint32) {
	e.size.Store(uint64(width)<<32 | uint64(height))
}

func (e *engine) getSize() (uint32, uint32) {
	v := e.size.Load()
	return uint32(v >> 32), uint32(v)
}
