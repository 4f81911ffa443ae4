package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/renderer"
)

// Report is the aggregate of every frame recorded during one interval.
type Report struct {
	Frames          int
	FPS             float64
	EarlyDraws      uint64
	LateDraws       uint64
	FrustumCulled   uint64
	OcclusionCulled uint64
	Dropped         uint64
	Visible         int
	LitClusters     int
	AvgFrame        time.Duration
	AvgCull         time.Duration
	AvgPyramid      time.Duration
	AvgLights       time.Duration
	HeapMB          float64
	AllocRateMB     float64
	GCCount         uint32
	MaxPauseUs      uint64
}

// Profiler tracks frame rate, culling efficiency and memory statistics.
// Outputs a Report to the engine logger at a configurable interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	pending Report
	total   time.Duration
	cull    time.Duration
	pyramid time.Duration
	lights  time.Duration
	last    Report
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options to configure the profiler
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		lastTime:       time.Now(),
		updateInterval: time.Second,
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// Tick should be called once per rendered frame with that frame's statistics.
// Logs a Report when the update interval has elapsed.
//
// Parameters:
//   - stats: the statistics of the frame just rendered
//
// Returns:
//   - bool: true if a report was produced this tick, false otherwise
func (p *Profiler) Tick(stats renderer.FrameStats) bool {
	p.record(stats)
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	r := p.pending
	r.Frames = p.frameCount
	if secs := elapsed.Seconds(); secs > 0 {
		r.FPS = float64(p.frameCount) / secs
	}
	if n := time.Duration(p.frameCount); n > 0 {
		r.AvgFrame = p.total / n
		r.AvgCull = p.cull / n
		r.AvgPyramid = p.pyramid / n
		r.AvgLights = p.lights / n
	}
	p.readMemory(&r, elapsed)

	common.Logger().Info("profiler",
		"fps", r.FPS,
		"frame", r.AvgFrame,
		"cull", r.AvgCull,
		"pyramid", r.AvgPyramid,
		"lights", r.AvgLights,
		"early", r.EarlyDraws,
		"late", r.LateDraws,
		"frustum_culled", r.FrustumCulled,
		"occlusion_culled", r.OcclusionCulled,
		"dropped", r.Dropped,
		"visible", r.Visible,
		"lit_clusters", r.LitClusters,
		"heap_mb", r.HeapMB,
		"alloc_mb_s", r.AllocRateMB,
		"gc", r.GCCount,
		"gc_max_pause_us", r.MaxPauseUs,
	)

	p.last = r
	p.pending = Report{}
	p.frameCount = 0
	p.total, p.cull, p.pyramid, p.lights = 0, 0, 0, 0
	p.lastTime = currentTime
	return true
}

// Last returns the most recent report. It is the zero Report until the first interval elapses.
//
// Returns:
//   - Report: the last logged report
func (p *Profiler) Last() Report {
	return p.last
}

func (p *Profiler) record(stats renderer.FrameStats) {
	p.frameCount++
	p.pending.EarlyDraws += uint64(stats.Early.Drawn)
	p.pending.LateDraws += uint64(stats.Late.Drawn)
	p.pending.FrustumCulled += uint64(stats.Early.FrustumCulled + stats.Late.FrustumCulled)
	p.pending.OcclusionCulled += uint64(stats.Late.OcclusionCulled)
	p.pending.Dropped += uint64(stats.Early.Dropped + stats.Late.Dropped)
	p.pending.Visible = stats.Visible
	p.pending.LitClusters = stats.LitClusters

	p.total += stats.Total
	p.cull += stats.Passes.CullEarly + stats.Passes.CullLate
	p.pyramid += stats.Passes.Pyramid + stats.Passes.FinalPyramid
	p.lights += stats.Passes.Clusters + stats.Passes.Lights
}

func (p *Profiler) readMemory(r *Report, elapsed time.Duration) {
	runtime.ReadMemStats(&p.memStats)
	r.HeapMB = float64(p.memStats.Alloc) / 1024 / 1024

	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	if secs := elapsed.Seconds(); secs > 0 {
		r.AllocRateMB = float64(allocDelta) / 1024 / 1024 / secs
	}

	gcCount := p.memStats.NumGC
	r.GCCount = gcCount
	// PauseNs is a circular buffer of the last 256 GC pauses
	startIdx := p.lastGCCount
	if gcCount-startIdx > 256 {
		startIdx = gcCount - 256
	}
	for i := startIdx; i < gcCount; i++ {
		r.MaxPauseUs = max(r.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
	}

	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
}
