package profiler

import "time"

// ProfilerBuilderOption is a functional option applied to a profiler during construction via NewProfiler.
type ProfilerBuilderOption func(*Profiler)

// WithInterval sets how often a report is logged. Zero reports on every tick.
//
// Parameters:
//   - d: the report interval
//
// Returns:
//   - ProfilerBuilderOption: a function that applies the interval to a profiler
func WithInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.updateInterval = max(d, 0)
	}
}
