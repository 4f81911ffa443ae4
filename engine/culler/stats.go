package culler

import "sync/atomic"

// Stats counts the outcome of one culling phase.
type Stats struct {
	Tested          uint32
	FrustumCulled   uint32
	OcclusionCulled uint32
	Drawn           uint32
	// Dropped counts visible primitives that did not fit in the draw region. It stays zero when
	// the capacity is at least the primitive count.
	Dropped uint32
}

// Add accumulates other into s.
//
// Parameters:
//   - other: the stats to add
func (s *Stats) Add(other Stats) {
	s.Tested += other.Tested
	s.FrustumCulled += other.FrustumCulled
	s.OcclusionCulled += other.OcclusionCulled
	s.Drawn += other.Drawn
	s.Dropped += other.Dropped
}

type statCounters struct {
	tested          atomic.Uint32
	frustumCulled   atomic.Uint32
	occlusionCulled atomic.Uint32
	drawn           atomic.Uint32
	dropped         atomic.Uint32
}

func (c *statCounters) snapshot() Stats {
	return Stats{
		Tested:          c.tested.Load(),
		FrustumCulled:   c.frustumCulled.Load(),
		OcclusionCulled: c.occlusionCulled.Load(),
		Drawn:           c.drawn.Load(),
		Dropped:         c.dropped.Load(),
	}
}
