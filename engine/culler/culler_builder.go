package culler

import "github.com/Carmen-Shannon/oxy-vis/engine/compute"

// CullerBuilderOption is a functional option for configuring a Culler.
type CullerBuilderOption func(*cullerImpl)

// WithLODBase sets the distance at which LOD 1 starts. Must be > 0.
//
// Parameters:
//   - base: the first LOD threshold in world units
//
// Returns:
//   - CullerBuilderOption: option function to apply
func WithLODBase(base float32) CullerBuilderOption {
	return func(c *cullerImpl) {
		c.lodBase = base
	}
}

// WithLODStep sets the ratio between consecutive LOD thresholds. Must be > 1.
//
// Parameters:
//   - step: the threshold ratio
//
// Returns:
//   - CullerBuilderOption: option function to apply
func WithLODStep(step float32) CullerBuilderOption {
	return func(c *cullerImpl) {
		c.lodStep = step
	}
}

// WithCapacity sets the number of commands per draw region. 0 selects the primitive count.
//
// Parameters:
//   - n: commands per region
//
// Returns:
//   - CullerBuilderOption: option function to apply
func WithCapacity(n int) CullerBuilderOption {
	return func(c *cullerImpl) {
		c.capacity = n
	}
}

// WithDispatcher sets the dispatcher the cull passes run on.
//
// Parameters:
//   - d: the compute dispatcher
//
// Returns:
//   - CullerBuilderOption: option function to apply
func WithDispatcher(d compute.Dispatcher) CullerBuilderOption {
	return func(c *cullerImpl) {
		c.dispatcher = d
	}
}
