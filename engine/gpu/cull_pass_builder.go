package gpu

// CullPassBuilderOption is a functional option applied to a cull pass during construction via NewCullPass.
type CullPassBuilderOption func(*CullPass)

// WithLOD sets the LOD base distance and step ratio.
//
// Parameters:
//   - base: distance at which LOD 1 starts
//   - step: ratio between consecutive thresholds
//
// Returns:
//   - CullPassBuilderOption: a function that applies the LOD parameters to a cull pass
func WithLOD(base, step float32) CullPassBuilderOption {
	return func(c *CullPass) {
		c.lodBase, c.lodStep = base, step
	}
}

// WithCapacity sets the draw region size. Zero selects the primitive count.
//
// Parameters:
//   - n: commands per phase
//
// Returns:
//   - CullPassBuilderOption: a function that applies the capacity to a cull pass
func WithCapacity(n int) CullPassBuilderOption {
	return func(c *CullPass) {
		c.capacity = max(n, 0)
	}
}
