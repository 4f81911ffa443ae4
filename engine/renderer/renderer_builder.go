package renderer

import "github.com/Carmen-Shannon/oxy-vis/engine/compute"

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*rendererImpl)

// WithSettings replaces the whole configuration.
//
// Parameters:
//   - s: the settings
//
// Returns:
//   - RendererBuilderOption: a function that applies the settings to a renderer
func WithSettings(s Settings) RendererBuilderOption {
	return func(r *rendererImpl) {
		r.settings = s
	}
}

// WithLOD sets the LOD base distance and step ratio.
//
// Parameters:
//   - base: distance at which LOD 1 starts
//   - step: ratio between consecutive thresholds
//
// Returns:
//   - RendererBuilderOption: a function that applies the LOD option to a renderer
func WithLOD(base, step float32) RendererBuilderOption {
	return func(r *rendererImpl) {
		r.settings.LODBase = base
		r.settings.LODStep = step
	}
}

// WithClusterGrid sets the light cluster subdivision.
//
// Parameters:
//   - x, y, z: clusters along each axis
//
// Returns:
//   - RendererBuilderOption: a function that applies the grid option to a renderer
func WithClusterGrid(x, y, z int) RendererBuilderOption {
	return func(r *rendererImpl) {
		r.settings.ClusterX, r.settings.ClusterY, r.settings.ClusterZ = x, y, z
	}
}

// WithFinalPyramid toggles the pyramid rebuild after the late phase.
//
// Parameters:
//   - enabled: true to rebuild
//
// Returns:
//   - RendererBuilderOption: a function that applies the option to a renderer
func WithFinalPyramid(enabled bool) RendererBuilderOption {
	return func(r *rendererImpl) {
		r.settings.FinalPyramid = enabled
	}
}

// WithDispatcher shares an existing compute dispatcher. The renderer does not close it.
//
// Parameters:
//   - d: the dispatcher
//
// Returns:
//   - RendererBuilderOption: a function that applies the dispatcher to a renderer
func WithDispatcher(d compute.Dispatcher) RendererBuilderOption {
	return func(r *rendererImpl) {
		r.dispatcher = d
	}
}
