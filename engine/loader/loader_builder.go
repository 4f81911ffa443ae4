package loader

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithModel is an option builder that pre-populates the model cache with a model.
//
// Parameters:
//   - key: the cache key for the model
//   - m: the model to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the model option to a loader
func WithModel(key string, m *Model) LoaderBuilderOption {
	return func(l *loader) {
		l.modelCache[key] = m
	}
}

// WithLODChain sets how many LODs are synthesized per primitive.
//
// Parameters:
//   - n: LOD count, clamped to [1, scene.MaxLODs] on import
//
// Returns:
//   - LoaderBuilderOption: a function that applies the LOD option to a loader
func WithLODChain(n int) LoaderBuilderOption {
	return func(l *loader) {
		l.lodChain = n
	}
}
