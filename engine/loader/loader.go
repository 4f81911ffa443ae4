// Package loader imports glTF and GLB files into scene tables.
package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
)

// LoaderBackendType identifies the model file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeGLTF selects the glTF/GLB loader backend.
	BackendTypeGLTF LoaderBackendType = iota
)

// DefaultLODChain is the number of LODs synthesized per primitive.
const DefaultLODChain = 4

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	modelCache map[string]*Model
	lodChain   int

	backendType LoaderBackendType
	backend     loaderBackend
}

// Loader defines the public-facing interface for loading and caching models.
// It abstracts the file format behind a backend and caches previously loaded models.
type Loader interface {
	// Load imports a model file and caches the result by path.
	// The backend is selected from the file extension (.gltf/.glb).
	//
	// Parameters:
	//   - path: the file path to the model file
	//
	// Returns:
	//   - *Model: the loaded and cached model
	//   - error: error if loading fails
	Load(path string) (*Model, error)

	// LoadReader imports a model from a reader stream and caches it by the given name.
	//
	// Parameters:
	//   - name: the cache key for the loaded model
	//   - r: the reader providing model data
	//
	// Returns:
	//   - *Model: the loaded model
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader) (*Model, error)

	// Get retrieves a cached model by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - *Model: the cached model or nil
	Get(name string) *Model

	// Models returns a copy of the model cache.
	//
	// Returns:
	//   - map[string]*Model: all cached models keyed by name
	Models() map[string]*Model
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeGLTF)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		modelCache:  make(map[string]*Model),
		lodChain:    DefaultLODChain,
		backendType: backendType,
	}
	for _, option := range options {
		option(l)
	}

	switch backendType {
	case BackendTypeGLTF:
		l.backend = newGLTFLoaderBackend(l.lodChain)
	}
	return l
}

func (l *loader) Load(path string) (*Model, error) {
	l.mu.RLock()
	if cached, ok := l.modelCache[path]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	backend, err := l.resolveBackend(path)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	m, err := backend.Load(name, path)
	if err != nil {
		return nil, fmt.Errorf("loader: failed to load %s: %w", path, err)
	}

	l.mu.Lock()
	l.modelCache[path] = m
	l.mu.Unlock()
	return m, nil
}

func (l *loader) LoadReader(name string, r io.Reader) (*Model, error) {
	l.mu.RLock()
	if cached, ok := l.modelCache[name]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	if l.backend == nil {
		return nil, fmt.Errorf("loader: no backend for type %d", l.backendType)
	}
	m, err := l.backend.LoadReader(name, r)
	if err != nil {
		return nil, fmt.Errorf("loader: failed to load from reader %q: %w", name, err)
	}

	l.mu.Lock()
	l.modelCache[name] = m
	l.mu.Unlock()
	return m, nil
}

func (l *loader) Get(name string) *Model {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.modelCache[name]
}

func (l *loader) Models() map[string]*Model {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string]*Model, len(l.modelCache))
	for k, v := range l.modelCache {
		result[k] = v
	}
	return result
}

// resolveBackend selects an appropriate loader backend based on the file extension.
// Currently only glTF/GLB is supported.
func (l *loader) resolveBackend(path string) (loaderBackend, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gltf", ".glb":
		if l.backend != nil {
			return l.backend, nil
		}
	}
	return nil, fmt.Errorf("loader: unsupported model format: %s", ext)
}
