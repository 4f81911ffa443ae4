package loader

import "io"

// loaderBackend defines the generic interface for loading models from files or streams.
// Concrete implementations (e.g., gltfLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Load performs a full model import from the given file path.
	//
	// Parameters:
	//   - name: the model name
	//   - path: the file path to load
	//
	// Returns:
	//   - *Model: the imported model
	//   - error: error if loading fails
	Load(name, path string) (*Model, error)

	// LoadReader imports a model from a reader stream. External buffers cannot be resolved,
	// so the stream must be a GLB or a glTF with embedded buffers.
	//
	// Parameters:
	//   - name: the model name
	//   - r: the reader providing model data
	//
	// Returns:
	//   - *Model: the imported model
	//   - error: error if loading fails
	LoadReader(name string, r io.Reader) (*Model, error)
}
