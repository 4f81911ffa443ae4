package loader

import (
	"io"

	"github.com/qmuntal/gltf"
)

// gltfLoaderBackendImpl is the implementation of gltfLoaderBackend.
type gltfLoaderBackendImpl struct {
	lodChain int
}

// gltfLoaderBackend is a loaderBackend implementation for glTF/GLB files.
type gltfLoaderBackend interface {
	loaderBackend
}

var _ gltfLoaderBackend = &gltfLoaderBackendImpl{}

// newGLTFLoaderBackend creates a new glTF loader backend.
//
// Parameters:
//   - lodChain: LODs synthesized per primitive
//
// Returns:
//   - gltfLoaderBackend: the loader backend for glTF/GLB files
func newGLTFLoaderBackend(lodChain int) gltfLoaderBackend {
	return &gltfLoaderBackendImpl{lodChain: lodChain}
}

func (b *gltfLoaderBackendImpl) Load(name, path string) (*Model, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, err
	}
	return FromDocument(name, doc, b.lodChain)
}

func (b *gltfLoaderBackendImpl) LoadReader(name string, r io.Reader) (*Model, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, err
	}
	return FromDocument(name, doc, b.lodChain)
}
