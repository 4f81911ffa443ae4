package scene

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-vis/common"
	"github.com/Carmen-Shannon/oxy-vis/engine/light"
	"github.com/go-gl/mathgl/mgl32"
)

// Scene is the registry of everything the visibility pipeline reads: a static primitive table,
// an instance table updated by scene logic, a material table and the light list.
// Primitives hold indices into the instance table and never own instances.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// PrimitiveCount returns the number of primitives in the scene.
	//
	// Returns:
	//   - int: the primitive count
	PrimitiveCount() int

	// InstanceCount returns the number of instances in the scene.
	//
	// Returns:
	//   - int: the instance count
	InstanceCount() int

	// Snapshot returns a consistent, read-only view of the scene tables for one frame.
	// Primitives and materials are shared (they are immutable); instances and lights are copied.
	//
	// Returns:
	//   - Snapshot: the frame view
	Snapshot() Snapshot

	// SetInstanceTransform replaces an instance transform and recomputes its normal matrix.
	//
	// Parameters:
	//   - index: instance index
	//   - transform: the new object-to-world transform
	//
	// Returns:
	//   - error: ErrInstanceOutOfRange if index is invalid
	SetInstanceTransform(index int, transform mgl32.Mat4) error

	// AddPointLight appends a point light.
	//
	// Parameters:
	//   - l: the light to add
	//
	// Returns:
	//   - int: index of the new light
	//   - error: ErrTooManyLights if the scene already holds light.MaxPointLights lights
	AddPointLight(l light.PointLight) (int, error)

	// SetPointLight replaces the light at index.
	//
	// Parameters:
	//   - index: light index
	//   - l: the new light
	//
	// Returns:
	//   - error: error if index is invalid
	SetPointLight(index int, l light.PointLight) error

	// RemovePointLight swap-removes the light at index. Does nothing if index is invalid.
	//
	// Parameters:
	//   - index: light index
	RemovePointLight(index int)

	// PointLights returns a copy of the point light list.
	//
	// Returns:
	//   - []light.PointLight: the lights, in index order
	PointLights() []light.PointLight

	// PointLightCount returns the number of point lights.
	//
	// Returns:
	//   - int: the light count
	PointLightCount() int

	// DirLight returns the directional light.
	//
	// Returns:
	//   - light.DirLight: the directional light
	DirLight() light.DirLight

	// SetDirLight replaces the directional light.
	//
	// Parameters:
	//   - l: the new directional light
	SetDirLight(l light.DirLight)
}

// Snapshot is a frame-consistent view of the scene tables. It must be treated as read-only.
type Snapshot struct {
	Primitives  []Primitive
	Instances   []Instance
	Materials   []Material
	PointLights []light.PointLight
	DirLight    light.DirLight
}

type scene struct {
	mu *sync.RWMutex

	name string

	primitives  []Primitive
	instances   []Instance
	materials   []Material
	pointLights []light.PointLight
	dirLight    light.DirLight
}

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// NewScene creates a Scene from the provided tables and validates it.
// Validation failures are configuration errors and must abort startup.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options supplying the scene tables
//
// Returns:
//   - Scene: the newly created scene
//   - error: the first validation failure, wrapping one of the package's sentinel errors
func NewScene(name string, options ...SceneBuilderOption) (Scene, error) {
	s := &scene{
		mu:       &sync.RWMutex{},
		name:     name,
		dirLight: light.DefaultDirLight(),
	}
	for _, option := range options {
		option(s)
	}
	if len(s.materials) == 0 {
		s.materials = []Material{{}}
	}
	if err := Validate(s.primitives, len(s.instances), len(s.materials), len(s.pointLights)); err != nil {
		return nil, err
	}
	common.Logger().Debug("scene loaded",
		"name", s.name,
		"primitives", len(s.primitives),
		"instances", len(s.instances),
		"materials", len(s.materials),
		"point_lights", len(s.pointLights),
	)
	return s, nil
}

// Validate checks the scene tables for configuration errors.
//
// Parameters:
//   - primitives: the primitive table
//   - instanceCount: number of instances
//   - materialCount: number of materials
//   - lightCount: number of point lights
//
// Returns:
//   - error: nil, or a wrapped ErrNoLODs, ErrTooManyLODs, ErrInstanceOutOfRange,
//     ErrMaterialOutOfRange or ErrTooManyLights
func Validate(primitives []Primitive, instanceCount, materialCount, lightCount int) error {
	for i, p := range primitives {
		switch {
		case len(p.LODs) == 0:
			return fmt.Errorf("scene: primitive %d: %w", i, ErrNoLODs)
		case len(p.LODs) > MaxLODs:
			return fmt.Errorf("scene: primitive %d: %d LODs (max %d): %w", i, len(p.LODs), MaxLODs, ErrTooManyLODs)
		case int(p.Instance) >= instanceCount:
			return fmt.Errorf("scene: primitive %d: instance %d of %d: %w", i, p.Instance, instanceCount, ErrInstanceOutOfRange)
		case int(p.Material) >= materialCount:
			return fmt.Errorf("scene: primitive %d: material %d of %d: %w", i, p.Material, materialCount, ErrMaterialOutOfRange)
		}
	}
	if lightCount > light.MaxPointLights {
		return fmt.Errorf("scene: %d point lights (max %d): %w", lightCount, light.MaxPointLights, ErrTooManyLights)
	}
	return nil
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) PrimitiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.primitives)
}

func (s *scene) InstanceCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.instances)
}

func (s *scene) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	instances := make([]Instance, len(s.instances))
	copy(instances, s.instances)
	lights := make([]light.PointLight, len(s.pointLights))
	copy(lights, s.pointLights)
	return Snapshot{
		Primitives:  s.primitives,
		Instances:   instances,
		Materials:   s.materials,
		PointLights: lights,
		DirLight:    s.dirLight,
	}
}

func (s *scene) SetInstanceTransform(index int, transform mgl32.Mat4) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.instances) {
		return fmt.Errorf("scene: set transform %d of %d: %w", index, len(s.instances), ErrInstanceOutOfRange)
	}
	s.instances[index] = NewInstance(transform)
	return nil
}

func (s *scene) AddPointLight(l light.PointLight) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pointLights) >= light.MaxPointLights {
		return -1, fmt.Errorf("scene: add point light: %w", ErrTooManyLights)
	}
	s.pointLights = append(s.pointLights, l)
	return len(s.pointLights) - 1, nil
}

func (s *scene) SetPointLight(index int, l light.PointLight) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.pointLights) {
		return fmt.Errorf("scene: set point light %d of %d: index out of range", index, len(s.pointLights))
	}
	s.pointLights[index] = l
	return nil
}

func (s *scene) RemovePointLight(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.pointLights)
	if index < 0 || index >= n {
		return
	}
	s.pointLights[index] = s.pointLights[n-1]
	s.pointLights = s.pointLights[:n-1]
}

func (s *scene) PointLights() []light.PointLight {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]light.PointLight, len(s.pointLights))
	copy(out, s.pointLights)
	return out
}

func (s *scene) PointLightCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pointLights)
}

func (s *scene) DirLight() light.DirLight {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirLight
}

func (s *scene) SetDirLight(l light.DirLight) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirLight = l
}
