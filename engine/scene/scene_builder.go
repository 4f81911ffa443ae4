package scene

import "github.com/Carmen-Shannon/oxy-vis/engine/light"

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithPrimitives appends primitives to the scene's primitive table.
//
// Parameters:
//   - primitives: the primitives to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithPrimitives(primitives ...Primitive) SceneBuilderOption {
	return func(s *scene) {
		s.primitives = append(s.primitives, primitives...)
	}
}

// WithInstances appends instances to the scene's instance table.
//
// Parameters:
//   - instances: the instances to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithInstances(instances ...Instance) SceneBuilderOption {
	return func(s *scene) {
		s.instances = append(s.instances, instances...)
	}
}

// WithMaterials appends materials to the scene's material table.
// A scene without materials gets a single zero material.
//
// Parameters:
//   - materials: the materials to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithMaterials(materials ...Material) SceneBuilderOption {
	return func(s *scene) {
		s.materials = append(s.materials, materials...)
	}
}

// WithPointLights appends point lights. More than light.MaxPointLights lights fails validation.
//
// Parameters:
//   - lights: the lights to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithPointLights(lights ...light.PointLight) SceneBuilderOption {
	return func(s *scene) {
		s.pointLights = append(s.pointLights, lights...)
	}
}

// WithDirLight sets the directional light. Defaults to light.DefaultDirLight().
//
// Parameters:
//   - l: the directional light
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithDirLight(l light.DirLight) SceneBuilderOption {
	return func(s *scene) {
		s.dirLight = l
	}
}
