package light

// PointLightBuilderOption is a functional option for configuring a PointLight.
type PointLightBuilderOption func(*PointLight)

// WithRadius overrides the luminance-derived influence radius.
//
// Parameters:
//   - radius: influence radius in world units
//
// Returns:
//   - PointLightBuilderOption: a function that sets the light radius
func WithRadius(radius float32) PointLightBuilderOption {
	return func(l *PointLight) {
		l.Radius = radius
	}
}
