package light

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxPointLights is the number of point lights a cluster light mask can address (8 words of 32 bits).
const MaxPointLights = 256

// PowCutoff is the irradiance at which a point light's influence is considered to end.
const PowCutoff = 0.6

// PointLight is an omnidirectional light with a finite sphere of influence.
type PointLight struct {
	// Position is the world-space light position.
	Position mgl32.Vec3
	// Luminance is the emitted RGB luminance.
	Luminance mgl32.Vec3
	// Radius bounds the light's influence. Lights created by NewPointLight derive it from Luminance.
	Radius float32
}

// NewPointLight creates a point light whose radius is the distance at which its irradiance falls to PowCutoff.
//
// Parameters:
//   - pos: world-space position
//   - lum: RGB luminance
//   - options: functional options applied after the radius is derived
//
// Returns:
//   - PointLight: the new light
func NewPointLight(pos, lum mgl32.Vec3, options ...PointLightBuilderOption) PointLight {
	l := PointLight{
		Position:  pos,
		Luminance: lum,
		Radius:    InfluenceRadius(lum),
	}
	for _, option := range options {
		option(&l)
	}
	return l
}

// InfluenceRadius returns the distance at which a light of luminance lum delivers PowCutoff irradiance.
//
// Parameters:
//   - lum: RGB luminance
//
// Returns:
//   - float32: radius in world units (zero for black or negative luminance)
func InfluenceRadius(lum mgl32.Vec3) float32 {
	peak := max(lum[0], lum[1], lum[2], 0)
	return float32(2.82095 * math.Sqrt(float64(peak)) / math.Sqrt(PowCutoff))
}

// DirLight is the single directional light of a scene.
type DirLight struct {
	// Direction is the normalized direction the light travels along.
	Direction mgl32.Vec3
	// Irradiance is the RGB irradiance delivered to surfaces facing the light.
	Irradiance mgl32.Vec3
}

// DefaultDirLight returns a sun-like directional light.
//
// Returns:
//   - DirLight: the default light
func DefaultDirLight() DirLight {
	return DirLight{
		Direction:  mgl32.Vec3{0, 0.8, -1}.Normalize(),
		Irradiance: mgl32.Vec3{2, 2, 2},
	}
}
