package light

import (
	_ "embed"
	"encoding/binary"
	"math"
)

// GPULightSource is the canonical WGSL definition of the PointLight, ViewLight and DirLight structs.
//
//go:embed assets/light.wgsl
var GPULightSource string

// GPUPointLight is the GPU-aligned representation of a point light.
// Size: 32 bytes.
type GPUPointLight struct {
	WorldPosition [4]float32 // offset  0: xyz position, w = 1
	LumRadius     [4]float32 // offset 16: rgb luminance, w = radius
}

// NewGPUPointLight packs a PointLight for upload.
//
// Parameters:
//   - l: the light
//
// Returns:
//   - GPUPointLight: the packed light
func NewGPUPointLight(l PointLight) GPUPointLight {
	return GPUPointLight{
		WorldPosition: [4]float32{l.Position[0], l.Position[1], l.Position[2], 1},
		LumRadius:     [4]float32{l.Luminance[0], l.Luminance[1], l.Luminance[2], l.Radius},
	}
}

// Size returns the size of the GPUPointLight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (g *GPUPointLight) Size() int {
	return 32
}

// Marshal serializes the GPUPointLight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload
func (g *GPUPointLight) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.WorldPosition[i]))
		binary.LittleEndian.PutUint32(buf[16+i*4:], math.Float32bits(g.LumRadius[i]))
	}
	return buf
}

// GPUViewLight is the view-space position and radius of a point light as read by the light assignment kernel.
// Size: 16 bytes.
type GPUViewLight struct {
	PosRadius [4]float32 // offset 0: xyz view-space position, w = radius
}

// Size returns the size of the GPUViewLight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (g *GPUViewLight) Size() int {
	return 16
}

// Marshal serializes the GPUViewLight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload
func (g *GPUViewLight) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.PosRadius[i]))
	}
	return buf
}

// MarshalViewLights packs view lights back to back for a storage buffer upload.
//
// Parameters:
//   - lights: the lights to pack
//
// Returns:
//   - []byte: len(lights) * 16 bytes
func MarshalViewLights(lights []ViewLight) []byte {
	buf := make([]byte, 0, len(lights)*16)
	for _, l := range lights {
		g := GPUViewLight{PosRadius: [4]float32{l.Position[0], l.Position[1], l.Position[2], l.Radius}}
		buf = append(buf, g.Marshal()...)
	}
	return buf
}

// GPUDirLight is the GPU-aligned representation of the directional light.
// Size: 32 bytes.
type GPUDirLight struct {
	Direction  [4]float32 // offset  0: xyz direction, w unused
	Irradiance [4]float32 // offset 16: rgb irradiance, w unused
}

// NewGPUDirLight packs a DirLight for upload.
//
// Parameters:
//   - l: the light
//
// Returns:
//   - GPUDirLight: the packed light
func NewGPUDirLight(l DirLight) GPUDirLight {
	return GPUDirLight{
		Direction:  [4]float32{l.Direction[0], l.Direction[1], l.Direction[2], 0},
		Irradiance: [4]float32{l.Irradiance[0], l.Irradiance[1], l.Irradiance[2], 0},
	}
}

// Size returns the size of the GPUDirLight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (g *GPUDirLight) Size() int {
	return 32
}

// Marshal serializes the GPUDirLight struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload
func (g *GPUDirLight) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Direction[i]))
		binary.LittleEndian.PutUint32(buf[16+i*4:], math.Float32bits(g.Irradiance[i]))
	}
	return buf
}
