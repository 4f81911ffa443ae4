package culler

import (
	_ "embed"
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/oxy-vis/common"
)

// GPUCullSource is the canonical WGSL definition of the DrawCommand, DrawCount and CullInfo structs.
// Kernels that read or write the draw buffer must include it.
//
//go:embed assets/cull.wgsl
var GPUCullSource string

// DrawCommandSize is the byte size of one DrawCommand in a storage buffer.
const DrawCommandSize = 32

// DrawCountSize is the byte size of a DrawCount in a storage buffer.
const DrawCountSize = 8

// Marshal serializes the command into its 32-byte storage layout.
//
// Returns:
//   - []byte: the little-endian encoding
func (c DrawCommand) Marshal() []byte {
	buf := make([]byte, DrawCommandSize)
	binary.LittleEndian.PutUint32(buf[0:], c.IndexCount)
	binary.LittleEndian.PutUint32(buf[4:], c.InstanceCount)
	binary.LittleEndian.PutUint32(buf[8:], c.FirstIndex)
	binary.LittleEndian.PutUint32(buf[12:], uint32(c.VertexOffset))
	binary.LittleEndian.PutUint32(buf[16:], c.FirstInstance)
	binary.LittleEndian.PutUint32(buf[20:], c.AlbedoMap)
	binary.LittleEndian.PutUint32(buf[24:], c.SpecularMap)
	binary.LittleEndian.PutUint32(buf[28:], c.NormalMap)
	return buf
}

// UnmarshalDrawCommands decodes tightly packed commands read back from a storage buffer.
// Trailing bytes that do not form a whole command are ignored.
//
// Parameters:
//   - data: the raw buffer contents
//
// Returns:
//   - []DrawCommand: the decoded commands
func UnmarshalDrawCommands(data []byte) []DrawCommand {
	out := make([]DrawCommand, len(data)/DrawCommandSize)
	for i := range out {
		b := data[i*DrawCommandSize:]
		out[i] = DrawCommand{
			IndexCount:    binary.LittleEndian.Uint32(b[0:]),
			InstanceCount: binary.LittleEndian.Uint32(b[4:]),
			FirstIndex:    binary.LittleEndian.Uint32(b[8:]),
			VertexOffset:  int32(binary.LittleEndian.Uint32(b[12:])),
			FirstInstance: binary.LittleEndian.Uint32(b[16:]),
			AlbedoMap:     binary.LittleEndian.Uint32(b[20:]),
			SpecularMap:   binary.LittleEndian.Uint32(b[24:]),
			NormalMap:     binary.LittleEndian.Uint32(b[28:]),
		}
	}
	return out
}

// Marshal serializes the count into its 8-byte storage layout.
//
// Returns:
//   - []byte: the little-endian encoding
func (c DrawCount) Marshal() []byte {
	buf := make([]byte, DrawCountSize)
	binary.LittleEndian.PutUint32(buf[0:], c.CommandCount)
	binary.LittleEndian.PutUint32(buf[4:], c.PrimitiveCount)
	return buf
}

// UnmarshalDrawCount decodes a count read back from a storage buffer.
//
// Parameters:
//   - data: at least DrawCountSize bytes
//
// Returns:
//   - DrawCount: the decoded count
func UnmarshalDrawCount(data []byte) DrawCount {
	return DrawCount{
		CommandCount:   binary.LittleEndian.Uint32(data[0:]),
		PrimitiveCount: binary.LittleEndian.Uint32(data[4:]),
	}
}

// CullInfo is the uniform block read by the cull kernel.
// Size: 128 bytes.
type CullInfo struct {
	Planes         [6][4]float32 // offset   0: xyz normal, w distance
	LODBase        float32       // offset  96
	LODStep        float32       // offset 100
	PyramidWidth   uint32        // offset 104
	PyramidHeight  uint32        // offset 108
	PyramidLevels  uint32        // offset 112
	Phase          uint32        // offset 116
	PrimitiveCount uint32        // offset 120
	Capacity       uint32        // offset 124
}

// NewCullInfo packs the frustum planes and pass parameters for upload.
//
// Parameters:
//   - f: the world-space frustum
//   - lodBase, lodStep: LOD selection parameters
//   - pyramidWidth, pyramidHeight, pyramidLevels: the pyramid shape (zero when none is bound)
//   - phase: the phase being run
//   - primitiveCount: number of primitives
//   - capacity: draw region capacity
//
// Returns:
//   - CullInfo: the packed uniform
func NewCullInfo(f common.Frustum, lodBase, lodStep float32, pyramidWidth, pyramidHeight, pyramidLevels int, phase Phase, primitiveCount, capacity int) CullInfo {
	info := CullInfo{
		LODBase:        lodBase,
		LODStep:        lodStep,
		PyramidWidth:   uint32(pyramidWidth),
		PyramidHeight:  uint32(pyramidHeight),
		PyramidLevels:  uint32(pyramidLevels),
		Phase:          uint32(phase),
		PrimitiveCount: uint32(primitiveCount),
		Capacity:       uint32(capacity),
	}
	for i, p := range f.Planes {
		info.Planes[i] = [4]float32{p.Normal[0], p.Normal[1], p.Normal[2], p.Distance}
	}
	return info
}

// Size returns the size of the CullInfo struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (128)
func (c *CullInfo) Size() int {
	return 128
}

// Marshal serializes the CullInfo struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 128-byte buffer ready for GPU upload
func (c *CullInfo) Marshal() []byte {
	buf := make([]byte, c.Size())
	for i := range c.Planes {
		for j := range 4 {
			binary.LittleEndian.PutUint32(buf[(i*4+j)*4:], math.Float32bits(c.Planes[i][j]))
		}
	}
	binary.LittleEndian.PutUint32(buf[96:], math.Float32bits(c.LODBase))
	binary.LittleEndian.PutUint32(buf[100:], math.Float32bits(c.LODStep))
	binary.LittleEndian.PutUint32(buf[104:], c.PyramidWidth)
	binary.LittleEndian.PutUint32(buf[108:], c.PyramidHeight)
	binary.LittleEndian.PutUint32(buf[112:], c.PyramidLevels)
	binary.LittleEndian.PutUint32(buf[116:], c.Phase)
	binary.LittleEndian.PutUint32(buf[120:], c.PrimitiveCount)
	binary.LittleEndian.PutUint32(buf[124:], c.Capacity)
	return buf
}
