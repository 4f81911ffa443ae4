package camera

import (
	_ "embed"
	"encoding/binary"
	"math"
)

// GPUFrameConstantsSource is the canonical WGSL definition of the FrameConstants struct.
// Matches GPUFrameConstants layout exactly (288 bytes, WGSL uniform aligned).
//
//go:embed assets/frame_constants.wgsl
var GPUFrameConstantsSource string

// GPUFrameConstants is the GPU-aligned representation of the frame constants uniform buffer.
// Matches the WGSL FrameConstants struct layout exactly (see GPUFrameConstantsSource).
// Size: 288 bytes.
type GPUFrameConstants struct {
	View     [16]float32 // offset   0: view matrix (mat4x4<f32>)
	Proj     [16]float32 // offset  64: projection matrix
	ViewProj [16]float32 // offset 128: projection * view
	InvProj  [16]float32 // offset 192: inverse projection
	Position [3]float32  // offset 256: world-space camera position (vec3<f32>)
	Near     float32     // offset 268
	Far      float32     // offset 272
	Fov      float32     // offset 276
	Width    uint32      // offset 280
	Height   uint32      // offset 284
}

// Size returns the size of the GPUFrameConstants struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (288)
func (g *GPUFrameConstants) Size() int {
	return 288
}

// Marshal serializes the GPUFrameConstants struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUFrameConstants) Marshal() []byte {
	buf := make([]byte, g.Size())
	for m, mat := range [4]*[16]float32{&g.View, &g.Proj, &g.ViewProj, &g.InvProj} {
		for i := range 16 {
			binary.LittleEndian.PutUint32(buf[m*64+i*4:], math.Float32bits(mat[i]))
		}
	}
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[256+i*4:], math.Float32bits(g.Position[i]))
	}
	binary.LittleEndian.PutUint32(buf[268:], math.Float32bits(g.Near))
	binary.LittleEndian.PutUint32(buf[272:], math.Float32bits(g.Far))
	binary.LittleEndian.PutUint32(buf[276:], math.Float32bits(g.Fov))
	binary.LittleEndian.PutUint32(buf[280:], g.Width)
	binary.LittleEndian.PutUint32(buf[284:], g.Height)
	return buf
}
