package cluster

import (
	_ "embed"
	"encoding/binary"
	"math"
)

// GPUClusterSource is the canonical WGSL definition of the Cluster, ClusterInfo and LightMask structs.
//
//go:embed assets/cluster.wgsl
var GPUClusterSource string

// GPUClusterSize is the byte size of one cluster in a storage buffer.
const GPUClusterSize = 32

// LightMaskSize is the byte size of one LightMask in a storage buffer.
const LightMaskSize = MaskWords * 4

// GPUClusterInfo is the uniform block read by the cluster build and light assignment kernels.
// Size: 32 bytes.
type GPUClusterInfo struct {
	CountX     uint32  // offset  0
	CountY     uint32  // offset  4
	CountZ     uint32  // offset  8
	LightCount uint32  // offset 12
	Width      uint32  // offset 16
	Height     uint32  // offset 20
	Scale      float32 // offset 24
	Bias       float32 // offset 28
}

// NewGPUClusterInfo packs the grid shape for upload. The grid must have been built.
//
// Parameters:
//   - g: the grid
//   - lightCount: number of view lights bound alongside
//
// Returns:
//   - GPUClusterInfo: the packed uniform
func NewGPUClusterInfo(g *Grid, lightCount int) GPUClusterInfo {
	scale, bias := g.DepthFactors()
	return GPUClusterInfo{
		CountX:     uint32(g.sx),
		CountY:     uint32(g.sy),
		CountZ:     uint32(g.sz),
		LightCount: uint32(min(lightCount, MaskWords*32)),
		Width:      g.width,
		Height:     g.height,
		Scale:      scale,
		Bias:       bias,
	}
}

// Size returns the size of the GPUClusterInfo struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (c *GPUClusterInfo) Size() int {
	return 32
}

// Marshal serializes the GPUClusterInfo struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload
func (c *GPUClusterInfo) Marshal() []byte {
	buf := make([]byte, c.Size())
	binary.LittleEndian.PutUint32(buf[0:], c.CountX)
	binary.LittleEndian.PutUint32(buf[4:], c.CountY)
	binary.LittleEndian.PutUint32(buf[8:], c.CountZ)
	binary.LittleEndian.PutUint32(buf[12:], c.LightCount)
	binary.LittleEndian.PutUint32(buf[16:], c.Width)
	binary.LittleEndian.PutUint32(buf[20:], c.Height)
	binary.LittleEndian.PutUint32(buf[24:], math.Float32bits(c.Scale))
	binary.LittleEndian.PutUint32(buf[28:], math.Float32bits(c.Bias))
	return buf
}

// MarshalClusters packs clusters as (min.xyz, near) (max.xyz, far) pairs of vec4.
//
// Parameters:
//   - clusters: the cluster table
//
// Returns:
//   - []byte: GPUClusterSize bytes per cluster
func MarshalClusters(clusters []Cluster) []byte {
	buf := make([]byte, len(clusters)*GPUClusterSize)
	for i, c := range clusters {
		vals := [8]float32{
			c.AABB.Min[0], c.AABB.Min[1], c.AABB.Min[2], c.Near,
			c.AABB.Max[0], c.AABB.Max[1], c.AABB.Max[2], c.Far,
		}
		for j, v := range vals {
			binary.LittleEndian.PutUint32(buf[i*GPUClusterSize+j*4:], math.Float32bits(v))
		}
	}
	return buf
}

// UnmarshalClusters is the inverse of MarshalClusters.
//
// Parameters:
//   - data: the packed clusters
//
// Returns:
//   - []Cluster: the decoded clusters
func UnmarshalClusters(data []byte) []Cluster {
	out := make([]Cluster, len(data)/GPUClusterSize)
	for i := range out {
		var vals [8]float32
		for j := range vals {
			vals[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*GPUClusterSize+j*4:]))
		}
		out[i].AABB.Min = [3]float32{vals[0], vals[1], vals[2]}
		out[i].Near = vals[3]
		out[i].AABB.Max = [3]float32{vals[4], vals[5], vals[6]}
		out[i].Far = vals[7]
	}
	return out
}

// UnmarshalLightMasks decodes masks read back from a storage buffer.
//
// Parameters:
//   - data: LightMaskSize bytes per mask
//
// Returns:
//   - []LightMask: the decoded masks
func UnmarshalLightMasks(data []byte) []LightMask {
	out := make([]LightMask, len(data)/LightMaskSize)
	for i := range out {
		for w := range MaskWords {
			out[i][w] = binary.LittleEndian.Uint32(data[i*LightMaskSize+w*4:])
		}
	}
	return out
}
