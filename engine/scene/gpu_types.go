package scene

import (
	_ "embed"
	"encoding/binary"
	"math"
)

// GPUSceneSource is the canonical WGSL definition of the Primitive, Instance and Material structs.
//
//go:embed assets/scene.wgsl
var GPUSceneSource string

// GPUPrimitive is the GPU-aligned representation of a Primitive.
// Size: 96 bytes.
type GPUPrimitive struct {
	Sphere       [4]float32         // offset  0: xyz center, w = radius
	VertexOffset int32              // offset 16
	LODCount     uint32             // offset 20
	Instance     uint32             // offset 24
	Material     uint32             // offset 28
	LODs         [MaxLODs][2]uint32 // offset 32: (first_index, index_count) pairs
}

// NewGPUPrimitive packs a Primitive for upload. LODs beyond MaxLODs are dropped.
//
// Parameters:
//   - p: the primitive
//
// Returns:
//   - GPUPrimitive: the packed primitive
func NewGPUPrimitive(p Primitive) GPUPrimitive {
	g := GPUPrimitive{
		Sphere:       [4]float32{p.Bounds.Center[0], p.Bounds.Center[1], p.Bounds.Center[2], p.Bounds.Radius},
		VertexOffset: p.VertexOffset,
		LODCount:     uint32(min(len(p.LODs), MaxLODs)),
		Instance:     p.Instance,
		Material:     p.Material,
	}
	for i := 0; i < int(g.LODCount); i++ {
		g.LODs[i] = [2]uint32{p.LODs[i].FirstIndex, p.LODs[i].IndexCount}
	}
	return g
}

// Size returns the size of the GPUPrimitive struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (96)
func (g *GPUPrimitive) Size() int {
	return 96
}

// Marshal serializes the GPUPrimitive struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 96-byte buffer ready for GPU upload
func (g *GPUPrimitive) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Sphere[i]))
	}
	binary.LittleEndian.PutUint32(buf[16:], uint32(g.VertexOffset))
	binary.LittleEndian.PutUint32(buf[20:], g.LODCount)
	binary.LittleEndian.PutUint32(buf[24:], g.Instance)
	binary.LittleEndian.PutUint32(buf[28:], g.Material)
	for i := range MaxLODs {
		binary.LittleEndian.PutUint32(buf[32+i*8:], g.LODs[i][0])
		binary.LittleEndian.PutUint32(buf[36+i*8:], g.LODs[i][1])
	}
	return buf
}

// GPUInstance is the GPU-aligned representation of an Instance.
// Size: 128 bytes.
type GPUInstance struct {
	Transform [16]float32 // offset  0
	Normal    [16]float32 // offset 64
}

// Size returns the size of the GPUInstance struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (128)
func (g *GPUInstance) Size() int {
	return 128
}

// Marshal serializes the GPUInstance struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 128-byte buffer ready for GPU upload
func (g *GPUInstance) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.Transform[i]))
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(g.Normal[i]))
	}
	return buf
}

// GPUMaterial is the GPU-aligned representation of a Material.
// Size: 16 bytes.
type GPUMaterial struct {
	AlbedoMap   uint32 // offset  0
	SpecularMap uint32 // offset  4
	NormalMap   uint32 // offset  8
	_pad        uint32 // offset 12
}

// Size returns the size of the GPUMaterial struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (16)
func (g *GPUMaterial) Size() int {
	return 16
}

// Marshal serializes the GPUMaterial struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 16-byte buffer ready for GPU upload
func (g *GPUMaterial) Marshal() []byte {
	buf := make([]byte, g.Size())
	binary.LittleEndian.PutUint32(buf[0:], g.AlbedoMap)
	binary.LittleEndian.PutUint32(buf[4:], g.SpecularMap)
	binary.LittleEndian.PutUint32(buf[8:], g.NormalMap)
	return buf
}

// MarshalTables packs a snapshot's primitive, instance and material tables for storage buffer upload.
//
// Parameters:
//   - snap: the scene snapshot
//
// Returns:
//   - primitives, instances, materials: tightly packed byte buffers
func MarshalTables(snap Snapshot) (primitives, instances, materials []byte) {
	primitives = make([]byte, 0, len(snap.Primitives)*96)
	for _, p := range snap.Primitives {
		g := NewGPUPrimitive(p)
		primitives = append(primitives, g.Marshal()...)
	}
	instances = make([]byte, 0, len(snap.Instances)*128)
	for _, inst := range snap.Instances {
		g := GPUInstance{Transform: inst.Transform, Normal: inst.Normal}
		instances = append(instances, g.Marshal()...)
	}
	materials = make([]byte, 0, len(snap.Materials)*16)
	for _, m := range snap.Materials {
		g := GPUMaterial{AlbedoMap: m.AlbedoMap, SpecularMap: m.SpecularMap, NormalMap: m.NormalMap}
		materials = append(materials, g.Marshal()...)
	}
	return primitives, instances, materials
}
