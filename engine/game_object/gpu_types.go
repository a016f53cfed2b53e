package game_object

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUObjectConstants is the GPU-aligned representation of the per-object constant buffer.
// Matches the WGSL ObjectConstants struct in asset/shader.wgsl.
// Size: 80 bytes.
type GPUObjectConstants struct {
	World [16]float32 // offset  0: world matrix (mat4x4<f32>, column-major)
	Color [4]float32  // offset 64: RGBA tint (vec4<f32>)
}

// Size returns the size of the GPUObjectConstants struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (80)
func (g *GPUObjectConstants) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUObjectConstants struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUObjectConstants) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.World[i]))
	}
	for i := range 4 {
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(g.Color[i]))
	}
	return buf
}
