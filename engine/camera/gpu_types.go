package camera

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUSceneConstants is the GPU-aligned representation of the scene constant buffer.
// Matches the WGSL SceneConstants struct in asset/shader.wgsl.
// Size: 128 bytes.
type GPUSceneConstants struct {
	View       [16]float32 // offset  0: view matrix (mat4x4<f32>, column-major)
	Projection [16]float32 // offset 64: projection matrix (mat4x4<f32>, column-major)
}

// Size returns the size of the GPUSceneConstants struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (128)
func (g *GPUSceneConstants) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUSceneConstants struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUSceneConstants) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.View[i]))
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(g.Projection[i]))
	}
	return buf
}
