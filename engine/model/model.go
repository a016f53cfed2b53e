package model

import (
	"context"
	"fmt"

	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"
	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
)

// ShapeType identifies one of the built-in meshes.
type ShapeType int

const (
	// ShapeQuad is a unit quad in the XY plane drawn as a 4-index triangle strip.
	ShapeQuad ShapeType = iota

	// ShapeTriangle is a unit triangle in the XY plane drawn as a 3-index triangle list.
	ShapeTriangle
)

func (s ShapeType) String() string {
	switch s {
	case ShapeQuad:
		return "Quad"
	case ShapeTriangle:
		return "Triangle"
	default:
		return fmt.Sprintf("ShapeType(%d)", int(s))
	}
}

var white = [4]float32{1, 1, 1, 1}

// Mesh is the CPU-side geometry of a shape, ready for upload.
type Mesh struct {
	Type     ShapeType
	Vertices []GPUVertex
	Indices  []uint16
	Topology gpu.PrimitiveTopology
}

// VertexData returns the packed vertex bytes.
//
// Returns:
//   - []byte: the vertex buffer contents
func (m Mesh) VertexData() []byte {
	return MarshalVertices(m.Vertices)
}

// Stride returns the byte size of one vertex.
func (m Mesh) Stride() uint32 {
	var v GPUVertex
	return uint32(v.Size())
}

// BuildMesh returns the geometry of a built-in shape. Vertices are white; objects tint them
// through their constant buffer colour.
//
// Parameters:
//   - t: the shape type
//
// Returns:
//   - Mesh: the geometry
//   - error: an error if the shape type is unknown
func BuildMesh(t ShapeType) (Mesh, error) {
	switch t {
	case ShapeQuad:
		return Mesh{
			Type: t,
			Vertices: []GPUVertex{
				{Position: [3]float32{-0.5, 0.5, 0}, Color: white},
				{Position: [3]float32{0.5, 0.5, 0}, Color: white},
				{Position: [3]float32{-0.5, -0.5, 0}, Color: white},
				{Position: [3]float32{0.5, -0.5, 0}, Color: white},
			},
			Indices:  []uint16{0, 1, 2, 3},
			Topology: gpu.TopologyTriangleStrip,
		}, nil
	case ShapeTriangle:
		return Mesh{
			Type: t,
			Vertices: []GPUVertex{
				{Position: [3]float32{0, 0.5, 0}, Color: white},
				{Position: [3]float32{0.5, -0.5, 0}, Color: white},
				{Position: [3]float32{-0.5, -0.5, 0}, Color: white},
			},
			Indices:  []uint16{0, 1, 2},
			Topology: gpu.TopologyTriangleList,
		}, nil
	default:
		return Mesh{}, errors.Newf("unknown shape type %s", t)
	}
}

// BuildMeshes builds several shapes concurrently.
//
// Parameters:
//   - ctx: cancels outstanding builds after the first failure
//   - types: the shapes to build
//
// Returns:
//   - []Mesh: the meshes, in the order of types
//   - error: the first build error
func BuildMeshes(ctx context.Context, types ...ShapeType) ([]Mesh, error) {
	meshes := make([]Mesh, len(types))
	g, ctx := errgroup.WithContext(ctx)
	for i, t := range types {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			m, err := BuildMesh(t)
			if err != nil {
				return err
			}
			meshes[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return meshes, nil
}
