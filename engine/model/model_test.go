package model

import (
	"context"
	"testing"

	"github.com/Carmen-Shannon/oxy-lite/common"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/descriptor"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDevice(t *testing.T) gpu.HeadlessDevice {
	t.Helper()
	adapters := gpu.NewHeadlessInstance().EnumerateAdapters()
	require.NotEmpty(t, adapters)
	d, err := adapters[0].CreateDevice(gpu.FeatureLevel12_0, "test")
	require.NoError(t, err)
	return d.(gpu.HeadlessDevice)
}

func TestBuildMesh(t *testing.T) {
	quad, err := BuildMesh(ShapeQuad)
	require.NoError(t, err)
	assert.Len(t, quad.Vertices, 4)
	assert.Equal(t, []uint16{0, 1, 2, 3}, quad.Indices)
	assert.Equal(t, gpu.TopologyTriangleStrip, quad.Topology)
	assert.Equal(t, [3]float32{-0.5, 0.5, 0}, quad.Vertices[0].Position)
	assert.Equal(t, [3]float32{0.5, -0.5, 0}, quad.Vertices[3].Position)
	assert.Len(t, quad.VertexData(), 4*28)
	assert.Equal(t, uint32(28), quad.Stride())

	tri, err := BuildMesh(ShapeTriangle)
	require.NoError(t, err)
	assert.Len(t, tri.Vertices, 3)
	assert.Equal(t, []uint16{0, 1, 2}, tri.Indices)
	assert.Equal(t, gpu.TopologyTriangleList, tri.Topology)
	assert.Equal(t, [3]float32{0, 0.5, 0}, tri.Vertices[0].Position)
	for _, v := range tri.Vertices {
		assert.Equal(t, white, v.Color)
	}

	_, err = BuildMesh(ShapeType(9))
	assert.Error(t, err)
}

func TestBuildMeshes(t *testing.T) {
	meshes, err := BuildMeshes(context.Background(), ShapeTriangle, ShapeQuad)
	require.NoError(t, err)
	require.Len(t, meshes, 2)
	assert.Equal(t, ShapeTriangle, meshes[0].Type)
	assert.Equal(t, ShapeQuad, meshes[1].Type)

	_, err = BuildMeshes(context.Background(), ShapeQuad, ShapeType(9))
	assert.Error(t, err)
}

func TestVertexMarshal(t *testing.T) {
	v := GPUVertex{Position: [3]float32{1, 0, 0}, Color: [4]float32{0, 0, 0, 2}}
	buf := v.Marshal()
	require.Len(t, buf, v.Size())
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3f}, buf[0:4])
	assert.Equal(t, []byte{0x00, 0x00, 0x00, 0x40}, buf[24:28])
}

func TestShapeContainerDedupes(t *testing.T) {
	c := NewShapeContainer(newTestDevice(t))

	q1, err := c.Create(ShapeQuad)
	require.NoError(t, err)
	tr, err := c.Create(ShapeTriangle)
	require.NoError(t, err)
	q2, err := c.Create(ShapeQuad)
	require.NoError(t, err)

	assert.Equal(t, q1, q2)
	assert.NotEqual(t, q1, tr)
	assert.Equal(t, 2, c.Len())

	mesh, err := BuildMesh(ShapeTriangle)
	require.NoError(t, err)
	id, err := c.Add(mesh)
	require.NoError(t, err)
	assert.Equal(t, tr, id)

	topo, err := c.Topology(tr)
	require.NoError(t, err)
	assert.Equal(t, gpu.TopologyTriangleList, topo)

	_, err = c.Topology(ShapeID(7))
	assert.True(t, errors.Is(err, common.ErrNotInitialized))

	c.Release()
	assert.Zero(t, c.Len())
}

func TestShapeContainerDraw(t *testing.T) {
	device := newTestDevice(t)
	c := NewShapeContainer(device)
	id, err := c.Create(ShapeQuad)
	require.NoError(t, err)

	list := command.NewList(descriptor.NewContainer(device))
	alloc := command.NewAllocator(device, "Test Allocator")
	require.NoError(t, alloc.Reset(0))
	require.NoError(t, list.Reset(alloc, nil))

	require.NoError(t, c.Draw(list, id))
	assert.True(t, errors.Is(c.Draw(list, ShapeID(3)), common.ErrNotInitialized))
	require.NoError(t, list.Close())
	require.NoError(t, command.NewQueue(device).Execute(list))

	var ops []gpu.CommandOp
	var counts []uint32
	for _, cmd := range device.Timeline() {
		ops = append(ops, cmd.Op)
		counts = append(counts, cmd.Count)
	}
	assert.Equal(t, []gpu.CommandOp{
		gpu.OpSetPrimitiveTopology, gpu.OpSetVertexBuffer, gpu.OpSetIndexBuffer, gpu.OpDrawIndexed,
	}, ops)
	assert.Equal(t, []uint32{0, 112, 8, 4}, counts)
	assert.Equal(t, gpu.TopologyTriangleStrip, device.Timeline()[0].Topology)
}
