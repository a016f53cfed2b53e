package model

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Carmen-Shannon/oxy-lite/common"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"
)

// ShapeID identifies a shape uploaded to a ShapeContainer.
type ShapeID int

type shape struct {
	shapeType ShapeType
	topology  gpu.PrimitiveTopology
	vertices  buffer.VertexBuffer
	indices   buffer.IndexBuffer
}

type shapeContainer struct {
	mu     *sync.Mutex
	logger *slog.Logger
	device gpu.Device
	shapes []*shape
	byType map[ShapeType]ShapeID
}

// ShapeContainer owns the GPU geometry of every shape in use. Each shape type is uploaded once and
// shared by every object drawn with it.
type ShapeContainer interface {
	// Create returns the id of the shape of type t, building and uploading it on first use.
	//
	// Parameters:
	//   - t: the shape type
	//
	// Returns:
	//   - ShapeID: the shape id
	//   - error: ErrResourceMapFailed if the upload fails
	Create(t ShapeType) (ShapeID, error)

	// Add uploads a prebuilt mesh, or returns the existing id if its type is already present.
	//
	// Parameters:
	//   - m: the mesh
	//
	// Returns:
	//   - ShapeID: the shape id
	//   - error: ErrResourceMapFailed if the upload fails
	Add(m Mesh) (ShapeID, error)

	// Topology returns the primitive topology of a shape.
	//
	// Parameters:
	//   - id: the shape id
	//
	// Returns:
	//   - gpu.PrimitiveTopology: the topology
	//   - error: ErrNotInitialized for an unknown id
	Topology(id ShapeID) (gpu.PrimitiveTopology, error)

	// Draw sets the topology, vertex and index buffers of a shape and records one indexed draw.
	//
	// Parameters:
	//   - list: the recording command list
	//   - id: the shape id
	//
	// Returns:
	//   - error: ErrNotInitialized for an unknown id
	Draw(list command.List, id ShapeID) error

	// Len returns the number of uploaded shapes.
	Len() int

	// Release frees every shape.
	Release()
}

var _ ShapeContainer = &shapeContainer{}

// NewShapeContainer creates an empty container uploading to device.
//
// Parameters:
//   - device: the device
//   - options: functional options
//
// Returns:
//   - ShapeContainer: the container
func NewShapeContainer(device gpu.Device, options ...ShapeContainerBuilderOption) ShapeContainer {
	c := &shapeContainer{
		mu:     &sync.Mutex{},
		logger: slog.Default(),
		device: device,
		byType: make(map[ShapeType]ShapeID),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *shapeContainer) Create(t ShapeType) (ShapeID, error) {
	c.mu.Lock()
	if id, ok := c.byType[t]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	m, err := BuildMesh(t)
	if err != nil {
		return 0, err
	}
	return c.Add(m)
}

func (c *shapeContainer) Add(m Mesh) (ShapeID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := c.byType[m.Type]; ok {
		return id, nil
	}
	vb, err := buffer.NewVertexBuffer(c.device, m.VertexData(), m.Stride(), buffer.WithLabel(fmt.Sprintf("%s Vertices", m.Type)))
	if err != nil {
		return 0, err
	}
	ib, err := buffer.NewIndexBuffer(c.device, m.Indices, buffer.WithLabel(fmt.Sprintf("%s Indices", m.Type)))
	if err != nil {
		vb.Release()
		return 0, err
	}
	id := ShapeID(len(c.shapes))
	c.shapes = append(c.shapes, &shape{shapeType: m.Type, topology: m.Topology, vertices: vb, indices: ib})
	c.byType[m.Type] = id

	c.logger.Debug("shape uploaded",
		slog.String("shape", m.Type.String()),
		slog.Int("id", int(id)),
		slog.Int("vertices", int(vb.Count())),
		slog.Int("indices", int(ib.Count())),
	)
	return id, nil
}

func (c *shapeContainer) lookup(id ShapeID) (*shape, error) {
	if id < 0 || int(id) >= len(c.shapes) {
		return nil, common.MarkError(nil, common.ErrNotInitialized, "unknown shape id %d", id)
	}
	return c.shapes[id], nil
}

func (c *shapeContainer) Topology(id ShapeID) (gpu.PrimitiveTopology, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.lookup(id)
	if err != nil {
		return 0, err
	}
	return s.topology, nil
}

func (c *shapeContainer) Draw(list command.List, id ShapeID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.lookup(id)
	if err != nil {
		return err
	}
	list.SetPrimitiveTopology(s.topology)
	list.SetVertexBuffer(s.vertices.View())
	list.SetIndexBuffer(s.indices.View())
	list.DrawIndexedInstanced(s.indices.Count(), 1, 0, 0, 0)
	return nil
}

func (c *shapeContainer) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.shapes)
}

func (c *shapeContainer) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range c.shapes {
		s.vertices.Release()
		s.indices.Release()
	}
	c.shapes = nil
	c.byType = make(map[ShapeType]ShapeID)
}
