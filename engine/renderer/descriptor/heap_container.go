package descriptor

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-lite/common"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"
	"github.com/cockroachdb/errors"
)

// ContainerBuilderOption is a functional option used to configure a Container during construction.
type ContainerBuilderOption func(*container)

// WithLogger sets the logger the container reports heap creation to.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - ContainerBuilderOption: a function that sets the logger
func WithLogger(logger *slog.Logger) ContainerBuilderOption {
	return func(c *container) {
		c.logger = logger
	}
}

type container struct {
	device gpu.Device
	heaps  map[HeapType]Heap
	order  []HeapType
	logger *slog.Logger
}

// Container owns at most one heap per HeapType. It is created once after the device and passed to
// every component that allocates descriptors.
type Container interface {
	// Create creates and registers the heap of the given type.
	//
	// Parameters:
	//   - heapType: the descriptor type
	//   - count: the slot count
	//   - shaderVisible: whether the heap is shader-visible
	//
	// Returns:
	//   - error: ErrHeapExists if a heap of that type is already registered; any creation error, in which case nothing is registered
	Create(heapType HeapType, count int, shaderVisible bool) error

	// Heap returns the registered heap of the given type.
	//
	// Parameters:
	//   - heapType: the descriptor type
	//
	// Returns:
	//   - Heap: the heap
	//   - error: ErrNotInitialized if no heap of that type was created
	Heap(heapType HeapType) (Heap, error)

	// ApplyPendingFree applies pending frees on every registered heap.
	ApplyPendingFree()

	// Release destroys every heap and empties the container.
	Release()
}

var _ Container = &container{}

// NewContainer creates an empty heap container for device.
//
// Parameters:
//   - device: the device heaps are created on
//   - options: functional options
//
// Returns:
//   - Container: the empty container
func NewContainer(device gpu.Device, options ...ContainerBuilderOption) Container {
	c := &container{
		device: device,
		heaps:  make(map[HeapType]Heap),
		logger: slog.Default(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *container) Create(heapType HeapType, count int, shaderVisible bool) error {
	if _, ok := c.heaps[heapType]; ok {
		return common.MarkError(nil, common.ErrHeapExists, "%s heap already created", heapType)
	}
	h, err := NewHeap(c.device, heapType, count, shaderVisible)
	if err != nil {
		return errors.Wrapf(err, "create %s heap", heapType)
	}
	c.heaps[heapType] = h
	c.order = append(c.order, heapType)
	c.logger.Debug("descriptor heap created", "type", heapType.String(), "count", count, "shaderVisible", shaderVisible, "increment", h.Increment())
	return nil
}

func (c *container) Heap(heapType HeapType) (Heap, error) {
	h, ok := c.heaps[heapType]
	if !ok {
		return nil, common.MarkError(nil, common.ErrNotInitialized, "%s heap not created", heapType)
	}
	return h, nil
}

func (c *container) ApplyPendingFree() {
	for _, t := range c.order {
		c.heaps[t].ApplyPendingFree()
	}
}

func (c *container) Release() {
	for _, t := range c.order {
		c.heaps[t].Destroy()
		delete(c.heaps, t)
	}
	c.order = nil
}
