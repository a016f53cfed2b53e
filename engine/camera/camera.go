package camera

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/oxy-lite/common"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/descriptor"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"
	"github.com/go-gl/mathgl/mgl32"
)

type cameraImpl struct {
	mu *sync.Mutex

	eye    mgl32.Vec3
	target mgl32.Vec3
	up     mgl32.Vec3

	fov    float32
	aspect float32
	near   float32
	far    float32

	viewMatrix       mgl32.Mat4
	projectionMatrix mgl32.Mat4

	drawBuffer buffer.ConstantBuffer
}

// Camera defines the interface for the camera system.
// The camera holds a left-handed look-at view and a perspective projection, and owns the
// scene constant buffer {view, projection} bound once per frame.
type Camera interface {
	// Eye returns the camera's world-space position.
	Eye() mgl32.Vec3

	// Target returns the look-at point.
	Target() mgl32.Vec3

	// Up returns the camera's up vector.
	Up() mgl32.Vec3

	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// ViewMatrix returns the current view matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the column-major view matrix
	ViewMatrix() mgl32.Mat4

	// ProjectionMatrix returns the current projection matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the column-major projection matrix
	ProjectionMatrix() mgl32.Mat4

	// Frustum returns the view volume of the current matrices.
	Frustum() common.Frustum

	// SetEye moves the camera. Matrices change on the next Update.
	//
	// Parameters:
	//   - eye: the new position
	SetEye(eye mgl32.Vec3)

	// SetTarget changes the look-at point. Matrices change on the next Update.
	//
	// Parameters:
	//   - target: the new look-at point
	SetTarget(target mgl32.Vec3)

	// SetAspect sets the aspect ratio (width / height). Matrices change on the next Update.
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)

	// Update recomputes the view and projection matrices.
	// Should be called once per frame before UpdateDrawBuffer.
	Update()

	// CreateDrawBuffer creates the scene constant buffer.
	//
	// Parameters:
	//   - device: the device
	//   - heap: the shader-visible CBV heap
	//   - param: the root parameter of the scene slot
	//
	// Returns:
	//   - error: ErrResourceMapFailed or ErrDescriptorExhausted
	CreateDrawBuffer(device gpu.Device, heap descriptor.Heap, param gpu.RootParameter) error

	// UpdateDrawBuffer writes the current matrices into the scene constant buffer.
	//
	// Returns:
	//   - error: ErrNotInitialized before CreateDrawBuffer, ErrResourceMapFailed if the write fails
	UpdateDrawBuffer() error

	// Draw binds the scene constant buffer at slot.
	//
	// Parameters:
	//   - list: the recording command list
	//   - slot: the root parameter slot
	//
	// Returns:
	//   - error: ErrNotInitialized before CreateDrawBuffer or after Release
	Draw(list command.List, slot uint32) error

	// Release frees the scene constant buffer.
	//
	// Returns:
	//   - error: the descriptor release error
	Release() error
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera looking from (0, 1.5, -5) toward (0, 0, 10) with a 45 degree
// field of view, near 0.1 and far 100. Matrices are computed immediately.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:     &sync.Mutex{},
		eye:    mgl32.Vec3{0, 1.5, -5},
		target: mgl32.Vec3{0, 0, 10},
		up:     mgl32.Vec3{0, 1, 0},
		fov:    math.Pi / 4,
		aspect: 1280.0 / 720.0,
		near:   0.1,
		far:    100.0,
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Eye() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eye
}

func (c *cameraImpl) Target() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *cameraImpl) Up() mgl32.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) ViewMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() mgl32.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) Frustum() common.Frustum {
	c.mu.Lock()
	defer c.mu.Unlock()
	return common.ExtractFrustum(c.projectionMatrix.Mul4(c.viewMatrix))
}

func (c *cameraImpl) SetEye(eye mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eye = eye
}

func (c *cameraImpl) SetTarget(target mgl32.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = target
}

func (c *cameraImpl) SetAspect(aspect float32) {
	if aspect <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateMatrices()
}

func (c *cameraImpl) CreateDrawBuffer(device gpu.Device, heap descriptor.Heap, param gpu.RootParameter) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.drawBuffer != nil {
		return nil
	}
	var constants GPUSceneConstants
	cb, err := buffer.NewConstantBuffer(device, heap, param, uint64(constants.Size()), buffer.WithLabel("Scene Constants"))
	if err != nil {
		return err
	}
	c.drawBuffer = cb
	return nil
}

func (c *cameraImpl) UpdateDrawBuffer() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.drawBuffer == nil {
		return common.MarkError(nil, common.ErrNotInitialized, "camera draw buffer not created")
	}
	constants := GPUSceneConstants{
		View:       c.viewMatrix,
		Projection: c.projectionMatrix,
	}
	return c.drawBuffer.Update(constants.Marshal())
}

func (c *cameraImpl) Draw(list command.List, slot uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.drawBuffer == nil {
		return common.MarkError(nil, common.ErrNotInitialized, "camera draw buffer not created")
	}
	h, err := c.drawBuffer.Handle()
	if err != nil {
		return err
	}
	list.SetDescriptorTable(slot, h)
	return nil
}

func (c *cameraImpl) Release() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.drawBuffer == nil {
		return nil
	}
	err := c.drawBuffer.Release()
	c.drawBuffer = nil
	return err
}

// updateMatrices recalculates the view and projection matrices. Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	c.viewMatrix = common.LookAtLH(c.eye, c.target, c.up)
	c.projectionMatrix = common.PerspectiveFovLH(c.fov, c.aspect, c.near, c.far)
}
