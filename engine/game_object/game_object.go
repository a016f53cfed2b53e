package game_object

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-lite/common"
	"github.com/Carmen-Shannon/oxy-lite/engine/model"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/buffer"
	"github.com/go-gl/mathgl/mgl32"
)

type gameObject struct {
	mu *sync.Mutex

	handle   Handle
	kind     Kind
	parent   Handle
	behavior Behavior

	position mgl32.Vec3
	rotation mgl32.Vec3
	scale    mgl32.Vec3
	color    mgl32.Vec4
	shape    model.ShapeID
	radius   float32

	drawBuffer buffer.ConstantBuffer
}

// GameObject is one entity in the scene. Its world matrix is composed from scale, rotation and
// translation; its parent is referenced by handle only.
type GameObject interface {
	// Handle returns the object's handle.
	Handle() Handle

	// Kind returns the object's kind.
	Kind() Kind

	// Parent returns the handle of the object that spawned this one, or NoHandle.
	Parent() Handle

	// Behavior returns the object's kind behavior.
	Behavior() Behavior

	// Set places the object and gives it its look. The collision radius becomes the mean scale halved.
	//
	// Parameters:
	//   - position: translation
	//   - rotation: pitch, yaw, roll in radians
	//   - scale: per-axis scale
	//   - color: RGBA tint
	//   - shape: the shape drawn for the object
	Set(position, rotation, scale mgl32.Vec3, color mgl32.Vec4, shape model.ShapeID)

	// Position returns the translation of the world matrix.
	Position() mgl32.Vec3

	// Translate moves the object by delta.
	//
	// Parameters:
	//   - delta: the offset
	Translate(delta mgl32.Vec3)

	// Scale returns the per-axis scale.
	Scale() mgl32.Vec3

	// World returns the world matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the column-major world matrix
	World() mgl32.Mat4

	// Color returns the RGBA tint.
	Color() mgl32.Vec4

	// SetColor replaces the RGBA tint.
	//
	// Parameters:
	//   - color: the new tint
	SetColor(color mgl32.Vec4)

	// Shape returns the shape drawn for the object.
	Shape() model.ShapeID

	// Radius returns the collision sphere radius.
	Radius() float32

	// Constants returns the data written to the object's constant buffer.
	Constants() GPUObjectConstants
}

var _ GameObject = &gameObject{}

func newGameObject(handle Handle, kind Kind, parent Handle, behavior Behavior) *gameObject {
	return &gameObject{
		mu:       &sync.Mutex{},
		handle:   handle,
		kind:     kind,
		parent:   parent,
		behavior: behavior,
		scale:    mgl32.Vec3{1, 1, 1},
		color:    mgl32.Vec4{1, 1, 1, 1},
		radius:   0.5,
	}
}

func (g *gameObject) Handle() Handle {
	return g.handle
}

func (g *gameObject) Kind() Kind {
	return g.kind
}

func (g *gameObject) Parent() Handle {
	return g.parent
}

func (g *gameObject) Behavior() Behavior {
	return g.behavior
}

func (g *gameObject) Set(position, rotation, scale mgl32.Vec3, color mgl32.Vec4, shape model.ShapeID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.position = position
	g.rotation = rotation
	g.scale = scale
	g.color = color
	g.shape = shape
	g.radius = (scale.X() + scale.Y() + scale.Z()) / 6
}

func (g *gameObject) Position() mgl32.Vec3 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.position
}

func (g *gameObject) Translate(delta mgl32.Vec3) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.position = g.position.Add(delta)
}

func (g *gameObject) Scale() mgl32.Vec3 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.scale
}

func (g *gameObject) World() mgl32.Mat4 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return common.WorldMatrix(g.position, g.rotation, g.scale)
}

func (g *gameObject) Color() mgl32.Vec4 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.color
}

func (g *gameObject) SetColor(color mgl32.Vec4) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.color = color
}

func (g *gameObject) Shape() model.ShapeID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.shape
}

func (g *gameObject) Radius() float32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.radius
}

func (g *gameObject) Constants() GPUObjectConstants {
	g.mu.Lock()
	defer g.mu.Unlock()
	return GPUObjectConstants{
		World: common.WorldMatrix(g.position, g.rotation, g.scale),
		Color: g.color,
	}
}

// updateDrawBuffer writes the object's constants. It is a no-op for objects without a buffer.
func (g *gameObject) updateDrawBuffer() error {
	if g.drawBuffer == nil {
		return nil
	}
	c := g.Constants()
	return g.drawBuffer.Update(c.Marshal())
}

func (g *gameObject) release() error {
	if g.drawBuffer == nil {
		return nil
	}
	err := g.drawBuffer.Release()
	g.drawBuffer = nil
	return err
}
