package game_object

import (
	"github.com/Carmen-Shannon/oxy-lite/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	bulletSpeed float32 = 0.3

	// bulletRange is the depth past which a bullet that hit nothing is retired.
	bulletRange float32 = 100
)

type bulletBehavior struct{}

var _ Behavior = bulletBehavior{}

// Initialize spawns the bullet at its parent's position. A parent that no longer exists leaves it at the origin.
func (bulletBehavior) Initialize(ctx *Context, obj GameObject) error {
	shape, err := ctx.Shapes.Create(model.ShapeQuad)
	if err != nil {
		return err
	}
	var position mgl32.Vec3
	if parent, ok := ctx.Objects.Object(obj.Parent()); ok {
		position = parent.Position()
	} else if ctx.Logger != nil {
		ctx.Logger.Debug("bullet parent gone, spawning at origin", "bullet", obj.Handle(), "parent", obj.Parent())
	}
	obj.Set(position, mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}, mgl32.Vec4{0, 0, 1, 0.3}, shape)
	return nil
}

func (bulletBehavior) Update(ctx *Context, obj GameObject) {
	obj.Translate(mgl32.Vec3{0, 0, bulletSpeed})
	ctx.Objects.RegisterHit(obj.Handle())
	if obj.Position().Z() > bulletRange {
		ctx.Objects.RegisterDelete(obj.Handle())
	}
}

func (bulletBehavior) OnHit(ctx *Context, obj, other GameObject) {
	ctx.Objects.RegisterDelete(obj.Handle())
}

func (bulletBehavior) HitTargetKind() (Kind, bool) {
	return KindEnemy, true
}
