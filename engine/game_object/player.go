package game_object

import (
	"github.com/Carmen-Shannon/oxy-lite/common"
	"github.com/Carmen-Shannon/oxy-lite/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

const playerSpeed float32 = 0.05

type playerBehavior struct{}

var _ Behavior = playerBehavior{}

func (playerBehavior) Initialize(ctx *Context, obj GameObject) error {
	shape, err := ctx.Shapes.Create(model.ShapeQuad)
	if err != nil {
		return err
	}
	obj.Set(mgl32.Vec3{-0.2, 0, 0.1}, mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}, mgl32.Vec4{0, 1, 0, 1}, shape)
	return nil
}

// Update moves the player on the ground plane and fires a bullet on a fresh press of B.
func (playerBehavior) Update(ctx *Context, obj GameObject) {
	var delta mgl32.Vec3
	if ctx.Input.Key(common.KeyW) {
		delta[2] += playerSpeed
	}
	if ctx.Input.Key(common.KeyS) {
		delta[2] -= playerSpeed
	}
	if ctx.Input.Key(common.KeyA) {
		delta[0] -= playerSpeed
	}
	if ctx.Input.Key(common.KeyD) {
		delta[0] += playerSpeed
	}
	if delta != (mgl32.Vec3{}) {
		obj.Translate(delta)
	}

	if ctx.Input.Trigger(common.KeyB) {
		ctx.Objects.Create(KindBullet, obj.Handle())
	}
}

func (playerBehavior) OnHit(ctx *Context, obj, other GameObject) {}

func (playerBehavior) HitTargetKind() (Kind, bool) {
	return 0, false
}
