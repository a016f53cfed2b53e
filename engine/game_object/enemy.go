package game_object

import (
	"github.com/Carmen-Shannon/oxy-lite/engine/model"
	"github.com/go-gl/mathgl/mgl32"
)

// enemyFade scales the green and blue channels on every hit, shifting the enemy towards red.
const enemyFade float32 = 0.95

type enemyBehavior struct{}

var _ Behavior = enemyBehavior{}

func (enemyBehavior) Initialize(ctx *Context, obj GameObject) error {
	shape, err := ctx.Shapes.Create(model.ShapeTriangle)
	if err != nil {
		return err
	}
	obj.Set(mgl32.Vec3{0, 0, 30}, mgl32.Vec3{}, mgl32.Vec3{10, 10, 1}, mgl32.Vec4{1, 1, 1, 1}, shape)
	return nil
}

func (enemyBehavior) Update(ctx *Context, obj GameObject) {}

func (enemyBehavior) OnHit(ctx *Context, obj, other GameObject) {
	c := obj.Color()
	c[1] *= enemyFade
	c[2] *= enemyFade
	obj.SetColor(c)
}

func (enemyBehavior) HitTargetKind() (Kind, bool) {
	return 0, false
}
