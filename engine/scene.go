package engine

import (
	"github.com/Carmen-Shannon/oxy-lite/common"
	"github.com/Carmen-Shannon/oxy-lite/engine/camera"
	"github.com/Carmen-Shannon/oxy-lite/engine/game_object"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/shader"
)

// gameScene draws the camera constants and every live object into the frame.
type gameScene struct {
	camera  camera.Camera
	objects game_object.Manager
}

var _ renderer.Scene = &gameScene{}

func (s *gameScene) DrawScene(list command.List) error {
	if err := s.camera.UpdateDrawBuffer(); err != nil {
		return err
	}
	if err := s.camera.Draw(list, pipeline.SlotScene); err != nil {
		return err
	}
	return s.objects.Draw(list, pipeline.SlotObject)
}

// checkUniformSize verifies the uniform the shader reads at group slot, binding 0, has the
// byte size of the constants the CPU uploads there. Unresolvable sizes are accepted.
func checkUniformSize(sh shader.Shader, slot uint32, want int) error {
	b, ok := sh.Binding(slot, 0)
	if !ok {
		return common.MarkError(nil, common.ErrShaderCompileFailed, "shader %q has no uniform at group %d", sh.Label(), slot)
	}
	if b.Size != 0 && b.Size != uint64(want) {
		return common.MarkError(nil, common.ErrShaderCompileFailed,
			"shader %q: %s is %d bytes, constants are %d", sh.Label(), b.TypeName, b.Size, want)
	}
	return nil
}
