package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Carmen-Shannon/oxy-lite/common"
	"github.com/Carmen-Shannon/oxy-lite/engine/camera"
	"github.com/Carmen-Shannon/oxy-lite/engine/game_object"
	"github.com/Carmen-Shannon/oxy-lite/engine/input"
	"github.com/Carmen-Shannon/oxy-lite/engine/model"
	"github.com/Carmen-Shannon/oxy-lite/engine/profiler"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-lite/engine/window"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/loov/hrtime"
	"golang.org/x/sync/errgroup"
)

// engine implements the Engine interface.
// Owns every subsystem and drives them from one goroutine.
type engine struct {
	cfg    Config
	runID  uuid.UUID
	logger *slog.Logger

	window   window.Window
	input    input.Input
	renderer renderer.Renderer
	shapes   model.ShapeContainer
	camera   camera.Camera
	objects  game_object.Manager
	scene    *gameScene

	profiler         *profiler.Profiler
	profilingEnabled bool
	frameLimit       time.Duration

	shaderOptions   []shader.ShaderBuilderOption
	rendererOptions []renderer.RendererBuilderOption
	frameCallback   func(frame uint64, deltaTime float32)

	// pendingResize holds the last size reported by the window since the previous frame.
	pendingResize *[2]int

	closed bool
}

// Engine is the main entry point for the engine.
// It wires the window, input, renderer, camera and object layer together and runs the frame loop.
type Engine interface {
	// Run pumps window messages and renders frames until the window closes, the context is cancelled
	// or a fatal error occurs. Everything is torn down before Run returns.
	//
	// Parameters:
	//   - ctx: cancels the loop and bounds GPU waits
	//
	// Returns:
	//   - error: the fatal error that stopped the loop, nil on a normal close
	Run(ctx context.Context) error

	// RunID returns the id attached to every log record of this run.
	RunID() uuid.UUID

	// Window returns the underlying window.
	Window() window.Window

	// Input returns the keyboard state.
	Input() input.Input

	// Renderer returns the render core.
	Renderer() renderer.Renderer

	// Camera returns the scene camera.
	Camera() camera.Camera

	// Objects returns the game object manager.
	Objects() game_object.Manager

	// Close tears everything down without running. Safe to call after Run and more than once.
	//
	// Parameters:
	//   - ctx: bounds the wait for in-flight GPU work
	//
	// Returns:
	//   - error: a teardown error
	Close(ctx context.Context) error
}

var _ Engine = &engine{}

// NewEngine creates the window, compiles the shader, brings up the renderer, uploads the shapes and
// spawns the player and the enemy. On any failure everything created so far is released.
//
// Parameters:
//   - ctx: bounds startup work
//   - cfg: the configuration; it is validated first
//   - options: functional options
//
// Returns:
//   - Engine: the ready engine
//   - error: the first startup failure
func NewEngine(ctx context.Context, cfg Config, options ...EngineBuilderOption) (Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	e := &engine{
		cfg:              cfg,
		runID:            uuid.New(),
		logger:           slog.Default(),
		input:            input.NewInput(),
		profilingEnabled: cfg.Game.Profiling,
	}
	for _, opt := range options {
		opt(e)
	}
	e.logger = e.logger.With("run", e.runID.String())
	if cfg.Game.FrameRateLimit > 0 {
		e.frameLimit = time.Duration(float64(time.Second) / cfg.Game.FrameRateLimit)
	}
	e.profiler = profiler.NewProfiler(profiler.WithLogger(e.logger))

	if err := e.init(ctx); err != nil {
		if cerr := e.Close(ctx); cerr != nil {
			e.logger.Warn("teardown after failed startup", "error", cerr)
		}
		return nil, err
	}
	return e, nil
}

func (e *engine) init(ctx context.Context) error {
	if e.window == nil {
		backend, _ := window.ParseBackendType(e.cfg.Window.Backend)
		w, err := window.NewWindow(
			window.WithBackend(backend),
			window.WithTitle(e.cfg.Window.Title),
			window.WithWidth(e.cfg.Window.Width),
			window.WithHeight(e.cfg.Window.Height),
			window.WithFrameLimit(e.cfg.Window.FrameLimit),
			window.WithLogger(e.logger),
		)
		if err != nil {
			return err
		}
		e.window = w
	}
	e.window.SetKeyDownCallback(e.input.KeyDown)
	e.window.SetKeyUpCallback(e.input.KeyUp)
	e.window.SetResizeCallback(func(width, height int) {
		e.pendingResize = &[2]int{width, height}
	})

	// Shader compilation and mesh generation are independent CPU work.
	var sh shader.Shader
	var meshes []model.Mesh
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sh, err = shader.Compile(e.cfg.Renderer.ShaderPath, e.shaderOptions...)
		return err
	})
	g.Go(func() error {
		var err error
		meshes, err = model.BuildMeshes(gctx, model.ShapeQuad, model.ShapeTriangle)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	var sceneConstants camera.GPUSceneConstants
	var objectConstants game_object.GPUObjectConstants
	if err := checkUniformSize(sh, pipeline.SlotScene, sceneConstants.Size()); err != nil {
		return err
	}
	if err := checkUniformSize(sh, pipeline.SlotObject, objectConstants.Size()); err != nil {
		return err
	}

	options := append(e.cfg.rendererOptions(),
		renderer.WithSurfaceDescriptor(e.window.SurfaceDescriptor()),
		renderer.WithSize(uint32(e.window.Width()), uint32(e.window.Height())),
		renderer.WithShader(sh),
		renderer.WithLogger(e.logger),
	)
	r, err := renderer.NewRenderer(append(options, e.rendererOptions...)...)
	if err != nil {
		return err
	}
	e.renderer = r
	device := r.Device().GPU()

	e.shapes = model.NewShapeContainer(device, model.WithLogger(e.logger))
	for _, m := range meshes {
		if _, err := e.shapes.Add(m); err != nil {
			return errors.Wrapf(err, "upload %s", m.Type)
		}
	}

	sceneParam, err := r.RootSignature().Parameter(pipeline.SlotScene)
	if err != nil {
		return err
	}
	objectParam, err := r.RootSignature().Parameter(pipeline.SlotObject)
	if err != nil {
		return err
	}

	width, height := r.Size()
	e.camera = camera.NewCamera(camera.WithAspect(float32(width) / float32(height)))
	if err := e.camera.CreateDrawBuffer(device, r.CBVHeap(), sceneParam); err != nil {
		return err
	}

	managerOptions := []game_object.ManagerBuilderOption{
		game_object.WithDeleteDelay(e.cfg.Game.DeleteDelay),
		game_object.WithFrustum(e.camera.Frustum),
		game_object.WithLogger(e.logger),
	}
	if e.cfg.Game.Workers > 0 {
		managerOptions = append(managerOptions, game_object.WithWorkers(e.cfg.Game.Workers))
	}
	e.objects = game_object.NewManager(device, r.CBVHeap(), objectParam, e.shapes, e.input, managerOptions...)
	e.objects.Create(game_object.KindPlayer, game_object.NoHandle)
	e.objects.Create(game_object.KindEnemy, game_object.NoHandle)

	e.scene = &gameScene{camera: e.camera, objects: e.objects}
	e.logger.Info("engine ready",
		"adapter", r.Device().Adapter().Name,
		"feature_level", r.Device().FeatureLevel(),
		"width", width,
		"height", height,
	)
	return nil
}

func (e *engine) Run(ctx context.Context) (err error) {
	if e.closed {
		return common.MarkError(nil, common.ErrNotInitialized, "run of closed engine")
	}
	defer func() {
		if r := recover(); r != nil {
			if rerr, ok := r.(error); ok {
				err = errors.WithStack(rerr)
			} else {
				err = errors.WithStack(fmt.Errorf("panic in frame loop: %v", r))
			}
		}
		// teardown must not be bounded by a context that may already be cancelled
		err = errors.CombineErrors(err, e.Close(context.Background()))
	}()

	last := hrtime.Now()
	for e.window.ProcessMessages() {
		if ctx.Err() != nil {
			e.logger.Info("frame loop cancelled", "frames", e.renderer.FrameCount())
			return nil
		}
		now := hrtime.Now()
		dt := float32((now - last).Seconds())
		last = now

		if err := e.frame(ctx, dt); err != nil {
			return err
		}
		if e.profilingEnabled {
			e.profiler.Tick()
		}
		if e.frameLimit > 0 {
			if remaining := e.frameLimit - (hrtime.Now() - now); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
	e.logger.Info("window closed", "frames", e.renderer.FrameCount())
	return nil
}

// frame runs one simulation step and renders it. Non-fatal errors are logged and the frame is dropped.
func (e *engine) frame(ctx context.Context, dt float32) error {
	if size := e.pendingResize; size != nil {
		e.pendingResize = nil
		if err := e.resize(ctx, size[0], size[1]); err != nil {
			return err
		}
	}

	e.input.Update()
	e.camera.Update()
	if err := e.objects.Update(); err != nil {
		return err
	}
	e.objects.PostUpdate()
	if e.frameCallback != nil {
		e.frameCallback(e.objects.Frame(), dt)
	}

	if err := e.renderer.RenderFrame(ctx, e.scene); err != nil {
		if common.IsFatal(err) {
			return err
		}
		e.logger.Warn("frame dropped", "frame", e.renderer.FrameCount(), "error", err)
	}
	return nil
}

// resize applies a window size change. A minimised window reports zero and is ignored.
func (e *engine) resize(ctx context.Context, width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	if err := e.renderer.Resize(ctx, uint32(width), uint32(height)); err != nil {
		return err
	}
	e.camera.SetAspect(float32(width) / float32(height))
	e.logger.Debug("resized", "width", width, "height", height)
	return nil
}

// Close releases in dependency order: the GPU is drained first, then object and camera constant
// buffers go back to the CBV heap before the renderer destroys it.
func (e *engine) Close(ctx context.Context) error {
	if e.closed {
		return nil
	}
	e.closed = true

	var err error
	if e.renderer != nil {
		err = errors.CombineErrors(err, e.renderer.WaitIdle(ctx))
	}
	if e.objects != nil {
		e.objects.Clear()
	}
	if e.camera != nil {
		err = errors.CombineErrors(err, e.camera.Release())
	}
	if e.shapes != nil {
		e.shapes.Release()
	}
	if e.renderer != nil {
		err = errors.CombineErrors(err, e.renderer.Close(ctx))
	}
	if e.window != nil {
		err = errors.CombineErrors(err, e.window.Close())
	}
	return err
}

func (e *engine) RunID() uuid.UUID {
	return e.runID
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Input() input.Input {
	return e.input
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Camera() camera.Camera {
	return e.camera
}

func (e *engine) Objects() game_object.Manager {
	return e.objects
}
