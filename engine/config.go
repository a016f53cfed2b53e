package engine

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-lite/engine/renderer"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"
	"github.com/Carmen-Shannon/oxy-lite/engine/window"
	"github.com/cockroachdb/errors"
	"github.com/pelletier/go-toml/v2"
)

// DefaultHeadlessFrames is the frame budget a headless run gets when none is configured.
const DefaultHeadlessFrames = 600

// Config is the engine configuration, loaded from TOML.
type Config struct {
	Window   WindowConfig   `toml:"window"`
	Renderer RendererConfig `toml:"renderer"`
	Game     GameConfig     `toml:"game"`
	Log      LogConfig      `toml:"log"`
}

// WindowConfig configures the window.
type WindowConfig struct {
	Title   string `toml:"title"`
	Width   int    `toml:"width"`
	Height  int    `toml:"height"`
	Backend string `toml:"backend"`

	// FrameLimit ends a headless run after this many frames. Zero runs until the window closes.
	FrameLimit int `toml:"frame_limit"`
}

// RendererConfig configures the render core.
type RendererConfig struct {
	Backend              string `toml:"backend"`
	BufferCount          int    `toml:"buffer_count"`
	VSync                bool   `toml:"vsync"`
	CBVHeapSize          int    `toml:"cbv_heap_size"`
	ShaderPath           string `toml:"shader_path"`
	FenceTimeoutMs       int    `toml:"fence_timeout_ms"`
	MinFeatureLevel      string `toml:"min_feature_level"`
	CreationFeatureLevel string `toml:"creation_feature_level"`
	ForceSoftware        bool   `toml:"force_software"`
}

// GameConfig configures the object layer and the frame loop.
type GameConfig struct {
	DeleteDelay    uint64  `toml:"delete_delay"`
	Workers        int     `toml:"workers"`
	FrameRateLimit float64 `toml:"frame_rate_limit"`
	Profiling      bool    `toml:"profiling"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// DefaultConfig returns the configuration used when no file is given.
//
// Returns:
//   - Config: the defaults
func DefaultConfig() Config {
	return Config{
		Window: WindowConfig{
			Title:   "DirectX12 Game",
			Width:   1280,
			Height:  720,
			Backend: "glfw",
		},
		Renderer: RendererConfig{
			Backend:              "wgpu",
			BufferCount:          2,
			VSync:                true,
			CBVHeapSize:          256,
			ShaderPath:           "asset/shader.wgsl",
			FenceTimeoutMs:       5000,
			MinFeatureLevel:      "11_0",
			CreationFeatureLevel: "12_0",
		},
		Game: GameConfig{
			DeleteDelay: 10,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads a TOML file over the defaults. Keys missing from the file keep their default;
// unknown keys are an error.
//
// Parameters:
//   - path: the file to read
//
// Returns:
//   - Config: the merged configuration
//   - error: the file cannot be read, parsed or validated
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %q", path)
	}
	return ParseConfig(data)
}

// ParseConfig decodes TOML over the defaults and validates the result.
//
// Parameters:
//   - data: the TOML document
//
// Returns:
//   - Config: the merged configuration
//   - error: the document cannot be parsed or validated
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return Config{}, errors.Wrapf(err, "parse config at %d:%d", row, col)
		}
		return Config{}, errors.Wrap(err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Headless switches both the window and the renderer to their headless backends and gives the run a
// frame budget if it has none.
func (c *Config) Headless() {
	c.Window.Backend = "headless"
	c.Renderer.Backend = "headless"
	if c.Window.FrameLimit <= 0 {
		c.Window.FrameLimit = DefaultHeadlessFrames
	}
}

// Validate reports the first invalid setting.
//
// Returns:
//   - error: nil if the configuration can be used
func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return errors.Newf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if _, err := window.ParseBackendType(c.Window.Backend); err != nil {
		return err
	}
	if _, err := renderer.ParseBackendType(c.Renderer.Backend); err != nil {
		return err
	}
	if c.Renderer.BufferCount < 2 {
		return errors.Newf("renderer buffer_count %d must be at least 2", c.Renderer.BufferCount)
	}
	if c.Renderer.CBVHeapSize < 1 {
		return errors.Newf("renderer cbv_heap_size %d must be positive", c.Renderer.CBVHeapSize)
	}
	if c.Renderer.ShaderPath == "" {
		return errors.New("renderer shader_path is empty")
	}
	if c.Renderer.FenceTimeoutMs <= 0 {
		return errors.Newf("renderer fence_timeout_ms %d must be positive", c.Renderer.FenceTimeoutMs)
	}
	minimum, err := parseFeatureLevel(c.Renderer.MinFeatureLevel)
	if err != nil {
		return err
	}
	creation, err := parseFeatureLevel(c.Renderer.CreationFeatureLevel)
	if err != nil {
		return err
	}
	if creation < minimum {
		return errors.Newf("creation feature level %s is below the minimum %s", creation, minimum)
	}
	if c.Game.Workers < 0 {
		return errors.Newf("game workers %d must not be negative", c.Game.Workers)
	}
	if c.Game.FrameRateLimit < 0 {
		return errors.Newf("game frame_rate_limit %g must not be negative", c.Game.FrameRateLimit)
	}
	if _, err := c.Log.level(); err != nil {
		return err
	}
	return nil
}

// rendererOptions translates the configuration into renderer builder options. It assumes Validate passed.
func (c Config) rendererOptions() []renderer.RendererBuilderOption {
	backend, _ := renderer.ParseBackendType(c.Renderer.Backend)
	minimum, _ := parseFeatureLevel(c.Renderer.MinFeatureLevel)
	creation, _ := parseFeatureLevel(c.Renderer.CreationFeatureLevel)
	mode := renderer.PresentModeVSync
	if !c.Renderer.VSync {
		mode = renderer.PresentModeUncapped
	}
	return []renderer.RendererBuilderOption{
		renderer.WithBackend(backend),
		renderer.WithBufferCount(c.Renderer.BufferCount),
		renderer.WithPresentMode(mode),
		renderer.WithCBVHeapSize(c.Renderer.CBVHeapSize),
		renderer.WithFenceTimeout(time.Duration(c.Renderer.FenceTimeoutMs) * time.Millisecond),
		renderer.WithFeatureLevels(minimum, creation),
		renderer.WithForceSoftwareRenderer(c.Renderer.ForceSoftware),
	}
}

func (l LogConfig) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, errors.Wrapf(err, "log level %q", l.Level)
	}
	return level, nil
}

// NewLogger builds the text logger the configuration asks for.
//
// Parameters:
//   - out: where log records are written
//
// Returns:
//   - *slog.Logger: the logger
func (l LogConfig) NewLogger(out io.Writer) *slog.Logger {
	level, err := l.level()
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}

func parseFeatureLevel(name string) (gpu.FeatureLevel, error) {
	for _, level := range []gpu.FeatureLevel{gpu.FeatureLevel11_0, gpu.FeatureLevel12_0} {
		if level.String() == name {
			return level, nil
		}
	}
	return 0, errors.Newf("unknown feature level %q", name)
}
