package engine

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1280, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height)
	assert.Equal(t, 2, cfg.Renderer.BufferCount)
	assert.Equal(t, uint64(10), cfg.Game.DeleteDelay)
	assert.True(t, cfg.Renderer.VSync)
}

func TestParseConfigOverlaysDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
[window]
title = "Test"
width = 800

[renderer]
vsync = false
cbv_heap_size = 64

[log]
level = "debug"
`))
	require.NoError(t, err)
	assert.Equal(t, "Test", cfg.Window.Title)
	assert.Equal(t, 800, cfg.Window.Width)
	assert.Equal(t, 720, cfg.Window.Height)
	assert.False(t, cfg.Renderer.VSync)
	assert.Equal(t, 64, cfg.Renderer.CBVHeapSize)
	assert.Equal(t, "asset/shader.wgsl", cfg.Renderer.ShaderPath)

	level, err := cfg.Log.level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestParseConfigErrors(t *testing.T) {
	for name, doc := range map[string]string{
		"syntax":        "[window\nwidth = 1",
		"unknown key":   "[window]\ncolour = 3",
		"buffer count":  "[renderer]\nbuffer_count = 1",
		"feature level": "[renderer]\nmin_feature_level = \"9_1\"",
		"level order":   "[renderer]\nmin_feature_level = \"12_0\"\ncreation_feature_level = \"11_0\"",
		"backend":       "[renderer]\nbackend = \"vulkan\"",
		"window":        "[window]\nbackend = \"sdl\"",
		"log level":     "[log]\nlevel = \"loud\"",
		"size":          "[window]\nheight = 0",
	} {
		_, err := ParseConfig([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "oxy.toml")
	require.NoError(t, os.WriteFile(path, []byte("[game]\nworkers = 3\n"), 0o600))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Game.Workers)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestHeadlessConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Headless()
	assert.Equal(t, "headless", cfg.Window.Backend)
	assert.Equal(t, "headless", cfg.Renderer.Backend)
	assert.Equal(t, DefaultHeadlessFrames, cfg.Window.FrameLimit)
	require.NoError(t, cfg.Validate())

	rendererOptions := cfg.rendererOptions()
	assert.Len(t, rendererOptions, 7)
}
