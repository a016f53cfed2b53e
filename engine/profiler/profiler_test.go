package profiler

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProfilerReportsOncePerInterval(t *testing.T) {
	var clock time.Duration
	var out bytes.Buffer
	p := NewProfiler(
		WithInterval(100*time.Millisecond),
		WithClock(func() time.Duration { return clock }),
		WithLogger(slog.New(slog.NewTextHandler(&out, nil))),
	)

	for _, step := range []time.Duration{10, 30, 20} {
		clock += step * time.Millisecond
		assert.False(t, p.Tick())
	}
	assert.Zero(t, p.Last().FPS)

	clock += 40 * time.Millisecond
	assert.True(t, p.Tick())
	s := p.Last()
	assert.Equal(t, 4, s.FramesInStat)
	assert.InDelta(t, 40.0, s.FPS, 1e-9)
	assert.Equal(t, 10*time.Millisecond, s.MinFrame)
	assert.Equal(t, 40*time.Millisecond, s.MaxFrame)
	assert.Contains(t, out.String(), "fps=40")

	clock += 5 * time.Millisecond
	assert.False(t, p.Tick())
}
