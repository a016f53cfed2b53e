package game_object

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-lite/common"
)

// ManagerBuilderOption is a functional option for configuring a Manager via NewManager.
type ManagerBuilderOption func(*manager)

// WithDeleteDelay sets how many frames a deleted object keeps its GPU resources before release.
// It must cover every frame that may still be in flight.
//
// Parameters:
//   - frames: the delay in frames
//
// Returns:
//   - ManagerBuilderOption: a function that applies the delay option to a manager
func WithDeleteDelay(frames uint64) ManagerBuilderOption {
	return func(m *manager) {
		m.deleteDelay = frames
	}
}

// WithWorkers sets the number of workers writing per-object constant buffers.
//
// Parameters:
//   - n: the worker count; values below 1 are ignored
//
// Returns:
//   - ManagerBuilderOption: a function that applies the worker count option to a manager
func WithWorkers(n int) ManagerBuilderOption {
	return func(m *manager) {
		if n > 0 {
			m.workers = n
		}
	}
}

// WithLogger sets the logger object lifecycle events are reported to.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - ManagerBuilderOption: a function that applies the logger option to a manager
func WithLogger(logger *slog.Logger) ManagerBuilderOption {
	return func(m *manager) {
		m.logger = logger
	}
}

// WithFrustum makes Draw skip objects whose bounding sphere lies outside the frustum the function returns.
// The function is called once per Draw.
//
// Parameters:
//   - frustum: returns the current view frustum
//
// Returns:
//   - ManagerBuilderOption: a function that applies the culling option to a manager
func WithFrustum(frustum func() common.Frustum) ManagerBuilderOption {
	return func(m *manager) {
		m.frustum = frustum
	}
}
