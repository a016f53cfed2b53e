package model

import "log/slog"

// ShapeContainerBuilderOption is a functional option for configuring a ShapeContainer via NewShapeContainer.
type ShapeContainerBuilderOption func(*shapeContainer)

// WithLogger sets the logger shape uploads are reported to.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - ShapeContainerBuilderOption: a function that applies the logger option to a container
func WithLogger(logger *slog.Logger) ShapeContainerBuilderOption {
	return func(c *shapeContainer) {
		c.logger = logger
	}
}
