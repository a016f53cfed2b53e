package buffer

// BufferBuilderOption is a functional option used to configure a buffer during construction.
type BufferBuilderOption func(*bufferConfig)

type bufferConfig struct {
	label string
}

// WithLabel sets the debug label of the buffer.
//
// Parameters:
//   - label: the label
//
// Returns:
//   - BufferBuilderOption: a function that sets the label
func WithLabel(label string) BufferBuilderOption {
	return func(c *bufferConfig) {
		c.label = label
	}
}

func newBufferConfig(label string, options []BufferBuilderOption) bufferConfig {
	c := bufferConfig{label: label}
	for _, opt := range options {
		opt(&c)
	}
	return c
}
