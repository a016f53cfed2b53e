package shader

// ShaderBuilderOption is a functional option used to configure Compile.
type ShaderBuilderOption func(*shader)

// WithLabel sets the debug label attached to the shader module.
//
// Parameters:
//   - label: the label (default the source path)
//
// Returns:
//   - ShaderBuilderOption: a function that sets the label
func WithLabel(label string) ShaderBuilderOption {
	return func(s *shader) {
		s.label = label
	}
}

// WithEntryPoints sets the entry point names that must be present.
//
// Parameters:
//   - vertex: the vertex entry point (default "vs")
//   - pixel: the pixel entry point (default "ps")
//
// Returns:
//   - ShaderBuilderOption: a function that sets the entry points
func WithEntryPoints(vertex, pixel string) ShaderBuilderOption {
	return func(s *shader) {
		s.vertexEntry = vertex
		s.pixelEntry = pixel
	}
}

// WithCompiler replaces the WGSL compiler, which defaults to naga.Compile.
//
// Parameters:
//   - compile: a function turning WGSL source into bytecode
//
// Returns:
//   - ShaderBuilderOption: a function that sets the compiler
func WithCompiler(compile func(source string) ([]byte, error)) ShaderBuilderOption {
	return func(s *shader) {
		s.compile = compile
	}
}
