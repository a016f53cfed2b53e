package shader

import (
	"os"
	"slices"

	"github.com/Carmen-Shannon/oxy-lite/common"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"
	"github.com/gogpu/naga"
)

// shader is the implementation of the Shader interface.
// It holds the source, the compiled bytecode and the metadata parsed from the source.
type shader struct {
	path        string
	label       string
	source      string
	bytecode    []byte
	vertexEntry string
	pixelEntry  string
	inputLayout []gpu.InputElement
	bindings    []Binding

	compile func(source string) ([]byte, error)
}

// Shader is a WGSL source file compiled once at startup. It carries a vertex and a pixel entry point
// and the layout metadata the pipeline is checked against.
type Shader interface {
	// Path returns the file the shader was read from.
	Path() string

	// Label returns the debug label.
	Label() string

	// Source returns the WGSL source.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// Bytecode returns the SPIR-V produced by the compiler.
	//
	// Returns:
	//   - []byte: the compiled bytecode
	Bytecode() []byte

	// VertexEntry returns the vertex entry point name.
	VertexEntry() string

	// PixelEntry returns the pixel (fragment) entry point name.
	PixelEntry() string

	// InputLayout returns the vertex input layout parsed from the vertex input struct.
	//
	// Returns:
	//   - []gpu.InputElement: the elements, nil if the source declares no vertex input struct
	InputLayout() []gpu.InputElement

	// Bindings returns every resource declaration, sorted by group then binding.
	//
	// Returns:
	//   - []Binding: the declarations
	Bindings() []Binding

	// Binding looks up the declaration at a group and binding.
	//
	// Parameters:
	//   - group: the bind group index, equal to the root parameter slot
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - Binding: the declaration
	//   - bool: false if nothing is declared there
	Binding(group, binding uint32) (Binding, bool)

	// CreateModule creates the device shader module.
	//
	// Parameters:
	//   - device: the device
	//
	// Returns:
	//   - gpu.ShaderModule: the module
	//   - error: ErrShaderCompileFailed if the device rejects the source
	CreateModule(device gpu.Device) (gpu.ShaderModule, error)
}

var _ Shader = &shader{}

// Compile reads the WGSL file at path, checks it declares the vertex and pixel entry points and compiles it.
// It is called once at startup; there is no reload.
//
// Parameters:
//   - path: the source file path
//   - options: functional options for label, entry points and compiler
//
// Returns:
//   - Shader: the compiled shader
//   - error: ErrShaderCompileFailed if the file cannot be read, an entry point is missing or compilation fails
func Compile(path string, options ...ShaderBuilderOption) (Shader, error) {
	s := &shader{
		path:        path,
		label:       path,
		vertexEntry: "vs",
		pixelEntry:  "ps",
		compile:     naga.Compile,
	}
	for _, opt := range options {
		opt(s)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.MarkError(err, common.ErrShaderCompileFailed, "read shader source %q", path)
	}
	s.source = string(data)

	if !slices.Contains(parseEntryPoints(s.source, vertexEntryRegex), s.vertexEntry) {
		return nil, common.MarkError(nil, common.ErrShaderCompileFailed, "shader %q has no @vertex entry point %q", path, s.vertexEntry)
	}
	if !slices.Contains(parseEntryPoints(s.source, fragmentEntryRegex), s.pixelEntry) {
		return nil, common.MarkError(nil, common.ErrShaderCompileFailed, "shader %q has no @fragment entry point %q", path, s.pixelEntry)
	}

	s.bytecode, err = s.compile(s.source)
	if err != nil {
		return nil, common.MarkError(err, common.ErrShaderCompileFailed, "compile shader %q", path)
	}
	s.inputLayout = parseInputLayout(s.source)
	s.bindings = parseBindings(s.source)
	return s, nil
}

func (s *shader) Path() string {
	return s.path
}

func (s *shader) Label() string {
	return s.label
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) Bytecode() []byte {
	return s.bytecode
}

func (s *shader) VertexEntry() string {
	return s.vertexEntry
}

func (s *shader) PixelEntry() string {
	return s.pixelEntry
}

func (s *shader) InputLayout() []gpu.InputElement {
	return s.inputLayout
}

func (s *shader) Bindings() []Binding {
	return s.bindings
}

func (s *shader) Binding(group, binding uint32) (Binding, bool) {
	for _, b := range s.bindings {
		if b.Group == group && b.Binding == binding {
			return b, true
		}
	}
	return Binding{}, false
}

func (s *shader) CreateModule(device gpu.Device) (gpu.ShaderModule, error) {
	module, err := device.CreateShaderModule(s.label, s.source)
	if err != nil {
		return nil, common.MarkError(err, common.ErrShaderCompileFailed, "create shader module %q", s.label)
	}
	return module, nil
}
