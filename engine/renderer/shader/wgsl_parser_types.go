package shader

import "github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"

// vertexFormatInfo holds the vertex format and its byte size for offset calculation
type vertexFormatInfo struct {
	format gpu.VertexFormat
	size   uint32
}

// wgslTypeLayout holds the byte size and alignment for a WGSL type per the WGSL specification.
// Used to report the size of uniform bindings.
type wgslTypeLayout struct {
	size  uint64
	align uint64
}

// parsedField represents a single field extracted from a WGSL struct during parsing
type parsedField struct {
	name      string
	typeName  string
	location  int
	isBuiltin bool
}

// parsedStruct represents a WGSL struct block extracted during parsing
type parsedStruct struct {
	name   string
	fields []parsedField
}

// Binding is one @group(N) @binding(M) resource declaration of a shader.
type Binding struct {
	Group        uint32
	Binding      uint32
	Name         string
	AddressSpace string
	TypeName     string

	// Size is the byte size of the bound type, zero when it cannot be resolved
	Size uint64
}
