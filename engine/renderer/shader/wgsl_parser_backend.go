package shader

import (
	"sort"
	"strconv"
	"strings"

	"github.com/Carmen-Shannon/oxy-lite/common"
	"github.com/Carmen-Shannon/oxy-lite/engine/renderer/gpu"
)

// wgslPrimitiveLayoutMap maps WGSL scalar, vector and matrix type names
// to their byte size and alignment per the WGSL specification.
//
// Reference: https://www.w3.org/TR/WGSL/#alignment-and-size
var wgslPrimitiveLayoutMap = map[string]wgslTypeLayout{
	"f32":  {4, 4},
	"i32":  {4, 4},
	"u32":  {4, 4},
	"bool": {4, 4},

	"vec2<f32>": {8, 8},
	"vec2f":     {8, 8},
	"vec3<f32>": {12, 16},
	"vec3f":     {12, 16},
	"vec4<f32>": {16, 16},
	"vec4f":     {16, 16},

	"mat3x3<f32>": {48, 16},
	"mat3x3f":     {48, 16},
	"mat4x4<f32>": {64, 16},
	"mat4x4f":     {64, 16},
}

// resolveTypeLayout returns the size and alignment of a WGSL type. Struct types must already be
// present in structs; fixed-size arrays are resolved from their element type. Runtime-sized arrays
// and unknown types report false.
func resolveTypeLayout(typeName string, structs map[string]wgslTypeLayout) (wgslTypeLayout, bool) {
	if layout, ok := wgslPrimitiveLayoutMap[typeName]; ok {
		return layout, true
	}
	if layout, ok := structs[typeName]; ok {
		return layout, true
	}

	inner, ok := strings.CutPrefix(typeName, "array<")
	if !ok {
		return wgslTypeLayout{}, false
	}
	inner, ok = strings.CutSuffix(inner, ">")
	if !ok {
		return wgslTypeLayout{}, false
	}
	elemName, countText, ok := strings.Cut(inner, ",")
	if !ok {
		return wgslTypeLayout{}, false
	}
	elem, ok := resolveTypeLayout(strings.TrimSpace(elemName), structs)
	if !ok {
		return wgslTypeLayout{}, false
	}
	count, err := strconv.ParseUint(strings.TrimSpace(countText), 10, 64)
	if err != nil {
		return wgslTypeLayout{}, false
	}
	return wgslTypeLayout{size: count * common.AlignUp(elem.size, elem.align), align: elem.align}, true
}

// structLayout places each non-builtin field at its next aligned offset and rounds the total up
// to the widest field alignment.
func structLayout(ps parsedStruct, structs map[string]wgslTypeLayout) (wgslTypeLayout, bool) {
	var offset uint64
	align := uint64(1)
	for _, f := range ps.fields {
		if f.isBuiltin {
			continue
		}
		field, ok := resolveTypeLayout(f.typeName, structs)
		if !ok {
			return wgslTypeLayout{}, false
		}
		offset = common.AlignUp(offset, field.align) + field.size
		align = max(align, field.align)
	}
	return wgslTypeLayout{size: common.AlignUp(offset, align), align: align}, true
}

// computeStructSizes lays out every struct it can. Structs nested in other structs may be declared
// in any order, so passes repeat until one resolves nothing new.
func computeStructSizes(structs []parsedStruct) map[string]wgslTypeLayout {
	resolved := make(map[string]wgslTypeLayout, len(structs))
	for changed := true; changed; {
		changed = false
		for _, ps := range structs {
			if _, done := resolved[ps.name]; done {
				continue
			}
			if layout, ok := structLayout(ps, resolved); ok {
				resolved[ps.name] = layout
				changed = true
			}
		}
	}
	return resolved
}

// stripComments blanks out // line comments and nested /* */ block comments. Newlines are kept
// so the remaining text lines up with the source.
func stripComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	for i := 0; i < len(source); i++ {
		c := source[i]
		var next byte
		if i+1 < len(source) {
			next = source[i+1]
		}
		switch {
		case c == '/' && next == '*':
			depth++
			i++
		case c == '*' && next == '/' && depth > 0:
			depth--
			i++
		case depth == 0 && c == '/' && next == '/':
			for i < len(source) && source[i] != '\n' {
				i++
			}
			if i < len(source) {
				sb.WriteByte('\n')
			}
		case depth == 0 || c == '\n':
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// isVertexInputStruct returns true if the struct is a pure vertex input, meaning
// it has at least one @location field and zero @builtin fields. This distinguishes
// vertex input structs from vertex output structs which mix @location with @builtin(position).
func isVertexInputStruct(ps parsedStruct) bool {
	hasLocation := false
	for _, f := range ps.fields {
		if f.isBuiltin {
			return false
		}
		if f.location >= 0 {
			hasLocation = true
		}
	}
	return hasLocation
}

// buildInputLayout converts a parsed vertex input struct into input elements at sequential
// byte offsets, ordered by location. Returns false if any field has an unsupported type.
func buildInputLayout(ps parsedStruct) ([]gpu.InputElement, bool) {
	fields := make([]parsedField, len(ps.fields))
	copy(fields, ps.fields)
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].location < fields[j].location
	})

	elements := make([]gpu.InputElement, 0, len(fields))
	var offset uint32
	for _, f := range fields {
		info, ok := wgslVertexFormatMap[f.typeName]
		if !ok {
			return nil, false
		}
		elements = append(elements, gpu.InputElement{
			Semantic: strings.ToUpper(f.name),
			Format:   info.format,
			Offset:   offset,
		})
		offset += info.size
	}
	return elements, true
}

// splitAtTopLevelCommas splits a string at commas that are not nested inside angle brackets.
// This correctly handles WGSL types like array<vec4f, 6> where the comma is part of
// the type syntax rather than a field separator.
func splitAtTopLevelCommas(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
