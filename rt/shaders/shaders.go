package shaders

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"
)

//go:embed compute.wgsl
var ComputeWGSL string

//go:embed raymarch.wgsl
var RaymarchWGSL string

// WithBounds prepends the FIELD_MIN / FIELD_MAX constants both programs
// reference.
func WithBounds(src string, min, max [3]float32) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "const FIELD_MIN: vec3<f32> = %s;\n", vec3Literal(min))
	fmt.Fprintf(&sb, "const FIELD_MAX: vec3<f32> = %s;\n\n", vec3Literal(max))
	sb.WriteString(src)
	return sb.String()
}

func vec3Literal(v [3]float32) string {
	parts := make([]string, 3)
	for i, c := range v {
		parts[i] = floatLiteral(c)
	}
	return "vec3<f32>(" + strings.Join(parts, ", ") + ")"
}

func floatLiteral(f float32) string {
	s := strconv.FormatFloat(float64(f), 'f', -1, 32)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
