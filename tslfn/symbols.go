package tslfn

import "sort"

// knownSymbols is the allow-list of shading library names custom
// functions may reference without a backend export.
var knownSymbols = setOf(
	"float", "int", "bool", "vec2", "vec3", "vec4", "color", "time", "Fn",
	"sin", "cos", "tan", "asin", "acos", "atan", "atan2", "radians", "degrees",
	"add", "sub", "mul", "div", "min", "max", "mod", "pow", "sqrt", "exp", "log", "exp2", "log2",
	"abs", "sign", "floor", "ceil", "round", "fract", "trunc",
	"clamp", "saturate", "mix", "step", "smoothstep",
	"dot", "length", "normalize", "distance", "cross",
	"If", "Loop", "Break", "Continue", "Discard",
	"positionWorld", "positionLocal", "positionView", "normalWorld", "normalView", "uv", "screenUV",
	"uniform", "varying", "attribute", "texture", "hash", "rand",
)

// fnSymbols are the names scanned in custom function bodies to build the
// import list of generated programs.
var fnSymbols = setOf(append(keys(knownSymbols),
	"negate", "pow2", "pow3", "pow4", "inverseSqrt", "triNoise3D", "interleavedGradientNoise",
	"oneMinusX", "oneDivX", "cbrt", "equals", "all", "any",
)...)

// language-level names that are always bound.
var builtins = setOf("TSL", "Math", "true", "false", "null", "undefined", "NaN", "Infinity")

// IsKnownSymbol reports whether name is always bound inside custom functions.
func IsKnownSymbol(name string) bool { return knownSymbols[name] || builtins[name] }

// KnownSymbols returns the sorted allow-list of shading library names.
func KnownSymbols() []string { return keys(knownSymbols) }

// FnSymbols returns the sorted list of names recognized by [ScanSymbols].
func FnSymbols() []string { return keys(fnSymbols) }

func setOf(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

func keys(m map[string]bool) []string {
	s := make([]string, 0, len(m))
	for k := range m {
		s = append(s, k)
	}
	sort.Strings(s)
	return s
}
