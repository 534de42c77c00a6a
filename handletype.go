package gtsl

import (
	"fmt"
	"strings"
)

// Type is the declared data type of a handle. TypeAny disables coercion.
type Type uint8

const (
	TypeAny Type = iota
	TypeFloat
	TypeInt
	TypeVec2
	TypeVec3
	TypeVec4
	TypeColor
	TypeBool
	TypeTexture
)

var typeNames = [...]string{
	TypeAny:     "any",
	TypeFloat:   "float",
	TypeInt:     "int",
	TypeVec2:    "vec2",
	TypeVec3:    "vec3",
	TypeVec4:    "vec4",
	TypeColor:   "color",
	TypeBool:    "bool",
	TypeTexture: "texture",
}

var typeColors = [...]string{
	TypeFloat:   "#9c27b0",
	TypeInt:     "#9c27b0",
	TypeVec2:    "#2196f3",
	TypeVec3:    "#ffc107",
	TypeVec4:    "#e91e63",
	TypeColor:   "#e91e63",
	TypeTexture: "#4caf50",
	TypeBool:    "#795548",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Type(" + fmt.Sprint(uint8(t)) + ")"
}

// ParseType parses a type name. The empty string parses as TypeAny.
func ParseType(s string) (Type, error) {
	if s == "" {
		return TypeAny, nil
	}
	for i, name := range typeNames {
		if strings.EqualFold(s, name) {
			return Type(i), nil
		}
	}
	return TypeAny, fmt.Errorf("unknown handle type %q", s)
}

// Color returns the display color of the type, or the empty string for TypeAny.
func (t Type) Color() string {
	if int(t) < len(typeColors) {
		return typeColors[t]
	}
	return ""
}

// Arity returns the number of scalar components of the type. Colors have
// three components. Textures and TypeAny return 0.
func (t Type) Arity() int {
	switch t {
	case TypeFloat, TypeInt, TypeBool:
		return 1
	case TypeVec2:
		return 2
	case TypeVec3, TypeColor:
		return 3
	case TypeVec4:
		return 4
	}
	return 0
}

// IsScalar reports whether t is float-like.
func (t Type) IsScalar() bool { return t.Arity() == 1 }

// IsVector reports whether t has more than one component.
func (t Type) IsVector() bool { return t.Arity() > 1 }

var handleTypes = map[string]Type{
	"color:color": TypeVec4,
	"color:r":     TypeFloat,
	"color:g":     TypeFloat,
	"color:b":     TypeFloat,
	"color:rgb":   TypeVec3,
	"float:value": TypeFloat,
	"float:out":   TypeFloat,
	"int:value":   TypeInt,
	"int:out":     TypeInt,
	"vec2:x":      TypeFloat,
	"vec2:y":      TypeFloat,
	"vec2:xy":     TypeVec2,
	"vec3:x":      TypeFloat,
	"vec3:y":      TypeFloat,
	"vec3:z":      TypeFloat,
	"vec3:xyz":    TypeVec3,
	"vec4:x":      TypeFloat,
	"vec4:y":      TypeFloat,
	"vec4:z":      TypeFloat,
	"vec4:w":      TypeFloat,
	"vec4:xyzw":   TypeVec4,

	"instanceCount:out": TypeInt,
	"instanceIndex:out": TypeInt,
	"time:out":          TypeFloat,
	"uv:index":          TypeInt,

	"modelPosition:out":     TypeVec3,
	"modelViewPosition:out": TypeVec3,
	"modelScale:out":        TypeVec3,
	"modelDirection:out":    TypeVec3,
}

func init() {
	for _, k := range []Kind{KindNormalLocal, KindNormalView, KindNormalWorld, KindPositionLocal,
		KindPositionView, KindPositionViewDirection, KindPositionWorld, KindTangentLocal,
		KindResolution, KindScreenUV, KindUV} {
		for _, p := range k.Outputs() {
			t := TypeFloat
			switch p.ID {
			case "xy":
				t = TypeVec2
			case "xyz":
				t = TypeVec3
			case "xyzw":
				t = TypeVec4
			}
			handleTypes[k.String()+":"+p.ID] = t
		}
	}
	for _, fam := range materialFamilies {
		for _, slot := range fam.Slots() {
			handleTypes[fam.String()+":"+slot.ID] = slot.Type
		}
		handleTypes[fam.String()+":output"] = TypeVec4
	}
}

// HandleType returns the declared type of a handle on node n. Custom
// function overrides are consulted first, then the static table, then
// the math fallback by handle name. Unknown handles are TypeAny.
func HandleType(n Node, handle string) Type {
	if handle == "" {
		return TypeAny
	}
	if n.Kind == KindCustomFn {
		if handle == "out" {
			return n.Data.CustomFnOutputType()
		}
		if t, ok := n.Data.InputTypes[handle]; ok {
			return t
		}
	}
	if t, ok := handleTypes[n.TypeName()+":"+handle]; ok {
		return t
	}
	switch n.Kind.Class() {
	case ClassUnary, ClassBinary, ClassTernary, ClassConstant, ClassCustomFn:
		switch handle {
		case "a", "b", "c", "in", "out", "min", "max", "value":
			return TypeFloat
		case "n", "i", "ng", "eta":
			return TypeVec3
		}
	}
	return TypeAny
}

// OutputType returns the type a node produces on its primary output.
func OutputType(n Node) Type {
	if n.Kind == KindColor {
		return TypeColor
	}
	outs := n.Outputs()
	if len(outs) == 0 {
		return TypeAny
	}
	// Prefer the full vector output over component outputs.
	return HandleType(n, outs[len(outs)-1].ID)
}

// SourceType returns the type flowing out of handle on n. Empty or untyped
// handles fall back to the node's primary output type.
func SourceType(n Node, handle string) Type {
	if t := HandleType(n, handle); t != TypeAny {
		return t
	}
	return OutputType(n)
}

// Swizzle returns the component selected by a single component output
// handle of a vector producing node, such as "y" for a vec3's y handle.
// Color channels map to xyz. Whole value handles return the empty string.
func Swizzle(n Node, handle string) string {
	if OutputType(n).Arity() < 2 {
		return ""
	}
	switch handle {
	case "x", "y", "z", "w":
		return handle
	case "r":
		return "x"
	case "g":
		return "y"
	case "b":
		return "z"
	}
	return ""
}
