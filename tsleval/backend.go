package tsleval

import "errors"

// ErrUnknownSymbol is returned when a custom function references a name
// that is neither bound locally nor exported by the backend.
var ErrUnknownSymbol = errors.New("unknown symbol")

// Value is an opaque shading value produced by a [Backend].
type Value any

// Thunk is a deferred backend value. The interpreter forces thunks
// returned for constant kinds and keeps every other value as a live reference.
type Thunk func() Value

// Backend supplies the concrete shading constructors the interpreter
// builds materials with. A Backend is passed explicitly to every
// [Interpreter.Build] call.
type Backend interface {
	Float(v float32) Value
	Int(v int) Value
	Color(r, g, b float32) Value
	// Vec builds a vector with as many components as args, two to four.
	Vec(args ...Value) Value
	// Split selects components of v by swizzle, i.e. "x" or "xy".
	Split(v Value, swizzle string) Value
	// Call invokes the named shading function.
	Call(name string, args ...Value) (Value, error)
	// Symbol returns a named export such as an accessor.
	Symbol(name string) (Value, bool)
	NewMaterial(class string, opts MaterialOptions) (Material, error)
	// Symbols lists every exported name.
	Symbols() []string
}

// Material is a node material under construction.
type Material interface {
	SetNode(prop string, v Value)
}

// MaterialOptions are the constructor options of a material.
type MaterialOptions struct {
	Name string
	// Color is the packed 0xRRGGBB base color.
	Color     int
	Roughness float32
	Metalness float32
	// Params holds the family specific scalar parameters of the material node.
	Params      map[string]float32
	Side        int
	Transparent bool
}
