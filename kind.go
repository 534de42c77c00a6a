package gtsl

import "strings"

// Kind is the closed set of node operations a graph may contain.
// Every evaluator dispatches on Kind through its own table indexed by the same tag.
type Kind uint8

const (
	KindUnknown Kind = iota

	// Literals.
	KindFloat
	KindInt
	KindVec2
	KindVec3
	KindVec4
	KindColor

	// Unary math.
	KindOneMinusX
	KindOneDivX
	KindAbs
	KindAcos
	KindAsin
	KindAtan
	KindCbrt
	KindCeil
	KindCos
	KindDegrees
	KindDFdx
	KindDFdy
	KindExp
	KindExp2
	KindFloor
	KindFract
	KindFwidth
	KindInverseSqrt
	KindLength
	KindLog
	KindLog2
	KindNegate
	KindNormalize
	KindRadians
	KindRound
	KindSaturate
	KindSign
	KindSin
	KindSqrt
	KindTan
	KindTrunc
	KindAll
	KindAny
	KindPow2
	KindPow3
	KindPow4

	// Binary math.
	KindAdd
	KindMultiply
	KindSubtract
	KindDivide
	KindDifference
	KindDistance
	KindDot
	KindCross
	KindEquals
	KindMax
	KindMin
	KindMod
	KindPower
	KindStep
	KindReflect

	// Ternary math.
	KindClamp
	KindMix
	KindSmoothstep
	KindRemap
	KindRemapClamp
	KindFaceForward
	KindRefract

	// Constants.
	KindEpsilon
	KindHalfPi
	KindInfinity
	KindPi
	KindTwoPi

	// Noise.
	KindTriNoise3D
	KindInterleavedGradientNoise

	// Geometry and time accessors.
	KindTime
	KindUV
	KindScreenUV
	KindResolution
	KindInstanceCount
	KindInstanceIndex
	KindNormalLocal
	KindNormalView
	KindNormalWorld
	KindPositionLocal
	KindPositionView
	KindPositionViewDirection
	KindPositionWorld
	KindTangentLocal
	KindModelPosition
	KindModelViewPosition
	KindModelNormalMatrix
	KindModelViewMatrix
	KindModelWorldMatrix
	KindModelScale
	KindModelDirection

	KindCustomFn

	// Material outputs. KindOutput is the legacy generic output whose
	// family is chosen by [NodeData.MaterialClass].
	KindOutput
	KindMeshStandard
	KindMeshBasic
	KindMeshPhong
	KindMeshPhysical
	KindMeshSSS
	KindMeshToon
	KindMeshLambert
	KindMeshNormal
	KindPoints

	KindGroup

	kindCount
)

// Class groups kinds by evaluation shape.
type Class uint8

const (
	ClassUnknown Class = iota
	ClassLiteral
	ClassUnary
	ClassBinary
	ClassTernary
	ClassConstant
	ClassNoise
	ClassAccessor
	ClassCustomFn
	ClassMaterial
	ClassGroup
)

// Port is a named handle on a node.
type Port struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
	// Default is the value an unconnected input resolves to.
	Default float32 `json:"-"`
	// DefaultKind, when not KindUnknown, makes an unconnected input resolve
	// to the accessor of that kind instead of Default.
	DefaultKind Kind `json:"-"`
}

type kindDef struct {
	name    string
	class   Class
	inputs  []Port
	outputs []Port
	// symbol is the shading library function or accessor name.
	symbol string
	// periodic sources produce values in [-1,1].
	periodic bool
}

var (
	portsOut  = []Port{{ID: "out", Label: "Out"}}
	portsIn   = []Port{{ID: "in", Label: "In"}}
	portsXYZ  = []Port{{ID: "x", Label: "X"}, {ID: "y", Label: "Y"}, {ID: "z", Label: "Z"}, {ID: "xyz", Label: "XYZ"}}
	portsXY   = []Port{{ID: "x", Label: "X"}, {ID: "y", Label: "Y"}, {ID: "xy", Label: "XY"}}
	portsXYZW = []Port{{ID: "x", Label: "X"}, {ID: "y", Label: "Y"}, {ID: "z", Label: "Z"}, {ID: "w", Label: "W"}, {ID: "xyzw", Label: "XYZW"}}
)

func unary(name, symbol string, dflt float32) kindDef {
	return kindDef{name: name, class: ClassUnary, symbol: symbol, outputs: portsOut,
		inputs: []Port{{ID: "a", Label: "A", Default: dflt}}}
}

func binary(name, symbol string, da, db float32) kindDef {
	return kindDef{name: name, class: ClassBinary, symbol: symbol, outputs: portsOut,
		inputs: []Port{{ID: "a", Label: "A", Default: da}, {ID: "b", Label: "B", Default: db}}}
}

func ternary(name, symbol string, da, db, dc float32) kindDef {
	return kindDef{name: name, class: ClassTernary, symbol: symbol, outputs: portsOut,
		inputs: []Port{{ID: "a", Label: "A", Default: da}, {ID: "b", Label: "B", Default: db}, {ID: "c", Label: "C", Default: dc}}}
}

func accessor(name, symbol string, outputs []Port) kindDef {
	return kindDef{name: name, class: ClassAccessor, symbol: symbol, outputs: outputs}
}

func constant(name string) kindDef {
	return kindDef{name: name, class: ClassConstant, symbol: "float", outputs: portsOut}
}

func material(name, class string) kindDef {
	return kindDef{name: name, class: ClassMaterial, symbol: class, outputs: portsOut}
}

var kindDefs = [kindCount]kindDef{
	KindUnknown: {name: "unknown", inputs: portsIn, outputs: portsOut},

	KindFloat: {name: "float", class: ClassLiteral, symbol: "float", outputs: []Port{{ID: "value", Label: "Value"}}},
	KindInt:   {name: "int", class: ClassLiteral, symbol: "int", outputs: []Port{{ID: "value", Label: "Value"}}},
	KindVec2:  {name: "vec2", class: ClassLiteral, symbol: "vec2", inputs: portsXYZW[:2], outputs: []Port{{ID: "xy", Label: "XY"}}},
	KindVec3:  {name: "vec3", class: ClassLiteral, symbol: "vec3", inputs: portsXYZW[:3], outputs: []Port{{ID: "xyz", Label: "XYZ"}}},
	KindVec4:  {name: "vec4", class: ClassLiteral, symbol: "vec4", inputs: portsXYZW[:4], outputs: []Port{{ID: "xyzw", Label: "XYZW"}}},
	KindColor: {name: "color", class: ClassLiteral, symbol: "color", outputs: []Port{{ID: "color", Label: "Color"}}},

	KindOneMinusX:   unary("oneMinusX", "sub", 0),
	KindOneDivX:     unary("oneDivX", "div", 1),
	KindAbs:         unary("abs", "abs", 0),
	KindAcos:        unary("acos", "acos", 0),
	KindAsin:        unary("asin", "asin", 0),
	KindAtan:        unary("atan", "atan", 0),
	KindCbrt:        unary("cbrt", "cbrt", 0),
	KindCeil:        unary("ceil", "ceil", 0),
	KindCos:         {name: "cos", class: ClassUnary, symbol: "cos", outputs: portsOut, inputs: []Port{{ID: "a", Label: "A"}}, periodic: true},
	KindDegrees:     unary("degrees", "degrees", 0),
	KindDFdx:        unary("dfdx", "dFdx", 0),
	KindDFdy:        unary("dfdy", "dFdy", 0),
	KindExp:         unary("exp", "exp", 0),
	KindExp2:        unary("exp2", "exp2", 0),
	KindFloor:       unary("floor", "floor", 0),
	KindFract:       unary("fract", "fract", 0),
	KindFwidth:      unary("fwidth", "fwidth", 0),
	KindInverseSqrt: unary("inverseSqrt", "inverseSqrt", 1),
	KindLength:      unary("length", "length", 0),
	KindLog:         unary("log", "log", 1),
	KindLog2:        unary("log2", "log2", 1),
	KindNegate:      unary("negate", "negate", 0),
	KindNormalize:   unary("normalize", "normalize", 0),
	KindRadians:     unary("radians", "radians", 0),
	KindRound:       unary("round", "round", 0),
	KindSaturate:    unary("saturate", "saturate", 0),
	KindSign:        unary("sign", "sign", 0),
	KindSin:         {name: "sin", class: ClassUnary, symbol: "sin", outputs: portsOut, inputs: []Port{{ID: "a", Label: "A"}}, periodic: true},
	KindSqrt:        unary("sqrt", "sqrt", 0),
	KindTan:         unary("tan", "tan", 0),
	KindTrunc:       unary("trunc", "trunc", 0),
	KindAll:         unary("all", "all", 0),
	KindAny:         unary("any", "any", 0),
	KindPow2:        unary("pow2", "pow2", 0),
	KindPow3:        unary("pow3", "pow3", 0),
	KindPow4:        unary("pow4", "pow4", 0),

	KindAdd:        binary("add", "add", 0, 0),
	KindMultiply:   binary("multiply", "mul", 1, 1),
	KindSubtract:   binary("subtract", "sub", 0, 0),
	KindDivide:     binary("divide", "div", 1, 1),
	KindDifference: binary("difference", "abs", 0, 0),
	KindDistance:   binary("distance", "distance", 0, 0),
	KindDot:        binary("dot", "dot", 0, 0),
	KindCross:      binary("cross", "cross", 0, 0),
	KindEquals:     binary("equals", "equals", 0, 0),
	KindMax:        binary("max", "max", 0, 0),
	KindMin:        binary("min", "min", 0, 0),
	KindMod:        binary("mod", "mod", 0, 1),
	KindPower:      binary("power", "pow", 1, 1),
	KindStep:       binary("step", "step", 0, 0),
	KindReflect: {name: "reflect", class: ClassBinary, symbol: "reflect", outputs: portsOut,
		inputs: []Port{{ID: "i", Label: "I"}, {ID: "n", Label: "N"}}},

	KindClamp:      ternary("clamp", "clamp", 0, 0, 1),
	KindMix:        ternary("mix", "mix", 0, 1, 0.5),
	KindSmoothstep: ternary("smoothstep", "smoothstep", 0, 0.5, 1),
	KindRemap:      ternary("remap", "remap", 0, 0, 1),
	KindRemapClamp: ternary("remapClamp", "remapClamp", 0, 0, 1),
	KindFaceForward: {name: "faceForward", class: ClassTernary, symbol: "faceForward", outputs: portsOut,
		inputs: []Port{{ID: "n", Label: "N"}, {ID: "i", Label: "I"}, {ID: "ng", Label: "Ng"}}},
	KindRefract: {name: "refract", class: ClassTernary, symbol: "refract", outputs: portsOut,
		inputs: []Port{{ID: "i", Label: "I"}, {ID: "n", Label: "N"}, {ID: "eta", Label: "Eta", Default: 1}}},

	KindEpsilon:  constant("epsilon"),
	KindHalfPi:   constant("halfPi"),
	KindInfinity: constant("infinity"),
	KindPi:       constant("pi"),
	KindTwoPi:    constant("twoPi"),

	KindTriNoise3D: {name: "triNoise3D", class: ClassNoise, symbol: "triNoise3D", outputs: portsOut,
		inputs: []Port{
			{ID: "position", Label: "Position", DefaultKind: KindPositionWorld},
			{ID: "speed", Label: "Speed", Default: 1},
			{ID: "time", Label: "Time", DefaultKind: KindTime},
		}},
	KindInterleavedGradientNoise: {name: "interleavedGradientNoise", class: ClassNoise, symbol: "interleavedGradientNoise", outputs: portsOut,
		inputs: []Port{{ID: "position", Label: "Position", DefaultKind: KindUV}}},

	KindTime: accessor("time", "time", portsOut),
	KindUV: {name: "uv", class: ClassAccessor, symbol: "uv", outputs: portsXY,
		inputs: []Port{{ID: "index", Label: "Index"}}},
	KindScreenUV:              accessor("screenUV", "screenUV", portsXY),
	KindResolution:            accessor("resolution", "screenSize", portsXY),
	KindInstanceCount:         accessor("instanceCount", "instanceCount", portsOut),
	KindInstanceIndex:         accessor("instanceIndex", "instanceIndex", portsOut),
	KindNormalLocal:           accessor("normalLocal", "normalLocal", portsXYZ),
	KindNormalView:            accessor("normalView", "normalView", portsXYZ),
	KindNormalWorld:           accessor("normalWorld", "normalWorld", portsXYZ),
	KindPositionLocal:         accessor("positionLocal", "positionLocal", portsXYZ),
	KindPositionView:          accessor("positionView", "positionView", portsXYZ),
	KindPositionViewDirection: accessor("positionViewDirection", "positionViewDirection", portsXYZ),
	KindPositionWorld:         accessor("positionWorld", "positionWorld", portsXYZ),
	KindTangentLocal:          accessor("tangentLocal", "tangentLocal", portsXYZW),
	KindModelPosition:         accessor("modelPosition", "modelPosition", portsOut),
	KindModelViewPosition:     accessor("modelViewPosition", "modelViewPosition", portsOut),
	KindModelNormalMatrix:     accessor("modelNormalMatrix", "modelNormalMatrix", portsOut),
	KindModelViewMatrix:       accessor("modelViewMatrix", "modelViewMatrix", portsOut),
	KindModelWorldMatrix:      accessor("modelWorldMatrix", "modelWorldMatrix", portsOut),
	KindModelScale:            accessor("modelScale", "modelScale", portsOut),
	KindModelDirection:        accessor("modelDirection", "modelDirection", portsOut),

	KindCustomFn: {name: "customFn", class: ClassCustomFn, symbol: "Fn", outputs: portsOut,
		inputs: []Port{{ID: "a", Label: "A"}}},

	KindOutput:       {name: "output", class: ClassMaterial, symbol: "MeshStandardNodeMaterial", inputs: portsIn},
	KindMeshStandard: material("meshStandardMaterial", "MeshStandardNodeMaterial"),
	KindMeshBasic:    material("meshBasicMaterial", "MeshBasicNodeMaterial"),
	KindMeshPhong:    material("meshPhongMaterial", "MeshPhongNodeMaterial"),
	KindMeshPhysical: material("meshPhysicalMaterial", "MeshPhysicalNodeMaterial"),
	KindMeshSSS:      material("meshSSSMaterial", "MeshSSSNodeMaterial"),
	KindMeshToon:     material("meshToonMaterial", "MeshToonNodeMaterial"),
	KindMeshLambert:  material("meshLambertMaterial", "MeshLambertNodeMaterial"),
	KindMeshNormal:   material("meshNormalMaterial", "MeshNormalNodeMaterial"),
	KindPoints:       material("pointsMaterial", "PointsNodeMaterial"),

	KindGroup: {name: "group", class: ClassGroup, inputs: portsIn, outputs: portsOut},
}

var kindByName map[string]Kind

func init() {
	kindByName = make(map[string]Kind, int(kindCount)+16)
	for k := KindUnknown + 1; k < kindCount; k++ {
		kindByName[kindDefs[k].name] = k
	}
	for alias, k := range map[string]Kind{
		"mul":                      KindMultiply,
		"oneMinus":                 KindOneMinusX,
		"inversesqrt":              KindInverseSqrt,
		"halfpi":                   KindHalfPi,
		"Pi":                       KindPi,
		"twopi":                    KindTwoPi,
		"trinoise3d":               KindTriNoise3D,
		"triNoise3d":               KindTriNoise3D,
		"interleavedgradientnoise": KindInterleavedGradientNoise,
		"dFdx":                     KindDFdx,
		"dFdy":                     KindDFdy,
	} {
		kindByName[alias] = k
	}
}

// ParseKind returns the kind named by a persisted node type string.
// Unrecognized names return KindUnknown and false.
func ParseKind(typename string) (Kind, bool) {
	k, ok := kindByName[typename]
	return k, ok
}

func (k Kind) def() *kindDef {
	if k >= kindCount {
		return &kindDefs[KindUnknown]
	}
	return &kindDefs[k]
}

// String returns the persisted type name of the kind.
func (k Kind) String() string { return k.def().name }

// Class returns the evaluation class of the kind.
func (k Kind) Class() Class { return k.def().class }

// Symbol returns the shading library name the kind maps to. For material kinds it
// is the material class name, for accessors the accessor name.
func (k Kind) Symbol() string { return k.def().symbol }

// IsPeriodic reports whether the kind produces a signal in [-1,1] that
// should be remapped to [0,1] before being broadcast into a color.
func (k Kind) IsPeriodic() bool { return k.def().periodic }

// IsMaterial reports whether the kind is a material output.
func (k Kind) IsMaterial() bool { return k.def().class == ClassMaterial }

// IsPositionAccessor reports whether the kind is a position or normal accessor
// whose [-1,1] vector is remapped to [0,1] when bound to a color slot.
func (k Kind) IsPositionAccessor() bool {
	switch k {
	case KindPositionLocal, KindPositionView, KindPositionViewDirection, KindPositionWorld,
		KindNormalLocal, KindNormalView, KindNormalWorld, KindTangentLocal:
		return true
	}
	return false
}

// IsVec2Accessor reports whether the kind is a screen-space or texture coordinate accessor.
func (k Kind) IsVec2Accessor() bool {
	return k == KindUV || k == KindScreenUV || k == KindResolution
}

// Inputs returns the static input ports of the kind.
func (k Kind) Inputs() []Port { return k.def().inputs }

// Outputs returns the static output ports of the kind.
func (k Kind) Outputs() []Port { return k.def().outputs }

// Kinds returns all known kinds in declaration order, excluding KindUnknown.
func Kinds() []Kind {
	kinds := make([]Kind, 0, kindCount-1)
	for k := KindUnknown + 1; k < kindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// InputPort looks up an input port of kind k by id. Handle ids are
// matched exactly first and case-insensitively second.
func (k Kind) InputPort(handle string) (Port, bool) {
	return findPort(k.def().inputs, handle)
}

// OutputPort looks up an output port of kind k by id.
func (k Kind) OutputPort(handle string) (Port, bool) {
	return findPort(k.def().outputs, handle)
}

func findPort(ports []Port, handle string) (Port, bool) {
	for _, p := range ports {
		if p.ID == handle {
			return p, true
		}
	}
	for _, p := range ports {
		if strings.EqualFold(p.ID, handle) {
			return p, true
		}
	}
	return Port{}, false
}
