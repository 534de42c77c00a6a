// Package tsleval builds node materials by interpreting shader node graphs
// against an injected shading [Backend].
package tsleval

import (
	"errors"
	"math"

	"github.com/go-logr/logr"
	"github.com/soypat/gtsl"
)

// ErrNoMaterial is returned by [Interpreter.Build] for graphs without a material output node.
var ErrNoMaterial = errors.New("graph has no material output node")

// DefaultMaterialName names materials built without an explicit name.
const DefaultMaterialName = "NodeMaterial"

// Interpreter resolves graph nodes to backend values. The zero value is
// ready to use and logs nothing.
type Interpreter struct {
	// Log receives warnings about values that failed to resolve. The zero
	// Logger discards.
	Log logr.Logger
	// Name is the name of built materials.
	Name string
}

// Build creates the material of the graph's output node and binds every
// slot of its family: connected slots to their coerced upstream value and
// unconnected slots to their default.
func (it *Interpreter) Build(g gtsl.Graph, b Backend) (Material, error) {
	s := it.newState(g, b)
	out, ok := s.ix.OutputNode()
	if !ok {
		return nil, ErrNoMaterial
	}
	s.resolveReachable()
	fam := gtsl.MaterialFamily(out)
	mat, err := b.NewMaterial(fam.Symbol(), it.materialOptions(out))
	if err != nil {
		return nil, err
	}
	for _, slot := range fam.Slots() {
		if v := s.slotValue(out, slot); v != nil {
			mat.SetNode(slot.Prop(), v)
		}
	}
	return mat, nil
}

// Resolve returns the value of every node connected by at least one edge.
// Nodes that fail to resolve are absent from the result.
func (it *Interpreter) Resolve(g gtsl.Graph, b Backend) map[string]Value {
	s := it.newState(g, b)
	s.resolveReachable()
	return s.memo
}

func (it *Interpreter) materialOptions(out gtsl.Node) MaterialOptions {
	opts := MaterialOptions{
		Name:        it.Name,
		Color:       0xffffff,
		Roughness:   0.5,
		Metalness:   0,
		Params:      out.Data.Params,
		Side:        out.Data.Side,
		Transparent: out.Data.Transparent,
	}
	if opts.Name == "" {
		opts.Name = DefaultMaterialName
	}
	if rgb, ok := gtsl.ParseHexColor(out.Data.Colors["color"]); ok {
		opts.Color = gtsl.PackedColor(rgb)
	}
	if v, ok := out.Data.Params["roughness"]; ok {
		opts.Roughness = v
	}
	if v, ok := out.Data.Params["metalness"]; ok {
		opts.Metalness = v
	}
	return opts
}

type state struct {
	log    logr.Logger
	b      Backend
	ix     *gtsl.Index
	memo   map[string]Value
	active map[string]bool
}

func (it *Interpreter) newState(g gtsl.Graph, b Backend) *state {
	log := it.Log
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	return &state{
		log:    log,
		b:      b,
		ix:     gtsl.NewIndex(g),
		memo:   make(map[string]Value),
		active: make(map[string]bool),
	}
}

// resolveReachable resolves nodes touched by edges in topological order.
func (s *state) resolveReachable() {
	edges := s.ix.Edges()
	touched := make(map[string]bool, 2*len(edges))
	for _, e := range edges {
		touched[e.Source] = true
		touched[e.Target] = true
	}
	var nodes []gtsl.Node
	for _, n := range s.ix.Graph().Nodes {
		if touched[n.ID] {
			nodes = append(nodes, n)
		}
	}
	for _, id := range gtsl.TopoSort(nodes, edges) {
		s.resolve(id)
	}
}

// resolve returns the memoized value of a node. Nodes on a cycle that is
// being resolved yield nil.
func (s *state) resolve(id string) Value {
	if v, ok := s.memo[id]; ok {
		return v
	}
	if s.active[id] {
		return nil
	}
	n, ok := s.ix.Node(id)
	if !ok {
		return nil
	}
	fn := resolvers[n.Kind]
	if fn == nil {
		return nil
	}
	s.active[id] = true
	v := fn(s, n)
	delete(s.active, id)
	if th, ok := v.(Thunk); ok && isConstant(n.Kind) {
		v = th()
	}
	if v != nil {
		s.memo[id] = v
	}
	return v
}

func isConstant(k gtsl.Kind) bool {
	switch k.Class() {
	case gtsl.ClassConstant:
		return true
	case gtsl.ClassLiteral:
		return k == gtsl.KindFloat || k == gtsl.KindInt || k == gtsl.KindColor
	}
	return false
}

// connected returns the upstream value bound to a handle of n and the
// type flowing along the edge. Single component handles are split out.
func (s *state) connected(n gtsl.Node, handle string) (Value, gtsl.Type, string) {
	e, ok := s.ix.Input(n.ID, handle)
	if !ok {
		return nil, gtsl.TypeAny, ""
	}
	src, ok := s.ix.Node(e.Source)
	if !ok {
		return nil, gtsl.TypeAny, ""
	}
	v := s.resolve(src.ID)
	if v == nil {
		return nil, gtsl.TypeAny, src.ID
	}
	if c := gtsl.Swizzle(src, e.SourceHandle); c != "" {
		v = s.b.Split(v, c)
	}
	return v, gtsl.SourceType(src, e.SourceHandle), src.ID
}

// input resolves an input port of n falling back to the port default.
func (s *state) input(n gtsl.Node, port gtsl.Port) Value {
	if v, _, _ := s.connected(n, port.ID); v != nil {
		return v
	}
	switch port.DefaultKind {
	case gtsl.KindUnknown:
		return s.b.Float(port.Default)
	case gtsl.KindUV:
		return s.call("uv", s.b.Int(0))
	default:
		return s.symbol(port.DefaultKind.Symbol())
	}
}

func (s *state) inputs(n gtsl.Node) []Value {
	ports := n.Inputs()
	args := make([]Value, len(ports))
	for i, port := range ports {
		args[i] = s.input(n, port)
	}
	return args
}

func (s *state) call(name string, args ...Value) Value {
	for _, arg := range args {
		if arg == nil {
			return nil
		}
	}
	v, err := s.b.Call(name, args...)
	if err != nil {
		s.log.Error(err, "backend call failed", "func", name)
		return nil
	}
	return v
}

func (s *state) symbol(name string) Value {
	v, ok := s.b.Symbol(name)
	if !ok {
		s.log.Info("backend does not export symbol", "symbol", name)
		return nil
	}
	return v
}

// slotValue returns the value bound to a material slot or nil if the slot
// is unconnected and has no default.
func (s *state) slotValue(out gtsl.Node, slot gtsl.MaterialSlot) Value {
	v, t, srcID := s.connected(out, slot.ID)
	if v != nil {
		src, _ := s.ix.Node(srcID)
		return s.coerce(v, src, t, slot.Type, slot.HoldsColor())
	}
	if srcID != "" && slot.ID == "color" {
		// Connected but unresolved color.
		src, _ := s.ix.Node(srcID)
		s.log.Info("color connection did not resolve, using fallback", "source", srcID, "type", src.TypeName())
		if isGeometry(src.Kind) {
			return s.b.Color(0.5, 0.5, 0.5)
		}
		return s.b.Color(1, 1, 1)
	}
	if !slot.HasDefault {
		return nil
	}
	if slot.IsColor() {
		hex := slot.DefaultColor
		if c, ok := out.Data.Colors[slot.ID]; ok {
			hex = c
		}
		return s.color(hex)
	}
	dflt := slot.Default
	if p, ok := out.Data.Params[slot.ID]; ok {
		dflt = p
	}
	return s.b.Float(dflt)
}

func isGeometry(k gtsl.Kind) bool {
	return k.IsPositionAccessor() || k.IsVec2Accessor()
}

// coerce adapts a value of type from produced by src to the declared type to.
// Positions are remapped to [0,1] only when the consumer holds a color.
func (s *state) coerce(v Value, src gtsl.Node, from, to gtsl.Type, color bool) Value {
	switch to {
	case gtsl.TypeVec3, gtsl.TypeColor:
		switch {
		case from.IsScalar():
			if src.Kind.IsPeriodic() {
				v = s.remapUnit(v)
			}
			return s.b.Vec(v, v, v)
		case from.IsVector() && src.Kind.IsPositionAccessor() && color:
			return s.remapUnit(v)
		}
	case gtsl.TypeFloat:
		if from.IsVector() {
			return s.b.Split(v, "x")
		}
	case gtsl.TypeVec2:
		if from.IsScalar() {
			return s.b.Vec(v, v)
		}
	case gtsl.TypeVec4:
		if from.IsScalar() {
			return s.b.Vec(v, v, v, v)
		}
	}
	return v
}

// remapUnit maps a [-1,1] signal to [0,1].
func (s *state) remapUnit(v Value) Value {
	sum := s.call("add", v, s.b.Float(1))
	return s.call("mul", sum, s.b.Float(0.5))
}

func (s *state) color(hex string) Value {
	rgb, ok := gtsl.ParseHexColor(hex)
	if !ok {
		rgb = [3]uint8{255, 255, 255}
	}
	return s.b.Color(float32(rgb[0])/255, float32(rgb[1])/255, float32(rgb[2])/255)
}

// resolver produces the value of a node.
type resolver func(s *state, n gtsl.Node) Value

// resolvers is the interpreter dispatch table. Kinds without an entry yield no value.
var resolvers = map[gtsl.Kind]resolver{}

func init() {
	resolvers[gtsl.KindFloat] = func(s *state, n gtsl.Node) Value { return s.b.Float(n.Data.Value) }
	resolvers[gtsl.KindInt] = func(s *state, n gtsl.Node) Value { return s.b.Int(int(n.Data.Value)) }
	resolvers[gtsl.KindColor] = func(s *state, n gtsl.Node) Value { return s.color(n.Data.Color) }
	resolvers[gtsl.KindVec2] = resolveVec
	resolvers[gtsl.KindVec3] = resolveVec
	resolvers[gtsl.KindVec4] = resolveVec
	resolvers[gtsl.KindOneMinusX] = func(s *state, n gtsl.Node) Value {
		return s.call("sub", s.b.Float(1), s.inputs(n)[0])
	}
	resolvers[gtsl.KindOneDivX] = func(s *state, n gtsl.Node) Value {
		return s.call("div", s.b.Float(1), s.inputs(n)[0])
	}
	resolvers[gtsl.KindDifference] = func(s *state, n gtsl.Node) Value {
		return s.call("abs", s.call("sub", s.inputs(n)...))
	}
	resolvers[gtsl.KindEpsilon] = constantResolver("EPSILON", 1e-6)
	resolvers[gtsl.KindHalfPi] = constantResolver("HALF_PI", math.Pi/2)
	resolvers[gtsl.KindPi] = constantResolver("PI", math.Pi)
	resolvers[gtsl.KindTwoPi] = constantResolver("TWO_PI", 2*math.Pi)
	resolvers[gtsl.KindInfinity] = constantResolver("INFINITY", 1e30)
	resolvers[gtsl.KindUV] = func(s *state, n gtsl.Node) Value {
		idx, _, _ := s.connected(n, "index")
		if idx == nil {
			idx = s.b.Int(n.Data.Index)
		}
		return s.call("uv", idx)
	}
	resolvers[gtsl.KindCustomFn] = resolveCustomFn

	for _, k := range gtsl.Kinds() {
		if _, ok := resolvers[k]; ok {
			continue
		}
		switch k.Class() {
		case gtsl.ClassUnary, gtsl.ClassBinary, gtsl.ClassTernary, gtsl.ClassNoise:
			resolvers[k] = func(s *state, n gtsl.Node) Value {
				return s.call(n.Kind.Symbol(), s.inputs(n)...)
			}
		case gtsl.ClassAccessor:
			resolvers[k] = func(s *state, n gtsl.Node) Value {
				return s.symbol(n.Kind.Symbol())
			}
		}
	}
}

func resolveVec(s *state, n gtsl.Node) Value {
	d := n.Data
	lits := [4]float32{d.X, d.Y, d.Z, d.W}
	ports := n.Inputs()
	args := make([]Value, len(ports))
	for i, port := range ports {
		args[i], _, _ = s.connected(n, port.ID)
		if args[i] == nil {
			args[i] = s.b.Float(lits[i])
		}
	}
	return s.b.Vec(args...)
}

// constantResolver prefers the backend's named constant over a float literal.
func constantResolver(symbol string, v float64) resolver {
	return func(s *state, n gtsl.Node) Value {
		if c, ok := s.b.Symbol(symbol); ok {
			return c
		}
		return s.b.Float(float32(v))
	}
}
