// Package tslbuild generates TSL source code from shader node graphs.
package tslbuild

import (
	"bytes"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/soypat/gtsl"
	"github.com/soypat/gtsl/tslfn"
)

// ImportPath is the module generated programs import shading symbols from.
const ImportPath = "three/tsl"

// Programmer implements TSL code generation for [gtsl.Graph].
// A Programmer may be reused but is not safe for concurrent use.
type Programmer struct {
	// Strict makes WriteTSL fail with a *[gtsl.CycleError] on cyclic graphs
	// instead of emitting the unordered nodes last.
	Strict bool

	scratch []byte
	body    []byte
	imports map[string]struct{}
	// vars maps node ids to the generated variable names.
	vars map[string]string
	ix   *gtsl.Index
}

// NewDefaultProgrammer returns a lenient Programmer.
func NewDefaultProgrammer() *Programmer {
	return &Programmer{
		scratch: make([]byte, 0, 1024),
		body:    make([]byte, 0, 4096),
		imports: make(map[string]struct{}),
		vars:    make(map[string]string),
	}
}

// FormatTSL returns the generated program for g as a string. Cycles do not fail.
func FormatTSL(g gtsl.Graph) string {
	var sb strings.Builder
	NewDefaultProgrammer().WriteTSL(&sb, g)
	return sb.String()
}

// WriteTSL generates the program for g and writes it to w. The output is
// deterministic: the same graph always yields the same bytes.
func (p *Programmer) WriteTSL(w io.Writer, g gtsl.Graph) (int, error) {
	if len(g.Nodes) == 0 {
		return io.WriteString(w, "// Empty graph")
	}
	p.reset()
	p.ix = gtsl.NewIndex(g)
	edges := p.ix.Edges()
	var order []string
	if p.Strict {
		var err error
		order, err = gtsl.TopoSortStrict(g.Nodes, edges)
		if err != nil {
			return 0, err
		}
	} else {
		order = gtsl.TopoSort(g.Nodes, edges)
	}

	p.addImport("color", "float", "int")
	nvars := 0
	for _, id := range order {
		n, _ := p.ix.Node(id)
		emit := emitters[n.Kind]
		if emit == nil {
			continue // Materials, groups and unknown kinds produce no variable.
		}
		name := "_node" + strconv.Itoa(nvars)
		nvars++
		p.scratch = emit(p, n, p.scratch[:0])
		p.body = AppendConstDecl(p.body, name, p.scratch)
		p.vars[n.ID] = name
	}
	if mat, ok := p.ix.OutputNode(); ok {
		p.appendMaterial(mat)
	}

	// Header goes first but depends on the imports collected above.
	p.scratch = append(p.scratch[:0], "import { "...)
	p.scratch = appendSorted(p.scratch, p.imports)
	p.scratch = append(p.scratch, " } from '"...)
	p.scratch = append(p.scratch, ImportPath...)
	p.scratch = append(p.scratch, "';\n\n// Generated TSL Code\n"...)
	if len(p.body) > 0 {
		p.scratch = append(p.scratch, '\n')
		p.scratch = append(p.scratch, bytes.TrimSuffix(p.body, []byte{'\n'})...)
	}
	return w.Write(p.scratch)
}

func (p *Programmer) reset() {
	if p.imports == nil {
		p.imports = make(map[string]struct{})
		p.vars = make(map[string]string)
	}
	clear(p.imports)
	clear(p.vars)
	p.body = p.body[:0]
	p.scratch = p.scratch[:0]
}

func (p *Programmer) addImport(symbols ...string) {
	for _, s := range symbols {
		p.imports[s] = struct{}{}
	}
}

// appendMaterial appends the material epilogue for the output node.
func (p *Programmer) appendMaterial(mat gtsl.Node) {
	const v = "material"
	fam := gtsl.MaterialFamily(mat)
	class := fam.Symbol()
	p.addImport(class)
	b := append(p.body, "\n// Material\nconst "+v+" = new "...)
	b = append(b, class...)
	b = append(b, "();\n"...)
	set := make(map[string]bool)
	for _, e := range p.ix.Incoming(mat.ID) {
		slot, ok := fam.Slot(e.TargetHandle)
		if !ok || set[slot.ID] {
			continue
		}
		expr := p.connected(mat, e.TargetHandle)
		if expr == nil {
			continue
		}
		set[slot.ID] = true
		b = appendAssign(b, v, slot.Prop(), expr)
	}
	for _, slot := range fam.Slots() {
		if set[slot.ID] || !slot.HasDefault {
			continue
		}
		b = appendAssign(b, v, slot.Prop(), AppendSlotDefault(nil, mat.Data, slot))
	}
	b = appendAssign(b, v, "side", strconv.AppendInt(nil, int64(mat.Data.Side), 10))
	b = appendAssign(b, v, "transparent", strconv.AppendBool(nil, mat.Data.Transparent))
	b = appendAssign(b, v, "depthWrite", []byte("true"))
	p.body = b
}

// AppendSlotDefault appends the literal an unconnected material slot is
// bound to. Material data overrides the documented default.
func AppendSlotDefault(b []byte, d gtsl.NodeData, slot gtsl.MaterialSlot) []byte {
	if slot.IsColor() {
		hex := slot.DefaultColor
		if c, ok := d.Colors[slot.ID]; ok {
			hex = c
		}
		b = append(b, `color("`...)
		b = append(b, hex...)
		return append(b, `")`...)
	}
	v := slot.Default
	if pv, ok := d.Params[slot.ID]; ok {
		v = pv
	}
	return AppendFloatDefault(b, v)
}

func appendAssign(b []byte, obj, prop string, expr []byte) []byte {
	b = append(b, obj...)
	b = append(b, '.')
	b = append(b, prop...)
	b = append(b, " = "...)
	b = append(b, expr...)
	return append(b, ";\n"...)
}

// AppendConstDecl appends "const name = expr;" and a newline.
func AppendConstDecl(b []byte, name string, expr []byte) []byte {
	b = append(b, "const "...)
	b = append(b, name...)
	b = append(b, " = "...)
	b = append(b, expr...)
	return append(b, ";\n"...)
}

// AppendNumber appends v in the shortest form that parses back to the same float32.
// Very small and very large magnitudes use exponent notation. Non-finite
// values use the JavaScript globals NaN and Infinity.
func AppendNumber(b []byte, v float32) []byte {
	switch {
	case math.IsNaN(float64(v)):
		return append(b, "NaN"...)
	case math.IsInf(float64(v), 1):
		return append(b, "Infinity"...)
	case math.IsInf(float64(v), -1):
		return append(b, "-Infinity"...)
	}
	a := math.Abs(float64(v))
	if a != 0 && (a < 1e-6 || a >= 1e21) {
		return strconv.AppendFloat(b, float64(v), 'e', -1, 32)
	}
	return strconv.AppendFloat(b, float64(v), 'f', -1, 32)
}

// AppendFloatDefault appends the compact default literal form, i.e. "float(0.5)".
func AppendFloatDefault(b []byte, v float32) []byte {
	b = append(b, "float("...)
	b = AppendNumber(b, v)
	return append(b, ')')
}

// AppendCall appends "fn( arg0, arg1 )".
func AppendCall(b []byte, fn string, args ...[]byte) []byte {
	b = append(b, fn...)
	b = append(b, "( "...)
	for i, arg := range args {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = append(b, arg...)
	}
	return append(b, " )"...)
}

func appendSorted(b []byte, set map[string]struct{}) []byte {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	for i, name := range names {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = append(b, name...)
	}
	return b
}

// input returns the expression bound to an input port of n: the upstream
// variable when connected, else the port default.
func (p *Programmer) input(n gtsl.Node, port gtsl.Port) []byte {
	if expr := p.connected(n, port.ID); expr != nil {
		return expr
	}
	return p.portDefault(port)
}

// connected returns the upstream expression bound to a handle of n or nil.
func (p *Programmer) connected(n gtsl.Node, handle string) []byte {
	if e, ok := p.ix.Input(n.ID, handle); ok {
		if v, ok := p.vars[e.Source]; ok {
			return p.sourceExpr(v, e.Source, e.SourceHandle)
		}
	}
	return nil
}

// sourceExpr returns the variable of an upstream node with a component
// swizzle when the edge leaves a single component handle.
func (p *Programmer) sourceExpr(v, srcID, srcHandle string) []byte {
	b := []byte(v)
	src, ok := p.ix.Node(srcID)
	if !ok {
		return b
	}
	if c := gtsl.Swizzle(src, srcHandle); c != "" {
		b = append(b, '.')
		b = append(b, c...)
	}
	return b
}

func (p *Programmer) portDefault(port gtsl.Port) []byte {
	switch port.DefaultKind {
	case gtsl.KindUnknown:
		return AppendFloatDefault(nil, port.Default)
	case gtsl.KindUV:
		p.addImport("uv")
		return []byte("uv( 0 )")
	default:
		p.addImport(port.DefaultKind.Symbol())
		return []byte(port.DefaultKind.Symbol())
	}
}

func (p *Programmer) inputs(n gtsl.Node) [][]byte {
	ports := n.Inputs()
	args := make([][]byte, len(ports))
	for i, port := range ports {
		args[i] = p.input(n, port)
	}
	return args
}

// emitter appends the right hand side expression of a node to b.
type emitter func(p *Programmer, n gtsl.Node, b []byte) []byte

// emitters is the code generation dispatch table. Kinds without an entry
// produce no variable.
var emitters = map[gtsl.Kind]emitter{
	gtsl.KindFloat: func(p *Programmer, n gtsl.Node, b []byte) []byte {
		return AppendCall(b, "float", AppendNumber(nil, n.Data.Value))
	},
	gtsl.KindInt: func(p *Programmer, n gtsl.Node, b []byte) []byte {
		return AppendCall(b, "int", strconv.AppendInt(nil, int64(n.Data.Value), 10))
	},
	gtsl.KindVec2: vecEmitter,
	gtsl.KindVec3: vecEmitter,
	gtsl.KindVec4: vecEmitter,
	gtsl.KindColor: func(p *Programmer, n gtsl.Node, b []byte) []byte {
		hex := n.Data.Color
		if hex == "" {
			hex = "#ffffff"
		}
		return AppendCall(b, "color", []byte(strconv.Quote(hex)))
	},
	gtsl.KindOneMinusX: func(p *Programmer, n gtsl.Node, b []byte) []byte {
		p.addImport("sub")
		return AppendCall(b, "sub", []byte("float(1)"), p.inputs(n)[0])
	},
	gtsl.KindOneDivX: func(p *Programmer, n gtsl.Node, b []byte) []byte {
		p.addImport("div")
		return AppendCall(b, "div", []byte("float(1)"), p.inputs(n)[0])
	},
	gtsl.KindDifference: func(p *Programmer, n gtsl.Node, b []byte) []byte {
		p.addImport("abs", "sub")
		return AppendCall(b, "abs", AppendCall(nil, "sub", p.inputs(n)...))
	},
	gtsl.KindEpsilon:  constantEmitter("1e-6"),
	gtsl.KindHalfPi:   constantEmitter(strconv.FormatFloat(math.Pi/2, 'g', -1, 64)),
	gtsl.KindPi:       constantEmitter(strconv.FormatFloat(math.Pi, 'g', -1, 64)),
	gtsl.KindTwoPi:    constantEmitter(strconv.FormatFloat(2*math.Pi, 'g', -1, 64)),
	gtsl.KindInfinity: constantEmitter("1e30"),
	gtsl.KindUV: func(p *Programmer, n gtsl.Node, b []byte) []byte {
		p.addImport("uv")
		idx := p.connected(n, "index")
		if idx == nil {
			idx = strconv.AppendInt(nil, int64(n.Data.Index), 10)
		}
		return AppendCall(b, "uv", idx)
	},
	gtsl.KindCustomFn: emitCustomFn,
}

func init() {
	for _, k := range gtsl.Kinds() {
		if _, ok := emitters[k]; ok {
			continue
		}
		switch k.Class() {
		case gtsl.ClassUnary, gtsl.ClassBinary, gtsl.ClassTernary, gtsl.ClassNoise:
			emitters[k] = callEmitter
		case gtsl.ClassAccessor:
			emitters[k] = accessorEmitter
		}
	}
}

// vecEmitter emits a vector literal. Connected component inputs replace
// the literal components.
func vecEmitter(p *Programmer, n gtsl.Node, b []byte) []byte {
	sym := n.Kind.Symbol()
	p.addImport(sym)
	d := n.Data
	lits := [4]float32{d.X, d.Y, d.Z, d.W}
	ports := n.Inputs()
	args := make([][]byte, len(ports))
	for i, port := range ports {
		args[i] = p.connected(n, port.ID)
		if args[i] == nil {
			args[i] = AppendNumber(nil, lits[i])
		}
	}
	return AppendCall(b, sym, args...)
}

func callEmitter(p *Programmer, n gtsl.Node, b []byte) []byte {
	sym := n.Kind.Symbol()
	p.addImport(sym)
	return AppendCall(b, sym, p.inputs(n)...)
}

func accessorEmitter(p *Programmer, n gtsl.Node, b []byte) []byte {
	sym := n.Kind.Symbol()
	p.addImport(sym)
	return append(b, sym...)
}

func constantEmitter(literal string) emitter {
	return func(p *Programmer, n gtsl.Node, b []byte) []byte {
		return AppendCall(b, "float", []byte(literal))
	}
}

// emitCustomFn emits an immediately invoked custom function. Comments are
// stripped and whitespace collapsed so that the code fits a single line.
// Bracket parameter lists receive their arguments as a single array.
func emitCustomFn(p *Programmer, n gtsl.Node, b []byte) []byte {
	code := strings.TrimSpace(n.Data.Code)
	if code == "" {
		code = gtsl.DefaultCustomFnCode
	}
	code = tslfn.Normalize(code)
	p.addImport("Fn")
	p.addImport(tslfn.ScanSymbols(code)...)
	ports := n.Inputs()
	b = append(b, '(')
	b = append(b, code...)
	b = append(b, ")("...)
	array := tslfn.HasArrayParams(code)
	if array {
		b = append(b, '[')
	}
	for i, port := range ports {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = append(b, p.customArg(n, port)...)
	}
	if array {
		b = append(b, ']')
	}
	return append(b, ')')
}

// customArg resolves a custom function argument. Unconnected arguments are float(0).
func (p *Programmer) customArg(n gtsl.Node, port gtsl.Port) []byte {
	if expr := p.connected(n, port.ID); expr != nil {
		return expr
	}
	return []byte("float(0)")
}
