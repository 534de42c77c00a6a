package tsleval

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/soypat/gtsl"
	"github.com/soypat/gtsl/tslbuild"
	"github.com/soypat/gtsl/tslfn"
)

// Text is a value of [TextBackend]: the source text of a TSL expression.
type Text string

// TextBackend is a [Backend] whose values render as TSL expressions.
// It exports every accessor symbol and the custom function allow-list.
// The zero value is ready to use.
type TextBackend struct{}

var textSymbols = func() map[string]bool {
	syms := make(map[string]bool)
	for _, k := range gtsl.Kinds() {
		if k.Class() == gtsl.ClassAccessor {
			syms[k.Symbol()] = true
		}
	}
	for _, name := range tslfn.FnSymbols() {
		syms[name] = true
	}
	return syms
}()

var _ Backend = TextBackend{}

func (TextBackend) Float(v float32) Value {
	return Text(tslbuild.AppendCall(nil, "float", tslbuild.AppendNumber(nil, v)))
}

func (TextBackend) Int(v int) Value {
	return Text(tslbuild.AppendCall(nil, "int", strconv.AppendInt(nil, int64(v), 10)))
}

func (TextBackend) Color(r, g, b float32) Value {
	return Text(tslbuild.AppendCall(nil, "color",
		tslbuild.AppendNumber(nil, r), tslbuild.AppendNumber(nil, g), tslbuild.AppendNumber(nil, b)))
}

func (tb TextBackend) Vec(args ...Value) Value {
	v, err := tb.Call("vec"+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil
	}
	return v
}

func (TextBackend) Split(v Value, swizzle string) Value {
	return Text(fmt.Sprint(v) + "." + swizzle)
}

func (TextBackend) Call(name string, args ...Value) (Value, error) {
	parts := make([][]byte, len(args))
	for i, arg := range args {
		switch arg := arg.(type) {
		case Text:
			parts[i] = []byte(arg)
		case string:
			parts[i] = []byte(strconv.Quote(arg))
		case []Value:
			elems := make([]string, len(arg))
			for j, e := range arg {
				elems[j] = fmt.Sprint(e)
			}
			parts[i] = []byte("[" + strings.Join(elems, ", ") + "]")
		case nil:
			return nil, fmt.Errorf("%s: argument %d is undefined", name, i)
		default:
			parts[i] = []byte(fmt.Sprint(arg))
		}
	}
	return Text(tslbuild.AppendCall(nil, name, parts...)), nil
}

func (TextBackend) Symbol(name string) (Value, bool) {
	if !textSymbols[name] {
		return nil, false
	}
	return Text(name), true
}

func (TextBackend) Symbols() []string {
	names := make([]string, 0, len(textSymbols))
	for name := range textSymbols {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (TextBackend) NewMaterial(class string, opts MaterialOptions) (Material, error) {
	return &TextMaterial{Class: class, Options: opts, Nodes: make(map[string]Value)}, nil
}

// TextMaterial records the node bindings of a material built by [TextBackend].
type TextMaterial struct {
	Class   string
	Options MaterialOptions
	Nodes   map[string]Value
	// Props lists bound properties in binding order.
	Props []string
}

func (m *TextMaterial) SetNode(prop string, v Value) {
	if _, ok := m.Nodes[prop]; !ok {
		m.Props = append(m.Props, prop)
	}
	m.Nodes[prop] = v
}

// String renders the material as TSL statements.
func (m *TextMaterial) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "const material = new %s();\n", m.Class)
	for _, prop := range m.Props {
		fmt.Fprintf(&sb, "material.%s = %v;\n", prop, m.Nodes[prop])
	}
	fmt.Fprintf(&sb, "material.side = %d;\nmaterial.transparent = %t;\nmaterial.depthWrite = true;", m.Options.Side, m.Options.Transparent)
	return sb.String()
}
