package tsleval

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/soypat/gtsl"
	"github.com/soypat/gtsl/tslfn"
)

var errNoReturn = errors.New("custom function returned no value")

// resolveCustomFn runs a custom function node through the expression
// evaluator. Failures are logged and yield no value.
func resolveCustomFn(s *state, n gtsl.Node) Value {
	code := strings.TrimSpace(n.Data.Code)
	if code == "" {
		return nil
	}
	fn, err := tslfn.Parse(code)
	if err != nil {
		s.log.Error(err, "custom function failed to parse", "node", n.ID)
		return nil
	}
	args := make(map[string]Value)
	for _, port := range n.Inputs() {
		v, t, srcID := s.connected(n, port.ID)
		if v == nil {
			v = s.b.Float(0)
		} else if want, ok := n.Data.InputTypes[port.ID]; ok && want != gtsl.TypeAny {
			src, _ := s.ix.Node(srcID)
			v = s.coerce(v, src, t, want, want == gtsl.TypeColor)
		}
		args[port.ID] = v
	}
	v, err := Call(fn, s.b, args)
	if err != nil {
		s.log.Error(err, "custom function failed", "node", n.ID)
		return nil
	}
	return v
}

// Call evaluates a parsed custom function with its parameters bound by
// name from args. Unbound parameters are float zero. Identifiers resolve
// to parameters, local declarations and then backend symbols.
func Call(fn *tslfn.Func, b Backend, args map[string]Value) (Value, error) {
	ev := fnEval{b: b, env: make(map[string]Value, len(fn.Params))}
	for _, p := range fn.Params {
		v, ok := args[p.ID]
		if !ok || v == nil {
			v = b.Float(0)
		}
		ev.env[p.ID] = v
	}
	v, returned, err := ev.exec(fn.Body)
	if err != nil {
		return nil, err
	}
	if !returned || v == nil {
		return nil, errNoReturn
	}
	return v, nil
}

type fnEval struct {
	b   Backend
	env map[string]Value
}

func (ev *fnEval) exec(stmts []tslfn.Stmt) (v Value, returned bool, err error) {
	for _, st := range stmts {
		switch st := st.(type) {
		case *tslfn.Decl:
			v, err = ev.eval(st.Value)
			if err != nil {
				return nil, false, err
			}
			ev.env[st.Name] = v
		case *tslfn.Return:
			v, err = ev.eval(st.Value)
			return v, true, err
		case *tslfn.ExprStmt:
			if _, err = ev.eval(st.X); err != nil {
				return nil, false, err
			}
		case *tslfn.If:
			test, err := ev.eval(st.Test)
			if err != nil {
				return nil, false, err
			}
			branch := st.Else
			if truthy(test) {
				branch = st.Then
			}
			v, returned, err = ev.exec(branch)
			if err != nil || returned {
				return v, returned, err
			}
		}
	}
	return nil, false, nil
}

// truthy follows host language rules: shading values are objects and
// therefore always true.
func truthy(v Value) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	}
	return true
}

var binaryOps = map[string]string{
	"+": "add", "-": "sub", "*": "mul", "/": "div", "%": "mod", "**": "pow",
	"<": "lessThan", "<=": "lessThanEqual", ">": "greaterThan", ">=": "greaterThanEqual",
	"==": "equal", "===": "equal", "!=": "notEqual", "!==": "notEqual",
	"&&": "and", "||": "or",
}

var mathConstants = map[string]float64{
	"PI": math.Pi, "E": math.E, "SQRT2": math.Sqrt2, "LN2": math.Ln2, "LN10": math.Ln10,
}

func (ev *fnEval) eval(x tslfn.Expr) (Value, error) {
	switch x := x.(type) {
	case *tslfn.Number:
		return ev.b.Float(float32(x.Value)), nil
	case *tslfn.String:
		return x.Value, nil
	case *tslfn.Ident:
		return ev.ident(x.Name)
	case *tslfn.Array:
		elems, err := ev.evalList(x.Elems)
		return elems, err
	case *tslfn.IndexExpr:
		return ev.index(x)
	case *tslfn.Member:
		return ev.member(x)
	case *tslfn.Call:
		return ev.call(x)
	case *tslfn.Unary:
		if num, ok := x.X.(*tslfn.Number); ok && x.Op == "-" {
			return ev.b.Float(-float32(num.Value)), nil
		}
		v, err := ev.eval(x.X)
		if err != nil {
			return nil, err
		}
		switch x.Op {
		case "-":
			return ev.b.Call("negate", v)
		case "!":
			return ev.b.Call("not", v)
		}
		return v, nil
	case *tslfn.Binary:
		fn, ok := binaryOps[x.Op]
		if !ok {
			return nil, fmt.Errorf("unsupported operator %q", x.Op)
		}
		operands, err := ev.evalList([]tslfn.Expr{x.X, x.Y})
		if err != nil {
			return nil, err
		}
		return ev.b.Call(fn, operands...)
	case *tslfn.Cond:
		operands, err := ev.evalList([]tslfn.Expr{x.Test, x.Then, x.Else})
		if err != nil {
			return nil, err
		}
		return ev.b.Call("select", operands...)
	}
	return nil, fmt.Errorf("unsupported expression %T", x)
}

func (ev *fnEval) evalList(list []tslfn.Expr) ([]Value, error) {
	vals := make([]Value, len(list))
	for i, x := range list {
		v, err := ev.eval(x)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func (ev *fnEval) ident(name string) (Value, error) {
	if v, ok := ev.env[name]; ok {
		return v, nil
	}
	switch name {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	if v, ok := ev.b.Symbol(name); ok {
		return v, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, name)
}

func (ev *fnEval) index(x *tslfn.IndexExpr) (Value, error) {
	v, err := ev.eval(x.X)
	if err != nil {
		return nil, err
	}
	elems, ok := v.([]Value)
	num, isNum := x.Index.(*tslfn.Number)
	if !ok || !isNum {
		return nil, errors.New("only constant indexing of arrays is supported")
	}
	i := int(num.Value)
	if i < 0 || i >= len(elems) {
		return nil, fmt.Errorf("index %d out of range [0:%d]", i, len(elems))
	}
	return elems[i], nil
}

// member evaluates property access outside of call position: namespace
// exports and vector swizzles.
func (ev *fnEval) member(x *tslfn.Member) (Value, error) {
	if ns, ok := x.X.(*tslfn.Ident); ok {
		switch ns.Name {
		case "TSL":
			return ev.ident(x.Name)
		case "Math":
			c, ok := mathConstants[x.Name]
			if !ok {
				return nil, fmt.Errorf("%w: Math.%s", ErrUnknownSymbol, x.Name)
			}
			return ev.b.Float(float32(c)), nil
		}
	}
	v, err := ev.eval(x.X)
	if err != nil {
		return nil, err
	}
	swz, ok := swizzle(x.Name)
	if !ok {
		return nil, fmt.Errorf("unsupported property %q", x.Name)
	}
	return ev.b.Split(v, swz), nil
}

func (ev *fnEval) call(x *tslfn.Call) (Value, error) {
	args, err := ev.evalList(x.Args)
	if err != nil {
		return nil, err
	}
	var name string
	switch fun := x.Fun.(type) {
	case *tslfn.Ident:
		name = fun.Name
	case *tslfn.Member:
		if ns, ok := fun.X.(*tslfn.Ident); ok && ns.Name == "TSL" {
			name = fun.Name
			break
		}
		if ns, ok := fun.X.(*tslfn.Ident); ok && ns.Name == "Math" {
			return nil, fmt.Errorf("Math.%s is not a shading function", fun.Name)
		}
		// Method chain: recv.add(b) is add(recv, b).
		recv, err := ev.eval(fun.X)
		if err != nil {
			return nil, err
		}
		name = fun.Name
		args = append([]Value{recv}, args...)
	default:
		return nil, fmt.Errorf("unsupported callee %T", fun)
	}
	if name == "Fn" {
		return nil, errors.New("nested Fn is not supported")
	}
	if name == "color" && len(args) == 1 {
		if hex, ok := args[0].(string); ok {
			rgb, ok := gtsl.ParseHexColor(hex)
			if !ok {
				return nil, fmt.Errorf("invalid color %q", hex)
			}
			return ev.b.Color(float32(rgb[0])/255, float32(rgb[1])/255, float32(rgb[2])/255), nil
		}
	}
	if !tslfn.IsKnownSymbol(name) && !exports(ev.b, name) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, name)
	}
	return ev.b.Call(name, args...)
}

func exports(b Backend, name string) bool {
	for _, s := range b.Symbols() {
		if s == name {
			return true
		}
	}
	return false
}

// swizzle validates a component selection and maps color channels to xyzw.
func swizzle(name string) (string, bool) {
	if len(name) == 0 || len(name) > 4 {
		return "", false
	}
	var sb strings.Builder
	for _, c := range name {
		switch c {
		case 'x', 'y', 'z', 'w':
			sb.WriteRune(c)
		case 'r':
			sb.WriteByte('x')
		case 'g':
			sb.WriteByte('y')
		case 'b':
			sb.WriteByte('z')
		case 'a':
			sb.WriteByte('w')
		default:
			return "", false
		}
	}
	return sb.String(), true
}
