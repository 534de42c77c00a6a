package tslfn_test

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/soypat/gtsl/tslfn"
)

func TestValidate(t *testing.T) {
	for _, test := range []struct {
		name    string
		code    string
		symbols []string
		kind    tslfn.ErrorKind
		msg     string
		params  []string
		array   bool
		outType string
	}{
		{name: "binary add", code: "Fn(([a, b]) => a.add(b))", params: []string{"a", "b"}, array: true, outType: "float"},
		{name: "block vec3", code: "Fn(([a]) => { return vec3(a, 0, 0); })", params: []string{"a"}, array: true, outType: "vec3"},
		{name: "spread params", code: "Fn((x, y) => { const s = x.mul(y); return s; })", params: []string{"x", "y"}, outType: "float"},
		{name: "tsl prefix", code: "Fn(([a]) => TSL.vec4(a, a, a, 1))", params: []string{"a"}, array: true, outType: "vec4"},
		{name: "chain head", code: "Fn(([c]) => { return color(1, 0, 0).mul(c); })", params: []string{"c"}, array: true, outType: "color"},
		{name: "no params default", code: "Fn(() => vec2(0.5, 0.5))", params: []string{"a"}, outType: "vec2"},
		{name: "comments stripped", code: "Fn(([a]) => {\n // return b;\n /* x */ return sin(a);\n})", params: []string{"a"}, array: true, outType: "float"},
		{name: "if branch first return", code: "Fn(([a]) => { if (a > 0.5) { return vec3(1,0,0); } return vec3(0,0,1); })", params: []string{"a"}, array: true, outType: "vec3"},
		{name: "backend symbol", code: "Fn(([a]) => mx_noise_float(a))", symbols: []string{"mx_noise_float"}, params: []string{"a"}, array: true, outType: "float"},

		{name: "empty", code: "  \n", kind: tslfn.ErrEmpty, msg: "Enter TSL code"},
		{name: "not fn", code: "(a) => a", kind: tslfn.ErrForm, msg: "Code must be in the form Fn(([a, b]) => { ... }) or Fn(([a]) => expr)"},
		{name: "no return", code: "Fn(([a]) => { const b = a; })", kind: tslfn.ErrNoReturn, msg: "Function must have a return statement"},
		{name: "property return", code: "Fn(([a]) => { return a.x; })", kind: tslfn.ErrReturnExpr},
		{name: "incomplete return", code: "Fn(([a]) => { return a.; })", kind: tslfn.ErrReturnExpr},
		{name: "undefined", code: "Fn(([a]) => { return foo(a); })", kind: tslfn.ErrUnknownSymbol, msg: "foo is not defined"},
		{name: "syntax", code: "Fn(([a]) => { const = 1; return a; })", kind: tslfn.ErrSyntax},
	} {
		t.Run(test.name, func(t *testing.T) {
			res := tslfn.Validate(test.code, test.symbols)
			assert.Equal(t, test.kind, res.Kind)
			if test.kind != tslfn.ErrNone {
				assert.False(t, res.Valid)
				if test.msg != "" {
					assert.Equal(t, test.msg, res.Message)
				}
				return
			}
			assert.True(t, res.Valid, res.Message)
			var ids []string
			for _, p := range res.Params {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, test.params, ids)
			assert.Equal(t, test.array, res.ArrayParams)
			assert.Equal(t, test.outType, res.OutputType)
		})
	}
}

func TestParamLabels(t *testing.T) {
	params := tslfn.ParseParams("Fn(([a, speed]) => a.mul(speed))")
	assert.Equal(t, []tslfn.Param{{ID: "a", Label: "A"}, {ID: "speed", Label: "Speed"}}, params)
	params = tslfn.ParseParams("not a function")
	assert.Equal(t, []tslfn.Param{{ID: "a", Label: "A"}}, params)
}

func TestHasArrayParams(t *testing.T) {
	assert.True(t, tslfn.HasArrayParams("Fn(([a]) => a)"))
	assert.False(t, tslfn.HasArrayParams("Fn((a) => a)"))
	assert.False(t, tslfn.HasArrayParams("// Fn(([a]) => a)\nFn((a) => a)"))
}

func TestNormalize(t *testing.T) {
	got := tslfn.Normalize("Fn(([a]) => {\n\t// comment\n\treturn a; /* tail */\n})")
	assert.Equal(t, "Fn(([a]) => { return a; })", got)
	// Slashes inside strings are not comments.
	got = tslfn.Normalize(`Fn(() => color("//"))`)
	assert.Equal(t, `Fn(() => color("//"))`, got)
}

func TestScanSymbols(t *testing.T) {
	syms := tslfn.ScanSymbols("Fn(([a, b]) => { const t = sin(time); return mix(a, b, t).add(vec3(1)); })")
	assert.Equal(t, []string{"Fn", "add", "mix", "sin", "time", "vec3"}, syms)
}

func TestParseStructure(t *testing.T) {
	fn, err := tslfn.Parse("Fn(([a]) => { const k = 2; if (a < 0.5) { return vec3(a, 0, 0); } else { return color(0xff0000); } })")
	assert.NoError(t, err)
	assert.Equal(t, 2, len(fn.Body))
	ifs, ok := fn.Body[1].(*tslfn.If)
	assert.True(t, ok)
	cmp, ok := ifs.Test.(*tslfn.Binary)
	assert.True(t, ok)
	assert.Equal(t, "<", cmp.Op)
	assert.Equal(t, "vec3", tslfn.CalleeName(fn.Return.Value))
}
