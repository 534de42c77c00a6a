package tslfn

import (
	"errors"
	"regexp"
	"sort"
	"strings"
)

// ErrorKind classifies validation failures.
type ErrorKind uint8

const (
	ErrNone ErrorKind = iota
	ErrEmpty
	ErrForm
	ErrNoReturn
	ErrReturnExpr
	ErrSyntax
	ErrUnknownSymbol
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNone:
		return "none"
	case ErrEmpty:
		return "empty"
	case ErrForm:
		return "form"
	case ErrNoReturn:
		return "no-return"
	case ErrReturnExpr:
		return "return-expr"
	case ErrSyntax:
		return "syntax"
	case ErrUnknownSymbol:
		return "unknown-symbol"
	}
	return "ErrorKind(?)"
}

const (
	msgEmpty      = "Enter TSL code"
	msgForm       = "Code must be in the form Fn(([a, b]) => { ... }) or Fn(([a]) => expr)"
	msgNoReturn   = "Function must have a return statement"
	msgReturnExpr = "Return value must be a TSL node (e.g. vec3(1,0,0) or a.add(b)), not a property or incomplete expression"
)

// Result is the outcome of [Validate]. Failures are reported through
// Valid, Kind and Message and never as Go errors.
type Result struct {
	Valid   bool
	Kind    ErrorKind
	Message string
	// Params are the function parameters in declaration order.
	Params      []Param
	ArrayParams bool
	// OutputType is the inferred output type name, i.e. "vec3".
	OutputType string
	// Func is the parsed function when Valid is true.
	Func *Func
}

// Validate checks a custom function literal without executing it. Free
// identifiers must be parameters, locals, members of [KnownSymbols] or
// one of the provided backend symbols.
func Validate(code string, symbols []string) Result {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return fail(ErrEmpty, msgEmpty)
	}
	stripped := StripComments(trimmed)
	if !headerRE.MatchString(stripped) {
		return fail(ErrForm, msgForm)
	}
	fn, err := Parse(stripped)
	if err != nil {
		if errors.Is(err, errForm) {
			return fail(ErrForm, msgForm)
		}
		// Prefer the specific return diagnostics over a generic syntax error.
		if ret, ok := returnText(stripped); !ok {
			return fail(ErrNoReturn, msgNoReturn)
		} else if !isNodeExprText(ret) {
			return fail(ErrReturnExpr, msgReturnExpr)
		}
		return fail(ErrSyntax, err.Error())
	}
	if fn.Return == nil {
		return fail(ErrNoReturn, msgNoReturn)
	}
	switch fn.Return.Value.(type) {
	case *Ident, *Call:
	default:
		return fail(ErrReturnExpr, msgReturnExpr)
	}
	if name := firstUndefined(fn, symbols); name != "" {
		return fail(ErrUnknownSymbol, name+" is not defined")
	}
	params := fn.Params
	if len(params) == 0 {
		params = []Param{defaultParam}
	}
	return Result{
		Valid:       true,
		Params:      params,
		ArrayParams: fn.ArrayParams,
		OutputType:  outputType(fn.Return.Value),
		Func:        fn,
	}
}

func fail(kind ErrorKind, msg string) Result {
	return Result{Kind: kind, Message: msg}
}

var (
	headerRE      = regexp.MustCompile(`Fn\s*\(\s*\(?\s*\[?\s*[^\])=>]*\s*\]?\s*\)?\s*\)\s*=>`)
	arrayParamsRE = regexp.MustCompile(`Fn\s*\(\s*\(?\s*\[`)
	returnRE      = regexp.MustCompile(`\breturn\s+([\s\S]*?)\s*;`)
	wordRE        = regexp.MustCompile(`^\w+$`)
)

var defaultParam = Param{ID: "a", Label: "A"}

// returnText finds the first return expression of a block body by text.
// Expression bodies always have a return.
func returnText(code string) (string, bool) {
	loc := headerRE.FindStringIndex(code)
	if loc == nil {
		return "", false
	}
	body := strings.TrimSpace(code[loc[1]:])
	if !strings.HasPrefix(body, "{") {
		body = strings.TrimSuffix(strings.TrimSuffix(body, ";"), ")")
		return strings.TrimSpace(body), true
	}
	m := returnRE.FindStringSubmatch(body)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// isNodeExprText reports whether expr is a bare identifier or a
// parenthesis balanced expression ending in a call.
func isNodeExprText(expr string) bool {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return false
	}
	if wordRE.MatchString(expr) {
		return true
	}
	depth := 0
	for i := 0; i < len(expr); i++ {
		switch expr[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
	}
	return depth == 0 && strings.Contains(expr, "(") && expr[len(expr)-1] == ')'
}

// HasArrayParams reports whether the parameter list of code uses bracket syntax.
func HasArrayParams(code string) bool {
	return arrayParamsRE.MatchString(StripComments(code))
}

// ParseParams returns the parameters of code. Code that does not parse or
// declares no parameters yields the single default parameter "a".
func ParseParams(code string) []Param {
	fn, err := Parse(StripComments(code))
	if err != nil || len(fn.Params) == 0 {
		return []Param{defaultParam}
	}
	return fn.Params
}

// InferOutputType returns the output type name inferred from the head
// call of the return expression. Defaults to "float".
func InferOutputType(code string) string {
	fn, err := Parse(StripComments(code))
	if err != nil || fn.Return == nil {
		return "float"
	}
	return outputType(fn.Return.Value)
}

func outputType(ret Expr) string {
	switch name := strings.ToLower(CalleeName(ret)); name {
	case "vec2", "vec3", "vec4", "color", "float", "int", "bool":
		return name
	}
	return "float"
}

// firstUndefined returns the first free identifier of fn, in source order,
// that is not bound by parameters, locals, known symbols or backend symbols.
func firstUndefined(fn *Func, symbols []string) string {
	bound := make(map[string]bool, len(fn.Params)+len(symbols)+8)
	for _, p := range fn.Params {
		bound[p.ID] = true
	}
	for _, s := range symbols {
		bound[s] = true
	}
	collectDecls(fn.Body, bound)
	var undefined string
	undefinedAt := -1
	visitIdents(fn.Body, func(id *Ident) {
		if bound[id.Name] || IsKnownSymbol(id.Name) {
			return
		}
		if undefinedAt < 0 || id.At < undefinedAt {
			undefined, undefinedAt = id.Name, id.At
		}
	})
	return undefined
}

func collectDecls(stmts []Stmt, bound map[string]bool) {
	for _, s := range stmts {
		switch s := s.(type) {
		case *Decl:
			bound[s.Name] = true
		case *If:
			collectDecls(s.Then, bound)
			collectDecls(s.Else, bound)
		}
	}
}

// visitIdents calls fn for every identifier in reference position.
// Property names after '.' are not references.
func visitIdents(stmts []Stmt, fn func(*Ident)) {
	var expr func(Expr)
	expr = func(e Expr) {
		switch e := e.(type) {
		case *Ident:
			fn(e)
		case *Member:
			expr(e.X)
		case *IndexExpr:
			expr(e.X)
			expr(e.Index)
		case *Call:
			expr(e.Fun)
			for _, a := range e.Args {
				expr(a)
			}
		case *Unary:
			expr(e.X)
		case *Binary:
			expr(e.X)
			expr(e.Y)
		case *Cond:
			expr(e.Test)
			expr(e.Then)
			expr(e.Else)
		case *Array:
			for _, el := range e.Elems {
				expr(el)
			}
		}
	}
	var walk func([]Stmt)
	walk = func(stmts []Stmt) {
		for _, s := range stmts {
			switch s := s.(type) {
			case *Decl:
				expr(s.Value)
			case *Return:
				expr(s.Value)
			case *If:
				expr(s.Test)
				walk(s.Then)
				walk(s.Else)
			case *ExprStmt:
				expr(s.X)
			}
		}
	}
	walk(stmts)
}

// ScanSymbols returns the sorted set of [FnSymbols] names appearing as
// whole words in code, including property names. The scan may over-include.
func ScanSymbols(code string) []string {
	toks, err := lex(StripComments(code))
	if err != nil {
		return nil
	}
	seen := make(map[string]bool)
	var syms []string
	for _, t := range toks {
		if t.kind == tokIdent && fnSymbols[t.text] && !seen[t.text] {
			seen[t.text] = true
			syms = append(syms, t.text)
		}
	}
	sort.Strings(syms)
	return syms
}
