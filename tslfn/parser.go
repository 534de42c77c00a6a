package tslfn

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// errForm is returned when the code is not a Fn(...) arrow function literal.
var errForm = errors.New("not a Fn arrow function")

type parser struct {
	toks []token
	i    int
}

// Parse parses a custom function literal of the form
//
//	Fn(([a, b]) => { ...; return expr; })
//	Fn((a, b) => expr)
func Parse(code string) (*Func, error) {
	toks, err := lex(code)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	fn, err := p.parseFunc()
	if err != nil {
		return nil, err
	}
	return fn, nil
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) is(text string) bool {
	t := p.peek()
	return (t.kind == tokPunct || t.kind == tokIdent) && t.text == text
}

func (p *parser) accept(text string) bool {
	if p.is(text) {
		p.i++
		return true
	}
	return false
}

func (p *parser) expect(text string) error {
	if !p.accept(text) {
		return fmt.Errorf("expected %q, found %s", text, p.peek())
	}
	return nil
}

func (p *parser) parseFunc() (*Func, error) {
	if p.is("TSL") {
		p.next()
		if !p.accept(".") {
			return nil, errForm
		}
	}
	if !p.accept("Fn") || !p.accept("(") {
		return nil, errForm
	}
	fn := &Func{}
	var err error
	fn.Params, fn.ArrayParams, err = p.parseParams()
	if err != nil {
		return nil, err
	}
	if !p.accept("=>") {
		return nil, errForm
	}
	if p.is("{") {
		fn.Body, err = p.parseBlock()
	} else {
		var x Expr
		at := p.peek().pos
		x, err = p.parseExpr()
		fn.Body = []Stmt{&Return{Value: x, At: at}}
	}
	if err != nil {
		return nil, err
	}
	if err = p.expect(")"); err != nil {
		return nil, err
	}
	p.accept(";")
	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("unexpected %s after function", t)
	}
	fn.Return = firstReturn(fn.Body)
	return fn, nil
}

// parseParams parses ([a, b]), (a, b), [a, b] or a bare identifier.
func (p *parser) parseParams() (params []Param, array bool, err error) {
	parens := p.accept("(")
	array = p.accept("[")
	for !p.is("]") && !p.is(")") {
		t := p.next()
		if t.kind != tokIdent {
			return nil, false, errForm
		}
		params = append(params, makeParam(t.text))
		if !p.accept(",") {
			break
		}
	}
	if array && !p.accept("]") {
		return nil, false, errForm
	}
	if parens && !p.accept(")") {
		return nil, false, errForm
	}
	if !parens && !array && len(params) != 1 {
		return nil, false, errForm
	}
	return params, array, nil
}

func makeParam(id string) Param {
	label := strings.ToUpper(id)
	if len(id) > 1 {
		label = strings.ToUpper(id[:1]) + id[1:]
	}
	return Param{ID: id, Label: label}
}

func (p *parser) parseBlock() ([]Stmt, error) {
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	var stmts []Stmt
	for !p.is("}") {
		if p.peek().kind == tokEOF {
			return nil, errors.New("unbalanced braces")
		}
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		if s != nil {
			stmts = append(stmts, s)
		}
	}
	p.next()
	return stmts, nil
}

func (p *parser) parseStmt() (Stmt, error) {
	t := p.peek()
	switch {
	case t.text == ";" && t.kind == tokPunct:
		p.next()
		return nil, nil
	case t.kind == tokIdent && (t.text == "const" || t.text == "let" || t.text == "var"):
		p.next()
		name := p.next()
		if name.kind != tokIdent {
			return nil, fmt.Errorf("expected identifier after %s, found %s", t.text, name)
		}
		if err := p.expect("="); err != nil {
			return nil, err
		}
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		p.accept(";")
		return &Decl{Name: name.text, Value: x}, nil
	case t.kind == tokIdent && t.text == "return":
		p.next()
		if p.is(";") || p.is("}") {
			return nil, errors.New("return without value")
		}
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		p.accept(";")
		return &Return{Value: x, At: t.pos}, nil
	case t.kind == tokIdent && t.text == "if":
		p.next()
		if err := p.expect("("); err != nil {
			return nil, err
		}
		test, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err = p.expect(")"); err != nil {
			return nil, err
		}
		st := &If{Test: test}
		if st.Then, err = p.parseBranch(); err != nil {
			return nil, err
		}
		if p.accept("else") {
			if st.Else, err = p.parseBranch(); err != nil {
				return nil, err
			}
		}
		return st, nil
	}
	x, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.accept(";")
	return &ExprStmt{X: x}, nil
}

func (p *parser) parseBranch() ([]Stmt, error) {
	if p.is("{") {
		return p.parseBlock()
	}
	s, err := p.parseStmt()
	if err != nil || s == nil {
		return nil, err
	}
	return []Stmt{s}, nil
}

func (p *parser) parseExpr() (Expr, error) {
	test, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if !p.accept("?") {
		return test, nil
	}
	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err = p.expect(":"); err != nil {
		return nil, err
	}
	els, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &Cond{Test: test, Then: then, Else: els}, nil
}

var precedence = map[string]int{
	"||": 1,
	"&&": 2,
	"==": 3, "!=": 3, "===": 3, "!==": 3,
	"<": 4, ">": 4, "<=": 4, ">=": 4,
	"+": 5, "-": 5,
	"*": 6, "/": 6, "%": 6,
	"**": 7,
}

func (p *parser) parseBinary(minPrec int) (Expr, error) {
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		prec, ok := precedence[t.text]
		if t.kind != tokPunct || !ok || prec <= minPrec {
			return x, nil
		}
		p.next()
		y, err := p.parseBinary(prec)
		if err != nil {
			return nil, err
		}
		x = &Binary{Op: t.text, X: x, Y: y}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	t := p.peek()
	if t.kind == tokPunct && (t.text == "-" || t.text == "+" || t.text == "!") {
		p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: t.text, X: x, At: t.pos}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (Expr, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.accept("."):
			name := p.next()
			if name.kind != tokIdent {
				return nil, fmt.Errorf("expected property name after '.', found %s", name)
			}
			x = &Member{X: x, Name: name.text}
		case p.accept("["):
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err = p.expect("]"); err != nil {
				return nil, err
			}
			x = &IndexExpr{X: x, Index: idx}
		case p.accept("("):
			args, err := p.parseList(")")
			if err != nil {
				return nil, err
			}
			x = &Call{Fun: x, Args: args}
		default:
			return x, nil
		}
	}
}

// parseList parses comma separated expressions up to and including the closing token.
func (p *parser) parseList(closing string) ([]Expr, error) {
	var list []Expr
	for !p.accept(closing) {
		if p.peek().kind == tokEOF {
			return nil, fmt.Errorf("expected %q, found end of input", closing)
		}
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		list = append(list, x)
		if !p.accept(",") {
			if err := p.expect(closing); err != nil {
				return nil, err
			}
			break
		}
	}
	return list, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokIdent:
		return &Ident{Name: t.text, At: t.pos}, nil
	case tokNumber:
		v, err := parseNumber(t.text)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", t.text)
		}
		return &Number{Value: v, Raw: t.text, At: t.pos}, nil
	case tokString:
		return &String{Value: t.text, At: t.pos}, nil
	case tokPunct:
		switch t.text {
		case "(":
			x, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if err = p.expect(")"); err != nil {
				return nil, err
			}
			return x, nil
		case "[":
			elems, err := p.parseList("]")
			if err != nil {
				return nil, err
			}
			return &Array{Elems: elems, At: t.pos}, nil
		}
	}
	return nil, fmt.Errorf("unexpected %s", t)
}

func parseNumber(s string) (float64, error) {
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		v, err := strconv.ParseUint(s[2:], 16, 64)
		return float64(v), err
	}
	return strconv.ParseFloat(s, 64)
}

// firstReturn returns the return statement appearing first in source order.
func firstReturn(stmts []Stmt) *Return {
	var first *Return
	var walk func([]Stmt)
	walk = func(stmts []Stmt) {
		for _, s := range stmts {
			switch s := s.(type) {
			case *Return:
				if first == nil || s.At < first.At {
					first = s
				}
			case *If:
				walk(s.Then)
				walk(s.Else)
			}
		}
	}
	walk(stmts)
	return first
}
