// Package tslfn parses and validates custom shader functions written as
// Fn(([a, b]) => ...) arrow function literals.
package tslfn

// Expr is an expression node.
type Expr interface {
	// Pos returns the byte offset of the expression in the source.
	Pos() int
}

// Stmt is a statement in a block body.
type Stmt interface {
	stmtNode()
}

type (
	Ident struct {
		Name string
		At   int
	}
	Number struct {
		Value float64
		Raw   string
		At    int
	}
	String struct {
		Value string
		At    int
	}
	// Member is a property access X.Name.
	Member struct {
		X    Expr
		Name string
	}
	// IndexExpr is a computed access X[Index].
	IndexExpr struct {
		X     Expr
		Index Expr
	}
	Call struct {
		Fun  Expr
		Args []Expr
	}
	Unary struct {
		Op string
		X  Expr
		At int
	}
	Binary struct {
		Op   string
		X, Y Expr
	}
	// Cond is the ternary operator.
	Cond struct {
		Test, Then, Else Expr
	}
	Array struct {
		Elems []Expr
		At    int
	}
)

func (e *Ident) Pos() int     { return e.At }
func (e *Number) Pos() int    { return e.At }
func (e *String) Pos() int    { return e.At }
func (e *Member) Pos() int    { return e.X.Pos() }
func (e *IndexExpr) Pos() int { return e.X.Pos() }
func (e *Call) Pos() int      { return e.Fun.Pos() }
func (e *Unary) Pos() int     { return e.At }
func (e *Binary) Pos() int    { return e.X.Pos() }
func (e *Cond) Pos() int      { return e.Test.Pos() }
func (e *Array) Pos() int     { return e.At }

type (
	// Decl is a const, let or var declaration.
	Decl struct {
		Name  string
		Value Expr
	}
	Return struct {
		Value Expr
		At    int
	}
	If struct {
		Test Expr
		Then []Stmt
		Else []Stmt
	}
	ExprStmt struct {
		X Expr
	}
)

func (*Decl) stmtNode()     {}
func (*Return) stmtNode()   {}
func (*If) stmtNode()       {}
func (*ExprStmt) stmtNode() {}

// Param is a function parameter exposed as a node input.
type Param struct {
	ID    string
	Label string
}

// Func is a parsed custom function literal.
type Func struct {
	Params []Param
	// ArrayParams is set when the parameter list uses bracket syntax,
	// which makes callers pass arguments as a single array.
	ArrayParams bool
	// Body holds the statements of a block body. Expression bodies are
	// represented as a single Return statement.
	Body []Stmt
	// Return is the first return statement in source order.
	Return *Return
}

// CalleeName returns the name of the leftmost call in a call chain, such
// as "vec3" for vec3(a,0,0).mul(b). A "TSL." prefix is ignored. It returns
// the empty string if e is not a call.
func CalleeName(e Expr) string {
	call, ok := e.(*Call)
	if !ok {
		return ""
	}
	for {
		switch fn := call.Fun.(type) {
		case *Ident:
			return fn.Name
		case *Member:
			if inner, ok := fn.X.(*Call); ok {
				call = inner
				continue
			}
			return fn.Name
		default:
			return ""
		}
	}
}
