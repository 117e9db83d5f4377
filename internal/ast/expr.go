package ast

import "github.com/xonecas/typo/internal/codemap"

// Block is a brace-delimited sequence of statements with an optional tail.
type Block struct {
	ID    NodeID
	Stmts []*Stmt
	Expr  *Expr // tail expression, may be nil
	Span  codemap.Span
}

// Stmt is a statement inside a block.
type Stmt struct {
	ID   NodeID
	Kind StmtKind
	Span codemap.Span
}

// StmtKind is one of the Stmt* variant types.
type StmtKind interface{ stmtKind() }

// StmtDecl declares a local binding or a nested item.
type StmtDecl struct {
	Local *Local // exactly one of Local and Item is set
	Item  *Item
}

// StmtExpr is an expression statement without a trailing semicolon
// (block-like expressions such as `if` and `loop`).
type StmtExpr struct {
	Expr *Expr
}

// StmtSemi is an expression followed by a semicolon.
type StmtSemi struct {
	Expr *Expr
}

// StmtMac is a macro invocation in statement position. Expansion keeps
// it as an opaque statement.
type StmtMac struct {
	Mac   *Mac
	Attrs []*Attr
}

func (*StmtDecl) stmtKind() {}
func (*StmtExpr) stmtKind() {}
func (*StmtSemi) stmtKind() {}
func (*StmtMac) stmtKind()  {}

// Local is a let binding.
type Local struct {
	ID   NodeID
	Pat  *Pat
	Ty   *Ty
	Init *Expr
	Else *Block // let-else
	Span codemap.Span
}

// Expr is an expression.
type Expr struct {
	ID    NodeID
	Attrs []*Attr
	Kind  ExprKind
	Span  codemap.Span
}

// ExprKind is one of the Expr* variant types.
type ExprKind interface{ exprKind() }

// BinOp is a binary operator.
type BinOp string

// IsComparison reports whether op yields a bool from two operands.
func (op BinOp) IsComparison() bool {
	switch op {
	case "==", "!=", "<", "<=", ">", ">=":
		return true
	}
	return false
}

// IsLazy reports whether op is a short-circuiting boolean operator.
func (op BinOp) IsLazy() bool { return op == "&&" || op == "||" }

// IsShift reports whether op is a shift operator.
func (op BinOp) IsShift() bool { return op == "<<" || op == ">>" }

// UnOp is a prefix operator.
type UnOp string

const (
	UnDeref UnOp = "*"
	UnNot   UnOp = "!"
	UnNeg   UnOp = "-"
)

type (
	// ExprPath is a bare path such as `x` or `Vec::new`.
	ExprPath struct{ Path *Path }

	// ExprLit is a literal.
	ExprLit struct{ Lit *Lit }

	// ExprCall is `f(args)`.
	ExprCall struct {
		Fn   *Expr
		Args []*Expr
	}

	// ExprMethodCall is `receiver.name::<tys>(args)`; Args[0] is the
	// receiver.
	ExprMethodCall struct {
		Ident Ident
		Types []*Ty
		Args  []*Expr
	}

	// ExprTup is `(a, b)`; the empty tuple is the unit expression.
	ExprTup struct{ Elems []*Expr }

	// ExprVec is an array literal `[a, b]`.
	ExprVec struct{ Elems []*Expr }

	// ExprRepeat is `[elem; count]`.
	ExprRepeat struct{ Elem, Count *Expr }

	// ExprBinary is `l op r`.
	ExprBinary struct {
		Op   BinOp
		L, R *Expr
	}

	// ExprUnary is `op e`.
	ExprUnary struct {
		Op UnOp
		E  *Expr
	}

	// ExprAddrOf is `&e` or `&mut e`.
	ExprAddrOf struct {
		Mut Mutability
		E   *Expr
	}

	// ExprCast is `e as Ty`.
	ExprCast struct {
		E  *Expr
		Ty *Ty
	}

	// ExprIf is `if cond { .. } else ..`.
	ExprIf struct {
		Cond *Expr
		Then *Block
		Else *Expr
	}

	// ExprIfLet is `if let pat = e { .. } else ..`.
	ExprIfLet struct {
		Pat  *Pat
		E    *Expr
		Then *Block
		Else *Expr
	}

	// ExprWhile is `while cond { .. }`.
	ExprWhile struct {
		Cond *Expr
		Body *Block
	}

	// ExprWhileLet is `while let pat = e { .. }`.
	ExprWhileLet struct {
		Pat  *Pat
		E    *Expr
		Body *Block
	}

	// ExprForLoop is `for pat in iter { .. }`.
	ExprForLoop struct {
		Pat  *Pat
		Iter *Expr
		Body *Block
	}

	// ExprLoop is `loop { .. }`.
	ExprLoop struct{ Body *Block }

	// ExprMatch is `match e { arms }`.
	ExprMatch struct {
		E    *Expr
		Arms []*Arm
	}

	// ExprClosure is `|params| body`.
	ExprClosure struct {
		Decl *FnDecl
		Body *Block
	}

	// ExprBlock is a block used as an expression, unsafe and async blocks
	// included.
	ExprBlock struct {
		Block  *Block
		Unsafe bool
	}

	// ExprAssign is `l = r`.
	ExprAssign struct{ L, R *Expr }

	// ExprAssignOp is `l op= r`.
	ExprAssignOp struct {
		Op   BinOp
		L, R *Expr
	}

	// ExprField is `e.name`.
	ExprField struct {
		E     *Expr
		Ident Ident
	}

	// ExprTupField is `e.0`.
	ExprTupField struct {
		E     *Expr
		Index int
	}

	// ExprIndex is `e[i]`.
	ExprIndex struct{ E, Index *Expr }

	// ExprRange is `a..b`, either end optional.
	ExprRange struct {
		From, To  *Expr
		Inclusive bool
	}

	// ExprStruct is `Path { field: e, ..base }`.
	ExprStruct struct {
		Path   *Path
		Fields []*FieldInit
		Base   *Expr
	}

	// ExprParen is `(e)`.
	ExprParen struct{ E *Expr }

	// ExprTry is `e?`.
	ExprTry struct{ E *Expr }

	// ExprRet is `return [e]`.
	ExprRet struct{ E *Expr }

	// ExprBreak is `break ['label] [e]`.
	ExprBreak struct {
		Label string
		E     *Expr
	}

	// ExprAgain is `continue ['label]`.
	ExprAgain struct{ Label string }

	// ExprMac is a macro invocation in expression position. Expansion keeps
	// it as an opaque leaf.
	ExprMac struct{ Mac *Mac }

	// ExprErr stands in for syntax the front end does not model, such as
	// inline assembly or qualified paths.
	ExprErr struct{}
)

func (*ExprPath) exprKind()       {}
func (*ExprLit) exprKind()        {}
func (*ExprCall) exprKind()       {}
func (*ExprMethodCall) exprKind() {}
func (*ExprTup) exprKind()        {}
func (*ExprVec) exprKind()        {}
func (*ExprRepeat) exprKind()     {}
func (*ExprBinary) exprKind()     {}
func (*ExprUnary) exprKind()      {}
func (*ExprAddrOf) exprKind()     {}
func (*ExprCast) exprKind()       {}
func (*ExprIf) exprKind()         {}
func (*ExprIfLet) exprKind()      {}
func (*ExprWhile) exprKind()      {}
func (*ExprWhileLet) exprKind()   {}
func (*ExprForLoop) exprKind()    {}
func (*ExprLoop) exprKind()       {}
func (*ExprMatch) exprKind()      {}
func (*ExprClosure) exprKind()    {}
func (*ExprBlock) exprKind()      {}
func (*ExprAssign) exprKind()     {}
func (*ExprAssignOp) exprKind()   {}
func (*ExprField) exprKind()      {}
func (*ExprTupField) exprKind()   {}
func (*ExprIndex) exprKind()      {}
func (*ExprRange) exprKind()      {}
func (*ExprStruct) exprKind()     {}
func (*ExprParen) exprKind()      {}
func (*ExprTry) exprKind()        {}
func (*ExprRet) exprKind()        {}
func (*ExprBreak) exprKind()      {}
func (*ExprAgain) exprKind()      {}
func (*ExprMac) exprKind()        {}
func (*ExprErr) exprKind()        {}

// FieldInit is one `name: value` entry of a struct expression. Shorthand
// fields carry a path expression as value.
type FieldInit struct {
	Ident Ident
	Expr  *Expr
	Span  codemap.Span
}

// Arm is one match arm.
type Arm struct {
	Attrs []*Attr
	Pats  []*Pat
	Guard *Expr
	Body  *Expr
	Span  codemap.Span
}

// LitKind distinguishes literal forms.
type LitKind int

const (
	LitInt LitKind = iota
	LitFloat
	LitStr
	LitByteStr
	LitChar
	LitByte
	LitBool
)

// Lit is a literal with its source text.
type Lit struct {
	Kind LitKind
	// Text is the literal as written, quotes and suffix included.
	Text string
	// Suffix is a numeric type suffix such as "u8", if any.
	Suffix string
	// Len is the decoded length of byte string literals.
	Len  int
	Span codemap.Span
}
