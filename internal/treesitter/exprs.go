package treesitter

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/xonecas/typo/internal/ast"
)

func (l *lowerer) newExpr(node *sitter.Node, kind ast.ExprKind) *ast.Expr {
	return &ast.Expr{ID: ast.DummyNodeID, Kind: kind, Span: l.span(node)}
}

func (l *lowerer) optExpr(node *sitter.Node) *ast.Expr { return l.expr(node) }

// block lowers a block node. A nil node yields nil.
func (l *lowerer) block(node *sitter.Node) *ast.Block {
	if node == nil {
		return nil
	}
	b := &ast.Block{ID: ast.DummyNodeID, Span: l.span(node)}
	var pending []*ast.Attr
	for _, child := range namedChildren(node) {
		switch typ := child.Type(); {
		case typ == "attribute_item":
			pending = append(pending, l.attr(child, false))
			continue
		case typ == "inner_attribute_item", typ == "label", typ == "empty_statement":
			continue
		case typ == "let_declaration":
			b.Stmts = append(b.Stmts, l.newStmt(child, &ast.StmtDecl{Local: l.local(child)}))
		case typ == "expression_statement":
			inner := firstNamed(child)
			if inner == nil {
				continue
			}
			e := l.expr(inner)
			e.Attrs = pending
			if hasChild(child, ";") {
				b.Stmts = append(b.Stmts, l.newStmt(child, &ast.StmtSemi{Expr: e}))
			} else {
				b.Stmts = append(b.Stmts, l.newStmt(child, &ast.StmtExpr{Expr: e}))
			}
		case typ == "macro_invocation" && isTail(child):
			b.Expr = l.expr(child)
			b.Expr.Attrs = pending
		case typ == "macro_invocation":
			b.Stmts = append(b.Stmts, l.newStmt(child, &ast.StmtMac{Mac: l.mac(child), Attrs: pending}))
		case isItem(typ):
			if it := l.item(child, pending); it != nil {
				b.Stmts = append(b.Stmts, l.newStmt(child, &ast.StmtDecl{Item: it}))
			}
		default:
			b.Expr = l.expr(child)
			b.Expr.Attrs = pending
		}
		pending = nil
	}
	return b
}

// isTail reports whether node is the last statement of its block and is
// not followed by a semicolon.
func isTail(node *sitter.Node) bool {
	for next := node.NextSibling(); next != nil; next = next.NextSibling() {
		if isComment(next) {
			continue
		}
		if next.IsNamed() || next.Type() == ";" {
			return false
		}
	}
	return true
}

func (l *lowerer) newStmt(node *sitter.Node, kind ast.StmtKind) *ast.Stmt {
	return &ast.Stmt{ID: ast.DummyNodeID, Kind: kind, Span: l.span(node)}
}

func (l *lowerer) local(node *sitter.Node) *ast.Local {
	loc := &ast.Local{
		ID:   ast.DummyNodeID,
		Pat:  l.pat(node.ChildByFieldName("pattern")),
		Ty:   l.ty(node.ChildByFieldName("type")),
		Init: l.optExpr(node.ChildByFieldName("value")),
		Span: l.span(node),
	}
	if alt := node.ChildByFieldName("alternative"); alt != nil {
		loc.Else = l.block(alt)
	} else if els := childOfType(node, "else_clause"); els != nil {
		loc.Else = l.block(firstNamed(els))
	}
	return loc
}

// expr lowers an expression node. A nil node yields nil.
func (l *lowerer) expr(node *sitter.Node) *ast.Expr {
	if node == nil {
		return nil
	}
	switch node.Type() {
	case "identifier", "self", "super", "crate", "scoped_identifier", "metavariable",
		"generic_function", "field_identifier":
		return l.newExpr(node, &ast.ExprPath{Path: l.path(node)})

	case "integer_literal", "float_literal", "string_literal", "raw_string_literal",
		"char_literal", "boolean_literal":
		return l.newExpr(node, &ast.ExprLit{Lit: l.lit(node)})

	case "negative_literal":
		return l.newExpr(node, &ast.ExprUnary{Op: ast.UnNeg, E: l.expr(lastNamed(node))})

	case "call_expression":
		return l.call(node)

	case "binary_expression":
		op := node.ChildByFieldName("operator")
		return l.newExpr(node, &ast.ExprBinary{
			Op: ast.BinOp(content(op, l.src)),
			L:  l.expr(node.ChildByFieldName("left")),
			R:  l.expr(node.ChildByFieldName("right")),
		})

	case "assignment_expression":
		return l.newExpr(node, &ast.ExprAssign{
			L: l.expr(node.ChildByFieldName("left")),
			R: l.expr(node.ChildByFieldName("right")),
		})

	case "compound_assignment_expr":
		op := content(node.ChildByFieldName("operator"), l.src)
		return l.newExpr(node, &ast.ExprAssignOp{
			Op: ast.BinOp(strings.TrimSuffix(op, "=")),
			L:  l.expr(node.ChildByFieldName("left")),
			R:  l.expr(node.ChildByFieldName("right")),
		})

	case "unary_expression":
		op := ast.UnOp(content(node.Child(0), l.src))
		return l.newExpr(node, &ast.ExprUnary{Op: op, E: l.expr(lastNamed(node))})

	case "reference_expression":
		return l.newExpr(node, &ast.ExprAddrOf{Mut: mutability(node), E: l.expr(node.ChildByFieldName("value"))})

	case "type_cast_expression":
		return l.newExpr(node, &ast.ExprCast{
			E:  l.expr(node.ChildByFieldName("value")),
			Ty: l.ty(node.ChildByFieldName("type")),
		})

	case "try_expression":
		return l.newExpr(node, &ast.ExprTry{E: l.expr(firstNamed(node))})

	case "await_expression":
		inner := firstNamed(node)
		return l.newExpr(node, &ast.ExprField{E: l.expr(inner), Ident: ast.Ident{Name: "await"}})

	case "return_expression", "yield_expression":
		return l.newExpr(node, &ast.ExprRet{E: l.optExpr(firstNamed(node))})

	case "break_expression":
		k := &ast.ExprBreak{}
		for _, child := range namedChildren(node) {
			if child.Type() == "label" {
				k.Label = content(child, l.src)
			} else {
				k.E = l.expr(child)
			}
		}
		return l.newExpr(node, k)

	case "continue_expression":
		k := &ast.ExprAgain{}
		if lb := childOfType(node, "label"); lb != nil {
			k.Label = content(lb, l.src)
		}
		return l.newExpr(node, k)

	case "field_expression":
		value := l.expr(node.ChildByFieldName("value"))
		field := node.ChildByFieldName("field")
		if field != nil && field.Type() == "integer_literal" {
			idx, _ := strconv.Atoi(content(field, l.src))
			return l.newExpr(node, &ast.ExprTupField{E: value, Index: idx})
		}
		return l.newExpr(node, &ast.ExprField{E: value, Ident: l.ident(field)})

	case "index_expression":
		named := namedChildren(node)
		if len(named) < 2 {
			break
		}
		return l.newExpr(node, &ast.ExprIndex{E: l.expr(named[0]), Index: l.expr(named[1])})

	case "array_expression":
		if n := node.ChildByFieldName("length"); n != nil {
			var elem *ast.Expr
			for _, child := range namedChildren(node) {
				if child.Type() != "attribute_item" && !sameNode(child, n) {
					elem = l.expr(child)
					break
				}
			}
			return l.newExpr(node, &ast.ExprRepeat{Elem: elem, Count: l.expr(n)})
		}
		return l.newExpr(node, &ast.ExprVec{Elems: l.exprList(node)})

	case "tuple_expression":
		return l.newExpr(node, &ast.ExprTup{Elems: l.exprList(node)})

	case "unit_expression":
		return l.newExpr(node, &ast.ExprTup{})

	case "parenthesized_expression":
		return l.newExpr(node, &ast.ExprParen{E: l.expr(firstNamed(node))})

	case "struct_expression":
		return l.structExpr(node)

	case "if_expression":
		return l.ifExpr(node)

	case "if_let_expression":
		return l.newExpr(node, &ast.ExprIfLet{
			Pat:  l.pat(node.ChildByFieldName("pattern")),
			E:    l.expr(node.ChildByFieldName("value")),
			Then: l.block(node.ChildByFieldName("consequence")),
			Else: l.elseExpr(node.ChildByFieldName("alternative")),
		})

	case "while_expression":
		body := l.block(node.ChildByFieldName("body"))
		cond := node.ChildByFieldName("condition")
		if let := letCondition(cond); let != nil {
			return l.newExpr(node, &ast.ExprWhileLet{
				Pat:  l.pat(let.ChildByFieldName("pattern")),
				E:    l.expr(let.ChildByFieldName("value")),
				Body: body,
			})
		}
		return l.newExpr(node, &ast.ExprWhile{Cond: l.expr(cond), Body: body})

	case "while_let_expression":
		return l.newExpr(node, &ast.ExprWhileLet{
			Pat:  l.pat(node.ChildByFieldName("pattern")),
			E:    l.expr(node.ChildByFieldName("value")),
			Body: l.block(node.ChildByFieldName("body")),
		})

	case "loop_expression":
		return l.newExpr(node, &ast.ExprLoop{Body: l.block(node.ChildByFieldName("body"))})

	case "for_expression":
		return l.newExpr(node, &ast.ExprForLoop{
			Pat:  l.pat(node.ChildByFieldName("pattern")),
			Iter: l.expr(node.ChildByFieldName("value")),
			Body: l.block(node.ChildByFieldName("body")),
		})

	case "match_expression":
		return l.matchExpr(node)

	case "closure_expression":
		k := &ast.ExprClosure{Decl: &ast.FnDecl{}}
		if params := node.ChildByFieldName("parameters"); params != nil {
			k.Decl.Inputs = l.params(params)
		}
		if ret := node.ChildByFieldName("return_type"); ret != nil {
			k.Decl.Output = l.ty(ret)
		}
		if body := node.ChildByFieldName("body"); body != nil {
			if body.Type() == "block" {
				k.Body = l.block(body)
			} else {
				k.Body = &ast.Block{ID: ast.DummyNodeID, Expr: l.expr(body), Span: l.span(body)}
			}
		}
		return l.newExpr(node, k)

	case "block":
		return l.newExpr(node, &ast.ExprBlock{Block: l.block(node)})

	case "unsafe_block", "async_block", "const_block", "try_block", "gen_block":
		inner := childOfType(node, "block")
		if inner == nil {
			inner = node.ChildByFieldName("body")
		}
		return l.newExpr(node, &ast.ExprBlock{Block: l.block(inner), Unsafe: node.Type() == "unsafe_block"})

	case "range_expression":
		return l.rangeExpr(node)

	case "macro_invocation":
		return l.newExpr(node, &ast.ExprMac{Mac: l.mac(node)})
	}
	return l.newExpr(node, &ast.ExprErr{})
}

func (l *lowerer) exprList(node *sitter.Node) []*ast.Expr {
	var out []*ast.Expr
	for _, child := range namedChildren(node) {
		if child.Type() == "attribute_item" {
			continue
		}
		out = append(out, l.expr(child))
	}
	return out
}

// call lowers call_expression. A call whose callee is a field access is a
// method call; the receiver becomes the first argument.
func (l *lowerer) call(node *sitter.Node) *ast.Expr {
	fn := node.ChildByFieldName("function")
	var args []*ast.Expr
	if a := node.ChildByFieldName("arguments"); a != nil {
		args = l.exprList(a)
	}

	var typeArgs []*ast.Ty
	callee := fn
	if fn.Type() == "generic_function" {
		if inner := fn.ChildByFieldName("function"); inner != nil && inner.Type() == "field_expression" {
			callee = inner
			if ta := fn.ChildByFieldName("type_arguments"); ta != nil {
				typeArgs = l.typeArgs(ta)
			}
		}
	}
	if callee.Type() == "field_expression" {
		recv := l.expr(callee.ChildByFieldName("value"))
		return l.newExpr(node, &ast.ExprMethodCall{
			Ident: l.ident(callee.ChildByFieldName("field")),
			Types: typeArgs,
			Args:  append([]*ast.Expr{recv}, args...),
		})
	}
	return l.newExpr(node, &ast.ExprCall{Fn: l.expr(fn), Args: args})
}

func (l *lowerer) structExpr(node *sitter.Node) *ast.Expr {
	k := &ast.ExprStruct{Path: l.path(node.ChildByFieldName("name"))}
	body := node.ChildByFieldName("body")
	if body == nil {
		return l.newExpr(node, k)
	}
	for _, child := range namedChildren(body) {
		switch child.Type() {
		case "shorthand_field_initializer":
			name := firstNamed(child)
			if name == nil {
				continue
			}
			k.Fields = append(k.Fields, &ast.FieldInit{
				Ident: l.ident(name),
				Expr:  l.newExpr(name, &ast.ExprPath{Path: l.path(name)}),
				Span:  l.span(child),
			})
		case "field_initializer":
			k.Fields = append(k.Fields, &ast.FieldInit{
				Ident: l.ident(child.ChildByFieldName("field")),
				Expr:  l.expr(child.ChildByFieldName("value")),
				Span:  l.span(child),
			})
		case "base_field_initializer":
			k.Base = l.optExpr(firstNamed(child))
		}
	}
	return l.newExpr(node, k)
}

func (l *lowerer) ifExpr(node *sitter.Node) *ast.Expr {
	then := l.block(node.ChildByFieldName("consequence"))
	els := l.elseExpr(node.ChildByFieldName("alternative"))
	cond := node.ChildByFieldName("condition")
	if let := letCondition(cond); let != nil {
		return l.newExpr(node, &ast.ExprIfLet{
			Pat:  l.pat(let.ChildByFieldName("pattern")),
			E:    l.expr(let.ChildByFieldName("value")),
			Then: then,
			Else: els,
		})
	}
	return l.newExpr(node, &ast.ExprIf{Cond: l.expr(cond), Then: then, Else: els})
}

// letCondition returns the let_condition of an if or while condition. For
// let chains only the first let is modelled.
func letCondition(cond *sitter.Node) *sitter.Node {
	if cond == nil {
		return nil
	}
	switch cond.Type() {
	case "let_condition":
		return cond
	case "let_chain":
		return childOfType(cond, "let_condition")
	}
	return nil
}

// elseExpr lowers an else_clause to the expression it introduces: a block
// expression or a nested if.
func (l *lowerer) elseExpr(node *sitter.Node) *ast.Expr {
	if node == nil {
		return nil
	}
	if node.Type() == "else_clause" {
		inner := firstNamed(node)
		if inner == nil {
			return nil
		}
		node = inner
	}
	return l.expr(node)
}

func (l *lowerer) matchExpr(node *sitter.Node) *ast.Expr {
	k := &ast.ExprMatch{E: l.expr(node.ChildByFieldName("value"))}
	body := node.ChildByFieldName("body")
	if body == nil {
		return l.newExpr(node, k)
	}
	var pending []*ast.Attr
	for _, child := range namedChildren(body) {
		switch child.Type() {
		case "attribute_item":
			pending = append(pending, l.attr(child, false))
			continue
		case "match_arm", "last_match_arm":
			arm := l.arm(child)
			arm.Attrs = append(pending, arm.Attrs...)
			k.Arms = append(k.Arms, arm)
		}
		pending = nil
	}
	return l.newExpr(node, k)
}

func (l *lowerer) arm(node *sitter.Node) *ast.Arm {
	arm := &ast.Arm{Span: l.span(node)}
	for _, child := range namedChildren(node) {
		if child.Type() == "attribute_item" {
			arm.Attrs = append(arm.Attrs, l.attr(child, false))
		}
	}
	if mp := node.ChildByFieldName("pattern"); mp != nil {
		if mp.Type() == "match_pattern" {
			guard := mp.ChildByFieldName("condition")
			for _, child := range namedChildren(mp) {
				if sameNode(child, guard) {
					continue
				}
				arm.Pats = append(arm.Pats, l.pat(child))
				break
			}
			if guard != nil {
				arm.Guard = l.expr(guard)
			}
		} else {
			arm.Pats = append(arm.Pats, l.pat(mp))
		}
	}
	if v := node.ChildByFieldName("value"); v != nil {
		arm.Body = l.expr(v)
	}
	return arm
}

func (l *lowerer) rangeExpr(node *sitter.Node) *ast.Expr {
	k := &ast.ExprRange{}
	seenOp := false
	for _, child := range children(node) {
		if !child.IsNamed() {
			switch child.Type() {
			case "..", "..=", "...":
				seenOp = true
				k.Inclusive = child.Type() != ".."
			}
			continue
		}
		if seenOp {
			k.To = l.expr(child)
		} else {
			k.From = l.expr(child)
		}
	}
	return l.newExpr(node, k)
}

// lit lowers a literal token.
func (l *lowerer) lit(node *sitter.Node) *ast.Lit {
	text := content(node, l.src)
	lit := &ast.Lit{Text: text, Span: l.span(node)}
	switch node.Type() {
	case "integer_literal":
		lit.Kind = ast.LitInt
		lit.Suffix = numericSuffix(text, !strings.HasPrefix(text, "0x"))
		if lit.Suffix == "f32" || lit.Suffix == "f64" {
			lit.Kind = ast.LitFloat
		}
	case "float_literal":
		lit.Kind = ast.LitFloat
		lit.Suffix = numericSuffix(text, true)
	case "boolean_literal":
		lit.Kind = ast.LitBool
	case "char_literal":
		lit.Kind = ast.LitChar
		if strings.HasPrefix(text, "b") {
			lit.Kind = ast.LitByte
		}
	case "string_literal", "raw_string_literal":
		lit.Kind = ast.LitStr
		if strings.HasPrefix(text, "b") {
			lit.Kind = ast.LitByteStr
			lit.Len = len(unquote(strings.TrimPrefix(text, "b")))
		}
	}
	return lit
}

var numericSuffixes = []string{
	"i128", "u128", "isize", "usize", "i16", "u16", "i32", "u32", "i64", "u64",
	"i8", "u8", "f32", "f64",
}

// numericSuffix returns the type suffix of a numeric literal. Float
// suffixes are only considered when floats is set, since f32 is valid hex.
func numericSuffix(text string, floats bool) string {
	for _, s := range numericSuffixes {
		if !floats && s[0] == 'f' {
			continue
		}
		if strings.HasSuffix(text, s) && len(text) > len(s) {
			return s
		}
	}
	return ""
}

func firstNamed(node *sitter.Node) *sitter.Node {
	named := namedChildren(node)
	if len(named) == 0 {
		return nil
	}
	return named[0]
}
