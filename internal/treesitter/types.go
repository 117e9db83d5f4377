package treesitter

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/xonecas/typo/internal/ast"
)

// fnDecl lowers the parameters and return_type fields of a function-like
// node.
func (l *lowerer) fnDecl(node *sitter.Node) *ast.FnDecl {
	d := &ast.FnDecl{}
	if params := node.ChildByFieldName("parameters"); params != nil {
		d.Inputs = l.params(params)
	}
	if ret := node.ChildByFieldName("return_type"); ret != nil {
		d.Output = l.ty(ret)
	}
	return d
}

func (l *lowerer) params(node *sitter.Node) []*ast.Param {
	var out []*ast.Param
	for _, child := range namedChildren(node) {
		switch child.Type() {
		case "attribute_item", "variadic_parameter":
		case "self_parameter":
			self := &ast.SelfParam{Ref: hasChild(child, "&"), Mut: mutability(child)}
			selfTok := childOfType(child, "self")
			if selfTok == nil {
				selfTok = child
			}
			out = append(out, &ast.Param{
				ID:   ast.DummyNodeID,
				Pat:  l.newPat(selfTok, &ast.PatIdent{Ident: l.ident(selfTok)}),
				Self: self,
			})
		case "parameter":
			p := &ast.Param{
				ID:  ast.DummyNodeID,
				Pat: l.pat(child.ChildByFieldName("pattern")),
				Ty:  l.ty(child.ChildByFieldName("type")),
			}
			if pat := child.ChildByFieldName("pattern"); pat != nil && pat.Type() == "self" {
				p.Self = &ast.SelfParam{}
			}
			out = append(out, p)
		default:
			// Bare types in fn pointer signatures and bare patterns in
			// closure parameter lists.
			p := &ast.Param{ID: ast.DummyNodeID}
			if node.Type() == "closure_parameters" {
				p.Pat = l.pat(child)
			} else {
				p.Ty = l.ty(child)
			}
			out = append(out, p)
		}
	}
	return out
}

func (l *lowerer) newTy(node *sitter.Node, kind ast.TyKind) *ast.Ty {
	return &ast.Ty{ID: ast.DummyNodeID, Kind: kind, Span: l.span(node)}
}

// ty lowers a type node. A nil node yields nil.
func (l *lowerer) ty(node *sitter.Node) *ast.Ty {
	if node == nil {
		return nil
	}
	switch node.Type() {
	case "type_identifier", "primitive_type", "scoped_type_identifier", "generic_type",
		"identifier", "scoped_identifier", "metavariable":
		return l.newTy(node, &ast.TyPath{Path: l.path(node)})

	case "reference_type":
		k := &ast.TyRptr{Mut: mutability(node), Elem: l.ty(node.ChildByFieldName("type"))}
		if lt := childOfType(node, "lifetime"); lt != nil {
			k.Lifetime = content(lt, l.src)
		}
		return l.newTy(node, k)

	case "pointer_type":
		return l.newTy(node, &ast.TyPtr{Mut: mutability(node), Elem: l.ty(node.ChildByFieldName("type"))})

	case "array_type":
		elem := l.ty(node.ChildByFieldName("element"))
		if n := node.ChildByFieldName("length"); n != nil {
			return l.newTy(node, &ast.TyArray{Elem: elem, Len: l.expr(n)})
		}
		return l.newTy(node, &ast.TySlice{Elem: elem})

	case "tuple_type":
		k := &ast.TyTup{}
		for _, child := range namedChildren(node) {
			k.Elems = append(k.Elems, l.ty(child))
		}
		return l.newTy(node, k)

	case "unit_type":
		return l.newTy(node, &ast.TyTup{})

	case "function_type":
		if tr := l.traitRef(node); tr != nil {
			return l.newTy(node, &ast.TyTraitObject{Bounds: []*ast.TraitRef{tr}})
		}
		return l.newTy(node, &ast.TyBareFn{Decl: l.fnDecl(node)})

	case "never_type", "!":
		return l.newTy(node, &ast.TyNever{})

	case "_":
		return l.newTy(node, &ast.TyInfer{})

	case "abstract_type", "dynamic_type":
		k := &ast.TyTraitObject{Impl: node.Type() == "abstract_type"}
		if tr := node.ChildByFieldName("trait"); tr != nil {
			k.Bounds = l.traitBounds(tr)
		}
		return l.newTy(node, k)

	case "bounded_type":
		return l.newTy(node, &ast.TyTraitObject{Bounds: l.traitBounds(node)})

	case "macro_invocation":
		return l.newTy(node, &ast.TyMac{Mac: l.mac(node)})
	}
	return l.newTy(node, &ast.TyInfer{})
}

// traitBounds flattens `A + B` into trait references.
func (l *lowerer) traitBounds(node *sitter.Node) []*ast.TraitRef {
	if node.Type() != "bounded_type" {
		if tr := l.traitRef(node); tr != nil {
			return []*ast.TraitRef{tr}
		}
		return nil
	}
	var out []*ast.TraitRef
	for _, child := range namedChildren(node) {
		out = append(out, l.traitBounds(child)...)
	}
	return out
}

// path lowers any path-shaped node. Nodes that are not paths become a
// single segment holding their text.
func (l *lowerer) path(node *sitter.Node) *ast.Path {
	p := &ast.Path{Span: l.span(node)}
	l.appendPath(p, node)
	return p
}

func (l *lowerer) appendPath(p *ast.Path, node *sitter.Node) {
	switch node.Type() {
	case "scoped_identifier", "scoped_type_identifier":
		if prefix := node.ChildByFieldName("path"); prefix != nil {
			l.appendPath(p, prefix)
		} else if len(p.Segments) == 0 && hasChild(node, "::") {
			p.Global = true
		}
		name := node.ChildByFieldName("name")
		if name != nil {
			p.Segments = append(p.Segments, &ast.PathSegment{Ident: l.ident(name)})
		}

	case "generic_type", "generic_type_with_turbofish", "generic_function":
		base := node.ChildByFieldName("type")
		if base == nil {
			base = node.ChildByFieldName("function")
		}
		if base != nil {
			l.appendPath(p, base)
		}
		if args := node.ChildByFieldName("type_arguments"); args != nil && len(p.Segments) > 0 {
			last := p.Segments[len(p.Segments)-1]
			last.Types = append(last.Types, l.typeArgs(args)...)
		}

	default:
		p.Segments = append(p.Segments, &ast.PathSegment{Ident: l.ident(node)})
	}
}

// typeArgs lowers the types of a type_arguments node. Lifetimes, const
// arguments and associated type bindings are dropped.
func (l *lowerer) typeArgs(node *sitter.Node) []*ast.Ty {
	var out []*ast.Ty
	for _, child := range namedChildren(node) {
		switch child.Type() {
		case "lifetime", "type_binding", "block", "integer_literal", "trait_bounds":
			continue
		}
		out = append(out, l.ty(child))
	}
	return out
}

func (l *lowerer) newPat(node *sitter.Node, kind ast.PatKind) *ast.Pat {
	return &ast.Pat{ID: ast.DummyNodeID, Kind: kind, Span: l.span(node)}
}

// pat lowers a pattern node. A nil node yields nil.
func (l *lowerer) pat(node *sitter.Node) *ast.Pat {
	if node == nil {
		return nil
	}
	switch node.Type() {
	case "_":
		return l.newPat(node, &ast.PatWild{})

	case "identifier", "self":
		return l.newPat(node, &ast.PatIdent{Ident: l.ident(node)})

	case "mut_pattern":
		inner := l.pat(lastNamed(node))
		if inner != nil {
			if id, ok := inner.Kind.(*ast.PatIdent); ok {
				id.Mut = ast.Mutable
				inner.Span = l.span(node)
			}
		}
		return inner

	case "ref_pattern":
		inner := l.pat(lastNamed(node))
		if inner != nil {
			if id, ok := inner.Kind.(*ast.PatIdent); ok {
				id.ByRef = true
				inner.Span = l.span(node)
			}
		}
		return inner

	case "captured_pattern":
		named := namedChildren(node)
		if len(named) < 2 {
			return l.pat(lastNamed(node))
		}
		binding := l.pat(named[0])
		if id, ok := binding.Kind.(*ast.PatIdent); ok {
			id.Sub = l.pat(named[len(named)-1])
			binding.Span = l.span(node)
			return binding
		}
		return l.pat(named[len(named)-1])

	case "tuple_pattern":
		k := &ast.PatTup{}
		for _, child := range namedChildren(node) {
			k.Elems = append(k.Elems, l.pat(child))
		}
		return l.newPat(node, k)

	case "tuple_struct_pattern":
		typ := node.ChildByFieldName("type")
		k := &ast.PatEnum{Path: l.path(typ), Args: []*ast.Pat{}}
		for _, child := range namedChildren(node) {
			if sameNode(child, typ) {
				continue
			}
			k.Args = append(k.Args, l.pat(child))
		}
		return l.newPat(node, k)

	case "struct_pattern":
		k := &ast.PatStruct{Path: l.path(node.ChildByFieldName("type"))}
		for _, child := range namedChildren(node) {
			switch child.Type() {
			case "field_pattern":
				k.Fields = append(k.Fields, l.fieldPat(child))
			case "remaining_field_pattern":
				k.Etc = true
			}
		}
		return l.newPat(node, k)

	case "scoped_identifier":
		return l.newPat(node, &ast.PatEnum{Path: l.path(node)})

	case "reference_pattern":
		return l.newPat(node, &ast.PatRegion{Mut: mutability(node), P: l.pat(lastNamed(node))})

	case "slice_pattern":
		k := &ast.PatVec{}
		for _, child := range namedChildren(node) {
			k.Elems = append(k.Elems, l.pat(child))
		}
		return l.newPat(node, k)

	case "or_pattern":
		k := &ast.PatOr{}
		for _, child := range namedChildren(node) {
			alt := l.pat(child)
			if or, ok := alt.Kind.(*ast.PatOr); ok {
				k.Alts = append(k.Alts, or.Alts...)
				continue
			}
			k.Alts = append(k.Alts, alt)
		}
		return l.newPat(node, k)

	case "range_pattern":
		named := namedChildren(node)
		k := &ast.PatRange{}
		if len(named) > 0 {
			k.Lo = l.expr(named[0])
		}
		if len(named) > 1 {
			k.Hi = l.expr(named[1])
		}
		return l.newPat(node, k)

	case "integer_literal", "float_literal", "string_literal", "raw_string_literal",
		"char_literal", "boolean_literal", "negative_literal":
		return l.newPat(node, &ast.PatLit{E: l.expr(node)})

	case "remaining_field_pattern":
		return l.newPat(node, &ast.PatRest{})

	case "macro_invocation":
		return l.newPat(node, &ast.PatMac{Mac: l.mac(node)})
	}
	return l.newPat(node, &ast.PatWild{})
}

func (l *lowerer) fieldPat(node *sitter.Node) *ast.FieldPat {
	name := node.ChildByFieldName("name")
	fp := &ast.FieldPat{Ident: l.ident(name), Span: l.span(node)}
	if p := node.ChildByFieldName("pattern"); p != nil {
		fp.Pat = l.pat(p)
		return fp
	}
	fp.Shorthand = true
	bind := &ast.PatIdent{Ident: fp.Ident, Mut: mutability(node), ByRef: hasChild(node, "ref")}
	fp.Pat = l.newPat(node, bind)
	return fp
}

func lastNamed(node *sitter.Node) *sitter.Node {
	named := namedChildren(node)
	if len(named) == 0 {
		return nil
	}
	return named[len(named)-1]
}

func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}
