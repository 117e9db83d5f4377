package treesitter

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/xonecas/typo/internal/ast"
	"github.com/xonecas/typo/internal/codemap"
	"github.com/xonecas/typo/internal/constants"
)

func (l *lowerer) sourceFile(root *sitter.Node) *File {
	items, inner, first := l.itemList(root)
	lo := l.file.Pos(0)
	if first != nil {
		lo = l.file.Pos(int(first.StartByte()))
	}
	return &File{
		Attrs: inner,
		Mod: &ast.Mod{
			Inner: codemap.Span{Lo: lo, Hi: l.file.Pos(len(l.src))},
			Items: items,
		},
	}
}

// itemList lowers the items of a source_file or declaration_list. Outer
// attributes are siblings of the item they annotate. first is the first
// child that is not an inner attribute.
func (l *lowerer) itemList(node *sitter.Node) (items []*ast.Item, inner []*ast.Attr, first *sitter.Node) {
	var pending []*ast.Attr
	for _, child := range namedChildren(node) {
		switch child.Type() {
		case "inner_attribute_item":
			inner = append(inner, l.attr(child, true))
			continue
		case "attribute_item":
			pending = append(pending, l.attr(child, false))
		default:
			if it := l.item(child, pending); it != nil {
				items = append(items, it)
			}
			pending = nil
		}
		if first == nil {
			first = child
		}
	}
	return items, inner, first
}

// isItem reports whether a node type is a declaration that may appear at
// module level.
func isItem(typ string) bool {
	switch typ {
	case "function_item", "function_signature_item", "mod_item", "foreign_mod_item",
		"struct_item", "union_item", "enum_item", "trait_item", "impl_item",
		"use_declaration", "extern_crate_declaration", "const_item", "static_item",
		"type_item", "macro_definition", "macro_invocation", "empty_statement":
		return true
	}
	return false
}

func (l *lowerer) item(node *sitter.Node, attrs []*ast.Attr) *ast.Item {
	it := &ast.Item{
		ID:    ast.DummyNodeID,
		Attrs: attrs,
		Span:  l.span(node),
	}
	name := node.ChildByFieldName("name")

	switch node.Type() {
	case "function_item":
		it.Ident = l.ident(name)
		it.Kind = &ast.ItemFn{
			Decl:     l.fnDecl(node),
			Generics: l.generics(node),
			Body:     l.block(node.ChildByFieldName("body")),
		}

	case "function_signature_item":
		l.fail(node, "free function without a body")
		return nil

	case "mod_item":
		it.Ident = l.ident(name)
		if body := node.ChildByFieldName("body"); body != nil {
			items, inner, _ := l.itemList(body)
			it.Attrs = append(it.Attrs, inner...)
			it.Kind = &ast.ItemMod{Mod: &ast.Mod{Inner: l.span(body), Items: items}, Inline: true}
		} else {
			// Filled in by the module loader.
			it.Kind = &ast.ItemMod{}
		}

	case "foreign_mod_item":
		it.Kind = l.foreignMod(node)

	case "struct_item", "union_item":
		it.Ident = l.ident(name)
		it.Kind = &ast.ItemStruct{
			Def:      l.structDef(node.ChildByFieldName("body")),
			Generics: l.generics(node),
			Union:    node.Type() == "union_item",
		}

	case "enum_item":
		it.Ident = l.ident(name)
		it.Kind = &ast.ItemEnum{
			Variants: l.variants(node.ChildByFieldName("body")),
			Generics: l.generics(node),
		}

	case "trait_item":
		it.Ident = l.ident(name)
		it.Kind = l.trait(node)

	case "impl_item":
		it.Kind = l.impl(node)

	case "use_declaration":
		arg := node.ChildByFieldName("argument")
		if arg == nil {
			l.fail(node, "expected use tree")
			return nil
		}
		it.Kind = &ast.ItemUse{Tree: l.useTree(arg)}

	case "extern_crate_declaration":
		orig := l.ident(name)
		if alias := node.ChildByFieldName("alias"); alias != nil {
			it.Ident = l.ident(alias)
			it.Kind = &ast.ItemExternCrate{Orig: orig.Name}
		} else {
			it.Ident = orig
			it.Kind = &ast.ItemExternCrate{}
		}

	case "const_item":
		it.Ident = l.ident(name)
		it.Kind = &ast.ItemConst{
			Ty:   l.ty(node.ChildByFieldName("type")),
			Expr: l.optExpr(node.ChildByFieldName("value")),
		}

	case "static_item":
		it.Ident = l.ident(name)
		it.Kind = &ast.ItemStatic{
			Ty:   l.ty(node.ChildByFieldName("type")),
			Mut:  mutability(node),
			Expr: l.optExpr(node.ChildByFieldName("value")),
		}

	case "type_item":
		it.Ident = l.ident(name)
		it.Kind = &ast.ItemTy{
			Ty:       l.ty(node.ChildByFieldName("type")),
			Generics: l.generics(node),
		}

	case "macro_definition":
		it.Ident = l.ident(name)
		it.Kind = &ast.ItemMac{Mac: l.macroRules(node)}

	case "macro_invocation":
		it.Kind = &ast.ItemMac{Mac: l.mac(node)}

	case "empty_statement":
		return nil

	default:
		l.fail(node, "expected item, found `%s`", firstToken(content(node, l.src)))
		return nil
	}
	return it
}

func firstToken(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t\r\n("); i > 0 {
		return s[:i]
	}
	return s
}

// macroRules builds the invocation of a macro_rules! definition. The path
// span covers the macro_rules keyword without the bang.
func (l *lowerer) macroRules(node *sitter.Node) *ast.Mac {
	lo := int(node.StartByte())
	if kw := node.Child(0); kw != nil {
		lo = int(kw.StartByte())
	}
	sp := codemap.Span{
		Lo: l.file.Pos(lo),
		Hi: l.file.Pos(lo + len(constants.MacroRulesKeyword)),
	}
	return &ast.Mac{
		Path: &ast.Path{
			Segments: []*ast.PathSegment{{Ident: ast.Ident{Name: constants.MacroRulesKeyword, Span: sp}}},
			Span:     sp,
		},
		Span: l.span(node),
	}
}

func (l *lowerer) mac(node *sitter.Node) *ast.Mac {
	m := &ast.Mac{Span: l.span(node)}
	if name := node.ChildByFieldName("macro"); name != nil {
		m.Path = l.path(name)
	} else {
		m.Path = &ast.Path{Span: m.Span}
	}
	return m
}

func (l *lowerer) foreignMod(node *sitter.Node) *ast.ItemForeignMod {
	fm := &ast.ItemForeignMod{ABI: "C"}
	if mod := childOfType(node, "extern_modifier"); mod != nil {
		if abi := childOfType(mod, "string_literal"); abi != nil {
			fm.ABI = unquote(content(abi, l.src))
		}
	}
	body := node.ChildByFieldName("body")
	if body == nil {
		return fm
	}
	var pending []*ast.Attr
	for _, child := range namedChildren(body) {
		switch child.Type() {
		case "attribute_item":
			pending = append(pending, l.attr(child, false))
			continue
		case "function_signature_item":
			fm.Items = append(fm.Items, &ast.ForeignItem{
				ID:    ast.DummyNodeID,
				Ident: l.ident(child.ChildByFieldName("name")),
				Attrs: pending,
				Decl:  l.fnDecl(child),
				Span:  l.span(child),
			})
		case "static_item":
			fm.Items = append(fm.Items, &ast.ForeignItem{
				ID:    ast.DummyNodeID,
				Ident: l.ident(child.ChildByFieldName("name")),
				Attrs: pending,
				Ty:    l.ty(child.ChildByFieldName("type")),
				Span:  l.span(child),
			})
		}
		pending = nil
	}
	return fm
}

func (l *lowerer) structDef(body *sitter.Node) *ast.StructDef {
	sd := &ast.StructDef{CtorID: ast.DummyNodeID}
	if body == nil {
		return sd
	}
	var pending []*ast.Attr
	switch body.Type() {
	case "field_declaration_list":
		for _, child := range namedChildren(body) {
			switch child.Type() {
			case "attribute_item":
				pending = append(pending, l.attr(child, false))
			case "field_declaration":
				sd.Fields = append(sd.Fields, &ast.StructField{
					ID:    ast.DummyNodeID,
					Ident: l.ident(child.ChildByFieldName("name")),
					Attrs: pending,
					Ty:    l.ty(child.ChildByFieldName("type")),
					Span:  l.span(child),
				})
				pending = nil
			}
		}
	case "ordered_field_declaration_list":
		sd.Tuple = true
		for _, child := range namedChildren(body) {
			switch child.Type() {
			case "attribute_item":
				pending = append(pending, l.attr(child, false))
			case "visibility_modifier":
			default:
				sd.Fields = append(sd.Fields, &ast.StructField{
					ID:    ast.DummyNodeID,
					Attrs: pending,
					Ty:    l.ty(child),
					Span:  l.span(child),
				})
				pending = nil
			}
		}
	}
	return sd
}

func (l *lowerer) variants(body *sitter.Node) []*ast.Variant {
	if body == nil {
		return nil
	}
	var out []*ast.Variant
	var pending []*ast.Attr
	for _, child := range namedChildren(body) {
		switch child.Type() {
		case "attribute_item":
			pending = append(pending, l.attr(child, false))
		case "enum_variant":
			va := &ast.Variant{
				ID:    ast.DummyNodeID,
				Name:  l.ident(child.ChildByFieldName("name")),
				Attrs: pending,
				Disr:  l.optExpr(child.ChildByFieldName("value")),
				Span:  l.span(child),
			}
			if b := child.ChildByFieldName("body"); b != nil {
				va.Def = l.structDef(b)
			}
			out = append(out, va)
			pending = nil
		}
	}
	return out
}

func (l *lowerer) trait(node *sitter.Node) *ast.ItemTrait {
	tr := &ast.ItemTrait{Generics: l.generics(node)}
	if b := node.ChildByFieldName("bounds"); b != nil {
		tr.Bounds = l.bounds(b)
	}
	body := node.ChildByFieldName("body")
	if body == nil {
		return tr
	}
	var pending []*ast.Attr
	for _, child := range namedChildren(body) {
		var kind ast.TraitItemKind
		switch child.Type() {
		case "attribute_item":
			pending = append(pending, l.attr(child, false))
			continue
		case "function_item":
			kind = &ast.ProvidedMethod{Method: l.method(child, pending)}
		case "function_signature_item":
			kind = &ast.RequiredMethod{Method: &ast.TypeMethod{
				ID:       ast.DummyNodeID,
				Ident:    l.ident(child.ChildByFieldName("name")),
				Attrs:    pending,
				Generics: l.generics(child),
				Decl:     l.fnDecl(child),
				Span:     l.span(child),
			}}
		case "associated_type":
			name := child.ChildByFieldName("name")
			tp := &ast.TyParam{
				ID:    ast.DummyNodeID,
				Ident: l.ident(name),
				Span:  l.span(child),
			}
			if name != nil {
				tp.Span = l.spanBetween(name, child)
			}
			if b := child.ChildByFieldName("bounds"); b != nil {
				tp.Bounds = l.bounds(b)
			}
			kind = &ast.AssocType{TyParam: tp}
		case "const_item":
			kind = &ast.AssocConst{
				ID:    ast.DummyNodeID,
				Ident: l.ident(child.ChildByFieldName("name")),
				Ty:    l.ty(child.ChildByFieldName("type")),
				Expr:  l.optExpr(child.ChildByFieldName("value")),
				Span:  l.span(child),
			}
		default:
			pending = nil
			continue
		}
		tr.Items = append(tr.Items, &ast.TraitItem{Attrs: pending, Kind: kind})
		pending = nil
	}
	return tr
}

func (l *lowerer) impl(node *sitter.Node) *ast.ItemImpl {
	im := &ast.ItemImpl{
		Generics: l.generics(node),
		SelfTy:   l.ty(node.ChildByFieldName("type")),
	}
	if tr := node.ChildByFieldName("trait"); tr != nil {
		im.Trait = &ast.TraitRef{RefID: ast.DummyNodeID, Path: l.path(tr)}
	}
	body := node.ChildByFieldName("body")
	if body == nil {
		return im
	}
	var pending []*ast.Attr
	for _, child := range namedChildren(body) {
		var kind ast.ImplItemKind
		switch child.Type() {
		case "attribute_item":
			pending = append(pending, l.attr(child, false))
			continue
		case "function_item":
			kind = &ast.ImplMethod{Method: l.method(child, pending)}
		case "type_item":
			kind = &ast.ImplTypedef{
				ID:    ast.DummyNodeID,
				Ident: l.ident(child.ChildByFieldName("name")),
				Ty:    l.ty(child.ChildByFieldName("type")),
				Span:  l.span(child),
			}
		case "const_item":
			kind = &ast.ImplConst{
				ID:    ast.DummyNodeID,
				Ident: l.ident(child.ChildByFieldName("name")),
				Ty:    l.ty(child.ChildByFieldName("type")),
				Expr:  l.optExpr(child.ChildByFieldName("value")),
				Span:  l.span(child),
			}
		default:
			pending = nil
			continue
		}
		im.Items = append(im.Items, &ast.ImplItem{Attrs: pending, Kind: kind})
		pending = nil
	}
	return im
}

func (l *lowerer) method(node *sitter.Node, attrs []*ast.Attr) *ast.Method {
	return &ast.Method{
		ID:       ast.DummyNodeID,
		Ident:    l.ident(node.ChildByFieldName("name")),
		Attrs:    attrs,
		Generics: l.generics(node),
		Decl:     l.fnDecl(node),
		Body:     l.block(node.ChildByFieldName("body")),
		Span:     l.span(node),
	}
}

func (l *lowerer) useTree(node *sitter.Node) *ast.UseTree {
	u := &ast.UseTree{ID: ast.DummyNodeID, Span: l.span(node)}
	switch node.Type() {
	case "use_as_clause":
		u.Kind = ast.UseSimple
		u.Prefix = l.path(node.ChildByFieldName("path"))
		u.Rename = l.ident(node.ChildByFieldName("alias"))
	case "use_wildcard":
		u.Kind = ast.UseGlob
		if named := namedChildren(node); len(named) > 0 {
			u.Prefix = l.path(named[0])
		}
	case "scoped_use_list":
		u.Kind = ast.UseList
		if p := node.ChildByFieldName("path"); p != nil {
			u.Prefix = l.path(p)
		}
		if list := node.ChildByFieldName("list"); list != nil {
			u.Items = l.useList(list)
		}
	case "use_list":
		u.Kind = ast.UseList
		u.Items = l.useList(node)
	default:
		u.Kind = ast.UseSimple
		u.Prefix = l.path(node)
		if last := u.Prefix.Last(); last != nil {
			u.Rename = last.Ident
		}
	}
	return u
}

func (l *lowerer) useList(node *sitter.Node) []*ast.UseTree {
	var out []*ast.UseTree
	for _, child := range namedChildren(node) {
		out = append(out, l.useTree(child))
	}
	return out
}

// generics lowers the type_parameters and where_clause children of an item.
func (l *lowerer) generics(node *sitter.Node) *ast.Generics {
	g := &ast.Generics{}
	if params := node.ChildByFieldName("type_parameters"); params != nil {
		for _, child := range namedChildren(params) {
			switch child.Type() {
			case "lifetime":
				g.Lifetimes = append(g.Lifetimes, l.ident(child))
			case "lifetime_parameter":
				g.Lifetimes = append(g.Lifetimes, l.ident(child.ChildByFieldName("name")))
			case "type_identifier", "metavariable":
				g.TyParams = append(g.TyParams, &ast.TyParam{
					ID:    ast.DummyNodeID,
					Ident: l.ident(child),
					Span:  l.span(child),
				})
			case "constrained_type_parameter":
				left := child.ChildByFieldName("left")
				if left != nil && left.Type() == "lifetime" {
					g.Lifetimes = append(g.Lifetimes, l.ident(left))
					continue
				}
				tp := &ast.TyParam{ID: ast.DummyNodeID, Ident: l.ident(left), Span: l.span(child)}
				if b := child.ChildByFieldName("bounds"); b != nil {
					tp.Bounds = l.bounds(b)
				}
				g.TyParams = append(g.TyParams, tp)
			case "optional_type_parameter", "type_parameter":
				nameNode := child.ChildByFieldName("name")
				tp := &ast.TyParam{ID: ast.DummyNodeID, Ident: l.ident(nameNode), Span: l.span(child)}
				if nameNode != nil && nameNode.Type() == "constrained_type_parameter" {
					tp.Ident = l.ident(nameNode.ChildByFieldName("left"))
					if b := nameNode.ChildByFieldName("bounds"); b != nil {
						tp.Bounds = l.bounds(b)
					}
				}
				if b := child.ChildByFieldName("bounds"); b != nil {
					tp.Bounds = append(tp.Bounds, l.bounds(b)...)
				}
				if def := child.ChildByFieldName("default_type"); def != nil {
					tp.Default = l.ty(def)
				}
				g.TyParams = append(g.TyParams, tp)
			}
		}
	}
	if where := childOfType(node, "where_clause"); where != nil {
		for _, pred := range namedChildren(where) {
			if pred.Type() != "where_predicate" {
				continue
			}
			left := pred.ChildByFieldName("left")
			b := pred.ChildByFieldName("bounds")
			if left == nil || b == nil {
				continue
			}
			name := content(left, l.src)
			for _, tp := range g.TyParams {
				if tp.Ident.Name == name {
					tp.Bounds = append(tp.Bounds, l.bounds(b)...)
				}
			}
		}
	}
	return g
}

// bounds lowers a trait_bounds node. Lifetimes and ?Sized are dropped.
func (l *lowerer) bounds(node *sitter.Node) []*ast.TraitRef {
	var out []*ast.TraitRef
	for _, child := range namedChildren(node) {
		if tr := l.traitRef(child); tr != nil {
			out = append(out, tr)
		}
	}
	return out
}

func (l *lowerer) traitRef(node *sitter.Node) *ast.TraitRef {
	switch node.Type() {
	case "type_identifier", "scoped_type_identifier", "generic_type":
		return &ast.TraitRef{RefID: ast.DummyNodeID, Path: l.path(node)}
	case "function_type":
		if tr := node.ChildByFieldName("trait"); tr != nil {
			return &ast.TraitRef{RefID: ast.DummyNodeID, Path: l.path(tr)}
		}
	case "higher_ranked_trait_bound":
		if t := node.ChildByFieldName("type"); t != nil {
			return l.traitRef(t)
		}
	}
	return nil
}

// attr lowers an attribute_item or inner_attribute_item.
func (l *lowerer) attr(node *sitter.Node, inner bool) *ast.Attr {
	a := &ast.Attr{Inner: inner, Span: l.span(node)}
	body := childOfType(node, "attribute")
	if body == nil {
		body = childOfType(node, "meta_item")
	}
	if body != nil {
		a.Meta = l.meta(body)
	}
	return a
}

func (l *lowerer) meta(node *sitter.Node) *ast.MetaItem {
	mi := &ast.MetaItem{Kind: ast.MetaWord, Span: l.span(node)}
	named := namedChildren(node)
	if len(named) > 0 {
		mi.Name = content(named[0], l.src)
	}
	if v := node.ChildByFieldName("value"); v != nil {
		mi.Kind = ast.MetaNameValue
		mi.Value = unquote(content(v, l.src))
		return mi
	}
	args := node.ChildByFieldName("arguments")
	if args == nil {
		return mi
	}
	mi.Kind = ast.MetaList
	if args.Type() == "token_tree" {
		mi.List = l.metaList(args)
		return mi
	}
	for _, child := range namedChildren(args) {
		if child.Type() == "meta_item" {
			mi.List = append(mi.List, l.meta(child))
		}
	}
	return mi
}

// metaList reads a parenthesised token tree as a comma separated list of
// words, name = "value" pairs and nested lists. Anything else is skipped.
func (l *lowerer) metaList(tt *sitter.Node) []*ast.MetaItem {
	toks := children(tt)
	if len(toks) >= 2 {
		toks = toks[1 : len(toks)-1]
	}
	var list []*ast.MetaItem
	for i := 0; i < len(toks); {
		tok := toks[i]
		if tok.Type() != "identifier" {
			i++
			continue
		}
		mi := &ast.MetaItem{Kind: ast.MetaWord, Name: content(tok, l.src), Span: l.span(tok)}
		switch {
		case i+2 < len(toks) && toks[i+1].Type() == "=":
			mi.Kind = ast.MetaNameValue
			mi.Value = unquote(content(toks[i+2], l.src))
			mi.Span = l.spanBetween(tok, toks[i+2])
			i += 3
		case i+1 < len(toks) && toks[i+1].Type() == "token_tree":
			mi.Kind = ast.MetaList
			mi.List = l.metaList(toks[i+1])
			mi.Span = l.spanBetween(tok, toks[i+1])
			i += 2
		default:
			i++
		}
		list = append(list, mi)
	}
	return list
}

// unquote strips the quotes of a string literal, raw strings included.
// Text that is not a string literal is returned unchanged.
func unquote(s string) string {
	if strings.HasPrefix(s, "r") && len(s) > 1 && (s[1] == '"' || s[1] == '#') {
		s = strings.TrimLeft(s[1:], "#")
		s = strings.TrimRight(s, "#")
		return strings.TrimSuffix(strings.TrimPrefix(s, `"`), `"`)
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		if u, err := strconv.Unquote(s); err == nil {
			return u
		}
		return s[1 : len(s)-1]
	}
	return s
}

func mutability(node *sitter.Node) ast.Mutability {
	if hasChild(node, "mutable_specifier") {
		return ast.Mutable
	}
	return ast.Immutable
}
