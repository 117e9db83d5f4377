package ast

import "github.com/xonecas/typo/internal/codemap"

// FnKind tells the Fn hook what kind of function body it is looking at.
type FnKind int

const (
	// FnItem is a free function item. The Item hook has already seen it.
	FnItem FnKind = iota
	// FnMethod is a named method in an impl or a provided trait method.
	FnMethod
	// FnClosure is an anonymous closure.
	FnClosure
)

// Visitor is a set of per-kind hooks for Walk. Any hook may be nil. Each
// hook is called before the walk descends into the node's children, and
// the walk always descends, so a visitor only supplies the kinds it
// records.
type Visitor struct {
	Item        func(*Item)
	ForeignItem func(*ForeignItem)
	UseTree     func(*UseTree)
	TraitItem   func(*TraitItem)
	TypeMethod  func(*TypeMethod)
	ImplItem    func(*ImplItem)
	StructField func(*StructField)
	Variant     func(*Variant)
	TyParam     func(*TyParam)
	TraitRef    func(*TraitRef)
	Param       func(*Param)
	Block       func(*Block)
	Stmt        func(*Stmt)
	Local       func(*Local)
	Arm         func(*Arm)
	Expr        func(*Expr)
	Pat         func(*Pat)
	Ty          func(*Ty)
	Mac         func(*Mac)

	// Fn is called for every function body: free functions, methods and
	// closures. ident is empty for closures.
	Fn func(kind FnKind, ident Ident, decl *FnDecl, body *Block, sp codemap.Span, id NodeID)

	// Path is called for every path together with the id of the node that
	// owns it: an expression, pattern, type, trait reference or use tree.
	Path func(p *Path, owner NodeID)
}

// Walk visits every node of c in pre-order.
func Walk(v *Visitor, c *Crate) {
	if c == nil || c.Module == nil {
		return
	}
	w := walker{v}
	w.mod(c.Module)
}

// WalkItem visits it and everything below it in pre-order.
func WalkItem(v *Visitor, it *Item) {
	walker{v}.item(it)
}

type walker struct {
	v *Visitor
}

func (w walker) mod(m *Mod) {
	if m == nil {
		return
	}
	for _, it := range m.Items {
		w.item(it)
	}
}

func (w walker) item(it *Item) {
	if w.v.Item != nil {
		w.v.Item(it)
	}
	switch k := it.Kind.(type) {
	case *ItemFn:
		w.fn(FnItem, it.Ident, k.Generics, k.Decl, k.Body, it.Span, it.ID)
	case *ItemMod:
		w.mod(k.Mod)
	case *ItemForeignMod:
		for _, fi := range k.Items {
			w.foreignItem(fi)
		}
	case *ItemStruct:
		w.generics(k.Generics)
		w.structDef(k.Def)
	case *ItemEnum:
		w.generics(k.Generics)
		for _, va := range k.Variants {
			w.variant(va)
		}
	case *ItemTrait:
		w.generics(k.Generics)
		for _, b := range k.Bounds {
			w.traitRef(b)
		}
		for _, ti := range k.Items {
			w.traitItem(ti)
		}
	case *ItemImpl:
		w.generics(k.Generics)
		if k.Trait != nil {
			w.traitRef(k.Trait)
		}
		w.ty(k.SelfTy)
		for _, ii := range k.Items {
			w.implItem(ii)
		}
	case *ItemUse:
		w.useTree(k.Tree)
	case *ItemConst:
		w.ty(k.Ty)
		w.expr(k.Expr)
	case *ItemStatic:
		w.ty(k.Ty)
		w.expr(k.Expr)
	case *ItemTy:
		w.generics(k.Generics)
		w.ty(k.Ty)
	case *ItemMac:
		w.mac(k.Mac)
	case *ItemExternCrate:
	}
}

func (w walker) fn(kind FnKind, ident Ident, g *Generics, decl *FnDecl, body *Block, sp codemap.Span, id NodeID) {
	if w.v.Fn != nil {
		w.v.Fn(kind, ident, decl, body, sp, id)
	}
	w.generics(g)
	w.fnDecl(decl)
	w.block(body)
}

func (w walker) fnDecl(d *FnDecl) {
	if d == nil {
		return
	}
	for _, p := range d.Inputs {
		if w.v.Param != nil {
			w.v.Param(p)
		}
		w.pat(p.Pat)
		w.ty(p.Ty)
	}
	w.ty(d.Output)
}

func (w walker) foreignItem(fi *ForeignItem) {
	if w.v.ForeignItem != nil {
		w.v.ForeignItem(fi)
	}
	w.fnDecl(fi.Decl)
	w.ty(fi.Ty)
}

func (w walker) structDef(sd *StructDef) {
	if sd == nil {
		return
	}
	for _, f := range sd.Fields {
		if w.v.StructField != nil {
			w.v.StructField(f)
		}
		w.ty(f.Ty)
	}
}

func (w walker) variant(va *Variant) {
	if w.v.Variant != nil {
		w.v.Variant(va)
	}
	w.structDef(va.Def)
	w.expr(va.Disr)
}

func (w walker) traitItem(ti *TraitItem) {
	if w.v.TraitItem != nil {
		w.v.TraitItem(ti)
	}
	switch k := ti.Kind.(type) {
	case *RequiredMethod:
		m := k.Method
		if w.v.TypeMethod != nil {
			w.v.TypeMethod(m)
		}
		w.generics(m.Generics)
		w.fnDecl(m.Decl)
	case *ProvidedMethod:
		m := k.Method
		w.fn(FnMethod, m.Ident, m.Generics, m.Decl, m.Body, m.Span, m.ID)
	case *AssocType:
		w.tyParam(k.TyParam)
	case *AssocConst:
		w.ty(k.Ty)
		w.expr(k.Expr)
	}
}

func (w walker) implItem(ii *ImplItem) {
	if w.v.ImplItem != nil {
		w.v.ImplItem(ii)
	}
	switch k := ii.Kind.(type) {
	case *ImplMethod:
		m := k.Method
		w.fn(FnMethod, m.Ident, m.Generics, m.Decl, m.Body, m.Span, m.ID)
	case *ImplTypedef:
		w.ty(k.Ty)
	case *ImplConst:
		w.ty(k.Ty)
		w.expr(k.Expr)
	}
}

func (w walker) useTree(u *UseTree) {
	if u == nil {
		return
	}
	if w.v.UseTree != nil {
		w.v.UseTree(u)
	}
	if u.Prefix != nil {
		w.path(u.Prefix, u.ID)
	}
	for _, sub := range u.Items {
		w.useTree(sub)
	}
}

func (w walker) generics(g *Generics) {
	if g == nil {
		return
	}
	for _, tp := range g.TyParams {
		w.tyParam(tp)
	}
}

func (w walker) tyParam(tp *TyParam) {
	if w.v.TyParam != nil {
		w.v.TyParam(tp)
	}
	for _, b := range tp.Bounds {
		w.traitRef(b)
	}
	w.ty(tp.Default)
}

func (w walker) traitRef(tr *TraitRef) {
	if w.v.TraitRef != nil {
		w.v.TraitRef(tr)
	}
	w.path(tr.Path, tr.RefID)
}

func (w walker) path(p *Path, owner NodeID) {
	if w.v.Path != nil {
		w.v.Path(p, owner)
	}
	for _, seg := range p.Segments {
		for _, t := range seg.Types {
			w.ty(t)
		}
	}
}

func (w walker) block(b *Block) {
	if b == nil {
		return
	}
	if w.v.Block != nil {
		w.v.Block(b)
	}
	for _, s := range b.Stmts {
		w.stmt(s)
	}
	w.expr(b.Expr)
}

func (w walker) stmt(s *Stmt) {
	if w.v.Stmt != nil {
		w.v.Stmt(s)
	}
	switch k := s.Kind.(type) {
	case *StmtDecl:
		if k.Local != nil {
			w.local(k.Local)
		}
		if k.Item != nil {
			w.item(k.Item)
		}
	case *StmtExpr:
		w.expr(k.Expr)
	case *StmtSemi:
		w.expr(k.Expr)
	case *StmtMac:
		w.mac(k.Mac)
	}
}

func (w walker) local(l *Local) {
	if w.v.Local != nil {
		w.v.Local(l)
	}
	w.pat(l.Pat)
	w.ty(l.Ty)
	w.expr(l.Init)
	w.block(l.Else)
}

func (w walker) mac(m *Mac) {
	if w.v.Mac != nil {
		w.v.Mac(m)
	}
}

func (w walker) exprs(es []*Expr) {
	for _, e := range es {
		w.expr(e)
	}
}

func (w walker) expr(e *Expr) {
	if e == nil {
		return
	}
	if w.v.Expr != nil {
		w.v.Expr(e)
	}
	switch k := e.Kind.(type) {
	case *ExprPath:
		w.path(k.Path, e.ID)
	case *ExprCall:
		w.expr(k.Fn)
		w.exprs(k.Args)
	case *ExprMethodCall:
		if len(k.Args) > 0 {
			w.expr(k.Args[0])
		}
		for _, t := range k.Types {
			w.ty(t)
		}
		if len(k.Args) > 1 {
			w.exprs(k.Args[1:])
		}
	case *ExprTup:
		w.exprs(k.Elems)
	case *ExprVec:
		w.exprs(k.Elems)
	case *ExprRepeat:
		w.expr(k.Elem)
		w.expr(k.Count)
	case *ExprBinary:
		w.expr(k.L)
		w.expr(k.R)
	case *ExprUnary:
		w.expr(k.E)
	case *ExprAddrOf:
		w.expr(k.E)
	case *ExprCast:
		w.expr(k.E)
		w.ty(k.Ty)
	case *ExprIf:
		w.expr(k.Cond)
		w.block(k.Then)
		w.expr(k.Else)
	case *ExprIfLet:
		w.pat(k.Pat)
		w.expr(k.E)
		w.block(k.Then)
		w.expr(k.Else)
	case *ExprWhile:
		w.expr(k.Cond)
		w.block(k.Body)
	case *ExprWhileLet:
		w.pat(k.Pat)
		w.expr(k.E)
		w.block(k.Body)
	case *ExprForLoop:
		w.pat(k.Pat)
		w.expr(k.Iter)
		w.block(k.Body)
	case *ExprLoop:
		w.block(k.Body)
	case *ExprMatch:
		w.expr(k.E)
		for _, arm := range k.Arms {
			w.arm(arm)
		}
	case *ExprClosure:
		w.fn(FnClosure, Ident{}, nil, k.Decl, k.Body, e.Span, e.ID)
	case *ExprBlock:
		w.block(k.Block)
	case *ExprAssign:
		w.expr(k.L)
		w.expr(k.R)
	case *ExprAssignOp:
		w.expr(k.L)
		w.expr(k.R)
	case *ExprField:
		w.expr(k.E)
	case *ExprTupField:
		w.expr(k.E)
	case *ExprIndex:
		w.expr(k.E)
		w.expr(k.Index)
	case *ExprRange:
		w.expr(k.From)
		w.expr(k.To)
	case *ExprStruct:
		w.path(k.Path, e.ID)
		for _, f := range k.Fields {
			w.expr(f.Expr)
		}
		w.expr(k.Base)
	case *ExprParen:
		w.expr(k.E)
	case *ExprTry:
		w.expr(k.E)
	case *ExprRet:
		w.expr(k.E)
	case *ExprBreak:
		w.expr(k.E)
	case *ExprMac:
		w.mac(k.Mac)
	case *ExprLit, *ExprAgain, *ExprErr:
	}
}

func (w walker) arm(a *Arm) {
	if w.v.Arm != nil {
		w.v.Arm(a)
	}
	for _, p := range a.Pats {
		w.pat(p)
	}
	w.expr(a.Guard)
	w.expr(a.Body)
}

func (w walker) pat(p *Pat) {
	if p == nil {
		return
	}
	if w.v.Pat != nil {
		w.v.Pat(p)
	}
	switch k := p.Kind.(type) {
	case *PatIdent:
		w.pat(k.Sub)
	case *PatStruct:
		w.path(k.Path, p.ID)
		for _, f := range k.Fields {
			w.pat(f.Pat)
		}
	case *PatEnum:
		w.path(k.Path, p.ID)
		for _, a := range k.Args {
			w.pat(a)
		}
	case *PatTup:
		for _, el := range k.Elems {
			w.pat(el)
		}
	case *PatVec:
		for _, el := range k.Elems {
			w.pat(el)
		}
	case *PatOr:
		for _, alt := range k.Alts {
			w.pat(alt)
		}
	case *PatRegion:
		w.pat(k.P)
	case *PatLit:
		w.expr(k.E)
	case *PatRange:
		w.expr(k.Lo)
		w.expr(k.Hi)
	case *PatMac:
		w.mac(k.Mac)
	case *PatWild, *PatRest:
	}
}

func (w walker) ty(t *Ty) {
	if t == nil {
		return
	}
	if w.v.Ty != nil {
		w.v.Ty(t)
	}
	switch k := t.Kind.(type) {
	case *TyPath:
		w.path(k.Path, t.ID)
	case *TyRptr:
		w.ty(k.Elem)
	case *TyPtr:
		w.ty(k.Elem)
	case *TySlice:
		w.ty(k.Elem)
	case *TyArray:
		w.ty(k.Elem)
		w.expr(k.Len)
	case *TyTup:
		for _, el := range k.Elems {
			w.ty(el)
		}
	case *TyBareFn:
		w.fnDecl(k.Decl)
	case *TyTraitObject:
		for _, b := range k.Bounds {
			w.traitRef(b)
		}
	case *TyMac:
		w.mac(k.Mac)
	case *TyNever, *TyInfer:
	}
}
