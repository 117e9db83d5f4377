package frontend

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/xonecas/typo/internal/ast"
	"github.com/xonecas/typo/internal/ty"
)

// InferTypes assigns types to the expressions and patterns of an expanded
// crate. It is best effort: nodes it cannot type are left out of the table
// and no error is ever reported.
func (s *Session) InferTypes(ctx context.Context, crate *ast.Crate) *ty.Table {
	tbl := ty.NewTable()
	if ctx.Err() != nil {
		return tbl.Freeze()
	}
	if missing := s.lookupExternCrates(crate); len(missing) > 0 {
		log.Debug().Strs("crates", missing).Msg("Extern crates not found, their items stay untyped")
	}

	ck := &checker{
		items:   collectItems(crate),
		tbl:     tbl,
		vars:    make(map[*ty.Var]ty.Type),
		escaped: make(map[*ty.Var]bool),
	}
	eachItem(crate, func(i *ast.Item, mod string) {
		ck.mod = mod
		switch k := i.Kind.(type) {
		case *ast.ItemFn:
			ck.fn(paramNames(k.Generics), nil, k.Decl, k.Body)
		case *ast.ItemConst:
			ck.constInit(k.Ty, k.Expr)
		case *ast.ItemStatic:
			ck.constInit(k.Ty, k.Expr)
		case *ast.ItemImpl:
			generics := paramNames(k.Generics)
			self := ck.items.lowerTy(k.SelfTy, mod, generics, nil)
			for _, ii := range k.Items {
				switch m := ii.Kind.(type) {
				case *ast.ImplMethod:
					g := append(append([]string(nil), generics...), paramNames(m.Method.Generics)...)
					ck.fn(g, self, m.Method.Decl, m.Method.Body)
				case *ast.ImplConst:
					ck.constInit(m.Ty, m.Expr)
				}
			}
		case *ast.ItemTrait:
			generics := paramNames(k.Generics)
			self := &ty.Param{Name: "Self"}
			for _, ti := range k.Items {
				if m, ok := ti.Kind.(*ast.ProvidedMethod); ok {
					g := append(append([]string(nil), generics...), paramNames(m.Method.Generics)...)
					ck.fn(g, self, m.Method.Decl, m.Method.Body)
				}
			}
		}
	})

	log.Debug().Int("types", tbl.Len()).Msg("Inferred types")
	return tbl.Freeze()
}

// loopCtx tracks the value of `break` inside a `loop`.
type loopCtx struct {
	isLoop bool
	broke  bool
	t      ty.Type
}

// recorded is a type noted for a node while its body is checked. It may
// still mention literal vars.
type recorded struct {
	id ast.NodeID
	t  ty.Type
}

type checker struct {
	items *items
	tbl   *ty.Table
	mod   string // module of the body being checked

	generics []string
	selfTy   ty.Type
	ret      ty.Type
	scopes   []map[string]ty.Type
	loops    []*loopCtx

	// Literal vars: their bindings, the ones that reached a context with
	// no known type, and the types waiting for the end of the body.
	vars    map[*ty.Var]ty.Type
	escaped map[*ty.Var]bool
	nextVar int
	pending []recorded
}

func (ck *checker) push() { ck.scopes = append(ck.scopes, make(map[string]ty.Type)) }
func (ck *checker) pop()  { ck.scopes = ck.scopes[:len(ck.scopes)-1] }

func (ck *checker) define(name string, t ty.Type) {
	if len(ck.scopes) > 0 {
		ck.scopes[len(ck.scopes)-1][name] = t
	}
}

func (ck *checker) lookup(name string) (ty.Type, bool) {
	for i := len(ck.scopes) - 1; i >= 0; i-- {
		if t, ok := ck.scopes[i][name]; ok {
			return t, true
		}
	}
	return nil, false
}

func (ck *checker) lower(t *ast.Ty) ty.Type {
	return ck.items.lowerTy(t, ck.mod, ck.generics, ck.selfTy)
}

func (ck *checker) record(id ast.NodeID, t ty.Type) {
	if t != nil {
		ck.pending = append(ck.pending, recorded{id: id, t: t})
	}
}

// flush settles the types noted for one body. A literal var nothing fixed
// defaults to i32 or f64, unless it reached a context of unknown type, in
// which case the types mentioning it are dropped.
func (ck *checker) flush() {
	for _, r := range ck.pending {
		if t, ok := ck.settle(r.t); ok {
			ck.tbl.Record(r.id, t)
		}
	}
	ck.pending = nil
}

func (ck *checker) fn(generics []string, selfTy ty.Type, decl *ast.FnDecl, body *ast.Block) {
	if body == nil {
		return
	}
	saved := *ck
	defer func() { *ck = saved }()
	defer ck.flush()
	ck.generics, ck.selfTy, ck.scopes, ck.loops, ck.pending = generics, selfTy, nil, nil, nil
	ck.ret = ty.Unit
	if decl.Output != nil {
		ck.ret = ck.lower(decl.Output)
	}

	ck.push()
	for _, p := range decl.Inputs {
		var t ty.Type
		switch {
		case p.Ty != nil:
			t = ck.lower(p.Ty)
		case p.Self != nil && selfTy != nil:
			t = selfTy
			if p.Self.Ref {
				t = &ty.Ref{Mut: p.Self.Mut == ast.Mutable, Elem: selfTy}
			}
		}
		ck.bindPat(p.Pat, t)
	}
	ck.block(body, ck.ret)
	ck.pop()
}

func (ck *checker) constInit(t *ast.Ty, e *ast.Expr) {
	saved := *ck
	defer func() { *ck = saved }()
	defer ck.flush()
	ck.generics, ck.selfTy, ck.scopes, ck.loops, ck.ret, ck.pending = nil, nil, nil, nil, nil, nil
	ck.push()
	ck.expr(e, ck.lower(t))
	ck.pop()
}

func (ck *checker) block(b *ast.Block, expect ty.Type) ty.Type {
	if b == nil {
		return nil
	}
	ck.push()
	defer ck.pop()

	diverges := false
	var last ty.Type
	lastIsExpr := false
	for i, st := range b.Stmts {
		lastIsExpr = false
		switch k := st.Kind.(type) {
		case *ast.StmtDecl:
			if k.Local != nil {
				ck.local(k.Local)
			}
		case *ast.StmtSemi:
			if ty.IsNever(ck.expr(k.Expr, nil)) {
				diverges = true
			}
		case *ast.StmtMac:
			if ty.IsNever(macroType(k.Mac)) {
				diverges = true
			}
		case *ast.StmtExpr:
			var want ty.Type
			if i == len(b.Stmts)-1 && b.Expr == nil {
				want = expect
			}
			last = ck.expr(k.Expr, want)
			lastIsExpr = true
			if ty.IsNever(last) {
				diverges = true
			}
		}
	}
	switch {
	case b.Expr != nil:
		return ck.expr(b.Expr, expect)
	case lastIsExpr && last != nil && !ty.IsUnit(last):
		return last
	case diverges:
		return ty.Never{}
	}
	return ty.Unit
}

func (ck *checker) local(l *ast.Local) {
	want := ck.lower(l.Ty)
	init := ck.expr(l.Init, want)
	t := want
	if t == nil {
		t = init
	}
	if l.Else != nil {
		ck.block(l.Else, nil)
	}
	ck.bindPat(l.Pat, t)
}

// expr types e, records the result and returns it. expect is the type the
// context wants, or nil.
func (ck *checker) expr(e *ast.Expr, expect ty.Type) ty.Type {
	if e == nil {
		return nil
	}
	t := ck.exprKind(e, expect)
	ck.constrain(expect, t)
	ck.record(e.ID, t)
	return ck.resolve(t)
}

// exprs types expressions whose expected type is unknown, such as the
// arguments of an unresolved call.
func (ck *checker) exprs(es []*ast.Expr) {
	for _, e := range es {
		ck.escape(ck.expr(e, nil))
	}
}

func (ck *checker) exprKind(e *ast.Expr, expect ty.Type) ty.Type {
	switch k := e.Kind.(type) {
	case *ast.ExprLit:
		return ck.lit(k.Lit)

	case *ast.ExprPath:
		return ck.pathType(k.Path, expect)

	case *ast.ExprCall:
		if p, ok := k.Fn.Kind.(*ast.ExprPath); ok {
			if t, handled := ck.callPath(k.Fn, p.Path, k.Args, expect); handled {
				return t
			}
		}
		switch f := ck.expr(k.Fn, nil).(type) {
		case *ty.FnDef:
			ck.args(k.Args, f.Params)
			return f.Ret
		case *ty.FnPtr:
			ck.args(k.Args, f.Params)
			return f.Ret
		}
		ck.exprs(k.Args)
		return nil

	case *ast.ExprMethodCall:
		if len(k.Args) == 0 {
			return nil
		}
		recv := ck.expr(k.Args[0], nil)
		return ck.methodCall(k.Ident.Name, recv, k.Args[1:])

	case *ast.ExprTup:
		if len(k.Elems) == 0 {
			return ty.Unit
		}
		want, _ := expect.(*ty.Tuple)
		elems := make([]ty.Type, len(k.Elems))
		known := true
		for i, el := range k.Elems {
			var w ty.Type
			if want != nil && len(want.Elems) == len(k.Elems) {
				w = want.Elems[i]
			}
			if elems[i] = ck.expr(el, w); elems[i] == nil {
				known = false
			}
		}
		if !known {
			return nil
		}
		return &ty.Tuple{Elems: elems}

	case *ast.ExprVec:
		var elem ty.Type
		if arr, ok := expect.(*ty.Array); ok {
			elem = arr.Elem
		}
		for _, el := range k.Elems {
			if t := ck.expr(el, elem); elem == nil {
				elem = t
			}
		}
		if elem == nil {
			return nil
		}
		return &ty.Array{Elem: elem, Len: len(k.Elems)}

	case *ast.ExprRepeat:
		var want ty.Type
		if arr, ok := expect.(*ty.Array); ok {
			want = arr.Elem
		}
		elem := ck.expr(k.Elem, want)
		ck.expr(k.Count, ty.Usize)
		n, ok := constLen(k.Count)
		if elem == nil || !ok {
			return nil
		}
		return &ty.Array{Elem: elem, Len: n}

	case *ast.ExprBinary:
		return ck.binary(k, expect)

	case *ast.ExprUnary:
		switch k.Op {
		case ast.UnDeref:
			switch t := ck.expr(k.E, nil).(type) {
			case *ty.Ref:
				return t.Elem
			case *ty.Ptr:
				return t.Elem
			case *ty.Adt:
				if t.Path == "Box" && len(t.Args) == 1 {
					return t.Args[0]
				}
			}
			return nil
		default:
			return ck.expr(k.E, expect)
		}

	case *ast.ExprAddrOf:
		var want ty.Type
		if r, ok := expect.(*ty.Ref); ok {
			want = r.Elem
		}
		t := ck.expr(k.E, want)
		if t == nil {
			return nil
		}
		return &ty.Ref{Mut: k.Mut == ast.Mutable, Elem: t}

	case *ast.ExprCast:
		ck.expr(k.E, nil)
		return ck.lower(k.Ty)

	case *ast.ExprIf:
		ck.expr(k.Cond, ty.Bool)
		then := ck.block(k.Then, expect)
		return ck.branches(then, k.Else, expect)

	case *ast.ExprIfLet:
		scrut := ck.expr(k.E, nil)
		ck.push()
		ck.bindPat(k.Pat, scrut)
		then := ck.block(k.Then, expect)
		ck.pop()
		return ck.branches(then, k.Else, expect)

	case *ast.ExprWhile:
		ck.expr(k.Cond, ty.Bool)
		ck.loopBody(k.Body, false)
		return ty.Unit

	case *ast.ExprWhileLet:
		scrut := ck.expr(k.E, nil)
		ck.push()
		ck.bindPat(k.Pat, scrut)
		ck.loopBody(k.Body, false)
		ck.pop()
		return ty.Unit

	case *ast.ExprForLoop:
		elem := iterElem(ck.expr(k.Iter, nil))
		ck.push()
		ck.bindPat(k.Pat, elem)
		ck.loopBody(k.Body, false)
		ck.pop()
		return ty.Unit

	case *ast.ExprLoop:
		lc := ck.loopBody(k.Body, true)
		if !lc.broke {
			return ty.Never{}
		}
		return lc.t

	case *ast.ExprMatch:
		scrut := ck.expr(k.E, nil)
		var result ty.Type
		allNever := true
		for _, arm := range k.Arms {
			ck.push()
			for _, p := range arm.Pats {
				ck.bindPat(p, scrut)
			}
			ck.expr(arm.Guard, ty.Bool)
			want := result
			if want == nil {
				want = expect
			}
			bt := ck.expr(arm.Body, want)
			ck.pop()
			if !ty.IsNever(bt) {
				allNever = false
				if result == nil {
					result = bt
				}
			}
		}
		if allNever {
			return ty.Never{}
		}
		return result

	case *ast.ExprClosure:
		savedRet, savedLoops := ck.ret, ck.loops
		ck.push()
		for _, p := range k.Decl.Inputs {
			ck.bindPat(p.Pat, ck.lower(p.Ty))
		}
		ck.ret, ck.loops = ck.lower(k.Decl.Output), nil
		if bt := ck.block(k.Body, ck.ret); ck.ret == nil {
			ck.escape(bt)
		}
		ck.pop()
		ck.ret, ck.loops = savedRet, savedLoops
		return nil

	case *ast.ExprBlock:
		return ck.block(k.Block, expect)

	case *ast.ExprAssign:
		l := ck.expr(k.L, nil)
		if r := ck.expr(k.R, l); l == nil {
			ck.escape(r)
		}
		return ty.Unit

	case *ast.ExprAssignOp:
		l := ck.expr(k.L, nil)
		if k.Op.IsShift() {
			l = nil
		}
		if r := ck.expr(k.R, l); l == nil {
			ck.escape(r)
		}
		return ty.Unit

	case *ast.ExprField:
		base := deref(ck.expr(k.E, nil))
		adt, ok := base.(*ty.Adt)
		if !ok {
			return nil
		}
		info := ck.items.adts[adt.Path]
		if info == nil || info.fields == nil {
			return nil
		}
		return instantiate(info.fields[k.Ident.Name], info.generics, adt.Args)

	case *ast.ExprTupField:
		switch base := deref(ck.expr(k.E, nil)).(type) {
		case *ty.Tuple:
			if k.Index < len(base.Elems) {
				return base.Elems[k.Index]
			}
		case *ty.Adt:
			info := ck.items.adts[base.Path]
			if info != nil && k.Index < len(info.tuple) {
				return instantiate(info.tuple[k.Index], info.generics, base.Args)
			}
		}
		return nil

	case *ast.ExprIndex:
		base := deref(ck.expr(k.E, nil))
		_, isRange := k.Index.Kind.(*ast.ExprRange)
		if isRange {
			ck.expr(k.Index, nil)
		} else {
			ck.expr(k.Index, ty.Usize)
		}
		var elem ty.Type
		switch b := base.(type) {
		case *ty.Array:
			elem = b.Elem
		case *ty.Slice:
			elem = b.Elem
		case *ty.Adt:
			if b.Path == "Vec" && len(b.Args) == 1 {
				elem = b.Args[0]
			}
		}
		if elem == nil {
			return nil
		}
		if isRange {
			return &ty.Slice{Elem: elem}
		}
		return elem

	case *ast.ExprRange:
		return ck.rangeExpr(k)

	case *ast.ExprStruct:
		return ck.structLit(k)

	case *ast.ExprParen:
		return ck.expr(k.E, expect)

	case *ast.ExprTry:
		if adt, ok := ck.expr(k.E, nil).(*ty.Adt); ok && (adt.Path == "Option" || adt.Path == "Result") && len(adt.Args) > 0 {
			return adt.Args[0]
		}
		return nil

	case *ast.ExprRet:
		if t := ck.expr(k.E, ck.ret); ck.ret == nil {
			ck.escape(t)
		}
		return ty.Never{}

	case *ast.ExprBreak:
		var lc *loopCtx
		if n := len(ck.loops); n > 0 && ck.loops[n-1].isLoop {
			lc = ck.loops[n-1]
		}
		var want ty.Type
		if lc != nil && lc.broke && k.Label == "" {
			want = lc.t
		}
		t := ck.expr(k.E, want)
		if lc == nil || k.Label != "" {
			ck.escape(t)
		}
		if lc != nil && !lc.broke {
			lc.broke = true
			switch {
			case k.Label != "":
				lc.t = nil
			case k.E == nil:
				lc.t = ty.Unit
			default:
				lc.t = t
			}
		}
		return ty.Never{}

	case *ast.ExprAgain:
		return ty.Never{}

	case *ast.ExprMac:
		return macroType(k.Mac)
	}
	return nil
}

func (ck *checker) loopBody(body *ast.Block, isLoop bool) *loopCtx {
	lc := &loopCtx{isLoop: isLoop}
	ck.loops = append(ck.loops, lc)
	ck.block(body, ty.Unit)
	ck.loops = ck.loops[:len(ck.loops)-1]
	return lc
}

// branches combines the then-type of an if with its else branch.
func (ck *checker) branches(then ty.Type, els *ast.Expr, expect ty.Type) ty.Type {
	if els == nil {
		return ty.Unit
	}
	want := expect
	if then != nil && !ty.IsNever(then) {
		want = then
	}
	et := ck.expr(els, want)
	if then == nil || ty.IsNever(then) {
		return et
	}
	return then
}

func (ck *checker) args(args []*ast.Expr, params []ty.Type) {
	for i, a := range args {
		var want ty.Type
		if i < len(params) {
			want = params[i]
		}
		ck.expr(a, want)
	}
}

// genericArgs checks args against params that may mention generic
// parameters, collecting their bindings in subst.
func (ck *checker) genericArgs(args []*ast.Expr, params []ty.Type, subst map[string]ty.Type) {
	for i, a := range args {
		var want ty.Type
		if i < len(params) {
			want = params[i]
		}
		if containsParam(want) {
			ck.unify(want, ck.expr(a, nil), subst)
		} else {
			ck.expr(a, want)
		}
	}
}

func (ck *checker) binary(k *ast.ExprBinary, expect ty.Type) ty.Type {
	switch {
	case k.Op.IsLazy():
		ck.expr(k.L, ty.Bool)
		ck.expr(k.R, ty.Bool)
		return ty.Bool
	case k.Op.IsComparison():
		ck.operands(k.L, k.R, nil)
		return ty.Bool
	case k.Op.IsShift():
		l := ck.expr(k.L, expect)
		ck.expr(k.R, nil)
		return l
	}
	l, r := ck.operands(k.L, k.R, expect)
	switch lt := l.(type) {
	case ty.Prim:
		if lt.IsNumeric() || lt == ty.Bool {
			return l
		}
	case *ty.Var:
		return l
	case *ty.Adt:
		if lt.Path == "String" && k.Op == "+" {
			return l
		}
	case nil:
		if p, ok := r.(ty.Prim); ok && p.IsNumeric() {
			return r
		}
	}
	return nil
}

// operands types both sides of a binary operator. An unsuffixed literal on
// either side takes the type of the other.
func (ck *checker) operands(lhs, rhs *ast.Expr, expect ty.Type) (ty.Type, ty.Type) {
	l := ck.expr(lhs, expect)
	r := ck.expr(rhs, numericOrSame(l))
	switch {
	case l == nil:
		ck.escape(r)
	case r == nil:
		ck.escape(l)
	}
	return ck.resolve(l), r
}

func numericOnly(t ty.Type) ty.Type {
	switch t := t.(type) {
	case ty.Prim:
		if t.IsNumeric() {
			return t
		}
	case *ty.Var:
		return t
	}
	return nil
}

func numericOrSame(t ty.Type) ty.Type {
	if r, ok := t.(*ty.Ref); ok {
		return numericOnly(r.Elem)
	}
	return t
}

func (ck *checker) rangeExpr(k *ast.ExprRange) ty.Type {
	var from, to ty.Type
	if k.From != nil && k.To != nil {
		from, to = ck.operands(k.From, k.To, nil)
	} else {
		from = ck.expr(k.From, nil)
		to = ck.expr(k.To, nil)
	}
	elem := from
	if elem == nil {
		elem = to
	}
	var path string
	switch {
	case k.From == nil && k.To == nil:
		return &ty.Adt{Path: "std::ops::RangeFull"}
	case k.To == nil:
		path = "std::ops::RangeFrom"
	case k.From == nil && k.Inclusive:
		path = "std::ops::RangeToInclusive"
	case k.From == nil:
		path = "std::ops::RangeTo"
	case k.Inclusive:
		path = "std::ops::RangeInclusive"
	default:
		path = "std::ops::Range"
	}
	if elem == nil {
		return nil
	}
	return &ty.Adt{Path: path, Args: []ty.Type{elem}}
}

func (ck *checker) pathType(p *ast.Path, expect ty.Type) ty.Type {
	segs := segNames(p)
	if len(segs) == 0 {
		return nil
	}
	if len(segs) == 1 {
		if t, ok := ck.lookup(segs[0]); ok {
			return t
		}
		if segs[0] == "self" {
			return nil
		}
	}
	if sig := ck.fnAt(segs); sig != nil {
		if len(sig.generics) == 0 {
			return sig.fnDef()
		}
		return nil
	}
	if t, ok := ck.valueAt(segs); ok {
		return t
	}
	if info := ck.adtAt(segs); info != nil {
		if info.isUnit && len(info.generics) == 0 {
			return info.ty()
		}
		return nil
	}
	if owner, v := ck.variantAt(segs); v != nil {
		if v.isUnit && len(owner.generics) == 0 {
			return owner.ty()
		}
		return nil
	}
	if len(segs) == 1 && segs[0] == "None" {
		if adt, ok := expect.(*ty.Adt); ok && adt.Path == "Option" {
			return adt
		}
		return nil
	}
	if sig := ck.assocFn(segs); sig != nil && !sig.hasSelf && len(sig.generics) == 0 {
		return sig.fnDef()
	}
	return nil
}

// callPath types calls whose callee is a path naming a function, an
// associated function or a tuple constructor. handled is false when the
// callee is not one of those.
func (ck *checker) callPath(callee *ast.Expr, p *ast.Path, args []*ast.Expr, expect ty.Type) (t ty.Type, handled bool) {
	segs := segNames(p)
	if len(segs) == 0 {
		return nil, false
	}
	if len(segs) == 1 {
		if _, local := ck.lookup(segs[0]); local {
			return nil, false
		}
	}

	sig := ck.fnAt(segs)
	if sig == nil {
		if info := ck.adtAt(segs); info != nil {
			if !info.isTuple {
				return nil, false
			}
			return ck.ctor(callee, info, info, args, expect), true
		}
		if owner, v := ck.variantAt(segs); v != nil {
			if !v.isTuple {
				return nil, false
			}
			return ck.ctor(callee, owner, v, args, expect), true
		}
		if len(segs) == 1 && segs[0] == "Some" && len(args) == 1 {
			var want ty.Type
			if adt, ok := expect.(*ty.Adt); ok && adt.Path == "Option" && len(adt.Args) == 1 {
				want = adt.Args[0]
			}
			if at := ck.expr(args[0], want); at != nil {
				return &ty.Adt{Path: "Option", Args: []ty.Type{at}}, true
			}
			return nil, true
		}
		if sig = ck.assocFn(segs); sig == nil {
			return nil, false
		}
	}

	if len(sig.generics) == 0 {
		ck.record(callee.ID, sig.fnDef())
	}
	subst := make(map[string]ty.Type)
	if sig.hasSelf && len(args) > 0 {
		ck.unify(sig.selfTy, deref(ck.expr(args[0], nil)), subst)
		args = args[1:]
	}
	ck.genericArgs(args, sig.params, subst)
	ck.unify(sig.ret, expect, subst)
	ret, ok := substitute(sig.ret, subst, sig.generics)
	if !ok {
		return nil, true
	}
	return ret, true
}

// fnAt resolves a function path written in the module being checked.
func (ck *checker) fnAt(segs []string) *fnSig {
	if k, ok := ck.items.resolve(ck.mod, segs, ck.items.hasFn); ok {
		return ck.items.fns[k]
	}
	return nil
}

func (ck *checker) valueAt(segs []string) (ty.Type, bool) {
	if k, ok := ck.items.resolve(ck.mod, segs, ck.items.hasValue); ok {
		return ck.items.values[k], true
	}
	return nil, false
}

func (ck *checker) adtAt(segs []string) *adtInfo {
	if len(segs) == 1 && segs[0] == "Self" {
		return ck.items.adts[typeKey(ck.selfTy)]
	}
	if k, ok := ck.items.resolve(ck.mod, segs, ck.items.hasAdt); ok {
		return ck.items.adts[k]
	}
	return nil
}

// variantAt resolves a path naming an enum variant, through its enum or
// through an import of the variant.
func (ck *checker) variantAt(segs []string) (owner, v *adtInfo) {
	if n := len(segs); n >= 2 {
		if owner = ck.adtAt(segs[:n-1]); owner != nil {
			if v = owner.variants[segs[n-1]]; v != nil {
				return owner, v
			}
		}
	}
	if k, ok := ck.items.resolve(ck.mod, segs, ck.items.hasVariant); ok {
		return ck.items.variant(k)
	}
	return nil, nil
}

// assocFn finds the associated function or method a Type::name path
// names. Types the crate does not declare are looked up by their path.
func (ck *checker) assocFn(segs []string) *fnSig {
	n := len(segs)
	if n < 2 {
		return nil
	}
	owner := strings.Join(segs[:n-1], "::")
	if info := ck.adtAt(segs[:n-1]); info != nil {
		owner = info.name
	}
	return ck.items.methods[owner][segs[n-1]]
}

// ctor types a tuple struct or tuple variant constructor call. owner is the
// struct or enum, v the constructor's fields.
func (ck *checker) ctor(callee *ast.Expr, owner, v *adtInfo, args []*ast.Expr, expect ty.Type) ty.Type {
	self := owner.ty()
	if len(owner.generics) == 0 {
		ck.record(callee.ID, &ty.FnDef{Name: callee.Kind.(*ast.ExprPath).Path.Last().Ident.Name, Params: v.tuple, Ret: self})
	}
	subst := make(map[string]ty.Type)
	ck.genericArgs(args, v.tuple, subst)
	ck.unify(self, expect, subst)
	t, ok := substitute(self, subst, owner.generics)
	if !ok {
		return nil
	}
	return t
}

func (ck *checker) methodCall(name string, recv ty.Type, args []*ast.Expr) ty.Type {
	base := deref(recv)
	if sig := ck.items.methods[typeKey(base)][name]; sig != nil && sig.hasSelf {
		subst := make(map[string]ty.Type)
		ck.unify(sig.selfTy, base, subst)
		ck.genericArgs(args, sig.params, subst)
		ret, ok := substitute(sig.ret, subst, sig.generics)
		if !ok {
			return nil
		}
		return ret
	}

	var elem ty.Type
	adt, _ := base.(*ty.Adt)
	if adt != nil && len(adt.Args) > 0 {
		elem = adt.Args[0]
	}
	switch name {
	case "push":
		if adt != nil && adt.Path == "Vec" {
			ck.args(args, []ty.Type{elem})
			return ty.Unit
		}
	case "push_str", "clear", "truncate", "sort", "reverse":
		ck.exprs(args)
		return ty.Unit
	}
	ck.exprs(args)

	switch name {
	case "clone":
		if base == ty.Str || base == nil {
			return recv
		}
		return base
	case "to_string", "to_owned":
		if name == "to_owned" && base != ty.Str {
			return base
		}
		return ty.String()
	case "len", "count", "capacity":
		return ty.Usize
	case "is_empty", "is_some", "is_none", "is_ok", "is_err", "contains",
		"starts_with", "ends_with", "eq", "ne":
		return ty.Bool
	case "as_str", "trim":
		return &ty.Ref{Elem: ty.Str}
	case "unwrap", "expect", "unwrap_or_default", "unwrap_or":
		if adt != nil && (adt.Path == "Option" || adt.Path == "Result") {
			return elem
		}
	}
	return nil
}

func (ck *checker) structLit(k *ast.ExprStruct) ty.Type {
	owner, fields := ck.resolveVariant(k.Path)
	if owner == nil || fields == nil {
		for _, f := range k.Fields {
			ck.escape(ck.expr(f.Expr, nil))
		}
		ck.escape(ck.expr(k.Base, nil))
		return nil
	}

	subst := make(map[string]ty.Type)
	for _, f := range k.Fields {
		want := fields.fields[f.Ident.Name]
		switch {
		case want == nil:
			ck.escape(ck.expr(f.Expr, nil))
		case containsParam(want):
			ck.unify(want, ck.expr(f.Expr, nil), subst)
		default:
			ck.expr(f.Expr, want)
		}
	}
	self := owner.ty()
	if k.Base != nil {
		ck.unify(self, ck.expr(k.Base, nil), subst)
	}
	t, ok := substitute(self, subst, owner.generics)
	if !ok {
		return nil
	}
	return t
}

// bindPat records the type of p and its subpatterns and binds the names it
// introduces in the innermost scope. t may be nil.
func (ck *checker) bindPat(p *ast.Pat, t ty.Type) {
	if p == nil {
		return
	}
	ck.record(p.ID, t)
	t = ck.resolve(t)

	// Matching a reference against a non-reference pattern binds the
	// subpatterns by reference.
	inner, byRef := t, false
	if r, ok := t.(*ty.Ref); ok {
		switch p.Kind.(type) {
		case *ast.PatTup, *ast.PatStruct, *ast.PatEnum, *ast.PatVec:
			inner, byRef = r.Elem, true
		}
	}
	wrap := func(st ty.Type) ty.Type {
		if byRef && st != nil {
			return &ty.Ref{Elem: st}
		}
		return st
	}

	switch k := p.Kind.(type) {
	case *ast.PatIdent:
		if ck.isConstName(k.Ident.Name) && k.Sub == nil {
			return
		}
		bt := t
		if k.ByRef && t != nil {
			bt = &ty.Ref{Mut: k.Mut == ast.Mutable, Elem: t}
		}
		ck.define(k.Ident.Name, bt)
		ck.bindPat(k.Sub, t)

	case *ast.PatTup:
		tup, _ := inner.(*ty.Tuple)
		ck.bindSeq(k.Elems, func(i, fromEnd int) ty.Type {
			if tup == nil {
				return nil
			}
			if fromEnd > 0 {
				i = len(tup.Elems) - fromEnd
			}
			if i < 0 || i >= len(tup.Elems) {
				return nil
			}
			return wrap(tup.Elems[i])
		})

	case *ast.PatRegion:
		var elem ty.Type
		if r, ok := t.(*ty.Ref); ok {
			elem = r.Elem
		}
		ck.bindPat(k.P, elem)

	case *ast.PatStruct:
		owner, fields := ck.resolveVariant(k.Path)
		adt, _ := inner.(*ty.Adt)
		for _, f := range k.Fields {
			var ft ty.Type
			if fields != nil && adt != nil {
				ft = wrap(instantiate(fields.fields[f.Ident.Name], owner.generics, adt.Args))
			}
			ck.bindPat(f.Pat, ft)
		}

	case *ast.PatEnum:
		owner, fields := ck.resolveVariant(k.Path)
		adt, _ := inner.(*ty.Adt)
		ck.bindSeq(k.Args, func(i, fromEnd int) ty.Type {
			if adt == nil {
				return nil
			}
			if fields == nil {
				if last := k.Path.Last(); last != nil && len(adt.Args) > 0 && i == 0 && fromEnd == 0 {
					switch {
					case adt.Path == "Option" && last.Ident.Name == "Some",
						adt.Path == "Result" && last.Ident.Name == "Ok":
						return wrap(adt.Args[0])
					case adt.Path == "Result" && last.Ident.Name == "Err" && len(adt.Args) > 1:
						return wrap(adt.Args[1])
					}
				}
				return nil
			}
			if fromEnd > 0 {
				i = len(fields.tuple) - fromEnd
			}
			if i < 0 || i >= len(fields.tuple) {
				return nil
			}
			return wrap(instantiate(fields.tuple[i], owner.generics, adt.Args))
		})

	case *ast.PatVec:
		var elem ty.Type
		switch b := inner.(type) {
		case *ty.Array:
			elem = b.Elem
		case *ty.Slice:
			elem = b.Elem
		}
		for _, el := range k.Elems {
			if _, rest := el.Kind.(*ast.PatRest); rest {
				ck.bindPat(el, nil)
				continue
			}
			ck.bindPat(el, wrap(elem))
		}

	case *ast.PatOr:
		for _, alt := range k.Alts {
			ck.bindPat(alt, t)
		}

	case *ast.PatLit:
		ck.expr(k.E, t)

	case *ast.PatRange:
		ck.expr(k.Lo, t)
		ck.expr(k.Hi, t)
	}
}

// bindSeq binds a tuple-like pattern list that may contain one `..`.
// typeAt returns the type of the i-th element counted from the front, or
// the fromEnd-th counted from the back.
func (ck *checker) bindSeq(pats []*ast.Pat, typeAt func(i, fromEnd int) ty.Type) {
	rest := -1
	for i, p := range pats {
		if _, ok := p.Kind.(*ast.PatRest); ok {
			rest = i
			break
		}
	}
	for i, p := range pats {
		switch {
		case i == rest:
			ck.bindPat(p, nil)
		case rest >= 0 && i > rest:
			ck.bindPat(p, typeAt(i, len(pats)-i))
		default:
			ck.bindPat(p, typeAt(i, 0))
		}
	}
}

// resolveVariant finds the owner and fields of a struct or enum variant
// path used in a pattern or a struct literal.
func (ck *checker) resolveVariant(p *ast.Path) (owner, fields *adtInfo) {
	segs := segNames(p)
	if len(segs) == 0 {
		return nil, nil
	}
	if owner = ck.adtAt(segs); owner != nil {
		return owner, owner
	}
	return ck.variantAt(segs)
}

// isConstName reports whether an identifier pattern names a constant, a
// unit struct or a unit variant rather than introducing a binding.
func (ck *checker) isConstName(name string) bool {
	if name == "None" {
		return true
	}
	segs := []string{name}
	if _, ok := ck.valueAt(segs); ok {
		return true
	}
	if info := ck.adtAt(segs); info != nil {
		return info.isUnit
	}
	_, v := ck.variantAt(segs)
	return v != nil && v.isUnit
}

func (ck *checker) lit(lit *ast.Lit) ty.Type {
	switch lit.Kind {
	case ast.LitInt, ast.LitFloat:
		if p, ok := ty.LookupPrim(lit.Suffix); ok {
			return p
		}
		ck.nextVar++
		return &ty.Var{ID: ck.nextVar, Float: lit.Kind == ast.LitFloat}
	case ast.LitStr:
		return ty.StaticStr()
	case ast.LitByteStr:
		return &ty.Ref{Region: "'static", Elem: &ty.Array{Elem: ty.U8, Len: lit.Len}}
	case ast.LitChar:
		return ty.Char
	case ast.LitByte:
		return ty.U8
	case ast.LitBool:
		return ty.Bool
	}
	return nil
}

func macroType(m *ast.Mac) ty.Type {
	last := m.Path.Last()
	if last == nil {
		return nil
	}
	switch last.Ident.Name {
	case "format":
		return ty.String()
	case "println", "print", "eprintln", "eprint", "assert", "assert_eq", "assert_ne",
		"debug_assert", "debug_assert_eq", "debug_assert_ne":
		return ty.Unit
	case "panic", "unreachable", "todo", "unimplemented":
		return ty.Never{}
	case "line", "column":
		return ty.U32
	case "file", "stringify", "concat", "env", "include_str", "module_path":
		return ty.StaticStr()
	}
	return nil
}

// deref strips references.
func deref(t ty.Type) ty.Type {
	for {
		r, ok := t.(*ty.Ref)
		if !ok {
			return t
		}
		t = r.Elem
	}
}

// iterElem is the item type produced by iterating over t in a for loop.
func iterElem(t ty.Type) ty.Type {
	switch t := t.(type) {
	case *ty.Adt:
		switch t.Path {
		case "std::ops::Range", "std::ops::RangeInclusive", "std::ops::RangeFrom", "Vec":
			if len(t.Args) == 1 {
				return t.Args[0]
			}
		}
	case *ty.Array:
		return t.Elem
	case *ty.Ref:
		switch e := t.Elem.(type) {
		case *ty.Array:
			return &ty.Ref{Mut: t.Mut, Elem: e.Elem}
		case *ty.Slice:
			return &ty.Ref{Mut: t.Mut, Elem: e.Elem}
		case *ty.Adt:
			if e.Path == "Vec" && len(e.Args) == 1 {
				return &ty.Ref{Mut: t.Mut, Elem: e.Args[0]}
			}
		}
	}
	return nil
}
