package frontend

import (
	"strconv"
	"strings"

	"github.com/xonecas/typo/internal/ast"
	"github.com/xonecas/typo/internal/ty"
)

// fnSig is the signature of a free function, associated function or
// method. Generic parameters appear as *ty.Param.
type fnSig struct {
	name     string
	generics []string
	selfTy   ty.Type // impl self type; nil for free functions
	hasSelf  bool    // takes a self receiver
	params   []ty.Type
	ret      ty.Type
}

func (f *fnSig) fnDef() *ty.FnDef {
	return &ty.FnDef{Name: f.name, Params: f.params, Ret: f.ret}
}

// adtInfo describes a struct, union or enum.
type adtInfo struct {
	name     string
	generics []string
	fields   map[string]ty.Type // named fields
	tuple    []ty.Type          // positional fields; nil unless a tuple struct
	isTuple  bool
	isUnit   bool
	variants map[string]*adtInfo // enums only
}

func (a *adtInfo) ty() *ty.Adt {
	t := &ty.Adt{Path: a.name}
	for _, g := range a.generics {
		t.Args = append(t.Args, &ty.Param{Name: g})
	}
	return t
}

// items is what the checker knows about the crate's declarations. Every
// map is keyed by the item's path from the crate root, "a::b::f" for f in
// module a::b and just "f" at the root.
type items struct {
	fns     map[string]*fnSig
	adts    map[string]*adtInfo
	values  map[string]ty.Type           // consts and statics
	methods map[string]map[string]*fnSig // by typeKey of the impl self type
	aliases map[string]alias
	mods    map[string]bool

	uses  map[string]map[string][]string // module -> bound name -> path
	globs map[string][][]string          // module -> glob import paths
}

// alias is a non-generic type alias and the module it is written in.
type alias struct {
	ty  *ast.Ty
	mod string
}

// maxImportDepth bounds how many imports resolve follows, so import
// cycles terminate.
const maxImportDepth = 6

func qualify(mod, name string) string {
	if mod == "" {
		return name
	}
	return mod + "::" + name
}

func parentMod(mod string) string {
	i := strings.LastIndex(mod, "::")
	if i < 0 {
		return ""
	}
	return mod[:i]
}

func segNames(p *ast.Path) []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.Segments))
	for i, seg := range p.Segments {
		out[i] = seg.Ident.Name
	}
	return out
}

// eachItem calls fn in pre-order for every item of c together with the
// path of its module. Items nested in function bodies count as members of
// the enclosing module.
func eachItem(c *ast.Crate, fn func(i *ast.Item, mod string)) {
	if c == nil {
		return
	}
	var visit func(m *ast.Mod, mod string)
	visit = func(m *ast.Mod, mod string) {
		if m == nil {
			return
		}
		for _, i := range m.Items {
			fn(i, mod)
			if k, ok := i.Kind.(*ast.ItemMod); ok {
				visit(k.Mod, qualify(mod, i.Ident.Name))
				continue
			}
			ast.WalkItem(&ast.Visitor{Item: func(nested *ast.Item) {
				if nested != i {
					fn(nested, mod)
				}
			}}, i)
		}
	}
	visit(c.Module, "")
}

func collectItems(c *ast.Crate) *items {
	it := &items{
		fns:     make(map[string]*fnSig),
		adts:    make(map[string]*adtInfo),
		values:  make(map[string]ty.Type),
		methods: make(map[string]map[string]*fnSig),
		aliases: make(map[string]alias),
		mods:    make(map[string]bool),
		uses:    make(map[string]map[string][]string),
		globs:   make(map[string][][]string),
	}

	// Type names and imports first, so signatures can refer to types
	// declared later.
	eachItem(c, func(i *ast.Item, mod string) {
		key := qualify(mod, i.Ident.Name)
		switch k := i.Kind.(type) {
		case *ast.ItemMod:
			it.mods[key] = true
		case *ast.ItemStruct:
			it.adts[key] = &adtInfo{name: key, generics: paramNames(k.Generics)}
		case *ast.ItemEnum:
			it.adts[key] = &adtInfo{name: key, generics: paramNames(k.Generics)}
		case *ast.ItemTy:
			if len(paramNames(k.Generics)) == 0 {
				it.aliases[key] = alias{ty: k.Ty, mod: mod}
			}
		case *ast.ItemUse:
			it.collectUse(mod, k.Tree, nil)
		}
	})

	eachItem(c, func(i *ast.Item, mod string) {
		key := qualify(mod, i.Ident.Name)
		switch k := i.Kind.(type) {
		case *ast.ItemFn:
			g := paramNames(k.Generics)
			it.fns[key] = it.signature(key, mod, g, nil, k.Decl)
		case *ast.ItemStruct:
			info := it.adts[key]
			it.fillFields(info, mod, info.generics, k.Def)
		case *ast.ItemEnum:
			info := it.adts[key]
			info.variants = make(map[string]*adtInfo)
			for _, va := range k.Variants {
				vi := &adtInfo{name: info.name, generics: info.generics}
				it.fillFields(vi, mod, info.generics, va.Def)
				info.variants[va.Name.Name] = vi
			}
		case *ast.ItemConst:
			it.values[key] = it.lowerTy(k.Ty, mod, nil, nil)
		case *ast.ItemStatic:
			it.values[key] = it.lowerTy(k.Ty, mod, nil, nil)
		case *ast.ItemImpl:
			it.collectImpl(k, mod)
		}
	})
	return it
}

// collectUse records the names a use tree binds in mod. prefix holds the
// segments of the enclosing list trees.
func (it *items) collectUse(mod string, u *ast.UseTree, prefix []string) {
	if u == nil {
		return
	}
	segs := append(append([]string(nil), prefix...), segNames(u.Prefix)...)
	switch u.Kind {
	case ast.UseSimple:
		name := u.Rename.Name
		if n := len(segs); n > 1 && segs[n-1] == "self" {
			segs = segs[:n-1]
			if name == "self" {
				name = segs[len(segs)-1]
			}
		}
		if name == "" || name == "_" || len(segs) == 0 {
			return
		}
		if it.uses[mod] == nil {
			it.uses[mod] = make(map[string][]string)
		}
		it.uses[mod][name] = segs
	case ast.UseGlob:
		if len(segs) > 0 {
			it.globs[mod] = append(it.globs[mod], segs)
		}
	case ast.UseList:
		for _, sub := range u.Items {
			it.collectUse(mod, sub, segs)
		}
	}
}

func (it *items) hasFn(k string) bool    { return it.fns[k] != nil }
func (it *items) hasAdt(k string) bool   { return it.adts[k] != nil }
func (it *items) hasAlias(k string) bool { return it.aliases[k].ty != nil }

// isScope reports whether k names something a glob import can read
// from: the crate root, a module or an enum.
func (it *items) isScope(k string) bool { return k == "" || it.mods[k] || it.adts[k] != nil }

func (it *items) hasValue(k string) bool {
	_, ok := it.values[k]
	return ok
}

func (it *items) hasVariant(k string) bool {
	_, v := it.variant(k)
	return v != nil
}

// variant splits the key of an enum variant into the enum and the variant.
func (it *items) variant(k string) (owner, v *adtInfo) {
	i := strings.LastIndex(k, "::")
	if i < 0 {
		return nil, nil
	}
	owner = it.adts[k[:i]]
	if owner == nil {
		return nil, nil
	}
	if v = owner.variants[k[i+2:]]; v == nil {
		return nil, nil
	}
	return owner, v
}

// resolve finds the key of the item that segs, written in module mod,
// names. has reports whether a key names an item of the wanted kind.
// Paths are tried relative to mod, through its imports and finally from
// the crate root. A name that two glob imports provide is ambiguous and
// stays unresolved.
func (it *items) resolve(mod string, segs []string, has func(string) bool) (string, bool) {
	return it.resolveDepth(mod, segs, has, 0)
}

func (it *items) resolveDepth(mod string, segs []string, has func(string) bool, depth int) (string, bool) {
	if len(segs) == 0 || depth > maxImportDepth {
		return "", false
	}
	base, anchored := mod, true
	switch segs[0] {
	case "crate":
		base, segs = "", segs[1:]
	case "self":
		segs = segs[1:]
	case "super":
		for len(segs) > 0 && segs[0] == "super" {
			base, segs = parentMod(base), segs[1:]
		}
	default:
		anchored = false
	}
	if anchored {
		if len(segs) == 0 {
			return base, has(base)
		}
		return it.lookupIn(base, segs, has, depth)
	}
	if k, ok := it.lookupIn(mod, segs, has, depth); ok {
		return k, true
	}
	if mod != "" && len(segs) > 1 {
		return it.lookupIn("", segs, has, depth)
	}
	return "", false
}

// lookupIn resolves segs inside module base: a member of base, a path
// through one of base's submodules, or a name base imports.
func (it *items) lookupIn(base string, segs []string, has func(string) bool, depth int) (string, bool) {
	if len(segs) == 0 || depth > maxImportDepth {
		return "", false
	}
	if k := qualify(base, strings.Join(segs, "::")); has(k) {
		return k, true
	}
	if len(segs) > 1 {
		if sub := qualify(base, segs[0]); it.mods[sub] {
			return it.lookupIn(sub, segs[1:], has, depth+1)
		}
	}
	if target, ok := it.uses[base][segs[0]]; ok {
		full := append(append([]string(nil), target...), segs[1:]...)
		return it.resolveDepth(base, full, has, depth+1)
	}
	found, n := "", 0
	for _, g := range it.globs[base] {
		scope, ok := it.resolveDepth(base, g, it.isScope, depth+1)
		if !ok {
			continue
		}
		if k, ok := it.lookupIn(scope, segs, has, depth+1); ok && k != found {
			found, n = k, n+1
		}
	}
	if n == 1 {
		return found, true
	}
	return "", false
}

func (it *items) fillFields(info *adtInfo, mod string, generics []string, def *ast.StructDef) {
	if def == nil {
		info.isUnit = true
		return
	}
	if def.Tuple {
		info.isTuple = true
		info.tuple = make([]ty.Type, len(def.Fields))
		for i, f := range def.Fields {
			info.tuple[i] = it.lowerTy(f.Ty, mod, generics, nil)
		}
		return
	}
	if len(def.Fields) == 0 {
		info.isUnit = true
	}
	info.fields = make(map[string]ty.Type, len(def.Fields))
	for _, f := range def.Fields {
		info.fields[f.Ident.Name] = it.lowerTy(f.Ty, mod, generics, nil)
	}
}

func (it *items) collectImpl(k *ast.ItemImpl, mod string) {
	generics := paramNames(k.Generics)
	selfTy := it.lowerTy(k.SelfTy, mod, generics, nil)
	key := typeKey(selfTy)
	if key == "" {
		return
	}
	if it.methods[key] == nil {
		it.methods[key] = make(map[string]*fnSig)
	}
	for _, ii := range k.Items {
		m, ok := ii.Kind.(*ast.ImplMethod)
		if !ok {
			continue
		}
		g := append(append([]string(nil), generics...), paramNames(m.Method.Generics)...)
		it.methods[key][m.Method.Ident.Name] = it.signature(m.Method.Ident.Name, mod, g, selfTy, m.Method.Decl)
	}
}

func (it *items) signature(name, mod string, generics []string, selfTy ty.Type, decl *ast.FnDecl) *fnSig {
	sig := &fnSig{name: name, generics: generics, selfTy: selfTy, ret: ty.Unit}
	for _, p := range decl.Inputs {
		if p.Self != nil {
			sig.hasSelf = true
			continue
		}
		sig.params = append(sig.params, it.lowerTy(p.Ty, mod, generics, selfTy))
	}
	if decl.Output != nil {
		sig.ret = it.lowerTy(decl.Output, mod, generics, selfTy)
	}
	return sig
}

func paramNames(g *ast.Generics) []string {
	if g == nil {
		return nil
	}
	var out []string
	for _, tp := range g.TyParams {
		out = append(out, tp.Ident.Name)
	}
	return out
}

// typeKey is the name methods are filed under: the path of an ADT or the
// name of a primitive.
func typeKey(t ty.Type) string {
	switch t := t.(type) {
	case *ty.Adt:
		return t.Path
	case ty.Prim:
		return string(t)
	}
	return ""
}

// lowerTy converts a type written in module mod. generics lists the type
// parameters in scope and selfTy is what Self stands for. Anything that cannot be
// represented yields nil.
func (it *items) lowerTy(t *ast.Ty, mod string, generics []string, selfTy ty.Type) ty.Type {
	if t == nil {
		return nil
	}
	switch k := t.Kind.(type) {
	case *ast.TyPath:
		return it.lowerPathTy(k.Path, mod, generics, selfTy)
	case *ast.TyRptr:
		elem := it.lowerTy(k.Elem, mod, generics, selfTy)
		if elem == nil {
			return nil
		}
		return &ty.Ref{Region: k.Lifetime, Mut: k.Mut == ast.Mutable, Elem: elem}
	case *ast.TyPtr:
		elem := it.lowerTy(k.Elem, mod, generics, selfTy)
		if elem == nil {
			return nil
		}
		return &ty.Ptr{Mut: k.Mut == ast.Mutable, Elem: elem}
	case *ast.TySlice:
		elem := it.lowerTy(k.Elem, mod, generics, selfTy)
		if elem == nil {
			return nil
		}
		return &ty.Slice{Elem: elem}
	case *ast.TyArray:
		elem := it.lowerTy(k.Elem, mod, generics, selfTy)
		n, ok := constLen(k.Len)
		if elem == nil || !ok {
			return nil
		}
		return &ty.Array{Elem: elem, Len: n}
	case *ast.TyTup:
		elems := make([]ty.Type, len(k.Elems))
		for i, e := range k.Elems {
			if elems[i] = it.lowerTy(e, mod, generics, selfTy); elems[i] == nil {
				return nil
			}
		}
		return &ty.Tuple{Elems: elems}
	case *ast.TyBareFn:
		f := &ty.FnPtr{Ret: ty.Unit}
		for _, p := range k.Decl.Inputs {
			pt := it.lowerTy(p.Ty, mod, generics, selfTy)
			if pt == nil {
				return nil
			}
			f.Params = append(f.Params, pt)
		}
		if k.Decl.Output != nil {
			if f.Ret = it.lowerTy(k.Decl.Output, mod, generics, selfTy); f.Ret == nil {
				return nil
			}
		}
		return f
	case *ast.TyNever:
		return ty.Never{}
	}
	return nil
}

func (it *items) lowerPathTy(p *ast.Path, mod string, generics []string, selfTy ty.Type) ty.Type {
	last := p.Last()
	if last == nil {
		return nil
	}
	name := last.Ident.Name
	if len(p.Segments) == 1 && len(last.Types) == 0 {
		if name == "Self" {
			return selfTy
		}
		for _, g := range generics {
			if g == name {
				return &ty.Param{Name: name}
			}
		}
		if prim, ok := ty.LookupPrim(name); ok {
			return prim
		}
	}

	segs := segNames(p)
	if !p.Global && len(last.Types) == 0 {
		if k, ok := it.resolve(mod, segs, it.hasAlias); ok {
			// Drop the alias while lowering its target so a cyclic alias
			// terminates.
			a := it.aliases[k]
			delete(it.aliases, k)
			target := it.lowerTy(a.ty, a.mod, nil, nil)
			it.aliases[k] = a
			return target
		}
	}

	adt := &ty.Adt{Path: p.String()}
	if !p.Global {
		if k, ok := it.resolve(mod, segs, it.hasAdt); ok {
			adt.Path = k
		}
	}
	for _, a := range last.Types {
		at := it.lowerTy(a, mod, generics, selfTy)
		if at == nil {
			return nil
		}
		adt.Args = append(adt.Args, at)
	}
	return adt
}

// constLen evaluates an array length written as an integer literal.
func constLen(e *ast.Expr) (int, bool) {
	if e == nil {
		return 0, false
	}
	lit, ok := e.Kind.(*ast.ExprLit)
	if !ok || lit.Lit.Kind != ast.LitInt {
		return 0, false
	}
	text := lit.Lit.Text[:len(lit.Lit.Text)-len(lit.Lit.Suffix)]
	n, err := strconv.ParseInt(stripUnderscores(text), 0, 64)
	if err != nil {
		return 0, false
	}
	return int(n), true
}

func stripUnderscores(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '_' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
