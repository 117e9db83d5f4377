package frontend

import "github.com/xonecas/typo/internal/ty"

// unify matches pattern, which may mention generic parameters, against an
// actual type and records parameter bindings in m. The first binding of a
// parameter wins and later matches only constrain literal vars in it;
// mismatched shapes are ignored.
func (ck *checker) unify(pattern, actual ty.Type, m map[string]ty.Type) {
	if pattern == nil || actual == nil {
		return
	}
	switch p := pattern.(type) {
	case *ty.Param:
		if prev, ok := m[p.Name]; ok {
			ck.constrain(prev, actual)
		} else {
			m[p.Name] = actual
		}
	case *ty.Ref:
		if a, ok := actual.(*ty.Ref); ok {
			ck.unify(p.Elem, a.Elem, m)
		}
	case *ty.Ptr:
		if a, ok := actual.(*ty.Ptr); ok {
			ck.unify(p.Elem, a.Elem, m)
		}
	case *ty.Slice:
		if a, ok := actual.(*ty.Slice); ok {
			ck.unify(p.Elem, a.Elem, m)
		}
	case *ty.Array:
		if a, ok := actual.(*ty.Array); ok {
			ck.unify(p.Elem, a.Elem, m)
		}
	case *ty.Tuple:
		if a, ok := actual.(*ty.Tuple); ok && len(a.Elems) == len(p.Elems) {
			for i := range p.Elems {
				ck.unify(p.Elems[i], a.Elems[i], m)
			}
		}
	case *ty.Adt:
		if a, ok := actual.(*ty.Adt); ok && a.Path == p.Path && len(a.Args) == len(p.Args) {
			for i := range p.Args {
				ck.unify(p.Args[i], a.Args[i], m)
			}
		}
	case *ty.FnPtr:
		if a, ok := actual.(*ty.FnPtr); ok && len(a.Params) == len(p.Params) {
			for i := range p.Params {
				ck.unify(p.Params[i], a.Params[i], m)
			}
			ck.unify(p.Ret, a.Ret, m)
		}
	}
}

// substitute replaces parameters bound in m. It fails when t mentions one
// of generics that m leaves unbound; other parameters are kept as they are.
func substitute(t ty.Type, m map[string]ty.Type, generics []string) (ty.Type, bool) {
	switch t := t.(type) {
	case nil:
		return nil, false
	case *ty.Param:
		if b, ok := m[t.Name]; ok {
			return b, true
		}
		for _, g := range generics {
			if g == t.Name {
				return nil, false
			}
		}
		return t, true
	case *ty.Ref:
		elem, ok := substitute(t.Elem, m, generics)
		if !ok {
			return nil, false
		}
		return &ty.Ref{Region: t.Region, Mut: t.Mut, Elem: elem}, true
	case *ty.Ptr:
		elem, ok := substitute(t.Elem, m, generics)
		if !ok {
			return nil, false
		}
		return &ty.Ptr{Mut: t.Mut, Elem: elem}, true
	case *ty.Slice:
		elem, ok := substitute(t.Elem, m, generics)
		if !ok {
			return nil, false
		}
		return &ty.Slice{Elem: elem}, true
	case *ty.Array:
		elem, ok := substitute(t.Elem, m, generics)
		if !ok {
			return nil, false
		}
		return &ty.Array{Elem: elem, Len: t.Len}, true
	case *ty.Tuple:
		elems, ok := substituteAll(t.Elems, m, generics)
		if !ok {
			return nil, false
		}
		return &ty.Tuple{Elems: elems}, true
	case *ty.Adt:
		args, ok := substituteAll(t.Args, m, generics)
		if !ok {
			return nil, false
		}
		return &ty.Adt{Path: t.Path, Args: args}, true
	case *ty.FnPtr:
		params, ok := substituteAll(t.Params, m, generics)
		if !ok {
			return nil, false
		}
		ret, ok := substitute(t.Ret, m, generics)
		if !ok {
			return nil, false
		}
		return &ty.FnPtr{Params: params, Ret: ret}, true
	case *ty.FnDef:
		params, ok := substituteAll(t.Params, m, generics)
		if !ok {
			return nil, false
		}
		ret, ok := substitute(t.Ret, m, generics)
		if !ok {
			return nil, false
		}
		return &ty.FnDef{Name: t.Name, Params: params, Ret: ret}, true
	}
	return t, true
}

func substituteAll(ts []ty.Type, m map[string]ty.Type, generics []string) ([]ty.Type, bool) {
	if len(ts) == 0 {
		return ts, true
	}
	out := make([]ty.Type, len(ts))
	for i, t := range ts {
		s, ok := substitute(t, m, generics)
		if !ok {
			return nil, false
		}
		out[i] = s
	}
	return out, true
}

// instantiate substitutes the arguments of a generic ADT into the type of
// one of its fields. It returns nil when the field type cannot be fully
// resolved.
func instantiate(field ty.Type, generics []string, args []ty.Type) ty.Type {
	if field == nil {
		return nil
	}
	m := make(map[string]ty.Type, len(generics))
	for i, g := range generics {
		if i < len(args) {
			m[g] = args[i]
		}
	}
	t, ok := substitute(field, m, generics)
	if !ok {
		return nil
	}
	return t
}

func containsParam(t ty.Type) bool {
	switch t := t.(type) {
	case *ty.Param:
		return true
	case *ty.Ref:
		return containsParam(t.Elem)
	case *ty.Ptr:
		return containsParam(t.Elem)
	case *ty.Slice:
		return containsParam(t.Elem)
	case *ty.Array:
		return containsParam(t.Elem)
	case *ty.Tuple:
		for _, e := range t.Elems {
			if containsParam(e) {
				return true
			}
		}
	case *ty.Adt:
		for _, a := range t.Args {
			if containsParam(a) {
				return true
			}
		}
	case *ty.FnPtr:
		for _, p := range t.Params {
			if containsParam(p) {
				return true
			}
		}
		return containsParam(t.Ret)
	}
	return false
}

// resolve follows the bindings of a literal var.
func (ck *checker) resolve(t ty.Type) ty.Type {
	for {
		v, ok := t.(*ty.Var)
		if !ok {
			return t
		}
		b, ok := ck.vars[v]
		if !ok {
			return v
		}
		t = b
	}
}

// constrain records that a and b are the same type by binding the literal
// vars either one holds. Mismatched shapes are ignored.
func (ck *checker) constrain(a, b ty.Type) {
	a, b = ck.resolve(a), ck.resolve(b)
	if a == nil || b == nil || a == b {
		return
	}
	if v, ok := a.(*ty.Var); ok {
		ck.bind(v, b)
		return
	}
	if v, ok := b.(*ty.Var); ok {
		ck.bind(v, a)
		return
	}
	switch a := a.(type) {
	case *ty.Ref:
		if b, ok := b.(*ty.Ref); ok {
			ck.constrain(a.Elem, b.Elem)
		}
	case *ty.Ptr:
		if b, ok := b.(*ty.Ptr); ok {
			ck.constrain(a.Elem, b.Elem)
		}
	case *ty.Slice:
		if b, ok := b.(*ty.Slice); ok {
			ck.constrain(a.Elem, b.Elem)
		}
	case *ty.Array:
		if b, ok := b.(*ty.Array); ok {
			ck.constrain(a.Elem, b.Elem)
		}
	case *ty.Tuple:
		if b, ok := b.(*ty.Tuple); ok && len(a.Elems) == len(b.Elems) {
			for i := range a.Elems {
				ck.constrain(a.Elems[i], b.Elems[i])
			}
		}
	case *ty.Adt:
		if b, ok := b.(*ty.Adt); ok && a.Path == b.Path && len(a.Args) == len(b.Args) {
			for i := range a.Args {
				ck.constrain(a.Args[i], b.Args[i])
			}
		}
	}
}

func (ck *checker) bind(v *ty.Var, t ty.Type) {
	if !v.Accepts(t) {
		return
	}
	if w, ok := t.(*ty.Var); ok && ck.escaped[v] {
		ck.escaped[w] = true
	}
	ck.vars[v] = t
}

// escape marks the unbound literal vars in t as used where no type is
// known, so they stay untyped unless something else fixes them.
func (ck *checker) escape(t ty.Type) {
	switch t := ck.resolve(t).(type) {
	case *ty.Var:
		ck.escaped[t] = true
	case *ty.Ref:
		ck.escape(t.Elem)
	case *ty.Ptr:
		ck.escape(t.Elem)
	case *ty.Slice:
		ck.escape(t.Elem)
	case *ty.Array:
		ck.escape(t.Elem)
	case *ty.Tuple:
		for _, e := range t.Elems {
			ck.escape(e)
		}
	case *ty.Adt:
		for _, a := range t.Args {
			ck.escape(a)
		}
	}
}

// settle replaces the literal vars in t by their bindings. An unbound var
// defaults to i32 or f64; ok is false when t mentions an escaped one.
func (ck *checker) settle(t ty.Type) (ty.Type, bool) {
	switch t := ck.resolve(t).(type) {
	case *ty.Var:
		switch {
		case ck.escaped[t]:
			return nil, false
		case t.Float:
			return ty.F64, true
		}
		return ty.I32, true
	case *ty.Ref:
		elem, ok := ck.settle(t.Elem)
		return &ty.Ref{Region: t.Region, Mut: t.Mut, Elem: elem}, ok
	case *ty.Ptr:
		elem, ok := ck.settle(t.Elem)
		return &ty.Ptr{Mut: t.Mut, Elem: elem}, ok
	case *ty.Slice:
		elem, ok := ck.settle(t.Elem)
		return &ty.Slice{Elem: elem}, ok
	case *ty.Array:
		elem, ok := ck.settle(t.Elem)
		return &ty.Array{Elem: elem, Len: t.Len}, ok
	case *ty.Tuple:
		elems, ok := ck.settleAll(t.Elems)
		return &ty.Tuple{Elems: elems}, ok
	case *ty.Adt:
		args, ok := ck.settleAll(t.Args)
		return &ty.Adt{Path: t.Path, Args: args}, ok
	case *ty.FnPtr:
		params, ok := ck.settleAll(t.Params)
		ret, rok := ck.settle(t.Ret)
		return &ty.FnPtr{Params: params, Ret: ret}, ok && rok
	case *ty.FnDef:
		params, ok := ck.settleAll(t.Params)
		ret, rok := ck.settle(t.Ret)
		return &ty.FnDef{Name: t.Name, Params: params, Ret: ret}, ok && rok
	default:
		return t, true
	}
}

func (ck *checker) settleAll(ts []ty.Type) ([]ty.Type, bool) {
	if len(ts) == 0 {
		return ts, true
	}
	out := make([]ty.Type, len(ts))
	ok := true
	for i, t := range ts {
		s, sok := ck.settle(t)
		out[i], ok = s, ok && sok
	}
	return out, ok
}
