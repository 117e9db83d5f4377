package frontend

import (
	"context"
	"reflect"

	"github.com/rs/zerolog/log"

	"github.com/xonecas/typo/internal/ast"
)

// Expand returns an expanded copy of crate; crate itself is left as is.
// Nodes whose cfg predicate is false are removed, macro invocations in item
// and statement position are erased, and every node gets an id in
// pre-order starting with the crate at ast.CrateNodeID.
func (s *Session) Expand(ctx context.Context, crate *ast.Crate, crateName string) (*ast.Crate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.crateName = crateName
	out := cloneCrate(crate)

	if err := s.strip(out); err != nil {
		return nil, err
	}
	n := assignIDs(out)
	log.Debug().Str("crate", crateName).Uint32("nodes", uint32(n)).Msg("Expanded crate")
	return out, nil
}

// strip applies cfg attributes and erases item macros in place.
func (s *Session) strip(c *ast.Crate) error {
	var firstErr error
	keep := func(attrs []*ast.Attr) bool {
		if firstErr != nil {
			return false
		}
		ok, err := s.cfgEnabled(attrs)
		if err != nil {
			firstErr = err
			return false
		}
		return ok
	}
	items := func(in []*ast.Item) []*ast.Item {
		out := in[:0]
		for _, it := range in {
			if _, isMac := it.Kind.(*ast.ItemMac); isMac {
				continue
			}
			if keep(it.Attrs) {
				out = append(out, it)
			}
		}
		return out
	}
	fields := func(sd *ast.StructDef) {
		if sd == nil {
			return
		}
		out := sd.Fields[:0]
		for _, f := range sd.Fields {
			if keep(f.Attrs) {
				out = append(out, f)
			}
		}
		sd.Fields = out
	}

	c.Module.Items = items(c.Module.Items)
	v := &ast.Visitor{
		Item: func(it *ast.Item) {
			switch k := it.Kind.(type) {
			case *ast.ItemMod:
				if k.Mod != nil {
					k.Mod.Items = items(k.Mod.Items)
				}
			case *ast.ItemForeignMod:
				out := k.Items[:0]
				for _, fi := range k.Items {
					if keep(fi.Attrs) {
						out = append(out, fi)
					}
				}
				k.Items = out
			case *ast.ItemStruct:
				fields(k.Def)
			case *ast.ItemEnum:
				out := k.Variants[:0]
				for _, va := range k.Variants {
					if keep(va.Attrs) {
						out = append(out, va)
					}
				}
				k.Variants = out
			case *ast.ItemTrait:
				out := k.Items[:0]
				for _, ti := range k.Items {
					if keep(ti.Attrs) {
						out = append(out, ti)
					}
				}
				k.Items = out
			case *ast.ItemImpl:
				out := k.Items[:0]
				for _, ii := range k.Items {
					if keep(ii.Attrs) {
						out = append(out, ii)
					}
				}
				k.Items = out
			}
		},
		Variant: func(va *ast.Variant) { fields(va.Def) },
		Block: func(b *ast.Block) {
			out := b.Stmts[:0]
			for _, st := range b.Stmts {
				switch k := st.Kind.(type) {
				case *ast.StmtMac:
					if !keep(k.Attrs) {
						continue
					}
				case *ast.StmtDecl:
					if k.Item != nil {
						if _, isMac := k.Item.Kind.(*ast.ItemMac); isMac || !keep(k.Item.Attrs) {
							continue
						}
					}
				case *ast.StmtSemi:
					if !keep(k.Expr.Attrs) {
						continue
					}
				case *ast.StmtExpr:
					if !keep(k.Expr.Attrs) {
						continue
					}
				}
				out = append(out, st)
			}
			b.Stmts = out
			if b.Expr != nil && !keep(b.Expr.Attrs) {
				b.Expr = nil
			}
		},
		Expr: func(e *ast.Expr) {
			m, ok := e.Kind.(*ast.ExprMatch)
			if !ok {
				return
			}
			out := m.Arms[:0]
			for _, arm := range m.Arms {
				if keep(arm.Attrs) {
					out = append(out, arm)
				}
			}
			m.Arms = out
		},
	}
	ast.Walk(v, c)
	return firstErr
}

// assignIDs numbers every node of c in pre-order and returns the number of
// ids handed out.
func assignIDs(c *ast.Crate) ast.NodeID {
	next := ast.CrateNodeID
	id := func() ast.NodeID {
		n := next
		next++
		return n
	}
	c.ID = id()

	v := &ast.Visitor{
		Item: func(it *ast.Item) {
			it.ID = id()
			if k, ok := it.Kind.(*ast.ItemStruct); ok && k.Def != nil && (k.Def.Tuple || len(k.Def.Fields) == 0) {
				k.Def.CtorID = id()
			}
		},
		ForeignItem: func(fi *ast.ForeignItem) { fi.ID = id() },
		UseTree:     func(u *ast.UseTree) { u.ID = id() },
		TraitItem: func(ti *ast.TraitItem) {
			switch k := ti.Kind.(type) {
			case *ast.ProvidedMethod:
				k.Method.ID = id()
			case *ast.AssocConst:
				k.ID = id()
			}
		},
		TypeMethod: func(m *ast.TypeMethod) { m.ID = id() },
		ImplItem: func(ii *ast.ImplItem) {
			switch k := ii.Kind.(type) {
			case *ast.ImplMethod:
				k.Method.ID = id()
			case *ast.ImplTypedef:
				k.ID = id()
			case *ast.ImplConst:
				k.ID = id()
			}
		},
		StructField: func(f *ast.StructField) { f.ID = id() },
		Variant: func(va *ast.Variant) {
			va.ID = id()
			if va.Def != nil {
				va.Def.CtorID = id()
			}
		},
		TyParam:  func(tp *ast.TyParam) { tp.ID = id() },
		TraitRef: func(tr *ast.TraitRef) { tr.RefID = id() },
		Param:    func(p *ast.Param) { p.ID = id() },
		Block:    func(b *ast.Block) { b.ID = id() },
		Stmt:     func(st *ast.Stmt) { st.ID = id() },
		Local:    func(l *ast.Local) { l.ID = id() },
		Expr:     func(e *ast.Expr) { e.ID = id() },
		Pat:      func(p *ast.Pat) { p.ID = id() },
		Ty:       func(t *ast.Ty) { t.ID = id() },
	}
	ast.Walk(v, c)
	return next
}

// cloneCrate deep-copies a syntax tree. The tree is made of pointers,
// slices, interfaces and plain structs only.
func cloneCrate(c *ast.Crate) *ast.Crate {
	return deepCopy(reflect.ValueOf(c)).Interface().(*ast.Crate)
}

func deepCopy(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		c := reflect.New(v.Elem().Type())
		c.Elem().Set(deepCopy(v.Elem()))
		return c
	case reflect.Interface:
		if v.IsNil() {
			return v
		}
		c := reflect.New(v.Type()).Elem()
		c.Set(deepCopy(v.Elem()))
		return c
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		c := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			c.Index(i).Set(deepCopy(v.Index(i)))
		}
		return c
	case reflect.Struct:
		c := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			c.Field(i).Set(deepCopy(v.Field(i)))
		}
		return c
	}
	return v
}
