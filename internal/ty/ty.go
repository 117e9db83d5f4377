// Package ty holds the types inferred by the front end and the table that
// maps node ids to them.
package ty

import (
	"strconv"
	"strings"
)

// Type is an inferred type. String renders it in canonical display form.
type Type interface {
	String() string
	isType()
}

// Prim is a primitive scalar or str.
type Prim string

// Primitive types.
const (
	Bool  Prim = "bool"
	Char  Prim = "char"
	Str   Prim = "str"
	I8    Prim = "i8"
	I16   Prim = "i16"
	I32   Prim = "i32"
	I64   Prim = "i64"
	I128  Prim = "i128"
	Isize Prim = "isize"
	U8    Prim = "u8"
	U16   Prim = "u16"
	U32   Prim = "u32"
	U64   Prim = "u64"
	U128  Prim = "u128"
	Usize Prim = "usize"
	F32   Prim = "f32"
	F64   Prim = "f64"
)

var prims = map[string]Prim{}

func init() {
	for _, p := range []Prim{Bool, Char, Str, I8, I16, I32, I64, I128, Isize,
		U8, U16, U32, U64, U128, Usize, F32, F64} {
		prims[string(p)] = p
	}
}

// LookupPrim returns the primitive type called name.
func LookupPrim(name string) (Prim, bool) {
	p, ok := prims[name]
	return p, ok
}

// IsInt reports whether p is an integer type.
func (p Prim) IsInt() bool {
	return p != Bool && p != Char && p != Str && !p.IsFloat()
}

// IsFloat reports whether p is a floating point type.
func (p Prim) IsFloat() bool { return p == F32 || p == F64 }

// IsNumeric reports whether p is an integer or float type.
func (p Prim) IsNumeric() bool { return p.IsInt() || p.IsFloat() }

func (p Prim) String() string { return string(p) }

// Tuple is a tuple type; the empty tuple is the unit type.
type Tuple struct{ Elems []Type }

// Unit is the empty tuple.
var Unit = &Tuple{}

func (t *Tuple) String() string {
	if len(t.Elems) == 1 {
		return "(" + t.Elems[0].String() + ",)"
	}
	return "(" + join(t.Elems) + ")"
}

// Ref is a shared or mutable reference.
type Ref struct {
	Region string // e.g. "'static"; empty when elided
	Mut    bool
	Elem   Type
}

func (r *Ref) String() string {
	var b strings.Builder
	b.WriteByte('&')
	if r.Region != "" {
		b.WriteString(r.Region)
		b.WriteByte(' ')
	}
	if r.Mut {
		b.WriteString("mut ")
	}
	b.WriteString(r.Elem.String())
	return b.String()
}

// Ptr is a raw pointer.
type Ptr struct {
	Mut  bool
	Elem Type
}

func (p *Ptr) String() string {
	if p.Mut {
		return "*mut " + p.Elem.String()
	}
	return "*const " + p.Elem.String()
}

// Array is a fixed-length array.
type Array struct {
	Elem Type
	Len  int
}

func (a *Array) String() string {
	return "[" + a.Elem.String() + "; " + strconv.Itoa(a.Len) + "]"
}

// Slice is an unsized slice.
type Slice struct{ Elem Type }

func (s *Slice) String() string { return "[" + s.Elem.String() + "]" }

// Adt is a named struct, enum or union, possibly generic.
type Adt struct {
	Path string
	Args []Type
}

func (a *Adt) String() string {
	if len(a.Args) == 0 {
		return a.Path
	}
	return a.Path + "<" + join(a.Args) + ">"
}

// FnDef is the type of a named function item.
type FnDef struct {
	Name   string
	Params []Type
	Ret    Type
}

func (f *FnDef) String() string {
	return fnSig(f.Params, f.Ret) + " {" + f.Name + "}"
}

// FnPtr is a function pointer type.
type FnPtr struct {
	Params []Type
	Ret    Type
}

func (f *FnPtr) String() string { return fnSig(f.Params, f.Ret) }

// Param is a generic type parameter, Self included.
type Param struct{ Name string }

func (p *Param) String() string { return p.Name }

// Var is the type of an unsuffixed numeric literal before its uses fix
// it. Vars only exist while a body is being checked; a finished table
// never holds one.
type Var struct {
	ID    int
	Float bool
}

func (v *Var) String() string {
	if v.Float {
		return "{float}"
	}
	return "{integer}"
}

// Accepts reports whether v may stand for t.
func (v *Var) Accepts(t Type) bool {
	switch t := t.(type) {
	case *Var:
		return t.Float == v.Float
	case Prim:
		if v.Float {
			return t.IsFloat()
		}
		return t.IsInt()
	}
	return false
}

// Never is the type of diverging expressions.
type Never struct{}

func (Never) String() string { return "!" }

func (Prim) isType()   {}
func (*Tuple) isType() {}
func (*Ref) isType()   {}
func (*Ptr) isType()   {}
func (*Array) isType() {}
func (*Slice) isType() {}
func (*Adt) isType()   {}
func (*FnDef) isType() {}
func (*FnPtr) isType() {}
func (*Param) isType() {}
func (*Var) isType()   {}
func (Never) isType()  {}

// Equal reports whether a and b render identically.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.String() == b.String()
}

// IsUnit reports whether t is the unit type.
func IsUnit(t Type) bool {
	tup, ok := t.(*Tuple)
	return ok && len(tup.Elems) == 0
}

// IsNever reports whether t is the never type.
func IsNever(t Type) bool {
	_, ok := t.(Never)
	return ok
}

// StaticStr is the type of string literals.
func StaticStr() Type { return &Ref{Region: "'static", Elem: Str} }

// String is the owned string type.
func String() Type { return &Adt{Path: "String"} }

func fnSig(params []Type, ret Type) string {
	s := "fn(" + join(params) + ")"
	if ret != nil && !IsUnit(ret) {
		s += " -> " + ret.String()
	}
	return s
}

func join(ts []Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
