package ast

import "github.com/xonecas/typo/internal/codemap"

// Item is a module-level or block-level declaration.
type Item struct {
	ID    NodeID
	Ident Ident // empty for impls, uses and unnamed macro invocations
	Attrs []*Attr
	Kind  ItemKind
	Span  codemap.Span
}

// ItemKind is one of the Item* variant types.
type ItemKind interface{ itemKind() }

// ItemFn is a free function.
type ItemFn struct {
	Decl     *FnDecl
	Generics *Generics
	Body     *Block
}

// ItemMod is a module, inline or out-of-line.
type ItemMod struct {
	Mod *Mod
	// Inline is false for `mod m;` whose body was loaded from another file.
	Inline bool
}

// ItemForeignMod is an `extern "ABI" { ... }` block.
type ItemForeignMod struct {
	ABI   string
	Items []*ForeignItem
}

// ItemStruct is a struct or union.
type ItemStruct struct {
	Def      *StructDef
	Generics *Generics
	Union    bool
}

// ItemEnum is an enum declaration.
type ItemEnum struct {
	Variants []*Variant
	Generics *Generics
}

// ItemTrait is a trait declaration.
type ItemTrait struct {
	Generics *Generics
	Bounds   []*TraitRef
	Items    []*TraitItem
}

// ItemImpl is an inherent or trait implementation.
type ItemImpl struct {
	Generics *Generics
	Trait    *TraitRef // nil for inherent impls
	SelfTy   *Ty
	Items    []*ImplItem
}

// ItemUse is a use declaration.
type ItemUse struct {
	Tree *UseTree
}

// ItemExternCrate is `extern crate name [as rename];`.
type ItemExternCrate struct {
	// Orig is the crate name when the item renames it.
	Orig string
}

// ItemConst is a const item.
type ItemConst struct {
	Ty   *Ty
	Expr *Expr
}

// ItemStatic is a static item.
type ItemStatic struct {
	Ty   *Ty
	Mut  Mutability
	Expr *Expr
}

// ItemTy is a type alias.
type ItemTy struct {
	Ty       *Ty
	Generics *Generics
}

// ItemMac is a macro invocation in item position, macro_rules! included.
// Only present before expansion.
type ItemMac struct {
	Mac *Mac
}

func (*ItemFn) itemKind()          {}
func (*ItemMod) itemKind()         {}
func (*ItemForeignMod) itemKind()  {}
func (*ItemStruct) itemKind()      {}
func (*ItemEnum) itemKind()        {}
func (*ItemTrait) itemKind()       {}
func (*ItemImpl) itemKind()        {}
func (*ItemUse) itemKind()         {}
func (*ItemExternCrate) itemKind() {}
func (*ItemConst) itemKind()       {}
func (*ItemStatic) itemKind()      {}
func (*ItemTy) itemKind()          {}
func (*ItemMac) itemKind()         {}

// FnDecl is a function signature.
type FnDecl struct {
	Inputs []*Param
	Output *Ty // nil means ()
}

// Param is one function parameter. A self parameter has a nil Ty unless
// written with an explicit type.
type Param struct {
	ID   NodeID
	Pat  *Pat
	Ty   *Ty
	Self *SelfParam
}

// SelfParam records the shape of a `self`, `&self` or `&mut self` parameter.
type SelfParam struct {
	Ref bool
	Mut Mutability
}

// ForeignItem is a function or static declared in an extern block.
type ForeignItem struct {
	ID    NodeID
	Ident Ident
	Attrs []*Attr
	Decl  *FnDecl // nil for statics
	Ty    *Ty     // statics only
	Span  codemap.Span
}

// StructDef holds the fields of a struct, union or struct-like variant.
type StructDef struct {
	Fields []*StructField
	// Tuple is true for `struct P(i32, i32);` and tuple variants.
	Tuple bool
	// CtorID is the constructor id of tuple and unit structs.
	CtorID NodeID
}

// StructField is one field of a StructDef. Positional fields have an
// empty Ident.
type StructField struct {
	ID    NodeID
	Ident Ident
	Attrs []*Attr
	Ty    *Ty
	Span  codemap.Span
}

// Named reports whether the field has an identifier.
func (f *StructField) Named() bool { return !f.Ident.IsEmpty() }

// Variant is one enum variant.
type Variant struct {
	ID    NodeID
	Name  Ident
	Attrs []*Attr
	Def   *StructDef // nil for unit variants
	Disr  *Expr
	Span  codemap.Span
}

// TraitItem is a member of a trait declaration.
type TraitItem struct {
	Attrs []*Attr
	Kind  TraitItemKind
}

// TraitItemKind is one of the trait member variant types.
type TraitItemKind interface{ traitItemKind() }

// RequiredMethod is a trait method without a default body.
type RequiredMethod struct {
	Method *TypeMethod
}

// ProvidedMethod is a trait method with a default body.
type ProvidedMethod struct {
	Method *Method
}

// AssocType is an associated type declaration inside a trait.
type AssocType struct {
	TyParam *TyParam
}

// AssocConst is an associated const inside a trait.
type AssocConst struct {
	ID    NodeID
	Ident Ident
	Ty    *Ty
	Expr  *Expr
	Span  codemap.Span
}

func (*RequiredMethod) traitItemKind() {}
func (*ProvidedMethod) traitItemKind() {}
func (*AssocType) traitItemKind()      {}
func (*AssocConst) traitItemKind()     {}

// TypeMethod is a method signature without a body.
type TypeMethod struct {
	ID       NodeID
	Ident    Ident
	Attrs    []*Attr
	Generics *Generics
	Decl     *FnDecl
	Span     codemap.Span
}

// Method is a method with a body, in an impl or as a trait default.
type Method struct {
	ID       NodeID
	Ident    Ident
	Attrs    []*Attr
	Generics *Generics
	Decl     *FnDecl
	Body     *Block
	Span     codemap.Span
}

// ImplItem is a member of an impl block.
type ImplItem struct {
	Attrs []*Attr
	Kind  ImplItemKind
}

// ImplItemKind is one of the impl member variant types.
type ImplItemKind interface{ implItemKind() }

// ImplMethod is a method defined in an impl.
type ImplMethod struct {
	Method *Method
}

// ImplTypedef is `type Name = Ty;` inside an impl.
type ImplTypedef struct {
	ID    NodeID
	Ident Ident
	Ty    *Ty
	Span  codemap.Span
}

// ImplConst is an associated const inside an impl.
type ImplConst struct {
	ID    NodeID
	Ident Ident
	Ty    *Ty
	Expr  *Expr
	Span  codemap.Span
}

func (*ImplMethod) implItemKind()  {}
func (*ImplTypedef) implItemKind() {}
func (*ImplConst) implItemKind()   {}

// UseTreeKind distinguishes the shapes of a UseTree.
type UseTreeKind int

const (
	UseSimple UseTreeKind = iota // a::b [as c]
	UseGlob                      // a::*
	UseList                      // a::{b, c}
)

// UseTree is the argument of a use declaration.
type UseTree struct {
	ID     NodeID
	Kind   UseTreeKind
	Prefix *Path
	// Rename is the bound name of a simple tree: the alias if present,
	// otherwise the last segment of Prefix.
	Rename Ident
	Items  []*UseTree
	Span   codemap.Span
}

// Renamed reports whether a simple tree binds a name other than the final
// segment of its path.
func (u *UseTree) Renamed() bool {
	if u.Kind != UseSimple || u.Prefix == nil {
		return false
	}
	last := u.Prefix.Last()
	return last != nil && u.Rename.Name != last.Ident.Name
}
