package ast

import "github.com/xonecas/typo/internal/codemap"

// Pat is a pattern.
type Pat struct {
	ID   NodeID
	Kind PatKind
	Span codemap.Span
}

// PatKind is one of the Pat* variant types.
type PatKind interface{ patKind() }

type (
	// PatWild is `_`.
	PatWild struct{}

	// PatIdent binds a name, optionally `ref`/`mut` and with a `@` subpattern.
	PatIdent struct {
		ByRef bool
		Mut   Mutability
		Ident Ident
		Sub   *Pat
	}

	// PatStruct is `Path { field: pat, .. }`.
	PatStruct struct {
		Path   *Path
		Fields []*FieldPat
		Etc    bool
	}

	// PatEnum is a tuple-struct or qualified path pattern, `Path(a, b)` or
	// `E::V`. Args is nil for the bare qualified form.
	PatEnum struct {
		Path *Path
		Args []*Pat
	}

	// PatTup is `(a, b)`.
	PatTup struct{ Elems []*Pat }

	// PatRegion is `&pat` or `&mut pat`.
	PatRegion struct {
		Mut Mutability
		P   *Pat
	}

	// PatLit is a literal pattern.
	PatLit struct{ E *Expr }

	// PatRange is `lo..=hi`.
	PatRange struct{ Lo, Hi *Expr }

	// PatVec is a slice pattern `[a, .., b]`.
	PatVec struct{ Elems []*Pat }

	// PatOr is `a | b`.
	PatOr struct{ Alts []*Pat }

	// PatRest is `..` inside tuple and slice patterns.
	PatRest struct{}

	// PatMac is a macro in pattern position.
	PatMac struct{ Mac *Mac }
)

func (*PatWild) patKind()   {}
func (*PatIdent) patKind()  {}
func (*PatStruct) patKind() {}
func (*PatEnum) patKind()   {}
func (*PatTup) patKind()    {}
func (*PatRegion) patKind() {}
func (*PatLit) patKind()    {}
func (*PatRange) patKind()  {}
func (*PatVec) patKind()    {}
func (*PatOr) patKind()     {}
func (*PatRest) patKind()   {}
func (*PatMac) patKind()    {}

// FieldPat is one `name: pat` entry of a struct pattern.
type FieldPat struct {
	Ident     Ident
	Pat       *Pat
	Shorthand bool
	Span      codemap.Span
}

// Ty is a written type.
type Ty struct {
	ID   NodeID
	Kind TyKind
	Span codemap.Span
}

// TyKind is one of the Ty* variant types.
type TyKind interface{ tyKind() }

type (
	// TyPath is a named type such as `Vec<u8>` or `i32`.
	TyPath struct{ Path *Path }

	// TyRptr is `&'a mut T`.
	TyRptr struct {
		Lifetime string
		Mut      Mutability
		Elem     *Ty
	}

	// TyPtr is `*const T` or `*mut T`.
	TyPtr struct {
		Mut  Mutability
		Elem *Ty
	}

	// TySlice is `[T]`.
	TySlice struct{ Elem *Ty }

	// TyArray is `[T; N]`.
	TyArray struct {
		Elem *Ty
		Len  *Expr
	}

	// TyTup is `(A, B)`; the empty tuple is the unit type.
	TyTup struct{ Elems []*Ty }

	// TyBareFn is `fn(A) -> B`.
	TyBareFn struct{ Decl *FnDecl }

	// TyNever is `!`.
	TyNever struct{}

	// TyInfer is `_`.
	TyInfer struct{}

	// TyTraitObject is `dyn A + B` or `impl A + B`.
	TyTraitObject struct {
		Bounds []*TraitRef
		Impl   bool
	}

	// TyMac is a macro in type position.
	TyMac struct{ Mac *Mac }
)

func (*TyPath) tyKind()        {}
func (*TyRptr) tyKind()        {}
func (*TyPtr) tyKind()         {}
func (*TySlice) tyKind()       {}
func (*TyArray) tyKind()       {}
func (*TyTup) tyKind()         {}
func (*TyBareFn) tyKind()      {}
func (*TyNever) tyKind()       {}
func (*TyInfer) tyKind()       {}
func (*TyTraitObject) tyKind() {}
func (*TyMac) tyKind()         {}
