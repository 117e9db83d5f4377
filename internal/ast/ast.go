// Package ast defines the syntax tree shared by the front end and the
// indexers.
//
// Node categories with open-ended variants (items, expressions, patterns,
// types, statements) are tagged unions: a common header struct with a Kind
// field holding one of a closed set of variant types. The variant types
// implement an unexported marker method so no other package can add new
// variants.
package ast

import (
	"math"

	"github.com/xonecas/typo/internal/codemap"
)

// NodeID identifies one syntax node within a translation unit.
type NodeID uint32

// DummyNodeID is carried by nodes that have not been assigned an id yet.
const DummyNodeID NodeID = math.MaxUint32

// CrateNodeID is the id of the crate root.
const CrateNodeID NodeID = 0

// Ident is a name as written in the source.
type Ident struct {
	Name string
	Span codemap.Span
}

// IsEmpty reports whether the identifier has no name.
func (id Ident) IsEmpty() bool { return id.Name == "" }

// Crate is the root of a translation unit.
type Crate struct {
	ID     NodeID
	Attrs  []*Attr
	Module *Mod
	Span   codemap.Span
}

// Mod is the body of a module.
type Mod struct {
	// Inner spans the module contents. For out-of-line modules it points
	// into the module's own file.
	Inner codemap.Span
	Items []*Item
}

// Attr is an outer (#[..]) or inner (#![..]) attribute.
type Attr struct {
	Inner bool
	Meta  *MetaItem
	Span  codemap.Span
}

// MetaKind distinguishes the shapes of a MetaItem.
type MetaKind int

const (
	MetaWord      MetaKind = iota // #[test]
	MetaNameValue                 // #[path = "x.rs"]
	MetaList                      // #[cfg(all(unix, feature = "x"))]
)

// MetaItem is the parsed content of an attribute.
type MetaItem struct {
	Kind  MetaKind
	Name  string
	Value string // unquoted, MetaNameValue only
	List  []*MetaItem
	Span  codemap.Span
}

// AttrValue returns the value of the first name-value attribute called name.
func AttrValue(attrs []*Attr, name string) (string, bool) {
	for _, a := range attrs {
		if a.Meta != nil && a.Meta.Kind == MetaNameValue && a.Meta.Name == name {
			return a.Meta.Value, true
		}
	}
	return "", false
}

// Path is a possibly qualified name such as std::io::Write or Vec<T>.
type Path struct {
	Global   bool
	Segments []*PathSegment
	Span     codemap.Span
}

// PathSegment is one component of a Path.
type PathSegment struct {
	Ident Ident
	Types []*Ty // generic arguments
}

// Last returns the final segment, or nil for an empty path.
func (p *Path) Last() *PathSegment {
	if len(p.Segments) == 0 {
		return nil
	}
	return p.Segments[len(p.Segments)-1]
}

// String renders the path without generic arguments.
func (p *Path) String() string {
	s := ""
	if p.Global {
		s = "::"
	}
	for i, seg := range p.Segments {
		if i > 0 {
			s += "::"
		}
		s += seg.Ident.Name
	}
	return s
}

// Generics holds the lifetime and type parameters of an item.
type Generics struct {
	Lifetimes []Ident
	TyParams  []*TyParam
}

// TyParam is a type parameter with its bounds.
type TyParam struct {
	ID      NodeID
	Ident   Ident
	Bounds  []*TraitRef
	Default *Ty
	Span    codemap.Span
}

// TraitRef is a reference to a trait in a bound or an impl header.
type TraitRef struct {
	RefID NodeID
	Path  *Path
}

// Mac is a macro invocation. Token trees are not kept.
type Mac struct {
	Path *Path
	Span codemap.Span
}

// Mutability of a binding, reference or pointer.
type Mutability int

const (
	Immutable Mutability = iota
	Mutable
)
