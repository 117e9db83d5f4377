package ty

import (
	"testing"

	"github.com/xonecas/typo/internal/ast"
)

func TestString(t *testing.T) {
	tests := []struct {
		typ  Type
		want string
	}{
		{I32, "i32"},
		{Unit, "()"},
		{&Tuple{Elems: []Type{I32}}, "(i32,)"},
		{&Tuple{Elems: []Type{I32, Bool}}, "(i32, bool)"},
		{StaticStr(), "&'static str"},
		{&Ref{Mut: true, Elem: U8}, "&mut u8"},
		{&Ptr{Elem: U8}, "*const u8"},
		{&Array{Elem: I32, Len: 3}, "[i32; 3]"},
		{&Slice{Elem: Char}, "[char]"},
		{&Adt{Path: "Vec", Args: []Type{String()}}, "Vec<String>"},
		{&FnDef{Name: "foo", Params: []Type{I32}, Ret: Bool}, "fn(i32) -> bool {foo}"},
		{&FnDef{Name: "main", Ret: Unit}, "fn() {main}"},
		{&FnPtr{Params: []Type{I32, I32}}, "fn(i32, i32)"},
		{Never{}, "!"},
		{&Var{}, "{integer}"},
		{&Var{Float: true}, "{float}"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestPrimClasses(t *testing.T) {
	if !I64.IsInt() || I64.IsFloat() {
		t.Error("i64 misclassified")
	}
	if !F32.IsFloat() || F32.IsInt() {
		t.Error("f32 misclassified")
	}
	if Bool.IsNumeric() || Char.IsNumeric() || Str.IsNumeric() {
		t.Error("non-numeric primitive reported numeric")
	}
	if _, ok := LookupPrim("String"); ok {
		t.Error("String is not a primitive")
	}
}

func TestVarAccepts(t *testing.T) {
	i, f := &Var{ID: 1}, &Var{ID: 2, Float: true}
	for _, tt := range []struct {
		v    *Var
		t    Type
		want bool
	}{
		{i, U8, true},
		{i, Usize, true},
		{i, F32, false},
		{i, Bool, false},
		{i, &Var{ID: 3}, true},
		{i, f, false},
		{f, F32, true},
		{f, I64, false},
		{f, String(), false},
	} {
		if got := tt.v.Accepts(tt.t); got != tt.want {
			t.Errorf("%v.Accepts(%v) = %v, want %v", tt.v, tt.t, got, tt.want)
		}
	}
}

func TestTableOrder(t *testing.T) {
	tbl := NewTable()
	tbl.Record(7, I32)
	tbl.Record(3, Bool)
	tbl.Record(7, U8)
	tbl.Record(ast.DummyNodeID, Char)
	tbl.Record(9, nil)
	tbl.Freeze()

	var ids []ast.NodeID
	var texts []string
	tbl.Each(func(id ast.NodeID, typ Type) {
		ids = append(ids, id)
		texts = append(texts, typ.String())
	})
	if len(ids) != 2 || ids[0] != 7 || ids[1] != 3 {
		t.Fatalf("ids = %v, want [7 3]", ids)
	}
	if texts[0] != "u8" || texts[1] != "bool" {
		t.Errorf("texts = %v, want [u8 bool]", texts)
	}

	defer func() {
		if recover() == nil {
			t.Error("Record on frozen table did not panic")
		}
	}()
	tbl.Record(1, I32)
}
