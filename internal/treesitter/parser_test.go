package treesitter

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xonecas/typo/internal/ast"
	"github.com/xonecas/typo/internal/codemap"
)

func parse(t *testing.T, src string) (*File, *codemap.CodeMap) {
	t.Helper()
	cm := codemap.New()
	f := cm.AddFile("lib.rs", src)
	out, err := Parse(context.Background(), f)
	require.NoError(t, err)
	return out, cm
}

func spanText(cm *codemap.CodeMap, sp codemap.Span) string {
	f := cm.FileAt(sp.Lo)
	lo := int(sp.Lo - f.Start)
	hi := int(sp.Hi - f.Start)
	return f.Src[lo:hi]
}

func TestParseSource_Rust(t *testing.T) {
	src := `#![crate_name = "demo"]

use std::io::Write;

struct Point {
	x: i32,
	y: i32,
}

struct Pair(i32, i32);

enum Shape {
	Circle(f64),
	Square { side: f64 },
	Empty,
}

trait Area {
	type Unit;
	fn area(&self) -> f64;
	fn double(&self) -> f64 { self.area() * 2.0 }
}

impl Area for Shape {
	type Unit = f64;
	fn area(&self) -> f64 { 0.0 }
}

mod inner {
	pub fn helper() {}
}

fn main() {}
`
	out, _ := parse(t, src)

	require.Len(t, out.Attrs, 1)
	require.Equal(t, "crate_name", out.Attrs[0].Meta.Name)
	require.Equal(t, "demo", out.Attrs[0].Meta.Value)

	type itemKey struct {
		name string
		kind string
	}
	var got []itemKey
	for _, it := range out.Mod.Items {
		var kind string
		switch it.Kind.(type) {
		case *ast.ItemUse:
			kind = "use"
		case *ast.ItemStruct:
			kind = "struct"
		case *ast.ItemEnum:
			kind = "enum"
		case *ast.ItemTrait:
			kind = "trait"
		case *ast.ItemImpl:
			kind = "impl"
		case *ast.ItemMod:
			kind = "mod"
		case *ast.ItemFn:
			kind = "fn"
		}
		got = append(got, itemKey{it.Ident.Name, kind})
	}
	want := []itemKey{
		{"", "use"},
		{"Point", "struct"},
		{"Pair", "struct"},
		{"Shape", "enum"},
		{"Area", "trait"},
		{"", "impl"},
		{"inner", "mod"},
		{"main", "fn"},
	}
	require.Equal(t, want, got)

	pair := out.Mod.Items[2].Kind.(*ast.ItemStruct)
	require.True(t, pair.Def.Tuple)
	require.Len(t, pair.Def.Fields, 2)
	require.False(t, pair.Def.Fields[0].Named())

	shape := out.Mod.Items[3].Kind.(*ast.ItemEnum)
	require.Len(t, shape.Variants, 3)
	require.Nil(t, shape.Variants[2].Def)

	area := out.Mod.Items[4].Kind.(*ast.ItemTrait)
	require.Len(t, area.Items, 3)
	require.IsType(t, &ast.AssocType{}, area.Items[0].Kind)
	require.IsType(t, &ast.RequiredMethod{}, area.Items[1].Kind)
	require.IsType(t, &ast.ProvidedMethod{}, area.Items[2].Kind)

	impl := out.Mod.Items[5].Kind.(*ast.ItemImpl)
	require.NotNil(t, impl.Trait)
	require.Equal(t, "Area", impl.Trait.Path.String())
	require.Len(t, impl.Items, 2)

	inner := out.Mod.Items[6].Kind.(*ast.ItemMod)
	require.True(t, inner.Inline)
	require.Len(t, inner.Mod.Items, 1)
}

func TestParseModInnerSpan(t *testing.T) {
	src := "// leading comment\n#![allow(dead_code)]\nfn first() {}\n"
	out, cm := parse(t, src)
	require.True(t, strings.HasPrefix(spanText(cm, out.Mod.Inner), "fn first()"))
}

func TestParseOutOfLineMod(t *testing.T) {
	out, _ := parse(t, "mod sub;\n")
	require.Len(t, out.Mod.Items, 1)
	m := out.Mod.Items[0].Kind.(*ast.ItemMod)
	require.False(t, m.Inline)
	require.Nil(t, m.Mod)
}

func TestParseMacroRules(t *testing.T) {
	out, cm := parse(t, "macro_rules! square {\n\t($x:expr) => { $x * $x };\n}\n")
	require.Len(t, out.Mod.Items, 1)
	it := out.Mod.Items[0]
	require.Equal(t, "square", it.Ident.Name)
	mac := it.Kind.(*ast.ItemMac).Mac
	require.Len(t, mac.Path.Segments, 1)
	require.Equal(t, "macro_rules", mac.Path.String())
	require.Equal(t, "macro_rules", spanText(cm, mac.Path.Span))
}

func TestParseStatementMacros(t *testing.T) {
	out, cm := parse(t, "fn f() -> Vec<i32> {\n\tsetup! { a }\n\tvec![1]\n}\n")
	body := out.Mod.Items[0].Kind.(*ast.ItemFn).Body
	require.Len(t, body.Stmts, 1)
	st, ok := body.Stmts[0].Kind.(*ast.StmtMac)
	require.True(t, ok, "statement is %T", body.Stmts[0].Kind)
	require.Equal(t, "setup", st.Mac.Path.String())

	require.NotNil(t, body.Expr)
	tail, ok := body.Expr.Kind.(*ast.ExprMac)
	require.True(t, ok, "tail is %T", body.Expr.Kind)
	require.Equal(t, "vec![1]", spanText(cm, body.Expr.Span))
	require.Equal(t, "vec", tail.Mac.Path.String())
}

func TestParseCfgAttribute(t *testing.T) {
	out, _ := parse(t, "#[cfg(all(unix, feature = \"fast\"))]\nfn f() {}\n")
	it := out.Mod.Items[0]
	require.Len(t, it.Attrs, 1)
	meta := it.Attrs[0].Meta
	require.Equal(t, "cfg", meta.Name)
	require.Equal(t, ast.MetaList, meta.Kind)
	require.Len(t, meta.List, 1)

	all := meta.List[0]
	require.Equal(t, "all", all.Name)
	require.Equal(t, ast.MetaList, all.Kind)
	require.Len(t, all.List, 2)
	require.Equal(t, ast.MetaWord, all.List[0].Kind)
	require.Equal(t, "unix", all.List[0].Name)
	require.Equal(t, ast.MetaNameValue, all.List[1].Kind)
	require.Equal(t, "feature", all.List[1].Name)
	require.Equal(t, "fast", all.List[1].Value)
}

func TestParseUseTrees(t *testing.T) {
	out, _ := parse(t, "use a::b as c;\nuse a::{d, e as f};\nuse g::*;\nextern crate h as i;\n")
	require.Len(t, out.Mod.Items, 4)

	simple := out.Mod.Items[0].Kind.(*ast.ItemUse).Tree
	require.Equal(t, ast.UseSimple, simple.Kind)
	require.Equal(t, "c", simple.Rename.Name)
	require.True(t, simple.Renamed())

	list := out.Mod.Items[1].Kind.(*ast.ItemUse).Tree
	require.Equal(t, ast.UseList, list.Kind)
	require.Len(t, list.Items, 2)
	require.False(t, list.Items[0].Renamed())
	require.True(t, list.Items[1].Renamed())
	require.Equal(t, "f", list.Items[1].Rename.Name)

	glob := out.Mod.Items[2].Kind.(*ast.ItemUse).Tree
	require.Equal(t, ast.UseGlob, glob.Kind)

	ext := out.Mod.Items[3]
	require.Equal(t, "i", ext.Ident.Name)
	require.Equal(t, "h", ext.Kind.(*ast.ItemExternCrate).Orig)
}

func TestParseExpressions(t *testing.T) {
	src := `fn main() {
	let mut v = Vec::new();
	v.push(1u8);
	let n = if v.len() > 0 { 1 } else { 2 };
	n
}
`
	out, _ := parse(t, src)
	body := out.Mod.Items[0].Kind.(*ast.ItemFn).Body
	require.Len(t, body.Stmts, 3)
	require.NotNil(t, body.Expr)
	require.IsType(t, &ast.ExprPath{}, body.Expr.Kind)

	let := body.Stmts[0].Kind.(*ast.StmtDecl).Local
	bind := let.Pat.Kind.(*ast.PatIdent)
	require.Equal(t, "v", bind.Ident.Name)
	require.Equal(t, ast.Mutable, bind.Mut)
	call := let.Init.Kind.(*ast.ExprCall)
	require.Equal(t, "Vec::new", call.Fn.Kind.(*ast.ExprPath).Path.String())

	push := body.Stmts[1].Kind.(*ast.StmtSemi).Expr.Kind.(*ast.ExprMethodCall)
	require.Equal(t, "push", push.Ident.Name)
	require.Len(t, push.Args, 2)
	lit := push.Args[1].Kind.(*ast.ExprLit).Lit
	require.Equal(t, ast.LitInt, lit.Kind)
	require.Equal(t, "u8", lit.Suffix)

	cond := body.Stmts[2].Kind.(*ast.StmtDecl).Local.Init.Kind.(*ast.ExprIf)
	require.Equal(t, ast.BinOp(">"), cond.Cond.Kind.(*ast.ExprBinary).Op)
	require.NotNil(t, cond.Else)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
		line int
	}{
		{"unbalanced", "fn main() {\n\tlet x = ;\n}\n", "", 2},
		{"statement at module level", "let x = 5;\n", "expected item", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cm := codemap.New()
			f := cm.AddFile("bad.rs", tt.src)
			_, err := Parse(context.Background(), f)
			require.Error(t, err)
			var se *SyntaxError
			require.True(t, errors.As(err, &se))
			require.Equal(t, "bad.rs", se.File)
			require.Equal(t, tt.line, se.Line)
			require.Contains(t, se.Msg, tt.msg)
		})
	}
}

func TestNumericSuffix(t *testing.T) {
	tests := []struct {
		text   string
		floats bool
		want   string
	}{
		{"5", true, ""},
		{"5u8", true, "u8"},
		{"10usize", true, "usize"},
		{"1i128", true, "i128"},
		{"2.0f32", true, "f32"},
		{"0x1f32", false, ""},
	}
	for _, tt := range tests {
		if got := numericSuffix(tt.text, tt.floats); got != tt.want {
			t.Errorf("numericSuffix(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestUnquote(t *testing.T) {
	tests := map[string]string{
		`"x.rs"`:      "x.rs",
		`r"raw\n"`:    `raw\n`,
		`r#"hash"#`:   "hash",
		`plain`:       "plain",
		`"esc\"aped"`: `esc"aped`,
	}
	for in, want := range tests {
		if got := unquote(in); got != want {
			t.Errorf("unquote(%s) = %q, want %q", in, got, want)
		}
	}
}
