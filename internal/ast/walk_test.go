package ast_test

import (
	"context"
	"strings"
	"testing"

	"github.com/xonecas/typo/internal/ast"
	"github.com/xonecas/typo/internal/codemap"
	"github.com/xonecas/typo/internal/treesitter"
)

func parse(t *testing.T, src string) *ast.Crate {
	t.Helper()
	cm := codemap.New()
	f, err := treesitter.Parse(context.Background(), cm.AddFile("lib.rs", src))
	if err != nil {
		t.Fatal(err)
	}
	return &ast.Crate{ID: ast.DummyNodeID, Attrs: f.Attrs, Module: f.Mod}
}

func TestWalk_PreOrder(t *testing.T) {
	c := parse(t, `struct S { a: u8 }
impl S {
	fn get(&self) -> u8 { self.a }
}
fn main() {
	let f = |x: u8| x;
}
`)
	var trace []string
	ast.Walk(&ast.Visitor{
		Item:        func(it *ast.Item) { trace = append(trace, "item:"+it.Ident.Name) },
		StructField: func(f *ast.StructField) { trace = append(trace, "field:"+f.Ident.Name) },
		Fn: func(kind ast.FnKind, ident ast.Ident, _ *ast.FnDecl, _ *ast.Block, _ codemap.Span, _ ast.NodeID) {
			switch kind {
			case ast.FnItem:
				trace = append(trace, "fn:"+ident.Name)
			case ast.FnMethod:
				trace = append(trace, "method:"+ident.Name)
			case ast.FnClosure:
				trace = append(trace, "closure")
			}
		},
	}, c)

	want := "item:S field:a item: method:get item:main fn:main closure"
	if got := strings.Join(trace, " "); got != want {
		t.Errorf("trace:\n got %s\nwant %s", got, want)
	}
}

func TestWalk_PathOwners(t *testing.T) {
	c := parse(t, "fn f(v: Vec<u8>) { let n = v; }\n")

	owners := map[string]string{}
	kinds := map[ast.NodeID]string{}
	next := ast.NodeID(0)
	// Give every node a distinct id so owners can be told apart.
	ast.Walk(&ast.Visitor{
		Expr: func(e *ast.Expr) { e.ID = next; kinds[next] = "expr"; next++ },
		Pat:  func(p *ast.Pat) { p.ID = next; kinds[next] = "pat"; next++ },
		Ty:   func(ty *ast.Ty) { ty.ID = next; kinds[next] = "ty"; next++ },
	}, c)
	ast.Walk(&ast.Visitor{
		Path: func(p *ast.Path, owner ast.NodeID) { owners[p.String()] = kinds[owner] },
	}, c)

	for path, want := range map[string]string{"Vec": "ty", "u8": "ty", "v": "expr"} {
		if owners[path] != want {
			t.Errorf("path %s owned by %q, want %q", path, owners[path], want)
		}
	}
}

func TestWalk_NilCrate(t *testing.T) {
	ast.Walk(&ast.Visitor{}, nil)
	ast.Walk(&ast.Visitor{}, &ast.Crate{})
}

func TestWalkItem_Nested(t *testing.T) {
	c := parse(t, `mod m {
	fn outer() {
		struct Local;
		let n = 1;
	}
}
fn after() {}
`)
	outer := c.Module.Items[0].Kind.(*ast.ItemMod).Mod.Items[0]

	var items []string
	exprs := 0
	ast.WalkItem(&ast.Visitor{
		Item: func(it *ast.Item) { items = append(items, it.Ident.Name) },
		Expr: func(*ast.Expr) { exprs++ },
	}, outer)

	if got := strings.Join(items, " "); got != "outer Local" {
		t.Errorf("items = %q, want %q", got, "outer Local")
	}
	if exprs != 1 {
		t.Errorf("visited %d expressions, want 1", exprs)
	}
}
