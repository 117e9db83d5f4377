package typemap

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/xonecas/typo/internal/ast"
	"github.com/xonecas/typo/internal/frontend"
	"github.com/xonecas/typo/internal/ty"
)

func TestProject(t *testing.T) {
	tbl := ty.NewTable()
	tbl.Record(5, ty.I32)
	tbl.Record(2, &ty.Ref{Elem: ty.Str})
	tbl.Record(5, ty.U8)
	tbl.Record(9, &ty.Tuple{Elems: []ty.Type{ty.Bool, &ty.Adt{Path: "Vec", Args: []ty.Type{ty.Char}}}})

	entries := Project(tbl.Freeze())
	want := []Entry{{5, "u8"}, {2, "&str"}, {9, "(bool, Vec<char>)"}}
	if len(entries) != len(want) {
		t.Fatalf("got %v, want %v", entries, want)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Errorf("entry %d: got %v, want %v", i, entries[i], want[i])
		}
	}

	var buf bytes.Buffer
	if err := Write(&buf, entries); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "5\tu8\n2\t&str\n9\t(bool, Vec<char>)\n" {
		t.Errorf("Write: %q", got)
	}
}

func TestProject_Empty(t *testing.T) {
	if got := Project(ty.NewTable().Freeze()); len(got) != 0 {
		t.Errorf("expected no entries, got %v", got)
	}
}

func TestProject_InferredLet(t *testing.T) {
	ctx := context.Background()
	s, err := frontend.NewSession(frontend.Options{})
	if err != nil {
		t.Fatal(err)
	}
	crate, err := s.Parse(ctx, frontend.TextInput("fn main() { let x = 5; }"))
	if err != nil {
		t.Fatal(err)
	}
	crate, err = s.Expand(ctx, crate, "main")
	if err != nil {
		t.Fatal(err)
	}

	var xID ast.NodeID = ast.DummyNodeID
	ast.Walk(&ast.Visitor{Pat: func(p *ast.Pat) { xID = p.ID }}, crate)
	if xID == ast.DummyNodeID {
		t.Fatal("pattern x not found")
	}

	var buf bytes.Buffer
	if err := Write(&buf, Project(s.InferTypes(ctx, crate))); err != nil {
		t.Fatal(err)
	}
	line := fmt.Sprintf("%d\ti32", xID)
	if !strings.Contains("\n"+buf.String(), "\n"+line+"\n") {
		t.Errorf("type map %q lacks %q", buf.String(), line)
	}
}
