package nodemap

import (
	"bytes"
	"context"
	"testing"

	"github.com/xonecas/typo/internal/ast"
	"github.com/xonecas/typo/internal/codemap"
	"github.com/xonecas/typo/internal/frontend"
)

func expand(t *testing.T, src string) (*ast.Crate, *codemap.CodeMap) {
	t.Helper()
	ctx := context.Background()
	s, err := frontend.NewSession(frontend.Options{})
	if err != nil {
		t.Fatal(err)
	}
	crate, err := s.Parse(ctx, frontend.TextInput(src))
	if err != nil {
		t.Fatal(err)
	}
	crate, err = s.Expand(ctx, crate, "main")
	if err != nil {
		t.Fatal(err)
	}
	return crate, s.CodeMap()
}

func texts(t *testing.T, src string, cm *codemap.CodeMap, entries []Entry) []string {
	t.Helper()
	out := make([]string, len(entries))
	for i, e := range entries {
		_, off, ok := cm.Offset(e.Span.Lo)
		if !ok {
			t.Fatalf("entry %d has no file", i)
		}
		out[i] = src[off : off+e.Span.Len()]
	}
	return out
}

func TestCollect_Let(t *testing.T) {
	src := "fn main() { let x = 5; }"
	crate, cm := expand(t, src)
	entries := Collect(crate)

	got := texts(t, src, cm, entries)
	want := []string{"let x = 5;", "x", "5"}
	if len(got) != len(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCollect_PathsOnce(t *testing.T) {
	src := "fn f(y: i32) -> i32 { y }"
	crate, cm := expand(t, src)
	entries := Collect(crate)

	got := texts(t, src, cm, entries)
	want := []string{"y", "i32", "i32", "y"}
	if len(got) != len(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: got %q, want %q", i, got[i], want[i])
		}
	}
	seen := map[ast.NodeID]bool{}
	for _, e := range entries {
		if seen[e.ID] {
			t.Errorf("id %d recorded twice", e.ID)
		}
		seen[e.ID] = true
	}
}

func TestCollect_StructLiteralRecordedTwice(t *testing.T) {
	src := "fn main() { let p = P { a: 1 }; }"
	crate, cm := expand(t, src)
	entries := Collect(crate)

	got := texts(t, src, cm, entries)
	want := []string{"let p = P { a: 1 };", "p", "P { a: 1 }", "P", "1"}
	if len(got) != len(want) {
		t.Fatalf("got %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: got %q, want %q", i, got[i], want[i])
		}
	}
	if entries[2].ID != entries[3].ID {
		t.Errorf("struct literal and its path have ids %d and %d", entries[2].ID, entries[3].ID)
	}
}

func TestWrite(t *testing.T) {
	cm := codemap.New()
	cm.AddFile("a.rs", "fn a() {}\n")
	b := cm.AddFile("b.rs", "fn b() {}\n")
	entries := []Entry{
		{Span: codemap.Span{Lo: b.Pos(3), Hi: b.Pos(4)}, ID: 7},
		{Span: codemap.DummySpan, ID: 8},
	}

	var buf bytes.Buffer
	if err := Write(&buf, cm, entries); err != nil {
		t.Fatal(err)
	}
	if want := "b.rs\t3\t4\t7\n"; buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}
