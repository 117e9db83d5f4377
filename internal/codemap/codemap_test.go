package codemap

import "testing"

func TestResolve(t *testing.T) {
	cm := New()
	a := cm.AddFile("a.rs", "fn a() {}\n\nstruct S;\n")
	b := cm.AddFile("b.rs", "mod x {\r\n    fn y() {}\r\n}")

	tests := []struct {
		name string
		span Span
		file string
		line int
		text string
	}{
		{"first line", Span{a.Pos(0), a.Pos(9)}, "a.rs", 0, "fn a() {}"},
		{"after blank line", Span{a.Pos(11), a.Pos(20)}, "a.rs", 2, "struct S;"},
		{"second file", Span{b.Pos(13), b.Pos(22)}, "b.rs", 1, "    fn y() {}"},
		{"last line without newline", Span{b.Pos(len(b.Src) - 1), b.End()}, "b.rs", 2, "}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := cm.Resolve(tt.span)
			if !loc.HasText {
				t.Fatalf("expected line text for %v", tt.span)
			}
			if loc.File != tt.file || loc.Line != tt.line || loc.Text != tt.text {
				t.Errorf("got (%q, %d, %q), want (%q, %d, %q)",
					loc.File, loc.Line, loc.Text, tt.file, tt.line, tt.text)
			}
		})
	}
}

func TestResolveUnavailable(t *testing.T) {
	cm := New()
	f := cm.AddFile("a.rs", "fn a() {}")

	if loc := cm.Resolve(DummySpan); loc.HasText {
		t.Errorf("dummy span resolved to %+v", loc)
	}
	if loc := cm.Resolve(Span{f.End() + 10, f.End() + 12}); loc.HasText {
		t.Errorf("out of range span resolved to %+v", loc)
	}

	empty := cm.AddFile("empty.rs", "")
	if loc := cm.Resolve(Span{empty.Start, empty.Start}); loc.HasText || loc.File != "empty.rs" {
		t.Errorf("empty file resolved to %+v", loc)
	}
}

func TestOffset(t *testing.T) {
	cm := New()
	cm.AddFile("a.rs", "fn a() {}")
	b := cm.AddFile("b.rs", "fn b() {}")

	name, off, ok := cm.Offset(b.Pos(3))
	if !ok || name != "b.rs" || off != 3 {
		t.Errorf("Offset = (%q, %d, %v), want (b.rs, 3, true)", name, off, ok)
	}
	// EOF of a file belongs to that file, not the next one.
	name, off, ok = cm.Offset(b.End())
	if !ok || name != "b.rs" || off != len(b.Src) {
		t.Errorf("Offset(EOF) = (%q, %d, %v)", name, off, ok)
	}
}

func TestSameFile(t *testing.T) {
	cm := New()
	a := cm.AddFile("lib.rs", "mod m;")
	b := cm.AddFile("m.rs", "fn f() {}")

	if !cm.SameFile(Span{a.Pos(0), a.Pos(1)}, Span{a.Pos(2), a.Pos(3)}) {
		t.Error("spans in lib.rs reported as different files")
	}
	if cm.SameFile(Span{a.Pos(0), a.Pos(6)}, Span{b.Pos(0), b.Pos(9)}) {
		t.Error("spans in lib.rs and m.rs reported as same file")
	}
}
