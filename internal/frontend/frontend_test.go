package frontend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xonecas/typo/internal/ast"
)

func newSession(t *testing.T, cfg ...string) *Session {
	t.Helper()
	s, err := NewSession(Options{Cfg: cfg})
	require.NoError(t, err)
	return s
}

func parseText(t *testing.T, s *Session, src string) *ast.Crate {
	t.Helper()
	crate, err := s.Parse(context.Background(), TextInput(src))
	require.NoError(t, err)
	return crate
}

func itemNames(items []*ast.Item) []string {
	var names []string
	for _, it := range items {
		names = append(names, it.Ident.Name)
	}
	return names
}

func writeFile(t *testing.T, path, src string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
}

func TestParseCfgSpec(t *testing.T) {
	tests := []struct {
		spec    string
		name    string
		value   string
		wantErr bool
	}{
		{spec: "foo", name: "foo"},
		{spec: `feature="serde"`, name: "feature", value: "serde"},
		{spec: ` target_os = "linux" `, name: "target_os", value: "linux"},
		{spec: "", wantErr: true},
		{spec: "1abc", wantErr: true},
		{spec: "feature=serde", wantErr: true},
		{spec: `feature="serde`, wantErr: true},
		{spec: `a-b="x"`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			name, value, err := ParseCfgSpec(tt.spec)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrCfgSpec)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.name, name)
			require.Equal(t, tt.value, value)
		})
	}
}

func TestNewSession_BadCfg(t *testing.T) {
	_, err := NewSession(Options{Cfg: []string{"ok", "not valid"}})
	require.ErrorIs(t, err, ErrCfgSpec)
}

func TestParse_SyntaxError(t *testing.T) {
	s := newSession(t)
	_, err := s.Parse(context.Background(), TextInput("fn main() {\n\tlet x = ;\n}\n"))
	require.ErrorIs(t, err, ErrParse)

	var fe *Error
	require.True(t, errors.As(err, &fe))
	require.Equal(t, "<stdin>", fe.File)
	require.Equal(t, 2, fe.Line)
}

func TestParse_MissingFile(t *testing.T) {
	s := newSession(t)
	_, err := s.Parse(context.Background(), FileInput(filepath.Join(t.TempDir(), "nope.rs")))
	require.ErrorIs(t, err, ErrParse)
}

func TestParse_OutOfLineModules(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.rs"), "mod a;\n#[path = \"extra/other.rs\"]\nmod renamed;\nfn main() {}\n")
	writeFile(t, filepath.Join(dir, "a.rs"), "pub mod b;\npub fn fa() {}\n")
	writeFile(t, filepath.Join(dir, "a", "b.rs"), "pub fn fb() {}\n")
	writeFile(t, filepath.Join(dir, "extra", "other.rs"), "pub struct Other;\n")

	s := newSession(t)
	crate, err := s.Parse(context.Background(), FileInput(filepath.Join(dir, "main.rs")))
	require.NoError(t, err)
	require.Len(t, s.CodeMap().Files(), 4)
	require.Equal(t, []string{"a", "renamed", "main"}, itemNames(crate.Module.Items))

	a := crate.Module.Items[0].Kind.(*ast.ItemMod)
	require.False(t, a.Inline)
	require.Equal(t, []string{"b", "fa"}, itemNames(a.Mod.Items))
	b := a.Mod.Items[0].Kind.(*ast.ItemMod)
	require.Equal(t, []string{"fb"}, itemNames(b.Mod.Items))

	renamed := crate.Module.Items[1].Kind.(*ast.ItemMod)
	require.Equal(t, []string{"Other"}, itemNames(renamed.Mod.Items))
}

func TestParse_ModDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "lib.rs"), "mod net;\n")
	writeFile(t, filepath.Join(dir, "net", "mod.rs"), "mod tcp;\n")
	writeFile(t, filepath.Join(dir, "net", "tcp.rs"), "fn dial() {}\n")

	s := newSession(t)
	crate, err := s.Parse(context.Background(), FileInput(filepath.Join(dir, "lib.rs")))
	require.NoError(t, err)
	net := crate.Module.Items[0].Kind.(*ast.ItemMod)
	tcp := net.Mod.Items[0].Kind.(*ast.ItemMod)
	require.Equal(t, []string{"dial"}, itemNames(tcp.Mod.Items))
}

func TestParse_ModuleNotFound(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.rs"), "fn main() {}\nmod missing;\n")

	s := newSession(t)
	_, err := s.Parse(context.Background(), FileInput(filepath.Join(dir, "main.rs")))
	require.ErrorIs(t, err, ErrParse)

	var fe *Error
	require.True(t, errors.As(err, &fe))
	require.Equal(t, 2, fe.Line)
	require.Contains(t, fe.Msg, "missing")
}

func TestParse_InvalidUTF8(t *testing.T) {
	s := newSession(t)
	_, err := s.Parse(context.Background(), TextInput("fn main() {}\nfn f\xff() {}\n"))
	require.ErrorIs(t, err, ErrParse)

	var fe *Error
	require.True(t, errors.As(err, &fe))
	require.Equal(t, "<stdin>", fe.File)
	require.Equal(t, 2, fe.Line)
	require.Equal(t, 5, fe.Col)
	require.Contains(t, fe.Msg, "UTF-8")
}

func TestParse_InvalidUTF8Module(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.rs"), "mod bad;\nfn main() {}\n")
	writeFile(t, filepath.Join(dir, "bad.rs"), "\xc3\x28\n")

	s := newSession(t)
	_, err := s.Parse(context.Background(), FileInput(filepath.Join(dir, "main.rs")))
	require.ErrorIs(t, err, ErrParse)

	var fe *Error
	require.True(t, errors.As(err, &fe))
	require.Equal(t, filepath.Join(dir, "bad.rs"), fe.File)
	require.Equal(t, 1, fe.Line)
}

func TestParse_ByteOrderMark(t *testing.T) {
	s := newSession(t)
	crate := parseText(t, s, "\uFEFFfn main() {}\n")
	require.Equal(t, []string{"main"}, itemNames(crate.Module.Items))

	f := s.CodeMap().FileAt(crate.Span.Lo)
	require.NotNil(t, f)
	require.Equal(t, "fn main() {}\n", f.Src)
	require.Equal(t, crate.Span.Lo, crate.Module.Items[0].Span.Lo)
}

func TestCrateName(t *testing.T) {
	s := newSession(t)

	crate := parseText(t, s, "#![crate_name = \"demo\"]\nfn main() {}\n")
	require.Equal(t, "demo", s.CrateName(crate, TextInput("")))

	crate = parseText(t, s, "fn main() {}\n")
	require.Equal(t, "my_tool", s.CrateName(crate, FileInput("/src/my-tool.rs")))
	require.Equal(t, "main", s.CrateName(crate, TextInput("")))
}

func TestExpand_Cfg(t *testing.T) {
	src := `fn main() {}
#[cfg(foo)]
fn kept() {}
#[cfg(bar)]
fn dropped() {}
#[cfg(all(foo, not(bar)))]
fn both() {}
#[cfg(any(bar, feature = "x"))]
fn feat() {}
macro_rules! noop { () => {} }
struct S {
	#[cfg(bar)]
	a: i32,
	b: i32,
}
enum E {
	#[cfg(foo)]
	On,
	#[cfg(not(foo))]
	Off,
}
`
	s := newSession(t, "foo", `feature="x"`)
	crate := parseText(t, s, src)
	out, err := s.Expand(context.Background(), crate, "main")
	require.NoError(t, err)

	require.Equal(t, []string{"main", "kept", "both", "feat", "S", "E"}, itemNames(out.Module.Items))
	st := out.Module.Items[4].Kind.(*ast.ItemStruct)
	require.Len(t, st.Def.Fields, 1)
	require.Equal(t, "b", st.Def.Fields[0].Ident.Name)
	en := out.Module.Items[5].Kind.(*ast.ItemEnum)
	require.Len(t, en.Variants, 1)
	require.Equal(t, "On", en.Variants[0].Name.Name)

	// The parsed crate is not touched.
	require.Len(t, crate.Module.Items, 8)
	require.Equal(t, ast.DummyNodeID, crate.Module.Items[0].ID)
}

func TestExpand_NodeIDs(t *testing.T) {
	src := `struct P(i32);
fn main() {
	let x = 1 + 2;
	if x > 2 { return; }
}
`
	s := newSession(t)
	out, err := s.Expand(context.Background(), parseText(t, s, src), "main")
	require.NoError(t, err)
	require.Equal(t, ast.CrateNodeID, out.ID)

	var ids []ast.NodeID
	seen := map[ast.NodeID]bool{}
	record := func(id ast.NodeID) {
		require.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
		ids = append(ids, id)
	}
	ast.Walk(&ast.Visitor{
		Item:  func(it *ast.Item) { record(it.ID) },
		Block: func(b *ast.Block) { record(b.ID) },
		Stmt:  func(st *ast.Stmt) { record(st.ID) },
		Local: func(l *ast.Local) { record(l.ID) },
		Expr:  func(e *ast.Expr) { record(e.ID) },
		Pat:   func(p *ast.Pat) { record(p.ID) },
		Ty:    func(ty *ast.Ty) { record(ty.ID) },
	}, out)

	require.NotEmpty(t, ids)
	require.Equal(t, ast.NodeID(1), ids[0])
	for i := 1; i < len(ids); i++ {
		require.Greater(t, ids[i], ids[i-1])
	}
	st := out.Module.Items[0].Kind.(*ast.ItemStruct)
	require.NotEqual(t, ast.DummyNodeID, st.Def.CtorID)
}

func TestExpand_StatementMacros(t *testing.T) {
	src := "fn main() {\n\tsetup! { a }\n\t#[cfg(nope)]\n\tgone! { b }\n\tlet n = 1;\n}\n"
	s := newSession(t)
	out, err := s.Expand(context.Background(), parseText(t, s, src), "main")
	require.NoError(t, err)

	body := out.Module.Items[0].Kind.(*ast.ItemFn).Body
	require.Len(t, body.Stmts, 2)
	mac, ok := body.Stmts[0].Kind.(*ast.StmtMac)
	require.True(t, ok, "statement is %T", body.Stmts[0].Kind)
	require.Equal(t, "setup", mac.Mac.Path.String())
	require.NotEqual(t, ast.DummyNodeID, body.Stmts[0].ID)
	require.IsType(t, &ast.StmtDecl{}, body.Stmts[1].Kind)
}

func TestExpand_InvalidPredicate(t *testing.T) {
	for _, src := range []string{
		"#[cfg(foo(bar))]\nfn f() {}\n",
		"#[cfg(not(a, b))]\nfn f() {}\n",
		"#[cfg(a, b)]\nfn f() {}\n",
	} {
		s := newSession(t)
		_, err := s.Expand(context.Background(), parseText(t, s, src), "main")
		require.ErrorIs(t, err, ErrExpand, src)
	}
}

func TestExpand_Canceled(t *testing.T) {
	s := newSession(t)
	crate := parseText(t, s, "fn main() {}\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Expand(ctx, crate, "main")
	require.ErrorIs(t, err, context.Canceled)
}

func TestFindLibrary(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "libserde-1234abcd.rlib"), "")

	path, ok := findLibrary([]string{t.TempDir(), dir}, "serde")
	require.True(t, ok)
	require.Equal(t, filepath.Join(dir, "libserde-1234abcd.rlib"), path)

	_, ok = findLibrary([]string{dir}, "rand")
	require.False(t, ok)
}

func TestLookupExternCrates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "libserde-1234abcd.rlib"), "")

	s, err := NewSession(Options{SearchPaths: []string{dir}})
	require.NoError(t, err)
	crate := parseText(t, s, "extern crate serde;\nextern crate rand as r;\nfn main() {}\n")
	require.Equal(t, []string{"rand"}, s.lookupExternCrates(crate))

	require.Nil(t, s.lookupExternCrates(parseText(t, s, "fn main() {}\n")))
}
