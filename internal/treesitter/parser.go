package treesitter

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	"github.com/xonecas/typo/internal/ast"
	"github.com/xonecas/typo/internal/codemap"
)

// File is the lowered contents of one source file.
type File struct {
	// Attrs are the file's inner attributes (#![..]).
	Attrs []*ast.Attr
	Mod   *ast.Mod
}

// SyntaxError reports the first syntax problem found in a file. Line and
// Col are 1-based.
type SyntaxError struct {
	File string
	Line int
	Col  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Col, e.Msg)
}

// Parse parses the source of f and lowers it. Any ERROR or MISSING node in
// the concrete tree, or a construct that is not valid at its position, is
// reported as a *SyntaxError.
func Parse(ctx context.Context, f *codemap.File) (*File, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(rust.GetLanguage())

	src := []byte(f.Src)
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		if bad := firstError(root); bad != nil {
			return nil, syntaxErrorAt(f, src, bad)
		}
	}

	l := &lowerer{file: f, src: src}
	out := l.sourceFile(root)
	if l.err != nil {
		return nil, l.err
	}
	return out, nil
}

// firstError returns the first ERROR or MISSING node in document order.
func firstError(node *sitter.Node) *sitter.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || !(child.HasError() || child.IsMissing()) {
			continue
		}
		if bad := firstError(child); bad != nil {
			return bad
		}
	}
	return nil
}

func syntaxErrorAt(f *codemap.File, src []byte, node *sitter.Node) *SyntaxError {
	var msg string
	if node.IsMissing() {
		msg = fmt.Sprintf("expected `%s`", node.Type())
	} else {
		text := strings.TrimSpace(node.Content(src))
		if i := strings.IndexAny(text, " \t\r\n"); i > 0 {
			text = text[:i]
		}
		if text == "" {
			msg = "unexpected end of input"
		} else {
			msg = fmt.Sprintf("unexpected `%s`", text)
		}
	}
	p := node.StartPoint()
	return &SyntaxError{File: f.Name, Line: int(p.Row) + 1, Col: int(p.Column) + 1, Msg: msg}
}

// lowerer turns one concrete tree into ast nodes. Node ids are left as
// ast.DummyNodeID; the front end assigns them after expansion.
type lowerer struct {
	file *codemap.File
	src  []byte
	err  error
}

func (l *lowerer) fail(node *sitter.Node, format string, args ...any) {
	if l.err != nil {
		return
	}
	p := node.StartPoint()
	l.err = &SyntaxError{
		File: l.file.Name,
		Line: int(p.Row) + 1,
		Col:  int(p.Column) + 1,
		Msg:  fmt.Sprintf(format, args...),
	}
}

func (l *lowerer) span(node *sitter.Node) codemap.Span {
	return codemap.Span{
		Lo: l.file.Pos(int(node.StartByte())),
		Hi: l.file.Pos(int(node.EndByte())),
	}
}

func (l *lowerer) spanBetween(from, to *sitter.Node) codemap.Span {
	return codemap.Span{
		Lo: l.file.Pos(int(from.StartByte())),
		Hi: l.file.Pos(int(to.EndByte())),
	}
}

func (l *lowerer) ident(node *sitter.Node) ast.Ident {
	if node == nil {
		return ast.Ident{}
	}
	return ast.Ident{Name: content(node, l.src), Span: l.span(node)}
}

// helpers

func content(node *sitter.Node, src []byte) string {
	return node.Content(src)
}

func isComment(node *sitter.Node) bool {
	switch node.Type() {
	case "line_comment", "block_comment":
		return true
	}
	return false
}

// namedChildren returns the named children of node, comments excluded.
func namedChildren(node *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil || isComment(child) {
			continue
		}
		out = append(out, child)
	}
	return out
}

// children returns every child of node, anonymous tokens included and
// comments excluded.
func children(node *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || isComment(child) {
			continue
		}
		out = append(out, child)
	}
	return out
}

// hasChild reports whether node has a direct child of the given type.
func hasChild(node *sitter.Node, typ string) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child != nil && child.Type() == typ {
			return true
		}
	}
	return false
}

// childOfType returns the first direct child of the given type.
func childOfType(node *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child != nil && child.Type() == typ {
			return child
		}
	}
	return nil
}
