// Package nodemap records which source range each node id covers.
package nodemap

import (
	"bufio"
	"io"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/xonecas/typo/internal/ast"
	"github.com/xonecas/typo/internal/codemap"
)

// Entry pairs a node id with its span.
type Entry struct {
	Span codemap.Span
	ID   ast.NodeID
}

// Collect walks an expanded crate and records, in pre-order, every
// pattern, every path under the id of the node that owns it, every
// expression other than a bare path, and every declaration, expression and
// semicolon statement.
//
// A path expression is recorded once, through its path. Struct
// expressions and struct or tuple-struct patterns are recorded twice under
// the same id: once for the node and once for its path.
func Collect(crate *ast.Crate) []Entry {
	var entries []Entry
	add := func(id ast.NodeID, sp codemap.Span) {
		entries = append(entries, Entry{Span: sp, ID: id})
	}
	ast.Walk(&ast.Visitor{
		Pat:  func(p *ast.Pat) { add(p.ID, p.Span) },
		Path: func(p *ast.Path, owner ast.NodeID) { add(owner, p.Span) },
		Expr: func(e *ast.Expr) {
			if _, isPath := e.Kind.(*ast.ExprPath); !isPath {
				add(e.ID, e.Span)
			}
		},
		Stmt: func(s *ast.Stmt) {
			switch s.Kind.(type) {
			case *ast.StmtDecl, *ast.StmtExpr, *ast.StmtSemi, *ast.StmtMac:
				add(s.ID, s.Span)
			}
		},
	}, crate)
	return entries
}

// Write writes one line per entry:
//
//	file<TAB>begin<TAB>end<TAB>id
//
// begin and end are byte offsets into the file holding the span start.
func Write(w io.Writer, cm *codemap.CodeMap, entries []Entry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		name, begin, ok := cm.Offset(e.Span.Lo)
		if !ok {
			log.Debug().Uint32("id", uint32(e.ID)).Msg("Skipping node outside every file")
			continue
		}
		end := begin + e.Span.Len()
		bw.WriteString(name)
		bw.WriteByte('\t')
		bw.WriteString(strconv.Itoa(begin))
		bw.WriteByte('\t')
		bw.WriteString(strconv.Itoa(end))
		bw.WriteByte('\t')
		bw.WriteString(strconv.FormatUint(uint64(e.ID), 10))
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
