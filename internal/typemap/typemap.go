// Package typemap renders a type table as text.
package typemap

import (
	"bufio"
	"io"
	"strconv"

	"github.com/xonecas/typo/internal/ast"
	"github.com/xonecas/typo/internal/ty"
)

// Entry is a node id and the display form of its type.
type Entry struct {
	ID   ast.NodeID
	Text string
}

// Project renders every entry of tbl in table order.
func Project(tbl *ty.Table) []Entry {
	entries := make([]Entry, 0, tbl.Len())
	tbl.Each(func(id ast.NodeID, t ty.Type) {
		entries = append(entries, Entry{ID: id, Text: t.String()})
	})
	return entries
}

// Write writes one "id<TAB>type" line per entry.
func Write(w io.Writer, entries []Entry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		bw.WriteString(strconv.FormatUint(uint64(e.ID), 10))
		bw.WriteByte('\t')
		bw.WriteString(e.Text)
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
