// Package tags collects definition names from a syntax tree and writes them
// in ctags format.
//
// Two passes feed one tag file. CollectMacros runs on the tree before
// expansion, since expansion erases macro_rules! definitions. CollectDefs
// runs on the expanded tree and picks up everything else.
package tags

import (
	"bufio"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/xonecas/typo/internal/ast"
	"github.com/xonecas/typo/internal/codemap"
	"github.com/xonecas/typo/internal/constants"
)

// Entry is one tag: a name and the span of its definition.
type Entry struct {
	Name string
	Span codemap.Span
}

// CollectMacros returns the macro_rules! definitions of a crate that has not
// been expanded yet. Each entry sits at the span of the invocation path.
func CollectMacros(crate *ast.Crate) []Entry {
	var entries []Entry
	ast.Walk(&ast.Visitor{Item: func(it *ast.Item) {
		mac, ok := it.Kind.(*ast.ItemMac)
		if !ok || len(mac.Mac.Path.Segments) != 1 {
			return
		}
		if mac.Mac.Path.Segments[0].Ident.Name != constants.MacroRulesKeyword || it.Ident.IsEmpty() {
			return
		}
		entries = append(entries, Entry{Name: it.Ident.Name, Span: mac.Mac.Path.Span})
	}}, crate)
	return entries
}

// CollectDefs returns the definitions of an expanded crate in pre-order.
func CollectDefs(crate *ast.Crate, cm *codemap.CodeMap) []Entry {
	var entries []Entry
	add := func(id ast.Ident, sp codemap.Span) {
		if id.IsEmpty() {
			return
		}
		entries = append(entries, Entry{Name: id.Name, Span: sp})
	}

	ast.Walk(&ast.Visitor{
		Item: func(it *ast.Item) {
			switch k := it.Kind.(type) {
			case *ast.ItemUse:
				// handled per use tree
			case *ast.ItemExternCrate:
				if k.Orig != "" {
					add(it.Ident, it.Span)
				}
			case *ast.ItemMod:
				// Point `mod m;` at the code in m's own file.
				if !k.Inline && k.Mod != nil && !cm.SameFile(it.Span, k.Mod.Inner) {
					add(it.Ident, k.Mod.Inner)
					return
				}
				add(it.Ident, it.Span)
			default:
				add(it.Ident, it.Span)
			}
		},
		ForeignItem: func(fi *ast.ForeignItem) { add(fi.Ident, fi.Span) },
		UseTree: func(u *ast.UseTree) {
			if u.Kind != ast.UseSimple || u.Prefix == nil {
				return
			}
			last := u.Prefix.Last()
			if last != nil && u.Rename.Name != last.Ident.Name {
				add(u.Rename, u.Span)
			}
		},
		Fn: func(kind ast.FnKind, ident ast.Ident, _ *ast.FnDecl, _ *ast.Block, sp codemap.Span, _ ast.NodeID) {
			if kind == ast.FnMethod {
				add(ident, sp)
			}
		},
		TypeMethod: func(m *ast.TypeMethod) { add(m.Ident, m.Span) },
		TraitItem: func(ti *ast.TraitItem) {
			if at, ok := ti.Kind.(*ast.AssocType); ok {
				add(at.TyParam.Ident, at.TyParam.Span)
			}
		},
		StructField: func(f *ast.StructField) {
			if f.Named() {
				add(f.Ident, f.Span)
			}
		},
		Variant: func(va *ast.Variant) { add(va.Name, va.Span) },
	}, crate)
	return entries
}

// WriteHeader writes the pseudo-tags that open a fresh tag file.
func WriteHeader(w io.Writer, program string) error {
	bw := bufio.NewWriter(w)
	for _, kv := range [][2]string{
		{"TAG_FILE_FORMAT", "1"},
		{"TAG_FILE_SORTED", "0"},
		{"TAG_PROGRAM_NAME", program},
	} {
		bw.WriteString("!_" + kv[0] + "\t" + kv[1] + "\n")
	}
	return bw.Flush()
}

// Write writes one line per entry:
//
//	name<TAB>file<TAB>/^line$/
//
// Entries whose line cannot be recovered, or is empty, are skipped.
func Write(w io.Writer, cm *codemap.CodeMap, entries []Entry) error {
	bw := bufio.NewWriter(w)
	for _, e := range entries {
		loc := cm.Resolve(e.Span)
		if !loc.HasText || loc.Text == "" {
			log.Debug().Str("tag", e.Name).Msg("Skipping tag without source line")
			continue
		}
		bw.WriteString(e.Name)
		bw.WriteByte('\t')
		bw.WriteString(loc.File)
		bw.WriteString("\t/^")
		writeEscaped(bw, loc.Text)
		bw.WriteString("$/\n")
	}
	return bw.Flush()
}

// writeEscaped writes s with the characters that are special inside an ex
// search pattern backslash-escaped.
func writeEscaped(w *bufio.Writer, s string) {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '/', '$', '\\':
			w.WriteByte('\\')
			w.WriteByte(c)
		default:
			w.WriteByte(c)
		}
	}
}
