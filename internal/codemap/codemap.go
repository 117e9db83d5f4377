// Package codemap maps global byte positions back to source files and lines.
//
// Every file registered with a CodeMap occupies its own range of positions,
// so a Span alone is enough to find the file it came from.
package codemap

import (
	"sort"
	"strings"
)

// Pos is a byte position in the global position space of a CodeMap.
type Pos uint32

// Span is a half-open byte range [Lo, Hi).
type Span struct {
	Lo, Hi Pos
}

// DummySpan marks synthesized nodes with no backing source.
var DummySpan = Span{}

// IsDummy reports whether sp has no backing source.
func (sp Span) IsDummy() bool { return sp == DummySpan }

// Len returns the length of sp in bytes.
func (sp Span) Len() int { return int(sp.Hi) - int(sp.Lo) }

// File is a single source file registered in a CodeMap.
type File struct {
	Name  string
	Src   string
	Start Pos // global position of Src[0]
	lines []int
}

// End returns the global position one past the last byte of the file.
func (f *File) End() Pos { return f.Start + Pos(len(f.Src)) }

// Contains reports whether pos lies inside f. The end-of-file position is
// included so that spans ending at EOF still resolve.
func (f *File) Contains(pos Pos) bool { return pos >= f.Start && pos <= f.End() }

// Line returns the text of the 0-based line n without its terminator.
func (f *File) Line(n int) (string, bool) {
	if f.Src == "" || n < 0 || n >= len(f.lines) {
		return "", false
	}
	begin := f.lines[n]
	end := len(f.Src)
	if n+1 < len(f.lines) {
		end = f.lines[n+1] - 1
	}
	return strings.TrimSuffix(f.Src[begin:end], "\r"), true
}

// LineOf returns the 0-based line containing the file-relative offset off.
func (f *File) LineOf(off int) int {
	// lines[0] is always 0, so the search never returns 0.
	return sort.SearchInts(f.lines, off+1) - 1
}

// Pos converts a file-relative offset to a global position.
func (f *File) Pos(off int) Pos { return f.Start + Pos(off) }

// CodeMap owns all files of one translation unit.
type CodeMap struct {
	files []*File
	next  Pos
}

// New returns an empty CodeMap.
func New() *CodeMap {
	// Position 0 is reserved for DummySpan.
	return &CodeMap{next: 1}
}

// AddFile registers src under name and returns the new file.
func (cm *CodeMap) AddFile(name, src string) *File {
	f := &File{
		Name:  name,
		Src:   src,
		Start: cm.next,
		lines: lineStarts(src),
	}
	cm.files = append(cm.files, f)
	// Leave a one byte gap so that the EOF position of one file is never
	// the start of the next.
	cm.next = f.End() + 1
	return f
}

// Files returns the registered files in registration order.
func (cm *CodeMap) Files() []*File { return cm.files }

// FileAt returns the file containing pos, or nil.
func (cm *CodeMap) FileAt(pos Pos) *File {
	i := sort.Search(len(cm.files), func(i int) bool {
		return cm.files[i].End() >= pos
	})
	if i < len(cm.files) && cm.files[i].Contains(pos) {
		return cm.files[i]
	}
	return nil
}

// Offset returns the name of the file containing pos and the file-relative
// byte offset of pos.
func (cm *CodeMap) Offset(pos Pos) (name string, off int, ok bool) {
	f := cm.FileAt(pos)
	if f == nil {
		return "", 0, false
	}
	return f.Name, int(pos - f.Start), true
}

// Location is the start of a span resolved to its file and line.
type Location struct {
	File    string
	Line    int // 0-based
	Text    string
	HasText bool
}

// Resolve maps the start of sp to its file, line number and line text.
// HasText is false for dummy spans and positions outside every file.
func (cm *CodeMap) Resolve(sp Span) Location {
	if sp.IsDummy() {
		return Location{}
	}
	f := cm.FileAt(sp.Lo)
	if f == nil {
		return Location{}
	}
	n := f.LineOf(int(sp.Lo - f.Start))
	text, ok := f.Line(n)
	return Location{File: f.Name, Line: n, Text: text, HasText: ok}
}

// SameFile reports whether a and b start in the same file.
func (cm *CodeMap) SameFile(a, b Span) bool {
	fa, fb := cm.FileAt(a.Lo), cm.FileAt(b.Lo)
	if fa == nil || fb == nil {
		return fa == fb
	}
	return fa.Name == fb.Name
}

func lineStarts(src string) []int {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}
