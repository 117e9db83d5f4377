package frontend

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xonecas/typo/internal/codemap"
)

// Sentinel errors for the fatal front end phases. Every error returned by
// Session.Parse and Session.Expand wraps one of them.
var (
	ErrParse   = errors.New("parse error")
	ErrExpand  = errors.New("expansion error")
	ErrCfgSpec = errors.New("invalid cfg specification")
)

// Error is a diagnostic with a source position. Line and Col are 1-based
// and zero when the position is unknown.
type Error struct {
	Kind error // ErrParse or ErrExpand
	File string
	Line int
	Col  int
	Msg  string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %v: %s", e.File, e.Line, e.Col, e.Kind, e.Msg)
	}
	if e.File != "" {
		return fmt.Sprintf("%s: %v: %s", e.File, e.Kind, e.Msg)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

// errorAt builds an Error positioned at the start of sp.
func errorAt(cm *codemap.CodeMap, kind error, sp codemap.Span, format string, args ...any) *Error {
	e := &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
	f := cm.FileAt(sp.Lo)
	if f == nil {
		return e
	}
	off := int(sp.Lo - f.Start)
	e.File = f.Name
	e.Line = f.LineOf(off) + 1
	e.Col = off - (strings.LastIndexByte(f.Src[:off], '\n') + 1) + 1
	return e
}
