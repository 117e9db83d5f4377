// Package frontend turns one translation unit into an expanded syntax tree
// with node ids and a best-effort type table.
package frontend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/xonecas/typo/internal/ast"
	"github.com/xonecas/typo/internal/codemap"
	"github.com/xonecas/typo/internal/constants"
	"github.com/xonecas/typo/internal/treesitter"
)

// Options configure a Session.
type Options struct {
	// Cfg holds extra cfg settings, each `name` or `name="value"`.
	Cfg []string
	// SearchPaths are library directories searched for extern crates.
	SearchPaths []string
	// Sysroot overrides the toolchain root searched after SearchPaths.
	Sysroot string
}

// Session holds the state shared by the front end phases of one
// translation unit.
type Session struct {
	opts      Options
	cfg       cfgSet
	cm        *codemap.CodeMap
	crateName string
}

// NewSession validates opts and builds the cfg set from the host target
// defaults plus opts.Cfg.
func NewSession(opts Options) (*Session, error) {
	cfg := defaultCfg()
	for _, spec := range opts.Cfg {
		name, value, err := ParseCfgSpec(spec)
		if err != nil {
			return nil, err
		}
		cfg.add(name, value)
	}
	return &Session{opts: opts, cfg: cfg, cm: codemap.New()}, nil
}

// CodeMap returns the code map holding every file read by the session.
func (s *Session) CodeMap() *codemap.CodeMap { return s.cm }

// Parse reads in, parses it and loads its out-of-line modules. The
// returned crate carries no node ids yet.
func (s *Session) Parse(ctx context.Context, in Input) (*ast.Crate, error) {
	name, src, err := in.Load()
	if err != nil {
		return nil, &Error{Kind: ErrParse, File: name, Msg: err.Error()}
	}
	if src, err = checkSource(name, src); err != nil {
		return nil, err
	}
	f := s.cm.AddFile(name, src)
	root, err := s.parseFile(ctx, f)
	if err != nil {
		return nil, err
	}

	crate := &ast.Crate{
		ID:     ast.DummyNodeID,
		Attrs:  root.Attrs,
		Module: root.Mod,
		Span:   codemap.Span{Lo: f.Start, Hi: f.End()},
	}

	dir := "."
	if _, ok := in.(FileInput); ok {
		dir = filepath.Dir(name)
	}
	l := &modLoader{s: s, ctx: ctx, open: map[string]bool{filepath.Clean(name): true}}
	if err := l.load(crate.Module, dir, dir); err != nil {
		return nil, err
	}
	log.Debug().Str("file", name).Int("files", len(s.cm.Files())).Msg("Parsed crate")
	return crate, nil
}

func (s *Session) parseFile(ctx context.Context, f *codemap.File) (*treesitter.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := treesitter.Parse(ctx, f)
	if err != nil {
		var se *treesitter.SyntaxError
		if errors.As(err, &se) {
			return nil, &Error{Kind: ErrParse, File: se.File, Line: se.Line, Col: se.Col, Msg: se.Msg}
		}
		return nil, &Error{Kind: ErrParse, File: f.Name, Msg: err.Error()}
	}
	return out, nil
}

// CrateName picks the crate name: the crate_name attribute, else the stem
// of the input file with dashes mapped to underscores, else "main".
func (s *Session) CrateName(crate *ast.Crate, in Input) string {
	if name, ok := ast.AttrValue(crate.Attrs, "crate_name"); ok && name != "" {
		return name
	}
	if p, ok := in.(FileInput); ok {
		base := filepath.Base(string(p))
		stem := strings.TrimSuffix(base, filepath.Ext(base))
		if stem != "" && stem != "." {
			return strings.ReplaceAll(stem, "-", "_")
		}
	}
	return constants.DefaultCrateName
}

// modLoader fills in the bodies of `mod m;` declarations.
type modLoader struct {
	s    *Session
	ctx  context.Context
	open map[string]bool // files on the current load path
}

// load resolves the out-of-line modules of mod. dir is where child module
// files are looked up; fileDir is the directory of the file declaring mod,
// against which #[path] is resolved.
func (l *modLoader) load(mod *ast.Mod, dir, fileDir string) error {
	for _, it := range mod.Items {
		m, ok := it.Kind.(*ast.ItemMod)
		if !ok {
			continue
		}
		pathAttr, hasPath := ast.AttrValue(it.Attrs, "path")

		if m.Inline {
			sub := filepath.Join(dir, it.Ident.Name)
			if hasPath {
				sub = filepath.Join(dir, pathAttr)
			}
			if err := l.load(m.Mod, sub, fileDir); err != nil {
				return err
			}
			continue
		}

		var candidates []string
		if hasPath {
			candidates = []string{filepath.Join(fileDir, pathAttr)}
		} else {
			candidates = []string{
				filepath.Join(dir, it.Ident.Name+".rs"),
				filepath.Join(dir, it.Ident.Name, "mod.rs"),
			}
		}
		path, src, err := readFirst(candidates)
		if err != nil {
			return errorAt(l.s.cm, ErrParse, it.Span, "file not found for module `%s`", it.Ident.Name)
		}
		key := filepath.Clean(path)
		if l.open[key] {
			return errorAt(l.s.cm, ErrParse, it.Span, "circular modules: `%s` is already being loaded", path)
		}
		if src, err = checkSource(path, src); err != nil {
			return err
		}

		f := l.s.cm.AddFile(path, src)
		out, err := l.s.parseFile(l.ctx, f)
		if err != nil {
			return err
		}
		m.Mod = out.Mod
		it.Attrs = append(it.Attrs, out.Attrs...)
		log.Debug().Str("module", it.Ident.Name).Str("file", path).Msg("Loaded module")

		childDir := filepath.Join(dir, it.Ident.Name)
		if hasPath || filepath.Base(path) == "mod.rs" {
			childDir = filepath.Dir(path)
		}
		l.open[key] = true
		err = l.load(m.Mod, childDir, filepath.Dir(path))
		delete(l.open, key)
		if err != nil {
			return err
		}
	}
	return nil
}

// checkSource drops a leading byte order mark and rejects source that is
// not valid UTF-8, pointing at the first bad byte.
func checkSource(name, src string) (string, error) {
	src = strings.TrimPrefix(src, "\uFEFF")
	if utf8.ValidString(src) {
		return src, nil
	}
	off := 0
	for off < len(src) {
		r, size := utf8.DecodeRuneInString(src[off:])
		if r == utf8.RuneError && size == 1 {
			break
		}
		off += size
	}
	return "", &Error{
		Kind: ErrParse,
		File: name,
		Line: strings.Count(src[:off], "\n") + 1,
		Col:  off - (strings.LastIndexByte(src[:off], '\n') + 1) + 1,
		Msg:  "stream did not contain valid UTF-8",
	}
}

func readFirst(paths []string) (string, string, error) {
	var firstErr error
	for _, p := range paths {
		src, err := os.ReadFile(p)
		if err == nil {
			return p, string(src), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return "", "", firstErr
}
