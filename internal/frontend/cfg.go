package frontend

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"

	"github.com/xonecas/typo/internal/ast"
	"github.com/xonecas/typo/internal/codemap"
)

// cfgSet is the compilation environment: a set of names, each with zero or
// more values. A bare name is stored with the empty value.
type cfgSet map[string]map[string]bool

func (c cfgSet) add(name, value string) {
	if c[name] == nil {
		c[name] = make(map[string]bool)
	}
	c[name][value] = true
}

func (c cfgSet) has(name, value string) bool {
	return c[name][value]
}

// ParseCfgSpec splits a command-line cfg of the form `name` or
// `name="value"`.
func ParseCfgSpec(spec string) (name, value string, err error) {
	name, raw, hasValue := strings.Cut(spec, "=")
	name = strings.TrimSpace(name)
	if !isCfgName(name) {
		return "", "", fmt.Errorf("%w: %q", ErrCfgSpec, spec)
	}
	if !hasValue {
		return name, "", nil
	}
	raw = strings.TrimSpace(raw)
	value, uerr := strconv.Unquote(raw)
	if uerr != nil || !strings.HasPrefix(raw, `"`) {
		return "", "", fmt.Errorf("%w: %q: value must be a quoted string", ErrCfgSpec, spec)
	}
	return name, value, nil
}

func isCfgName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// defaultCfg derives the target cfg of the host.
func defaultCfg() cfgSet {
	c := make(cfgSet)
	c.add("debug_assertions", "")
	c.add("target_endian", "little")

	osName := runtime.GOOS
	if osName == "darwin" {
		osName = "macos"
	}
	c.add("target_os", osName)
	if runtime.GOOS == "windows" {
		c.add("windows", "")
		c.add("target_family", "windows")
	} else {
		c.add("unix", "")
		c.add("target_family", "unix")
	}

	arch, width := runtime.GOARCH, "64"
	switch runtime.GOARCH {
	case "amd64":
		arch = "x86_64"
	case "arm64":
		arch = "aarch64"
	case "386":
		arch, width = "x86", "32"
	case "arm", "mips", "mipsle", "wasm":
		width = "32"
	}
	c.add("target_arch", arch)
	c.add("target_pointer_width", width)
	return c
}

// cfgEnabled reports whether every #[cfg(..)] in attrs holds.
func (s *Session) cfgEnabled(attrs []*ast.Attr) (bool, error) {
	for _, a := range attrs {
		if a.Meta == nil || a.Meta.Name != "cfg" {
			continue
		}
		if a.Meta.Kind != ast.MetaList || len(a.Meta.List) != 1 {
			return false, s.cfgError(a.Span, "`cfg` takes exactly one predicate")
		}
		ok, err := s.evalCfg(a.Meta.List[0])
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (s *Session) evalCfg(mi *ast.MetaItem) (bool, error) {
	switch mi.Kind {
	case ast.MetaWord:
		return s.cfg.has(mi.Name, ""), nil
	case ast.MetaNameValue:
		return s.cfg.has(mi.Name, mi.Value), nil
	}
	switch mi.Name {
	case "all":
		for _, sub := range mi.List {
			ok, err := s.evalCfg(sub)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case "any":
		for _, sub := range mi.List {
			ok, err := s.evalCfg(sub)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	case "not":
		if len(mi.List) != 1 {
			return false, s.cfgError(mi.Span, "`not` takes exactly one predicate")
		}
		ok, err := s.evalCfg(mi.List[0])
		return !ok, err
	}
	return false, s.cfgError(mi.Span, "invalid predicate `%s`", mi.Name)
}

func (s *Session) cfgError(sp codemap.Span, format string, args ...any) error {
	return errorAt(s.cm, ErrExpand, sp, format, args...)
}
