package frontend

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/xonecas/typo/internal/ast"
)

// lookupExternCrates searches the library paths for every `extern crate`
// and returns the names it could not find. Library metadata is not read,
// so the result only feeds diagnostics: names from a missing crate stay
// untyped either way.
func (s *Session) lookupExternCrates(crate *ast.Crate) (missing []string) {
	var names []string
	ast.Walk(&ast.Visitor{Item: func(i *ast.Item) {
		k, ok := i.Kind.(*ast.ItemExternCrate)
		if !ok {
			return
		}
		name := i.Ident.Name
		if k.Orig != "" {
			name = k.Orig
		}
		names = append(names, name)
	}}, crate)
	if len(names) == 0 {
		return nil
	}

	dirs := s.libraryDirs()
	for _, name := range names {
		if path, ok := findLibrary(dirs, name); ok {
			log.Debug().Str("crate", name).Str("path", path).Msg("Found extern crate")
			continue
		}
		missing = append(missing, name)
	}
	return missing
}

// libraryDirs lists the search paths followed by the sysroot's target
// library directories.
func (s *Session) libraryDirs() []string {
	dirs := append([]string(nil), s.opts.SearchPaths...)
	if s.opts.Sysroot == "" {
		return dirs
	}
	matches, err := filepath.Glob(filepath.Join(s.opts.Sysroot, "lib", "rustlib", "*", "lib"))
	if err != nil {
		return dirs
	}
	return append(dirs, matches...)
}

func findLibrary(dirs []string, name string) (string, bool) {
	for _, dir := range dirs {
		for _, pattern := range []string{"lib" + name + ".rlib", "lib" + name + "-*.rlib", "lib" + name + ".rmeta", "lib" + name + "-*.rmeta", "lib" + name + ".so", "lib" + name + "-*.so"} {
			matches, err := filepath.Glob(filepath.Join(dir, pattern))
			if err != nil || len(matches) == 0 {
				continue
			}
			if info, err := os.Stat(matches[0]); err == nil && !info.IsDir() {
				return matches[0], true
			}
		}
	}
	return "", false
}
