// Package driver runs the front end over one translation unit and writes
// the requested outputs.
package driver

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/xonecas/typo/internal/codemap"
	"github.com/xonecas/typo/internal/constants"
	"github.com/xonecas/typo/internal/frontend"
	"github.com/xonecas/typo/internal/nodemap"
	"github.com/xonecas/typo/internal/tags"
	"github.com/xonecas/typo/internal/typemap"
)

// ErrOutput is wrapped by every failure to write an output file.
var ErrOutput = errors.New("output error")

// OutputError names the destination that could not be written.
type OutputError struct {
	Path string
	Err  error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrOutput, e.Path, e.Err)
}

func (e *OutputError) Unwrap() []error { return []error{ErrOutput, e.Err} }

// Options select the input and the outputs of one run.
type Options struct {
	Input    frontend.Input
	Frontend frontend.Options

	// ProgramName goes in the tag file header. Empty means "typo".
	ProgramName string

	TagPaths []string
	// TagsAppend appends to existing tag files and omits the header.
	TagsAppend bool

	NodeMapPaths []string
	TypeMapPaths []string
}

// Run parses and expands opts.Input and writes every requested output.
// Each destination gets the full output of its pass. Nothing is written
// when parsing or expansion fails.
func Run(ctx context.Context, opts Options) error {
	s, err := frontend.NewSession(opts.Frontend)
	if err != nil {
		return err
	}

	crate, err := s.Parse(ctx, opts.Input)
	if err != nil {
		return err
	}
	macros := tags.CollectMacros(crate)
	crateName := s.CrateName(crate, opts.Input)

	expanded, err := s.Expand(ctx, crate, crateName)
	if err != nil {
		return err
	}
	log.Debug().Str("crate", crateName).Int("macros", len(macros)).Msg("Expanded crate")

	cm := s.CodeMap()
	if len(opts.TagPaths) > 0 {
		defs := tags.CollectDefs(expanded, cm)
		for _, path := range opts.TagPaths {
			err := writeFile(path, opts.TagsAppend, func(w io.Writer) error {
				return writeTags(w, cm, opts, macros, defs)
			})
			if err != nil {
				return err
			}
		}
	}

	if len(opts.NodeMapPaths) > 0 {
		entries := nodemap.Collect(expanded)
		for _, path := range opts.NodeMapPaths {
			err := writeFile(path, false, func(w io.Writer) error {
				return nodemap.Write(w, cm, entries)
			})
			if err != nil {
				return err
			}
		}
	}

	if len(opts.TypeMapPaths) > 0 {
		entries := typemap.Project(s.InferTypes(ctx, expanded))
		for _, path := range opts.TypeMapPaths {
			err := writeFile(path, false, func(w io.Writer) error {
				return typemap.Write(w, entries)
			})
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func writeTags(w io.Writer, cm *codemap.CodeMap, opts Options, macros, defs []tags.Entry) error {
	if !opts.TagsAppend {
		program := opts.ProgramName
		if program == "" {
			program = constants.ProgramName
		}
		if err := tags.WriteHeader(w, program); err != nil {
			return err
		}
	}
	if err := tags.Write(w, cm, macros); err != nil {
		return err
	}
	return tags.Write(w, cm, defs)
}

// writeFile opens path, truncating it unless appendMode is set, and hands
// fn a buffered writer. The file is flushed and closed on every path.
func writeFile(path string, appendMode bool, fn func(io.Writer) error) (err error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if appendMode {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return &OutputError{Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &OutputError{Path: path, Err: cerr}
		}
	}()

	bw := bufio.NewWriter(f)
	if err := fn(bw); err != nil {
		return &OutputError{Path: path, Err: err}
	}
	if err := bw.Flush(); err != nil {
		return &OutputError{Path: path, Err: err}
	}
	log.Debug().Str("path", path).Msg("Wrote output")
	return nil
}
