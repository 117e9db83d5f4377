package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/xonecas/typo/internal/config"
	"github.com/xonecas/typo/internal/constants"
	"github.com/xonecas/typo/internal/driver"
	"github.com/xonecas/typo/internal/frontend"
)

type flags struct {
	cfg        []string
	libPaths   []string
	sysroot    string
	tags       []string
	tagsAppend bool
	nodeMaps   []string
	typeMaps   []string
	configPath string
	verbose    bool
}

func main() {
	args, err := config.WithEnvFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := newRootCmd()
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if isUsageError(err) {
			fmt.Fprintln(os.Stderr, cmd.UsageString())
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "typo [flags] INPUT",
		Short: "Index a Rust crate into ctags, node-span and type tables",
		Long: `typo parses one Rust translation unit, expands it and writes any of:
a ctags file of its definitions, a table of node spans and a table of
inferred node types. INPUT is a path, or "-" for standard input.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("%w: expected exactly one INPUT, got %d", config.ErrUsage, len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), &f, args[0], cmd.InOrStdin())
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", config.ErrUsage, err)
	})

	fl := cmd.Flags()
	fl.StringArrayVar(&f.cfg, "cfg", nil, "configure the compilation environment (`name` or name=\"value\")")
	fl.StringArrayVarP(&f.libPaths, "library-path", "L", nil, "add a directory to the library search path")
	fl.StringVar(&f.sysroot, "sysroot", "", "override the system root")
	fl.StringArrayVar(&f.tags, "tags", nil, "write a ctags file to `PATH`")
	fl.BoolVar(&f.tagsAppend, "tags-append", false, "append to existing tag files and omit the header")
	fl.StringArrayVar(&f.nodeMaps, "node-id-map", nil, "write the node span table to `PATH`")
	fl.StringArrayVar(&f.typeMaps, "type-map", nil, "write the node type table to `PATH`")
	fl.StringVar(&f.configPath, "config", "", "read configuration from a TOML `file`")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "log debug output to stderr")
	return cmd
}

func run(ctx context.Context, f *flags, input string, stdin io.Reader) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrUsage, err)
	}
	setupLogging(cfg, f.verbose)

	opts := driver.Options{
		Frontend: frontend.Options{
			Cfg:         append(append([]string(nil), cfg.Frontend.Cfg...), f.cfg...),
			SearchPaths: append(append([]string(nil), cfg.Frontend.SearchPaths...), f.libPaths...),
			Sysroot:     cfg.Frontend.Sysroot,
		},
		ProgramName:  cfg.ProgramName,
		TagPaths:     f.tags,
		TagsAppend:   f.tagsAppend,
		NodeMapPaths: f.nodeMaps,
		TypeMapPaths: f.typeMaps,
	}
	if f.sysroot != "" {
		opts.Frontend.Sysroot = f.sysroot
	}
	if input == constants.StdinToken {
		src, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("failed to read standard input: %w", err)
		}
		opts.Input = frontend.TextInput(src)
	} else {
		opts.Input = frontend.FileInput(input)
	}

	log.Debug().Str("input", input).Strs("cfg", opts.Frontend.Cfg).Msg("Starting run")
	return driver.Run(ctx, opts)
}

func setupLogging(cfg *config.Config, verbose bool) {
	level := cfg.Log.LevelOrDefault()
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:     os.Stderr,
		NoColor: !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()),
	}).With().Timestamp().Logger()
}

// isUsageError reports whether err should print usage and exit with status 2.
func isUsageError(err error) bool {
	return errors.Is(err, config.ErrUsage) || errors.Is(err, frontend.ErrCfgSpec)
}
