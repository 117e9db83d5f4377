package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xonecas/typo/internal/config"
	"github.com/xonecas/typo/internal/frontend"
)

func execute(t *testing.T, stdin string, args ...string) error {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("TYPO_CONFIG", "")
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	return cmd.ExecuteContext(context.Background())
}

func TestRootCmd_Usage(t *testing.T) {
	for name, args := range map[string][]string{
		"no input":     nil,
		"two inputs":   {"a.rs", "b.rs"},
		"unknown flag": {"--frob", "a.rs"},
	} {
		t.Run(name, func(t *testing.T) {
			err := execute(t, "", args...)
			require.ErrorIs(t, err, config.ErrUsage)
			require.True(t, isUsageError(err))
		})
	}
}

func TestRootCmd_BadCfg(t *testing.T) {
	err := execute(t, "fn main() {}\n", "--cfg", "a b", "-")
	require.ErrorIs(t, err, frontend.ErrCfgSpec)
	require.True(t, isUsageError(err))
}

func TestRootCmd_Stdin(t *testing.T) {
	out := filepath.Join(t.TempDir(), "tags")
	err := execute(t, "fn main() {}\n", "--tags", out, "-")
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Contains(t, string(data), "!_TAG_PROGRAM_NAME\ttypo\n")
	require.Contains(t, string(data), "main\t<stdin>\t/^fn main() {}$/\n")
}

func TestRootCmd_ParseErrorIsNotUsage(t *testing.T) {
	err := execute(t, "fn main( {\n", "-")
	require.ErrorIs(t, err, frontend.ErrParse)
	require.False(t, isUsageError(err))
}

func TestRootCmd_CfgUsage(t *testing.T) {
	usage := newRootCmd().UsageString()
	require.Contains(t, usage, "--cfg name ")
	require.Contains(t, usage, `(name or name="value")`)
	require.NotContains(t, usage, "`")
}
