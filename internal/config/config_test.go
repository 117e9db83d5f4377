package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/xonecas/typo/internal/frontend"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"TYPO_CONFIG", "TYPO_SYSROOT", "TYPO_LOG_LEVEL", "TYPOFLAGS"} {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "typo.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ProgramName != "typo" {
		t.Errorf("ProgramName = %q", cfg.ProgramName)
	}
	if cfg.Log.LevelOrDefault() != zerolog.WarnLevel {
		t.Errorf("default level = %v", cfg.Log.LevelOrDefault())
	}
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `program_name = "mytags"

[frontend]
cfg = ["foo", 'feature="x"']
search_paths = ["/opt/lib"]
sysroot = "/opt/rust"

[log]
level = "debug"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ProgramName != "mytags" {
		t.Errorf("ProgramName = %q", cfg.ProgramName)
	}
	if strings.Join(cfg.Frontend.Cfg, ",") != `foo,feature="x"` {
		t.Errorf("Cfg = %v", cfg.Frontend.Cfg)
	}
	if len(cfg.Frontend.SearchPaths) != 1 || cfg.Frontend.SearchPaths[0] != "/opt/lib" {
		t.Errorf("SearchPaths = %v", cfg.Frontend.SearchPaths)
	}
	if cfg.Frontend.Sysroot != "/opt/rust" {
		t.Errorf("Sysroot = %q", cfg.Frontend.Sysroot)
	}
	if cfg.Log.LevelOrDefault() != zerolog.DebugLevel {
		t.Errorf("level = %v", cfg.Log.LevelOrDefault())
	}
}

func TestLoad_WorkingDirectoryFile(t *testing.T) {
	clearEnv(t)
	if err := os.WriteFile("typo.toml", []byte(`program_name = "local"`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ProgramName != "local" {
		t.Errorf("ProgramName = %q", cfg.ProgramName)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "[frontend]\nsysroot = \"/from/file\"\n")
	t.Setenv("TYPO_CONFIG", path)
	t.Setenv("TYPO_SYSROOT", "/from/env")
	t.Setenv("TYPO_LOG_LEVEL", "info")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Frontend.Sysroot != "/from/env" {
		t.Errorf("Sysroot = %q", cfg.Frontend.Sysroot)
	}
	if cfg.Log.LevelOrDefault() != zerolog.InfoLevel {
		t.Errorf("level = %v", cfg.Log.LevelOrDefault())
	}
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(writeConfig(t, "program_name = [")); err == nil {
		t.Error("expected error for malformed TOML")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Frontend: FrontendConfig{Cfg: []string{"ok", "not ok"}},
		Log:      LogConfig{Level: "loud"},
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"program_name", "frontend.cfg", "log.level"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
	if !errors.Is(err, frontend.ErrCfgSpec) {
		t.Errorf("error %v does not wrap ErrCfgSpec", err)
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestWithEnvFlags(t *testing.T) {
	t.Setenv("TYPOFLAGS", `--cfg 'feature="a b"' -v`)
	args, err := WithEnvFlags([]string{"main.rs"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"--cfg", `feature="a b"`, "-v", "main.rs"}
	if strings.Join(args, "|") != strings.Join(want, "|") {
		t.Errorf("args = %q, want %q", args, want)
	}

	t.Setenv("TYPOFLAGS", `--cfg 'unterminated`)
	if _, err := WithEnvFlags(nil); !errors.Is(err, ErrUsage) {
		t.Errorf("expected ErrUsage, got %v", err)
	}
}
