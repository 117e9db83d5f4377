// Package config handles configuration loading from TOML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
	"mvdan.cc/sh/v3/shell"

	"github.com/xonecas/typo/internal/constants"
	"github.com/xonecas/typo/internal/frontend"
)

// ErrUsage reports a command line that cannot be acted on, such as a
// missing input or an unknown flag.
var ErrUsage = errors.New("usage error")

// Config is the root configuration structure.
type Config struct {
	// ProgramName is written to the tag file header.
	ProgramName string         `toml:"program_name"`
	Frontend    FrontendConfig `toml:"frontend"`
	Log         LogConfig      `toml:"log"`
}

// FrontendConfig holds settings passed through to the front end. Command
// line flags add to these.
type FrontendConfig struct {
	Cfg         []string `toml:"cfg"`
	SearchPaths []string `toml:"search_paths"`
	Sysroot     string   `toml:"sysroot"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is a zerolog level name. Defaults to "warn".
	Level string `toml:"level"`
}

// LevelOrDefault returns the configured log level, or warn if unset.
func (l LogConfig) LevelOrDefault() zerolog.Level {
	lvl, err := zerolog.ParseLevel(l.Level)
	if err != nil || l.Level == "" {
		return zerolog.WarnLevel
	}
	return lvl
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{ProgramName: constants.ProgramName}
}

// Load reads configuration from a TOML file and applies environment variable
// overrides. An empty path falls back to TYPO_CONFIG and then to typo.toml in
// the working directory; when none of them names a file the defaults are
// used.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if path == "" {
		path = os.Getenv("TYPO_CONFIG")
		explicit = path != ""
	}
	if path == "" {
		if _, err := os.Stat(constants.ConfigFile); err == nil {
			path = constants.ConfigFile
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			if explicit {
				return nil, fmt.Errorf("config file not found: %s", path)
			}
		} else if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	var errs []error

	if c.ProgramName == "" {
		errs = append(errs, errors.New("program_name must not be empty"))
	} else if strings.ContainsAny(c.ProgramName, "\t\r\n") {
		errs = append(errs, fmt.Errorf("program_name=%q must not contain tabs or newlines", c.ProgramName))
	}

	for _, spec := range c.Frontend.Cfg {
		if _, _, err := frontend.ParseCfgSpec(spec); err != nil {
			errs = append(errs, fmt.Errorf("frontend.cfg: %w", err))
		}
	}

	if c.Log.Level != "" {
		if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
			errs = append(errs, fmt.Errorf("log.level=%q is invalid: %v", c.Log.Level, err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	for _, setter := range []struct {
		env   string
		apply func(string)
	}{
		{"TYPO_SYSROOT", func(v string) {
			if v != "" {
				cfg.Frontend.Sysroot = v
			}
		}},
		{"TYPO_LOG_LEVEL", func(v string) {
			if v != "" {
				cfg.Log.Level = v
			}
		}},
	} {
		setter.apply(os.Getenv(setter.env))
	}
}

// WithEnvFlags prepends the flags held in TYPOFLAGS to args. The variable is
// split with shell quoting rules, without expanding parameters.
func WithEnvFlags(args []string) ([]string, error) {
	extra, err := shell.Fields(os.Getenv("TYPOFLAGS"), func(string) string { return "" })
	if err != nil {
		return nil, fmt.Errorf("%w: TYPOFLAGS: %v", ErrUsage, err)
	}
	return append(extra, args...), nil
}
