// Package config loads the toolchain's runtime settings from an optional
// .goscheme.yaml file plus environment-variable overrides, following the
// teacher's layered settings precedence (file defaults, then env vars win).
package config

import (
	"os"

	"github.com/goccy/go-yaml"
	"github.com/xyproto/env/v2"
)

// Config holds the small set of settings the REPL and CLI commands
// consult: whether to colorize diagnostics, where to persist REPL
// history, and how deep a recursive user procedure may nest before the
// VM gives up with a stack-exhaustion error.
type Config struct {
	Color           bool   `yaml:"color"`
	HistFile        string `yaml:"histfile"`
	RecursionBudget int    `yaml:"recursionBudget"`
}

// Default returns the built-in settings used when no config file is
// present and no environment variable overrides apply.
func Default() Config {
	return Config{
		Color:           true,
		HistFile:        ".goscheme_history",
		RecursionBudget: 10000,
	}
}

// Load reads path (if it exists) over the defaults, then applies
// GOSCHEME_COLOR / GOSCHEME_HISTFILE / GOSCHEME_RECURSION_BUDGET
// environment overrides, which always take precedence over the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	} else if !os.IsNotExist(err) {
		return Config{}, err
	}

	if env.Has("GOSCHEME_COLOR") {
		cfg.Color = env.Bool("GOSCHEME_COLOR")
	}
	cfg.HistFile = env.Str("GOSCHEME_HISTFILE", cfg.HistFile)
	cfg.RecursionBudget = env.Int("GOSCHEME_RECURSION_BUDGET", cfg.RecursionBudget)

	return cfg, nil
}
