// Package config reads the optional `.hamlet.yaml` project file that
// layers defaults for rules.Options under explicit CLI flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/tidwall/match"

	"github.com/cwbudde/hamlet/internal/rules"
)

// FileName is the project config file Hamlet looks for in the current
// directory and each of its parents, nearest first.
const FileName = ".hamlet.yaml"

// Config is the decoded shape of .hamlet.yaml. Every field mirrors one
// of rules.Options, plus an Excludes list of glob patterns for files the
// CLI skips while walking a directory with -r; the patterns are matched
// against paths relative to the walked directory, and a file named
// explicitly on the command line is converted without being checked.
type Config struct {
	ClassNameStrategy      string   `yaml:"class_name_strategy"`
	AutouseInlineThreshold int      `yaml:"autouse_inline_threshold"`
	PreserveUnknownMarkers bool     `yaml:"preserve_unknown_markers"`
	Excludes               []string `yaml:"exclude"`
}

// DefaultConfig returns a Config seeded from rules.DefaultOptions, with
// no exclude patterns.
func DefaultConfig() *Config {
	opts := rules.DefaultOptions()
	return &Config{
		ClassNameStrategy:      opts.ClassNameStrategy,
		AutouseInlineThreshold: opts.AutouseInlineThreshold,
		PreserveUnknownMarkers: opts.PreserveUnknownMarkers,
	}
}

// Load walks upward from dir looking for FileName, returning
// DefaultConfig unchanged if none is found anywhere above the root. A
// file that exists but fails to parse is a hard error: a malformed
// project config should stop the CLI, not silently fall back.
func Load(dir string) (*Config, error) {
	path, err := findUpward(dir, FileName)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile decodes the YAML file at path into a Config, defaulting any
// field the file leaves zero.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

func findUpward(dir, name string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Options converts Config into the rules.Options the transform engine
// actually consumes.
func (c *Config) Options() rules.Options {
	return rules.Options{
		ClassNameStrategy:      c.ClassNameStrategy,
		AutouseInlineThreshold: c.AutouseInlineThreshold,
		PreserveUnknownMarkers: c.PreserveUnknownMarkers,
	}
}

// Excluded reports whether relPath matches any of the config's exclude
// glob patterns, using tidwall/match's glob primitive (the same one
// gjson's own path matching is built on) rather than hand-rolling one.
func (c *Config) Excluded(relPath string) bool {
	for _, pattern := range c.Excludes {
		if match.Match(relPath, pattern) {
			return true
		}
	}
	return false
}
