// Package config loads traitlint.toml, the per-project settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"traitlint/internal/feature"
	"traitlint/internal/lint"
)

// FileName is the name Find looks for.
const FileName = "traitlint.toml"

// Config is the decoded settings file.
type Config struct {
	Features FeaturesConfig    `toml:"features"`
	Lints    map[string]string `toml:"lints"`
	Check    CheckConfig       `toml:"check"`

	// Path is the file the config was read from; Root is its directory.
	Path string `toml:"-"`
	Root string `toml:"-"`
}

type FeaturesConfig struct {
	Enabled []string `toml:"enabled"`
}

type CheckConfig struct {
	Jobs           int `toml:"jobs"`
	MaxDiagnostics int `toml:"max_diagnostics"`
	// BaseDir resolves relative source paths in dumps; relative to Root.
	BaseDir string `toml:"base_dir"`
}

// Find walks up from startDir looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load reads and validates path.
func Load(path string) (*Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	cfg.Root = filepath.Dir(path)
	return &cfg, nil
}

// Discover finds and loads the config above startDir. It returns nil, nil
// when there is none.
func Discover(startDir string) (*Config, error) {
	path, ok, err := Find(startDir)
	if err != nil || !ok {
		return nil, err
	}
	return Load(path)
}

func (c *Config) validate() error {
	if _, err := feature.Parse(strings.Join(c.Features.Enabled, ",")); err != nil {
		return fmt.Errorf("[features].enabled: %w", err)
	}
	for name, level := range c.Lints {
		if _, err := lint.ParseLevel(level); err != nil {
			return fmt.Errorf("[lints].%s: %w", name, err)
		}
	}
	if c.Check.Jobs < 0 {
		return fmt.Errorf("[check].jobs must not be negative, got %d", c.Check.Jobs)
	}
	if c.Check.MaxDiagnostics < 0 {
		return fmt.Errorf("[check].max_diagnostics must not be negative, got %d", c.Check.MaxDiagnostics)
	}
	return nil
}

// FeatureSet returns the enabled features.
func (c *Config) FeatureSet() feature.Set {
	if c == nil {
		return feature.Set{}
	}
	// validated in Load
	set, _ := feature.Parse(strings.Join(c.Features.Enabled, ","))
	return set
}

// ApplyLevels copies [lints] into m. Names reg does not know are skipped and
// returned sorted, so the caller can warn about them.
func (c *Config) ApplyLevels(m *lint.LevelMap, reg *lint.Registry) []string {
	if c == nil {
		return nil
	}
	var unknown []string
	for name, raw := range c.Lints {
		if _, ok := reg.Lookup(name); !ok {
			unknown = append(unknown, name)
			continue
		}
		level, err := lint.ParseLevel(raw)
		if err != nil {
			continue
		}
		m.Set(name, level)
	}
	sort.Strings(unknown)
	return unknown
}

// ResolveBaseDir returns Check.BaseDir made absolute against Root, or Root.
func (c *Config) ResolveBaseDir() string {
	if c == nil {
		return ""
	}
	if c.Check.BaseDir == "" {
		return c.Root
	}
	if filepath.IsAbs(c.Check.BaseDir) {
		return c.Check.BaseDir
	}
	return filepath.Join(c.Root, filepath.FromSlash(c.Check.BaseDir))
}
