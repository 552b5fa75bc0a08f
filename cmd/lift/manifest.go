package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"lift/internal/bound"
	"lift/internal/driver"
	"lift/internal/lambda"
)

const manifestName = "lift.toml"

type projectManifest struct {
	Path   string
	Root   string
	Config projectConfig
	meta   toml.MetaData
}

type projectConfig struct {
	Lower lowerConfig `toml:"lower"`
	Cache cacheConfig `toml:"cache"`
}

type lowerConfig struct {
	Jobs             int      `toml:"jobs"`
	MaxDiagnostics   int      `toml:"max_diagnostics"`
	Cache            string   `toml:"cache"`
	ScopeKinds       []string `toml:"scope_kinds"`
	SingletonStatics bool     `toml:"singleton_statics"`
	AssignLocals     bool     `toml:"assign_locals"`
	Emitting         bool     `toml:"emitting"`
	Only             []string `toml:"only"`
}

type cacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

func findManifest(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, manifestName)
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

// loadProjectManifest finds lift.toml at or above startDir. A missing
// manifest is not an error.
func loadProjectManifest(startDir string) (*projectManifest, bool, error) {
	path, ok, err := findManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err := loadManifestFile(path)
	return m, true, err
}

func loadManifestFile(path string) (*projectManifest, error) {
	var cfg projectConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if cfg.Lower.Jobs < 0 {
		return nil, fmt.Errorf("%s: [lower].jobs must not be negative", path)
	}
	if meta.IsDefined("lower", "max_diagnostics") && cfg.Lower.MaxDiagnostics <= 0 {
		return nil, fmt.Errorf("%s: [lower].max_diagnostics must be positive", path)
	}
	if _, err := lambda.ParseCacheMode(cfg.Lower.Cache); err != nil {
		return nil, fmt.Errorf("%s: [lower].cache: %w", path, err)
	}
	if _, err := bound.ParseScopeKinds(cfg.Lower.ScopeKinds); err != nil {
		return nil, fmt.Errorf("%s: [lower].scope_kinds: %w", path, err)
	}
	return &projectManifest{
		Path:   path,
		Root:   filepath.Dir(path),
		Config: cfg,
		meta:   meta,
	}, nil
}

// apply copies every key the manifest defines into opts.
func (m *projectManifest) apply(opts *driver.Options) {
	l := m.Config.Lower
	opts.BaseDir = m.Root
	if m.meta.IsDefined("lower", "jobs") {
		opts.Jobs = l.Jobs
	}
	if m.meta.IsDefined("lower", "max_diagnostics") {
		opts.MaxDiagnostics = l.MaxDiagnostics
	}
	if m.meta.IsDefined("lower", "cache") {
		opts.Cache, _ = lambda.ParseCacheMode(l.Cache)
	}
	if m.meta.IsDefined("lower", "scope_kinds") {
		opts.ScopeKinds, _ = bound.ParseScopeKinds(l.ScopeKinds)
	}
	if m.meta.IsDefined("lower", "singleton_statics") {
		opts.SingletonStatics = l.SingletonStatics
	}
	if m.meta.IsDefined("lower", "assign_locals") {
		opts.AssignLocals = l.AssignLocals
	}
	if m.meta.IsDefined("lower", "emitting") {
		opts.Emitting = l.Emitting
	}
	if m.meta.IsDefined("lower", "only") {
		opts.Only = l.Only
	}
}

// cacheDir resolves [cache].dir against the manifest root. It returns ""
// when the manifest leaves the location to the user cache directory.
func (m *projectManifest) cacheDir() string {
	dir := strings.TrimSpace(m.Config.Cache.Dir)
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(m.Root, filepath.FromSlash(dir))
}
