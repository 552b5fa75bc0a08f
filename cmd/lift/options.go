package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"lift/internal/bound"
	"lift/internal/driver"
	"lift/internal/lambda"
)

// loweringOptions layers the defaults, lift.toml and the flags that were
// set explicitly, in that order.
func loweringOptions(cmd *cobra.Command, input string) (driver.Options, *projectManifest, error) {
	opts := driver.Options{ScopeKinds: bound.DefaultScopeKinds}
	root := cmd.Root().PersistentFlags()

	m, err := manifestFor(cmd, input)
	if err != nil {
		return opts, nil, err
	}
	if m != nil {
		m.apply(&opts)
	}

	if root.Changed("jobs") {
		if opts.Jobs, err = root.GetInt("jobs"); err != nil {
			return opts, m, fmt.Errorf("failed to get jobs flag: %w", err)
		}
	}
	if root.Changed("max-diagnostics") || opts.MaxDiagnostics == 0 {
		if opts.MaxDiagnostics, err = root.GetInt("max-diagnostics"); err != nil {
			return opts, m, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("cache") {
		s, _ := flags.GetString("cache")
		if opts.Cache, err = lambda.ParseCacheMode(s); err != nil {
			return opts, m, err
		}
	}
	if flags.Changed("scope-kinds") {
		kinds, _ := flags.GetStringSlice("scope-kinds")
		if opts.ScopeKinds, err = bound.ParseScopeKinds(kinds); err != nil {
			return opts, m, err
		}
	}
	if flags.Changed("singleton-statics") {
		opts.SingletonStatics, _ = flags.GetBool("singleton-statics")
	}
	if flags.Changed("assign-locals") {
		opts.AssignLocals, _ = flags.GetBool("assign-locals")
	}
	if flags.Changed("emit") {
		opts.Emitting, _ = flags.GetBool("emit")
	}
	if flags.Changed("only") {
		opts.Only, _ = flags.GetStringSlice("only")
	}
	return opts, m, nil
}

// manifestFor honours --config, then searches upwards from the input.
func manifestFor(cmd *cobra.Command, input string) (*projectManifest, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	if path != "" {
		return loadManifestFile(path)
	}
	m, _, err := loadProjectManifest(filepath.Dir(input))
	return m, err
}

// openDiskCache returns the cache selected by --disk-cache or [cache], or
// nil when caching is off.
func openDiskCache(cmd *cobra.Command, m *projectManifest) (*driver.DiskCache, error) {
	enabled := m != nil && m.Config.Cache.Enabled
	if f := cmd.Flags().Lookup("disk-cache"); f != nil && f.Changed {
		enabled, _ = cmd.Flags().GetBool("disk-cache")
	}
	if !enabled {
		return nil, nil
	}
	return diskCacheFor(m)
}

func diskCacheFor(m *projectManifest) (*driver.DiskCache, error) {
	if m != nil {
		if dir := m.cacheDir(); dir != "" {
			return driver.OpenDiskCacheAt(dir)
		}
	}
	return driver.OpenDiskCache("lift")
}
