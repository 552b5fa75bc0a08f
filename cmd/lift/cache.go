package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"lift/internal/driver"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the persistent lowering cache",
}

var cacheDirCmd = &cobra.Command{
	Use:   "dir [path]",
	Short: "Print the cache directory used for path (default: current directory)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := cacheForBase(cmd, args)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), c.Dir())
		return err
	},
}

var cacheStatCmd = &cobra.Command{
	Use:   "stat [path]",
	Short: "Count the cached lowering results",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := cacheForBase(cmd, args)
		if err != nil {
			return err
		}
		st, err := c.Stat()
		if err != nil {
			return fmt.Errorf("failed to read %q: %w", c.Dir(), err)
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d entries, %s\n", c.Dir(), st.Entries, formatBytes(st.Bytes))
		return err
	},
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean [path]",
	Short: "Remove every cached lowering result",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := cacheForBase(cmd, args)
		if err != nil {
			return err
		}
		if err := c.DropAll(); err != nil {
			return fmt.Errorf("failed to clean %q: %w", c.Dir(), err)
		}
		if !quiet(cmd) {
			fmt.Fprintf(cmd.OutOrStdout(), "removed cached results in %s\n", c.Dir())
		}
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheDirCmd)
	cacheCmd.AddCommand(cacheStatCmd)
	cacheCmd.AddCommand(cacheCleanCmd)
}

// cacheForBase resolves the cache the lower command would use for files
// under the given directory.
func cacheForBase(cmd *cobra.Command, args []string) (*driver.DiskCache, error) {
	base := "."
	if len(args) > 0 && args[0] != "" {
		base = args[0]
	}
	m, err := manifestFor(cmd, filepath.Join(base, manifestName))
	if err != nil {
		return nil, err
	}
	return diskCacheFor(m)
}
