package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"lift/internal/diag"
	"lift/internal/diagfmt"
	"lift/internal/driver"
	"lift/internal/observ"
)

var lowerCmd = &cobra.Command{
	Use:   "lower [flags] <unit.yaml>",
	Short: "Lower the lambdas of a bound unit",
	Long: `Lower every method of a bound unit, print the rewritten bodies with the
synthesized frame types and methods, and report captures that cannot be lifted`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := runLower(cmd, args[0])
		if err != nil {
			return err
		}
		if code != 0 {
			return exitCode(code)
		}
		return nil
	},
}

func init() {
	f := lowerCmd.Flags()
	f.String("format", "pretty", "output format (pretty|short|json)")
	f.Bool("emit", false, "print synthesized types and record them in the module")
	f.String("cache", "syntactic", "delegate caching (syntactic|static-only)")
	f.StringSlice("scope-kinds", []string{"all"}, "nodes that open a scope (block|catch|switch|sequence|all)")
	f.Bool("singleton-statics", false, "host capture-free closures on a per-method singleton")
	f.Bool("assign-locals", false, "copy captured locals into the frame at scope entry")
	f.StringSlice("only", nil, "lower only these qualified methods")
	f.Bool("disk-cache", false, "reuse results from the persistent cache")
	f.Bool("with-notes", true, "include diagnostic notes in output")
	f.Bool("fullpath", false, "emit absolute file paths in output")
	f.String("progress", "auto", "show per-method progress on stderr (auto|on|off)")
}

type lowerPayload struct {
	Path        string                    `json:"path"`
	Cached      bool                      `json:"cached"`
	Output      string                    `json:"output"`
	Stats       observ.StatsSnapshot      `json:"stats"`
	Timing      *observ.Report            `json:"timing,omitempty"`
	Diagnostics diagfmt.DiagnosticsOutput `json:"diagnostics"`
}

// runLower returns the process exit code: 1 when lowering reported errors.
func runLower(cmd *cobra.Command, path string) (int, error) {
	defer dumpTraceOnPanic()

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return 0, fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "pretty" && format != "short" && format != "json" {
		return 0, fmt.Errorf("unknown format: %s", format)
	}
	progressStr, err := cmd.Flags().GetString("progress")
	if err != nil {
		return 0, fmt.Errorf("failed to get progress flag: %w", err)
	}
	progress, err := readProgressMode(progressStr)
	if err != nil {
		return 0, err
	}
	withNotes, _ := cmd.Flags().GetBool("with-notes")
	fullPath, _ := cmd.Flags().GetBool("fullpath")

	opts, manifest, err := loweringOptions(cmd, path)
	if err != nil {
		return 0, err
	}
	if opts.DiskCache, err = openDiskCache(cmd, manifest); err != nil {
		return 0, err
	}
	showTimings := timingsRequested(cmd)
	opts.Timings = showTimings && format == "json"

	traceCleanup, err := setupTracing(cmd)
	if err != nil {
		return 0, err
	}
	defer traceCleanup()
	profCleanup, err := setupProfiling(cmd)
	if err != nil {
		return 0, err
	}
	defer profCleanup()

	var res *driver.Result
	if format != "json" && !quiet(cmd) && shouldShowProgress(progress) {
		res, err = lowerWithProgress(cmd.Context(), path, opts)
	} else {
		res, err = driver.LowerFile(cmd.Context(), path, opts)
	}
	if err != nil {
		return 0, err
	}

	pathMode := diagfmt.PathModeAuto
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}
	out := cmd.OutOrStdout()

	switch format {
	case "json":
		payload := lowerPayload{
			Path:   path,
			Cached: res.Cached,
			Output: res.Output,
			Stats:  res.Stats,
			Diagnostics: diagfmt.BuildDiagnosticsOutput(res.Bag, res.FileSet, diagfmt.JSONOpts{
				IncludePositions: true,
				PathMode:         pathMode,
				Max:              opts.MaxDiagnostics,
				IncludeNotes:     withNotes,
			}),
		}
		if showTimings {
			payload.Timing = &res.Timing
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(payload); err != nil {
			return 0, fmt.Errorf("failed to encode output: %w", err)
		}
	case "short":
		if _, err := io.WriteString(out, res.Output); err != nil {
			return 0, err
		}
		errOut := cmd.ErrOrStderr()
		if short := diag.FormatShort(res.Bag.Items(), res.FileSet, withNotes); short != "" {
			fmt.Fprintln(errOut, short)
		}
		if showTimings && !quiet(cmd) {
			printPhaseTimings(errOut, res.Timing, res.Stats, res.Cached)
		}
	default:
		if _, err := io.WriteString(out, res.Output); err != nil {
			return 0, err
		}
		useColor, err := colorEnabled(cmd, os.Stderr)
		if err != nil {
			return 0, err
		}
		errOut := cmd.ErrOrStderr()
		diagfmt.Pretty(errOut, res.Bag, res.FileSet, diagfmt.PrettyOpts{
			Color:     useColor,
			PathMode:  pathMode,
			ShowNotes: withNotes,
		})
		if showTimings && !quiet(cmd) {
			printPhaseTimings(errOut, res.Timing, res.Stats, res.Cached)
		}
	}

	if res.Failed() {
		return 1, nil
	}
	return 0, nil
}
