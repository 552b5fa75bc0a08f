package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"lift/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "lift",
	Short: "Closure conversion for bound method bodies",
	Long: `lift rewrites lambdas in bound method bodies into frame types and
synthesized methods, and reports captures it cannot lift`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// init registers the subcommands and persistent flags.
func init() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(lowerCmd)
	rootCmd.AddCommand(scopesCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)

	pf := rootCmd.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.Bool("quiet", false, "suppress non-essential output")
	pf.Bool("timings", false, "show timing information")
	pf.Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	pf.Int("jobs", 0, "max methods lowered in parallel (0=auto)")
	pf.String("config", "", "path to lift.toml (default: search upwards from the input)")

	pf.String("trace", "", "trace output file (- for stderr)")
	pf.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	pf.String("trace-mode", "ring", "trace storage (stream|ring|both)")
	pf.Int("trace-ring-size", 4096, "events kept by the ring tracer")
	pf.Duration("trace-heartbeat", 0, "emit heartbeat events at this interval (0=off)")

	pf.String("cpu-profile", "", "write a CPU profile to this file")
	pf.String("mem-profile", "", "write a heap profile to this file")
	pf.String("runtime-trace", "", "write a runtime trace to this file")
}

// exitCode ends the process with a status and no further message; the
// command has already reported what went wrong.
type exitCode int

func (c exitCode) Error() string { return fmt.Sprintf("exit status %d", int(c)) }

// main executes the root command. Errors other than exitCode are printed
// and exit with status 1.
func main() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	var code exitCode
	if errors.As(err, &code) {
		os.Exit(int(code))
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

// isTerminal reports whether f is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
