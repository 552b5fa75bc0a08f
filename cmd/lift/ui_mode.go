package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// colorEnabled resolves --color against the terminal on f and applies the
// result to fatih/color globally.
func colorEnabled(cmd *cobra.Command, f *os.File) (bool, error) {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, fmt.Errorf("failed to get color flag: %w", err)
	}
	var on bool
	switch mode {
	case "on", "always":
		on = true
	case "off", "never":
		on = false
	case "auto", "":
		on = isTerminal(f) && os.Getenv("NO_COLOR") == ""
	default:
		return false, fmt.Errorf("unknown color value: %s (must be auto|on|off)", mode)
	}
	color.NoColor = !on
	return on, nil
}

func quiet(cmd *cobra.Command) bool {
	q, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	return q
}

func timingsRequested(cmd *cobra.Command) bool {
	t, _ := cmd.Root().PersistentFlags().GetBool("timings")
	return t
}
