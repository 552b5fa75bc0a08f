package main

import (
	"fmt"
	"io"

	"lift/internal/observ"
)

// printPhaseTimings backs --timings for the pretty and short formats.
func printPhaseTimings(out io.Writer, report observ.Report, stats observ.StatsSnapshot, cached bool) {
	report.Print(out)
	src := "lowered"
	if cached {
		src = "cached"
	}
	fmt.Fprintf(out, "%s: %s\n", src, stats)
}
