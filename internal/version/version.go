package version

import (
	"fmt"

	"github.com/fatih/color"
)

// Build information for the lift CLI.
// These variables can be overridden at build time via -ldflags.
var (
	// Version is the semantic version of the CLI.
	Version = "0.3.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)
)

// Info is the machine-readable build description.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
}

// Current returns the build information.
func Current() Info {
	return Info{Version: Version, GitCommit: GitCommit, BuildDate: BuildDate}
}

// Colored renders Version with each numeric component tinted.
// Versions that are not major.minor.patch are returned unchanged.
func Colored() string {
	var major, minor, patch int
	var rest string
	n, _ := fmt.Sscanf(Version, "%d.%d.%d%s", &major, &minor, &patch, &rest)
	if n < 3 {
		return Version
	}
	return majorColor.Sprint(major) + "." + minorColor.Sprint(minor) + "." + patchColor.Sprint(patch) + rest
}
