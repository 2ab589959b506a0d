// Package version carries the build identity stamped into the tpp binary
// at link time.
package version

import (
	"strings"

	"github.com/fatih/color"
)

// Overridable via -ldflags "-X tpp/internal/version.Number=...".
var (
	// Number is the plain semantic version.
	Number = "0.1.0-dev"

	// GitCommit is the commit the binary was built from.
	GitCommit = ""

	// GitMessage is that commit's subject line.
	GitMessage = ""

	// BuildDate is the build timestamp in ISO-8601.
	BuildDate = ""
)

var componentColors = [...]*color.Color{
	color.New(color.FgYellow, color.Bold),
	color.New(color.FgGreen, color.Bold),
	color.New(color.FgBlue, color.Bold),
}

// Version is Number with the major/minor/patch components colored for
// terminal output.
var Version = Colorize(Number)

// Colorize renders a semantic version with per-component colors, leaving
// any pre-release suffix plain.
func Colorize(number string) string {
	base, suffix, found := strings.Cut(number, "-")
	parts := strings.Split(base, ".")
	for i := range parts {
		if i < len(componentColors) {
			parts[i] = componentColors[i].Sprint(parts[i])
		}
	}
	out := strings.Join(parts, ".")
	if found {
		out += "-" + suffix
	}
	return out
}
