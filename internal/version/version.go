// Package version holds build information of the tycodec CLI.
// These variables can be overridden at build time via -ldflags.
package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/fatih/color"
)

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)

	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// GitMessage is an optional git commit message.
	GitMessage = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

// Colored renders Version with the major, minor and patch numbers highlighted.
// A Version that is not semver is returned unchanged.
func Colored() string {
	v, err := semver.NewVersion(Version)
	if err != nil {
		return Version
	}
	out := versionMajorColor.Sprint(v.Major()) + "." +
		versionMinorColor.Sprint(v.Minor()) + "." +
		versionPatchColor.Sprint(v.Patch())
	if pre := v.Prerelease(); pre != "" {
		out += "-" + pre
	}
	if meta := v.Metadata(); meta != "" {
		out += "+" + meta
	}
	return out
}

// Summary is the text printed by the version command.
func Summary(colored bool) string {
	var b strings.Builder
	b.WriteString("tycodec ")
	if colored {
		b.WriteString(Colored())
	} else {
		b.WriteString(Version)
	}
	b.WriteString("\n")
	if GitCommit != "" {
		fmt.Fprintf(&b, "commit: %s", GitCommit)
		if GitMessage != "" {
			fmt.Fprintf(&b, " (%s)", firstLine(GitMessage))
		}
		b.WriteString("\n")
	}
	if BuildDate != "" {
		fmt.Fprintf(&b, "built:  %s\n", BuildDate)
	}
	return b.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
