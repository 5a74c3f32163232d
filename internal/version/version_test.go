package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func withVersion(t *testing.T, v, commit, msg, date string) {
	t.Helper()
	origVersion, origCommit, origMsg, origDate := Version, GitCommit, GitMessage, BuildDate
	Version, GitCommit, GitMessage, BuildDate = v, commit, msg, date
	t.Cleanup(func() {
		Version, GitCommit, GitMessage, BuildDate = origVersion, origCommit, origMsg, origDate
	})
}

func TestVersion_DefaultValues(t *testing.T) {
	if Version == "" {
		t.Error("Version should have a default value")
	}
}

func TestColored(t *testing.T) {
	// цвета отключаем, чтобы сравнивать текст
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	tests := []struct {
		version string
		want    string
	}{
		{"0.1.0", "0.1.0"},
		{"0.1.0-dev", "0.1.0-dev"},
		{"1.2.3-rc.1+build.123", "1.2.3-rc.1+build.123"},
		{"nightly", "nightly"},
	}
	for _, tt := range tests {
		withVersion(t, tt.version, "", "", "")
		if got := Colored(); got != tt.want {
			t.Errorf("Colored() for %q = %q, want %q", tt.version, got, tt.want)
		}
	}
}

func TestSummary(t *testing.T) {
	withVersion(t, "1.2.3", "abc123def456", "fix cache\n\nlong body", "2024-01-15T10:30:00Z")
	got := Summary(false)
	for _, want := range []string{"tycodec 1.2.3\n", "commit: abc123def456 (fix cache)\n", "built:  2024-01-15T10:30:00Z\n"} {
		if !strings.Contains(got, want) {
			t.Errorf("Summary() = %q, missing %q", got, want)
		}
	}

	withVersion(t, "1.2.3", "", "", "")
	if got := Summary(false); got != "tycodec 1.2.3\n" {
		t.Errorf("Summary() without build info = %q", got)
	}
}
