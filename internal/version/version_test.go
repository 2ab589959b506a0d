package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func plain(t *testing.T) {
	t.Helper()
	old := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = old })
}

func TestColorizeRoundTripsWithoutColor(t *testing.T) {
	plain(t)
	for _, v := range []string{"1.2.3", "0.1.0-dev", "2.0.0-beta.1+build.7"} {
		if got := Colorize(v); got != v {
			t.Errorf("Colorize(%q) = %q", v, got)
		}
	}
}

func TestColorizeExtraComponentsKeptVerbatim(t *testing.T) {
	plain(t)
	if got := Colorize("1.2.3.4"); got != "1.2.3.4" {
		t.Errorf("Colorize = %q", got)
	}
}

func TestDefaults(t *testing.T) {
	if Version == "" {
		t.Error("Version must have a default")
	}
	if !strings.Contains(Number, ".") {
		t.Errorf("Number = %q is not a semantic version", Number)
	}
}
