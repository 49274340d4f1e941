package version

import (
	"strings"
	"testing"
)

func TestVersionDefaults(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if BuildTime == "" {
		t.Error("BuildTime should be initialized")
	}
	if GitCommit == "" {
		t.Error("GitCommit should be initialized")
	}
}

func TestString(t *testing.T) {
	if !strings.HasPrefix(String(), Version) {
		t.Errorf("String() = %q, want prefix %q", String(), Version)
	}

	origCommit := GitCommit
	defer func() { GitCommit = origCommit }()

	GitCommit = "abc1234"
	if got := String(); !strings.Contains(got, "abc1234") {
		t.Errorf("String() = %q, want commit included", got)
	}
}
