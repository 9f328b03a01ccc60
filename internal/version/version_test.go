package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

// withBuildVars подменяет переменные сборки на время теста.
func withBuildVars(t *testing.T, v, c, d string) {
	t.Helper()
	oldV, oldC, oldD := version, commit, date
	version, commit, date = v, c, d
	t.Cleanup(func() { version, commit, date = oldV, oldC, oldD })
}

func TestGettersMatchInfo(t *testing.T) {
	v, c, d := Info()
	if v == "" || c == "" || d == "" {
		t.Fatalf("build vars must not be empty: %q %q %q", v, c, d)
	}
	if GetVersion() != v || GetCommit() != c || GetDate() != d {
		t.Errorf("getters (%s, %s, %s) differ from Info (%s, %s, %s)",
			GetVersion(), GetCommit(), GetDate(), v, c, d)
	}
}

func TestString(t *testing.T) {
	withBuildVars(t, "1.2.0", "abc123", "2026-10-18")

	want := "checkout-service version=1.2.0 commit=abc123 date=2026-10-18"
	if got := String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if !strings.HasPrefix(String(), "checkout-service ") {
		t.Error("String should start with the service name")
	}
}

func TestApplyBuildSettings_FillsFromVCS(t *testing.T) {
	withBuildVars(t, "dev", "unknown", "unknown")

	applyBuildSettings([]debug.BuildSetting{
		{Key: "GOOS", Value: "linux"},
		{Key: "vcs.revision", Value: "0f3a9c1"},
		{Key: "vcs.time", Value: "2026-10-01T10:00:00Z"},
	})

	if commit != "0f3a9c1" {
		t.Errorf("commit = %q, want vcs revision", commit)
	}
	if date != "2026-10-01T10:00:00Z" {
		t.Errorf("date = %q, want vcs time", date)
	}
	if version != "dev" {
		t.Errorf("version must stay untouched, got %q", version)
	}
}

func TestApplyBuildSettings_KeepsLdflags(t *testing.T) {
	withBuildVars(t, "1.2.0", "from-ldflags", "2026-09-30")

	applyBuildSettings([]debug.BuildSetting{
		{Key: "vcs.revision", Value: "0f3a9c1"},
		{Key: "vcs.time", Value: "2026-10-01T10:00:00Z"},
	})

	if commit != "from-ldflags" || date != "2026-09-30" {
		t.Errorf("ldflags values overwritten: commit=%q date=%q", commit, date)
	}
}

func TestApplyBuildSettings_NoVCS(t *testing.T) {
	withBuildVars(t, "dev", "unknown", "unknown")

	applyBuildSettings(nil)

	if commit != "unknown" || date != "unknown" {
		t.Errorf("expected defaults without vcs info, got commit=%q date=%q", commit, date)
	}
}
