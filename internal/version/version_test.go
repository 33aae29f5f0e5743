package version

import "testing"

func TestGetReflectsBuildVars(t *testing.T) {
	previousVersion := Version
	previousBuilt := Built
	previousCommit := GitCommit

	Version = "1.2.3"
	Built = "2026-08-28T10:00:00Z"
	GitCommit = "abc123"

	t.Cleanup(func() {
		Version = previousVersion
		Built = previousBuilt
		GitCommit = previousCommit
	})

	info := Get()
	if info.Version != "1.2.3" {
		t.Fatalf("expected version 1.2.3, got %q", info.Version)
	}
	if info.Built != "2026-08-28T10:00:00Z" {
		t.Fatalf("expected built timestamp preserved, got %q", info.Built)
	}
	if got := info.String(); got != "1.2.3 (abc123)" {
		t.Fatalf("unexpected string rendering %q", got)
	}
}

func TestStringDefaultsToDev(t *testing.T) {
	if got := (Info{}).String(); got != "dev" {
		t.Fatalf("expected dev, got %q", got)
	}
}
