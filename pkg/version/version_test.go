package version

import "testing"

func TestGetInfo(t *testing.T) {
	info := GetInfo()
	if info.Version == "" || info.GitCommit == "" || info.BuildDate == "" {
		t.Fatalf("expected non-empty version info")
	}
}

func TestGetShortCommit(t *testing.T) {
	orig := GitCommit
	t.Cleanup(func() { GitCommit = orig })

	GitCommit = "abcdef123456"
	if GetShortCommit() != "abcdef1" {
		t.Fatalf("expected short commit")
	}
	GitCommit = "abc"
	if GetShortCommit() != "abc" {
		t.Fatalf("short hashes should pass through")
	}
}

func TestString(t *testing.T) {
	origName, origCommit := ComponentName, GitCommit
	t.Cleanup(func() { ComponentName, GitCommit = origName, origCommit })

	ComponentName = "sorry"
	GitCommit = "1234567890"
	want := "sorry " + Version + " (1234567, built " + BuildDate + ")"
	if got := String(); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
