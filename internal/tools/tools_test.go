package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestParseVersion(t *testing.T) {
	cases := map[string]string{
		"1.1.8\n":             "1.1.8",
		"xcrun version 70.":   "70",
		"idb v1.2.0-beta1 ok": "1.2.0-beta1",
		"":                    "",
		"no digits here":      "",
	}
	for in, want := range cases {
		if got := ParseVersion(in); got != want {
			t.Fatalf("ParseVersion(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestVersionLess(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"1.0.9", "1.1.0", true},
		{"1.1.0", "1.1.0", false},
		{"1.10.0", "1.9.3", false},
		{"1.1", "1.1.1", true},
		{"v1.1.0-rc1", "1.1.0", true},
		{"", "1.0.0", false},
	}
	for _, c := range cases {
		if got := VersionLess(c.a, c.b); got != c.want {
			t.Fatalf("VersionLess(%q, %q) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func TestIsExecutable(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "idb")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\necho 1.1.8\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	plain := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(plain, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if !IsExecutable(ctx, exe) {
		t.Fatalf("expected %s to be executable", exe)
	}
	if IsExecutable(ctx, plain) || IsExecutable(ctx, dir) || IsExecutable(ctx, filepath.Join(dir, "missing")) {
		t.Fatalf("expected non-executables to be rejected")
	}
}

func TestCheckPathProbesVersion(t *testing.T) {
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
	dir := t.TempDir()
	exe := filepath.Join(dir, "idb")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\necho 'idb 1.1.8'\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	info, _ := Lookup(ToolIdb)
	res := CheckPath(context.Background(), info, exe)
	if !res.Installed || res.Version != "1.1.8" || res.Path != exe {
		t.Fatalf("unexpected check result: %+v", res)
	}
}

func TestParsePipShow(t *testing.T) {
	out := "Name: fb-idb\nVersion: 1.1.7\nSummary: iOS Development Bridge\n"
	if got := parsePipShow(out); got != "1.1.7" {
		t.Fatalf("parsePipShow = %q", got)
	}
	if got := parsePipShow("WARNING: Package(s) not found: fb-idb\n"); got != "" {
		t.Fatalf("expected empty version, got %q", got)
	}
}
