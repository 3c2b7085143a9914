package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	appver "devbridge/internal/version"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, k := range []string{"DEVBRIDGE_IDB_PATH", "DEVBRIDGE_XCODE", "DEVBRIDGE_LOG_LEVEL", "DEVBRIDGE_ADDR"} {
		t.Setenv(k, "")
	}
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		flagConfig, flagLogLevel, flagIdbPath = "", "", ""
		configInitForce = false
	})
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("version error: %v", err)
	}
	if strings.TrimSpace(out) != appver.AppVersion {
		t.Fatalf("unexpected version output %q", out)
	}
}

func TestConfigInitShowPath(t *testing.T) {
	p := filepath.Join(t.TempDir(), "cfg", "config.toml")

	out, err := run(t, "--config", p, "config", "path")
	if err != nil || strings.TrimSpace(out) != p {
		t.Fatalf("config path = %q, %v", out, err)
	}

	if _, err := run(t, "--config", p, "config", "init"); err != nil {
		t.Fatalf("config init error: %v", err)
	}
	if _, err := os.Stat(p); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	out, err = run(t, "--config", p, "config", "init")
	if err != nil || !strings.Contains(out, "keeping existing config") {
		t.Fatalf("second init should keep the file: %q %v", out, err)
	}

	out, err = run(t, "--config", p, "--idb-path", "/opt/idb", "config", "show")
	if err != nil {
		t.Fatalf("config show error: %v", err)
	}
	for _, want := range []string{"[server]", "/opt/idb", "127.0.0.1:8788"} {
		if !strings.Contains(out, want) {
			t.Fatalf("config show missing %q:\n%s", want, out)
		}
	}
}

func TestConfigSchema(t *testing.T) {
	out, err := run(t, "config", "schema")
	if err != nil {
		t.Fatalf("config schema error: %v", err)
	}
	if !strings.Contains(out, `"properties"`) || !strings.Contains(out, `"xcode"`) {
		t.Fatalf("unexpected schema:\n%s", out)
	}
}

func TestBadLogLevel(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.toml")
	if _, err := run(t, "--config", p, "--log-level", "chatty", "config", "show"); err == nil {
		t.Fatalf("expected error for unknown log level")
	}
}

func TestDefaultOutput(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 11, 12, 0, time.UTC)
	if got := defaultOutput("SIM-1", ts, ".png"); got != "SIM-1-20240501-101112.png" {
		t.Fatalf("defaultOutput = %q", got)
	}
}
