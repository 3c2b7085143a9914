package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"devbridge/internal/bridge"
	tu "devbridge/internal/testutil"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"DEVBRIDGE_IDB_PATH", "DEVBRIDGE_XCODE", "DEVBRIDGE_LOG_LEVEL", "DEVBRIDGE_ADDR"} {
		t.Cleanup(tu.WithEnv(t, k, ""))
	}
}

func TestLoad_DefaultWhenMissing(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestDefaultPredicateMatchesBridge(t *testing.T) {
	if got := Default().Log.Predicate; got != bridge.DefaultLogPredicate {
		t.Fatalf("default predicate %q differs from the bridge's %q", got, bridge.DefaultLogPredicate)
	}
}

func TestLoad_FileOverlaysDefaults(t *testing.T) {
	clearEnv(t)
	p := filepath.Join(t.TempDir(), "config.toml")
	content := `
[idb]
path = "/opt/homebrew/bin/idb"

[xcode]
mode = "Never"

[log]
predicate = 'subsystem == "com.example"'
`
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Idb.Path != "/opt/homebrew/bin/idb" || cfg.Xcode.Mode != XcodeNever {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Log.Predicate != `subsystem == "com.example"` {
		t.Fatalf("unexpected predicate %q", cfg.Log.Predicate)
	}
	// untouched keys keep their defaults
	if cfg.Xcode.Xcrun != "xcrun" || cfg.Log.Level != "info" || cfg.Server.Addr != DefaultAddr {
		t.Fatalf("expected defaults for unset keys, got %+v", cfg)
	}
}

func TestLoad_RejectsUnknownKeysAndBadValues(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	cases := map[string]string{
		"unknown.toml": "[idb]\npaht = \"/x\"\n",
		"mode.toml":    "[xcode]\nmode = \"sometimes\"\n",
		"addr.toml":    "[server]\naddr = \"8788\"\n",
		"level.toml":   "[log]\nlevel = \"chatty\"\n",
	}
	for name, content := range cases {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(p); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	defer tu.WithEnv(t, "DEVBRIDGE_IDB_PATH", "/env/idb")()
	defer tu.WithEnv(t, "DEVBRIDGE_XCODE", "always")()
	defer tu.WithEnv(t, "DEVBRIDGE_ADDR", "0.0.0.0:9000")()
	cfg, err := Load(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Idb.Path != "/env/idb" || cfg.Xcode.Mode != XcodeAlways || cfg.Server.Addr != "0.0.0.0:9000" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestReadIgnoresEnvSoSaveKeepsFileValues(t *testing.T) {
	clearEnv(t)
	p := filepath.Join(t.TempDir(), "config.toml")
	if err := Save(p, Default()); err != nil {
		t.Fatal(err)
	}
	defer tu.WithEnv(t, "DEVBRIDGE_XCODE", "never")()
	defer tu.WithEnv(t, "DEVBRIDGE_IDB_PATH", "/env/idb")()

	loaded, err := Load(p)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if loaded.Xcode.Mode != XcodeNever {
		t.Fatalf("Load should apply env, got %+v", loaded.Xcode)
	}

	cfg, err := Read(p)
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("Read should ignore env, got %+v", cfg)
	}
	cfg.Log.Level = "debug"
	if err := Save(p, cfg); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(b), "never") || strings.Contains(string(b), "/env/idb") {
		t.Fatalf("env overrides leaked into the file:\n%s", b)
	}
	if !strings.Contains(string(b), "debug") {
		t.Fatalf("edited value not saved:\n%s", b)
	}
}

func TestSaveThenLoad(t *testing.T) {
	clearEnv(t)
	p := filepath.Join(t.TempDir(), "nested", "config.toml")
	in := Default()
	in.Idb.Disabled = true
	in.Log.Level = "debug"
	if err := Save(p, in); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "[idb]") {
		t.Fatalf("expected TOML tables, got:\n%s", b)
	}
	out, err := Load(p)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestSchemaUsesTomlKeys(t *testing.T) {
	b, err := MarshalSchema(Schema())
	if err != nil {
		t.Fatalf("MarshalSchema error: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("schema is not JSON: %v", err)
	}
	props, _ := doc["properties"].(map[string]any)
	for _, k := range []string{"idb", "xcode", "log", "server"} {
		if _, ok := props[k]; !ok {
			t.Fatalf("schema missing property %q: %s", k, b)
		}
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	clearEnv(t)
	p := filepath.Join(t.TempDir(), "config.toml")
	if err := Save(p, Default()); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, p, func(c Config, err error) {
			if err == nil {
				got <- c
			}
		})
	}()

	// give the watcher time to register
	time.Sleep(200 * time.Millisecond)
	next := Default()
	next.Server.Addr = "127.0.0.1:9999"
	if err := Save(p, next); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-got:
		if c.Server.Addr != "127.0.0.1:9999" {
			t.Fatalf("unexpected reloaded config: %+v", c)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for reload")
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Watch error: %v", err)
	}
}
