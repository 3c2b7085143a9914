// Package config loads the devbridge TOML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	clog "github.com/charmbracelet/log"
	toml "github.com/pelletier/go-toml/v2"

	"devbridge/internal/bridge"
)

// XcodeMode controls whether the Xcode toolchain counts as available.
type XcodeMode string

const (
	XcodeAuto   XcodeMode = "auto"
	XcodeAlways XcodeMode = "always"
	XcodeNever  XcodeMode = "never"
)

const DefaultAddr = "127.0.0.1:8788"

type Config struct {
	Idb    IdbConfig    `toml:"idb" json:"idb"`
	Xcode  XcodeConfig  `toml:"xcode" json:"xcode"`
	Log    LogConfig    `toml:"log" json:"log"`
	Server ServerConfig `toml:"server" json:"server"`
}

type IdbConfig struct {
	Path     string `toml:"path" json:"path" jsonschema:"description=Path to the idb client. Empty looks up idb on PATH."`
	Disabled bool   `toml:"disabled" json:"disabled" jsonschema:"description=Never use idb even when installed."`
}

type XcodeConfig struct {
	Mode  XcodeMode `toml:"mode" json:"mode" jsonschema:"enum=auto,enum=always,enum=never,default=auto,description=auto probes for simctl; always and never skip the probe."`
	Xcrun string    `toml:"xcrun" json:"xcrun" jsonschema:"default=xcrun,description=xcrun binary used by the fallback toolchain."`
}

type LogConfig struct {
	Level     string `toml:"level" json:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,default=info"`
	Predicate string `toml:"predicate" json:"predicate" jsonschema:"description=NSPredicate applied to filtered log streams."`
}

type ServerConfig struct {
	Addr string `toml:"addr" json:"addr" jsonschema:"default=127.0.0.1:8788,description=host:port for devbridge serve."`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Xcode:  XcodeConfig{Mode: XcodeAuto, Xcrun: "xcrun"},
		Log:    LogConfig{Level: "info", Predicate: bridge.DefaultLogPredicate},
		Server: ServerConfig{Addr: DefaultAddr},
	}
}

// Read decodes the config file at path on top of the defaults. It does not
// look at the environment, so its result is safe to write back. A missing
// file is not an error.
func Read(path string) (Config, error) {
	cfg, err := decodeFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Load is Read plus the DEVBRIDGE_* environment overrides.
func Load(path string) (Config, error) {
	cfg, err := decodeFile(path)
	if err != nil {
		return Config{}, err
	}
	applyEnv(&cfg)
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func decodeFile(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		dec := toml.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return Config{}, fmt.Errorf("%s: %s", path, strict.String())
			}
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent dirs.
func Save(path string, cfg Config) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("empty path")
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return err
	}
	b, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("DEVBRIDGE_IDB_PATH"); ok {
		cfg.Idb.Path = v
	}
	if v := os.Getenv("DEVBRIDGE_XCODE"); v != "" {
		cfg.Xcode.Mode = XcodeMode(v)
	}
	if v := os.Getenv("DEVBRIDGE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("DEVBRIDGE_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
}

func (c *Config) normalize() {
	d := Default()
	c.Idb.Path = strings.TrimSpace(c.Idb.Path)
	c.Xcode.Mode = XcodeMode(strings.ToLower(strings.TrimSpace(string(c.Xcode.Mode))))
	if c.Xcode.Mode == "" {
		c.Xcode.Mode = d.Xcode.Mode
	}
	if strings.TrimSpace(c.Xcode.Xcrun) == "" {
		c.Xcode.Xcrun = d.Xcode.Xcrun
	}
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if strings.TrimSpace(c.Log.Predicate) == "" {
		c.Log.Predicate = d.Log.Predicate
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		c.Server.Addr = d.Server.Addr
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Xcode.Mode {
	case XcodeAuto, XcodeAlways, XcodeNever:
	default:
		return fmt.Errorf("xcode.mode: unknown value %q (want auto, always or never)", c.Xcode.Mode)
	}
	if _, err := clog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if _, _, err := net.SplitHostPort(c.Server.Addr); err != nil {
		return fmt.Errorf("server.addr: %w", err)
	}
	return nil
}
