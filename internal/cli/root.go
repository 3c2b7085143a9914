package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"devbridge/internal/app"
	"devbridge/internal/bridge"
	"devbridge/internal/config"
	"devbridge/internal/system"
)

var (
	flagConfig   string
	flagLogLevel string
	flagIdbPath  string
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "config file (default is the user config dir)")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&flagIdbPath, "idb-path", "", "idb client to use instead of the one on PATH")
}

var rootCmd = &cobra.Command{
	Use:   "devbridge",
	Short: "devbridge – drive iOS simulators and devices through idb or xcrun",
	Long: "devbridge streams device logs, captures screenshots, opens URLs and records video " +
		"on iOS simulators and devices. It prefers idb and falls back to xcrun simctl.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies the persistent flags.
func loadConfig() (config.Config, string, error) {
	path, err := config.Resolve(flagConfig)
	if err != nil {
		return config.Config{}, "", err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, path, err
	}
	applyFlags(&cfg)
	if err := system.SetLevel(cfg.Log.Level); err != nil {
		return config.Config{}, path, fmt.Errorf("log level: %w", err)
	}
	return cfg, path, nil
}

// applyFlags overlays the persistent flags on cfg.
func applyFlags(cfg *config.Config) {
	if flagIdbPath != "" {
		cfg.Idb.Path = flagIdbPath
		cfg.Idb.Disabled = false
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
}

func newBridge(ctx context.Context) (*bridge.Bridge, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.NewBridge(ctx, cfg, system.Logger)
}

// signalContext is cancelled on Ctrl+C or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
