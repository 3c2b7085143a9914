package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/charmbracelet/log"

	"devbridge/internal/bridge"
	"devbridge/internal/config"
	"devbridge/internal/system"
	"devbridge/internal/tools"
)

// Seams for tests.
var (
	lookPath     = exec.LookPath
	getXcodeInfo = system.GetXcodeInfo
	checkTool    = tools.CheckTool
	checkPath    = tools.CheckPath
)

// idbPath returns the configured idb client, or the one on PATH.
func idbPath(cfg config.Config) string {
	if cfg.Idb.Disabled {
		return ""
	}
	if cfg.Idb.Path != "" {
		return cfg.Idb.Path
	}
	if p, err := lookPath("idb"); err == nil {
		return p
	}
	return ""
}

// hasXcode resolves the fallback flag for the configured mode.
func hasXcode(ctx context.Context, cfg config.Config) bool {
	switch cfg.Xcode.Mode {
	case config.XcodeAlways:
		return true
	case config.XcodeNever:
		return false
	default:
		xi, err := getXcodeInfo(ctx)
		return err == nil && xi.Installed
	}
}

// Availability builds the bridge input for cfg.
func Availability(ctx context.Context, cfg config.Config) bridge.Availability {
	return bridge.Availability{
		PreferredToolPath:    idbPath(cfg),
		HasFallbackToolchain: hasXcode(ctx, cfg),
		Detect:               tools.IsExecutable,
	}
}

// NewBridge detects the available tools and returns a bridge bound to the
// best one.
func NewBridge(ctx context.Context, cfg config.Config, logger *log.Logger, opts ...bridge.Option) (*bridge.Bridge, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	base := []bridge.Option{
		bridge.WithLogger(logger),
		bridge.WithFallbackPath(cfg.Xcode.Xcrun),
		bridge.WithLogPredicate(cfg.Log.Predicate),
	}
	b, err := bridge.New(ctx, Availability(ctx, cfg), append(base, opts...)...)
	if errors.Is(err, bridge.ErrNoToolchainAvailable) {
		return nil, fmt.Errorf("%w (install idb with `pip install fb-idb` or install Xcode; run `devbridge doctor` for details)", err)
	}
	if err != nil {
		return nil, err
	}
	logger.Debug("bridge selected", "family", b.Family(), "tool", b.ToolPath())
	return b, nil
}
