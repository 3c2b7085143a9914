package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"devbridge/internal/bridge"
	"devbridge/internal/config"
	"devbridge/internal/tools"
)

type Status string

const (
	StatusOK   Status = "ok"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// Check is one line of the doctor report.
type Check struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"`
	Hint   string `json:"hint,omitempty"`
}

// Report summarizes the device tooling on this machine.
type Report struct {
	ConfigPath string  `json:"configPath"`
	Family     string  `json:"family,omitempty"`
	ToolPath   string  `json:"toolPath,omitempty"`
	Checks     []Check `json:"checks"`
	// OK is false when any check failed.
	OK bool `json:"ok"`
}

// Diagnose inspects idb, Xcode and the config and reports which tool
// family a bridge would use.
func Diagnose(ctx context.Context, cfg config.Config, cfgPath string) Report {
	rep := Report{ConfigPath: cfgPath}
	rep.Checks = append(rep.Checks, configCheck(cfgPath))
	rep.Checks = append(rep.Checks, idbCheck(ctx, cfg))
	rep.Checks = append(rep.Checks, xcodeCheck(ctx, cfg))
	rep.Checks = append(rep.Checks, xcrunCheck(ctx, cfg))

	b, err := bridge.New(ctx, Availability(ctx, cfg), bridge.WithFallbackPath(cfg.Xcode.Xcrun))
	sel := Check{Name: "Bridge"}
	switch {
	case errors.Is(err, bridge.ErrNoToolchainAvailable):
		sel.Status = StatusFail
		sel.Detail = "no usable device tool"
		sel.Hint = "install idb (`pip install fb-idb` and `brew install idb-companion`) or Xcode"
	case err != nil:
		sel.Status = StatusFail
		sel.Detail = err.Error()
	default:
		rep.Family = b.Family().String()
		rep.ToolPath = b.ToolPath()
		sel.Status = StatusOK
		sel.Detail = fmt.Sprintf("using %s (%s)", rep.Family, rep.ToolPath)
		if b.Family() == bridge.FamilyFallback {
			sel.Status = StatusWarn
			sel.Hint = "physical devices need idb; xcrun only reaches simulators"
		}
	}
	rep.Checks = append(rep.Checks, sel)
	rep.OK = !slices.ContainsFunc(rep.Checks, func(c Check) bool { return c.Status == StatusFail })
	return rep
}

func configCheck(p string) Check {
	c := Check{Name: "Config", Status: StatusOK, Detail: p}
	if _, err := os.Stat(p); err != nil {
		c.Detail = p + " (not found, using defaults)"
		c.Hint = "run `devbridge config init` to create it"
	}
	return c
}

func idbCheck(ctx context.Context, cfg config.Config) Check {
	c := Check{Name: "idb"}
	if cfg.Idb.Disabled {
		c.Status = StatusWarn
		c.Detail = "disabled in config"
		return c
	}
	info, _ := tools.Lookup(tools.ToolIdb)
	var res tools.CheckResult
	if cfg.Idb.Path != "" {
		res = checkPath(ctx, info, cfg.Idb.Path)
	} else {
		res = checkTool(ctx, info)
	}
	if !res.Installed {
		c.Status = StatusWarn
		c.Detail = res.Err
		c.Hint = "install with `pip install fb-idb`"
		return c
	}
	c.Status = StatusOK
	c.Detail = strings.TrimSpace(res.Path + " " + res.Version)
	if res.Version != "" && tools.VersionLess(res.Version, tools.MinIdbVersion) {
		c.Status = StatusWarn
		c.Hint = fmt.Sprintf("idb %s is older than %s; upgrade with `pip install -U fb-idb`", res.Version, tools.MinIdbVersion)
	}
	return c
}

func xcodeCheck(ctx context.Context, cfg config.Config) Check {
	c := Check{Name: "Xcode"}
	switch cfg.Xcode.Mode {
	case config.XcodeNever:
		c.Status = StatusWarn
		c.Detail = "disabled in config"
		return c
	case config.XcodeAlways:
		c.Status = StatusOK
		c.Detail = "assumed present (xcode.mode = always)"
		return c
	}
	xi, err := getXcodeInfo(ctx)
	if err != nil {
		c.Status = StatusFail
		c.Detail = err.Error()
		return c
	}
	if !xi.Installed {
		c.Status = StatusWarn
		c.Detail = "simctl not found"
		if xi.DeveloperDir != "" {
			c.Detail += " (developer dir " + xi.DeveloperDir + ")"
		}
		c.Hint = "install Xcode and run `sudo xcode-select -s /Applications/Xcode.app`"
		return c
	}
	c.Status = StatusOK
	c.Detail = strings.TrimSpace(fmt.Sprintf("Xcode %s %s", xi.Version, xi.Build))
	return c
}

func xcrunCheck(ctx context.Context, cfg config.Config) Check {
	c := Check{Name: "xcrun"}
	if cfg.Xcode.Mode == config.XcodeNever {
		c.Status = StatusWarn
		c.Detail = "disabled in config"
		return c
	}
	p, err := lookPath(cfg.Xcode.Xcrun)
	if err != nil {
		c.Status = StatusWarn
		c.Detail = cfg.Xcode.Xcrun + " not found"
		c.Hint = "install the command line tools with `xcode-select --install`"
		return c
	}
	info, _ := tools.Lookup(tools.ToolXcrun)
	res := checkPath(ctx, info, p)
	if !res.Installed {
		c.Status = StatusWarn
		c.Detail = res.Err
		return c
	}
	c.Status = StatusOK
	c.Detail = strings.TrimSpace(res.Path + " " + res.Version)
	return c
}

// Markdown renders the report for terminal display.
func (r Report) Markdown() string {
	var sb strings.Builder
	sb.WriteString("# devbridge doctor\n\n")
	sb.WriteString("| Check | Status | Detail |\n|---|---|---|\n")
	for _, c := range r.Checks {
		fmt.Fprintf(&sb, "| %s | %s | %s |\n", c.Name, statusLabel(c.Status), escapeCell(c.Detail))
	}
	var hints []string
	for _, c := range r.Checks {
		if c.Hint != "" {
			hints = append(hints, fmt.Sprintf("- **%s**: %s", c.Name, c.Hint))
		}
	}
	if len(hints) > 0 {
		sb.WriteString("\n## Hints\n\n")
		sb.WriteString(strings.Join(hints, "\n"))
		sb.WriteString("\n")
	}
	return sb.String()
}

func statusLabel(s Status) string {
	switch s {
	case StatusOK:
		return "✓ ok"
	case StatusWarn:
		return "! warn"
	default:
		return "✗ fail"
	}
}

func escapeCell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", `\|`)
}
