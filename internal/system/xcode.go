package system

import (
	"context"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

// XcodeInfo describes the installed Xcode toolchain, if any.
type XcodeInfo struct {
	Installed    bool   `json:"installed"`
	DeveloperDir string `json:"developerDir,omitempty"`
	Version      string `json:"version,omitempty"`
	Build        string `json:"build,omitempty"`
	SimctlPath   string `json:"simctlPath,omitempty"`
}

// GetXcodeInfo inspects the active developer directory and simctl.
// A missing toolchain is not an error; Installed is simply false.
func GetXcodeInfo(ctx context.Context) (XcodeInfo, error) {
	xi := XcodeInfo{}

	// Ensure xcode-select exists
	if _, err := exec.LookPath("xcode-select"); err != nil {
		return xi, nil
	}

	// Provide a short timeout per call to avoid hanging
	withTimeout := func(d time.Duration) (context.Context, context.CancelFunc) {
		return context.WithTimeout(ctx, d)
	}

	// Active developer directory
	{
		cctx, cancel := withTimeout(2 * time.Second)
		out, err := exec.CommandContext(cctx, "xcode-select", "-p").Output()
		cancel()
		if err != nil {
			return xi, nil
		}
		xi.DeveloperDir = strings.TrimSpace(string(out))
	}

	// simctl only ships with a full Xcode, not the command line tools.
	{
		cctx, cancel := withTimeout(3 * time.Second)
		out, err := exec.CommandContext(cctx, "xcrun", "--find", "simctl").Output()
		cancel()
		if err == nil {
			xi.SimctlPath = strings.TrimSpace(string(out))
		}
	}
	xi.Installed = xi.SimctlPath != ""

	// Version and build
	{
		cctx, cancel := withTimeout(3 * time.Second)
		out, err := exec.CommandContext(cctx, "xcodebuild", "-version").Output()
		cancel()
		if err == nil {
			xi.Version, xi.Build = parseXcodebuildVersion(string(out))
		}
	}

	return xi, nil
}

var (
	xcodeVersionRe = regexp.MustCompile(`(?m)^Xcode\s+(\S+)`)
	xcodeBuildRe   = regexp.MustCompile(`(?m)^Build version\s+(\S+)`)
)

// parseXcodebuildVersion reads `xcodebuild -version` output:
//
//	Xcode 15.3
//	Build version 15E204a
func parseXcodebuildVersion(out string) (version, build string) {
	if m := xcodeVersionRe.FindStringSubmatch(out); m != nil {
		version = m[1]
	}
	if m := xcodeBuildRe.FindStringSubmatch(out); m != nil {
		build = m[1]
	}
	return version, build
}
